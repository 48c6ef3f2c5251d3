package tiger

import (
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPolyLineWKT_SinglePart(t *testing.T) {
	pl := shp.NewPolyLine([][]shp.Point{
		{{X: -104.99, Y: 39.73}, {X: -104.98, Y: 39.74}},
	})

	got, err := PolyLineWKT(pl)
	require.NoError(t, err)
	assert.Equal(t, "LINESTRING (-104.99 39.73, -104.98 39.74)", got)
}

func TestPolyLineWKT_MultiPart(t *testing.T) {
	pl := shp.NewPolyLine([][]shp.Point{
		{{X: 0, Y: 0}, {X: 1, Y: 1}},
		{{X: 2, Y: 2}, {X: 3, Y: 3}},
	})

	got, err := PolyLineWKT(pl)
	require.NoError(t, err)
	assert.Equal(t, "MULTILINESTRING ((0 0, 1 1), (2 2, 3 3))", got)
}

func TestPolyLineWKT_Degenerate(t *testing.T) {
	_, err := PolyLineWKT(nil)
	assert.Error(t, err)

	_, err = PolyLineWKT(shp.NewPolyLine([][]shp.Point{{{X: 1, Y: 1}}}))
	assert.Error(t, err)
}
