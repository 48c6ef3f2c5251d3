package tiger

import (
	"path/filepath"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeEdgesShapefile(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "tl_2017_08031_edges.shp")

	w, err := shp.Create(path, shp.POLYLINE)
	require.NoError(t, err)

	w.SetFields([]shp.Field{
		shp.StringField("TLID", 22),
		shp.StringField("TNIDF", 10),
		shp.StringField("TNIDT", 10),
		shp.StringField("FULLNAME", 100),
		shp.StringField("ROADFLG", 1),
		shp.StringField("TFIDL", 10),
		shp.StringField("TFIDR", 10),
	})

	rows := [][]string{
		{"1001", "N1", "N2", "Main St", "Y", "F1", "F2"},
		{"1002", "N2", "N3", "Elm St", "Y", "F2", "F3"},
		{"1003", "N3", "N4", "Cherry Crk", "N", "F3", "F4"},
		{"", "N4", "N5", "Ghost Rd", "Y", "", ""}, // no TLID: dropped
	}
	for n, row := range rows {
		w.Write(shp.NewPolyLine([][]shp.Point{
			{{X: float64(n), Y: float64(n)}, {X: float64(n) + 1, Y: float64(n) + 1}},
		}))
		for col, val := range row {
			require.NoError(t, w.WriteAttribute(n, col, val))
		}
	}
	w.Close()
	return path
}

func writeFacesShapefile(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "tl_2017_08031_faces.shp")

	w, err := shp.Create(path, shp.POLYGON)
	require.NoError(t, err)

	w.SetFields([]shp.Field{
		shp.StringField("TFID", 10),
		shp.StringField("STATEFP10", 2),
		shp.StringField("COUNTYFP10", 3),
		shp.StringField("TRACTCE10", 6),
		shp.StringField("BLOCKCE10", 4),
	})

	rows := [][]string{
		{"F1", "08", "031", "004100", "1234"},
		{"F2", "08", "031", "004100", "1235"},
		{"F3", "08", "031", "", "1236"}, // incomplete: dropped
	}
	for n, row := range rows {
		ring := shp.Polygon(*shp.NewPolyLine([][]shp.Point{
			{{X: 0, Y: 0}, {X: 0, Y: 1}, {X: 1, Y: 1}, {X: 0, Y: 0}},
		}))
		w.Write(&ring)
		for col, val := range row {
			require.NoError(t, w.WriteAttribute(n, col, val))
		}
	}
	w.Close()
	return path
}

func TestParseEdges(t *testing.T) {
	path := writeEdgesShapefile(t, t.TempDir())

	segments, err := ParseEdges(path)
	require.NoError(t, err)
	require.Len(t, segments, 3)

	first := segments[0]
	assert.Equal(t, "1001", first.TLID)
	assert.Equal(t, "Main St", first.FullName)
	assert.Equal(t, "N1", first.FromNode)
	assert.Equal(t, "N2", first.ToNode)
	assert.Equal(t, "F1", first.LeftFace)
	assert.Equal(t, "F2", first.RightFace)
	assert.True(t, first.IsRoad())
	assert.Equal(t, "LINESTRING (0 0, 1 1)", first.Geometry)

	assert.False(t, segments[2].IsRoad())
}

func TestParseFaces(t *testing.T) {
	path := writeFacesShapefile(t, t.TempDir())

	faces, err := ParseFaces(path)
	require.NoError(t, err)
	require.Len(t, faces, 2)

	assert.Equal(t, "F1", faces[0].TFID)
	assert.Equal(t, "080310041001234", faces[0].BlockID)
	assert.Equal(t, "080310041001235", faces[1].BlockID)
}

func TestParseEdges_MissingFile(t *testing.T) {
	_, err := ParseEdges(filepath.Join(t.TempDir(), "nope.shp"))
	assert.Error(t, err)
}
