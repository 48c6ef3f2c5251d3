package synth

import (
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civic-analytics/streetmatch/internal/model"
)

func testSegments() []model.Segment {
	return []model.Segment{
		{TLID: "T1", FullName: "Main St", LeftFace: "F1", Geometry: "LINESTRING (-104.99 39.73, -104.98 39.74, -104.97 39.75)"},
		{TLID: "T2", FullName: "Elm St", RightFace: "F2", Geometry: "LINESTRING (-104.96 39.76, -104.95 39.77)"},
		{TLID: "T3", FullName: "Ghost Rd", LeftFace: "F9"},  // no geometry
		{TLID: "T4", FullName: "", LeftFace: "F1", Geometry: "LINESTRING (0 0, 1 1)"}, // unnamed
	}
}

func testFaces() []model.Face {
	return []model.Face{
		{TFID: "F1", BlockID: "B100"},
		{TFID: "F2", BlockID: "B200"},
	}
}

func TestAttributes(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	attrs, err := Attributes(testSegments(), 3, rng)
	require.NoError(t, err)

	require.Len(t, attrs, 4)
	assert.Len(t, attrs["T1"].Values, 3)
	assert.Equal(t, "Main St", attrs["T1"].FullName)

	// Same seed, same draw.
	again, err := Attributes(testSegments(), 3, rand.New(rand.NewPCG(1, 2)))
	require.NoError(t, err)
	assert.Equal(t, attrs["T1"].Values, again["T1"].Values)

	_, err = Attributes(testSegments(), 0, rng)
	assert.Error(t, err)
}

func TestAddresses(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))
	addrs, err := Addresses(testSegments(), testFaces(), 2, rng)
	require.NoError(t, err)

	// T1 and T2 qualify; T3 has no geometry, T4 no name.
	require.Len(t, addrs, 4)

	for _, a := range addrs {
		assert.True(t, strings.HasPrefix(a.MAFID, "SYN"))
		assert.NotEmpty(t, a.BlockID)
		assert.NotEmpty(t, a.StreetName)
	}

	// T1's midpoint vertex is (-104.98, 39.74); jitter stays small.
	assert.InDelta(t, 39.74, addrs[0].Latitude, 1e-3)
	assert.InDelta(t, -104.98, addrs[0].Longitude, 1e-3)
	assert.Equal(t, "B100", addrs[0].BlockID)
}

func TestAddresses_NothingUsable(t *testing.T) {
	_, err := Addresses([]model.Segment{{TLID: "T1"}}, nil, 1, nil)
	assert.Error(t, err)
}
