package match

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civic-analytics/streetmatch/internal/model"
)

func addr(mafid string, lat, lon float64) model.Address {
	return model.Address{MAFID: mafid, Latitude: lat, Longitude: lon, StreetName: "Main St", BlockID: "blk"}
}

func TestSplit(t *testing.T) {
	addresses := []model.Address{
		addr("1", 39.7, -104.9),
		addr("2", 39.8, -104.8),
		addr("3", 39.9, -104.7),
		addr("4", 40.0, -104.6),
		addr("5", 40.1, -104.5),
	}
	candidates := model.CandidateSet{
		"1": {"T10"},
		"2": {"T20", "T21"},
		"3": {},
		"4": {""}, // one entry, but empty: no match
		// "5" absent entirely
	}

	p := Split(addresses, candidates)

	assert.Equal(t, map[string]string{"1": "T10"}, p.Single)
	require.Contains(t, p.Multi, "2")
	assert.Equal(t, []string{"T20", "T21"}, p.Multi["2"].Candidates)
	assert.ElementsMatch(t, []string{"3", "4", "5"}, p.Unmatched)
}

func TestCandidateTLIDs(t *testing.T) {
	p := Split([]model.Address{addr("1", 0, 0), addr("2", 0, 0)}, model.CandidateSet{
		"1": {"A", "B"},
		"2": {"B", "C"},
	})

	got := p.CandidateTLIDs()
	assert.Len(t, got, 3)
	for _, tlid := range []string{"A", "B", "C"} {
		_, ok := got[tlid]
		assert.True(t, ok, tlid)
	}
}

func TestFindClosest_CoincidentVertexWins(t *testing.T) {
	geoms := GeometryCache{
		// Vertices are (lon lat). Segment A passes through the point.
		"A": "LINESTRING (-104.9903 39.7392, -104.9900 39.7400)",
		"B": "LINESTRING (-104.9800 39.7500, -104.9790 39.7510)",
		"C": "LINESTRING (-105.0000 39.7600, -104.9990 39.7610)",
	}

	// Answer must not depend on candidate ordering.
	orders := [][]string{
		{"A", "B", "C"},
		{"C", "B", "A"},
		{"B", "A", "C"},
	}
	for _, order := range orders {
		tlid, skipped, ok := FindClosest(order, geoms, 39.7392, -104.9903)
		require.True(t, ok)
		assert.Equal(t, "A", tlid)
		assert.Zero(t, skipped)
	}
}

func TestFindClosest_ScansAllCandidates(t *testing.T) {
	// The nearest vertex belongs to the *last* candidate: the scan must
	// not stop after the first candidate's vertices.
	geoms := GeometryCache{
		"far":  "LINESTRING (0 0, 0 1)",
		"near": "LINESTRING (10 10, 10.001 10.001)",
	}
	tlid, _, ok := FindClosest([]string{"far", "near"}, geoms, 10, 10)
	require.True(t, ok)
	assert.Equal(t, "near", tlid)
}

func TestFindClosest_SkipsInvalidGeometry(t *testing.T) {
	geoms := GeometryCache{
		"bad":  "not wkt at all",
		"none": "",
		"good": "LINESTRING (1 1, 2 2)",
	}

	tlid, skipped, ok := FindClosest([]string{"bad", "none", "missing", "good"}, geoms, 1, 1)
	require.True(t, ok)
	assert.Equal(t, "good", tlid)
	assert.Equal(t, 3, skipped)
}

func TestFindClosest_AllInvalid(t *testing.T) {
	_, skipped, ok := FindClosest([]string{"x", "y"}, GeometryCache{}, 1, 1)
	assert.False(t, ok)
	assert.Equal(t, 2, skipped)
}

func TestFindClosest_MultiLineString(t *testing.T) {
	geoms := GeometryCache{
		"M": "MULTILINESTRING ((0 0, 0 1), (5 5, 6 6))",
		"N": "LINESTRING (100 100, 101 101)",
	}
	tlid, _, ok := FindClosest([]string{"N", "M"}, geoms, 5, 5)
	require.True(t, ok)
	assert.Equal(t, "M", tlid)
}

func TestBuildGeometryCache(t *testing.T) {
	p := Split([]model.Address{addr("1", 0, 0)}, model.CandidateSet{
		"1": {"A", "B", "C"},
	})
	segments := map[string]model.Segment{
		"A": {TLID: "A", Geometry: "LINESTRING (0 0, 1 1)"},
		"B": {TLID: "B"}, // no geometry
		"Z": {TLID: "Z", Geometry: "LINESTRING (2 2, 3 3)"},
	}

	cache := BuildGeometryCache(p, segments)
	assert.Equal(t, GeometryCache{"A": "LINESTRING (0 0, 1 1)"}, cache)
}

func TestResolveAll(t *testing.T) {
	addresses := []model.Address{
		addr("1", 39.7, -104.9),
		addr("2", 0.5, 0.5),
		addr("3", 0, 0),
	}
	candidates := model.CandidateSet{
		"1": {"S1"},
		"2": {"G1", "G2"},
		"3": {},
	}
	p := Split(addresses, candidates)

	geoms := GeometryCache{
		"G1": "LINESTRING (0.5 0.5, 0.6 0.6)",
		"G2": "LINESTRING (9 9, 8 8)",
	}

	matches, stats, err := ResolveAll(context.Background(), p, geoms, 2)
	require.NoError(t, err)

	require.Len(t, matches, 3)
	byID := make(map[string]model.ResolvedMatch, len(matches))
	for _, m := range matches {
		byID[m.MAFID] = m
	}

	assert.Equal(t, "S1", byID["1"].TLID)
	assert.Equal(t, model.MethodSingle, byID["1"].Method)
	assert.Equal(t, "G1", byID["2"].TLID)
	assert.Equal(t, model.MethodGeometric, byID["2"].Method)
	assert.Equal(t, model.NoMatch, byID["3"].TLID)
	assert.Equal(t, model.MethodNone, byID["3"].Method)

	assert.Equal(t, 1, stats.Single)
	assert.Equal(t, 1, stats.Geometric)
	assert.Equal(t, 1, stats.Unmatched)

	// Output is sorted by MAFID for stable reports.
	assert.Equal(t, "1", matches[0].MAFID)
	assert.Equal(t, "3", matches[2].MAFID)
}

func TestResolveAll_GeometricFailureYieldsSentinel(t *testing.T) {
	p := Split([]model.Address{addr("9", 1, 1)}, model.CandidateSet{
		"9": {"gone", "missing"},
	})

	matches, stats, err := ResolveAll(context.Background(), p, GeometryCache{}, 4)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, model.NoMatch, matches[0].TLID)
	assert.Equal(t, 1, stats.Unmatched)
	assert.Equal(t, 2, stats.MissingGeometry)
}
