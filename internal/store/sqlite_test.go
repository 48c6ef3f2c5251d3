package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civic-analytics/streetmatch/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func TestSQLite_Segments(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	segments := []model.Segment{
		{TLID: "1001", FullName: "Main St", FromNode: "N1", ToNode: "N2", RoadFlag: "Y", Geometry: "LINESTRING (0 0, 1 1)"},
		{TLID: "1002", FullName: "Rail Spur", FromNode: "N2", ToNode: "N3", RoadFlag: "N"},
	}
	require.NoError(t, s.InsertSegments(ctx, segments))

	all, err := s.ListSegments(ctx, false)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Equal(t, "Main St", all[0].FullName)
	assert.Equal(t, "LINESTRING (0 0, 1 1)", all[0].Geometry)

	roads, err := s.ListSegments(ctx, true)
	require.NoError(t, err)
	require.Len(t, roads, 1)
	assert.Equal(t, "1001", roads[0].TLID)

	// Re-inserting the same TLID replaces, not duplicates.
	require.NoError(t, s.InsertSegments(ctx, []model.Segment{{TLID: "1001", FullName: "Main Street", RoadFlag: "Y"}}))
	all, err = s.ListSegments(ctx, false)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Equal(t, "Main Street", all[0].FullName)
}

func TestSQLite_FacesAndAddresses(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.InsertFaces(ctx, []model.Face{
		{TFID: "F1", BlockID: "B100"},
		{TFID: "F2", BlockID: "B200"},
	}))
	faces, err := s.ListFaces(ctx)
	require.NoError(t, err)
	assert.Len(t, faces, 2)
	assert.Equal(t, "B100", faces[0].BlockID)

	require.NoError(t, s.InsertAddresses(ctx, []model.Address{
		{MAFID: "A1", Latitude: 39.7, Longitude: -104.9, StreetName: "Main St", BlockID: "B100"},
	}))
	addrs, err := s.ListAddresses(ctx)
	require.NoError(t, err)
	require.Len(t, addrs, 1)
	assert.Equal(t, 39.7, addrs[0].Latitude)
}

func TestSQLite_Candidates(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	in := model.CandidateSet{
		"A1": {"1001", "1002"},
		"A2": nil,
	}
	require.NoError(t, s.SaveCandidates(ctx, in))

	out, err := s.GetCandidates(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"1001", "1002"}, out["A1"])
	assert.Empty(t, out["A2"])
	assert.Len(t, out, 2)
}

func TestSQLite_Matches(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveMatches(ctx, []model.ResolvedMatch{
		{MAFID: "A1", TLID: "1001", Method: model.MethodSingle},
		{MAFID: "A2", TLID: model.NoMatch, Method: model.MethodNone},
	}))

	matches, err := s.ListMatches(ctx)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, model.NoMatch, matches[1].TLID)
}

func TestSQLite_WalkRuns(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	run := &model.WalkRun{
		Metric:   "euclidean",
		Seed:     42,
		Restarts: 3,
		Segments: 120,
		Decisions: map[string]int{
			"N1": 1,
			"N2": 0,
		},
	}
	require.NoError(t, s.CreateWalkRun(ctx, run))
	require.NotEmpty(t, run.ID)
	require.False(t, run.CreatedAt.IsZero())

	got, err := s.GetWalkRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(42), got.Seed)
	assert.Equal(t, 3, got.Restarts)
	assert.Equal(t, map[string]int{"N1": 1, "N2": 0}, got.Decisions)

	_, err = s.GetWalkRun(ctx, "missing")
	assert.Error(t, err)

	runs, err := s.ListWalkRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, run.ID, runs[0].ID)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "oracle", "dsn")
	assert.Error(t, err)
}

func TestOpen_SQLite(t *testing.T) {
	s, err := Open(context.Background(), "sqlite", filepath.Join(t.TempDir(), "open.db"))
	require.NoError(t, err)
	require.NoError(t, s.Close())
}

func TestSegmentsByTLID(t *testing.T) {
	m := SegmentsByTLID([]model.Segment{{TLID: "1"}, {TLID: "2"}})
	assert.Len(t, m, 2)
	assert.Equal(t, "2", m["2"].TLID)
}
