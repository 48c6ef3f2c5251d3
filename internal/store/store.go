// Package store persists the pipeline's working data: TIGER segments
// and faces, MAF addresses, candidate sets, resolved matches, and walk
// runs. Two backends implement the same interface; SQLite for local
// single-county work, Postgres for full-state loads.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/civic-analytics/streetmatch/internal/model"
)

// Store is the persistence interface for the matching pipeline.
type Store interface {
	// TIGER data
	InsertSegments(ctx context.Context, segments []model.Segment) error
	ListSegments(ctx context.Context, roadsOnly bool) ([]model.Segment, error)
	InsertFaces(ctx context.Context, faces []model.Face) error
	ListFaces(ctx context.Context) ([]model.Face, error)

	// MAF addresses
	InsertAddresses(ctx context.Context, addresses []model.Address) error
	ListAddresses(ctx context.Context) ([]model.Address, error)

	// Crosswalk candidates
	SaveCandidates(ctx context.Context, candidates model.CandidateSet) error
	GetCandidates(ctx context.Context) (model.CandidateSet, error)

	// Resolved matches
	SaveMatches(ctx context.Context, matches []model.ResolvedMatch) error
	ListMatches(ctx context.Context) ([]model.ResolvedMatch, error)

	// Walk runs
	CreateWalkRun(ctx context.Context, run *model.WalkRun) error
	GetWalkRun(ctx context.Context, id string) (*model.WalkRun, error)
	ListWalkRuns(ctx context.Context, limit int) ([]model.WalkRun, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Open constructs the configured backend and runs migrations.
func Open(ctx context.Context, driver, databaseURL string) (Store, error) {
	var (
		s   Store
		err error
	)
	switch driver {
	case "sqlite", "":
		s, err = NewSQLite(databaseURL)
	case "postgres":
		s, err = NewPostgres(ctx, databaseURL, nil)
	default:
		return nil, eris.Errorf("store: unknown driver %q", driver)
	}
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

// SegmentsByTLID indexes a segment list by TLID.
func SegmentsByTLID(segments []model.Segment) map[string]model.Segment {
	out := make(map[string]model.Segment, len(segments))
	for _, s := range segments {
		out[s.TLID] = s
	}
	return out
}
