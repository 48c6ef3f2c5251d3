package match

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/civic-analytics/streetmatch/internal/model"
)

// Stats aggregates the recoverable failures seen during resolution.
type Stats struct {
	Single          int
	Geometric       int
	Unmatched       int
	MissingGeometry int // candidate geometries skipped across all addresses
}

// ResolveAll produces the terminal resolved mapping: every address in the
// partition appears exactly once, matched via its single candidate, via
// geometric disambiguation, or with the no-match sentinel.
//
// Multi-candidate addresses are resolved concurrently; each resolution
// only reads the shared geometry cache, so sharding is safe.
func ResolveAll(ctx context.Context, p Partition, geoms GeometryCache, workers int) ([]model.ResolvedMatch, Stats, error) {
	if workers <= 0 {
		workers = 1
	}

	var (
		mu      sync.Mutex
		stats   Stats
		matches []model.ResolvedMatch
	)

	for mafid, tlid := range p.Single {
		matches = append(matches, model.ResolvedMatch{
			MAFID: mafid, TLID: tlid, Method: model.MethodSingle,
		})
	}
	stats.Single = len(p.Single)

	for _, mafid := range p.Unmatched {
		matches = append(matches, model.ResolvedMatch{
			MAFID: mafid, TLID: model.NoMatch, Method: model.MethodNone,
		})
	}
	stats.Unmatched = len(p.Unmatched)

	// Deterministic work order regardless of map iteration.
	multiIDs := make([]string, 0, len(p.Multi))
	for mafid := range p.Multi {
		multiIDs = append(multiIDs, mafid)
	}
	sort.Strings(multiIDs)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, mafid := range multiIDs {
		mc := p.Multi[mafid]
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			tlid, skipped, ok := FindClosest(mc.Candidates, geoms, mc.Address.Latitude, mc.Address.Longitude)

			m := model.ResolvedMatch{MAFID: mc.Address.MAFID}
			mu.Lock()
			defer mu.Unlock()
			stats.MissingGeometry += skipped
			if ok {
				m.TLID = tlid
				m.Method = model.MethodGeometric
				stats.Geometric++
			} else {
				m.TLID = model.NoMatch
				m.Method = model.MethodNone
				stats.Unmatched++
			}
			matches = append(matches, m)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, stats, err
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i].MAFID < matches[j].MAFID })

	zap.L().Info("resolved addresses",
		zap.Int("single", stats.Single),
		zap.Int("geometric", stats.Geometric),
		zap.Int("unmatched", stats.Unmatched),
		zap.Int("missing_geometry", stats.MissingGeometry),
	)
	return matches, stats, nil
}
