package tiger

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/civic-analytics/streetmatch/internal/model"
)

// Writer receives parsed TIGER records. The store satisfies this.
type Writer interface {
	InsertSegments(ctx context.Context, segments []model.Segment) error
	InsertFaces(ctx context.Context, faces []model.Face) error
}

// LoadOptions configures a TIGER ingest run.
type LoadOptions struct {
	Year        int      // TIGER/Line vintage (default 2017)
	Counties    []string // 5-digit county FIPS codes; required
	TempDir     string   // download directory
	Concurrency int      // parallel county downloads (default 3)
}

// LoadResult summarizes a completed ingest.
type LoadResult struct {
	Counties int
	Segments int
	Faces    int
	Duration time.Duration
}

// Load downloads, parses, and stores EDGES and FACES for each county.
// Counties run in parallel; the two products of one county run in
// sequence because they share a download directory.
func Load(ctx context.Context, w Writer, dl *Downloader, opts LoadOptions) (LoadResult, error) {
	if opts.Year == 0 {
		opts.Year = 2017
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 3
	}
	if opts.TempDir == "" {
		opts.TempDir = "/tmp/streetmatch-tiger"
	}
	if len(opts.Counties) == 0 {
		return LoadResult{}, eris.New("tiger: no counties given")
	}
	for _, county := range opts.Counties {
		if err := ValidateCounty(county); err != nil {
			return LoadResult{}, err
		}
	}

	log := zap.L().With(
		zap.String("component", "tiger.loader"),
		zap.Int("year", opts.Year),
	)
	start := time.Now()

	var (
		mu     sync.Mutex
		result LoadResult
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)
	for _, county := range opts.Counties {
		g.Go(func() error {
			segs, faces, err := loadCounty(gCtx, w, dl, county, opts)
			if err != nil {
				return err
			}
			mu.Lock()
			result.Counties++
			result.Segments += segs
			result.Faces += faces
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return result, err
	}

	result.Duration = time.Since(start)
	log.Info("TIGER ingest complete",
		zap.Int("counties", result.Counties),
		zap.Int("segments", result.Segments),
		zap.Int("faces", result.Faces),
		zap.Duration("duration", result.Duration),
	)
	return result, nil
}

func loadCounty(ctx context.Context, w Writer, dl *Downloader, county string, opts LoadOptions) (int, int, error) {
	log := zap.L().With(
		zap.String("component", "tiger.loader"),
		zap.String("county", county),
	)
	destDir := fmt.Sprintf("%s/%s", opts.TempDir, county)

	edgesProduct, _ := ProductByName("EDGES")
	shpPath, err := dl.Fetch(ctx, edgesProduct, opts.Year, county, destDir)
	if err != nil {
		return 0, 0, eris.Wrapf(err, "tiger: fetch edges for %s", county)
	}
	segments, err := ParseEdges(shpPath)
	if err != nil {
		return 0, 0, eris.Wrapf(err, "tiger: parse edges for %s", county)
	}
	if err := w.InsertSegments(ctx, segments); err != nil {
		return 0, 0, eris.Wrapf(err, "tiger: store segments for %s", county)
	}
	log.Info("edges loaded", zap.Int("segments", len(segments)))

	facesProduct, _ := ProductByName("FACES")
	shpPath, err = dl.Fetch(ctx, facesProduct, opts.Year, county, destDir)
	if err != nil {
		return 0, 0, eris.Wrapf(err, "tiger: fetch faces for %s", county)
	}
	faces, err := ParseFaces(shpPath)
	if err != nil {
		return 0, 0, eris.Wrapf(err, "tiger: parse faces for %s", county)
	}
	if err := w.InsertFaces(ctx, faces); err != nil {
		return 0, 0, eris.Wrapf(err, "tiger: store faces for %s", county)
	}
	log.Info("faces loaded", zap.Int("faces", len(faces)))

	return len(segments), len(faces), nil
}

// CountiesFromList parses a comma-separated county flag value.
func CountiesFromList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
