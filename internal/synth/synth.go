// Package synth generates synthetic inputs for end-to-end exercising of
// the pipeline without Census microdata: per-segment attribute vectors
// drawn from a standard normal, and addresses placed on real segment
// geometry. Useful for calibration runs and demos where MAF extracts
// cannot be shared.
package synth

import (
	"fmt"
	"math/rand/v2"

	"github.com/rotisserie/eris"
	geom "github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/wkt"

	"github.com/civic-analytics/streetmatch/internal/model"
)

// Attributes draws a dim-dimensional standard-normal vector per
// segment.
func Attributes(segments []model.Segment, dim int, rng *rand.Rand) (map[string]model.Attributes, error) {
	if dim <= 0 {
		return nil, eris.New("synth: attribute dimension must be positive")
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	out := make(map[string]model.Attributes, len(segments))
	for _, seg := range segments {
		values := make([]float64, dim)
		for i := range values {
			values[i] = rng.NormFloat64()
		}
		out[seg.TLID] = model.Attributes{
			TLID:     seg.TLID,
			FullName: seg.FullName,
			Values:   values,
		}
	}
	return out, nil
}

// Addresses fabricates perSegment addresses on each segment that has
// geometry and a block. Points sit at the segment's middle vertex with
// small jitter; block comes from the left face so the crosswalk can
// find them again.
func Addresses(segments []model.Segment, faces []model.Face, perSegment int, rng *rand.Rand) ([]model.Address, error) {
	if perSegment <= 0 {
		perSegment = 1
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	faceBlock := make(map[string]string, len(faces))
	for _, f := range faces {
		faceBlock[f.TFID] = f.BlockID
	}

	var out []model.Address
	var n int
	for _, seg := range segments {
		block := faceBlock[seg.LeftFace]
		if block == "" {
			block = faceBlock[seg.RightFace]
		}
		if block == "" || seg.Geometry == "" || seg.FullName == "" {
			continue
		}
		lat, lon, err := midpoint(seg.Geometry)
		if err != nil {
			continue
		}
		for i := 0; i < perSegment; i++ {
			n++
			out = append(out, model.Address{
				MAFID:      fmt.Sprintf("SYN%08d", n),
				Latitude:   lat + jitter(rng),
				Longitude:  lon + jitter(rng),
				StreetName: seg.FullName,
				BlockID:    block,
			})
		}
	}
	if len(out) == 0 {
		return nil, eris.New("synth: no segment had geometry, name, and block")
	}
	return out, nil
}

// jitter is a tiny offset, roughly ten meters in degree space.
func jitter(rng *rand.Rand) float64 {
	return (rng.Float64() - 0.5) * 2e-4
}

// midpoint returns (lat, lon) of the middle vertex of a WKT line.
func midpoint(raw string) (float64, float64, error) {
	g, err := wkt.Unmarshal(raw)
	if err != nil {
		return 0, 0, eris.Wrap(err, "synth: parse geometry")
	}

	var coords []geom.Coord
	switch ln := g.(type) {
	case *geom.LineString:
		coords = ln.Coords()
	case *geom.MultiLineString:
		for i := 0; i < ln.NumLineStrings(); i++ {
			coords = append(coords, ln.LineString(i).Coords()...)
		}
	default:
		return 0, 0, eris.New("synth: geometry is not a line")
	}
	if len(coords) == 0 {
		return 0, 0, eris.New("synth: empty geometry")
	}

	// WKT vertices are (lon, lat).
	mid := coords[len(coords)/2]
	return mid[1], mid[0], nil
}
