package match

import (
	"math"

	"github.com/rotisserie/eris"
	geom "github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/wkt"

	"github.com/civic-analytics/streetmatch/internal/model"
)

// GeometryCache maps a candidate TLID to its WKT LINESTRING text. A
// missing entry (or empty string) marks a segment whose geometry could
// not be resolved.
type GeometryCache map[string]string

// BuildGeometryCache extracts geometry for exactly the TLIDs referenced
// by multi-candidate addresses. Segments absent from the table simply get
// no entry; the resolver treats that as a skippable candidate.
func BuildGeometryCache(p Partition, segments map[string]model.Segment) GeometryCache {
	cache := make(GeometryCache)
	for tlid := range p.CandidateTLIDs() {
		if seg, ok := segments[tlid]; ok && seg.Geometry != "" {
			cache[tlid] = seg.Geometry
		}
	}
	return cache
}

// FindClosest returns the candidate whose line geometry has the vertex
// nearest the address point, scanning every vertex of every candidate.
//
// Distance is straight-line over raw coordinates, not great-circle: the
// candidates are already confined to the address's block by the
// crosswalk, so vertex sampling at that scale is enough to pick among a
// handful of nearby streets. Do not replace this with true point-to-line
// distance without revisiting the calibration of the crosswalk cutoff.
//
// Candidates with missing or unparseable geometry are skipped and
// counted; if none survive, ok is false and the address is unmatched.
// First candidate at the minimum wins (strict less-than).
func FindClosest(candidates []string, geoms GeometryCache, lat, lon float64) (tlid string, skipped int, ok bool) {
	minDist := math.Inf(1)

	for _, cand := range candidates {
		raw, present := geoms[cand]
		if !present || raw == "" {
			skipped++
			continue
		}
		verts, err := lineVertices(raw)
		if err != nil {
			skipped++
			continue
		}
		for _, v := range verts {
			// WKT vertices are (lon, lat).
			if d := straightLineDistance(v[1], v[0], lat, lon); d < minDist {
				minDist = d
				tlid = cand
				ok = true
			}
		}
	}
	return tlid, skipped, ok
}

// straightLineDistance is plain Euclidean distance in degree space.
func straightLineDistance(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := lat1 - lat2
	dLon := lon1 - lon2
	return math.Sqrt(dLat*dLat + dLon*dLon)
}

// lineVertices extracts the coordinate vertices of a WKT line geometry.
// MULTILINESTRING parts are flattened; anything else is rejected.
func lineVertices(raw string) ([]geom.Coord, error) {
	g, err := wkt.Unmarshal(raw)
	if err != nil {
		return nil, err
	}
	switch ln := g.(type) {
	case *geom.LineString:
		return ln.Coords(), nil
	case *geom.MultiLineString:
		var out []geom.Coord
		for i := 0; i < ln.NumLineStrings(); i++ {
			out = append(out, ln.LineString(i).Coords()...)
		}
		return out, nil
	case *geom.Point:
		return []geom.Coord{ln.Coords()}, nil
	default:
		return nil, errUnsupportedGeometry
	}
}

var errUnsupportedGeometry = eris.New("match: unsupported geometry type")
