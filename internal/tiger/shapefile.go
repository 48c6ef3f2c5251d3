package tiger

import (
	"strconv"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/civic-analytics/streetmatch/internal/model"
)

// fieldIndex maps lowercased DBF field names to their column index.
// TIGER DBF headers are fixed-width and NUL padded.
func fieldIndex(fields []shp.Field) map[string]int {
	idx := make(map[string]int, len(fields))
	for i, f := range fields {
		name := strings.TrimRight(f.String(), "\x00")
		idx[strings.ToLower(name)] = i
	}
	return idx
}

func attr(r *shp.Reader, idx map[string]int, names ...string) string {
	for _, name := range names {
		if i, ok := idx[name]; ok {
			val := strings.TrimRight(r.Attribute(i), "\x00")
			if val = strings.TrimSpace(val); val != "" {
				return val
			}
		}
	}
	return ""
}

// ParseEdges reads an EDGES shapefile into street segments. Records
// without a TLID are dropped; records without usable geometry keep an
// empty geometry string so the topology still loads.
func ParseEdges(shpPath string) ([]model.Segment, error) {
	reader, err := shp.Open(shpPath)
	if err != nil {
		return nil, eris.Wrapf(err, "tiger: open edges shapefile %s", shpPath)
	}
	defer func() { _ = reader.Close() }()

	idx := fieldIndex(reader.Fields())

	var segments []model.Segment
	var noGeom, noTLID int
	for reader.Next() {
		_, shape := reader.Shape()

		seg := model.Segment{
			TLID:      attr(reader, idx, "tlid"),
			FullName:  attr(reader, idx, "fullname"),
			FromNode:  attr(reader, idx, "tnidf"),
			ToNode:    attr(reader, idx, "tnidt"),
			RoadFlag:  attr(reader, idx, "roadflg"),
			LeftFace:  attr(reader, idx, "tfidl"),
			RightFace: attr(reader, idx, "tfidr"),
		}
		if seg.TLID == "" {
			noTLID++
			continue
		}

		if pl, ok := shape.(*shp.PolyLine); ok {
			wktText, encErr := PolyLineWKT(pl)
			if encErr == nil {
				seg.Geometry = wktText
			}
		}
		if seg.Geometry == "" {
			noGeom++
		}

		segments = append(segments, seg)
	}

	if noTLID > 0 || noGeom > 0 {
		zap.L().Debug("tiger: imperfect edge records",
			zap.String("path", shpPath),
			zap.Int("missing_tlid", noTLID),
			zap.Int("missing_geometry", noGeom),
		)
	}
	return segments, nil
}

// ParseFaces reads a FACES shapefile into face records carrying the
// census block linkage. The 2010-geography fields (suffixed "10") are
// preferred; vintages that only carry current-geography fields fall
// back to the unsuffixed names.
func ParseFaces(shpPath string) ([]model.Face, error) {
	reader, err := shp.Open(shpPath)
	if err != nil {
		return nil, eris.Wrapf(err, "tiger: open faces shapefile %s", shpPath)
	}
	defer func() { _ = reader.Close() }()

	idx := fieldIndex(reader.Fields())

	var faces []model.Face
	var incomplete int
	for reader.Next() {
		reader.Shape() // advance; face polygons themselves are unused

		tfid := attr(reader, idx, "tfid")
		statefp := attr(reader, idx, "statefp10", "statefp")
		countyfp := attr(reader, idx, "countyfp10", "countyfp")
		tractce := attr(reader, idx, "tractce10", "tractce")
		blockce := attr(reader, idx, "blockce10", "blockce")

		if tfid == "" || statefp == "" || countyfp == "" || tractce == "" || blockce == "" {
			incomplete++
			continue
		}
		faces = append(faces, model.Face{
			TFID:    tfid,
			BlockID: model.BlockIDFromParts(statefp, countyfp, tractce, blockce),
		})
	}

	if incomplete > 0 {
		zap.L().Debug("tiger: dropped faces with incomplete block codes",
			zap.String("path", shpPath),
			zap.Int("dropped", incomplete),
		)
	}
	return faces, nil
}

// CountyOfSegment derives the 5-digit county FIPS from a face block ID.
func CountyOfSegment(blockID string) (string, bool) {
	if len(blockID) < 5 {
		return "", false
	}
	if _, err := strconv.Atoi(blockID[:5]); err != nil {
		return "", false
	}
	return blockID[:5], true
}
