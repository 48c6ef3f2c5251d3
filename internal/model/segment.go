package model

import "strings"

// RoadFlag value used by TIGER to mark a public road edge.
const RoadFlagYes = "Y"

// Segment is a TIGER edge record: one street segment between two network
// nodes. Immutable once loaded.
type Segment struct {
	TLID     string `json:"tlid" csv:"TLID"`
	FullName string `json:"full_name" csv:"FULLNAME"`
	FromNode string `json:"from_node" csv:"TNIDF"`
	ToNode   string `json:"to_node" csv:"TNIDT"`
	RoadFlag string `json:"road_flag" csv:"ROADFLG"`

	// Geometry holds the segment line as WKT LINESTRING text, or "" when
	// the source shapefile carried no usable shape.
	Geometry string `json:"geometry,omitempty" csv:"geometry"`

	// LeftFace and RightFace are TFIDs of the faces on either side,
	// used only by the crosswalk builder.
	LeftFace  string `json:"left_face,omitempty" csv:"TFIDL"`
	RightFace string `json:"right_face,omitempty" csv:"TFIDR"`
}

// IsRoad reports whether this edge is flagged as a public road.
func (s Segment) IsRoad() bool {
	return strings.TrimSpace(s.RoadFlag) == RoadFlagYes
}

// Face is a TIGER face (census polygon) record, reduced to the linkage the
// crosswalk needs: face ID and the concatenated block identifier.
type Face struct {
	TFID    string `json:"tfid" csv:"TFID"`
	BlockID string `json:"block_id" csv:"BLKID"`
}

// BlockIDFromParts concatenates the TIGER state/county/tract/block codes
// into the 15-digit block identifier used throughout the pipeline.
func BlockIDFromParts(statefp, countyfp, tractce, blockce string) string {
	return statefp + countyfp + tractce + blockce
}

// Attributes is the per-segment numeric feature vector consumed by the
// greedy walk, plus the street name used for the same-street indicator.
// The name is never part of the metric.
type Attributes struct {
	TLID     string    `json:"tlid"`
	FullName string    `json:"full_name"`
	Values   []float64 `json:"values"`
}
