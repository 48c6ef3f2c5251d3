// Package xwalk builds the block-to-street crosswalk that narrows each
// address's candidate segments before resolution. TIGER edges name the
// faces on either side; faces name their census block. Joining the two
// yields, per block, the street names and segment IDs bordering it.
package xwalk

import (
	"sort"

	"go.uber.org/zap"

	"github.com/civic-analytics/streetmatch/internal/model"
)

// Index is the assembled crosswalk: block-keyed lookups over segments
// and street names. Build once, read from any goroutine.
type Index struct {
	// blockNames lists the distinct normalized-deduplicated street names
	// bordering each block, in sorted order.
	blockNames map[string][]string

	// blockSegments maps block ID to the TLIDs bordering it, keyed by
	// original (not normalized) street name.
	blockSegments map[string]map[string][]string
}

// Build joins segments to faces. Segments without a street name never
// become candidates; roadsOnly additionally drops rail, ridge, and
// other non-road edges.
func Build(segments []model.Segment, faces []model.Face, roadsOnly bool) *Index {
	faceBlock := make(map[string]string, len(faces))
	for _, f := range faces {
		faceBlock[f.TFID] = f.BlockID
	}

	idx := &Index{
		blockNames:    make(map[string][]string),
		blockSegments: make(map[string]map[string][]string),
	}

	var skippedNonRoad, skippedUnnamed int
	for _, seg := range segments {
		if roadsOnly && !seg.IsRoad() {
			skippedNonRoad++
			continue
		}
		if seg.FullName == "" {
			skippedUnnamed++
			continue
		}
		for _, tfid := range []string{seg.LeftFace, seg.RightFace} {
			block, ok := faceBlock[tfid]
			if !ok {
				continue
			}
			byName := idx.blockSegments[block]
			if byName == nil {
				byName = make(map[string][]string)
				idx.blockSegments[block] = byName
			}
			if !contains(byName[seg.FullName], seg.TLID) {
				byName[seg.FullName] = append(byName[seg.FullName], seg.TLID)
			}
		}
	}

	for block, byName := range idx.blockSegments {
		names := make([]string, 0, len(byName))
		for name := range byName {
			names = append(names, name)
		}
		sort.Strings(names)
		idx.blockNames[block] = names
	}

	zap.L().Info("crosswalk built",
		zap.Int("blocks", len(idx.blockSegments)),
		zap.Int("skipped_non_road", skippedNonRoad),
		zap.Int("skipped_unnamed", skippedUnnamed),
	)
	return idx
}

// Names returns the street names bordering a block, sorted.
func (idx *Index) Names(blockID string) []string {
	return idx.blockNames[blockID]
}

// Segments returns the TLIDs in a block carrying exactly the given
// street name.
func (idx *Index) Segments(blockID, name string) []string {
	return idx.blockSegments[blockID][name]
}

// Blocks returns the number of blocks with at least one named segment.
func (idx *Index) Blocks() int {
	return len(idx.blockSegments)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
