package xwalk

import (
	"go.uber.org/zap"

	"github.com/civic-analytics/streetmatch/internal/model"
)

// Options configures candidate generation.
type Options struct {
	// NameCutoff is the minimum Dice similarity for a street-name match.
	NameCutoff float64
}

// BuildCandidates maps every address to the segment IDs it could lie
// on: the block's street name closest to the address's street name (at
// or above the cutoff) selects the block's segments with that name.
// Addresses whose block is unknown or whose name matches nothing get an
// empty candidate list; downstream treats those as unmatched.
func BuildCandidates(addresses []model.Address, idx *Index, opts Options) model.CandidateSet {
	cutoff := opts.NameCutoff
	if cutoff <= 0 {
		cutoff = 0.5
	}

	out := make(model.CandidateSet, len(addresses))
	var noBlock, noName int
	for _, addr := range addresses {
		names := idx.Names(addr.BlockID)
		if len(names) == 0 {
			noBlock++
			out[addr.MAFID] = nil
			continue
		}
		name, _, ok := BestMatch(addr.StreetName, names, cutoff)
		if !ok {
			noName++
			out[addr.MAFID] = nil
			continue
		}
		out[addr.MAFID] = idx.Segments(addr.BlockID, name)
	}

	zap.L().Info("candidate sets built",
		zap.Int("addresses", len(addresses)),
		zap.Int("no_block", noBlock),
		zap.Int("no_name_match", noName),
	)
	return out
}
