// Package match resolves each address to a single street segment. The
// crosswalk's candidate lists are partitioned into deterministic
// single-candidate matches and ambiguous multi-candidate addresses; the
// latter are settled geometrically by nearest-vertex search over the
// candidate segments' line geometry.
package match

import (
	"go.uber.org/zap"

	"github.com/civic-analytics/streetmatch/internal/model"
)

// MultiCandidate is an address whose candidate set needs geometric
// disambiguation, together with the point to disambiguate against.
type MultiCandidate struct {
	Address    model.Address
	Candidates []string
}

// Partition is the result of splitting the candidate mapping.
type Partition struct {
	// Single maps MAFID to its only candidate TLID. No geometry needed.
	Single map[string]string

	// Multi holds addresses with two or more candidates.
	Multi map[string]MultiCandidate

	// Unmatched lists MAFIDs whose candidate set was empty or contained
	// nothing usable. They are counted and reported, never dropped
	// silently.
	Unmatched []string
}

// Split partitions addresses by candidate-set cardinality. A candidate
// list whose only entry is empty counts as no match, not a single match.
func Split(addresses []model.Address, candidates model.CandidateSet) Partition {
	p := Partition{
		Single: make(map[string]string),
		Multi:  make(map[string]MultiCandidate),
	}

	for _, addr := range addresses {
		cands := model.CleanCandidates(candidates[addr.MAFID])
		switch {
		case len(cands) == 0:
			p.Unmatched = append(p.Unmatched, addr.MAFID)
		case len(cands) == 1:
			p.Single[addr.MAFID] = cands[0]
		default:
			p.Multi[addr.MAFID] = MultiCandidate{Address: addr, Candidates: cands}
		}
	}

	zap.L().Info("partitioned candidate sets",
		zap.Int("single", len(p.Single)),
		zap.Int("multi", len(p.Multi)),
		zap.Int("unmatched", len(p.Unmatched)),
	)
	return p
}

// CandidateTLIDs returns the set of TLIDs referenced by any
// multi-candidate address. The geometry cache is restricted to these.
func (p Partition) CandidateTLIDs() map[string]struct{} {
	out := make(map[string]struct{})
	for _, mc := range p.Multi {
		for _, tlid := range mc.Candidates {
			out[tlid] = struct{}{}
		}
	}
	return out
}
