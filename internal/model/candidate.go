package model

import "strings"

// NoMatch is the sentinel written for addresses that could not be resolved
// to any segment. It is part of the output contract: every address appears
// in the resolved mapping, matched or not.
const NoMatch = "None"

// CandidateSet maps an address identifier (MAFID) to the ordered list of
// TLIDs the crosswalk considers plausible for it. An empty list means the
// crosswalk found nothing; a singleton is a deterministic match; two or
// more require geometric disambiguation.
type CandidateSet map[string][]string

// CleanCandidates normalizes a raw candidate list: entries are trimmed and
// empty entries dropped. The crosswalk serializes candidate lists as
// bracketed comma-joined text, so stray whitespace and empty tokens are
// expected around the edges.
func CleanCandidates(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, c := range raw {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		out = append(out, c)
	}
	return out
}

// ParseCandidateList parses the crosswalk's serialized candidate column,
// e.g. `[1234, 5678]`, into a clean TLID slice.
func ParseCandidateList(s string) []string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "[")
	s = strings.TrimSuffix(s, "]")
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	for i, p := range parts {
		parts[i] = strings.Trim(strings.TrimSpace(p), `'"`)
	}
	return CleanCandidates(parts)
}

// ResolvedMatch is one row of the terminal output: an address and the
// segment it was resolved to, or the NoMatch sentinel.
type ResolvedMatch struct {
	MAFID  string `json:"mafid" csv:"MAFID"`
	TLID   string `json:"tlid" csv:"TLID"`
	Method string `json:"method" csv:"METHOD"`
}

// Resolution methods recorded on ResolvedMatch.
const (
	MethodSingle    = "single"    // only one candidate, no geometry needed
	MethodGeometric = "geometric" // nearest-vertex disambiguation
	MethodNone      = "none"      // empty or fully invalid candidate set
)
