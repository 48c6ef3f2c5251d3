// Package graph builds the street intersection network from TIGER edge
// records: which segments touch each node, and which nodes bound each
// segment. The structures returned here are read-only; the walk package
// copies them into its own mutable state before traversal.
package graph

import (
	"strings"

	"go.uber.org/zap"

	"github.com/civic-analytics/streetmatch/internal/model"
)

// Network is the bidirectional node↔edge adjacency of the street network.
type Network struct {
	// NodeToEdges lists the segments incident to each node, deduplicated,
	// in segment input order.
	NodeToEdges map[string][]string

	// EdgeToNodes lists each segment's (from-node, to-node) pair in that
	// order. A self-loop segment carries the same node twice.
	EdgeToNodes map[string][]string

	// Nodes holds node IDs in order of first appearance, so callers that
	// need deterministic iteration don't depend on map order.
	Nodes []string

	// Edges holds segment IDs in input order.
	Edges []string

	// Names maps each segment to its full street name, used by the walk's
	// same-street indicator.
	Names map[string]string
}

// Build constructs the adjacency structure from the segment table.
// Every segment contributes a from-node and a to-node record; if the
// collected pair count differs from 2x the segment count the input is
// malformed, which is logged as a warning and repaired best-effort by
// skipping the offending records.
func Build(segments []model.Segment) *Network {
	net := &Network{
		NodeToEdges: make(map[string][]string, len(segments)),
		EdgeToNodes: make(map[string][]string, len(segments)),
		Names:       make(map[string]string, len(segments)),
	}

	pairs := 0
	for _, seg := range segments {
		if _, dup := net.EdgeToNodes[seg.TLID]; dup {
			zap.L().Warn("graph: duplicate segment in edge table",
				zap.String("tlid", seg.TLID))
			continue
		}

		var nodes []string
		for _, n := range []string{seg.FromNode, seg.ToNode} {
			if n == "" {
				continue
			}
			nodes = append(nodes, n)
			pairs++
		}

		net.Edges = append(net.Edges, seg.TLID)
		net.EdgeToNodes[seg.TLID] = nodes
		net.Names[seg.TLID] = strings.TrimSpace(seg.FullName)

		for _, n := range dedup(nodes) {
			if _, seen := net.NodeToEdges[n]; !seen {
				net.Nodes = append(net.Nodes, n)
			}
			net.NodeToEdges[n] = append(net.NodeToEdges[n], seg.TLID)
		}
	}

	if want := 2 * len(net.Edges); pairs != want {
		zap.L().Warn("graph: edge-node pair count mismatch",
			zap.Int("pairs", pairs),
			zap.Int("want", want),
			zap.Int("segments", len(net.Edges)),
		)
	}

	return net
}

// dedup collapses a node pair with identical endpoints so a self-loop
// segment is listed only once at its node.
func dedup(nodes []string) []string {
	if len(nodes) == 2 && nodes[0] == nodes[1] {
		return nodes[:1]
	}
	return nodes
}
