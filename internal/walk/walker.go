// Package walk traverses the street network segment by segment, at each
// intersection continuing onto the most similar remaining segment by a
// configurable attribute-vector metric. Dead ends are recovered by
// restarting from a randomly chosen node that still has segments left.
// The output is a per-intersection indicator of whether the walk stayed
// on the same street, which downstream permutation testing turns into a
// measure of street-level attribute clustering.
package walk

import (
	"math"
	"math/rand/v2"

	"go.uber.org/zap"

	"github.com/civic-analytics/streetmatch/internal/graph"
	"github.com/civic-analytics/streetmatch/internal/model"
)

// Options configures a walk.
type Options struct {
	Metric Metric

	// Rand drives restart node selection. Tests inject a seeded source so
	// runs are reproducible; if nil, a PCG source with Seed is used.
	Rand *rand.Rand

	// Seed seeds the default source when Rand is nil.
	Seed int64
}

// Result is the walk's terminal output.
type Result struct {
	// Decisions maps each visited node to 1 if the walk continued onto a
	// segment with the same street name it arrived on, 0 otherwise
	// (different street, or no continuation possible). A node visited
	// only as a path origin records 0.
	Decisions map[string]int

	// Restarts counts how many disconnected paths were started after the
	// first, i.e. how many times restart recovery found a fresh node.
	Restarts int

	// Segments is the number of segments traversed. Every segment in the
	// network is traversed exactly once.
	Segments int
}

// Walker owns the mutable adjacency state for one traversal. Node and
// segment IDs are interned to integer indices; the string IDs only
// reappear in the Result.
type Walker struct {
	nodeIDs []string
	edgeIDs []string
	edgeIdx map[string]int

	nodeEdges [][]int // remaining segment indices listed at each node
	edgeNodes [][]int // remaining node indices for each segment
	visited   []bool  // segment traversed
	names     []string

	live    []int // node indices that may still have segments
	livePos []int // position of each node in live, -1 once discarded

	vectors [][]float64 // nil when the segment has no attribute row
	dist    DistanceFunc
	rng     *rand.Rand
	log     *zap.Logger

	decisions map[int]int
	restarts  int
	traversed int
}

// New builds a Walker over the network with the given attribute table.
// The network itself is not modified; all mutable state is copied.
func New(net *graph.Network, attrs map[string]model.Attributes, opts Options) (*Walker, error) {
	dist, err := distanceFor(opts.Metric, attrs)
	if err != nil {
		return nil, err
	}

	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewPCG(uint64(opts.Seed), uint64(opts.Seed)+1))
	}

	w := &Walker{
		nodeIDs:   net.Nodes,
		edgeIDs:   net.Edges,
		edgeIdx:   make(map[string]int, len(net.Edges)),
		nodeEdges: make([][]int, len(net.Nodes)),
		edgeNodes: make([][]int, len(net.Edges)),
		visited:   make([]bool, len(net.Edges)),
		names:     make([]string, len(net.Edges)),
		vectors:   make([][]float64, len(net.Edges)),
		live:      make([]int, len(net.Nodes)),
		livePos:   make([]int, len(net.Nodes)),
		dist:      dist,
		rng:       rng,
		log:       zap.L().With(zap.String("component", "walk")),
		decisions: make(map[int]int, len(net.Nodes)),
	}

	for i, tlid := range net.Edges {
		w.edgeIdx[tlid] = i
		w.names[i] = net.Names[tlid]
		if a, ok := attrs[tlid]; ok && len(a.Values) > 0 {
			w.vectors[i] = a.Values
		}
	}

	nodeIdx := make(map[string]int, len(net.Nodes))
	for i, n := range net.Nodes {
		nodeIdx[n] = i
		w.live[i] = i
		w.livePos[i] = i
	}
	for i, n := range net.Nodes {
		edges := net.NodeToEdges[n]
		list := make([]int, 0, len(edges))
		for _, tlid := range edges {
			list = append(list, w.edgeIdx[tlid])
		}
		w.nodeEdges[i] = list
	}
	for _, tlid := range net.Edges {
		e := w.edgeIdx[tlid]
		nodes := net.EdgeToNodes[tlid]
		list := make([]int, 0, len(nodes))
		for _, n := range nodes {
			list = append(list, nodeIdx[n])
		}
		w.edgeNodes[e] = list
	}

	return w, nil
}

// Run walks the entire network and returns the accumulated decisions.
// Termination is guaranteed: every iteration removes at least one
// segment-node reference or one node from the live set.
func (w *Walker) Run() *Result {
	curNode, curSeg, ok := w.startPath(false)
	for ok {
		curNode, curSeg, ok = w.step(curNode, curSeg)
	}

	out := &Result{
		Decisions: make(map[string]int, len(w.decisions)),
		Restarts:  w.restarts,
		Segments:  w.traversed,
	}
	for n, d := range w.decisions {
		out.Decisions[w.nodeIDs[n]] = d
	}
	w.log.Info("walk complete",
		zap.Int("segments", out.Segments),
		zap.Int("decisions", len(out.Decisions)),
		zap.Int("restarts", out.Restarts),
	)
	return out
}

// step performs one Active transition: standing at curNode having arrived
// via curSeg, choose the most similar remaining segment and advance onto
// it. Returns the new position, or restarts when stuck.
func (w *Walker) step(curNode, curSeg int) (int, int, bool) {
	cands := w.pruneNode(curNode, curSeg)
	if len(cands) == 0 {
		// Stuck: the walk arrived here but cannot continue.
		w.decisions[curNode] = 0
		w.discardNode(curNode)
		return w.startPath(true)
	}

	next := w.selectNext(curSeg, cands)
	if next < 0 {
		// Every remaining candidate had an undefined distance. Leave the
		// node live so a later path can consume its segments.
		w.decisions[curNode] = 0
		return w.startPath(true)
	}

	if w.names[next] == w.names[curSeg] {
		w.decisions[curNode] = 1
	} else {
		w.decisions[curNode] = 0
	}

	w.removeEdgeAt(curNode, next)
	nextNode, advanced := w.traverse(next, curNode)
	if !advanced {
		return w.startPath(true)
	}
	return nextNode, next, true
}

// selectNext returns the candidate with the minimum metric distance from
// the current segment. Strict less-than: the first minimum wins ties.
// Returns -1 when no candidate has a finite distance.
func (w *Walker) selectNext(curSeg int, cands []int) int {
	cur := w.vectors[curSeg]
	best := -1
	minDist := math.Inf(1)
	for _, c := range cands {
		d := math.Inf(1)
		if cur != nil && w.vectors[c] != nil {
			d = w.dist(cur, w.vectors[c])
		}
		if d < minDist {
			minDist = d
			best = c
		}
	}
	return best
}

// traverse consumes segment e starting from node `from`: both of the
// segment's node references are removed and the walk stands at the far
// end. Returns false when the segment has no far end left to advance to.
func (w *Walker) traverse(e, from int) (int, bool) {
	w.visited[e] = true
	w.traversed++

	nodes := w.edgeNodes[e]
	removed := false
	rest := nodes[:0]
	for _, n := range nodes {
		if !removed && n == from {
			removed = true
			continue
		}
		rest = append(rest, n)
	}

	if len(rest) == 0 {
		// Both endpoints already consumed. Expected only for degenerate
		// terminal segments; on an interior segment this means the edge
		// table and adjacency disagree.
		w.log.Debug("segment exhausted with no remaining endpoint",
			zap.String("tlid", w.edgeIDs[e]))
		w.edgeNodes[e] = nil
		return 0, false
	}

	next := rest[0]
	w.edgeNodes[e] = nil // arriving consumes the final reference
	return next, true
}

// startPath begins a new path. The initial start takes the first node in
// input order so a run's opening move is stable; restart recovery picks a
// uniformly random live node. Only restarts that find a fresh path count
// toward the restart total.
func (w *Walker) startPath(isRestart bool) (int, int, bool) {
	for len(w.live) > 0 {
		i := 0
		if isRestart {
			i = w.rng.IntN(len(w.live))
		}
		node := w.live[i]

		cands := w.pruneNode(node, -1)
		if len(cands) == 0 {
			w.discardNode(node)
			continue
		}

		// The origin is a visited node too. It keeps whatever a previous
		// arrival recorded; a node only ever seen as an origin records 0.
		if _, seen := w.decisions[node]; !seen {
			w.decisions[node] = 0
		}

		start := cands[0]
		w.removeEdgeAt(node, start)
		nextNode, advanced := w.traverse(start, node)
		if !advanced {
			// Degenerate start segment; try again from another node.
			continue
		}
		if isRestart {
			w.restarts++
		}
		return nextNode, start, true
	}
	// Graph exhausted: normal termination.
	return 0, 0, false
}

// pruneNode drops visited segments (and optionally the arriving segment)
// from a node's remaining list, returning the surviving candidates.
func (w *Walker) pruneNode(node, arriving int) []int {
	list := w.nodeEdges[node]
	rest := list[:0]
	for _, e := range list {
		if w.visited[e] || e == arriving {
			continue
		}
		rest = append(rest, e)
	}
	w.nodeEdges[node] = rest
	return rest
}

// removeEdgeAt removes one segment from a node's remaining list.
func (w *Walker) removeEdgeAt(node, e int) {
	list := w.nodeEdges[node]
	for i, x := range list {
		if x == e {
			w.nodeEdges[node] = append(list[:i], list[i+1:]...)
			return
		}
	}
}

// discardNode removes a node from the live set.
func (w *Walker) discardNode(node int) {
	pos := w.livePos[node]
	if pos < 0 {
		return
	}
	last := len(w.live) - 1
	moved := w.live[last]
	w.live[pos] = moved
	w.livePos[moved] = pos
	w.live = w.live[:last]
	w.livePos[node] = -1
}

// Run is a convenience that builds a Walker and runs it.
func Run(net *graph.Network, attrs map[string]model.Attributes, opts Options) (*Result, error) {
	w, err := New(net, attrs, opts)
	if err != nil {
		return nil, err
	}
	return w.Run(), nil
}
