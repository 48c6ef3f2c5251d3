// Package permute runs the within-block permutation test: does an
// attribute cluster by street segment more than chance would produce,
// holding the census block fixed? Shuffling segment labels within each
// block preserves block-level composition while destroying any
// street-level structure, so the observed clustering statistic is
// compared against that null.
package permute

import (
	"math"
	"math/rand/v2"
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Record is one matched household: the segment and block it resolved
// to, and the centered attribute value under test.
type Record struct {
	TLID    string
	BlockID string
	Value   float64
}

// Result summarizes a permutation test.
type Result struct {
	Observed   float64 `json:"observed"`
	PValue     float64 `json:"p_value"`
	Iterations int     `json:"iterations"`
}

// Statistic is the clustering measure: group records by (block,
// segment), take each group's mean value, and average the absolute
// group means. Values centered at zero make this large exactly when
// households on the same segment lean the same way.
func Statistic(records []Record) float64 {
	type group struct {
		sum float64
		n   int
	}
	groups := make(map[[2]string]*group)
	for _, r := range records {
		key := [2]string{r.BlockID, r.TLID}
		g := groups[key]
		if g == nil {
			g = &group{}
			groups[key] = g
		}
		g.sum += r.Value
		g.n++
	}
	if len(groups) == 0 {
		return 0
	}

	var total float64
	for _, g := range groups {
		total += math.Abs(g.sum / float64(g.n))
	}
	return total / float64(len(groups))
}

// Run executes the test: iterations reshuffles of segment labels
// within each block, p-value the fraction of reshuffles whose
// statistic strictly exceeds the observed one.
func Run(records []Record, iterations int, rng *rand.Rand) (Result, error) {
	if len(records) == 0 {
		return Result{}, eris.New("permute: no records")
	}
	if iterations <= 0 {
		iterations = 1000
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	observed := Statistic(records)

	// Indices of records per block, sorted for a deterministic
	// permutation order under a fixed seed.
	byBlock := make(map[string][]int)
	for i, r := range records {
		byBlock[r.BlockID] = append(byBlock[r.BlockID], i)
	}
	blocks := make([]string, 0, len(byBlock))
	for b := range byBlock {
		blocks = append(blocks, b)
	}
	sort.Strings(blocks)

	shuffled := make([]Record, len(records))
	copy(shuffled, records)

	var exceed int
	for range iterations {
		for _, b := range blocks {
			idx := byBlock[b]
			rng.Shuffle(len(idx), func(i, j int) {
				shuffled[idx[i]].TLID, shuffled[idx[j]].TLID = shuffled[idx[j]].TLID, shuffled[idx[i]].TLID
			})
		}
		if Statistic(shuffled) > observed {
			exceed++
		}
	}

	result := Result{
		Observed:   observed,
		PValue:     float64(exceed) / float64(iterations),
		Iterations: iterations,
	}
	zap.L().Info("permutation test complete",
		zap.Float64("observed", result.Observed),
		zap.Float64("p_value", result.PValue),
		zap.Int("iterations", iterations),
	)
	return result, nil
}

// Center subtracts the grand mean in place so Statistic measures
// deviation rather than level.
func Center(records []Record) {
	if len(records) == 0 {
		return
	}
	var sum float64
	for _, r := range records {
		sum += r.Value
	}
	mean := sum / float64(len(records))
	for i := range records {
		records[i].Value -= mean
	}
}
