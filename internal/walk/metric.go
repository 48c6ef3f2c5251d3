package walk

import (
	"math"

	"github.com/rotisserie/eris"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/civic-analytics/streetmatch/internal/model"
)

// Metric selects the distance function used to compare segment attribute
// vectors at an intersection.
type Metric string

const (
	MetricEuclidean   Metric = "euclidean"
	MetricMahalanobis Metric = "mahalanobis"
)

// ParseMetric validates a metric name from config or flags.
func ParseMetric(s string) (Metric, error) {
	switch Metric(s) {
	case MetricEuclidean, MetricMahalanobis:
		return Metric(s), nil
	default:
		return "", eris.Errorf("walk: unknown metric %q", s)
	}
}

// DistanceFunc computes the distance between two attribute vectors.
// Implementations return +Inf for vectors they cannot compare, so an
// undefined distance is never selected by the greedy step.
type DistanceFunc func(a, b []float64) float64

// Euclidean is the root of summed squared per-feature differences.
func Euclidean(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return math.Inf(1)
	}
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}

// NewMahalanobis builds a Mahalanobis distance over the full attribute
// table: the covariance matrix of all segments' vectors is computed and
// inverted once up front. Segments without attributes are ignored when
// estimating covariance.
func NewMahalanobis(attrs map[string]model.Attributes) (DistanceFunc, error) {
	var rows [][]float64
	dim := 0
	for _, a := range attrs {
		if len(a.Values) == 0 {
			continue
		}
		if dim == 0 {
			dim = len(a.Values)
		}
		if len(a.Values) != dim {
			return nil, eris.Errorf("walk: attribute vector for %s has %d features, want %d",
				a.TLID, len(a.Values), dim)
		}
		rows = append(rows, a.Values)
	}
	if len(rows) < 2 {
		return nil, eris.New("walk: mahalanobis needs at least two attribute vectors")
	}

	data := mat.NewDense(len(rows), dim, nil)
	for i, r := range rows {
		data.SetRow(i, r)
	}

	var cov mat.SymDense
	stat.CovarianceMatrix(&cov, data, nil)

	var inv mat.Dense
	if err := inv.Inverse(&cov); err != nil {
		return nil, eris.Wrap(err, "walk: invert covariance matrix")
	}

	return func(a, b []float64) float64 {
		if len(a) != dim || len(b) != dim {
			return math.Inf(1)
		}
		diff := mat.NewVecDense(dim, nil)
		for i := range a {
			diff.SetVec(i, a[i]-b[i])
		}
		var tmp mat.VecDense
		tmp.MulVec(&inv, diff)
		return math.Sqrt(mat.Dot(diff, &tmp))
	}, nil
}

// distanceFor returns the configured distance function.
func distanceFor(metric Metric, attrs map[string]model.Attributes) (DistanceFunc, error) {
	switch metric {
	case MetricMahalanobis:
		return NewMahalanobis(attrs)
	case MetricEuclidean, "":
		return Euclidean, nil
	default:
		return nil, eris.Errorf("walk: unknown metric %q", metric)
	}
}
