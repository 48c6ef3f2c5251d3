package walk

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civic-analytics/streetmatch/internal/model"
)

func TestEuclidean(t *testing.T) {
	assert.InDelta(t, 5.0, Euclidean([]float64{0, 0}, []float64{3, 4}), 1e-9)
	assert.Zero(t, Euclidean([]float64{1, 2}, []float64{1, 2}))

	assert.True(t, math.IsInf(Euclidean([]float64{1}, []float64{1, 2}), 1))
	assert.True(t, math.IsInf(Euclidean(nil, nil), 1))
}

func TestNewMahalanobis(t *testing.T) {
	// Four points with diagonal sample covariance diag(4/3, 4/3).
	attrs := map[string]model.Attributes{
		"a": {TLID: "a", Values: []float64{0, 0}},
		"b": {TLID: "b", Values: []float64{2, 0}},
		"c": {TLID: "c", Values: []float64{0, 2}},
		"d": {TLID: "d", Values: []float64{2, 2}},
	}

	dist, err := NewMahalanobis(attrs)
	require.NoError(t, err)

	// diff (2,0): sqrt(4 * 3/4) = sqrt(3).
	assert.InDelta(t, math.Sqrt(3), dist([]float64{0, 0}, []float64{2, 0}), 1e-9)
	assert.Zero(t, dist([]float64{1, 1}, []float64{1, 1}))

	// Dimension mismatch is an undefined distance, not an error.
	assert.True(t, math.IsInf(dist([]float64{1}, []float64{1, 2}), 1))
}

func TestNewMahalanobis_Errors(t *testing.T) {
	_, err := NewMahalanobis(map[string]model.Attributes{
		"only": {TLID: "only", Values: []float64{1, 2}},
	})
	assert.Error(t, err)

	_, err = NewMahalanobis(map[string]model.Attributes{
		"a": {TLID: "a", Values: []float64{1, 2}},
		"b": {TLID: "b", Values: []float64{1}},
	})
	assert.Error(t, err)
}
