// Package iforest implements an isolation forest: an ensemble of randomly
// partitioned trees whose average isolation depth yields a continuous
// abnormality score. Scoring follows the usual convention where lower
// decision values mean more abnormal, with the decision offset placed at
// the contamination quantile of the training scores.
package iforest

import (
	"errors"
	"math"
	"math/rand"
	"sort"
)

var (
	// ErrNoSamples is returned when fitting on an empty matrix.
	ErrNoSamples = errors.New("iforest: training matrix has no rows")

	// ErrNonFinite is returned when the data contains NaN or Inf values.
	ErrNonFinite = errors.New("iforest: data contains non-finite values")

	// ErrNotFitted is returned when scoring before a successful fit.
	ErrNotFitted = errors.New("iforest: model has not been fitted")

	// ErrDimensionMismatch is returned when a sample's width does not match
	// the training data.
	ErrDimensionMismatch = errors.New("iforest: sample dimension mismatch")
)

const maxSubsample = 256

// Forest is a bagged isolation ensemble. Fit builds the ensemble from
// scratch; there is no incremental update. A Forest is not safe for
// concurrent fitting, but Score is read-only after Fit.
type Forest struct {
	trees         int
	contamination float64
	rng           *rand.Rand

	roots      []*node
	subsample  int
	dimensions int
	offset     float64
	fitted     bool
}

type node struct {
	// internal nodes
	splitDim int
	splitVal float64
	left     *node
	right    *node
	// external nodes
	size int
	leaf bool
}

// New creates an unfitted forest. The tree count and expected outlier
// fraction are fixed hyperparameters, not derived from data.
func New(trees int, contamination float64, rng *rand.Rand) *Forest {
	return &Forest{trees: trees, contamination: contamination, rng: rng}
}

// Fit rebuilds the ensemble on the given matrix (rows are samples, columns
// are features) and derives the decision offset from the training scores.
func (f *Forest) Fit(x [][]float64) error {
	n := len(x)
	if n == 0 {
		return ErrNoSamples
	}
	dims := len(x[0])
	for _, row := range x {
		if len(row) != dims {
			return ErrDimensionMismatch
		}
		for _, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return ErrNonFinite
			}
		}
	}

	f.subsample = n
	if f.subsample > maxSubsample {
		f.subsample = maxSubsample
	}
	heightLimit := int(math.Ceil(math.Log2(float64(f.subsample))))
	if heightLimit < 1 {
		heightLimit = 1
	}

	f.roots = make([]*node, f.trees)
	for t := 0; t < f.trees; t++ {
		sample := f.sampleRows(x, f.subsample)
		f.roots[t] = f.build(sample, 0, heightLimit)
	}
	f.dimensions = dims
	f.fitted = true

	// Offset at the contamination quantile of the training scores, so a
	// decision value below zero marks the expected outlier fraction.
	scores := make([]float64, n)
	for i, row := range x {
		scores[i] = f.scoreSample(row)
	}
	sort.Float64s(scores)
	f.offset = quantile(scores, f.contamination)
	return nil
}

// Fitted reports whether the forest has been fitted at least once.
func (f *Forest) Fitted() bool {
	return f.fitted
}

// Score returns the decision value for one sample: negative values are
// anomalous, and more negative means more abnormal.
func (f *Forest) Score(sample []float64) (float64, error) {
	if !f.fitted {
		return 0, ErrNotFitted
	}
	if len(sample) != f.dimensions {
		return 0, ErrDimensionMismatch
	}
	for _, v := range sample {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, ErrNonFinite
		}
	}
	return f.scoreSample(sample) - f.offset, nil
}

// scoreSample returns the negated anomaly score in [-1, 0): the average
// isolation depth normalized by the expected path length c(ψ).
func (f *Forest) scoreSample(sample []float64) float64 {
	var sum float64
	for _, root := range f.roots {
		sum += pathLength(root, sample, 0)
	}
	avg := sum / float64(len(f.roots))
	return -math.Pow(2, -avg/avgPathLength(f.subsample))
}

func (f *Forest) sampleRows(x [][]float64, k int) [][]float64 {
	idx := f.rng.Perm(len(x))[:k]
	out := make([][]float64, k)
	for i, j := range idx {
		out[i] = x[j]
	}
	return out
}

func (f *Forest) build(rows [][]float64, depth, limit int) *node {
	if depth >= limit || len(rows) <= 1 {
		return &node{leaf: true, size: len(rows)}
	}

	// Only dimensions with spread can be split on.
	dims := len(rows[0])
	splittable := make([]int, 0, dims)
	mins := make([]float64, dims)
	maxs := make([]float64, dims)
	for d := 0; d < dims; d++ {
		mins[d], maxs[d] = rows[0][d], rows[0][d]
	}
	for _, row := range rows[1:] {
		for d, v := range row {
			if v < mins[d] {
				mins[d] = v
			}
			if v > maxs[d] {
				maxs[d] = v
			}
		}
	}
	for d := 0; d < dims; d++ {
		if maxs[d] > mins[d] {
			splittable = append(splittable, d)
		}
	}
	if len(splittable) == 0 {
		return &node{leaf: true, size: len(rows)}
	}

	dim := splittable[f.rng.Intn(len(splittable))]
	val := mins[dim] + f.rng.Float64()*(maxs[dim]-mins[dim])

	var left, right [][]float64
	for _, row := range rows {
		if row[dim] < val {
			left = append(left, row)
		} else {
			right = append(right, row)
		}
	}
	return &node{
		splitDim: dim,
		splitVal: val,
		left:     f.build(left, depth+1, limit),
		right:    f.build(right, depth+1, limit),
	}
}

func pathLength(n *node, sample []float64, depth int) float64 {
	if n.leaf {
		return float64(depth) + avgPathLength(n.size)
	}
	if sample[n.splitDim] < n.splitVal {
		return pathLength(n.left, sample, depth+1)
	}
	return pathLength(n.right, sample, depth+1)
}

// avgPathLength is c(n), the expected path length of an unsuccessful BST
// search over n points.
func avgPathLength(n int) float64 {
	switch {
	case n > 2:
		h := math.Log(float64(n-1)) + 0.5772156649
		return 2*h - 2*float64(n-1)/float64(n)
	case n == 2:
		return 1
	default:
		return 0
	}
}

// quantile interpolates the q-quantile of ascending sorted values.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	rank := q * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}
