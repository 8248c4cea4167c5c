// Package detect scores resampled series for outliers with a seeded
// isolation forest and buckets scores into discrete severities.
package detect

import (
	"errors"
	"math"
	"math/rand"
	"sort"
)

const eulerGamma = 0.5772156649015329

// ForestConfig tunes the isolation forest fit.
type ForestConfig struct {
	// Trees is the ensemble size.
	Trees int
	// SampleSize caps the per-tree subsample.
	SampleSize int
	// Contamination is the prior expected outlier fraction; it positions the
	// decision boundary but does not cap the flagged count.
	Contamination float64
	// Seed fixes the RNG so identical input yields identical scores.
	Seed int64
}

// DefaultForestConfig mirrors the production tuning: 200 trees, 256-sample
// subsampling, 0.5% contamination.
func DefaultForestConfig() ForestConfig {
	return ForestConfig{
		Trees:         200,
		SampleSize:    256,
		Contamination: 0.005,
		Seed:          42,
	}
}

// ErrNoTrainingData is returned when a forest is fit on an empty slice.
var ErrNoTrainingData = errors.New("detect: no training data")

// outOfRangeDecision is the decision assigned to values beyond the training
// span whenever the shifted score alone does not flag them. Splits are drawn
// inside the span, so such values share a leaf with the training extremes
// and can land exactly on the boundary.
const outOfRangeDecision = -1e-6

// Forest is a fitted isolation forest over one-dimensional samples.
type Forest struct {
	trees      []*isoNode
	sampleSize int
	offset     float64
	lo, hi     float64
}

type isoNode struct {
	split float64
	size  int
	left  *isoNode
	right *isoNode
}

// FitForest trains an isolation forest on the given values and fixes the
// decision boundary at the contamination quantile of the training scores.
func FitForest(train []float64, cfg ForestConfig) (*Forest, error) {
	if len(train) == 0 {
		return nil, ErrNoTrainingData
	}
	if cfg.Trees <= 0 {
		cfg.Trees = DefaultForestConfig().Trees
	}
	if cfg.SampleSize <= 0 {
		cfg.SampleSize = DefaultForestConfig().SampleSize
	}
	if cfg.Contamination <= 0 || cfg.Contamination >= 0.5 {
		cfg.Contamination = DefaultForestConfig().Contamination
	}

	sampleSize := cfg.SampleSize
	if sampleSize > len(train) {
		sampleSize = len(train)
	}
	maxDepth := int(math.Ceil(math.Log2(float64(sampleSize)))) + 1

	lo, hi := train[0], train[0]
	for _, v := range train[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	f := &Forest{
		trees:      make([]*isoNode, 0, cfg.Trees),
		sampleSize: sampleSize,
		lo:         lo,
		hi:         hi,
	}
	for i := 0; i < cfg.Trees; i++ {
		sample := subsample(train, sampleSize, rng)
		f.trees = append(f.trees, buildIsoTree(sample, 0, maxDepth, rng))
	}

	trainScores := make([]float64, len(train))
	for i, v := range train {
		trainScores[i] = f.ScoreSample(v)
	}
	f.offset = quantile(trainScores, cfg.Contamination)
	return f, nil
}

// ScoreSample returns the raw density score of one value: always negative,
// closer to -1 for isolated points.
func (f *Forest) ScoreSample(v float64) float64 {
	sum := 0.0
	for _, t := range f.trees {
		sum += pathLength(t, v, 0)
	}
	avg := sum / float64(len(f.trees))
	return -math.Pow(2, -avg/avgPathLength(f.sampleSize))
}

// Decision shifts the raw score by the fitted boundary offset: negative
// means outlier, zero or greater means normal. Values outside the training
// span are always outliers, even when quantized training data leaves their
// shifted score at exactly zero.
func (f *Forest) Decision(v float64) float64 {
	d := f.ScoreSample(v) - f.offset
	if d >= 0 && (v < f.lo || v > f.hi) {
		return outOfRangeDecision
	}
	return d
}

func subsample(values []float64, size int, rng *rand.Rand) []float64 {
	if size >= len(values) {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	idx := rng.Perm(len(values))[:size]
	out := make([]float64, size)
	for i, j := range idx {
		out[i] = values[j]
	}
	return out
}

func buildIsoTree(values []float64, depth, maxDepth int, rng *rand.Rand) *isoNode {
	if len(values) <= 1 || depth >= maxDepth {
		return &isoNode{size: len(values)}
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if lo == hi {
		return &isoNode{size: len(values)}
	}

	split := lo + rng.Float64()*(hi-lo)
	var left, right []float64
	for _, v := range values {
		if v < split {
			left = append(left, v)
		} else {
			right = append(right, v)
		}
	}
	return &isoNode{
		split: split,
		size:  len(values),
		left:  buildIsoTree(left, depth+1, maxDepth, rng),
		right: buildIsoTree(right, depth+1, maxDepth, rng),
	}
}

func pathLength(n *isoNode, v float64, depth int) float64 {
	if n.left == nil && n.right == nil {
		return float64(depth) + avgPathLength(n.size)
	}
	if v < n.split {
		return pathLength(n.left, v, depth+1)
	}
	return pathLength(n.right, v, depth+1)
}

// avgPathLength is the expected path length of an unsuccessful BST search,
// the standard isolation forest normaliser.
func avgPathLength(n int) float64 {
	if n <= 1 {
		return 0
	}
	h := math.Log(float64(n-1)) + eulerGamma
	return 2*h - 2*float64(n-1)/float64(n)
}

// quantile returns the q-th quantile (0..1) with linear interpolation.
func quantile(values []float64, q float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := q * float64(len(sorted)-1)
	lower := int(math.Floor(pos))
	upper := int(math.Ceil(pos))
	if lower == upper {
		return sorted[lower]
	}
	frac := pos - float64(lower)
	return sorted[lower]*(1-frac) + sorted[upper]*frac
}
