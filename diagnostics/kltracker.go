package diagnostics

import (
	"github.com/datviz/fastTSNE/manifold"
	"github.com/datviz/fastTSNE/optimize"
)

// KLRecord is one dispatched iteration's KL divergence, captured by
// KLTracker.
type KLRecord struct {
	Iteration int
	KL        float64
}

// KLTracker is an optimize.Observer that records every dispatched
// iteration's KL divergence, so callers and tests can check spec.md §8's
// "KL divergence is monotonically non-increasing outside the
// early-exaggeration phase" property after a run completes, without the
// optimizer itself needing to know about diagnostics.
type KLTracker struct {
	History []KLRecord
}

// NewKLTracker returns an empty tracker ready to be passed as (or
// composed via optimize.Chain into) an optimize.Config.Observer.
func NewKLTracker() *KLTracker {
	return &KLTracker{}
}

func (t *KLTracker) OnIteration(iter int, kl float64, y *manifold.Embedding) optimize.Signal {
	t.History = append(t.History, KLRecord{Iteration: iter, KL: kl})
	return optimize.Continue
}

// MonotonicAfter reports whether KL is non-increasing across every pair
// of consecutive recorded iterations at or after the given iteration,
// the shape of spec.md §8's normal-phase monotonicity property.
func (t *KLTracker) MonotonicAfter(iteration int) bool {
	var prev float64
	has := false
	for _, rec := range t.History {
		if rec.Iteration < iteration {
			continue
		}
		if has && rec.KL > prev+1e-9 {
			return false
		}
		prev = rec.KL
		has = true
	}
	return true
}
