// Package diagnostics clusters and scores a finished embedding, and
// tracks the optimizer's KL divergence over a run — the properties
// spec.md §8 names as testable ("a silhouette-score end-to-end
// scenario", "KL divergence is monotonically non-increasing outside
// early exaggeration") without specifying how a caller computes or
// records them.
package diagnostics

import (
	"math"

	"github.com/datviz/fastTSNE/manifold"
)

// Silhouette computes the mean silhouette coefficient of an embedding
// given cluster labels — typically Cluster's own output, but any
// caller-supplied labeling works too. Points labeled -1 (noise, in
// Cluster's HDBSCAN convention) are excluded from the score. The
// per-point distance walk mirrors Cluster's computeCoreDistances: both
// scan every other point's distance from a given point, here
// partitioned into "same cluster" / "other cluster" rather than sorted
// for a k-th-nearest-distance core radius.
func Silhouette(y *manifold.Embedding, labels []int) float64 {
	n := y.N
	if n == 0 || len(labels) != n {
		return 0
	}

	clusterOf := make(map[int][]int)
	for i, l := range labels {
		if l < 0 {
			continue
		}
		clusterOf[l] = append(clusterOf[l], i)
	}
	if len(clusterOf) < 2 {
		return 0
	}

	var total float64
	var counted int
	for i := 0; i < n; i++ {
		li := labels[i]
		if li < 0 {
			continue
		}
		own := clusterOf[li]
		if len(own) < 2 {
			continue // a singleton cluster has no intra-cluster distance
		}

		a := meanDistance(y, i, own, true)

		var b float64
		first := true
		for l, members := range clusterOf {
			if l == li {
				continue
			}
			d := meanDistance(y, i, members, false)
			if first || d < b {
				b = d
				first = false
			}
		}
		if first {
			continue // no other non-empty cluster to compare against
		}

		m := math.Max(a, b)
		var s float64
		if m > 0 {
			s = (b - a) / m
		}
		total += s
		counted++
	}

	if counted == 0 {
		return 0
	}
	return total / float64(counted)
}

func meanDistance(y *manifold.Embedding, i int, members []int, excludeSelf bool) float64 {
	var sum float64
	var count int
	for _, j := range members {
		if excludeSelf && j == i {
			continue
		}
		sum += math.Sqrt(y.SquaredDistance(i, j))
		count++
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}
