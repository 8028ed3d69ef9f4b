package neighbors

import (
	"sort"

	"github.com/datviz/fastTSNE/affinity"
)

// Exact is the brute-force O(n^2) provider, grounded on the teacher's
// projection/umap.go computeKNN: for every row, compute the distance to
// every other row and take the k smallest.
type Exact struct {
	Metric Metric
}

// NewExact returns an Exact provider using squared Euclidean distance.
func NewExact() *Exact {
	return &Exact{Metric: Euclidean{}}
}

func (e *Exact) Query(data []float64, n, dims, k int) (affinity.Distances, error) {
	if err := validate(n, dims, k, len(data)); err != nil {
		return affinity.Distances{}, err
	}
	metric := e.Metric
	if metric == nil {
		metric = Euclidean{}
	}

	type distIdx struct {
		dist float64
		idx  int
	}

	indices := make([][]int, n)
	values := make([][]float64, n)

	for i := 0; i < n; i++ {
		pi := rowAt(data, dims, i)
		candidates := make([]distIdx, 0, n-1)
		for j := 0; j < n; j++ {
			if j == i {
				continue
			}
			candidates = append(candidates, distIdx{dist: metric.Distance(pi, rowAt(data, dims, j)), idx: j})
		}
		sort.Slice(candidates, func(a, b int) bool { return candidates[a].dist < candidates[b].dist })

		idx := make([]int, k)
		dist := make([]float64, k)
		for m := 0; m < k; m++ {
			idx[m] = candidates[m].idx
			dist[m] = candidates[m].dist
		}
		indices[i] = idx
		values[i] = dist
	}

	return affinity.Distances{Indices: indices, Values: values}, nil
}
