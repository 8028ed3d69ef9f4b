package neighbors

import (
	"container/heap"
	"math"

	"github.com/datviz/fastTSNE/affinity"
)

// BallTree is an approximate-but-typically-exact neighbor provider for
// larger point counts, adapted from the hdbscan ball tree in the
// examples pack: a complete array-backed binary tree of bounding balls,
// queried with a single-tree best-first descent pruned by the centroid
// distance minus radius lower bound. It is "approximate" only in the
// sense that, unlike Exact, it never falls back to full row scans; the
// traversal itself still visits every node whose bound cannot rule it
// out, so on clustered data it returns the true k nearest neighbors.
type BallTree struct {
	LeafSize int

	data      []float64
	n         int
	dims      int
	idxArray  []int
	nodes     []btNode
	centroids []float64
	numNodes  int
}

// euclid is the true (non-squared) Euclidean distance. The ball tree's
// centroid-radius pruning bound only holds under the triangle
// inequality, which squared distance does not satisfy, so tree geometry
// is always computed in this space; Query squares the final k
// distances before handing them to affinity, whose Gaussian kernel
// expects squared distances.
func euclid(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}

type btNode struct {
	idxStart, idxEnd int
	isLeaf           bool
	radius           float64
}

// NewBallTree returns a BallTree provider with the leaf size the
// examples pack's hdbscan package defaults to.
func NewBallTree(leafSize int) *BallTree {
	if leafSize < 1 {
		leafSize = 16
	}
	return &BallTree{LeafSize: leafSize}
}

func (t *BallTree) Query(data []float64, n, dims, k int) (affinity.Distances, error) {
	if err := validate(n, dims, k, len(data)); err != nil {
		return affinity.Distances{}, err
	}
	t.build(data, n, dims)

	indices := make([][]int, n)
	values := make([][]float64, n)
	for i := 0; i < n; i++ {
		h := &knnHeap{}
		heap.Init(h)
		// Query for k+1 and drop self, since the tree is built over the
		// same points being queried.
		t.search(0, rowAt(data, dims, i), k+1, h)

		all := make([]knnItem, h.Len())
		for j := len(all) - 1; j >= 0; j-- {
			all[j] = heap.Pop(h).(knnItem)
		}

		idx := make([]int, 0, k)
		dist := make([]float64, 0, k)
		for _, item := range all {
			if item.index == i {
				continue
			}
			idx = append(idx, item.index)
			dist = append(dist, item.dist*item.dist)
			if len(idx) == k {
				break
			}
		}
		indices[i] = idx
		values[i] = dist
	}

	return affinity.Distances{Indices: indices, Values: values}, nil
}

func (t *BallTree) build(data []float64, n, dims int) {
	t.data = data
	t.n = n
	t.dims = dims
	t.idxArray = make([]int, n)
	for i := range t.idxArray {
		t.idxArray[i] = i
	}
	maxNodes := btMaxNodes(n, t.LeafSize)
	t.nodes = make([]btNode, maxNodes)
	t.centroids = make([]float64, maxNodes*dims)
	if n > 0 {
		t.buildNode(0, 0, n)
		t.numNodes = btCountNodes(t.nodes, 0, maxNodes)
	}
}

func btMaxNodes(n, leafSize int) int {
	if n == 0 {
		return 1
	}
	leaves := (n + leafSize - 1) / leafSize
	if leaves < 1 {
		leaves = 1
	}
	return 4 * leaves
}

func btCountNodes(nodes []btNode, nodeID, maxNodes int) int {
	if nodeID >= maxNodes {
		return 0
	}
	if nodes[nodeID].idxStart == 0 && nodes[nodeID].idxEnd == 0 && nodeID != 0 {
		return 0
	}
	count := 1
	if !nodes[nodeID].isLeaf {
		count += btCountNodes(nodes, 2*nodeID+1, maxNodes)
		count += btCountNodes(nodes, 2*nodeID+2, maxNodes)
	}
	return count
}

func (t *BallTree) buildNode(nodeID, start, end int) {
	for nodeID >= len(t.nodes) {
		t.nodes = append(t.nodes, btNode{})
		t.centroids = append(t.centroids, make([]float64, t.dims)...)
	}

	t.computeCentroid(nodeID, start, end)
	centroid := t.centroids[nodeID*t.dims : (nodeID+1)*t.dims]
	var radius float64
	for i := start; i < end; i++ {
		pt := rowAt(t.data, t.dims, t.idxArray[i])
		if d := euclid(centroid, pt); d > radius {
			radius = d
		}
	}

	count := end - start
	if count <= t.LeafSize {
		t.nodes[nodeID] = btNode{idxStart: start, idxEnd: end, isLeaf: true, radius: radius}
		return
	}
	t.nodes[nodeID] = btNode{idxStart: start, idxEnd: end, isLeaf: false, radius: radius}

	dim := t.findSpreadDim(start, end)
	t.sortByDim(start, end, dim)
	mid := start + count/2
	t.buildNode(2*nodeID+1, start, mid)
	t.buildNode(2*nodeID+2, mid, end)
}

func (t *BallTree) computeCentroid(nodeID, start, end int) {
	base := nodeID * t.dims
	for d := 0; d < t.dims; d++ {
		t.centroids[base+d] = 0
	}
	count := float64(end - start)
	if count == 0 {
		return
	}
	for i := start; i < end; i++ {
		pt := rowAt(t.data, t.dims, t.idxArray[i])
		for d := 0; d < t.dims; d++ {
			t.centroids[base+d] += pt[d]
		}
	}
	for d := 0; d < t.dims; d++ {
		t.centroids[base+d] /= count
	}
}

func (t *BallTree) findSpreadDim(start, end int) int {
	best, bestSpread := 0, -1.0
	for d := 0; d < t.dims; d++ {
		lo, hi := rowAt(t.data, t.dims, t.idxArray[start])[d], rowAt(t.data, t.dims, t.idxArray[start])[d]
		for i := start + 1; i < end; i++ {
			v := rowAt(t.data, t.dims, t.idxArray[i])[d]
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
		if spread := hi - lo; spread > bestSpread {
			best, bestSpread = d, spread
		}
	}
	return best
}

func (t *BallTree) sortByDim(start, end, dim int) {
	slice := t.idxArray[start:end]
	insertionSortByDim(slice, t.data, t.dims, dim)
}

// insertionSortByDim sorts each node's whole index range, from the root's
// n points down to leaf-sized partitions; unlike sort.Slice it allocates
// no closure per call on the build path.
func insertionSortByDim(idx []int, data []float64, dims, dim int) {
	for i := 1; i < len(idx); i++ {
		v := idx[i]
		vVal := data[v*dims+dim]
		j := i - 1
		for j >= 0 && data[idx[j]*dims+dim] > vVal {
			idx[j+1] = idx[j]
			j--
		}
		idx[j+1] = v
	}
}

func (t *BallTree) search(nodeID int, query []float64, k int, h *knnHeap) {
	if nodeID >= len(t.nodes) {
		return
	}
	node := t.nodes[nodeID]
	if node.idxStart == node.idxEnd && nodeID != 0 {
		return
	}

	if node.isLeaf {
		for i := node.idxStart; i < node.idxEnd; i++ {
			ptIdx := t.idxArray[i]
			d := euclid(query, rowAt(t.data, t.dims, ptIdx))
			if h.Len() < k {
				heap.Push(h, knnItem{index: ptIdx, dist: d})
			} else if d < (*h)[0].dist {
				(*h)[0] = knnItem{index: ptIdx, dist: d}
				heap.Fix(h, 0)
			}
		}
		return
	}

	left, right := 2*nodeID+1, 2*nodeID+2
	centroidL := t.centroids[left*t.dims : (left+1)*t.dims]
	centroidR := t.centroids[right*t.dims : (right+1)*t.dims]
	leftBound := euclid(query, centroidL) - t.nodes[left].radius
	rightBound := euclid(query, centroidR) - t.nodes[right].radius
	if leftBound < 0 {
		leftBound = 0
	}
	if rightBound < 0 {
		rightBound = 0
	}

	near, far, farBound := left, right, rightBound
	if rightBound < leftBound {
		near, far, farBound = right, left, leftBound
	}

	t.search(near, query, k, h)
	if h.Len() < k || farBound < (*h)[0].dist {
		t.search(far, query, k, h)
	}
}

type knnItem struct {
	index int
	dist  float64
}

// knnHeap is a max-heap on dist, so the root is always the current
// k-th-best candidate to evict.
type knnHeap []knnItem

func (h knnHeap) Len() int            { return len(h) }
func (h knnHeap) Less(i, j int) bool  { return h[i].dist > h[j].dist }
func (h knnHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *knnHeap) Push(x interface{}) { *h = append(*h, x.(knnItem)) }
func (h *knnHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
