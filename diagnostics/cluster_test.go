package diagnostics

import (
	"testing"

	"github.com/datviz/fastTSNE/manifold"
)

func threeTightBlobs() *manifold.Embedding {
	y := &manifold.Embedding{N: 9, D: 2}
	blob := func(cx, cy float64) [][2]float64 {
		return [][2]float64{
			{cx, cy}, {cx + 0.1, cy}, {cx, cy + 0.1},
		}
	}
	var points [][2]float64
	points = append(points, blob(0, 0)...)
	points = append(points, blob(50, 0)...)
	points = append(points, blob(0, 50)...)
	for _, p := range points {
		y.Y = append(y.Y, p[0], p[1])
	}
	return y
}

func TestClusterFindsWellSeparatedBlobs(t *testing.T) {
	y := threeTightBlobs()
	result := Cluster(y, ClusterConfig{MinClusterSize: 2, MinSamples: 2})
	if len(result.Labels) != y.N {
		t.Fatalf("expected %d labels, got %d", y.N, len(result.Labels))
	}

	seen := map[int]bool{}
	for i, l := range result.Labels {
		if l < 0 {
			t.Fatalf("point %d unexpectedly labeled noise", i)
		}
		seen[l] = true
	}
	if len(seen) < 2 {
		t.Fatalf("expected at least 2 distinct clusters among 3 separated blobs, got %d", len(seen))
	}

	// points within the same blob must share a label
	if result.Labels[0] != result.Labels[1] || result.Labels[0] != result.Labels[2] {
		t.Fatalf("expected first blob's points to share a label, got %v", result.Labels[:3])
	}
}

func TestClusterProbabilitiesAreBounded(t *testing.T) {
	y := threeTightBlobs()
	result := Cluster(y, ClusterConfig{MinClusterSize: 2, MinSamples: 2})
	for i, p := range result.Probabilities {
		if p < 0 || p > 1 {
			t.Fatalf("probability for point %d out of [0,1]: %v", i, p)
		}
	}
}

func TestClusterTooFewPointsReturnsAllNoise(t *testing.T) {
	y := &manifold.Embedding{N: 3, D: 2, Y: []float64{0, 0, 1, 1, 2, 2}}
	result := Cluster(y, DefaultClusterConfig())
	for i, l := range result.Labels {
		if l != -1 {
			t.Fatalf("point %d: expected noise label -1 with too few points, got %d", i, l)
		}
	}
}

func TestClusterEmptyEmbedding(t *testing.T) {
	y := &manifold.Embedding{N: 0, D: 2}
	result := Cluster(y, DefaultClusterConfig())
	if result.Labels != nil || result.Probabilities != nil {
		t.Fatalf("expected empty result for empty embedding, got %+v", result)
	}
}

func TestClusterLabelsMatchesClusterLabelsField(t *testing.T) {
	y := threeTightBlobs()
	config := ClusterConfig{MinClusterSize: 2, MinSamples: 2}
	labels := ClusterLabels(y, config)
	full := Cluster(y, config)
	if len(labels) != len(full.Labels) {
		t.Fatalf("ClusterLabels length mismatch: %d vs %d", len(labels), len(full.Labels))
	}
	for i := range labels {
		if labels[i] != full.Labels[i] {
			t.Fatalf("ClusterLabels diverges from Cluster().Labels at %d: %d vs %d", i, labels[i], full.Labels[i])
		}
	}
}
