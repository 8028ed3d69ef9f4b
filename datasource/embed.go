package datasource

import (
	"fmt"

	"github.com/datviz/fastTSNE/embedding"
)

// EmbedTexts runs each text through embedder and stacks the resulting
// vectors into a Matrix, bridging LoadTexts' text-corpus path into
// tsne.Fit's numeric input — the role the teacher's main.go filled
// inline by calling ollama.Client.Embed in a loop before handing rows
// to projection.PCA.
func EmbedTexts(texts []string, embedder embedding.Embedder) (Matrix, error) {
	if len(texts) == 0 {
		return Matrix{}, fmt.Errorf("datasource: no texts to embed")
	}

	var dim int
	data := make([]float64, 0, len(texts))
	labels := make([]string, 0, len(texts))
	rows := 0

	for i, text := range texts {
		vec, err := embedder.Embed(text)
		if err != nil {
			return Matrix{}, fmt.Errorf("datasource: embedding text %d: %w", i, err)
		}
		if len(vec) == 0 {
			continue
		}
		if dim == 0 {
			dim = len(vec)
		} else if len(vec) != dim {
			return Matrix{}, fmt.Errorf("datasource: text %d produced %d-dim vector, want %d", i, len(vec), dim)
		}
		for _, v := range vec {
			data = append(data, float64(v))
		}
		labels = append(labels, text)
		rows++
	}

	if rows == 0 {
		return Matrix{}, fmt.Errorf("datasource: every text embedded to an empty vector")
	}

	return Matrix{Data: data, N: rows, Dim: dim, Labels: labels}, nil
}
