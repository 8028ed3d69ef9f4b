// Package datasource loads points into the flat row-major form tsne.Fit
// expects, and optionally persists input vectors and finished embeddings
// to Qdrant. Adapted from the teacher's dataimport/ollama/qdrant trio,
// generalized from text-corpus loading to numeric-matrix loading (see
// SPEC_FULL.md §6).
package datasource

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Matrix is a loaded dataset: N row-major points of dimension Dim, plus
// whatever row labels were present (empty strings if the source had none).
type Matrix struct {
	Data   []float64
	N      int
	Dim    int
	Labels []string
}

type jsonRecord struct {
	Label  string    `json:"label,omitempty"`
	Text   string    `json:"text,omitempty"`
	Vector []float64 `json:"vector,omitempty"`
}

// LoadMatrix reads a CSV or JSON file of numeric row vectors, generalized
// from the teacher's LoadTexts/LoadWithVectors to numeric data instead of
// (or alongside) text: a JSON array of objects with a "vector" field, or
// a CSV where every column except an optional "label"/"text" header is
// parsed as a float64.
func LoadMatrix(path string) (Matrix, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".csv":
		return loadMatrixCSV(path)
	case ".json":
		return loadMatrixJSON(path)
	default:
		return Matrix{}, fmt.Errorf("datasource: unsupported file extension: %s", ext)
	}
}

func loadMatrixCSV(path string) (Matrix, error) {
	file, err := os.Open(path)
	if err != nil {
		return Matrix{}, fmt.Errorf("datasource: opening CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	records, err := reader.ReadAll()
	if err != nil {
		return Matrix{}, fmt.Errorf("datasource: reading CSV: %w", err)
	}
	if len(records) == 0 {
		return Matrix{}, fmt.Errorf("datasource: CSV file is empty")
	}

	header := records[0]
	labelCol := -1
	for i, h := range header {
		trimmed := strings.EqualFold(strings.TrimSpace(h), "label")
		if trimmed || strings.EqualFold(strings.TrimSpace(h), "text") {
			labelCol = i
			break
		}
	}

	rows := records[1:]
	n := len(rows)
	if n == 0 {
		return Matrix{}, fmt.Errorf("datasource: CSV has a header but no data rows")
	}
	dim := len(header)
	if labelCol >= 0 {
		dim--
	}
	if dim <= 0 {
		return Matrix{}, fmt.Errorf("datasource: CSV has no numeric columns")
	}

	data := make([]float64, n*dim)
	labels := make([]string, n)
	for r, row := range rows {
		col := 0
		for c, cell := range row {
			if c == labelCol {
				labels[r] = cell
				continue
			}
			v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
			if err != nil {
				return Matrix{}, fmt.Errorf("datasource: row %d column %d: %w", r, c, err)
			}
			data[r*dim+col] = v
			col++
		}
		if col != dim {
			return Matrix{}, fmt.Errorf("datasource: row %d has %d numeric columns, want %d", r, col, dim)
		}
	}

	return Matrix{Data: data, N: n, Dim: dim, Labels: labels}, nil
}

func loadMatrixJSON(path string) (Matrix, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Matrix{}, fmt.Errorf("datasource: reading JSON file: %w", err)
	}

	var records []jsonRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return Matrix{}, fmt.Errorf("datasource: parsing JSON: expected array of {vector, label?} objects: %w", err)
	}
	if len(records) == 0 {
		return Matrix{}, fmt.Errorf("datasource: JSON array is empty")
	}

	dim := len(records[0].Vector)
	if dim == 0 {
		return Matrix{}, fmt.Errorf("datasource: entry 0 missing vector field")
	}

	n := len(records)
	data := make([]float64, n*dim)
	labels := make([]string, n)
	for i, rec := range records {
		if len(rec.Vector) != dim {
			return Matrix{}, fmt.Errorf("datasource: entry %d has %d dimensions, want %d", i, len(rec.Vector), dim)
		}
		copy(data[i*dim:(i+1)*dim], rec.Vector)
		label := rec.Label
		if label == "" {
			label = rec.Text
		}
		labels[i] = label
	}

	return Matrix{Data: data, N: n, Dim: dim, Labels: labels}, nil
}

// LoadTexts reads a CSV or JSON file of raw text rows for the caller to
// embed via an Embedder before calling tsne.Fit — the teacher's original
// dataimport.LoadTexts contract, kept verbatim for the text-corpus path
// LoadMatrix does not cover.
func LoadTexts(path string) ([]string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".csv":
		return loadTextsCSV(path)
	case ".json":
		return loadTextsJSON(path)
	default:
		return nil, fmt.Errorf("datasource: unsupported file extension: %s", ext)
	}
}

func loadTextsCSV(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("datasource: opening CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("datasource: reading CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("datasource: CSV file is empty")
	}

	textCol := -1
	for i, h := range records[0] {
		if strings.EqualFold(strings.TrimSpace(h), "text") {
			textCol = i
			break
		}
	}
	if textCol == -1 {
		return nil, fmt.Errorf("datasource: CSV missing 'text' column header")
	}

	texts := make([]string, 0, len(records)-1)
	for _, row := range records[1:] {
		if textCol < len(row) && row[textCol] != "" {
			texts = append(texts, row[textCol])
		}
	}
	return texts, nil
}

func loadTextsJSON(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("datasource: reading JSON file: %w", err)
	}

	var stringArray []string
	if err := json.Unmarshal(data, &stringArray); err == nil {
		return stringArray, nil
	}

	var records []jsonRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("datasource: parsing JSON: expected array of strings or objects with 'text' field: %w", err)
	}

	texts := make([]string, 0, len(records))
	for i, rec := range records {
		if rec.Text == "" {
			return nil, fmt.Errorf("datasource: entry %d missing text field", i)
		}
		texts = append(texts, rec.Text)
	}
	return texts, nil
}
