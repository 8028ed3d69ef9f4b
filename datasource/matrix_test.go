package datasource

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing temp file: %v", err)
	}
	return path
}

func TestLoadMatrixCSVWithLabelColumn(t *testing.T) {
	path := writeTemp(t, "data.csv", "label,x,y,z\na,1,2,3\nb,4,5,6\n")
	m, err := LoadMatrix(path)
	if err != nil {
		t.Fatal(err)
	}
	if m.N != 2 || m.Dim != 3 {
		t.Fatalf("got N=%d Dim=%d, want N=2 Dim=3", m.N, m.Dim)
	}
	if m.Labels[0] != "a" || m.Labels[1] != "b" {
		t.Fatalf("unexpected labels: %v", m.Labels)
	}
	want := []float64{1, 2, 3, 4, 5, 6}
	for i, v := range want {
		if m.Data[i] != v {
			t.Fatalf("data[%d] = %v, want %v", i, m.Data[i], v)
		}
	}
}

func TestLoadMatrixCSVWithoutLabelColumn(t *testing.T) {
	path := writeTemp(t, "data.csv", "x,y\n1,2\n3,4\n5,6\n")
	m, err := LoadMatrix(path)
	if err != nil {
		t.Fatal(err)
	}
	if m.N != 3 || m.Dim != 2 {
		t.Fatalf("got N=%d Dim=%d, want N=3 Dim=2", m.N, m.Dim)
	}
}

func TestLoadMatrixCSVRejectsBadNumber(t *testing.T) {
	path := writeTemp(t, "data.csv", "x,y\n1,notanumber\n")
	if _, err := LoadMatrix(path); err == nil {
		t.Fatal("expected error for non-numeric cell")
	}
}

func TestLoadMatrixJSON(t *testing.T) {
	path := writeTemp(t, "data.json", `[
		{"label": "a", "vector": [1, 2, 3]},
		{"label": "b", "vector": [4, 5, 6]}
	]`)
	m, err := LoadMatrix(path)
	if err != nil {
		t.Fatal(err)
	}
	if m.N != 2 || m.Dim != 3 {
		t.Fatalf("got N=%d Dim=%d, want N=2 Dim=3", m.N, m.Dim)
	}
	if m.Labels[0] != "a" || m.Labels[1] != "b" {
		t.Fatalf("unexpected labels: %v", m.Labels)
	}
}

func TestLoadMatrixJSONRejectsRaggedVectors(t *testing.T) {
	path := writeTemp(t, "data.json", `[{"vector": [1, 2]}, {"vector": [1, 2, 3]}]`)
	if _, err := LoadMatrix(path); err == nil {
		t.Fatal("expected error for inconsistent vector length")
	}
}

func TestLoadMatrixRejectsUnknownExtension(t *testing.T) {
	path := writeTemp(t, "data.txt", "1,2,3")
	if _, err := LoadMatrix(path); err == nil {
		t.Fatal("expected error for unsupported extension")
	}
}

func TestLoadTextsCSV(t *testing.T) {
	path := writeTemp(t, "texts.csv", "text\nhello\nworld\n")
	texts, err := LoadTexts(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(texts) != 2 || texts[0] != "hello" || texts[1] != "world" {
		t.Fatalf("unexpected texts: %v", texts)
	}
}

func TestLoadTextsJSONStringArray(t *testing.T) {
	path := writeTemp(t, "texts.json", `["hello", "world"]`)
	texts, err := LoadTexts(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(texts) != 2 {
		t.Fatalf("got %d texts, want 2", len(texts))
	}
}

func TestLoadTextsJSONObjectArray(t *testing.T) {
	path := writeTemp(t, "texts.json", `[{"text": "hello"}, {"text": "world"}]`)
	texts, err := LoadTexts(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(texts) != 2 {
		t.Fatalf("got %d texts, want 2", len(texts))
	}
}
