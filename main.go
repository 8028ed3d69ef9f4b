// Package main provides the entry point for fastTSNE, a CLI that loads a
// dataset, optionally embeds raw text into vectors via Ollama or Hugging
// Face, projects the result to 2-D with t-SNE, visualizes the run live
// in a terminal UI, and optionally persists the input vectors and final
// layout to Qdrant.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/datviz/fastTSNE/datasource"
	"github.com/datviz/fastTSNE/diagnostics"
	"github.com/datviz/fastTSNE/embedding"
	"github.com/datviz/fastTSNE/huggingface"
	"github.com/datviz/fastTSNE/ollama"
	"github.com/datviz/fastTSNE/preload"
	"github.com/datviz/fastTSNE/tsne"
	"github.com/datviz/fastTSNE/tui"

	tea "github.com/charmbracelet/bubbletea"
)

// version is set at build time via ldflags, defaults to "dev" for local builds
var version = "dev"

const (
	ollamaServiceURL          = "http://localhost:11434"
	ollamaEmbeddingModel      = "nomic-embed-text"
	huggingfaceEmbeddingModel = "sentence-transformers/all-MiniLM-L6-v2"
	qdrantServiceAddress      = "localhost:6334"
	vectorCollectionName      = "fasttsne"
)

func main() {
	showVersionFlag := flag.Bool("version", false, "print version and exit")
	preloadDemoDataFlag := flag.Bool("preload", false, "embed and project a demo word list")
	perplexityFlag := flag.Float64("perplexity", 30, "t-SNE perplexity")
	nIterFlag := flag.Int("iters", 750, "number of optimization iterations")
	negativeMethodFlag := flag.String("negative", "bh", "negative gradient method: bh or fft")
	embedderFlag := flag.String("embedder", "ollama", "text embedding backend: ollama or huggingface")
	persistFlag := flag.Bool("persist", false, "store input vectors and the final layout in Qdrant")
	flag.Parse()

	if *showVersionFlag {
		fmt.Println(version)
		return
	}

	var datasetPath string
	if flag.NArg() > 0 {
		datasetPath = flag.Arg(0)
	}
	if !*preloadDemoDataFlag && datasetPath == "" {
		fmt.Fprintln(os.Stderr, "usage: fastTSNE [flags] <dataset.csv|dataset.json>")
		fmt.Fprintln(os.Stderr, "       fastTSNE -preload")
		os.Exit(1)
	}

	matrix, err := loadDataset(datasetPath, *preloadDemoDataFlag, *embedderFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading dataset: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Loaded %d points, %d dimensions.\n", matrix.N, matrix.Dim)

	cfg := tsne.DefaultConfig(matrix.N)
	cfg.Perplexity = *perplexityFlag
	cfg.NIter = *nIterFlag
	if *negativeMethodFlag == "fft" {
		cfg.NegativeGradientMethod = tsne.MethodFFT
	}

	model := tui.NewModel(matrix.Labels, cfg.NIter, version)
	program := tea.NewProgram(model, tea.WithAltScreen())
	cfg.Observer = &tui.LiveObserver{Program: program}

	go runFit(program, matrix, cfg, *persistFlag)

	if _, runErr := program.Run(); runErr != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", runErr)
		os.Exit(1)
	}
}

// loadDataset resolves the -preload flag or a dataset path into a
// datasource.Matrix, embedding through the selected backend first when
// the source is text rather than already-numeric rows.
func loadDataset(datasetPath string, usePreload bool, embedderName string) (datasource.Matrix, error) {
	embedder, err := resolveEmbedder(embedderName)
	if err != nil {
		return datasource.Matrix{}, err
	}

	if usePreload {
		return embedTextsWithProgress(preload.Words(), embedder)
	}

	if isNumericDataset(datasetPath) {
		return datasource.LoadMatrix(datasetPath)
	}

	texts, err := datasource.LoadTexts(datasetPath)
	if err != nil {
		return datasource.Matrix{}, err
	}
	return embedTextsWithProgress(texts, embedder)
}

// resolveEmbedder picks the text-to-vector backend named by -embedder.
// Both the teacher's original Ollama client and its Hugging Face
// Inference API client satisfy embedding.Embedder, so either can drive
// embedTextsWithProgress unchanged.
func resolveEmbedder(name string) (embedding.Embedder, error) {
	switch name {
	case "", "ollama":
		return ollama.NewClient(ollamaServiceURL, ollamaEmbeddingModel), nil
	case "huggingface":
		return huggingface.NewEmbeddingsClient(huggingfaceEmbeddingModel, ""), nil
	default:
		return nil, fmt.Errorf("unknown embedder %q: want ollama or huggingface", name)
	}
}

// isNumericDataset tries LoadMatrix's JSON/CSV numeric parse first and
// falls back to treating the file as a text corpus for LoadTexts/Embed
// when that fails, so both a numeric-vector file and a text corpus can
// be passed to the same positional argument.
func isNumericDataset(path string) bool {
	_, err := datasource.LoadMatrix(path)
	return err == nil
}

func embedTextsWithProgress(texts []string, embedder embedding.Embedder) (datasource.Matrix, error) {
	fmt.Printf("Embedding %d texts...\n", len(texts))
	m, err := datasource.EmbedTexts(texts, embedder)
	if err != nil {
		return datasource.Matrix{}, err
	}
	fmt.Printf("Embedded %d of %d (some may have been skipped).\n", m.N, len(texts))
	return m, nil
}

// runFit runs the t-SNE fit in the background, feeding the TUI's
// LiveObserver every CallbacksEveryIters dispatches, then sends the
// program a doneMsg via tui.NewDoneMsg, prints a cluster-quality summary
// of the finished layout, and optionally persists the run to Qdrant
// before the program exits.
func runFit(program *tea.Program, m datasource.Matrix, cfg tsne.Config, persist bool) {
	result, err := tsne.Fit(m.Data, m.N, m.Dim, cfg, nil, nil)
	if err != nil {
		program.Send(tui.NewDoneMsg(nil, err))
		return
	}
	program.Send(tui.NewDoneMsg(result.Embedding, nil))

	clusters := diagnostics.Cluster(result.Embedding, diagnostics.DefaultClusterConfig())
	silhouette := diagnostics.Silhouette(result.Embedding, clusters.Labels)
	fmt.Fprintf(os.Stderr, "\nfound %d clusters, silhouette %.4f\n", countClusters(clusters.Labels), silhouette)

	if persist {
		if err := persistRun(m, result.Embedding.Y); err != nil {
			fmt.Fprintf(os.Stderr, "persisting to qdrant: %v\n", err)
		}
	}
}

func countClusters(labels []int) int {
	seen := map[int]bool{}
	for _, l := range labels {
		if l >= 0 {
			seen[l] = true
		}
	}
	return len(seen)
}

func persistRun(m datasource.Matrix, y []float64) error {
	store, err := datasource.NewVectorStore(qdrantServiceAddress, vectorCollectionName, m.Dim)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	if _, err := store.UpsertInputs(ctx, m); err != nil {
		return err
	}
	return store.UpsertProjections(ctx, m, y)
}
