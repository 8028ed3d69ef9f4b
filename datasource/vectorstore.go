package datasource

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	qdrantclient "github.com/datviz/fastTSNE/qdrant"
)

// VectorStore persists a Matrix's input rows to Qdrant, and, once a run
// has finished, each row's 2-D t-SNE coordinates — generalized from the
// teacher's text-embedding store to arbitrary numeric rows (see
// SPEC_FULL.md §6 and DESIGN.md's datasource entry).
type VectorStore struct {
	client *qdrantclient.Client
	ids    []string
}

// NewVectorStore connects to Qdrant and ensures a collection sized for
// dim-dimensional input vectors exists.
func NewVectorStore(address, collectionName string, dim int) (*VectorStore, error) {
	client, err := qdrantclient.NewClient(address, collectionName, uint64(dim))
	if err != nil {
		return nil, fmt.Errorf("datasource: connecting to qdrant: %w", err)
	}
	return &VectorStore{client: client}, nil
}

// UpsertInputs stores every row of m as its own point, assigning each a
// fresh UUID that later calls to UpsertProjections reuse. Returns the
// assigned IDs in row order.
func (s *VectorStore) UpsertInputs(ctx context.Context, m Matrix) ([]string, error) {
	ids := make([]string, m.N)
	for i := 0; i < m.N; i++ {
		id := uuid.NewString()
		vec := rowToFloat32(m.Data, m.Dim, i)
		label := ""
		if i < len(m.Labels) {
			label = m.Labels[i]
		}
		if err := s.client.Upsert(ctx, id, label, vec); err != nil {
			return nil, fmt.Errorf("datasource: upserting row %d: %w", i, err)
		}
		ids[i] = id
	}
	s.ids = ids
	return ids, nil
}

// UpsertProjections attaches the finished 2-D embedding to the points
// previously stored by UpsertInputs, in the same row order.
func (s *VectorStore) UpsertProjections(ctx context.Context, m Matrix, y []float64) error {
	if len(s.ids) != m.N {
		return fmt.Errorf("datasource: UpsertProjections called with %d rows, but %d ids are tracked (call UpsertInputs first)", m.N, len(s.ids))
	}
	if len(y) != m.N*2 {
		return fmt.Errorf("datasource: embedding has %d values, want %d for %d 2-D points", len(y), m.N*2, m.N)
	}
	for i, id := range s.ids {
		vec := rowToFloat32(m.Data, m.Dim, i)
		label := ""
		if i < len(m.Labels) {
			label = m.Labels[i]
		}
		if err := s.client.UpsertWithProjection(ctx, id, label, vec, y[i*2], y[i*2+1]); err != nil {
			return fmt.Errorf("datasource: upserting projection for row %d: %w", i, err)
		}
	}
	return nil
}

// GetAll returns every stored point, including its projection when one
// has been attached.
func (s *VectorStore) GetAll(ctx context.Context) ([]qdrantclient.Point, error) {
	return s.client.GetAll(ctx)
}

// Delete removes a single stored point by ID.
func (s *VectorStore) Delete(ctx context.Context, id string) error {
	return s.client.Delete(ctx, id)
}

// Close releases the underlying gRPC connection.
func (s *VectorStore) Close() error {
	return s.client.Close()
}

func rowToFloat32(data []float64, dim, row int) []float32 {
	out := make([]float32, dim)
	for d := 0; d < dim; d++ {
		out[d] = float32(data[row*dim+d])
	}
	return out
}
