// Package qdrant provides a gRPC client for interacting with a Qdrant vector database.
// It handles collection management and CRUD operations for high-dimensional input
// vectors, each optionally tagged with its t-SNE projection for later retrieval.
package qdrant

import (
	"context"
	"fmt"

	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Client wraps gRPC connections to a Qdrant vector database instance.
// It provides methods for upserting, retrieving, and deleting vector points.
type Client struct {
	connection        *grpc.ClientConn
	pointsClient      pb.PointsClient
	collectionsClient pb.CollectionsClient
	collectionName    string
	vectorSize        uint64
}

// Point represents a single high-dimensional input vector with its
// associated metadata, and, once a run has projected it, its 2-D
// t-SNE coordinates.
type Point struct {
	ID     string
	Label  string
	Vector []float32
	HasXY  bool
	X, Y   float64
}

// NewClient creates a new Qdrant client connected to the specified address.
// It initializes the gRPC connection and ensures the target collection exists,
// creating it with cosine distance if necessary.
func NewClient(address, collectionName string, vectorSize uint64) (*Client, error) {
	connection, err := grpc.NewClient(address, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("connect to qdrant: %w", err)
	}

	client := &Client{
		connection:        connection,
		pointsClient:      pb.NewPointsClient(connection),
		collectionsClient: pb.NewCollectionsClient(connection),
		collectionName:    collectionName,
		vectorSize:        vectorSize,
	}

	if err := client.ensureCollectionExists(context.Background()); err != nil {
		connection.Close()
		return nil, err
	}

	return client, nil
}

// ensureCollectionExists checks if the target collection exists in Qdrant.
// If it doesn't exist, it creates a new collection configured for cosine similarity.
func (client *Client) ensureCollectionExists(ctx context.Context) error {
	_, err := client.collectionsClient.Get(ctx, &pb.GetCollectionInfoRequest{
		CollectionName: client.collectionName,
	})
	if err == nil {
		return nil
	}

	_, err = client.collectionsClient.Create(ctx, &pb.CreateCollection{
		CollectionName: client.collectionName,
		VectorsConfig: &pb.VectorsConfig{
			Config: &pb.VectorsConfig_Params{
				Params: &pb.VectorParams{
					Size:     client.vectorSize,
					Distance: pb.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("create collection: %w", err)
	}

	return nil
}

// Upsert inserts or updates an input vector in the collection, tagged
// with a caller-chosen label (a source text, a row label, or empty).
func (client *Client) Upsert(ctx context.Context, pointID string, label string, vector []float32) error {
	return client.upsert(ctx, pointID, label, vector, nil)
}

// UpsertWithProjection is Upsert plus the point's t-SNE coordinates,
// stored under the "tsne_x"/"tsne_y" payload fields so a completed
// run's layout can be retrieved alongside the vector that produced it.
func (client *Client) UpsertWithProjection(ctx context.Context, pointID string, label string, vector []float32, x, y float64) error {
	return client.upsert(ctx, pointID, label, vector, &[2]float64{x, y})
}

func (client *Client) upsert(ctx context.Context, pointID string, label string, vector []float32, xy *[2]float64) error {
	payload := map[string]*pb.Value{
		"label": {Kind: &pb.Value_StringValue{StringValue: label}},
	}
	if xy != nil {
		payload["tsne_x"] = &pb.Value{Kind: &pb.Value_DoubleValue{DoubleValue: xy[0]}}
		payload["tsne_y"] = &pb.Value{Kind: &pb.Value_DoubleValue{DoubleValue: xy[1]}}
	}

	pointToUpsert := &pb.PointStruct{
		Id: &pb.PointId{
			PointIdOptions: &pb.PointId_Uuid{Uuid: pointID},
		},
		Vectors: &pb.Vectors{
			VectorsOptions: &pb.Vectors_Vector{
				Vector: &pb.Vector{Data: vector},
			},
		},
		Payload: payload,
	}

	_, err := client.pointsClient.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: client.collectionName,
		Points:         []*pb.PointStruct{pointToUpsert},
	})
	return err
}

// GetAll retrieves all vector points from the collection.
// It scrolls through the collection and returns up to 1000 points,
// each containing the ID, label, input vector, and, if a run has
// projected it, its t-SNE coordinates.
func (client *Client) GetAll(ctx context.Context) ([]Point, error) {
	scrollResponse, err := client.pointsClient.Scroll(ctx, &pb.ScrollPoints{
		CollectionName: client.collectionName,
		WithPayload:    &pb.WithPayloadSelector{SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true}},
		WithVectors:    &pb.WithVectorsSelector{SelectorOptions: &pb.WithVectorsSelector_Enable{Enable: true}},
		Limit:          pb.PtrOf(uint32(1000)),
	})
	if err != nil {
		return nil, fmt.Errorf("scroll points: %w", err)
	}

	var points []Point
	for _, retrievedPoint := range scrollResponse.Result {
		var pointID string
		if uuid := retrievedPoint.Id.GetUuid(); uuid != "" {
			pointID = uuid
		}

		var label string
		if labelPayload, exists := retrievedPoint.Payload["label"]; exists {
			label = labelPayload.GetStringValue()
		}

		var embeddingVector []float32
		if vectorData := retrievedPoint.Vectors.GetVector(); vectorData != nil {
			embeddingVector = vectorData.Data
		}

		point := Point{ID: pointID, Label: label, Vector: embeddingVector}
		xPayload, hasX := retrievedPoint.Payload["tsne_x"]
		yPayload, hasY := retrievedPoint.Payload["tsne_y"]
		if hasX && hasY {
			point.HasXY = true
			point.X = xPayload.GetDoubleValue()
			point.Y = yPayload.GetDoubleValue()
		}

		points = append(points, point)
	}

	return points, nil
}

// Delete removes a vector point from the collection by its UUID.
func (client *Client) Delete(ctx context.Context, pointID string) error {
	pointSelector := &pb.PointsSelector{
		PointsSelectorOneOf: &pb.PointsSelector_Points{
			Points: &pb.PointsIdsList{
				Ids: []*pb.PointId{
					{PointIdOptions: &pb.PointId_Uuid{Uuid: pointID}},
				},
			},
		},
	}

	_, err := client.pointsClient.Delete(ctx, &pb.DeletePoints{
		CollectionName: client.collectionName,
		Points:         pointSelector,
	})
	return err
}

// Close terminates the gRPC connection to the Qdrant server.
func (client *Client) Close() error {
	return client.connection.Close()
}
