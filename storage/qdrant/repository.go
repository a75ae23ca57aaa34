// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package qdrant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/poiesic/winesearch/core"
	"github.com/poiesic/winesearch/storage"
)

// DefaultCollection is the collection name used when none is configured.
const DefaultCollection = "wines"

// pointsAPI is the subset of pb.PointsClient used by the repository.
type pointsAPI interface {
	Upsert(ctx context.Context, in *pb.UpsertPoints, opts ...grpc.CallOption) (*pb.PointsOperationResponse, error)
	Search(ctx context.Context, in *pb.SearchPoints, opts ...grpc.CallOption) (*pb.SearchResponse, error)
	Scroll(ctx context.Context, in *pb.ScrollPoints, opts ...grpc.CallOption) (*pb.ScrollResponse, error)
	Count(ctx context.Context, in *pb.CountPoints, opts ...grpc.CallOption) (*pb.CountResponse, error)
	CreateFieldIndex(ctx context.Context, in *pb.CreateFieldIndexCollection, opts ...grpc.CallOption) (*pb.PointsOperationResponse, error)
}

// collectionsAPI is the subset of pb.CollectionsClient used by the repository.
type collectionsAPI interface {
	List(ctx context.Context, in *pb.ListCollectionsRequest, opts ...grpc.CallOption) (*pb.ListCollectionsResponse, error)
	Create(ctx context.Context, in *pb.CreateCollection, opts ...grpc.CallOption) (*pb.CollectionOperationResponse, error)
}

// healthAPI is the subset of pb.QdrantClient used by the repository.
type healthAPI interface {
	HealthCheck(ctx context.Context, in *pb.HealthCheckRequest, opts ...grpc.CallOption) (*pb.HealthCheckReply, error)
}

// Option configures a Repository.
type Option func(*Repository) error

// WithLogger sets the logger for the repository.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Repository) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// WithCollection sets the collection name.
func WithCollection(name string) Option {
	return func(r *Repository) error {
		if name == "" {
			return errors.New("collection name cannot be empty")
		}
		r.collection = name
		return nil
	}
}

// Repository is a storage.WineRepository backed by a Qdrant collection.
type Repository struct {
	conn        *grpc.ClientConn
	points      pointsAPI
	collections collectionsAPI
	health      healthAPI
	collection  string
	logger      *slog.Logger

	mu     sync.RWMutex
	closed bool
}

var _ storage.WineRepository = (*Repository)(nil)

// NewRepository creates a Repository connected to Qdrant at the given gRPC
// address, e.g. "localhost:6334".
func NewRepository(addr string, opts ...Option) (storage.WineRepository, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("dial qdrant %s: %w", addr, err)
	}
	r, err := newRepository(pb.NewPointsClient(conn), pb.NewCollectionsClient(conn), pb.NewQdrantClient(conn), opts...)
	if err != nil {
		conn.Close()
		return nil, err
	}
	r.conn = conn
	return r, nil
}

func newRepository(points pointsAPI, collections collectionsAPI, health healthAPI, opts ...Option) (*Repository, error) {
	r := &Repository{
		points:      points,
		collections: collections,
		health:      health,
		collection:  DefaultCollection,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	r.logger = r.logger.With("component", "qdrant-repository", "collection", r.collection)
	return r, nil
}

func (r *Repository) checkOpen() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return storage.ErrStorageClosed
	}
	return nil
}

// Name implements storage.Repository.
func (r *Repository) Name() string {
	return "Qdrant"
}

// Ping runs a Qdrant health check.
func (r *Repository) Ping(ctx context.Context) error {
	if err := r.checkOpen(); err != nil {
		return err
	}
	if _, err := r.health.HealthCheck(ctx, &pb.HealthCheckRequest{}); err != nil {
		return fmt.Errorf("%w: %w", storage.ErrBackendUnavailable, err)
	}
	return nil
}

// Close closes the underlying gRPC connection.
func (r *Repository) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	if r.conn != nil {
		return r.conn.Close()
	}
	return nil
}

// Prepare creates the collection with cosine distance and the payload
// indexes used by full-text search, unless the collection already exists.
func (r *Repository) Prepare(ctx context.Context) error {
	if err := r.checkOpen(); err != nil {
		return err
	}

	list, err := r.collections.List(ctx, &pb.ListCollectionsRequest{})
	if err != nil {
		return fmt.Errorf("%w: list collections: %w", storage.ErrBackendUnavailable, err)
	}
	for _, c := range list.GetCollections() {
		if c.GetName() == r.collection {
			r.logger.Info("found collection, skipping creation")
			return nil
		}
	}

	r.logger.Info("creating collection")
	_, err = r.collections.Create(ctx, &pb.CreateCollection{
		CollectionName: r.collection,
		VectorsConfig: &pb.VectorsConfig{
			Config: &pb.VectorsConfig_Params{
				Params: &pb.VectorParams{
					Size:     uint64(core.VectorDims),
					Distance: pb.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("create collection %s: %w", r.collection, err)
	}

	wait := true
	indexes := []struct {
		field string
		typ   pb.FieldType
	}{
		{keyToVectorize, pb.FieldType_FieldTypeText},
		{keyPoints, pb.FieldType_FieldTypeInteger},
	}
	for _, idx := range indexes {
		typ := idx.typ
		_, err := r.points.CreateFieldIndex(ctx, &pb.CreateFieldIndexCollection{
			CollectionName: r.collection,
			Wait:           &wait,
			FieldName:      idx.field,
			FieldType:      &typ,
		})
		if err != nil {
			return fmt.Errorf("create %s index: %w", idx.field, err)
		}
	}
	return nil
}

// AddWines upserts records as points keyed by wine ID.
func (r *Repository) AddWines(ctx context.Context, wines ...core.EmbeddedWine) (int, error) {
	if err := r.checkOpen(); err != nil {
		return 0, err
	}
	if len(wines) == 0 {
		return 0, nil
	}

	points := make([]*pb.PointStruct, len(wines))
	for i := range wines {
		w := &wines[i]
		if err := core.ValidateVector(w.Vector); err != nil {
			return 0, fmt.Errorf("%w: wine %d: %w", storage.ErrDimensionMismatch, w.ID, err)
		}
		points[i] = &pb.PointStruct{
			Id: &pb.PointId{
				PointIdOptions: &pb.PointId_Num{Num: uint64(w.ID)},
			},
			Vectors: &pb.Vectors{
				VectorsOptions: &pb.Vectors_Vector{
					Vector: &pb.Vector{Data: w.Vector},
				},
			},
			Payload: toPayload(&w.Wine),
		}
	}

	wait := true
	_, err := r.points.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: r.collection,
		Wait:           &wait,
		Points:         points,
	})
	if err != nil {
		return 0, fmt.Errorf("upsert %d points: %w", len(points), err)
	}
	return len(points), nil
}

// BuildIndexes is a no-op. Qdrant maintains its HNSW graph and payload
// indexes on write.
func (r *Repository) BuildIndexes(ctx context.Context) error {
	return r.checkOpen()
}

// Count returns the exact number of points in the collection.
func (r *Repository) Count(ctx context.Context) (int, error) {
	if err := r.checkOpen(); err != nil {
		return 0, err
	}
	exact := true
	resp, err := r.points.Count(ctx, &pb.CountPoints{
		CollectionName: r.collection,
		Exact:          &exact,
	})
	if err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return int(resp.GetResult().GetCount()), nil
}

// FullTextSearch filters points whose to_vectorize text contains every query
// token and orders them by points descending.
func (r *Repository) FullTextSearch(ctx context.Context, q storage.TextQuery) ([]core.SearchResult, error) {
	q = q.Normalize()
	if err := r.checkOpen(); err != nil {
		return nil, err
	}

	limit := uint32(q.Limit)
	desc := pb.Direction_Desc
	resp, err := r.points.Scroll(ctx, &pb.ScrollPoints{
		CollectionName: r.collection,
		Filter: &pb.Filter{
			Must: []*pb.Condition{textMatch(keyToVectorize, strings.ToLower(strings.TrimSpace(q.Terms)))},
		},
		Limit:       &limit,
		OrderBy:     &pb.OrderBy{Key: keyPoints, Direction: &desc},
		WithPayload: &pb.WithPayloadSelector{SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true}},
	})
	if err != nil {
		return nil, fmt.Errorf("scroll: %w", err)
	}

	results := make([]core.SearchResult, 0, len(resp.GetResult()))
	for _, p := range resp.GetResult() {
		results = append(results, fromPayload(p.GetId().GetNum(), p.GetPayload(), 0))
	}
	return results, nil
}

// VectorSearch runs an HNSW search. Probes is passed as hnsw_ef.
func (r *Repository) VectorSearch(ctx context.Context, q storage.VectorQuery) ([]core.SearchResult, error) {
	q = q.Normalize()
	if err := core.ValidateVector(q.Vector); err != nil {
		return nil, fmt.Errorf("%w: %w", storage.ErrDimensionMismatch, err)
	}
	if err := r.checkOpen(); err != nil {
		return nil, err
	}

	ef := uint64(max(q.Probes, q.Limit))
	resp, err := r.points.Search(ctx, &pb.SearchPoints{
		CollectionName: r.collection,
		Vector:         q.Vector,
		Limit:          uint64(q.Limit),
		Params:         &pb.SearchParams{HnswEf: &ef},
		WithPayload:    &pb.WithPayloadSelector{SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true}},
	})
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	results := make([]core.SearchResult, 0, len(resp.GetResult()))
	for _, p := range resp.GetResult() {
		results = append(results, fromPayload(p.GetId().GetNum(), p.GetPayload(), p.GetScore()))
	}
	return results, nil
}
