package memory

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
)

const payloadDocumentKey = "document"

// QdrantConfig holds connection settings for a Qdrant-backed similarity index.
type QdrantConfig struct {
	URL        string // e.g. "https://xyz.cloud.qdrant.io:6333" or "http://localhost:6333"
	APIKey     string
	Collection string
}

// QdrantIndex implements SimilarityIndex backed by Qdrant. Snippet documents
// are embedded locally and stored with their text in the point payload so
// queries can return the original strings.
type QdrantIndex struct {
	client     *qdrant.Client
	collection string
	embedder   Embedder
	logger     *slog.Logger
}

// parseQdrantURL extracts host, port, and TLS flag from a Qdrant URL.
func parseQdrantURL(rawURL string) (host string, port int, useTLS bool, err error) {
	u, parseErr := url.Parse(rawURL)
	if parseErr != nil || u.Host == "" {
		return "", 0, false, fmt.Errorf("memory: invalid qdrant URL: %q", rawURL)
	}

	useTLS = u.Scheme == "https"
	host = u.Hostname()

	if portStr := u.Port(); portStr != "" {
		p, err := strconv.Atoi(portStr)
		if err != nil {
			return "", 0, false, fmt.Errorf("memory: invalid port in qdrant URL: %q", portStr)
		}
		// If the user specified the REST port (6333), use the gRPC port (6334).
		if p == 6333 {
			port = 6334
		} else {
			port = p
		}
	} else {
		port = 6334
	}

	return host, port, useTLS, nil
}

// NewQdrantIndex connects to Qdrant over gRPC.
func NewQdrantIndex(cfg QdrantConfig, embedder Embedder, logger *slog.Logger) (*QdrantIndex, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if embedder == nil {
		embedder = NewFeatureHashEmbedder(0)
	}

	host, port, useTLS, err := parseQdrantURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   port,
		APIKey: cfg.APIKey,
		UseTLS: useTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("memory: connect to qdrant at %s:%d: %w", host, port, err)
	}

	return &QdrantIndex{
		client:     client,
		collection: cfg.Collection,
		embedder:   embedder,
		logger:     logger,
	}, nil
}

// EnsureCollection creates the snippet collection if it doesn't already exist.
func (q *QdrantIndex) EnsureCollection(ctx context.Context) error {
	exists, err := q.client.CollectionExists(ctx, q.collection)
	if err != nil {
		return fmt.Errorf("memory: check collection exists: %w", err)
	}
	if exists {
		q.logger.Info("qdrant: collection already exists", "collection", q.collection)
		return nil
	}

	if err := q.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: q.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     q.embedder.Dims(),
			Distance: qdrant.Distance_Cosine,
		}),
	}); err != nil {
		return fmt.Errorf("memory: create collection %q: %w", q.collection, err)
	}

	q.logger.Info("qdrant: created collection", "collection", q.collection, "dims", q.embedder.Dims())
	return nil
}

// Index implements [SimilarityIndex]. The snippet id is hashed into a stable
// UUID so re-indexing the same snippet upserts instead of duplicating.
func (q *QdrantIndex) Index(ctx context.Context, doc, id string, metadata map[string]string) error {
	payload := map[string]any{payloadDocumentKey: doc}
	for k, v := range metadata {
		payload[k] = v
	}

	pointID := uuid.NewSHA1(uuid.NameSpaceOID, []byte(id))
	_, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: q.collection,
		Wait:           qdrant.PtrOf(true),
		Points: []*qdrant.PointStruct{{
			Id:      qdrant.NewID(pointID.String()),
			Vectors: qdrant.NewVectorsDense(q.embedder.Embed(doc)),
			Payload: qdrant.NewValueMap(payload),
		}},
	})
	if err != nil {
		return fmt.Errorf("memory: qdrant upsert snippet %q: %w", id, err)
	}
	return nil
}

// Query implements [SimilarityIndex].
func (q *QdrantIndex) Query(ctx context.Context, text string, n int) ([]string, error) {
	if n <= 0 {
		n = 3
	}

	limit := uint64(n)
	scored, err := q.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: q.collection,
		Query:          qdrant.NewQueryDense(q.embedder.Embed(text)),
		Limit:          &limit,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("memory: qdrant query: %w", err)
	}

	docs := make([]string, 0, len(scored))
	for _, sp := range scored {
		if v, ok := sp.Payload[payloadDocumentKey]; ok {
			if doc := v.GetStringValue(); doc != "" {
				docs = append(docs, doc)
			}
		}
	}
	return docs, nil
}

// Close shuts down the Qdrant gRPC connection.
func (q *QdrantIndex) Close() error {
	return q.client.Close()
}
