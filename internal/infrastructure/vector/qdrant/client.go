package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/acrobyte007/Sustainability/internal/core/domain"
	"github.com/acrobyte007/Sustainability/internal/infrastructure/resilience"
)

const upsertBatchSize = 128

// Client is the SimilarityIndex backed by one Qdrant collection. Namespaces
// and documents are payload fields; every query filters on both.
type Client struct {
	baseURL    string
	collection string
	apiKey     string
	httpClient *http.Client
	executor   *resilience.Executor
	logger     *slog.Logger

	ensureMu          sync.Mutex
	ensuredCollection bool
	ensuredVectorSize int
}

type Option func(*Client)

func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = strings.TrimSpace(key) }
}

func WithExecutor(executor *resilience.Executor) Option {
	return func(c *Client) { c.executor = executor }
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) { c.httpClient = httpClient }
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

func New(baseURL, collection string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		collection: collection,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type point struct {
	ID      string         `json:"id"`
	Vector  []float32      `json:"vector"`
	Payload map[string]any `json:"payload"`
}

// PointID derives a stable point id so re-uploading a document overwrites
// its previous vectors.
func PointID(namespace, chunkID string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(namespace+"/"+chunkID)).String()
}

func (c *Client) Upsert(ctx context.Context, namespace string, records []domain.VectorRecord) error {
	if len(records) == 0 {
		return nil
	}
	if err := c.ensureCollection(ctx, len(records[0].Vector)); err != nil {
		return err
	}

	for start := 0; start < len(records); start += upsertBatchSize {
		batch := records[start:min(start+upsertBatchSize, len(records))]
		points := make([]point, 0, len(batch))
		for _, r := range batch {
			chunkID := r.Chunk.ID()
			points = append(points, point{
				ID:     PointID(namespace, chunkID),
				Vector: r.Vector,
				Payload: map[string]any{
					"namespace":   namespace,
					"chunk_id":    chunkID,
					"document_id": r.Chunk.DocumentID,
					"page":        r.Chunk.Page,
					"chunk_index": r.Chunk.ChunkIndex,
					"chunk_text":  r.Chunk.Text,
				},
			})
		}

		path := fmt.Sprintf("/collections/%s/points?wait=true", c.collection)
		err := c.executor.Execute(ctx, "qdrant.upsert", func(callCtx context.Context) error {
			return c.do(callCtx, http.MethodPut, path, map[string]any{"points": points}, nil, "upsert")
		}, resilience.ClassifyRemote)
		if err != nil {
			return resilience.WrapTemporary("qdrant upsert", err)
		}
	}
	return nil
}

// Query returns the nearest chunks of one document. Qdrant reports cosine
// similarity; Match.Score carries the distance 1 - similarity.
func (c *Client) Query(ctx context.Context, namespace string, vector []float32, topK int, documentID string) ([]domain.Match, error) {
	reqBody := map[string]any{
		"vector":       vector,
		"limit":        topK,
		"with_payload": true,
		"filter":       scopeFilter(namespace, documentID),
	}

	var searchResp struct {
		Result []struct {
			ID      any            `json:"id"`
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	path := fmt.Sprintf("/collections/%s/points/search", c.collection)
	err := c.executor.Execute(ctx, "qdrant.search", func(callCtx context.Context) error {
		return c.do(callCtx, http.MethodPost, path, reqBody, &searchResp, "search")
	}, resilience.ClassifyRemote)
	if err != nil {
		return nil, resilience.WrapTemporary("qdrant search", err)
	}

	out := make([]domain.Match, 0, len(searchResp.Result))
	for _, r := range searchResp.Result {
		m := domain.Match{
			ID:         getStringPayload(r.Payload, "chunk_id"),
			Score:      1 - r.Score,
			DocumentID: getStringPayload(r.Payload, "document_id"),
			Page:       getIntPayload(r.Payload, "page"),
			ChunkIndex: getIntPayload(r.Payload, "chunk_index"),
			Text:       getStringPayload(r.Payload, "chunk_text"),
		}
		if m.ID == "" {
			m.ID = domain.ChunkID(m.DocumentID, m.Page, m.ChunkIndex)
		}
		out = append(out, m)
	}
	return out, nil
}

func (c *Client) DeleteDocument(ctx context.Context, namespace, documentID string) error {
	path := fmt.Sprintf("/collections/%s/points/delete?wait=true", c.collection)
	body := map[string]any{"filter": scopeFilter(namespace, documentID)}
	err := c.executor.Execute(ctx, "qdrant.delete", func(callCtx context.Context) error {
		return c.do(callCtx, http.MethodPost, path, body, nil, "delete")
	}, resilience.ClassifyRemote)
	if err != nil {
		return resilience.WrapTemporary("qdrant delete", err)
	}
	c.logger.Info("document_vectors_deleted", "namespace", namespace, "document_id", documentID)
	return nil
}

func scopeFilter(namespace, documentID string) map[string]any {
	must := []map[string]any{
		{"key": "namespace", "match": map[string]any{"value": namespace}},
	}
	if documentID != "" {
		must = append(must, map[string]any{"key": "document_id", "match": map[string]any{"value": documentID}})
	}
	return map[string]any{"must": must}
}

func (c *Client) ensureCollection(ctx context.Context, vectorSize int) error {
	c.ensureMu.Lock()
	defer c.ensureMu.Unlock()
	if c.ensuredCollection && c.ensuredVectorSize == vectorSize {
		return nil
	}

	reqBody := map[string]any{
		"vectors": map[string]any{
			"size":     vectorSize,
			"distance": "Cosine",
		},
	}
	path := fmt.Sprintf("/collections/%s", c.collection)
	err := c.do(ctx, http.MethodPut, path, reqBody, nil, "ensure collection")

	var statusErr *resilience.StatusError
	// 409 when the collection already exists.
	if err != nil && !(errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusConflict) {
		return err
	}
	c.ensuredCollection = true
	c.ensuredVectorSize = vectorSize
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, payload, out any, operation string) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s body: %w", operation, err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("create %s request: %w", operation, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("api-key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant %s request: %w", operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return resilience.NewStatusError("qdrant", operation, resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", operation, err)
	}
	return nil
}

func getStringPayload(payload map[string]any, key string) string {
	v, ok := payload[key]
	if !ok || v == nil {
		return ""
	}
	s, ok := v.(string)
	if ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

func getIntPayload(payload map[string]any, key string) int {
	switch v := payload[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case json.Number:
		n, _ := v.Int64()
		return int(n)
	default:
		return 0
	}
}
