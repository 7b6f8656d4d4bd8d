package semantic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Client implements ports.SemanticSearcher against the embedding
// sidecar's HTTP API. The sidecar owns the sentence embeddings and
// exposes one endpoint: POST /v1/similarities with a query and the
// candidate place IDs, returning a cosine similarity per ID.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a semantic search client.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

type similaritiesRequest struct {
	Query    string   `json:"query"`
	City     string   `json:"city"`
	PlaceIDs []string `json:"place_ids"`
}

type similaritiesResponse struct {
	Similarities map[string]float64 `json:"similarities"`
}

// Similarities returns query-to-place cosine similarities keyed by
// place ID. IDs the sidecar has no embedding for are absent from the
// result; callers treat missing entries as zero similarity.
func (c *Client) Similarities(ctx context.Context, query, citySlug string, placeIDs []string) (map[string]float64, error) {
	body, err := json.Marshal(similaritiesRequest{
		Query:    query,
		City:     citySlug,
		PlaceIDs: placeIDs,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal similarities request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/similarities", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build similarities request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("semantic sidecar: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("semantic sidecar returned %d", resp.StatusCode)
	}

	var out similaritiesResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode similarities response: %w", err)
	}
	return out.Similarities, nil
}
