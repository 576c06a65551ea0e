package validator

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Fetcher retrieves schemas and the store index from the upstream
// dataset API. Implemented over HTTP in production and faked in tests.
type Fetcher interface {
	FetchSchema(ctx context.Context, name string) (any, error)
	FetchStoreIndex(ctx context.Context) ([]string, error)
}

// APIClient fetches from the dataset's public API.
type APIClient struct {
	baseURL string
	client  *http.Client
}

// NewAPIClient creates a client for the given API base URL, e.g.
// "https://filamentdb.example.com".
func NewAPIClient(baseURL string, timeout time.Duration) *APIClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &APIClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// FetchSchema retrieves one named JSON Schema document.
func (c *APIClient) FetchSchema(ctx context.Context, name string) (any, error) {
	url := fmt.Sprintf("%s/api/v1/schemas/%s_schema.json", c.baseURL, name)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build schema request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch schema %s: %w", name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch schema %s: unexpected status %d", name, resp.StatusCode)
	}

	// jsonschema.UnmarshalJSON keeps number fidelity the compiler expects.
	doc, err := jsonschema.UnmarshalJSON(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("decode schema %s: %w", name, err)
	}
	return doc, nil
}

// FetchStoreIndex retrieves the known store IDs. The endpoint has
// shipped in two shapes over time: {"stores": [...]} and a bare array;
// both are accepted.
func (c *APIClient) FetchStoreIndex(ctx context.Context) ([]string, error) {
	url := c.baseURL + "/api/v1/stores/index.json"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build store index request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch store index: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch store index: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read store index: %w", err)
	}
	return parseStoreIndex(body)
}

func parseStoreIndex(body []byte) ([]string, error) {
	var wrapped struct {
		Stores []struct {
			ID string `json:"id"`
		} `json:"stores"`
	}
	if err := json.Unmarshal(body, &wrapped); err == nil && wrapped.Stores != nil {
		ids := make([]string, 0, len(wrapped.Stores))
		for _, s := range wrapped.Stores {
			if s.ID != "" {
				ids = append(ids, s.ID)
			}
		}
		return ids, nil
	}

	var bare []struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &bare); err != nil {
		return nil, fmt.Errorf("decode store index: %w", err)
	}
	ids := make([]string, 0, len(bare))
	for _, s := range bare {
		if s.ID != "" {
			ids = append(ids, s.ID)
		}
	}
	return ids, nil
}
