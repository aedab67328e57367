package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"chat-llm/internal/domain"
)

// Client define el contrato con una fuente de búsqueda externa.
type Client interface {
	Search(ctx context.Context, query string, maxResults int) ([]domain.SearchResult, error)
}

// DuckDuckGoClient consulta la Instant Answer API pública de DuckDuckGo.
type DuckDuckGoClient struct {
	baseURL string
	client  *http.Client
}

func NewDuckDuckGoClient(baseURL string, httpClient *http.Client) *DuckDuckGoClient {
	if baseURL == "" {
		baseURL = "https://api.duckduckgo.com"
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &DuckDuckGoClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  httpClient,
	}
}

func (c *DuckDuckGoClient) Search(ctx context.Context, query string, maxResults int) ([]domain.SearchResult, error) {
	endpoint := fmt.Sprintf("%s/?q=%s&format=json", c.baseURL, url.QueryEscape(query))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("duckduckgo http error: status=%d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var dr duckduckgoResponse
	if err := json.Unmarshal(body, &dr); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	now := time.Now().UTC()
	results := make([]domain.SearchResult, 0, maxResults)
	for _, topic := range dr.RelatedTopics {
		if len(results) >= maxResults {
			break
		}
		if topic.Text == "" {
			continue
		}
		// El campo Text trae "Título - fragmento".
		title, snippet := topic.Text, ""
		if idx := strings.Index(topic.Text, " - "); idx >= 0 {
			title = topic.Text[:idx]
			snippet = topic.Text[idx+3:]
		}
		results = append(results, domain.SearchResult{
			Title:     title,
			URL:       topic.FirstURL,
			Snippet:   snippet,
			Source:    "DuckDuckGo",
			Timestamp: now,
		})
	}

	return results, nil
}

type duckduckgoResponse struct {
	RelatedTopics []struct {
		Text     string `json:"Text"`
		FirstURL string `json:"FirstURL"`
	} `json:"RelatedTopics"`
}
