package domain

import "time"

type SearchResult struct {
	Title     string    `json:"title"`
	URL       string    `json:"url"`
	Snippet   string    `json:"snippet,omitempty"`
	Source    string    `json:"source"`
	Score     float64   `json:"score"`
	Timestamp time.Time `json:"timestamp"`
}
