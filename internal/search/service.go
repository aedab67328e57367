package search

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"go.uber.org/zap"

	"chat-llm/internal/domain"
	"chat-llm/internal/metrics"
)

// Service combina la fuente externa con limpieza, scoring, dedupe y caché.
type Service struct {
	client     Client
	cache      ResultCache
	maxResults int
	logger     *zap.Logger
}

func NewService(client Client, cache ResultCache, maxResults int, logger *zap.Logger) *Service {
	if maxResults <= 0 {
		maxResults = 5
	}
	return &Service{
		client:     client,
		cache:      cache,
		maxResults: maxResults,
		logger:     logger,
	}
}

// Search devuelve resultados procesados para la consulta, sirviendo desde
// caché dentro de la ventana configurada.
func (s *Service) Search(ctx context.Context, query string) ([]domain.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	key := cacheKey(query, s.maxResults)
	if s.cache != nil {
		if cached, ok := s.cache.Get(ctx, key); ok {
			metrics.SearchCacheHits.Inc()
			return cached, nil
		}
	}

	metrics.SearchQueries.Inc()
	raw, err := s.client.Search(ctx, query, s.maxResults*2)
	if err != nil {
		return nil, fmt.Errorf("search source: %w", err)
	}

	processed := s.process(raw)
	if len(processed) > s.maxResults {
		processed = processed[:s.maxResults]
	}

	if s.cache != nil {
		s.cache.Set(ctx, key, processed)
	}

	return processed, nil
}

var (
	htmlTagRe     = regexp.MustCompile(`<[^>]+>`)
	specialCharRe = regexp.MustCompile(`[^\p{L}\p{N}_\s.,!?-]`)
)

// process limpia, dedupe por URL, puntúa y ordena por relevancia descendente.
func (s *Service) process(results []domain.SearchResult) []domain.SearchResult {
	seen := make(map[string]struct{}, len(results))
	unique := make([]domain.SearchResult, 0, len(results))

	for _, r := range results {
		if r.URL == "" {
			continue
		}
		if _, ok := seen[r.URL]; ok {
			continue
		}
		seen[r.URL] = struct{}{}

		r.Title = cleanText(r.Title)
		r.Snippet = cleanText(r.Snippet)
		r.Score = relevance(r)
		unique = append(unique, r)
	}

	sort.SliceStable(unique, func(i, j int) bool {
		return unique[i].Score > unique[j].Score
	})

	return unique
}

func cleanText(text string) string {
	text = htmlTagRe.ReplaceAllString(text, "")
	text = strings.Join(strings.Fields(text), " ")
	text = specialCharRe.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// relevance puntúa un resultado: títulos y fragmentos de largo útil y
// dominios .edu/.gov/.org suman.
func relevance(r domain.SearchResult) float64 {
	score := 0.0

	if n := len(r.Title); n >= 20 && n <= 100 {
		score += 0.3
	}
	if n := len(r.Snippet); n >= 50 && n <= 300 {
		score += 0.3
	}

	lowered := strings.ToLower(r.URL)
	for _, domainHint := range []string{".edu", ".gov", ".org"} {
		if strings.Contains(lowered, domainHint) {
			score += 0.2
			break
		}
	}

	if r.Source == "DuckDuckGo" {
		score += 0.2
	}

	return score
}

func cacheKey(query string, maxResults int) string {
	return fmt.Sprintf("%s_%d", strings.ToLower(query), maxResults)
}
