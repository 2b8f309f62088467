package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

// Limits on a single search.
const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Result is the outcome of a catalog search.
type Result struct {
	Query  string `json:"query"`
	Total  uint64 `json:"total"`
	TookMs int64  `json:"took_ms"`
	Hits   []Hit  `json:"hits"`
}

// Hit is a single matching book.
type Hit struct {
	BookID     int64             `json:"book_id"`
	Title      string            `json:"title"`
	Author     string            `json:"author"`
	Score      float64           `json:"score"`
	Highlights map[string]string `json:"highlights,omitempty"`
}

// Search finds books whose title or author matches q. An empty query
// matches every book, newest first.
func (s *Index) Search(ctx context.Context, q string, limit int) (*Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	switch {
	case limit <= 0:
		limit = DefaultLimit
	case limit > MaxLimit:
		limit = MaxLimit
	}
	q = strings.TrimSpace(q)

	req := bleve.NewSearchRequestOptions(buildQuery(q), limit, 0, false)
	req.Fields = []string{"book_id", "title", "author"}
	if q == "" {
		req.SortBy([]string{"-created_at"})
	} else {
		req.SortBy([]string{"-_score", "-created_at"})
		req.Highlight = bleve.NewHighlight()
		req.Highlight.AddField("title")
		req.Highlight.AddField("author")
	}

	res, err := s.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	out := &Result{
		Query:  q,
		Total:  res.Total,
		TookMs: res.Took.Milliseconds(),
		Hits:   make([]Hit, 0, len(res.Hits)),
	}
	for _, h := range res.Hits {
		hit := Hit{Score: h.Score}
		if id, ok := h.Fields["book_id"].(float64); ok {
			hit.BookID = int64(id)
		} else if id, err := ParseDocID(h.ID); err == nil {
			hit.BookID = id
		}
		if t, ok := h.Fields["title"].(string); ok {
			hit.Title = t
		}
		if a, ok := h.Fields["author"].(string); ok {
			hit.Author = a
		}
		if len(h.Fragments) > 0 {
			hit.Highlights = make(map[string]string, len(h.Fragments))
			for field, fragments := range h.Fragments {
				if len(fragments) > 0 {
					hit.Highlights[field] = fragments[0]
				}
			}
		}
		out.Hits = append(out.Hits, hit)
	}
	return out, nil
}

// buildQuery matches titles strongest, then authors, with fuzzy and prefix
// fallbacks so typos and partial words still find something.
func buildQuery(q string) query.Query {
	if q == "" {
		return bleve.NewMatchAllQuery()
	}

	titleMatch := bleve.NewMatchQuery(q)
	titleMatch.SetField("title")
	titleMatch.SetBoost(3.0)

	authorMatch := bleve.NewMatchQuery(q)
	authorMatch.SetField("author")
	authorMatch.SetBoost(2.0)

	titleFuzzy := bleve.NewMatchQuery(q)
	titleFuzzy.SetField("title")
	titleFuzzy.SetFuzziness(1)
	titleFuzzy.SetBoost(0.8)

	queries := []query.Query{titleMatch, authorMatch, titleFuzzy}

	// Autocomplete on the last word being typed.
	words := strings.Fields(strings.ToLower(q))
	if last := words[len(words)-1]; len(last) >= 2 {
		for _, field := range []string{"title", "author"} {
			prefix := bleve.NewPrefixQuery(last)
			prefix.SetField(field)
			prefix.SetBoost(0.5)
			queries = append(queries, prefix)
		}
	}

	return bleve.NewDisjunctionQuery(queries...)
}
