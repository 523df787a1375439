package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/taskboxapp/taskbox-server/internal/search"
)

func (s *Server) registerSearchRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "search",
		Method:      http.MethodGet,
		Path:        "/search",
		Summary:     "Search tasks and lists",
		Description: "Full-text search across the current user's tasks and lists",
		Tags:        []string{"Search"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleSearch)
}

// === DTOs ===

// SearchInput contains parameters for searching tasks and lists.
type SearchInput struct {
	Authorization string `header:"Authorization" doc:"Bearer token"`
	Token         string `cookie:"token" doc:"Access token cookie"`
	Query         string `query:"q" doc:"Search query. Empty matches everything the user owns."`
	Types         string `query:"types" doc:"Comma-separated types to search (task,list). Omit for all."`
	ListID        string `query:"list_id" doc:"Restrict task results to one list"`
	Completed     string `query:"completed" doc:"Filter by completion: true or false. Omit for both."`
	DueAfter      int64  `query:"due_after" doc:"Minimum due date in unix millis"`
	DueBefore     int64  `query:"due_before" doc:"Maximum due date in unix millis"`
	Limit         int    `query:"limit" doc:"Max results (default 20, cap 100)"`
	Offset        int    `query:"offset" doc:"Pagination offset"`
	Sort          string `query:"sort" doc:"Sort order: relevance, name, recent, or due"`
	Order         string `query:"order" doc:"Sort direction: asc or desc"`
	Facets        bool   `query:"facets" doc:"Include facet counts in the response"`
}

// SearchHitResult contains a single search result (task or list).
type SearchHitResult struct {
	ID         string            `json:"id" doc:"Entity ID"`
	Type       string            `json:"type" doc:"Type: task or list"`
	Score      float64           `json:"score" doc:"Search relevance score"`
	Name       string            `json:"name" doc:"Display title"`
	ListID     string            `json:"list_id,omitempty" doc:"Parent list ID (for tasks)"`
	Completed  bool              `json:"completed" doc:"Completion state (for tasks)"`
	DueAt      int64             `json:"due_at,omitempty" doc:"Due date in unix millis (for tasks)"`
	Highlights map[string]string `json:"highlights,omitempty" doc:"Highlighted matches"`
}

// SearchFacetsResult contains facet counts for filtering.
type SearchFacetsResult struct {
	Types     []FacetCount `json:"types,omitempty" doc:"Type facets"`
	Completed []FacetCount `json:"completed,omitempty" doc:"Completion facets"`
}

// FacetCount represents a facet value and its count.
type FacetCount struct {
	Value string `json:"value" doc:"Facet value"`
	Count int    `json:"count" doc:"Number of matches"`
}

// SearchResponse contains search results.
type SearchResponse struct {
	Query  string              `json:"query" doc:"Original search query"`
	Total  int64               `json:"total" doc:"Total matches"`
	TookMs int64               `json:"took_ms" doc:"Search duration in milliseconds"`
	Hits   []SearchHitResult   `json:"hits" doc:"Search results"`
	Facets *SearchFacetsResult `json:"facets,omitempty" doc:"Facet counts for filtering"`
}

// SearchOutput wraps the search response for Huma.
type SearchOutput struct {
	Body SearchResponse
}

// === Handlers ===

func (s *Server) handleSearch(ctx context.Context, input *SearchInput) (*SearchOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization, input.Token)
	if err != nil {
		return nil, err
	}

	params := search.DefaultSearchParams()
	params.Query = input.Query
	params.ListID = input.ListID
	params.DueAfter = input.DueAfter
	params.DueBefore = input.DueBefore
	params.Offset = input.Offset
	params.IncludeFacets = input.Facets

	if input.Limit > 0 {
		params.Limit = min(input.Limit, 100)
	}
	if input.Sort != "" {
		params.SortBy = input.Sort
	}
	if input.Order != "" {
		params.SortOrder = input.Order
	}

	for t := range strings.SplitSeq(input.Types, ",") {
		switch strings.TrimSpace(t) {
		case "task":
			params.Types = append(params.Types, string(search.DocTypeTask))
		case "list":
			params.Types = append(params.Types, string(search.DocTypeList))
		}
	}

	switch input.Completed {
	case "true":
		completed := true
		params.Completed = &completed
	case "false":
		completed := false
		params.Completed = &completed
	}

	result, err := s.services.Search.Search(ctx, userID, params)
	if err != nil {
		s.logger.Error("Search failed", "error", err, "query", input.Query)
		return nil, err
	}

	resp := SearchResponse{
		Query:  input.Query,
		Total:  int64(result.Total), //nolint:gosec // total count won't exceed int64
		TookMs: result.TookMs,
		Hits:   make([]SearchHitResult, 0, len(result.Hits)),
	}

	for i := range result.Hits {
		hit := &result.Hits[i]
		resp.Hits = append(resp.Hits, SearchHitResult{
			ID:         hit.ID,
			Type:       string(hit.Type),
			Score:      hit.Score,
			Name:       hit.Name,
			ListID:     hit.ListID,
			Completed:  hit.Completed,
			DueAt:      hit.DueAt,
			Highlights: hit.Highlights,
		})
	}

	if input.Facets {
		facets := SearchFacetsResult{}
		for _, f := range result.Facets.Types {
			facets.Types = append(facets.Types, FacetCount{Value: f.Value, Count: f.Count})
		}
		for _, f := range result.Facets.Completed {
			facets.Completed = append(facets.Completed, FacetCount{Value: f.Value, Count: f.Count})
		}
		resp.Facets = &facets
	}

	return &SearchOutput{Body: resp}, nil
}
