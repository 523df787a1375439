package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/taskboxapp/taskbox-server/internal/domain"
	"github.com/taskboxapp/taskbox-server/internal/search"
	"github.com/taskboxapp/taskbox-server/internal/store"
)

// SearchService bridges the search index with the data store. It implements
// store.SearchIndexer so the store keeps the index current on every write,
// and exposes owner-scoped queries to the handlers.
type SearchService struct {
	index  *search.SearchIndex
	store  *store.Store
	logger *slog.Logger
}

// NewSearchService creates a new search service.
func NewSearchService(index *search.SearchIndex, store *store.Store, logger *slog.Logger) *SearchService {
	return &SearchService{
		index:  index,
		store:  store,
		logger: logger,
	}
}

// Search executes a query scoped to the given owner.
// The owner comes from the authenticated request, never from user input.
func (s *SearchService) Search(ctx context.Context, ownerID string, params search.SearchParams) (*search.SearchResult, error) {
	params.Owner = ownerID
	return s.index.Search(ctx, params)
}

// IndexTask indexes a single task. Called by the store on task writes.
func (s *SearchService) IndexTask(_ context.Context, task *domain.Task) error {
	if err := s.index.IndexDocument(search.TaskToSearchDocument(task)); err != nil {
		return fmt.Errorf("index task: %w", err)
	}
	if s.logger != nil {
		s.logger.Debug("indexed task", "id", task.ID, "title", task.Title)
	}
	return nil
}

// DeleteTask removes a task from the index.
func (s *SearchService) DeleteTask(_ context.Context, taskID string) error {
	return s.index.DeleteDocument(taskID)
}

// IndexList indexes a single list. Called by the store on list writes.
func (s *SearchService) IndexList(_ context.Context, list *domain.List) error {
	if err := s.index.IndexDocument(search.ListToSearchDocument(list)); err != nil {
		return fmt.Errorf("index list: %w", err)
	}
	if s.logger != nil {
		s.logger.Debug("indexed list", "id", list.ID, "title", list.Title)
	}
	return nil
}

// DeleteList removes a list from the index.
func (s *SearchService) DeleteList(_ context.Context, listID string) error {
	return s.index.DeleteDocument(listID)
}

// DocumentCount returns the number of indexed documents.
func (s *SearchService) DocumentCount() (uint64, error) {
	return s.index.DocumentCount()
}

// ReindexAll rebuilds the entire search index from the store.
// This is a heavy operation - use sparingly.
func (s *SearchService) ReindexAll(ctx context.Context) error {
	if s.logger != nil {
		s.logger.Info("starting full reindex")
	}

	// Rebuild index (drops existing)
	if err := s.index.Rebuild(); err != nil {
		return fmt.Errorf("rebuild index: %w", err)
	}

	tasks, err := s.store.ListAllTasks(ctx)
	if err != nil {
		return fmt.Errorf("list tasks: %w", err)
	}

	taskDocs := make([]*search.SearchDocument, 0, len(tasks))
	for _, task := range tasks {
		taskDocs = append(taskDocs, search.TaskToSearchDocument(task))
	}

	if len(taskDocs) > 0 {
		if err := s.index.IndexDocuments(taskDocs); err != nil {
			return fmt.Errorf("index tasks: %w", err)
		}
	}

	lists, err := s.store.ListAllLists(ctx)
	if err != nil {
		return fmt.Errorf("list lists: %w", err)
	}

	listDocs := make([]*search.SearchDocument, 0, len(lists))
	for _, list := range lists {
		listDocs = append(listDocs, search.ListToSearchDocument(list))
	}

	if len(listDocs) > 0 {
		if err := s.index.IndexDocuments(listDocs); err != nil {
			return fmt.Errorf("index lists: %w", err)
		}
	}

	if s.logger != nil {
		total, _ := s.index.DocumentCount()
		s.logger.Info("full reindex complete",
			"tasks", len(taskDocs),
			"lists", len(listDocs),
			"total_documents", total,
		)
	}

	return nil
}
