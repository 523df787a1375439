// Package search provides full-text search over tasks and lists using Bleve,
// with fuzzy matching, faceted filtering, and strict per-owner scoping.
package search

import (
	"github.com/taskboxapp/taskbox-server/internal/domain"
)

// DocType represents the type of document in the unified index.
type DocType string

// Document types for the search index.
const (
	DocTypeTask DocType = "task"
	DocTypeList DocType = "list"
)

// SearchDocument is the unified document structure for the Bleve index.
// Tasks and lists are indexed as SearchDocuments with type discrimination.
//
// Owner is indexed as an exact keyword and every query conjoins a term
// filter on it, so results can never leak across accounts.
type SearchDocument struct {
	// Identity
	ID   string  `json:"id"`   // Original entity ID (task-xxx, list-xxx)
	Type DocType `json:"type"` // Discriminator for result grouping

	// Primary searchable text: task title or list title.
	Name string `json:"name"`

	// Task-specific fields (empty for lists)
	Description string `json:"description,omitempty"`
	ListID      string `json:"list_id,omitempty"`
	Completed   bool   `json:"completed"`

	// Scoping
	Owner string `json:"owner"`

	// Numeric fields for range queries and sorting
	DueAt int64 `json:"due_at,omitempty"` // Unix millis (tasks only)

	// Timestamps for sorting
	CreatedAt int64 `json:"created_at"` // Unix millis
	UpdatedAt int64 `json:"updated_at"` // Unix millis
}

// ToMap converts the document to a map with lowercase field names.
// Bleve by default uses Go struct field names (capitalized), but our
// mapping uses lowercase names, so we convert explicitly.
func (d *SearchDocument) ToMap() map[string]interface{} {
	m := map[string]interface{}{
		"id":         d.ID,
		"type":       string(d.Type),
		"name":       d.Name,
		"owner":      d.Owner,
		"completed":  d.Completed,
		"created_at": d.CreatedAt,
		"updated_at": d.UpdatedAt,
	}

	// Optional fields - only add if non-empty
	if d.Description != "" {
		m["description"] = d.Description
	}
	if d.ListID != "" {
		m["list_id"] = d.ListID
	}
	if d.DueAt > 0 {
		m["due_at"] = d.DueAt
	}

	return m
}

// TaskToSearchDocument converts a domain Task to a SearchDocument.
func TaskToSearchDocument(task *domain.Task) *SearchDocument {
	doc := &SearchDocument{
		ID:          task.ID,
		Type:        DocTypeTask,
		Name:        task.Title,
		Description: task.Description,
		ListID:      task.ListID,
		Completed:   task.IsCompleted,
		Owner:       task.OwnerID,
		CreatedAt:   task.CreatedAt.UnixMilli(),
		UpdatedAt:   task.UpdatedAt.UnixMilli(),
	}

	if task.DueAt != nil {
		doc.DueAt = task.DueAt.UnixMilli()
	}

	return doc
}

// ListToSearchDocument converts a domain List to a SearchDocument.
func ListToSearchDocument(list *domain.List) *SearchDocument {
	return &SearchDocument{
		ID:        list.ID,
		Type:      DocTypeList,
		Name:      list.Title,
		Owner:     list.OwnerID,
		CreatedAt: list.CreatedAt.UnixMilli(),
		UpdatedAt: list.UpdatedAt.UnixMilli(),
	}
}
