package store

import (
	"context"
	"encoding/json/v2"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/taskboxapp/taskbox-server/internal/domain"
)

const listPrefix = "list:"

// ErrListNotFound is returned when a list cannot be found or is owned by
// someone else. The two cases are deliberately indistinguishable so callers
// can't probe for other users' list IDs.
var ErrListNotFound = errors.New("list not found")

// CreateList creates a list and appends its ID to the owner's list set.
// Both writes happen in a single transaction so the dual-sided reference
// can never be half-applied.
func (s *Store) CreateList(_ context.Context, list *domain.List) error {
	listKey := buildKey(listPrefix, list.ID)
	defer releaseKey(listKey)
	userKey := buildKey(userPrefix, list.OwnerID)
	defer releaseKey(userKey)

	err := s.db.Update(func(txn *badger.Txn) error {
		var owner domain.User
		if err := getJSON(txn, userKey, &owner); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrUserNotFound
			}
			return fmt.Errorf("load owner: %w", err)
		}
		if owner.IsDeleted() {
			return ErrUserNotFound
		}

		if _, err := txn.Get(listKey); err == nil {
			return ErrAlreadyExists
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("check list exists: %w", err)
		}

		owner.Lists = append(owner.Lists, list.ID)
		owner.Touch()

		if err := setJSON(txn, listKey, list); err != nil {
			return err
		}
		return setJSON(txn, userKey, &owner)
	})
	if err != nil {
		return err
	}

	s.indexList(list)
	return nil
}

// GetList retrieves a list scoped to its owner.
// Returns ErrListNotFound for missing, deleted, or foreign lists alike.
func (s *Store) GetList(_ context.Context, ownerID, listID string) (*domain.List, error) {
	key := buildKey(listPrefix, listID)
	defer releaseKey(key)

	var list domain.List
	if err := s.get(key, &list); err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrListNotFound
		}
		return nil, fmt.Errorf("get list: %w", err)
	}

	if list.IsDeleted() || list.OwnerID != ownerID {
		return nil, ErrListNotFound
	}

	return &list, nil
}

// ListLists returns all lists owned by the given user.
// Ownership is part of the scan predicate, not a post-filter in callers.
func (s *Store) ListLists(_ context.Context, ownerID string) ([]*domain.List, error) {
	prefix := []byte(listPrefix)
	var lists []*domain.List

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var list domain.List
				if unmarshalErr := json.Unmarshal(val, &list); unmarshalErr != nil {
					// Skip malformed entries
					return nil //nolint:nilerr // intentionally skip malformed entries
				}
				if list.IsDeleted() || list.OwnerID != ownerID {
					return nil
				}
				lists = append(lists, &list)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list lists: %w", err)
	}

	return lists, nil
}

// ListAllLists returns every live list regardless of owner.
// Used by full reindex; API reads go through ListLists.
func (s *Store) ListAllLists(_ context.Context) ([]*domain.List, error) {
	prefix := []byte(listPrefix)
	var lists []*domain.List

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var list domain.List
				if unmarshalErr := json.Unmarshal(val, &list); unmarshalErr != nil {
					return nil //nolint:nilerr // intentionally skip malformed entries
				}
				if list.IsDeleted() {
					return nil
				}
				lists = append(lists, &list)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list all lists: %w", err)
	}

	return lists, nil
}

// UpdateList persists changes to a list. The caller is expected to have
// loaded the list through GetList so ownership has already been checked.
func (s *Store) UpdateList(_ context.Context, list *domain.List) error {
	key := buildKey(listPrefix, list.ID)
	defer releaseKey(key)

	exists, err := s.exists(key)
	if err != nil {
		return fmt.Errorf("check list exists: %w", err)
	}
	if !exists {
		return ErrListNotFound
	}

	list.Touch()
	if err := s.set(key, list); err != nil {
		return fmt.Errorf("update list: %w", err)
	}

	s.indexList(list)
	return nil
}

// deleteListRecord removes the list and detaches it from the owner's list
// set in one transaction. Tasks are not touched here; cascade rules delete
// them first.
func (s *Store) deleteListRecord(_ context.Context, listID string) error {
	listKey := buildKey(listPrefix, listID)
	defer releaseKey(listKey)

	err := s.db.Update(func(txn *badger.Txn) error {
		var list domain.List
		if err := getJSON(txn, listKey, &list); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil // Already gone
			}
			return fmt.Errorf("load list for deletion: %w", err)
		}

		// Plain key here: pooled buffers can't be released safely before
		// the transaction commits.
		userKey := []byte(userPrefix + list.OwnerID)

		var owner domain.User
		err := getJSON(txn, userKey, &owner)
		switch {
		case errors.Is(err, badger.ErrKeyNotFound):
			// Owner already deleted (user cascade); nothing to detach.
		case err != nil:
			return fmt.Errorf("load owner: %w", err)
		default:
			if removeID(&owner.Lists, listID) {
				owner.Touch()
				if err := setJSON(txn, userKey, &owner); err != nil {
					return err
				}
			}
		}

		return txn.Delete(listKey)
	})
	if err != nil {
		return err
	}

	s.unindexList(listID)
	return nil
}

// removeID removes the first occurrence of id from ids.
// Returns true if the ID was present.
func removeID(ids *[]string, id string) bool {
	for i, v := range *ids {
		if v == id {
			*ids = append((*ids)[:i], (*ids)[i+1:]...)
			return true
		}
	}
	return false
}

// indexList pushes a list into the search index, best effort.
func (s *Store) indexList(list *domain.List) {
	if s.searchIndexer == nil {
		return
	}
	if err := s.searchIndexer.IndexList(context.Background(), list); err != nil && s.logger != nil {
		s.logger.Warn("failed to index list", "list_id", list.ID, "error", err)
	}
}

// unindexList removes a list from the search index, best effort.
func (s *Store) unindexList(listID string) {
	if s.searchIndexer == nil {
		return
	}
	if err := s.searchIndexer.DeleteList(context.Background(), listID); err != nil && s.logger != nil {
		s.logger.Warn("failed to unindex list", "list_id", listID, "error", err)
	}
}
