// Package main provides a read-only inspection tool for the Taskbox database.
//
// Usage:
//
//	DB_PATH=~/taskbox/db go run ./cmd/dbinspect
package main

import (
	"encoding/json/v2"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/taskboxapp/taskbox-server/internal/domain"
)

func main() {
	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = os.ExpandEnv("$HOME/taskbox/db")
	}

	opts := badger.DefaultOptions(dbPath).
		WithReadOnly(true).
		WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	fmt.Println("=== Database Inspection ===")
	fmt.Println()

	fmt.Printf("Users:    %d\n", countEntities[domain.User](db, "user:"))

	liveLists, deletedLists, listTaskRefs := countLists(db)
	fmt.Printf("Lists:    %d live, %d soft-deleted\n", liveLists, deletedLists)

	liveTasks, deletedTasks, orphanTasks, taskLists := countTasks(db)
	fmt.Printf("Tasks:    %d live, %d soft-deleted\n", liveTasks, deletedTasks)

	liveSubtasks, deletedSubtasks := countPrefix[domain.Subtask](db, "subtask:")
	fmt.Printf("Subtasks: %d live, %d soft-deleted\n", liveSubtasks, deletedSubtasks)

	fmt.Printf("Sessions: %d\n", countEntities[domain.Session](db, "session:"))
	fmt.Println()

	// Reference consistency: every live task's list must reference it back,
	// and every list's task reference must point at a live task.
	fmt.Println("=== Reference Checks ===")
	fmt.Printf("Task -> list references without a live list: %d\n", orphanTasks)

	danglingRefs := 0
	for listID, refs := range listTaskRefs {
		for _, taskID := range refs {
			if _, ok := taskLists[taskID]; !ok {
				danglingRefs++
				if danglingRefs <= 5 {
					fmt.Printf("  list %s references missing task %s\n", listID, taskID)
				}
			}
		}
	}
	fmt.Printf("List -> task references without a live task: %d\n", danglingRefs)
}

// countEntities counts records under a prefix, skipping index keys.
func countEntities[T any](db *badger.DB, prefix string) int {
	live, deleted := countPrefix[T](db, prefix)
	return live + deleted
}

func countPrefix[T any](db *badger.DB, prefix string) (live, deleted int) {
	type softDeletable interface {
		IsDeleted() bool
	}

	err := db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek([]byte(prefix)); it.ValidForPrefix([]byte(prefix)); it.Next() {
			key := string(it.Item().Key())
			if strings.HasPrefix(key, prefix+"idx:") {
				continue
			}

			err := it.Item().Value(func(val []byte) error {
				var entity T
				if err := json.Unmarshal(val, &entity); err != nil {
					return nil
				}
				if sd, ok := any(&entity).(softDeletable); ok && sd.IsDeleted() {
					deleted++
				} else {
					live++
				}
				return nil
			})
			if err != nil {
				log.Printf("Error reading %s: %v", key, err)
			}
		}
		return nil
	})
	if err != nil {
		log.Fatalf("Error iterating database: %v", err)
	}

	return live, deleted
}

func countLists(db *badger.DB) (live, deleted int, taskRefs map[string][]string) {
	taskRefs = make(map[string][]string)

	err := db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte("list:")
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek([]byte("list:")); it.ValidForPrefix([]byte("list:")); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var list domain.List
				if err := json.Unmarshal(val, &list); err != nil {
					return nil
				}
				if list.IsDeleted() {
					deleted++
					return nil
				}
				live++
				taskRefs[list.ID] = list.Tasks
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Fatalf("Error iterating lists: %v", err)
	}

	return live, deleted, taskRefs
}

func countTasks(db *badger.DB) (live, deleted, orphans int, taskLists map[string]string) {
	taskLists = make(map[string]string)

	// First pass collects live list IDs for the orphan check.
	liveListIDs := make(map[string]bool)
	_, _, listRefs := countLists(db)
	for listID := range listRefs {
		liveListIDs[listID] = true
	}

	err := db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte("task:")
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek([]byte("task:")); it.ValidForPrefix([]byte("task:")); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var task domain.Task
				if err := json.Unmarshal(val, &task); err != nil {
					return nil
				}
				if task.IsDeleted() {
					deleted++
					return nil
				}
				live++
				taskLists[task.ID] = task.ListID
				// A task with no list hangs directly off its owner.
				if task.ListID != "" && !liveListIDs[task.ListID] {
					orphans++
					if orphans <= 5 {
						fmt.Printf("  orphan task %s (%q) references list %s\n",
							task.ID, task.Title, task.ListID)
					}
				}
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Fatalf("Error iterating tasks: %v", err)
	}

	return live, deleted, orphans, taskLists
}
