// Package main provides a tool to seed the database with demo task data.
//
// This creates demo users (unless they exist already) and fills their
// accounts with lists, tasks, and subtasks for exercising the API,
// search, and client sync against realistic data.
//
// Usage:
//
//	DB_PATH=~/taskbox/db go run ./cmd/seed
//	DB_PATH=~/taskbox/db go run ./cmd/seed --users=3 --lists=5
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"time"

	"github.com/taskboxapp/taskbox-server/internal/auth"
	"github.com/taskboxapp/taskbox-server/internal/domain"
	"github.com/taskboxapp/taskbox-server/internal/id"
	"github.com/taskboxapp/taskbox-server/internal/service"
	"github.com/taskboxapp/taskbox-server/internal/store"
)

var (
	userCount  = flag.Int("users", 2, "Number of demo users to ensure")
	listCount  = flag.Int("lists", 4, "Lists per user")
	seedParams = flag.Int64("seed", 0, "Random seed (0 uses current time)")
)

var listTitles = []string{
	"Groceries", "Work", "Home projects", "Reading", "Errands",
	"Travel planning", "Fitness", "Birthday party",
}

var taskTitles = []string{
	"Buy milk and eggs", "Write project summary", "Fix the leaking tap",
	"Finish chapter three", "Pick up dry cleaning", "Book flights",
	"Morning run", "Order the cake", "Review pull requests",
	"Water the plants", "Call the dentist", "Renew car insurance",
}

var subtaskTitles = []string{
	"Make a shopping list", "Draft the outline", "Buy replacement washer",
	"Take notes", "Check opening hours", "Compare prices",
}

func main() {
	flag.Parse()

	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = os.ExpandEnv("$HOME/taskbox/db")
	}

	fmt.Printf("Opening database at: %s\n", dbPath)

	s, err := store.New(dbPath, nil)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer s.Close()

	ctx := context.Background()

	seed := *seedParams
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	listService := service.NewListService(s, nil)
	taskService := service.NewTaskService(s, nil)
	subtaskService := service.NewSubtaskService(s, nil)

	for u := range *userCount {
		email := fmt.Sprintf("demo%d@taskbox.local", u+1)
		user, err := ensureUser(ctx, s, email, fmt.Sprintf("Demo User %d", u+1))
		if err != nil {
			log.Fatalf("Failed to ensure user %s: %v", email, err)
		}

		fmt.Printf("\nSeeding data for user: %s (%s)\n", user.Name, user.ID)

		for l := range *listCount {
			title := listTitles[(u*(*listCount)+l)%len(listTitles)]
			list, err := listService.CreateList(ctx, user.ID, service.CreateListRequest{Title: title})
			if err != nil {
				log.Fatalf("Failed to create list: %v", err)
			}

			tasksInList := 2 + rng.Intn(4)
			for range tasksInList {
				req := service.CreateTaskRequest{
					ListID: list.ID,
					Title:  taskTitles[rng.Intn(len(taskTitles))],
				}
				if rng.Intn(3) == 0 {
					due := time.Now().AddDate(0, 0, 1+rng.Intn(14))
					req.DueAt = &due
				}

				task, err := taskService.CreateTask(ctx, user.ID, req)
				if err != nil {
					log.Fatalf("Failed to create task: %v", err)
				}

				for range rng.Intn(3) {
					_, err := subtaskService.CreateSubtask(ctx, user.ID, service.CreateSubtaskRequest{
						TaskID: task.ID,
						Title:  subtaskTitles[rng.Intn(len(subtaskTitles))],
					})
					if err != nil {
						log.Fatalf("Failed to create subtask: %v", err)
					}
				}

				if rng.Intn(4) == 0 {
					if _, err := taskService.SetTaskCompleted(ctx, user.ID, task.ID, true); err != nil {
						log.Fatalf("Failed to complete task: %v", err)
					}
				}
			}

			fmt.Printf("  list %q: %d tasks\n", list.Title, tasksInList)
		}

		// A few tasks outside any list, the quick-capture kind.
		unlisted := 1 + rng.Intn(2)
		for range unlisted {
			_, err := taskService.CreateTask(ctx, user.ID, service.CreateTaskRequest{
				Title: taskTitles[rng.Intn(len(taskTitles))],
			})
			if err != nil {
				log.Fatalf("Failed to create unlisted task: %v", err)
			}
		}
		fmt.Printf("  unlisted: %d tasks\n", unlisted)
	}

	fmt.Println("\nDone. Demo accounts use password 'password123'.")
}

// ensureUser returns the existing user for email or creates a new one.
func ensureUser(ctx context.Context, s *store.Store, email, name string) (*domain.User, error) {
	user, err := s.GetUserByEmail(ctx, email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, store.ErrUserNotFound) {
		return nil, err
	}

	hash, err := auth.HashPassword("password123")
	if err != nil {
		return nil, err
	}

	userID, err := id.Generate("user")
	if err != nil {
		return nil, err
	}

	user = &domain.User{
		Syncable: domain.Syncable{
			ID: userID,
		},
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Lists:        []string{},
	}
	user.InitTimestamps()

	if err := s.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	fmt.Printf("Created user %s\n", email)
	return user, nil
}
