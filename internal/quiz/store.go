package quiz

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/gofrs/flock"

	"chatbot-rag/internal/models"
	"chatbot-rag/internal/namespace"
)

// Store keeps one ordered quiz collection per namespace as a JSON file.
// Read-modify-write goes through the namespace's advisory lock, and writes go
// to a temp file renamed into place, so concurrent generation requests cannot
// lose each other's updates or leave a torn file.
type Store struct {
	DataDir string
}

func NewStore(dataDir string) *Store {
	return &Store{DataDir: dataDir}
}

// List returns the stored items in id order. A namespace without a quiz file
// has an empty collection.
func (s *Store) List(ns namespace.Namespace) ([]models.QuizItem, error) {
	return readItems(ns.QuizFile(s.DataDir))
}

// Append merges a generated batch into the collection, assigning ids that
// continue from the current maximum (or 1 when empty). Ids are never reused,
// so a deleted id does not come back. Returns the full collection.
func (s *Store) Append(ns namespace.Namespace, batch []models.QuizItem) ([]models.QuizItem, error) {
	return s.mutate(ns, func(items []models.QuizItem) ([]models.QuizItem, error) {
		nextID := 1
		for _, item := range items {
			if item.ID >= nextID {
				nextID = item.ID + 1
			}
		}
		for _, item := range batch {
			item.ID = nextID
			nextID++
			items = append(items, item)
		}
		return items, nil
	})
}

// Replace discards the stored collection and appends the batch to an empty
// one, restarting ids at 1. Used by force-regeneration.
func (s *Store) Replace(ns namespace.Namespace, batch []models.QuizItem) ([]models.QuizItem, error) {
	return s.mutate(ns, func([]models.QuizItem) ([]models.QuizItem, error) {
		items := make([]models.QuizItem, 0, len(batch))
		for i, item := range batch {
			item.ID = i + 1
			items = append(items, item)
		}
		return items, nil
	})
}

// DeleteByID removes exactly the item with the given id, leaving every other
// item and its id untouched. Returns the remaining collection.
func (s *Store) DeleteByID(ns namespace.Namespace, id int) ([]models.QuizItem, error) {
	return s.mutate(ns, func(items []models.QuizItem) ([]models.QuizItem, error) {
		remaining := make([]models.QuizItem, 0, len(items))
		found := false
		for _, item := range items {
			if item.ID == id {
				found = true
				continue
			}
			remaining = append(remaining, item)
		}
		if !found {
			return nil, fmt.Errorf("quiz question %d not found", id)
		}
		return remaining, nil
	})
}

func (s *Store) mutate(ns namespace.Namespace, fn func([]models.QuizItem) ([]models.QuizItem, error)) ([]models.QuizItem, error) {
	if err := os.MkdirAll(ns.Dir(s.DataDir), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create namespace directory: %w", err)
	}

	lock := flock.New(ns.LockFile(s.DataDir))
	if err := lock.Lock(); err != nil {
		return nil, fmt.Errorf("failed to lock namespace: %w", err)
	}
	defer lock.Unlock()

	path := ns.QuizFile(s.DataDir)
	items, err := readItems(path)
	if err != nil {
		return nil, err
	}
	items, err = fn(items)
	if err != nil {
		return nil, err
	}
	if err := writeItems(path, items); err != nil {
		return nil, err
	}
	return items, nil
}

func readItems(path string) ([]models.QuizItem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read quiz file: %w", err)
	}
	var items []models.QuizItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("failed to decode quiz file: %w", err)
	}
	return items, nil
}

func writeItems(path string, items []models.QuizItem) error {
	if items == nil {
		items = []models.QuizItem{}
	}
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write quiz file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to replace quiz file: %w", err)
	}
	return nil
}
