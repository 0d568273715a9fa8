package tasks

import (
	"bytes"
	"crypto/sha256"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

var header = []string{"description", "priority"}

// Store persists tasks to a CSV file with a description,priority header.
// The file is the source of truth: every call reads it in full and every
// mutation rewrites it in full while holding the store lock.
type Store struct {
	path string

	mu       sync.Mutex
	lastSeen [sha256.Size]byte
}

// NewStore opens path, creating it with only the header when absent.
func NewStore(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("task file path is required")
	}
	s := &Store{path: filepath.Clean(path)}
	if _, err := os.Stat(s.path); errors.Is(err, os.ErrNotExist) {
		if err := s.save(nil); err != nil {
			return nil, fmt.Errorf("create task file: %w", err)
		}
	} else if err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) Path() string {
	return s.path
}

// List reads the file afresh on every call.
func (s *Store) List() ([]Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// Update runs fn on the current task list and saves what it returns. The
// whole load-mutate-save sequence is exclusive.
func (s *Store) Update(fn func([]Task) ([]Task, error)) ([]Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.load()
	if err != nil {
		return nil, err
	}
	next, err := fn(current)
	if err != nil {
		return nil, err
	}
	if err := s.save(next); err != nil {
		return nil, err
	}
	return next, nil
}

// Add appends task and returns the full list as saved.
func (s *Store) Add(task Task) ([]Task, error) {
	return s.Update(func(current []Task) ([]Task, error) {
		return append(current, task), nil
	})
}

// Remove deletes every task whose description equals description exactly.
func (s *Store) Remove(description string) (int, []Task, error) {
	removed := 0
	next, err := s.Update(func(current []Task) ([]Task, error) {
		kept := make([]Task, 0, len(current))
		for _, t := range current {
			if t.Description == description {
				removed++
				continue
			}
			kept = append(kept, t)
		}
		if removed == 0 {
			return nil, fmt.Errorf("%w: %q", ErrTaskNotFound, description)
		}
		return kept, nil
	})
	if err != nil {
		return 0, nil, err
	}
	return removed, next, nil
}

// ChangedExternally reports whether the file differs from what the store
// last read or wrote, and remembers the new content.
func (s *Store) ChangedExternally() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		return false, err
	}
	sum := sha256.Sum256(data)
	if sum == s.lastSeen {
		return false, nil
	}
	s.lastSeen = sum
	return true, nil
}

func (s *Store) load() ([]Task, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return []Task{}, nil
	}
	if err != nil {
		return nil, err
	}
	s.lastSeen = sha256.Sum256(data)

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	head, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return []Task{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedStore, err)
	}
	descIdx, prioIdx := -1, -1
	for i, name := range head {
		switch name {
		case "description":
			descIdx = i
		case "priority":
			prioIdx = i
		}
	}
	if descIdx < 0 || prioIdx < 0 {
		return nil, fmt.Errorf("%w: header %v", ErrMalformedStore, head)
	}

	tasks := make([]Task, 0)
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedStore, err)
		}
		tasks = append(tasks, Task{
			Description: field(record, descIdx),
			Priority:    Priority(field(record, prioIdx)),
		})
	}
	return tasks, nil
}

func field(record []string, idx int) string {
	if idx < len(record) {
		return record[idx]
	}
	return ""
}

func (s *Store) save(tasks []Task) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return err
	}
	for _, t := range tasks {
		if err := w.Write([]string{t.Description, string(t.Priority)}); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}

	if err := writeFileAtomic(s.path, buf.Bytes(), 0o644); err != nil {
		return err
	}
	s.lastSeen = sha256.Sum256(buf.Bytes())
	return nil
}

// writeFileAtomic writes to a temp file in the same directory and renames it
// over path.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp.*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		_ = tmp.Close()
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}
	committed = true
	return nil
}
