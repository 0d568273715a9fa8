package tasks

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "tasks.csv"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return store
}

func TestNewStoreCreatesHeaderOnlyFile(t *testing.T) {
	store := newTestStore(t)

	data, err := os.ReadFile(store.Path())
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "description,priority\n" {
		t.Fatalf("unexpected file content %q", data)
	}
	all, err := store.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 0 {
		t.Fatalf("expected no tasks, got %v", all)
	}
}

func TestNewStoreKeepsExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.csv")
	content := "priority,description\nHigh,\"fix, the server\"\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	store, err := NewStore(path)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	all, err := store.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []Task{{Description: "fix, the server", Priority: High}}
	if !reflect.DeepEqual(all, want) {
		t.Fatalf("List() = %v, want %v", all, want)
	}
}

func TestStoreAddAndRemove(t *testing.T) {
	store := newTestStore(t)

	for _, task := range []Task{
		{Description: "buy milk", Priority: Low},
		{Description: "fix server", Priority: High},
		{Description: "buy milk", Priority: Medium},
	} {
		if _, err := store.Add(task); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}

	removed, remaining, err := store.Remove("buy milk")
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if removed != 2 {
		t.Fatalf("expected 2 removed, got %d", removed)
	}
	want := []Task{{Description: "fix server", Priority: High}}
	if !reflect.DeepEqual(remaining, want) {
		t.Fatalf("remaining = %v, want %v", remaining, want)
	}

	all, err := store.List()
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(all, want) {
		t.Fatalf("List() after remove = %v, want %v", all, want)
	}
}

func TestStoreRemoveNoMatch(t *testing.T) {
	store := newTestStore(t)
	if _, err := store.Add(Task{Description: "buy milk", Priority: Low}); err != nil {
		t.Fatal(err)
	}

	_, _, err := store.Remove("Buy milk")
	if !errors.Is(err, ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound, got %v", err)
	}
	all, _ := store.List()
	if len(all) != 1 {
		t.Fatalf("file must be unchanged, got %v", all)
	}
}

func TestStoreMalformedHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.csv")
	if err := os.WriteFile(path, []byte("task,level\nx,High\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	store, err := NewStore(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.List(); !errors.Is(err, ErrMalformedStore) {
		t.Fatalf("expected ErrMalformedStore, got %v", err)
	}
}

func TestStoreConcurrentAdds(t *testing.T) {
	store := newTestStore(t)

	const writers = 20
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := store.Add(Task{Description: "task", Priority: Low}); err != nil {
				t.Errorf("Add: %v", err)
			}
		}()
	}
	wg.Wait()

	all, err := store.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != writers {
		t.Fatalf("expected %d tasks, got %d", writers, len(all))
	}
}

func TestStoreChangedExternally(t *testing.T) {
	store := newTestStore(t)
	if _, err := store.Add(Task{Description: "buy milk", Priority: Low}); err != nil {
		t.Fatal(err)
	}

	changed, err := store.ChangedExternally()
	if err != nil {
		t.Fatal(err)
	}
	if changed {
		t.Fatal("own write must not count as an external change")
	}

	if err := os.WriteFile(store.Path(), []byte("description,priority\nedited,High\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	changed, err = store.ChangedExternally()
	if err != nil {
		t.Fatal(err)
	}
	if !changed {
		t.Fatal("expected external edit to be detected")
	}
	changed, _ = store.ChangedExternally()
	if changed {
		t.Fatal("second check must see the content as known")
	}
}
