package menurepo

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func sampleMenu() Menu {
	return Menu{
		Title: "Saturday dinner",
		Courses: []Course{
			{Name: "antipasto", Dish: "Crostini", Wine: "Franciacorta Brut"},
			{Name: "main", Dish: "Brasato al Barolo", Wine: "Barolo"},
		},
	}
}

func TestMenuRepoLifecycle(t *testing.T) {
	tempDir := t.TempDir()
	svc := New(tempDir)

	initial := sampleMenu()
	if err := svc.EnsureEventRepo("evt-1", initial, "Anna"); err != nil {
		t.Fatalf("EnsureEventRepo() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(tempDir, "evt-1")); err != nil {
		t.Fatalf("repo directory missing: %v", err)
	}

	// Ensuring twice is a no-op.
	if err := svc.EnsureEventRepo("evt-1", initial, "Anna"); err != nil {
		t.Fatalf("second EnsureEventRepo() error = %v", err)
	}

	updated := sampleMenu()
	updated.Courses[1].Dish = "Osso buco"
	commit, err := svc.Commit("evt-1", updated, "Anna", "Swap the main course")
	if err != nil {
		t.Fatalf("Commit() error = %v", err)
	}
	if commit.Hash == "" {
		t.Fatal("expected commit hash")
	}

	head, headCommit, err := svc.Head("evt-1")
	if err != nil {
		t.Fatalf("Head() error = %v", err)
	}
	if head.Courses[1].Dish != "Osso buco" {
		t.Fatalf("unexpected head menu: %+v", head)
	}
	if headCommit.Hash != commit.Hash {
		t.Fatalf("head commit %s, want %s", headCommit.Hash, commit.Hash)
	}

	history, err := svc.History("evt-1", 10)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("history length = %d, want 2", len(history))
	}
	if history[0].Hash != commit.Hash {
		t.Fatal("history must be newest first")
	}

	previous, err := svc.GetByHash("evt-1", history[1].Hash)
	if err != nil {
		t.Fatalf("GetByHash() error = %v", err)
	}
	if previous.Courses[1].Dish != "Brasato al Barolo" {
		t.Fatalf("unexpected earlier revision: %+v", previous)
	}
}

func TestConcurrentCommitsSameEvent(t *testing.T) {
	tempDir := t.TempDir()
	svc := New(tempDir)

	if err := svc.EnsureEventRepo("evt-1", sampleMenu(), "Anna"); err != nil {
		t.Fatalf("EnsureEventRepo() error = %v", err)
	}

	const writers = 12
	var wg sync.WaitGroup
	errCh := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			next := sampleMenu()
			next.Notes = fmt.Sprintf("revision-%02d", idx)
			if _, err := svc.Commit("evt-1", next, "Anna", fmt.Sprintf("Commit %02d", idx)); err != nil {
				errCh <- err
			}
		}(i)
	}
	wg.Wait()
	close(errCh)

	for err := range errCh {
		if err != nil {
			t.Fatalf("Commit() concurrent error = %v", err)
		}
	}

	history, err := svc.History("evt-1", 100)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(history) < writers+1 {
		t.Fatalf("expected at least %d commits, got %d", writers+1, len(history))
	}

	head, _, err := svc.Head("evt-1")
	if err != nil {
		t.Fatalf("Head() error = %v", err)
	}
	if !strings.HasPrefix(head.Notes, "revision-") {
		t.Fatalf("unexpected head menu after concurrent commits: %+v", head)
	}
}

func TestHasChanges(t *testing.T) {
	base := sampleMenu()

	if HasChanges(base, sampleMenu()) {
		t.Error("identical menus must report no changes")
	}

	edited := sampleMenu()
	edited.Courses[0].Wine = "Prosecco"
	if !HasChanges(base, edited) {
		t.Error("edited pairing must report a change")
	}

	longer := sampleMenu()
	longer.Courses = append(longer.Courses, Course{Name: "dolce", Dish: "Tiramisù"})
	if !HasChanges(base, longer) {
		t.Error("added course must report a change")
	}
}
