package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/RustColeone/TradingAgents-web-managed/internal/common"
	"github.com/RustColeone/TradingAgents-web-managed/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "stocks.json"), common.NewSilentLogger())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func newTestPost(title string, tickers ...string) *models.Post {
	return models.NewPost(models.PostInput{Title: &title, Tickers: &tickers})
}

func TestStore_EmptyFile(t *testing.T) {
	s := newTestStore(t)

	posts := s.List()
	if len(posts) != 0 {
		t.Errorf("expected empty list for missing file, got %d posts", len(posts))
	}
}

func TestStore_InsertAndFind(t *testing.T) {
	s := newTestStore(t)

	p := newTestPost("Tech", "AAPL", "MSFT")
	if err := s.Insert(p); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	got, err := s.Find(p.ID)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if got.Title != "Tech" {
		t.Errorf("expected title Tech, got %s", got.Title)
	}
	if len(got.Tickers) != 2 || got.Tickers[0] != "AAPL" {
		t.Errorf("expected tickers [AAPL MSFT], got %v", got.Tickers)
	}
}

func TestStore_FindMissing(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.Find("no-such-id"); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_PersistsAcrossInstances(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stocks.json")

	s1, err := New(path, common.NewSilentLogger())
	if err != nil {
		t.Fatal(err)
	}
	p := newTestPost("Persist", "NVDA")
	if err := s1.Insert(p); err != nil {
		t.Fatal(err)
	}

	// A fresh store over the same file sees the data
	s2, err := New(path, common.NewSilentLogger())
	if err != nil {
		t.Fatal(err)
	}
	got, err := s2.Find(p.ID)
	if err != nil {
		t.Fatalf("Find after reopen: %v", err)
	}
	if got.Title != "Persist" {
		t.Errorf("expected title Persist, got %s", got.Title)
	}
}

func TestStore_CorruptFileFailsOpen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stocks.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	s, err := New(path, common.NewSilentLogger())
	if err != nil {
		t.Fatal(err)
	}

	// Reads treat corrupt data as empty rather than erroring out
	if posts := s.List(); len(posts) != 0 {
		t.Errorf("expected empty list for corrupt file, got %d posts", len(posts))
	}

	// And a write recovers the file
	if err := s.Insert(newTestPost("Recovered")); err != nil {
		t.Fatalf("Insert over corrupt file: %v", err)
	}
	if posts := s.List(); len(posts) != 1 {
		t.Errorf("expected 1 post after recovery, got %d", len(posts))
	}
}

func TestStore_Update(t *testing.T) {
	s := newTestStore(t)

	p := newTestPost("Before")
	if err := s.Insert(p); err != nil {
		t.Fatal(err)
	}

	updated, err := s.Update(p.ID, func(post *models.Post) error {
		post.Title = "After"
		return nil
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Title != "After" {
		t.Errorf("expected title After, got %s", updated.Title)
	}

	// Mutation is persisted
	got, err := s.Find(p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != "After" {
		t.Errorf("expected persisted title After, got %s", got.Title)
	}
}

func TestStore_UpdateMissing(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Update("no-such-id", func(post *models.Post) error {
		t.Error("mutator should not be called for missing post")
		return nil
	})
	if err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_UpdateMutatorError(t *testing.T) {
	s := newTestStore(t)

	p := newTestPost("Keep")
	if err := s.Insert(p); err != nil {
		t.Fatal(err)
	}

	wantErr := fmt.Errorf("mutator failed")
	_, err := s.Update(p.ID, func(post *models.Post) error {
		post.Title = "Discarded"
		return wantErr
	})
	if err != wantErr {
		t.Errorf("expected mutator error, got %v", err)
	}

	// Failed mutation must not be persisted
	got, _ := s.Find(p.ID)
	if got.Title != "Keep" {
		t.Errorf("expected title Keep after failed update, got %s", got.Title)
	}
}

func TestStore_Delete(t *testing.T) {
	s := newTestStore(t)

	p := newTestPost("Gone")
	if err := s.Insert(p); err != nil {
		t.Fatal(err)
	}

	if err := s.Delete(p.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Find(p.ID); err != ErrNotFound {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if err := s.Delete(p.ID); err != ErrNotFound {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestStore_Reorder(t *testing.T) {
	s := newTestStore(t)

	a := newTestPost("A")
	b := newTestPost("B")
	c := newTestPost("C")
	for _, p := range []*models.Post{a, b, c} {
		if err := s.Insert(p); err != nil {
			t.Fatal(err)
		}
	}

	// Partial order with an unknown id: C first, unknown ignored, A and B
	// keep their relative position after.
	next, err := s.Reorder([]string{c.ID, "unknown-id"})
	if err != nil {
		t.Fatalf("Reorder: %v", err)
	}

	ids := make([]string, len(next))
	for i, p := range next {
		ids[i] = p.ID
	}
	want := []string{c.ID, a.ID, b.ID}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("expected order %v, got %v", want, ids)
		}
	}

	// No posts dropped
	if len(s.List()) != 3 {
		t.Errorf("expected 3 posts after reorder, got %d", len(s.List()))
	}
}

func TestStore_ReorderDuplicateIDs(t *testing.T) {
	s := newTestStore(t)

	a := newTestPost("A")
	b := newTestPost("B")
	for _, p := range []*models.Post{a, b} {
		if err := s.Insert(p); err != nil {
			t.Fatal(err)
		}
	}

	next, err := s.Reorder([]string{b.ID, b.ID, a.ID})
	if err != nil {
		t.Fatal(err)
	}
	if len(next) != 2 {
		t.Fatalf("duplicate ids must not duplicate posts, got %d", len(next))
	}
	if next[0].ID != b.ID || next[1].ID != a.ID {
		t.Errorf("expected order [B A], got [%s %s]", next[0].Title, next[1].Title)
	}
}

func TestStore_ConcurrentUpdatesNoLostWrites(t *testing.T) {
	s := newTestStore(t)

	p := newTestPost("Counter")
	p.Options = map[string]any{"count": float64(0)}
	if err := s.Insert(p); err != nil {
		t.Fatal(err)
	}

	const workers = 20
	const perWorker = 10

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				_, err := s.Update(p.ID, func(post *models.Post) error {
					post.Options["count"] = post.Options["count"].(float64) + 1
					return nil
				})
				if err != nil {
					t.Errorf("Update: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()

	got, err := s.Find(p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if count := got.Options["count"].(float64); count != workers*perWorker {
		t.Errorf("expected count %d, got %v (lost updates)", workers*perWorker, count)
	}
}

func TestStore_ConcurrentMixedOperations(t *testing.T) {
	s := newTestStore(t)

	seed := newTestPost("Seed")
	if err := s.Insert(seed); err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(3)
		go func(n int) {
			defer wg.Done()
			_ = s.Insert(newTestPost(fmt.Sprintf("P%d", n)))
		}(i)
		go func() {
			defer wg.Done()
			s.List()
		}()
		go func() {
			defer wg.Done()
			_, _ = s.Update(seed.ID, func(post *models.Post) error {
				post.Description = "touched"
				return nil
			})
		}()
	}
	wg.Wait()

	if len(s.List()) != 11 {
		t.Errorf("expected 11 posts, got %d", len(s.List()))
	}
}

func TestStore_NoTempFileLeftBehind(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stocks.json")
	s, err := New(path, common.NewSilentLogger())
	if err != nil {
		t.Fatal(err)
	}

	if err := s.Insert(newTestPost("X")); err != nil {
		t.Fatal(err)
	}

	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp file should not remain after a successful save")
	}
}

func TestNew_RequiresPath(t *testing.T) {
	if _, err := New("", common.NewSilentLogger()); err == nil {
		t.Error("expected error for empty path")
	}
}
