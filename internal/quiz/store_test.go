package quiz

import (
	"testing"

	"chatbot-rag/internal/models"
	"chatbot-rag/internal/namespace"
)

func testNS(t *testing.T) namespace.Namespace {
	t.Helper()
	ns, err := namespace.New("acme", "platform", "infra", "handbook")
	if err != nil {
		t.Fatalf("namespace.New: %v", err)
	}
	return ns
}

func batch(questions ...string) []models.QuizItem {
	items := make([]models.QuizItem, 0, len(questions))
	for _, q := range questions {
		items = append(items, models.QuizItem{
			Question:    q,
			Choices:     []string{"a", "b", "c", "d"},
			AnswerIndex: 0,
		})
	}
	return items
}

func TestListEmptyNamespace(t *testing.T) {
	store := NewStore(t.TempDir())
	items, err := store.List(testNS(t))
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected empty collection, got %d items", len(items))
	}
}

func TestAppendAssignsContinuingIDs(t *testing.T) {
	store := NewStore(t.TempDir())
	ns := testNS(t)

	first, err := store.Append(ns, batch("q1", "q2"))
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if first[0].ID != 1 || first[1].ID != 2 {
		t.Fatalf("first batch ids = %d, %d, want 1, 2", first[0].ID, first[1].ID)
	}

	second, err := store.Append(ns, batch("q3", "q4", "q5"))
	if err != nil {
		t.Fatalf("Append second: %v", err)
	}
	if len(second) != 5 {
		t.Fatalf("collection size = %d, want 5", len(second))
	}
	for i, item := range second {
		if item.ID != i+1 {
			t.Fatalf("item %d has id %d", i, item.ID)
		}
	}
}

func TestDeleteByID(t *testing.T) {
	store := NewStore(t.TempDir())
	ns := testNS(t)

	if _, err := store.Append(ns, batch("q1", "q2", "q3")); err != nil {
		t.Fatalf("Append: %v", err)
	}

	remaining, err := store.DeleteByID(ns, 2)
	if err != nil {
		t.Fatalf("DeleteByID: %v", err)
	}
	if len(remaining) != 2 {
		t.Fatalf("remaining = %d, want 2", len(remaining))
	}
	// Other ids are untouched.
	if remaining[0].ID != 1 || remaining[1].ID != 3 {
		t.Fatalf("remaining ids = %d, %d, want 1, 3", remaining[0].ID, remaining[1].ID)
	}

	if _, err := store.DeleteByID(ns, 2); err == nil {
		t.Fatal("deleting a missing id should fail")
	}
}

func TestAppendAfterMidDelete(t *testing.T) {
	store := NewStore(t.TempDir())
	ns := testNS(t)

	if _, err := store.Append(ns, batch("q1", "q2", "q3")); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if _, err := store.DeleteByID(ns, 2); err != nil {
		t.Fatalf("DeleteByID: %v", err)
	}

	// Ids continue from the surviving maximum; the deleted mid-collection id
	// is not handed out again.
	items, err := store.Append(ns, batch("q4"))
	if err != nil {
		t.Fatalf("Append after delete: %v", err)
	}
	last := items[len(items)-1]
	if last.ID != 4 {
		t.Fatalf("new id = %d, want 4 (max surviving id + 1)", last.ID)
	}
	for _, item := range items {
		if item.ID == 2 {
			t.Fatal("deleted id 2 was reused")
		}
	}
}

func TestReplaceRestartsIDs(t *testing.T) {
	store := NewStore(t.TempDir())
	ns := testNS(t)

	if _, err := store.Append(ns, batch("q1", "q2")); err != nil {
		t.Fatalf("Append: %v", err)
	}
	items, err := store.Replace(ns, batch("r1", "r2", "r3"))
	if err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("collection size = %d, want 3", len(items))
	}
	if items[0].ID != 1 || items[0].Question != "r1" {
		t.Fatalf("replace kept old content: %+v", items[0])
	}
}

func TestStoreIsolatesNamespaces(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)
	ns1 := testNS(t)
	ns2, err := namespace.New("acme", "platform", "infra", "other-bot")
	if err != nil {
		t.Fatalf("namespace.New: %v", err)
	}

	if _, err := store.Append(ns1, batch("q1")); err != nil {
		t.Fatalf("Append: %v", err)
	}
	items, err := store.List(ns2)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("namespace leak: %d items", len(items))
	}
}
