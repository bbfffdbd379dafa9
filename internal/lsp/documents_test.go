package lsp

import (
	"sync"
	"testing"
)

// TestDocumentStore_Update verifies that the document store properly updates content
func TestDocumentStore_Update(t *testing.T) {
	store := NewDocumentStore()

	// Open a document
	store.Open("test://file.grade", "initial content")

	content, ok := store.Get("test://file.grade")
	if !ok {
		t.Fatal("Document not found after opening")
	}
	if content != "initial content" {
		t.Errorf("Expected 'initial content', got '%s'", content)
	}

	// Update the document
	store.Update("test://file.grade", "updated content")

	content, ok = store.Get("test://file.grade")
	if !ok {
		t.Fatal("Document not found after update")
	}
	if content != "updated content" {
		t.Errorf("Expected 'updated content', got '%s'", content)
	}
}

// TestDocumentStore_MultipleUpdates verifies multiple updates work correctly
func TestDocumentStore_MultipleUpdates(t *testing.T) {
	store := NewDocumentStore()
	store.Open("test://file.grade", "version 1")

	updates := []string{
		"version 2",
		"version 3",
		"version 4",
	}

	for i, update := range updates {
		store.Update("test://file.grade", update)
		content, ok := store.Get("test://file.grade")
		if !ok {
			t.Fatalf("Document not found after update %d", i+2)
		}
		if content != update {
			t.Errorf("Update %d: expected '%s', got '%s'", i+2, update, content)
		}
	}
}

// TestDocumentStore_ConcurrentAccess verifies thread safety
func TestDocumentStore_ConcurrentAccess(t *testing.T) {
	store := NewDocumentStore()
	store.Open("test://file.grade", "initial")

	var wg sync.WaitGroup
	for i := range 10 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			store.Update("test://file.grade", string(rune('0'+i)))
		}()
		go func() {
			defer wg.Done()
			_ = store.Result("test://file.grade")
		}()
	}
	wg.Wait()

	// Verify document still exists and has some content
	content, ok := store.Get("test://file.grade")
	if !ok {
		t.Error("Document not found after concurrent updates")
	}
	if content == "" {
		t.Error("Document content is empty after concurrent updates")
	}
}

func TestDocumentStore_Result(t *testing.T) {
	store := NewDocumentStore()
	uri := "test://file.grade"

	if store.Result(uri) != nil {
		t.Fatal("expected nil result for an unopened document")
	}

	opened := store.Open(uri, "global {\n  contrast = -1\n}\n")
	if len(opened.Diagnostics) != 1 {
		t.Fatalf("got %d diagnostics on open, want 1", len(opened.Diagnostics))
	}
	if store.Result(uri) != opened {
		t.Error("Result should return the analysis from Open")
	}

	updated := store.Update(uri, "global {\n  contrast = 1\n}\n")
	if len(updated.Diagnostics) != 0 {
		t.Errorf("got %d diagnostics after fix, want 0", len(updated.Diagnostics))
	}
	if store.Result(uri) != updated {
		t.Error("Result should follow the latest update")
	}

	store.Close(uri)
	if store.Result(uri) != nil {
		t.Error("expected nil result after close")
	}
	if _, ok := store.Get(uri); ok {
		t.Error("document still present after close")
	}
}
