package localstore

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/pdfkb/pdfkb/storage"
)

func newTestStore(t *testing.T) *LocalStore {
	t.Helper()
	store, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStore() unexpected error = %v", err)
	}
	return store
}

func TestLocalStorePutGet(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	err := store.Put(ctx, "images/abc.png", strings.NewReader("payload"),
		storage.WithContentType("image/png"))
	if err != nil {
		t.Fatalf("Put() unexpected error = %v", err)
	}

	r, err := store.Get(ctx, "images/abc.png")
	if err != nil {
		t.Fatalf("Get() unexpected error = %v", err)
	}
	defer r.Close()

	body, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("failed to read object: %v", err)
	}
	if string(body) != "payload" {
		t.Errorf("Get() = %q, want %q", body, "payload")
	}
}

func TestLocalStoreGetMissing(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Get(context.Background(), "nope.json")
	if err == nil {
		t.Fatal("Get() error = nil, want not found")
	}

	var serr *storage.StorageError
	if !errors.As(err, &serr) {
		t.Fatalf("Get() error = %T, want *storage.StorageError", err)
	}
	if serr.Code != storage.ErrCodeNotFound {
		t.Errorf("error code = %v, want %v", serr.Code, storage.ErrCodeNotFound)
	}
}

func TestLocalStoreExistsDelete(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	if err := store.Put(ctx, "a.json", strings.NewReader("{}")); err != nil {
		t.Fatalf("Put() unexpected error = %v", err)
	}

	exists, err := store.Exists(ctx, "a.json")
	if err != nil {
		t.Fatalf("Exists() unexpected error = %v", err)
	}
	if !exists {
		t.Error("Exists() = false after Put")
	}

	if err := store.Delete(ctx, "a.json"); err != nil {
		t.Fatalf("Delete() unexpected error = %v", err)
	}

	exists, err = store.Exists(ctx, "a.json")
	if err != nil {
		t.Fatalf("Exists() unexpected error = %v", err)
	}
	if exists {
		t.Error("Exists() = true after Delete")
	}

	// Deleting a missing object is not an error
	if err := store.Delete(ctx, "a.json"); err != nil {
		t.Errorf("Delete() of missing object = %v, want nil", err)
	}
}

func TestLocalStoreList(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	keys := []string{"images/a.png", "images/b.png", "tables/t.json"}
	for _, key := range keys {
		if err := store.Put(ctx, key, strings.NewReader("x")); err != nil {
			t.Fatalf("Put(%q) unexpected error = %v", key, err)
		}
	}

	objects, err := store.List(ctx, "images/")
	if err != nil {
		t.Fatalf("List() unexpected error = %v", err)
	}
	if len(objects) != 2 {
		t.Fatalf("List(images/) returned %d objects, want 2", len(objects))
	}
	for _, obj := range objects {
		if !strings.HasPrefix(obj.Key, "images/") {
			t.Errorf("List(images/) returned key %q", obj.Key)
		}
		if obj.Size != 1 {
			t.Errorf("object %q size = %d, want 1", obj.Key, obj.Size)
		}
	}

	all, err := store.List(ctx, "")
	if err != nil {
		t.Fatalf("List() unexpected error = %v", err)
	}
	if len(all) != 3 {
		t.Errorf("List(\"\") returned %d objects, want 3", len(all))
	}
}

func TestLocalStorePresignedGetURL(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	if err := store.Put(ctx, "a.json", strings.NewReader("{}")); err != nil {
		t.Fatalf("Put() unexpected error = %v", err)
	}

	url, err := store.GetPresignedGetURL(ctx, "a.json", 0)
	if err != nil {
		t.Fatalf("GetPresignedGetURL() unexpected error = %v", err)
	}
	if !strings.HasPrefix(url.URL, "file://") {
		t.Errorf("URL = %q, want file:// scheme", url.URL)
	}
	if url.Method != "GET" {
		t.Errorf("Method = %q, want GET", url.Method)
	}
}
