package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLocalStoragePutGetList(t *testing.T) {
	t.Parallel()

	st, err := NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStorage: %v", err)
	}
	ctx := context.Background()

	for _, key := range []string{"users/b.json", "users/a.json", "other/c.json"} {
		if err := st.PutObject(ctx, key, []byte(`{"k":"`+key+`"}`), "application/json"); err != nil {
			t.Fatalf("PutObject %s: %v", key, err)
		}
	}

	data, err := st.GetObject(ctx, "users/a.json")
	if err != nil {
		t.Fatalf("GetObject: %v", err)
	}
	if string(data) != `{"k":"users/a.json"}` {
		t.Fatalf("unexpected body %q", data)
	}

	keys, err := st.ListKeys(ctx, "users/", 0)
	if err != nil {
		t.Fatalf("ListKeys: %v", err)
	}
	if len(keys) != 2 || keys[0] != "users/a.json" || keys[1] != "users/b.json" {
		t.Fatalf("unexpected keys %v", keys)
	}

	keys, err = st.ListKeys(ctx, "", 1)
	if err != nil {
		t.Fatalf("ListKeys limited: %v", err)
	}
	if len(keys) != 1 {
		t.Fatalf("expected 1 key, got %v", keys)
	}
}

func TestLocalStorageMissingObject(t *testing.T) {
	t.Parallel()

	st, err := NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStorage: %v", err)
	}
	_, err = st.GetObject(context.Background(), "users/nobody.json")
	if !errors.Is(err, ErrObjectNotFound) {
		t.Fatalf("expected ErrObjectNotFound, got %v", err)
	}
}

func TestNewSelectsLocalForFileEndpoint(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	st, err := New(context.Background(), Config{S3Endpoint: "file://" + dir})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, ok := st.(*LocalStorage); !ok {
		t.Fatalf("expected *LocalStorage, got %T", st)
	}
}

func TestLocalStorageRejectsKeysOutsideBase(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "secret.json"), []byte(`{"user_id":"secret"}`), 0644); err != nil {
		t.Fatalf("write secret: %v", err)
	}
	st, err := NewLocalStorage(filepath.Join(root, "store"))
	if err != nil {
		t.Fatalf("NewLocalStorage: %v", err)
	}
	ctx := context.Background()

	for _, key := range []string{"../secret.json", "users/../../secret.json", "/etc/passwd"} {
		if _, err := st.GetObject(ctx, key); !errors.Is(err, ErrObjectNotFound) {
			t.Fatalf("GetObject(%q): expected ErrObjectNotFound, got %v", key, err)
		}
		if err := st.PutObject(ctx, key, []byte("{}"), "application/json"); !errors.Is(err, ErrInvalidKey) {
			t.Fatalf("PutObject(%q): expected ErrInvalidKey, got %v", key, err)
		}
	}

	data, err := os.ReadFile(filepath.Join(root, "secret.json"))
	if err != nil || string(data) != `{"user_id":"secret"}` {
		t.Fatalf("file outside base was modified: %q %v", data, err)
	}
}
