package watcher

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"pyimports/internal/core/filter"
)

func newFilter(t *testing.T, dirs, files []string) *filter.Filter {
	t.Helper()
	f, err := filter.New(dirs, files, false)
	if err != nil {
		t.Fatal(err)
	}
	return f
}

func waitFor(t *testing.T, changed <-chan []string, want string, timeout time.Duration) {
	t.Helper()
	deadline := time.After(timeout)
	for {
		select {
		case paths := <-changed:
			for _, p := range paths {
				if p == want {
					return
				}
			}
		case <-deadline:
			t.Fatalf("timed out waiting for change to %s", want)
		}
	}
}

func TestNewWatcher_RejectsNilCallback(t *testing.T) {
	w, err := NewWatcher(100*time.Millisecond, nil, nil)
	if !errors.Is(err, os.ErrInvalid) {
		t.Fatalf("expected os.ErrInvalid, got %v", err)
	}
	if w != nil {
		t.Fatal("expected nil watcher when callback is invalid")
	}
}

func TestWatcher(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(tmpDir, "venv"), 0o755); err != nil {
		t.Fatal(err)
	}

	changed := make(chan []string, 8)
	w, err := NewWatcher(100*time.Millisecond, newFilter(t, []string{"venv"}, []string{"*_pb2.py"}), func(paths []string) {
		changed <- paths
	})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	if err := w.Watch([]string{tmpDir}); err != nil {
		t.Fatal(err)
	}

	target := filepath.Join(tmpDir, "mod.py")
	if err := os.WriteFile(target, []byte("import os\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	waitFor(t, changed, target, 2*time.Second)

	for _, ignored := range []string{
		filepath.Join(tmpDir, "notes.txt"),
		filepath.Join(tmpDir, "msg_pb2.py"),
		filepath.Join(tmpDir, "test_mod.py"),
		filepath.Join(tmpDir, "venv", "site.py"),
	} {
		if err := os.WriteFile(ignored, []byte("x = 1\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	select {
	case paths := <-changed:
		t.Errorf("excluded files triggered a change: %v", paths)
	case <-time.After(500 * time.Millisecond):
	}

	subdir := filepath.Join(tmpDir, "pkg")
	if err := os.MkdirAll(subdir, 0o755); err != nil {
		t.Fatal(err)
	}
	nested := filepath.Join(subdir, "nested.py")
	if err := os.WriteFile(nested, []byte("from . import x\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	waitFor(t, changed, nested, 2*time.Second)
}

func TestWatcher_RenameTriggersChange(t *testing.T) {
	tmpDir := t.TempDir()

	changed := make(chan []string, 8)
	w, err := NewWatcher(100*time.Millisecond, nil, func(paths []string) {
		changed <- paths
	})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	if err := w.Watch([]string{tmpDir}); err != nil {
		t.Fatal(err)
	}

	oldPath := filepath.Join(tmpDir, "old.py")
	newPath := filepath.Join(tmpDir, "new.py")
	if err := os.WriteFile(oldPath, []byte("import a\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(oldPath, newPath); err != nil {
		t.Fatal(err)
	}
	waitFor(t, changed, newPath, 2*time.Second)
}

func TestWatcher_DebounceBatches(t *testing.T) {
	tmpDir := t.TempDir()

	changed := make(chan []string, 8)
	w, err := NewWatcher(200*time.Millisecond, nil, func(paths []string) {
		changed <- paths
	})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()
	if err := w.Watch([]string{tmpDir}); err != nil {
		t.Fatal(err)
	}

	a := filepath.Join(tmpDir, "a.py")
	b := filepath.Join(tmpDir, "b.py")
	if err := os.WriteFile(a, []byte("import a\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(b, []byte("import b\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case paths := <-changed:
		if len(paths) != 2 || paths[0] != a || paths[1] != b {
			t.Fatalf("expected one sorted batch [%s %s], got %v", a, b, paths)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for batch")
	}
}
