package watcher

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func waitFor(t *testing.T, ch <-chan []string, want string, timeout time.Duration) {
	t.Helper()
	deadline := time.After(timeout)
	for {
		select {
		case paths := <-ch:
			for _, p := range paths {
				if p == want {
					return
				}
			}
		case <-deadline:
			t.Fatalf("timed out waiting for change of %s", want)
		}
	}
}

func TestNewWatcher_RejectsNilCallback(t *testing.T) {
	w, err := NewWatcher(100*time.Millisecond, nil, nil, nil)
	if err == nil {
		t.Fatal("expected error for nil callback")
	}
	if !errors.Is(err, os.ErrInvalid) {
		t.Fatalf("expected os.ErrInvalid, got %v", err)
	}
	if w != nil {
		t.Fatal("expected nil watcher when callback is invalid")
	}
}

func TestNewWatcher_RejectsBadPattern(t *testing.T) {
	if _, err := NewWatcher(time.Millisecond, []string{"[unclosed"}, nil, func([]string) {}); err == nil {
		t.Fatal("expected glob compile error")
	}
}

func TestWatcher(t *testing.T) {
	tmpDir := t.TempDir()

	changedFiles := make(chan []string, 8)
	w, err := NewWatcher(100*time.Millisecond, []string{"exclude_dir"}, []string{"*.tmp.class"}, func(paths []string) {
		changedFiles <- paths
	})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	if err := w.Watch([]string{tmpDir}); err != nil {
		t.Fatal(err)
	}

	classFile := filepath.Join(tmpDir, "Widget.class")
	if err := os.WriteFile(classFile, []byte{0xCA, 0xFE, 0xBA, 0xBE}, 0o644); err != nil {
		t.Fatal(err)
	}
	waitFor(t, changedFiles, classFile, 2*time.Second)

	// Excluded and unrelated files produce no batch.
	_ = os.WriteFile(filepath.Join(tmpDir, "Scratch.tmp.class"), []byte("x"), 0o644)
	_ = os.WriteFile(filepath.Join(tmpDir, "notes.txt"), []byte("x"), 0o644)
	select {
	case paths := <-changedFiles:
		t.Errorf("unexpected change batch %v", paths)
	case <-time.After(400 * time.Millisecond):
	}

	// New directories are watched recursively after creation.
	subdir := filepath.Join(tmpDir, "api")
	if err := os.MkdirAll(subdir, 0o755); err != nil {
		t.Fatal(err)
	}
	nested := filepath.Join(subdir, "Base.java")
	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(nested, []byte("package api;"), 0o644); err != nil {
		t.Fatal(err)
	}
	waitFor(t, changedFiles, nested, 2*time.Second)
}

func TestWatcher_SingleFileRoot(t *testing.T) {
	tmpDir := t.TempDir()
	jar := filepath.Join(tmpDir, "lib.jar")
	if err := os.WriteFile(jar, []byte("PK"), 0o644); err != nil {
		t.Fatal(err)
	}

	changedFiles := make(chan []string, 8)
	w, err := NewWatcher(50*time.Millisecond, nil, nil, func(paths []string) {
		changedFiles <- paths
	})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()
	if err := w.Watch([]string{jar}); err != nil {
		t.Fatal(err)
	}

	if w.shouldExcludeFile(jar) {
		t.Fatal("single-file root must pass the filter")
	}
	if !w.shouldExcludeFile(filepath.Join(tmpDir, "other.jar")) {
		t.Fatal("siblings of a single-file root must be ignored")
	}

	if err := os.WriteFile(jar, []byte("PK\x03\x04"), 0o644); err != nil {
		t.Fatal(err)
	}
	waitFor(t, changedFiles, jar, 2*time.Second)
}

func TestWatcher_Extensions(t *testing.T) {
	w, err := NewWatcher(10*time.Millisecond, nil, nil, func([]string) {})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()
	w.dirs["/src"] = true

	for _, name := range []string{"A.class", "lib.JAR", ".api_description", "apiguard.toml", "A.java"} {
		if w.shouldExcludeFile(filepath.Join("/src", name)) {
			t.Errorf("%s should pass the default filter", name)
		}
	}
	if !w.shouldExcludeFile("/src/readme.md") {
		t.Error("markdown should be excluded")
	}
	if !w.shouldExcludeFile("/elsewhere/A.class") {
		t.Error("files outside watched directories should be excluded")
	}

	w.SetExtensions([]string{".class"})
	if !w.shouldExcludeFile("/src/A.java") {
		t.Error("java sources should be excluded once only .class is enabled")
	}
}
