package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"apiguard/internal/engine/classfile/classfiletest"
)

func writeProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	sealed := classfiletest.New("api/Sealed").
		Annotate("Lorg/eclipse/pde/api/tools/annotations/NoExtend;")
	sub := classfiletest.New("app/Sub").Super("api/Sealed")

	files := map[string][]byte{
		filepath.Join(dir, "api", "api", "Sealed.class"): sealed.Bytes(),
		filepath.Join(dir, "app", "app", "Sub.class"):    sub.Bytes(),
		filepath.Join(dir, "apiguard.toml"): []byte(`project = "cli"

[[classpath]]
path = "api"
role = "provider"

[[classpath]]
path = "app"
role = "consumer"
`),
	}
	for path, data := range files {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return filepath.Join(dir, "apiguard.toml")
}

func TestRunVersion(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := run(context.Background(), []string{"-version"}, &stdout, &stderr); code != 0 {
		t.Fatalf("exit code = %d, want 0", code)
	}
	if !strings.HasPrefix(stdout.String(), "apiguard ") {
		t.Errorf("unexpected version output %q", stdout.String())
	}
}

func TestRunOnce(t *testing.T) {
	cfgPath := writeProject(t)

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-config", cfgPath, "-format", "summary, json"}, &stdout, &stderr)
	if code != 0 {
		t.Fatalf("exit code = %d, want 0; stderr:\n%s", code, stderr.String())
	}
	if !strings.Contains(stdout.String(), "app.Sub illegally extends api.Sealed") {
		t.Errorf("summary does not report the violation:\n%s", stdout.String())
	}
	if _, err := os.Stat(filepath.Join(filepath.Dir(cfgPath), "apiguard.json")); err != nil {
		t.Errorf("json report not written: %v", err)
	}
}

func TestRunFailOnViolation(t *testing.T) {
	cfgPath := writeProject(t)

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-config", cfgPath, "-fail-on-violation"}, &stdout, &stderr)
	if code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
}

func TestRunErrors(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := run(context.Background(), []string{"-config", filepath.Join(t.TempDir(), "missing.toml")}, &stdout, &stderr); code != 2 {
		t.Errorf("missing config: exit code = %d, want 2", code)
	}
	if code := run(context.Background(), []string{"-once", "-watch"}, &stdout, &stderr); code != 2 {
		t.Errorf("conflicting flags: exit code = %d, want 2", code)
	}
	if code := run(context.Background(), []string{"-no-such-flag"}, &stdout, &stderr); code != 2 {
		t.Errorf("unknown flag: exit code = %d, want 2", code)
	}
}

func TestSplitFormats(t *testing.T) {
	got := splitFormats(" sarif,,tsv ,")
	if len(got) != 2 || got[0] != "sarif" || got[1] != "tsv" {
		t.Errorf("splitFormats = %q", got)
	}
}
