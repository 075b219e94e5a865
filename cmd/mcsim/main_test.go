package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestRunCommand(t *testing.T) {
	dir := t.TempDir()
	paths := filepath.Join(dir, "paths.png")
	hist := filepath.Join(dir, "hist.png")

	out, stderr, err := execute(t, "run", "--paths", "200", "--days", "40", "--seed", "5",
		"--workers", "2", "--paths-png", paths, "--hist-png", hist, "--metrics")
	if err != nil {
		t.Fatalf("run: %v\n%s", err, stderr)
	}
	for _, want := range []string{"200 paths over 40 trading days", "Expected final price:", "VaR 95%"} {
		if !strings.Contains(out, want) {
			t.Fatalf("stdout missing %q:\n%s", want, out)
		}
	}
	if !strings.Contains(stderr, `mcsim_runs_total{outcome="ok"} 1`) {
		t.Fatalf("stderr missing metrics:\n%s", stderr)
	}
	for _, f := range []string{paths, hist} {
		if info, err := os.Stat(f); err != nil || info.Size() == 0 {
			t.Fatalf("chart %s not written: %v", f, err)
		}
	}

	again, _, err := execute(t, "run", "--paths", "200", "--days", "40", "--seed", "5")
	if err != nil {
		t.Fatal(err)
	}
	if again != out {
		t.Fatalf("same seed printed different summaries:\n%s\n%s", out, again)
	}
}

func TestRunRejectsOutOfDomain(t *testing.T) {
	_, _, err := execute(t, "run", "--sigma", "0.9")
	if err == nil || !strings.Contains(err.Error(), "sigma") {
		t.Fatalf("err = %v, want sigma domain error", err)
	}
}

func TestExportInspect(t *testing.T) {
	file := filepath.Join(t.TempDir(), "paths.bin")

	_, stderr, err := execute(t, "export", "--paths", "150", "--days", "12", "--seed", "9",
		"--limit", "20", "-o", file, "--log-format", "json")
	if err != nil {
		t.Fatalf("export: %v\n%s", err, stderr)
	}
	if !strings.Contains(stderr, `"trajectories":20`) {
		t.Fatalf("missing export log:\n%s", stderr)
	}

	out, _, err := execute(t, "inspect", file)
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	if !strings.Contains(out, "trajectory 19: 12 days, first 100.00") {
		t.Fatalf("inspect output:\n%s", out)
	}
	if !strings.Contains(out, "20 trajectories, sha256 ") {
		t.Fatalf("inspect output:\n%s", out)
	}
}

func TestInspectCorrupt(t *testing.T) {
	file := filepath.Join(t.TempDir(), "bad.bin")
	if err := os.WriteFile(file, []byte{0, 0, 0, 9, 1, 2, 3, 4, 5, 6, 7, 8, 9}, 0644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := execute(t, "inspect", file); err == nil || !strings.Contains(err.Error(), "checksum") {
		t.Fatalf("err = %v, want checksum error", err)
	}
}
