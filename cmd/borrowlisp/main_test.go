package main

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

func writeSource(t *testing.T, dir, name, contents string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestVersionCommand(t *testing.T) {
	code, stdout, _ := captureCLI(t, []string{"version"})
	if code != 0 {
		t.Fatalf("version exit = %d", code)
	}
	if strings.TrimSpace(stdout) != cliToolVersion {
		t.Fatalf("version output = %q", stdout)
	}
}

func TestNoArgumentsPrintsUsage(t *testing.T) {
	code, _, stderr := captureCLI(t, nil)
	if code != 1 || !strings.Contains(stderr, "usage:") {
		t.Fatalf("exit %d, stderr %q", code, stderr)
	}
}

func TestRunPrintsLastValue(t *testing.T) {
	dir := t.TempDir()
	path := writeSource(t, dir, "main.blisp", "(display 7)\n(let (x 4) (* x x))\n")

	code, stdout, stderr := captureCLI(t, []string{"run", path})
	if code != 0 {
		t.Fatalf("run exit = %d, stderr %q", code, stderr)
	}
	if stdout != "7\nInt(16)\n" {
		t.Fatalf("stdout = %q", stdout)
	}
}

func TestBareFileRunsWithFlags(t *testing.T) {
	dir := t.TempDir()
	path := writeSource(t, dir, "box.blisp", "(box 5)\n")

	code, stdout, stderr := captureCLI(t, []string{"--deep", "--types", path})
	if code != 0 {
		t.Fatalf("exit = %d, stderr %q", code, stderr)
	}
	if stdout != "Box(Int(5)) : Box(Int)\n" {
		t.Fatalf("stdout = %q", stdout)
	}
}

func TestRunReportsLocatedError(t *testing.T) {
	dir := t.TempDir()
	path := writeSource(t, dir, "bad.blisp", "(let (b (box 1))\n  (begin (unbox b) (unbox b)))\n")

	code, stdout, stderr := captureCLI(t, []string{"run", path})
	if code != 1 {
		t.Fatalf("exit = %d", code)
	}
	if stdout != "" {
		t.Fatalf("nothing should be evaluated, got %q", stdout)
	}
	if !strings.Contains(stderr, "bad.blisp:2:") || !strings.Contains(stderr, "UseAfterMoveError") {
		t.Fatalf("stderr = %q", stderr)
	}
}

func TestRunMissingFile(t *testing.T) {
	code, _, stderr := captureCLI(t, []string{"run", filepath.Join(t.TempDir(), "absent.blisp")})
	if code != 1 || !strings.Contains(stderr, "absent.blisp") {
		t.Fatalf("exit %d, stderr %q", code, stderr)
	}
}

func TestCheckPrintsTypesAndFailures(t *testing.T) {
	dir := t.TempDir()
	good := writeSource(t, dir, "good.blisp", "(lambda (x) (+ x 1))\n(< 1 2)\n")
	bad := writeSource(t, dir, "bad.blisp", "(if 1 2 3)\n")

	code, stdout, stderr := captureCLI(t, []string{"check", good, bad})
	if code != 1 {
		t.Fatalf("exit = %d", code)
	}
	if !strings.Contains(stdout, good+": Func(Int -> Int), Bool") {
		t.Fatalf("stdout = %q", stdout)
	}
	if !strings.Contains(stderr, "TypeError") || !strings.Contains(stderr, "bad.blisp:1:") {
		t.Fatalf("stderr = %q", stderr)
	}
}

func TestCheckChanged(t *testing.T) {
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("PlainInit: %v", err)
	}
	worktree, err := repo.Worktree()
	if err != nil {
		t.Fatalf("Worktree: %v", err)
	}
	writeSource(t, dir, "committed.blisp", "(+ 1 2)\n")
	if _, err := worktree.Add("committed.blisp"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := worktree.Commit("init", &git.CommitOptions{
		Author: &object.Signature{Name: "borrowlisp", Email: "borrowlisp@example.com", When: time.Now()},
	}); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	writeSource(t, dir, "fresh.blisp", "(box true)\n")
	prevDir, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(prevDir) })

	code, stdout, stderr := captureCLI(t, []string{"check", "--changed"})
	if code != 0 {
		t.Fatalf("exit = %d, stderr %q", code, stderr)
	}
	if !strings.Contains(stdout, "fresh.blisp: Box(Bool)") || strings.Contains(stdout, "committed.blisp") {
		t.Fatalf("stdout = %q", stdout)
	}
}

func TestFixturesCommand(t *testing.T) {
	dir := filepath.Join("..", "..", "pkg", "driver", "testdata", "fixtures")
	code, stdout, stderr := captureCLI(t, []string{"fixtures", dir})
	if code != 0 {
		t.Fatalf("exit = %d, stdout %q, stderr %q", code, stdout, stderr)
	}
	if !strings.Contains(stdout, "ok   factorial") || !strings.Contains(stdout, ", 0 failed") {
		t.Fatalf("stdout = %q", stdout)
	}
}

func TestFixturesCommandEmptyDir(t *testing.T) {
	code, _, stderr := captureCLI(t, []string{"fixtures", t.TempDir()})
	if code != 1 || !strings.Contains(stderr, "no fixtures") {
		t.Fatalf("exit %d, stderr %q", code, stderr)
	}
}

func TestCompleteKeyword(t *testing.T) {
	got := completeKeyword("(let-")
	if len(got) != 1 || got[0] != "(let-rec" {
		t.Fatalf("completions = %v", got)
	}
	if completeKeyword("(") != nil {
		t.Fatalf("empty prefix should not complete")
	}
}

func captureCLI(t *testing.T, args []string) (int, string, string) {
	t.Helper()

	stdout := os.Stdout
	stderr := os.Stderr

	rOut, wOut, err := os.Pipe()
	if err != nil {
		t.Fatalf("stdout pipe: %v", err)
	}
	rErr, wErr, err := os.Pipe()
	if err != nil {
		t.Fatalf("stderr pipe: %v", err)
	}

	os.Stdout = wOut
	os.Stderr = wErr

	code := run(args)

	if err := wOut.Close(); err != nil {
		t.Fatalf("stdout close: %v", err)
	}
	if err := wErr.Close(); err != nil {
		t.Fatalf("stderr close: %v", err)
	}

	os.Stdout = stdout
	os.Stderr = stderr

	outBytes, err := io.ReadAll(rOut)
	if err != nil {
		t.Fatalf("stdout read: %v", err)
	}
	errBytes, err := io.ReadAll(rErr)
	if err != nil {
		t.Fatalf("stderr read: %v", err)
	}
	return code, string(outBytes), string(errBytes)
}
