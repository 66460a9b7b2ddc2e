package gitctx

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"
)

func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
}

// initRepo creates an empty repository with a deterministic identity.
func initRepo(t *testing.T) string {
	t.Helper()
	requireGit(t)
	dir := t.TempDir()
	for _, args := range [][]string{
		{"init", "-q"},
		{"config", "user.email", "test@example.com"},
		{"config", "user.name", "Test"},
		{"config", "commit.gpgsign", "false"},
	} {
		run(t, dir, args...)
	}
	return dir
}

func run(t *testing.T, dir string, args ...string) {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("git %v: %v\n%s", args, err, out)
	}
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestExtractFiles(t *testing.T) {
	diff := `diff --git a/main.go b/main.go
--- a/main.go
+++ b/main.go
@@ -1,3 +1,4 @@
+import "fmt"
diff --git a/util.go b/util.go
--- a/util.go
+++ b/util.go
@@ -5,3 +5,4 @@
+func helper() {}
`
	files := extractFiles(diff)
	if len(files) != 2 {
		t.Fatalf("got %d files, want 2", len(files))
	}
	if files[0] != "main.go" || files[1] != "util.go" {
		t.Errorf("files = %v, want [main.go util.go]", files)
	}
}

func TestExtractFiles_Dedup(t *testing.T) {
	files := extractFiles("+++ b/main.go\n+++ b/main.go\n")
	if len(files) != 1 {
		t.Errorf("got %d files, want 1 (should dedup)", len(files))
	}
}

func TestBuildDiffArgs(t *testing.T) {
	args := buildDiffArgs(DiffOptions{Exclude: []string{"dist/**", "  "}})

	want := []string{"diff", "--staged", "--ignore-all-space", "--diff-algorithm=minimal", "--", ":/"}
	for i, w := range want {
		if args[i] != w {
			t.Fatalf("args[%d] = %q, want %q", i, args[i], w)
		}
	}
	joined := strings.Join(args, " ")
	for _, p := range DefaultExcludes {
		if !strings.Contains(joined, ":(top,exclude,glob)**/"+p) {
			t.Errorf("missing default exclude %q in %v", p, args)
		}
	}
	if args[len(args)-1] != ":(top,exclude,glob)dist/**" {
		t.Errorf("last arg = %q, want extra exclude", args[len(args)-1])
	}
	if strings.Contains(joined, "glob)  ") || strings.HasSuffix(joined, "glob)") {
		t.Error("blank exclude should be skipped")
	}
}

func TestExcludePathspec(t *testing.T) {
	tests := []struct{ in, want string }{
		{"go.sum", ":(top,exclude,glob)**/go.sum"},
		{"*.lock", ":(top,exclude,glob)**/*.lock"},
		{"dist/**", ":(top,exclude,glob)dist/**"},
		{"/vendor/x.go", ":(top,exclude,glob)vendor/x.go"},
	}
	for _, tt := range tests {
		if got := excludePathspec(tt.in); got != tt.want {
			t.Errorf("excludePathspec(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestBuildResult_Truncation(t *testing.T) {
	diff := "diff --git a/main.go b/main.go\n--- a/main.go\n+++ b/main.go\n@@ -1,3 +1,4 @@\n+" + strings.Repeat("x", 200) + "\n"
	result := buildResult(diff, DiffOptions{MaxBytes: 50})
	if !result.Truncated {
		t.Error("Truncated should be set")
	}
	if !strings.Contains(result.Text, "truncated") {
		t.Error("Large diff should carry the truncation marker")
	}
	if len(result.Files) != 1 || result.Files[0] != "main.go" {
		t.Errorf("Files = %v, want files from the full diff", result.Files)
	}
}

func TestBuildResult_TruncationKeepsRunes(t *testing.T) {
	diff := "+++ b/a.txt\n+" + strings.Repeat("é", 40) + "\n"
	for limit := 14; limit < 30; limit++ {
		result := buildResult(diff, DiffOptions{MaxBytes: limit})
		if !utf8.ValidString(result.Text) {
			t.Fatalf("MaxBytes=%d produced invalid UTF-8: %q", limit, result.Text)
		}
		body := strings.TrimSuffix(result.Text, "\n... (diff truncated at max-diff-bytes limit)\n")
		if len(body) > limit || len(body) < limit-1 {
			t.Errorf("MaxBytes=%d kept %d bytes", limit, len(body))
		}
	}
}

func TestBuildResult_NoLimit(t *testing.T) {
	diff := "+++ b/a.go\n+x\n"
	result := buildResult(diff, DiffOptions{})
	if result.Truncated || result.Text != diff {
		t.Errorf("diff should be untouched without a limit, got %+v", result)
	}
}

func TestParseSubjects(t *testing.T) {
	out := "  feat: add thing \n\nfix: bug\n docs: readme\n"
	got := parseSubjects(out, 2)
	if len(got) != 2 || got[0] != "feat: add thing" || got[1] != "fix: bug" {
		t.Errorf("parseSubjects = %q", got)
	}
}

func TestDiff_Empty(t *testing.T) {
	if !(Diff{Text: " \n"}).Empty() {
		t.Error("whitespace-only diff should be empty")
	}
	if (Diff{Text: "+x"}).Empty() {
		t.Error("non-empty diff reported empty")
	}
}

func TestRunner_RepositoryLocations(t *testing.T) {
	dir := initRepo(t)
	r := New(filepath.Join(dir))
	ctx := context.Background()

	root, err := r.Root(ctx)
	if err != nil {
		t.Fatalf("Root: %v", err)
	}
	wantRoot, _ := filepath.EvalSymlinks(dir)
	gotRoot, _ := filepath.EvalSymlinks(root)
	if gotRoot != wantRoot {
		t.Errorf("Root = %q, want %q", gotRoot, wantRoot)
	}

	gitDir, err := r.GitDir(ctx)
	if err != nil {
		t.Fatalf("GitDir: %v", err)
	}
	if !filepath.IsAbs(gitDir) || filepath.Base(gitDir) != ".git" {
		t.Errorf("GitDir = %q, want absolute .git path", gitDir)
	}

	hooks, err := r.HooksDir(ctx)
	if err != nil {
		t.Fatalf("HooksDir: %v", err)
	}
	if filepath.Base(hooks) != "hooks" || !filepath.IsAbs(hooks) {
		t.Errorf("HooksDir = %q", hooks)
	}
}

func TestRunner_NotRepository(t *testing.T) {
	requireGit(t)
	dir := t.TempDir()
	t.Setenv("GIT_CEILING_DIRECTORIES", filepath.Dir(dir))
	_, err := New(dir).Root(context.Background())
	if !errors.Is(err, ErrNotRepository) {
		t.Fatalf("Root error = %v, want ErrNotRepository", err)
	}
}

func TestRunner_StagedDiffExcludesLockFiles(t *testing.T) {
	dir := initRepo(t)
	r := New(dir)
	ctx := context.Background()

	writeFile(t, dir, "main.go", "package main\n")
	writeFile(t, dir, "Cargo.lock", "lock\n")
	writeFile(t, dir, "deps/foo.lock", "lock\n")
	writeFile(t, dir, "web/package-lock.json", "{}\n")
	writeFile(t, dir, "tools/go.sum", "sum\n")
	run(t, dir, "add", ".")

	diff, err := r.StagedDiff(ctx, DiffOptions{})
	if err != nil {
		t.Fatalf("StagedDiff: %v", err)
	}
	if !strings.Contains(diff.Text, "+package main") {
		t.Errorf("diff missing main.go content:\n%s", diff.Text)
	}
	if strings.Contains(diff.Text, "Cargo.lock") || strings.Contains(diff.Text, "foo.lock") ||
		strings.Contains(diff.Text, "package-lock.json") || strings.Contains(diff.Text, "go.sum") {
		t.Errorf("lock files should be excluded:\n%s", diff.Text)
	}
	if len(diff.Files) != 1 || diff.Files[0] != "main.go" {
		t.Errorf("Files = %v, want [main.go]", diff.Files)
	}
}

func TestRunner_StagedDiffFromSubdirectory(t *testing.T) {
	dir := initRepo(t)
	writeFile(t, dir, "root.go", "package root\n")
	writeFile(t, dir, "docs/guide.md", "guide\n")
	writeFile(t, dir, "web/package-lock.json", "{}\n")
	run(t, dir, "add", ".")

	diff, err := New(filepath.Join(dir, "docs")).StagedDiff(context.Background(), DiffOptions{Exclude: []string{"guide.md"}})
	if err != nil {
		t.Fatalf("StagedDiff: %v", err)
	}
	if len(diff.Files) != 1 || diff.Files[0] != "root.go" {
		t.Errorf("Files = %v, want [root.go]", diff.Files)
	}
}

func TestRunner_StagedDiffNothingStaged(t *testing.T) {
	dir := initRepo(t)
	writeFile(t, dir, "untracked.txt", "hello\n")

	diff, err := New(dir).StagedDiff(context.Background(), DiffOptions{})
	if err != nil {
		t.Fatalf("StagedDiff: %v", err)
	}
	if !diff.Empty() {
		t.Errorf("expected empty diff, got %q", diff.Text)
	}
}

func TestRunner_RecentCommits(t *testing.T) {
	dir := initRepo(t)
	r := New(dir)
	ctx := context.Background()

	commits, err := r.RecentCommits(ctx, 3)
	if err != nil {
		t.Fatalf("RecentCommits on empty repo: %v", err)
	}
	if len(commits) != 0 {
		t.Errorf("empty repo should have no commits, got %v", commits)
	}

	for i, msg := range []string{"feat: one", "fix: two", "docs: three", "chore: four"} {
		writeFile(t, dir, "f.txt", strings.Repeat("x", i+1))
		run(t, dir, "add", ".")
		run(t, dir, "commit", "-q", "-m", msg)
	}

	commits, err = r.RecentCommits(ctx, 3)
	if err != nil {
		t.Fatalf("RecentCommits: %v", err)
	}
	want := []string{"chore: four", "docs: three", "fix: two"}
	if len(commits) != len(want) {
		t.Fatalf("got %v, want %v", commits, want)
	}
	for i := range want {
		if commits[i] != want[i] {
			t.Errorf("commits[%d] = %q, want %q", i, commits[i], want[i])
		}
	}

	none, err := r.RecentCommits(ctx, 0)
	if err != nil || none != nil {
		t.Errorf("RecentCommits(0) = %v, %v", none, err)
	}
}
