package gitctx

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"
	cclog "github.com/yzzting/commit-crafter/internal/log"
)

// DefaultExcludes are left out of every staged diff. Entries without a slash
// match at any depth of the work tree.
var DefaultExcludes = []string{
	"Cargo.lock",
	"package-lock.json",
	"pnpm-lock.yaml",
	"yarn.lock",
	"go.sum",
	"*.lock",
}

// ErrNotRepository is returned when the working directory is not inside a
// git work tree.
var ErrNotRepository = errors.New("not a git repository")

// DiffOptions controls how the staged diff is gathered.
type DiffOptions struct {
	Exclude  []string // extra pathspecs excluded on top of DefaultExcludes
	MaxBytes int      // truncate the diff text above this size; 0 disables
}

// Diff holds the collected staged diff.
type Diff struct {
	Text      string
	Files     []string
	Truncated bool
}

// Empty reports whether there is nothing staged.
func (d Diff) Empty() bool {
	return strings.TrimSpace(d.Text) == ""
}

// Runner runs git commands in a fixed directory.
type Runner struct {
	Dir string // working directory; empty means the process cwd
	Bin string // git binary; empty means "git" on PATH
	log zerolog.Logger
}

// New returns a Runner rooted at dir.
func New(dir string) *Runner {
	return &Runner{Dir: dir, Bin: "git", log: cclog.WithComponent("gitctx")}
}

// Root returns the top-level directory of the work tree.
func (r *Runner) Root(ctx context.Context) (string, error) {
	out, err := r.output(ctx, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrNotRepository, err)
	}
	return filepath.Clean(strings.TrimSpace(out)), nil
}

// GitDir returns the absolute path of the repository's git directory.
func (r *Runner) GitDir(ctx context.Context) (string, error) {
	out, err := r.output(ctx, "rev-parse", "--git-dir")
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrNotRepository, err)
	}
	return r.abs(strings.TrimSpace(out))
}

// HooksDir returns the absolute hooks directory, honouring core.hooksPath.
func (r *Runner) HooksDir(ctx context.Context) (string, error) {
	out, err := r.output(ctx, "rev-parse", "--git-path", "hooks")
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrNotRepository, err)
	}
	return r.abs(strings.TrimSpace(out))
}

// StagedDiff returns the diff of the index against HEAD.
func (r *Runner) StagedDiff(ctx context.Context, opts DiffOptions) (Diff, error) {
	out, err := r.output(ctx, buildDiffArgs(opts)...)
	if err != nil {
		return Diff{}, fmt.Errorf("git diff --staged: %w", err)
	}
	return buildResult(out, opts), nil
}

// RecentCommits returns up to n commit subjects, newest first. A repository
// without commits yields an empty list.
func (r *Runner) RecentCommits(ctx context.Context, n int) ([]string, error) {
	if n <= 0 {
		return nil, nil
	}
	if _, err := r.output(ctx, "rev-parse", "--verify", "--quiet", "HEAD"); err != nil {
		r.log.Debug().Msg("no HEAD yet, skipping commit history")
		return nil, nil
	}
	out, err := r.output(ctx, "log", fmt.Sprintf("-%d", n), "--pretty=format:%s")
	if err != nil {
		return nil, fmt.Errorf("git log: %w", err)
	}
	return parseSubjects(out, n), nil
}

func buildDiffArgs(opts DiffOptions) []string {
	args := []string{"diff", "--staged", "--ignore-all-space", "--diff-algorithm=minimal", "--", ":/"}
	for _, p := range DefaultExcludes {
		args = append(args, excludePathspec(p))
	}
	for _, p := range opts.Exclude {
		if p = strings.TrimSpace(p); p != "" {
			args = append(args, excludePathspec(p))
		}
	}
	return args
}

// excludePathspec anchors path at the top of the work tree so the result does
// not depend on the current directory.
func excludePathspec(path string) string {
	path = strings.TrimPrefix(path, "/")
	if !strings.Contains(path, "/") {
		path = "**/" + path
	}
	return ":(top,exclude,glob)" + path
}

func buildResult(diff string, opts DiffOptions) Diff {
	res := Diff{Text: diff, Files: extractFiles(diff)}
	if opts.MaxBytes > 0 && len(diff) > opts.MaxBytes {
		cut := opts.MaxBytes
		for cut > 0 && !utf8.RuneStart(diff[cut]) {
			cut--
		}
		res.Text = diff[:cut] + "\n... (diff truncated at max-diff-bytes limit)\n"
		res.Truncated = true
	}
	return res
}

func extractFiles(diff string) []string {
	var files []string
	seen := make(map[string]bool)
	for _, line := range strings.Split(diff, "\n") {
		if strings.HasPrefix(line, "+++ b/") {
			f := strings.TrimPrefix(line, "+++ b/")
			if !seen[f] {
				seen[f] = true
				files = append(files, f)
			}
		}
	}
	return files
}

func parseSubjects(out string, n int) []string {
	var subjects []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		subjects = append(subjects, line)
		if len(subjects) == n {
			break
		}
	}
	return subjects
}

func (r *Runner) abs(p string) (string, error) {
	if filepath.IsAbs(p) {
		return filepath.Clean(p), nil
	}
	base := r.Dir
	if base == "" {
		var err error
		base, err = filepath.Abs(".")
		if err != nil {
			return "", err
		}
	}
	return filepath.Join(base, p), nil
}

func (r *Runner) output(ctx context.Context, args ...string) (string, error) {
	bin := r.Bin
	if bin == "" {
		bin = "git"
	}
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Dir = r.Dir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	r.log.Debug().Strs("args", args).Str("dir", r.Dir).Msg("running git")
	out, err := cmd.Output()
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return string(out), err
		}
		return string(out), fmt.Errorf("%w: %s", err, msg)
	}
	return string(out), nil
}
