package hook

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/renameio/v2"
)

// Name is the git hook this package manages.
const Name = "prepare-commit-msg"

const (
	markerStart = "# >>> commit-crafter prepare-commit-msg hook >>>"
	markerEnd   = "# <<< commit-crafter prepare-commit-msg hook <<<"
)

var (
	// ErrHookExists is returned when a foreign hook is present and the user
	// declined to overwrite it.
	ErrHookExists = errors.New("a prepare-commit-msg hook already exists")
	// ErrHookNotFound is returned by Uninstall when there is no hook.
	ErrHookNotFound = errors.New("prepare-commit-msg hook not found")
	// ErrForeignHook is returned by Uninstall for a hook this program did
	// not write.
	ErrForeignHook = errors.New("prepare-commit-msg hook was not installed by commit-crafter")
)

// Options control Install and Uninstall.
type Options struct {
	// Force replaces or removes a foreign hook without asking.
	Force bool
	// Confirm is asked before overwriting a foreign hook. A nil Confirm
	// declines.
	Confirm func(path string) bool
}

// State describes the hook file in a hooks directory.
type State struct {
	Path       string
	Installed  bool
	Ours       bool
	Executable bool
}

// Path returns the hook file path inside hooksDir.
func Path(hooksDir string) string {
	return filepath.Join(hooksDir, Name)
}

// Script renders the hook body that runs exePath and writes its output to
// the commit message file.
func Script(exePath string) string {
	var b strings.Builder
	b.WriteString("#!/bin/sh\n")
	b.WriteString(markerStart + "\n")
	b.WriteString("# Generated file. Remove with: commit-crafter uninstall\n")
	b.WriteString("COMMIT_MSG_FILE=\"$1\"\n")
	b.WriteString("COMMIT_SOURCE=\"$2\"\n")
	b.WriteString("\n")
	b.WriteString("# Keep messages supplied with -m, -F, merges, squashes and amends.\n")
	b.WriteString("case \"$COMMIT_SOURCE\" in\n")
	b.WriteString("  message|merge|squash|commit) exit 0 ;;\n")
	b.WriteString("esac\n")
	b.WriteString("\n")
	fmt.Fprintf(&b, "COMMIT_MSG=$(%s)\n", shellQuote(exePath))
	b.WriteString("STATUS=$?\n")
	b.WriteString("if [ $STATUS -ne 0 ]; then\n")
	b.WriteString("  echo \"commit-crafter: failed to generate commit message (exit $STATUS)\" >&2\n")
	b.WriteString("  exit 1\n")
	b.WriteString("fi\n")
	b.WriteString("if [ -z \"$COMMIT_MSG\" ]; then\n")
	b.WriteString("  echo \"commit-crafter: generated commit message is empty\" >&2\n")
	b.WriteString("  exit 1\n")
	b.WriteString("fi\n")
	b.WriteString("printf '%s\\n' \"$COMMIT_MSG\" > \"$COMMIT_MSG_FILE\"\n")
	b.WriteString(markerEnd + "\n")
	return b.String()
}

// IsOurs reports whether content was written by Script.
func IsOurs(content string) bool {
	return strings.Contains(content, markerStart) && strings.Contains(content, markerEnd)
}

// Install writes the hook into hooksDir. An existing hook written by this
// program is replaced silently; a foreign one needs Force or Confirm.
// It reports whether a previous hook was overwritten.
func Install(hooksDir, exePath string, opts Options) (bool, error) {
	path := Path(hooksDir)
	existing, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		existing = nil
	case err != nil:
		return false, fmt.Errorf("reading hook file: %w", err)
	}

	overwrote := existing != nil
	if overwrote && !IsOurs(string(existing)) && !opts.Force {
		if opts.Confirm == nil || !opts.Confirm(path) {
			return false, ErrHookExists
		}
	}

	if err := os.MkdirAll(hooksDir, 0o755); err != nil {
		return false, fmt.Errorf("creating hooks directory: %w", err)
	}
	if err := renameio.WriteFile(path, []byte(Script(exePath)), 0o755); err != nil {
		return false, fmt.Errorf("writing hook file: %w", err)
	}
	return overwrote, nil
}

// Uninstall removes the hook from hooksDir.
func Uninstall(hooksDir string, opts Options) error {
	path := Path(hooksDir)
	existing, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrHookNotFound
		}
		return fmt.Errorf("reading hook file: %w", err)
	}
	if !IsOurs(string(existing)) && !opts.Force {
		return ErrForeignHook
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("removing hook file: %w", err)
	}
	return nil
}

// Status reports the state of the hook in hooksDir.
func Status(hooksDir string) (State, error) {
	st := State{Path: Path(hooksDir)}
	info, err := os.Stat(st.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return st, nil
		}
		return st, fmt.Errorf("checking hook file: %w", err)
	}
	st.Installed = true
	st.Executable = info.Mode().Perm()&0o111 != 0
	data, err := os.ReadFile(st.Path)
	if err != nil {
		return st, fmt.Errorf("reading hook file: %w", err)
	}
	st.Ours = IsOurs(string(data))
	return st, nil
}

// shellQuote wraps s in single quotes for POSIX sh.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
