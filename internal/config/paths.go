package config

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
)

const (
	appDirName  = "commit_crafter"
	globalName  = "global"
	projectsDir = "projects"
	hashLen     = 16
)

// Paths describes the directories configuration is read from and written to.
type Paths struct {
	Base    string
	Global  string
	Project string // empty outside a git repository
	Active  string // Project when set, otherwise Global

	// FallbackReason explains why Active is the global directory.
	FallbackReason error
}

// IsProject reports whether a project directory is active.
func (p Paths) IsProject() bool {
	return p.Project != "" && p.Active == p.Project
}

// BaseDir returns the root configuration directory.
func BaseDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appDirName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".config", appDirName), nil
}

// GlobalDir returns the directory used outside of any repository.
func GlobalDir(base string) string {
	return filepath.Join(base, globalName)
}

// ProjectDir derives the per-repository directory for gitRoot.
func ProjectDir(base, gitRoot string) string {
	root := filepath.Clean(gitRoot)
	name := filepath.Base(root)
	if name == "." || name == string(filepath.Separator) || name == "" {
		name = "unknown"
	}
	return filepath.Join(base, projectsDir, name+"-"+projectHash(root))
}

func projectHash(root string) string {
	sum := sha256.Sum256([]byte(root))
	return hex.EncodeToString(sum[:])[:hashLen]
}

// Resolve computes Paths. rootFn returns the git repository root; when it
// fails the global directory becomes active.
func Resolve(rootFn func() (string, error)) (Paths, error) {
	base, err := BaseDir()
	if err != nil {
		return Paths{}, err
	}
	return resolveIn(base, rootFn), nil
}

func resolveIn(base string, rootFn func() (string, error)) Paths {
	p := Paths{Base: base, Global: GlobalDir(base)}
	root, err := rootFn()
	if err != nil {
		p.Active = p.Global
		p.FallbackReason = fmt.Errorf("failed to get git root: %w", err)
		return p
	}
	p.Project = ProjectDir(base, root)
	p.Active = p.Project
	return p
}
