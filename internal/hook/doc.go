// Package hook installs and removes the prepare-commit-msg git hook.
//
// The installed script carries a marker comment so the program can tell its
// own hook apart from one written by the user or another tool. Foreign hooks
// are never replaced or removed without confirmation or --force.
package hook
