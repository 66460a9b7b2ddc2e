// Package log configures the zerolog logger shared by commit-crafter.
//
// Diagnostics always go to stderr: stdout carries the generated commit
// message, which the prepare-commit-msg hook captures verbatim. Every entry
// carries the run ID of the invocation so a hook run can be followed across
// the git, prompt and HTTP steps.
package log
