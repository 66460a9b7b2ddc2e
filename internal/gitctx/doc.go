// Package gitctx shells out to git to collect what a commit message is
// generated from: the staged diff, recent commit subjects, and the
// repository locations (top level, git dir, hooks dir) used for config
// resolution and hook installation.
//
// Lock files are excluded from the staged diff through git pathspecs so that
// dependency churn does not drown out the actual change.
package gitctx
