// Package cli wires together the Cobra command tree for the commit-crafter
// binary.
//
// Running the root command with no subcommand generates a commit message for
// the staged changes and prints it on stdout; the prepare-commit-msg hook
// captures that output. Everything else (status lines, prompts, logs) goes to
// stderr. Subcommands manage the hook (install, uninstall), configuration
// (config), the message cache (cache) and diagnostics (doctor, version).
//
// Handlers report failures through a deterministic exit code rather than
// returning errors to Cobra, so only usage errors print Cobra's help.
package cli
