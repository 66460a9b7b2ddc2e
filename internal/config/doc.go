// Package config resolves, loads, merges and writes commit-crafter
// configuration.
//
// Configuration lives in TOML files under a base directory
// ($XDG_CONFIG_HOME/commit_crafter or ~/.config/commit_crafter). Each git
// repository gets its own directory, derived by hashing the repository root,
// so unrelated repositories never share keys by accident. Outside a
// repository the global directory is used instead.
//
// Precedence (highest to lowest):
//  1. Environment variables (COMMIT_CRAFTER_OPENAI_API_KEY, ..., OPENAI_API_KEY)
//  2. Project config file (<base>/projects/<name>-<hash>/config.toml)
//  3. Global config file (<base>/global/config.toml)
//  4. Built-in defaults
//
// Exactly four keys are recognised; see [Keys].
package config
