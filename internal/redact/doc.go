// Package redact scrubs secrets from a staged diff before it leaves the
// machine.
//
// Detection uses regex heuristics covering common secret shapes: API keys,
// JWTs, private keys, AWS access key IDs and secret access keys, bearer
// tokens, database connection strings, and provider-specific tokens
// (Anthropic, OpenAI, GitHub, Slack).
//
// Whole files can also be withheld: diff sections whose path matches one of
// the configured globs are replaced by a single placeholder line.
package redact
