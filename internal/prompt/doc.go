// Package prompt renders the chat messages sent to the model.
//
// The system message comes from a user-editable prompt.toml that is copied
// into the config directory on first install; the embedded copy is used
// whenever that file is missing. The user message is the staged diff,
// unmodified.
package prompt
