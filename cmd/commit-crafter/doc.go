// Commit-crafter writes git commit messages from staged changes using an
// OpenAI-compatible chat-completions endpoint.
//
// The staged diff (minus lockfiles) and the subjects of recent commits are
// sent to the model, and the resulting message is printed on stdout. Once
// installed as a prepare-commit-msg hook, `git commit` fills the message in
// automatically.
//
// Usage:
//
//	commit-crafter install                          # install the hook in this repository
//	commit-crafter config set openai_api_key <KEY>  # store credentials
//	commit-crafter config set openai_url https://api.openai.com/v1
//	commit-crafter                                  # print a message for the staged diff
//	commit-crafter --dry-run                        # show the request without sending it
//	commit-crafter doctor                           # check configuration and connectivity
//	commit-crafter uninstall                        # remove the hook
package main
