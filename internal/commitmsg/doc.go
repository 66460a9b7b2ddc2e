// Package commitmsg turns a staged diff into a commit message.
//
// [Engine.Generate] renders the prompt, checks the message cache, calls the
// [llm.Generator] on a miss and normalizes the reply with [Clean] before
// storing it.
package commitmsg
