// Package ui prints human-facing status lines and prompts on stderr.
package ui
