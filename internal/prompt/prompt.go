package prompt

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/BurntSushi/toml"
	"github.com/google/renameio/v2"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// FileName is the prompt file inside a config directory.
const FileName = "prompt.toml"

//go:embed prompt.toml
var defaultPrompt string

// Template is the decoded prompt file.
type Template struct {
	System        string `toml:"system"`
	HistoryHeader string `toml:"history_header"`
}

// Input carries the per-run values rendered into the prompt.
type Input struct {
	Diff     string
	Language string   // BCP 47 tag
	History  []string // recent commit subjects, newest first
}

// Messages is the rendered conversation.
type Messages struct {
	System string
	User   string
}

// Default returns the embedded prompt file body.
func Default() string {
	return defaultPrompt
}

// Parse decodes a prompt file body.
func Parse(data string) (Template, error) {
	var tpl Template
	if _, err := toml.Decode(data, &tpl); err != nil {
		return Template{}, fmt.Errorf("parsing prompt: %w", err)
	}
	if strings.TrimSpace(tpl.System) == "" {
		return Template{}, fmt.Errorf("parsing prompt: system prompt is empty")
	}
	return tpl, nil
}

// Load reads dir/prompt.toml, falling back to the embedded default.
func Load(dir string) (Template, error) {
	if dir != "" {
		data, err := os.ReadFile(filepath.Join(dir, FileName))
		switch {
		case err == nil:
			tpl, perr := Parse(string(data))
			if perr != nil {
				return Template{}, fmt.Errorf("%s: %w", filepath.Join(dir, FileName), perr)
			}
			return tpl, nil
		case !errors.Is(err, os.ErrNotExist):
			return Template{}, fmt.Errorf("reading prompt file: %w", err)
		}
	}
	return Parse(defaultPrompt)
}

// WriteDefault copies the embedded prompt into dir unless a prompt file is
// already there. It reports whether a file was written.
func WriteDefault(dir string) (bool, error) {
	path := filepath.Join(dir, FileName)
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("checking prompt file: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return false, fmt.Errorf("creating config directory: %w", err)
	}
	if err := renameio.WriteFile(path, []byte(defaultPrompt), 0o644); err != nil {
		return false, fmt.Errorf("writing prompt file: %w", err)
	}
	return true, nil
}

type templateData struct {
	Language      string
	LanguageTag   string
	History       []string
	HistoryHeader string
}

// Build renders the system message and attaches the diff as the user message.
func Build(tpl Template, in Input) (Messages, error) {
	t, err := template.New("system").Option("missingkey=error").Parse(tpl.System)
	if err != nil {
		return Messages{}, fmt.Errorf("parsing system prompt template: %w", err)
	}
	tag := in.Language
	if tag == "" {
		tag = "en"
	}
	var b strings.Builder
	err = t.Execute(&b, templateData{
		Language:      LanguageName(tag),
		LanguageTag:   tag,
		History:       in.History,
		HistoryHeader: tpl.HistoryHeader,
	})
	if err != nil {
		return Messages{}, fmt.Errorf("rendering system prompt: %w", err)
	}
	return Messages{
		System: strings.TrimSpace(b.String()),
		User:   in.Diff,
	}, nil
}

// LanguageName returns the English name of a BCP 47 tag, or the tag itself
// when it cannot be parsed or named.
func LanguageName(tag string) string {
	t, err := language.Parse(tag)
	if err != nil {
		return tag
	}
	if name := display.English.Tags().Name(t); name != "" {
		return name
	}
	return tag
}
