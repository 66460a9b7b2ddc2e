package commitmsg

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/yzzting/commit-crafter/internal/cache"
	"github.com/yzzting/commit-crafter/internal/llm"
	cclog "github.com/yzzting/commit-crafter/internal/log"
	"github.com/yzzting/commit-crafter/internal/prompt"
	"github.com/yzzting/commit-crafter/internal/redact"
)

// DefaultTemperature keeps replies close to the diff.
const DefaultTemperature = 0.2

// ErrEmptyMessage is returned when the model reply is blank after cleaning.
var ErrEmptyMessage = errors.New("generated commit message is empty")

// Input is one generation request.
type Input struct {
	Diff        string
	Language    string
	History     []string
	Redact      bool
	RedactPaths []string
}

// Timing records where the time went.
type Timing struct {
	LLM   time.Duration
	Total time.Duration
}

// Result is a generated message.
type Result struct {
	Message    string
	Cached     bool
	TokensUsed int
	Timing     Timing
}

// Engine wires the prompt, cache and generator together. Cache may be nil.
type Engine struct {
	Generator   llm.Generator
	Cache       *cache.Cache
	Template    prompt.Template
	Model       string
	Temperature float64

	log zerolog.Logger
}

// NewEngine returns an Engine using the default temperature.
func NewEngine(gen llm.Generator, c *cache.Cache, tpl prompt.Template, model string) *Engine {
	return &Engine{
		Generator:   gen,
		Cache:       c,
		Template:    tpl,
		Model:       model,
		Temperature: DefaultTemperature,
		log:         cclog.WithComponent("commitmsg"),
	}
}

// Messages renders the request that Generate would send.
func (e *Engine) Messages(in Input) (prompt.Messages, error) {
	diff := in.Diff
	if in.Redact {
		diff = redact.Diff(diff, in.RedactPaths)
	}
	msgs, err := prompt.Build(e.Template, prompt.Input{
		Diff:     diff,
		Language: in.Language,
		History:  in.History,
	})
	if err != nil {
		return prompt.Messages{}, fmt.Errorf("building prompt: %w", err)
	}
	return msgs, nil
}

// Generate produces a commit message for in.
func (e *Engine) Generate(ctx context.Context, in Input) (Result, error) {
	start := time.Now()
	if strings.TrimSpace(in.Diff) == "" {
		return Result{}, errors.New("nothing to describe: diff is empty")
	}

	msgs, err := e.Messages(in)
	if err != nil {
		return Result{}, err
	}

	key := cache.BuildKey(e.Model, in.Language, in.History, msgs.User)
	if e.Cache != nil {
		if msg, ok := e.Cache.Get(key); ok {
			e.log.Debug().Str("key", key[:12]).Msg("cache hit")
			return Result{Message: msg, Cached: true, Timing: Timing{Total: time.Since(start)}}, nil
		}
	}

	llmStart := time.Now()
	resp, err := e.Generator.Generate(ctx, llm.Request{
		SystemPrompt: msgs.System,
		UserPrompt:   msgs.User,
		Temperature:  e.Temperature,
	})
	if err != nil {
		return Result{}, fmt.Errorf("%s request: %w", e.Generator.Name(), err)
	}
	llmDur := time.Since(llmStart)

	msg := Clean(resp.Content)
	if msg == "" {
		return Result{}, ErrEmptyMessage
	}

	if e.Cache != nil {
		if err := e.Cache.Put(key, msg, e.Model); err != nil {
			e.log.Warn().Err(err).Msg("could not store message in cache")
		}
	}

	e.log.Info().
		Int("tokens", resp.TokensUsed).
		Dur("llm", llmDur).
		Msg("generated commit message")

	return Result{
		Message:    msg,
		TokensUsed: resp.TokensUsed,
		Timing:     Timing{LLM: llmDur, Total: time.Since(start)},
	}, nil
}

var labelPattern = regexp.MustCompile(`(?i)^\s*(suggested\s+)?commit\s+message\s*:\s*`)

// Clean normalizes a model reply into a bare commit message.
func Clean(content string) string {
	content = strings.TrimSpace(content)

	if strings.HasPrefix(content, "```") {
		lines := strings.Split(content, "\n")
		end := len(lines)
		if end > 1 && strings.TrimSpace(lines[end-1]) == "```" {
			end--
		}
		content = strings.TrimSpace(strings.Join(lines[1:end], "\n"))
	}

	content = labelPattern.ReplaceAllString(content, "")
	content = strings.TrimSpace(unquote(content))

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t\r")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func unquote(s string) string {
	if len(s) < 2 {
		return s
	}
	for _, q := range []string{`"`, "'", "`"} {
		if strings.HasPrefix(s, q) && strings.HasSuffix(s, q) {
			return s[1 : len(s)-1]
		}
	}
	return s
}
