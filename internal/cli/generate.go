package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/yzzting/commit-crafter/internal/cache"
	"github.com/yzzting/commit-crafter/internal/commitmsg"
	"github.com/yzzting/commit-crafter/internal/config"
	"github.com/yzzting/commit-crafter/internal/gitctx"
	"github.com/yzzting/commit-crafter/internal/llm"
	cclog "github.com/yzzting/commit-crafter/internal/log"
	"github.com/yzzting/commit-crafter/internal/prompt"
	"github.com/yzzting/commit-crafter/internal/redact"
	"github.com/yzzting/commit-crafter/internal/ui"
)

const defaultHistory = 5

var (
	flagHistory      int
	flagNoCache      bool
	flagRedact       bool
	flagMaxDiffBytes int
	flagExclude      []string
	flagDryRun       bool
)

func addGenerateFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&flagHistory, "history", defaultHistory, "Number of recent commit subjects sent as style examples")
	cmd.Flags().BoolVar(&flagNoCache, "no-cache", false, "Always call the endpoint; do not read or write the message cache")
	cmd.Flags().BoolVar(&flagRedact, "redact", false, "Scrub secrets and withhold sensitive files before sending the diff")
	cmd.Flags().IntVar(&flagMaxDiffBytes, "max-diff-bytes", 0, "Truncate the staged diff above this size (0 = no limit)")
	cmd.Flags().StringSliceVar(&flagExclude, "exclude", nil, "Additional paths to leave out of the diff (repeatable, comma-separated)")
	cmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "Print the request messages instead of calling the endpoint")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	logger := cclog.WithComponent("generate")
	git := newGit()

	if flagHistory < 0 {
		ui.Fail("--history must not be negative")
		exitCode = ExitUsageError
		return nil
	}

	paths, err := resolvePaths(ctx, git)
	if err != nil {
		ui.Fail("%v", err)
		exitCode = ExitRuntimeError
		return nil
	}
	if paths.FallbackReason != nil {
		logger.Info().Err(paths.FallbackReason).Str("dir", paths.Global).Msg("using global configuration")
	}

	cfg, err := config.Load(paths)
	if err != nil {
		ui.Fail("Loading config: %v", err)
		exitCode = ExitRuntimeError
		return nil
	}

	var (
		diff    gitctx.Diff
		history []string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		diff, err = git.StagedDiff(gctx, gitctx.DiffOptions{Exclude: splitComma(flagExclude), MaxBytes: flagMaxDiffBytes})
		return err
	})
	g.Go(func() error {
		var err error
		history, err = git.RecentCommits(gctx, flagHistory)
		return err
	})
	if err := g.Wait(); err != nil {
		ui.Fail("%v", err)
		exitCode = ExitRuntimeError
		return nil
	}

	if diff.Empty() {
		ui.Warn("No changes to commit")
		exitCode = ExitFailure
		return nil
	}
	if diff.Truncated {
		ui.Warn("Staged diff truncated to %d bytes", flagMaxDiffBytes)
	}
	logger.Debug().
		Int("files", len(diff.Files)).
		Int("bytes", len(diff.Text)).
		Int("history", len(history)).
		Msg("collected git context")

	tpl, err := prompt.Load(paths.Active)
	if err != nil {
		ui.Fail("Loading prompt: %v", err)
		exitCode = ExitRuntimeError
		return nil
	}

	in := commitmsg.Input{
		Diff:        diff.Text,
		Language:    cfg.UserLanguage,
		History:     history,
		Redact:      flagRedact,
		RedactPaths: redact.DefaultPaths,
	}

	if flagDryRun {
		engine := commitmsg.NewEngine(nil, nil, tpl, cfg.OpenAIModel)
		msgs, err := engine.Messages(in)
		if err != nil {
			ui.Fail("%v", err)
			exitCode = ExitRuntimeError
			return nil
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "### system\n%s\n\n### user\n%s", msgs.System, msgs.User)
		if !strings.HasSuffix(msgs.User, "\n") {
			fmt.Fprintln(out)
		}
		return nil
	}

	gen, err := llm.NewOpenAI(llm.Options{
		APIKey: cfg.OpenAIAPIKey,
		URL:    cfg.OpenAIURL,
		Model:  cfg.OpenAIModel,
	})
	if err != nil {
		ui.Fail("%v", err)
		if errors.Is(err, llm.ErrMissingCredentials) {
			ui.Info("Set them with: commit-crafter config set %s <KEY> and commit-crafter config set %s <URL>", config.KeyAPIKey, config.KeyURL)
			exitCode = ExitAuthError
			return nil
		}
		exitCode = ExitRuntimeError
		return nil
	}

	c, err := cache.New(!flagNoCache, cache.Dir(paths.Active), cache.DefaultTTL)
	if err != nil {
		logger.Warn().Err(err).Msg("cache unavailable")
		c = nil
	}

	engine := commitmsg.NewEngine(gen, c, tpl, gen.Model())
	res, err := engine.Generate(ctx, in)
	if err != nil {
		ui.Fail("%v", err)
		if llm.IsAuthError(err) {
			exitCode = ExitAuthError
		} else {
			exitCode = ExitFailure
		}
		return nil
	}
	logger.Debug().
		Bool("cached", res.Cached).
		Int("tokens", res.TokensUsed).
		Dur("total", res.Timing.Total).
		Msg("message ready")

	fmt.Fprintln(cmd.OutOrStdout(), res.Message)
	return nil
}

// splitComma flattens comma-separated values, trimming blanks.
func splitComma(values []string) []string {
	var result []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if p := strings.TrimSpace(part); p != "" {
				result = append(result, p)
			}
		}
	}
	return result
}
