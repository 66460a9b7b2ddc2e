package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/yzzting/commit-crafter/internal/config"
	"github.com/yzzting/commit-crafter/internal/hook"
	"github.com/yzzting/commit-crafter/internal/llm"
	"github.com/yzzting/commit-crafter/internal/ui"
)

const pingTimeout = 30 * time.Second

var flagSkipPing bool

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check git, configuration, hook and endpoint connectivity",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		git := newGit()
		failed := false
		fail := func(code int, format string, args ...any) {
			ui.Fail(format, args...)
			failed = true
			if exitCode == ExitSuccess || code == ExitAuthError {
				exitCode = code
			}
		}

		root, err := git.Root(ctx)
		if err != nil {
			ui.Warn("git: %v (global configuration only)", err)
		} else {
			ui.Success("git: repository at %s", root)
		}

		paths, err := resolvePaths(ctx, git)
		if err != nil {
			fail(ExitRuntimeError, "config: %v", err)
			return nil
		}
		scope := "global"
		if paths.IsProject() {
			scope = "project"
		}
		cfg, err := config.Load(paths)
		if err != nil {
			fail(ExitRuntimeError, "config: %v", err)
			return nil
		}
		ui.Success("config: %s (%s)", config.Path(paths.Active), scope)
		ui.Info("  %s: %s", config.KeyAPIKey, orUnset(config.MaskSecret(cfg.OpenAIAPIKey)))
		ui.Info("  %s: %s", config.KeyURL, orUnset(cfg.OpenAIURL))
		ui.Info("  %s: %s", config.KeyModel, orUnset(cfg.OpenAIModel))
		ui.Info("  %s: %s", config.KeyLanguage, orUnset(cfg.UserLanguage))

		if root != "" {
			if hooksDir, err := git.HooksDir(ctx); err != nil {
				fail(ExitRuntimeError, "hook: %v", err)
			} else if st, err := hook.Status(hooksDir); err != nil {
				fail(ExitRuntimeError, "hook: %v", err)
			} else {
				switch {
				case !st.Installed:
					ui.Warn("hook: not installed (run commit-crafter install)")
				case !st.Ours:
					ui.Warn("hook: %s exists but was not written by commit-crafter", st.Path)
				case !st.Executable:
					fail(ExitRuntimeError, "hook: %s is not executable", st.Path)
				default:
					ui.Success("hook: installed at %s", st.Path)
				}
			}
		}

		gen, err := llm.NewOpenAI(llm.Options{APIKey: cfg.OpenAIAPIKey, URL: cfg.OpenAIURL, Model: cfg.OpenAIModel})
		if err != nil {
			fail(ExitAuthError, "endpoint: %v", err)
			return nil
		}
		if flagSkipPing {
			ui.Info("endpoint: %s (ping skipped)", gen.Endpoint())
			return nil
		}

		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		defer cancel()
		_, err = gen.Generate(pingCtx, llm.Request{
			SystemPrompt: "Respond with exactly: ok",
			UserPrompt:   "ping",
		})
		if err != nil {
			if llm.IsAuthError(err) {
				fail(ExitAuthError, "endpoint: %v", err)
			} else {
				fail(ExitRuntimeError, "endpoint: %v", err)
			}
			return nil
		}
		ui.Success("endpoint: %s is responding (model %s)", gen.Endpoint(), gen.Model())

		if !failed {
			ui.Success("All checks passed")
		}
		return nil
	},
}

func orUnset(s string) string {
	if s == "" {
		return ui.Dim("(unset)")
	}
	return s
}

func init() {
	doctorCmd.Flags().BoolVar(&flagSkipPing, "skip-ping", false, "Do not send a test request to the endpoint")
}
