package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yzzting/commit-crafter/internal/config"
	"github.com/yzzting/commit-crafter/internal/hook"
	"github.com/yzzting/commit-crafter/internal/ui"
)

var (
	flagInstallForce   bool
	flagUninstallForce bool
)

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Install the prepare-commit-msg hook in the current repository",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		git := newGit()

		hooksDir, err := git.HooksDir(ctx)
		if err != nil {
			ui.Fail("%v", err)
			exitCode = ExitRuntimeError
			return nil
		}

		paths, err := resolvePaths(ctx, git)
		if err != nil {
			ui.Fail("%v", err)
			exitCode = ExitRuntimeError
			return nil
		}
		if paths.FallbackReason != nil {
			ui.Warn("%v; using global configuration", paths.FallbackReason)
		}

		created, err := initConfigDir(paths, paths.Active)
		if err != nil {
			ui.Fail("Initializing config: %v", err)
			exitCode = ExitRuntimeError
			return nil
		}

		exe, err := executablePath()
		if err != nil {
			ui.Fail("Locating executable: %v", err)
			exitCode = ExitRuntimeError
			return nil
		}

		overwrote, err := hook.Install(hooksDir, exe, hook.Options{
			Force: flagInstallForce,
			Confirm: func(path string) bool {
				return ui.AskYesNo(fmt.Sprintf("%s already exists. Overwrite it?", path), false)
			},
		})
		if errors.Is(err, hook.ErrHookExists) {
			ui.Warn("Installation cancelled; the existing hook was kept")
			exitCode = ExitFailure
			return nil
		}
		if err != nil {
			ui.Fail("%v", err)
			exitCode = ExitRuntimeError
			return nil
		}

		if overwrote {
			ui.Success("Replaced %s hook at %s", hook.Name, hook.Path(hooksDir))
		} else {
			ui.Success("Installed %s hook at %s", hook.Name, hook.Path(hooksDir))
		}
		if created {
			ui.Info("Created configuration in %s", paths.Active)
		} else {
			ui.Info("Using configuration in %s", paths.Active)
		}

		cfg, err := config.Load(paths)
		if err == nil && (cfg.OpenAIAPIKey == "" || cfg.OpenAIURL == "") {
			ui.Info("Next: commit-crafter config set %s <KEY> and commit-crafter config set %s <URL>", config.KeyAPIKey, config.KeyURL)
		}
		return nil
	},
}

var uninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Remove the prepare-commit-msg hook from the current repository",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		hooksDir, err := newGit().HooksDir(cmd.Context())
		if err != nil {
			ui.Fail("%v", err)
			exitCode = ExitRuntimeError
			return nil
		}

		err = hook.Uninstall(hooksDir, hook.Options{Force: flagUninstallForce})
		switch {
		case errors.Is(err, hook.ErrHookNotFound):
			ui.Fail("No %s hook found at %s", hook.Name, hook.Path(hooksDir))
			exitCode = ExitFailure
			return nil
		case errors.Is(err, hook.ErrForeignHook):
			ui.Fail("%v; rerun with --force to remove it anyway", err)
			exitCode = ExitFailure
			return nil
		case err != nil:
			ui.Fail("%v", err)
			exitCode = ExitRuntimeError
			return nil
		}

		ui.Success("Removed %s hook from %s", hook.Name, hooksDir)
		return nil
	},
}

func init() {
	installCmd.Flags().BoolVarP(&flagInstallForce, "force", "f", false, "Overwrite an existing hook without asking")
	uninstallCmd.Flags().BoolVarP(&flagUninstallForce, "force", "f", false, "Remove the hook even if another tool wrote it")
}
