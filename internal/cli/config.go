package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/yzzting/commit-crafter/internal/config"
	"github.com/yzzting/commit-crafter/internal/ui"
)

var (
	flagConfigGlobal bool
	flagInitGlobal   bool
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage commit-crafter configuration",
	Long: "Configuration lives in config.toml inside a per-repository directory " +
		"(or the global directory outside a repository). Recognised keys: " +
		"openai_api_key, openai_url, openai_model, user_language.",
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
		exitCode = ExitUsageError
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]
		paths, err := resolvePaths(cmd.Context(), newGit())
		if err != nil {
			ui.Fail("%v", err)
			exitCode = ExitRuntimeError
			return nil
		}
		dir := paths.Active
		if flagConfigGlobal {
			dir = paths.Global
		}

		if err := config.Validate(key, value); err != nil {
			ui.Fail("%v", err)
			exitCode = ExitUsageError
			return nil
		}

		if _, err := os.Stat(config.Path(dir)); errors.Is(err, fs.ErrNotExist) {
			if _, err := initConfigDir(paths, dir); err != nil {
				ui.Fail("%v", err)
				exitCode = ExitRuntimeError
				return nil
			}
		}
		cfg, err := config.LoadFile(dir)
		if err != nil {
			ui.Fail("%v", err)
			exitCode = ExitRuntimeError
			return nil
		}
		if err := config.Set(&cfg, key, value); err != nil {
			ui.Fail("%v", err)
			exitCode = ExitUsageError
			return nil
		}
		if err := config.Save(dir, cfg); err != nil {
			ui.Fail("Saving config: %v", err)
			exitCode = ExitRuntimeError
			return nil
		}

		shown := value
		if key == config.KeyAPIKey {
			shown = config.MaskSecret(value)
		}
		ui.Success("Set %s = %s in %s", key, shown, config.Path(dir))
		if dir == paths.Global && paths.Project != "" {
			warnShadowed(paths.Project, key)
		}
		return nil
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print the effective value of a configuration key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, ok := loadEffective(cmd)
		if !ok {
			return nil
		}
		value, err := config.Get(cfg, args[0])
		if err != nil {
			ui.Fail("%v", err)
			exitCode = ExitUsageError
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), value)
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, ok := loadEffective(cmd)
		if !ok {
			return nil
		}
		for _, key := range config.Keys() {
			value, _ := config.Get(cfg, key)
			if key == config.KeyAPIKey {
				value = config.MaskSecret(value)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", key, value)
		}
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the active configuration file path",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		paths, err := resolvePaths(cmd.Context(), newGit())
		if err != nil {
			ui.Fail("%v", err)
			exitCode = ExitRuntimeError
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), config.Path(paths.Active))
		if paths.IsProject() {
			ui.Info("Project configuration; global defaults from %s", config.Path(paths.Global))
		} else {
			ui.Info("Global configuration")
		}
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the default configuration and prompt files",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		paths, err := resolvePaths(cmd.Context(), newGit())
		if err != nil {
			ui.Fail("%v", err)
			exitCode = ExitRuntimeError
			return nil
		}
		dir := paths.Active
		if flagInitGlobal {
			dir = paths.Global
		}
		created, err := initConfigDir(paths, dir)
		if err != nil {
			ui.Fail("%v", err)
			exitCode = ExitRuntimeError
			return nil
		}
		if created {
			ui.Success("Config file created at %s", config.Path(dir))
		} else {
			ui.Info("Config file already exists at %s", config.Path(dir))
		}
		return nil
	},
}

// initConfigDir creates dir's files, leaving project keys empty so they fall
// through to the global configuration.
func initConfigDir(paths config.Paths, dir string) (bool, error) {
	if paths.Project != "" && dir == paths.Project {
		return config.EnsureProjectInitialized(dir)
	}
	return config.EnsureInitialized(dir)
}

func warnShadowed(projectDir, key string) {
	project, err := config.LoadFile(projectDir)
	if err != nil {
		return
	}
	if value, _ := config.Get(project, key); value != "" {
		ui.Warn("%s is also set in %s, which takes precedence in this repository", key, config.Path(projectDir))
	}
}

func loadEffective(cmd *cobra.Command) (config.Config, bool) {
	paths, err := resolvePaths(cmd.Context(), newGit())
	if err != nil {
		ui.Fail("%v", err)
		exitCode = ExitRuntimeError
		return config.Config{}, false
	}
	cfg, err := config.Load(paths)
	if err != nil {
		ui.Fail("Loading config: %v", err)
		exitCode = ExitRuntimeError
		return config.Config{}, false
	}
	return cfg, true
}

func init() {
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configListCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configInitCmd)
	configSetCmd.Flags().BoolVarP(&flagConfigGlobal, "global", "g", false, "Write to the global configuration instead of the project one")
	configInitCmd.Flags().BoolVarP(&flagInitGlobal, "global", "g", false, "Initialize the global configuration directory")
}
