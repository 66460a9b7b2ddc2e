package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/yzzting/commit-crafter/internal/config"
	"github.com/yzzting/commit-crafter/internal/gitctx"
	cclog "github.com/yzzting/commit-crafter/internal/log"
)

// version is overridden at build time with
// -ldflags "-X github.com/yzzting/commit-crafter/internal/cli.version=..."
var version = "0.1.0"

// Exit codes.
const (
	ExitSuccess      = 0
	ExitFailure      = 1
	ExitUsageError   = 2
	ExitAuthError    = 3
	ExitRuntimeError = 4
)

// exitCode is set by command handlers to control the process exit code.
var exitCode = ExitSuccess

var (
	flagLogLevel string
	flagLogJSON  bool
)

// newGit returns the git runner commands operate on. Tests chdir into a
// temporary repository instead of replacing it.
var newGit = func() *gitctx.Runner { return gitctx.New("") }

// executablePath is what the installed hook invokes.
var executablePath = func() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return exe, nil
}

var rootCmd = &cobra.Command{
	Use:   "commit-crafter",
	Short: "Generate git commit messages from staged changes",
	Long: "commit-crafter sends the staged diff and recent commit subjects to an " +
		"OpenAI-compatible endpoint and prints a commit message.\n\n" +
		"Run `commit-crafter install` inside a repository to generate messages " +
		"automatically on `git commit`.",
	Args: cobra.NoArgs,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cclog.Configure(cclog.Config{Level: flagLogLevel, JSON: flagLogJSON})
		logger := cclog.WithComponent("cli")
		logger.Debug().Str("command", cmd.CommandPath()).Str("version", version).Msg("starting")
	},
	RunE: runGenerate,
}

// Run executes the root command and returns an exit code.
func Run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return execute(ctx)
}

func execute(ctx context.Context) int {
	exitCode = ExitSuccess
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		// Cobra already prints the error
		return ExitUsageError
	}
	return exitCode
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print commit-crafter version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "commit-crafter version %s\n", version)
	},
}

// resolvePaths finds the configuration directories for the current
// repository, falling back to the global directory outside one.
func resolvePaths(ctx context.Context, git *gitctx.Runner) (config.Paths, error) {
	return config.Resolve(func() (string, error) { return git.Root(ctx) })
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level (debug, info, warn, error); defaults to $"+cclog.EnvLogLevel+" or warn")
	rootCmd.PersistentFlags().BoolVar(&flagLogJSON, "log-json", false, "Emit logs as JSON on stderr")
	addGenerateFlags(rootCmd)

	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(uninstallCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(versionCmd)
}
