package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yzzting/commit-crafter/internal/cache"
	"github.com/yzzting/commit-crafter/internal/ui"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the generated message cache",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all cached commit messages",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, ok := openCache(cmd)
		if !ok {
			return nil
		}
		removed, err := c.Clear()
		if err != nil {
			ui.Fail("Clearing cache: %v", err)
			exitCode = ExitRuntimeError
			return nil
		}
		ui.Success("Cache cleared (%d entries removed).", removed)
		return nil
	},
}

var cacheShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show cache statistics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, ok := openCache(cmd)
		if !ok {
			return nil
		}
		stats, err := c.Stats()
		if err != nil {
			ui.Fail("Reading cache stats: %v", err)
			exitCode = ExitRuntimeError
			return nil
		}
		data, err := json.MarshalIndent(stats, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

// openCache returns a handle on the active cache directory without creating
// it.
func openCache(cmd *cobra.Command) (*cache.Cache, bool) {
	paths, err := resolvePaths(cmd.Context(), newGit())
	if err != nil {
		ui.Fail("%v", err)
		exitCode = ExitRuntimeError
		return nil, false
	}
	c, err := cache.New(false, cache.Dir(paths.Active), cache.DefaultTTL)
	if err != nil {
		ui.Fail("Opening cache: %v", err)
		exitCode = ExitRuntimeError
		return nil, false
	}
	return c, true
}

func init() {
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheShowCmd)
}
