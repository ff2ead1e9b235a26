package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var errCacheDisabled = errors.New("cache is disabled (CACHE_BACKEND=none)")

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the local recap cache",
	Long: `Manage the local cache of recaps, profile and provider.

Subcommands:
  status - Show backend, location and entry counts
  purge  - Remove cached recaps (or everything with --all)`,
}

var cacheStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show cache statistics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if state.session == nil {
			return errCacheDisabled
		}
		st, err := state.session.Status(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to read cache status: %w", err)
		}
		return printCacheStatus(cmd.OutOrStdout(), state.session.Prefix(), st)
	},
}

var cachePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Remove cached recaps",
	Long: `Remove cached recaps for every schema version. With --all the stored
profile and provider are removed too, as on disconnect.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if state.session == nil {
			return errCacheDisabled
		}
		all, _ := cmd.Flags().GetBool("all")

		var err error
		if all {
			err = state.session.Disconnect(cmd.Context())
		} else {
			err = state.session.InvalidatePrefix(cmd.Context(), state.session.Prefix()+":recap:")
		}
		if err != nil {
			return fmt.Errorf("failed to purge cache: %w", err)
		}

		okColor.Fprintln(cmd.OutOrStdout(), "✓ Cache purged")
		return nil
	},
}

func init() {
	cachePurgeCmd.Flags().Bool("all", false, "Also remove the stored profile and provider")
}
