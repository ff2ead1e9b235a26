package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"

	"activity-recap/internal/activity"
	"activity-recap/internal/provider"
	"activity-recap/internal/service"
)

var recapCmd = &cobra.Command{
	Use:   "recap",
	Short: "Print the recap for a window",
	Long: `Print totals, per-type breakdown, per-day effort and highlights.

Examples:
  # Last 30 days
  activity-recap recap --days 30

  # Last calendar year from Intervals.icu as JSON
  activity-recap recap -p intervals --type calendar --unit year --offset -1 --json`,
	Args: cobra.NoArgs,
	RunE: runRecap,
}

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show the connected athlete",
	Args:  cobra.NoArgs,
	RunE:  runProfile,
}

var disconnectCmd = &cobra.Command{
	Use:   "disconnect",
	Short: "Revoke access at the provider and clear the local cache",
	Args:  cobra.NoArgs,
	RunE:  runDisconnect,
}

func init() {
	flags := recapCmd.Flags()
	flags.String("type", string(activity.WindowRolling), "Window type: rolling or calendar")
	flags.Int("days", activity.DefaultDays, "Rolling window length in days (1-365)")
	flags.String("unit", string(activity.UnitMonth), "Calendar unit: month or year")
	flags.Int("offset", 0, "Calendar year offset, e.g. -1 for last year")
	flags.Bool("refresh", false, "Ignore the cached recap and fetch again")
	flags.Bool("json", false, "Print the recap as JSON")
}

// windowFromFlags runs the flags through the same parser as the HTTP API
func windowFromFlags(cmd *cobra.Command) activity.WindowParams {
	flags := cmd.Flags()
	typ, _ := flags.GetString("type")
	days, _ := flags.GetInt("days")
	unit, _ := flags.GetString("unit")
	offset, _ := flags.GetInt("offset")

	return activity.ParseWindowParams(url.Values{
		"type":   {typ},
		"days":   {strconv.Itoa(days)},
		"unit":   {unit},
		"offset": {strconv.Itoa(offset)},
	})
}

func runRecap(cmd *cobra.Command, _ []string) error {
	id, err := providerArg(cmd)
	if err != nil {
		return err
	}
	refresh, _ := cmd.Flags().GetBool("refresh")
	asJSON, _ := cmd.Flags().GetBool("json")

	res, err := state.svc.Recap(cmd.Context(), service.RecapRequest{
		Provider:    string(id),
		Credentials: credentials(),
		Window:      windowFromFlags(cmd),
		Refresh:     refresh,
	})
	if err != nil {
		return explain(err)
	}

	if state.session != nil {
		if err := state.session.SaveProvider(cmd.Context(), string(id)); err != nil {
			state.logger.Warn("Failed to remember provider", "error", err)
		}
	}

	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	return printRecap(cmd.OutOrStdout(), res)
}

func runProfile(cmd *cobra.Command, _ []string) error {
	id, err := providerArg(cmd)
	if err != nil {
		return err
	}

	profile, _, err := state.svc.Profile(cmd.Context(), string(id), credentials())
	if errors.Is(err, service.ErrNotConnected) && state.session != nil {
		// Offline: show what was stored on the last successful run
		if cached, ok := state.session.LoadProfile(cmd.Context()); ok {
			printProfile(cmd.OutOrStdout(), string(id), cached)
			fmt.Fprintln(cmd.ErrOrStderr(), "(cached, not connected)")
			return nil
		}
	}
	if err != nil {
		return explain(err)
	}

	if state.session != nil {
		if err := state.session.SaveProfile(cmd.Context(), profile); err != nil {
			state.logger.Warn("Failed to cache profile", "error", err)
		}
		if err := state.session.SaveProvider(cmd.Context(), string(id)); err != nil {
			state.logger.Warn("Failed to remember provider", "error", err)
		}
	}

	printProfile(cmd.OutOrStdout(), string(id), profile)
	return nil
}

func runDisconnect(cmd *cobra.Command, _ []string) error {
	id, err := providerArg(cmd)
	if err != nil {
		return err
	}

	_, revoked, err := state.svc.Disconnect(cmd.Context(), string(id), credentials())
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v\n", explain(err))
	}

	if state.session != nil {
		if err := state.session.Disconnect(cmd.Context()); err != nil {
			return fmt.Errorf("failed to clear cache: %w", err)
		}
	}

	if revoked {
		okColor.Fprintf(cmd.OutOrStdout(), "✓ Disconnected from %s, access revoked\n", id)
	} else {
		okColor.Fprintf(cmd.OutOrStdout(), "✓ Disconnected from %s\n", id)
	}
	return nil
}

// explain turns a service error into a message a user can act on
func explain(err error) error {
	if errors.Is(err, service.ErrNotConnected) {
		return errors.New("not connected: pass --token or set ACCESS_TOKEN")
	}

	var perr *provider.Error
	if !errors.As(err, &perr) {
		return err
	}

	msg := perr.Kind.Message()
	if perr.Kind == provider.KindRateLimited && perr.RateLimit != nil {
		msg += fmt.Sprintf(" (15 min usage %d/%d, daily %d/%d)",
			perr.RateLimit.Usage15Min, perr.RateLimit.Limit15Min,
			perr.RateLimit.UsageDaily, perr.RateLimit.LimitDaily)
	}
	slog.Debug("Provider call failed", "error", err)
	return errors.New(msg)
}
