package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"activity-recap/internal/cache"
	"activity-recap/internal/config"
	"activity-recap/internal/provider"
	"activity-recap/internal/service"
)

// app is everything a command needs once configuration is loaded
type app struct {
	cfg     *config.Config
	session *cache.Session
	svc     *service.Service
	logger  *slog.Logger
}

var (
	v     = config.New()
	state = &app{}
)

var rootCmd = &cobra.Command{
	Use:   "activity-recap",
	Short: "Fitness recap for Strava and Intervals.icu",
	Long: `Build activity recaps from Strava or Intervals.icu.

Recaps are cached in a local sqlite file keyed by provider and window, so
repeated runs do not hit the provider API. Tokens are read from --token or
ACCESS_TOKEN; the OAuth code exchange happens outside this tool.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRunE: func(*cobra.Command, []string) error {
		if state.session != nil {
			return state.session.Close()
		}
		return nil
	},
}

func init() {
	// The client-side cache is on by default
	v.SetDefault("cache_backend", string(cache.BackendSQLite))

	flags := rootCmd.PersistentFlags()
	flags.String("env-file", config.DefaultFile, "Path to a dotenv file")
	flags.StringP("provider", "p", "", "Provider: strava or intervals (default: last used, then DEFAULT_PROVIDER)")
	flags.String("token", "", "Provider access token (env ACCESS_TOKEN)")
	flags.Int64("expires-at", 0, "Token expiry in epoch seconds (env TOKEN_EXPIRES_AT)")
	flags.String("cache-backend", "", "Cache backend: sqlite or memory or none")
	flags.String("cache-path", "", "Path to the sqlite cache file")
	flags.Bool("verbose", false, "Log provider requests to stderr")

	bind := map[string]string{
		"access_token":     "token",
		"token_expires_at": "expires-at",
		"cache_backend":    "cache-backend",
		"cache_path":       "cache-path",
	}
	for key, flag := range bind {
		if err := v.BindPFlag(key, flags.Lookup(flag)); err != nil {
			fmt.Fprintf(os.Stderr, "Error binding flag %s: %v\n", flag, err)
			os.Exit(1)
		}
	}

	rootCmd.AddCommand(recapCmd, profileCmd, disconnectCmd, cacheCmd)
	cacheCmd.AddCommand(cacheStatusCmd, cachePurgeCmd)
}

func setup(cmd *cobra.Command, _ []string) error {
	level := slog.LevelError
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = slog.LevelDebug
	}
	state.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(state.logger)

	envFile, _ := cmd.Flags().GetString("env-file")
	if err := config.ReadFile(v, envFile); err != nil {
		return err
	}
	cfg, err := config.FromViper(v)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	state.cfg = cfg

	session, err := service.OpenCache(cfg, state.logger)
	if err != nil {
		return err
	}
	state.session = session

	var rc cache.RecapCache
	if session != nil {
		purged, err := session.MigrateAppVersion(cmd.Context(), cfg.AppVersion)
		if err != nil {
			return fmt.Errorf("failed to migrate cache: %w", err)
		}
		if purged {
			fmt.Fprintln(os.Stderr, "Cache cleared after upgrade.")
		}
		rc = session
	}

	state.svc = service.New(service.NewRegistry(cfg, state.logger), rc, service.OptionsFromConfig(cfg), state.logger)
	return nil
}

// credentials reads the token from flags or the environment
func credentials() provider.Credentials {
	creds := provider.Credentials{AccessToken: v.GetString("access_token")}
	if exp := v.GetInt64("token_expires_at"); exp != 0 {
		creds.ExpiresAt = &exp
	}
	return creds
}

// providerArg resolves the provider flag, falling back to the provider the
// cache remembers from the last run
func providerArg(cmd *cobra.Command) (provider.ID, error) {
	raw, _ := cmd.Flags().GetString("provider")
	if raw == "" && state.session != nil {
		raw, _ = state.session.LoadProvider(cmd.Context())
	}
	id := state.svc.ProviderID(raw)
	if err := state.cfg.RequireProviderCredentials(id); err != nil {
		return "", err
	}
	return id, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

