package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/Sternrassler/scjn-client/internal/export"
	"github.com/Sternrassler/scjn-client/pkg/client"
	"github.com/Sternrassler/scjn-client/pkg/config"
	"github.com/Sternrassler/scjn-client/pkg/logging"
	"github.com/Sternrassler/scjn-client/pkg/metrics"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// version is set at build time via ldflags.
var version = ""

func getVersion() string {
	if version != "" {
		return version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "(devel)"
}

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scjn",
		Short: "Client for the SCJN thesis search service",
		Long: `scjn queries the public thesis search service of the Mexican Supreme Court
(Suprema Corte de Justicia de la Nación).

Bulk commands (ids, ius) walk every result page with a bounded number of
concurrent requests and a minimum delay between them.

Configuration is read from $XDG_CONFIG_HOME/scjn/config.yaml or --config,
then from SCJN_* environment variables, then from flags.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringP("config", "c", "", "Configuration file (default: $XDG_CONFIG_HOME/scjn/config.yaml)")
	flags.String("base-url", "", "Override the service base URL")
	flags.String("redis-url", "", "Redis URL for document caching and shared cooldowns")
	flags.StringP("format", "f", string(export.FormatText), "Output format: text, json or markdown")
	flags.String("metrics-addr", "", "Expose Prometheus metrics on this address")
	flags.BoolP("verbose", "v", false, "Enable debug logging")

	cmd.AddCommand(newHealthCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newTesisCmd())
	cmd.AddCommand(newIDsCmd())
	cmd.AddCommand(newIUSCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// app holds what a subcommand needs, built from the resolved configuration.
type app struct {
	cfg    config.Config
	client *client.Client
	redis  *redis.Client
	out    export.Writer
	logger zerolog.Logger
}

// newApp resolves configuration and flags and creates the client.
func newApp(cmd *cobra.Command) (*app, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if err := applyFlags(cmd, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logCfg := cfg.Log
	logCfg.Output = cmd.ErrOrStderr()
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		logCfg.Level = logging.LevelDebug
	}
	logging.Setup(logCfg)
	logger := logging.NewLogger("scjn-cli")

	formatName, _ := cmd.Flags().GetString("format")
	format, err := export.ParseFormat(formatName)
	if err != nil {
		return nil, err
	}
	out, err := export.NewWriter(format, cmd.OutOrStdout())
	if err != nil {
		return nil, err
	}

	ctx := cmd.Context()
	rdb, err := cfg.OpenRedis(ctx)
	if err != nil {
		return nil, err
	}

	clientLogger := logging.NewLogger("scjn-client")
	c, err := client.New(cfg.ClientConfig(rdb, &clientLogger))
	if err != nil {
		if rdb != nil {
			_ = rdb.Close()
		}
		return nil, err
	}

	if cfg.MetricsAddr != "" {
		go func() {
			if err := metrics.Serve(ctx, cfg.MetricsAddr, logger); err != nil {
				logger.Warn().Err(err).Msg("Metrics server stopped")
			}
		}()
	}

	return &app{cfg: cfg, client: c, redis: rdb, out: out, logger: logger}, nil
}

// Close releases the client and Redis connection.
func (a *app) Close() {
	_ = a.client.Close()
	if a.redis != nil {
		_ = a.redis.Close()
	}
}

// applyFlags overrides configuration with flags the user set explicitly.
func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()

	strFlags := map[string]*string{
		"base-url":     &cfg.BaseURL,
		"redis-url":    &cfg.RedisURL,
		"metrics-addr": &cfg.MetricsAddr,
	}
	for name, dst := range strFlags {
		if flags.Changed(name) {
			v, err := flags.GetString(name)
			if err != nil {
				return err
			}
			*dst = v
		}
	}

	intFlags := map[string]*int{
		"page-size":      &cfg.PageSize,
		"max-concurrent": &cfg.MaxConcurrent,
	}
	for name, dst := range intFlags {
		if flags.Changed(name) {
			v, err := flags.GetInt(name)
			if err != nil {
				return err
			}
			*dst = v
		}
	}

	if flags.Changed("min-delay") {
		d, err := flags.GetDuration("min-delay")
		if err != nil {
			return err
		}
		cfg.MinDelay = d
	}
	if flags.Changed("reuse-probe") {
		v, err := flags.GetBool("reuse-probe")
		if err != nil {
			return err
		}
		cfg.ReuseProbe = v
	}

	return nil
}
