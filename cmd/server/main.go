package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/joshdurbin/url-mapper/internal/config"
	"github.com/joshdurbin/url-mapper/internal/logging"
	"github.com/joshdurbin/url-mapper/internal/repository"
	"github.com/joshdurbin/url-mapper/internal/service"
	"github.com/joshdurbin/url-mapper/internal/transport/client"
	httpTransport "github.com/joshdurbin/url-mapper/internal/transport/http"
)

const shutdownTimeout = 30 * time.Second

var rootCmd = &cobra.Command{
	Use:           "url-mapper",
	Short:         "A URL mapping service written in Go",
	Long:          "Maps caller-chosen short codes to URLs, counts every resolution, and serves them over HTTP backed by SQLite, PostgreSQL, Redis or memory",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the URL mapping server",
	RunE:  runServer,
}

var clientCmd = &cobra.Command{
	Use:   "client",
	Short: "Client commands for interacting with the server",
}

var createCmd = &cobra.Command{
	Use:   "create [URL] [SHORT_CODE]",
	Short: "Map a short code to a URL",
	Args:  cobra.ExactArgs(2),
	RunE: withCommands(func(ctx context.Context, c *client.Commands, args []string) error {
		return c.Create(ctx, args[0], args[1])
	}),
}

var getCmd = &cobra.Command{
	Use:   "get [SHORT_CODE]",
	Short: "Resolve a short code (counts as an access)",
	Args:  cobra.ExactArgs(1),
	RunE: withCommands(func(ctx context.Context, c *client.Commands, args []string) error {
		return c.Get(ctx, args[0])
	}),
}

var updateCmd = &cobra.Command{
	Use:   "update [SHORT_CODE] [URL]",
	Short: "Point a short code at a new URL",
	Args:  cobra.ExactArgs(2),
	RunE: withCommands(func(ctx context.Context, c *client.Commands, args []string) error {
		return c.Update(ctx, args[0], args[1])
	}),
}

var deleteCmd = &cobra.Command{
	Use:   "delete [SHORT_CODE]",
	Short: "Delete a short code",
	Args:  cobra.ExactArgs(1),
	RunE: withCommands(func(ctx context.Context, c *client.Commands, args []string) error {
		return c.Delete(ctx, args[0])
	}),
}

var statsCmd = &cobra.Command{
	Use:   "stats [SHORT_CODE]",
	Short: "Show a short code's record and access count",
	Args:  cobra.ExactArgs(1),
	RunE: withCommands(func(ctx context.Context, c *client.Commands, args []string) error {
		return c.Stats(ctx, args[0])
	}),
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all mappings",
	Args:  cobra.NoArgs,
	RunE: withCommands(func(ctx context.Context, c *client.Commands, args []string) error {
		return c.List(ctx)
	}),
}

func init() {
	registerServerFlags(serverCmd.Flags(), config.Default())

	clientCmd.PersistentFlags().StringP("server-url", "u", config.Default().Server.ServerURL, "Server URL (default $SERVER_URL)")

	clientCmd.AddCommand(createCmd, getCmd, updateCmd, deleteCmd, statsCmd, listCmd)
	rootCmd.AddCommand(serverCmd, clientCmd)
}

func registerServerFlags(flags *pflag.FlagSet, defaults *config.Config) {
	flags.StringP("config", "c", "", "Path to a YAML config file (default $CONFIG_PATH or ./config.yaml)")
	flags.String("host", defaults.Server.Host, "Listen host")
	flags.StringP("port", "p", defaults.Server.Port, "Listen port")
	flags.String("db-driver", defaults.Database.Driver, "Store driver: sqlite, postgres, redis or memory")
	flags.String("db-path", defaults.Database.Path, "SQLite database file path")
	flags.String("database-url", "", "PostgreSQL connection string")
	flags.Int("max-connections", defaults.Database.MaxOpenConns, "Maximum open store connections")
	flags.Duration("acquire-timeout", defaults.Database.AcquireTimeout, "How long an operation waits for a pooled connection")
	flags.String("redis-addr", defaults.Redis.Address, "Redis address")
	flags.String("log-level", defaults.Logging.Level, "Log level: trace, debug, info, warn or error")
	flags.String("log-format", defaults.Logging.Format, "Log format: json or console")
	flags.BoolP("verbose", "v", false, "Enable verbose logging (HTTP request and error bodies)")
	flags.Bool("metrics", defaults.Metrics.Enabled, "Expose Prometheus metrics")
}

// applyFlags copies explicitly set flags over the loaded configuration
func applyFlags(flags *pflag.FlagSet, cfg *config.Config) {
	if flags.Changed("host") {
		cfg.Server.Host, _ = flags.GetString("host")
	}
	if flags.Changed("port") {
		cfg.Server.Port, _ = flags.GetString("port")
	}
	if flags.Changed("db-driver") {
		cfg.Database.Driver, _ = flags.GetString("db-driver")
	}
	if flags.Changed("db-path") {
		cfg.Database.Path, _ = flags.GetString("db-path")
	}
	if flags.Changed("database-url") {
		cfg.Database.DSN, _ = flags.GetString("database-url")
		if !flags.Changed("db-driver") {
			cfg.Database.Driver = config.DriverPostgres
		}
	}
	if flags.Changed("max-connections") {
		cfg.Database.MaxOpenConns, _ = flags.GetInt("max-connections")
	}
	if flags.Changed("acquire-timeout") {
		cfg.Database.AcquireTimeout, _ = flags.GetDuration("acquire-timeout")
	}
	if flags.Changed("redis-addr") {
		cfg.Redis.Address, _ = flags.GetString("redis-addr")
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level, _ = flags.GetString("log-level")
	}
	if flags.Changed("log-format") {
		cfg.Logging.Format, _ = flags.GetString("log-format")
	}
	if flags.Changed("verbose") {
		cfg.Logging.Verbose, _ = flags.GetBool("verbose")
	}
	if flags.Changed("metrics") {
		cfg.Metrics.Enabled, _ = flags.GetBool("metrics")
	}
}

func loadConfig(flags *pflag.FlagSet) (*config.Config, error) {
	path, _ := flags.GetString("config")

	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	applyFlags(flags, cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := logging.New(logging.Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format}, os.Stdout)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	logger.Info().
		Str("host", cfg.Server.Host).
		Str("port", cfg.Server.Port).
		Str("driver", cfg.Database.Driver).
		Msg("starting URL mapper server")

	startCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	store, err := openStore(startCtx, cfg, logging.Component(logger, "store"))
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error().Err(err).Msg("error closing store")
		}
	}()

	server := httpTransport.NewServer(newHandler(store, logger), httpTransport.Options{
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		Verbose:        cfg.Logging.Verbose,
		MetricsEnabled: cfg.Metrics.Enabled,
		MetricsPath:    cfg.Metrics.Path,
	}, logger)

	return serve(server, logger)
}

// newHandler wires the mapping service and HTTP handlers over store. Each layer
// tags logger with its own component.
func newHandler(store repository.Store, logger zerolog.Logger) *httpTransport.Handler {
	return httpTransport.NewHandler(service.NewMappingService(store, logger), store, logger)
}

// serve runs the server until it fails or a shutdown signal arrives
func serve(server *httpTransport.Server, logger zerolog.Logger) error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	errChan := make(chan error, 1)
	go func() {
		errChan <- server.Start()
	}()

	select {
	case err := <-errChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	case sig := <-sigChan:
		logger.Info().Str("signal", sig.String()).Msg("received signal, shutting down gracefully")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("error during server shutdown")
		}
	}

	logger.Info().Msg("server stopped")
	return nil
}

// withCommands builds the client for a subcommand and runs it with a timeout
func withCommands(run func(ctx context.Context, c *client.Commands, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		serverURL, _ := cmd.Flags().GetString("server-url")
		if !cmd.Flags().Changed("server-url") {
			if env := os.Getenv("SERVER_URL"); env != "" {
				serverURL = env
			}
		}

		commands := client.NewCommands(client.NewClient(serverURL), cmd.OutOrStdout())

		parent := cmd.Context()
		if parent == nil {
			parent = context.Background()
		}
		ctx, cancel := context.WithTimeout(parent, 10*time.Second)
		defer cancel()

		return run(ctx, commands, args)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
