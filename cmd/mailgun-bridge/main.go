// Package main is the entry point for the Mailgun-to-SES bridge.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/shineum/mailgun-ses-bridge/internal/config"
	"github.com/shineum/mailgun-ses-bridge/internal/dispatch"
	"github.com/shineum/mailgun-ses-bridge/internal/logging"
	"github.com/shineum/mailgun-ses-bridge/internal/provider"
	"github.com/shineum/mailgun-ses-bridge/internal/provider/graph"
	"github.com/shineum/mailgun-ses-bridge/internal/provider/resend"
	"github.com/shineum/mailgun-ses-bridge/internal/provider/ses"
	"github.com/shineum/mailgun-ses-bridge/internal/provider/stdout"
	"github.com/shineum/mailgun-ses-bridge/internal/server"
	bridgetls "github.com/shineum/mailgun-ses-bridge/internal/tls"
)

// defaultConfigFile is picked up from the working directory when present.
const defaultConfigFile = "config.json"

func main() {
	configPath := flag.String("config", "", "path to a YAML or JSON configuration file (optional)")
	flag.Parse()

	// Load configuration
	cfg, err := loadConfig(resolveConfigPath(*configPath))
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging
	logger := setupLogger(cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	tlsConfig, err := bridgetls.Load(cfg.TLS.CertFile, cfg.TLS.KeyFile)
	if err != nil {
		logger.Error("failed to setup TLS", "error", err)
		os.Exit(1)
	}

	// Select email delivery provider
	prov, err := selectProvider(context.Background(), cfg)
	if err != nil {
		logger.Error("failed to create provider", "provider", cfg.Provider, "error", err)
		os.Exit(1)
	}

	srv := server.New(server.ServerConfig{
		ListenAddr:    cfg.Addr(),
		Dispatcher:    dispatch.New(prov, logger),
		DefaultSender: cfg.DefaultSender,
		TLSConfig:     tlsConfig,
		Logger:        logger,
	})

	startup := []any{
		"listen", cfg.Addr(),
		"provider", prov.Name(),
		"log_level", cfg.LogLevel,
	}
	if cfg.Provider == config.ProviderSES {
		startup = append(startup, "aws_region", cfg.AWS.Region)
	}
	if cfg.DefaultSender != "" {
		startup = append(startup, "default_sender", cfg.DefaultSender)
	}
	logging.Minimal(logger, "starting mailgun-ses-bridge", startup...)

	// Setup graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	// Start the server (blocks until context is cancelled)
	if err := srv.ListenAndServe(ctx); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}

	logging.Minimal(logger, "mailgun-ses-bridge stopped")
}

// resolveConfigPath picks the configuration file: the -config flag, then
// CONFIG_FILE, then config.json in the working directory if it exists.
func resolveConfigPath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if v := os.Getenv("CONFIG_FILE"); v != "" {
		return v
	}
	if _, err := os.Stat(defaultConfigFile); err == nil {
		return defaultConfigFile
	}
	return ""
}

// loadConfig loads configuration from environment variables, merging the
// file at path over them when a path is given.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}

// setupLogger configures the global slog logger with JSON output at the
// configured verbosity. Unknown levels fall back to normal.
func setupLogger(level string) *slog.Logger {
	logLevel, err := logging.ParseLevel(level)
	logger := logging.New(os.Stdout, logLevel)
	slog.SetDefault(logger)

	if err != nil {
		logger.Warn("falling back to normal log level", "error", err)
	}
	return logger
}

// selectProvider builds the email delivery backend named by the configuration.
func selectProvider(ctx context.Context, cfg *config.Config) (provider.Provider, error) {
	switch cfg.Provider {
	case config.ProviderSES:
		p, err := ses.New(ctx, ses.SESProviderConfig{
			Region:          cfg.AWS.Region,
			AccessKeyID:     cfg.AWS.AccessKeyID,
			SecretAccessKey: cfg.AWS.SecretAccessKey,
			Sender:          cfg.DefaultSender,
		})
		if err != nil {
			return nil, err
		}
		return p, nil

	case config.ProviderGraph:
		return graph.New(graph.GraphProviderConfig{
			TenantID:     cfg.Graph.TenantID,
			ClientID:     cfg.Graph.ClientID,
			ClientSecret: cfg.Graph.ClientSecret,
			Sender:       cfg.Graph.Sender,
		}), nil

	case config.ProviderResend:
		return resend.New(resend.ResendProviderConfig{
			APIKey: cfg.Resend.APIKey,
			Sender: cfg.DefaultSender,
		}), nil

	case config.ProviderStdout:
		return stdout.New(), nil

	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}

