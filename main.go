package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/tournevent/stashop/internal/server"
	"go.uber.org/zap"
)

var version = "0.0.1"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

var (
	useFixtures bool
	serveLive   bool
)

var rootCmd = &cobra.Command{
	Use:     "stashop",
	Short:   "PrestaShop web service client",
	Long:    "stashop reads and writes PrestaShop web service resources.\nThe shop is configured through PRESTASHOP_URL and PRESTASHOP_KEY.",
	Version: version,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve fixtures, or the configured shop with --live, read-only over HTTP",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&useFixtures, "fixtures", false, "answer from fixtures instead of the shop (same as USE_FIXTURES=true)")
	serveCmd.Flags().BoolVar(&serveLive, "live", false, "forward to PRESTASHOP_URL instead of fixtures (requires GATEWAY_TOKEN)")
	rootCmd.AddCommand(serveCmd)
	addResourceCommands(rootCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	// Load configuration
	cfg, err := loadGatewayConfig(serveLive)
	if err != nil {
		return err
	}

	// Initialize telemetry
	logger, err := initLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	_, tracerShutdown, err := initTracer(ctx, cfg)
	if err != nil {
		logger.Warn("Failed to initialize tracer", zap.Error(err))
	} else {
		defer tracerShutdown(ctx)
	}

	session := initSession(cfg, logger)

	logger.Info("Starting PrestaShop gateway",
		zap.Int("port", cfg.Port),
		zap.String("version", cfg.Version),
		zap.Bool("fixtures", cfg.UseFixtures),
		zap.Bool("token", cfg.GatewayToken != ""),
	)

	// Start HTTP server
	srv := server.New(server.Config{
		Port:     cfg.Port,
		Upstream: upstreamURL(cfg),
		Token:    cfg.GatewayToken,
	}, session, logger)
	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
