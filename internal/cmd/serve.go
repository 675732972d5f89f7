package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"shop-service/internal/cache"
	"shop-service/internal/handler"
	"shop-service/internal/server"
	"shop-service/pkg/config"
	"shop-service/pkg/database"
	"shop-service/pkg/imagestore"
	"shop-service/pkg/jwtutil"
	"shop-service/pkg/logger"
	"shop-service/pkg/password"
	"shop-service/prometheus"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	log.Info("Starting shop service...", cfg.LogConfig()...)

	// Initialize database
	if err := database.InitDB(cfg); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	log.Info("Database connection established")

	if err := imagestore.Initialize(&cfg.Cloudinary); err != nil {
		return fmt.Errorf("failed to initialize image store: %w", err)
	}
	if !cfg.Cloudinary.Enabled() {
		log.Warn("Cloudinary credentials missing, product photo uploads are disabled")
	}

	if err := cache.Initialize(&cfg.Redis, cfg.ServiceName); err != nil {
		// The catalog still works from the database.
		log.Warn("Catalog cache disabled", zap.Error(err))
	}

	prometheus.InitMetrics(cfg)

	e := server.New(log)

	go func() {
		log.Info("Starting server", zap.String("port", cfg.Server.Port))
		if err := e.Start(":" + cfg.Server.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// One operation: the library runs map entries concurrently, and the
	// stores must outlive requests that are still draining.
	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		cfg.Server.ShutdownTimeout,
		map[string]gfshutdown.Operation{
			"http-server": stopSequence(log, e.Shutdown,
				resource{name: "cache", close: cache.Close},
				resource{name: "database", close: database.Close},
			),
		},
	)

	exitCode := <-wait
	log.Info("Shop service stopped", zap.Int("exit_code", exitCode))
	if exitCode != 0 {
		os.Exit(exitCode)
	}
	return nil
}

// resource is a backing store closed after the HTTP server has drained
type resource struct {
	name  string
	close func() error
}

// stopSequence drains the HTTP server, then closes the resources in order.
// Close errors are logged and joined so every resource still gets closed.
func stopSequence(log *zap.Logger, drain func(context.Context) error, resources ...resource) gfshutdown.Operation {
	return func(ctx context.Context) error {
		log.Info("Shutting down HTTP server")
		err := drain(ctx)
		if err != nil {
			log.Error("HTTP server shutdown failed", zap.Error(err))
		}

		for _, r := range resources {
			if cerr := r.close(); cerr != nil {
				log.Error("Failed to close resource", zap.String("resource", r.name), zap.Error(cerr))
				err = errors.Join(err, cerr)
				continue
			}
			log.Info("Closed resource", zap.String("resource", r.name))
		}
		return err
	}
}

// bootstrap loads the configuration and sets up the process-wide singletons
// every command needs.
func bootstrap() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger.InitLogger(cfg)
	password.SetCost(cfg.Auth.BcryptCost)
	jwtutil.Initialize(&cfg.JWT)
	handler.SetOTPTTL(cfg.Auth.OTPTTL)

	return cfg, logger.GetLogger(), nil
}
