package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kozaktomas/snapx/internal/config"
	"github.com/kozaktomas/snapx/internal/logger"
	"github.com/kozaktomas/snapx/internal/metrics"
	"github.com/kozaktomas/snapx/internal/storage"
	"github.com/kozaktomas/snapx/internal/web"
	"github.com/kozaktomas/snapx/internal/web/middleware"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web server",
	Long: `Start the SnapX API server.
Organizers manage collections and upload photos through the authenticated
API; guests read collection metadata and search for their face.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 0, "Port to listen on (default from WEB_PORT or 8080)")
	serveCmd.Flags().String("host", "", "Host to bind to (default from WEB_HOST or 0.0.0.0)")
	serveCmd.Flags().Bool("migrate", true, "Apply pending store migrations before serving")
}

// applyServeFlags lets explicit flags override the environment.
func applyServeFlags(cmd *cobra.Command, cfg *config.Config) {
	if port := mustGetInt(cmd, "port"); port > 0 {
		cfg.Server.Port = port
	}
	if host := mustGetString(cmd, "host"); host != "" {
		cfg.Server.Host = host
	}
}

func logMigrations(log *zap.Logger, applied []string) {
	for _, version := range applied {
		log.Info("applied migration", zap.String("version", version))
	}
	if len(applied) == 0 {
		log.Debug("store schema is up to date")
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	applyServeFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("connecting to store", zap.String("driver", cfg.Database.Driver))
	b, err := openBackends(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer b.Close()

	if mustGetBool(cmd, "migrate") {
		applied, err := b.store.Migrate(ctx)
		if err != nil {
			return fmt.Errorf("applying migrations: %w", err)
		}
		logMigrations(log, applied)
	}

	m := metrics.New(true)
	b.service.WithMetrics(m)

	var media http.Handler
	if local, ok := b.objects.(*storage.LocalStore); ok {
		media = local.Handler()
	}

	server := web.NewServer(cfg, web.Options{
		Service:  b.service,
		Verifier: middleware.NewTokenVerifier(cfg.Auth.TokenSecret),
		Metrics:  m,
		Logger:   log,
		Media:    media,
	})

	go func() {
		<-ctx.Done()
		fmt.Println("\nShutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("error during shutdown", zap.Error(err))
		}
	}()

	fmt.Printf("Starting SnapX on http://%s:%d\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Println("Press Ctrl+C to stop")

	if err := server.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	return nil
}
