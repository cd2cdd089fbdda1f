package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"trello-project/web-client/config"
	"trello-project/web-client/handlers"
	"trello-project/web-client/logging"
	"trello-project/web-client/telemetry"
	"trello-project/web-client/workspace"
)

func serveCmd() *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the navigation routes",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if port != "" {
				cfg.ServerPort = port
			}
			return runServe(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVar(&port, "port", "", "listen port (overrides SERVER_PORT)")
	return cmd
}

func runServe(parent context.Context, cfg config.Config) error {
	logging.InitLogger(logging.Options{SystemName: cfg.ServiceName, File: cfg.LogFile, Level: cfg.LogLevel})

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing := telemetry.Setup(cfg.ServiceName)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			logging.Logger.Warnf("Event ID: OTEL_SHUTDOWN_ERROR, Description: %v", err)
		}
	}()

	manager := workspace.NewManager(cfg, backendTransport(cfg))
	sweepEvery := cfg.WorkspaceIdleTTL / 2
	if sweepEvery <= 0 {
		sweepEvery = time.Minute
	}
	go manager.Run(ctx, sweepEvery)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.ServerPort),
		Handler:           handlers.NewRouter(handlers.NewHandler(manager), cfg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Logger.Infof("Event ID: SERVER_START_INFO, Description: Server running on http://localhost%s, backend %s", server.Addr, cfg.APIURL)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logging.Logger.Errorf("Event ID: SERVER_FATAL_ERROR, Description: Server failed to start: %v", err)
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logging.Logger.Infof("Event ID: SERVER_SHUTDOWN, Description: Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	manager.Close()
	return nil
}
