package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/7divs7/mcp-hub/internal/config"
	"github.com/7divs7/mcp-hub/internal/dependency"
)

var (
	servePort    int
	serveConfig  string
	serveModels  string
	serveVerbose bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the mcp-hub gateway server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 8000, "HTTP listen port")
	serveCmd.Flags().StringVarP(&serveConfig, "config", "c", "mcp_servers.yaml", "Tool server config file")
	serveCmd.Flags().StringVarP(&serveModels, "models", "m", "models.yaml", "Models config file")
	serveCmd.Flags().BoolVarP(&serveVerbose, "verbose", "v", false, "Verbose logging")
}

func runServe(_ *cobra.Command, _ []string) error {
	setupLogging(serveVerbose)

	// API keys come from the environment; a .env file is a local convenience.
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, relying on system environment")
	}

	specs, err := config.LoadServers(serveConfig)
	if err != nil {
		return fmt.Errorf("load server config: %w", err)
	}

	c, err := dependency.New(dependency.Options{
		ServersPath: serveConfig,
		ModelsPath:  serveModels,
		Timeouts:    config.DefaultTimeouts(),
	})
	if err != nil {
		return fmt.Errorf("wire services: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sup := c.Supervisor()
	defer sup.StopAll()

	if len(specs) > 0 {
		slog.Info("starting tool servers", "count", len(specs))
		for name, st := range sup.StartAll(ctx, specs) {
			slog.Info("tool server", "server", name, "status", st.Status)
		}
	} else {
		slog.Info("no tool servers configured, waiting for upload")
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", servePort),
		Handler: c.API().Router(),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("gateway listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "gateway error: %v\n", err)
		return err
	}
	slog.Info("shutdown complete")
	return nil
}

func setupLogging(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}
