package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"gwi.com/wishlist-assistant/internal/api"
	"gwi.com/wishlist-assistant/internal/config"
	"gwi.com/wishlist-assistant/internal/core"
	"gwi.com/wishlist-assistant/internal/logging"
	"gwi.com/wishlist-assistant/internal/store"
	"gwi.com/wishlist-assistant/internal/transport"
)

var storeBackend string

var rootCmd = &cobra.Command{
	Use:   "wishlist-assistant",
	Short: "Shopping assistant chat service",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		config.LoadConfig()
		if storeBackend != "" {
			config.AppConfig.StoreBackend = storeBackend
		}
		logging.Init(config.AppConfig.LogLevel)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context())
	},
}

var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Serve send requests over NATS",
	RunE: func(cmd *cobra.Command, args []string) error {
		return listen(cmd.Context())
	},
}

func main() {
	rootCmd.PersistentFlags().StringVar(&storeBackend, "store", "", "conversation store backend (memory, sqlite, bolt, redis)")
	rootCmd.AddCommand(listenCmd, chatCmd)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

// components holds everything the entry points share.
type components struct {
	sessions  *core.Sessions
	searcher  core.Searcher
	generator core.Generator
}

func (c *components) Close() {
	if closer, ok := c.generator.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing generator")
		}
	}
	if err := c.sessions.Close(); err != nil {
		log.Error().Err(err).Msg("Error closing store")
	}
}

func buildComponents(ctx context.Context, cfg config.Config) (*components, error) {
	kv, err := store.Open(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open conversation store")
	}

	generator, err := core.NewGenerator(ctx, cfg)
	if err != nil {
		// Titles and descriptions fall back without a generator.
		log.Warn().Err(err).Msg("Generator unavailable, using fallback titles")
	}

	searcher := core.NewSearchClient(cfg.SearchURL, cfg.HTTPClientTimeout)
	log.Info().
		Str("store", cfg.StoreBackend).
		Str("search_url", cfg.SearchURL).
		Msg("Components initialised")

	return &components{
		sessions:  core.NewSessions(kv, searcher, generator, cfg.DescriptionConcurrency, cfg.SessionCacheSize),
		searcher:  searcher,
		generator: generator,
	}, nil
}

func serve(ctx context.Context) error {
	cfg := config.AppConfig
	if cfg.JWTSecret == "" {
		return errors.New("JWT_SECRET environment variable is required")
	}

	c, err := buildComponents(ctx, cfg)
	if err != nil {
		return err
	}
	defer c.Close()

	apiHandler := api.NewAPIHandler(c.sessions, c.searcher, c.generator)
	router := api.NewRouter(apiHandler)

	serverAddr := fmt.Sprintf(":%s", cfg.HTTPPort)
	srv := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second, // search plus generation can be slow
		IdleTimeout:  120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", serverAddr).Msg("Starting server. Press Ctrl+C to quit.")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return errors.Wrapf(err, "could not listen on %s", serverAddr)
		}
		return nil
	case <-ctx.Done():
	}
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "server forced to shutdown")
	}

	log.Info().Msg("Server exiting gracefully")
	return nil
}

func listen(ctx context.Context) error {
	cfg := config.AppConfig

	c, err := buildComponents(ctx, cfg)
	if err != nil {
		return err
	}
	defer c.Close()

	nt, err := transport.NewNATSTransport(cfg, c.sessions)
	if err != nil {
		return err
	}
	defer nt.Close()

	if err := nt.Start(); err != nil {
		return err
	}

	<-ctx.Done()
	log.Info().Msg("Stopping NATS listener")
	return nil
}
