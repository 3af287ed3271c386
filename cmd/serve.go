package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"tidbyt.dev/gtfsstats/api"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serves segment and traffic views over HTTP",
	Args:  cobra.NoArgs,
	RunE:  serve,
}

var listenAddr string

func init() {
	serveCmd.Flags().StringVarP(&listenAddr, "listen", "l", "", "Address to listen on (defaults to config)")
	rootCmd.AddCommand(serveCmd)
}

func serve(cmd *cobra.Command, args []string) error {
	addr := cfg.Listen
	if listenAddr != "" {
		addr = listenAddr
	}

	manager := cfg.NewManager()
	src := source()

	// Warm the cache so that a broken snapshot fails at startup.
	if _, err := manager.LoadSnapshot(cmd.Context(), src); err != nil {
		return err
	}

	h := api.NewHandler(manager, src, api.Options{
		TrafficDir:    cfg.TrafficDir,
		BicycleKmh:    cfg.BicycleKmh,
		ServiceLabels: cfg.ServiceLabels,
	})
	r := h.Router()
	r.Use(loggingMiddleware)

	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Str("data", src.Location()).Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errc <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errc:
		return err
	case <-quit:
	}

	log.Info().Msg("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return err
	}

	log.Info().Msg("Server stopped")
	return nil
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Debug().
			Str("method", r.Method).
			Str("uri", r.RequestURI).
			Dur("took", time.Since(start)).
			Msg("Request")
	})
}
