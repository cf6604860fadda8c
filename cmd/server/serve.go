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

	"github.com/spf13/cobra"

	"phonebook/internal/cache"
	"phonebook/internal/handlers"
	"phonebook/internal/service"
)

var port int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup()
		if err != nil {
			return err
		}
		defer a.Close()

		if cmd.Flags().Changed("port") {
			a.cfg.Server.Port = port
		}

		c := cache.New(time.Duration(a.cfg.Cache.TTLSeconds) * time.Second)
		svc := service.New(a.db, c, a.log)
		h := handlers.New(svc, a.db, a.auth, a.log)

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", a.cfg.Server.Port),
			Handler:           h.Routes(a.cfg.Server.StaticDir, a.cfg.Server.IndexFile),
			ReadHeaderTimeout: 10 * time.Second,
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		errCh := make(chan error, 1)
		go func() {
			a.log.Info().Str("addr", srv.Addr).Msg("starting phonebook server")
			a.log.Info().Msg("run with generate-link to create a writer login link")
			errCh <- srv.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server failed: %w", err)
			}
			return nil
		case <-ctx.Done():
		}

		a.log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&port, "port", "p", 2025, "Server port")
	rootCmd.AddCommand(serveCmd)
}
