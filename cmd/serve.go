package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/underwrite/internal/api"
	"github.com/sells-group/underwrite/internal/config"
	"github.com/sells-group/underwrite/internal/store"
)

var servePort int

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve reports and reconciliations over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if servePort != 0 {
			cfg.Server.Port = servePort
		}

		st, err := openStore(ctx, cfg, "serve")
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:           buildHandler(st, cfg),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// buildHandler wires the API to st.
func buildHandler(st store.Store, c *config.Config) http.Handler {
	timeout := time.Duration(c.Rollup.FetchTimeoutSecs) * time.Second
	if timeout > 0 {
		timeout += 5 * time.Second
	}
	srv := api.NewServer(reportService(st, c), reconcileService(st, c), st, api.Options{
		AllowedOrigins:    c.Server.AllowedOrigins,
		RequestsPerSecond: c.Server.RequestsPerSecond,
		Burst:             c.Server.Burst,
		RequestTimeout:    timeout,
	})
	return srv.Handler()
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
