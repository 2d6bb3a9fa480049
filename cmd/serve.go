package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/transcriptd/transcriptd/internal"
)

var (
	serveListen string
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve merged session timelines over HTTP",
	Long: `Start the HTTP API:

  GET /api/transcript/session/{sessionId}   Merged timeline for a session
  GET /api/health                           Store reachability

Timelines are rebuilt from the object store on every request; nothing is
cached between requests.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		store, err := cfg.OpenStore()
		if err != nil {
			return fmt.Errorf("failed to open store: %w", err)
		}

		addr := cfg.Listen
		if serveListen != "" {
			addr = serveListen
		}

		server := newServer(store, cfg.Store.Prefix, cfg.Store.Backend)
		srv := &http.Server{Addr: addr, Handler: server.routes()}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
		defer stop()

		errCh := make(chan error, 1)
		go func() {
			internal.LogInfo("HTTP server listening on %s (backend=%s prefix=%s)",
				addr, cfg.Store.Backend, cfg.Store.Prefix)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				errCh <- err
			}
		}()

		select {
		case err := <-errCh:
			return fmt.Errorf("HTTP server error: %w", err)
		case <-ctx.Done():
		}

		internal.LogInfo("Received shutdown signal, stopping...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "Listen address (overrides config)")
}
