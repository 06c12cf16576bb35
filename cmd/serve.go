package cmd

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/KaramelBytes/askcsv/internal/server"
	"github.com/KaramelBytes/askcsv/internal/session"
	"github.com/spf13/cobra"
)

var (
	serveAddr    string
	serveOffline bool
	serveOrigins []string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve question sessions over HTTP",
	Example: `  askcsv serve -d data/creditcard.csv --addr :8080
  curl -X POST localhost:8080/sessions`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := ensureConfig()
		if err != nil {
			return err
		}
		model, err := modelFor(c, serveOffline)
		if err != nil {
			return err
		}
		ds, err := loadDataset(cmd.Context(), c)
		if err != nil {
			return err
		}
		addr := c.ServerAddr
		if cmd.Flags().Changed("addr") {
			addr = serveAddr
		}
		srv := server.New(ds, model, server.Options{
			Session:        session.Options{ClusterK: c.ClusterK, Logger: logger},
			AllowedOrigins: serveOrigins,
			Logger:         logger,
		})

		ctx, stop := signal.NotifyContext(cmdContext(cmd), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		if err := srv.ListenAndServe(ctx, addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	},
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides server_addr)")
	serveCmd.Flags().BoolVar(&serveOffline, "offline", false, "answer from local statistics only; no generative backend")
	serveCmd.Flags().StringSliceVar(&serveOrigins, "cors-origin", nil, "allowed CORS origins (default: any)")
}
