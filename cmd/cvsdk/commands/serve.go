package commands

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/commvault-ps/cvpysdk-sub001/internal/api"
	"github.com/commvault-ps/cvpysdk-sub001/internal/config"
	"github.com/commvault-ps/cvpysdk-sub001/internal/models"
	"github.com/commvault-ps/cvpysdk-sub001/internal/session"
	"github.com/commvault-ps/cvpysdk-sub001/internal/telemetry"
)

func newServeCommand(opts *rootOptions) *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the configured Commserves over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := opts.runtime(listen)
			if err != nil {
				return err
			}
			defer rt.Close(context.Background())
			return serve(cmd.Context(), rt)
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "HTTP listen address (default "+config.DefaultListen+")")
	return cmd
}

// serve registers every configured connection, checks that each one can log
// in, and runs the API until ctx is cancelled.
func serve(ctx context.Context, rt *session.Runtime) error {
	log := telemetry.Component(rt.Log, "serve")
	conns, err := rt.Config.Models()
	if err != nil {
		return err
	}

	store := models.NewConnectionStore()
	for _, conn := range conns {
		store.Create(conn)
		log.Info().Str("connection", conn.Name).Str("url", conn.BaseURL()).Msg("loaded connection")
		if _, err := rt.Connect(ctx, conn); err != nil {
			log.Warn().Err(err).Str("connection", conn.Name).Msg("login failed")
		} else {
			log.Info().Str("connection", conn.Name).Msg("login ok")
		}
	}

	server := &api.Server{
		Connections: store,
		Connect:     rt.Connect,
		Metrics:     rt.Metrics,
		Log:         telemetry.Component(rt.Log, "api"),
	}
	httpServer := &http.Server{
		Addr:              rt.Config.Listen,
		Handler:           api.NewRouter(server),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("listen", rt.Config.Listen).Msg("starting")
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Info().Msg("shutting down")
		return httpServer.Shutdown(shutdownCtx)
	}
}
