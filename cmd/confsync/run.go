package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/confsync/confsync/internal/gitsync"
	"github.com/confsync/confsync/internal/logging"
	"github.com/confsync/confsync/internal/reconcile"
	"github.com/confsync/confsync/internal/service"
)

const shutdownTimeout = 5 * time.Second

func newRunCommand(params *rootParams) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Reconcile the local directory with the remote and keep it in sync",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := params.load(cmd)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if log.Level() == logging.Debug {
				gitsync.InstallDebugTransport(log.With("component", "http"))
			}

			creds := credentials(cfg)

			repo, err := reconcile.New(cfg.RepositoryURI, cfg.LocalPath).
				WithCredentials(creds).
				WithIgnorePatterns(cfg.IgnorePatterns).
				WithLogger(log.With("component", "reconcile")).
				Reconcile(ctx)
			if err != nil {
				log.Errorf("Reconciliation failed: %v", err)
				return err
			}

			worker := service.NewSyncWorker(repo, log.With("component", "sync")).
				WithInterval(cfg.CheckPeriod()).
				WithIdentity(cfg.CommitterName, cfg.CommitterEmail)

			g, ctx := errgroup.WithContext(ctx)

			if cfg.MetricsAddress != "" {
				mux := http.NewServeMux()
				mux.Handle("/metrics", promhttp.Handler())
				srv := &http.Server{Addr: cfg.MetricsAddress, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

				g.Go(func() error {
					log.Infof("Serving metrics on %v.", cfg.MetricsAddress)
					if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						return err
					}
					return nil
				})

				g.Go(func() error {
					<-ctx.Done()
					shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
					defer cancel()
					return srv.Shutdown(shutdownCtx)
				})
			}

			g.Go(func() error {
				return worker.Run(ctx)
			})

			if err := g.Wait(); err != nil {
				log.Errorf("Exiting: %v", err)
				return err
			}

			log.Infof("Shut down.")
			return nil
		},
	}
}
