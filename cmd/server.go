package cmd

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/truemediaorg/tiktokpost/api"
	"github.com/truemediaorg/tiktokpost/tracker"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func init() {
	rootCmd.AddCommand(serverCmd)
}

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Runs the tiktokpost HTTP API",
	Long:  `Runs the tiktokpost HTTP API, plus the publish status tracker when a publish log is configured`,
	Run: func(cmd *cobra.Command, args []string) {
		/*
			Graceful shutdown is possible with errgroup + signal.NotifyContext
			NotifyContext returns a context that will close on OS signals to terminate the process
			errgroup uses that context, and also closes it in case a goroutine errors out
		*/
		ctx, done := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer done()
		g, gCtx := errgroup.WithContext(ctx)

		cfg, tiktokService, db := setup(gCtx)
		if db != nil {
			defer db.Disconnect()

			tracker := tracker.NewTracker(tiktokService, db, cfg.TikTok.StatusInterval)
			g.Go(func() error {
				defer log.Info("exiting tracker")
				return tracker.Track(gCtx)
			})
		}

		server := api.NewServer(cfg.Server.Port, tiktokService)
		log.Infof("listening on %s", server.HTTPServer.Addr)

		g.Go(func() error {
			if err := server.HTTPServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return err
			}
			return nil
		})
		// ...and shut down the server if the process needs to terminate
		g.Go(func() error {
			<-gCtx.Done()
			defer log.Info("exiting server")
			return server.HTTPServer.Shutdown(context.Background())
		})

		if err := g.Wait(); err != nil {
			log.Errorf("caught error: %v", err)
			exitWithFailure(db)
		}
	},
}
