package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/adfharrison1/go-campus/pkg/api"
	"github.com/adfharrison1/go-campus/pkg/indexing"
	"github.com/adfharrison1/go-campus/pkg/server"
	"github.com/adfharrison1/go-campus/pkg/storage"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the portal's datasets over HTTP",
	Long: `Serve the portal's datasets over HTTP until interrupted.

Requests identify the user through the X-User-Id and X-User-Role headers.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return runServe(ctx)
	},
}

func init() {
	serveCmd.Flags().String("port", "", "Server port")
	serveCmd.Flags().Int("page-size", 0, "Rows per page")
	bindFlag(serveCmd, "port", "port")
	bindFlag(serveCmd, "pageSize", "page-size")
}

func runServe(ctx context.Context) error {
	catalog, err := app.openCatalog(ctx, storage.WithReloadInterval(app.cfg.ReloadInterval))
	if err != nil {
		return err
	}
	defer catalog.Close()
	snapshotOpts, err := app.snapshotOptions()
	if err != nil {
		return err
	}

	indexer := indexing.NewIndexEngine()
	handler := api.NewHandler(app.portal(catalog),
		api.WithIndexEngine(indexer),
		api.WithDescriber(catalog),
		api.WithReloadNotifier(catalog),
		api.WithSnapshotOptions(snapshotOpts...),
		api.WithLogger(app.logger))

	app.logger.Info("serving datasets",
		zap.String("data_file", app.cfg.DataFile),
		zap.Strings("datasets", catalog.Names()),
		zap.String("port", app.cfg.Port))

	srv := server.NewServer(handler, app.logger)
	return srv.ListenAndServe(ctx, ":"+app.cfg.Port)
}
