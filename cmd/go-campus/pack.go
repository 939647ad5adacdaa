package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/adfharrison1/go-campus/pkg/storage"
)

var packOutput string

var packCmd = &cobra.Command{
	Use:   "pack <fixtures.yaml>",
	Short: "Pack YAML fixtures into a compressed bundle the portal reads",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		collections, err := storage.LoadFixturesFile(args[0])
		if err != nil {
			return err
		}

		out := packOutput
		if out == "" {
			out = app.cfg.DataFile
		}
		if err := storage.WriteBundleFile(cmd.Context(), out, collections); err != nil {
			return err
		}

		records := 0
		for _, c := range collections {
			records += len(c.Records)
		}
		app.logger.Info("bundle written",
			zap.String("path", out),
			zap.Int("datasets", len(collections)),
			zap.Int("records", records))

		fmt.Fprintf(cmd.OutOrStdout(), "%s %d datasets, %d records -> %s\n",
			color.GreenString("packed"), len(collections), records, out)
		return nil
	},
}

func init() {
	packCmd.Flags().StringVarP(&packOutput, "output", "o", "", "Bundle path (defaults to the configured data file)")
}
