package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/adfharrison1/go-campus/pkg/storage"
)

var datasetsCmd = &cobra.Command{
	Use:   "datasets",
	Short: "List the datasets a role may open",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog, err := app.openCatalog(cmd.Context())
		if err != nil {
			return err
		}
		id, err := sessionFlags.session().Current(cmd.Context())
		if err != nil {
			return err
		}
		names, err := app.portal(catalog).Datasets(id)
		if err != nil {
			return err
		}

		bold := color.New(color.Bold).SprintFunc()
		out := cmd.OutOrStdout()
		for _, name := range names {
			info, ok := catalog.Info(name)
			if !ok {
				continue
			}
			state := color.HiBlackString("unloaded")
			if info.State == storage.CollectionStateLoaded {
				state = color.GreenString("loaded")
			}
			fmt.Fprintf(out, "%s %-16s %4d records  %s  [%s]\n",
				bold(fmt.Sprintf("%-10s", info.Name)), info.Title, info.RecordCount, strings.Join(info.Columns, ","), state)
		}
		return nil
	},
}

func init() {
	sessionFlags.register(datasetsCmd)
}
