package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/adfharrison1/go-campus/pkg/campus"
	"github.com/adfharrison1/go-campus/pkg/domain"
	"github.com/adfharrison1/go-campus/pkg/snapshot"
)

// sessionOptions are the flags standing in for the session on the command line.
type sessionOptions struct {
	userID string
	role   string
}

var sessionFlags sessionOptions

func (s *sessionOptions) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&s.userID, "user", "cli", "User id")
	cmd.Flags().StringVar(&s.role, "role", "admin", "Role: student|faculty|admin")
}

// session resolves every command to the identity given by the flags.
func (s *sessionOptions) session() domain.SessionResolver {
	role := strings.ToLower(strings.TrimSpace(s.role))
	if role != "" && !strings.Contains(role, ":") {
		role += ":"
	}
	return campus.StaticSession{UserID: s.userID, Role: role}
}

// queryOptions mirror the inputs of a portal module: search box, category
// selectors and page.
type queryOptions struct {
	text    string
	filters []string
	page    int
}

func (q *queryOptions) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&q.text, "query", "q", "", "Free-text search")
	cmd.Flags().StringArrayVarP(&q.filters, "filter", "f", nil, "Structured filter field=value (repeatable)")
	cmd.Flags().IntVar(&q.page, "page", 1, "Page to export (snapshots of the current page only)")
}

// open mounts the named module with the flags applied.
func (q *queryOptions) open(ctx context.Context, portal *campus.Portal, name string) (*campus.Module[domain.Record], error) {
	id, err := sessionFlags.session().Current(ctx)
	if err != nil {
		return nil, err
	}
	module, err := portal.Open(id, name, 0)
	if err != nil {
		return nil, err
	}
	for _, f := range q.filters {
		field, value, ok := strings.Cut(f, "=")
		if !ok || field == "" {
			return nil, fmt.Errorf("invalid filter %q, want field=value", f)
		}
		module.SetFilter(field, value)
	}
	module.Search(q.text)
	module.SetPage(q.page)
	return module, nil
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a dataset as CSV or as a document snapshot",
}

var (
	csvQuery queryOptions
	csvTab   string
	csvDelim string
)

var exportCSVCmd = &cobra.Command{
	Use:   "csv <dataset>",
	Short: "Export a dataset's whole filtered view as CSV into the export directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog, err := app.openCatalog(cmd.Context())
		if err != nil {
			return err
		}
		module, err := csvQuery.open(cmd.Context(), app.portal(catalog), args[0])
		if err != nil {
			return err
		}

		artifact := module.ExportCSV(csvTab)
		saver := snapshot.NewDirSaver(app.cfg.ExportDir, app.logger)
		if err := saver.Save(cmd.Context(), artifact); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %d rows -> %s\n",
			color.GreenString("exported"), len(module.View()), saver.Path(artifact.Filename))
		return nil
	},
}

var (
	docQuery       queryOptions
	docAll         bool
	docOrientation string
	docPaper       string
	docMargin      float64
	docName        string
)

var exportDocCmd = &cobra.Command{
	Use:   "doc <dataset>",
	Short: "Export a snapshot of a dataset page as a paginated document",
	Long: `Export a snapshot of a dataset page as a paginated document.

When no document backend is available the snapshot is opened as an image in
the browser instead. When nothing is available a notice is printed.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog, err := app.openCatalog(cmd.Context())
		if err != nil {
			return err
		}
		module, err := docQuery.open(cmd.Context(), app.portal(catalog), args[0])
		if err != nil {
			return err
		}

		opts, err := app.snapshotOptions()
		if err != nil {
			return err
		}
		opts = append(opts,
			snapshot.WithViewer(snapshot.NewBrowserViewer()),
			snapshot.WithNotifier(snapshot.NewConsoleNotifier()))
		saver := snapshot.NewDirSaver(app.cfg.ExportDir, app.logger)
		exporter := snapshot.NewExporter(saver, opts...)

		var exportOpts []snapshot.ExportOption
		if docOrientation != "" {
			o, err := snapshot.ParseOrientation(docOrientation)
			if err != nil {
				return err
			}
			exportOpts = append(exportOpts, snapshot.WithOrientation(o))
		}
		if docPaper != "" {
			p, err := snapshot.ParsePaper(docPaper)
			if err != nil {
				return err
			}
			exportOpts = append(exportOpts, snapshot.WithPaper(p))
		}

		if cmd.Flags().Changed("margin") {
			exportOpts = append(exportOpts, snapshot.WithMargin(docMargin))
		}

		name := docName
		if name == "" {
			name = module.Name + "_snapshot"
		}
		res := exporter.ExportAndWait(cmd.Context(), module.Region(docAll), name, exportOpts...)

		out := cmd.OutOrStdout()
		switch res.State {
		case snapshot.StateDone:
			fmt.Fprintf(out, "%s %d pages via %s -> %s\n",
				color.GreenString("exported"), res.Pages, res.Backend, saver.Path(res.Artifact.Filename))
		case snapshot.StateDoneDegraded:
			fmt.Fprintf(out, "%s opened %s in the browser\n",
				color.YellowString("degraded"), res.Artifact.Filename)
		case snapshot.StateSkipped:
			fmt.Fprintln(out, color.YellowString("nothing to export"))
		default:
			return res.Err
		}
		return nil
	},
}

func init() {
	csvQuery.register(exportCSVCmd)
	sessionFlags.register(exportCSVCmd)
	exportCSVCmd.Flags().StringVar(&csvTab, "tab", "", "Tab name used in the filename (defaults to a timestamp)")

	docQuery.register(exportDocCmd)
	sessionFlags.register(exportDocCmd)
	exportDocCmd.Flags().BoolVar(&docAll, "all", false, "Snapshot the whole filtered view instead of one page")
	exportDocCmd.Flags().StringVar(&docOrientation, "orientation", "", "portrait|landscape (defaults to config)")
	exportDocCmd.Flags().StringVar(&docPaper, "paper", "", "a4|letter (defaults to config)")
	exportDocCmd.Flags().Float64Var(&docMargin, "margin", 0, "Page margin in millimetres (defaults to config)")
	exportDocCmd.Flags().StringVarP(&docName, "output", "o", "", "File name without extension")

	exportCmd.AddCommand(exportCSVCmd, exportDocCmd)
}
