package main

import (
	"context"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/adfharrison1/go-campus/internal/config"
	"github.com/adfharrison1/go-campus/internal/logging"
	"github.com/adfharrison1/go-campus/pkg/campus"
	"github.com/adfharrison1/go-campus/pkg/snapshot"
	"github.com/adfharrison1/go-campus/pkg/storage"
)

var rootCmd = &cobra.Command{
	Use:   "go-campus",
	Short: "University portal record sets, CSV export and document snapshots",
	Long: `go-campus serves the portal's record sets (courses, fees, library,
exam results, timetable) filtered, paginated and exported per role.

Configuration comes from defaults, an optional config file, an optional
.env.<env> file and CAMPUS_* environment variables, in increasing priority.
Flags win over all of them.

Examples:
  # Pack the sample fixtures into a bundle
  go-campus pack fixtures/campus.yaml -o data/campus.campus

  # Serve the bundle
  go-campus serve --port 8080

  # Export the overdue fees of a student as CSV
  go-campus export csv fees --role student --filter status=Overdue`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if noColor {
			color.NoColor = true
		}
		cfg, err := config.Load(v, configFile, envDir)
		if err != nil {
			return err
		}
		logger, err := logging.New(logging.Options{
			File:       cfg.LogFile,
			Level:      cfg.LogLevel,
			Production: cfg.IsProduction(),
		})
		if err != nil {
			return err
		}
		app = &appContext{cfg: cfg, logger: logger}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if app != nil {
			_ = app.logger.Sync()
		}
	},
}

var (
	v          = config.New()
	configFile string
	envDir     string
	noColor    bool

	app *appContext
)

type appContext struct {
	cfg    *config.Config
	logger *zap.Logger
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configFile, "config", "c", "", "Config file (yaml, json or toml)")
	flags.StringVar(&envDir, "env-dir", ".", "Directory holding .env.<env> files")
	flags.BoolVar(&noColor, "no-color", false, "Disable colors")
	flags.String("data-file", "", "Bundle file to read datasets from")
	flags.String("log-level", "", "Log level: debug|info|warn|error")
	flags.String("log-file", "", "Also write JSON logs to this rotating file")

	_ = v.BindPFlag("dataFile", flags.Lookup("data-file"))
	_ = v.BindPFlag("logLevel", flags.Lookup("log-level"))
	_ = v.BindPFlag("logFile", flags.Lookup("log-file"))

	rootCmd.AddCommand(serveCmd, packCmd, exportCmd, datasetsCmd)
}

// bindFlag binds a command flag to a config key; only flags the user set override.
func bindFlag(cmd *cobra.Command, key, flag string) {
	_ = v.BindPFlag(key, cmd.Flags().Lookup(flag))
}

// openCatalog opens the configured bundle.
func (a *appContext) openCatalog(ctx context.Context, options ...storage.CatalogOption) (*storage.Catalog, error) {
	options = append([]storage.CatalogOption{
		storage.WithCacheSize(a.cfg.CacheSize),
		storage.WithLogger(a.logger),
	}, options...)
	return storage.OpenCatalog(ctx, a.cfg.DataFile, options...)
}

func (a *appContext) portal(source *storage.Catalog) *campus.Portal {
	return campus.NewPortal(source,
		campus.WithPageSize(a.cfg.PageSize),
		campus.WithLogger(a.logger))
}

// snapshotOptions turns the snapshot config into exporter options.
func (a *appContext) snapshotOptions() ([]snapshot.Option, error) {
	sc := a.cfg.Snapshot
	docs, rasters, err := snapshot.ParseBackends(sc.Backends, snapshot.DefaultRegistry)
	if err != nil {
		return nil, err
	}
	paper, err := snapshot.ParsePaper(sc.Paper)
	if err != nil {
		return nil, err
	}
	orientation, err := snapshot.ParseOrientation(sc.Orientation)
	if err != nil {
		return nil, err
	}
	return []snapshot.Option{
		snapshot.WithDocumentProviders(docs...),
		snapshot.WithRasterProviders(rasters...),
		snapshot.WithScale(sc.Scale),
		snapshot.WithPageSetup(snapshot.PageSetup{Paper: paper, Orientation: orientation, Margin: sc.Margin}),
		snapshot.WithLogger(a.logger),
	}, nil
}
