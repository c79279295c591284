package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/millkeeper/internal/buildinfo"
	"github.com/dmitrijs2005/millkeeper/internal/common"
	"github.com/dmitrijs2005/millkeeper/internal/config"
	"github.com/dmitrijs2005/millkeeper/internal/timex"
)

type (
	loadFunc    func(path string, o config.Overrides) (*config.Config, error)
	factoryFunc func(ctx context.Context, cfg *config.Config, s Streams) (*App, error)
)

type rootOptions struct {
	load    loadFunc
	factory factoryFunc

	configPath    string
	hybridDays    int
	retentionDays int
	archive       string
	logFormat     string
	logLevel      string
	httpAddr      string
}

// NewRootCommand builds the millkeeper command tree.
func NewRootCommand() *cobra.Command {
	return newRootCommand(config.Load, NewApp)
}

func newRootCommand(load loadFunc, factory factoryFunc) *cobra.Command {
	o := &rootOptions{load: load, factory: factory}

	root := &cobra.Command{
		Use:           "millkeeper",
		Short:         "Olive mill weighing tickets across the live database and the local archive",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       buildinfo.Version(),
	}

	f := root.PersistentFlags()
	f.StringVarP(&o.configPath, "config", "c", "", "path to the YAML or JSON config file")
	f.IntVar(&o.hybridDays, "hybrid-days", 0, "days back still served from the live database")
	f.IntVar(&o.retentionDays, "retention-days", 0, "days kept in the live database after mirroring")
	f.StringVar(&o.archive, "archive", "", "path of the SQLite archive")
	f.StringVar(&o.logFormat, "log-format", "", "log format: text, json or zap")
	f.StringVar(&o.logLevel, "log-level", "", "log level: debug, info, warn or error")
	f.StringVar(&o.httpAddr, "http-addr", "", "listen address for serve")

	root.AddCommand(
		newDayCommand(o),
		newWatchCommand(o),
		newPayCommand(o),
		newDeleteCommand(o),
		newSyncCommand(o),
		newServeCommand(o),
		newEnvCommand(),
		newVersionCommand(),
	)
	return root
}

// overrides collects only the flags the user actually set.
func (o *rootOptions) overrides(cmd *cobra.Command) config.Overrides {
	var ov config.Overrides
	flags := cmd.Flags()
	if flags.Changed("hybrid-days") {
		ov.HybridDays = &o.hybridDays
	}
	if flags.Changed("retention-days") {
		ov.RetentionDays = &o.retentionDays
	}
	if flags.Changed("archive") {
		ov.ArchiveDB = &o.archive
	}
	if flags.Changed("log-format") {
		ov.LogFormat = &o.logFormat
	}
	if flags.Changed("log-level") {
		ov.LogLevel = &o.logLevel
	}
	if flags.Changed("http-addr") {
		ov.HTTPAddr = &o.httpAddr
	}
	return ov
}

// withApp loads the configuration, assembles the App and runs fn with it.
func (o *rootOptions) withApp(cmd *cobra.Command, fn func(ctx context.Context, app *App) error) error {
	cfg, err := o.load(o.configPath, o.overrides(cmd))
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	app, err := o.factory(ctx, cfg, Streams{
		In:  cmd.InOrStdin(),
		Out: cmd.OutOrStdout(),
		Err: cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}
	defer func() {
		if cerr := app.Close(); cerr != nil {
			app.logger.Warn(ctx, "failed to close app", "error", cerr)
		}
	}()

	return fn(ctx, app)
}

// parseDay accepts YYYY-MM-DD, "today" or nothing.
func parseDay(cal *timex.Calendar, args []string) (timex.Date, error) {
	if len(args) == 0 || args[0] == "today" || args[0] == "oggi" {
		return cal.Today(), nil
	}
	d, err := timex.ParseDate(args[0])
	if err != nil {
		return timex.Date{}, fmt.Errorf("%w: bad date %q, want YYYY-MM-DD", common.ErrValidation, args[0])
	}
	return d, nil
}
