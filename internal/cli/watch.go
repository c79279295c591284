package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/dmitrijs2005/millkeeper/internal/repository"
	"github.com/dmitrijs2005/millkeeper/internal/scheduler"
	"github.com/dmitrijs2005/millkeeper/internal/timex"
)

const clearScreen = "\033[H\033[2J"

func (a *App) showDay(ctx context.Context, d timex.Date) error {
	records, src, err := a.repo.FetchDay(ctx, d)
	if err != nil {
		return err
	}
	printDay(a.out, d, records, src, a.cal, a.cfg.EuroPerKg)
	return nil
}

// syncJob mirrors on start and then every mirror interval. A run that
// finds another one in progress is skipped.
func (a *App) syncJob() scheduler.Job {
	return scheduler.Job{
		Name:       "mirror_and_cleanup",
		Interval:   a.cfg.MirrorInterval(),
		Timeout:    a.cfg.SyncTimeout(),
		RunOnStart: true,
		Run: func(ctx context.Context) error {
			_, err := a.repo.MirrorAndCleanup(ctx)
			return err
		},
		SkipIf: func(err error) bool { return errors.Is(err, repository.ErrSyncInProgress) },
	}
}

// refreshJob redraws the day every poll interval. When d is nil the
// current day is shown, so the view rolls over at midnight.
func (a *App) refreshJob(d *timex.Date) scheduler.Job {
	tty := isTerminal(a.out)
	return scheduler.Job{
		Name:       "refresh",
		Interval:   a.cfg.PollInterval(),
		Timeout:    a.cfg.RequestTimeout(),
		RunOnStart: true,
		Run: func(ctx context.Context) error {
			day := a.cal.Today()
			if d != nil {
				day = *d
			}
			records, src, err := a.repo.FetchDay(ctx, day)
			if err != nil {
				return err
			}
			if tty {
				fmt.Fprint(a.out, clearScreen)
			}
			printDay(a.out, day, records, src, a.cal, a.cfg.EuroPerKg)
			return nil
		},
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func newWatchCommand(o *rootOptions) *cobra.Command {
	var noSync bool
	cmd := &cobra.Command{
		Use:   "watch [YYYY-MM-DD|today]",
		Short: "Keep a day on screen and mirror the live database in the background",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.withApp(cmd, func(ctx context.Context, app *App) error {
				var pinned *timex.Date
				if len(args) == 1 && args[0] != "today" && args[0] != "oggi" {
					d, err := parseDay(app.cal, args)
					if err != nil {
						return err
					}
					pinned = &d
				}

				jobs := []scheduler.Job{app.refreshJob(pinned)}
				if !noSync {
					jobs = append(jobs, app.syncJob())
				}
				return scheduler.Run(ctx, app.logger, jobs...)
			})
		},
	}
	cmd.Flags().BoolVar(&noSync, "no-sync", false, "do not run the periodic mirror")
	return cmd
}
