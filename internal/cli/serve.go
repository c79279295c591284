package cli

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrijs2005/millkeeper/internal/api"
	"github.com/dmitrijs2005/millkeeper/internal/models"
	"github.com/dmitrijs2005/millkeeper/internal/scheduler"
)

var (
	todayRecords = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "millkeeper_today_records",
		Help: "Number of tickets recorded today.",
	})
	todayKg = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "millkeeper_today_kg",
		Help: "Total weight in kg recorded today.",
	})
)

// gaugeJob keeps the today gauges current.
func (a *App) gaugeJob() scheduler.Job {
	return scheduler.Job{
		Name:       "today_gauges",
		Interval:   a.cfg.PollInterval(),
		Timeout:    a.cfg.RequestTimeout(),
		RunOnStart: true,
		Run: func(ctx context.Context) error {
			records, _, err := a.repo.FetchDay(ctx, a.cal.Today())
			if err != nil {
				return err
			}
			sum := models.Summarize(records, a.cfg.EuroPerKg)
			todayRecords.Set(float64(sum.Count))
			todayKg.Set(sum.TotalKg)
			return nil
		},
	}
}

// serve runs the HTTP API next to the background jobs until ctx ends or
// one of them fails.
func (a *App) serve(ctx context.Context, withSync bool) error {
	handler := api.NewHandler(a.repo, a.cal, a.cfg.EuroPerKg, a.logger)
	srv := api.NewServer(a.cfg.HTTP.Addr, handler.Routes(), a.logger)

	jobs := []scheduler.Job{a.gaugeJob()}
	if withSync {
		jobs = append(jobs, a.syncJob())
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Run(gctx) })
	g.Go(func() error { return scheduler.Run(gctx, a.logger, jobs...) })
	return g.Wait()
}

func newServeCommand(o *rootOptions) *cobra.Command {
	var noSync bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON API and metrics, mirroring in the background",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return o.withApp(cmd, func(ctx context.Context, app *App) error {
				return app.serve(ctx, !noSync)
			})
		},
	}
	cmd.Flags().BoolVar(&noSync, "no-sync", false, "do not run the periodic mirror")
	return cmd
}
