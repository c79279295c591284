package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/millkeeper/internal/buildinfo"
	"github.com/dmitrijs2005/millkeeper/internal/common"
	"github.com/dmitrijs2005/millkeeper/internal/config"
	"github.com/dmitrijs2005/millkeeper/internal/models"
)

func newDayCommand(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "day [YYYY-MM-DD|today]",
		Short: "Show the tickets of one day",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.withApp(cmd, func(ctx context.Context, app *App) error {
				d, err := parseDay(app.cal, args)
				if err != nil {
					return err
				}
				return app.showDay(ctx, d)
			})
		},
	}
}

func newPayCommand(o *rootOptions) *cobra.Command {
	var (
		origin string
		force  bool
	)
	cmd := &cobra.Command{
		Use:   "pay <id> <method>",
		Short: "Set the payment method of a ticket",
		Long: "Set the payment method of a ticket in the store named by --origin.\n" +
			"Known methods: Contanti, POS, Assegno, Olio. Pass \"\" to clear it.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			org, err := models.ParseOrigin(origin)
			if err != nil {
				return err
			}
			method, known := models.CanonicalPayment(args[1])
			if !known {
				if !force {
					return fmt.Errorf("%w: unknown payment method %q (use --any to force)", common.ErrValidation, args[1])
				}
				method = args[1]
			}
			return o.withApp(cmd, func(ctx context.Context, app *App) error {
				if err := app.repo.UpdatePayment(ctx, args[0], method, org); err != nil {
					return err
				}
				fmt.Fprintf(app.out, "payment of %s/%s set to %q\n", org, args[0], method)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&origin, "origin", "", "store owning the ticket: remote or local")
	cmd.Flags().BoolVar(&force, "any", false, "accept a payment method outside the known list")
	_ = cmd.MarkFlagRequired("origin")
	return cmd
}

func newDeleteCommand(o *rootOptions) *cobra.Command {
	var (
		origin string
		yes    bool
	)
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a ticket from the store that owns it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			org, err := models.ParseOrigin(origin)
			if err != nil {
				return err
			}
			return o.withApp(cmd, func(ctx context.Context, app *App) error {
				if !yes {
					ok, err := GetConfirmation(app.in, fmt.Sprintf("Delete %s/%s?", org, args[0]), app.out)
					if err != nil {
						return err
					}
					if !ok {
						fmt.Fprintln(app.out, "aborted")
						return nil
					}
				}
				if err := app.repo.DeleteRecord(ctx, args[0], org); err != nil {
					return err
				}
				fmt.Fprintf(app.out, "deleted %s/%s\n", org, args[0])
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&origin, "origin", "", "store owning the ticket: remote or local")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	_ = cmd.MarkFlagRequired("origin")
	return cmd
}

func newSyncCommand(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Mirror the live database into the archive and prune old tickets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return o.withApp(cmd, func(ctx context.Context, app *App) error {
				res, err := app.repo.MirrorAndCleanup(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(app.out, "mirrored %d, deleted %d\n", res.Mirrored, res.Deleted)
				return nil
			})
		},
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			buildinfo.PrintBuildData(cmd.OutOrStdout())
		},
	}
}

func newEnvCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "env",
		Short: "List the environment variables read by millkeeper",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), config.Usage())
			return nil
		},
	}
}
