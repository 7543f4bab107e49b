package main

import (
	"fmt"
	"time"

	"github.com/sangkips/quickbill-api/internal/config"
	"github.com/spf13/cobra"
)

func newSweepCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep-overdue",
		Short: "Mark sent invoices past their due date as overdue",
		Long:  "Runs one overdue sweep, purges expired idempotency keys and exits. Suitable for cron.",
		RunE: func(cmd *cobra.Command, args []string) error {
			flush := initSentry(&cfg.Sentry)
			defer flush()

			a, err := buildApp(cfg)
			if err != nil {
				return err
			}
			defer a.close()

			result, err := a.invoices.SweepOverdue(cmd.Context())
			if err != nil {
				return err
			}

			purged, err := a.deps.IdempotencyRepo.DeleteExpired(cmd.Context(), time.Now())
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Scanned %d invoices, marked %d overdue, skipped %d\n",
				result.Scanned, result.Marked, result.Skipped)
			fmt.Fprintf(cmd.OutOrStdout(), "Purged %d expired idempotency keys\n", purged)
			return nil
		},
	}
}
