package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/bibbank/lenderledger/internal/application/usecase"
	"github.com/bibbank/lenderledger/internal/infrastructure/scheduler"
)

func accrueCmd(setup setupFunc) *cobra.Command {
	var asOf string

	cmd := &cobra.Command{
		Use:   "accrue",
		Short: "Run the overdue-fine accrual once",
		Long: `Recomputes the fine of every late installment as of one calendar day.
Without --as-of the day is today in ACCRUAL_TIMEZONE. The run takes the same
lock as the in-process scheduler and is skipped while another run holds it.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger := setup()

			loc, err := time.LoadLocation(cfg.Accrual.Timezone)
			if err != nil {
				return fmt.Errorf("accrual timezone: %w", err)
			}
			st, err := openStore(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer st.close()

			locker, closeLocker := accrualLocker(cfg, logger)
			defer closeLocker()

			job := scheduler.NewAccrualJob(usecase.NewAccrueOverdueFinesUseCase(st.uow, logger), locker, cfg.Accrual.LockTTL, loc, logger)
			if asOf != "" {
				day, err := time.ParseInLocation(time.DateOnly, asOf, loc)
				if err != nil {
					return fmt.Errorf("--as-of must be YYYY-MM-DD: %w", err)
				}
				job.WithClock(func() time.Time { return day })
			}

			res, err := job.Run(cmd.Context())
			if err != nil {
				return err
			}
			if res.Skipped {
				fmt.Fprintln(cmd.OutOrStdout(), "skipped: another accrual run holds the lock")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "accrued as of %s: %d updated, %d changed, %d skipped\n",
				res.Accrual.AsOf.Format(time.DateOnly), res.Accrual.UpdatedCount, res.Accrual.ChangedCount, res.Accrual.SkippedCount)
			return nil
		},
	}
	cmd.Flags().StringVar(&asOf, "as-of", "", "Accrual date (YYYY-MM-DD)")
	return cmd
}
