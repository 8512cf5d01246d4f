package main

import (
	"encoding/json"

	"github.com/go-faster/errors"
	"github.com/spf13/cobra"

	"github.com/staffing-api/internal/domain"
	"github.com/staffing-api/internal/scheduler"
)

func newPassCmd(envFile *string) *cobra.Command {
	var (
		name string
		date string
	)

	cmd := &cobra.Command{
		Use:   "pass",
		Short: "Run scheduler passes once for a date (all passes when --pass is empty)",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(cmd.Context(), *envFile)
			if err != nil {
				return err
			}
			defer a.close()

			if err := a.withMessaging(cmd.Context()); err != nil {
				return err
			}

			day := a.clock.Today()
			if date != "" {
				if day, err = domain.ParseDate(date); err != nil {
					return errors.Wrapf(err, "invalid --date %q", date)
				}
			}

			passes := a.passes()
			runner := scheduler.NewRunner(passes, a.locker(), a.clock, a.cfg.Scheduler, a.log)

			var reports []*scheduler.PassReport
			for _, p := range passes {
				if name != "" && p.Name() != scheduler.PassName(name) {
					continue
				}
				report, err := runner.RunPass(cmd.Context(), p.Name(), day)
				if err != nil {
					return err
				}
				reports = append(reports, report)
			}
			if len(reports) == 0 {
				return errors.Errorf("unknown pass %q", name)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(reports)
		},
	}
	cmd.Flags().StringVar(&name, "pass", "", "activation | termination | temporary_completion")
	cmd.Flags().StringVar(&date, "date", "", "date in YYYY-MM-DD, defaults to today in the scheduler timezone")
	return cmd
}
