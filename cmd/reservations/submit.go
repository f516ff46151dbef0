package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/Freeeeeet/reservation_series/internal/service"
	"github.com/spf13/cobra"
)

// submitOptions что и как отправлять после планирования
type submitOptions struct {
	staffID int64
	details service.SeriesDetails
	exclude []time.Time
	force   bool
}

func newSubmitCmd() *cobra.Command {
	var (
		args    planArgs
		opts    submitOptions
		exclude []string
	)

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Plan a series and create it on the backend",
		RunE: func(cmd *cobra.Command, _ []string) error {
			req, err := args.request()
			if err != nil {
				return err
			}
			if opts.exclude, err = parseDates(exclude); err != nil {
				return err
			}

			a, cleanup, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			summary, err := submitSeries(cmd.Context(), a.Recurring, req, opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), summary)
		},
	}

	args.bind(cmd)
	f := cmd.Flags()
	f.Int64Var(&opts.staffID, "staff", 0, "staff user id")
	f.StringVar(&opts.details.Name, "name", "", "series name")
	f.StringVar(&opts.details.Description, "description", "", "series description")
	f.StringToStringVar(&opts.details.Metadata, "meta", nil, "reservation details, key=value")
	f.StringSliceVar(&exclude, "exclude", nil, "dates to leave out (YYYY-MM-DD)")
	f.BoolVar(&opts.force, "force", false, "submit even if some dates collide, skipping them")

	_ = cmd.MarkFlagRequired("name")

	return cmd
}

// submitSeries планирует серию, убирает исключённые даты и отправляет её.
// Пересечения, оставшиеся после исключения дат, останавливают отправку без force.
func submitSeries(ctx context.Context, svc *service.RecurringReservationService, req service.PlanRequest, opts submitOptions, stderr io.Writer) (*service.SubmissionSummary, error) {
	plan, err := svc.Plan(ctx, opts.staffID, req)
	if err != nil {
		return nil, err
	}
	if !plan.Validation.Valid() {
		return nil, fmt.Errorf("invalid series: %w", plan.Validation)
	}

	if len(opts.exclude) > 0 {
		if _, err := svc.RemoveInstances(opts.staffID, opts.exclude); err != nil {
			return nil, err
		}
		if plan, err = svc.CurrentPlan(opts.staffID); err != nil {
			return nil, err
		}
	}

	if plan.Overlapping > 0 && !opts.force {
		_ = writeJSON(stderr, plan)
		return nil, fmt.Errorf("%d reservations collide with existing ones, exclude their dates or rerun with --force to skip them", plan.Overlapping)
	}

	return svc.SubmitDraft(ctx, opts.staffID, opts.details)
}
