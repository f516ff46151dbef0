package main

import (
	"fmt"
	"time"

	"github.com/Freeeeeet/reservation_series/internal/model"
	"github.com/Freeeeeet/reservation_series/internal/recurrence"
	"github.com/Freeeeeet/reservation_series/internal/service"
	"github.com/spf13/cobra"
)

const dateLayout = "2006-01-02"

// planArgs параметры серии в виде, удобном для флагов и JSON
type planArgs struct {
	Unit    int64  `json:"unit"`
	From    string `json:"from"`
	To      string `json:"to"`
	Start   string `json:"start"`
	End     string `json:"end"`
	Days    []int  `json:"days"`
	Pattern string `json:"pattern"`
	Type    string `json:"type,omitempty"`
}

func (p *planArgs) bind(cmd *cobra.Command) {
	f := cmd.Flags()
	f.Int64Var(&p.Unit, "unit", 0, "reservation unit id")
	f.StringVar(&p.From, "from", "", "first date of the series (YYYY-MM-DD)")
	f.StringVar(&p.To, "to", "", "last date of the series (YYYY-MM-DD)")
	f.StringVar(&p.Start, "start", "", "start time (HH:MM)")
	f.StringVar(&p.End, "end", "", "end time (HH:MM)")
	f.IntSliceVar(&p.Days, "days", nil, "weekdays, 0 = Monday ... 6 = Sunday")
	f.StringVar(&p.Pattern, "pattern", string(model.RepeatWeekly), "weekly or biweekly")
	f.StringVar(&p.Type, "type", string(model.ReservationTypeStaff), "reservation type")

	_ = cmd.MarkFlagRequired("unit")
}

func (p planArgs) request() (service.PlanRequest, error) {
	var in recurrence.Input

	if p.From != "" {
		d, err := time.Parse(dateLayout, p.From)
		if err != nil {
			return service.PlanRequest{}, fmt.Errorf("invalid from date %q (want YYYY-MM-DD)", p.From)
		}
		in.StartDate = d
	}
	if p.To != "" {
		d, err := time.Parse(dateLayout, p.To)
		if err != nil {
			return service.PlanRequest{}, fmt.Errorf("invalid to date %q (want YYYY-MM-DD)", p.To)
		}
		in.EndDate = d
	}
	resType := model.ReservationType(p.Type)
	if p.Type != "" && !resType.Valid() {
		return service.PlanRequest{}, fmt.Errorf("unknown reservation type %q (want staff, behalf, blocked or normal)", p.Type)
	}

	in.StartTime = p.Start
	in.EndTime = p.End
	in.Weekdays = p.Days
	in.Pattern = model.RepeatPattern(p.Pattern)

	return service.PlanRequest{
		ReservationUnitID: p.Unit,
		Input:             in,
		Type:              resType,
	}, nil
}

func newPlanCmd() *cobra.Command {
	var (
		args    planArgs
		staffID int64
	)

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Generate series dates and flag collisions with existing reservations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			req, err := args.request()
			if err != nil {
				return err
			}

			a, cleanup, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			res, err := a.Recurring.Plan(cmd.Context(), staffID, req)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), res)
		},
	}

	args.bind(cmd)
	cmd.Flags().Int64Var(&staffID, "staff", 0, "staff user id")

	return cmd
}
