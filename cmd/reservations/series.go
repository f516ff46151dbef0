package main

import (
	"fmt"

	"github.com/Freeeeeet/reservation_series/internal/model"
	"github.com/spf13/cobra"
)

type seriesView struct {
	Series       *model.RecurringSeries `json:"series"`
	Reservations []*model.Reservation   `json:"reservations"`
}

func newSeriesCmd() *cobra.Command {
	var id int64

	cmd := &cobra.Command{
		Use:   "series",
		Short: "Show a created series and its reservations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, cleanup, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			series, err := a.Series.GetByID(cmd.Context(), id)
			if err != nil {
				return err
			}
			if series == nil {
				return fmt.Errorf("recurring series %d not found", id)
			}

			reservations, err := a.Reservations.GetBySeriesID(cmd.Context(), id)
			if err != nil {
				return err
			}

			return writeJSON(cmd.OutOrStdout(), seriesView{Series: series, Reservations: reservations})
		},
	}

	cmd.Flags().Int64Var(&id, "id", 0, "recurring series id")
	_ = cmd.MarkFlagRequired("id")

	return cmd
}
