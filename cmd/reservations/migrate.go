package main

import (
	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	var down bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cleanup, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			migrator, err := a.Migrator()
			if err != nil {
				return err
			}
			defer migrator.Close()

			if down {
				return migrator.Down(cmd.Context())
			}
			return migrator.Run(cmd.Context())
		},
	}

	cmd.Flags().BoolVar(&down, "down", false, "roll back the last migration instead")

	return cmd
}
