package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"pubstandards/internal/export"
)

func newExportCommand(ctx *commandContext) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write calendar.ics and events.json once",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			cal, err := ctx.ensureCalendar()
			if err != nil {
				return err
			}
			opts := export.OptionsFromConfig(cfg)
			if dir != "" {
				opts.Dir = dir
			}
			res, err := export.New(cal, opts).Run("cli")
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d events to %s (%s to %s)\n",
				res.Events, opts.Dir, res.Start.Format("2006-01-02"), res.End.Format("2006-01-02"))
			return nil
		},
	}

	cmd.Flags().StringVarP(&dir, "dir", "d", "", "Output directory (overrides export.dir)")
	return cmd
}
