package main

import (
	"github.com/spf13/cobra"

	"pubstandards/internal/export"
	appLog "pubstandards/internal/log"
	"pubstandards/internal/upstream"
	"pubstandards/internal/web"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var noExport bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API and keep the static export fresh",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			cal, err := ctx.ensureCalendar()
			if err != nil {
				return err
			}
			runCtx := cmd.Context()

			appLog.Info("pubstandards starting", "version", version, "listen", cfg.Listen)

			if !noExport {
				exp := export.New(cal, export.OptionsFromConfig(cfg))
				sched, err := export.NewScheduler(exp, cfg.Export.Refresh, cal.Series().Location(), cfg.DataPath(ctx.configPath()))
				if err != nil {
					return err
				}
				if cfg.DataURL != "" {
					mirror, err := upstream.NewMirror(cfg.DataURL, cfg.DataPath(ctx.configPath()))
					if err != nil {
						return err
					}
					pull := func() { _, _ = mirror.Pull(runCtx) }
					if err := sched.Every(cfg.DataRefresh, pull); err != nil {
						return err
					}
					pull()
				}
				// A failed first export is logged; the scheduler retries.
				_, _ = exp.Run("startup")
				if err := sched.Start(runCtx); err != nil {
					return err
				}
				defer sched.Stop()
			}

			err = web.StartServer(runCtx, cfg, cal)
			appLog.Info("pubstandards exiting")
			return err
		},
	}

	cmd.Flags().BoolVar(&noExport, "no-export", false, "Do not run the background scheduler (static export and upstream pulls)")
	return cmd
}
