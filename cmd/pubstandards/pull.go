package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"pubstandards/internal/upstream"
)

func newPullCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "pull",
		Short: "Mirror the upstream override document (data_url) into data_file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if cfg.DataURL == "" {
				return errors.New("data_url is not configured")
			}
			path := cfg.DataPath(ctx.configPath())
			mirror, err := upstream.NewMirror(cfg.DataURL, path)
			if err != nil {
				return err
			}
			res, err := mirror.Pull(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", path, res)
			return nil
		},
	}
}
