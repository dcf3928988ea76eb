package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"pubstandards/internal/capture"
	"pubstandards/internal/web"
)

func newPosterCommand(ctx *commandContext) *cobra.Command {
	var out string
	var width, height int

	cmd := &cobra.Command{
		Use:   "poster <number|numeral|slug>",
		Short: "Render an event card to a PNG with headless Chromium",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			cal, err := ctx.ensureCalendar()
			if err != nil {
				return err
			}
			ev, err := resolveEvent(cal, args[0])
			if err != nil {
				return err
			}
			n := ev.Ordinal()
			if n < 1 {
				return fmt.Errorf("event on %s has no number", ev.DateKey())
			}
			if out == "" {
				out = fmt.Sprintf("poster-%d.png", n)
			}

			// Serve the card from a private listener for the capture.
			ln, err := net.Listen("tcp", "127.0.0.1:0")
			if err != nil {
				return err
			}
			srv := &http.Server{
				Handler:           web.NewServer(cfg, cal, nil).Handler(),
				ReadHeaderTimeout: 10 * time.Second,
			}
			go func() {
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					fmt.Fprintln(cmd.ErrOrStderr(), err)
				}
			}()
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()
				_ = srv.Shutdown(shutdownCtx)
			}()

			err = capture.Poster(cmd.Context(), capture.Options{
				URL:        capture.CardURL(ln.Addr().String(), n),
				OutputPath: out,
				Width:      width,
				Height:     height,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "Output PNG path (default poster-<number>.png)")
	cmd.Flags().IntVar(&width, "width", 0, "Viewport width in pixels")
	cmd.Flags().IntVar(&height, "height", 0, "Viewport height in pixels")
	return cmd
}
