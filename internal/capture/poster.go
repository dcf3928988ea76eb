// Package capture renders event cards to PNG posters with headless Chromium.
package capture

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"pubstandards/internal/config"
	appLog "pubstandards/internal/log"
)

// Default poster geometry, A-series portrait at screen resolution.
const (
	DefaultWidth   = 1240
	DefaultHeight  = 1754
	DefaultTimeout = 30 * time.Second
)

// readySelector is set by the card page once it has rendered.
const readySelector = `[data-ready="true"]`

// Options defines a single poster capture.
type Options struct {
	// URL of the card page, e.g. "http://127.0.0.1:8080/card/173".
	URL string

	// OutputPath is where the PNG is written.
	OutputPath string

	// Width and Height are the viewport in pixels; zero means the default.
	Width  int
	Height int

	// Timeout bounds the whole capture; zero means DefaultTimeout.
	Timeout time.Duration
}

// CardURL is the card page for event n on the server listening at listen.
func CardURL(listen string, n int) string {
	host := listen
	if strings.HasPrefix(host, ":") {
		host = "127.0.0.1" + host
	}
	if !strings.Contains(host, "://") {
		host = "http://" + host
	}
	return strings.TrimSuffix(host, "/") + "/card/" + strconv.Itoa(n)
}

// normalize validates opts and fills in defaults.
func (o Options) normalize() (Options, error) {
	if o.URL == "" {
		return o, errors.New("capture: URL is required")
	}
	if o.OutputPath == "" {
		return o, errors.New("capture: OutputPath is required")
	}
	if o.Width < 0 || o.Height < 0 {
		return o, fmt.Errorf("capture: bad viewport %dx%d", o.Width, o.Height)
	}
	if o.Width == 0 {
		o.Width = DefaultWidth
	}
	if o.Height == 0 {
		o.Height = DefaultHeight
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	return o, nil
}

// Poster navigates to opts.URL, waits for the card to report
// data-ready="true" and writes a full-page PNG screenshot.
func Poster(parentCtx context.Context, opts Options) error {
	opts, err := opts.normalize()
	if err != nil {
		return err
	}

	ctx, cancel := chromedp.NewContext(parentCtx)
	defer cancel()

	ctx, timeoutCancel := context.WithTimeout(ctx, opts.Timeout)
	defer timeoutCancel()

	var png []byte
	tasks := chromedp.Tasks{
		chromedp.EmulateViewport(int64(opts.Width), int64(opts.Height)),
		chromedp.Navigate(opts.URL),
		chromedp.WaitVisible(readySelector, chromedp.ByQuery),
		// Let web fonts finish painting.
		chromedp.Sleep(500 * time.Millisecond),
		chromedp.FullScreenshot(&png, 100),
	}

	started := time.Now()
	if err := chromedp.Run(ctx, tasks); err != nil {
		return fmt.Errorf("capture: chromedp run failed: %w", err)
	}

	if err := config.WriteFileAtomic(opts.OutputPath, png, 0o644); err != nil {
		return fmt.Errorf("capture: failed to write PNG: %w", err)
	}

	appLog.Info("poster captured",
		"url", opts.URL,
		"output", opts.OutputPath,
		"bytes", len(png),
		"duration", time.Since(started),
	)
	return nil
}
