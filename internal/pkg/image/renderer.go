// Package image converts the dashboard into PNG images, either as a screenshot of the HTML page
// taken by a headless browser, or by rasterizing charts directly.
package image

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"

	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/device"
)

// Renderer knows how to take a screenshot from a HTML or SVG input and writes it as PNG.
type Renderer struct {
	options

	l *slog.Logger
}

// New builds an image [Renderer] from HTML.
func New(opts ...Option) *Renderer {
	return &Renderer{
		options: optionsWithDefaults(opts),
		l:       slog.Default().With(slog.String("module", "image")),
	}
}

// Render a PNG image as a screenshot from a HTML input [io.Reader].
func (r *Renderer) Render(ctx context.Context, dest io.Writer, source io.Reader) error {
	content, err := io.ReadAll(source)
	if err != nil {
		return fmt.Errorf("read content: %w", err)
	}

	return r.render(ctx, dest, "text/html", content)
}

// RenderSVG takes a PNG screenshot of a standalone SVG document.
func (r *Renderer) RenderSVG(ctx context.Context, dest io.Writer, source io.Reader) error {
	var page bytes.Buffer
	page.WriteString(`<!DOCTYPE html><html><body style="margin:0;background:white">`)
	if _, err := io.Copy(&page, source); err != nil {
		return fmt.Errorf("read content: %w", err)
	}
	page.WriteString(`</body></html>`)

	return r.render(ctx, dest, "text/html", page.Bytes())
}

func (r *Renderer) render(ctx context.Context, dest io.Writer, mediaType string, content []byte) error {
	screenshot, err := r.screenshot(ctx, mediaType, content)
	if err != nil {
		return fmt.Errorf("taking screenshot: %w", err)
	}

	_, err = dest.Write(screenshot)
	if err != nil {
		return fmt.Errorf("writing screenshot: %w", err)
	}

	r.l.Info("screenshot taken", slog.Int("bytes", len(screenshot)), slog.Duration("sleep", r.SleepDuration))

	return nil
}

func (r *Renderer) screenshot(parent context.Context, mediaType string, content []byte) ([]byte, error) {
	timeoutCtx, cancelTimeout := context.WithTimeout(parent, r.Timeout)
	defer cancelTimeout()

	ctx, cancel := chromedp.NewContext(timeoutCtx)
	defer cancel()

	// base64 keeps '#' in css colors from being taken as a URL fragment
	url := "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(content)
	const qualityPNG = 100 // 100 to force PNG

	var screenshot []byte
	err := chromedp.Run(ctx,
		chromedp.Emulate(device.Info{
			Height:    r.Height,
			Width:     r.Width,
			Landscape: true,
		}),
		chromedp.Navigate(url),
		chromedp.Sleep(r.SleepDuration), // echarts animations need some time to complete
		chromedp.FullScreenshot(&screenshot, qualityPNG),
	)
	if err != nil {
		return nil, err
	}

	return screenshot, nil
}
