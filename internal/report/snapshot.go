// SPDX-License-Identifier: AGPL-3.0-only
package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/png"
	"log/slog"
	"net/http"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/fluffyriot/skillboard/internal/metrics"
	"github.com/go-pdf/fpdf"
	"github.com/google/uuid"
)

var ErrQuickExportDisabled = errors.New("quick export is disabled")

const (
	snapshotTimeout  = 45 * time.Second
	snapshotSelector = "#dashboard"
	pxToMM           = 25.4 / 96
)

// Snapshotter renders the live dashboard page in headless Chrome and wraps
// the screenshot in a single-page PDF.
type Snapshotter struct {
	enabled    bool
	chromePath string
	baseURL    string
	reportName string
	logger     *slog.Logger
}

func NewSnapshotter(enabled bool, chromePath, baseURL, reportName string, logger *slog.Logger) *Snapshotter {
	return &Snapshotter{
		enabled:    enabled,
		chromePath: chromePath,
		baseURL:    baseURL,
		reportName: reportName,
		logger:     logger.With("component", "report.Snapshotter"),
	}
}

func (s *Snapshotter) Enabled() bool {
	return s != nil && s.enabled
}

// Snapshot loads path (e.g. "/analytics?tab=posts") as the owner of the
// given session cookie.
func (s *Snapshotter) Snapshot(ctx context.Context, cookie *http.Cookie, path string) (doc Document, err error) {
	if !s.Enabled() {
		return Document{}, ErrQuickExportDisabled
	}
	start := time.Now()
	defer func() { metrics.ObserveReport(StrategyQuick, start, err) }()

	shot, err := s.capture(ctx, cookie, s.baseURL+path)
	if err != nil {
		return Document{}, err
	}

	data, err := imagePDF(shot)
	if err != nil {
		return Document{}, err
	}

	return Document{
		ID:          uuid.NewString(),
		Name:        Filename(s.reportName),
		ContentType: ContentType,
		Data:        data,
	}, nil
}

func (s *Snapshotter) capture(ctx context.Context, cookie *http.Cookie, url string) ([]byte, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.WindowSize(1280, 900),
	)
	if s.chromePath != "" {
		opts = append(opts, chromedp.ExecPath(s.chromePath))
	}

	ctx, cancel := context.WithTimeout(ctx, snapshotTimeout)
	defer cancel()

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	defer allocCancel()

	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	defer browserCancel()

	var shot []byte
	err := chromedp.Run(browserCtx,
		chromedp.ActionFunc(func(ctx context.Context) error {
			if cookie == nil {
				return nil
			}
			return network.SetCookie(cookie.Name, cookie.Value).
				WithURL(s.baseURL).
				WithHTTPOnly(true).
				Do(ctx)
		}),
		chromedp.Navigate(url),
		chromedp.WaitVisible(snapshotSelector, chromedp.ByQuery),
		chromedp.FullScreenshot(&shot, 100),
	)
	if err != nil {
		s.logger.Error("Failed to capture dashboard", "url", url, "error", err)
		return nil, fmt.Errorf("failed to capture dashboard: %w", err)
	}
	return shot, nil
}

// imagePDF places a PNG on one page sized to the image.
func imagePDF(pngData []byte) ([]byte, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(pngData))
	if err != nil {
		return nil, fmt.Errorf("failed to read screenshot: %w", err)
	}
	w := float64(cfg.Width) * pxToMM
	h := float64(cfg.Height) * pxToMM

	pdf := fpdf.NewCustom(&fpdf.InitType{
		UnitStr: "mm",
		Size:    fpdf.SizeType{Wd: w, Ht: h},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	opts := fpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("dashboard", opts, bytes.NewReader(pngData))
	pdf.ImageOptions("dashboard", 0, 0, w, h, false, opts, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to write pdf: %w", err)
	}
	return buf.Bytes(), nil
}
