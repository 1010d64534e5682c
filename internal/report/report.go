// SPDX-License-Identifier: AGPL-3.0-only
package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/fluffyriot/skillboard/internal/config"
	"github.com/fluffyriot/skillboard/internal/metrics"
	"github.com/fluffyriot/skillboard/internal/models"
	"github.com/fluffyriot/skillboard/internal/stats"
	"github.com/fluffyriot/skillboard/internal/textutil"
	"github.com/go-pdf/fpdf"
	"github.com/google/uuid"
)

const (
	StrategyStructured = "structured"
	StrategyQuick      = "quick"

	ContentType = "application/pdf"

	SectionErrorText = "Error rendering this section"
	NoDataText       = "No data"
)

var ErrNothingToExport = errors.New("nothing to export")

// Input is everything a report is rendered from. Figures are recomputed
// from the collections; nothing is carried over from a previous render.
type Input struct {
	User        models.User
	Posts       []models.Post
	Progress    []models.Progress
	Exchanges   []models.SkillExchange
	GeneratedAt time.Time
}

func (in Input) Empty() bool {
	return len(in.Posts) == 0 && len(in.Progress) == 0 && len(in.Exchanges) == 0
}

type Document struct {
	ID          string
	Name        string
	ContentType string
	Data        []byte
	Failed      []string
}

// Filename is the download name for a report, shared by both export strategies.
func Filename(reportName string) string {
	name := strings.TrimSpace(reportName)
	if name == "" {
		name = "skill_analytics_report"
	}
	return strings.TrimSuffix(name, ".pdf") + ".pdf"
}

// page is the per-render state handed to each section.
type page struct {
	pdf     *fpdf.Fpdf
	tr      func(string) string
	theme   config.Theme
	in      Input
	summary stats.Summary
	avatar  []byte
}

func (p *page) text(s string) string {
	return p.tr(textutil.Latin1(s))
}

// Section draws one block of the report. Returning an error or panicking
// replaces the block with a placeholder.
type Section struct {
	Name string
	Draw func(p *page) error
}

type Renderer struct {
	reportName string
	theme      config.Theme
	avatars    *AvatarLoader
	sections   []Section
	compress   bool
	logger     *slog.Logger
}

func NewRenderer(reportName string, theme config.Theme, avatars *AvatarLoader, logger *slog.Logger) *Renderer {
	return &Renderer{
		reportName: reportName,
		theme:      theme,
		avatars:    avatars,
		sections:   defaultSections(),
		compress:   true,
		logger:     logger.With("component", "report.Renderer"),
	}
}

// Render builds the structured PDF. It fails only when every collection is
// empty or the document itself cannot be written; section failures are
// reported in Document.Failed.
func (r *Renderer) Render(ctx context.Context, in Input) (doc Document, err error) {
	start := time.Now()
	defer func() { metrics.ObserveReport(StrategyStructured, start, err) }()

	if in.Empty() {
		return Document{}, ErrNothingToExport
	}
	if in.GeneratedAt.IsZero() {
		in.GeneratedAt = time.Now()
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(r.compress)
	pdf.SetTitle(r.theme.Title, true)
	pdf.SetCreator("skillboard", true)
	pdf.SetAuthor(in.User.Name, true)
	pdf.SetCreationDate(in.GeneratedAt)
	pdf.SetAutoPageBreak(true, 20)

	p := &page{
		pdf:     pdf,
		tr:      pdf.UnicodeTranslatorFromDescriptor(""),
		theme:   r.theme,
		in:      in,
		summary: stats.Summarize(in.Posts, in.Progress, in.Exchanges),
	}
	if r.avatars != nil && in.User.ProfileImage != "" {
		p.avatar = r.avatars.Load(ctx, in.User.ProfileImage)
	}

	generated := p.text(fmt.Sprintf("Generated on %s %s - Skill Sharing Platform Analytics",
		in.GeneratedAt.Format("1/2/2006"), in.GeneratedAt.Format("3:04:05 PM")))
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.SetTextColor(128, 128, 128)
		pdf.CellFormat(0, 10, generated, "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	var failed []string
	for _, s := range r.sections {
		if err := r.drawSection(p, s); err != nil {
			failed = append(failed, s.Name)
			metrics.ReportSectionFailures.WithLabelValues(s.Name).Inc()
			r.logger.Warn("Report section failed", "section", s.Name, "user_id", in.User.ID, "error", err)
			placeholder(p, SectionErrorText)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return Document{}, fmt.Errorf("failed to write pdf: %w", err)
	}

	return Document{
		ID:          uuid.NewString(),
		Name:        Filename(r.reportName),
		ContentType: ContentType,
		Data:        buf.Bytes(),
		Failed:      failed,
	}, nil
}

func (r *Renderer) drawSection(p *page, s Section) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
		// fpdf errors are sticky; clear them so later sections still draw.
		if err == nil && p.pdf.Err() {
			err = p.pdf.Error()
		}
		if err != nil {
			p.pdf.ClearError()
		}
	}()
	return s.Draw(p)
}

func placeholder(p *page, msg string) {
	p.pdf.SetFont("Helvetica", "I", 10)
	p.pdf.SetTextColor(128, 128, 128)
	p.pdf.CellFormat(0, 8, p.text(msg), "", 1, "L", false, 0, "")
	p.pdf.Ln(4)
}

// hexRGB parses "#rrggbb"; anything else yields black.
func hexRGB(hex string) (int, int, int) {
	h := strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if len(h) != 6 {
		return 0, 0, 0
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return 0, 0, 0
	}
	return int(v >> 16 & 0xff), int(v >> 8 & 0xff), int(v & 0xff)
}
