// SPDX-License-Identifier: AGPL-3.0-only
package report

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/fluffyriot/skillboard/internal/stats"
	"github.com/fluffyriot/skillboard/internal/textutil"
	"github.com/go-pdf/fpdf"
)

const (
	recentLimit       = 5
	barMaxWidth       = 110.0
	avatarSize        = 24.0
	untitledMilestone = "Untitled Milestone"
	untitledPost      = "Untitled Post"
)

func defaultSections() []Section {
	return []Section{
		{Name: "header", Draw: drawHeader},
		{Name: "profile", Draw: drawProfile},
		{Name: "metrics", Draw: drawMetrics},
		{Name: "top_posts", Draw: drawTopPosts},
		{Name: "progress", Draw: drawProgress},
		{Name: "monthly_activity", Draw: drawMonthlyActivity},
		{Name: "skill_distribution", Draw: drawSkillDistribution},
		{Name: "exchanges", Draw: drawExchanges},
	}
}

func heading(p *page, title string) {
	r, g, b := hexRGB(p.theme.Accent)
	p.pdf.SetFont("Helvetica", "B", 14)
	p.pdf.SetTextColor(r, g, b)
	p.pdf.CellFormat(0, 9, p.text(title), "", 1, "L", false, 0, "")
	p.pdf.SetTextColor(0, 0, 0)
	p.pdf.SetFont("Helvetica", "", 10)
}

func drawHeader(p *page) error {
	r, g, b := hexRGB(p.theme.Accent)
	pageW, _ := p.pdf.GetPageSize()
	p.pdf.SetFillColor(r, g, b)
	p.pdf.Rect(0, 0, pageW, 28, "F")

	p.pdf.SetXY(10, 8)
	p.pdf.SetFont("Helvetica", "B", 20)
	p.pdf.SetTextColor(255, 255, 255)
	p.pdf.CellFormat(0, 12, p.text(p.theme.Title), "", 1, "L", false, 0, "")
	p.pdf.SetY(34)
	p.pdf.SetTextColor(0, 0, 0)
	return nil
}

func drawProfile(p *page) error {
	heading(p, "User Profile")
	u := p.in.User

	x, y := p.pdf.GetXY()
	textX := x
	if len(p.avatar) > 0 {
		opts := fpdf.ImageOptions{ImageType: "PNG", ReadDpi: false}
		p.pdf.RegisterImageOptionsReader("avatar", opts, bytes.NewReader(p.avatar))
		if !p.pdf.Err() {
			p.pdf.ImageOptions("avatar", x, y, avatarSize, avatarSize, false, opts, 0, "")
			textX = x + avatarSize + 6
		} else {
			// Undecodable image: keep the text-only profile.
			p.pdf.ClearError()
		}
	}

	lines := []string{
		"Name: " + u.Name,
		"Email: " + u.Email,
		fmt.Sprintf("Followers: %d   Following: %d", u.FollowersCount, u.FollowingCount),
	}
	p.pdf.SetXY(textX, y)
	for _, l := range lines {
		p.pdf.SetX(textX)
		p.pdf.CellFormat(0, 7, p.text(l), "", 1, "L", false, 0, "")
	}
	if len(p.avatar) > 0 && p.pdf.GetY() < y+avatarSize {
		p.pdf.SetY(y + avatarSize)
	}
	p.pdf.Ln(4)
	return nil
}

func drawMetrics(p *page) error {
	heading(p, "Key Metrics")
	s := p.summary

	cells := []struct{ label, value string }{
		{"Total Posts", strconv.Itoa(s.TotalPosts)},
		{"Avg Likes", strconv.FormatFloat(s.AverageLikes, 'f', 1, 64)},
		{"Skill Exchanges", strconv.Itoa(s.TotalExchanges)},
		{"Progress Entries", strconv.Itoa(s.TotalProgress)},
	}
	w := 190.0 / float64(len(cells))

	p.pdf.SetFont("Helvetica", "B", 16)
	for _, c := range cells {
		p.pdf.CellFormat(w, 10, c.value, "", 0, "C", false, 0, "")
	}
	p.pdf.Ln(10)
	p.pdf.SetFont("Helvetica", "", 9)
	p.pdf.SetTextColor(100, 100, 100)
	for _, c := range cells {
		p.pdf.CellFormat(w, 6, c.label, "", 0, "C", false, 0, "")
	}
	p.pdf.Ln(10)
	p.pdf.SetTextColor(0, 0, 0)
	return nil
}

func tableHeader(p *page, cols []string, widths []float64) {
	p.pdf.SetFont("Helvetica", "B", 10)
	p.pdf.SetFillColor(240, 240, 240)
	for i, c := range cols {
		p.pdf.CellFormat(widths[i], 7, c, "1", 0, "L", true, 0, "")
	}
	p.pdf.Ln(-1)
	p.pdf.SetFont("Helvetica", "", 9)
}

func drawTopPosts(p *page) error {
	heading(p, "Top Posts")
	if len(p.summary.TopPosts) == 0 {
		placeholder(p, NoDataText)
		return nil
	}

	widths := []float64{55, 85, 20, 30}
	tableHeader(p, []string{"Title", "Description", "Likes", "Date"}, widths)
	for _, post := range p.summary.TopPosts {
		title := post.Title
		if title == "" {
			title = untitledPost
		}
		desc := textutil.Truncate(textutil.StripHTML(post.Description), 55)
		row := []string{
			textutil.Truncate(title, 32),
			desc,
			strconv.Itoa(post.Likes()),
			stats.FormatDate(post.CreatedOn()),
		}
		for i, v := range row {
			p.pdf.CellFormat(widths[i], 7, p.text(v), "1", 0, "L", false, 0, "")
		}
		p.pdf.Ln(-1)
	}
	p.pdf.Ln(4)
	return nil
}

func drawProgress(p *page) error {
	heading(p, "Skill Progress")
	if len(p.in.Progress) == 0 {
		placeholder(p, NoDataText)
		return nil
	}

	p.pdf.CellFormat(0, 6, p.text(fmt.Sprintf("Average completion: %.1f%%", p.summary.AverageCompletion)), "", 1, "L", false, 0, "")
	widths := []float64{70, 50, 35, 35}
	tableHeader(p, []string{"Milestone", "Category", "Completion", "Date"}, widths)

	n := min(len(p.in.Progress), recentLimit)
	for _, pr := range p.in.Progress[:n] {
		milestone := pr.Milestone
		if milestone == "" {
			milestone = untitledMilestone
		}
		row := []string{
			textutil.Truncate(milestone, 40),
			textutil.Truncate(pr.SkillCategory, 28),
			fmt.Sprintf("%d%%", pr.CompletionPercentage),
			stats.FormatDate(pr.ProgressDate),
		}
		for i, v := range row {
			p.pdf.CellFormat(widths[i], 7, p.text(v), "1", 0, "L", false, 0, "")
		}
		p.pdf.Ln(-1)
	}
	p.pdf.Ln(4)
	return nil
}

// bars draws one labelled horizontal bar per point, scaled to the largest.
func bars(p *page, points []stats.Point) {
	maxV := stats.MaxValue(points)
	for i, pt := range points {
		r, g, b := hexRGB(p.theme.Color(i))
		x, y := p.pdf.GetXY()
		p.pdf.CellFormat(30, 6, p.text(textutil.Truncate(pt.Name, 18)), "", 0, "L", false, 0, "")
		w := barMaxWidth * pt.Percent(maxV) / 100
		if w > 0 {
			p.pdf.SetFillColor(r, g, b)
			p.pdf.Rect(x+30, y+1, w, 4, "F")
		}
		p.pdf.SetXY(x+32+barMaxWidth, y)
		p.pdf.CellFormat(20, 6, strconv.FormatFloat(pt.Value, 'f', -1, 64), "", 1, "L", false, 0, "")
	}
	p.pdf.Ln(4)
}

func drawMonthlyActivity(p *page) error {
	heading(p, "Monthly Activity")
	if p.summary.TotalPosts == 0 {
		placeholder(p, NoDataText)
		return nil
	}
	bars(p, stats.MonthlyChart(p.summary.MonthlyActivity))
	return nil
}

func drawSkillDistribution(p *page) error {
	heading(p, "Skill Distribution")
	points := stats.SkillDistributionChart(p.summary.SkillDistribution)
	if len(points) == 0 {
		placeholder(p, NoDataText)
		return nil
	}
	bars(p, points)
	return nil
}

func drawExchanges(p *page) error {
	heading(p, "Skill Exchanges")
	if len(p.in.Exchanges) == 0 {
		placeholder(p, NoDataText)
		return nil
	}
	bars(p, stats.ExchangeStatusChart(p.summary.ExchangeStatus))

	widths := []float64{60, 60, 35, 35}
	tableHeader(p, []string{"Offered", "Requested", "Mode", "Date"}, widths)
	n := min(len(p.in.Exchanges), recentLimit)
	for _, ex := range p.in.Exchanges[:n] {
		row := []string{
			textutil.Truncate(ex.SkillOffered, 34),
			textutil.Truncate(ex.SkillRequested, 34),
			string(ex.PreferredMode),
			stats.FormatDate(ex.ExchangeDate),
		}
		for i, v := range row {
			p.pdf.CellFormat(widths[i], 7, p.text(v), "1", 0, "L", false, 0, "")
		}
		p.pdf.Ln(-1)
	}
	p.pdf.Ln(4)
	return nil
}
