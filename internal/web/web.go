// SPDX-License-Identifier: AGPL-3.0-only
package web

import (
	"embed"
	"fmt"
	"html/template"
	"strconv"

	"github.com/fluffyriot/skillboard/internal/config"
	"github.com/fluffyriot/skillboard/internal/stats"
	"github.com/fluffyriot/skillboard/internal/textutil"
)

//go:embed templates/*.html
var templatesFS embed.FS

func funcs() template.FuncMap {
	return template.FuncMap{
		"formatDate": stats.FormatDate,
		"stripHTML":  textutil.StripHTML,
		"truncate":   textutil.Truncate,
		"oneDecimal": func(v float64) string { return strconv.FormatFloat(v, 'f', 1, 64) },
		"number":     func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) },
		"upto":       func(n, length int) int { return min(n, length) },
		"color":      func(t config.Theme, i int) string { return t.Color(i) },
		"barWidth": func(p stats.Point, points []stats.Point) string {
			return fmt.Sprintf("%.1f%%", p.Percent(stats.MaxValue(points)))
		},
		"seriesWidth": func(v float64, points []stats.SeriesPoint) string {
			var maxV float64
			for _, p := range points {
				for _, x := range p.Values {
					maxV = max(maxV, x)
				}
			}
			return fmt.Sprintf("%.1f%%", stats.Point{Value: v}.Percent(maxV))
		},
	}
}

// Templates parses the embedded page templates.
func Templates() (*template.Template, error) {
	t, err := template.New("").Funcs(funcs()).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return t, nil
}
