// SPDX-License-Identifier: AGPL-3.0-only
package stats

import (
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/fluffyriot/skillboard/internal/helpers"
	"github.com/fluffyriot/skillboard/internal/models"
	"github.com/samber/lo"
)

const NotAvailable = "N/A"

const displayDateLayout = "1/2/2006"

type MonthCount struct {
	Month string `json:"month"`
	Count int    `json:"count"`
}

type StatusCounts struct {
	Completed  int `json:"completed"`
	Pending    int `json:"pending"`
	InProgress int `json:"in_progress"`
}

type SkillDemand struct {
	Skill     string `json:"skill"`
	Offered   int    `json:"offered"`
	Requested int    `json:"requested"`
}

func TotalCount[T any](items []T) int {
	return len(items)
}

func TotalLikes(posts []models.Post) int {
	return lo.SumBy(posts, func(p models.Post) int { return p.Likes() })
}

func TotalComments(posts []models.Post) int {
	return lo.SumBy(posts, func(p models.Post) int { return len(p.Comments) })
}

// AverageLikes divides by max(1, count) so an empty slice yields 0.
func AverageLikes(posts []models.Post) float64 {
	return float64(TotalLikes(posts)) / float64(max(1, len(posts)))
}

// TopNByLikes returns at most n posts ordered by likes, highest first.
// Equal like counts keep their original order. The input is not modified.
func TopNByLikes(posts []models.Post, n int) []models.Post {
	if n <= 0 || len(posts) == 0 {
		return []models.Post{}
	}
	sorted := slices.Clone(posts)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Likes() > sorted[j].Likes()
	})
	return sorted[:min(n, len(sorted))]
}

// MonthlyActivity buckets posts by calendar month regardless of year.
// Posts with unparseable dates are left out.
func MonthlyActivity(posts []models.Post) []MonthCount {
	counts := make([]int, 12)
	for _, p := range posts {
		t, ok := helpers.ParseDate(p.CreatedOn())
		if !ok {
			continue
		}
		counts[t.Month()-1]++
	}

	out := make([]MonthCount, 12)
	for i := range out {
		out[i] = MonthCount{
			Month: time.Month(i + 1).String()[:3],
			Count: counts[i],
		}
	}
	return out
}

func SkillDistribution(progress []models.Progress) map[string]int {
	dist := make(map[string]int)
	for _, p := range progress {
		category := strings.TrimSpace(p.SkillCategory)
		if category == "" {
			continue
		}
		dist[category]++
	}
	return dist
}

func ExchangeStatusBreakdown(exchanges []models.SkillExchange) StatusCounts {
	var counts StatusCounts
	for _, e := range exchanges {
		switch strings.ToLower(strings.TrimSpace(e.Status)) {
		case models.StatusCompleted:
			counts.Completed++
		case models.StatusPending:
			counts.Pending++
		case models.StatusInProgress:
			counts.InProgress++
		}
	}
	return counts
}

// SkillDemandBySkill counts, per skill name, how many exchanges offer it and how
// many request it.
func SkillDemandBySkill(exchanges []models.SkillExchange) []SkillDemand {
	bySkill := make(map[string]*SkillDemand)
	entry := func(skill string) *SkillDemand {
		key := strings.ToLower(skill)
		d, ok := bySkill[key]
		if !ok {
			d = &SkillDemand{Skill: skill}
			bySkill[key] = d
		}
		return d
	}

	for _, e := range exchanges {
		if offered := strings.TrimSpace(e.SkillOffered); offered != "" {
			entry(offered).Offered++
		}
		if requested := strings.TrimSpace(e.SkillRequested); requested != "" {
			entry(requested).Requested++
		}
	}

	out := lo.Map(lo.Values(bySkill), func(d *SkillDemand, _ int) SkillDemand { return *d })
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Skill) < strings.ToLower(out[j].Skill)
	})
	return out
}

func AverageCompletion(progress []models.Progress) float64 {
	total := lo.SumBy(progress, func(p models.Progress) int {
		return helpers.ClampPercent(p.CompletionPercentage)
	})
	return float64(total) / float64(max(1, len(progress)))
}

// FormatDate renders raw as a short date, or "N/A" when it cannot be parsed.
func FormatDate(raw string) string {
	t, ok := helpers.ParseDate(raw)
	if !ok {
		return NotAvailable
	}
	return t.Format(displayDateLayout)
}
