// SPDX-License-Identifier: AGPL-3.0-only
package stats

import (
	"sort"

	"github.com/fluffyriot/skillboard/internal/helpers"
	"github.com/fluffyriot/skillboard/internal/models"
	"github.com/samber/lo"
)

const (
	SeriesOffered   = "offered"
	SeriesRequested = "requested"
)

// Point is a single category of a bar or pie chart.
type Point struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// Percent scales the point against maxValue for bar widths. A non-positive
// maxValue yields 0.
func (p Point) Percent(maxValue float64) float64 {
	if maxValue <= 0 || p.Value <= 0 {
		return 0
	}
	return min(100, p.Value/maxValue*100)
}

// SeriesPoint is a category with one value per series key.
type SeriesPoint struct {
	Name   string             `json:"name"`
	Values map[string]float64 `json:"values"`
}

type Charts struct {
	Posts             []Point       `json:"posts"`
	Progress          []Point       `json:"progress"`
	ExchangeStatus    []Point       `json:"exchange_status"`
	Monthly           []Point       `json:"monthly"`
	SkillDistribution []Point       `json:"skill_distribution"`
	SkillDemand       []SeriesPoint `json:"skill_demand"`
}

func MaxValue(points []Point) float64 {
	return lo.Reduce(points, func(acc float64, p Point, _ int) float64 {
		return max(acc, p.Value)
	}, 0)
}

func PostChart(s Summary) []Point {
	return []Point{
		{Name: "Posts", Value: float64(s.TotalPosts)},
		{Name: "Likes", Value: float64(s.TotalLikes)},
		{Name: "Comments", Value: float64(s.TotalComments)},
	}
}

func ProgressChart(progress []models.Progress) []Point {
	return lo.Map(progress, func(p models.Progress, _ int) Point {
		return Point{Name: p.Milestone, Value: float64(helpers.ClampPercent(p.CompletionPercentage))}
	})
}

func ExchangeStatusChart(c StatusCounts) []Point {
	return []Point{
		{Name: "Completed", Value: float64(c.Completed)},
		{Name: "Pending", Value: float64(c.Pending)},
		{Name: "In Progress", Value: float64(c.InProgress)},
	}
}

func MonthlyChart(months []MonthCount) []Point {
	return lo.Map(months, func(m MonthCount, _ int) Point {
		return Point{Name: m.Month, Value: float64(m.Count)}
	})
}

// SkillDistributionChart sorts categories by name; maps carry no order.
func SkillDistributionChart(dist map[string]int) []Point {
	points := lo.MapToSlice(dist, func(k string, v int) Point {
		return Point{Name: k, Value: float64(v)}
	})
	sort.Slice(points, func(i, j int) bool { return points[i].Name < points[j].Name })
	return points
}

func SkillDemandChart(demand []SkillDemand) []SeriesPoint {
	return lo.Map(demand, func(d SkillDemand, _ int) SeriesPoint {
		return SeriesPoint{
			Name: d.Skill,
			Values: map[string]float64{
				SeriesOffered:   float64(d.Offered),
				SeriesRequested: float64(d.Requested),
			},
		}
	})
}

func BuildCharts(s Summary, progress []models.Progress) Charts {
	return Charts{
		Posts:             PostChart(s),
		Progress:          ProgressChart(progress),
		ExchangeStatus:    ExchangeStatusChart(s.ExchangeStatus),
		Monthly:           MonthlyChart(s.MonthlyActivity),
		SkillDistribution: SkillDistributionChart(s.SkillDistribution),
		SkillDemand:       SkillDemandChart(s.SkillDemand),
	}
}
