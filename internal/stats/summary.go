// SPDX-License-Identifier: AGPL-3.0-only
package stats

import "github.com/fluffyriot/skillboard/internal/models"

const TopPostsLimit = 3

type Summary struct {
	TotalPosts        int            `json:"total_posts"`
	TotalLikes        int            `json:"total_likes"`
	TotalComments     int            `json:"total_comments"`
	AverageLikes      float64        `json:"average_likes"`
	TopPosts          []models.Post  `json:"top_posts"`
	MonthlyActivity   []MonthCount   `json:"monthly_activity"`
	TotalProgress     int            `json:"total_progress"`
	AverageCompletion float64        `json:"average_completion"`
	SkillDistribution map[string]int `json:"skill_distribution"`
	TotalExchanges    int            `json:"total_exchanges"`
	ExchangeStatus    StatusCounts   `json:"exchange_status"`
	SkillDemand       []SkillDemand  `json:"skill_demand"`
}

// Summarize computes every dashboard figure from the raw collections.
// It is recomputed on each call.
func Summarize(posts []models.Post, progress []models.Progress, exchanges []models.SkillExchange) Summary {
	return Summary{
		TotalPosts:        TotalCount(posts),
		TotalLikes:        TotalLikes(posts),
		TotalComments:     TotalComments(posts),
		AverageLikes:      AverageLikes(posts),
		TopPosts:          TopNByLikes(posts, TopPostsLimit),
		MonthlyActivity:   MonthlyActivity(posts),
		TotalProgress:     TotalCount(progress),
		AverageCompletion: AverageCompletion(progress),
		SkillDistribution: SkillDistribution(progress),
		TotalExchanges:    TotalCount(exchanges),
		ExchangeStatus:    ExchangeStatusBreakdown(exchanges),
		SkillDemand:       SkillDemandBySkill(exchanges),
	}
}
