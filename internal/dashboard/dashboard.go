// SPDX-License-Identifier: AGPL-3.0-only
package dashboard

import (
	"context"
	"log/slog"

	"github.com/fluffyriot/skillboard/internal/models"
	"github.com/fluffyriot/skillboard/internal/session"
	"github.com/fluffyriot/skillboard/internal/stats"
)

type Phase string

const (
	PhaseInitializing    Phase = "initializing"
	PhaseLoading         Phase = "loading"
	PhaseReady           Phase = "ready"
	PhaseUnauthenticated Phase = "unauthenticated"
)

type Tab string

const (
	TabPosts    Tab = "posts"
	TabProgress Tab = "progress"
	TabExchange Tab = "exchange"
	TabActivity Tab = "activity"
)

var Tabs = []Tab{TabPosts, TabProgress, TabExchange, TabActivity}

func ParseTab(raw string) Tab {
	for _, t := range Tabs {
		if string(t) == raw {
			return t
		}
	}
	return TabPosts
}

const (
	CollectionPosts     = "posts"
	CollectionProgress  = "progress"
	CollectionExchanges = "exchanges"
)

type Fetcher interface {
	GetUserPosts(ctx context.Context, userID string) ([]models.Post, error)
	GetUserProgress(ctx context.Context, userID string) ([]models.Progress, error)
	GetUserSkillExchanges(ctx context.Context, userID string) ([]models.SkillExchange, error)
}

type Notice struct {
	Collection string `json:"collection"`
	Message    string `json:"message"`
}

type View struct {
	Phase       Phase
	Transitions []Phase
	User        models.User
	ActiveTab   Tab
	Posts       []models.Post
	Progress    []models.Progress
	Exchanges   []models.SkillExchange
	Notices     []Notice
	Arrivals    []string
}

func (v *View) enter(p Phase) {
	v.Phase = p
	v.Transitions = append(v.Transitions, p)
}

// CanExport is false only when every collection is empty.
func (v *View) CanExport() bool {
	return len(v.Posts) > 0 || len(v.Progress) > 0 || len(v.Exchanges) > 0
}

func (v *View) Summary() stats.Summary {
	return stats.Summarize(v.Posts, v.Progress, v.Exchanges)
}

func (v *View) Charts() stats.Charts {
	return stats.BuildCharts(v.Summary(), v.Progress)
}

type Controller struct {
	fetcher Fetcher
	logger  *slog.Logger

	// arrived, when set, is called after each collection has been applied.
	arrived func(collection string)
}

func NewController(f Fetcher, logger *slog.Logger) *Controller {
	return &Controller{
		fetcher: f,
		logger:  logger.With("component", "dashboard.Controller"),
	}
}

type arrival struct {
	collection string
	err        error
	apply      func(*View)
}

// Load runs the page lifecycle for identity. The three collections are
// fetched concurrently; their results are applied on this goroutine in the
// order they arrive. A failed fetch leaves its collection empty and adds a
// notice.
func (c *Controller) Load(ctx context.Context, identity session.Identity, tab Tab) *View {
	v := &View{
		ActiveTab: tab,
		Posts:     []models.Post{},
		Progress:  []models.Progress{},
		Exchanges: []models.SkillExchange{},
	}
	v.enter(PhaseInitializing)

	user, ok := identity.User()
	if !ok {
		v.enter(PhaseUnauthenticated)
		return v
	}
	v.User = user
	v.enter(PhaseLoading)

	results := make(chan arrival, 3)

	go func() {
		posts, err := c.fetcher.GetUserPosts(ctx, user.ID)
		results <- arrival{CollectionPosts, err, func(v *View) { v.Posts = posts }}
	}()
	go func() {
		progress, err := c.fetcher.GetUserProgress(ctx, user.ID)
		results <- arrival{CollectionProgress, err, func(v *View) { v.Progress = progress }}
	}()
	go func() {
		exchanges, err := c.fetcher.GetUserSkillExchanges(ctx, user.ID)
		results <- arrival{CollectionExchanges, err, func(v *View) { v.Exchanges = exchanges }}
	}()

	for range 3 {
		a := <-results
		v.Arrivals = append(v.Arrivals, a.collection)
		if a.err != nil {
			c.logger.Error("Failed to fetch collection", "collection", a.collection, "user_id", user.ID, "error", a.err)
			v.Notices = append(v.Notices, Notice{
				Collection: a.collection,
				Message:    "Could not load your " + a.collection + ". Showing what is available.",
			})
		} else {
			a.apply(v)
		}
		if c.arrived != nil {
			c.arrived(a.collection)
		}
	}

	v.Posts = nonNil(v.Posts)
	v.Progress = nonNil(v.Progress)
	v.Exchanges = nonNil(v.Exchanges)

	v.enter(PhaseReady)
	return v
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
