// SPDX-License-Identifier: AGPL-3.0-only
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/fluffyriot/skillboard/internal/backend"
	"github.com/fluffyriot/skillboard/internal/config"
	"github.com/fluffyriot/skillboard/internal/models"
	"github.com/fluffyriot/skillboard/internal/report"
	"github.com/fluffyriot/skillboard/internal/session"
	"github.com/fluffyriot/skillboard/internal/web"
	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type fakeBackend struct {
	user      models.User
	posts     []models.Post
	progress  []models.Progress
	exchanges []models.SkillExchange
	postsErr  error
	pingErr   error
}

func (f *fakeBackend) Login(_ context.Context, email, password string) (models.User, error) {
	if email != f.user.Email || password != "pw" {
		return models.User{}, backend.ErrInvalidCredentials
	}
	return f.user, nil
}

func (f *fakeBackend) Ping(context.Context) error { return f.pingErr }

func (f *fakeBackend) GetUserPosts(context.Context, string) ([]models.Post, error) {
	return f.posts, f.postsErr
}

func (f *fakeBackend) GetUserProgress(context.Context, string) ([]models.Progress, error) {
	return f.progress, nil
}

func (f *fakeBackend) GetUserSkillExchanges(context.Context, string) ([]models.SkillExchange, error) {
	return f.exchanges, nil
}

type fakeRenderer struct {
	mu     sync.Mutex
	inputs []report.Input
	err    error
}

func (f *fakeRenderer) Render(_ context.Context, in report.Input) (report.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inputs = append(f.inputs, in)
	if f.err != nil {
		return report.Document{}, f.err
	}
	return report.Document{ID: "r1", Name: "skill_analytics_report.pdf", ContentType: report.ContentType, Data: []byte("%PDF-1.3 fake")}, nil
}

type fakeSnapshotter struct {
	enabled bool
	cookie  *http.Cookie
	path    string
}

func (f *fakeSnapshotter) Enabled() bool { return f.enabled }

func (f *fakeSnapshotter) Snapshot(_ context.Context, cookie *http.Cookie, path string) (report.Document, error) {
	f.cookie, f.path = cookie, path
	return report.Document{ID: "q1", Name: "skill_analytics_report.pdf", ContentType: report.ContentType, Data: []byte("%PDF-1.3 quick")}, nil
}

type fakeArchive struct {
	stored []string
}

func (f *fakeArchive) Submit(userID string, doc report.Document) bool {
	f.stored = append(f.stored, userID+"/"+doc.ID)
	return true
}

type testEnv struct {
	router   *gin.Engine
	backend  *fakeBackend
	renderer *fakeRenderer
	snap     *fakeSnapshotter
	archive  *fakeArchive
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := &config.AppConfig{
		PublicURL:        "http://127.0.0.1:3000",
		ExportRatePerMin: 100,
		MetricsToken:     "scrape-token",
		Theme:            config.DefaultThemes()[config.DefaultThemeName],
	}
	env := &testEnv{
		backend: &fakeBackend{
			user: models.User{ID: "u1", Name: "Ada", Email: "ada@example.com"},
			posts: []models.Post{
				{ID: "p1", Title: "Five", LikeCount: lo.ToPtr(5), Date: "2024-01-03"},
				{ID: "p2", Title: "Twenty", LikeCount: lo.ToPtr(20), Date: "2023-01-15"},
				{ID: "p3", Title: "", Description: "<i>fingerstyle</i>", LikeCount: lo.ToPtr(1), Date: "2024-06-01"},
			},
		},
		renderer: &fakeRenderer{},
		snap:     &fakeSnapshotter{},
		archive:  &fakeArchive{},
	}

	tmpl, err := web.Templates()
	require.NoError(t, err)
	store, err := session.NewStore("test-secret", false)
	require.NoError(t, err)

	h := NewHandler(cfg, env.backend, env.renderer, env.snap, env.archive, discard)
	r := gin.New()
	r.SetHTMLTemplate(tmpl)
	h.RegisterRoutes(r, store)
	env.router = r
	return env
}

func (e *testEnv) do(t *testing.T, method, path string, body url.Values, cookies []*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, path, strings.NewReader(body.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) login(t *testing.T) []*http.Cookie {
	t.Helper()
	w := e.do(t, http.MethodPost, "/login", url.Values{"email": {"ada@example.com"}, "password": {"pw"}}, nil)
	require.Equal(t, http.StatusFound, w.Code)
	require.Equal(t, "/analytics", w.Header().Get("Location"))
	return w.Result().Cookies()
}

func doc(t *testing.T, w *httptest.ResponseRecorder) *goquery.Document {
	t.Helper()
	d, err := goquery.NewDocumentFromReader(w.Body)
	require.NoError(t, err)
	return d
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/login", url.Values{"email": {"ada@example.com"}, "password": {"nope"}}, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Contains(t, doc(t, w).Find(".error").Text(), "Invalid email or password")

	w = env.do(t, http.MethodPost, "/login", url.Values{"email": {""}}, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDashboardRequiresLogin(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/analytics", nil, nil)
	require.Equal(t, http.StatusFound, w.Code)
	require.Equal(t, "/login", w.Header().Get("Location"))
}

func TestRootRedirects(t *testing.T) {
	env := newTestEnv(t)
	cookies := env.login(t)

	w := env.do(t, http.MethodGet, "/?tab=activity", nil, cookies)
	require.Equal(t, http.StatusFound, w.Code)
	require.Equal(t, "/analytics?tab=activity", w.Header().Get("Location"))
}

func TestDashboardRendersPosts(t *testing.T) {
	env := newTestEnv(t)
	cookies := env.login(t)

	w := env.do(t, http.MethodGet, "/analytics", nil, cookies)
	require.Equal(t, http.StatusOK, w.Code)

	d := doc(t, w)
	require.Equal(t, "3", d.Find("#total-posts").Text())
	require.Equal(t, "8.7", d.Find("#avg-likes").Text())
	require.Equal(t, "Download PDF Report", d.Find("#export").Text())
	require.Equal(t, 0, d.Find("#quick-export").Length())

	titles := d.Find("tr.top-post td:first-child").Map(func(_ int, s *goquery.Selection) string { return s.Text() })
	require.Equal(t, []string{"Twenty", "Five", "Untitled Post"}, titles)
	require.Contains(t, d.Find("tr.top-post").Last().Text(), "fingerstyle")
	require.Equal(t, "active", d.Find(`nav.tabs a[href="/analytics?tab=posts"]`).AttrOr("class", ""))
}

func TestDashboardActivityTab(t *testing.T) {
	env := newTestEnv(t)
	cookies := env.login(t)

	w := env.do(t, http.MethodGet, "/analytics?tab=activity", nil, cookies)
	require.Equal(t, http.StatusOK, w.Code)

	months := doc(t, w).Find(".bar-row.month")
	require.Equal(t, 12, months.Length())
	require.Contains(t, months.First().Text(), "Jan")
	require.Contains(t, months.First().Find("span").Last().Text(), "2")
}

func TestDashboardShowsFetchNotice(t *testing.T) {
	env := newTestEnv(t)
	env.backend.postsErr = errors.New("backend down")
	cookies := env.login(t)

	w := env.do(t, http.MethodGet, "/analytics", nil, cookies)
	require.Equal(t, http.StatusOK, w.Code)

	d := doc(t, w)
	require.Contains(t, d.Find(".notice").Text(), "Could not load your posts")
	require.Equal(t, "No Data to Export", d.Find("#export").Text())
}

func TestAnalyticsJSON(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/analytics", nil, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	cookies := env.login(t)
	w = env.do(t, http.MethodGet, "/api/analytics", nil, cookies)
	require.Equal(t, http.StatusOK, w.Code)

	var res AnalyticsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	require.Equal(t, "u1", res.User.ID)
	require.True(t, res.CanExport)
	require.Equal(t, 3, res.Summary.TotalPosts)
	require.Equal(t, 26, res.Summary.TotalLikes)
	require.Len(t, res.Charts.Monthly, 12)
	require.Empty(t, res.Notices)
}

func TestReportDownload(t *testing.T) {
	env := newTestEnv(t)
	cookies := env.login(t)

	w := env.do(t, http.MethodGet, "/analytics/report.pdf", nil, cookies)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, report.ContentType, w.Header().Get("Content-Type"))
	require.Equal(t, `attachment; filename="skill_analytics_report.pdf"`, w.Header().Get("Content-Disposition"))
	require.True(t, strings.HasPrefix(w.Body.String(), "%PDF-"))

	require.Len(t, env.renderer.inputs, 1)
	require.Len(t, env.renderer.inputs[0].Posts, 3)
	require.Equal(t, []string{"u1/r1"}, env.archive.stored)
}

func TestReportWithNoDataIsNoOp(t *testing.T) {
	env := newTestEnv(t)
	env.backend.posts = nil
	cookies := env.login(t)

	w := env.do(t, http.MethodGet, "/analytics/report.pdf", nil, cookies)
	require.Equal(t, http.StatusSeeOther, w.Code)
	require.Equal(t, "/analytics?tab=posts", w.Header().Get("Location"))
	require.Empty(t, env.renderer.inputs)

	w = env.do(t, http.MethodGet, "/analytics", nil, w.Result().Cookies())
	require.Contains(t, doc(t, w).Find(".notice").Text(), noDataNotice)
}

func TestReportRenderFailure(t *testing.T) {
	env := newTestEnv(t)
	env.renderer.err = errors.New("disk full")
	cookies := env.login(t)

	w := env.do(t, http.MethodGet, "/analytics/report.pdf", nil, cookies)
	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.Contains(t, doc(t, w).Find(".error").Text(), "Failed to generate your report")
	require.Empty(t, env.archive.stored)
}

func TestQuickReport(t *testing.T) {
	env := newTestEnv(t)
	cookies := env.login(t)

	w := env.do(t, http.MethodGet, "/analytics/quick.pdf", nil, cookies)
	require.Equal(t, http.StatusNotFound, w.Code)

	env.snap.enabled = true
	w = env.do(t, http.MethodGet, "/analytics/quick.pdf?tab=progress", nil, cookies)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "%PDF-1.3 quick", w.Body.String())
	require.Equal(t, "/analytics?tab=progress", env.snap.path)
	require.Equal(t, session.CookieName, env.snap.cookie.Name)
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t)
	cookies := env.login(t)

	w := env.do(t, http.MethodPost, "/logout", nil, cookies)
	require.Equal(t, http.StatusSeeOther, w.Code)
	require.Equal(t, "/login", w.Header().Get("Location"))

	cleared := lo.Filter(w.Result().Cookies(), func(c *http.Cookie, _ int) bool { return c.Name == session.CookieName })
	require.NotEmpty(t, cleared)
	require.Negative(t, cleared[0].MaxAge)
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/health", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"status":"ok"`)

	env.backend.pingErr = errors.New("connection refused")
	w = env.do(t, http.MethodGet, "/health", nil, nil)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/metrics", nil, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodGet, "/metrics", nil, env.login(t))
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "go_goroutines")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.Header.Set("Authorization", "Bearer scrape-token")
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}
