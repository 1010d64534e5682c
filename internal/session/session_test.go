// SPDX-License-Identifier: AGPL-3.0-only
package session

import (
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"

	"github.com/fluffyriot/skillboard/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(t *testing.T) *gin.Engine {
	t.Helper()

	store, err := NewStore("test-secret", false)
	require.NoError(t, err)

	r := gin.New()
	r.Use(Middleware(store))
	r.POST("/login", func(c *gin.Context) {
		require.NoError(t, Save(c, models.User{ID: "u1", Name: "Ada"}))
		AddNotice(c, "Welcome back")
		c.Status(http.StatusNoContent)
	})
	r.GET("/whoami", func(c *gin.Context) {
		identity := Load(c)
		user, ok := identity.User()
		c.JSON(http.StatusOK, gin.H{"auth": ok, "name": user.Name, "notices": Notices(c)})
	})
	r.POST("/logout", func(c *gin.Context) {
		require.NoError(t, Clear(c))
		c.Status(http.StatusNoContent)
	})
	return r
}

// latest keeps the last Set-Cookie per name, the one a browser would store.
func latest(cookies []*http.Cookie) []*http.Cookie {
	newestFirst := lo.Reverse(slices.Clone(cookies))
	return lo.UniqBy(newestFirst, func(c *http.Cookie) string { return c.Name })
}

func do(r http.Handler, method, path string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for _, c := range latest(cookies) {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestIdentityVariants(t *testing.T) {
	t.Parallel()

	require.False(t, Anonymous().IsAuthenticated())
	_, ok := Identity{}.User()
	require.False(t, ok)

	id := Authenticated(models.User{ID: "u1"})
	require.True(t, id.IsAuthenticated())
	user, ok := id.User()
	require.True(t, ok)
	require.Equal(t, "u1", user.ID)
}

func TestSessionRoundTrip(t *testing.T) {
	t.Parallel()

	r := newRouter(t)

	w := do(r, http.MethodGet, "/whoami", nil)
	require.JSONEq(t, `{"auth":false,"name":"","notices":null}`, w.Body.String())

	login := do(r, http.MethodPost, "/login", nil)
	cookies := login.Result().Cookies()
	require.NotEmpty(t, cookies)

	// The login handler saves twice, so the session cookie is set twice.
	require.Len(t, latest(cookies), 1)

	w = do(r, http.MethodGet, "/whoami", cookies)
	require.JSONEq(t, `{"auth":true,"name":"Ada","notices":["Welcome back"]}`, w.Body.String())

	logout := do(r, http.MethodPost, "/logout", cookies)
	w = do(r, http.MethodGet, "/whoami", logout.Result().Cookies())
	require.Contains(t, w.Body.String(), `"auth":false`)
}

func TestTamperedCookieIsAnonymous(t *testing.T) {
	t.Parallel()

	r := newRouter(t)
	w := do(r, http.MethodGet, "/whoami", []*http.Cookie{{Name: CookieName, Value: "forged"}})
	require.Contains(t, w.Body.String(), `"auth":false`)
}

func TestLatestCookieWins(t *testing.T) {
	t.Parallel()

	got := latest([]*http.Cookie{
		{Name: CookieName, Value: "first"},
		{Name: "other", Value: "x"},
		{Name: CookieName, Value: "second"},
	})
	require.Len(t, got, 2)
	require.Equal(t, "second", got[0].Value)
}
