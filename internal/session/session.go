// SPDX-License-Identifier: AGPL-3.0-only
package session

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/fluffyriot/skillboard/internal/models"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/hkdf"
)

const (
	CookieName = "skillboard_session"

	userKey  = "user"
	maxAge   = 7 * 24 * 60 * 60
	keyBytes = 32
)

// Identity is the current visitor as recorded in the session cookie.
// The zero value is unauthenticated.
type Identity struct {
	user *models.User
}

func Anonymous() Identity {
	return Identity{}
}

func Authenticated(u models.User) Identity {
	return Identity{user: &u}
}

func (i Identity) IsAuthenticated() bool {
	return i.user != nil
}

func (i Identity) User() (models.User, bool) {
	if i.user == nil {
		return models.User{}, false
	}
	return *i.user, true
}

// NewStore builds the cookie store. Signing and encryption keys are derived
// from secret so a single SESSION_SECRET configures both.
func NewStore(secret string, secure bool) (sessions.Store, error) {
	kdf := hkdf.New(sha256.New, []byte(secret), nil, []byte("skillboard session keys"))

	authKey := make([]byte, keyBytes)
	encKey := make([]byte, keyBytes)
	if _, err := io.ReadFull(kdf, authKey); err != nil {
		return nil, fmt.Errorf("failed to derive session auth key: %w", err)
	}
	if _, err := io.ReadFull(kdf, encKey); err != nil {
		return nil, fmt.Errorf("failed to derive session encryption key: %w", err)
	}

	store := cookie.NewStore(authKey, encKey)
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
	return store, nil
}

func Middleware(store sessions.Store) gin.HandlerFunc {
	return sessions.Sessions(CookieName, store)
}

// Load is the single place an Identity is built from a request.
func Load(c *gin.Context) Identity {
	session := sessions.Default(c)
	raw, ok := session.Get(userKey).(string)
	if !ok || raw == "" {
		return Anonymous()
	}

	var user models.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil || user.ID == "" {
		session.Delete(userKey)
		_ = session.Save()
		return Anonymous()
	}
	return Authenticated(user)
}

func Save(c *gin.Context, user models.User) error {
	b, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to encode session user: %w", err)
	}
	session := sessions.Default(c)
	session.Set(userKey, string(b))
	return session.Save()
}

func Clear(c *gin.Context) error {
	session := sessions.Default(c)
	session.Clear()
	session.Options(sessions.Options{Path: "/", MaxAge: -1})
	return session.Save()
}

// AddNotice queues a transient message for the next rendered page.
func AddNotice(c *gin.Context, msg string) {
	session := sessions.Default(c)
	session.AddFlash(msg)
	_ = session.Save()
}

func Notices(c *gin.Context) []string {
	session := sessions.Default(c)
	flashes := session.Flashes()
	if len(flashes) == 0 {
		return nil
	}
	_ = session.Save()

	out := make([]string, 0, len(flashes))
	for _, f := range flashes {
		if s, ok := f.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
