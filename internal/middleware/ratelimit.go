// SPDX-License-Identifier: AGPL-3.0-only
package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/fluffyriot/skillboard/internal/session"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const (
	limiterIdleTTL   = 10 * time.Minute
	limiterSweepSize = 1024
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type exportLimiter struct {
	mu       sync.Mutex
	perMin   int
	visitors map[string]*visitor
	now      func() time.Time
}

// reserve takes one export token for key and returns a func that gives it
// back. It returns nil when key is over its limit.
func (l *exportLimiter) reserve(key string) func() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if len(l.visitors) >= limiterSweepSize {
		for k, v := range l.visitors {
			if now.Sub(v.lastSeen) > limiterIdleTTL {
				delete(l.visitors, k)
			}
		}
	}

	v, ok := l.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(l.perMin)), l.perMin)}
		l.visitors[key] = v
	}
	v.lastSeen = now

	r := v.limiter.ReserveN(now, 1)
	if !r.OK() {
		return nil
	}
	if r.DelayFrom(now) > 0 {
		r.CancelAt(now)
		return nil
	}
	return func() { r.CancelAt(now) }
}

// ExportRateLimit caps report generation per user. Over the limit the
// request becomes a redirect to the dashboard with a notice. Only requests
// that deliver a document (200) keep their token. perMin <= 0 disables the
// limit.
func ExportRateLimit(perMin int) gin.HandlerFunc {
	if perMin <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	l := &exportLimiter{
		perMin:   perMin,
		visitors: make(map[string]*visitor),
		now:      time.Now,
	}
	return l.handle
}

func (l *exportLimiter) handle(c *gin.Context) {
	key := "ip:" + c.ClientIP()
	if u, ok := Identity(c).User(); ok {
		key = "user:" + u.ID
	}

	refund := l.reserve(key)
	if refund == nil {
		session.AddNotice(c, "Too many exports, please wait a minute and try again.")
		c.Redirect(http.StatusSeeOther, "/analytics")
		c.Abort()
		return
	}

	c.Next()
	if c.Writer.Status() != http.StatusOK {
		refund()
	}
}
