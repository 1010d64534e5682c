// SPDX-License-Identifier: AGPL-3.0-only
package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fluffyriot/skillboard/internal/metrics"
	"github.com/fluffyriot/skillboard/internal/models"
	"github.com/samber/lo"
	"resty.dev/v3"
)

const (
	loginPath         = "/users/login"
	userPath          = "/users/{userId}"
	userPostsPath     = "/posts/user/{userId}"
	progressPath      = "/progress"
	skillExchangePath = "/skillExchange"

	maxDownloadBytes = 5 << 20
)

var (
	ErrUnexpectedStatus   = errors.New("unexpected backend status")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnsupportedURL     = errors.New("unsupported download url")
)

type StatusError struct {
	Endpoint string
	Code     int
	Body     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned %d: %s", e.Endpoint, e.Code, e.Body)
}

func (e *StatusError) Unwrap() error {
	return ErrUnexpectedStatus
}

type Client struct {
	client      *resty.Client
	logger      *slog.Logger
	now         func() time.Time
	maxDownload int64
}

func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")

	return &Client{
		client:      client,
		logger:      logger.With("component", "backend.Client"),
		now:         time.Now,
		maxDownload: maxDownloadBytes,
	}
}

func (c *Client) Close() error {
	return c.client.Close()
}

func (c *Client) r(ctx context.Context) *resty.Request {
	return c.client.R().WithContext(ctx)
}

func (c *Client) do(endpoint string, call func() (*resty.Response, error)) (*resty.Response, error) {
	start := time.Now()
	res, err := call()
	if err == nil && res.IsError() {
		err = &StatusError{
			Endpoint: endpoint,
			Code:     res.StatusCode(),
			Body:     strings.TrimSpace(res.String()),
		}
	}
	metrics.ObserveBackend(endpoint, start, err)
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (c *Client) Login(ctx context.Context, email, password string) (models.User, error) {
	var user models.User
	_, err := c.do("login", func() (*resty.Response, error) {
		return c.r(ctx).
			SetBody(map[string]string{"email": email, "password": password}).
			SetResult(&user).
			Post(loginPath)
	})

	var statusErr *StatusError
	if errors.As(err, &statusErr) && statusErr.Code < http.StatusInternalServerError {
		return models.User{}, fmt.Errorf("%w: %s", ErrInvalidCredentials, statusErr.Body)
	}
	if err != nil {
		return models.User{}, fmt.Errorf("login failed: %w", err)
	}
	if user.ID == "" {
		return models.User{}, fmt.Errorf("%w: backend returned no user", ErrInvalidCredentials)
	}
	return user, nil
}

func (c *Client) GetUser(ctx context.Context, userID string) (models.User, error) {
	var user models.User
	_, err := c.do("user", func() (*resty.Response, error) {
		return c.r(ctx).
			SetPathParam("userId", userID).
			SetResult(&user).
			Get(userPath)
	})
	if err != nil {
		return models.User{}, fmt.Errorf("failed to get user %s: %w", userID, err)
	}
	return user, nil
}

func (c *Client) GetUserPosts(ctx context.Context, userID string) ([]models.Post, error) {
	var posts []models.Post
	_, err := c.do("posts", func() (*resty.Response, error) {
		return c.r(ctx).
			SetPathParam("userId", userID).
			SetResult(&posts).
			Get(userPostsPath)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get posts for user %s: %w", userID, err)
	}
	return lo.Ternary(posts == nil, []models.Post{}, posts), nil
}

// GetUserProgress fetches every progress entry and keeps the user's own.
func (c *Client) GetUserProgress(ctx context.Context, userID string) ([]models.Progress, error) {
	var all []models.Progress
	_, err := c.do("progress", func() (*resty.Response, error) {
		return c.r(ctx).SetResult(&all).Get(progressPath)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get progress: %w", err)
	}

	mine := lo.Filter(all, func(p models.Progress, _ int) bool { return p.UserID == userID })
	now := c.now()
	for _, p := range mine {
		if err := p.Validate(now); err != nil {
			c.logger.Debug("Progress entry violates form rules", "progress_id", p.ID, "error", err)
		}
	}
	return mine, nil
}

// GetUserSkillExchanges fetches every exchange listing and keeps the user's own.
func (c *Client) GetUserSkillExchanges(ctx context.Context, userID string) ([]models.SkillExchange, error) {
	var all []models.SkillExchange
	_, err := c.do("skill_exchange", func() (*resty.Response, error) {
		return c.r(ctx).SetResult(&all).Get(skillExchangePath)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get skill exchanges: %w", err)
	}

	mine := lo.Filter(all, func(e models.SkillExchange, _ int) bool { return e.UserID == userID })
	now := c.now()
	for _, e := range mine {
		if err := e.Validate(now); err != nil {
			c.logger.Debug("Skill exchange violates form rules", "exchange_id", e.ID, "error", err)
		}
	}
	return mine, nil
}

// Download fetches an absolute http(s) URL (profile images live on object
// storage, not on the backend). Bodies over the download limit are rejected.
func (c *Client) Download(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedURL, rawURL)
	}

	res, err := c.do("download", func() (*resty.Response, error) {
		return c.r(ctx).
			SetHeader("Accept", "*/*").
			SetResponseBodyLimit(c.maxDownload).
			Get(u.String())
	})
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", u.Redacted(), err)
	}
	return res.Bytes(), nil
}

// Ping checks the backend is reachable; any HTTP answer counts.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.r(ctx).Head(progressPath)
	return err
}
