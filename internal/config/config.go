// SPDX-License-Identifier: AGPL-3.0-only
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

var AppVersion = "dev"

var ErrMissingConfig = errors.New("missing configuration")

const (
	defaultListenAddr   = ":3000"
	defaultBackendURL   = "http://localhost:8080"
	defaultReportName   = "skill_analytics_report"
	defaultFetchTimeout = 15 * time.Second
	defaultLogLevel     = "info"
	defaultExportRate   = 6
)

type S3Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// Enabled reports whether report archiving to object storage is configured.
func (s S3Config) Enabled() bool {
	return s.Endpoint != "" && s.Bucket != ""
}

type AppConfig struct {
	ListenAddr         string
	PublicURL          string
	BackendURL         string
	SessionSecret      string
	LogLevel           string
	FetchTimeout       time.Duration
	ReportName         string
	QuickExportEnabled bool
	ChromePath         string
	ExportRatePerMin   int
	MetricsToken       string
	Theme              Theme
	S3                 S3Config
}

// SecureCookies reports whether the app is served over TLS.
func (c *AppConfig) SecureCookies() bool {
	return strings.HasPrefix(c.PublicURL, "https://")
}

type getenvFunc func(string) string

func LoadConfig() (*AppConfig, error) {
	return loadConfig(os.Getenv)
}

func loadConfig(getenv getenvFunc) (*AppConfig, error) {
	cfg := &AppConfig{
		ListenAddr:       valueOr(getenv("LISTEN_ADDR"), defaultListenAddr),
		BackendURL:       strings.TrimRight(valueOr(getenv("BACKEND_URL"), defaultBackendURL), "/"),
		SessionSecret:    getenv("SESSION_SECRET"),
		MetricsToken:     getenv("METRICS_TOKEN"),
		LogLevel:         valueOr(getenv("LOG_LEVEL"), defaultLogLevel),
		ReportName:       valueOr(getenv("REPORT_NAME"), defaultReportName),
		ChromePath:       getenv("CHROME_PATH"),
		FetchTimeout:     defaultFetchTimeout,
		ExportRatePerMin: defaultExportRate,
		S3: S3Config{
			Endpoint:  getenv("S3_ENDPOINT"),
			AccessKey: getenv("S3_ACCESS_KEY"),
			SecretKey: getenv("S3_SECRET_KEY"),
			Bucket:    getenv("S3_BUCKET"),
		},
	}

	if cfg.SessionSecret == "" {
		return nil, fmt.Errorf("%w: SESSION_SECRET is required", ErrMissingConfig)
	}

	cfg.PublicURL = strings.TrimRight(valueOr(getenv("PUBLIC_URL"), "http://127.0.0.1"+listenPort(cfg.ListenAddr)), "/")

	if raw := getenv("FETCH_TIMEOUT"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to parse FETCH_TIMEOUT: %w", err)
		}
		cfg.FetchTimeout = d
	}

	if raw := getenv("EXPORT_RATE_PER_MIN"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("EXPORT_RATE_PER_MIN must be a positive integer, got %q", raw)
		}
		cfg.ExportRatePerMin = n
	}

	var err error
	if cfg.QuickExportEnabled, err = parseBool(getenv("QUICK_EXPORT_ENABLED")); err != nil {
		return nil, fmt.Errorf("failed to parse QUICK_EXPORT_ENABLED: %w", err)
	}
	if cfg.S3.UseSSL, err = parseBool(getenv("S3_USE_SSL")); err != nil {
		return nil, fmt.Errorf("failed to parse S3_USE_SSL: %w", err)
	}

	themes := DefaultThemes()
	if path := getenv("THEMES_FILE"); path != "" {
		themes, err = LoadThemes(path)
		if err != nil {
			return nil, err
		}
	}
	cfg.Theme, err = themes.Pick(getenv("THEME"))
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

func valueOr(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func parseBool(raw string) (bool, error) {
	if raw == "" {
		return false, nil
	}
	return strconv.ParseBool(raw)
}

func listenPort(addr string) string {
	if i := strings.LastIndex(addr, ":"); i >= 0 {
		return addr[i:]
	}
	return ":" + addr
}
