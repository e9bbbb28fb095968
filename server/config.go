// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/stalcup-dev/riverboat-tournament/server/matchmaker"
)

const (
	DefaultPort             = 2567
	DefaultHost             = "0.0.0.0"
	DefaultMatchmakerSecret = "replace-me"
	DefaultMaxConnections   = 256

	EnvProduction  = "production"
	EnvDevelopment = "development"
)

var ErrWildcardOrigin = errors.New(`CORS_ORIGIN cannot contain "*" in production`)

type (
	// OriginPolicy decides which browser origins may use the HTTP and
	// WebSocket endpoints.
	OriginPolicy struct {
		AllowAny bool
		Origins  []string
	}

	Config struct {
		Port             int
		Host             string
		Env              string
		Origins          OriginPolicy
		PublicWSURL      string
		MatchmakerSecret string
		InviteKey        string
		MaxConnections   int
		CatchLog         string
		CodeTTL          time.Duration
		CodeSweep        time.Duration
		Cloud            bool
		Version          string
	}
)

// LoadConfig reads the environment. A .env file, if any, should already
// have been loaded.
func LoadConfig() (Config, error) {
	cfg := Config{
		Port:             getEnvInt("PORT", DefaultPort),
		Host:             getEnv("HOST", DefaultHost),
		Env:              getEnv("APP_ENV", EnvDevelopment),
		MatchmakerSecret: getEnv("MATCHMAKER_SECRET", DefaultMatchmakerSecret),
		InviteKey:        getEnv("INVITE_KEY", ""),
		MaxConnections:   getEnvInt("MAX_CONNECTIONS", DefaultMaxConnections),
		CatchLog:         getEnv("CATCH_LOG", ""),
		CodeTTL:          getEnvDuration("CODE_TTL", matchmaker.DefaultTTL),
		CodeSweep:        getEnvDuration("CODE_SWEEP_INTERVAL", matchmaker.SweepPeriod),
		Cloud:            getEnvBool("CLOUD", false),
		Version:          ProtocolVersion,
	}

	origins, err := ParseOriginPolicy(getEnv("CORS_ORIGIN", ""), cfg.Production())
	if err != nil {
		return cfg, err
	}
	cfg.Origins = origins

	cfg.PublicWSURL = getEnv("PUBLIC_WS_URL", "")
	if cfg.PublicWSURL == "" && !cfg.Production() {
		cfg.PublicWSURL = fmt.Sprintf("ws://localhost:%d", cfg.Port)
	}
	return cfg, nil
}

func (cfg Config) Production() bool {
	return cfg.Env == EnvProduction
}

// Addr is the address to listen on.
func (cfg Config) Addr() string {
	return fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
}

// InviteOK reports whether the provided invite key passes the gate, which
// only exists in production. A production server with no key configured
// admits nobody.
func (cfg Config) InviteOK(provided string) bool {
	if !cfg.Production() {
		return true
	}
	if cfg.InviteKey == "" {
		return false
	}
	return provided == cfg.InviteKey
}

// enforceSecret is false unless a real secret was configured in production.
func (cfg Config) enforceSecret() bool {
	if !cfg.Production() {
		return false
	}
	secret := strings.TrimSpace(cfg.MatchmakerSecret)
	return secret != "" && secret != DefaultMatchmakerSecret
}

// corsOrigin is the Access-Control-Allow-Origin value, or empty to send no
// CORS headers.
func (cfg Config) corsOrigin() string {
	if cfg.Origins.AllowAny {
		return "*"
	}
	if len(cfg.Origins.Origins) > 0 {
		return cfg.Origins.Origins[0]
	}
	return ""
}

// ParseOriginPolicy parses a comma separated list of origins.
func ParseOriginPolicy(raw string, production bool) (OriginPolicy, error) {
	var values []string
	for _, value := range strings.Split(raw, ",") {
		if value = strings.TrimSpace(value); value != "" {
			values = append(values, value)
		}
	}

	if len(values) == 0 {
		return OriginPolicy{AllowAny: !production}, nil
	}

	var policy OriginPolicy
	for _, value := range values {
		if value == "*" {
			if production {
				return OriginPolicy{}, ErrWildcardOrigin
			}
			policy.AllowAny = true
			continue
		}
		if origin, ok := normalizeOrigin(value); ok {
			policy.Origins = append(policy.Origins, origin)
		}
	}
	return policy, nil
}

// Allowed reports whether a request from origin may proceed. A missing
// origin passes only when no origins were listed.
func (p OriginPolicy) Allowed(origin string) bool {
	if p.AllowAny {
		return true
	}
	if origin == "" {
		return len(p.Origins) == 0
	}
	normalized, ok := normalizeOrigin(origin)
	if !ok {
		return false
	}
	for _, o := range p.Origins {
		if o == normalized {
			return true
		}
	}
	return false
}

func normalizeOrigin(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", false
	}
	return u.Scheme + "://" + u.Host, true
}
