// Package config loads server configuration from the environment.
package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Addr            string
	DBPath          string
	JournalPath     string
	JWTSecret       string
	TokenTTL        time.Duration
	WordlistPath    string
	ModerateReplies bool
	StoreTimeout    time.Duration
	MaxRangeDays    int
	MetricsInterval time.Duration
}

func Load() Config {
	addr := envString("STARNAVI_ADDR", "")
	if addr == "" {
		if port := os.Getenv("PORT"); port != "" {
			addr = ":" + port
		} else {
			addr = ":8080"
		}
	}
	return Config{
		Addr:            addr,
		DBPath:          envString("STARNAVI_DB", "starnavi.db"),
		JournalPath:     envString("STARNAVI_JOURNAL", "starnavi-journal.db"),
		JWTSecret:       envString("STARNAVI_JWT_SECRET", "dev-jwt-secret"),
		TokenTTL:        envDuration("STARNAVI_TOKEN_TTL", 24*time.Hour),
		WordlistPath:    envString("STARNAVI_WORDLIST", ""),
		ModerateReplies: envBool("STARNAVI_MODERATE_REPLIES", false),
		StoreTimeout:    envDuration("STARNAVI_STORE_TIMEOUT", 10*time.Second),
		MaxRangeDays:    envInt("STARNAVI_MAX_RANGE_DAYS", 366),
		MetricsInterval: envDuration("STARNAVI_METRICS_INTERVAL", 15*time.Second),
	}
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
