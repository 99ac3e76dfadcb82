package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

const DefaultPageSize = 50

// JournalPageSize is the page size used when a caller does not pass one.
//
// Set via env:
// - DEFAULT_PAGE_SIZE=50
func JournalPageSize() int {
	n := intFromEnv("DEFAULT_PAGE_SIZE", DefaultPageSize)
	if n <= 0 {
		return DefaultPageSize
	}
	return n
}

// ReportSlowThreshold is the duration after which a report run is logged as slow.
//
// Set via env:
// - REPORT_SLOW_MS=500
func ReportSlowThreshold() time.Duration {
	ms := intFromEnv("REPORT_SLOW_MS", 500)
	if ms <= 0 {
		ms = 500
	}
	return time.Duration(ms) * time.Millisecond
}

// LimitLockEnabled serializes limit writers per budget through Redis.
//
// Set via env:
// - ENABLE_LIMIT_LOCK=true
func LimitLockEnabled() bool {
	return boolFromEnv("ENABLE_LIMIT_LOCK")
}

// ReportCacheEnabled turns on the Redis cache of report results.
//
// Set via env:
// - ENABLE_REPORT_CACHE=true
// - REPORT_CACHE_TTL_SECONDS=120
func ReportCacheEnabled() bool {
	return boolFromEnv("ENABLE_REPORT_CACHE")
}

func ReportCacheTTL() time.Duration {
	sec := intFromEnv("REPORT_CACHE_TTL_SECONDS", 120)
	if sec <= 0 {
		sec = 120
	}
	return time.Duration(sec) * time.Second
}

func intFromEnv(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func boolFromEnv(key string) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	return v == "1" || v == "true" || v == "yes" || v == "y" || v == "on"
}
