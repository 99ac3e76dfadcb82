package config

import (
	"testing"
	"time"
)

func TestBoolFromEnv(t *testing.T) {
	cases := []struct {
		value string
		want  bool
	}{
		{"", false},
		{"1", true},
		{"true", true},
		{" TRUE ", true},
		{"yes", true},
		{"on", true},
		{"0", false},
		{"off", false},
		{"nope", false},
	}
	for _, c := range cases {
		t.Setenv("ENABLE_LIMIT_LOCK", c.value)
		if got := LimitLockEnabled(); got != c.want {
			t.Fatalf("ENABLE_LIMIT_LOCK=%q: expected %v, got %v", c.value, c.want, got)
		}
	}
}

func TestJournalPageSize(t *testing.T) {
	t.Setenv("DEFAULT_PAGE_SIZE", "")
	if got := JournalPageSize(); got != DefaultPageSize {
		t.Fatalf("expected default %d, got %d", DefaultPageSize, got)
	}
	t.Setenv("DEFAULT_PAGE_SIZE", "25")
	if got := JournalPageSize(); got != 25 {
		t.Fatalf("expected 25, got %d", got)
	}
	for _, bad := range []string{"0", "-3", "many"} {
		t.Setenv("DEFAULT_PAGE_SIZE", bad)
		if got := JournalPageSize(); got != DefaultPageSize {
			t.Fatalf("DEFAULT_PAGE_SIZE=%q: expected default, got %d", bad, got)
		}
	}
}

func TestReportDurations(t *testing.T) {
	t.Setenv("REPORT_SLOW_MS", "")
	t.Setenv("REPORT_CACHE_TTL_SECONDS", "")
	if got := ReportSlowThreshold(); got != 500*time.Millisecond {
		t.Fatalf("expected 500ms, got %s", got)
	}
	if got := ReportCacheTTL(); got != 120*time.Second {
		t.Fatalf("expected 120s, got %s", got)
	}

	t.Setenv("REPORT_SLOW_MS", "1500")
	t.Setenv("REPORT_CACHE_TTL_SECONDS", "30")
	if got := ReportSlowThreshold(); got != 1500*time.Millisecond {
		t.Fatalf("expected 1.5s, got %s", got)
	}
	if got := ReportCacheTTL(); got != 30*time.Second {
		t.Fatalf("expected 30s, got %s", got)
	}
}

func TestRedisHelpersWithoutConnection(t *testing.T) {
	if GetRedisDB() != nil {
		t.Skip("redis connected")
	}
	var dest map[string]int
	ok, err := GetRedisObject(t.Context(), "missing", &dest)
	if ok || err != nil {
		t.Fatalf("expected miss without redis, got %v, %v", ok, err)
	}
	if err := SetRedisObject(t.Context(), "k", map[string]int{"a": 1}, time.Second); err != nil {
		t.Fatalf("SetRedisObject without redis: %v", err)
	}
	if n, err := IncrRedisCounter(t.Context(), "c"); n != 0 || err != nil {
		t.Fatalf("expected 0, nil without redis, got %d, %v", n, err)
	}
}
