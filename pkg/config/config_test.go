package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestParseAppliesDefaults(t *testing.T) {
	c, err := Parse([]byte("environment: test\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if c.Screener.Benchmark != "^JKSE" {
		t.Fatalf("benchmark = %q", c.Screener.Benchmark)
	}
	if c.Screener.Period != "6mo" || c.Screener.Interval != "1d" {
		t.Fatalf("period/interval = %q/%q", c.Screener.Period, c.Screener.Interval)
	}
	if c.Screener.BatchSize != 50 {
		t.Fatalf("batch size = %d", c.Screener.BatchSize)
	}
	if c.Screener.CacheTTL != time.Hour {
		t.Fatalf("cache ttl = %v", c.Screener.CacheTTL)
	}
	if c.MarketData.Provider != "yahoo" {
		t.Fatalf("provider = %q", c.MarketData.Provider)
	}
	if c.Server.Port != 8080 {
		t.Fatalf("port = %d", c.Server.Port)
	}
}

func TestParseOverridesDefaults(t *testing.T) {
	raw := `
environment: production
screener:
  benchmark: "^GSPC"
  batch_size: 25
  tickers: [AAPL, MSFT]
market_data:
  provider: clickhouse
`
	c, err := Parse([]byte(raw))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if c.Screener.Benchmark != "^GSPC" || c.Screener.BatchSize != 25 {
		t.Fatalf("unexpected screener section: %+v", c.Screener)
	}
	if c.Screener.Period != "6mo" {
		t.Fatalf("period default lost: %q", c.Screener.Period)
	}
	if c.MarketData.Provider != "clickhouse" {
		t.Fatalf("provider = %q", c.MarketData.Provider)
	}
}

func TestParseRejectsInvalid(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"bad provider", "market_data:\n  provider: bloomberg\n"},
		{"zero batch", "screener:\n  batch_size: 0\n"},
		{"bad log level", "log:\n  level: loud\n"},
		{"kafka without brokers", "kafka:\n  enabled: true\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Parse([]byte(tc.raw)); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("environment: test\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	t.Setenv("SCREENER_BENCHMARK", "^GSPC")
	t.Setenv("SCREENER_BATCH_SIZE", "10")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("REDIS_ADDR", "cache:6380")

	c, err := LoadWithEnv(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Screener.Benchmark != "^GSPC" || c.Screener.BatchSize != 10 {
		t.Fatalf("env not applied: %+v", c.Screener)
	}
	if !c.Kafka.Enabled || len(c.Kafka.Brokers) != 2 {
		t.Fatalf("kafka env not applied: %+v", c.Kafka.Brokers)
	}
	if !c.Redis.Enabled || c.Redis.Host != "cache" || c.Redis.Port != 6380 {
		t.Fatalf("redis env not applied: %s:%d", c.Redis.Host, c.Redis.Port)
	}
}
