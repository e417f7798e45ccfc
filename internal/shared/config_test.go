package shared_test

import (
	"testing"
	"time"

	"reviews_dashboard/internal/shared"
)

func TestLoad_Defaults(t *testing.T) {
	c, err := shared.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.SourceKind != shared.SourceHTTP || c.FetchTimeout != time.Minute || c.TrendBehavior != "Diverse" {
		t.Fatalf("unexpected defaults: %+v", c)
	}
	if c.SessionTTL != 30*time.Minute || c.BatchSize != 500 {
		t.Fatalf("unexpected defaults: %+v", c)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("SOURCE_KIND", "mysql")
	t.Setenv("SESSION_TTL", "5m")
	t.Setenv("INGEST_WORKERS", "2")
	t.Setenv("FETCH_RPS", "0")

	c, err := shared.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.SourceKind != shared.SourceMySQL || c.SessionTTL != 5*time.Minute || c.Workers != 2 {
		t.Fatalf("overrides not applied: %+v", c)
	}
	if c.FetchRPS != 1 {
		t.Fatalf("non-positive rps should fall back to 1, got %v", c.FetchRPS)
	}
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("SOURCE_KIND", "ftp")
	if _, err := shared.Load(); err == nil {
		t.Fatalf("expected error for unknown source kind")
	}

	t.Setenv("SOURCE_KIND", "http")
	t.Setenv("SESSION_TTL", "soon")
	if _, err := shared.Load(); err == nil {
		t.Fatalf("expected error for bad duration")
	}
}
