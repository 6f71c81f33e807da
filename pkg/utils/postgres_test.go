package utils

import (
	"context"
	"testing"
	"time"
)

func TestPostgresConfigDefaults(t *testing.T) {
	p := PostgresConfig{MaxIdleConns: 50}.withDefaults()
	if p.MaxOpenConns != 5 {
		t.Fatalf("expected 5 open conns, got %d", p.MaxOpenConns)
	}
	if p.MaxIdleConns != 5 {
		t.Fatalf("idle conns must not exceed open conns, got %d", p.MaxIdleConns)
	}
	if p.PingTimeout != 5*time.Second {
		t.Fatalf("unexpected ping timeout %s", p.PingTimeout)
	}
}

func TestOpenPostgres_EmptyDSN(t *testing.T) {
	if _, err := OpenPostgres(context.Background(), PostgresConfig{}); err == nil {
		t.Fatalf("expected error for empty dsn")
	}
}
