package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/vladislavdragonenkov/rms/internal/storage/postgres"
)

func envMap(values map[string]string) func(string) string {
	return func(key string) string { return values[key] }
}

func TestParseOptions(t *testing.T) {
	opts, err := parseOptions([]string{"-direction=DOWN", "-steps=2"}, envMap(map[string]string{
		envPostgresDSN: " postgres://rms@localhost/rms ",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.direction != "down" || opts.steps != 2 || opts.dsn != "postgres://rms@localhost/rms" {
		t.Fatalf("unexpected options: %+v", opts)
	}

	opts, err = parseOptions([]string{"-dsn=postgres://flag"}, envMap(map[string]string{envPostgresDSN: "postgres://env"}))
	if err != nil || opts.dsn != "postgres://flag" || opts.direction != "up" {
		t.Fatalf("flag dsn must win: %+v %v", opts, err)
	}
}

func TestParseOptions_Errors(t *testing.T) {
	if _, err := parseOptions(nil, envMap(nil)); !errors.Is(err, errDSNRequired) {
		t.Fatalf("expected errDSNRequired, got %v", err)
	}
	if _, err := parseOptions([]string{"-direction=sideways", "-dsn=x"}, envMap(nil)); err == nil || !strings.Contains(err.Error(), "unsupported direction") {
		t.Fatalf("expected unsupported direction, got %v", err)
	}
	if _, err := parseOptions([]string{"-steps=abc"}, envMap(nil)); err == nil {
		t.Fatal("expected flag parse error")
	}
}

func TestRun_StatusUpDown(t *testing.T) {
	dsn := strings.TrimSpace(os.Getenv("RMS_POSTGRES_TEST_DSN"))
	if dsn == "" {
		t.Skip("postgres dsn is not available")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	store, err := postgres.Open(ctx, dsn)
	cancel()
	if err != nil {
		t.Skipf("postgres is not available: %v", err)
	}
	_ = store.Close()

	for _, direction := range []string{"status", "up", "down", "up"} {
		var out bytes.Buffer
		if err := run(context.Background(), options{direction: direction, dsn: dsn}, &out); err != nil {
			t.Fatalf("%s: %v", direction, err)
		}
		if !strings.HasPrefix(out.String(), "migrate "+direction+" ok") {
			t.Fatalf("unexpected output: %q", out.String())
		}
	}
}
