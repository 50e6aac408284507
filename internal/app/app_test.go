package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"
	_ "time/tzdata"

	log "github.com/sirupsen/logrus"

	healthcheck "github.com/vladislavdragonenkov/rms/internal/health"
	"github.com/vladislavdragonenkov/rms/internal/version"
)

func TestRun_MemoryGracefulShutdown(t *testing.T) {
	cfg := DefaultConfig()
	cfg.HTTPAddr = "127.0.0.1:0"
	cfg.GRPCAddr = "127.0.0.1:0"
	cfg.MetricsAddr = "127.0.0.1:0"
	cfg.AdminEmail = "admin@rms.local"
	cfg.AdminPassword = "admin123"

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(150 * time.Millisecond)
		cancel()
	}()

	err := Run(ctx, cfg)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestRun_InvalidStorageDriver(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StorageDriver = "invalid-driver"

	err := Run(context.Background(), cfg)
	if err == nil || !strings.Contains(err.Error(), "unsupported storage driver") {
		t.Fatalf("expected unsupported storage driver error, got %v", err)
	}
}

func TestRun_InvalidTimezone(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StoreTimezone = "Mars/Olympus_Mons"
	cfg.HTTPAddr = "127.0.0.1:0"
	cfg.GRPCAddr = "127.0.0.1:0"
	cfg.MetricsAddr = "127.0.0.1:0"

	err := Run(context.Background(), cfg)
	if err == nil || !strings.Contains(err.Error(), "store timezone") {
		t.Fatalf("expected timezone error, got %v", err)
	}
}

func TestBuildServices_MemorySeedsStoreAndAdmin(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AdminEmail = "admin@rms.local"
	cfg.AdminPassword = "admin123"
	deps := newMemoryDependencies()
	logger := log.WithField("test", "build-services")

	services, issuer, redisClient, err := buildServices(context.Background(), cfg, deps, logger)
	if err != nil {
		t.Fatalf("buildServices: %v", err)
	}
	if issuer == nil || redisClient != nil {
		t.Fatalf("unexpected issuer/redis: %v %v", issuer, redisClient)
	}

	open, err := services.Store.IsOpen(context.Background())
	if err != nil || !open {
		t.Fatalf("store must be bootstrapped open: %v %v", open, err)
	}

	session, err := services.Accounts.Login(context.Background(), "admin@rms.local", "admin123")
	if err != nil {
		t.Fatalf("seeded admin must log in: %v", err)
	}
	actor, err := issuer.Parse(session.Token)
	if err != nil || !actor.IsAdmin() {
		t.Fatalf("expected admin token, got %+v %v", actor, err)
	}
}

func TestInitRuntimeDependencies_Memory(t *testing.T) {
	deps, err := initRuntimeDependencies(context.Background(), DefaultConfig(), log.WithField("test", "deps"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deps.orders == nil || deps.dashboard == nil || deps.outbox == nil || deps.idempotency == nil || deps.users == nil {
		t.Fatalf("memory dependencies must be initialized: %+v", deps)
	}
	if deps.storageChecker != nil || deps.closeFn != nil {
		t.Fatal("memory storage has no checker or close func")
	}
	deps.close(log.WithField("test", "deps"))
}

func TestInitRuntimeDependencies_PostgresWithoutDSN(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StorageDriver = StorageDriverPostgres

	if _, err := initRuntimeDependencies(context.Background(), cfg, log.WithField("test", "deps")); err == nil {
		t.Fatal("expected error for empty dsn")
	}
}

func TestInitRuntimeDependencies_PostgresSuccess(t *testing.T) {
	dsn := strings.TrimSpace(os.Getenv("RMS_POSTGRES_TEST_DSN"))
	if dsn == "" {
		t.Skip("postgres dsn is not available")
	}

	cfg := DefaultConfig()
	cfg.StorageDriver = StorageDriverPostgres
	cfg.PostgresDSN = dsn

	deps, err := initRuntimeDependencies(context.Background(), cfg, log.WithField("test", "postgres-init"))
	if err != nil {
		t.Skipf("postgres is not available for app integration test: %v", err)
	}
	defer deps.close(log.WithField("test", "postgres-init"))

	if deps.storageChecker == nil {
		t.Fatal("expected non-nil storage checker for postgres")
	}
	if check := deps.storageChecker.Check(context.Background()); check.Status != healthcheck.StatusHealthy {
		t.Fatalf("expected healthy storage checker, got %+v", check)
	}
}

func TestInitOutboxPublishers(t *testing.T) {
	logger := log.WithField("test", "publishers")

	none, err := initOutboxPublishers(DefaultConfig(), logger)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if none.enabled() {
		t.Fatal("broker none must not enable publishing")
	}
	none.close(logger)

	cfg := DefaultConfig()
	cfg.OutboxBroker = "nats"
	if _, err := initOutboxPublishers(cfg, logger); err == nil {
		t.Fatal("expected error for unsupported broker")
	}
}

func TestStartWorkers_StopOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := startWorkers(ctx, DefaultConfig(), newMemoryDependencies(), &outboxPublishers{})
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("workers did not stop after cancel")
	}
}

func TestStartMetricsServer_Endpoints(t *testing.T) {
	logger := log.WithField("test", "http")
	port := findFreePort(t)
	addr := fmt.Sprintf("127.0.0.1:%d", port)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv := startMetricsServer(ctx, addr, logger, healthcheck.NewHandler(version.GetVersion()))
	defer shutdownHTTP(srv, logger)

	for _, path := range []string{"/metrics", "/healthz", "/readyz", "/livez"} {
		body := waitForOK(t, "http://"+addr+path)
		if len(body) == 0 {
			t.Fatalf("%s returned empty body", path)
		}
	}
}

func TestShutdownHTTP_Nil(t *testing.T) {
	shutdownHTTP(nil, log.WithField("test", "shutdown"))
}

func waitForOK(t *testing.T, url string) []byte {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		resp, err := http.Get(url)
		if err == nil {
			body, _ := io.ReadAll(resp.Body)
			_ = resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("%s: expected 200, got %d", url, resp.StatusCode)
			}
			return body
		}
		if time.Now().After(deadline) {
			t.Fatalf("%s: %v", url, err)
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func findFreePort(t *testing.T) int {
	t.Helper()
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to find free port: %v", err)
	}
	defer lis.Close()
	return lis.Addr().(*net.TCPAddr).Port
}
