// Package integration verifies the snapshot mirrors against real Redis and
// PostgreSQL servers. Each test skips when its server is unavailable.
//
// Run with:
//
//	go test -v ./test/integration/...
package integration

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/Adithya-Monish-Kumar-K/wordtracker/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/wordtracker/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/wordtracker/internal/indexer/snapshot"
	"github.com/Adithya-Monish-Kumar-K/wordtracker/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/wordtracker/pkg/postgres"
	pkgredis "github.com/Adithya-Monish-Kumar-K/wordtracker/pkg/redis"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// skipIfNoPostgres skips the test when PostgreSQL is unavailable.
func skipIfNoPostgres(t *testing.T) *postgres.Client {
	t.Helper()
	db, err := postgres.New(context.Background(), testPostgresConfig())
	if err != nil {
		t.Skipf("skipping integration test: postgres unavailable: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// skipIfNoRedis skips the test when Redis is unavailable.
func skipIfNoRedis(t *testing.T) *pkgredis.Client {
	t.Helper()
	rc, err := pkgredis.NewClient(config.RedisConfig{
		Addr:     envOrDefault("TEST_REDIS_ADDR", "localhost:6379"),
		DB:       envOrDefaultInt("TEST_REDIS_DB", 15),
		PoolSize: 2,
	})
	if err != nil {
		t.Skipf("skipping integration test: redis unavailable: %v", err)
	}
	t.Cleanup(func() { rc.Close() })
	return rc
}

func testPostgresConfig() config.PostgresConfig {
	return config.PostgresConfig{
		Host:            envOrDefault("TEST_POSTGRES_HOST", "localhost"),
		Port:            envOrDefaultInt("TEST_POSTGRES_PORT", 5432),
		Database:        envOrDefault("TEST_POSTGRES_DB", "wordtracker_test"),
		User:            envOrDefault("TEST_POSTGRES_USER", "wordtracker"),
		Password:        envOrDefault("TEST_POSTGRES_PASSWORD", "localdev"),
		SSLMode:         "disable",
		MaxOpenConns:    5,
		MaxIdleConns:    2,
		ConnMaxLifetime: 5 * time.Minute,
	}
}

func uniqueName(t *testing.T) string {
	return fmt.Sprintf("%s-%d", t.Name(), time.Now().UnixNano())
}

func sampleTree(t *testing.T) *index.Tree {
	t.Helper()
	e := indexer.NewEngine(context.Background(), nil)
	if err := e.ProcessSource("a.txt", strings.NewReader("the Quick brown fox\njumps over the lazy dog")); err != nil {
		t.Fatal(err)
	}
	return e.Tree()
}

func words(tree *index.Tree) []string {
	var out []string
	for rec := range tree.All() {
		out = append(out, rec.Word())
	}
	return out
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

// TestRedisMirror_RoundTrip writes a snapshot through the Redis backend and
// reads it back.
func TestRedisMirror_RoundTrip(t *testing.T) {
	rc := skipIfNoRedis(t)
	ctx := context.Background()
	key := "wordtracker:test:" + uniqueName(t)
	t.Cleanup(func() { rc.Del(context.Background(), key) })

	backend := snapshot.NewRedisBackend(rc, key)
	if _, err := backend.Read(ctx); !errors.Is(err, snapshot.ErrNotFound) {
		t.Fatalf("Read on missing key error = %v, want ErrNotFound", err)
	}

	tree := sampleTree(t)
	if err := snapshot.NewStore(backend).Save(ctx, tree); err != nil {
		t.Fatalf("Save error = %v", err)
	}
	got, ok := snapshot.NewStore(backend).Load(ctx)
	if !ok {
		t.Fatal("Load() found nothing")
	}
	if !slices.Equal(words(got), words(tree)) {
		t.Errorf("words = %v, want %v", words(got), words(tree))
	}
}

// TestPostgresMirror_RoundTrip creates the table, upserts twice and reads the
// latest snapshot back.
func TestPostgresMirror_RoundTrip(t *testing.T) {
	db := skipIfNoPostgres(t)
	ctx := context.Background()
	table := "word_snapshots_test"
	name := uniqueName(t)

	backend, err := snapshot.NewPostgresBackend(db, table, name)
	if err != nil {
		t.Fatal(err)
	}
	if err := backend.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema error = %v", err)
	}
	t.Cleanup(func() {
		db.DB.Exec(fmt.Sprintf("DELETE FROM %s WHERE name = $1", table), name)
	})

	if _, err := backend.Read(ctx); !errors.Is(err, snapshot.ErrNotFound) {
		t.Fatalf("Read on missing row error = %v, want ErrNotFound", err)
	}
	if err := backend.Write(ctx, []byte("stale")); err != nil {
		t.Fatalf("first Write error = %v", err)
	}

	tree := sampleTree(t)
	if err := snapshot.NewStore(backend).Save(ctx, tree); err != nil {
		t.Fatalf("Save error = %v", err)
	}
	got, ok := snapshot.NewStore(backend).Load(ctx)
	if !ok {
		t.Fatal("Load() found nothing")
	}
	if !slices.Equal(words(got), words(tree)) {
		t.Errorf("words = %v, want %v", words(got), words(tree))
	}
}

// TestPostgresBackend_RejectsBadTable guards the table name that is spliced
// into SQL.
func TestPostgresBackend_RejectsBadTable(t *testing.T) {
	if _, err := snapshot.NewPostgresBackend(nil, "snapshots; DROP TABLE x", "n"); err == nil {
		t.Error("expected an error for an unsafe table name")
	}
}

// TestMirrorFallback loses the primary file and restores from Redis.
func TestMirrorFallback(t *testing.T) {
	rc := skipIfNoRedis(t)
	ctx := context.Background()
	key := "wordtracker:test:" + uniqueName(t)
	t.Cleanup(func() { rc.Del(context.Background(), key) })

	path := filepath.Join(t.TempDir(), "repository.ser")
	newStore := func() *snapshot.Store {
		return snapshot.NewStore(
			snapshot.NewFileBackend(path),
			snapshot.WithMirrors(snapshot.NewRedisBackend(rc, key)),
		)
	}
	tree := sampleTree(t)
	if err := newStore().Save(ctx, tree); err != nil {
		t.Fatal(err)
	}
	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}

	engine := indexer.NewEngine(ctx, newStore())
	if !engine.Stats().Restored {
		t.Fatal("engine should restore from the redis mirror")
	}
	if !slices.Equal(words(engine.Tree()), words(tree)) {
		t.Errorf("words = %v, want %v", words(engine.Tree()), words(tree))
	}
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrDefaultInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
