// Package pgtestutil creates throwaway PostgreSQL databases for integration tests.
package pgtestutil

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/SscSPs/points_ledger/pkg/database"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// EnvDatabaseURL names the variable holding an admin DSN of a disposable server.
const EnvDatabaseURL = "LEDGER_TEST_DATABASE_URL"

// NewTestPool creates a fresh database with all migrations applied and returns a
// pool connected to it. The database is dropped when the test ends. The test is
// skipped when EnvDatabaseURL is not set.
func NewTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	baseDSN := os.Getenv(EnvDatabaseURL)
	if baseDSN == "" {
		t.Skipf("%s not set, skipping PostgreSQL integration test", EnvDatabaseURL)
	}

	admin, err := sql.Open("pgx", baseDSN)
	if err != nil {
		t.Fatalf("open admin: %v", err)
	}

	dbName := sanitizeForPgIdent(uniqueDBName("ledgertest", t.Name()))

	ctx, cancel := context.WithTimeout(t.Context(), 10*time.Second)
	defer cancel()

	const maxAttempts = 5
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		_, err = admin.ExecContext(ctx,
			fmt.Sprintf(`CREATE DATABASE "%s" WITH TEMPLATE template0 ENCODING 'UTF8'`, dbName))
		if err == nil {
			break
		}
		if !isUniqueViolation(err) || attempt == maxAttempts {
			_ = admin.Close()
			t.Fatalf("create database: %v", err)
		}
		dbName = sanitizeForPgIdent(uniqueDBName("ledgertest", t.Name()))
	}

	testDSN, err := ReplaceDBInDSN(baseDSN, dbName)
	if err != nil {
		_ = admin.Close()
		t.Fatalf("test dsn: %v", err)
	}

	absPath, err := migrationsAbsPath()
	if err != nil {
		_ = admin.Close()
		t.Fatalf("resolve migrations path: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	if err := database.RunMigrations(testDSN, "file://"+filepath.ToSlash(absPath), logger); err != nil {
		_ = admin.Close()
		t.Fatalf("migrate up: %v", err)
	}

	pool, err := database.NewPgxPool(ctx, testDSN, true)
	if err != nil {
		_ = admin.Close()
		t.Fatalf("open test pool: %v", err)
	}

	t.Cleanup(func() {
		pool.Close()

		dctx, dcancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer dcancel()

		_, derr := admin.ExecContext(dctx,
			fmt.Sprintf(`DROP DATABASE IF EXISTS "%s" WITH (FORCE)`, dbName))
		if derr != nil {
			_, _ = admin.ExecContext(dctx, `
				SELECT pg_terminate_backend(pid)
				FROM pg_stat_activity
				WHERE datname = $1 AND pid <> pg_backend_pid()
			`, dbName)
			_, _ = admin.ExecContext(dctx,
				fmt.Sprintf(`DROP DATABASE IF EXISTS "%s"`, dbName))
		}
		_ = admin.Close()
	})

	return pool
}

// ReplaceDBInDSN swaps the database name in a Postgres URL DSN.
func ReplaceDBInDSN(dsn, newDB string) (string, error) {
	u, err := url.Parse(dsn)
	if err != nil {
		return "", fmt.Errorf("parse dsn: %w", err)
	}

	u.Path = "/" + newDB
	return u.String(), nil
}

func migrationsAbsPath() (string, error) {
	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		return "", fmt.Errorf("runtime.Caller failed")
	}
	// internal/platform/pgtestutil -> repo root
	repoRoot := filepath.Join(filepath.Dir(thisFile), "..", "..", "..")
	abs, err := filepath.Abs(filepath.Join(repoRoot, "migrations"))
	if err != nil {
		return "", fmt.Errorf("abs migrations path: %w", err)
	}
	return abs, nil
}

func uniqueDBName(prefix, testName string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(testName))
	var rnd [6]byte
	_, _ = rand.Read(rnd[:])
	return fmt.Sprintf("%s_%08x_%s", prefix, h.Sum32(), hex.EncodeToString(rnd[:]))
}

func sanitizeForPgIdent(s string) string {
	s = strings.ToLower(s)
	repl := strings.NewReplacer("/", "_", "\\", "_", " ", "_", ":", "_", "-", "_")
	s = repl.Replace(s)
	if len(s) <= 63 {
		return s
	}
	return s[:31] + "_" + s[len(s)-31:]
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
