//go:build integration

package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/adpilot/adpilot/internal/testutil"
)

func TestIntegrationMigration_ApplyAllTables(t *testing.T) {
	ctx, repo := newMigrationTestEnv(t)

	if err := repo.RunMigrations(ctx, migrationsDir(t)); err != nil {
		t.Fatalf("RunMigrations failed: %v", err)
	}

	tables := []string{
		"schema_migrations",
		"users",
		"campaigns",
		"assets",
		"conversations",
		"messages",
		"api_keys",
	}

	for _, table := range tables {
		t.Run(table, func(t *testing.T) {
			exists, err := tableExists(ctx, repo.Pool(), table)
			if err != nil {
				t.Fatalf("tableExists failed: %v", err)
			}
			if !exists {
				t.Errorf("Table %q should exist after migrations", table)
			}
		})
	}
}

func TestIntegrationMigration_Rerun(t *testing.T) {
	ctx, repo := newMigrationTestEnv(t)
	dir := migrationsDir(t)

	if err := repo.RunMigrations(ctx, dir); err != nil {
		t.Fatalf("RunMigrations failed: %v", err)
	}

	var before int
	if err := repo.Pool().QueryRow(ctx, `SELECT COUNT(*) FROM schema_migrations`).Scan(&before); err != nil {
		t.Fatalf("count migrations: %v", err)
	}
	if before == 0 {
		t.Fatal("expected recorded migrations after first run")
	}

	// A second run must be a no-op.
	if err := repo.RunMigrations(ctx, dir); err != nil {
		t.Fatalf("RunMigrations (rerun) failed: %v", err)
	}

	var after int
	if err := repo.Pool().QueryRow(ctx, `SELECT COUNT(*) FROM schema_migrations`).Scan(&after); err != nil {
		t.Fatalf("count migrations: %v", err)
	}
	if after != before {
		t.Errorf("rerun changed recorded migrations: before=%d after=%d", before, after)
	}
}

func TestIntegrationMigration_FailedMigrationNotRecorded(t *testing.T) {
	ctx, repo := newMigrationTestEnv(t)

	if err := repo.RunMigrations(ctx, migrationsDir(t)); err != nil {
		t.Fatalf("RunMigrations failed: %v", err)
	}

	dir := t.TempDir()
	bad := "999999_broken.up.sql"
	if err := os.WriteFile(filepath.Join(dir, bad), []byte("CREATE TABL broken (id TEXT);"), 0o644); err != nil {
		t.Fatalf("write bad migration: %v", err)
	}

	if err := repo.RunMigrations(ctx, dir); err == nil {
		t.Fatal("expected error for broken migration")
	}

	var recorded bool
	err := repo.Pool().QueryRow(ctx,
		`SELECT EXISTS (SELECT FROM schema_migrations WHERE name = $1)`, bad).Scan(&recorded)
	if err != nil {
		t.Fatalf("check schema_migrations: %v", err)
	}
	if recorded {
		t.Error("failed migration must not be recorded")
	}
}

func TestIntegrationMigration_CampaignsConstraints(t *testing.T) {
	ctx, repo := newMigrationTestEnv(t)

	if err := repo.RunMigrations(ctx, migrationsDir(t)); err != nil {
		t.Fatalf("RunMigrations failed: %v", err)
	}

	owner := testutil.NewTestUser(t, testutil.UniqueID("user"))
	if err := repo.CreateUser(ctx, owner); err != nil {
		t.Fatalf("create owner: %v", err)
	}

	// Status check constraint.
	_, err := repo.Pool().Exec(ctx, `
		INSERT INTO campaigns (id, owner_id, name, status)
		VALUES ('c-bad-status', $1, 'Bad', 'paused')
	`, owner.ID)
	if err == nil {
		t.Error("expected check constraint violation for invalid status")
	}

	// Owner foreign key.
	_, err = repo.Pool().Exec(ctx, `
		INSERT INTO campaigns (id, owner_id, name, status)
		VALUES ('c-no-owner', 'missing-user', 'Orphan', 'draft')
	`)
	if err == nil {
		t.Error("expected foreign key violation for missing owner")
	}

	// Asset kind check constraint.
	_, err = repo.Pool().Exec(ctx, `
		INSERT INTO campaigns (id, owner_id, name, status) VALUES ('c-ok', $1, 'OK', 'draft')
	`, owner.ID)
	if err != nil {
		t.Fatalf("insert campaign: %v", err)
	}
	_, err = repo.Pool().Exec(ctx, `
		INSERT INTO assets (id, campaign_id, kind, status)
		VALUES ('a-bad-kind', 'c-ok', 'gif', 'pending')
	`)
	if err == nil {
		t.Error("expected check constraint violation for invalid asset kind")
	}
}

func tableExists(ctx context.Context, pool *pgxpool.Pool, tableName string) (bool, error) {
	var exists bool
	err := pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT FROM information_schema.tables
			WHERE table_schema = 'public'
			AND table_name = $1
		)
	`, tableName).Scan(&exists)
	return exists, err
}

func migrationsDir(t *testing.T) string {
	t.Helper()
	root, err := testutil.ProjectRoot()
	if err != nil {
		t.Fatalf("resolve project root: %v", err)
	}
	return filepath.Join(root, "migrations")
}

func newMigrationTestEnv(t *testing.T) (context.Context, *Repository) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration tests in short mode")
	}

	ctx := context.Background()
	dbURL := testutil.RequireEnv(t, "DATABASE_URL")

	repo, err := New(ctx, dbURL, 4)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(repo.Close)

	unlock, err := testutil.AcquireDBLock(ctx, repo.Pool())
	if err != nil {
		t.Fatalf("acquire db lock: %v", err)
	}
	t.Cleanup(func() {
		_ = unlock()
	})

	// Start from a clean slate so the apply path is exercised, not the
	// up-to-date short circuit.
	_, err = repo.Pool().Exec(ctx, `
		DROP TABLE IF EXISTS messages, conversations, assets, api_keys, campaigns, users, schema_migrations CASCADE
	`)
	if err != nil {
		t.Fatalf("drop tables: %v", err)
	}

	return ctx, repo
}
