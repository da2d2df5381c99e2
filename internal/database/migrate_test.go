package database

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"sort"
	"strings"
	"testing"
)

// migrationsDir returns the absolute path to db/migrations/ from the project root.
func migrationsDir(t *testing.T) string {
	t.Helper()
	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("cannot determine test file path")
	}
	// thisFile is internal/database/migrate_test.go, project root is two dirs up.
	dir := filepath.Join(filepath.Dir(thisFile), "..", "..", "db", "migrations")
	if _, err := os.Stat(dir); err != nil {
		t.Fatalf("migrations directory not found at %s: %v", dir, err)
	}
	return dir
}

var migrationName = regexp.MustCompile(`^(\d{6})_[a-z0-9_]+\.(up|down)\.sql$`)

// TestMigrations_UpDownPairs ensures every .up.sql has a matching .down.sql.
func TestMigrations_UpDownPairs(t *testing.T) {
	dir := migrationsDir(t)
	upFiles, err := filepath.Glob(filepath.Join(dir, "*.up.sql"))
	if err != nil {
		t.Fatalf("globbing up files: %v", err)
	}
	if len(upFiles) == 0 {
		t.Fatal("no migration files found")
	}

	for _, up := range upFiles {
		down := strings.Replace(up, ".up.sql", ".down.sql", 1)
		if _, err := os.Stat(down); err != nil {
			t.Errorf("missing down migration for %s", filepath.Base(up))
		}
	}
}

// TestMigrations_SequentialVersions catches gaps and duplicate version
// numbers, which golang-migrate would otherwise report only at startup.
func TestMigrations_SequentialVersions(t *testing.T) {
	dir := migrationsDir(t)
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("reading migrations dir: %v", err)
	}

	versions := make(map[string]int)
	for _, e := range entries {
		m := migrationName.FindStringSubmatch(e.Name())
		if m == nil {
			t.Errorf("unexpected file name %q", e.Name())
			continue
		}
		if m[2] == "up" {
			versions[m[1]]++
		}
	}

	var sorted []string
	for v, n := range versions {
		if n > 1 {
			t.Errorf("version %s has %d up migrations", v, n)
		}
		sorted = append(sorted, v)
	}
	sort.Strings(sorted)
	for i, v := range sorted {
		if want := fmt.Sprintf("%06d", i+1); v != want {
			t.Errorf("migration version %s out of sequence, want %s", v, want)
		}
	}
}

// TestMigrations_DownDropsCreatedTables checks that each down migration
// drops every table its up migration creates.
func TestMigrations_DownDropsCreatedTables(t *testing.T) {
	dir := migrationsDir(t)
	upFiles, _ := filepath.Glob(filepath.Join(dir, "*.up.sql"))

	createRe := regexp.MustCompile(`(?i)CREATE TABLE(?: IF NOT EXISTS)?\s+(\w+)`)
	dropRe := regexp.MustCompile(`(?i)DROP TABLE(?: IF EXISTS)?\s+(\w+)`)

	for _, up := range upFiles {
		upSQL, err := os.ReadFile(up)
		if err != nil {
			t.Fatalf("reading %s: %v", up, err)
		}
		downSQL, err := os.ReadFile(strings.Replace(up, ".up.sql", ".down.sql", 1))
		if err != nil {
			continue // reported by TestMigrations_UpDownPairs
		}

		dropped := make(map[string]bool)
		for _, m := range dropRe.FindAllStringSubmatch(string(downSQL), -1) {
			dropped[m[1]] = true
		}
		for _, m := range createRe.FindAllStringSubmatch(string(upSQL), -1) {
			if !dropped[m[1]] {
				t.Errorf("%s creates %s but its down migration does not drop it", filepath.Base(up), m[1])
			}
		}
	}
}

// TestMigrations_AccountUniqueness guards the indexes that back duplicate
// username, email, and session token detection.
func TestMigrations_AccountUniqueness(t *testing.T) {
	data, err := os.ReadFile(filepath.Join(migrationsDir(t), "000001_create_accounts.up.sql"))
	if err != nil {
		t.Fatalf("reading accounts migration: %v", err)
	}
	sql := string(data)
	for _, col := range []string{"(username_key)", "(email)", "(session_token_hash)"} {
		if !strings.Contains(sql, "UNIQUE KEY") || !strings.Contains(sql, col) {
			t.Errorf("accounts table is missing a unique index on %s", col)
		}
	}
}
