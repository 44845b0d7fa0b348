package migrate

import (
	"context"
	"testing"
	"testing/fstest"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestEmbeddedMigrationsAreValid(t *testing.T) {
	if err := Validate(); err != nil {
		t.Fatalf("embedded migrations invalid: %v", err)
	}
}

func TestValidateFSRejectsBadFiles(t *testing.T) {
	cases := map[string]fstest.MapFS{
		"bad name": {
			"create_things.sql": {Data: []byte("-- +goose Up\n-- +goose Down\n")},
		},
		"missing down": {
			"20260101000000_things.sql": {Data: []byte("-- +goose Up\nCREATE TABLE t (id int);\n")},
		},
		"duplicate version": {
			"20260101000000_a.sql": {Data: []byte("-- +goose Up\n-- +goose Down\n")},
			"20260101000000_b.sql": {Data: []byte("-- +goose Up\n-- +goose Down\n")},
		},
	}
	for name, fsys := range cases {
		t.Run(name, func(t *testing.T) {
			if err := ValidateFS(fsys); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestRunCreatesSessionEntriesOnSQLite(t *testing.T) {
	conn, err := gorm.Open(sqlite.Open("file:migrate_test?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })

	ctx := context.Background()
	if err := Run(ctx, sqlDB, "sqlite3", "up"); err != nil {
		t.Fatalf("goose up: %v", err)
	}
	if !conn.Migrator().HasTable("session_entries") {
		t.Fatal("expected session_entries table after up")
	}

	version, err := Version(ctx, sqlDB, "sqlite3")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if version != 20260301120000 {
		t.Fatalf("unexpected version %d", version)
	}

	if err := Run(ctx, sqlDB, "sqlite3", "down"); err != nil {
		t.Fatalf("goose down: %v", err)
	}
	if conn.Migrator().HasTable("session_entries") {
		t.Fatal("expected session_entries dropped after down")
	}
}

func TestRunRequiresDB(t *testing.T) {
	if err := Run(context.Background(), nil, "sqlite3", "up"); err == nil {
		t.Fatal("expected error without db")
	}
}
