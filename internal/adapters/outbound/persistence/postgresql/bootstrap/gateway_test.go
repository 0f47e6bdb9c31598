//go:build !integration

package bootstrap

import (
	"context"
	"path/filepath"
	"testing"
)

func TestRunMigrationsRejectsCanceledContext(t *testing.T) {
	gateway := NewGateway("postgres://localhost:5432/invoicesweep", "localhost:5432/invoicesweep", "../migrations", nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	appErr := gateway.RunMigrations(ctx)
	if appErr == nil {
		t.Fatalf("expected error for canceled context")
	}
	if appErr.Code != "DB_MIGRATION_CONTEXT_CANCELED" {
		t.Fatalf("expected DB_MIGRATION_CONTEXT_CANCELED, got %s", appErr.Code)
	}
}

func TestRunMigrationsReportsMissingSource(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "does-not-exist")
	gateway := NewGateway("postgres://localhost:5432/invoicesweep", "localhost:5432/invoicesweep", missing, nil)

	appErr := gateway.RunMigrations(context.Background())
	if appErr == nil {
		t.Fatalf("expected setup error")
	}
	if appErr.Code != "DB_MIGRATION_SETUP_FAILED" {
		t.Fatalf("expected DB_MIGRATION_SETUP_FAILED, got %s", appErr.Code)
	}
	if appErr.Details["migrations_path"] != missing {
		t.Fatalf("expected migrations path detail, got %v", appErr.Details)
	}
}

func TestMigrationFilesArePaired(t *testing.T) {
	ups, err := filepath.Glob(filepath.Join("..", "migrations", "*.up.sql"))
	if err != nil {
		t.Fatalf("glob failed: %v", err)
	}
	if len(ups) == 0 {
		t.Fatalf("expected migrations to exist")
	}
	for _, up := range ups {
		down := up[:len(up)-len(".up.sql")] + ".down.sql"
		matches, _ := filepath.Glob(down)
		if len(matches) != 1 {
			t.Fatalf("expected down migration for %s", up)
		}
	}
}
