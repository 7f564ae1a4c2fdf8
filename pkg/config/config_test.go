package config

import (
	"testing"
	"time"
)

func TestLoadDefaultsToMemoryWithoutDatabase(t *testing.T) {
	t.Setenv("STORE_BACKEND", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_HOST", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Store.Backend != StoreBackendMemory {
		t.Fatalf("Backend: want=%q got=%q", StoreBackendMemory, cfg.Store.Backend)
	}
	if cfg.Upload.MaxBytes != 10<<20 {
		t.Fatalf("MaxBytes: want=%d got=%d", 10<<20, cfg.Upload.MaxBytes)
	}
}

func TestLoadPicksPostgresWhenHostSet(t *testing.T) {
	t.Setenv("STORE_BACKEND", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_HOST", "db.internal")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Store.Backend != StoreBackendPostgres {
		t.Fatalf("Backend: want=%q got=%q", StoreBackendPostgres, cfg.Store.Backend)
	}
	if got := cfg.Database.DSN(); got != "host=db.internal port="+cfg.Database.Port+" user="+cfg.Database.User+
		" password="+cfg.Database.Password+" dbname="+cfg.Database.DBName+" sslmode="+cfg.Database.SSLMode {
		t.Fatalf("DSN: got=%q", got)
	}
}

func TestLoadExplicitBackendWins(t *testing.T) {
	t.Setenv("STORE_BACKEND", "memory")
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost/db")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Store.Backend != StoreBackendMemory {
		t.Fatalf("Backend: want=%q got=%q", StoreBackendMemory, cfg.Store.Backend)
	}
	if cfg.Database.DSN() != "postgres://u:p@localhost/db" {
		t.Fatalf("DSN: want DATABASE_URL, got=%q", cfg.Database.DSN())
	}
}

func TestLoadOCRDelays(t *testing.T) {
	t.Setenv("OCR_MIN_DELAY_MS", "200")
	t.Setenv("OCR_MAX_DELAY_MS", "100")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.OCR.MinDelay != 200*time.Millisecond {
		t.Fatalf("MinDelay: got=%s", cfg.OCR.MinDelay)
	}
	if cfg.OCR.MaxDelay != cfg.OCR.MinDelay {
		t.Fatalf("MaxDelay should be raised to MinDelay, got=%s", cfg.OCR.MaxDelay)
	}
}
