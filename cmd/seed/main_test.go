package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"fra-atlas/internal/repository"
	"fra-atlas/internal/service"
	"fra-atlas/pkg/events"

	"go.uber.org/zap"
)

func TestBundledClaimsAreValid(t *testing.T) {
	claims, err := loadClaims("")
	if err != nil {
		t.Fatalf("loadClaims: %v", err)
	}
	if len(claims) == 0 {
		t.Fatal("bundled claims are empty")
	}
}

func TestSeedClaimsIsRepeatable(t *testing.T) {
	claims, err := loadClaims("")
	if err != nil {
		t.Fatalf("loadClaims: %v", err)
	}

	log := zap.NewNop()
	store := repository.NewMemoryStore(log)
	svc := service.NewClaimService(store, events.Nop{}, log)
	ctx := context.Background()

	created, skipped := seedClaims(ctx, svc, claims, log)
	if created != len(claims) || skipped != 0 {
		t.Fatalf("first run: want created=%d skipped=0 got created=%d skipped=%d", len(claims), created, skipped)
	}

	created, skipped = seedClaims(ctx, svc, claims, log)
	if created != 0 || skipped != len(claims) {
		t.Fatalf("second run: want created=0 skipped=%d got created=%d skipped=%d", len(claims), created, skipped)
	}

	mapped, err := svc.MapFeatures(ctx)
	if err != nil {
		t.Fatalf("MapFeatures: %v", err)
	}
	if len(mapped.Features) != 3 {
		t.Fatalf("features: want=3 got=%d", len(mapped.Features))
	}
}

func TestLoadClaimsFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "claims.json")
	body := `[{"claimId":"X-1","claimantName":"A","village":"B","area":1}]`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	claims, err := loadClaims(path)
	if err != nil {
		t.Fatalf("loadClaims: %v", err)
	}
	if len(claims) != 1 || claims[0].ClaimID != "X-1" {
		t.Fatalf("claims: got=%+v", claims)
	}

	if _, err := loadClaims(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("missing file: want error")
	}
}
