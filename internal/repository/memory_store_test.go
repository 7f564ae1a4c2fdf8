package repository

import (
	"context"
	"testing"
	"time"

	"fra-atlas/internal/models"

	"go.uber.org/zap"
)

func TestMemoryStoreContract(t *testing.T) {
	runStoreContract(t, func(t *testing.T) Store {
		return NewMemoryStore(zap.NewNop())
	})
}

func TestMemoryStoreUpdatedAtNeverGoesBackwards(t *testing.T) {
	s := NewMemoryStore(zap.NewNop())
	clock := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return clock }

	c := mustCreateClaim(t, s, "FRA-2024-100", 1, models.ClaimStatusPending)

	clock = clock.Add(-time.Hour)
	status := models.ClaimStatusRejected
	updated, err := s.UpdateClaim(context.Background(), c.ID, models.ClaimPatch{Status: &status})
	if err != nil {
		t.Fatalf("UpdateClaim: %v", err)
	}
	if !updated.UpdatedAt.Equal(c.UpdatedAt) {
		t.Fatalf("updatedAt: want=%s got=%s", c.UpdatedAt, updated.UpdatedAt)
	}
}

func TestMemoryStoreSameInstantKeepsInsertionOrder(t *testing.T) {
	s := NewMemoryStore(zap.NewNop())
	fixed := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	a := mustCreateClaim(t, s, "FRA-2024-101", 1, models.ClaimStatusPending)
	b := mustCreateClaim(t, s, "FRA-2024-102", 1, models.ClaimStatusPending)

	claims, err := s.ListClaims(context.Background(), 10)
	if err != nil {
		t.Fatalf("ListClaims: %v", err)
	}
	if claims[0].ID != b.ID || claims[1].ID != a.ID {
		t.Fatalf("order: want [%s %s]", b.ID, a.ID)
	}
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	s := NewMemoryStore(zap.NewNop())
	c := mustCreateClaim(t, s, "FRA-2024-103", 1, models.ClaimStatusPending)

	got, err := s.GetClaim(context.Background(), c.ID)
	if err != nil {
		t.Fatalf("GetClaim: %v", err)
	}
	got.ClaimantName = "mutated"
	*got.District = "mutated"

	again, _ := s.GetClaim(context.Background(), c.ID)
	if again.ClaimantName != "Sita Devi" || *again.District != "Nashik" {
		t.Fatalf("store leaked internal state: %+v", again)
	}
}
