package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tair/inventory-scanner/internal/scanner/domain"
)

func TestMemorySessions_FindLatestActive(t *testing.T) {
	ctx := context.Background()
	sessions := NewMemoryStore().Sessions()

	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	seed := []domain.InventorySession{
		{ID: "s-old", OrganizationID: "org-1", Status: domain.SessionStatusCompleted, CreatedAt: base.Add(2 * time.Hour)},
		{ID: "s-active", OrganizationID: "org-1", Status: domain.SessionStatusActive, CreatedAt: base},
		{ID: "s-other", OrganizationID: "org-2", Status: domain.SessionStatusActive, CreatedAt: base.Add(time.Hour)},
	}
	for i := range seed {
		if err := sessions.Create(ctx, &seed[i]); err != nil {
			t.Fatalf("seed %s: %v", seed[i].ID, err)
		}
	}

	got, err := sessions.FindLatestActive(ctx, "org-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != "s-active" {
		t.Errorf("expected s-active, got %s", got.ID)
	}

	if _, err := sessions.FindLatestActive(ctx, "org-3"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestMemorySessions_OneActivePerOrganization(t *testing.T) {
	ctx := context.Background()
	sessions := NewMemoryStore().Sessions()

	first := &domain.InventorySession{ID: "s1", OrganizationID: "org-1", Status: domain.SessionStatusActive}
	if err := sessions.Create(ctx, first); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	second := &domain.InventorySession{ID: "s2", OrganizationID: "org-1", Status: domain.SessionStatusActive}
	if err := sessions.Create(ctx, second); !errors.Is(err, domain.ErrActiveSessionExists) {
		t.Errorf("expected ErrActiveSessionExists, got %v", err)
	}

	count, _ := sessions.CountActive(ctx, "org-1")
	if count != 1 {
		t.Errorf("expected 1 active session, got %d", count)
	}
}

func TestMemoryProducts_Stats(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	products := store.Products()

	_ = store.Sessions().Create(ctx, &domain.InventorySession{ID: "s1", OrganizationID: "org-1", Status: domain.SessionStatusActive})

	rows := []domain.ScannedProduct{
		{ID: "p1", SessionID: "s1", Barcode: "111", Quantity: 2, ScannedBy: "u1"},
		{ID: "p2", SessionID: "s1", Barcode: "222", Quantity: 5, ScannedBy: "u2"},
		{ID: "p3", SessionID: "s1", Barcode: "333", Quantity: 1, ScannedBy: "u1"},
		{ID: "p4", SessionID: "s9", Barcode: "444", Quantity: 1, ScannedBy: "u3"},
	}
	for i := range rows {
		if err := products.Create(ctx, &rows[i]); err != nil {
			t.Fatalf("seed %s: %v", rows[i].ID, err)
		}
	}

	stats, err := products.StatsBySessions(ctx, []string{"s1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := stats["s1"]
	if got.Products != 3 || got.Units != 8 || got.Operators != 2 {
		t.Errorf("unexpected stats: %+v", got)
	}
	if _, ok := stats["s9"]; ok {
		t.Error("stats for unrequested session returned")
	}

	count, _ := products.CountBySession(ctx, "s1")
	if count != 3 {
		t.Errorf("expected 3, got %d", count)
	}

	orgCount, _ := products.CountByOrganization(ctx, "org-1", time.Time{})
	if orgCount != 3 {
		t.Errorf("expected 3 scans for org-1, got %d", orgCount)
	}

	page, _ := products.ListBySession(ctx, "s1", 2, 1)
	if len(page) != 2 {
		t.Errorf("expected page of 2, got %d", len(page))
	}
}

func TestMemoryProfiles_EmailIsUnique(t *testing.T) {
	ctx := context.Background()
	profiles := NewMemoryStore().Profiles()

	if err := profiles.Create(ctx, &domain.Profile{ID: "u1", Email: "ana@example.com"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := profiles.Create(ctx, &domain.Profile{ID: "u2", Email: "ANA@example.com"})
	if !errors.Is(err, domain.ErrEmailTaken) {
		t.Errorf("expected ErrEmailTaken, got %v", err)
	}

	at := time.Now()
	if err := profiles.TouchLastLogin(ctx, "u1", at); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p, _ := profiles.FindByEmail(ctx, "ana@example.com")
	if p.LastLoginAt == nil || !p.LastLoginAt.Equal(at) {
		t.Errorf("last login not recorded: %v", p.LastLoginAt)
	}
}
