package notion

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/vidgist/vidgist-backend/internal/data/repos/testutil"
	types "github.com/vidgist/vidgist-backend/internal/domain"
)

func TestExportRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	repo := NewExportRepo(db, testutil.Logger(t))

	profile := testutil.SeedProfile(t, tx, types.PlanPro, 0)
	resultID := uuid.New()

	if miss, err := repo.GetByUserAndResult(ctx, tx, profile.ID, resultID); err != nil || miss != nil {
		t.Fatalf("GetByUserAndResult miss: got=%v err=%v", miss, err)
	}

	export, err := repo.Upsert(ctx, tx, &types.NotionExport{
		UserID:      profile.ID,
		ResultID:    resultID,
		PageID:      "page-1",
		PageURL:     "https://notion.so/page-1",
		SyncVersion: 1,
	})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	// Re-export rebinds the same row.
	rebound, err := repo.Upsert(ctx, tx, &types.NotionExport{
		UserID:      profile.ID,
		ResultID:    resultID,
		PageID:      "page-2",
		PageURL:     "https://notion.so/page-2",
		SyncVersion: 1,
	})
	if err != nil {
		t.Fatalf("Upsert rebind: %v", err)
	}
	if rebound.ID != export.ID {
		t.Fatalf("Upsert rebind changed identity: %v -> %v", export.ID, rebound.ID)
	}
	if rebound.PageID != "page-2" {
		t.Fatalf("Upsert rebind page: %q, want page-2", rebound.PageID)
	}

	// Version bump wins against the expected version only.
	won, err := repo.BumpSyncVersion(ctx, tx, export.ID, 1)
	if err != nil || !won {
		t.Fatalf("BumpSyncVersion: won=%v err=%v", won, err)
	}

	// A stale writer holding version 1 must see a conflict.
	if won, _ = repo.BumpSyncVersion(ctx, tx, export.ID, 1); won {
		t.Fatalf("BumpSyncVersion stale: want false")
	}

	got, _ := repo.GetByUserAndResult(ctx, tx, profile.ID, resultID)
	if got.SyncVersion != 2 {
		t.Fatalf("sync_version = %d, want 2", got.SyncVersion)
	}
	if got.LastSyncedAt == nil {
		t.Fatalf("last_synced_at not set")
	}
}
