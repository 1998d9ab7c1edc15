package analysis

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/vidgist/vidgist-backend/internal/apperr"
	"github.com/vidgist/vidgist-backend/internal/data/repos/testutil"
	types "github.com/vidgist/vidgist-backend/internal/domain"
)

func TestJobRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	repo := NewJobRepo(db, testutil.Logger(t))

	profile := testutil.SeedProfile(t, tx, types.PlanFree, 30)

	job, err := repo.Create(ctx, tx, &types.AnalysisJob{
		UserID:          profile.ID,
		VideoURL:        "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		VideoID:         "dQw4w9WgXcQ",
		Mode:            types.ModeStandard,
		CreditsReserved: 1,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if job.Status != types.JobStatusPending {
		t.Fatalf("Create: status = %q, want PENDING", job.Status)
	}

	if _, err := repo.GetByID(ctx, tx, uuid.New()); !errors.Is(err, apperr.ErrJobNotFound) {
		t.Fatalf("GetByID missing: err = %v, want ErrJobNotFound", err)
	}

	// Duplicate guard sees the pending job.
	has, err := repo.HasRunnableForVideo(ctx, tx, profile.ID, "dQw4w9WgXcQ", types.ModeStandard)
	if err != nil || !has {
		t.Fatalf("HasRunnableForVideo: has=%v err=%v, want true", has, err)
	}
	if has, _ = repo.HasRunnableForVideo(ctx, tx, profile.ID, "dQw4w9WgXcQ", types.ModeDeep); has {
		t.Fatalf("HasRunnableForVideo other mode: want false")
	}

	// PENDING -> PROCESSING exactly once.
	won, err := repo.MarkProcessing(ctx, tx, job.ID)
	if err != nil || !won {
		t.Fatalf("MarkProcessing: won=%v err=%v", won, err)
	}
	if won, _ = repo.MarkProcessing(ctx, tx, job.ID); won {
		t.Fatalf("MarkProcessing twice: want false")
	}

	if err := repo.UpdateProgress(ctx, tx, job.ID, 150); err != nil {
		t.Fatalf("UpdateProgress: %v", err)
	}
	got, err := repo.GetByID(ctx, tx, job.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Progress != 100 {
		t.Fatalf("progress clamp: %d, want 100", got.Progress)
	}
	if got.StartedAt == nil {
		t.Fatalf("StartedAt not set by MarkProcessing")
	}

	// Terminal transition wins once; the losing side is a no-op.
	resultID := uuid.New()
	won, err = repo.MarkCompleted(ctx, tx, job.ID, resultID)
	if err != nil || !won {
		t.Fatalf("MarkCompleted: won=%v err=%v", won, err)
	}
	if won, _ = repo.MarkFailed(ctx, tx, job.ID, "ANALYSIS_006", "late failure"); won {
		t.Fatalf("MarkFailed after completion: want false")
	}
	got, _ = repo.GetByID(ctx, tx, job.ID)
	if got.Status != types.JobStatusCompleted || got.ResultID == nil || *got.ResultID != resultID {
		t.Fatalf("terminal state: status=%q result=%v", got.Status, got.ResultID)
	}
	if got.ErrorCode != "" {
		t.Fatalf("terminal state: error_code = %q, want empty", got.ErrorCode)
	}

	// Late progress on a terminal job changes nothing.
	if err := repo.UpdateProgress(ctx, tx, job.ID, 10); err != nil {
		t.Fatalf("UpdateProgress terminal: %v", err)
	}
	got, _ = repo.GetByID(ctx, tx, job.ID)
	if got.Progress != 100 {
		t.Fatalf("terminal progress: %d, want 100", got.Progress)
	}

	// Completed jobs no longer count as runnable.
	if has, _ = repo.HasRunnableForVideo(ctx, tx, profile.ID, "dQw4w9WgXcQ", types.ModeStandard); has {
		t.Fatalf("HasRunnableForVideo after completion: want false")
	}

	if jobs, err := repo.ListByUser(ctx, tx, profile.ID, 10, 0); err != nil || len(jobs) != 1 {
		t.Fatalf("ListByUser: len=%d err=%v, want 1", len(jobs), err)
	}
}

func TestJobRepoMarkFailed(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	repo := NewJobRepo(db, testutil.Logger(t))

	profile := testutil.SeedProfile(t, tx, types.PlanFree, 30)
	job, err := repo.Create(ctx, tx, &types.AnalysisJob{
		UserID:          profile.ID,
		VideoURL:        "https://youtu.be/jNQXAC9IVRw",
		VideoID:         "jNQXAC9IVRw",
		Mode:            types.ModeStandard,
		CreditsReserved: 1,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	won, err := repo.MarkFailed(ctx, tx, job.ID, "ANALYSIS_006", "engine crashed")
	if err != nil || !won {
		t.Fatalf("MarkFailed: won=%v err=%v", won, err)
	}
	if won, _ = repo.MarkFailed(ctx, tx, job.ID, "ANALYSIS_006", "again"); won {
		t.Fatalf("MarkFailed twice: want false")
	}

	got, _ := repo.GetByID(ctx, tx, job.ID)
	if got.Status != types.JobStatusFailed || got.ErrorCode != "ANALYSIS_006" || got.ErrorMessage != "engine crashed" {
		t.Fatalf("failed state: %+v", got)
	}
	if got.CompletedAt == nil {
		t.Fatalf("CompletedAt not set on failure")
	}
}
