package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vidgist/vidgist-backend/internal/apperr"
	analysisrepo "github.com/vidgist/vidgist-backend/internal/data/repos/analysis"
	billingrepo "github.com/vidgist/vidgist-backend/internal/data/repos/billing"
	"github.com/vidgist/vidgist-backend/internal/data/repos/testutil"
	userrepo "github.com/vidgist/vidgist-backend/internal/data/repos/user"
	types "github.com/vidgist/vidgist-backend/internal/domain"
)

type fakeEngine struct {
	meta        VideoMetadata
	metaErr     error
	dispatchErr error
	dispatched  []*types.AnalysisJob
}

func (f *fakeEngine) GetMetadata(ctx context.Context, videoURL string) (*VideoMetadata, error) {
	if f.metaErr != nil {
		return nil, f.metaErr
	}
	meta := f.meta
	return &meta, nil
}

func (f *fakeEngine) Dispatch(ctx context.Context, job *types.AnalysisJob) error {
	if f.dispatchErr != nil {
		return f.dispatchErr
	}
	f.dispatched = append(f.dispatched, job)
	return nil
}

type analysisFixture struct {
	svc    AnalysisService
	ledger billingrepo.CreditLedgerRepo
	usage  userrepo.DailyUsageRepo
	jobs   analysisrepo.JobRepo
	engine *fakeEngine
	tx     *gorm.DB
}

func newAnalysisFixture(t *testing.T, engine *fakeEngine) *analysisFixture {
	t.Helper()
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	log := testutil.Logger(t)

	profiles := userrepo.NewProfileRepo(tx, log)
	usage := userrepo.NewDailyUsageRepo(tx, log)
	ledger := billingrepo.NewCreditLedgerRepo(tx, log)
	jobs := analysisrepo.NewJobRepo(tx, log)
	results := analysisrepo.NewResultRepo(tx, log)

	svc := NewAnalysisService(tx, profiles, usage, ledger, jobs, results, engine, nil, log)
	return &analysisFixture{svc: svc, ledger: ledger, usage: usage, jobs: jobs, engine: engine, tx: tx}
}

const testVideoURL = "https://www.youtube.com/watch?v=dQw4w9WgXcQ"

func TestSubmitDeductsAndDispatches(t *testing.T) {
	ctx := context.Background()
	engine := &fakeEngine{meta: VideoMetadata{VideoID: "dQw4w9WgXcQ", Title: "Talk", DurationSeconds: 300}}
	f := newAnalysisFixture(t, engine)
	profile := testutil.SeedProfile(t, f.tx, types.PlanPro, 600)

	out, err := f.svc.Submit(ctx, profile.ID, SubmitRequest{VideoURL: testVideoURL, Mode: types.ModeStandard})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if out.Cached {
		t.Fatalf("Submit: unexpected cache hit")
	}
	if out.Job.Status != types.JobStatusPending || out.Job.CreditsReserved != 1 {
		t.Fatalf("job = %+v", out.Job)
	}
	if len(engine.dispatched) != 1 || engine.dispatched[0].ID != out.Job.ID {
		t.Fatalf("dispatched = %v", engine.dispatched)
	}
	if balance, _ := f.ledger.GetBalance(ctx, nil, profile.ID); balance != 599 {
		t.Fatalf("balance = %d, want 599", balance)
	}

	usage, err := f.usage.GetForDate(ctx, nil, profile.ID, out.Job.CreatedAt)
	if err != nil || usage == nil || usage.StandardCount != 1 {
		t.Fatalf("usage = %+v err=%v", usage, err)
	}
}

func TestSubmitDeepModeBilling(t *testing.T) {
	ctx := context.Background()
	// 22 minutes: 5 started bands of 5 minutes, 75 credits.
	engine := &fakeEngine{meta: VideoMetadata{DurationSeconds: 22 * 60}}
	f := newAnalysisFixture(t, engine)
	profile := testutil.SeedProfile(t, f.tx, types.PlanPro, 600)

	out, err := f.svc.Submit(ctx, profile.ID, SubmitRequest{VideoURL: testVideoURL, Mode: types.ModeDeep})
	if err != nil {
		t.Fatalf("Submit deep: %v", err)
	}
	if out.Job.CreditsReserved != 75 {
		t.Fatalf("credits reserved = %d, want 75", out.Job.CreditsReserved)
	}
	if balance, _ := f.ledger.GetBalance(ctx, nil, profile.ID); balance != 525 {
		t.Fatalf("balance = %d, want 525", balance)
	}
}

func TestSubmitRejections(t *testing.T) {
	ctx := context.Background()
	engine := &fakeEngine{meta: VideoMetadata{DurationSeconds: 300}}
	f := newAnalysisFixture(t, engine)
	free := testutil.SeedProfile(t, f.tx, types.PlanFree, 30)

	if _, err := f.svc.Submit(ctx, free.ID, SubmitRequest{VideoURL: "https://example.com/watch?v=nope", Mode: types.ModeStandard}); !errors.Is(err, apperr.ErrInvalidVideoURL) {
		t.Fatalf("bad url: err = %v", err)
	}
	if _, err := f.svc.Submit(ctx, free.ID, SubmitRequest{VideoURL: testVideoURL, Mode: types.ModeDeep}); !errors.Is(err, apperr.ErrDeepModeUnavailable) {
		t.Fatalf("deep on free: err = %v", err)
	}

	// FREE caps at 10 minutes.
	engine.meta.DurationSeconds = 11 * 60
	if _, err := f.svc.Submit(ctx, free.ID, SubmitRequest{VideoURL: testVideoURL, Mode: types.ModeStandard}); !errors.Is(err, apperr.ErrVideoTooLong) {
		t.Fatalf("too long: err = %v", err)
	}

	// Insufficient credits roll the whole reservation back.
	engine.meta.DurationSeconds = 300
	broke := testutil.SeedProfile(t, f.tx, types.PlanFree, 0)
	if _, err := f.svc.Submit(ctx, broke.ID, SubmitRequest{VideoURL: testVideoURL, Mode: types.ModeStandard}); !errors.Is(err, apperr.ErrCreditsInsufficient) {
		t.Fatalf("broke: err = %v", err)
	}
	if jobs, _ := f.svc.ListJobs(ctx, broke.ID, 10, 0); len(jobs) != 0 {
		t.Fatalf("rolled-back submit left a job: %v", jobs)
	}
	if usage, _ := f.usage.GetForDate(ctx, nil, broke.ID, time.Now()); usage != nil {
		t.Fatalf("rolled-back submit counted usage: %+v", usage)
	}
}

func TestSubmitDailyLimit(t *testing.T) {
	ctx := context.Background()
	engine := &fakeEngine{meta: VideoMetadata{DurationSeconds: 300}}
	f := newAnalysisFixture(t, engine)
	free := testutil.SeedProfile(t, f.tx, types.PlanFree, 30)

	// FREE allows 3 analyses per day.
	for i := 0; i < 3; i++ {
		if err := f.usage.IncrementForDate(ctx, nil, free.ID, time.Now(), types.ModeStandard); err != nil {
			t.Fatalf("seed usage: %v", err)
		}
	}
	if _, err := f.svc.Submit(ctx, free.ID, SubmitRequest{VideoURL: testVideoURL, Mode: types.ModeStandard}); !errors.Is(err, apperr.ErrDailyLimitReached) {
		t.Fatalf("daily limit: err = %v", err)
	}

	// The cap applies before the cache is consulted: a capped user is
	// rejected even when the video is already analyzed.
	results := analysisrepo.NewResultRepo(f.tx, testutil.Logger(t))
	if _, err := results.Upsert(ctx, nil, &types.AnalysisResult{
		VideoID:  "dQw4w9WgXcQ",
		Mode:     types.ModeStandard,
		VideoURL: testVideoURL,
	}); err != nil {
		t.Fatalf("seed cached result: %v", err)
	}
	if _, err := f.svc.Submit(ctx, free.ID, SubmitRequest{VideoURL: testVideoURL, Mode: types.ModeStandard}); !errors.Is(err, apperr.ErrDailyLimitReached) {
		t.Fatalf("daily limit with cached result: err = %v", err)
	}
}

func TestSubmitDuplicateInFlight(t *testing.T) {
	ctx := context.Background()
	engine := &fakeEngine{meta: VideoMetadata{DurationSeconds: 300}}
	f := newAnalysisFixture(t, engine)
	profile := testutil.SeedProfile(t, f.tx, types.PlanPro, 600)

	if _, err := f.svc.Submit(ctx, profile.ID, SubmitRequest{VideoURL: testVideoURL, Mode: types.ModeStandard}); err != nil {
		t.Fatalf("Submit #1: %v", err)
	}
	if _, err := f.svc.Submit(ctx, profile.ID, SubmitRequest{VideoURL: testVideoURL, Mode: types.ModeStandard}); !errors.Is(err, apperr.ErrAnalysisInProgress) {
		t.Fatalf("Submit #2: err = %v, want ErrAnalysisInProgress", err)
	}
}

func TestCompleteThenCacheHit(t *testing.T) {
	ctx := context.Background()
	engine := &fakeEngine{meta: VideoMetadata{Title: "Talk", DurationSeconds: 300}}
	f := newAnalysisFixture(t, engine)
	alice := testutil.SeedProfile(t, f.tx, types.PlanPro, 600)
	bob := testutil.SeedProfile(t, f.tx, types.PlanPro, 600)

	out, err := f.svc.Submit(ctx, alice.ID, SubmitRequest{VideoURL: testVideoURL, Mode: types.ModeStandard})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	result, err := f.svc.Complete(ctx, out.Job.ID, CompleteRequest{
		VideoTitle: "Talk",
		Payload: types.ResultPayload{
			Title:        "Talk",
			Summary:      "a summary",
			KeyTakeaways: []string{"one", "two"},
		},
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}

	job, err := f.svc.GetJob(ctx, alice.ID, out.Job.ID)
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if job.Status != types.JobStatusCompleted || job.ResultID == nil || *job.ResultID != result.ID {
		t.Fatalf("job after complete = %+v", job)
	}

	if _, err := f.svc.GetResult(ctx, alice.ID, result.ID); err != nil {
		t.Fatalf("GetResult owner: %v", err)
	}
	// Bob never ran this analysis, the shared row stays invisible.
	if _, err := f.svc.GetResult(ctx, bob.ID, result.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("GetResult stranger: err = %v", err)
	}

	// Bob submits the same video: served from cache, nothing billed.
	hit, err := f.svc.Submit(ctx, bob.ID, SubmitRequest{VideoURL: testVideoURL, Mode: types.ModeStandard})
	if err != nil {
		t.Fatalf("Submit cache hit: %v", err)
	}
	if !hit.Cached || hit.Result == nil || hit.Result.ID != result.ID {
		t.Fatalf("cache hit = %+v", hit)
	}
	if hit.Job.Status != types.JobStatusCompleted || hit.Job.CreditsReserved != 0 {
		t.Fatalf("cache job = %+v", hit.Job)
	}
	if balance, _ := f.ledger.GetBalance(ctx, nil, bob.ID); balance != 600 {
		t.Fatalf("bob balance = %d, want 600", balance)
	}
	// Cache hits never touch the daily limit.
	if usage, _ := f.usage.GetForDate(ctx, nil, bob.ID, time.Now()); usage != nil {
		t.Fatalf("cache hit counted usage: %+v", usage)
	}
	// And cache hits are now visible to GetResult for bob.
	if _, err := f.svc.GetResult(ctx, bob.ID, result.ID); err != nil {
		t.Fatalf("GetResult after cache hit: %v", err)
	}
}

func TestFailRefundsOnce(t *testing.T) {
	ctx := context.Background()
	engine := &fakeEngine{meta: VideoMetadata{DurationSeconds: 22 * 60}}
	f := newAnalysisFixture(t, engine)
	profile := testutil.SeedProfile(t, f.tx, types.PlanPro, 600)

	out, err := f.svc.Submit(ctx, profile.ID, SubmitRequest{VideoURL: testVideoURL, Mode: types.ModeDeep})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if balance, _ := f.ledger.GetBalance(ctx, nil, profile.ID); balance != 525 {
		t.Fatalf("balance after deduct = %d", balance)
	}

	if err := f.svc.Fail(ctx, out.Job.ID, "ANALYSIS_006", "engine crashed"); err != nil {
		t.Fatalf("Fail: %v", err)
	}
	if balance, _ := f.ledger.GetBalance(ctx, nil, profile.ID); balance != 600 {
		t.Fatalf("balance after refund = %d, want 600", balance)
	}

	// Duplicate failure callback: no state change, no double refund.
	if err := f.svc.Fail(ctx, out.Job.ID, "ANALYSIS_006", "engine crashed again"); err != nil {
		t.Fatalf("Fail again: %v", err)
	}
	if balance, _ := f.ledger.GetBalance(ctx, nil, profile.ID); balance != 600 {
		t.Fatalf("balance after duplicate refund = %d, want 600", balance)
	}
	if count, _ := f.ledger.CountByUser(ctx, nil, profile.ID); count != 2 {
		t.Fatalf("ledger entries = %d, want deduct + one refund", count)
	}

	job, _ := f.svc.GetJob(ctx, profile.ID, out.Job.ID)
	if job.Status != types.JobStatusFailed || job.ErrorMessage != "engine crashed" {
		t.Fatalf("job after fail = %+v", job)
	}
}

func TestDispatchFailureRefunds(t *testing.T) {
	ctx := context.Background()
	engine := &fakeEngine{
		meta:        VideoMetadata{DurationSeconds: 300},
		dispatchErr: errors.New("engine unreachable"),
	}
	f := newAnalysisFixture(t, engine)
	profile := testutil.SeedProfile(t, f.tx, types.PlanPro, 600)

	if _, err := f.svc.Submit(ctx, profile.ID, SubmitRequest{VideoURL: testVideoURL, Mode: types.ModeStandard}); !errors.Is(err, apperr.ErrAnalysisFailed) {
		t.Fatalf("Submit: err = %v, want ErrAnalysisFailed", err)
	}
	if balance, _ := f.ledger.GetBalance(ctx, nil, profile.ID); balance != 600 {
		t.Fatalf("balance = %d, want full refund to 600", balance)
	}

	jobs, _ := f.svc.ListJobs(ctx, profile.ID, 10, 0)
	if len(jobs) != 1 || jobs[0].Status != types.JobStatusFailed {
		t.Fatalf("jobs = %+v", jobs)
	}
}

func TestGetJobAccess(t *testing.T) {
	ctx := context.Background()
	engine := &fakeEngine{meta: VideoMetadata{DurationSeconds: 300}}
	f := newAnalysisFixture(t, engine)
	alice := testutil.SeedProfile(t, f.tx, types.PlanPro, 600)
	bob := testutil.SeedProfile(t, f.tx, types.PlanPro, 600)

	out, err := f.svc.Submit(ctx, alice.ID, SubmitRequest{VideoURL: testVideoURL, Mode: types.ModeStandard})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if _, err := f.svc.GetJob(ctx, bob.ID, out.Job.ID); !errors.Is(err, apperr.ErrUnauthorized) {
		t.Fatalf("foreign job: err = %v, want ErrUnauthorized", err)
	}
	if _, err := f.svc.GetJob(ctx, alice.ID, uuid.New()); !errors.Is(err, apperr.ErrJobNotFound) {
		t.Fatalf("missing job: err = %v, want ErrJobNotFound", err)
	}
}
