package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/vidgist/vidgist-backend/internal/apperr"
	"github.com/vidgist/vidgist-backend/internal/clients/redis"
	analysisrepo "github.com/vidgist/vidgist-backend/internal/data/repos/analysis"
	billingrepo "github.com/vidgist/vidgist-backend/internal/data/repos/billing"
	userrepo "github.com/vidgist/vidgist-backend/internal/data/repos/user"
	types "github.com/vidgist/vidgist-backend/internal/domain"
	"github.com/vidgist/vidgist-backend/internal/platform/logger"
	"github.com/vidgist/vidgist-backend/internal/platform/youtube"
)

type SubmitRequest struct {
	VideoURL  string     `json:"video_url"`
	Mode      string     `json:"-"`
	SessionID *uuid.UUID `json:"session_id,omitempty"`
}

// SubmitResult carries the created job; on a cache hit the completed
// job and its result come back together and nothing was billed.
type SubmitResult struct {
	Job    *types.AnalysisJob    `json:"job"`
	Result *types.AnalysisResult `json:"result,omitempty"`
	Cached bool                  `json:"cached"`
}

// CompleteRequest is the engine's success callback payload.
type CompleteRequest struct {
	VideoTitle           string              `json:"video_title"`
	VideoThumbnail       string              `json:"video_thumbnail"`
	VideoDurationSeconds *int                `json:"video_duration_seconds,omitempty"`
	Payload              types.ResultPayload `json:"payload"`
	Transcript           string              `json:"transcript,omitempty"`
}

type AnalysisService interface {
	Submit(ctx context.Context, userID uuid.UUID, req SubmitRequest) (*SubmitResult, error)
	GetJob(ctx context.Context, userID, jobID uuid.UUID) (*types.AnalysisJob, error)
	ListJobs(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*types.AnalysisJob, error)
	GetResult(ctx context.Context, userID, resultID uuid.UUID) (*types.AnalysisResult, error)

	// Engine callbacks.
	MarkProcessing(ctx context.Context, jobID uuid.UUID) error
	UpdateProgress(ctx context.Context, jobID uuid.UUID, progress int) error
	Complete(ctx context.Context, jobID uuid.UUID, req CompleteRequest) (*types.AnalysisResult, error)
	Fail(ctx context.Context, jobID uuid.UUID, errorCode, errorMessage string) error
}

type analysisService struct {
	db       *gorm.DB
	profiles userrepo.ProfileRepo
	usage    userrepo.DailyUsageRepo
	ledger   billingrepo.CreditLedgerRepo
	jobs     analysisrepo.JobRepo
	results  analysisrepo.ResultRepo
	engine   AnalysisEngine
	bus      redis.JobEventBus
	log      *logger.Logger
}

func NewAnalysisService(
	db *gorm.DB,
	profiles userrepo.ProfileRepo,
	usage userrepo.DailyUsageRepo,
	ledger billingrepo.CreditLedgerRepo,
	jobs analysisrepo.JobRepo,
	results analysisrepo.ResultRepo,
	engine AnalysisEngine,
	bus redis.JobEventBus,
	baseLog *logger.Logger,
) AnalysisService {
	return &analysisService{
		db:       db,
		profiles: profiles,
		usage:    usage,
		ledger:   ledger,
		jobs:     jobs,
		results:  results,
		engine:   engine,
		bus:      bus,
		log:      baseLog.With("service", "AnalysisService"),
	}
}

func (s *analysisService) Submit(ctx context.Context, userID uuid.UUID, req SubmitRequest) (*SubmitResult, error) {
	if !types.ValidAnalysisMode(req.Mode) {
		return nil, fmt.Errorf("invalid analysis mode %q", req.Mode)
	}
	if !youtube.IsValidURL(req.VideoURL) {
		return nil, apperr.ErrInvalidVideoURL
	}
	videoID := youtube.ExtractVideoID(req.VideoURL)
	if videoID == "" {
		return nil, apperr.ErrInvalidVideoURL
	}

	profile, err := s.profiles.GetByID(ctx, nil, userID)
	if err != nil {
		return nil, err
	}
	limits := types.LimitsForPlan(profile.Plan)
	if req.Mode == types.ModeDeep && !limits.DeepModeEnabled {
		return nil, apperr.ErrDeepModeUnavailable
	}

	// The daily cap gates every submission, cached or not.
	usage, err := s.usage.GetForDate(ctx, nil, userID, time.Now())
	if err != nil {
		return nil, err
	}
	if usage != nil && usage.StandardCount+usage.DeepCount >= limits.DailyAnalysisLimit {
		return nil, apperr.ErrDailyLimitReached
	}

	// Cache hit: the job completes immediately, no credits move and
	// the usage counter stays untouched.
	cached, err := s.results.GetByVideoAndMode(ctx, nil, videoID, req.Mode)
	if err != nil {
		return nil, err
	}
	if cached != nil {
		now := time.Now()
		job, err := s.jobs.Create(ctx, nil, &types.AnalysisJob{
			UserID:          userID,
			SessionID:       req.SessionID,
			VideoURL:        req.VideoURL,
			VideoID:         videoID,
			Mode:            req.Mode,
			Status:          types.JobStatusCompleted,
			CreditsReserved: 0,
			ResultID:        &cached.ID,
			Progress:        100,
			CompletedAt:     &now,
		})
		if err != nil {
			return nil, err
		}
		s.log.Info("analysis served from cache", "user_id", userID, "video_id", videoID, "mode", req.Mode)
		return &SubmitResult{Job: job, Result: cached, Cached: true}, nil
	}

	inFlight, err := s.jobs.HasRunnableForVideo(ctx, nil, userID, videoID, req.Mode)
	if err != nil {
		return nil, err
	}
	if inFlight {
		return nil, apperr.ErrAnalysisInProgress
	}

	meta, err := s.engine.GetMetadata(ctx, req.VideoURL)
	if err != nil {
		s.log.Error("metadata lookup failed", "video_id", videoID, "error", err)
		return nil, apperr.ErrAnalysisFailed
	}
	durationMinutes := (meta.DurationSeconds + 59) / 60
	if durationMinutes > limits.MaxDurationMinutes {
		return nil, apperr.ErrVideoTooLong
	}

	cost := types.CreditCostStandard
	if req.Mode == types.ModeDeep {
		cost = types.DeepModeCredits(durationMinutes)
	}

	// Reservation is atomic: job row, deduction and usage counter
	// commit together or not at all.
	var job *types.AnalysisJob
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var txErr error
		job, txErr = s.jobs.Create(ctx, tx, &types.AnalysisJob{
			UserID:          userID,
			SessionID:       req.SessionID,
			VideoURL:        req.VideoURL,
			VideoID:         videoID,
			Mode:            req.Mode,
			Status:          types.JobStatusPending,
			CreditsReserved: cost,
		})
		if txErr != nil {
			return txErr
		}
		desc := fmt.Sprintf("%s analysis of %s", req.Mode, videoID)
		if _, txErr = s.ledger.Deduct(ctx, tx, userID, cost, desc, &job.ID, "analysis_job"); txErr != nil {
			return txErr
		}
		return s.usage.IncrementForDate(ctx, tx, userID, time.Now(), req.Mode)
	})
	if err != nil {
		return nil, err
	}

	if dispatchErr := s.engine.Dispatch(ctx, job); dispatchErr != nil {
		s.log.Error("engine dispatch failed", "job_id", job.ID, "error", dispatchErr)
		if failErr := s.Fail(ctx, job.ID, apperr.ErrAnalysisFailed.Code, "failed to dispatch analysis"); failErr != nil {
			s.log.Error("failing undispatched job", "job_id", job.ID, "error", failErr)
		}
		return nil, apperr.ErrAnalysisFailed
	}

	s.publish(ctx, redis.JobEvent{JobID: job.ID, UserID: userID, Status: job.Status, Progress: job.Progress})
	return &SubmitResult{Job: job}, nil
}

func (s *analysisService) GetJob(ctx context.Context, userID, jobID uuid.UUID) (*types.AnalysisJob, error) {
	job, err := s.jobs.GetByID(ctx, nil, jobID)
	if err != nil {
		return nil, err
	}
	if job.UserID != userID {
		return nil, apperr.ErrUnauthorized
	}
	return job, nil
}

func (s *analysisService) ListJobs(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*types.AnalysisJob, error) {
	return s.jobs.ListByUser(ctx, nil, userID, limit, offset)
}

func (s *analysisService) GetResult(ctx context.Context, userID, resultID uuid.UUID) (*types.AnalysisResult, error) {
	owns, err := s.jobs.HasJobForResult(ctx, nil, userID, resultID)
	if err != nil {
		return nil, err
	}
	if !owns {
		return nil, apperr.ErrNotFound
	}
	return s.results.GetByID(ctx, nil, resultID)
}

func (s *analysisService) MarkProcessing(ctx context.Context, jobID uuid.UUID) error {
	won, err := s.jobs.MarkProcessing(ctx, nil, jobID)
	if err != nil {
		return err
	}
	if !won {
		return nil
	}
	job, err := s.jobs.GetByID(ctx, nil, jobID)
	if err != nil {
		return err
	}
	s.publish(ctx, redis.JobEvent{JobID: job.ID, UserID: job.UserID, Status: job.Status, Progress: job.Progress})
	return nil
}

func (s *analysisService) UpdateProgress(ctx context.Context, jobID uuid.UUID, progress int) error {
	if err := s.jobs.UpdateProgress(ctx, nil, jobID, progress); err != nil {
		return err
	}
	job, err := s.jobs.GetByID(ctx, nil, jobID)
	if err != nil {
		return err
	}
	if !job.Terminal() {
		s.publish(ctx, redis.JobEvent{JobID: job.ID, UserID: job.UserID, Status: job.Status, Progress: job.Progress})
	}
	return nil
}

// Complete persists the result and finishes the job in one
// transaction. A job that already reached a terminal state keeps it;
// the late result still lands in the shared cache.
func (s *analysisService) Complete(ctx context.Context, jobID uuid.UUID, req CompleteRequest) (*types.AnalysisResult, error) {
	job, err := s.jobs.GetByID(ctx, nil, jobID)
	if err != nil {
		return nil, err
	}

	raw, err := json.Marshal(req.Payload)
	if err != nil {
		return nil, err
	}

	var result *types.AnalysisResult
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var txErr error
		result, txErr = s.results.Upsert(ctx, tx, &types.AnalysisResult{
			VideoID:              job.VideoID,
			Mode:                 job.Mode,
			VideoURL:             job.VideoURL,
			VideoTitle:           req.VideoTitle,
			VideoThumbnail:       req.VideoThumbnail,
			VideoDurationSeconds: req.VideoDurationSeconds,
			ResultJSON:           datatypes.JSON(raw),
			Transcript:           req.Transcript,
		})
		if txErr != nil {
			return txErr
		}
		_, txErr = s.jobs.MarkCompleted(ctx, tx, jobID, result.ID)
		return txErr
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, redis.JobEvent{
		JobID:    job.ID,
		UserID:   job.UserID,
		Status:   types.JobStatusCompleted,
		Progress: 100,
		ResultID: result.ID.String(),
	})
	return result, nil
}

// Fail finishes the job and refunds the reservation. Both the
// terminal transition and the refund are idempotent, so duplicate
// failure callbacks cannot double-credit.
func (s *analysisService) Fail(ctx context.Context, jobID uuid.UUID, errorCode, errorMessage string) error {
	job, err := s.jobs.GetByID(ctx, nil, jobID)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		won, txErr := s.jobs.MarkFailed(ctx, tx, jobID, errorCode, errorMessage)
		if txErr != nil {
			return txErr
		}
		if !won || job.CreditsReserved <= 0 {
			return nil
		}
		_, txErr = s.ledger.Refund(ctx, tx, job.UserID, job.CreditsReserved, "refund for failed analysis", &jobID, "analysis_job")
		return txErr
	})
	if err != nil {
		return err
	}

	s.publish(ctx, redis.JobEvent{
		JobID:  job.ID,
		UserID: job.UserID,
		Status: types.JobStatusFailed,
		Error:  errorMessage,
	})
	return nil
}

func (s *analysisService) publish(ctx context.Context, event redis.JobEvent) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(ctx, event); err != nil {
		s.log.Warn("job event publish failed", "job_id", event.JobID, "error", err)
	}
}
