package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	types "github.com/vidgist/vidgist-backend/internal/domain"
	"github.com/vidgist/vidgist-backend/internal/platform/httpx"
	"github.com/vidgist/vidgist-backend/internal/platform/logger"
)

// VideoMetadata is what the engine knows about a video before
// analysis starts. Duration drives plan gating and deep-mode pricing.
type VideoMetadata struct {
	VideoID         string `json:"video_id"`
	Title           string `json:"title"`
	Thumbnail       string `json:"thumbnail"`
	DurationSeconds int    `json:"duration_seconds"`
}

// AnalysisEngine is the boundary to the worker fleet that actually
// processes videos. The backend only dispatches and is notified back
// over the engine callback routes.
type AnalysisEngine interface {
	GetMetadata(ctx context.Context, videoURL string) (*VideoMetadata, error)
	Dispatch(ctx context.Context, job *types.AnalysisJob) error
}

type httpEngine struct {
	log        *logger.Logger
	baseURL    string
	secret     string
	httpClient *http.Client
	maxRetries int
}

func NewHTTPEngine(log *logger.Logger) (AnalysisEngine, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	baseURL := strings.TrimSpace(os.Getenv("ENGINE_BASE_URL"))
	if baseURL == "" {
		return nil, fmt.Errorf("missing ENGINE_BASE_URL")
	}
	secret := strings.TrimSpace(os.Getenv("ENGINE_SHARED_SECRET"))
	if secret == "" {
		return nil, fmt.Errorf("missing ENGINE_SHARED_SECRET")
	}
	return &httpEngine{
		log:        log.With("service", "AnalysisEngine"),
		baseURL:    strings.TrimRight(baseURL, "/"),
		secret:     secret,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		maxRetries: 2,
	}, nil
}

func (e *httpEngine) GetMetadata(ctx context.Context, videoURL string) (*VideoMetadata, error) {
	body := map[string]string{"video_url": videoURL}
	var meta VideoMetadata
	if err := e.do(ctx, "/v1/metadata", body, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (e *httpEngine) Dispatch(ctx context.Context, job *types.AnalysisJob) error {
	body := map[string]any{
		"job_id":    job.ID,
		"video_url": job.VideoURL,
		"video_id":  job.VideoID,
		"mode":      job.Mode,
	}
	return e.do(ctx, "/v1/analyze", body, nil)
}

func (e *httpEngine) do(ctx context.Context, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	var lastErr error
	for attempt := 0; attempt <= e.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := httpx.JitterSleep(time.Duration(attempt) * 250 * time.Millisecond)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+path, bytes.NewReader(payload))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Engine-Secret", e.secret)

		resp, err := e.httpClient.Do(req)
		if err != nil {
			if !httpx.IsRetryableError(err) {
				return err
			}
			lastErr = err
			continue
		}

		raw, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			lastErr = readErr
			continue
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			if out == nil || len(raw) == 0 {
				return nil
			}
			return json.Unmarshal(raw, out)
		}

		lastErr = fmt.Errorf("engine %s: status %d", path, resp.StatusCode)
		if !httpx.IsRetryableHTTPStatus(resp.StatusCode) {
			return lastErr
		}
	}
	return fmt.Errorf("engine %s: retries exhausted: %w", path, lastErr)
}
