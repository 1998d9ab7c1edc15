package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vidgist/vidgist-backend/internal/apperr"
	notionclient "github.com/vidgist/vidgist-backend/internal/clients/notion"
	analysisrepo "github.com/vidgist/vidgist-backend/internal/data/repos/analysis"
	notionrepo "github.com/vidgist/vidgist-backend/internal/data/repos/notion"
	types "github.com/vidgist/vidgist-backend/internal/domain"
	"github.com/vidgist/vidgist-backend/internal/platform/cryptoutil"
	"github.com/vidgist/vidgist-backend/internal/platform/logger"
)

const oauthStateTTL = 10 * time.Minute

type ConnectionStatus struct {
	Connected     bool   `json:"connected"`
	WorkspaceID   string `json:"workspace_id,omitempty"`
	WorkspaceName string `json:"workspace_name,omitempty"`
	WorkspaceIcon string `json:"workspace_icon,omitempty"`
}

const (
	ExportActionCreated = "CREATED"
	ExportActionUpdated = "UPDATED"
)

type ExportInfo struct {
	Action       string     `json:"action"`
	PageID       string     `json:"page_id"`
	PageURL      string     `json:"page_url"`
	SyncVersion  int        `json:"sync_version"`
	LastSyncedAt *time.Time `json:"last_synced_at,omitempty"`
}

type NotionService interface {
	AuthURL(ctx context.Context, userID uuid.UUID) (string, error)
	HandleCallback(ctx context.Context, state, code string) (*ConnectionStatus, error)
	Status(ctx context.Context, userID uuid.UUID) (*ConnectionStatus, error)
	Disconnect(ctx context.Context, userID uuid.UUID) error

	ExportAnalysis(ctx context.Context, userID, resultID uuid.UUID) (*ExportInfo, error)
	SyncAnalysis(ctx context.Context, userID, resultID uuid.UUID) (*ExportInfo, error)
	ExportToSession(ctx context.Context, userID, sessionID, resultID uuid.UUID) (*ExportInfo, error)
}

type notionService struct {
	db           *gorm.DB
	integrations notionrepo.IntegrationRepo
	exports      notionrepo.ExportRepo
	states       notionrepo.OAuthStateRepo
	sessions     analysisrepo.SessionRepo
	jobs         analysisrepo.JobRepo
	results      analysisrepo.ResultRepo
	client       notionclient.Client
	cipher       *cryptoutil.Cipher
	redirectURI  string
	log          *logger.Logger
}

func NewNotionService(
	db *gorm.DB,
	integrations notionrepo.IntegrationRepo,
	exports notionrepo.ExportRepo,
	states notionrepo.OAuthStateRepo,
	sessions analysisrepo.SessionRepo,
	jobs analysisrepo.JobRepo,
	results analysisrepo.ResultRepo,
	client notionclient.Client,
	cipher *cryptoutil.Cipher,
	baseLog *logger.Logger,
) (NotionService, error) {
	redirectURI := strings.TrimSpace(os.Getenv("NOTION_REDIRECT_URI"))
	if redirectURI == "" {
		return nil, fmt.Errorf("missing NOTION_REDIRECT_URI")
	}
	return &notionService{
		db:           db,
		integrations: integrations,
		exports:      exports,
		states:       states,
		sessions:     sessions,
		jobs:         jobs,
		results:      results,
		client:       client,
		cipher:       cipher,
		redirectURI:  redirectURI,
		log:          baseLog.With("service", "NotionService"),
	}, nil
}

// AuthURL issues a single-use CSRF state and returns the Notion
// consent URL. The state survives process restarts; any instance can
// handle the callback.
func (s *notionService) AuthURL(ctx context.Context, userID uuid.UUID) (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	state := hex.EncodeToString(raw)

	now := time.Now()
	_, err := s.states.Create(ctx, nil, &types.NotionOAuthState{
		StateHash: hashState(state),
		UserID:    userID,
		ExpiresAt: now.Add(oauthStateTTL),
		CreatedAt: now,
	})
	if err != nil {
		return "", err
	}

	if _, err := s.states.DeleteExpired(ctx, nil, now); err != nil {
		s.log.Warn("oauth state cleanup failed", "error", err)
	}

	q := url.Values{}
	q.Set("client_id", strings.TrimSpace(os.Getenv("NOTION_CLIENT_ID")))
	q.Set("redirect_uri", s.redirectURI)
	q.Set("response_type", "code")
	q.Set("owner", "user")
	q.Set("state", state)
	return "https://api.notion.com/v1/oauth/authorize?" + q.Encode(), nil
}

func (s *notionService) HandleCallback(ctx context.Context, state, code string) (*ConnectionStatus, error) {
	consumed, err := s.states.Consume(ctx, nil, hashState(state))
	if err != nil {
		return nil, err
	}
	if consumed == nil {
		return nil, apperr.ErrUnauthorized
	}

	token, err := s.client.ExchangeOAuthCode(ctx, code, s.redirectURI)
	if err != nil {
		s.log.Error("oauth code exchange failed", "user_id", consumed.UserID, "error", err)
		return nil, err
	}

	encrypted, iv, err := s.cipher.Encrypt(token.AccessToken)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	integration, err := s.integrations.Upsert(ctx, nil, &types.NotionIntegration{
		UserID:         consumed.UserID,
		EncryptedToken: encrypted,
		TokenIV:        iv,
		WorkspaceID:    token.WorkspaceID,
		WorkspaceName:  token.WorkspaceName,
		WorkspaceIcon:  token.WorkspaceIcon,
		BotID:          token.BotID,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("notion connected", "user_id", consumed.UserID, "workspace", integration.WorkspaceName)
	return &ConnectionStatus{
		Connected:     true,
		WorkspaceID:   integration.WorkspaceID,
		WorkspaceName: integration.WorkspaceName,
		WorkspaceIcon: integration.WorkspaceIcon,
	}, nil
}

func (s *notionService) Status(ctx context.Context, userID uuid.UUID) (*ConnectionStatus, error) {
	integration, err := s.integrations.GetByUserID(ctx, nil, userID)
	if err != nil {
		return nil, err
	}
	if integration == nil {
		return &ConnectionStatus{Connected: false}, nil
	}
	return &ConnectionStatus{
		Connected:     true,
		WorkspaceID:   integration.WorkspaceID,
		WorkspaceName: integration.WorkspaceName,
		WorkspaceIcon: integration.WorkspaceIcon,
	}, nil
}

func (s *notionService) Disconnect(ctx context.Context, userID uuid.UUID) error {
	integration, err := s.integrations.GetByUserID(ctx, nil, userID)
	if err != nil {
		return err
	}
	if integration == nil {
		return apperr.ErrNotionNotConnected
	}
	return s.integrations.DeleteWithExports(ctx, nil, userID)
}

// ExportAnalysis creates a page for the result on first export. A
// result that already has a binding goes through SyncAnalysis instead,
// so the sync version keeps climbing and never resets.
func (s *notionService) ExportAnalysis(ctx context.Context, userID, resultID uuid.UUID) (*ExportInfo, error) {
	existing, err := s.exports.GetByUserAndResult(ctx, nil, userID, resultID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return s.SyncAnalysis(ctx, userID, resultID)
	}

	result, err := s.resultForUser(ctx, userID, resultID)
	if err != nil {
		return nil, err
	}
	token, err := s.tokenFor(ctx, userID)
	if err != nil {
		return nil, err
	}

	blocks, err := BuildResultBlocks(result)
	if err != nil {
		return nil, err
	}

	parent, err := s.client.FindParentPage(ctx, token)
	if err != nil {
		return nil, err
	}
	if parent == nil {
		return nil, apperr.ErrNotionNoParentPage
	}

	page, err := s.client.CreatePage(ctx, token, parent.ID, resultTitle(result), blocks)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	export, err := s.exports.Upsert(ctx, nil, &types.NotionExport{
		UserID:       userID,
		ResultID:     resultID,
		PageID:       page.ID,
		PageURL:      page.URL,
		LastSyncedAt: &now,
		SyncVersion:  1,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return nil, err
	}
	return exportInfo(export, ExportActionCreated), nil
}

// SyncAnalysis rewrites the exported page with the current result
// content. The version bump claims the sync up front; a concurrent
// claim on the same version surfaces as a conflict and performs no
// page writes.
func (s *notionService) SyncAnalysis(ctx context.Context, userID, resultID uuid.UUID) (*ExportInfo, error) {
	result, err := s.resultForUser(ctx, userID, resultID)
	if err != nil {
		return nil, err
	}
	export, err := s.exports.GetByUserAndResult(ctx, nil, userID, resultID)
	if err != nil {
		return nil, err
	}
	if export == nil {
		return nil, apperr.ErrNotFound
	}
	token, err := s.tokenFor(ctx, userID)
	if err != nil {
		return nil, err
	}

	won, err := s.exports.BumpSyncVersion(ctx, nil, export.ID, export.SyncVersion)
	if err != nil {
		return nil, err
	}
	if !won {
		return nil, apperr.ErrNotionSyncConflict
	}

	blocks, err := BuildResultBlocks(result)
	if err != nil {
		return nil, err
	}

	existing, err := s.client.ListBlockChildren(ctx, token, export.PageID)
	if err != nil {
		return nil, err
	}
	for _, block := range existing {
		if err := s.client.DeleteBlock(ctx, token, block.ID); err != nil {
			return nil, err
		}
	}
	if err := s.client.AppendBlocks(ctx, token, export.PageID, blocks); err != nil {
		return nil, err
	}
	if err := s.client.UpdatePageTitle(ctx, token, export.PageID, resultTitle(result)); err != nil {
		s.log.Warn("page title update failed", "page_id", export.PageID, "error", err)
	}

	refreshed, err := s.exports.GetByUserAndResult(ctx, nil, userID, resultID)
	if err != nil {
		return nil, err
	}
	return exportInfo(refreshed, ExportActionUpdated), nil
}

// ExportToSession appends the result to the session's page, creating
// and binding the page on first export. The binding is
// first-writer-wins, so concurrent exports of one session converge on
// a single page.
func (s *notionService) ExportToSession(ctx context.Context, userID, sessionID, resultID uuid.UUID) (*ExportInfo, error) {
	session, err := s.sessions.GetByID(ctx, nil, sessionID)
	if err != nil {
		return nil, err
	}
	if session.UserID != userID {
		return nil, apperr.ErrUnauthorized
	}
	result, err := s.resultForUser(ctx, userID, resultID)
	if err != nil {
		return nil, err
	}
	token, err := s.tokenFor(ctx, userID)
	if err != nil {
		return nil, err
	}

	blocks, err := BuildResultBlocks(result)
	if err != nil {
		return nil, err
	}

	if session.NotionPageID == "" {
		parent, err := s.client.FindParentPage(ctx, token)
		if err != nil {
			return nil, err
		}
		if parent == nil {
			return nil, apperr.ErrNotionNoParentPage
		}
		title := session.Title
		if title == "" {
			title = "Video Notes"
		}
		page, err := s.client.CreatePage(ctx, token, parent.ID, title, blocks)
		if err != nil {
			return nil, err
		}
		won, err := s.sessions.BindNotionPage(ctx, nil, sessionID, page.ID, page.URL)
		if err != nil {
			return nil, err
		}
		if won {
			s.recordSessionExport(ctx, userID, resultID, page.ID, page.URL)
			return &ExportInfo{Action: ExportActionCreated, PageID: page.ID, PageURL: page.URL}, nil
		}
		// Lost the binding race: another export created the page
		// first. Fall through and append there instead.
		s.log.Warn("session page binding lost, appending to bound page", "session_id", sessionID)
		session, err = s.sessions.GetByID(ctx, nil, sessionID)
		if err != nil {
			return nil, err
		}
	}

	appended := append([]notionclient.Block{notionclient.Divider()}, blocks...)
	if err := s.client.AppendBlocks(ctx, token, session.NotionPageID, appended); err != nil {
		return nil, err
	}
	s.recordSessionExport(ctx, userID, resultID, session.NotionPageID, session.NotionPageURL)
	return &ExportInfo{Action: ExportActionUpdated, PageID: session.NotionPageID, PageURL: session.NotionPageURL}, nil
}

// recordSessionExport keeps the per-result binding in step with a
// session export. Only a first export creates the row; an existing
// binding is left alone so its sync version never moves backwards.
func (s *notionService) recordSessionExport(ctx context.Context, userID, resultID uuid.UUID, pageID, pageURL string) {
	existing, err := s.exports.GetByUserAndResult(ctx, nil, userID, resultID)
	if err != nil {
		s.log.Warn("export binding lookup failed", "result_id", resultID, "error", err)
		return
	}
	if existing != nil {
		return
	}
	now := time.Now()
	if _, err := s.exports.Upsert(ctx, nil, &types.NotionExport{
		UserID:       userID,
		ResultID:     resultID,
		PageID:       pageID,
		PageURL:      pageURL,
		LastSyncedAt: &now,
		SyncVersion:  1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}); err != nil {
		s.log.Warn("export binding record failed", "result_id", resultID, "error", err)
	}
}

func (s *notionService) resultForUser(ctx context.Context, userID, resultID uuid.UUID) (*types.AnalysisResult, error) {
	owns, err := s.jobs.HasJobForResult(ctx, nil, userID, resultID)
	if err != nil {
		return nil, err
	}
	if !owns {
		return nil, apperr.ErrNotFound
	}
	return s.results.GetByID(ctx, nil, resultID)
}

func (s *notionService) tokenFor(ctx context.Context, userID uuid.UUID) (string, error) {
	integration, err := s.integrations.GetByUserID(ctx, nil, userID)
	if err != nil {
		return "", err
	}
	if integration == nil {
		return "", apperr.ErrNotionNotConnected
	}
	token, err := s.cipher.Decrypt(integration.EncryptedToken, integration.TokenIV)
	if err != nil {
		return "", fmt.Errorf("decrypt notion token: %w", err)
	}
	return token, nil
}

func resultTitle(result *types.AnalysisResult) string {
	if result.VideoTitle != "" {
		return result.VideoTitle
	}
	return "Video Analysis " + result.VideoID
}

func hashState(state string) string {
	sum := sha256.Sum256([]byte(state))
	return hex.EncodeToString(sum[:])
}

func exportInfo(export *types.NotionExport, action string) *ExportInfo {
	return &ExportInfo{
		Action:       action,
		PageID:       export.PageID,
		PageURL:      export.PageURL,
		SyncVersion:  export.SyncVersion,
		LastSyncedAt: export.LastSyncedAt,
	}
}
