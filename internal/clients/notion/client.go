package notion

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/vidgist/vidgist-backend/internal/apperr"
	"github.com/vidgist/vidgist-backend/internal/platform/httpx"
	"github.com/vidgist/vidgist-backend/internal/platform/logger"
)

const apiVersion = "2022-06-28"

// Appends are chunked: the API rejects more than 100 children per
// request.
const maxBlocksPerAppend = 100

// OAuthToken is the response of the OAuth code exchange.
type OAuthToken struct {
	AccessToken   string `json:"access_token"`
	BotID         string `json:"bot_id"`
	WorkspaceID   string `json:"workspace_id"`
	WorkspaceName string `json:"workspace_name"`
	WorkspaceIcon string `json:"workspace_icon"`
}

type Page struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// Client is the Notion API client used by the export service. All
// page operations take the per-user access token; the client itself
// holds no user state.
type Client interface {
	ExchangeOAuthCode(ctx context.Context, code, redirectURI string) (*OAuthToken, error)
	FindParentPage(ctx context.Context, token string) (*Page, error)
	CreatePage(ctx context.Context, token, parentPageID, title string, children []Block) (*Page, error)
	AppendBlocks(ctx context.Context, token, blockID string, children []Block) error
	ListBlockChildren(ctx context.Context, token, blockID string) ([]Block, error)
	DeleteBlock(ctx context.Context, token, blockID string) error
	UpdatePageTitle(ctx context.Context, token, pageID, title string) error
}

type client struct {
	log          *logger.Logger
	baseURL      string
	clientID     string
	clientSecret string
	httpClient   *http.Client

	maxRetries int
}

func NewClient(log *logger.Logger) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	clientID := strings.TrimSpace(os.Getenv("NOTION_CLIENT_ID"))
	if clientID == "" {
		return nil, fmt.Errorf("missing NOTION_CLIENT_ID")
	}
	clientSecret := strings.TrimSpace(os.Getenv("NOTION_CLIENT_SECRET"))
	if clientSecret == "" {
		return nil, fmt.Errorf("missing NOTION_CLIENT_SECRET")
	}

	baseURL := strings.TrimSpace(os.Getenv("NOTION_BASE_URL"))
	if baseURL == "" {
		baseURL = "https://api.notion.com"
	}
	baseURL = strings.TrimRight(baseURL, "/")

	timeoutSec := 30
	if v := os.Getenv("NOTION_TIMEOUT_SECONDS"); v != "" {
		if parsed, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && parsed > 0 {
			timeoutSec = parsed
		}
	}

	maxRetries := 3
	if v := os.Getenv("NOTION_MAX_RETRIES"); v != "" {
		if parsed, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && parsed >= 0 {
			maxRetries = parsed
		}
	}

	return &client{
		log:          log.With("service", "NotionClient"),
		baseURL:      baseURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		httpClient:   &http.Client{Timeout: time.Duration(timeoutSec) * time.Second},
		maxRetries:   maxRetries,
	}, nil
}

func (c *client) ExchangeOAuthCode(ctx context.Context, code, redirectURI string) (*OAuthToken, error) {
	body := map[string]string{
		"grant_type":   "authorization_code",
		"code":         code,
		"redirect_uri": redirectURI,
	}
	basic := base64.StdEncoding.EncodeToString([]byte(c.clientID + ":" + c.clientSecret))

	var token OAuthToken
	err := c.do(ctx, http.MethodPost, "/v1/oauth/token", "Basic "+basic, body, &token)
	if err != nil {
		return nil, err
	}
	if token.AccessToken == "" {
		return nil, fmt.Errorf("notion oauth: empty access token")
	}
	return &token, nil
}

// FindParentPage returns the first page the integration was granted
// access to. New export pages are created under it.
func (c *client) FindParentPage(ctx context.Context, token string) (*Page, error) {
	body := map[string]any{
		"filter":    map[string]string{"property": "object", "value": "page"},
		"page_size": 1,
	}
	var out struct {
		Results []Page `json:"results"`
	}
	if err := c.do(ctx, http.MethodPost, "/v1/search", "Bearer "+token, body, &out); err != nil {
		return nil, err
	}
	if len(out.Results) == 0 {
		return nil, nil
	}
	return &out.Results[0], nil
}

func (c *client) CreatePage(ctx context.Context, token, parentPageID, title string, children []Block) (*Page, error) {
	head := children
	var tail []Block
	if len(head) > maxBlocksPerAppend {
		head = children[:maxBlocksPerAppend]
		tail = children[maxBlocksPerAppend:]
	}

	body := map[string]any{
		"parent": map[string]string{"page_id": parentPageID},
		"properties": map[string]any{
			"title": map[string]any{"title": text(title)},
		},
		"children": head,
	}
	var page Page
	if err := c.do(ctx, http.MethodPost, "/v1/pages", "Bearer "+token, body, &page); err != nil {
		return nil, err
	}
	if len(tail) > 0 {
		if err := c.AppendBlocks(ctx, token, page.ID, tail); err != nil {
			return nil, err
		}
	}
	return &page, nil
}

func (c *client) AppendBlocks(ctx context.Context, token, blockID string, children []Block) error {
	for len(children) > 0 {
		chunk := children
		if len(chunk) > maxBlocksPerAppend {
			chunk = children[:maxBlocksPerAppend]
		}
		children = children[len(chunk):]

		body := map[string]any{"children": chunk}
		if err := c.do(ctx, http.MethodPatch, "/v1/blocks/"+blockID+"/children", "Bearer "+token, body, nil); err != nil {
			return err
		}
	}
	return nil
}

func (c *client) ListBlockChildren(ctx context.Context, token, blockID string) ([]Block, error) {
	var all []Block
	cursor := ""
	for {
		path := "/v1/blocks/" + blockID + "/children?page_size=100"
		if cursor != "" {
			path += "&start_cursor=" + cursor
		}
		var out struct {
			Results    []Block `json:"results"`
			HasMore    bool    `json:"has_more"`
			NextCursor string  `json:"next_cursor"`
		}
		if err := c.do(ctx, http.MethodGet, path, "Bearer "+token, nil, &out); err != nil {
			return nil, err
		}
		all = append(all, out.Results...)
		if !out.HasMore || out.NextCursor == "" {
			break
		}
		cursor = out.NextCursor
	}
	return all, nil
}

func (c *client) DeleteBlock(ctx context.Context, token, blockID string) error {
	return c.do(ctx, http.MethodDelete, "/v1/blocks/"+blockID, "Bearer "+token, nil, nil)
}

func (c *client) UpdatePageTitle(ctx context.Context, token, pageID, title string) error {
	body := map[string]any{
		"properties": map[string]any{
			"title": map[string]any{"title": text(title)},
		},
	}
	return c.do(ctx, http.MethodPatch, "/v1/pages/"+pageID, "Bearer "+token, body, nil)
}

func (c *client) do(ctx context.Context, method, path, authorization string, body any, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return err
		}
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := httpx.JitterSleep(time.Duration(attempt) * 500 * time.Millisecond)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}

		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", authorization)
		req.Header.Set("Notion-Version", apiVersion)
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
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

		apiErr := mapAPIError(resp.StatusCode, raw)
		if httpx.IsRetryableHTTPStatus(resp.StatusCode) {
			lastErr = apiErr
			if wait := httpx.RetryAfterDuration(resp, 0, 30*time.Second); wait > 0 {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(wait):
				}
			}
			continue
		}
		return apiErr
	}
	return fmt.Errorf("notion %s %s: retries exhausted: %w", method, path, lastErr)
}

func mapAPIError(status int, raw []byte) error {
	var body struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	_ = json.Unmarshal(raw, &body)

	if status == http.StatusUnauthorized {
		return apperr.ErrNotionTokenExpired
	}
	if body.Message != "" {
		return fmt.Errorf("notion api %d %s: %s", status, body.Code, body.Message)
	}
	return fmt.Errorf("notion api %d", status)
}
