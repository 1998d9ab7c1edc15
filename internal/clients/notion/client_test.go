package notion

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/vidgist/vidgist-backend/internal/apperr"
	"github.com/vidgist/vidgist-backend/internal/platform/logger"
)

func newTestClient(t *testing.T, handler http.Handler) Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	t.Setenv("NOTION_CLIENT_ID", "client-id")
	t.Setenv("NOTION_CLIENT_SECRET", "client-secret")
	t.Setenv("NOTION_BASE_URL", srv.URL)
	t.Setenv("NOTION_MAX_RETRIES", "2")

	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	c, err := NewClient(log)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func TestExchangeOAuthCode(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/oauth/token" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if !strings.HasPrefix(r.Header.Get("Authorization"), "Basic ") {
			t.Errorf("missing basic auth")
		}
		if r.Header.Get("Notion-Version") != apiVersion {
			t.Errorf("missing version header")
		}
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["grant_type"] != "authorization_code" || body["code"] != "code-123" {
			t.Errorf("body = %v", body)
		}
		_ = json.NewEncoder(w).Encode(OAuthToken{
			AccessToken:   "secret-token",
			BotID:         "bot-1",
			WorkspaceID:   "ws-1",
			WorkspaceName: "My Workspace",
		})
	}))

	token, err := c.ExchangeOAuthCode(context.Background(), "code-123", "https://app.example.com/callback")
	if err != nil {
		t.Fatalf("ExchangeOAuthCode: %v", err)
	}
	if token.AccessToken != "secret-token" || token.WorkspaceName != "My Workspace" {
		t.Fatalf("token = %+v", token)
	}
}

func TestCreatePageAndAppendChunks(t *testing.T) {
	var appendCalls int
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/v1/pages":
			var body struct {
				Children []json.RawMessage `json:"children"`
			}
			_ = json.NewDecoder(r.Body).Decode(&body)
			if len(body.Children) != 100 {
				t.Errorf("page children = %d, want 100", len(body.Children))
			}
			_ = json.NewEncoder(w).Encode(Page{ID: "page-1", URL: "https://notion.so/page-1"})
		case r.Method == http.MethodPatch && strings.HasSuffix(r.URL.Path, "/children"):
			appendCalls++
			var body struct {
				Children []json.RawMessage `json:"children"`
			}
			_ = json.NewDecoder(r.Body).Decode(&body)
			if len(body.Children) == 0 || len(body.Children) > 100 {
				t.Errorf("append chunk = %d", len(body.Children))
			}
			fmt.Fprint(w, "{}")
		default:
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))

	blocks := make([]Block, 130)
	for i := range blocks {
		blocks[i] = Paragraph(fmt.Sprintf("line %d", i))
	}
	page, err := c.CreatePage(context.Background(), "token", "parent-1", "Video Notes", blocks)
	if err != nil {
		t.Fatalf("CreatePage: %v", err)
	}
	if page.ID != "page-1" {
		t.Fatalf("page = %+v", page)
	}
	if appendCalls != 1 {
		t.Fatalf("append calls = %d, want 1", appendCalls)
	}
}

func TestUnauthorizedMapsToTokenExpired(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"code":"unauthorized","message":"API token is invalid."}`)
	}))

	_, err := c.FindParentPage(context.Background(), "stale-token")
	if !errors.Is(err, apperr.ErrNotionTokenExpired) {
		t.Fatalf("err = %v, want ErrNotionTokenExpired", err)
	}
}

func TestRetryOnServerError(t *testing.T) {
	var calls int
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, "{}")
	}))

	if err := c.DeleteBlock(context.Background(), "token", "block-1"); err != nil {
		t.Fatalf("DeleteBlock: %v", err)
	}
	if calls != 2 {
		t.Fatalf("calls = %d, want 2", calls)
	}
}

func TestListBlockChildrenPaginates(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("start_cursor") == "" {
			fmt.Fprint(w, `{"results":[{"id":"b1","type":"paragraph"}],"has_more":true,"next_cursor":"cur-2"}`)
			return
		}
		fmt.Fprint(w, `{"results":[{"id":"b2","type":"divider"}],"has_more":false}`)
	}))

	blocks, err := c.ListBlockChildren(context.Background(), "token", "page-1")
	if err != nil {
		t.Fatalf("ListBlockChildren: %v", err)
	}
	if len(blocks) != 2 || blocks[0].ID != "b1" || blocks[1].ID != "b2" {
		t.Fatalf("blocks = %+v", blocks)
	}
}
