package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/vidgist/vidgist-backend/internal/http/response"
	"github.com/vidgist/vidgist-backend/internal/platform/requestdata"
	"github.com/vidgist/vidgist-backend/internal/services"
)

type NotionHandler struct {
	notion services.NotionService
}

func NewNotionHandler(notion services.NotionService) *NotionHandler {
	return &NotionHandler{notion: notion}
}

// GET /api/v1/notion/auth-url
func (h *NotionHandler) GetAuthURL(c *gin.Context) {
	url, err := h.notion.AuthURL(c.Request.Context(), requestdata.UserID(c.Request.Context()))
	if err != nil {
		response.RespondAppError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"auth_url": url})
}

// GET /api/v1/notion/callback
func (h *NotionHandler) HandleCallback(c *gin.Context) {
	state := strings.TrimSpace(c.Query("state"))
	code := strings.TrimSpace(c.Query("code"))
	if state == "" || code == "" {
		response.RespondError(c, http.StatusBadRequest, "invalid_callback", nil)
		return
	}
	status, err := h.notion.HandleCallback(c.Request.Context(), state, code)
	if err != nil {
		response.RespondAppError(c, err)
		return
	}
	response.RespondOK(c, status)
}

// GET /api/v1/notion/status
func (h *NotionHandler) GetStatus(c *gin.Context) {
	status, err := h.notion.Status(c.Request.Context(), requestdata.UserID(c.Request.Context()))
	if err != nil {
		response.RespondAppError(c, err)
		return
	}
	response.RespondOK(c, status)
}

// DELETE /api/v1/notion/connection
func (h *NotionHandler) Disconnect(c *gin.Context) {
	if err := h.notion.Disconnect(c.Request.Context(), requestdata.UserID(c.Request.Context())); err != nil {
		response.RespondAppError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"disconnected": true})
}

// POST /api/v1/notion/export/:resultId
func (h *NotionHandler) ExportAnalysis(c *gin.Context) {
	resultID, err := uuid.Parse(c.Param("resultId"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_result_id", err)
		return
	}
	info, err := h.notion.ExportAnalysis(c.Request.Context(), requestdata.UserID(c.Request.Context()), resultID)
	if err != nil {
		response.RespondAppError(c, err)
		return
	}
	response.RespondOK(c, info)
}

// POST /api/v1/notion/sync/:resultId
func (h *NotionHandler) SyncAnalysis(c *gin.Context) {
	resultID, err := uuid.Parse(c.Param("resultId"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_result_id", err)
		return
	}
	info, err := h.notion.SyncAnalysis(c.Request.Context(), requestdata.UserID(c.Request.Context()), resultID)
	if err != nil {
		response.RespondAppError(c, err)
		return
	}
	response.RespondOK(c, info)
}

type exportToSessionRequest struct {
	SessionID uuid.UUID `json:"session_id" binding:"required"`
	ResultID  uuid.UUID `json:"result_id" binding:"required"`
}

// POST /api/v1/notion/export/session
func (h *NotionHandler) ExportToSession(c *gin.Context) {
	var req exportToSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	info, err := h.notion.ExportToSession(c.Request.Context(), requestdata.UserID(c.Request.Context()), req.SessionID, req.ResultID)
	if err != nil {
		response.RespondAppError(c, err)
		return
	}
	response.RespondOK(c, info)
}
