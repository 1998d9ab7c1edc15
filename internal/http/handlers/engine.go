package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/vidgist/vidgist-backend/internal/http/response"
	"github.com/vidgist/vidgist-backend/internal/services"
)

// EngineHandler receives callbacks from the analysis worker fleet.
type EngineHandler struct {
	analysis services.AnalysisService
}

func NewEngineHandler(analysis services.AnalysisService) *EngineHandler {
	return &EngineHandler{analysis: analysis}
}

func engineJobID(c *gin.Context) (uuid.UUID, bool) {
	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_job_id", err)
		return uuid.Nil, false
	}
	return jobID, true
}

// POST /internal/engine/jobs/:id/processing
func (h *EngineHandler) MarkProcessing(c *gin.Context) {
	jobID, ok := engineJobID(c)
	if !ok {
		return
	}
	if err := h.analysis.MarkProcessing(c.Request.Context(), jobID); err != nil {
		response.RespondAppError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"updated": true})
}

type progressRequest struct {
	Progress int `json:"progress"`
}

// POST /internal/engine/jobs/:id/progress
func (h *EngineHandler) UpdateProgress(c *gin.Context) {
	jobID, ok := engineJobID(c)
	if !ok {
		return
	}
	var req progressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if err := h.analysis.UpdateProgress(c.Request.Context(), jobID, req.Progress); err != nil {
		response.RespondAppError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"updated": true})
}

// POST /internal/engine/jobs/:id/complete
func (h *EngineHandler) Complete(c *gin.Context) {
	jobID, ok := engineJobID(c)
	if !ok {
		return
	}
	var req services.CompleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	result, err := h.analysis.Complete(c.Request.Context(), jobID, req)
	if err != nil {
		response.RespondAppError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"result": result})
}

type failRequest struct {
	ErrorCode    string `json:"error_code"`
	ErrorMessage string `json:"error_message"`
}

// POST /internal/engine/jobs/:id/fail
func (h *EngineHandler) Fail(c *gin.Context) {
	jobID, ok := engineJobID(c)
	if !ok {
		return
	}
	var req failRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if err := h.analysis.Fail(c.Request.Context(), jobID, req.ErrorCode, req.ErrorMessage); err != nil {
		response.RespondAppError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"updated": true})
}
