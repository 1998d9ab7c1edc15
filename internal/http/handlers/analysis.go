package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/vidgist/vidgist-backend/internal/http/response"
	types "github.com/vidgist/vidgist-backend/internal/domain"
	"github.com/vidgist/vidgist-backend/internal/platform/requestdata"
	"github.com/vidgist/vidgist-backend/internal/services"
)

type AnalysisHandler struct {
	analysis services.AnalysisService
}

func NewAnalysisHandler(analysis services.AnalysisService) *AnalysisHandler {
	return &AnalysisHandler{analysis: analysis}
}

// POST /api/v1/analysis/standard
func (h *AnalysisHandler) SubmitStandard(c *gin.Context) {
	h.submit(c, types.ModeStandard)
}

// POST /api/v1/analysis/deep
func (h *AnalysisHandler) SubmitDeep(c *gin.Context) {
	h.submit(c, types.ModeDeep)
}

func (h *AnalysisHandler) submit(c *gin.Context, mode string) {
	var req services.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	req.Mode = mode

	out, err := h.analysis.Submit(c.Request.Context(), requestdata.UserID(c.Request.Context()), req)
	if err != nil {
		response.RespondAppError(c, err)
		return
	}
	if out.Cached {
		response.RespondOK(c, out)
		return
	}
	response.RespondCreated(c, out)
}

// GET /api/v1/analysis/jobs
func (h *AnalysisHandler) ListJobs(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	jobs, err := h.analysis.ListJobs(c.Request.Context(), requestdata.UserID(c.Request.Context()), limit, offset)
	if err != nil {
		response.RespondAppError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"jobs": jobs})
}

// GET /api/v1/analysis/jobs/:id
func (h *AnalysisHandler) GetJob(c *gin.Context) {
	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_job_id", err)
		return
	}
	job, err := h.analysis.GetJob(c.Request.Context(), requestdata.UserID(c.Request.Context()), jobID)
	if err != nil {
		response.RespondAppError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"job": job})
}

// GET /api/v1/analysis/results/:id
func (h *AnalysisHandler) GetResult(c *gin.Context) {
	resultID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_result_id", err)
		return
	}
	result, err := h.analysis.GetResult(c.Request.Context(), requestdata.UserID(c.Request.Context()), resultID)
	if err != nil {
		response.RespondAppError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"result": result})
}
