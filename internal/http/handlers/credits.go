package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/vidgist/vidgist-backend/internal/http/response"
	"github.com/vidgist/vidgist-backend/internal/platform/requestdata"
	"github.com/vidgist/vidgist-backend/internal/services"
)

type CreditsHandler struct {
	credits services.CreditService
}

func NewCreditsHandler(credits services.CreditService) *CreditsHandler {
	return &CreditsHandler{credits: credits}
}

// GET /api/v1/credits/balance
func (h *CreditsHandler) GetBalance(c *gin.Context) {
	balance, err := h.credits.GetBalance(c.Request.Context(), requestdata.UserID(c.Request.Context()))
	if err != nil {
		response.RespondAppError(c, err)
		return
	}
	response.RespondOK(c, balance)
}

// GET /api/v1/credits/transactions
func (h *CreditsHandler) ListTransactions(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	page, err := h.credits.ListTransactions(c.Request.Context(), requestdata.UserID(c.Request.Context()), limit, offset)
	if err != nil {
		response.RespondAppError(c, err)
		return
	}
	response.RespondOK(c, page)
}

// POST /internal/credits/:userId/grant-monthly
// Invoked by the billing scheduler, not by end users.
func (h *CreditsHandler) GrantMonthly(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_user_id", err)
		return
	}
	entry, err := h.credits.GrantMonthlyCredits(c.Request.Context(), userID)
	if err != nil {
		response.RespondAppError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"transaction": entry})
}
