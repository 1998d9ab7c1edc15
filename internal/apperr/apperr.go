package apperr

import (
	"errors"
	"net/http"
)

// Error is a coded application error. Code values are stable across
// the API surface; Status is the HTTP status handlers respond with.
type Error struct {
	Code    string
	Message string
	Status  int
}

func (e *Error) Error() string { return e.Message }

func (e *Error) HTTPStatusCode() int { return e.Status }

func New(code, message string, status int) *Error {
	return &Error{Code: code, Message: message, Status: status}
}

var (
	ErrNotFound     = New("ERR_002", "Resource not found", http.StatusNotFound)
	ErrUnauthorized = New("AUTH_003", "Unauthorized access", http.StatusForbidden)

	ErrCreditsInsufficient = New("CREDITS_001", "Insufficient credits", http.StatusBadRequest)

	ErrInvalidVideoURL     = New("ANALYSIS_001", "Invalid YouTube URL", http.StatusBadRequest)
	ErrVideoTooLong        = New("ANALYSIS_002", "Video exceeds maximum duration for your plan", http.StatusBadRequest)
	ErrDeepModeUnavailable = New("ANALYSIS_003", "Deep Mode requires Pro or Business plan", http.StatusBadRequest)
	ErrDailyLimitReached   = New("ANALYSIS_004", "Daily analysis limit reached", http.StatusBadRequest)
	ErrAnalysisInProgress  = New("ANALYSIS_005", "Analysis already in progress for this video", http.StatusConflict)
	ErrAnalysisFailed      = New("ANALYSIS_006", "Analysis failed", http.StatusInternalServerError)
	ErrJobNotFound         = New("ANALYSIS_007", "Analysis job not found", http.StatusNotFound)

	ErrNotionNotConnected = New("NOTION_001", "Notion is not connected", http.StatusBadRequest)
	ErrNotionSyncConflict = New("NOTION_002", "Sync conflict detected. Please try again", http.StatusConflict)
	ErrNotionTokenExpired = New("NOTION_003", "Notion token expired. Please reconnect", http.StatusBadRequest)
	ErrNotionNoParentPage = New("NOTION_004", "No accessible Notion page to export into", http.StatusBadRequest)
)

// FromError extracts the coded error, or nil when err carries none.
func FromError(err error) *Error {
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return nil
}
