// internal/api/response/response.go
package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/newthinker/swingbot/internal/core"
)

// Meta contains response metadata.
type Meta struct {
	Timestamp time.Time `json:"timestamp"`
}

// SuccessResponse is the standard success response format.
type SuccessResponse struct {
	Data any  `json:"data"`
	Meta Meta `json:"meta"`
}

// ErrorDetail contains error information.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Cause   string `json:"cause,omitempty"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// JSON writes a success response with data.
func JSON(w http.ResponseWriter, status int, data any) {
	resp := SuccessResponse{
		Data: data,
		Meta: Meta{Timestamp: time.Now().UTC()},
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}

// Error writes an error response.
func Error(w http.ResponseWriter, status int, err error) {
	resp := ErrorResponse{Error: Detail(err)}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}

// Detail converts err to its wire form. Errors without a code are reported
// as INTERNAL_ERROR without leaking their text.
func Detail(err error) ErrorDetail {
	detail := ErrorDetail{
		Code:    "INTERNAL_ERROR",
		Message: "an internal error occurred",
	}

	var coreErr *core.Error
	if errors.As(err, &coreErr) {
		detail.Code = coreErr.Code
		detail.Message = coreErr.Message
		if coreErr.Cause != nil {
			detail.Cause = coreErr.Cause.Error()
		}
	}
	return detail
}

// StatusFor maps a coded error to an HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, core.ErrJobNotFound),
		errors.Is(err, core.ErrArtifactNotFound),
		errors.Is(err, core.ErrStrategyNotFound),
		errors.Is(err, core.ErrSymbolNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrConfigInvalid),
		errors.Is(err, core.ErrConfigMissing),
		errors.Is(err, core.ErrInvalidData),
		errors.Is(err, core.ErrNoData):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrSourceFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
