// Package respond writes the service's uniform success and error envelopes.
package respond

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/scamshield/scamshield/internal/model"
)

// ErrorBody is the error half of the envelope.
type ErrorBody struct {
	Code       model.ErrorCode `json:"code"`
	Message    string          `json:"message"`
	Timestamp  string          `json:"timestamp"`
	RetryAfter *int            `json:"retryAfter,omitempty"`
	Stack      string          `json:"stack,omitempty"`
}

type errorEnvelope struct {
	Success bool      `json:"success"`
	Error   ErrorBody `json:"error"`
}

type successEnvelope struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data"`
	Cached    *bool       `json:"cached,omitempty"`
	Timestamp string      `json:"timestamp"`
}

// statusFor maps taxonomy codes to HTTP statuses. This is the single place
// that mapping lives.
func statusFor(code model.ErrorCode) int {
	switch code {
	case model.CodeValidation:
		return http.StatusBadRequest
	case model.CodeAuthentication:
		return http.StatusUnauthorized
	case model.CodeAuthorization:
		return http.StatusForbidden
	case model.CodeRateLimited:
		return http.StatusTooManyRequests
	case model.CodeNotFound, model.CodeRouteNotFound:
		return http.StatusNotFound
	case model.CodeAIService:
		return http.StatusBadGateway
	case model.CodeNetwork, model.CodeDatabaseService:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// developmentMode controls whether INTERNAL_ERROR responses carry the
// underlying message. Set once at startup.
var developmentMode bool

// SetDevelopmentMode toggles detailed internal-error bodies.
func SetDevelopmentMode(on bool) { developmentMode = on }

// WriteJSON writes any payload with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// WriteData writes the success envelope without a cached flag.
func WriteData(w http.ResponseWriter, statusCode int, data interface{}) {
	WriteJSON(w, statusCode, successEnvelope{
		Success:   true,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// WriteAnalysis writes the success envelope with the cached flag.
func WriteAnalysis(w http.ResponseWriter, data interface{}, cached bool) {
	WriteJSON(w, http.StatusOK, successEnvelope{
		Success:   true,
		Data:      data,
		Cached:    &cached,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// WriteError maps err onto the taxonomy envelope. Errors without a taxonomy
// code become INTERNAL_ERROR, with the underlying message hidden outside
// development mode.
func WriteError(w http.ResponseWriter, err error) {
	body := ErrorBody{
		Code:      model.CodeInternal,
		Message:   "internal error",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	var te *model.Error
	if errors.As(err, &te) {
		body.Code = te.Code
		body.Message = te.Message
		if te.Code == model.CodeRateLimited {
			retry := te.RetryAfterSeconds
			body.RetryAfter = &retry
			w.Header().Set("Retry-After", strconv.Itoa(retry))
		}
	} else if developmentMode && err != nil {
		body.Message = err.Error()
	}

	// Development mode carries the full cause chain, including pkg/errors
	// stack traces when present.
	if developmentMode && err != nil {
		body.Stack = fmt.Sprintf("%+v", err)
	}

	WriteJSON(w, statusFor(body.Code), errorEnvelope{Success: false, Error: body})
}

// WriteCode writes a taxonomy error from a bare code and message.
func WriteCode(w http.ResponseWriter, code model.ErrorCode, message string) {
	WriteError(w, model.NewError(code, message, nil))
}
