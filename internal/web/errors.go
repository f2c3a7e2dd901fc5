package web

// errors.go provides unified error response handling for the web layer.
//
// Every failed request takes the same path: the technical error is
// logged with its request ID, mapped to a user-facing message via
// core.MapError, and rendered as JSON or plain HTML depending on what
// the client asked for. Browser form posts are normally answered with
// a flash notice and a redirect in the handlers instead; this path
// covers API clients and requests that cannot be redirected.

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/JonMunkholm/CsvCombine/internal/core"
	"github.com/JonMunkholm/CsvCombine/internal/logging"
)

// ErrorResponse is the JSON shape for failed API requests.
// Includes both machine-readable (Code) and human-readable (Message, Action) fields.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// respondError logs the technical error and writes a user-facing
// response in the format the client prefers.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error, statusCode int) {
	userMsg := core.MapError(err)

	logging.FromContext(r.Context()).Error("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", statusCode,
		"error", err.Error(),
		"code", userMsg.Code,
	)

	if wantsJSON(r) {
		respondErrorJSON(w, userMsg, statusCode)
	} else {
		respondErrorHTML(w, userMsg, statusCode)
	}
}

// respondErrorJSON writes a JSON error response.
func respondErrorJSON(w http.ResponseWriter, msg core.UserMessage, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	})
}

// respondErrorHTML writes a plain HTML error response.
func respondErrorHTML(w http.ResponseWriter, msg core.UserMessage, statusCode int) {
	http.Error(w, msg.Message+" ("+msg.Code+")", statusCode)
}

// httpStatusFor picks the HTTP status for a workflow error. Client
// mistakes map to 4xx, capacity pressure to 503, and anything
// unrecognized to 500.
func httpStatusFor(err error) int {
	var parseErr *core.ParseError
	switch {
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrTooManyOps):
		return http.StatusServiceUnavailable
	case errors.Is(err, core.ErrFileVanished):
		return http.StatusConflict
	case errors.Is(err, core.ErrInvalidExtension),
		errors.Is(err, core.ErrEmptyFile),
		errors.Is(err, core.ErrFileTooLarge),
		errors.Is(err, core.ErrNoFiles),
		errors.Is(err, core.ErrNoValidData),
		errors.Is(err, core.ErrHeaderMismatch),
		errors.Is(err, core.ErrInvalidEncoding),
		errors.As(err, &parseErr):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// wantsJSON reports whether the client prefers a JSON response.
func wantsJSON(r *http.Request) bool {
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		return true
	}
	return strings.Contains(r.Header.Get("Content-Type"), "application/json")
}

// writeJSON writes v as a JSON response with the given status.
func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(v)
}
