package response

import (
	"encoding/json"
	"net/http"

	apperr "github.com/refferq/refferq/domain/error"
)

// ErrorBody carries the message under both "message" and "error" so either
// client convention can read it.
type ErrorBody struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
}

func WriteJSON(w http.ResponseWriter, statusCode int, body interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(body)
}

func Success(w http.ResponseWriter, statusCode int, body interface{}) {
	WriteJSON(w, statusCode, body)
}

func Error(w http.ResponseWriter, statusCode int, message string) {
	WriteJSON(w, statusCode, ErrorBody{Message: message, Error: message})
}

// FromError renders err with the status its kind maps to. Internal causes
// never reach the client.
func FromError(w http.ResponseWriter, err error) {
	status := apperr.GetHTTPStatusCode(err)
	body := ErrorBody{Message: "Internal server error"}

	if appErr, ok := apperr.As(err); ok {
		body.Code = string(appErr.Code)
		if status != http.StatusInternalServerError {
			body.Message = appErr.Message
		}
	}
	body.Error = body.Message
	WriteJSON(w, status, body)
}

func BadRequest(w http.ResponseWriter, message string) {
	Error(w, http.StatusBadRequest, message)
}

func Unauthorized(w http.ResponseWriter, message string) {
	Error(w, http.StatusUnauthorized, message)
}

func Forbidden(w http.ResponseWriter, message string) {
	Error(w, http.StatusForbidden, message)
}

func NotFound(w http.ResponseWriter, message string) {
	Error(w, http.StatusNotFound, message)
}

func TooManyRequests(w http.ResponseWriter, message string) {
	Error(w, http.StatusTooManyRequests, message)
}

func InternalServerError(w http.ResponseWriter, message string) {
	Error(w, http.StatusInternalServerError, message)
}
