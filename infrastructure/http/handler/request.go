package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	apperr "github.com/refferq/refferq/domain/error"
)

const maxBodyBytes = 1 << 20

// decodeJSON reads one JSON object. An empty body decodes to the zero value
// so field validation can report what is missing.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return apperr.NewValidationError("Invalid request body", err)
	}
	return nil
}
