package middleware

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/refferq/refferq/infrastructure/service/logger"
)

const CorrelationIDHeader = "X-Correlation-ID"

// Correlation stamps every request with an id, echoes it on the response and
// binds it to the context so log entries carry it.
func Correlation(header string) func(http.Handler) http.Handler {
	if header == "" {
		header = CorrelationIDHeader
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cid := r.Header.Get(header)
			if cid == "" || len(cid) > 128 {
				cid = uuid.NewString()
			}
			w.Header().Set(header, cid)
			next.ServeHTTP(w, r.WithContext(logger.WithCorrelationID(r.Context(), cid)))
		})
	}
}

type recordingWriter struct {
	http.ResponseWriter
	status int
}

func (w *recordingWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// RequestLog writes one entry per request after it completes.
func RequestLog(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := &recordingWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rw, r)

			logger.LogPerformance(r.Context(), log, "http_request", time.Since(start), map[string]interface{}{
				"method": r.Method,
				"path":   r.URL.Path,
				"status": rw.status,
				"ip":     getClientIP(r),
			})
		})
	}
}
