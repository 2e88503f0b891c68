package server

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/kasuboski/umaru/pkg/logger"
)

const requestIDHeader = "X-Request-Id"

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// LogMiddleware tags every request with an id, echoed in X-Request-Id, and
// logs the outcome once the handler returns
func (s Server) LogMiddleware() mux.MiddlewareFunc {
	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := uuid.New().String()
			log := s.baseLogger.With("request_path", r.URL.Path, "method", r.Method, "id", id)

			w.Header().Set(requestIDHeader, id)
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()

			h.ServeHTTP(rec, r.WithContext(logger.WithCtx(r.Context(), log)))

			log.Debugw("handled request", "status", rec.status, "took", time.Since(start))
		})
	}
}
