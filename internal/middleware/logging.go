// internal/middleware/logging.go

package middleware

import (
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// LogMiddleware logs each request's method, path, status and duration.
// Websocket upgrades pass through untouched; the wrapped writer still hijacks.
func LogMiddleware(logger *logrus.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			fields := logrus.Fields{
				"method":   r.Method,
				"path":     r.URL.Path,
				"status":   ww.Status(),
				"bytes":    ww.BytesWritten(),
				"duration": time.Since(start),
				"remote":   r.RemoteAddr,
			}
			if reqID := chimw.GetReqID(r.Context()); reqID != "" {
				fields["request_id"] = reqID
			}
			entry := logger.WithFields(fields)
			if ww.Status() >= http.StatusInternalServerError {
				entry.Warn("HTTP Request")
				return
			}
			entry.Debug("HTTP Request")
		})
	}
}

// LogWebSocketConnect logs an accepted, authenticated realtime connection.
func LogWebSocketConnect(logger *logrus.Logger, remoteAddr string, connID, playerID uuid.UUID) {
	logger.WithFields(logrus.Fields{
		"remote": remoteAddr,
		"conn":   connID,
		"player": playerID,
	}).Info("WebSocket connected")
}

// LogWebSocketDisconnect logs the end of a realtime connection.
func LogWebSocketDisconnect(logger *logrus.Logger, remoteAddr string, connID, playerID uuid.UUID, err error) {
	fields := logrus.Fields{
		"remote": remoteAddr,
		"conn":   connID,
		"player": playerID,
	}
	if err != nil {
		fields["error"] = err
	}
	logger.WithFields(fields).Info("WebSocket disconnected")
}
