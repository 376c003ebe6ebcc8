package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"money-layer/internal/logging"
	"money-layer/internal/models"
	"money-layer/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDKey 是 gin context 里存请求 ID 的 key
const RequestIDKey = "requestID"

// RequestLogger 分配请求 ID 并记录每个请求，4xx 记 warn，5xx 记 error
func RequestLogger(log *logging.Logger) gin.HandlerFunc {
	log = log.WithComponent(logging.ComponentHTTP)
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" || len(requestID) > 64 {
			requestID = uuid.NewString()
		}
		c.Set(RequestIDKey, requestID)
		c.Header("X-Request-ID", requestID)

		c.Next()

		status := c.Writer.Status()
		level := slog.LevelInfo
		if status >= http.StatusInternalServerError {
			level = slog.LevelError
		} else if status >= http.StatusBadRequest {
			level = slog.LevelWarn
		}

		args := []any{
			logging.FieldRequestID, requestID,
			logging.FieldMethod, c.Request.Method,
			logging.FieldPath, c.Request.URL.Path,
			logging.FieldStatusCode, status,
			logging.FieldDuration, time.Since(start).Milliseconds(),
			logging.FieldClientIP, c.ClientIP(),
		}
		if u := CurrentUser(c); u != nil {
			args = append(args, logging.FieldUserID, u.ID)
		}
		log.Log(c.Request.Context(), level, "HTTP request completed", args...)
	}
}

// AuditMiddleware 记录登录用户的写操作，必须放在 AuthMiddleware 之后。不存请求体
func AuditMiddleware(audit *store.AuditStore, log *logging.Logger) gin.HandlerFunc {
	log = log.WithComponent(logging.ComponentStore)
	return func(c *gin.Context) {
		c.Next()

		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			return
		}
		u := CurrentUser(c)
		if u == nil {
			return
		}

		entry := models.AuditLog{
			UserID:    u.ID,
			RequestID: c.GetString(RequestIDKey),
			Method:    c.Request.Method,
			Path:      truncate(c.Request.URL.Path, 255),
			Status:    c.Writer.Status(),
			IP:        c.ClientIP(),
			UserAgent: truncate(c.Request.UserAgent(), 255),
		}
		if err := audit.Record(c.Request.Context(), &entry); err != nil {
			log.WarnContext(c.Request.Context(), "audit record failed",
				logging.FieldUserID, u.ID, logging.FieldError, err)
		}
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
