package logger

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const redacted = "[REDACTED]"

// LogHTTPError logs a failed request with its route, status and request ID.
// Credentials in headers are never written out.
func LogHTTPError(c *gin.Context, err error, statusCode int, message string) {
	fields := []interface{}{
		"error", err,
		"status_code", statusCode,
		"path", c.Request.URL.Path,
		"method", c.Request.Method,
		"client_ip", c.ClientIP(),
		"headers", RedactHeaders(c.Request.Header),
	}
	if requestID := c.GetString("request_id"); requestID != "" {
		fields = append(fields, "request_id", requestID)
	}

	log := GetLogger().Desugar().WithOptions(zap.AddCallerSkip(1)).Sugar()
	if statusCode >= http.StatusInternalServerError {
		log.Errorw(message, fields...)
		return
	}
	log.Warnw(message, fields...)
}

// RedactHeaders flattens headers for logging and hides anything that looks
// like a credential.
func RedactHeaders(headers http.Header) map[string]string {
	out := make(map[string]string, len(headers))
	for name, values := range headers {
		lower := strings.ToLower(name)
		if lower == "authorization" || lower == "cookie" ||
			strings.Contains(lower, "token") ||
			strings.Contains(lower, "key") ||
			strings.Contains(lower, "secret") {
			out[name] = redacted
			continue
		}
		if len(values) > 0 {
			out[name] = values[0]
		}
	}
	return out
}
