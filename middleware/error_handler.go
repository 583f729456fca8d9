package middleware

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strconv"

	apperrors "github.com/caliper-tracking/caliper-tracking-backend/errors"
	"github.com/caliper-tracking/caliper-tracking-backend/logger"
	"github.com/gin-gonic/gin"
)

// ErrorResponse is the JSON body written for failed requests.
type ErrorResponse struct {
	Type      string `json:"type"`
	Message   string `json:"message"`
	Details   string `json:"details,omitempty"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

// ErrorHandler turns the last error attached to the gin context into a JSON
// response. Handlers only call c.Error and return.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		last := c.Errors.Last()
		err := last.Err

		var appErr *apperrors.AppError
		if stderrors.As(err, &appErr) {
			status := appErr.GetHTTPStatus()
			logger.LogHTTPError(c, err, status, fmt.Sprintf("%s error", appErr.Type))

			resp := ErrorResponse{
				Type:      string(appErr.Type),
				Message:   appErr.Message,
				Code:      strconv.Itoa(status),
				RequestID: GetRequestID(c),
			}
			// Details of server-side failures stay in the logs.
			if appErr.Detail != "" && (gin.IsDebugging() ||
				appErr.Type == apperrors.ValidationError ||
				appErr.Type == apperrors.NotFoundError) {
				resp.Details = appErr.Detail
			}
			c.JSON(status, resp)
			return
		}

		switch last.Type {
		case gin.ErrorTypeBind:
			logger.LogHTTPError(c, err, http.StatusBadRequest, "Request binding error")
			resp := ErrorResponse{
				Type:      string(apperrors.ValidationError),
				Message:   "Failed to bind request",
				Code:      strconv.Itoa(http.StatusBadRequest),
				RequestID: GetRequestID(c),
			}
			if gin.IsDebugging() {
				resp.Details = err.Error()
			}
			c.JSON(http.StatusBadRequest, resp)
		case gin.ErrorTypePublic:
			logger.LogHTTPError(c, err, http.StatusBadRequest, "Public error")
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Type:      string(apperrors.ValidationError),
				Message:   err.Error(),
				Code:      strconv.Itoa(http.StatusBadRequest),
				RequestID: GetRequestID(c),
			})
		default:
			logger.LogHTTPError(c, err, http.StatusInternalServerError, "Unexpected server error")
			resp := ErrorResponse{
				Type:      string(apperrors.ServerError),
				Message:   "Internal Server Error",
				Code:      strconv.Itoa(http.StatusInternalServerError),
				RequestID: GetRequestID(c),
			}
			if gin.IsDebugging() {
				resp.Details = err.Error()
			}
			c.JSON(http.StatusInternalServerError, resp)
		}
	}
}
