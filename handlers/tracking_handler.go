package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	apperrors "github.com/caliper-tracking/caliper-tracking-backend/errors"
	"github.com/caliper-tracking/caliper-tracking-backend/services"
	"github.com/caliper-tracking/caliper-tracking-backend/store"
	"github.com/caliper-tracking/caliper-tracking-backend/types"
	"github.com/gin-gonic/gin"
)

// TrackingHandler exposes the event enrichment helpers over HTTP.
type TrackingHandler struct {
	trackingService TrackingServiceInterface
}

func NewTrackingHandler(trackingService TrackingServiceInterface) *TrackingHandler {
	return &TrackingHandler{trackingService: trackingService}
}

// ConvertDatetimeHandler normalizes a timestamp to the Caliper UTC format.
// @Summary Convert a timestamp to Caliper UTC
// @Description Parses an ISO-8601 timestamp and returns it in UTC with millisecond precision.
// @Tags datetime
// @Accept json
// @Produce json
// @Param request body types.ConvertDatetimeRequest true "Timestamp to convert"
// @Success 200 {object} types.ConvertDatetimeResponse
// @Failure 400 {object} middleware.ErrorResponse "Malformed timestamp"
// @Failure 401 {object} middleware.ErrorResponse "Missing or invalid service token"
// @Router /datetime/convert [post]
// @Security BearerAuth
func (h *TrackingHandler) ConvertDatetimeHandler(c *gin.Context) {
	var req types.ConvertDatetimeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(err).SetType(gin.ErrorTypeBind)
		return
	}

	utc, err := services.ConvertDatetimeString(req.Timestamp)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, types.ConvertDatetimeResponse{UTC: utc})
}

// GetUsernameHandler returns the username of a user id.
// @Summary Get a username
// @Tags users
// @Produce json
// @Param userId path int true "LMS user ID"
// @Success 200 {object} types.UsernameResponse
// @Failure 400 {object} middleware.ErrorResponse "Invalid user ID"
// @Failure 404 {object} middleware.ErrorResponse "User not found"
// @Failure 500 {object} middleware.ErrorResponse "Database error"
// @Router /users/{userId}/username [get]
// @Security BearerAuth
func (h *TrackingHandler) GetUsernameHandler(c *gin.Context) {
	userID, err := parseUserID(c.Param("userId"))
	if err != nil {
		_ = c.Error(err)
		return
	}

	username, err := h.trackingService.UsernameFromUserID(c.Request.Context(), userID)
	if err != nil {
		_ = c.Error(lookupError(err, "User", userID))
		return
	}
	c.JSON(http.StatusOK, types.UsernameResponse{UserID: userID, Username: username})
}

// GetUserLinkHandler returns the learner profile URL of a username.
// @Summary Get a learner profile URL
// @Description Falls back to <root>/u/<username> when the profile route cannot be reversed.
// @Tags users
// @Produce json
// @Param username path string true "LMS username"
// @Success 200 {object} types.URLResponse
// @Router /usernames/{username}/link [get]
// @Security BearerAuth
func (h *TrackingHandler) GetUserLinkHandler(c *gin.Context) {
	username := c.Param("username")
	if strings.TrimSpace(username) == "" {
		_ = c.Error(apperrors.ValidationFailed("Invalid username", "username must not be empty"))
		return
	}
	c.JSON(http.StatusOK, types.URLResponse{URL: h.trackingService.UserLinkFromUsername(username)})
}

// GetTeamTopicHandler returns the topic id of a team.
// @Summary Get the topic of a team
// @Tags teams
// @Produce json
// @Param teamId path string true "Team ID"
// @Success 200 {object} types.TopicResponse
// @Failure 404 {object} middleware.ErrorResponse "Team not found"
// @Router /teams/{teamId}/topic [get]
// @Security BearerAuth
func (h *TrackingHandler) GetTeamTopicHandler(c *gin.Context) {
	teamID := c.Param("teamId")

	topicID, err := h.trackingService.TopicIDFromTeamID(c.Request.Context(), teamID)
	if err != nil {
		_ = c.Error(lookupError(err, "Team", teamID))
		return
	}
	c.JSON(http.StatusOK, types.TopicResponse{TeamID: teamID, TopicID: topicID})
}

// GetTeamURLHandler returns the in-page link to a team on the referer page.
// @Summary Get a team URL
// @Tags teams
// @Produce json
// @Param teamId path string true "Team ID"
// @Param referer query string true "URL of the page the event came from"
// @Success 200 {object} types.URLResponse
// @Failure 400 {object} middleware.ErrorResponse "Missing referer"
// @Failure 404 {object} middleware.ErrorResponse "Team not found"
// @Router /teams/{teamId}/url [get]
// @Security BearerAuth
func (h *TrackingHandler) GetTeamURLHandler(c *gin.Context) {
	teamID := c.Param("teamId")
	referer := c.Query("referer")
	if referer == "" {
		_ = c.Error(apperrors.ValidationFailed("Invalid request", "referer query parameter is required"))
		return
	}

	teamURL, err := h.trackingService.TeamURLFromTeamID(c.Request.Context(), referer, teamID)
	if err != nil {
		_ = c.Error(lookupError(err, "Team", teamID))
		return
	}
	c.JSON(http.StatusOK, types.URLResponse{URL: teamURL})
}

// GetCertificateURLHandler returns the HTML view URL of a certificate.
// @Summary Get a certificate URL
// @Tags certificates
// @Produce json
// @Param user_id query int true "LMS user ID"
// @Param course_id query string true "Course key"
// @Success 200 {object} types.URLResponse
// @Failure 400 {object} middleware.ErrorResponse "Invalid user or course ID"
// @Failure 500 {object} middleware.ErrorResponse "Certificate route could not be reversed"
// @Router /certificates/url [get]
// @Security BearerAuth
func (h *TrackingHandler) GetCertificateURLHandler(c *gin.Context) {
	userID, err := parseUserID(c.Query("user_id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	courseID := c.Query("course_id")
	if courseID == "" {
		_ = c.Error(apperrors.ValidationFailed("Invalid request", "course_id query parameter is required"))
		return
	}

	certURL, err := h.trackingService.CertificateURL(userID, courseID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, types.URLResponse{URL: certURL})
}

func parseUserID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.ValidationFailed("Invalid user id", "user id must be a positive integer")
	}
	return id, nil
}

// lookupError maps directory errors onto API errors.
func lookupError(err error, entity string, id interface{}) error {
	var appErr *apperrors.AppError
	switch {
	case errors.Is(err, store.ErrNotFound):
		return apperrors.NotFound(entity, id)
	case errors.As(err, &appErr):
		return appErr
	default:
		return apperrors.NewDatabaseError(err)
	}
}
