package services

import (
	"context"
	"fmt"
	"strconv"

	apperrors "github.com/caliper-tracking/caliper-tracking-backend/errors"
	"github.com/caliper-tracking/caliper-tracking-backend/logger"
	"github.com/caliper-tracking/caliper-tracking-backend/store"
	"github.com/caliper-tracking/caliper-tracking-backend/urls"
	"go.uber.org/zap"
)

// URLReverser builds LMS paths from named routes.
type URLReverser interface {
	Reverse(name string, kwargs map[string]string) (string, error)
}

// TrackingService resolves the users, teams and links that Caliper events
// reference. Every method performs at most one directory or reverse call.
type TrackingService struct {
	users      store.UserStore
	teams      store.TeamStore
	reverser   URLReverser
	lmsRootURL string
	log        *zap.SugaredLogger
}

func NewTrackingService(users store.UserStore, teams store.TeamStore, reverser URLReverser, lmsRootURL string) *TrackingService {
	return &TrackingService{
		users:      users,
		teams:      teams,
		reverser:   reverser,
		lmsRootURL: lmsRootURL,
		log:        logger.GetLogger().Named("tracking"),
	}
}

// UsernameFromUserID returns the username for userID. Lookup errors,
// including store.ErrNotFound, are returned to the caller.
func (s *TrackingService) UsernameFromUserID(ctx context.Context, userID int64) (string, error) {
	username, err := s.users.GetUsernameByID(ctx, userID)
	if err != nil {
		return "", err
	}
	return username, nil
}

// UserLinkFromUsername returns the absolute learner profile URL. When the
// profile route cannot be reversed it falls back to <root>/u/<username>.
func (s *TrackingService) UserLinkFromUsername(username string) string {
	path, err := s.reverser.Reverse(urls.LearnerProfile, map[string]string{"username": username})
	if err != nil {
		s.log.Debugw("Learner profile route not reversible, using fallback", "username", username, "error", err)
		return fmt.Sprintf("%s/u/%s", s.lmsRootURL, username)
	}
	return s.lmsRootURL + path
}

// TopicIDFromTeamID returns the topic a team belongs to.
func (s *TrackingService) TopicIDFromTeamID(ctx context.Context, teamID string) (string, error) {
	return s.teams.GetTopicIDByTeamID(ctx, teamID)
}

// TeamURLFromTeamID builds the in-page team link <referer>#teams/<topic>/<team>.
// The referer comes from the event and is used verbatim.
func (s *TrackingService) TeamURLFromTeamID(ctx context.Context, referer, teamID string) (string, error) {
	topicID, err := s.TopicIDFromTeamID(ctx, teamID)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s#teams/%s/%s", referer, topicID, teamID), nil
}

// CertificateURL returns the absolute URL of the certificate userID earned
// in courseID. A reverse failure is returned as a REVERSE_ERROR AppError.
func (s *TrackingService) CertificateURL(userID int64, courseID string) (string, error) {
	path, err := s.reverser.Reverse(urls.CertificateHTMLView, map[string]string{
		"user_id":   strconv.FormatInt(userID, 10),
		"course_id": courseID,
	})
	if err != nil {
		return "", apperrors.NoReverseMatch(urls.CertificateHTMLView, err)
	}
	return s.lmsRootURL + path, nil
}
