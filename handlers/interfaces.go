package handlers

import (
	"context"

	"github.com/caliper-tracking/caliper-tracking-backend/types"
)

// TrackingServiceInterface defines the lookups handlers need to enrich events
type TrackingServiceInterface interface {
	UsernameFromUserID(ctx context.Context, userID int64) (string, error)
	UserLinkFromUsername(username string) string
	TopicIDFromTeamID(ctx context.Context, teamID string) (string, error)
	TeamURLFromTeamID(ctx context.Context, referer, teamID string) (string, error)
	CertificateURL(userID int64, courseID string) (string, error)
}

// NotificationServiceInterface defines the notification mail operations
type NotificationServiceInterface interface {
	SendNotification(ctx context.Context, data types.NotificationData, subject, fromEmail string, destEmails []string) bool
	SendNotificationAsync(data types.NotificationData, subject, fromEmail string, destEmails []string) bool
}

// HealthChecker reports the state of the service dependencies
type HealthChecker interface {
	CheckHealth(ctx context.Context) types.HealthCheck
}
