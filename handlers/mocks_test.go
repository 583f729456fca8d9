package handlers

import (
	"context"

	"github.com/caliper-tracking/caliper-tracking-backend/logger"
	"github.com/caliper-tracking/caliper-tracking-backend/middleware"
	"github.com/caliper-tracking/caliper-tracking-backend/types"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
)

func init() {
	logger.IsTest = true
	gin.SetMode(gin.TestMode)
}

func newTestEngine() *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestIDMiddleware(), middleware.ErrorHandler())
	return r
}

type MockTrackingService struct {
	mock.Mock
}

func (m *MockTrackingService) UsernameFromUserID(ctx context.Context, userID int64) (string, error) {
	args := m.Called(ctx, userID)
	return args.String(0), args.Error(1)
}

func (m *MockTrackingService) UserLinkFromUsername(username string) string {
	return m.Called(username).String(0)
}

func (m *MockTrackingService) TopicIDFromTeamID(ctx context.Context, teamID string) (string, error) {
	args := m.Called(ctx, teamID)
	return args.String(0), args.Error(1)
}

func (m *MockTrackingService) TeamURLFromTeamID(ctx context.Context, referer, teamID string) (string, error) {
	args := m.Called(ctx, referer, teamID)
	return args.String(0), args.Error(1)
}

func (m *MockTrackingService) CertificateURL(userID int64, courseID string) (string, error) {
	args := m.Called(userID, courseID)
	return args.String(0), args.Error(1)
}

type MockNotificationService struct {
	mock.Mock
}

func (m *MockNotificationService) SendNotification(ctx context.Context, data types.NotificationData, subject, fromEmail string, destEmails []string) bool {
	return m.Called(ctx, data, subject, fromEmail, destEmails).Bool(0)
}

func (m *MockNotificationService) SendNotificationAsync(data types.NotificationData, subject, fromEmail string, destEmails []string) bool {
	return m.Called(data, subject, fromEmail, destEmails).Bool(0)
}

type MockHealthChecker struct {
	mock.Mock
}

func (m *MockHealthChecker) CheckHealth(ctx context.Context) types.HealthCheck {
	return m.Called(ctx).Get(0).(types.HealthCheck)
}
