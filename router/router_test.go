package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/caliper-tracking/caliper-tracking-backend/config"
	"github.com/caliper-tracking/caliper-tracking-backend/handlers"
	"github.com/caliper-tracking/caliper-tracking-backend/logger"
	"github.com/caliper-tracking/caliper-tracking-backend/services"
	"github.com/caliper-tracking/caliper-tracking-backend/store"
	"github.com/caliper-tracking/caliper-tracking-backend/types"
	"github.com/caliper-tracking/caliper-tracking-backend/urls"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "router-test-secret-0123456789abcd"

func init() {
	logger.IsTest = true
	gin.SetMode(gin.TestMode)
}

type fakeUsers map[int64]string

func (f fakeUsers) GetUsernameByID(_ context.Context, id int64) (string, error) {
	if name, ok := f[id]; ok {
		return name, nil
	}
	return "", store.ErrNotFound
}

type fakeTeams map[string]string

func (f fakeTeams) GetTopicIDByTeamID(_ context.Context, id string) (string, error) {
	if topic, ok := f[id]; ok {
		return topic, nil
	}
	return "", store.ErrNotFound
}

type okPinger struct{}

func (okPinger) Ping(context.Context) error { return nil }

type nopMailer struct{}

func (nopMailer) Send(context.Context, types.EmailMessage) error { return nil }

func newTestRouter(t *testing.T, secret string) *gin.Engine {
	t.Helper()
	reverser, err := urls.NewReverser(urls.DefaultRoutes)
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	tracking := services.NewTrackingService(fakeUsers{42: "learner"}, fakeTeams{"team-1": "topic-9"}, reverser, "https://lms.example.com")
	notifications := services.NewNotificationService(nopMailer{}, nil, time.Second, reg)

	cfg := &config.Config{Server: config.ServerConfig{
		Environment:        config.EnvProduction,
		ServiceTokenSecret: secret,
	}}
	return SetupRouter(Dependencies{
		Config:              cfg,
		TrackingHandler:     handlers.NewTrackingHandler(tracking),
		NotificationHandler: handlers.NewNotificationHandler(notifications),
		HealthHandler:       handlers.NewHealthHandler(services.NewHealthService(okPinger{}, nil, "test")),
		Gatherer:            reg,
	})
}

func get(r *gin.Engine, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSetupRouter_Routes(t *testing.T) {
	r := newTestRouter(t, "")

	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantBody   string
	}{
		{name: "liveness", path: "/health/liveness", wantStatus: http.StatusOK},
		{name: "readiness", path: "/health/readiness", wantStatus: http.StatusOK},
		{name: "username", path: "/v1/users/42/username", wantStatus: http.StatusOK, wantBody: "learner"},
		{name: "unknown user", path: "/v1/users/41/username", wantStatus: http.StatusNotFound},
		{name: "profile link", path: "/v1/usernames/learner/link", wantStatus: http.StatusOK, wantBody: "https://lms.example.com/u/learner"},
		{name: "team topic", path: "/v1/teams/team-1/topic", wantStatus: http.StatusOK, wantBody: "topic-9"},
		{name: "team url", path: "/v1/teams/team-1/url?referer=https://lms.example.com/teams", wantStatus: http.StatusOK, wantBody: "https://lms.example.com/teams#teams/topic-9/team-1"},
		{name: "certificate", path: "/v1/certificates/url?user_id=42&course_id=course-v1:edX%2BDemoX%2B2024", wantStatus: http.StatusOK, wantBody: "/certificates/user/42/course/"},
		{name: "swagger ui", path: "/swagger/index.html", wantStatus: http.StatusOK, wantBody: "swagger-ui"},
		{name: "metrics", path: "/metrics", wantStatus: http.StatusOK, wantBody: "caliper_notification_sent_total"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(r, tt.path, "")
			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantBody != "" {
				assert.Contains(t, w.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestSetupRouter_ServiceToken(t *testing.T) {
	r := newTestRouter(t, testSecret)

	assert.Equal(t, http.StatusUnauthorized, get(r, "/v1/users/42/username", "").Code)
	assert.Equal(t, http.StatusOK, get(r, "/health/liveness", "").Code)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "lms",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, get(r, "/v1/users/42/username", signed).Code)
}
