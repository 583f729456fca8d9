package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	apperrors "github.com/caliper-tracking/caliper-tracking-backend/errors"
	"github.com/caliper-tracking/caliper-tracking-backend/store"
	"github.com/caliper-tracking/caliper-tracking-backend/types"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func setupTrackingRouter(svc *MockTrackingService) *gin.Engine {
	h := NewTrackingHandler(svc)
	r := newTestEngine()
	r.POST("/v1/datetime/convert", h.ConvertDatetimeHandler)
	r.GET("/v1/users/:userId/username", h.GetUsernameHandler)
	r.GET("/v1/usernames/:username/link", h.GetUserLinkHandler)
	r.GET("/v1/teams/:teamId/topic", h.GetTeamTopicHandler)
	r.GET("/v1/teams/:teamId/url", h.GetTeamURLHandler)
	r.GET("/v1/certificates/url", h.GetCertificateURLHandler)
	return r
}

func perform(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestConvertDatetimeHandler(t *testing.T) {
	r := setupTrackingRouter(new(MockTrackingService))

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantUTC    string
	}{
		{name: "offset timestamp", body: `{"timestamp":"2021-03-04T10:11:12.345678+02:00"}`, wantStatus: http.StatusOK, wantUTC: "2021-03-04T08:11:12.345Z"},
		{name: "space separated", body: `{"timestamp":"2021-03-04 10:11:12"}`, wantStatus: http.StatusOK, wantUTC: "2021-03-04T10:11:12.000Z"},
		{name: "malformed", body: `{"timestamp":"yesterday"}`, wantStatus: http.StatusBadRequest},
		{name: "missing field", body: `{}`, wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := perform(r, http.MethodPost, "/v1/datetime/convert", tt.body)
			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus != http.StatusOK {
				return
			}
			var resp types.ConvertDatetimeResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantUTC, resp.UTC)
		})
	}
}

func TestGetUsernameHandler(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		setup      func(m *MockTrackingService)
		wantStatus int
		wantBody   string
	}{
		{
			name: "found",
			path: "/v1/users/42/username",
			setup: func(m *MockTrackingService) {
				m.On("UsernameFromUserID", mock.Anything, int64(42)).Return("learner", nil)
			},
			wantStatus: http.StatusOK,
			wantBody:   `{"user_id":42,"username":"learner"}`,
		},
		{
			name: "not found",
			path: "/v1/users/7/username",
			setup: func(m *MockTrackingService) {
				m.On("UsernameFromUserID", mock.Anything, int64(7)).
					Return("", fmt.Errorf("user 7: %w", store.ErrNotFound))
			},
			wantStatus: http.StatusNotFound,
		},
		{
			name: "database failure",
			path: "/v1/users/8/username",
			setup: func(m *MockTrackingService) {
				m.On("UsernameFromUserID", mock.Anything, int64(8)).Return("", errors.New("conn reset"))
			},
			wantStatus: http.StatusInternalServerError,
		},
		{
			name:       "non numeric id",
			path:       "/v1/users/abc/username",
			setup:      func(m *MockTrackingService) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "zero id",
			path:       "/v1/users/0/username",
			setup:      func(m *MockTrackingService) {},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockTrackingService)
			tt.setup(svc)
			w := perform(setupTrackingRouter(svc), http.MethodGet, tt.path, "")

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantBody != "" {
				assert.JSONEq(t, tt.wantBody, w.Body.String())
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestGetUserLinkHandler(t *testing.T) {
	svc := new(MockTrackingService)
	svc.On("UserLinkFromUsername", "learner").Return("https://lms.example.com/u/learner")

	w := perform(setupTrackingRouter(svc), http.MethodGet, "/v1/usernames/learner/link", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"url":"https://lms.example.com/u/learner"}`, w.Body.String())
	svc.AssertExpectations(t)
}

func TestGetTeamTopicHandler(t *testing.T) {
	svc := new(MockTrackingService)
	svc.On("TopicIDFromTeamID", mock.Anything, "team-1").Return("topic-9", nil)
	svc.On("TopicIDFromTeamID", mock.Anything, "ghost").Return("", store.ErrNotFound)
	r := setupTrackingRouter(svc)

	w := perform(r, http.MethodGet, "/v1/teams/team-1/topic", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"team_id":"team-1","topic_id":"topic-9"}`, w.Body.String())

	w = perform(r, http.MethodGet, "/v1/teams/ghost/topic", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetTeamURLHandler(t *testing.T) {
	referer := "https://lms.example.com/courses/course-v1:edX+D+1/teams/"

	t.Run("builds link", func(t *testing.T) {
		svc := new(MockTrackingService)
		svc.On("TeamURLFromTeamID", mock.Anything, referer, "team-1").
			Return(referer+"#teams/topic-9/team-1", nil)

		w := perform(setupTrackingRouter(svc), http.MethodGet,
			"/v1/teams/team-1/url?referer="+url.QueryEscape(referer), "")

		assert.Equal(t, http.StatusOK, w.Code)
		var resp types.URLResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, referer+"#teams/topic-9/team-1", resp.URL)
	})

	t.Run("missing referer", func(t *testing.T) {
		svc := new(MockTrackingService)
		w := perform(setupTrackingRouter(svc), http.MethodGet, "/v1/teams/team-1/url", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "TeamURLFromTeamID", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unknown team", func(t *testing.T) {
		svc := new(MockTrackingService)
		svc.On("TeamURLFromTeamID", mock.Anything, "https://lms.example.com/", "ghost").
			Return("", store.ErrNotFound)

		w := perform(setupTrackingRouter(svc), http.MethodGet,
			"/v1/teams/ghost/url?referer=https://lms.example.com/", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestGetCertificateURLHandler(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		svc := new(MockTrackingService)
		svc.On("CertificateURL", int64(5), "course-v1:edX+DemoX+2024").
			Return("https://lms.example.com/certificates/user/5/course/course-v1:edX+DemoX+2024", nil)

		w := perform(setupTrackingRouter(svc), http.MethodGet,
			"/v1/certificates/url?user_id=5&course_id=course-v1:edX%2BDemoX%2B2024", "")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "/certificates/user/5/course/")
	})

	t.Run("reverse failure", func(t *testing.T) {
		svc := new(MockTrackingService)
		svc.On("CertificateURL", int64(5), "bad").
			Return("", apperrors.NoReverseMatch("certificates:html_view", errors.New("no route")))

		w := perform(setupTrackingRouter(svc), http.MethodGet,
			"/v1/certificates/url?user_id=5&course_id=bad", "")

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Contains(t, w.Body.String(), string(apperrors.ReverseError))
	})

	t.Run("missing course", func(t *testing.T) {
		w := perform(setupTrackingRouter(new(MockTrackingService)), http.MethodGet,
			"/v1/certificates/url?user_id=5", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
