package main

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/caliper-tracking/caliper-tracking-backend/logger"
	"github.com/caliper-tracking/caliper-tracking-backend/store"
	"github.com/caliper-tracking/caliper-tracking-backend/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	logger.IsTest = true
}

type stubTracking struct{}

func (stubTracking) UsernameFromUserID(_ context.Context, id int64) (string, error) {
	if id == 42 {
		return "learner", nil
	}
	return "", store.ErrNotFound
}

func (stubTracking) UserLinkFromUsername(username string) string {
	return "https://lms.example.com/u/" + username
}

func (stubTracking) TopicIDFromTeamID(context.Context, string) (string, error) {
	return "topic-9", nil
}

func (stubTracking) TeamURLFromTeamID(_ context.Context, referer, teamID string) (string, error) {
	return referer + "#teams/topic-9/" + teamID, nil
}

func (stubTracking) CertificateURL(userID int64, courseID string) (string, error) {
	return "https://lms.example.com/certificates/user/42/course/" + courseID, nil
}

type stubNotifier struct {
	ok   bool
	from string
	to   []string
	data types.NotificationData
}

func (s *stubNotifier) SendNotification(_ context.Context, data types.NotificationData, _ string, from string, to []string) bool {
	s.data, s.from, s.to = data, from, to
	return s.ok
}

func (s *stubNotifier) SendNotificationAsync(types.NotificationData, string, string, []string) bool {
	return s.ok
}

func run(t *testing.T, load loader, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd(load)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func stubLoader(n *stubNotifier) loader {
	return func(context.Context) (*helpers, error) {
		return &helpers{
			tracking:      stubTracking{},
			notifications: n,
			defaultFrom:   "noreply@example.org",
		}, nil
	}
}

func failingLoader(context.Context) (*helpers, error) {
	return nil, errors.New("loader should not be called")
}

func TestConvertDatetimeCmd(t *testing.T) {
	out, err := run(t, failingLoader, "convert-datetime", "2021-03-04T10:11:12.345678+02:00")
	require.NoError(t, err)
	assert.Equal(t, "2021-03-04T08:11:12.345Z\n", out)

	_, err = run(t, failingLoader, "convert-datetime", "not-a-date")
	assert.Error(t, err)
}

func TestLookupCmds(t *testing.T) {
	load := stubLoader(&stubNotifier{})

	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "username", args: []string{"username", "42"}, want: "learner\n"},
		{name: "user link", args: []string{"user-link", "learner"}, want: "https://lms.example.com/u/learner\n"},
		{name: "team url", args: []string{"team-url", "team-1", "--referer", "https://lms.example.com/teams"}, want: "https://lms.example.com/teams#teams/topic-9/team-1\n"},
		{name: "certificate url", args: []string{"certificate-url", "42", "course-v1:edX+DemoX+2024"}, want: "https://lms.example.com/certificates/user/42/course/course-v1:edX+DemoX+2024\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, load, tt.args...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestUsernameCmd_Errors(t *testing.T) {
	load := stubLoader(&stubNotifier{})

	_, err := run(t, load, "username", "7")
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = run(t, failingLoader, "username", "abc")
	assert.ErrorContains(t, err, "invalid user id")
}

func TestTeamURLCmd_RequiresReferer(t *testing.T) {
	_, err := run(t, stubLoader(&stubNotifier{}), "team-url", "team-1")
	assert.Error(t, err)
}

func TestSendNotificationCmd(t *testing.T) {
	t.Run("sent with default sender", func(t *testing.T) {
		n := &stubNotifier{ok: true}
		out, err := run(t, stubLoader(n), "send-notification",
			"--name", "Export", "--body", "done", "--error", "boom",
			"--subject", "Export finished", "--to", "a@example.org", "--to", "b@example.org")

		require.NoError(t, err)
		assert.Equal(t, "sent\n", out)
		assert.Equal(t, "noreply@example.org", n.from)
		assert.Equal(t, []string{"a@example.org", "b@example.org"}, n.to)
		assert.Equal(t, types.NotificationData{Name: "Export", Body: "done", Error: "boom"}, n.data)
	})

	t.Run("delivery failure exits with error", func(t *testing.T) {
		n := &stubNotifier{ok: false}
		_, err := run(t, stubLoader(n), "send-notification",
			"--subject", "s", "--to", "a@example.org", "--from", "ops@example.org")

		assert.ErrorContains(t, err, "not sent")
		assert.Equal(t, "ops@example.org", n.from)
	})
}

func TestExecute_ExitCode(t *testing.T) {
	ok := newRootCmd(failingLoader)
	ok.SetOut(&bytes.Buffer{})
	ok.SetArgs([]string{"convert-datetime", "2021-03-04T10:11:12Z"})
	assert.Equal(t, 0, execute(ok))

	failed := newRootCmd(failingLoader)
	failed.SetOut(&bytes.Buffer{})
	failed.SetErr(&bytes.Buffer{})
	failed.SetArgs([]string{"username", "abc"})
	assert.Equal(t, 1, execute(failed))
}
