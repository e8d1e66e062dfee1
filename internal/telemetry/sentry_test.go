package telemetry

import (
	"errors"
	"testing"

	"github.com/getsentry/sentry-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_EmptyDSNDisabled(t *testing.T) {
	on, err := Init("", "records-api", "")
	require.NoError(t, err)
	assert.False(t, on)
}

func TestInit_BadDSN(t *testing.T) {
	on, err := Init("not a dsn", "records-api", "test")
	assert.False(t, on)
	assert.ErrorContains(t, err, "sentry init")
}

func TestCaptureError_NoClientIsNoop(t *testing.T) {
	assert.NotPanics(t, func() {
		CaptureError(errors.New("query failed"), map[string]string{"route": "/api/test1"})
		CaptureError(nil, nil)
	})
}

func TestScrub(t *testing.T) {
	ev := &sentry.Event{
		User: sentry.User{IPAddress: "203.0.113.7"},
		Request: &sentry.Request{
			Headers: map[string]string{
				"Authorization": "Bearer x",
				"Accept":        "application/json",
			},
			Cookies: "session=abc",
		},
	}

	out := scrub(ev)
	require.NotNil(t, out)
	assert.Empty(t, out.User.IPAddress)
	assert.Equal(t, "[redacted]", out.Request.Headers["Authorization"])
	assert.Equal(t, "application/json", out.Request.Headers["Accept"])
	assert.Empty(t, out.Request.Cookies)

	assert.Nil(t, scrub(nil))
}
