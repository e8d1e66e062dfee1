// Package telemetry reports errors the API swallows to Sentry.
//
// Reporting is optional: with an empty DSN Init does nothing and
// CaptureError is a no-op, because the sentry-go hub has no client bound.
package telemetry

import (
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
)

// Init configures the global Sentry hub. It reports whether reporting is on.
func Init(dsn, service, env string) (bool, error) {
	if dsn == "" {
		return false, nil
	}
	if env == "" {
		env = "development"
	}
	err := sentry.Init(sentry.ClientOptions{
		Dsn:              dsn,
		Environment:      env,
		AttachStacktrace: true,
		Tags:             map[string]string{"service": service},
		BeforeSend: func(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
			return scrub(event)
		},
	})
	if err != nil {
		return false, fmt.Errorf("sentry init: %w", err)
	}
	return true, nil
}

// CaptureError sends err with the given tags. nil errors are ignored.
func CaptureError(err error, tags map[string]string) {
	if err == nil {
		return
	}
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTags(tags)
		sentry.CaptureException(err)
	})
}

// Flush waits briefly for queued events. Call before exit.
func Flush() {
	sentry.Flush(2 * time.Second)
}

// scrub drops client addresses and credential headers.
func scrub(event *sentry.Event) *sentry.Event {
	if event == nil {
		return nil
	}
	event.User.IPAddress = ""
	if event.Request != nil {
		for k := range event.Request.Headers {
			switch k {
			case "Authorization", "Cookie", "X-Forwarded-For", "X-Real-Ip":
				event.Request.Headers[k] = "[redacted]"
			}
		}
		event.Request.Cookies = ""
	}
	return event
}
