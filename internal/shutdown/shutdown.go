// Package shutdown serves HTTP until its context ends, then drains.
package shutdown

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// Serve runs srv on ln until ctx is cancelled or the server fails.
// On cancellation it stops accepting connections and waits up to drain for
// in-flight requests before returning. Requests still running after drain
// have their contexts cancelled and their connections closed. A clean stop
// returns nil.
func Serve(ctx context.Context, srv *http.Server, ln net.Listener, drain time.Duration, log *logrus.Entry) error {
	baseCtx, cancelBase := context.WithCancel(context.Background())
	defer cancelBase()
	srv.BaseContext = func(net.Listener) context.Context { return baseCtx }

	serverErr := make(chan error, 1)
	go func() {
		log.WithField("addr", ln.Addr().String()).Info("server starting")
		serverErr <- srv.Serve(ln)
	}()

	select {
	case err := <-serverErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		log.WithField("cause", context.Cause(ctx)).Info("shutdown requested")
	}

	log.WithField("timeout", drain.String()).Info("draining connections")
	drainCtx, cancel := context.WithTimeout(context.Background(), drain)
	defer cancel()

	if err := srv.Shutdown(drainCtx); err != nil {
		log.WithError(err).Error("graceful shutdown failed, closing remaining connections")
		cancelBase()
		srv.Close()
		return err
	}
	<-serverErr

	log.Info("server stopped cleanly")
	return nil
}
