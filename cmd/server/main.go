package main

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"time"

	"github.com/sirupsen/logrus"

	"langbench/internal/config"
	dbpkg "langbench/internal/db"
	httpx "langbench/internal/http"
	"langbench/internal/logging"
	"langbench/internal/metrics"
	"langbench/internal/shutdown"
	"langbench/internal/telemetry"
)

const service = "records-api"

func main() {
	boot := bootLogger(os.Getenv("ENV_FILE"), os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		boot.WithError(err).Error("server exited")
		stop()
		os.Exit(1)
	}
}

// bootLogger loads the env file first so LOG_LEVEL may come from it.
func bootLogger(envFile string, out io.Writer) *logrus.Entry {
	envErr := config.LoadEnvFile(envFile)
	log := logging.NewWithOutput(service, os.Getenv("LOG_LEVEL"), out)
	if envErr != nil {
		log.WithError(envErr).Warn(".env file not loaded, using process environment")
	}
	return log
}

// run returns once ctx is cancelled and in-flight requests have drained, or
// as soon as a startup step fails. Nothing is bound before the
// configuration and the database check out.
func run(ctx context.Context, args []string, out io.Writer) error {
	cfg, err := config.Load(args)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	log := logging.NewWithOutput(service, cfg.LogLevel, out)

	runtime.GOMAXPROCS(cfg.Workers)

	if on, err := telemetry.Init(cfg.SentryDSN, service, os.Getenv("APP_ENV")); err != nil {
		log.WithError(err).Warn("error reporting disabled")
	} else if on {
		defer telemetry.Flush()
	}

	pool, err := dbpkg.Connect(ctx, cfg.DSN(), config.MaxConns)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer pool.Close()
	log.WithFields(logrus.Fields{
		"host":      cfg.DBHost,
		"database":  cfg.DBName,
		"max_conns": config.MaxConns,
	}).Info("database connected")

	ln, err := net.Listen("tcp", cfg.Addr())
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.Addr(), err)
	}

	srv := httpx.NewServer(pool, httpx.Options{
		Log:        log,
		Metrics:    metrics.NewDefault(),
		CORSOrigin: cfg.CORSOrigin,
	})
	httpSrv := &http.Server{
		Handler:           srv.R,
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.WithField("workers", cfg.Workers).Info("listening")
	return shutdown.Serve(ctx, httpSrv, ln, cfg.DrainTimeout, log)
}
