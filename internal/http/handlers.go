package httpx

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	dbpkg "langbench/internal/db"
	"langbench/internal/metrics"
	"langbench/internal/model"
	"langbench/internal/telemetry"
)

const readyTimeout = 3 * time.Second

// Pool is what the server borrows connections from. *pgxpool.Pool
// satisfies it.
type Pool interface {
	dbpkg.Querier
	dbpkg.Pinger
}

type Options struct {
	Log        *logrus.Entry
	Metrics    *metrics.Metrics
	CORSOrigin string
}

type Server struct {
	R       *gin.Engine
	DB      Pool
	Log     *logrus.Entry
	Metrics *metrics.Metrics
	Now     func() time.Time
}

func NewServer(db Pool, opts Options) *Server {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	s := &Server{
		R:       r,
		DB:      db,
		Log:     opts.Log,
		Metrics: opts.Metrics,
		Now:     time.Now,
	}
	if s.Log == nil {
		s.Log = logrus.NewEntry(logrus.StandardLogger())
	}
	if s.Metrics == nil {
		s.Metrics = metrics.NewDefault()
	}

	r.Use(gin.Recovery(), RequestID(), AccessLog(s.Log, s.Now), Instrument(s.Metrics, s.Now))
	r.Use(cors.New(corsConfig(opts.CORSOrigin)))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true, "time": s.Now().UTC()})
	})
	r.GET("/ready", s.ready)
	r.GET("/metrics", gin.WrapH(s.Metrics.Handler()))

	api := r.Group("/api")
	{
		api.GET("/test1", s.listRecords)
	}

	return s
}

func (s *Server) listRecords(c *gin.Context) {
	start := s.Now()
	records, err := dbpkg.HighRecords(c.Request.Context(), s.DB)
	elapsed := s.Now().Sub(start)

	log := requestLog(c, s.Log)
	s.Metrics.ObserveQuery(elapsed, err)
	log.WithField("duration", elapsed.String()).Info("query duration")

	c.JSON(http.StatusOK, recordsResponse(log, records, err))
}

// recordsResponse maps a query outcome to the response body. A failed
// query is logged and reported, and the client gets an empty list: callers
// cannot tell a database error from "no rows".
func recordsResponse(log *logrus.Entry, records []model.Record, err error) []model.Record {
	if err != nil {
		log.WithError(err).Error("records query failed")
		telemetry.CaptureError(err, map[string]string{"route": "/api/test1"})
		return []model.Record{}
	}
	if records == nil {
		return []model.Record{}
	}
	return records
}

func (s *Server) ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), readyTimeout)
	defer cancel()

	if err := s.DB.Ping(ctx); err != nil {
		requestLog(c, s.Log).WithError(err).Warn("readiness ping failed")
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "checks": gin.H{"db": "error"}})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "checks": gin.H{"db": "ok"}})
}
