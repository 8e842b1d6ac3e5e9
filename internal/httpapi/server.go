// Package httpapi exposes the schedule repository over HTTP.
package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/crystaldolphin/cronkeeper/internal/cron"
	"github.com/crystaldolphin/cronkeeper/internal/crontab"
)

const shutdownTimeout = 5 * time.Second

// Scheduler is the repository the API serves.
type Scheduler interface {
	Add(ctx context.Context, entry crontab.ScheduleEntry) error
	List(ctx context.Context, managedOnly bool) ([]crontab.ScheduleEntry, error)
	Remove(ctx context.Context, req cron.RemoveRequest) (cron.RemoveResult, error)
}

// Normalizer turns a schedule expression into a cron schedule.
type Normalizer interface {
	Normalize(expression string) (string, error)
}

// Options configures a Server.
type Options struct {
	// ManagedOnly restricts GET /schedules to cronkeeper's own entries.
	ManagedOnly bool
	// Transport is one of config.TransportStdio, TransportEventStream, TransportWebSocket.
	Transport string
}

// Server is the cronkeeper HTTP API.
type Server struct {
	repo   Scheduler
	parser Normalizer
	opts   Options
	log    *slog.Logger
	echo   *echo.Echo
}

// New builds the API and registers its routes.
func New(repo Scheduler, parser Normalizer, opts Options, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = newRequestValidator()
	e.Server.ReadHeaderTimeout = 10 * time.Second

	s := &Server{repo: repo, parser: parser, opts: opts, log: log, echo: e}

	e.Use(middleware.Recover())
	e.Use(s.accessLog())

	e.GET("/healthz", s.health)
	e.POST("/schedule", s.createSchedule)
	e.GET("/schedules", s.listSchedules)
	e.DELETE("/schedule", s.deleteSchedule)

	return s
}

// Handler returns the HTTP handler serving the API.
func (s *Server) Handler() http.Handler { return s.echo }

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.log.Info("http: listening", "addr", addr)
		if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.log.Info("http: shutting down")
		return s.echo.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func (s *Server) accessLog() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
				"remote_ip", c.RealIP(),
			}
			if v.Error != nil {
				s.log.Warn("http: request failed", append(attrs, "err", v.Error)...)
				return nil
			}
			s.log.Info("http: request", attrs...)
			return nil
		},
	})
}
