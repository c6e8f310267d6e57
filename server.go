package main

import (
	_ "embed"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/AVVKavvk/plivo-ivr/ivr"
	"github.com/AVVKavvk/plivo-ivr/logger"
	"github.com/AVVKavvk/plivo-ivr/metrics"
	"github.com/AVVKavvk/plivo-ivr/monitor"
)

//go:embed static/index.html
var indexHTML []byte

// Server holds the dependencies of the HTTP handlers. Caller, Journal and
// Hub may be nil; the routes that need them answer 5xx instead.
type Server struct {
	Menu    *ivr.Menu
	Caller  CallPlacer
	From    string
	Sinks   []NamedSink
	Journal EventReader
	Hub     *monitor.Hub
	Metrics *metrics.Metrics

	// EventTimeout defaults to DefaultEventTimeout.
	EventTimeout time.Duration

	pending sync.WaitGroup
}

// Echo builds the router with every route and middleware.
func (s *Server) Echo() *echo.Echo {
	if s.Metrics == nil {
		s.Metrics = metrics.New()
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("request_id", v.RequestID),
			}
			if v.Error != nil {
				logger.Log.Error("request", append(fields, zap.Error(v.Error))...)
				return nil
			}
			logger.Log.Info("request", fields...)
			return nil
		},
	}))

	e.GET("/", s.HandleIndex)
	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(s.Metrics.Registry, promhttp.HandlerOpts{})))

	// 1. Trigger and end outbound calls
	e.POST("/call", s.HandleOutboundCall)
	e.DELETE("/call/:uuid", s.HandleEndCall)

	// 2. Menu callbacks; the provider fetches these and gets XML back
	e.GET(ivr.AnswerPath, s.HandleAnswer)
	e.POST(ivr.AnswerPath, s.HandleAnswer)
	e.POST(ivr.LanguagePath, s.HandleLanguage)
	e.POST(ivr.ActionPath, s.HandleAction)
	e.POST(hangupPath, s.HandleHangup)

	// 3. Call event journal and live feed
	e.GET("/calls/:uuid/events", s.HandleCallEvents)
	e.GET("/monitor", s.HandleMonitor)

	return e
}

func (s *Server) HandleIndex(c echo.Context) error {
	return c.HTMLBlob(http.StatusOK, indexHTML)
}

func (s *Server) HandleMonitor(c echo.Context) error {
	if s.Hub == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "live monitor is not running")
	}
	return s.Hub.ServeWS(c)
}
