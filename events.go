package main

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/AVVKavvk/plivo-ivr/logger"
	"github.com/AVVKavvk/plivo-ivr/models"
)

const hangupPath = "/hangup"

// EventSink accepts call events: the journal, the live monitor or the
// broker in front of both.
type EventSink interface {
	Publish(ctx context.Context, event models.CallEvent) error
}

// NamedSink labels a sink for logs and metrics.
type NamedSink struct {
	Name string
	Sink EventSink
}

// EventReader reads back the journal of one call.
type EventReader interface {
	GetAllEvents(ctx context.Context, callUUID string) ([]models.CallEvent, error)
}

// DefaultEventTimeout bounds how long a request waits for its event to be
// recorded.
const DefaultEventTimeout = 250 * time.Millisecond

// record stamps the event and hands it to every sink. Sink failures are
// logged and counted; they never change the response to the provider. The
// request waits at most EventTimeout; slower sinks finish in the background
// under the same deadline.
func (s *Server) record(ctx context.Context, event models.CallEvent) {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}

	timeout := s.EventTimeout
	if timeout <= 0 {
		timeout = DefaultEventTimeout
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)

	done := make(chan struct{})
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		defer cancel()
		defer close(done)
		s.publish(ctx, event)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		logger.Log.Warn("call event still recording after deadline",
			zap.String("call_uuid", event.CallUUID),
			zap.Duration("timeout", timeout),
		)
	}
}

// WaitEvents blocks until every event handed to record has left its sinks.
func (s *Server) WaitEvents() {
	s.pending.Wait()
}

func (s *Server) publish(ctx context.Context, event models.CallEvent) {
	for _, ns := range s.Sinks {
		if err := ns.Sink.Publish(ctx, event); err != nil {
			s.Metrics.EventFailures.WithLabelValues(ns.Name).Inc()
			logger.Log.Warn("call event not recorded",
				zap.String("sink", ns.Name),
				zap.String("call_uuid", event.CallUUID),
				zap.Error(err),
			)
		}
	}
}

// HandleHangup is the provider's hangup notification for calls placed by
// HandleOutboundCall.
func (s *Server) HandleHangup(c echo.Context) error {
	callUUID := c.FormValue("CallUUID")
	cause := c.FormValue("HangupCause")
	logger.Log.Info("hangup called",
		zap.String("call_uuid", callUUID),
		zap.String("cause", cause),
		zap.String("duration", c.FormValue("Duration")),
	)

	s.record(c.Request().Context(), models.CallEvent{
		CallUUID: callUUID,
		Kind:     models.KindHangup,
		Detail:   cause,
	})
	return c.NoContent(http.StatusOK)
}

type callEventsResponse struct {
	CallUUID string             `json:"callUuid"`
	Events   []models.CallEvent `json:"events"`
}

// HandleCallEvents returns the journaled events of one call.
func (s *Server) HandleCallEvents(c echo.Context) error {
	if s.Journal == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "event journal is not configured")
	}

	callUUID := c.Param("uuid")
	events, err := s.Journal.GetAllEvents(c.Request().Context(), callUUID)
	if err != nil {
		logger.Log.Error("reading call events", zap.String("call_uuid", callUUID), zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to read call events")
	}
	return c.JSON(http.StatusOK, callEventsResponse{CallUUID: callUUID, Events: events})
}

// fanOut delivers one event to several sinks, reporting the first failure.
// The broker consumer uses it to feed the journal and the monitor.
func fanOut(sinks []NamedSink) func(ctx context.Context, event models.CallEvent) error {
	return func(ctx context.Context, event models.CallEvent) error {
		var firstErr error
		for _, ns := range sinks {
			if err := ns.Sink.Publish(ctx, event); err != nil {
				logger.Log.Warn("call event not delivered",
					zap.String("sink", ns.Name),
					zap.String("call_uuid", event.CallUUID),
					zap.Error(err),
				)
				if firstErr == nil {
					firstErr = err
				}
			}
		}
		return firstErr
	}
}
