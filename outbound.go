package main

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/AVVKavvk/plivo-ivr/ivr"
	"github.com/AVVKavvk/plivo-ivr/logger"
	"github.com/AVVKavvk/plivo-ivr/models"
	"github.com/AVVKavvk/plivo-ivr/provider"
)

// CallPlacer is the provider's call-control API.
type CallPlacer interface {
	CreateCall(ctx context.Context, req provider.CallRequest) (*provider.CallResponse, error)
	Hangup(ctx context.Context, callUUID string) error
}

var errProviderNotConfigured = errors.New("provider credentials are not configured")

// HandleOutboundCall dials the number in the "to" form field and points the
// call at the answer URL.
func (s *Server) HandleOutboundCall(c echo.Context) error {
	to := c.FormValue("to")
	if to == "" {
		return c.String(http.StatusBadRequest, "Missing destination number")
	}
	logger.Log.Info("outbound call api is triggered", zap.String("to", to))

	resp, err := s.createCall(c.Request().Context(), to)
	if err != nil {
		s.Metrics.OutboundCalls.WithLabelValues("error").Inc()
		logger.Log.Error("outbound call failed", zap.String("to", to), zap.Error(err))
		return c.String(http.StatusInternalServerError, "Error initiating call: "+err.Error())
	}

	s.Metrics.OutboundCalls.WithLabelValues("ok").Inc()
	s.record(c.Request().Context(), models.CallEvent{
		CallUUID: resp.RequestUUID,
		Kind:     models.KindOutbound,
		Detail:   to,
	})
	return c.String(http.StatusOK, "Call initiated. Request UUID: "+resp.RequestUUID)
}

func (s *Server) createCall(ctx context.Context, to string) (*provider.CallResponse, error) {
	if s.Caller == nil {
		return nil, errProviderNotConfigured
	}
	return s.Caller.CreateCall(ctx, provider.CallRequest{
		From:         s.From,
		To:           to,
		AnswerURL:    s.Menu.Routes.URL(ivr.AnswerPath),
		AnswerMethod: http.MethodPost,
		HangupURL:    s.Menu.Routes.URL(hangupPath),
		HangupMethod: http.MethodPost,
	})
}

// HandleEndCall hangs up a live call.
func (s *Server) HandleEndCall(c echo.Context) error {
	if s.Caller == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, errProviderNotConfigured.Error())
	}

	callUUID := c.Param("uuid")
	if err := s.Caller.Hangup(c.Request().Context(), callUUID); err != nil {
		logger.Log.Error("ending call failed", zap.String("call_uuid", callUUID), zap.Error(err))
		return echo.NewHTTPError(endCallStatus(err), err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

// endCallStatus passes an unknown call through as 404. Any other provider
// failure, auth included, is a 502.
func endCallStatus(err error) int {
	var apiErr *provider.APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
		return http.StatusNotFound
	}
	return http.StatusBadGateway
}
