package main

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/AVVKavvk/plivo-ivr/callxml"
	"github.com/AVVKavvk/plivo-ivr/ivr"
	"github.com/AVVKavvk/plivo-ivr/logger"
	"github.com/AVVKavvk/plivo-ivr/models"
)

// HandleAnswer is the answer URL of every call: it starts the language menu.
func (s *Server) HandleAnswer(c echo.Context) error {
	logger.Log.Info("call answered",
		zap.String("call_uuid", c.FormValue("CallUUID")),
		zap.String("from", c.FormValue("From")),
		zap.String("to", c.FormValue("To")),
	)
	return s.respond(c, s.Menu.Answer())
}

// HandleLanguage receives the digit pressed at the language menu.
func (s *Server) HandleLanguage(c echo.Context) error {
	return s.respond(c, s.Menu.Step(ivr.LanguageSelect, ivr.Session{}, c.FormValue("Digits")))
}

// HandleAction receives the digit pressed at the topic menu. The session
// language comes from the callback URL.
func (s *Server) HandleAction(c echo.Context) error {
	session := ivr.SessionFromQuery(c.QueryParams())
	return s.respond(c, s.Menu.Step(ivr.ActionDispatch, session, c.FormValue("Digits")))
}

func (s *Server) respond(c echo.Context, r ivr.Result) error {
	doc, err := callxml.Render(r.Directives...)
	if err != nil {
		return err
	}

	callUUID := c.FormValue("CallUUID")
	digits := c.FormValue("Digits")
	logger.Log.Info("ivr transition",
		zap.String("call_uuid", callUUID),
		zap.Stringer("stage", r.Stage),
		zap.String("digits", digits),
		zap.String("lang", string(r.Session.Lang)),
		zap.String("outcome", string(r.Outcome)),
		zap.Bool("terminal", r.Terminal),
	)
	s.Metrics.Transitions.WithLabelValues(r.Stage.String(), string(r.Outcome)).Inc()
	s.record(c.Request().Context(), models.CallEvent{
		CallUUID: callUUID,
		Kind:     models.KindTransition,
		Stage:    r.Stage.String(),
		Digits:   digits,
		Lang:     string(r.Session.Lang),
		Outcome:  string(r.Outcome),
	})

	return c.Blob(http.StatusOK, callxml.ContentType, doc)
}
