// Package ivr is the call menu: a pure function from the current stage, the
// digits the caller entered and the session carried in the callback URL to
// the next set of provider directives.
//
// Language selection is its own callback. Topic selection and the resulting
// action share the action callback, keyed by the session language.
package ivr

import (
	"net/http"
	"strings"

	"github.com/AVVKavvk/plivo-ivr/callxml"
)

// Digit collection parameters shared by every stage.
const (
	NumDigits      = 1
	TimeoutSeconds = 7
	Retries        = 1
)

// Callback paths served by the HTTP layer.
const (
	AnswerPath   = "/answer"
	LanguagePath = "/ivr/language"
	ActionPath   = "/ivr/action"
)

// Outcome classifies a transition for logs, metrics and the event journal.
type Outcome string

const (
	OutcomePrompt   Outcome = "prompt"
	OutcomeSelected Outcome = "selected"
	OutcomeInvalid  Outcome = "invalid"
	OutcomePlay     Outcome = "play"
	OutcomeTransfer Outcome = "transfer"
)

// Routes builds absolute callback targets from the externally reachable base URL.
type Routes struct {
	BaseURL string
}

// URL joins path onto the base URL.
func (r Routes) URL(path string) string {
	return strings.TrimRight(r.BaseURL, "/") + path
}

// For returns the callback URL that collects input for stage.
func (r Routes) For(stage Stage, session Session) string {
	switch stage {
	case LanguageSelect:
		return r.URL(LanguagePath)
	default:
		return r.URL(ActionPath) + "?" + session.Query().Encode()
	}
}

// Result is the outcome of one transition.
type Result struct {
	// Stage handled the input.
	Stage Stage
	// Next is the stage whose callback the directives point to. It is
	// meaningless when Terminal is set.
	Next       Stage
	Terminal   bool
	Session    Session
	Outcome    Outcome
	Directives []callxml.Directive
}

// Menu holds the configuration the transitions need.
type Menu struct {
	Routes          Routes
	AudioURL        string
	AssociateNumber string
}

// Answer is the entry point of an inbound or outbound call.
func (m *Menu) Answer() Result {
	return Result{
		Stage:   LanguageSelect,
		Next:    LanguageSelect,
		Outcome: OutcomePrompt,
		Directives: []callxml.Directive{
			m.collect(LanguageSelect, Session{}, welcomePrompt),
			callxml.Speak{Text: noInputGoodbye},
		},
	}
}

// SelectLanguage handles the digit entered at the language menu.
func (m *Menu) SelectLanguage(digits string) Result {
	var session Session
	switch strings.TrimSpace(digits) {
	case "1":
		session.Lang = English
	case "2":
		session.Lang = Spanish
	default:
		return Result{
			Stage:   LanguageSelect,
			Next:    LanguageSelect,
			Outcome: OutcomeInvalid,
			Directives: []callxml.Directive{
				m.collect(LanguageSelect, session, languageRetry),
				callxml.Speak{Text: retryGoodbye},
			},
		}
	}

	return Result{
		Stage:   LanguageSelect,
		Next:    TopicSelect,
		Session: session,
		Outcome: OutcomeSelected,
		Directives: []callxml.Directive{
			m.collect(TopicSelect, session, textsFor(session.Lang).topicMenu),
			callxml.Speak{Text: noInputGoodbye},
		},
	}
}

// Dispatch handles the digit entered at the topic menu of session's language.
func (m *Menu) Dispatch(session Session, digits string) Result {
	session.Lang = ParseLang(string(session.Lang))
	t := textsFor(session.Lang)

	switch strings.TrimSpace(digits) {
	case "1":
		return Result{
			Stage:    ActionDispatch,
			Terminal: true,
			Session:  session,
			Outcome:  OutcomePlay,
			Directives: []callxml.Directive{
				callxml.Speak{Text: t.playing},
				callxml.Play{URL: m.AudioURL},
				callxml.Speak{Text: t.farewell},
				callxml.Hangup{},
			},
		}
	case "2":
		// The provider ends the call once the bridge completes.
		return Result{
			Stage:    ActionDispatch,
			Terminal: true,
			Session:  session,
			Outcome:  OutcomeTransfer,
			Directives: []callxml.Directive{
				callxml.Speak{Text: t.connecting},
				callxml.Dial{Number: m.AssociateNumber},
			},
		}
	}

	return Result{
		Stage:   ActionDispatch,
		Next:    ActionDispatch,
		Session: session,
		Outcome: OutcomeInvalid,
		Directives: []callxml.Directive{
			m.collect(ActionDispatch, session, t.topicRetry),
			callxml.Speak{Text: retryGoodbye},
		},
	}
}

// Step runs the transition for stage. TopicSelect and ActionDispatch both
// consume the topic menu digit; the Result reports the stage it was given.
func (m *Menu) Step(stage Stage, session Session, digits string) Result {
	if stage == LanguageSelect {
		return m.SelectLanguage(digits)
	}
	r := m.Dispatch(session, digits)
	if stage == TopicSelect {
		r.Stage = TopicSelect
		if !r.Terminal {
			r.Next = TopicSelect
		}
	}
	return r
}

func (m *Menu) collect(stage Stage, session Session, prompt string) callxml.GetDigits {
	return callxml.GetDigits{
		Action:    m.Routes.For(stage, session),
		Method:    http.MethodPost,
		NumDigits: NumDigits,
		Timeout:   TimeoutSeconds,
		Retries:   Retries,
		Prompt:    callxml.Speak{Text: prompt},
	}
}
