package ivr

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AVVKavvk/plivo-ivr/callxml"
)

const (
	testBase      = "https://ivr.example.com/"
	testAudio     = "https://cdn.example.com/message.mp3"
	testAssociate = "+15550001111"
)

func newTestMenu() *Menu {
	return &Menu{
		Routes:          Routes{BaseURL: testBase},
		AudioURL:        testAudio,
		AssociateNumber: testAssociate,
	}
}

func collectOf(t *testing.T, r Result) callxml.GetDigits {
	t.Helper()
	require.Len(t, r.Directives, 2)
	gd, ok := r.Directives[0].(callxml.GetDigits)
	require.True(t, ok, "first directive is %T", r.Directives[0])
	return gd
}

func assertCollectParams(t *testing.T, gd callxml.GetDigits) {
	t.Helper()
	assert.Equal(t, "POST", gd.Method)
	assert.Equal(t, 1, gd.NumDigits)
	assert.Equal(t, 7, gd.Timeout)
	assert.Equal(t, 1, gd.Retries)
}

func TestAnswer(t *testing.T) {
	r := newTestMenu().Answer()

	gd := collectOf(t, r)
	assertCollectParams(t, gd)
	assert.Equal(t, "https://ivr.example.com/ivr/language", gd.Action)
	assert.Equal(t, welcomePrompt, gd.Prompt.Text)
	assert.Equal(t, callxml.Speak{Text: "No input received. Goodbye."}, r.Directives[1])
	assert.Equal(t, OutcomePrompt, r.Outcome)
	assert.Equal(t, LanguageSelect, r.Next)
}

func TestSelectLanguage(t *testing.T) {
	tests := []struct {
		name       string
		digits     string
		wantNext   Stage
		wantAction string
		wantPrompt string
		wantTail   string
		wantLang   Lang
		outcome    Outcome
	}{
		{
			name:       "english",
			digits:     "1",
			wantNext:   TopicSelect,
			wantAction: "https://ivr.example.com/ivr/action?lang=en",
			wantPrompt: "You selected English. Press 1 to hear a short audio message. Press 2 to connect to an associate.",
			wantTail:   "No input received. Goodbye.",
			wantLang:   English,
			outcome:    OutcomeSelected,
		},
		{
			name:       "spanish",
			digits:     "2",
			wantNext:   TopicSelect,
			wantAction: "https://ivr.example.com/ivr/action?lang=es",
			wantPrompt: "Has elegido español. Presione 1 para escuchar un breve mensaje. Presione 2 para ser conectado con un asociado.",
			wantTail:   "No input received. Goodbye.",
			wantLang:   Spanish,
			outcome:    OutcomeSelected,
		},
		{
			name:       "invalid digit",
			digits:     "9",
			wantNext:   LanguageSelect,
			wantAction: "https://ivr.example.com/ivr/language",
			wantPrompt: "Invalid option. For English press 1. Para español oprima 2.",
			wantTail:   "Goodbye.",
			outcome:    OutcomeInvalid,
		},
		{
			name:       "no input",
			digits:     "",
			wantNext:   LanguageSelect,
			wantAction: "https://ivr.example.com/ivr/language",
			wantPrompt: "Invalid option. For English press 1. Para español oprima 2.",
			wantTail:   "Goodbye.",
			outcome:    OutcomeInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestMenu().SelectLanguage(tt.digits)

			gd := collectOf(t, r)
			assertCollectParams(t, gd)
			assert.Equal(t, LanguageSelect, r.Stage)
			assert.Equal(t, tt.wantNext, r.Next)
			assert.False(t, r.Terminal)
			assert.Equal(t, tt.wantAction, gd.Action)
			assert.Equal(t, tt.wantPrompt, gd.Prompt.Text)
			assert.Equal(t, callxml.Speak{Text: tt.wantTail}, r.Directives[1])
			assert.Equal(t, tt.wantLang, r.Session.Lang)
			assert.Equal(t, tt.outcome, r.Outcome)
		})
	}
}

func TestDispatchPlay(t *testing.T) {
	r := newTestMenu().Dispatch(Session{Lang: Spanish}, "1")

	assert.True(t, r.Terminal)
	assert.Equal(t, OutcomePlay, r.Outcome)
	assert.Equal(t, []callxml.Directive{
		callxml.Speak{Text: "Reproduciendo mensaje..."},
		callxml.Play{URL: testAudio},
		callxml.Speak{Text: "Adiós."},
		callxml.Hangup{},
	}, r.Directives)
}

func TestDispatchTransfer(t *testing.T) {
	r := newTestMenu().Dispatch(Session{Lang: English}, "2")

	assert.True(t, r.Terminal)
	assert.Equal(t, OutcomeTransfer, r.Outcome)
	assert.Equal(t, []callxml.Directive{
		callxml.Speak{Text: "Connecting you to an associate."},
		callxml.Dial{Number: testAssociate},
	}, r.Directives)
	for _, d := range r.Directives {
		assert.NotEqual(t, callxml.Hangup{}, d)
	}
}

func TestDispatchInvalid(t *testing.T) {
	tests := []struct {
		name       string
		session    Session
		digits     string
		wantAction string
		wantPrompt string
	}{
		{
			name:       "english nine",
			session:    Session{Lang: English},
			digits:     "9",
			wantAction: "https://ivr.example.com/ivr/action?lang=en",
			wantPrompt: "Invalid option. Press 1 to hear a message, or press 2 to speak to an associate.",
		},
		{
			name:       "spanish empty",
			session:    Session{Lang: Spanish},
			digits:     "",
			wantAction: "https://ivr.example.com/ivr/action?lang=es",
			wantPrompt: "Opción inválida. Presione 1 para escuchar un mensaje o presione 2 para hablar con un asociado.",
		},
		{
			name:       "unknown language falls back to english",
			session:    Session{Lang: "fr"},
			digits:     "*",
			wantAction: "https://ivr.example.com/ivr/action?lang=en",
			wantPrompt: "Invalid option. Press 1 to hear a message, or press 2 to speak to an associate.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestMenu().Dispatch(tt.session, tt.digits)

			gd := collectOf(t, r)
			assertCollectParams(t, gd)
			assert.Equal(t, ActionDispatch, r.Next)
			assert.False(t, r.Terminal)
			assert.Equal(t, OutcomeInvalid, r.Outcome)
			assert.Equal(t, tt.wantAction, gd.Action)
			assert.Equal(t, tt.wantPrompt, gd.Prompt.Text)
			assert.Equal(t, callxml.Speak{Text: "Goodbye."}, r.Directives[1])
		})
	}
}

func TestStepRoutesByStage(t *testing.T) {
	m := newTestMenu()
	assert.Equal(t, m.SelectLanguage("1"), m.Step(LanguageSelect, Session{}, "1"))
	assert.Equal(t, m.Dispatch(Session{Lang: English}, "1"), m.Step(ActionDispatch, Session{Lang: English}, "1"))
}

func TestStepReportsTopicStage(t *testing.T) {
	m := newTestMenu()
	es := Session{Lang: Spanish}

	transfer := m.Step(TopicSelect, es, "2")
	assert.Equal(t, TopicSelect, transfer.Stage)
	assert.True(t, transfer.Terminal)
	assert.Equal(t, OutcomeTransfer, transfer.Outcome)
	assert.Equal(t, m.Dispatch(es, "2").Directives, transfer.Directives)

	retry := m.Step(TopicSelect, es, "9")
	assert.Equal(t, TopicSelect, retry.Stage)
	assert.Equal(t, TopicSelect, retry.Next)
	assert.Equal(t, OutcomeInvalid, retry.Outcome)
	assert.Equal(t, m.Dispatch(es, "9").Directives, retry.Directives)

	assert.Equal(t, ActionDispatch, m.Step(ActionDispatch, es, "9").Stage)
}

func TestSessionQueryRoundTrip(t *testing.T) {
	for _, lang := range []Lang{English, Spanish} {
		s := Session{Lang: lang}
		assert.Equal(t, s, SessionFromQuery(s.Query()))
	}
	assert.Equal(t, Session{Lang: English}, SessionFromQuery(url.Values{}))
	assert.Equal(t, "lang=en", Session{}.Query().Encode())
}

func TestParseLang(t *testing.T) {
	assert.Equal(t, Spanish, ParseLang("es"))
	assert.Equal(t, Spanish, ParseLang(" ES "))
	assert.Equal(t, English, ParseLang("en"))
	assert.Equal(t, English, ParseLang(""))
	assert.Equal(t, English, ParseLang("de"))
}

func TestStageString(t *testing.T) {
	assert.Equal(t, "language_select", LanguageSelect.String())
	assert.Equal(t, "topic_select", TopicSelect.String())
	assert.Equal(t, "action_dispatch", ActionDispatch.String())
	assert.Equal(t, "unknown", Stage(0).String())
}

func TestRoutes(t *testing.T) {
	r := Routes{BaseURL: "https://abc.ngrok.io/"}
	assert.Equal(t, "https://abc.ngrok.io/answer", r.URL(AnswerPath))
	assert.Equal(t, "https://abc.ngrok.io/ivr/language", r.For(LanguageSelect, Session{Lang: Spanish}))
	assert.Equal(t, "https://abc.ngrok.io/ivr/action?lang=es", r.For(TopicSelect, Session{Lang: Spanish}))
	assert.Equal(t, "https://abc.ngrok.io/ivr/action?lang=en", r.For(ActionDispatch, Session{}))
}
