package ivr

import (
	"net/url"
	"strings"
)

// Stage names a decision point of the menu tree.
type Stage int

const (
	LanguageSelect Stage = iota + 1
	TopicSelect
	ActionDispatch
)

func (s Stage) String() string {
	switch s {
	case LanguageSelect:
		return "language_select"
	case TopicSelect:
		return "topic_select"
	case ActionDispatch:
		return "action_dispatch"
	default:
		return "unknown"
	}
}

// Lang is the caller's menu language.
type Lang string

const (
	English Lang = "en"
	Spanish Lang = "es"
)

// ParseLang maps a raw query value to a supported language. Anything that
// is not Spanish falls back to English.
func ParseLang(raw string) Lang {
	if Lang(strings.ToLower(strings.TrimSpace(raw))) == Spanish {
		return Spanish
	}
	return English
}

// langParam is the query parameter that carries the session between callbacks.
const langParam = "lang"

// Session is everything the menu remembers between two callbacks. It lives
// only in the callback URL.
type Session struct {
	Lang Lang
}

// SessionFromQuery decodes a session from callback query parameters.
func SessionFromQuery(q url.Values) Session {
	return Session{Lang: ParseLang(q.Get(langParam))}
}

// Query encodes the session for a callback URL.
func (s Session) Query() url.Values {
	lang := s.Lang
	if lang == "" {
		lang = English
	}
	return url.Values{langParam: []string{string(lang)}}
}
