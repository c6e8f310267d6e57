package models

import (
	"encoding/json"
	"time"
)

// CallEvent is one journaled step of a call: a menu transition, an outbound
// trigger or the provider's hangup notification.
type CallEvent struct {
	ID       string    `json:"id"`
	CallUUID string    `json:"callUuid"`
	Kind     string    `json:"kind"`
	Stage    string    `json:"stage,omitempty"`
	Digits   string    `json:"digits,omitempty"`
	Lang     string    `json:"lang,omitempty"`
	Outcome  string    `json:"outcome,omitempty"`
	Detail   string    `json:"detail,omitempty"`
	At       time.Time `json:"at"`
}

// Event kinds.
const (
	KindTransition = "transition"
	KindOutbound   = "outbound"
	KindHangup     = "hangup"
)

func (e *CallEvent) MarshalBinary() ([]byte, error) {
	return json.Marshal(e)
}

func (e *CallEvent) UnmarshalBinary(data []byte) error {
	return json.Unmarshal(data, e)
}
