package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCallEventBinary(t *testing.T) {
	in := &CallEvent{
		ID:       "evt-1",
		CallUUID: "call-1",
		Kind:     KindTransition,
		Stage:    "language_select",
		Digits:   "2",
		Lang:     "es",
		Outcome:  "selected",
		At:       time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC),
	}

	data, err := in.MarshalBinary()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"callUuid":"call-1"`)
	assert.NotContains(t, string(data), "detail")

	var out CallEvent
	require.NoError(t, out.UnmarshalBinary(data))
	assert.Equal(t, *in, out)
}
