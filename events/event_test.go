package events

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRecorderAppendsEvents(t *testing.T) {
	r := &Recorder{}
	r.Emit(Event{Type: "arena.closed", Attributes: map[string]string{"address": "0xA1"}})
	r.Emit(Event{Type: "arena.finalized"})
	require.Len(t, r.Events, 2)
	require.Equal(t, "arena.closed", r.Events[0].Type)
}

func TestLoggingEmitterWritesStructuredLine(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	LoggingEmitter{Logger: logger}.Emit(Event{
		Type:       "arena.game_started",
		Attributes: map[string]string{"address": "0xA1"},
	})

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "arena event", line["msg"])
	require.Equal(t, "arena.game_started", line["event_type"])
	require.Equal(t, "0xA1", line["address"])
}
