// Package events defines the structured event envelope emitted by state
// transitions across the orchestrator, and the Emitter collaborator that
// broadcasts them to downstream subscribers (logs, indexers, webhooks).
package events

import "log/slog"

// Event is a typed event with a flat string-keyed attribute payload, emitted
// for arena state transitions (see native/arena/events.go).
type Event struct {
	Type       string
	Attributes map[string]string
}

// Emitter broadcasts events to downstream subscribers.
type Emitter interface {
	Emit(Event)
}

// NoopEmitter discards all events. It is the default collaborator for
// components constructed without an explicit emitter.
type NoopEmitter struct{}

// Emit implements Emitter.
func (NoopEmitter) Emit(Event) {}

// Recorder is an in-memory Emitter used by tests to assert on the event
// stream a transition produced.
type Recorder struct {
	Events []Event
}

func (r *Recorder) Emit(e Event) { r.Events = append(r.Events, e) }

// LoggingEmitter emits each event as a structured log line, the default
// downstream subscriber for a running daemon that has no indexer or webhook
// sink configured.
type LoggingEmitter struct {
	Logger *slog.Logger
}

// Emit implements Emitter.
func (l LoggingEmitter) Emit(e Event) {
	args := make([]any, 0, len(e.Attributes)*2+2)
	args = append(args, "event_type", e.Type)
	for k, v := range e.Attributes {
		args = append(args, k, v)
	}
	l.Logger.Info("arena event", args...)
}
