package session

import (
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

// ProgressEvent is the {pct, label} event the spec's external
// interface requires between stages.
type ProgressEvent struct {
	SessionID string  `json:"sessionID"`
	Pct       float64 `json:"pct"`
	Label     string  `json:"label"`
}

// ErrorEvent is the {message} event reported the first (and only)
// time a stage fails; the worker-style wrapper aborts the remainder of
// the pipeline after sending it.
type ErrorEvent struct {
	SessionID string `json:"sessionID"`
	Message   string `json:"message"`
}

// EventPublisher pushes progress and error events out of the worker
// boundary. The subject layout mirrors the event_listener.go command
// side: one subject per event kind, JSON payload, session ID carried
// in the body rather than the subject so a single subscriber can
// follow every session at once.
type EventPublisher struct {
	nc *nats.Conn
}

const (
	progressSubject = "planetgen.progress"
	errorSubject    = "planetgen.error"
)

// NewEventPublisher wraps an established NATS connection.
func NewEventPublisher(nc *nats.Conn) *EventPublisher {
	return &EventPublisher{nc: nc}
}

// Progress publishes a ProgressEvent. Suitable as a session.ProgressFunc:
// session.WithProgress(pub.Progress(sessionID)).
func (p *EventPublisher) Progress(sessionID string) ProgressFunc {
	return func(pct float64, label string) {
		data, err := json.Marshal(ProgressEvent{SessionID: sessionID, Pct: pct, Label: label})
		if err != nil {
			log.Error().Err(err).Msg("planetgen: marshal progress event")
			return
		}
		if err := p.nc.Publish(progressSubject, data); err != nil {
			log.Error().Err(err).Msg("planetgen: publish progress event")
		}
	}
}

// Error publishes a single ErrorEvent for sessionID.
func (p *EventPublisher) Error(sessionID string, err error) {
	data, marshalErr := json.Marshal(ErrorEvent{SessionID: sessionID, Message: err.Error()})
	if marshalErr != nil {
		log.Error().Err(marshalErr).Msg("planetgen: marshal error event")
		return
	}
	if pubErr := p.nc.Publish(errorSubject, data); pubErr != nil {
		log.Error().Err(pubErr).Msg("planetgen: publish error event")
	}
}

// Subscribe wires a handler for every published progress event, the
// analog of event_listener.go's EventListener.ListenForMove subscriber
// loop, here used by a status dashboard rather than another game
// server instance.
func (p *EventPublisher) Subscribe(handler func(ProgressEvent)) error {
	_, err := p.nc.Subscribe(progressSubject, func(msg *nats.Msg) {
		var evt ProgressEvent
		if err := json.Unmarshal(msg.Data, &evt); err != nil {
			log.Error().Err(err).Msg("planetgen: unmarshal progress event")
			return
		}
		handler(evt)
	})
	if err != nil {
		return fmt.Errorf("session: subscribe progress: %w", err)
	}
	return nil
}
