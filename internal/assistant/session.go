// Package assistant implements the chat assistant's command interpreter:
// utterances are normalized, classified into intents by ordered rules and
// resolved against the record store, with a single pending choice list
// carried between turns of a session.
package assistant

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"oyz-trade/internal/common/logger"
	"oyz-trade/internal/common/metrics"
)

// Host performs the side effects of an outcome in the calling application.
type Host interface {
	Navigate(route string)
	CloseDialog()
	OpenCreationDialog(req CreationRequest)
}

// Interpreter holds the stateless parts shared by every session.
type Interpreter struct {
	matcher  *Matcher
	resolver *Resolver
	logger   logger.Logger
	tracer   trace.Tracer
}

func NewInterpreter(store RecordStore, opts Options, log logger.Logger) *Interpreter {
	return &Interpreter{
		matcher:  DefaultMatcher(),
		resolver: NewResolver(store, opts, log),
		logger:   log,
		tracer:   otel.Tracer("oyz-trade/assistant"),
	}
}

// WithMatcher replaces the rule set.
func (in *Interpreter) WithMatcher(m *Matcher) *Interpreter {
	in.matcher = m
	return in
}

// NewSession starts a conversation. host may be nil when the caller applies
// outcomes itself.
func (in *Interpreter) NewSession(conversationID string, host Host) *Session {
	return &Session{
		id:     conversationID,
		interp: in,
		host:   host,
		logger: in.logger.WithFields(map[string]interface{}{"conversationId": conversationID}),
	}
}

// Session is one conversation. Turns must not run concurrently on the same
// session.
type Session struct {
	id      string
	interp  *Interpreter
	host    Host
	pending PendingSelection
	logger  logger.Logger
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) HasPendingSelection() bool {
	return !s.pending.Empty()
}

// Pending returns a copy of the pending selection for persistence.
func (s *Session) Pending() PendingSelection {
	var p PendingSelection
	if !s.pending.Empty() {
		p.Set(s.pending.Candidates, s.pending.Purpose)
	}
	return p
}

// Restore replaces the pending selection with a persisted one.
func (s *Session) Restore(p PendingSelection) {
	if p.Empty() {
		s.pending.Clear()
		return
	}
	s.pending.Set(p.Candidates, p.Purpose)
}

// HandleTurn interprets one utterance. Every turn other than a numeric
// selection discards the pending selection before it is resolved.
func (s *Session) HandleTurn(ctx context.Context, text string) Outcome {
	ctx, span := s.interp.tracer.Start(ctx, "assistant.turn",
		trace.WithAttributes(attribute.String("conversation.id", s.id)))
	defer span.End()

	u := Normalize(text)
	intent := s.interp.matcher.Classify(u, s.HasPendingSelection())
	if intent.Kind != IntentNumericSelection {
		s.pending.Clear()
	}

	outcome := s.interp.resolver.Resolve(ctx, intent, &s.pending)
	s.apply(outcome)

	span.SetAttributes(
		attribute.String("intent", string(intent.Kind)),
		attribute.String("outcome", string(outcome.Kind)),
		attribute.String("status", string(outcome.Status)),
	)
	metrics.AssistantTurns.WithLabelValues(string(intent.Kind), string(outcome.Kind)).Inc()

	s.logger.Info("turn handled", map[string]interface{}{
		"intent":     string(intent.Kind),
		"outcome":    string(outcome.Kind),
		"status":     string(outcome.Status),
		"hasPending": s.HasPendingSelection(),
	})

	return outcome
}

func (s *Session) apply(o Outcome) {
	if s.host == nil {
		return
	}
	switch o.Kind {
	case OutcomeNavigated:
		s.host.CloseDialog()
		s.host.Navigate(o.Route)
	case OutcomeNeedsCreation:
		if o.Creation != nil {
			s.host.OpenCreationDialog(*o.Creation)
		}
	}
}
