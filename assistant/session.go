package assistant

import (
	"context"

	"github.com/careplus-labs/voice-relay/conversation"
	"github.com/careplus-labs/voice-relay/interfaces"
	"github.com/careplus-labs/voice-relay/llm"
	"github.com/careplus-labs/voice-relay/log"
	"github.com/careplus-labs/voice-relay/policy"
	"github.com/careplus-labs/voice-relay/shape"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// transcriptQueueSize bounds how many finalized transcripts can wait while
// a prior turn is still in flight. Overflow is dropped and logged.
const transcriptQueueSize = 16

// Emitter delivers session events back to the connected client, in order.
type Emitter interface {
	EmitReady() error
	EmitTranscription(text string) error
	EmitGreeting(text string) error
	EmitLLMText(text string) error
	EmitAudio(chunk []byte) error
	EmitTTSComplete() error
}

// phase is the orchestrator's per-session state machine. The transition
// out of awaitingFirstUtterance fires exactly once.
type phase int

const (
	awaitingFirstUtterance phase = iota
	steadyState
)

// Deps are the collaborators one session runs against. Store may be nil.
type Deps struct {
	Completer   interfaces.Completer
	Synthesizer interfaces.Synthesizer
	Emitter     Emitter
	Store       interfaces.TranscriptStore
	Shaper      *shape.Shaper
	// SystemPrompt seeds turn 0 of the conversation.
	SystemPrompt string
	// Greeting is spoken on the first finalized transcript.
	Greeting string
}

// Session owns one conversation. Finalized transcripts are queued and
// consumed by a single goroutine so conversation state mutates strictly
// in order; audio forwarding never waits on turn processing.
type Session struct {
	ID string

	deps        Deps
	state       *conversation.State
	phase       phase
	transcripts chan string
	logger      *zap.Logger
}

// NewSession creates a session in the awaiting-first-utterance phase.
func NewSession(deps Deps) *Session {
	id := uuid.New().String()
	return &Session{
		ID:          id,
		deps:        deps,
		state:       conversation.New(deps.SystemPrompt),
		phase:       awaitingFirstUtterance,
		transcripts: make(chan string, transcriptQueueSize),
		logger:      log.Session(id),
	}
}

// State exposes the conversation history for inspection.
func (s *Session) State() *conversation.State {
	return s.state
}

// Submit queues a finalized transcript for processing. It never blocks;
// if the queue is full the transcript is dropped.
func (s *Session) Submit(text string) {
	select {
	case s.transcripts <- text:
	default:
		s.logger.Warn("transcript queue full, dropping", zap.String("text", text))
	}
}

// Run consumes queued transcripts until ctx is cancelled. It is the only
// goroutine that touches conversation state.
func (s *Session) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case text := <-s.transcripts:
			s.processTurn(ctx, text)
		}
	}
}

// processTurn runs one full turn: state update, completion, shaping,
// synthesis. Collaborator failures abandon the turn; the session lives on.
func (s *Session) processTurn(ctx context.Context, text string) {
	if s.phase == awaitingFirstUtterance {
		s.deliverGreeting(ctx)
		s.state.Append(conversation.Turn{Role: conversation.RoleUser, Content: text})
		s.state.Append(conversation.Turn{Role: conversation.RoleSystem, Content: llm.ReminderPrompt()})
		s.phase = steadyState
	} else {
		s.state.Append(conversation.Turn{Role: conversation.RoleUser, Content: text})
	}
	s.record(ctx, "user", text)

	raw, err := s.deps.Completer.Complete(ctx, s.state.FilteredForCompletion())
	if err != nil {
		s.logger.Error("completion failed, abandoning turn", zap.Error(err))
		return
	}

	booking := policy.IsBookingConfirmation(raw)
	res := s.deps.Shaper.Shape(raw, s.state, booking)
	if len(res.Fired) > 0 {
		s.logger.Info("shaped response",
			zap.Any("rules", res.Fired),
			zap.String("raw", raw),
			zap.String("shaped", res.Text))
	}

	s.state.Append(conversation.Turn{Role: conversation.RoleAssistant, Content: res.Text})
	s.record(ctx, "assistant", res.Text)

	if err := s.deps.Emitter.EmitLLMText(res.Text); err != nil {
		s.logger.Error("failed to emit response text", zap.Error(err))
		return
	}
	s.speak(ctx, res.Text)
}

// deliverGreeting performs the one-shot first-turn sequence: emit the
// stored greeting, record it as an assistant turn, speak it.
func (s *Session) deliverGreeting(ctx context.Context) {
	greeting := s.deps.Greeting
	if err := s.deps.Emitter.EmitGreeting(greeting); err != nil {
		s.logger.Error("failed to emit greeting", zap.Error(err))
	}
	s.state.Append(conversation.Turn{Role: conversation.RoleAssistant, Content: greeting})
	s.state.MarkGreetingSent()
	s.record(ctx, "assistant", greeting)
	s.speak(ctx, greeting)
}

// speak synthesizes text and streams the audio to the client, closing
// with a completion marker.
func (s *Session) speak(ctx context.Context, text string) {
	err := s.deps.Synthesizer.Synthesize(ctx, text, s.deps.Emitter.EmitAudio)
	if err != nil {
		s.logger.Error("synthesis failed, abandoning turn", zap.Error(err))
		return
	}
	if err := s.deps.Emitter.EmitTTSComplete(); err != nil {
		s.logger.Error("failed to emit synthesis completion", zap.Error(err))
	}
}

// record persists one transcript line. Store failures are logged and
// never abort a turn.
func (s *Session) record(ctx context.Context, role, text string) {
	if s.deps.Store == nil {
		return
	}
	if err := s.deps.Store.AppendLine(ctx, s.ID, role, text); err != nil {
		s.logger.Warn("failed to store transcript line", zap.Error(err))
	}
}
