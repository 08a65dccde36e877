package assistant

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/careplus-labs/voice-relay/conversation"
	"github.com/careplus-labs/voice-relay/shape"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCompleter struct {
	mu      sync.Mutex
	replies []string
	err     error
	calls   [][]conversation.Turn
}

func (f *fakeCompleter) Complete(_ context.Context, turns []conversation.Turn) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := make([]conversation.Turn, len(turns))
	copy(copied, turns)
	f.calls = append(f.calls, copied)
	if f.err != nil {
		return "", f.err
	}
	reply := f.replies[0]
	if len(f.replies) > 1 {
		f.replies = f.replies[1:]
	}
	return reply, nil
}

func (f *fakeCompleter) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeSynthesizer struct {
	err    error
	spoken []string
}

func (f *fakeSynthesizer) Synthesize(_ context.Context, text string, emit func([]byte) error) error {
	if f.err != nil {
		return f.err
	}
	f.spoken = append(f.spoken, text)
	return emit([]byte("pcm:" + text))
}

type fakeEmitter struct {
	mu     sync.Mutex
	events []string
}

func (f *fakeEmitter) add(ev string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
	return nil
}

func (f *fakeEmitter) EmitReady() error                 { return f.add("ready") }
func (f *fakeEmitter) EmitTranscription(t string) error { return f.add("transcription:" + t) }
func (f *fakeEmitter) EmitGreeting(t string) error      { return f.add("greeting:" + t) }
func (f *fakeEmitter) EmitLLMText(t string) error       { return f.add("llm_text:" + t) }
func (f *fakeEmitter) EmitAudio(chunk []byte) error     { return f.add("audio:" + string(chunk)) }
func (f *fakeEmitter) EmitTTSComplete() error           { return f.add("tts_complete") }

func (f *fakeEmitter) log() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.events))
	copy(out, f.events)
	return out
}

type fakeStore struct {
	err   error
	lines []string
}

func (f *fakeStore) AppendLine(_ context.Context, sessionID, role, text string) error {
	if f.err != nil {
		return f.err
	}
	f.lines = append(f.lines, fmt.Sprintf("%s/%s", role, text))
	return nil
}

const testGreeting = "Thank you for calling HealthCare Plus. How can I help you today?"

func newTestSession(completer *fakeCompleter, synth *fakeSynthesizer, em *fakeEmitter, store *fakeStore) *Session {
	deps := Deps{
		Completer:    completer,
		Synthesizer:  synth,
		Emitter:      em,
		Shaper:       shape.New(nil, nil),
		SystemPrompt: "You are a receptionist.",
		Greeting:     testGreeting,
	}
	if store != nil {
		deps.Store = store
	}
	return NewSession(deps)
}

func TestFirstTurnSequence(t *testing.T) {
	completer := &fakeCompleter{replies: []string{"What time works for you?"}}
	synth := &fakeSynthesizer{}
	em := &fakeEmitter{}
	s := newTestSession(completer, synth, em, nil)

	s.processTurn(context.Background(), "I want a massage")

	assert.Equal(t, []string{
		"greeting:" + testGreeting,
		"audio:pcm:" + testGreeting,
		"tts_complete",
		"llm_text:What time works for you?",
		"audio:pcm:What time works for you?",
		"tts_complete",
	}, em.log())

	turns := s.State().Turns()
	require.Len(t, turns, 5)
	assert.Equal(t, conversation.RoleSystem, turns[0].Role)
	assert.Equal(t, conversation.RoleAssistant, turns[1].Role)
	assert.Equal(t, testGreeting, turns[1].Content)
	assert.Equal(t, conversation.RoleUser, turns[2].Role)
	assert.Equal(t, "I want a massage", turns[2].Content)
	assert.Equal(t, conversation.RoleSystem, turns[3].Role)
	assert.Equal(t, conversation.RoleAssistant, turns[4].Role)
	assert.True(t, s.State().GreetingSent())
}

func TestCompletionContextExcludesReminder(t *testing.T) {
	completer := &fakeCompleter{replies: []string{"Sure."}}
	s := newTestSession(completer, &fakeSynthesizer{}, &fakeEmitter{}, nil)

	s.processTurn(context.Background(), "hello")

	require.Len(t, completer.calls, 1)
	sent := completer.calls[0]
	require.Len(t, sent, 3)
	assert.Equal(t, conversation.RoleSystem, sent[0].Role)
	assert.Equal(t, conversation.RoleAssistant, sent[1].Role)
	assert.Equal(t, conversation.RoleUser, sent[2].Role)
	for _, turn := range sent[1:] {
		assert.NotEqual(t, conversation.RoleSystem, turn.Role)
	}
}

func TestGreetingFiresOnlyOnce(t *testing.T) {
	completer := &fakeCompleter{replies: []string{"First reply.", "Second reply."}}
	em := &fakeEmitter{}
	s := newTestSession(completer, &fakeSynthesizer{}, em, nil)

	s.processTurn(context.Background(), "hello")
	s.processTurn(context.Background(), "tomorrow at 3pm")

	greetings := 0
	for _, ev := range em.log() {
		if ev == "greeting:"+testGreeting {
			greetings++
		}
	}
	assert.Equal(t, 1, greetings)

	// The second turn appends exactly one user and one assistant turn.
	turns := s.State().Turns()
	require.Len(t, turns, 7)
	assert.Equal(t, "tomorrow at 3pm", turns[5].Content)
	assert.Equal(t, conversation.RoleAssistant, turns[6].Role)
}

func TestCompletionFailureAbandonsTurn(t *testing.T) {
	completer := &fakeCompleter{err: errors.New("api down")}
	em := &fakeEmitter{}
	s := newTestSession(completer, &fakeSynthesizer{}, em, nil)

	s.processTurn(context.Background(), "hello")

	for _, ev := range em.log() {
		assert.NotContains(t, ev, "llm_text")
	}
	// Greeting already went out, but no assistant reply was recorded.
	turns := s.State().Turns()
	assert.Equal(t, conversation.RoleSystem, turns[len(turns)-1].Role)
}

func TestSynthesisFailureKeepsHistory(t *testing.T) {
	completer := &fakeCompleter{replies: []string{"Here you go."}}
	em := &fakeEmitter{}
	s := newTestSession(completer, &fakeSynthesizer{err: errors.New("tts down")}, em, nil)

	s.processTurn(context.Background(), "hello")

	// The shaped reply stays in history and in the text event stream even
	// though no audio was produced.
	turns := s.State().Turns()
	assert.Equal(t, "Here you go.", turns[len(turns)-1].Content)
	assert.Contains(t, em.log(), "llm_text:Here you go.")
	assert.NotContains(t, em.log(), "tts_complete")
}

func TestShapingAppliedBeforeEmission(t *testing.T) {
	raw := "One. Two. Three. Four. Five."
	completer := &fakeCompleter{replies: []string{raw}}
	em := &fakeEmitter{}
	s := newTestSession(completer, &fakeSynthesizer{}, em, nil)

	s.processTurn(context.Background(), "hello")

	assert.Contains(t, em.log(), "llm_text:One. Two.")
	turns := s.State().Turns()
	assert.Equal(t, "One. Two.", turns[len(turns)-1].Content)
}

func TestStoreFailureIsNonFatal(t *testing.T) {
	completer := &fakeCompleter{replies: []string{"All good."}}
	em := &fakeEmitter{}
	s := newTestSession(completer, &fakeSynthesizer{}, em, &fakeStore{err: errors.New("redis down")})

	s.processTurn(context.Background(), "hello")

	assert.Contains(t, em.log(), "llm_text:All good.")
}

func TestStoreReceivesTranscriptLines(t *testing.T) {
	completer := &fakeCompleter{replies: []string{"Noted."}}
	store := &fakeStore{}
	s := newTestSession(completer, &fakeSynthesizer{}, &fakeEmitter{}, store)

	s.processTurn(context.Background(), "hello")

	assert.Equal(t, []string{
		"assistant/" + testGreeting,
		"user/hello",
		"assistant/Noted.",
	}, store.lines)
}

func TestRunProcessesQueuedTranscriptsInOrder(t *testing.T) {
	completer := &fakeCompleter{replies: []string{"Reply one.", "Reply two."}}
	em := &fakeEmitter{}
	s := newTestSession(completer, &fakeSynthesizer{}, em, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	s.Submit("first")
	s.Submit("second")

	require.Eventually(t, func() bool {
		return completer.callCount() == 2
	}, 2*time.Second, 10*time.Millisecond)
	cancel()
	<-done

	log := em.log()
	first, second := -1, -1
	for i, ev := range log {
		switch ev {
		case "llm_text:Reply one.":
			first = i
		case "llm_text:Reply two.":
			second = i
		}
	}
	require.NotEqual(t, -1, first)
	require.NotEqual(t, -1, second)
	assert.Less(t, first, second)
}
