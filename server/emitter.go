package server

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
)

// event is the JSON envelope for every non-audio message sent to the
// client. Audio goes out as raw binary frames.
type event struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// wsEmitter serializes all writes to one client connection. gorilla
// connections allow a single concurrent writer, and greeting audio and
// turn audio can otherwise race with control events.
type wsEmitter struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func newWSEmitter(conn *websocket.Conn) *wsEmitter {
	return &wsEmitter{conn: conn}
}

func (e *wsEmitter) writeEvent(ev event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.conn.WriteMessage(websocket.TextMessage, payload)
}

func (e *wsEmitter) EmitReady() error {
	return e.writeEvent(event{Type: "ready"})
}

func (e *wsEmitter) EmitTranscription(text string) error {
	return e.writeEvent(event{Type: "transcription", Text: text})
}

func (e *wsEmitter) EmitGreeting(text string) error {
	return e.writeEvent(event{Type: "greeting", Text: text})
}

func (e *wsEmitter) EmitLLMText(text string) error {
	return e.writeEvent(event{Type: "llm_text", Text: text})
}

func (e *wsEmitter) EmitAudio(chunk []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.conn.WriteMessage(websocket.BinaryMessage, chunk)
}

func (e *wsEmitter) EmitTTSComplete() error {
	return e.writeEvent(event{Type: "tts_complete"})
}
