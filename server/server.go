package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/careplus-labs/voice-relay/assistant"
	"github.com/careplus-labs/voice-relay/config"
	"github.com/careplus-labs/voice-relay/interfaces"
	"github.com/careplus-labs/voice-relay/log"
	"github.com/careplus-labs/voice-relay/shape"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// RecognizerDialer opens a fresh streaming speech-to-text connection for
// one session. A dial failure aborts session setup before any turns run.
type RecognizerDialer func(ctx context.Context) (interfaces.SpeechRecognizer, error)

// Deps are the long-lived collaborators shared by every session.
type Deps struct {
	DialRecognizer RecognizerDialer
	Completer      interfaces.Completer
	Synthesizer    interfaces.Synthesizer
	Store          interfaces.TranscriptStore
	Shaper         *shape.Shaper
	SystemPrompt   string
	Greeting       string
}

// Server accepts browser WebSocket connections and runs one voice
// session per connection.
type Server struct {
	cfg      *config.ServerConfig
	deps     Deps
	upgrader websocket.Upgrader

	mu     sync.Mutex
	active int
}

// New builds a server with the configured origin allow-list.
func New(cfg *config.ServerConfig, deps Deps) *Server {
	s := &Server{cfg: cfg, deps: deps}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			return s.originAllowed(r.Header.Get("Origin"))
		},
	}
	return s
}

// ActiveSessions reports how many calls are live, for the health report.
func (s *Server) ActiveSessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// originAllowed applies the allow-list. A "*" entry admits everything,
// local development origins are always admitted, and non-browser clients
// sending no Origin header are admitted.
func (s *Server) originAllowed(origin string) bool {
	if origin == "" {
		return true
	}
	lowered := strings.ToLower(origin)
	if strings.HasPrefix(lowered, "http://localhost") || strings.HasPrefix(lowered, "http://127.0.0.1") {
		return true
	}
	for _, allowed := range s.cfg.AllowedOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	return false
}

// Start serves the voice endpoint. It blocks until the listener fails.
func (s *Server) Start() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleWS)
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	log.L().Info("voice relay listening", zap.String("addr", addr))
	return http.ListenAndServe(addr, mux)
}

// controlMessage is the only text frame clients send.
type controlMessage struct {
	Type string `json:"type"`
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("websocket upgrade failed", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	recognizer, err := s.deps.DialRecognizer(ctx)
	if err != nil {
		log.Error("recognizer connection failed, aborting session", err)
		return
	}
	defer recognizer.Close()

	emitter := newWSEmitter(conn)
	session := assistant.NewSession(assistant.Deps{
		Completer:    s.deps.Completer,
		Synthesizer:  s.deps.Synthesizer,
		Emitter:      emitter,
		Store:        s.deps.Store,
		Shaper:       s.deps.Shaper,
		SystemPrompt: s.deps.SystemPrompt,
		Greeting:     s.deps.Greeting,
	})
	logger := log.Session(session.ID)
	logger.Info("session started", zap.String("remote", r.RemoteAddr))

	s.mu.Lock()
	s.active++
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.active--
		s.mu.Unlock()
		logger.Info("session ended")
	}()

	if err := emitter.EmitReady(); err != nil {
		log.Error("failed to emit ready", err)
		return
	}

	go session.Run(ctx)
	go s.readTranscripts(ctx, recognizer, session, emitter, logger)

	s.forwardAudio(conn, recognizer, logger)
}

// forwardAudio pumps client frames to the recognizer until the
// connection closes. Binary frames carry microphone audio; the only text
// frame is a stop control. Malformed frames are logged and skipped.
func (s *Server) forwardAudio(conn *websocket.Conn, recognizer interfaces.SpeechRecognizer, logger *zap.Logger) {
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Warn("client connection error", zap.Error(err))
			}
			return
		}
		switch msgType {
		case websocket.BinaryMessage:
			if err := recognizer.SendAudio(data); err != nil {
				logger.Error("failed to forward audio", zap.Error(err))
				return
			}
		case websocket.TextMessage:
			var msg controlMessage
			if err := json.Unmarshal(data, &msg); err != nil {
				logger.Warn("malformed control message, skipping", zap.ByteString("data", data))
				continue
			}
			if msg.Type == "stop" {
				logger.Info("client requested stop")
				return
			}
		}
	}
}

// readTranscripts feeds finalized, non-empty recognizer events into the
// session queue. Interim and empty events never reach the orchestrator.
func (s *Server) readTranscripts(ctx context.Context, recognizer interfaces.SpeechRecognizer, session *assistant.Session, emitter *wsEmitter, logger *zap.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-recognizer.Errors():
			if !ok {
				return
			}
			logger.Error("recognizer error", zap.Error(err))
		case ev, ok := <-recognizer.Events():
			if !ok {
				return
			}
			text := strings.TrimSpace(ev.Text)
			if !ev.IsFinal || text == "" {
				continue
			}
			logger.Info("final transcript", zap.String("text", text))
			if err := emitter.EmitTranscription(text); err != nil {
				logger.Warn("failed to emit transcription", zap.Error(err))
			}
			session.Submit(text)
		}
	}
}
