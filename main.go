package main

import (
	"context"
	stdlog "log"
	"os"
	"os/signal"
	"syscall"

	"github.com/careplus-labs/voice-relay/cache"
	"github.com/careplus-labs/voice-relay/config"
	"github.com/careplus-labs/voice-relay/entity"
	"github.com/careplus-labs/voice-relay/health"
	"github.com/careplus-labs/voice-relay/interfaces"
	"github.com/careplus-labs/voice-relay/kb"
	"github.com/careplus-labs/voice-relay/llm"
	logger "github.com/careplus-labs/voice-relay/log"
	"github.com/careplus-labs/voice-relay/server"
	"github.com/careplus-labs/voice-relay/shape"
	"github.com/careplus-labs/voice-relay/stt"
	"github.com/careplus-labs/voice-relay/tts"
	"go.uber.org/zap"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.LoadAllConfigs()
	if err != nil {
		stdlog.Fatalf("Fatal error loading config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		stdlog.Fatalf("Invalid config: %v", err)
	}

	// 2. Initialize Logger
	if err := logger.Init(cfg.Debug); err != nil {
		stdlog.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// 3. Load Knowledge Base
	knowledge, err := kb.Load(cfg.KnowledgeBasePath)
	if err != nil {
		logger.Fatal("Failed to load knowledge base", err)
	}
	systemPrompt, err := llm.BuildSystemPrompt(knowledge.ContextString())
	if err != nil {
		logger.Fatal("Failed to build system prompt", err)
	}

	// 4. Initialize Cache
	db, err := cache.New(&cfg.Redis)
	if err != nil {
		logger.Error("Failed to initialize transcript store, continuing without it", err)
	}
	var store interfaces.TranscriptStore
	if db != nil {
		store = db
		defer db.Close()
	}

	// 5. Initialize Collaborator Clients
	completer := llm.NewClient(&cfg.OpenAI)
	synthesizer := tts.NewClient(&cfg.ElevenLabs)
	dialRecognizer := recognizerDialer(cfg)

	// 6. Build the Response Shaper
	shaper := shape.New(entity.NewResolver(knowledge.EntityTable()), knowledge.DepartmentNames())

	// 7. Start the Servers
	relay := server.New(&cfg.Server, server.Deps{
		DialRecognizer: dialRecognizer,
		Completer:      completer,
		Synthesizer:    synthesizer,
		Store:          store,
		Shaper:         shaper,
		SystemPrompt:   systemPrompt,
		Greeting:       knowledge.Greeting("default"),
	})
	go func() {
		checker := health.NewServer(db, relay.ActiveSessions)
		if err := checker.Start(cfg.Server.HealthPort); err != nil {
			logger.Error("Health server stopped", err)
		}
	}()
	go func() {
		if err := relay.Start(); err != nil {
			logger.Fatal("Voice relay stopped", err)
		}
	}()

	// 8. Wait for shutdown signal
	logger.L().Info("voice relay is running",
		zap.String("recognizer", cfg.Recognizer),
		zap.Int("port", cfg.Server.Port))
	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-sc

	logger.L().Info("shutting down")
}

// recognizerDialer picks the configured speech-to-text backend.
func recognizerDialer(cfg *config.AllConfig) server.RecognizerDialer {
	if cfg.Recognizer == "google" {
		return func(ctx context.Context) (interfaces.SpeechRecognizer, error) {
			return stt.DialGoogle(ctx, &cfg.Deepgram, logger.L())
		}
	}
	return func(ctx context.Context) (interfaces.SpeechRecognizer, error) {
		return stt.DialDeepgram(ctx, &cfg.Deepgram, logger.L())
	}
}
