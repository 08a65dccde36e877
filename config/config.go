// Package config loads relay configuration from a JSON file with
// environment-variable overrides for secrets and deployment settings.
package config

// DeepgramConfig configures the streaming speech-recognition connection.
type DeepgramConfig struct {
	APIKey         string `json:"api_key"`
	Model          string `json:"model"`
	Language       string `json:"language"`
	Encoding       string `json:"encoding"`
	SampleRate     int    `json:"sample_rate"`
	Channels       int    `json:"channels"`
	Punctuate      bool   `json:"punctuate"`
	InterimResults bool   `json:"interim_results"`
	Endpointing    int    `json:"endpointing"`
}

// OpenAIConfig configures the completion collaborator.
type OpenAIConfig struct {
	APIKey      string  `json:"api_key"`
	Model       string  `json:"model"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
}

// ElevenLabsConfig configures the synthesis collaborator.
type ElevenLabsConfig struct {
	APIKey          string  `json:"api_key"`
	VoiceID         string  `json:"voice_id"`
	Model           string  `json:"model"`
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

// ServerConfig configures the browser-facing WebSocket listener.
type ServerConfig struct {
	Host           string   `json:"host"`
	Port           int      `json:"port"`
	HealthPort     int      `json:"health_port"`
	AllowedOrigins []string `json:"allowed_origins"`
}

// RedisConfig configures the optional transcript store. An empty Addr
// disables it.
type RedisConfig struct {
	Addr     string `json:"addr"`
	Username string `json:"username"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

// AllConfig is the full relay configuration.
type AllConfig struct {
	// Recognizer selects the speech-to-text backend: "deepgram" (default)
	// or "google".
	Recognizer        string           `json:"recognizer"`
	KnowledgeBasePath string           `json:"knowledge_base_path"`
	Debug             bool             `json:"debug"`
	Deepgram          DeepgramConfig   `json:"deepgram"`
	OpenAI            OpenAIConfig     `json:"openai"`
	ElevenLabs        ElevenLabsConfig `json:"elevenlabs"`
	Server            ServerConfig     `json:"server"`
	Redis             RedisConfig      `json:"redis"`
}

// defaults mirror the parameters the relay has always run with.
func defaultConfig() *AllConfig {
	return &AllConfig{
		Recognizer:        "deepgram",
		KnowledgeBasePath: "data/knowledge_base.json",
		Deepgram: DeepgramConfig{
			Model:          "nova-2-general",
			Language:       "en-US",
			Encoding:       "linear16",
			SampleRate:     16000,
			Channels:       1,
			Punctuate:      true,
			InterimResults: false,
			Endpointing:    1000,
		},
		OpenAI: OpenAIConfig{
			Model:       "gpt-4o-mini",
			MaxTokens:   80,
			Temperature: 0.7,
		},
		ElevenLabs: ElevenLabsConfig{
			VoiceID:         "21m00Tcm4TlvDq8ikWAM",
			Model:           "eleven_turbo_v2_5",
			Stability:       0.5,
			SimilarityBoost: 0.5,
		},
		Server: ServerConfig{
			Host:       "0.0.0.0",
			Port:       8765,
			HealthPort: 8766,
			AllowedOrigins: []string{
				"*",
				"http://localhost",
				"http://127.0.0.1",
				"null",
				"file://",
			},
		},
	}
}
