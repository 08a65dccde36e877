package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Re-assigned in tests to point the loader at a temp home directory.
var osUserHomeDir = os.UserHomeDir

// configPath returns the full path to the relay config file.
func configPath() (string, error) {
	home, err := osUserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not get user home directory: %w", err)
	}
	return filepath.Join(home, ".voice-relay", "config.json"), nil
}

// LoadAllConfigs builds the configuration: defaults, then the JSON config
// file if present, then environment overrides. A missing file is fine; a
// malformed one is an error.
func LoadAllConfigs() (*AllConfig, error) {
	cfg := defaultConfig()

	path, err := configPath()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err == nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("could not decode config file %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("could not read config file %s: %w", path, err)
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *AllConfig) {
	setString(&cfg.Deepgram.APIKey, "DEEPGRAM_API_KEY")
	setString(&cfg.OpenAI.APIKey, "OPENAI_API_KEY")
	setString(&cfg.ElevenLabs.APIKey, "ELEVENLABS_API_KEY")
	setString(&cfg.ElevenLabs.VoiceID, "ELEVENLABS_VOICE_ID")
	setString(&cfg.Recognizer, "RECOGNIZER")
	setString(&cfg.KnowledgeBasePath, "KNOWLEDGE_BASE_PATH")
	setString(&cfg.Server.Host, "HOST")
	setString(&cfg.Redis.Addr, "REDIS_ADDR")
	setString(&cfg.Redis.Password, "REDIS_PASSWORD")

	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		if len(origins) > 0 {
			cfg.Server.AllowedOrigins = origins
		}
	}
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// Validate checks that every required API key is set, naming the missing
// environment variables the way operators know them.
func (cfg *AllConfig) Validate() error {
	var missing []string
	if cfg.Recognizer != "google" && cfg.Deepgram.APIKey == "" {
		missing = append(missing, "DEEPGRAM_API_KEY")
	}
	if cfg.OpenAI.APIKey == "" {
		missing = append(missing, "OPENAI_API_KEY")
	}
	if cfg.ElevenLabs.APIKey == "" {
		missing = append(missing, "ELEVENLABS_API_KEY")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing environment variables: %s", strings.Join(missing, ", "))
	}
	return nil
}
