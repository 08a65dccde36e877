package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestEnvironment points the loader's home directory at a temp dir
// and returns the relay config directory inside it.
func setupTestEnvironment(t *testing.T) string {
	t.Helper()
	tempDir := t.TempDir()

	cfgDir := filepath.Join(tempDir, ".voice-relay")
	require.NoError(t, os.MkdirAll(cfgDir, 0755))

	original := osUserHomeDir
	osUserHomeDir = func() (string, error) { return tempDir, nil }
	t.Cleanup(func() { osUserHomeDir = original })

	return cfgDir
}

func TestLoadAllConfigs_Defaults(t *testing.T) {
	setupTestEnvironment(t)

	cfg, err := LoadAllConfigs()
	require.NoError(t, err)

	assert.Equal(t, "deepgram", cfg.Recognizer)
	assert.Equal(t, "nova-2-general", cfg.Deepgram.Model)
	assert.Equal(t, 16000, cfg.Deepgram.SampleRate)
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAI.Model)
	assert.Equal(t, 80, cfg.OpenAI.MaxTokens)
	assert.Equal(t, "21m00Tcm4TlvDq8ikWAM", cfg.ElevenLabs.VoiceID)
	assert.Equal(t, 8765, cfg.Server.Port)
	assert.Contains(t, cfg.Server.AllowedOrigins, "*")
}

func TestLoadAllConfigs_FileOverridesDefaults(t *testing.T) {
	cfgDir := setupTestEnvironment(t)

	fileCfg := map[string]any{
		"recognizer": "google",
		"openai":     map[string]any{"model": "gpt-4o", "max_tokens": 120},
		"server":     map[string]any{"port": 9000},
	}
	data, err := json.Marshal(fileCfg)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(cfgDir, "config.json"), data, 0644))

	cfg, err := LoadAllConfigs()
	require.NoError(t, err)

	assert.Equal(t, "google", cfg.Recognizer)
	assert.Equal(t, "gpt-4o", cfg.OpenAI.Model)
	assert.Equal(t, 120, cfg.OpenAI.MaxTokens)
	assert.Equal(t, 9000, cfg.Server.Port)
	// Sections absent from the file keep their defaults.
	assert.Equal(t, "nova-2-general", cfg.Deepgram.Model)
}

func TestLoadAllConfigs_EnvOverrides(t *testing.T) {
	setupTestEnvironment(t)

	t.Setenv("DEEPGRAM_API_KEY", "dg-key")
	t.Setenv("OPENAI_API_KEY", "oa-key")
	t.Setenv("ELEVENLABS_API_KEY", "el-key")
	t.Setenv("PORT", "8100")
	t.Setenv("ALLOWED_ORIGINS", "https://app.example.com, https://staging.example.com")

	cfg, err := LoadAllConfigs()
	require.NoError(t, err)

	assert.Equal(t, "dg-key", cfg.Deepgram.APIKey)
	assert.Equal(t, "oa-key", cfg.OpenAI.APIKey)
	assert.Equal(t, "el-key", cfg.ElevenLabs.APIKey)
	assert.Equal(t, 8100, cfg.Server.Port)
	assert.Equal(t, []string{"https://app.example.com", "https://staging.example.com"}, cfg.Server.AllowedOrigins)
	assert.NoError(t, cfg.Validate())
}

func TestLoadAllConfigs_InvalidJSON(t *testing.T) {
	cfgDir := setupTestEnvironment(t)

	require.NoError(t, os.WriteFile(filepath.Join(cfgDir, "config.json"), []byte("{ not valid json }"), 0644))

	_, err := LoadAllConfigs()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "could not decode config file")
}

func TestValidateReportsMissingKeys(t *testing.T) {
	cfg := defaultConfig()

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DEEPGRAM_API_KEY")
	assert.Contains(t, err.Error(), "OPENAI_API_KEY")
	assert.Contains(t, err.Error(), "ELEVENLABS_API_KEY")

	// The Google recognizer does not need a Deepgram key.
	cfg.Recognizer = "google"
	cfg.OpenAI.APIKey = "x"
	cfg.ElevenLabs.APIKey = "y"
	assert.NoError(t, cfg.Validate())
}
