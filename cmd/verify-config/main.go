package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/careplus-labs/voice-relay/config"
)

// ANSI color codes for formatted output
const (
	ColorReset  = "\033[0m"
	ColorRed    = "\033[31m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorBlue   = "\033[34m"
)

// Checks the on-disk config file for validity before a deployment: the
// file must parse, contain no unknown fields, and pass the same
// validation the relay runs at boot.
func main() {
	fmt.Printf("%s--- Voice Relay Config Verifier ---%s\n", ColorBlue, ColorReset)

	home, err := os.UserHomeDir()
	if err != nil {
		fmt.Printf("%s[FATAL]%s Could not determine user home directory: %v\n", ColorRed, ColorReset, err)
		os.Exit(1)
	}
	path := filepath.Join(home, ".voice-relay", "config.json")

	ok := verifyConfigFile(path)
	ok = verifyLoadedConfig() && ok

	fmt.Println("\n--------------------------")
	if ok {
		fmt.Printf("%s✅ Configuration looks correct.%s\n", ColorGreen, ColorReset)
	} else {
		fmt.Printf("%s❌ Some issues were found in the configuration.%s\n", ColorRed, ColorReset)
		os.Exit(1)
	}
}

func verifyConfigFile(path string) bool {
	fmt.Printf("\nVerifying %s'%s'%s...\n", ColorBlue, path, ColorReset)

	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			fmt.Printf("  %s[WARN]%s No config file; relying on defaults and environment overrides.\n", ColorYellow, ColorReset)
			return true
		}
		fmt.Printf("  %s[FAIL]%s File not readable: %v\n", ColorRed, ColorReset, err)
		return false
	}
	fmt.Printf("  %s[OK]%s File exists and is readable.\n", ColorGreen, ColorReset)

	decoder := json.NewDecoder(bytes.NewReader(content))
	decoder.DisallowUnknownFields()
	var cfg config.AllConfig
	if err := decoder.Decode(&cfg); err != nil {
		fmt.Printf("  %s[FAIL]%s JSON is invalid or contains unexpected fields: %v\n", ColorRed, ColorReset, err)
		return false
	}
	fmt.Printf("  %s[OK]%s JSON is valid and all fields are recognized.\n", ColorGreen, ColorReset)
	return true
}

// verifyLoadedConfig runs the full load path (defaults + file + env) and
// the boot-time validation against it.
func verifyLoadedConfig() bool {
	fmt.Printf("\nVerifying effective configuration...\n")

	cfg, err := config.LoadAllConfigs()
	if err != nil {
		fmt.Printf("  %s[FAIL]%s Could not load configuration: %v\n", ColorRed, ColorReset, err)
		return false
	}
	if err := cfg.Validate(); err != nil {
		fmt.Printf("  %s[FAIL]%s %v\n", ColorRed, ColorReset, err)
		return false
	}
	fmt.Printf("  %s[OK]%s Effective configuration passes boot validation.\n", ColorGreen, ColorReset)
	fmt.Printf("  %s[OK]%s Recognizer backend: %s\n", ColorGreen, ColorReset, cfg.Recognizer)
	return true
}
