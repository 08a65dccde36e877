package main

import (
	"context"
	"fmt"
	"log"

	"github.com/careplus-labs/voice-relay/cache"
	"github.com/careplus-labs/voice-relay/config"
)

// Dumps every stored session transcript from the Redis store, oldest
// line first, for operator inspection.
func main() {
	cfg, err := config.LoadAllConfigs()
	if err != nil {
		log.Fatalf("Fatal error loading config: %v", err)
	}

	db, err := cache.New(&cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to connect to transcript store: %v", err)
	}
	if db == nil {
		log.Fatal("Transcript store is not configured (set redis.addr or REDIS_ADDR)")
	}
	defer db.Close()

	ctx := context.Background()
	ids, err := db.SessionIDs(ctx)
	if err != nil {
		log.Fatalf("Failed to list sessions: %v", err)
	}
	if len(ids) == 0 {
		fmt.Println("No stored sessions.")
		return
	}

	for _, id := range ids {
		fmt.Printf("\n--- Session: %s ---\n", id)
		lines, err := db.SessionLines(ctx, id)
		if err != nil {
			log.Printf("Failed to load transcript for %s: %v", id, err)
			continue
		}
		for _, line := range lines {
			fmt.Printf("  [%s] %-9s %s\n", line.At.Format("15:04:05"), line.Role+":", line.Text)
		}
	}
}
