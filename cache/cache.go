package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/careplus-labs/voice-relay/config"
	"github.com/redis/go-redis/v9"
)

const (
	maxTranscriptLines = 200
	keyPrefix          = "voice-relay:"
)

// TranscriptLine is one stored turn of a call transcript.
type TranscriptLine struct {
	Role string    `json:"role"`
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

type DB struct {
	rdb *redis.Client
	ctx context.Context
}

// New connects to Redis. A nil config or empty address disables the
// store; callers get (nil, nil) and skip transcript persistence.
func New(cfg *config.RedisConfig) (*DB, error) {
	if cfg == nil || cfg.Addr == "" {
		return nil, nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Username: cfg.Username,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	ctx := context.Background()
	_, err := rdb.Ping(ctx).Result()
	if err != nil {
		return nil, fmt.Errorf("could not connect to cache at %s: %w", cfg.Addr, err)
	}
	return &DB{rdb: rdb, ctx: ctx}, nil
}

func (db *DB) Ping() error {
	return db.rdb.Ping(db.ctx).Err()
}

func (db *DB) Close() error {
	return db.rdb.Close()
}

func sessionKey(sessionID string) string {
	return fmt.Sprintf("%ssession:%s:transcript", keyPrefix, sessionID)
}

// AppendLine records one transcript turn for a session, newest first,
// trimmed to the retention cap.
func (db *DB) AppendLine(ctx context.Context, sessionID, role, text string) error {
	line, err := json.Marshal(TranscriptLine{Role: role, Text: text, At: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("could not marshal transcript line: %w", err)
	}
	pipe := db.rdb.Pipeline()
	pipe.LPush(ctx, sessionKey(sessionID), line)
	pipe.LTrim(ctx, sessionKey(sessionID), 0, maxTranscriptLines-1)
	_, err = pipe.Exec(ctx)
	return err
}

// SessionLines returns a session's stored transcript, oldest first.
func (db *DB) SessionLines(ctx context.Context, sessionID string) ([]TranscriptLine, error) {
	raw, err := db.rdb.LRange(ctx, sessionKey(sessionID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("could not load transcript for %s: %w", sessionID, err)
	}
	lines := make([]TranscriptLine, 0, len(raw))
	for i := len(raw) - 1; i >= 0; i-- {
		var line TranscriptLine
		if err := json.Unmarshal([]byte(raw[i]), &line); err != nil {
			return nil, fmt.Errorf("could not unmarshal transcript line: %w", err)
		}
		lines = append(lines, line)
	}
	return lines, nil
}

// SessionIDs lists every session with a stored transcript.
func (db *DB) SessionIDs(ctx context.Context) ([]string, error) {
	var ids []string
	pattern := keyPrefix + "session:*:transcript"
	iter := db.rdb.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		trimmed := strings.TrimPrefix(iter.Val(), keyPrefix)
		parts := strings.Split(trimmed, ":")
		if len(parts) == 3 {
			ids = append(ids, parts[1])
		}
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}
