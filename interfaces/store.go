package interfaces

import "context"

// TranscriptStore persists session transcript lines for audit. Store
// failures never abort a turn; they are logged and ignored.
type TranscriptStore interface {
	AppendLine(ctx context.Context, sessionID, role, text string) error
}
