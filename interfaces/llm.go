package interfaces

import (
	"context"

	"github.com/careplus-labs/voice-relay/conversation"
)

// Completer is the completion collaborator: it takes an ordered turn
// history and returns one candidate assistant reply. Any error aborts the
// turn; there is no retry.
type Completer interface {
	Complete(ctx context.Context, turns []conversation.Turn) (string, error)
}
