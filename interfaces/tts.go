package interfaces

import "context"

// Synthesizer is the speech-synthesis collaborator. It streams audio for a
// shaped utterance through emit, one chunk at a time, in order.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string, emit func(chunk []byte) error) error
}
