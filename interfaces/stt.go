package interfaces

// TranscriptEvent is one result from the speech-recognition collaborator.
// Only final events with non-empty text feed the turn pipeline.
type TranscriptEvent struct {
	Text    string
	IsFinal bool
}

// SpeechRecognizer is a streaming speech-to-text connection owned by one
// session. Events closes when the upstream connection ends.
type SpeechRecognizer interface {
	SendAudio(data []byte) error
	Events() <-chan TranscriptEvent
	Errors() <-chan error
	Close() error
}
