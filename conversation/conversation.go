// Package conversation holds the ordered turn history for one relay session.
package conversation

// Role tags a turn with its speaker.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message in the conversation. Ordering is significant;
// duplicate content across turns is legal.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// State is the per-session conversation history. Turn 0 is always the
// persona system prompt and is never removed or reordered. State is owned
// by exactly one session and is not safe for concurrent use; the session
// processes turns serially.
type State struct {
	turns        []Turn
	greetingSent bool
}

// New creates a State seeded with the persona system prompt at index 0.
func New(systemPrompt string) *State {
	return &State{turns: []Turn{{Role: RoleSystem, Content: systemPrompt}}}
}

// Append adds a turn to the end of the history. No size limit is enforced;
// sessions are short-lived and torn down with their connection.
func (s *State) Append(t Turn) {
	s.turns = append(s.turns, t)
}

// Turns returns a copy of the full stored history, including ephemeral
// system reminders, for audit and logging.
func (s *State) Turns() []Turn {
	out := make([]Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

// Len returns the number of stored turns.
func (s *State) Len() int {
	return len(s.turns)
}

// LastUserTurn returns the content of the most recent user turn.
func (s *State) LastUserTurn() (string, bool) {
	for i := len(s.turns) - 1; i >= 0; i-- {
		if s.turns[i].Role == RoleUser {
			return s.turns[i].Content, true
		}
	}
	return "", false
}

// Recent returns up to n of the most recent turns, oldest first.
func (s *State) Recent(n int) []Turn {
	start := len(s.turns) - n
	if start < 0 {
		start = 0
	}
	out := make([]Turn, len(s.turns)-start)
	copy(out, s.turns[start:])
	return out
}

// FilteredForCompletion returns the turns handed to the completion
// collaborator: the persona prompt at index 0 plus every later non-system
// turn. Ephemeral reminder turns stay in the stored history only.
func (s *State) FilteredForCompletion() []Turn {
	out := make([]Turn, 0, len(s.turns))
	out = append(out, s.turns[0])
	for _, t := range s.turns[1:] {
		if t.Role != RoleSystem {
			out = append(out, t)
		}
	}
	return out
}

// MarkGreetingSent flips the one-shot greeting flag. It fires once per
// session; calling it again is a developer error and a no-op.
func (s *State) MarkGreetingSent() {
	s.greetingSent = true
}

// GreetingSent reports whether the greeting has been delivered.
func (s *State) GreetingSent() bool {
	return s.greetingSent
}
