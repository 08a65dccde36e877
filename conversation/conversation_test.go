package conversation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSeedsSystemPrompt(t *testing.T) {
	s := New("persona")

	require.Equal(t, 1, s.Len())
	assert.Equal(t, RoleSystem, s.Turns()[0].Role)
	assert.Equal(t, "persona", s.Turns()[0].Content)
	assert.False(t, s.GreetingSent())
}

func TestFilteredForCompletionDropsLaterSystemTurns(t *testing.T) {
	s := New("persona")
	s.Append(Turn{Role: RoleAssistant, Content: "greeting"})
	s.Append(Turn{Role: RoleUser, Content: "hello"})
	s.Append(Turn{Role: RoleSystem, Content: "reminder"})
	s.Append(Turn{Role: RoleAssistant, Content: "reply"})

	filtered := s.FilteredForCompletion()

	require.Len(t, filtered, 4)
	assert.Equal(t, RoleSystem, filtered[0].Role)
	assert.Equal(t, "persona", filtered[0].Content)
	assert.Equal(t, "greeting", filtered[1].Content)
	assert.Equal(t, "hello", filtered[2].Content)
	assert.Equal(t, "reply", filtered[3].Content)
	for _, turn := range filtered[1:] {
		assert.NotEqual(t, RoleSystem, turn.Role)
	}

	// The reminder stays in the stored history for audit.
	assert.Equal(t, 5, s.Len())
}

func TestLastUserTurn(t *testing.T) {
	s := New("persona")

	_, ok := s.LastUserTurn()
	assert.False(t, ok)

	s.Append(Turn{Role: RoleUser, Content: "first"})
	s.Append(Turn{Role: RoleAssistant, Content: "reply"})
	s.Append(Turn{Role: RoleUser, Content: "second"})

	last, ok := s.LastUserTurn()
	require.True(t, ok)
	assert.Equal(t, "second", last)
}

func TestRecentWindow(t *testing.T) {
	s := New("persona")
	s.Append(Turn{Role: RoleUser, Content: "a"})
	s.Append(Turn{Role: RoleAssistant, Content: "b"})
	s.Append(Turn{Role: RoleUser, Content: "c"})

	recent := s.Recent(2)
	require.Len(t, recent, 2)
	assert.Equal(t, "b", recent[0].Content)
	assert.Equal(t, "c", recent[1].Content)

	all := s.Recent(10)
	assert.Len(t, all, 4)
}

func TestGreetingFlagFlipsOnce(t *testing.T) {
	s := New("persona")
	s.MarkGreetingSent()
	assert.True(t, s.GreetingSent())
	s.MarkGreetingSent()
	assert.True(t, s.GreetingSent())
}

func TestTurnsReturnsCopy(t *testing.T) {
	s := New("persona")
	turns := s.Turns()
	turns[0].Content = "mutated"
	assert.Equal(t, "persona", s.Turns()[0].Content)
}
