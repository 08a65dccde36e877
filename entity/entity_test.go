package entity

import (
	"testing"

	"github.com/careplus-labs/voice-relay/conversation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testTable = []Mention{
	{Keyword: "dermatologist", CanonicalName: "Dr. Anjali Khanna", CategoryLabel: "Dermatologist"},
	{Keyword: "cardiologist", CanonicalName: "Dr. Vikram Rao", CategoryLabel: "Cardiologist"},
}

func turns(contents ...string) []conversation.Turn {
	out := make([]conversation.Turn, len(contents))
	for i, c := range contents {
		out[i] = conversation.Turn{Role: conversation.RoleUser, Content: c}
	}
	return out
}

func TestResolveFindsMostRecentMention(t *testing.T) {
	r := NewResolver(testTable)

	m, ok := r.Resolve(turns(
		"I saw a cardiologist last year",
		"now I need a dermatologist appointment",
	))
	require.True(t, ok)
	assert.Equal(t, "Dr. Anjali Khanna", m.CanonicalName)
}

func TestResolveRespectsWindow(t *testing.T) {
	r := NewResolver(testTable)

	history := turns(
		"I need a dermatologist", // falls outside the 6-turn window
		"a", "b", "c", "d", "e", "f",
	)
	_, ok := r.Resolve(history)
	assert.False(t, ok)
}

func TestResolveNoMatch(t *testing.T) {
	r := NewResolver(testTable)
	_, ok := r.Resolve(turns("what are your visiting hours"))
	assert.False(t, ok)
}

func TestRepairGenericPlaceholders(t *testing.T) {
	m := testTable[0]
	tests := []struct {
		in   string
		want string
	}{
		{
			"Perfect! Booked for Raj with a doctor on Monday at 3pm.",
			"Perfect! Booked for Raj with Dr. Anjali Khanna (Dermatologist) on Monday at 3pm.",
		},
		{
			"You're booked with the doctor tomorrow.",
			"You're booked with Dr. Anjali Khanna (Dermatologist) tomorrow.",
		},
		{
			"Booked with dermatologist for Friday.",
			"Booked with Dr. Anjali Khanna (Dermatologist) for Friday.",
		},
		{
			"The dermatologist doctor will see you.",
			"Dr. Anjali Khanna (Dermatologist) will see you.",
		},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Repair(tt.in, m), tt.in)
	}
}

func TestRepairIdempotent(t *testing.T) {
	m := testTable[0]
	in := "Perfect! Booked for Raj with a doctor on Monday at 3pm."

	once := Repair(in, m)
	twice := Repair(once, m)
	assert.Equal(t, once, twice)
}

func TestRepairDoesNotDoubleAppendLabel(t *testing.T) {
	m := testTable[0]
	resolved := "Booked with Dr. Anjali Khanna (Dermatologist) on Monday."
	assert.Equal(t, resolved, Repair(resolved, m))

	bareName := "Booked with Dr. Anjali Khanna on Monday."
	assert.Equal(t, "Booked with Dr. Anjali Khanna (Dermatologist) on Monday.", Repair(bareName, m))
}

func TestRepairLeavesUnmatchedUtteranceAlone(t *testing.T) {
	m := testTable[0]
	in := "Your appointment is set for Monday."
	assert.Equal(t, in, Repair(in, m))
}
