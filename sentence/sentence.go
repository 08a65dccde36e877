// Package sentence splits utterances into ordered sentence units. The
// shaper uses it for truncation and selective removal; the synthesis caller
// uses it to pre-split text over the vendor length limit.
package sentence

import (
	"strings"
	"unicode"
)

func isTerminal(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

// Split returns the ordered sentence units of an utterance. A sentence ends
// at '.', '!' or '?' followed by whitespace (or end of input); the terminal
// mark stays with its sentence. An utterance with no terminal punctuation is
// a single sentence. Splitting a rejoined split yields the same sequence.
func Split(u string) []string {
	u = strings.TrimSpace(u)
	if u == "" {
		return nil
	}

	var out []string
	runes := []rune(u)
	start := 0
	for i := 0; i < len(runes); i++ {
		if !isTerminal(runes[i]) {
			continue
		}
		// Consume a run of closing marks ("?!", "...").
		j := i
		for j+1 < len(runes) && isTerminal(runes[j+1]) {
			j++
		}
		if j+1 < len(runes) && !unicode.IsSpace(runes[j+1]) {
			// Mid-token punctuation, e.g. "3.5" or "dr.smith".
			i = j
			continue
		}
		if s := strings.TrimSpace(string(runes[start : j+1])); s != "" {
			out = append(out, s)
		}
		start = j + 1
		i = j
	}
	if start < len(runes) {
		if s := strings.TrimSpace(string(runes[start:])); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Join reassembles sentence units with single spaces.
func Join(sentences []string) string {
	return strings.Join(sentences, " ")
}

// Terminate appends a period when s does not already end with terminal
// punctuation.
func Terminate(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	if isTerminal(rune(s[len(s)-1])) {
		return s
	}
	return s + "."
}

// Chunk packs sentences into pieces no longer than limit characters,
// preserving sentence boundaries and order. A single sentence longer than
// the limit becomes its own piece rather than being cut mid-sentence.
func Chunk(u string, limit int) []string {
	sentences := Split(u)
	if len(sentences) == 0 {
		return nil
	}

	var pieces []string
	var current strings.Builder
	for _, s := range sentences {
		if current.Len() > 0 && current.Len()+1+len(s) > limit {
			pieces = append(pieces, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteByte(' ')
		}
		current.WriteString(s)
	}
	if current.Len() > 0 {
		pieces = append(pieces, current.String())
	}
	return pieces
}
