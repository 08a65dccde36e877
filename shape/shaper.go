// Package shape transforms a raw completion-model utterance into a
// voice-appropriate, policy-compliant one before it is spoken.
package shape

import (
	"strings"

	"github.com/careplus-labs/voice-relay/conversation"
	"github.com/careplus-labs/voice-relay/entity"
	"github.com/careplus-labs/voice-relay/policy"
	"github.com/careplus-labs/voice-relay/sentence"
)

// Rule identifies which shaping rule fired. Results are used for logging
// only and discarded after emission.
type Rule string

const (
	RuleRedundantQuestion Rule = "redundant_question"
	RuleDelayRemoval      Rule = "delay_removal"
	RuleServiceListing    Rule = "service_listing"
	RuleContinuationTrim  Rule = "continuation_trim"
	RuleLengthCap         Rule = "length_cap"
	RuleEntityRepair      Rule = "entity_repair"
)

// Acknowledgment replaces utterances that re-ask how to help after the
// greeting has already asked it.
const Acknowledgment = "I'm here to help."

// CheckingPlaceholder stands in when a stalled reply was stripped but the
// caller was owed an availability answer.
const CheckingPlaceholder = "Checking availability."

const (
	regularSentenceCap = 2
	bookingSentenceCap = 4
)

// Result is the shaped utterance plus the rules that fired.
type Result struct {
	Text  string
	Fired []Rule
}

// Shaper applies the voice-UX rules in fixed precedence order. It is
// best-effort textual policy enforcement: it can only make output shorter
// or different, never validate factual correctness.
type Shaper struct {
	entities    *entity.Resolver
	departments []string
}

// New builds a shaper. departments is the closed set of department names
// used by the service-listing rule; entities may be nil to disable repair.
func New(entities *entity.Resolver, departments []string) *Shaper {
	return &Shaper{entities: entities, departments: departments}
}

// Shape is a total function over any text input: it never fails, and its
// output is non-empty and ends in terminal punctuation. Each rule is
// evaluated in order; a rule that fired may change the text seen by later
// rules.
func (sh *Shaper) Shape(raw string, state *conversation.State, bookingConfirmation bool) Result {
	res := Result{Text: strings.TrimSpace(raw)}

	lastUser := ""
	if state != nil {
		lastUser, _ = state.LastUserTurn()
	}

	res = sh.suppressRedundantQuestion(res)
	res = sh.removeDelayPhrases(res, lastUser)
	res = sh.simplifyServiceListing(res, lastUser)
	res = sh.trimContinuation(res)
	res = sh.enforceLength(res, bookingConfirmation)
	res = sh.repairEntities(res, state)

	if strings.TrimSpace(res.Text) == "" {
		res.Text = Acknowledgment
	}
	res.Text = sentence.Terminate(res.Text)
	return res
}

// Rule 1: an utterance that only re-asks "how can I help" (with a question
// mark) or only states an offer of help collapses to the acknowledgment.
// One substantive sentence anywhere exempts the whole utterance; a trailing
// offer question after real content is rule 3's job to drop.
func (sh *Shaper) suppressRedundantQuestion(res Result) Result {
	u := res.Text
	if u == Acknowledgment {
		return res
	}

	matched := false
	for _, s := range sentence.Split(u) {
		switch {
		case policy.IsRedundantQuestion(s) && strings.Contains(s, "?"):
			matched = true
		case policy.IsOfferingHelp(s):
			matched = true
		case policy.IsGreetingFiller(s):
			// Filler like "Hi there!" neither saves nor condemns the reply.
		default:
			return res
		}
	}
	if matched {
		res.Text = Acknowledgment
		res.Fired = append(res.Fired, RuleRedundantQuestion)
	}
	return res
}

// Rule 2: stalling sentences are stripped. If nothing remains, the caller
// gets either the availability placeholder (when their last turn asked for
// a booking or a time) or the acknowledgment.
func (sh *Shaper) removeDelayPhrases(res Result, lastUser string) Result {
	u := res.Text
	if !policy.HasDelayPhrase(u) {
		return res
	}

	var kept []string
	for _, s := range sentence.Split(u) {
		if !policy.HasDelayPhrase(s) {
			kept = append(kept, s)
		}
	}

	switch {
	case len(kept) > 0:
		// Whatever answered survives; only the stalling sentences go.
		res.Text = sentence.Terminate(sentence.Join(kept))
	case policy.HasAvailabilityIntent(lastUser):
		// An immediate answer was owed; flag that with the placeholder.
		res.Text = CheckingPlaceholder
	default:
		res.Text = Acknowledgment
	}
	res.Fired = append(res.Fired, RuleDelayRemoval)
	return res
}

// Rule 3: when the caller asked what services are offered (without an
// availability qualifier) and the reply volunteers pricing, it collapses to
// a single sentence listing the recognized departments. Trailing
// offer-to-help questions after a listing are dropped either way.
func (sh *Shaper) simplifyServiceListing(res Result, lastUser string) Result {
	if lastUser == "" || !policy.IsServicesQuestion(lastUser) || policy.HasAvailabilityQualifier(lastUser) {
		return res
	}

	if policy.MentionsPricing(res.Text) {
		if depts := sh.matchedDepartments(res.Text); len(depts) > 0 {
			res.Text = "We offer " + joinList(depts) + "."
			res.Fired = append(res.Fired, RuleServiceListing)
			return res
		}
	}

	sentences := sentence.Split(res.Text)
	trimmed := len(sentences)
	for trimmed > 1 {
		s := sentences[trimmed-1]
		if strings.Contains(s, "?") && policy.IsGenericOffer(s) {
			trimmed--
			continue
		}
		break
	}
	if trimmed < len(sentences) {
		res.Text = sentence.Terminate(sentence.Join(sentences[:trimmed]))
		res.Fired = append(res.Fired, RuleServiceListing)
	}
	return res
}

// Rule 4: from the second sentence onward, the first sentence that resumes
// with "let me confirm/verify" truncates everything from itself on. A
// check phrase followed by a concrete result token in the same sentence is
// allowed through.
func (sh *Shaper) trimContinuation(res Result) Result {
	sentences := sentence.Split(res.Text)
	for i := 1; i < len(sentences); i++ {
		s := sentences[i]
		if !policy.IsContinuation(s) {
			continue
		}
		if policy.HasCheckPhrase(s) && policy.HasResultIndicator(s) {
			continue
		}
		res.Text = sentence.Terminate(sentence.Join(sentences[:i]))
		res.Fired = append(res.Fired, RuleContinuationTrim)
		break
	}
	return res
}

// Rule 5: booking confirmations get four sentences, everything else two.
func (sh *Shaper) enforceLength(res Result, bookingConfirmation bool) Result {
	limit := regularSentenceCap
	if bookingConfirmation {
		limit = bookingSentenceCap
	}
	sentences := sentence.Split(res.Text)
	if len(sentences) > limit {
		res.Text = sentence.Terminate(sentence.Join(sentences[:limit]))
		res.Fired = append(res.Fired, RuleLengthCap)
	}
	return res
}

// Rule 6: a completed booking that still references a generic doctor gets
// the concrete practitioner from recent conversation context. No entity in
// the lookback window means no substitution; nothing is fabricated.
func (sh *Shaper) repairEntities(res Result, state *conversation.State) Result {
	if sh.entities == nil || state == nil {
		return res
	}
	if !policy.HasCompletionIndicator(res.Text) {
		return res
	}
	m, ok := sh.entities.Resolve(state.Recent(entity.DefaultWindow))
	if !ok {
		return res
	}
	repaired := entity.Repair(res.Text, m)
	if repaired != res.Text {
		res.Text = repaired
		res.Fired = append(res.Fired, RuleEntityRepair)
	}
	return res
}

func (sh *Shaper) matchedDepartments(u string) []string {
	lower := strings.ToLower(u)
	var out []string
	for _, d := range sh.departments {
		if strings.Contains(lower, strings.ToLower(d)) {
			out = append(out, d)
		}
	}
	return out
}

func joinList(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	case 2:
		return items[0] + " and " + items[1]
	default:
		return strings.Join(items[:len(items)-1], ", ") + ", and " + items[len(items)-1]
	}
}
