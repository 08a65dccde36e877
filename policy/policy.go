// Package policy classifies utterances against the voice-UX phrase tables.
//
// Matching is case-insensitive. Multi-word phrases match as substrings;
// single-word indicators match whole tokens so that "no" does not fire on
// "know". The tables are data, not control flow, so the policy can be
// extended and unit-tested without touching the shaper.
package policy

import (
	"strings"
	"unicode"
)

// redundantQuestionPhrases imply the assistant is re-asking "how can I
// help" after the greeting already asked it.
var redundantQuestionPhrases = []string{
	"how can i assist you",
	"how can i help you",
	"how may i help you",
	"how may i assist you",
	"what can i assist you",
	"what can i help you",
	"what can i do for you",
	"what would you like to know",
	"is there anything else",
	"anything else i can help",
}

// offeringHelpStatements are statement-of-offering-help patterns that
// suppress the whole utterance even without a question mark.
var offeringHelpStatements = []string{
	"i can help you with",
	"i can assist you with",
	"i am here to assist you with",
	"happy to help with anything",
}

// greetingFillers are standalone pleasantries that carry no content of
// their own.
var greetingFillers = []string{
	"hi",
	"hi there",
	"hello",
	"hello there",
	"hey",
	"hey there",
	"good morning",
	"good afternoon",
	"good evening",
	"welcome",
}

// delayPhrases stall rather than answer.
var delayPhrases = []string{
	"hold on",
	"please hold",
	"one moment",
	"just a moment",
	"give me a moment",
	"a moment please",
	"bear with me",
	"i'll get back to you",
	"i will get back to you",
	"i'll need a moment",
	"i need a moment",
}

// continuationPhrases resume speaking after information has already been
// delivered in the same turn.
var continuationPhrases = []string{
	"let me confirm",
	"let me verify",
	"let me check",
	"let me just",
	"let me go ahead",
}

// checkPhrases mark an utterance that announces a lookup.
var checkPhrases = []string{
	"let me check",
	"checking",
	"i'll check",
	"i will check",
}

// resultIndicators are concrete result tokens that excuse a leading
// "let me check" when they appear in the same utterance.
var resultIndicators = []string{
	"available",
	"confirmed",
	"booked",
	"yes",
	"no",
	"full",
	"alternative",
}

// availabilityIntentKeywords in the last user turn mean the caller was owed
// an availability answer.
var availabilityIntentKeywords = []string{
	"available",
	"book",
	"appointment",
	"slot",
	"time",
	"when",
	"check",
}

// availabilityQualifiers in a services question exempt it from the
// service-listing simplification.
var availabilityQualifiers = []string{
	"available",
	"availability",
}

// servicesQuestionPhrases recognize an enumeration question about what the
// provider offers.
var servicesQuestionPhrases = []string{
	"services",
	"what do you offer",
	"what do you provide",
	"what treatments",
	"departments",
	"specialties",
	"facilities",
}

// priceWords and currencySymbols flag pricing detail in a candidate reply.
var priceWords = []string{
	"price",
	"cost",
	"fee",
	"charge",
	"rupees",
	"dollars",
	"pounds",
	"euros",
	"starts at",
	"per session",
}

var currencySymbols = []string{"$", "₹", "€", "£"}

// completionIndicators mark a turn that reports a finished booking.
var completionIndicators = []string{"booked", "confirmed"}

// temporalPrepositions co-occur with completion indicators in a booking
// confirmation ("booked ... on Monday at 3pm").
var temporalPrepositions = []string{"on", "at", "for"}

func containsAny(s string, phrases []string) bool {
	s = strings.ToLower(s)
	for _, p := range phrases {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

func hasAnyToken(s string, tokens []string) bool {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r) && r != '\''
	})
	for _, f := range fields {
		for _, t := range tokens {
			if f == t {
				return true
			}
		}
	}
	return false
}

// IsRedundantQuestion reports whether the utterance re-asks how the
// assistant can help.
func IsRedundantQuestion(u string) bool {
	return containsAny(u, redundantQuestionPhrases)
}

// IsOfferingHelp reports whether the utterance is a statement-of-offering-help.
func IsOfferingHelp(u string) bool {
	return containsAny(u, offeringHelpStatements)
}

// HasDelayPhrase reports whether the utterance stalls instead of answering.
func HasDelayPhrase(u string) bool {
	return containsAny(u, delayPhrases)
}

// IsContinuation reports whether a sentence resumes speaking after the
// answer has already been given.
func IsContinuation(sentence string) bool {
	return containsAny(sentence, continuationPhrases)
}

// HasCheckPhrase reports whether the utterance announces a lookup.
func HasCheckPhrase(u string) bool {
	return containsAny(u, checkPhrases)
}

// HasResultIndicator reports whether a concrete result token is present.
func HasResultIndicator(u string) bool {
	return hasAnyToken(u, resultIndicators)
}

// HasAvailabilityIntent reports whether a user turn asked about booking or
// availability.
func HasAvailabilityIntent(u string) bool {
	return hasAnyToken(u, availabilityIntentKeywords)
}

// HasAvailabilityQualifier reports whether a question explicitly asks about
// availability.
func HasAvailabilityQualifier(u string) bool {
	return hasAnyToken(u, availabilityQualifiers)
}

// IsServicesQuestion reports whether a user turn asked for an enumeration
// of offered services.
func IsServicesQuestion(u string) bool {
	return containsAny(u, servicesQuestionPhrases)
}

// MentionsPricing reports whether the utterance carries currency symbols or
// price words.
func MentionsPricing(u string) bool {
	return containsAny(u, priceWords) || containsAny(u, currencySymbols)
}

// HasCompletionIndicator reports whether the utterance reports a finished
// booking.
func HasCompletionIndicator(u string) bool {
	return hasAnyToken(u, completionIndicators)
}

// IsGreetingFiller reports whether a whole sentence is nothing but a
// standalone pleasantry.
func IsGreetingFiller(sentence string) bool {
	trimmed := strings.ToLower(strings.TrimRight(strings.TrimSpace(sentence), ".!?"))
	trimmed = strings.TrimSpace(trimmed)
	for _, g := range greetingFillers {
		if trimmed == g {
			return true
		}
	}
	return false
}

// IsGenericOffer reports whether a sentence is a generic offer to help,
// in question or statement form.
func IsGenericOffer(sentence string) bool {
	return IsRedundantQuestion(sentence) || IsOfferingHelp(sentence)
}

// IsBookingConfirmation applies the keyword co-occurrence heuristic: a
// completion indicator together with a temporal preposition. It is
// approximate and can misfire on paraphrases; no ground-truth intent signal
// is available from the completion collaborator.
func IsBookingConfirmation(u string) bool {
	return HasCompletionIndicator(u) && hasAnyToken(u, temporalPrepositions)
}
