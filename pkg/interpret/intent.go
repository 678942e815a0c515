package interpret

import (
	"strings"
	"unicode"
)

// Intent is the operation a command asks for.
type Intent string

const (
	IntentSearch  Intent = "search"
	IntentAdd     Intent = "add"
	IntentUpdate  Intent = "update"
	IntentDelete  Intent = "delete"
	IntentUnknown Intent = "unknown"
)

// intentKeywords is checked in order; the first set with a hit wins.
var intentKeywords = []struct {
	intent   Intent
	keywords map[string]bool
}{
	{IntentSearch, wordSet("search", "find", "show", "list", "get", "lookup", "look", "display",
		"view", "query", "fetch", "retrieve")},
	{IntentAdd, wordSet("add", "create", "insert", "register")},
	{IntentUpdate, wordSet("update", "modify", "change", "edit", "set", "correct", "amend")},
	{IntentDelete, wordSet("delete", "remove", "erase", "drop", "purge", "destroy")},
}

// stopWords are stripped from entity text before correction.
var stopWords = wordSet("for", "in", "with", "the", "a", "an", "of")

// commandWords appear in commands of every intent and never name a person.
var commandWords = wordSet("who", "where", "what", "when", "which", "new", "record", "records", "enter", "me", "please")

// ClassifyIntent returns the intent of a command from its keywords.
func ClassifyIntent(text string) Intent {
	words := lowerWords(text)
	for _, set := range intentKeywords {
		for _, w := range words {
			if set.keywords[w] {
				return set.intent
			}
		}
	}
	return IntentUnknown
}

// Vocabulary returns the words that never name a person: intent keywords,
// command words and stop-words.
func Vocabulary() []string {
	var out []string
	for _, set := range intentKeywords {
		for w := range set.keywords {
			out = append(out, w)
		}
	}
	for _, set := range []map[string]bool{commandWords, stopWords} {
		for w := range set {
			out = append(out, w)
		}
	}
	return out
}

// lowerWords lower-cases text and splits it on anything that is not a letter or digit.
func lowerWords(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func wordSet(words ...string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}
