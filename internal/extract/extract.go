// Package extract opportunistically updates profile fields from user
// utterances. Matching is a prioritized ordered-pattern scan; the first
// matching pattern wins and later patterns are ignored. That tie-break is a
// contract, not an implementation detail.
package extract

import (
	"strings"
	"unicode"

	"github.com/hindihour/neha/internal/memory"
)

// namePhrases in priority order. The token immediately following the first
// matching phrase becomes the user name.
var namePhrases = []string{
	"mera naam ",
	"my name is ",
	"i am ",
	"this is ",
}

// maleMarkers are checked before femaleMarkers; first match wins.
var maleMarkers = []string{"i am male", "main ladka hoon", "boy", "man"}

var femaleMarkers = []string{"i am female", "main ladki hoon", "girl", "woman"}

// Apply scans the utterance and mutates the record in place. It never fails;
// on no match the record is unchanged. Returns whether anything changed.
func Apply(rec *memory.Record, utterance string) bool {
	text := strings.ToLower(utterance)
	changed := false

	if rec.UserName == "" {
		if name := firstName(text); name != "" {
			rec.UserName = name
			changed = true
		}
	}

	if hint := genderHint(text); hint != memory.GenderUnknown && hint != rec.Gender {
		rec.Gender = hint
		changed = true
	}

	return changed
}

func firstName(text string) string {
	for _, phrase := range namePhrases {
		idx := strings.Index(text, phrase)
		if idx < 0 {
			continue
		}
		rest := strings.Fields(text[idx+len(phrase):])
		if len(rest) == 0 {
			continue
		}
		return TitleCase(rest[0])
	}
	return ""
}

func genderHint(text string) memory.GenderHint {
	for _, marker := range maleMarkers {
		if strings.Contains(text, marker) {
			return memory.GenderMale
		}
	}
	for _, marker := range femaleMarkers {
		if strings.Contains(text, marker) {
			return memory.GenderFemale
		}
	}
	return memory.GenderUnknown
}

// TitleCase title-cases every word, so a confirmed full name like
// "mary jane" becomes "Mary Jane". Interior whitespace collapses to one
// space.
func TitleCase(name string) string {
	words := strings.Fields(strings.ToLower(name))
	for i, word := range words {
		runes := []rune(word)
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}
