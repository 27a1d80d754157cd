package services

import (
	"regexp"
	"strings"
	"sync"
)

var BannedWords = []string{
	"fuck", "fucking", "fucker", "shit", "bullshit",
	"asshole", "bastard", "bitch", "cunt",
	"nigger", "nigga", "chink", "spic", "kike", "faggot", "fag",
	"retard", "retarded", "tranny",
	"porn", "porno", "nudes",
	"scam", "scammer", "phishing", "malware",
}

// Rejection reasons returned by ContentFilter.Check.
const (
	RejectInappropriateLanguage = "inappropriate_language"
	RejectSpam                  = "spam_detected"
	RejectExcessiveCaps         = "excessive_caps"
)

// ContentFilter screens message text before it is published. Links and
// contact details are allowed on a social network, so only language and
// obvious spam patterns are checked.
type ContentFilter struct {
	mu                sync.RWMutex
	bannedWordRegexps []*regexp.Regexp
	allCapsPattern    *regexp.Regexp
}

// maxRepeatedRun is the longest run of one character accepted in a message.
const maxRepeatedRun = 7

func NewContentFilter(words []string) *ContentFilter {
	f := &ContentFilter{
		allCapsPattern: regexp.MustCompile(`\b[A-Z]{5,}\b`),
	}
	f.SetWords(words)
	return f
}

// SetWords replaces the banned word list.
func (f *ContentFilter) SetWords(words []string) {
	compiled := make([]*regexp.Regexp, 0, len(words))
	for _, word := range words {
		word = strings.TrimSpace(word)
		if word == "" {
			continue
		}
		re, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(word) + `\b`)
		if err == nil {
			compiled = append(compiled, re)
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.bannedWordRegexps = compiled
}

// Check returns ok=false and a rejection reason when text must not be
// published.
func (f *ContentFilter) Check(text string) (bool, string) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if text == "" {
		return true, ""
	}
	for _, re := range f.bannedWordRegexps {
		if re.MatchString(text) {
			return false, RejectInappropriateLanguage
		}
	}
	if longestRun(text) > maxRepeatedRun {
		return false, RejectSpam
	}
	if len(f.allCapsPattern.FindAllString(text, -1)) > 2 {
		return false, RejectExcessiveCaps
	}
	return true, ""
}

func (f *ContentFilter) RejectionMessage(reason string) string {
	messages := map[string]string{
		RejectInappropriateLanguage: "Your message contains inappropriate language.",
		RejectSpam:                  "Your message appears to be spam.",
		RejectExcessiveCaps:         "Please avoid using excessive capital letters.",
	}
	if msg, ok := messages[reason]; ok {
		return msg
	}
	return "Your message does not meet our content guidelines."
}

func longestRun(text string) int {
	longest, run := 0, 0
	var prev rune = -1
	for _, r := range strings.ToLower(text) {
		if r == prev && r != ' ' {
			run++
		} else {
			run = 1
		}
		prev = r
		if run > longest {
			longest = run
		}
	}
	return longest
}
