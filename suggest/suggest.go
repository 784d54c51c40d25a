// Package suggest derives follow-up prompts from the latest assistant reply.
package suggest

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxFollowUps is the number of follow-ups derived from a reply.
const MaxFollowUps = 3

const (
	maxTopicRunes = 40
	maxTopicWords = 6
)

var followUps = [MaxFollowUps]string{
	"Tell me more about %s",
	"Can you give an example of %s?",
	"What are the alternatives to %s?",
}

// DeriveFollowUps returns up to MaxFollowUps prompts about the topic of
// reply. The topic is the first quoted passage, or else the opening words of
// the first sentence. A reply with no usable topic yields nil.
func DeriveFollowUps(reply string) []string {
	topic := Topic(reply)
	if topic == "" {
		return nil
	}

	out := make([]string, 0, MaxFollowUps)
	for _, f := range followUps {
		out = append(out, fmt.Sprintf(f, topic))
	}
	return out
}

// Topic extracts the subject of a reply.
func Topic(reply string) string {
	if quoted, ok := firstQuoted(reply); ok {
		return clip(quoted)
	}

	sentence := reply
	if i := strings.IndexAny(reply, ".!?\n"); i >= 0 {
		sentence = reply[:i]
	}
	words := strings.Fields(sentence)
	if len(words) > maxTopicWords {
		words = words[:maxTopicWords]
	}
	return clip(strings.Join(words, " "))
}

func firstQuoted(s string) (string, bool) {
	start := strings.IndexByte(s, '"')
	if start < 0 {
		return "", false
	}
	end := strings.IndexByte(s[start+1:], '"')
	if end < 0 {
		return "", false
	}
	inner := strings.TrimSpace(s[start+1 : start+1+end])
	return inner, inner != ""
}

func clip(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	s = strings.TrimRightFunc(s, func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSpace(r)
	})
	if utf8.RuneCountInString(s) <= maxTopicRunes {
		return s
	}
	runes := []rune(s)
	return strings.TrimRightFunc(string(runes[:maxTopicRunes]), unicode.IsSpace) + "..."
}
