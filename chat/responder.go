package chat

import (
	"fmt"
	"regexp"

	"CodeMart/config"
)

type autoRule struct {
	re    *regexp.Regexp
	reply string
}

// Responder evaluates the configured canned-reply rules against
// visitor-authored text. Matching is case-insensitive, ordered,
// first-match-wins, and entirely stateless.
type Responder struct {
	rules []autoRule
}

func NewResponder(rules []config.AutoResponseRule) (*Responder, error) {
	r := &Responder{}
	for _, rule := range rules {
		re, err := regexp.Compile("(?i)" + rule.Pattern)
		if err != nil {
			return nil, fmt.Errorf("auto-response pattern %q: %w", rule.Pattern, err)
		}
		r.rules = append(r.rules, autoRule{re: re, reply: rule.Reply})
	}
	return r, nil
}

// Match returns the canned reply for the first rule matching text, if any.
func (r *Responder) Match(text string) (string, bool) {
	for _, rule := range r.rules {
		if rule.re.MatchString(text) {
			return rule.reply, true
		}
	}
	return "", false
}
