package chat

import (
	"testing"

	"CodeMart/config"
)

func testRules() []config.AutoResponseRule {
	return []config.AutoResponseRule{
		{Pattern: "price|cost", Reply: "Every project page lists its price; bundles are discounted at checkout."},
		{Pattern: "refund", Reply: "We offer a 14-day refund on any purchase, no questions asked."},
		{Pattern: "price match", Reply: "unreachable: the first rule already matches 'price'"},
	}
}

func TestResponderFirstMatchWins(t *testing.T) {
	r, err := NewResponder(testRules())
	if err != nil {
		t.Fatalf("NewResponder: %v", err)
	}
	reply, ok := r.Match("do you do price match?")
	if !ok {
		t.Fatal("expected a match")
	}
	if reply != testRules()[0].Reply {
		t.Fatalf("expected the earlier rule to win, got %q", reply)
	}
}

func TestResponderCaseInsensitive(t *testing.T) {
	r, err := NewResponder(testRules())
	if err != nil {
		t.Fatalf("NewResponder: %v", err)
	}
	for _, text := range []string{"what is the PRICE?", "What Is The Price?", "cost?"} {
		if _, ok := r.Match(text); !ok {
			t.Errorf("expected %q to match", text)
		}
	}
}

func TestResponderDeterministic(t *testing.T) {
	r, err := NewResponder(testRules())
	if err != nil {
		t.Fatalf("NewResponder: %v", err)
	}
	first, ok := r.Match("refund please")
	if !ok {
		t.Fatal("expected a match")
	}
	for i := 0; i < 50; i++ {
		reply, ok := r.Match("refund please")
		if !ok || reply != first {
			t.Fatalf("match not deterministic on iteration %d: %q", i, reply)
		}
	}
}

func TestResponderNoMatch(t *testing.T) {
	r, err := NewResponder(testRules())
	if err != nil {
		t.Fatalf("NewResponder: %v", err)
	}
	if reply, ok := r.Match("hello there"); ok {
		t.Fatalf("expected no match, got %q", reply)
	}
}

func TestResponderBadPattern(t *testing.T) {
	_, err := NewResponder([]config.AutoResponseRule{{Pattern: "([", Reply: "x"}})
	if err == nil {
		t.Fatal("expected an error for an invalid pattern")
	}
}
