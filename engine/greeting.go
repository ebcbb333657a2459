package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mcsplatform/advisor-go-sdk/finstore"
)

// greetingWords are the phrases that trigger the greeting short-circuit.
var greetingWords = []string{
	"hello",
	"hi",
	"hey",
	"good morning",
	"good afternoon",
	"good evening",
}

// fallbackGreeting is used when the user cannot be looked up.
const fallbackGreeting = "Hello! I'm your AI financial assistant. How can I help you today?"

// IsGreeting reports whether the message is a plain greeting: an exact
// greeting phrase, a message starting with one, or a message of at most
// three words containing one.
func IsGreeting(message string) bool {
	normalized := strings.ToLower(strings.TrimSpace(message))
	normalized = strings.TrimRight(normalized, "!.?, ")
	if normalized == "" {
		return false
	}
	for _, w := range greetingWords {
		if normalized == w || strings.HasPrefix(normalized, w+" ") || strings.HasPrefix(normalized, w+",") {
			return true
		}
	}
	words := strings.Fields(normalized)
	if len(words) <= 3 {
		for _, word := range words {
			word = strings.Trim(word, "!.?,")
			for _, w := range greetingWords {
				if word == w {
					return true
				}
			}
		}
	}
	return false
}

// salutation returns the time-of-day greeting word.
func salutation(t time.Time) string {
	switch h := t.Hour(); {
	case h < 12:
		return "Good morning"
	case h < 17:
		return "Good afternoon"
	default:
		return "Good evening"
	}
}

// personalizedGreeting builds a deterministic greeting for the user
// without calling the model: salutation, first name, and a one-line
// account summary. Falls back to a generic greeting when the user
// cannot be loaded.
func personalizedGreeting(ctx context.Context, store *finstore.Store, userID string, now time.Time) string {
	if store == nil || userID == "" {
		return fallbackGreeting
	}

	user, err := store.User(ctx, userID)
	if err != nil {
		return fallbackGreeting
	}

	accounts, err := store.AccountsForUser(ctx, userID)
	if err != nil {
		accounts = nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s, %s! 👋 ", salutation(now), user.DisplayName())
	switch len(accounts) {
	case 0:
		b.WriteString("You don't have any connected bank accounts yet. ")
	case 1:
		b.WriteString("You have 1 connected bank account. ")
	default:
		fmt.Fprintf(&b, "You have %d connected bank accounts. ", len(accounts))
	}
	b.WriteString("How can I help you with your finances today?")
	return b.String()
}
