package engine

import (
	"context"
	"fmt"
	"log"

	"github.com/mcsplatform/advisor-go-sdk/finstore"
)

// defaultSuggestions are shown when nothing is known about the user.
var defaultSuggestions = []string{
	"What's the best USD to JOD exchange rate today?",
	"Compare USD/JOD rates across banks",
	"Which banks are on the platform?",
	"Show me popular currency pairs",
}

// Suggestions returns starter queries tailored to the user's connected
// accounts. Lookup failures fall back to the generic set; the caller
// always gets something to show.
func Suggestions(ctx context.Context, store *finstore.Store, userID string) []string {
	if store == nil || userID == "" {
		return defaultSuggestions
	}

	accounts, err := store.AccountsForUser(ctx, userID)
	if err != nil {
		log.Printf("[AGENT] suggestions lookup failed: %v", err)
		return defaultSuggestions
	}
	if len(accounts) == 0 {
		return append([]string{"How do I connect my first bank account?"}, defaultSuggestions...)
	}

	suggestions := []string{
		"What's my total balance?",
		"Give me an overview of my accounts",
	}

	// One bank-specific and one currency-specific prompt, from the
	// first account seen.
	first := accounts[0]
	if first.InstitutionName != "" {
		suggestions = append(suggestions,
			fmt.Sprintf("What products does %s offer?", first.InstitutionName))
	}
	if first.Currency != "" && first.Currency != "JOD" {
		suggestions = append(suggestions,
			fmt.Sprintf("Convert 100 %s to JOD", first.Currency))
	} else {
		suggestions = append(suggestions, "Compare USD/JOD rates across banks")
	}

	return suggestions
}
