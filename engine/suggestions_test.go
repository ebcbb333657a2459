package engine

import (
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/mcsplatform/advisor-go-sdk/finstore"
)

func TestSuggestionsWithoutUser(t *testing.T) {
	got := Suggestions(context.Background(), nil, "")
	if len(got) == 0 {
		t.Fatal("expected default suggestions")
	}
	if got[0] != defaultSuggestions[0] {
		t.Errorf("got %v", got)
	}
}

func TestSuggestionsForConnectedUser(t *testing.T) {
	store := newTestFinstore(t)
	ctx := context.Background()
	insertTestUser(t, store)

	bankID, err := store.InsertInstitution(ctx, finstore.Institution{Name: "Housing Bank"})
	if err != nil {
		t.Fatalf("insert institution: %v", err)
	}
	balance := decimal.NewFromFloat(1180)
	err = store.InsertAccount(ctx, finstore.Account{
		UserID: "1", InstitutionID: bankID, AccountID: "HBTF-001",
		Status: finstore.StatusActive, Currency: "USD", AvailableBalance: &balance,
	})
	if err != nil {
		t.Fatalf("insert account: %v", err)
	}

	got := Suggestions(ctx, store, "1")
	joined := strings.Join(got, "\n")
	if !strings.Contains(joined, "total balance") {
		t.Errorf("missing balance suggestion: %v", got)
	}
	if !strings.Contains(joined, "Housing Bank") {
		t.Errorf("missing bank-specific suggestion: %v", got)
	}
	if !strings.Contains(joined, "Convert 100 USD to JOD") {
		t.Errorf("missing currency suggestion: %v", got)
	}
}

func TestSuggestionsForUserWithoutAccounts(t *testing.T) {
	store := newTestFinstore(t)
	insertTestUser(t, store)

	got := Suggestions(context.Background(), store, "1")
	if len(got) == 0 || !strings.Contains(got[0], "connect") {
		t.Errorf("expected onboarding suggestion first, got %v", got)
	}
}
