package finstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mcsplatform/advisor-go-sdk/core"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func mustInsertInstitution(t *testing.T, store *Store, name string) int64 {
	t.Helper()
	id, err := store.InsertInstitution(context.Background(), Institution{Name: name})
	if err != nil {
		t.Fatalf("insert institution %s: %v", name, err)
	}
	return id
}

func mustInsertRate(t *testing.T, store *Store, instID int64, source, target, value string, age time.Duration) {
	t.Helper()
	v, err := decimal.NewFromString(value)
	if err != nil {
		t.Fatalf("bad rate value %q: %v", value, err)
	}
	err = store.InsertRate(context.Background(), FXRate{
		InstitutionID:   instID,
		SourceCurrency:  source,
		TargetCurrency:  target,
		ConversionValue: v,
		InverseValue:    decimal.NewFromInt(1).DivRound(v, 6),
		EffectiveDate:   time.Now().UTC().Add(-age),
	})
	if err != nil {
		t.Fatalf("insert rate: %v", err)
	}
}

func TestUserNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.User(context.Background(), "missing")
	if !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLatestRatePicksNewest(t *testing.T) {
	store := newTestStore(t)
	bank := mustInsertInstitution(t, store, "Arab Bank")

	mustInsertRate(t, store, bank, "USD", "JOD", "0.7100", 48*time.Hour)
	mustInsertRate(t, store, bank, "USD", "JOD", "0.7090", 1*time.Hour)

	rate, err := store.LatestRate(context.Background(), "usd", "jod", "")
	if err != nil {
		t.Fatalf("latest rate: %v", err)
	}
	if got := rate.ConversionValue.String(); got != "0.709" {
		t.Errorf("latest rate = %s, want 0.709", got)
	}
	if rate.InstitutionName != "Arab Bank" {
		t.Errorf("institution = %s, want Arab Bank", rate.InstitutionName)
	}
}

func TestLatestRateMissingPair(t *testing.T) {
	store := newTestStore(t)

	_, err := store.LatestRate(context.Background(), "USD", "EUR", "")
	if !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRatesForPairInstitutionFilter(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	arab := mustInsertInstitution(t, store, "Arab Bank")
	housing := mustInsertInstitution(t, store, "Housing Bank for Trade & Finance")

	mustInsertRate(t, store, arab, "USD", "JOD", "0.7090", time.Hour)
	mustInsertRate(t, store, housing, "USD", "JOD", "0.7085", 2*time.Hour)

	rates, err := store.RatesForPair(ctx, "USD", "JOD", "housing", 5)
	if err != nil {
		t.Fatalf("rates for pair: %v", err)
	}
	if len(rates) != 1 {
		t.Fatalf("got %d rates, want 1", len(rates))
	}
	if rates[0].InstitutionName != "Housing Bank for Trade & Finance" {
		t.Errorf("institution = %s", rates[0].InstitutionName)
	}

	all, err := store.RatesForPair(ctx, "USD", "JOD", "", 5)
	if err != nil {
		t.Fatalf("rates for pair: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("got %d rates, want 2", len(all))
	}
	// Newest first.
	if all[0].InstitutionName != "Arab Bank" {
		t.Errorf("first rate from %s, want Arab Bank", all[0].InstitutionName)
	}
}

func TestRatesForPairLimit(t *testing.T) {
	store := newTestStore(t)
	bank := mustInsertInstitution(t, store, "Bank of Jordan")

	for i := 0; i < 8; i++ {
		mustInsertRate(t, store, bank, "EUR", "JOD", "0.7700", time.Duration(i)*time.Hour)
	}

	rates, err := store.RatesForPair(context.Background(), "EUR", "JOD", "", 5)
	if err != nil {
		t.Fatalf("rates for pair: %v", err)
	}
	if len(rates) != 5 {
		t.Errorf("got %d rates, want 5", len(rates))
	}
}

func TestAccountsAtInstitutionSubstring(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	arab := mustInsertInstitution(t, store, "Arab Bank")
	jordan := mustInsertInstitution(t, store, "Bank of Jordan")

	balance := decimal.NewFromFloat(2450.75)
	if err := store.InsertAccount(ctx, Account{
		UserID: "1", InstitutionID: arab, AccountID: "ARB-001",
		Status: StatusActive, Currency: "JOD", AvailableBalance: &balance,
	}); err != nil {
		t.Fatalf("insert account: %v", err)
	}
	if err := store.InsertAccount(ctx, Account{
		UserID: "1", InstitutionID: jordan, AccountID: "BOJ-001",
		Status: StatusActive, Currency: "JOD",
	}); err != nil {
		t.Fatalf("insert account: %v", err)
	}

	accounts, err := store.AccountsAtInstitution(ctx, "1", "arab")
	if err != nil {
		t.Fatalf("accounts at institution: %v", err)
	}
	if len(accounts) != 1 {
		t.Fatalf("got %d accounts, want 1", len(accounts))
	}
	if accounts[0].AccountID != "ARB-001" {
		t.Errorf("account = %s, want ARB-001", accounts[0].AccountID)
	}
	if accounts[0].AvailableBalance == nil || accounts[0].AvailableBalance.String() != "2450.75" {
		t.Errorf("balance = %v, want 2450.75", accounts[0].AvailableBalance)
	}
}

func TestAccountWithoutBalanceStaysNil(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	bank := mustInsertInstitution(t, store, "Jordan Kuwait Bank")

	if err := store.InsertAccount(ctx, Account{
		UserID: "1", InstitutionID: bank, AccountID: "JKB-001",
		Status: StatusInactive, Currency: "JOD",
	}); err != nil {
		t.Fatalf("insert account: %v", err)
	}

	accounts, err := store.AccountsForUser(ctx, "1")
	if err != nil {
		t.Fatalf("accounts for user: %v", err)
	}
	if len(accounts) != 1 {
		t.Fatalf("got %d accounts, want 1", len(accounts))
	}
	if accounts[0].AvailableBalance != nil {
		t.Errorf("balance = %v, want nil", accounts[0].AvailableBalance)
	}
}

func TestCurrenciesSortedDistinct(t *testing.T) {
	store := newTestStore(t)
	bank := mustInsertInstitution(t, store, "Arab Bank")

	mustInsertRate(t, store, bank, "USD", "JOD", "0.7090", time.Hour)
	mustInsertRate(t, store, bank, "EUR", "JOD", "0.7700", time.Hour)
	mustInsertRate(t, store, bank, "USD", "EUR", "0.9200", time.Hour)

	currencies, err := store.Currencies(context.Background())
	if err != nil {
		t.Fatalf("currencies: %v", err)
	}
	want := []string{"EUR", "JOD", "USD"}
	if len(currencies) != len(want) {
		t.Fatalf("got %v, want %v", currencies, want)
	}
	for i := range want {
		if currencies[i] != want[i] {
			t.Fatalf("got %v, want %v", currencies, want)
		}
	}
}

func TestSeedIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Seed(ctx); err != nil {
		t.Fatalf("first seed: %v", err)
	}
	first, err := store.Institutions(ctx, "")
	if err != nil {
		t.Fatalf("institutions: %v", err)
	}

	if err := store.Seed(ctx); err != nil {
		t.Fatalf("second seed: %v", err)
	}
	second, err := store.Institutions(ctx, "")
	if err != nil {
		t.Fatalf("institutions: %v", err)
	}

	if len(first) == 0 || len(first) != len(second) {
		t.Errorf("institution count changed: %d then %d", len(first), len(second))
	}
}
