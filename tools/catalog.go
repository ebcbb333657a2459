// Package tools defines the advisor's tool catalog: named, read-only
// query functions over the financial data store that the model can
// invoke during a conversation.
//
// Tools validate their own inputs and report domain conditions ("user
// not found", "no rates available") as human-readable text. A failed
// tool call degrades the conversation; it never aborts it.
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mcsplatform/advisor-go-sdk/core"
	"github.com/mcsplatform/advisor-go-sdk/finstore"
)

// Deps holds shared dependencies for all catalog tools.
type Deps struct {
	Store *finstore.Store
}

// CreateTools returns the full advisor tool catalog.
func CreateTools(deps *Deps) []core.Tool {
	return []core.Tool{
		createUserProfileTool(deps),
		createFinancialOverviewTool(deps),
		createAccountSummaryTool(deps),
		createUserAccountsTool(deps),
		createUserBalanceTool(deps),
		createTotalBalanceTool(deps),
		createBalanceSummaryTool(deps),
		createCheckAccountBalanceTool(deps),
		createFXRateTool(deps),
		createCompareFXRatesTool(deps),
		createConvertCurrencyTool(deps),
		createAvailableCurrenciesTool(deps),
		createPopularPairsTool(deps),
		createBankInfoTool(deps),
		createAllBanksInfoTool(deps),
		createConnectedProductsTool(deps),
		createProductFeesTool(deps),
	}
}

// textResult wraps human-readable tool output.
func textResult(s string) *core.ToolResult {
	return &core.ToolResult{Success: true, Data: s}
}

// failResult reports a tool failure as text the model can recover from.
func failResult(format string, args ...interface{}) *core.ToolResult {
	return &core.ToolResult{Success: false, Error: fmt.Sprintf(format, args...)}
}

func decodeInput(raw json.RawMessage, v interface{}) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, v)
}

// money renders an amount with its explicit currency code, never bare.
func money(d decimal.Decimal, currency string) string {
	return d.StringFixed(2) + " " + currency
}

// currencyTotals sums account balances per currency, preserving the
// order currencies are first seen. Accounts without a reported balance
// are counted separately, never treated as zero.
type currencyTotals struct {
	order  []string
	totals map[string]decimal.Decimal
	counts map[string]int
}

func newCurrencyTotals() *currencyTotals {
	return &currencyTotals{
		totals: make(map[string]decimal.Decimal),
		counts: make(map[string]int),
	}
}

func (t *currencyTotals) add(currency string, amount decimal.Decimal) {
	if _, seen := t.totals[currency]; !seen {
		t.order = append(t.order, currency)
	}
	t.totals[currency] = t.totals[currency].Add(amount)
	t.counts[currency]++
}

func (t *currencyTotals) empty() bool { return len(t.order) == 0 }

// ────────────────────────────────────────────────────────────────────────────
// get_user_profile
// ────────────────────────────────────────────────────────────────────────────

func createUserProfileTool(deps *Deps) core.Tool {
	return New("get_user_profile").
		Description("Get the signed-in user's personal profile information.").
		Schema(ObjectSchema(map[string]interface{}{})).
		Handler(func(ctx context.Context, params *core.ToolParams) (*core.ToolResult, error) {
			if params.UserID == "" {
				return failResult("no user is signed in"), nil
			}
			user, err := deps.Store.User(ctx, params.UserID)
			if err != nil {
				if isNotFound(err) {
					return textResult("User not found"), nil
				}
				return failResult("error retrieving user profile: %v", err), nil
			}

			accounts, err := deps.Store.AccountsForUser(ctx, params.UserID)
			if err != nil {
				return failResult("error retrieving accounts: %v", err), nil
			}
			banks, err := deps.Store.InstitutionNames(ctx, params.UserID)
			if err != nil {
				return failResult("error retrieving institutions: %v", err), nil
			}

			status := "Active"
			if !user.Active {
				status = "Inactive"
			}

			var b strings.Builder
			b.WriteString("👤 User Profile:\n")
			fmt.Fprintf(&b, "Name: %s %s\n", user.FirstName, user.LastName)
			fmt.Fprintf(&b, "Username: %s\n", user.Username)
			fmt.Fprintf(&b, "Email: %s\n", user.Email)
			fmt.Fprintf(&b, "Account Status: %s\n", status)
			fmt.Fprintf(&b, "Connected Accounts: %d\n", len(accounts))
			if len(banks) > 0 {
				fmt.Fprintf(&b, "Banking Partners: %s\n", strings.Join(banks, ", "))
			}
			return textResult(b.String()), nil
		}).
		Build()
}

// ────────────────────────────────────────────────────────────────────────────
// get_user_financial_overview
// ────────────────────────────────────────────────────────────────────────────

func createFinancialOverviewTool(deps *Deps) core.Tool {
	return New("get_user_financial_overview").
		Description("Get a comprehensive financial overview for the signed-in user: account counts, banking relationships, currencies, and balances grouped by currency.").
		Schema(ObjectSchema(map[string]interface{}{})).
		Handler(func(ctx context.Context, params *core.ToolParams) (*core.ToolResult, error) {
			if params.UserID == "" {
				return failResult("no user is signed in"), nil
			}
			user, err := deps.Store.User(ctx, params.UserID)
			if err != nil {
				if isNotFound(err) {
					return textResult("User not found"), nil
				}
				return failResult("error retrieving financial overview: %v", err), nil
			}
			accounts, err := deps.Store.AccountsForUser(ctx, params.UserID)
			if err != nil {
				return failResult("error retrieving accounts: %v", err), nil
			}

			active, withBalance := 0, 0
			bankSet := map[string]bool{}
			currencySet := map[string]bool{}
			var bankOrder, currencyOrder []string
			totals := newCurrencyTotals()
			for _, a := range accounts {
				if a.Status == finstore.StatusActive {
					active++
				}
				if !bankSet[a.InstitutionName] {
					bankSet[a.InstitutionName] = true
					bankOrder = append(bankOrder, a.InstitutionName)
				}
				if a.Currency != "" && !currencySet[a.Currency] {
					currencySet[a.Currency] = true
					currencyOrder = append(currencyOrder, a.Currency)
				}
				if a.AvailableBalance != nil {
					withBalance++
					totals.add(a.Currency, *a.AvailableBalance)
				}
			}

			var b strings.Builder
			fmt.Fprintf(&b, "📊 Financial Overview for %s:\n\n", user.DisplayName())
			b.WriteString("📈 Account Summary:\n")
			fmt.Fprintf(&b, "• Total Accounts: %d\n", len(accounts))
			fmt.Fprintf(&b, "• Active Accounts: %d\n", active)
			fmt.Fprintf(&b, "• Accounts with Balance: %d\n\n", withBalance)

			b.WriteString("🏦 Banking Relationships:\n")
			fmt.Fprintf(&b, "• Connected Banks: %d\n", len(bankOrder))
			if len(bankOrder) > 0 {
				fmt.Fprintf(&b, "• Banks: %s\n\n", strings.Join(bankOrder, ", "))
			}

			b.WriteString("💱 Currency Portfolio:\n")
			fmt.Fprintf(&b, "• Currencies: %d\n", len(currencyOrder))
			if len(currencyOrder) > 0 {
				fmt.Fprintf(&b, "• Types: %s\n\n", strings.Join(currencyOrder, ", "))
			}

			if !totals.empty() {
				b.WriteString("💰 Balance Portfolio:\n")
				for _, currency := range totals.order {
					fmt.Fprintf(&b, "• %s: %s\n", currency, totals.totals[currency].StringFixed(2))
				}
			}
			return textResult(b.String()), nil
		}).
		Build()
}

// ────────────────────────────────────────────────────────────────────────────
// get_user_account_summary
// ────────────────────────────────────────────────────────────────────────────

func createAccountSummaryTool(deps *Deps) core.Tool {
	return New("get_user_account_summary").
		Description("Get the signed-in user's accounts grouped by bank, with personalized insights.").
		Schema(ObjectSchema(map[string]interface{}{})).
		Handler(func(ctx context.Context, params *core.ToolParams) (*core.ToolResult, error) {
			if params.UserID == "" {
				return failResult("no user is signed in"), nil
			}
			user, err := deps.Store.User(ctx, params.UserID)
			if err != nil {
				if isNotFound(err) {
					return textResult("User not found"), nil
				}
				return failResult("error retrieving account summary: %v", err), nil
			}
			accounts, err := deps.Store.AccountsForUser(ctx, params.UserID)
			if err != nil {
				return failResult("error retrieving accounts: %v", err), nil
			}

			var b strings.Builder
			fmt.Fprintf(&b, "📋 Account Summary for %s:\n\n", user.DisplayName())
			if len(accounts) == 0 {
				b.WriteString("No accounts connected yet. Consider linking your bank accounts for better financial management.\n")
				return textResult(b.String()), nil
			}

			var bankOrder []string
			byBank := map[string][]finstore.Account{}
			currencySet := map[string]bool{}
			inactive := 0
			for _, a := range accounts {
				if _, seen := byBank[a.InstitutionName]; !seen {
					bankOrder = append(bankOrder, a.InstitutionName)
				}
				byBank[a.InstitutionName] = append(byBank[a.InstitutionName], a)
				currencySet[a.Currency] = true
				if a.Status == finstore.StatusInactive {
					inactive++
				}
			}

			for _, bank := range bankOrder {
				fmt.Fprintf(&b, "🏦 %s:\n", bank)
				for _, a := range byBank[bank] {
					fmt.Fprintf(&b, "   • Account: %s\n", a.AccountID)
					fmt.Fprintf(&b, "     Currency: %s\n", a.Currency)
					fmt.Fprintf(&b, "     Status: %s\n", a.Status)
					if a.AvailableBalance != nil {
						fmt.Fprintf(&b, "     Balance: %s\n", money(*a.AvailableBalance, a.Currency))
					} else {
						b.WriteString("     Balance: Not available\n")
					}
				}
				b.WriteString("\n")
			}

			b.WriteString("💡 Personalized Insights:\n")
			switch {
			case len(bankOrder) == 1:
				b.WriteString("• Consider diversifying across multiple banks for better rates\n")
			case len(bankOrder) > 3:
				b.WriteString("• You have accounts across multiple banks - great diversification!\n")
			}
			if len(currencySet) > 1 {
				b.WriteString("• Multi-currency portfolio detected - use our converter for better rates\n")
			}
			if inactive > 0 {
				fmt.Fprintf(&b, "• You have %d inactive account(s) - consider reactivating\n", inactive)
			}
			return textResult(b.String()), nil
		}).
		Build()
}

// ────────────────────────────────────────────────────────────────────────────
// get_user_accounts
// ────────────────────────────────────────────────────────────────────────────

func createUserAccountsTool(deps *Deps) core.Tool {
	return New("get_user_accounts").
		Description("List the signed-in user's linked bank accounts.").
		Schema(ObjectSchema(map[string]interface{}{})).
		Handler(func(ctx context.Context, params *core.ToolParams) (*core.ToolResult, error) {
			if params.UserID == "" {
				return failResult("no user is signed in"), nil
			}
			accounts, err := deps.Store.AccountsForUser(ctx, params.UserID)
			if err != nil {
				return failResult("error retrieving user accounts: %v", err), nil
			}
			if len(accounts) == 0 {
				return textResult("No accounts found for this user"), nil
			}

			var b strings.Builder
			fmt.Fprintf(&b, "User Accounts (%d):\n", len(accounts))
			for _, a := range accounts {
				fmt.Fprintf(&b, "\n--- %s ---\n", a.InstitutionName)
				fmt.Fprintf(&b, "Account ID: %s\n", a.AccountID)
				fmt.Fprintf(&b, "Currency: %s\n", a.Currency)
				if a.AvailableBalance != nil {
					fmt.Fprintf(&b, "Balance: %s\n", money(*a.AvailableBalance, a.Currency))
				}
				fmt.Fprintf(&b, "Status: %s\n", a.Status)
			}
			return textResult(b.String()), nil
		}).
		Build()
}

// ────────────────────────────────────────────────────────────────────────────
// get_user_balance
// ────────────────────────────────────────────────────────────────────────────

func createUserBalanceTool(deps *Deps) core.Tool {
	return New("get_user_balance").
		Description("Get the signed-in user's balance for one account or all accounts.").
		Schema(ObjectSchema(map[string]interface{}{
			"account_id": StringProperty("Optional: restrict to a single account id"),
		})).
		Handler(func(ctx context.Context, params *core.ToolParams) (*core.ToolResult, error) {
			if params.UserID == "" {
				return failResult("no user is signed in"), nil
			}
			var in struct {
				AccountID string `json:"account_id"`
			}
			if err := decodeInput(params.Input, &in); err != nil {
				return failResult("invalid input: %v", err), nil
			}

			accounts, err := deps.Store.AccountsForUser(ctx, params.UserID)
			if err != nil {
				return failResult("error retrieving balances: %v", err), nil
			}
			if in.AccountID != "" {
				var filtered []finstore.Account
				for _, a := range accounts {
					if a.AccountID == in.AccountID {
						filtered = append(filtered, a)
					}
				}
				accounts = filtered
			}
			if len(accounts) == 0 {
				return textResult("No accounts found"), nil
			}

			lines := make([]string, 0, len(accounts))
			for _, a := range accounts {
				balance := "Not available"
				if a.AvailableBalance != nil {
					balance = money(*a.AvailableBalance, a.Currency)
				}
				lines = append(lines, fmt.Sprintf("Bank: %s, Account: %s, Balance: %s, Status: %s",
					a.InstitutionName, a.AccountID, balance, a.Status))
			}
			return textResult("User account balances: " + strings.Join(lines, "; ")), nil
		}).
		Build()
}

// ────────────────────────────────────────────────────────────────────────────
// get_total_balance
// ────────────────────────────────────────────────────────────────────────────

func createTotalBalanceTool(deps *Deps) core.Tool {
	return New("get_total_balance").
		Description("Get the signed-in user's total balance across all accounts, grouped by currency. Balances in different currencies are never summed together.").
		Schema(ObjectSchema(map[string]interface{}{})).
		Handler(func(ctx context.Context, params *core.ToolParams) (*core.ToolResult, error) {
			if params.UserID == "" {
				return failResult("no user is signed in"), nil
			}
			accounts, err := deps.Store.AccountsForUser(ctx, params.UserID)
			if err != nil {
				return failResult("error retrieving balances: %v", err), nil
			}

			totals := newCurrencyTotals()
			for _, a := range accounts {
				if a.AvailableBalance != nil {
					totals.add(a.Currency, *a.AvailableBalance)
				}
			}
			if totals.empty() {
				return textResult("No accounts with balance data found"), nil
			}

			var b strings.Builder
			b.WriteString("Total balances by currency:\n")
			for _, currency := range totals.order {
				fmt.Fprintf(&b, "%s: %s\n", currency, totals.totals[currency].StringFixed(2))
			}
			return textResult(b.String()), nil
		}).
		Build()
}

// ────────────────────────────────────────────────────────────────────────────
// get_balance_summary
// ────────────────────────────────────────────────────────────────────────────

func createBalanceSummaryTool(deps *Deps) core.Tool {
	return New("get_balance_summary").
		Description("Get a comprehensive balance summary: per-currency totals, contributing banks, and account status breakdown.").
		Schema(ObjectSchema(map[string]interface{}{})).
		Handler(func(ctx context.Context, params *core.ToolParams) (*core.ToolResult, error) {
			if params.UserID == "" {
				return failResult("no user is signed in"), nil
			}
			accounts, err := deps.Store.AccountsForUser(ctx, params.UserID)
			if err != nil {
				return failResult("error generating balance summary: %v", err), nil
			}
			if len(accounts) == 0 {
				return textResult("No accounts found for this user"), nil
			}

			active, withBalance := 0, 0
			totals := newCurrencyTotals()
			banksByCurrency := map[string][]string{}
			statusOrder := []string{}
			statusCounts := map[string]int{}
			for _, a := range accounts {
				if a.Status == finstore.StatusActive {
					active++
				}
				status := a.Status
				if status == "" {
					status = "Unknown"
				}
				if _, seen := statusCounts[status]; !seen {
					statusOrder = append(statusOrder, status)
				}
				statusCounts[status]++
				if a.AvailableBalance != nil {
					withBalance++
					totals.add(a.Currency, *a.AvailableBalance)
					banksByCurrency[a.Currency] = appendUnique(banksByCurrency[a.Currency], a.InstitutionName)
				}
			}

			var b strings.Builder
			b.WriteString("📊 Balance Summary Report:\n")
			fmt.Fprintf(&b, "Total Accounts: %d\n", len(accounts))
			fmt.Fprintf(&b, "Active Accounts: %d\n", active)
			fmt.Fprintf(&b, "Accounts with Balance Data: %d\n\n", withBalance)

			if !totals.empty() {
				b.WriteString("💱 Balance by Currency:\n")
				for _, currency := range totals.order {
					fmt.Fprintf(&b, "• %s: %s across %d account(s)\n",
						currency, totals.totals[currency].StringFixed(2), totals.counts[currency])
					fmt.Fprintf(&b, "  Banks: %s\n", strings.Join(banksByCurrency[currency], ", "))
				}
			}

			b.WriteString("\n📋 Account Status:\n")
			for _, status := range statusOrder {
				fmt.Fprintf(&b, "• %s: %d account(s)\n", status, statusCounts[status])
			}
			return textResult(b.String()), nil
		}).
		Build()
}

// ────────────────────────────────────────────────────────────────────────────
// check_account_balance
// ────────────────────────────────────────────────────────────────────────────

func createCheckAccountBalanceTool(deps *Deps) core.Tool {
	return New("check_account_balance").
		Description("Check the signed-in user's balance at a specific bank. Bank name matching is a case-insensitive substring match.").
		Schema(ObjectSchema(map[string]interface{}{
			"bank_name": StringProperty("Bank name or part of it, e.g. 'Arab Bank'"),
		}, "bank_name")).
		Handler(func(ctx context.Context, params *core.ToolParams) (*core.ToolResult, error) {
			if params.UserID == "" {
				return failResult("no user is signed in"), nil
			}
			var in struct {
				BankName string `json:"bank_name"`
			}
			if err := decodeInput(params.Input, &in); err != nil {
				return failResult("invalid input: %v", err), nil
			}
			if strings.TrimSpace(in.BankName) == "" {
				return failResult("bank_name is required"), nil
			}

			accounts, err := deps.Store.AccountsAtInstitution(ctx, params.UserID, in.BankName)
			if err != nil {
				return failResult("error checking account balance: %v", err), nil
			}
			if len(accounts) == 0 {
				return textResult(fmt.Sprintf("No accounts found at %s", in.BankName)), nil
			}

			var b strings.Builder
			fmt.Fprintf(&b, "💰 Balance at %s:\n", in.BankName)
			totals := newCurrencyTotals()
			for _, a := range accounts {
				fmt.Fprintf(&b, "\n📱 Account: %s\n", a.AccountID)
				fmt.Fprintf(&b, "   Currency: %s\n", a.Currency)
				if a.AvailableBalance != nil {
					fmt.Fprintf(&b, "   Balance: %s\n", money(*a.AvailableBalance, a.Currency))
					totals.add(a.Currency, *a.AvailableBalance)
				} else {
					b.WriteString("   Balance: Not available\n")
				}
				fmt.Fprintf(&b, "   Status: %s\n", a.Status)
			}
			if !totals.empty() {
				fmt.Fprintf(&b, "\n📊 Total at %s:\n", in.BankName)
				for _, currency := range totals.order {
					fmt.Fprintf(&b, "   %s: %s\n", currency, totals.totals[currency].StringFixed(2))
				}
			}
			return textResult(b.String()), nil
		}).
		Build()
}

func appendUnique(list []string, v string) []string {
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}

func isNotFound(err error) bool {
	return errors.Is(err, core.ErrNotFound)
}
