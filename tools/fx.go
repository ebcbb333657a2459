package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mcsplatform/advisor-go-sdk/core"
	"github.com/mcsplatform/advisor-go-sdk/finstore"
)

// popularPairs is the fixed set shown by get_popular_currency_pairs.
var popularPairs = [][2]string{
	{"USD", "EUR"},
	{"USD", "GBP"},
	{"EUR", "GBP"},
	{"USD", "JPY"},
	{"USD", "JOD"},
	{"EUR", "JOD"},
}

// comparisonLimit caps how many institutions an FX comparison displays.
const comparisonLimit = 5

// ────────────────────────────────────────────────────────────────────────────
// get_fx_rate
// ────────────────────────────────────────────────────────────────────────────

func createFXRateTool(deps *Deps) core.Tool {
	return New("get_fx_rate").
		Description("Get the most recent foreign exchange rates for a currency pair, optionally filtered by bank name.").
		Schema(ObjectSchema(map[string]interface{}{
			"source_currency": StringProperty("Source currency code, e.g. 'USD'"),
			"target_currency": StringProperty("Target currency code, e.g. 'JOD'"),
			"bank_name":       StringProperty("Optional: filter rates by bank name substring"),
		}, "source_currency", "target_currency")).
		Handler(func(ctx context.Context, params *core.ToolParams) (*core.ToolResult, error) {
			var in struct {
				SourceCurrency string `json:"source_currency"`
				TargetCurrency string `json:"target_currency"`
				BankName       string `json:"bank_name"`
			}
			if err := decodeInput(params.Input, &in); err != nil {
				return failResult("invalid input: %v", err), nil
			}
			source, target, err := normalizePair(in.SourceCurrency, in.TargetCurrency)
			if err != nil {
				return failResult("%v", err), nil
			}

			rates, err := deps.Store.RatesForPair(ctx, source, target, in.BankName, 5)
			if err != nil {
				return failResult("error retrieving rates: %v", err), nil
			}
			if len(rates) == 0 {
				return textResult(fmt.Sprintf("No rates found for %s/%s", source, target)), nil
			}

			entries := make([]string, 0, len(rates))
			for _, r := range rates {
				entries = append(entries, fmt.Sprintf("%s: %s", r.InstitutionName, r.ConversionValue.String()))
			}
			return textResult(fmt.Sprintf("%s/%s rates: %s", source, target, strings.Join(entries, ", "))), nil
		}).
		Build()
}

// ────────────────────────────────────────────────────────────────────────────
// compare_fx_rates
// ────────────────────────────────────────────────────────────────────────────

func createCompareFXRatesTool(deps *Deps) core.Tool {
	return New("compare_fx_rates").
		Description("Compare a currency pair's exchange rates across banks: one latest rate per bank, ranked best to worst, with best/worst/average statistics.").
		Schema(ObjectSchema(map[string]interface{}{
			"source_currency": StringProperty("Source currency code, e.g. 'USD'"),
			"target_currency": StringProperty("Target currency code, e.g. 'JOD'"),
		}, "source_currency", "target_currency")).
		Handler(func(ctx context.Context, params *core.ToolParams) (*core.ToolResult, error) {
			var in struct {
				SourceCurrency string `json:"source_currency"`
				TargetCurrency string `json:"target_currency"`
			}
			if err := decodeInput(params.Input, &in); err != nil {
				return failResult("invalid input: %v", err), nil
			}
			source, target, err := normalizePair(in.SourceCurrency, in.TargetCurrency)
			if err != nil {
				return failResult("%v", err), nil
			}

			rates, err := deps.Store.RatesForPair(ctx, source, target, "", 200)
			if err != nil {
				return failResult("error comparing rates: %v", err), nil
			}
			if len(rates) == 0 {
				return textResult(fmt.Sprintf("No rates available for %s/%s", source, target)), nil
			}

			displayed := latestPerInstitution(rates, comparisonLimit)

			var b strings.Builder
			fmt.Fprintf(&b, "Best %s/%s rates:\n", source, target)
			sum := decimal.Zero
			best, worst := displayed[0].ConversionValue, displayed[0].ConversionValue
			for i, r := range displayed {
				fmt.Fprintf(&b, "%d. %s: %s\n", i+1, r.InstitutionName, r.ConversionValue.String())
				sum = sum.Add(r.ConversionValue)
				if r.ConversionValue.GreaterThan(best) {
					best = r.ConversionValue
				}
				if r.ConversionValue.LessThan(worst) {
					worst = r.ConversionValue
				}
			}
			avg := sum.DivRound(decimal.NewFromInt(int64(len(displayed))), 6)
			fmt.Fprintf(&b, "\nAverage rate: %s", avg.StringFixed(4))
			fmt.Fprintf(&b, "\nBest rate: %s", best.StringFixed(4))
			fmt.Fprintf(&b, "\nWorst rate: %s", worst.StringFixed(4))
			return textResult(b.String()), nil
		}).
		Build()
}

// latestPerInstitution keeps the first (newest) rate seen per institution
// and returns up to limit of them sorted descending by rate. Input must
// already be ordered newest first. Institutions with equal rates keep
// their first-seen order, so ties break stably.
func latestPerInstitution(rates []finstore.FXRate, limit int) []finstore.FXRate {
	seen := map[int64]bool{}
	var latest []finstore.FXRate
	for _, r := range rates {
		if seen[r.InstitutionID] {
			continue
		}
		seen[r.InstitutionID] = true
		latest = append(latest, r)
	}

	// Stable insertion sort, descending by conversion value.
	for i := 1; i < len(latest); i++ {
		for j := i; j > 0 && latest[j].ConversionValue.GreaterThan(latest[j-1].ConversionValue); j-- {
			latest[j], latest[j-1] = latest[j-1], latest[j]
		}
	}

	if len(latest) > limit {
		latest = latest[:limit]
	}
	return latest
}

// ────────────────────────────────────────────────────────────────────────────
// convert_currency
// ────────────────────────────────────────────────────────────────────────────

func createConvertCurrencyTool(deps *Deps) core.Tool {
	return New("convert_currency").
		Description("Convert an amount between currencies using the most recent exchange rate, optionally from a specific bank. Results are rounded half-up to 2 decimal places.").
		Schema(ObjectSchema(map[string]interface{}{
			"amount":          NumberProperty("Amount to convert; must be positive"),
			"source_currency": StringProperty("Source currency code, e.g. 'USD'"),
			"target_currency": StringProperty("Target currency code, e.g. 'JOD'"),
			"bank_name":       StringProperty("Optional: use the rate from a specific bank"),
		}, "amount", "source_currency", "target_currency")).
		Handler(func(ctx context.Context, params *core.ToolParams) (*core.ToolResult, error) {
			var in struct {
				Amount         float64 `json:"amount"`
				SourceCurrency string  `json:"source_currency"`
				TargetCurrency string  `json:"target_currency"`
				BankName       string  `json:"bank_name"`
			}
			if err := decodeInput(params.Input, &in); err != nil {
				return failResult("invalid input: %v", err), nil
			}
			if in.Amount <= 0 {
				return failResult("please provide a positive amount to convert"), nil
			}
			source, target, err := normalizePair(in.SourceCurrency, in.TargetCurrency)
			if err != nil {
				return failResult("%v", err), nil
			}

			rate, err := deps.Store.LatestRate(ctx, source, target, in.BankName)
			if err != nil {
				if isNotFound(err) {
					return textResult(fmt.Sprintf("No exchange rate found for %s/%s", source, target)), nil
				}
				return failResult("error converting currency: %v", err), nil
			}

			amount := decimal.NewFromFloat(in.Amount)
			converted := amount.Mul(rate.ConversionValue).Round(2)

			var b strings.Builder
			b.WriteString("Conversion Result:\n")
			fmt.Fprintf(&b, "%s %s = %s %s\n", amount.String(), source, converted.StringFixed(2), target)
			fmt.Fprintf(&b, "Rate: %s (%s)\n", rate.ConversionValue.String(), rate.InstitutionName)
			fmt.Fprintf(&b, "Last updated: %s", rate.EffectiveDate.Format("2006-01-02 15:04"))
			return textResult(b.String()), nil
		}).
		Build()
}

// ────────────────────────────────────────────────────────────────────────────
// get_available_currencies
// ────────────────────────────────────────────────────────────────────────────

func createAvailableCurrenciesTool(deps *Deps) core.Tool {
	return New("get_available_currencies").
		Description("List every currency available for exchange on the platform.").
		Schema(ObjectSchema(map[string]interface{}{})).
		Handler(func(ctx context.Context, params *core.ToolParams) (*core.ToolResult, error) {
			currencies, err := deps.Store.Currencies(ctx)
			if err != nil {
				return failResult("error retrieving currencies: %v", err), nil
			}
			if len(currencies) == 0 {
				return textResult("No currencies available yet"), nil
			}
			return textResult(fmt.Sprintf("Available currencies (%d):\n%s",
				len(currencies), strings.Join(currencies, ", "))), nil
		}).
		Build()
}

// ────────────────────────────────────────────────────────────────────────────
// get_popular_currency_pairs
// ────────────────────────────────────────────────────────────────────────────

func createPopularPairsTool(deps *Deps) core.Tool {
	return New("get_popular_currency_pairs").
		Description("Get popular currency pairs with their current best rates.").
		Schema(ObjectSchema(map[string]interface{}{})).
		Handler(func(ctx context.Context, params *core.ToolParams) (*core.ToolResult, error) {
			var b strings.Builder
			b.WriteString("Popular Currency Pairs:\n")
			listed := 0
			for _, pair := range popularPairs {
				rate, err := deps.Store.LatestRate(ctx, pair[0], pair[1], "")
				if err != nil {
					continue // pair not quoted, skip
				}
				fmt.Fprintf(&b, "%s/%s: %s (%s)\n",
					pair[0], pair[1], rate.ConversionValue.String(), rate.InstitutionName)
				listed++
			}
			if listed == 0 {
				return textResult("No rates available for the popular currency pairs"), nil
			}
			return textResult(b.String()), nil
		}).
		Build()
}

// ────────────────────────────────────────────────────────────────────────────
// get_bank_info / get_all_banks_info
// ────────────────────────────────────────────────────────────────────────────

func createBankInfoTool(deps *Deps) core.Tool {
	return New("get_bank_info").
		Description("Get contact and address information for a specific bank. Matching is a case-insensitive substring match; up to 3 matches are returned.").
		Schema(ObjectSchema(map[string]interface{}{
			"bank_name": StringProperty("Bank name or part of it, e.g. 'Arab'"),
		}, "bank_name")).
		Handler(func(ctx context.Context, params *core.ToolParams) (*core.ToolResult, error) {
			var in struct {
				BankName string `json:"bank_name"`
			}
			if err := decodeInput(params.Input, &in); err != nil {
				return failResult("invalid input: %v", err), nil
			}
			if strings.TrimSpace(in.BankName) == "" {
				return failResult("bank_name is required"), nil
			}

			banks, err := deps.Store.Institutions(ctx, in.BankName)
			if err != nil {
				return failResult("error retrieving bank information: %v", err), nil
			}
			if len(banks) == 0 {
				return textResult(fmt.Sprintf("No bank found with name containing '%s'", in.BankName)), nil
			}
			if len(banks) > 3 {
				banks = banks[:3]
			}

			var b strings.Builder
			b.WriteString("Bank Information:\n")
			for _, bank := range banks {
				fmt.Fprintf(&b, "\n--- %s ---\n", bank.Name)
				writeBankFields(&b, bank, "")
			}
			return textResult(b.String()), nil
		}).
		Build()
}

func createAllBanksInfoTool(deps *Deps) core.Tool {
	return New("get_all_banks_info").
		Description("List contact and address information for every bank on the platform.").
		Schema(ObjectSchema(map[string]interface{}{})).
		Handler(func(ctx context.Context, params *core.ToolParams) (*core.ToolResult, error) {
			banks, err := deps.Store.Institutions(ctx, "")
			if err != nil {
				return failResult("error retrieving all banks information: %v", err), nil
			}
			if len(banks) == 0 {
				return textResult("No banks found in the system."), nil
			}

			var b strings.Builder
			b.WriteString("🏦 Available Banks:\n\n")
			for _, bank := range banks {
				fmt.Fprintf(&b, "📌 %s\n", bank.Name)
				writeBankFields(&b, bank, "   ")
				b.WriteString("\n")
			}
			return textResult(b.String()), nil
		}).
		Build()
}

// writeBankFields prints the institution's contact fields, omitting
// whichever are absent.
func writeBankFields(b *strings.Builder, bank finstore.Institution, indent string) {
	if bank.WebsiteURL != "" {
		fmt.Fprintf(b, "%sWebsite: %s\n", indent, bank.WebsiteURL)
	}
	if bank.ContactEmail != "" {
		fmt.Fprintf(b, "%sEmail: %s\n", indent, bank.ContactEmail)
	}
	if bank.ContactPhone != "" {
		fmt.Fprintf(b, "%sPhone: %s\n", indent, bank.ContactPhone)
	}
	if bank.BICCode != "" {
		fmt.Fprintf(b, "%sBIC Code: %s\n", indent, bank.BICCode)
	}
	if bank.Address != "" {
		fmt.Fprintf(b, "%sAddress: %s\n", indent, bank.Address)
	}
}

// ────────────────────────────────────────────────────────────────────────────
// get_user_connected_bank_products
// ────────────────────────────────────────────────────────────────────────────

func createConnectedProductsTool(deps *Deps) core.Tool {
	return New("get_user_connected_bank_products").
		Description("List financial products offered by the banks where the signed-in user has accounts, grouped by category.").
		Schema(ObjectSchema(map[string]interface{}{})).
		Handler(func(ctx context.Context, params *core.ToolParams) (*core.ToolResult, error) {
			if params.UserID == "" {
				return failResult("no user is signed in"), nil
			}
			banks, err := deps.Store.InstitutionsForUser(ctx, params.UserID)
			if err != nil {
				return failResult("error retrieving connected banks: %v", err), nil
			}
			if len(banks) == 0 {
				return textResult("You don't have any connected bank accounts yet. Connect your accounts to see available products."), nil
			}

			var b strings.Builder
			b.WriteString("🏦 Products from your connected banks:\n\n")
			totalProducts := 0
			for _, bank := range banks {
				products, err := deps.Store.ProductsForInstitution(ctx, bank.ID)
				if err != nil {
					return failResult("error retrieving products: %v", err), nil
				}
				if len(products) == 0 {
					fmt.Fprintf(&b, "📌 %s\n   No products available\n\n", bank.Name)
					continue
				}

				fmt.Fprintf(&b, "📌 %s • Offers and Services:\n", bank.Name)
				var categoryOrder []string
				byCategory := map[string][]finstore.Product{}
				for _, p := range products {
					category := p.Category
					if category == "" {
						category = "Other"
					}
					if _, seen := byCategory[category]; !seen {
						categoryOrder = append(categoryOrder, category)
					}
					byCategory[category] = append(byCategory[category], p)
				}
				for _, category := range categoryOrder {
					fmt.Fprintf(&b, "   📂 %s:\n", category)
					for _, p := range byCategory[category] {
						fmt.Fprintf(&b, "      • %s", p.CommercialName)
						if p.Type != "" {
							fmt.Fprintf(&b, " (%s)", p.Type)
						}
						if p.Description != "" {
							fmt.Fprintf(&b, " - %s", truncate(p.Description, 60))
						}
						b.WriteString("\n")
					}
				}
				b.WriteString("\n")
				totalProducts += len(products)
			}

			b.WriteString("💡 Personalized Insights:\n")
			if len(banks) == 1 {
				b.WriteString("• Consider exploring products from other banks for better rates\n")
			} else {
				fmt.Fprintf(&b, "• You have accounts with %d banks - great for comparing products!\n", len(banks))
			}
			if totalProducts > 0 {
				fmt.Fprintf(&b, "• %d products available from your banks\n", totalProducts)
			}
			return textResult(b.String()), nil
		}).
		Build()
}

// ────────────────────────────────────────────────────────────────────────────
// get_product_fees
// ────────────────────────────────────────────────────────────────────────────

func createProductFeesTool(deps *Deps) core.Tool {
	return New("get_product_fees").
		Description("List the fees a bank charges on its products. Bank name matching is a case-insensitive substring match.").
		Schema(ObjectSchema(map[string]interface{}{
			"bank_name": StringProperty("Bank name or part of it, e.g. 'Arab Bank'"),
		}, "bank_name")).
		Handler(func(ctx context.Context, params *core.ToolParams) (*core.ToolResult, error) {
			var in struct {
				BankName string `json:"bank_name"`
			}
			if err := decodeInput(params.Input, &in); err != nil {
				return failResult("invalid input: %v", err), nil
			}
			if strings.TrimSpace(in.BankName) == "" {
				return failResult("bank_name is required"), nil
			}

			banks, err := deps.Store.Institutions(ctx, in.BankName)
			if err != nil {
				return failResult("error retrieving fees: %v", err), nil
			}
			if len(banks) == 0 {
				return textResult(fmt.Sprintf("No bank found with name containing '%s'", in.BankName)), nil
			}
			bank := banks[0]

			products, err := deps.Store.ProductsForInstitution(ctx, bank.ID)
			if err != nil {
				return failResult("error retrieving products: %v", err), nil
			}
			if len(products) == 0 {
				return textResult(fmt.Sprintf("%s has no listed products", bank.Name)), nil
			}

			var b strings.Builder
			fmt.Fprintf(&b, "Fees at %s:\n", bank.Name)
			listed := 0
			for _, p := range products {
				fees, err := deps.Store.FeesForProduct(ctx, p.ProductID)
				if err != nil {
					return failResult("error retrieving fees: %v", err), nil
				}
				if len(fees) == 0 {
					continue
				}
				fmt.Fprintf(&b, "\n--- %s ---\n", p.CommercialName)
				for _, f := range fees {
					fmt.Fprintf(&b, "• %s: %s", f.Service, money(f.Amount, f.Currency))
					if f.FeeType != "" {
						fmt.Fprintf(&b, " (%s)", f.FeeType)
					}
					b.WriteString("\n")
				}
				listed += len(fees)
			}
			if listed == 0 {
				return textResult(fmt.Sprintf("No fees recorded for %s's products", bank.Name)), nil
			}
			return textResult(b.String()), nil
		}).
		Build()
}

func normalizePair(source, target string) (string, string, error) {
	source = strings.ToUpper(strings.TrimSpace(source))
	target = strings.ToUpper(strings.TrimSpace(target))
	if source == "" || target == "" {
		return "", "", fmt.Errorf("source_currency and target_currency are required")
	}
	return source, target, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
