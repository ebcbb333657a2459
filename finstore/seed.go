package finstore

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"
)

// Seed populates an empty store with a demo data set: Jordanian banks,
// product categories, a handful of users with linked accounts, and an
// FX rate matrix. Seeding a non-empty store is a no-op.
func (s *Store) Seed(ctx context.Context) error {
	existing, err := s.Institutions(ctx, "")
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		log.Printf("[SEED] store already populated (%d institutions), skipping", len(existing))
		return nil
	}

	bankIDs := make(map[string]int64)
	for _, bank := range seedBanks {
		id, err := s.InsertInstitution(ctx, bank)
		if err != nil {
			return fmt.Errorf("seed institution %s: %w", bank.Name, err)
		}
		bankIDs[bank.Name] = id
	}

	categoryIDs := make(map[string]int64)
	for _, cat := range seedCategories {
		id, err := s.InsertCategory(ctx, cat)
		if err != nil {
			return fmt.Errorf("seed category %s: %w", cat.Name, err)
		}
		categoryIDs[cat.Name] = id
	}

	for _, p := range seedProducts {
		if err := s.InsertProduct(ctx, Product{
			InstitutionID:  bankIDs[p.bank],
			CategoryID:     categoryIDs[p.category],
			ProductID:      p.id,
			CommercialName: p.name,
			Type:           p.category,
			Description:    p.description,
		}); err != nil {
			return fmt.Errorf("seed product %s: %w", p.id, err)
		}
	}

	for _, f := range seedFees {
		if err := s.InsertFee(ctx, Fee{
			ProductID: f.productID,
			FeeID:     f.feeID,
			Service:   f.service,
			Category:  f.category,
			Amount:    decimal.RequireFromString(f.amount),
			Currency:  f.currency,
			FeeType:   f.feeType,
		}); err != nil {
			return fmt.Errorf("seed fee %s: %w", f.feeID, err)
		}
	}

	for _, u := range seedUsers {
		if err := s.InsertUser(ctx, u); err != nil {
			return fmt.Errorf("seed user %s: %w", u.ID, err)
		}
	}

	for _, a := range seedAccounts {
		account := Account{
			UserID:        a.userID,
			InstitutionID: bankIDs[a.bank],
			AccountID:     a.accountID,
			Status:        a.status,
			Currency:      a.currency,
		}
		if a.balance != "" {
			d := decimal.RequireFromString(a.balance)
			account.AvailableBalance = &d
		}
		if err := s.InsertAccount(ctx, account); err != nil {
			return fmt.Errorf("seed account %s: %w", a.accountID, err)
		}
	}

	now := time.Now().UTC()
	for _, r := range seedRates {
		value := decimal.RequireFromString(r.value)
		if err := s.InsertRate(ctx, FXRate{
			InstitutionID:   bankIDs[r.bank],
			SourceCurrency:  r.source,
			TargetCurrency:  r.target,
			ConversionValue: value,
			InverseValue:    decimal.NewFromInt(1).DivRound(value, 6),
			EffectiveDate:   now.Add(-time.Duration(r.ageHours) * time.Hour),
		}); err != nil {
			return fmt.Errorf("seed rate %s/%s: %w", r.source, r.target, err)
		}
	}

	log.Printf("[SEED] populated %d banks, %d users, %d accounts, %d rates",
		len(seedBanks), len(seedUsers), len(seedAccounts), len(seedRates))
	return nil
}

var seedBanks = []Institution{
	{
		Name:            "Arab Bank",
		WebsiteURL:      "https://www.arabbank.jo",
		ContactEmail:    "contact@arabbank.jo",
		ContactPhone:    "+962 6 560 0000",
		InstitutionType: "Bank",
		BICCode:         "ARABJOAX",
		Address:         "Shmeisani, Amman, Jordan",
	},
	{
		Name:            "Bank of Jordan",
		WebsiteURL:      "https://www.bankofjordan.com",
		ContactEmail:    "contact@bankofjordan.jo",
		ContactPhone:    "+962 6 560 9200",
		InstitutionType: "Bank",
		BICCode:         "BJORJOAX",
		Address:         "Al Abdali, Amman, Jordan",
	},
	{
		Name:            "Cairo Amman Bank",
		WebsiteURL:      "https://www.cab.jo",
		ContactEmail:    "contact@cab.jo",
		ContactPhone:    "+962 6 500 6000",
		InstitutionType: "Bank",
		BICCode:         "CAABJOAM",
		Address:         "Wadi Saqra, Amman, Jordan",
	},
	{
		Name:            "Capital Bank of Jordan",
		WebsiteURL:      "https://www.capitalbank.jo",
		ContactEmail:    "contact@capitalbank.jo",
		ContactPhone:    "+962 6 510 0200",
		InstitutionType: "Bank",
		BICCode:         "EFBKJOAM",
		Address:         "Shmeisani, Amman, Jordan",
	},
	{
		Name:            "Housing Bank for Trade & Finance",
		WebsiteURL:      "https://www.hbtf.com",
		ContactEmail:    "contact@hbtf.jo",
		ContactPhone:    "+962 6 500 5555",
		InstitutionType: "Bank",
		BICCode:         "HBHOJOAX",
		Address:         "Parliament Street, Amman, Jordan",
	},
	{
		Name:            "Jordan Commercial Bank",
		WebsiteURL:      "https://www.jcbank.com.jo",
		ContactEmail:    "contact@jcbank.jo",
		ContactPhone:    "+962 6 520 3000",
		InstitutionType: "Bank",
		BICCode:         "JCBAJOAM",
		Address:         "Al Abdali, Amman, Jordan",
	},
	{
		Name:            "Jordan Kuwait Bank",
		WebsiteURL:      "https://www.jkb.com",
		ContactEmail:    "contact@jkb.jo",
		ContactPhone:    "+962 6 568 8814",
		InstitutionType: "Bank",
		BICCode:         "JKBAJOAM",
		Address:         "Umm Uthaina, Amman, Jordan",
	},
	{
		Name:            "Jordan Ahli Bank",
		WebsiteURL:      "https://www.ahli.com",
		ContactEmail:    "contact@ahli.jo",
		ContactPhone:    "+962 6 563 8800",
		InstitutionType: "Bank",
		BICCode:         "JONBJOAX",
		Address:         "Queen Rania Street, Amman, Jordan",
	},
}

var seedCategories = []ProductCategory{
	{Name: "Current Accounts", Description: "Day-to-day transactional accounts"},
	{Name: "Savings Accounts", Description: "Interest-bearing deposit accounts"},
	{Name: "Credit Cards", Description: "Revolving credit products"},
	{Name: "Personal Loans", Description: "Unsecured consumer lending"},
	{Name: "Mortgages", Description: "Residential property financing"},
}

var seedProducts = []struct {
	bank        string
	category    string
	id          string
	name        string
	description string
}{
	{"Arab Bank", "Current Accounts", "ARB-CUR-001", "Classic Current Account", "Everyday account with debit card and online banking"},
	{"Arab Bank", "Savings Accounts", "ARB-SAV-001", "Premium Savings Account", "Tiered interest savings with no monthly fee"},
	{"Arab Bank", "Credit Cards", "ARB-CRD-001", "Platinum Card", "Travel rewards credit card"},
	{"Bank of Jordan", "Current Accounts", "BOJ-CUR-001", "Standard Current Account", "No-frills current account"},
	{"Bank of Jordan", "Personal Loans", "BOJ-LON-001", "Flexi Personal Loan", "Personal financing up to 50,000 JOD"},
	{"Cairo Amman Bank", "Savings Accounts", "CAB-SAV-001", "Growth Savings Account", "High-yield savings for balances over 1,000 JOD"},
	{"Housing Bank for Trade & Finance", "Mortgages", "HBT-MRT-001", "Home Mortgage", "Fixed and variable rate home financing"},
	{"Jordan Kuwait Bank", "Credit Cards", "JKB-CRD-001", "Gold Card", "Cashback credit card"},
}

var seedFees = []struct {
	productID string
	feeID     string
	service   string
	category  string
	amount    string
	currency  string
	feeType   string
}{
	{"ARB-CUR-001", "ARB-FEE-001", "Monthly maintenance", "Account", "1.00", "JOD", "Recurring"},
	{"ARB-CUR-001", "ARB-FEE-002", "International transfer", "Transfer", "15.00", "JOD", "Per transaction"},
	{"ARB-CRD-001", "ARB-FEE-003", "Annual card fee", "Card", "40.00", "JOD", "Annual"},
	{"BOJ-CUR-001", "BOJ-FEE-001", "Monthly maintenance", "Account", "0.50", "JOD", "Recurring"},
	{"CAB-SAV-001", "CAB-FEE-001", "Early withdrawal", "Account", "5.00", "JOD", "Per transaction"},
	{"JKB-CRD-001", "JKB-FEE-001", "Annual card fee", "Card", "25.00", "JOD", "Annual"},
}

var seedUsers = []User{
	{ID: "1", Username: "ahmad.haddad", FirstName: "Ahmad", LastName: "Haddad", Email: "ahmad.haddad@example.jo", Active: true},
	{ID: "2", Username: "layla.nasser", FirstName: "Layla", LastName: "Nasser", Email: "layla.nasser@example.jo", Active: true},
	{ID: "3", Username: "omar.qasem", FirstName: "Omar", LastName: "Qasem", Email: "omar.qasem@example.jo", Active: false},
}

var seedAccounts = []struct {
	userID    string
	bank      string
	accountID string
	status    string
	currency  string
	balance   string // empty = balance not reported
}{
	{"1", "Arab Bank", "ARB-ACC-1001", StatusActive, "JOD", "2450.75"},
	{"1", "Housing Bank for Trade & Finance", "HBT-ACC-1002", StatusActive, "USD", "1180.00"},
	{"1", "Jordan Kuwait Bank", "JKB-ACC-1003", StatusInactive, "JOD", ""},
	{"2", "Bank of Jordan", "BOJ-ACC-2001", StatusActive, "JOD", "820.50"},
	{"2", "Cairo Amman Bank", "CAB-ACC-2002", StatusActive, "EUR", "310.25"},
	{"3", "Arab Bank", "ARB-ACC-3001", StatusInactive, "JOD", "15.00"},
}

var seedRates = []struct {
	bank     string
	source   string
	target   string
	value    string
	ageHours int
}{
	{"Arab Bank", "USD", "JOD", "0.7090", 1},
	{"Bank of Jordan", "USD", "JOD", "0.7085", 2},
	{"Housing Bank for Trade & Finance", "USD", "JOD", "0.7100", 3},
	{"Jordan Kuwait Bank", "USD", "JOD", "0.7080", 5},
	{"Cairo Amman Bank", "USD", "JOD", "0.7095", 8},
	{"Arab Bank", "EUR", "JOD", "0.7710", 1},
	{"Bank of Jordan", "EUR", "JOD", "0.7695", 4},
	{"Capital Bank of Jordan", "EUR", "JOD", "0.7720", 6},
	{"Arab Bank", "GBP", "JOD", "0.9010", 2},
	{"Housing Bank for Trade & Finance", "GBP", "JOD", "0.9025", 3},
	{"Arab Bank", "USD", "EUR", "0.9195", 1},
	{"Capital Bank of Jordan", "USD", "EUR", "0.9180", 2},
	{"Arab Bank", "USD", "GBP", "0.7870", 2},
	{"Arab Bank", "EUR", "GBP", "0.8560", 3},
	{"Bank of Jordan", "USD", "JPY", "149.2500", 4},
	{"Arab Bank", "JOD", "USD", "1.4104", 1},
}
