// Package finstore is the relational store behind the advisor's tool
// catalog: institutions, products, fees, accounts, and FX rates.
//
// All tool-facing methods are read-only queries. Writes exist only for
// seeding and tests. Latest-rate lookups are served from a short-TTL
// ristretto cache because they back the hottest tools (rate lookup,
// comparison, conversion).
package finstore

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dgraph-io/ristretto"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"github.com/mcsplatform/advisor-go-sdk/core"
)

// rateCacheTTL bounds how stale a cached latest-rate answer can be.
const rateCacheTTL = time.Minute

// Store provides SQLite-backed access to the financial data set.
type Store struct {
	db    *sql.DB
	rates *ristretto.Cache
	mu    sync.RWMutex
}

// Open opens (or creates) the database at path and initializes the schema.
// Use ":memory:" for an ephemeral store in tests.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Enable WAL mode for better concurrent access
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 10_000,
		MaxCost:     1 << 20,
		BufferItems: 64,
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create rate cache: %w", err)
	}

	return &Store{db: db, rates: cache}, nil
}

// Close releases the database handle and cache.
func (s *Store) Close() error {
	s.rates.Close()
	return s.db.Close()
}

func initSchema(db *sql.DB) error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			username TEXT NOT NULL,
			first_name TEXT DEFAULT '',
			last_name TEXT DEFAULT '',
			email TEXT DEFAULT '',
			is_active INTEGER NOT NULL DEFAULT 1
		)`,
		`CREATE TABLE IF NOT EXISTS institutions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			website_url TEXT DEFAULT '',
			contact_email TEXT DEFAULT '',
			contact_phone TEXT DEFAULT '',
			institution_type TEXT DEFAULT '',
			bic_code TEXT DEFAULT '',
			address TEXT DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS product_categories (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			description TEXT DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS products (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			institution_id INTEGER NOT NULL REFERENCES institutions(id),
			category_id INTEGER NOT NULL REFERENCES product_categories(id),
			product_id TEXT NOT NULL UNIQUE,
			commercial_name TEXT NOT NULL,
			type TEXT DEFAULT '',
			description TEXT DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS fees (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			product_id TEXT NOT NULL,
			fee_id TEXT NOT NULL,
			service_channel TEXT DEFAULT '',
			service TEXT DEFAULT '',
			category TEXT DEFAULT '',
			amount TEXT NOT NULL,
			currency TEXT NOT NULL,
			fee_type TEXT DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS accounts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id TEXT NOT NULL,
			institution_id INTEGER NOT NULL REFERENCES institutions(id),
			account_id TEXT NOT NULL UNIQUE,
			account_status TEXT DEFAULT '',
			account_currency TEXT DEFAULT '',
			available_balance TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS fx_rates (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			institution_id INTEGER NOT NULL REFERENCES institutions(id),
			source_currency TEXT NOT NULL,
			target_currency TEXT NOT NULL,
			conversion_value TEXT NOT NULL,
			inverse_conversion_value TEXT NOT NULL,
			effective_date TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_accounts_user ON accounts(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_rates_pair ON fx_rates(source_currency, target_currency, effective_date)`,
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return nil
}

// ────────────────────────────────────────────────────────────────────────────
// Writes (seeding and tests only)
// ────────────────────────────────────────────────────────────────────────────

// InsertUser adds a user.
func (s *Store) InsertUser(ctx context.Context, u User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	active := 0
	if u.Active {
		active = 1
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, username, first_name, last_name, email, is_active)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		u.ID, u.Username, u.FirstName, u.LastName, u.Email, active,
	)
	return err
}

// InsertInstitution adds an institution and returns its id.
func (s *Store) InsertInstitution(ctx context.Context, inst Institution) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO institutions (name, website_url, contact_email, contact_phone, institution_type, bic_code, address)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		inst.Name, inst.WebsiteURL, inst.ContactEmail, inst.ContactPhone,
		inst.InstitutionType, inst.BICCode, inst.Address,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// InsertCategory adds a product category and returns its id.
func (s *Store) InsertCategory(ctx context.Context, c ProductCategory) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO product_categories (name, description) VALUES (?, ?)`,
		c.Name, c.Description,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// InsertProduct adds a product.
func (s *Store) InsertProduct(ctx context.Context, p Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO products (institution_id, category_id, product_id, commercial_name, type, description)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		p.InstitutionID, p.CategoryID, p.ProductID, p.CommercialName, p.Type, p.Description,
	)
	return err
}

// InsertFee adds a fee.
func (s *Store) InsertFee(ctx context.Context, f Fee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO fees (product_id, fee_id, service_channel, service, category, amount, currency, fee_type)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		f.ProductID, f.FeeID, f.ServiceChannel, f.Service, f.Category,
		f.Amount.String(), f.Currency, f.FeeType,
	)
	return err
}

// InsertAccount adds a linked account.
func (s *Store) InsertAccount(ctx context.Context, a Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var balance interface{}
	if a.AvailableBalance != nil {
		balance = a.AvailableBalance.String()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO accounts (user_id, institution_id, account_id, account_status, account_currency, available_balance)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		a.UserID, a.InstitutionID, a.AccountID, a.Status, a.Currency, balance,
	)
	return err
}

// InsertRate adds an FX rate and invalidates the latest-rate cache.
func (s *Store) InsertRate(ctx context.Context, r FXRate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO fx_rates (institution_id, source_currency, target_currency, conversion_value, inverse_conversion_value, effective_date)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		r.InstitutionID,
		strings.ToUpper(r.SourceCurrency), strings.ToUpper(r.TargetCurrency),
		r.ConversionValue.String(), r.InverseValue.String(),
		r.EffectiveDate.UTC().Format(time.RFC3339),
	)
	if err == nil {
		s.rates.Clear()
	}
	return err
}

// ────────────────────────────────────────────────────────────────────────────
// Reads
// ────────────────────────────────────────────────────────────────────────────

// User returns the user with the given id, or core.ErrNotFound.
func (s *Store) User(ctx context.Context, id string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var u User
	var active int
	err := s.db.QueryRowContext(ctx,
		`SELECT id, username, first_name, last_name, email, is_active FROM users WHERE id = ?`, id,
	).Scan(&u.ID, &u.Username, &u.FirstName, &u.LastName, &u.Email, &active)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user %q: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	u.Active = active != 0
	return &u, nil
}

// AccountsForUser returns all of the user's linked accounts with the
// owning institution's name resolved.
func (s *Store) AccountsForUser(ctx context.Context, userID string) ([]Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT a.id, a.user_id, a.institution_id, i.name, a.account_id, a.account_status, a.account_currency, a.available_balance
		 FROM accounts a JOIN institutions i ON i.id = a.institution_id
		 WHERE a.user_id = ? ORDER BY i.name, a.account_id`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAccounts(rows)
}

// AccountsAtInstitution returns the user's accounts at institutions whose
// name contains the filter, case-insensitively.
func (s *Store) AccountsAtInstitution(ctx context.Context, userID, nameFilter string) ([]Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT a.id, a.user_id, a.institution_id, i.name, a.account_id, a.account_status, a.account_currency, a.available_balance
		 FROM accounts a JOIN institutions i ON i.id = a.institution_id
		 WHERE a.user_id = ? AND lower(i.name) LIKE '%' || lower(?) || '%'
		 ORDER BY i.name, a.account_id`,
		userID, nameFilter,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAccounts(rows)
}

// InstitutionNames returns the distinct institution names the user has
// accounts with, sorted alphabetically.
func (s *Store) InstitutionNames(ctx context.Context, userID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT i.name
		 FROM accounts a JOIN institutions i ON i.id = a.institution_id
		 WHERE a.user_id = ? ORDER BY i.name`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// InstitutionsForUser returns the distinct institutions the user has
// accounts with.
func (s *Store) InstitutionsForUser(ctx context.Context, userID string) ([]Institution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT i.id, i.name, i.website_url, i.contact_email, i.contact_phone, i.institution_type, i.bic_code, i.address
		 FROM accounts a JOIN institutions i ON i.id = a.institution_id
		 WHERE a.user_id = ? ORDER BY i.name`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Institution
	for rows.Next() {
		var inst Institution
		if err := rows.Scan(&inst.ID, &inst.Name, &inst.WebsiteURL, &inst.ContactEmail,
			&inst.ContactPhone, &inst.InstitutionType, &inst.BICCode, &inst.Address); err != nil {
			return nil, err
		}
		out = append(out, inst)
	}
	return out, rows.Err()
}

// Institutions returns institutions whose name contains the filter,
// case-insensitively. An empty filter returns all institutions.
func (s *Store) Institutions(ctx context.Context, nameFilter string) ([]Institution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, website_url, contact_email, contact_phone, institution_type, bic_code, address
		 FROM institutions
		 WHERE ? = '' OR lower(name) LIKE '%' || lower(?) || '%'
		 ORDER BY name`,
		nameFilter, nameFilter,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Institution
	for rows.Next() {
		var inst Institution
		if err := rows.Scan(&inst.ID, &inst.Name, &inst.WebsiteURL, &inst.ContactEmail,
			&inst.ContactPhone, &inst.InstitutionType, &inst.BICCode, &inst.Address); err != nil {
			return nil, err
		}
		out = append(out, inst)
	}
	return out, rows.Err()
}

// ProductsForInstitution returns the institution's products with category
// names resolved.
func (s *Store) ProductsForInstitution(ctx context.Context, institutionID int64) ([]Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT p.id, p.institution_id, i.name, p.category_id, c.name, p.product_id, p.commercial_name, p.type, p.description
		 FROM products p
		 JOIN institutions i ON i.id = p.institution_id
		 JOIN product_categories c ON c.id = p.category_id
		 WHERE p.institution_id = ? ORDER BY c.name, p.commercial_name`,
		institutionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.InstitutionID, &p.InstitutionName, &p.CategoryID,
			&p.Category, &p.ProductID, &p.CommercialName, &p.Type, &p.Description); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// FeesForProduct returns all fees attached to a product.
func (s *Store) FeesForProduct(ctx context.Context, productID string) ([]Fee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, product_id, fee_id, service_channel, service, category, amount, currency, fee_type
		 FROM fees WHERE product_id = ? ORDER BY service`,
		productID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Fee
	for rows.Next() {
		var f Fee
		var amount string
		if err := rows.Scan(&f.ID, &f.ProductID, &f.FeeID, &f.ServiceChannel,
			&f.Service, &f.Category, &amount, &f.Currency, &f.FeeType); err != nil {
			return nil, err
		}
		f.Amount, err = decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("fee %s: bad amount %q: %w", f.FeeID, amount, err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// RatesForPair returns rates for the currency pair, newest first,
// optionally filtered by institution name substring.
func (s *Store) RatesForPair(ctx context.Context, source, target, institutionFilter string, limit int) ([]FXRate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT r.id, r.institution_id, i.name, r.source_currency, r.target_currency,
		        r.conversion_value, r.inverse_conversion_value, r.effective_date
		 FROM fx_rates r JOIN institutions i ON i.id = r.institution_id
		 WHERE r.source_currency = ? AND r.target_currency = ?
		   AND (? = '' OR lower(i.name) LIKE '%' || lower(?) || '%')
		 ORDER BY r.effective_date DESC, r.id DESC
		 LIMIT ?`,
		strings.ToUpper(source), strings.ToUpper(target),
		institutionFilter, institutionFilter, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []FXRate
	for rows.Next() {
		var r FXRate
		var value, inverse, effective string
		if err := rows.Scan(&r.ID, &r.InstitutionID, &r.InstitutionName,
			&r.SourceCurrency, &r.TargetCurrency, &value, &inverse, &effective); err != nil {
			return nil, err
		}
		if r.ConversionValue, err = decimal.NewFromString(value); err != nil {
			return nil, fmt.Errorf("rate %d: bad value %q: %w", r.ID, value, err)
		}
		if r.InverseValue, err = decimal.NewFromString(inverse); err != nil {
			return nil, fmt.Errorf("rate %d: bad inverse %q: %w", r.ID, inverse, err)
		}
		if r.EffectiveDate, err = time.Parse(time.RFC3339, effective); err != nil {
			return nil, fmt.Errorf("rate %d: bad date %q: %w", r.ID, effective, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// LatestRate returns the most recent rate for the pair, optionally
// filtered by institution name substring. Answers are cached briefly.
func (s *Store) LatestRate(ctx context.Context, source, target, institutionFilter string) (*FXRate, error) {
	key := strings.ToUpper(source) + "/" + strings.ToUpper(target) + "/" + strings.ToLower(institutionFilter)
	if cached, ok := s.rates.Get(key); ok {
		rate := cached.(FXRate)
		return &rate, nil
	}

	found, err := s.RatesForPair(ctx, source, target, institutionFilter, 1)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, fmt.Errorf("rate %s/%s: %w", strings.ToUpper(source), strings.ToUpper(target), core.ErrNotFound)
	}

	rate := found[0]
	s.rates.SetWithTTL(key, rate, 1, rateCacheTTL)
	return &rate, nil
}

// Currencies returns every currency that appears as a source or target
// of some rate, sorted alphabetically.
func (s *Store) Currencies(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT source_currency FROM fx_rates UNION SELECT target_currency FROM fx_rates`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sort.Strings(out)
	return out, nil
}

func scanAccounts(rows *sql.Rows) ([]Account, error) {
	var out []Account
	for rows.Next() {
		var a Account
		var balance sql.NullString
		if err := rows.Scan(&a.ID, &a.UserID, &a.InstitutionID, &a.InstitutionName,
			&a.AccountID, &a.Status, &a.Currency, &balance); err != nil {
			return nil, err
		}
		if balance.Valid {
			d, err := decimal.NewFromString(balance.String)
			if err != nil {
				return nil, fmt.Errorf("account %s: bad balance %q: %w", a.AccountID, balance.String, err)
			}
			a.AvailableBalance = &d
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
