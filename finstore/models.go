package finstore

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account status values used by the comparison platform.
const (
	StatusActive   = "ACTIVE"
	StatusInactive = "INACTIVE"
)

// User is a platform user who may have linked bank accounts.
type User struct {
	ID        string
	Username  string
	FirstName string
	LastName  string
	Email     string
	Active    bool
}

// DisplayName returns the user's first name, falling back to the username.
func (u *User) DisplayName() string {
	if u.FirstName != "" {
		return u.FirstName
	}
	return u.Username
}

// Institution is a bank or other financial institution.
type Institution struct {
	ID              int64
	Name            string
	WebsiteURL      string
	ContactEmail    string
	ContactPhone    string
	InstitutionType string
	BICCode         string
	Address         string
}

// ProductCategory groups financial products (savings, cards, loans...).
type ProductCategory struct {
	ID          int64
	Name        string
	Description string
}

// Product is a financial product offered by an institution.
type Product struct {
	ID              int64
	InstitutionID   int64
	InstitutionName string
	CategoryID      int64
	Category        string
	ProductID       string
	CommercialName  string
	Type            string
	Description     string
}

// Fee is one fee attached to a product.
type Fee struct {
	ID             int64
	ProductID      string
	FeeID          string
	ServiceChannel string
	Service        string
	Category       string
	Amount         decimal.Decimal
	Currency       string
	FeeType        string
}

// Account is a user's linked bank account.
//
// AvailableBalance is nil when the institution did not report a balance;
// callers must count such accounts separately, never treat them as zero.
type Account struct {
	ID               int64
	UserID           string
	InstitutionID    int64
	InstitutionName  string
	AccountID        string
	Status           string
	Currency         string
	AvailableBalance *decimal.Decimal
}

// FXRate is one published exchange rate for a currency pair.
type FXRate struct {
	ID              int64
	InstitutionID   int64
	InstitutionName string
	SourceCurrency  string
	TargetCurrency  string
	ConversionValue decimal.Decimal
	InverseValue    decimal.Decimal
	EffectiveDate   time.Time
}
