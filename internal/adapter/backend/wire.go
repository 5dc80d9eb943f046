package backend

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html"
	"math"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/shopspring/decimal"

	"github.com/bharadwajkrishnan/finai/internal/domain"
)

// Wire type discriminants
const (
	TypeStock           = "stock"
	TypeBankAccount     = "bank_account"
	TypeMutualFund      = "mutual_fund"
	TypeFixedDeposit    = "fixed_deposit"
	TypeInsurancePolicy = "insurance_policy"
	TypeCommodity       = "commodity"
)

const dateLayout = "2006-01-02"

var strictPolicy = bluemonday.StrictPolicy()

// WireAsset is the flat asset record exchanged with the backend
type WireAsset struct {
	ID             FlexID `json:"id,omitempty"`
	Type           string `json:"type"`
	Name           string `json:"name"`
	Currency       string `json:"currency"`
	FamilyMemberID FlexID `json:"family_member_id"`

	// stock and commodity
	Symbol        string `json:"symbol,omitempty"`
	Quantity      Number `json:"quantity"`
	PurchasePrice Number `json:"purchase_price"`
	CurrentPrice  Number `json:"current_price"`

	// bank account and fixed deposit
	BankName     string `json:"bank_name,omitempty"`
	AccountType  string `json:"account_type,omitempty"`
	Balance      Number `json:"balance"`
	InterestRate Number `json:"interest_rate"`

	// mutual fund
	FundName       string `json:"fund_name,omitempty"`
	Units          Number `json:"units"`
	NAV            Number `json:"nav"`
	AmountInvested Number `json:"amount_invested"`
	CurrentValue   Number `json:"current_value"`

	// fixed deposit
	StartDate      string `json:"start_date,omitempty"`
	MaturityDate   string `json:"maturity_date,omitempty"`
	MaturityAmount Number `json:"maturity_amount"`

	// insurance policy
	Provider         string `json:"provider,omitempty"`
	PolicyNumber     string `json:"policy_number,omitempty"`
	AmountInsured    Number `json:"amount_insured"`
	Premium          Number `json:"premium"`
	PremiumFrequency string `json:"premium_frequency,omitempty"`
	EndDate          string `json:"end_date,omitempty"`

	// commodity
	CommodityType string `json:"commodity_type,omitempty"`
	Unit          string `json:"unit,omitempty"`
}

// Number is a tolerant numeric field.
// Numbers and numeric strings decode to a value; null, empty and malformed input decode to zero
// with Valid false. Decoding never fails.
type Number struct {
	Value decimal.Decimal
	Valid bool
}

// N builds a valid Number
func N(d decimal.Decimal) Number { return Number{Value: d, Valid: true} }

func (n *Number) UnmarshalJSON(b []byte) error {
	*n = Number{}
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}

	s := string(b)
	if b[0] == '"' {
		if err := json.Unmarshal(b, &s); err != nil {
			return nil
		}
	}
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil
	}
	*n = Number{Value: d, Valid: true}
	return nil
}

func (n Number) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return []byte(n.Value.String()), nil
}

// provided reports whether a value is present and non-zero
func (n Number) provided() bool {
	return n.Valid && !n.Value.IsZero()
}

// FlexID accepts identifiers sent as JSON strings or numbers
type FlexID string

func (f *FlexID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return fmt.Errorf("invalid id %s: %w", b, err)
		}
		*f = FlexID(strings.TrimSpace(s))
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(b, &num); err != nil {
		return fmt.Errorf("invalid id %s: %w", b, err)
	}
	*f = FlexID(num.String())
	return nil
}

func (f FlexID) MarshalJSON() ([]byte, error) {
	if f == "" {
		return []byte("null"), nil
	}
	return json.Marshal(string(f))
}

// ToDomain converts a wire record into a typed asset, deriving computed fields
func ToDomain(w WireAsset) (domain.Asset, error) {
	base := domain.AssetBase{
		ID:             string(w.ID),
		DBID:           string(w.ID),
		Name:           w.Name,
		Market:         domain.MarketFromCurrency(w.Currency),
		FamilyMemberID: string(w.FamilyMemberID),
	}

	switch w.Type {
	case TypeStock:
		price := w.CurrentPrice.Value
		if !w.CurrentPrice.provided() {
			price = w.PurchasePrice.Value
		}
		return &domain.Stock{
			AssetBase:     base,
			Symbol:        w.Symbol,
			Quantity:      w.Quantity.Value,
			PurchasePrice: w.PurchasePrice.Value,
			CurrentPrice:  w.CurrentPrice.Value,
			ActualWorth:   price.Mul(w.Quantity.Value),
		}, nil

	case TypeBankAccount:
		return &domain.BankAccount{
			AssetBase:    base,
			BankName:     w.BankName,
			AccountType:  w.AccountType,
			Balance:      w.Balance.Value,
			InterestRate: w.InterestRate.Value,
		}, nil

	case TypeMutualFund:
		worth := w.CurrentValue.Value
		if !w.CurrentValue.provided() {
			worth = w.Units.Value.Mul(w.NAV.Value)
		}
		return &domain.MutualFund{
			AssetBase:      base,
			FundName:       w.FundName,
			Units:          w.Units.Value,
			NAV:            w.NAV.Value,
			AmountInvested: w.AmountInvested.Value,
			CurrentWorth:   worth,
		}, nil

	case TypeFixedDeposit:
		start, maturity := parseDate(w.StartDate), parseDate(w.MaturityDate)
		return &domain.FixedDeposit{
			AssetBase:      base,
			BankName:       w.BankName,
			AmountInvested: w.AmountInvested.Value,
			InterestRate:   w.InterestRate.Value,
			StartDate:      start,
			MaturityDate:   maturity,
			DurationMonths: DurationMonths(start, maturity),
			MaturityAmount: w.MaturityAmount.Value,
		}, nil

	case TypeInsurancePolicy:
		return &domain.InsurancePolicy{
			AssetBase:        base,
			Provider:         w.Provider,
			PolicyNumber:     w.PolicyNumber,
			AmountInsured:    w.AmountInsured.Value,
			Premium:          w.Premium.Value,
			PremiumFrequency: w.PremiumFrequency,
			StartDate:        parseDate(w.StartDate),
			EndDate:          parseDate(w.EndDate),
		}, nil

	case TypeCommodity:
		value := w.CurrentValue.Value
		if !w.CurrentValue.provided() {
			value = w.Quantity.Value.Mul(w.PurchasePrice.Value)
		}
		return &domain.Commodity{
			AssetBase:     base,
			CommodityType: w.CommodityType,
			Quantity:      w.Quantity.Value,
			Unit:          w.Unit,
			PurchasePrice: w.PurchasePrice.Value,
			CurrentValue:  value,
		}, nil

	default:
		return nil, fmt.Errorf("unknown asset type %q", w.Type)
	}
}

// FromDomain converts a typed asset into its wire record.
// The id is left empty; the backend addresses updates through the URL path.
// Free-text fields are stripped of markup before they leave the process.
func FromDomain(a domain.Asset) (WireAsset, error) {
	b := a.Base()
	w := WireAsset{
		Name:           sanitize(b.Name),
		Currency:       b.Market.CurrencyCode(),
		FamilyMemberID: FlexID(strings.TrimSpace(b.FamilyMemberID)),
	}

	switch v := a.(type) {
	case *domain.Stock:
		w.Type = TypeStock
		w.Symbol = sanitize(v.Symbol)
		w.Quantity = N(v.Quantity)
		w.PurchasePrice = N(v.PurchasePrice)
		w.CurrentPrice = N(v.CurrentPrice)
	case *domain.BankAccount:
		w.Type = TypeBankAccount
		w.BankName = sanitize(v.BankName)
		w.AccountType = sanitize(v.AccountType)
		w.Balance = N(v.Balance)
		w.InterestRate = N(v.InterestRate)
	case *domain.MutualFund:
		w.Type = TypeMutualFund
		w.FundName = sanitize(v.FundName)
		w.Units = N(v.Units)
		w.NAV = N(v.NAV)
		w.AmountInvested = N(v.AmountInvested)
		w.CurrentValue = N(v.CurrentWorth)
	case *domain.FixedDeposit:
		w.Type = TypeFixedDeposit
		w.BankName = sanitize(v.BankName)
		w.AmountInvested = N(v.AmountInvested)
		w.InterestRate = N(v.InterestRate)
		w.StartDate = formatDate(v.StartDate)
		w.MaturityDate = formatDate(v.MaturityDate)
		if !v.MaturityAmount.IsZero() {
			w.MaturityAmount = N(v.MaturityAmount)
		}
	case *domain.InsurancePolicy:
		w.Type = TypeInsurancePolicy
		w.Provider = sanitize(v.Provider)
		w.PolicyNumber = sanitize(v.PolicyNumber)
		w.AmountInsured = N(v.AmountInsured)
		w.Premium = N(v.Premium)
		w.PremiumFrequency = sanitize(v.PremiumFrequency)
		w.StartDate = formatDate(v.StartDate)
		w.EndDate = formatDate(v.EndDate)
	case *domain.Commodity:
		w.Type = TypeCommodity
		w.CommodityType = sanitize(v.CommodityType)
		w.Quantity = N(v.Quantity)
		w.Unit = sanitize(v.Unit)
		w.PurchasePrice = N(v.PurchasePrice)
		w.CurrentValue = N(v.CurrentValue)
	default:
		return WireAsset{}, fmt.Errorf("unsupported asset %T", a)
	}
	return w, nil
}

// WireType returns the wire discriminant of a category
func WireType(c domain.Category) string {
	switch c {
	case domain.CategoryStocks:
		return TypeStock
	case domain.CategoryBankAccounts:
		return TypeBankAccount
	case domain.CategoryMutualFunds:
		return TypeMutualFund
	case domain.CategoryFixedDeposits:
		return TypeFixedDeposit
	case domain.CategoryInsurancePolicies:
		return TypeInsurancePolicy
	case domain.CategoryCommodities:
		return TypeCommodity
	default:
		return ""
	}
}

// DurationMonths returns the whole number of 30-day months between two dates, rounded to nearest.
// Zero when either date is missing.
func DurationMonths(start, end time.Time) int {
	if start.IsZero() || end.IsZero() {
		return 0
	}
	days := end.Sub(start).Hours() / 24
	return int(math.Round(days / 30))
}

func parseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{dateLayout, time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

// sanitize strips markup; entities produced by the policy are decoded so "A & B" survives intact
func sanitize(s string) string {
	return strings.TrimSpace(html.UnescapeString(strictPolicy.Sanitize(s)))
}
