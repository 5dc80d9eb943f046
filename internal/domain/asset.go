package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Category represents one of the six asset kinds
type Category string

const (
	CategoryStocks            Category = "stocks"
	CategoryBankAccounts      Category = "bankAccounts"
	CategoryMutualFunds       Category = "mutualFunds"
	CategoryFixedDeposits     Category = "fixedDeposits"
	CategoryInsurancePolicies Category = "insurancePolicies"
	CategoryCommodities       Category = "commodities"
)

// Categories lists every category in display order
var Categories = []Category{
	CategoryStocks,
	CategoryBankAccounts,
	CategoryMutualFunds,
	CategoryFixedDeposits,
	CategoryInsurancePolicies,
	CategoryCommodities,
}

// ParseCategory parses a category name, case-insensitively
func ParseCategory(s string) (Category, error) {
	s = strings.TrimSpace(s)
	for _, c := range Categories {
		if strings.EqualFold(string(c), s) {
			return c, nil
		}
	}
	return "", fmt.Errorf("invalid category %q", s)
}

// BucketKey identifies a (category, market) pair.
// It keys collections, orderings and selections alike.
type BucketKey struct {
	Category Category
	Market   Market
}

// Key builds a BucketKey
func Key(c Category, m Market) BucketKey {
	return BucketKey{Category: c, Market: m}
}

func (k BucketKey) String() string {
	return string(k.Category) + "_" + string(k.Market)
}

// AllBucketKeys returns every known (category, market) pair
func AllBucketKeys() []BucketKey {
	keys := make([]BucketKey, 0, len(Categories)*len(Markets))
	for _, c := range Categories {
		for _, m := range Markets {
			keys = append(keys, Key(c, m))
		}
	}
	return keys
}

// Asset is implemented by the six category variants
type Asset interface {
	// Base gives access to the fields every variant shares
	Base() *AssetBase
	Category() Category
}

// AssetBase holds the fields common to every asset.
// ID is client-local until the asset is persisted, then it equals DBID.
type AssetBase struct {
	ID             string
	DBID           string // empty until saved
	Name           string
	Market         Market
	FamilyMemberID string // empty means "Self"
}

func (b *AssetBase) Base() *AssetBase { return b }

// Persisted reports whether the asset carries a server identity
func (b *AssetBase) Persisted() bool { return b.DBID != "" }

// BucketOf returns the bucket an asset belongs to
func BucketOf(a Asset) BucketKey {
	return Key(a.Category(), a.Base().Market)
}

// Stock is a listed equity holding
type Stock struct {
	AssetBase
	Symbol        string
	Quantity      decimal.Decimal
	PurchasePrice decimal.Decimal
	CurrentPrice  decimal.Decimal
	ActualWorth   decimal.Decimal // CurrentPrice (or PurchasePrice) x Quantity
}

func (*Stock) Category() Category { return CategoryStocks }

// InvestedAmount returns PurchasePrice x Quantity
func (s *Stock) InvestedAmount() decimal.Decimal {
	return s.PurchasePrice.Mul(s.Quantity)
}

// BankAccount is a savings or current account
type BankAccount struct {
	AssetBase
	BankName     string
	AccountType  string
	Balance      decimal.Decimal
	InterestRate decimal.Decimal
}

func (*BankAccount) Category() Category { return CategoryBankAccounts }

// MutualFund is a fund holding
type MutualFund struct {
	AssetBase
	FundName       string
	Units          decimal.Decimal
	NAV            decimal.Decimal
	AmountInvested decimal.Decimal
	CurrentWorth   decimal.Decimal
}

func (*MutualFund) Category() Category { return CategoryMutualFunds }

// FixedDeposit is a term deposit.
// Net worth counts AmountInvested; MaturityAmount is carried as received and never computed.
type FixedDeposit struct {
	AssetBase
	BankName       string
	AmountInvested decimal.Decimal
	InterestRate   decimal.Decimal
	StartDate      time.Time
	MaturityDate   time.Time
	DurationMonths int
	MaturityAmount decimal.Decimal
}

func (*FixedDeposit) Category() Category { return CategoryFixedDeposits }

// InsurancePolicy is tracked for information only and never counts towards net worth
type InsurancePolicy struct {
	AssetBase
	Provider         string
	PolicyNumber     string
	AmountInsured    decimal.Decimal
	Premium          decimal.Decimal
	PremiumFrequency string
	StartDate        time.Time
	EndDate          time.Time
}

func (*InsurancePolicy) Category() Category { return CategoryInsurancePolicies }

// Commodity is a physical holding such as gold or silver
type Commodity struct {
	AssetBase
	CommodityType string
	Quantity      decimal.Decimal
	Unit          string
	PurchasePrice decimal.Decimal
	CurrentValue  decimal.Decimal
}

func (*Commodity) Category() Category { return CategoryCommodities }

// NewAsset returns an empty asset of the given category
func NewAsset(c Category) (Asset, error) {
	switch c {
	case CategoryStocks:
		return &Stock{}, nil
	case CategoryBankAccounts:
		return &BankAccount{}, nil
	case CategoryMutualFunds:
		return &MutualFund{}, nil
	case CategoryFixedDeposits:
		return &FixedDeposit{}, nil
	case CategoryInsurancePolicies:
		return &InsurancePolicy{}, nil
	case CategoryCommodities:
		return &Commodity{}, nil
	default:
		return nil, fmt.Errorf("invalid category %q", c)
	}
}

// AssetIDs returns the identifiers of assets, in order
func AssetIDs[T Asset](assets []T) []string {
	ids := make([]string, 0, len(assets))
	for _, a := range assets {
		ids = append(ids, a.Base().ID)
	}
	return ids
}
