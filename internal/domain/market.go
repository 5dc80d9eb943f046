package domain

import (
	"fmt"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Market represents a currency-scoped partition of the portfolio
type Market string

const (
	MarketIndia  Market = "india"
	MarketEurope Market = "europe"
)

// Markets lists every market in display order
var Markets = []Market{MarketIndia, MarketEurope}

// CurrencyCode returns the ISO code bound to the market
func (m Market) CurrencyCode() string {
	if m == MarketIndia {
		return money.INR
	}
	return money.EUR
}

// Symbol returns the display symbol of the market currency (e.g. ₹, €)
func (m Market) Symbol() string {
	return money.GetCurrency(m.CurrencyCode()).Grapheme
}

// Valid reports whether m is one of the known markets
func (m Market) Valid() bool {
	return m == MarketIndia || m == MarketEurope
}

// Format renders an amount in the market currency, e.g. "₹1,100.00"
func (m Market) Format(amount decimal.Decimal) string {
	cur := money.GetCurrency(m.CurrencyCode())
	minor := amount.Shift(int32(cur.Fraction)).Round(0)
	return money.New(minor.IntPart(), cur.Code).Display()
}

// MarketFromCurrency derives the market of a wire record.
// Only the exact code "INR" maps to india; every other code, known or not, falls into europe.
func MarketFromCurrency(code string) Market {
	if code == money.INR {
		return MarketIndia
	}
	return MarketEurope
}

// ParseMarket parses a market name as used in URLs and storage keys
func ParseMarket(s string) (Market, error) {
	m := Market(strings.ToLower(strings.TrimSpace(s)))
	if !m.Valid() {
		return "", fmt.Errorf("invalid market %q", s)
	}
	return m, nil
}
