package backend

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bharadwajkrishnan/finai/internal/domain"
)

func decodeOne(t *testing.T, raw string) domain.Asset {
	t.Helper()
	var w WireAsset
	require.NoError(t, json.Unmarshal([]byte(raw), &w))
	a, err := ToDomain(w)
	require.NoError(t, err)
	return a
}

func TestNumber_Tolerant(t *testing.T) {
	tests := []struct {
		raw   string
		want  string
		valid bool
	}{
		{raw: `12.5`, want: "12.5", valid: true},
		{raw: `"1,250.75"`, want: "1250.75", valid: true},
		{raw: `" 42 "`, want: "42", valid: true},
		{raw: `null`, want: "0", valid: false},
		{raw: `""`, want: "0", valid: false},
		{raw: `"abc"`, want: "0", valid: false},
		{raw: `true`, want: "0", valid: false},
		{raw: `{}`, want: "0", valid: false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			var n Number
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &n))
			assert.Equal(t, tt.valid, n.Valid)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(n.Value), "got %s", n.Value)
		})
	}
}

func TestFlexID(t *testing.T) {
	var rec struct {
		A FlexID `json:"a"`
		B FlexID `json:"b"`
		C FlexID `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a": 42, "b": " abc-1 ", "c": null}`), &rec))

	assert.Equal(t, FlexID("42"), rec.A)
	assert.Equal(t, FlexID("abc-1"), rec.B)
	assert.Equal(t, FlexID(""), rec.C)
}

func TestToDomain_Stocks(t *testing.T) {
	first := decodeOne(t, `{"id": 1, "type": "stock", "currency": "INR", "purchase_price": 100, "quantity": 10, "current_price": 110}`)
	second := decodeOne(t, `{"id": 2, "type": "stock", "currency": "INR", "purchase_price": "200", "quantity": 5, "current_price": 190}`)

	s1 := first.(*domain.Stock)
	s2 := second.(*domain.Stock)
	assert.Equal(t, domain.MarketIndia, s1.Market)
	assert.Equal(t, "1", s1.ID)
	assert.Equal(t, "1", s1.DBID)
	assert.True(t, decimal.NewFromInt(1100).Equal(s1.ActualWorth))
	assert.True(t, decimal.NewFromInt(950).Equal(s2.ActualWorth))
}

func TestToDomain_StockFallsBackToPurchasePrice(t *testing.T) {
	s := decodeOne(t, `{"id": 3, "type": "stock", "currency": "EUR", "purchase_price": 20, "quantity": 3}`).(*domain.Stock)

	assert.Equal(t, domain.MarketEurope, s.Market)
	assert.True(t, decimal.NewFromInt(60).Equal(s.ActualWorth))
}

func TestToDomain_FixedDepositDuration(t *testing.T) {
	fd := decodeOne(t, `{"id": 4, "type": "fixed_deposit", "currency": "INR", "amount_invested": 50000,
		"start_date": "2024-01-01", "maturity_date": "2025-01-01"}`).(*domain.FixedDeposit)

	// 366 days / 30 = 12.2 -> 12
	assert.Equal(t, 12, fd.DurationMonths)
	assert.True(t, decimal.NewFromInt(50000).Equal(fd.AmountInvested))
	assert.True(t, fd.MaturityAmount.IsZero())
}

func TestDurationMonths(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, 0, DurationMonths(time.Time{}, start))
	assert.Equal(t, 2, DurationMonths(start, start.AddDate(0, 0, 45)))  // 1.5 -> 2
	assert.Equal(t, 1, DurationMonths(start, start.AddDate(0, 0, 44)))  // 1.47 -> 1
	assert.Equal(t, 3, DurationMonths(start, start.AddDate(0, 0, 100))) // 3.33 -> 3
}

func TestToDomain_CommodityValue(t *testing.T) {
	provided := decodeOne(t, `{"id": 5, "type": "commodity", "currency": "INR", "quantity": 10, "purchase_price": 5000, "current_value": 62000}`).(*domain.Commodity)
	derived := decodeOne(t, `{"id": 6, "type": "commodity", "currency": "INR", "quantity": 10, "purchase_price": 5000}`).(*domain.Commodity)

	assert.True(t, decimal.NewFromInt(62000).Equal(provided.CurrentValue))
	assert.True(t, decimal.NewFromInt(50000).Equal(derived.CurrentValue))
}

func TestToDomain_MutualFundWorth(t *testing.T) {
	mf := decodeOne(t, `{"id": 7, "type": "mutual_fund", "currency": "EUR", "units": 10, "nav": "12.5", "amount_invested": 100}`).(*domain.MutualFund)
	assert.True(t, decimal.NewFromInt(125).Equal(mf.CurrentWorth))
}

func TestToDomain_MalformedNumbersAreZero(t *testing.T) {
	b := decodeOne(t, `{"id": 8, "type": "bank_account", "currency": "USD", "balance": "n/a"}`).(*domain.BankAccount)

	assert.Equal(t, domain.MarketEurope, b.Market)
	assert.True(t, b.Balance.IsZero())
}

func TestToDomain_UnknownType(t *testing.T) {
	_, err := ToDomain(WireAsset{Type: "crypto"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown asset type")
}

func TestFromDomain_RoundTripsCategoryFields(t *testing.T) {
	fd := &domain.FixedDeposit{
		AssetBase:      domain.AssetBase{ID: "tmp-1", Name: "<b>SBI</b> FD", Market: domain.MarketIndia, FamilyMemberID: " 2 "},
		BankName:       "SBI & Co",
		AmountInvested: decimal.NewFromInt(1000),
		StartDate:      time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		MaturityDate:   time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
	}

	w, err := FromDomain(fd)
	require.NoError(t, err)

	assert.Equal(t, TypeFixedDeposit, w.Type)
	assert.Equal(t, "INR", w.Currency)
	assert.Equal(t, "SBI FD", w.Name)
	assert.Equal(t, "SBI & Co", w.BankName)
	assert.Equal(t, FlexID("2"), w.FamilyMemberID)
	assert.Equal(t, "2024-03-01", w.StartDate)
	assert.Equal(t, FlexID(""), w.ID)
	assert.False(t, w.MaturityAmount.Valid)

	raw, err := json.Marshal(w)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"amount_invested":1000`)
	assert.Contains(t, string(raw), `"maturity_amount":null`)
	assert.NotContains(t, string(raw), `"id"`)

	back, err := ToDomain(w)
	require.NoError(t, err)
	assert.Equal(t, 12, back.(*domain.FixedDeposit).DurationMonths)
}

func TestFromDomain_UnassignedSendsNullMember(t *testing.T) {
	acc := &domain.BankAccount{
		AssetBase: domain.AssetBase{ID: "5", DBID: "5", Name: "Savings", Market: domain.MarketEurope, FamilyMemberID: "  "},
		Balance:   decimal.NewFromInt(10),
	}

	w, err := FromDomain(acc)
	require.NoError(t, err)

	raw, err := json.Marshal(w)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"family_member_id":null`)
}

func TestWireType(t *testing.T) {
	for _, c := range domain.Categories {
		assert.NotEmpty(t, WireType(c), c)
	}
	assert.Empty(t, WireType("bonds"))
}
