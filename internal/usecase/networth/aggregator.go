package networth

import (
	"github.com/shopspring/decimal"

	"github.com/bharadwajkrishnan/finai/internal/domain"
)

// CategoryTotal is the subtotal of one category in a market
type CategoryTotal struct {
	Category domain.Category
	Count    int
	Total    decimal.Decimal
	Included bool // false for categories tracked for information only
}

// Result represents the calculated net worth of a market
type Result struct {
	Market     domain.Market
	Total      decimal.Decimal
	Categories []CategoryTotal
}

// Compute calculates the net worth of a market
// Logic:
//   - Stocks: sum of ActualWorth (market value, not amount invested)
//   - Bank accounts: sum of Balance
//   - Mutual funds: sum of CurrentWorth (not amount invested)
//   - Fixed deposits: sum of AmountInvested (principal, NOT maturity amount)
//   - Commodities: sum of CurrentValue
//   - Insurance policies: excluded
func Compute(h domain.Holdings, m domain.Market) decimal.Decimal {
	total := decimal.Zero
	for _, c := range domain.Categories {
		if !Included(c) {
			continue
		}
		total = total.Add(categoryTotal(h.Get(domain.Key(c, m))))
	}
	return total
}

// ComputeAll calculates the net worth of every market
func ComputeAll(h domain.Holdings) map[domain.Market]decimal.Decimal {
	out := make(map[domain.Market]decimal.Decimal, len(domain.Markets))
	for _, m := range domain.Markets {
		out[m] = Compute(h, m)
	}
	return out
}

// Breakdown calculates the net worth of a market along with per-category subtotals.
// Insurance is reported with its insured amount but Included is false and it is not part of Total.
func Breakdown(h domain.Holdings, m domain.Market) *Result {
	result := &Result{Market: m, Total: decimal.Zero}
	for _, c := range domain.Categories {
		assets := h.Get(domain.Key(c, m))
		ct := CategoryTotal{
			Category: c,
			Count:    len(assets),
			Total:    categoryTotal(assets),
			Included: Included(c),
		}
		if ct.Included {
			result.Total = result.Total.Add(ct.Total)
		}
		result.Categories = append(result.Categories, ct)
	}
	return result
}

// Included reports whether a category counts towards net worth
func Included(c domain.Category) bool {
	return c != domain.CategoryInsurancePolicies
}

// Value returns the amount an asset contributes to its category total
func Value(a domain.Asset) decimal.Decimal {
	switch v := a.(type) {
	case *domain.Stock:
		return v.ActualWorth
	case *domain.BankAccount:
		return v.Balance
	case *domain.MutualFund:
		return v.CurrentWorth
	case *domain.FixedDeposit:
		return v.AmountInvested
	case *domain.InsurancePolicy:
		return v.AmountInsured
	case *domain.Commodity:
		return v.CurrentValue
	default:
		return decimal.Zero
	}
}

func categoryTotal(assets []domain.Asset) decimal.Decimal {
	total := decimal.Zero
	for _, a := range assets {
		if a == nil {
			continue
		}
		total = total.Add(Value(a))
	}
	return total
}
