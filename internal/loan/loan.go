// Package loan provides the indicative loan catalogue and EMI amortization
// math backing the loan tools.
package loan

import (
	"errors"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidPrincipal indicates a non-positive loan amount.
	ErrInvalidPrincipal = errors.New("loan amount must be greater than zero")
	// ErrInvalidTenure indicates a non-positive repayment tenure.
	ErrInvalidTenure = errors.New("tenure must be greater than zero")
	// ErrNegativeRate indicates a negative interest rate.
	ErrNegativeRate = errors.New("interest rate cannot be negative")
)

// Product is an indicative loan offering.
type Product struct {
	Name              string          `json:"name"`
	AnnualRatePercent decimal.Decimal `json:"interest_rate_annual_percent"`
	MinTenureMonths   int             `json:"min_tenure_months"`
	MaxTenureMonths   int             `json:"max_tenure_months"`
}

// Products returns the fixed loan catalogue.
func Products() []Product {
	return []Product{
		{Name: "Home Loan", AnnualRatePercent: decimal.RequireFromString("8.5"), MinTenureMonths: 60, MaxTenureMonths: 360},
		{Name: "Personal Loan", AnnualRatePercent: decimal.RequireFromString("12.9"), MinTenureMonths: 12, MaxTenureMonths: 60},
		{Name: "Auto Loan", AnnualRatePercent: decimal.RequireFromString("9.75"), MinTenureMonths: 12, MaxTenureMonths: 84},
		{Name: "Education Loan", AnnualRatePercent: decimal.RequireFromString("9.2"), MinTenureMonths: 24, MaxTenureMonths: 120},
	}
}

// Quote is a deterministic amortization result, rounded to 2 decimal places.
type Quote struct {
	Principal         decimal.Decimal `json:"principal"`
	AnnualRatePercent decimal.Decimal `json:"annual_rate_percent"`
	TenureMonths      int             `json:"tenure_months"`
	MonthlyRate       decimal.Decimal `json:"monthly_rate"`
	EMI               decimal.Decimal `json:"emi"`
	TotalPayment      decimal.Decimal `json:"total_payment"`
	TotalInterest     decimal.Decimal `json:"total_interest"`
}

// EMI computes the standard amortization
//
//	EMI = P * r * (1+r)^n / ((1+r)^n - 1)
//
// with the zero-rate fallback P/n. Decimal arithmetic keeps the result exact
// enough that repeated calls with the same inputs always round identically.
func EMI(principal, annualRatePercent decimal.Decimal, tenureMonths int) (Quote, error) {
	if !principal.IsPositive() {
		return Quote{}, ErrInvalidPrincipal
	}
	if tenureMonths <= 0 {
		return Quote{}, ErrInvalidTenure
	}
	if annualRatePercent.IsNegative() {
		return Quote{}, ErrNegativeRate
	}

	months := decimal.NewFromInt(int64(tenureMonths))
	monthlyRate := annualRatePercent.Div(decimal.NewFromInt(1200))

	var emi decimal.Decimal
	if monthlyRate.IsZero() {
		emi = principal.Div(months)
	} else {
		one := decimal.NewFromInt(1)
		growth := one.Add(monthlyRate).Pow(months)
		emi = principal.Mul(monthlyRate).Mul(growth).Div(growth.Sub(one))
	}

	totalPayment := emi.Mul(months)
	totalInterest := totalPayment.Sub(principal)

	return Quote{
		Principal:         principal,
		AnnualRatePercent: annualRatePercent,
		TenureMonths:      tenureMonths,
		MonthlyRate:       monthlyRate,
		EMI:               emi.Round(2),
		TotalPayment:      totalPayment.Round(2),
		TotalInterest:     totalInterest.Round(2),
	}, nil
}
