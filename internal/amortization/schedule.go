// Package amortization generates French amortization schedules: a level
// monthly payment whose split between interest and principal shifts over
// the life of a fixed-rate loan.
//
// Every monetary quantity is rounded to cents at the moment it is computed,
// and the last installment absorbs the residual balance so that the
// schedule always ends at exactly zero.
package amortization

import (
	"math"

	"github.com/shopspring/decimal"

	"mutuo/internal/core"
)

// Row is one monthly installment.
type Row struct {
	Month            int
	Payment          core.Money
	Interest         core.Money
	Principal        core.Money
	RemainingBalance core.Money
}

// Schedule is the full, immutable month-by-month breakdown of a loan.
type Schedule struct {
	params core.LoanParams
	rows   []Row
}

// Generate computes the schedule for p. It returns an error wrapping
// core.ErrInvalidInput when p violates the preconditions.
func Generate(p core.LoanParams) (Schedule, error) {
	if err := p.Validate(); err != nil {
		return Schedule{}, err
	}

	n := p.Months()
	monthlyRate := p.MonthlyRate()
	payment := LevelPayment(p)
	balance := p.Loan.Decimal()

	rows := make([]Row, 0, n)
	for month := 1; month <= n; month++ {
		interest := balance.Mul(monthlyRate).Round(2)
		principal := payment.Sub(interest).Round(2)
		installment := payment

		if month == n {
			principal = balance
			installment = principal.Add(interest).Round(2)
		}

		balance = balance.Sub(principal).Round(2)

		rows = append(rows, Row{
			Month:            month,
			Payment:          core.MoneyFromDecimal(installment),
			Interest:         core.MoneyFromDecimal(interest),
			Principal:        core.MoneyFromDecimal(principal),
			RemainingBalance: core.MoneyFromDecimal(balance),
		})
	}

	return Schedule{params: p, rows: rows}, nil
}

// GenerateFromScalars validates the raw inputs and generates the schedule.
func GenerateFromScalars(loan, annualRate, years float64) (Schedule, error) {
	p, err := core.NewLoanParams(loan, annualRate, years)
	if err != nil {
		return Schedule{}, err
	}
	return Generate(p)
}

// LevelPayment returns the constant installment given by the annuity formula
//
//	M = P * i(1+i)^n / ((1+i)^n - 1)
//
// rounded to cents. At a zero rate the formula is undefined and the loan is
// split into equal principal installments instead.
func LevelPayment(p core.LoanParams) decimal.Decimal {
	loan := p.Loan.Decimal()
	n := p.Months()
	monthlyRate := p.MonthlyRate()

	if monthlyRate.IsZero() {
		return loan.Div(decimal.NewFromInt(int64(n))).Round(2)
	}

	i := monthlyRate.InexactFloat64()
	growth := math.Pow(1+i, float64(n))
	if math.IsInf(growth, 1) {
		// i(1+i)^n / ((1+i)^n - 1) tends to i.
		return loan.Mul(monthlyRate).Round(2)
	}
	// Divided through by (1+i)^n so that large growth factors cannot
	// overflow the numerator.
	payment := loan.InexactFloat64() * i / (1 - 1/growth)
	return decimal.NewFromFloat(payment).Round(2)
}

// Params returns the inputs the schedule was built from.
func (s Schedule) Params() core.LoanParams {
	return s.params
}

// Len returns the number of installments.
func (s Schedule) Len() int {
	return len(s.rows)
}

// Rows returns a copy of the installments in month order.
func (s Schedule) Rows() []Row {
	out := make([]Row, len(s.rows))
	copy(out, s.rows)
	return out
}

// At returns the installment at zero-based index i.
func (s Schedule) At(i int) Row {
	return s.rows[i]
}

// Last returns the final installment, or the zero Row for an empty schedule.
func (s Schedule) Last() Row {
	if len(s.rows) == 0 {
		return Row{}
	}
	return s.rows[len(s.rows)-1]
}

// Equal reports whether both schedules hold identical rows.
func (s Schedule) Equal(o Schedule) bool {
	if len(s.rows) != len(o.rows) {
		return false
	}
	for i := range s.rows {
		if s.rows[i] != o.rows[i] {
			return false
		}
	}
	return true
}
