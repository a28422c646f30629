package core

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	MonthsPerYear = 12

	// MaxLoanCents bounds the loan so that running totals stay well inside int64.
	MaxLoanCents int64 = 1_000_000_000_000 * 100
	// MaxYears bounds the schedule length.
	MaxYears = 100
	// MaxAnnualRate bounds the rate, in percent, so that loan * rate * months
	// still fits int64 cents.
	MaxAnnualRate = 1000
)

type (
	// LoanParams are the three inputs of a fixed-rate mortgage.
	// AnnualRate is a percentage: 2.0 means 2% per year.
	LoanParams struct {
		Loan       Money
		AnnualRate decimal.Decimal
		Years      int
	}
)

var (
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrInvalidInput is the root of every precondition failure.
	ErrInvalidInput = errors.New("invalid input")
	ErrInvalidLoan  = fmt.Errorf("%w: loan amount must be between 0.01 and 1000000000000", ErrInvalidInput)
	ErrInvalidRate  = fmt.Errorf("%w: annual interest rate must be between 0 and 1000 percent", ErrInvalidInput)
	ErrInvalidYears = fmt.Errorf("%w: term must be a positive whole number of years", ErrInvalidInput)
)

var (
	monthlyRateDivisor = decimal.NewFromInt(MonthsPerYear * 100)
	maxAnnualRate      = decimal.NewFromInt(MaxAnnualRate)
)

// NewLoanParams validates scalar inputs. Years must be integral.
func NewLoanParams(loan, annualRate, years float64) (LoanParams, error) {
	// Checked before the conversion to cents, which would overflow.
	if math.IsNaN(loan) || math.IsInf(loan, 0) || loan > float64(MaxLoanCents/100) {
		return LoanParams{}, ErrInvalidLoan
	}
	if math.IsNaN(annualRate) || math.IsInf(annualRate, 0) {
		return LoanParams{}, ErrInvalidRate
	}
	if math.IsNaN(years) || math.IsInf(years, 0) || years != math.Trunc(years) {
		return LoanParams{}, ErrInvalidYears
	}
	if years <= 0 || years > MaxYears {
		return LoanParams{}, ErrInvalidYears
	}
	p := LoanParams{
		Loan:       MoneyFromDecimal(decimal.NewFromFloat(loan)),
		AnnualRate: decimal.NewFromFloat(annualRate),
		Years:      int(years),
	}
	if err := p.Validate(); err != nil {
		return LoanParams{}, err
	}
	return p, nil
}

// ParseLoanParams validates the textual form of the inputs, as submitted by a form.
// Both dot and comma are accepted as decimal separator.
func ParseLoanParams(loan, annualRate, years string) (LoanParams, error) {
	cents, err := ParseDecimalToCents(loan)
	if err != nil {
		return LoanParams{}, fmt.Errorf("%w (got %q)", ErrInvalidLoan, strings.TrimSpace(loan))
	}

	rate, err := parseDecimal(annualRate)
	if err != nil || rate.IsNegative() || rate.GreaterThan(maxAnnualRate) {
		return LoanParams{}, fmt.Errorf("%w (got %q)", ErrInvalidRate, strings.TrimSpace(annualRate))
	}

	y, err := parseDecimal(years)
	if err != nil || !y.IsInteger() {
		return LoanParams{}, fmt.Errorf("%w (got %q)", ErrInvalidYears, strings.TrimSpace(years))
	}
	if y.Sign() <= 0 || y.GreaterThan(decimal.NewFromInt(MaxYears)) {
		return LoanParams{}, fmt.Errorf("%w (got %q)", ErrInvalidYears, strings.TrimSpace(years))
	}

	p := LoanParams{
		Loan:       Money{Cents: cents},
		AnnualRate: rate,
		Years:      int(y.IntPart()),
	}
	if err := p.Validate(); err != nil {
		return LoanParams{}, err
	}
	return p, nil
}

func parseDecimal(s string) (decimal.Decimal, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if s == "" {
		return decimal.Decimal{}, ErrInvalidInput
	}
	return decimal.NewFromString(s)
}

func (p LoanParams) Validate() error {
	if p.Loan.Validate() != nil || p.Loan.Cents > MaxLoanCents {
		return ErrInvalidLoan
	}
	if p.AnnualRate.IsNegative() || p.AnnualRate.GreaterThan(maxAnnualRate) {
		return ErrInvalidRate
	}
	if p.Years <= 0 || p.Years > MaxYears {
		return ErrInvalidYears
	}
	return nil
}

// Months returns the number of monthly installments.
func (p LoanParams) Months() int {
	return p.Years * MonthsPerYear
}

// MonthlyRate returns annual_rate / (12 * 100) as a fraction.
func (p LoanParams) MonthlyRate() decimal.Decimal {
	return p.AnnualRate.Div(monthlyRateDivisor)
}

// Key identifies the inputs canonically; "2", "2.0" and "2.00" share a key.
func (p LoanParams) Key() string {
	return strconv.FormatInt(p.Loan.Cents, 10) + "|" + p.AnnualRate.String() + "|" + strconv.Itoa(p.Years)
}

func (p LoanParams) String() string {
	return fmt.Sprintf("loan=%s rate=%s%% years=%d", p.Loan, p.AnnualRate.String(), p.Years)
}
