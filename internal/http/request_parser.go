// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating HTTP request data.

package http

import (
	"net/url"
	"strconv"
	"strings"

	"mutuo/internal/core"
)

// ScheduleQuery holds the loan inputs and table page of a request.
type ScheduleQuery struct {
	Params core.LoanParams
	Page   int
}

// Inputs is the canonical text form of the loan inputs, used to fill form
// fields and to build links that carry the same inputs.
type Inputs struct {
	Loan  string
	Rate  string
	Years string
}

// InputsOf renders p the way the input form expects it.
func InputsOf(p core.LoanParams) Inputs {
	return Inputs{
		Loan:  p.Loan.String(),
		Rate:  p.AnnualRate.String(),
		Years: strconv.Itoa(p.Years),
	}
}

// Values encodes the inputs as query parameters.
func (in Inputs) Values() url.Values {
	return url.Values{
		"loan":  {in.Loan},
		"rate":  {in.Rate},
		"years": {in.Years},
	}
}

// ParseScheduleQuery reads loan, rate, years and page from query. Absent
// inputs take the value in defaults; a present but malformed input is an
// error wrapping core.ErrInvalidInput. Page defaults to 1.
func ParseScheduleQuery(query url.Values, defaults core.LoanParams) (ScheduleQuery, error) {
	def := InputsOf(defaults)
	in := Inputs{
		Loan:  valueOr(query, "loan", def.Loan),
		Rate:  valueOr(query, "rate", def.Rate),
		Years: valueOr(query, "years", def.Years),
	}

	p, err := core.ParseLoanParams(in.Loan, in.Rate, in.Years)
	if err != nil {
		return ScheduleQuery{}, err
	}

	page := 1
	if v := strings.TrimSpace(query.Get("page")); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			page = n
		}
	}

	return ScheduleQuery{Params: p, Page: page}, nil
}

func valueOr(query url.Values, key, fallback string) string {
	if !query.Has(key) {
		return fallback
	}
	return sanitizeInput(query.Get(key))
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 || r == 127 {
			return -1
		}
		return r
	}, s)
}
