package http

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mutuo/internal/core"
)

func defaultParams(t *testing.T) core.LoanParams {
	t.Helper()
	p, err := core.ParseLoanParams("80000", "2.0", "15")
	require.NoError(t, err)
	return p
}

func TestParseScheduleQuery(t *testing.T) {
	defaults := defaultParams(t)

	tests := []struct {
		name      string
		query     url.Values
		wantCents int64
		wantRate  string
		wantYears int
		wantPage  int
	}{
		{
			name:      "empty query uses defaults",
			query:     url.Values{},
			wantCents: 8_000_000,
			wantRate:  "2",
			wantYears: 15,
			wantPage:  1,
		},
		{
			name:      "all values provided",
			query:     url.Values{"loan": {"100000"}, "rate": {"3"}, "years": {"30"}, "page": {"4"}},
			wantCents: 10_000_000,
			wantRate:  "3",
			wantYears: 30,
			wantPage:  4,
		},
		{
			name:      "comma decimal separator and whitespace",
			query:     url.Values{"loan": {" 123456,78 "}, "rate": {"7,25"}},
			wantCents: 12_345_678,
			wantRate:  "7.25",
			wantYears: 15,
			wantPage:  1,
		},
		{
			name:      "malformed page falls back to first",
			query:     url.Values{"page": {"last"}},
			wantCents: 8_000_000,
			wantRate:  "2",
			wantYears: 15,
			wantPage:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := ParseScheduleQuery(tt.query, defaults)
			require.NoError(t, err)

			assert.Equal(t, tt.wantCents, q.Params.Loan.Cents)
			assert.Equal(t, tt.wantRate, q.Params.AnnualRate.String())
			assert.Equal(t, tt.wantYears, q.Params.Years)
			assert.Equal(t, tt.wantPage, q.Page)
		})
	}
}

func TestParseScheduleQuery_Invalid(t *testing.T) {
	defaults := defaultParams(t)

	tests := []struct {
		name  string
		query url.Values
		want  error
	}{
		{"empty loan", url.Values{"loan": {""}}, core.ErrInvalidLoan},
		{"zero loan", url.Values{"loan": {"0"}}, core.ErrInvalidLoan},
		{"negative rate", url.Values{"rate": {"-1"}}, core.ErrInvalidRate},
		{"text rate", url.Values{"rate": {"abc"}}, core.ErrInvalidRate},
		{"fractional years", url.Values{"years": {"12.5"}}, core.ErrInvalidYears},
		{"zero years", url.Values{"years": {"0"}}, core.ErrInvalidYears},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScheduleQuery(tt.query, defaults)
			assert.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, core.ErrInvalidInput)
		})
	}
}

func TestInputsRoundTrip(t *testing.T) {
	p := defaultParams(t)

	in := InputsOf(p)
	assert.Equal(t, Inputs{Loan: "80000.00", Rate: "2", Years: "15"}, in)

	q, err := ParseScheduleQuery(in.Values(), core.LoanParams{})
	require.NoError(t, err)
	assert.Equal(t, p.Key(), q.Params.Key())
}

func TestSanitizeInput(t *testing.T) {
	assert.Equal(t, "80000", sanitizeInput("  80\x0000\x7f0 \n"))
}
