// Package report projects an amortization schedule into the shapes the
// front ends display: summary statistics, chart series and table pages.
//
// All functions are pure and never modify the schedule they read.
package report

import (
	"mutuo/internal/amortization"
	"mutuo/internal/core"
)

const (
	SeriesPrincipal = "Principal"
	SeriesInterest  = "Interest"

	ColorPrincipal = "#ff7f0e"
	ColorInterest  = "#1f77b4"

	DefaultPageSize = 12
)

type (
	// Summary holds the aggregate figures of a schedule.
	Summary struct {
		Months         int
		MonthlyPayment core.Money
		LastPayment    core.Money
		TotalPaid      core.Money
		TotalInterest  core.Money
		TotalPrincipal core.Money
	}

	// PerPeriodSeries feeds the dual-axis chart of interest and principal per month.
	PerPeriodSeries struct {
		Domain    [2]int    `json:"domain"`
		Months    []int     `json:"months"`
		Interest  []float64 `json:"interest"`
		Principal []float64 `json:"principal"`
	}

	// LongPoint is one observation of the cumulative chart in long (tidy) form.
	LongPoint struct {
		Month  int     `json:"month"`
		Series string  `json:"series"`
		Value  float64 `json:"value"`
	}

	// Page is a window of the schedule table.
	Page struct {
		Number     int
		Size       int
		TotalPages int
		TotalRows  int
		Rows       []amortization.Row
	}
)

// Summarize totals the schedule.
func Summarize(s amortization.Schedule) Summary {
	sum := Summary{Months: s.Len()}
	if s.Len() == 0 {
		return sum
	}
	sum.MonthlyPayment = s.At(0).Payment
	sum.LastPayment = s.Last().Payment
	for i := 0; i < s.Len(); i++ {
		r := s.At(i)
		sum.TotalPaid = sum.TotalPaid.Add(r.Payment)
		sum.TotalInterest = sum.TotalInterest.Add(r.Interest)
		sum.TotalPrincipal = sum.TotalPrincipal.Add(r.Principal)
	}
	return sum
}

// PerPeriod returns the monthly interest and principal series. The x domain
// starts at 0 and ends at the number of months.
func PerPeriod(s amortization.Schedule) PerPeriodSeries {
	n := s.Len()
	out := PerPeriodSeries{
		Domain:    [2]int{0, n},
		Months:    make([]int, n),
		Interest:  make([]float64, n),
		Principal: make([]float64, n),
	}
	for i := 0; i < n; i++ {
		r := s.At(i)
		out.Months[i] = r.Month
		out.Interest[i] = r.Interest.Euros()
		out.Principal[i] = r.Principal.Euros()
	}
	return out
}

// Cumulative returns the running totals of principal and interest melted
// into long form: every Principal point first, then every Interest point.
func Cumulative(s amortization.Schedule) []LongPoint {
	n := s.Len()
	out := make([]LongPoint, 2*n)
	var principal, interest core.Money
	for i := 0; i < n; i++ {
		r := s.At(i)
		principal = principal.Add(r.Principal)
		interest = interest.Add(r.Interest)
		out[i] = LongPoint{Month: r.Month, Series: SeriesPrincipal, Value: principal.Euros()}
		out[n+i] = LongPoint{Month: r.Month, Series: SeriesInterest, Value: interest.Euros()}
	}
	return out
}

// SeriesColors maps each cumulative series to its line color.
func SeriesColors() map[string]string {
	return map[string]string{
		SeriesPrincipal: ColorPrincipal,
		SeriesInterest:  ColorInterest,
	}
}

// Paginate returns page number (1-based) of the table. Out-of-range pages
// are clamped; a non-positive size falls back to DefaultPageSize.
func Paginate(s amortization.Schedule, number, size int) Page {
	if size <= 0 {
		size = DefaultPageSize
	}
	total := s.Len()
	pages := (total + size - 1) / size
	if pages == 0 {
		pages = 1
	}
	if number < 1 {
		number = 1
	}
	if number > pages {
		number = pages
	}

	start := (number - 1) * size
	end := min(start+size, total)
	rows := make([]amortization.Row, 0, end-start)
	for i := start; i < end; i++ {
		rows = append(rows, s.At(i))
	}

	return Page{
		Number:     number,
		Size:       size,
		TotalPages: pages,
		TotalRows:  total,
		Rows:       rows,
	}
}

func (p Page) HasPrev() bool { return p.Number > 1 }
func (p Page) HasNext() bool { return p.Number < p.TotalPages }
func (p Page) Prev() int     { return p.Number - 1 }
func (p Page) Next() int     { return p.Number + 1 }
