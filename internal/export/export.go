// Package export writes a schedule as a downloadable table.
package export

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"mutuo/internal/amortization"
)

var ErrUnsupportedFormat = errors.New("unsupported export format")

// Header is the column order of every format.
var Header = []string{"Month", "Payment", "Interest", "Principal", "Remaining Balance"}

// Encoder is a strategy for serializing a schedule.
type Encoder interface {
	Encode(w io.Writer, s amortization.Schedule) error
	ContentType() string
	Extension() string
}

// Row is the serialized form of one installment. Amounts are fixed
// two-digit strings so that no format loses precision.
type Row struct {
	Month            int    `json:"month" yaml:"month"`
	Payment          string `json:"payment" yaml:"payment"`
	Interest         string `json:"interest" yaml:"interest"`
	Principal        string `json:"principal" yaml:"principal"`
	RemainingBalance string `json:"remaining_balance" yaml:"remaining_balance"`
}

// Document wraps the rows with the inputs that produced them.
type Document struct {
	Loan       string `json:"loan" yaml:"loan"`
	AnnualRate string `json:"annual_rate" yaml:"annual_rate"`
	Years      int    `json:"years" yaml:"years"`
	Rows       []Row  `json:"rows" yaml:"rows"`
}

// EncoderFor returns the encoder registered for format (csv, json, yaml).
func EncoderFor(format string) (Encoder, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "csv", "":
		return CSVEncoder{}, nil
	case "json":
		return JSONEncoder{}, nil
	case "yaml", "yml":
		return YAMLEncoder{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// Filename suggests a download name such as "schedule-80000-2-15y.csv".
func Filename(s amortization.Schedule, enc Encoder) string {
	p := s.Params()
	return "schedule-" + strconv.FormatInt(p.Loan.Cents/100, 10) + "-" + p.AnnualRate.String() + "-" +
		strconv.Itoa(p.Years) + "y." + enc.Extension()
}

func toDocument(s amortization.Schedule) Document {
	p := s.Params()
	doc := Document{
		Loan:       p.Loan.String(),
		AnnualRate: p.AnnualRate.String(),
		Years:      p.Years,
		Rows:       make([]Row, 0, s.Len()),
	}
	for i := 0; i < s.Len(); i++ {
		doc.Rows = append(doc.Rows, RowOf(s.At(i)))
	}
	return doc
}

// RowOf converts one installment to its serialized form.
func RowOf(r amortization.Row) Row {
	return Row{
		Month:            r.Month,
		Payment:          r.Payment.String(),
		Interest:         r.Interest.String(),
		Principal:        r.Principal.String(),
		RemainingBalance: r.RemainingBalance.String(),
	}
}

// CSVEncoder writes a header line followed by one line per month.
type CSVEncoder struct{}

func (CSVEncoder) ContentType() string { return "text/csv; charset=utf-8" }
func (CSVEncoder) Extension() string   { return "csv" }

func (CSVEncoder) Encode(w io.Writer, s amortization.Schedule) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range toDocument(s).Rows {
		rec := []string{strconv.Itoa(r.Month), r.Payment, r.Interest, r.Principal, r.RemainingBalance}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write csv month %d: %w", r.Month, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

type JSONEncoder struct{}

func (JSONEncoder) ContentType() string { return "application/json" }
func (JSONEncoder) Extension() string   { return "json" }

func (JSONEncoder) Encode(w io.Writer, s amortization.Schedule) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(toDocument(s)); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

type YAMLEncoder struct{}

func (YAMLEncoder) ContentType() string { return "application/yaml" }
func (YAMLEncoder) Extension() string   { return "yaml" }

func (YAMLEncoder) Encode(w io.Writer, s amortization.Schedule) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(toDocument(s)); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return enc.Close()
}
