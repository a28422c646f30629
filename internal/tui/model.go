// Package tui is the terminal front end: three inputs, summary figures, a
// paginated schedule table and sparkline charts, recomputed on every edit.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"mutuo/internal/amortization"
	"mutuo/internal/core"
	applog "mutuo/internal/log"
	"mutuo/internal/report"
)

// ScheduleComputer produces the schedule for a set of loan inputs.
type ScheduleComputer interface {
	Compute(ctx context.Context, p core.LoanParams) (amortization.Schedule, error)
}

const (
	inputLoan = iota
	inputRate
	inputYears
	inputCount
)

var inputLabels = [inputCount]string{
	inputLoan:  "Loan Amount",
	inputRate:  "Annual Interest Rate",
	inputYears: "Years",
}

const defaultChartWidth = 60

// Config configures a Model.
type Config struct {
	Computer ScheduleComputer
	Defaults core.LoanParams
	PageSize int
	Logger   *applog.Logger
}

// Model is the Bubbletea model of the calculator.
type Model struct {
	ctx      context.Context
	computer ScheduleComputer
	logger   *applog.Logger

	inputs [inputCount]textinput.Model
	focus  int

	table    table.Model
	pageSize int
	page     int

	schedule amortization.Schedule
	summary  report.Summary
	err      error

	width int
}

// New creates a model showing the schedule for cfg.Defaults.
func New(ctx context.Context, cfg Config) Model {
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = report.DefaultPageSize
	}
	logger := cfg.Logger
	if logger == nil {
		logger = applog.Discard()
	}

	m := Model{
		ctx:      ctx,
		computer: cfg.Computer,
		logger:   logger.WithComponent(applog.ComponentTUI),
		pageSize: pageSize,
		page:     1,
		width:    defaultChartWidth + 24,
	}

	defaults := []string{cfg.Defaults.Loan.String(), cfg.Defaults.AnnualRate.String(), fmt.Sprint(cfg.Defaults.Years)}
	for i := range m.inputs {
		in := textinput.New()
		in.Prompt = ""
		in.CharLimit = 16
		in.Width = 14
		in.SetValue(defaults[i])
		m.inputs[i] = in
	}
	m.inputs[inputLoan].Placeholder = "80000"
	m.inputs[inputRate].Placeholder = "2.0"
	m.inputs[inputYears].Placeholder = "15"
	m.inputs[inputLoan].Focus()

	m.table = table.New(
		table.WithColumns([]table.Column{
			{Title: "Month", Width: 6},
			{Title: "Payment", Width: 12},
			{Title: "Interest", Width: 12},
			{Title: "Principal", Width: 12},
			{Title: "Remaining Balance", Width: 18},
		}),
		table.WithHeight(pageSize+2),
		table.WithFocused(false),
		table.WithStyles(tableStyles()),
	)

	m.recompute()
	return m
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyTab, tea.KeyDown:
			return m, m.setFocus((m.focus + 1) % inputCount)
		case tea.KeyShiftTab, tea.KeyUp:
			return m, m.setFocus((m.focus + inputCount - 1) % inputCount)
		case tea.KeyPgDown:
			m.setPage(m.page + 1)
			return m, nil
		case tea.KeyPgUp:
			m.setPage(m.page - 1)
			return m, nil
		case tea.KeyHome:
			m.setPage(1)
			return m, nil
		case tea.KeyEnd:
			m.setPage(m.lastPage())
			return m, nil
		}
	}

	before := m.inputs[m.focus].Value()
	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	if m.inputs[m.focus].Value() != before {
		m.page = 1
		m.recompute()
	}
	return m, cmd
}

func (m *Model) setFocus(i int) tea.Cmd {
	m.inputs[m.focus].Blur()
	m.focus = i
	return m.inputs[m.focus].Focus()
}

func (m *Model) lastPage() int {
	return report.Paginate(m.schedule, 1, m.pageSize).TotalPages
}

func (m *Model) setPage(n int) {
	if m.err != nil {
		return
	}
	page := report.Paginate(m.schedule, n, m.pageSize)
	m.page = page.Number
	m.table.SetRows(tableRows(page))
}

// recompute validates the inputs and rebuilds the schedule. On invalid
// input the error replaces the previous schedule in the view.
func (m *Model) recompute() {
	p, err := core.ParseLoanParams(m.inputs[inputLoan].Value(), m.inputs[inputRate].Value(), m.inputs[inputYears].Value())
	if err == nil {
		var sched amortization.Schedule
		if sched, err = m.computer.Compute(m.ctx, p); err == nil {
			m.schedule = sched
			m.summary = report.Summarize(sched)
			m.err = nil
			m.setPage(m.page)
			return
		}
	}

	m.err = err
	m.schedule = amortization.Schedule{}
	m.summary = report.Summary{}
	m.table.SetRows(nil)
	m.logger.Debug("Inputs rejected", applog.FieldError, err)
}

func tableRows(page report.Page) []table.Row {
	rows := make([]table.Row, 0, len(page.Rows))
	for _, r := range page.Rows {
		rows = append(rows, table.Row{
			fmt.Sprint(r.Month),
			r.Payment.String(),
			r.Interest.String(),
			r.Principal.String(),
			r.RemainingBalance.String(),
		})
	}
	return rows
}

// View renders the model
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render("Fixed Rate Mortgage Calculator"))
	b.WriteString("\n")
	b.WriteString(m.inputsView())
	b.WriteString("\n")

	if m.err != nil {
		b.WriteString("\n")
		b.WriteString(ErrorStyle.Render("✗ " + m.err.Error()))
		b.WriteString("\n")
		b.WriteString(HelpStyle.Render("tab: next field • esc: quit"))
		return b.String()
	}

	b.WriteString(m.statsView())
	b.WriteString("\n")
	b.WriteString(SectionStyle.Render("Amortization Schedule"))
	b.WriteString("\n")
	b.WriteString(m.table.View())
	b.WriteString("\n")
	page := report.Paginate(m.schedule, m.page, m.pageSize)
	b.WriteString(StatLabelStyle.Render(fmt.Sprintf("Page %d of %d (%d months)", page.Number, page.TotalPages, page.TotalRows)))
	b.WriteString("\n")
	b.WriteString(m.chartsView())
	b.WriteString(HelpStyle.Render("tab/shift+tab: field • pgup/pgdn: page • home/end: first/last • esc: quit"))
	return b.String()
}

func (m Model) inputsView() string {
	fields := make([]string, 0, inputCount)
	for i, in := range m.inputs {
		label := LabelStyle
		if i == m.focus {
			label = FocusedLabelStyle
		}
		fields = append(fields, label.Render(inputLabels[i]+": ")+in.View())
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, strings.Join(fields, "   "))
}

func (m Model) statsView() string {
	stat := func(label string, v core.Money) string {
		return StatStyle.Render(StatLabelStyle.Render(label) + "\n" + LabelStyle.Render(v.Format()))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top,
		stat("Amount to pay back", m.summary.TotalPaid),
		stat("Interest to pay back", m.summary.TotalInterest),
		stat("Monthly payment", m.summary.MonthlyPayment),
	)
}

func (m Model) chartsView() string {
	width := min(max(m.width-14, 10), 120)

	per := report.PerPeriod(m.schedule)
	var cumPrincipal, cumInterest []float64
	for _, pt := range report.Cumulative(m.schedule) {
		if pt.Series == report.SeriesPrincipal {
			cumPrincipal = append(cumPrincipal, pt.Value)
		} else {
			cumInterest = append(cumInterest, pt.Value)
		}
	}
	lo, hi := bounds(cumPrincipal, cumInterest)

	var b strings.Builder
	b.WriteString(SectionStyle.Render("Interest and Principal paid over time"))
	b.WriteString("\n")
	b.WriteString(InterestStyle.Render(fmt.Sprintf("%-10s %s", report.SeriesInterest, Sparkline(per.Interest, width))))
	b.WriteString("\n")
	b.WriteString(PrincipalStyle.Render(fmt.Sprintf("%-10s %s", report.SeriesPrincipal, Sparkline(per.Principal, width))))
	b.WriteString("\n")
	b.WriteString(SectionStyle.Render("Cumulative Interest and Principal paid over time"))
	b.WriteString("\n")
	b.WriteString(PrincipalStyle.Render(fmt.Sprintf("%-10s %s", report.SeriesPrincipal, SparklineScaled(cumPrincipal, width, lo, hi))))
	b.WriteString("\n")
	b.WriteString(InterestStyle.Render(fmt.Sprintf("%-10s %s", report.SeriesInterest, SparklineScaled(cumInterest, width, lo, hi))))
	b.WriteString("\n")
	return b.String()
}

// Err returns the current input error, if any.
func (m Model) Err() error { return m.err }

// Schedule returns the schedule on display.
func (m Model) Schedule() amortization.Schedule { return m.schedule }

// Page returns the current table page number.
func (m Model) Page() int { return m.page }
