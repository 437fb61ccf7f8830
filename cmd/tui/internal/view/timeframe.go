package view

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// Period is a date range preset for transaction views.
type Period int

const (
	PeriodThisMonth Period = iota
	PeriodLastMonth
	PeriodThisYear
	PeriodAll
	PeriodCustom
)

var periodLabels = map[Period]string{
	PeriodThisMonth: "This Month",
	PeriodLastMonth: "Last Month",
	PeriodThisYear:  "This Year",
	PeriodAll:       "All Time",
	PeriodCustom:    "Custom Range",
}

func (p Period) String() string {
	if l, ok := periodLabels[p]; ok {
		return l
	}

	return "Unknown"
}

// Range returns the first and last day of p relative to now. PeriodAll and
// PeriodCustom have no range of their own.
func (p Period) Range(now time.Time) (time.Time, time.Time) {
	switch p {
	case PeriodThisMonth:
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		return start, now
	case PeriodLastMonth:
		start := time.Date(now.Year(), now.Month()-1, 1, 0, 0, 0, 0, time.UTC)
		return start, start.AddDate(0, 1, -1)
	case PeriodThisYear:
		return time.Date(now.Year(), 1, 1, 0, 0, 0, 0, time.UTC), now
	}

	return time.Time{}, time.Time{}
}

// wholeDays widens a range to cover both end days completely.
func wholeDays(start, end time.Time) (time.Time, time.Time) {
	return time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC),
		time.Date(end.Year(), end.Month(), end.Day(), 23, 59, 59, 0, time.UTC)
}

// PeriodSelectedMsg is emitted once a range is chosen. Start and End are zero when All is set.
type PeriodSelectedMsg struct {
	Start time.Time
	End   time.Time
	All   bool
}

// PeriodPicker lets the user pick a preset or type a custom range.
type PeriodPicker struct {
	selected Period
	custom   bool

	inputs [2]textinput.Model
	focus  int

	err error
}

func NewPeriodPicker(initial Period) PeriodPicker {
	p := PeriodPicker{selected: initial}

	for i, prompt := range []string{"From: ", "To:   "} {
		in := textinput.New()
		in.Placeholder = "YYYY-MM-DD"
		in.CharLimit = 10
		in.Width = 12
		in.Prompt = prompt
		p.inputs[i] = in
	}

	return p
}

func (p PeriodPicker) Update(msg tea.Msg) (PeriodPicker, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)

	if !p.custom {
		if ok {
			return p.updateSelect(keyMsg)
		}

		return p, nil
	}

	if ok {
		switch keyMsg.String() {
		case "tab", "shift+tab":
			p.inputs[p.focus].Blur()
			p.focus = 1 - p.focus

			return p, p.inputs[p.focus].Focus()
		case "enter":
			return p.submitCustom()
		case "esc":
			p.custom = false
			p.err = nil

			return p, nil
		}
	}

	var cmd tea.Cmd
	p.inputs[p.focus], cmd = p.inputs[p.focus].Update(msg)

	return p, cmd
}

func (p PeriodPicker) updateSelect(msg tea.KeyMsg) (PeriodPicker, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if p.selected > PeriodThisMonth {
			p.selected--
		}
	case "down", "j":
		if p.selected < PeriodCustom {
			p.selected++
		}
	case "enter":
		switch p.selected {
		case PeriodCustom:
			p.custom = true
			p.focus = 0

			return p, p.inputs[0].Focus()
		case PeriodAll:
			return p, func() tea.Msg { return PeriodSelectedMsg{All: true} }
		}

		start, end := wholeDays(p.selected.Range(time.Now()))

		return p, func() tea.Msg { return PeriodSelectedMsg{Start: start, End: end} }
	}

	return p, nil
}

func (p PeriodPicker) submitCustom() (PeriodPicker, tea.Cmd) {
	var dates [2]time.Time

	for i, in := range p.inputs {
		t, err := time.Parse(time.DateOnly, strings.TrimSpace(in.Value()))
		if err != nil {
			p.err = fmt.Errorf("invalid date %q (YYYY-MM-DD)", in.Value())
			return p, nil
		}

		dates[i] = t
	}

	if dates[1].Before(dates[0]) {
		p.err = errors.New("the range ends before it starts")
		return p, nil
	}

	p.err = nil
	start, end := wholeDays(dates[0], dates[1])

	return p, func() tea.Msg { return PeriodSelectedMsg{Start: start, End: end} }
}

func (p PeriodPicker) View() string {
	var sb strings.Builder

	if p.custom {
		fmt.Fprintf(&sb, "Custom range:\n\n%s\n%s\n\n(Enter to confirm, Tab to switch, Esc to go back)",
			p.inputs[0].View(), p.inputs[1].View())
	} else {
		sb.WriteString("Period:\n\n")

		for i := PeriodThisMonth; i <= PeriodCustom; i++ {
			cursor := " "
			if p.selected == i {
				cursor = ">"
			}

			fmt.Fprintf(&sb, "%s %s\n", cursor, i)
		}

		sb.WriteString("\n(Enter to select, Esc to go back)")
	}

	if p.err != nil {
		sb.WriteString("\n\n" + errorStyle.Render("Error: "+p.err.Error()))
	}

	return sb.String()
}

// Selecting reports whether the picker shows the preset list rather than custom inputs.
func (p PeriodPicker) Selecting() bool {
	return !p.custom
}

// Reset returns the picker to the preset list.
func (p *PeriodPicker) Reset() {
	p.custom = false
	p.err = nil

	for i := range p.inputs {
		p.inputs[i].SetValue("")
		p.inputs[i].Blur()
	}
}

// filterDates applies a picked period to a transaction filter's bounds.
func filterDates(msg PeriodSelectedMsg) (start, end *time.Time) {
	if msg.All {
		return nil, nil
	}

	return new(msg.Start), new(msg.End)
}
