package view

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/RaniyaAK/arts/internal/commission"
	"github.com/RaniyaAK/arts/internal/identity"
)

type boardState int

const (
	boardStateBrowse boardState = iota
	boardStateForm
)

// boardAction is what a key press on the board asks for.
type boardAction struct {
	key     string
	label   string
	trigger commission.Trigger
	target  commission.Status
	// form is the input the action needs before it runs, if any.
	form string
}

const (
	formReason = "reason"
	formPrice  = "price"
	formMode   = "mode"
)

var boardActions = []boardAction{
	{key: "a", label: "accept", trigger: commission.TriggerAccept, target: commission.StatusAccepted},
	{key: "x", label: "reject", trigger: commission.TriggerReject, target: commission.StatusRejected, form: formReason},
	{key: "s", label: "start", trigger: commission.TriggerStartProgress, target: commission.StatusInProgress},
	{key: "c", label: "complete", trigger: commission.TriggerComplete, target: commission.StatusCompleted},
	{key: "p", label: "ship", trigger: commission.TriggerShip, target: commission.StatusShipping},
	{key: "D", label: "delivered", trigger: commission.TriggerDeliver, target: commission.StatusDelivered},
	{key: "X", label: "cancel", trigger: commission.TriggerCancel, target: commission.StatusCancelled, form: formReason},
	{key: "m", label: "balance mode", trigger: commission.TriggerChooseBalanceMode, form: formMode},
	{key: "P", label: "set price", form: formPrice},
}

// statusFilters cycles through these; nil shows everything.
var statusFilters = append([]*commission.Status{nil}, func() []*commission.Status {
	out := make([]*commission.Status, len(commission.Statuses))
	for i, s := range commission.Statuses {
		out[i] = new(s)
	}

	return out
}()...)

type BoardModel struct {
	CommonModel
	commissions *commission.Service
	actor       identity.Actor

	state  boardState
	table  table.Model
	items  []*commission.Commission
	form   *huh.Form
	action boardAction

	filterIdx int
	loading   bool
	err       error
	status    string
}

func NewBoardModel(svc *commission.Service, actor identity.Actor) BoardModel {
	columns := []table.Column{
		{Title: "Code", Width: 11},
		{Title: "Title", Width: 28},
		{Title: "Status", Width: 13},
		{Title: "Total", Width: 10},
		{Title: "Advance", Width: 10},
		{Title: "Paid", Width: 5},
		{Title: "Due", Width: 11},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(15),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return BoardModel{
		commissions: svc,
		actor:       actor,
		table:       t,
		loading:     true,
	}
}

func (m BoardModel) Title() string { return "Commissions" }

func (m BoardModel) ShortHelp() string {
	if m.state == boardStateForm {
		return "Navigate form | Esc: cancel"
	}

	return "Esc: back | t: status filter | r: refresh"
}

func (m BoardModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m BoardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadBoardMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}

		m.err = nil
		m.items = msg.items
		m.refreshTable()

		return m, nil

	case boardActionMsg:
		m.state = boardStateBrowse
		m.form = nil
		m.table.Focus()

		if msg.err != nil {
			m.status = describeError(msg.err)
			return m, nil
		}

		m.status = fmt.Sprintf("%s: %s", msg.code, msg.label)

		return m, m.loadCmd()

	case tea.WindowSizeMsg:
		m.Width, m.Height = msg.Width, msg.Height
		m.table.SetHeight(msg.Height - 12)

		return m, nil
	}

	switch m.state {
	case boardStateBrowse:
		return m.updateBrowse(msg)
	case boardStateForm:
		return m.updateForm(msg)
	}

	return m, nil
}

func (m BoardModel) updateBrowse(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			return m, Back
		case "r":
			m.loading = true
			return m, m.loadCmd()
		case "t":
			m.filterIdx = (m.filterIdx + 1) % len(statusFilters)
			m.loading = true

			return m, m.loadCmd()
		}

		for _, a := range boardActions {
			if keyMsg.String() == a.key {
				return m.startAction(a)
			}
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m BoardModel) selected() *commission.Commission {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.items) {
		return nil
	}

	return m.items[idx]
}

func (m BoardModel) startAction(a boardAction) (tea.Model, tea.Cmd) {
	c := m.selected()
	if c == nil {
		return m, nil
	}

	if a.trigger != "" && !commission.Allowed(c, a.trigger) {
		m.status = fmt.Sprintf("Cannot %s a %s commission.", a.label, c.Status)
		return m, nil
	}

	if a.form == "" {
		return m, m.runCmd(c, a, "")
	}

	m.action = a
	m.form = buildActionForm(a, c)
	m.state = boardStateForm
	m.table.Blur()

	return m, m.form.Init()
}

func buildActionForm(a boardAction, c *commission.Commission) *huh.Form {
	var field huh.Field

	switch a.form {
	case formPrice:
		field = huh.NewInput().
			Key("value").
			Title("Total price for " + c.Code).
			Placeholder(FormatAmount(c.TotalPrice)).
			Validate(func(s string) error {
				d, err := decimal.NewFromString(strings.TrimSpace(s))
				if err != nil || !d.IsPositive() {
					return errors.New("enter a positive amount")
				}
				return nil
			})
	case formMode:
		field = huh.NewSelect[string]().
			Key("value").
			Title("How will the balance be paid?").
			Options(
				huh.NewOption("Online", string(commission.PaymentModeOnline)),
				huh.NewOption("Offline (cash on delivery)", string(commission.PaymentModeOffline)),
			)
	default:
		field = huh.NewText().
			Key("value").
			Title(fmt.Sprintf("Reason to %s %s (optional)", a.label, c.Code)).
			CharLimit(500)
	}

	return huh.NewForm(huh.NewGroup(field)).WithWidth(45).WithShowHelp(false)
}

func (m BoardModel) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		m.state = boardStateBrowse
		m.form = nil
		m.table.Focus()

		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	c := m.selected()
	if c == nil {
		m.state = boardStateBrowse
		return m, nil
	}

	return m, m.runCmd(c, m.action, m.form.GetString("value"))
}

func (m BoardModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading commissions...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
	}

	filter := "All"
	if f := statusFilters[m.filterIdx]; f != nil {
		filter = string(*f)
	}

	header := fmt.Sprintf("Signed in as %s (%s) | [t] Status: %s", m.actor.Name, m.actor.Role, activeStyle(filter))

	tableView := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Render(m.table.View())

	left := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().PaddingBottom(1).Render(header),
		tableView,
	)

	var right string

	if c := m.selected(); c != nil {
		body := m.detailView(c)
		if m.state == boardStateForm && m.form != nil {
			body = m.form.View()
		}

		right = panelStyle.Width(48).Render(body)
	}

	content := lipgloss.JoinHorizontal(lipgloss.Top, left, right)

	if m.status != "" {
		content = faintStyle.Render(m.status) + "\n" + content
	}

	return lipgloss.NewStyle().Padding(1).Render(content)
}

func (m BoardModel) detailView(c *commission.Commission) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "%s  %s\n\n", lipgloss.NewStyle().Bold(true).Render(c.Code), c.Title)
	fmt.Fprintf(&sb, "Status:    %s\n", c.Status)
	fmt.Fprintf(&sb, "Due:       %s\n", FormatDate(c.RequiredDate))
	fmt.Fprintf(&sb, "Total:     %s\n", FormatAmount(c.TotalPrice))
	fmt.Fprintf(&sb, "Advance:   %s (paid: %t)\n", FormatAmount(c.AdvanceAmount), c.AdvancePaid)
	fmt.Fprintf(&sb, "Remaining: %s (paid: %t)\n", FormatAmount(c.Remaining()), c.BalancePaid)

	if c.PaymentMode != commission.PaymentModeUnset {
		fmt.Fprintf(&sb, "Balance:   %s\n", c.PaymentMode)
	}

	if c.DeliveryAddress != "" {
		fmt.Fprintf(&sb, "Ship to:   %s\n", c.DeliveryAddress)
	}

	if c.RejectionReason != "" {
		fmt.Fprintf(&sb, "Rejected:  %s\n", c.RejectionReason)
	}

	if c.CancelledBy != "" {
		fmt.Fprintf(&sb, "Cancelled by %s: %s\n", c.CancelledBy, c.CancellationReason)
	}

	sb.WriteString("\n")

	var keys []string

	for _, a := range boardActions {
		if a.trigger == "" || commission.Allowed(c, a.trigger) {
			keys = append(keys, fmt.Sprintf("%s: %s", a.key, a.label))
		}
	}

	sb.WriteString(faintStyle.Render(strings.Join(keys, " | ")))

	return sb.String()
}

func (m *BoardModel) refreshTable() {
	rows := make([]table.Row, 0, len(m.items))
	for _, c := range m.items {
		paid := "-"

		switch {
		case c.BalancePaid:
			paid = "A+B"
		case c.AdvancePaid:
			paid = "A"
		}

		rows = append(rows, table.Row{
			c.Code,
			c.Title,
			string(c.Status),
			FormatAmount(c.TotalPrice),
			FormatAmount(c.AdvanceAmount),
			paid,
			FormatDate(c.RequiredDate),
		})
	}

	m.table.SetRows(rows)

	if m.table.Cursor() >= len(rows) {
		m.table.SetCursor(max(len(rows)-1, 0))
	}
}

// describeError turns lifecycle errors into one line for the status bar.
func describeError(err error) string {
	var conflict *commission.StateConflictError

	switch {
	case errors.As(err, &conflict):
		return fmt.Sprintf("Not possible while %s.", conflict.Current)
	case errors.Is(err, commission.ErrNotAuthorized):
		return "You are not allowed to do that."
	case errors.Is(err, commission.ErrInvalidStage):
		return "Prices can only change before work starts."
	}

	return "Error: " + err.Error()
}

// Messages

type loadBoardMsg struct {
	items []*commission.Commission
	err   error
}

func (m BoardModel) loadCmd() tea.Cmd {
	status := statusFilters[m.filterIdx]

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		items, err := m.commissions.List(ctx, m.actor, status)

		return loadBoardMsg{items: items, err: err}
	}
}

type boardActionMsg struct {
	code  string
	label string
	err   error
}

func (m BoardModel) runCmd(c *commission.Commission, a boardAction, value string) tea.Cmd {
	id, code, actor := c.ID, c.Code, m.actor
	svc := m.commissions

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		var err error

		switch a.form {
		case formPrice:
			amount, perr := decimal.NewFromString(strings.TrimSpace(value))
			if perr != nil {
				return boardActionMsg{code: code, label: a.label, err: perr}
			}

			_, err = svc.SetTotalPrice(ctx, id, actor, amount)
		case formMode:
			_, err = svc.ChooseBalanceMode(ctx, id, actor, commission.PaymentMode(value))
		default:
			_, err = svc.Transition(ctx, id, actor, a.target, value)
		}

		return boardActionMsg{code: code, label: a.label, err: err}
	}
}
