package view

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/RaniyaAK/arts/internal/identity"
	"github.com/RaniyaAK/arts/internal/transaction"
)

type txState int

const (
	txStatePeriod txState = iota
	txStateList
)

// txItem wraps a transaction to implement list.Item.
type txItem struct {
	tx *transaction.Transaction
}

func (i txItem) Title() string {
	kind := faintStyle.Render(fmt.Sprintf("[%s/%s]", i.tx.Type, i.tx.Mode))

	return fmt.Sprintf("%s  %10s  %s  %s", FormatDate(i.tx.CreatedAt), FormatAmount(i.tx.Amount), kind, i.tx.CommissionCode)
}

func (i txItem) Description() string {
	desc := i.tx.CommissionTitle
	if i.tx.ExternalReference != nil {
		desc += " | ref " + *i.tx.ExternalReference
	}

	return faintStyle.Render(desc)
}

func (i txItem) FilterValue() string {
	return i.tx.CommissionCode + " " + i.tx.CommissionTitle
}

type TransactionsModel struct {
	CommonModel
	transactions *transaction.Service
	actor        identity.Actor

	state   txState
	picker  PeriodPicker
	list    list.Model
	filter  transaction.ListFilter
	revenue *transaction.Revenue

	loading bool
	status  string
}

func NewTransactionsModel(svc *transaction.Service, actor identity.Actor) TransactionsModel {
	l := list.New([]list.Item{}, itemDelegate{}, 0, 0)
	l.Title = "Transactions"
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.SetShowHelp(true)

	return TransactionsModel{
		transactions: svc,
		actor:        actor,
		picker:       NewPeriodPicker(PeriodThisMonth),
		list:         l,
	}
}

func (m TransactionsModel) Title() string { return "Transactions" }

func (m TransactionsModel) ShortHelp() string {
	if m.state == txStatePeriod {
		return "Esc: back | Enter: select"
	}

	return "Esc: change period | /: filter"
}

func (m TransactionsModel) Init() tea.Cmd {
	return nil
}

func (m TransactionsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case PeriodSelectedMsg:
		m.filter.StartDate, m.filter.EndDate = filterDates(msg)
		m.loading = true
		m.state = txStateList

		return m, m.loadCmd()

	case loadTxsMsg:
		m.loading = false
		if msg.err != nil {
			m.status = fmt.Sprintf("Error: %v", msg.err)
			return m, nil
		}

		m.revenue = msg.revenue
		m.status = ""
		m.refreshListItems(msg.txs)

		if len(msg.txs) == 0 {
			m.status = "No transactions found."
		}

		return m, nil

	case tea.WindowSizeMsg:
		m.Width, m.Height = msg.Width, msg.Height
		m.list.SetSize(msg.Width-4, msg.Height-10)

		return m, nil
	}

	switch m.state {
	case txStatePeriod:
		if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc && m.picker.Selecting() {
			return m, Back
		}

		var cmd tea.Cmd
		m.picker, cmd = m.picker.Update(msg)

		return m, cmd

	case txStateList:
		if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc && m.list.FilterState() != list.Filtering {
			m.state = txStatePeriod
			m.picker.Reset()

			return m, nil
		}

		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)

		return m, cmd
	}

	return m, nil
}

func (m TransactionsModel) View() string {
	if m.state == txStatePeriod {
		return lipgloss.NewStyle().Padding(1).Render(m.picker.View())
	}

	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading transactions...")
	}

	var header string

	if m.revenue != nil {
		header = panelStyle.Padding(0, 1).Render(fmt.Sprintf(
			"Advance: %s  |  Balance: %s  |  Total: %s  (%d payments, all time)",
			FormatAmount(m.revenue.Advance),
			FormatAmount(m.revenue.Balance),
			activeStyle(FormatAmount(m.revenue.Total())),
			m.revenue.Count,
		)) + "\n"
	}

	statusLine := ""
	if m.status != "" {
		statusLine = faintStyle.Render(m.status) + "\n"
	}

	return lipgloss.NewStyle().Padding(1).Render(header + statusLine + m.list.View())
}

func (m *TransactionsModel) refreshListItems(txs []*transaction.Transaction) {
	items := make([]list.Item, len(txs))
	for i, tx := range txs {
		items[i] = txItem{tx: tx}
	}

	m.list.SetItems(items)
}

// Messages

type loadTxsMsg struct {
	txs     []*transaction.Transaction
	revenue *transaction.Revenue
	err     error
}

func (m TransactionsModel) loadCmd() tea.Cmd {
	filter := m.filter

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		txs, err := m.transactions.List(ctx, m.actor, filter)
		if err != nil {
			return loadTxsMsg{err: err}
		}

		// Clients have no revenue; their list is what they paid.
		rev, err := m.transactions.Revenue(ctx, m.actor)
		if errors.Is(err, identity.ErrNotAuthorized) {
			return loadTxsMsg{txs: txs}
		}

		if err != nil {
			return loadTxsMsg{err: err}
		}

		return loadTxsMsg{txs: txs, revenue: &rev}
	}
}
