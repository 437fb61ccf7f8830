package view

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/RaniyaAK/arts/internal/identity"
	"github.com/RaniyaAK/arts/internal/notification"
)

// notificationItem wraps a notification to implement list.Item.
type notificationItem struct {
	n *notification.Notification
}

func (i notificationItem) Title() string {
	marker := " "
	if !i.n.IsRead {
		marker = accentStyle.Render("●")
	}

	return fmt.Sprintf("%s %s  %s", marker, FormatStamp(&i.n.CreatedAt), i.n.Message)
}

func (i notificationItem) Description() string {
	return faintStyle.Render(string(i.n.Type))
}

func (i notificationItem) FilterValue() string {
	return i.n.Message
}

type NotificationsModel struct {
	CommonModel
	notifications *notification.Service
	actor         identity.Actor

	list    list.Model
	unread  int
	loading bool
	status  string
}

func NewNotificationsModel(svc *notification.Service, actor identity.Actor) NotificationsModel {
	l := list.New([]list.Item{}, itemDelegate{}, 0, 0)
	l.Title = "Notifications"
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.SetShowHelp(false)

	return NotificationsModel{
		notifications: svc,
		actor:         actor,
		list:          l,
		loading:       true,
	}
}

func (m NotificationsModel) Title() string { return "Notifications" }

func (m NotificationsModel) ShortHelp() string {
	return "Esc: back | a: mark all read | x: delete | r: refresh | /: filter"
}

func (m NotificationsModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m NotificationsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadNotificationsMsg:
		m.loading = false
		if msg.err != nil {
			m.status = fmt.Sprintf("Error: %v", msg.err)
			return m, nil
		}

		m.unread = msg.unread
		m.refreshListItems(msg.items)

		if len(msg.items) == 0 {
			m.status = "No notifications."
		}

		return m, nil

	case notificationActionMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("Error: %v", msg.err)
			return m, nil
		}

		m.status = msg.done

		return m, m.loadCmd()

	case tea.WindowSizeMsg:
		m.Width, m.Height = msg.Width, msg.Height
		m.list.SetSize(msg.Width-4, msg.Height-8)

		return m, nil
	}

	if keyMsg, ok := msg.(tea.KeyMsg); ok && m.list.FilterState() != list.Filtering {
		switch keyMsg.String() {
		case "esc":
			return m, Back
		case "r":
			m.loading = true
			return m, m.loadCmd()
		case "a":
			return m, m.markAllReadCmd()
		case "x":
			if selected, ok := m.list.SelectedItem().(notificationItem); ok {
				return m, m.deleteCmd(selected.n)
			}

			return m, nil
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)

	return m, cmd
}

func (m NotificationsModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading notifications...")
	}

	header := fmt.Sprintf("Unread: %s", activeStyle(fmt.Sprint(m.unread)))

	statusLine := ""
	if m.status != "" {
		statusLine = faintStyle.Render(m.status) + "\n"
	}

	return lipgloss.NewStyle().Padding(1).Render(header + "\n" + statusLine + m.list.View())
}

func (m *NotificationsModel) refreshListItems(ns []*notification.Notification) {
	items := make([]list.Item, len(ns))
	for i, n := range ns {
		items[i] = notificationItem{n: n}
	}

	m.list.SetItems(items)
}

// Messages

type loadNotificationsMsg struct {
	items  []*notification.Notification
	unread int
	err    error
}

func (m NotificationsModel) loadCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		items, err := m.notifications.List(ctx, m.actor.ID)
		if err != nil {
			return loadNotificationsMsg{err: err}
		}

		unread, err := m.notifications.UnreadCount(ctx, m.actor.ID)

		return loadNotificationsMsg{items: items, unread: unread, err: err}
	}
}

type notificationActionMsg struct {
	done string
	err  error
}

func (m NotificationsModel) markAllReadCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		n, err := m.notifications.MarkAllRead(ctx, m.actor.ID)

		return notificationActionMsg{done: fmt.Sprintf("Marked %d as read.", n), err: err}
	}
}

func (m NotificationsModel) deleteCmd(n *notification.Notification) tea.Cmd {
	id := n.ID

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		err := m.notifications.Delete(ctx, id, m.actor.ID)

		return notificationActionMsg{done: "Deleted.", err: err}
	}
}

// itemDelegate renders two-line items in the lists of this package.
type itemDelegate struct{}

func (d itemDelegate) Height() int                             { return 2 }
func (d itemDelegate) Spacing() int                            { return 0 }
func (d itemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (d itemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	i, ok := item.(list.DefaultItem)
	if !ok {
		return
	}

	title := i.Title()
	desc := i.Description()

	if index == m.Index() {
		title = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true).Render("> " + title)
	}

	fmt.Fprintf(w, "  %s\n", title)

	if desc == "" {
		fmt.Fprintln(w)
		return
	}

	fmt.Fprintf(w, "    %s\n", desc)
}
