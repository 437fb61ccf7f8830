package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/RaniyaAK/arts/cmd/tui/internal/view"
	"github.com/RaniyaAK/arts/internal/commission"
	commissionStore "github.com/RaniyaAK/arts/internal/commission/store"
	"github.com/RaniyaAK/arts/internal/config"
	"github.com/RaniyaAK/arts/internal/database"
	"github.com/RaniyaAK/arts/internal/export"
	"github.com/RaniyaAK/arts/internal/identity"
	identityStore "github.com/RaniyaAK/arts/internal/identity/store"
	"github.com/RaniyaAK/arts/internal/money"
	"github.com/RaniyaAK/arts/internal/notification"
	notificationStore "github.com/RaniyaAK/arts/internal/notification/store"
	"github.com/RaniyaAK/arts/internal/transaction"
	txStore "github.com/RaniyaAK/arts/internal/transaction/store"
)

type services struct {
	users         *identity.Service
	commissions   *commission.Service
	transactions  *transaction.Service
	notifications *notification.Service
	export        *export.Service
}

type model struct {
	svc   services
	actor identity.Actor

	currentView View
	size        tea.WindowSizeMsg

	loginView         view.LoginModel
	boardView         view.BoardModel
	notificationsView view.NotificationsModel
	transactionsView  view.TransactionsModel
	exportView        view.ExportModel
}

type View int

const (
	ViewLogin View = iota
	ViewMenu
	ViewBoard
	ViewNotifications
	ViewTransactions
	ViewExport
)

func initialModel(svc services) model {
	return model{
		svc:         svc,
		currentView: ViewLogin,
		loginView:   view.NewLoginModel(svc.users),
	}
}

func (m model) Init() tea.Cmd {
	return m.loginView.Init()
}

// open switches to v with a fresh model and replays the last window size to it.
func (m model) open(v View) (tea.Model, tea.Cmd) {
	m.currentView = v

	var screen tea.Model

	switch v {
	case ViewBoard:
		screen = view.NewBoardModel(m.svc.commissions, m.actor)
	case ViewNotifications:
		screen = view.NewNotificationsModel(m.svc.notifications, m.actor)
	case ViewTransactions:
		screen = view.NewTransactionsModel(m.svc.transactions, m.actor)
	case ViewExport:
		screen = view.NewExportModel(m.svc.export, m.actor)
	default:
		return m, nil
	}

	if m.size.Width > 0 {
		screen, _ = screen.Update(m.size)
	}

	m = m.store(screen)

	return m, screen.Init()
}

func (m model) store(screen tea.Model) model {
	switch s := screen.(type) {
	case view.LoginModel:
		m.loginView = s
	case view.BoardModel:
		m.boardView = s
	case view.NotificationsModel:
		m.notificationsView = s
	case view.TransactionsModel:
		m.transactionsView = s
	case view.ExportModel:
		m.exportView = s
	}

	return m
}

func (m model) current() tea.Model {
	switch m.currentView {
	case ViewLogin:
		return m.loginView
	case ViewBoard:
		return m.boardView
	case ViewNotifications:
		return m.notificationsView
	case ViewTransactions:
		return m.transactionsView
	case ViewExport:
		return m.exportView
	}

	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.size = msg
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

		if m.currentView == ViewMenu {
			switch msg.String() {
			case "q":
				return m, tea.Quit
			case "1":
				return m.open(ViewBoard)
			case "2":
				return m.open(ViewNotifications)
			case "3":
				return m.open(ViewTransactions)
			case "4":
				return m.open(ViewExport)
			}

			return m, nil
		}
	case view.LoggedInMsg:
		m.actor = msg.User.Actor()
		m.currentView = ViewMenu

		return m, nil
	case view.BackMsg:
		m.currentView = ViewMenu
		return m, nil
	}

	screen := m.current()
	if screen == nil {
		return m, nil
	}

	screen, cmd := screen.Update(msg)

	return m.store(screen), cmd
}

func (m model) View() string {
	if m.currentView == ViewMenu {
		return lipgloss.NewStyle().Padding(2).Render(fmt.Sprintf(
			"Palette | %s (%s)\n\n"+
				"1. Commissions\n"+
				"2. Notifications\n"+
				"3. Transactions\n"+
				"4. Export Statement\n\n"+
				"q. Quit",
			m.actor.Name, m.actor.Role,
		))
	}

	if screen := m.current(); screen != nil {
		return screen.View()
	}

	return "Unknown View"
}

func setup(ctx context.Context, log zerolog.Logger) (services, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return services{}, nil, fmt.Errorf("loading config: %w", err)
	}

	db, err := database.New(ctx, cfg.ConnectionString())
	if err != nil {
		return services{}, nil, fmt.Errorf("connecting to database: %w", err)
	}

	if err := database.Migrate(ctx, db, log); err != nil {
		db.Close()
		return services{}, nil, fmt.Errorf("migrating database: %w", err)
	}

	// No live sockets here; the API pushes to connected browsers.
	notificationSvc := notification.NewService(notificationStore.New(db), nil, log)
	identitySvc := identity.NewService(identityStore.New(db), notificationSvc, log)
	txSvc := transaction.NewService(txStore.New(db))

	svc := services{
		users:         identitySvc,
		commissions:   commission.NewService(commissionStore.New(db), identitySvc, notificationSvc, log),
		transactions:  txSvc,
		notifications: notificationSvc,
		export:        export.NewService(txSvc, money.NewFormatter(cfg.CurrencyUnit())),
	}

	return svc, func() { db.Close() }, nil
}

func main() {
	_ = godotenv.Load()

	// The terminal belongs to the UI, so logs go to a file.
	logFile, err := tea.LogToFile("palette-tui.log", "tui")
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to open log file:", err)
		os.Exit(1)
	}
	defer logFile.Close()

	log := zerolog.New(logFile).With().Timestamp().Logger()

	svc, closeDB, err := setup(context.Background(), log)
	if err != nil {
		log.Error().Err(err).Msg("startup failed")
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer closeDB()

	p := tea.NewProgram(initialModel(svc), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		log.Error().Err(err).Msg("failed to run TUI")
	}
}
