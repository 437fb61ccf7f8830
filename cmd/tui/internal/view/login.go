package view

import (
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/RaniyaAK/arts/internal/identity"
)

// LoggedInMsg carries the user who signed in.
type LoggedInMsg struct {
	User *identity.User
}

type loginFailedMsg struct {
	err error
}

type LoginModel struct {
	CommonModel
	users *identity.Service

	form    *huh.Form
	err     error
	working bool
}

func NewLoginModel(users *identity.Service) LoginModel {
	return LoginModel{
		users: users,
		form:  buildLoginForm(),
	}
}

func buildLoginForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("email").
				Title("Email").
				Validate(func(s string) error {
					if !strings.Contains(s, "@") {
						return errors.New("enter an email address")
					}
					return nil
				}),

			huh.NewInput().
				Key("password").
				Title("Password").
				EchoMode(huh.EchoModePassword),
		),
	).WithWidth(45).WithShowHelp(false)
}

func (m LoginModel) Title() string     { return "Sign in" }
func (m LoginModel) ShortHelp() string { return "Enter: next | Ctrl+C: quit" }

func (m LoginModel) Init() tea.Cmd {
	return m.form.Init()
}

func (m LoginModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if failed, ok := msg.(loginFailedMsg); ok {
		m.working = false
		m.err = failed.err
		m.form = buildLoginForm()

		return m, m.form.Init()
	}

	if m.working {
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	m.working = true

	return m, m.authenticateCmd(m.form.GetString("email"), m.form.GetString("password"))
}

func (m LoginModel) authenticateCmd(email, password string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		u, err := m.users.Authenticate(ctx, email, password)
		if err != nil {
			return loginFailedMsg{err: err}
		}

		return LoggedInMsg{User: u}
	}
}

func (m LoginModel) View() string {
	header := lipgloss.NewStyle().Bold(true).Render("Palette")

	body := m.form.View()
	if m.working {
		body = "Signing in..."
	}

	if m.err != nil {
		msg := m.err.Error()

		switch {
		case errors.Is(m.err, identity.ErrInvalidCredentials):
			msg = "Wrong email or password."
		case errors.Is(m.err, identity.ErrNotApproved):
			msg = "Your artist account is waiting for approval."
		}

		body = errorStyle.Render(msg) + "\n\n" + body
	}

	return lipgloss.NewStyle().Padding(2).Render(fmt.Sprintf("%s\n\n%s", header, body))
}
