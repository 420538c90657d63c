package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

const (
	txtLinkPrompt = "Open the link below and enter the code to link your Plex account"
	txtWaiting    = "Waiting for the PIN to be claimed..."
	txtClaimed    = "Plex account linked"
	txtExpired    = "The PIN expired before it was claimed"
	txtHelp       = "'Esc' or 'Ctrl+C' to cancel."
	pinPollEvery  = 2 * time.Second
	plexLinkURL   = "https://plex.tv/link"
)

// Styles
var (
	titleStyle   = cyan.Bold(true)
	codeStyle    = green.Bold(true)
	helpStyle    = gray
	errorStyle   = red
	successStyle = green
	spinnerStyle = cyan
)

// LoginTUIOpts wires the PIN flow callbacks into the model. The poll
// handler returns claimed=true with the auth token once the user enters
// the code on plex.tv.
type LoginTUIOpts struct {
	ServerURL   string
	PinCode     string
	ExpiresIn   int
	PollHandler func() (claimed bool, expired bool, err error)
}

type pinPolledMsg struct {
	claimed bool
	expired bool
	err     error
}

type pollTickMsg struct{}

type loginModel struct {
	opts    *LoginTUIOpts
	spinner spinner.Model

	claimed      bool
	expired      bool
	cancelled    bool
	errorMessage string
	deadline     time.Time
}

func newLoginModel(opts *LoginTUIOpts) loginModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = spinnerStyle

	return loginModel{
		opts:     opts,
		spinner:  s,
		deadline: time.Now().Add(time.Duration(opts.ExpiresIn) * time.Second),
	}
}

func (m loginModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, schedulePoll())
}

func schedulePoll() tea.Cmd {
	return tea.Tick(pinPollEvery, func(time.Time) tea.Msg {
		return pollTickMsg{}
	})
}

func (m loginModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.cancelled = true
			return m, tea.Quit
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case pollTickMsg:
		return m, func() tea.Msg {
			claimed, expired, err := m.opts.PollHandler()
			return pinPolledMsg{claimed: claimed, expired: expired, err: err}
		}

	case pinPolledMsg:
		if msg.err != nil {
			// transient poll errors keep the flow alive
			m.errorMessage = msg.err.Error()
			return m, schedulePoll()
		}
		m.errorMessage = ""
		if msg.claimed {
			m.claimed = true
			return m, tea.Quit
		}
		if msg.expired || time.Now().After(m.deadline) {
			m.expired = true
			return m, tea.Quit
		}
		return m, schedulePoll()
	}

	return m, nil
}

func (m loginModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("CrossWatch · Plex Link"))
	b.WriteString("\n\n")
	b.WriteString(fmt.Sprintf("%s%s\n", gray.Render("Backend  "), green.Render(m.opts.ServerURL)))
	b.WriteString("\n")

	switch {
	case m.claimed:
		b.WriteString(successStyle.Render(txtClaimed))
	case m.expired:
		b.WriteString(errorStyle.Render(txtExpired))
	default:
		b.WriteString(txtLinkPrompt)
		b.WriteString("\n\n")
		b.WriteString(fmt.Sprintf("  %s   %s\n", gray.Render(plexLinkURL), codeStyle.Render(m.opts.PinCode)))
		if remaining := time.Until(m.deadline); remaining > 0 {
			countdown := fmt.Sprintf("  expires in %ds\n", int(remaining.Seconds()))
			if remaining < time.Minute {
				b.WriteString(yellow.Render(countdown))
			} else {
				b.WriteString(helpStyle.Render(countdown))
			}
		}
		b.WriteString("\n")
		b.WriteString(fmt.Sprintf("%s %s", m.spinner.View(), txtWaiting))
	}

	if m.errorMessage != "" {
		b.WriteString("\n\n")
		b.WriteString(errorStyle.Render(m.errorMessage))
	}

	b.WriteString("\n\n")
	b.WriteString(helpStyle.Render(txtHelp))
	b.WriteString("\n")
	return b.String()
}

// RunLoginTUI drives the PIN claim screen. Returns an error when the PIN
// expired or the user cancelled.
func RunLoginTUI(opts LoginTUIOpts) error {
	model, err := tea.NewProgram(newLoginModel(&opts), tea.WithAltScreen()).Run()
	if err != nil {
		return fmt.Errorf("login TUI: %w", err)
	}

	if fm, ok := model.(loginModel); ok {
		switch {
		case fm.cancelled:
			return fmt.Errorf("login cancelled by user")
		case fm.expired:
			return fmt.Errorf("plex pin expired")
		case !fm.claimed:
			return fmt.Errorf("login did not complete")
		}
	}
	return nil
}
