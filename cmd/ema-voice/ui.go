package main

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	orchestration "github.com/koscakluka/ema-voice/core"
)

const (
	sampleOutputText = "This is a sample AI voice output"
	emptyHint        = "Start speaking to interact with the AI assistant 🎤"
	chromeHeight     = 6
	labelWidth       = 11
)

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	userStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	assistantStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("13"))
	hintStyle      = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("8"))
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// controller is the part of the orchestrator the UI drives.
type controller interface {
	StartListening(ctx context.Context) error
	StopListening() error
	TestOutput(text string) error
	SessionState() orchestration.SessionState
	Conversation() iter.Seq[orchestration.Message]
	RecognitionAvailable() bool
}

type keyMap struct {
	Toggle     key.Binding
	TestOutput key.Binding
	Up         key.Binding
	Down       key.Binding
	Quit       key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.TestOutput, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Toggle, k.TestOutput}, {k.Up, k.Down, k.Quit}}
}

func newKeyMap() keyMap {
	return keyMap{
		Toggle:     key.NewBinding(key.WithKeys(" ", "enter"), key.WithHelp("space", "start/stop speaking")),
		TestOutput: key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "test voice output")),
		Up:         key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("↑/k", "scroll up")),
		Down:       key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("↓/j", "scroll down")),
		Quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

type messageAppendedMsg struct{ message orchestration.Message }

type sessionStateMsg struct{ state orchestration.SessionState }

type statusMsg struct {
	text  string
	isErr bool
}

type model struct {
	ctx        context.Context
	controller controller

	keys     keyMap
	help     help.Model
	spinner  spinner.Model
	viewport viewport.Model
	ready    bool
	width    int

	state  orchestration.SessionState
	status statusMsg
}

func newModel(ctx context.Context, controller controller) model {
	return model{
		ctx:        ctx,
		controller: controller,
		keys:       newKeyMap(),
		help:       help.New(),
		spinner:    spinner.New(spinner.WithSpinner(spinner.Dot)),
		state:      controller.SessionState(),
	}
}

func (m model) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		height := max(msg.Height-chromeHeight, 1)
		if !m.ready {
			m.viewport = viewport.New(msg.Width, height)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = height
		}
		m.refreshConversation()
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Toggle):
			return m, m.toggleListening()
		case key.Matches(msg, m.keys.TestOutput):
			m.status = statusMsg{text: "Playing sample voice output"}
			if err := m.controller.TestOutput(sampleOutputText); err != nil {
				m.status = statusMsg{text: fmt.Sprintf("Voice output unavailable: %v", err), isErr: true}
			}
			return m, nil
		}

	case messageAppendedMsg:
		m.refreshConversation()
		return m, nil

	case sessionStateMsg:
		m.state = msg.state
		return m, nil

	case statusMsg:
		m.status = msg
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// toggleListening runs the start or stop off the update loop; starting opens
// a connection to the recognition service.
func (m model) toggleListening() tea.Cmd {
	controller, ctx := m.controller, m.ctx
	if controller.SessionState() == orchestration.SessionListening {
		return func() tea.Msg {
			if err := controller.StopListening(); err != nil {
				return statusMsg{text: fmt.Sprintf("Stopped with error: %v", err), isErr: true}
			}
			return statusMsg{text: "Stopping..."}
		}
	}
	return func() tea.Msg {
		return startStatus(controller.StartListening(ctx))
	}
}

func startStatus(err error) statusMsg {
	switch {
	case err == nil:
		return statusMsg{}
	case errors.Is(err, orchestration.ErrCapabilityUnavailable):
		return statusMsg{text: "Speech recognition is not available here", isErr: true}
	case errors.Is(err, orchestration.ErrAlreadyListening):
		return statusMsg{text: "Already listening"}
	default:
		return statusMsg{text: fmt.Sprintf("Could not start listening: %v", err), isErr: true}
	}
}

func (m *model) refreshConversation() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(renderConversation(m.controller.Conversation(), m.width))
	m.viewport.GotoBottom()
}

func (m model) View() string {
	if !m.ready {
		return "Loading..."
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("AI Voice Assistant"))
	b.WriteString("\n\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	b.WriteString(m.statusLine())
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m model) statusLine() string {
	var state string
	switch {
	case !m.controller.RecognitionAvailable():
		state = errorStyle.Render("Speech recognition unavailable")
	case m.state == orchestration.SessionListening:
		state = m.spinner.View() + " " + statusStyle.Render("Listening...")
	default:
		state = "🎤 Start Speaking"
	}

	if m.status.text == "" {
		return state
	}
	style := hintStyle
	if m.status.isErr {
		style = errorStyle
	}
	return state + "  " + style.Render(m.status.text)
}

func renderConversation(messages iter.Seq[orchestration.Message], width int) string {
	contentWidth := max(width-labelWidth, 10)

	var b strings.Builder
	for message := range messages {
		style := userStyle
		if message.Role == orchestration.RoleAssistant {
			style = assistantStyle
		}

		label := style.Width(labelWidth).Render(message.Role.String() + ":")
		content := wordwrap.String(message.Content, contentWidth)
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, label, content))
		b.WriteString("\n\n")
	}

	if b.Len() == 0 {
		return hintStyle.Render(emptyHint)
	}
	return strings.TrimRight(b.String(), "\n")
}
