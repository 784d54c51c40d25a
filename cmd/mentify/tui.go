package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/tailored-agentic-units/mentify/command"
	"github.com/tailored-agentic-units/mentify/core/protocol"
	"github.com/tailored-agentic-units/mentify/engine"
	"github.com/tailored-agentic-units/mentify/observability"
	"github.com/tailored-agentic-units/mentify/session"
	"github.com/tailored-agentic-units/mentify/speech"
)

const (
	defaultWidth         = 100
	defaultHeight        = 40
	inputCharLimit       = 2000
	chromeHeight         = 6
	minContentHeight     = 8
	sessionIDDisplayLen  = 8
	attachmentNameWidth  = 40
	suggestionLabelWidth = 60
)

var (
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	boldStyle      = lipgloss.NewStyle().Bold(true)
	accentStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	promptStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("63"))
	systemStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	listeningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	speakingStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
)

type chatModel struct {
	engine   *engine.Engine
	commands *command.Registry
	events   *eventBridge

	input    textinput.Model
	timeline viewport.Model
	spinner  spinner.Model

	lastDraft  string
	output     string
	outputErr  bool
	suggestion int

	width  int
	height int
}

func newModel(e *engine.Engine, commands *command.Registry, events *eventBridge) chatModel {
	input := textinput.New()
	input.Placeholder = "Message " + e.Persona().DisplayName + "... (/help for commands)"
	input.Focus()
	input.CharLimit = inputCharLimit
	input.Width = defaultWidth - 3
	input.Prompt = ""

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = accentStyle

	m := chatModel{
		engine:   e,
		commands: commands,
		events:   events,
		input:    input,
		timeline: viewport.New(defaultWidth, defaultHeight-chromeHeight),
		spinner:  sp,
		width:    defaultWidth,
		height:   defaultHeight,
	}
	m.refresh()
	return m
}

func (m chatModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick, m.events.wait())
}

func (m chatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		cmd, handled := m.handleKey(msg)
		if cmd != nil {
			cmds = append(cmds, cmd)
		}
		if handled {
			return m, tea.Batch(cmds...)
		}

	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)

	case eventMsg:
		m.handleEvent(observability.Event(msg))
		cmds = append(cmds, m.events.wait())

	case refreshMsg:
		m.syncDraft()
		m.refresh()
		cmds = append(cmds, m.events.wait())

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
		return m, tea.Batch(cmds...)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)

	if v := m.input.Value(); v != m.lastDraft {
		m.engine.SetDraft(v)
		m.lastDraft = v
	}

	return m, tea.Batch(cmds...)
}

// handleKey reports handled=true when the key must not reach the input.
func (m *chatModel) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	ctx := context.Background()

	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		return tea.Quit, true

	case tea.KeyEnter:
		m.submit(ctx)
		return nil, true

	case tea.KeyTab:
		m.cycleSuggestion()
		return nil, true

	case tea.KeyCtrlL:
		if m.engine.Speech().CanListen() {
			m.report(m.engine.ToggleListening(ctx))
		}
		return nil, true

	case tea.KeyCtrlR:
		if !m.engine.Speech().CanSpeak() {
			return nil, true
		}
		if reply, ok := m.engine.Session().LastReply(); ok {
			m.report(m.engine.ReadAloud(ctx, reply.ID))
		}
		return nil, true

	case tea.KeyCtrlN:
		m.engine.NewChat(ctx)
		m.syncDraft()
		m.setOutput("new chat started", false)
		return nil, true

	case tea.KeyUp:
		m.timeline.LineUp(1)
		return nil, true

	case tea.KeyDown:
		m.timeline.LineDown(1)
		return nil, true

	case tea.KeyPgUp:
		m.timeline.ViewUp()
		return nil, true

	case tea.KeyPgDown:
		m.timeline.ViewDown()
		return nil, true
	}
	return nil, false
}

func (m *chatModel) submit(ctx context.Context) {
	line := m.input.Value()

	if command.IsCommand(line) {
		m.input.Reset()
		m.engine.SetDraft("")
		m.lastDraft = ""

		res, err := m.commands.Run(ctx, line)
		switch {
		case errors.Is(err, command.ErrNotFound):
			m.setOutput(fmt.Sprintf("unknown command %s (try /help)", strings.Fields(line)[0]), true)
		case err != nil:
			m.setOutput(err.Error(), true)
		default:
			m.setOutput(res.Content, res.IsError)
		}
		m.syncDraft()
		m.refresh()
		return
	}

	if _, err := m.engine.Send(ctx); err != nil {
		if !errors.Is(err, session.ErrEmptyMessage) {
			m.setOutput(err.Error(), true)
		}
		m.refresh()
		return
	}
	m.input.Reset()
	m.lastDraft = ""
	m.suggestion = 0
	m.setOutput("", false)
	m.refresh()
}

func (m *chatModel) cycleSuggestion() {
	suggestions := m.engine.Suggestions()
	if len(suggestions) == 0 {
		return
	}
	s := suggestions[m.suggestion%len(suggestions)]
	m.suggestion++
	m.engine.SetDraft(s)
	m.syncDraft()
}

// syncDraft pulls the engine's draft into the input without marking it as
// typed, so a voice transcript keeps its origin until the user edits it.
func (m *chatModel) syncDraft() {
	draft, _ := m.engine.Draft()
	if draft == m.input.Value() {
		return
	}
	m.input.SetValue(draft)
	m.input.CursorEnd()
	m.lastDraft = draft
}

func (m *chatModel) handleEvent(ev observability.Event) {
	switch ev.Type {
	case engine.EventDraft:
		m.syncDraft()
	case session.EventReplyFailed:
		if err, ok := ev.Data["error"].(error); ok {
			m.setOutput(err.Error(), true)
		}
	case speech.EventError:
		if msg, ok := ev.Data["error"].(string); ok {
			m.setOutput("speech: "+msg, true)
		}
	}
	m.refresh()
}

func (m *chatModel) report(err error) {
	if err != nil {
		m.setOutput(err.Error(), true)
	}
	m.refresh()
}

func (m *chatModel) setOutput(text string, isErr bool) {
	m.output = text
	m.outputErr = isErr
}

func (m *chatModel) resize(width, height int) {
	m.width = width
	m.height = height

	contentHeight := height - chromeHeight
	if contentHeight < minContentHeight {
		contentHeight = minContentHeight
	}
	m.timeline.Width = width
	m.timeline.Height = contentHeight
	m.input.Width = width - 3
	m.refresh()
}

func (m *chatModel) refresh() {
	var b strings.Builder
	width := m.width

	n := 0
	for msg := range m.engine.Session().Messages() {
		n++
		b.WriteString(m.renderMessage(n, msg, width))
		b.WriteString("\n")
	}

	suggestions := m.engine.Suggestions()
	if len(suggestions) > 0 {
		label := "Suggestions"
		if n == 0 {
			label = "Try one of these"
		}
		b.WriteString(dimStyle.Render(label+" (Tab to use):") + "\n")
		for i, s := range suggestions {
			line := fmt.Sprintf("  %d. %s", i+1, runewidth.Truncate(s, suggestionLabelWidth, "..."))
			b.WriteString(dimStyle.Render(line) + "\n")
		}
	}

	if m.output != "" {
		b.WriteString("\n")
		style := dimStyle
		if m.outputErr {
			style = errorStyle
		}
		for _, line := range strings.Split(wrapText(m.output, width), "\n") {
			b.WriteString(style.Render(line) + "\n")
		}
	}

	m.timeline.SetContent(b.String())
	m.timeline.GotoBottom()
}

func (m *chatModel) renderMessage(n int, msg protocol.Message, width int) string {
	var header string
	switch msg.Role {
	case protocol.RoleUser:
		header = boldStyle.Render("You")
	case protocol.RoleAssistant:
		header = accentStyle.Render("Assistant")
	default:
		header = systemStyle.Render("Notice")
	}

	meta := fmt.Sprintf(" [%d] %s", n, msg.CreatedAt.Format("15:04"))
	if msg.ViaVoice {
		meta += " voice"
	}

	var b strings.Builder
	b.WriteString(header + dimStyle.Render(meta) + "\n")
	b.WriteString(wrapText(msg.Text, width) + "\n")
	for _, a := range msg.Attachments {
		name := runewidth.Truncate(a.Name, attachmentNameWidth, "...")
		b.WriteString(dimStyle.Render(fmt.Sprintf("  + %s (%s, %s)", name, a.Kind, formatBytes(a.SizeBytes))) + "\n")
	}
	return b.String()
}

func (m chatModel) View() string {
	p := m.engine.Persona()
	status := dimStyle.Render(fmt.Sprintf("mentify · session %s · %s",
		m.engine.Session().ID()[:sessionIDDisplayLen], p.DisplayName))

	switch m.engine.Speech().State() {
	case speech.Listening:
		status += " " + listeningStyle.Render("● listening")
	case speech.Speaking:
		status += " " + speakingStyle.Render("♪ speaking")
	}
	if m.engine.Session().AwaitingReply() {
		status += " " + m.spinner.View() + dimStyle.Render(p.DisplayName+" is typing...")
	}

	var staged string
	if files := m.engine.Staged(); len(files) > 0 {
		names := make([]string, len(files))
		for i, a := range files {
			names[i] = fmt.Sprintf("[%d] %s", i+1, runewidth.Truncate(a.Name, attachmentNameWidth/2, "..."))
		}
		staged = dimStyle.Render("staged: " + strings.Join(names, "  "))
	}

	inputView := promptStyle.Render("> ") + m.input.View()
	help := dimStyle.Render(m.keyHelp())

	return lipgloss.JoinVertical(lipgloss.Left, status, "", m.timeline.View(), staged, inputView, help)
}

func (m chatModel) keyHelp() string {
	keys := []string{"Enter send", "Tab suggestion"}
	if m.engine.Speech().CanListen() {
		keys = append(keys, "^L listen")
	}
	if m.engine.Speech().CanSpeak() {
		keys = append(keys, "^R read reply")
	}
	keys = append(keys, "^N new chat", "↑↓ scroll", "Esc quit")
	return strings.Join(keys, " · ")
}

// wrapText wraps each line to maxWidth display cells, measuring wide runes
// with runewidth.
func wrapText(text string, maxWidth int) string {
	if maxWidth <= 10 {
		return text
	}

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = wrapLine(line, maxWidth)
	}
	return strings.Join(lines, "\n")
}

func wrapLine(line string, maxWidth int) string {
	if runewidth.StringWidth(line) <= maxWidth {
		return line
	}

	var result, current strings.Builder
	width := 0
	for _, r := range line {
		w := runewidth.RuneWidth(r)
		if width+w > maxWidth && width > 0 {
			result.WriteString(current.String())
			result.WriteString("\n")
			current.Reset()
			width = 0
		}
		current.WriteRune(r)
		width += w
	}
	result.WriteString(current.String())
	return result.String()
}
