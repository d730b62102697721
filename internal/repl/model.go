package repl

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"podboard/internal/app"
	"podboard/internal/domain"
	"podboard/internal/theme"
)

const (
	noneLabel     = "(none)"
	selectorWidth = 32
	maxMessages   = 50
	shownMessages = 6
)

type focus int

const (
	focusInput focus = iota
	focusSelector
)

// processedMsg carries the outcome of a processing call back into the model.
type processedMsg struct {
	url string
	rec domain.PodcastRecord
	err error
}

type model struct {
	ctx     context.Context
	app     *app.App
	theme   theme.Theme
	input   textinput.Model
	spinner spinner.Model
	focus   focus

	titles []string
	cursor int

	display *domain.PodcastRecord
	source  string

	busy    bool
	pending string
	lastURL string

	history  []string
	messages []string
	width    int
	height   int
	quitting bool
}

func newModel(ctx context.Context, application *app.App) model {
	th := application.Theme()

	ti := textinput.New()
	ti.Placeholder = "help, or a feed URL to process"
	ti.Focus()
	ti.Prompt = "podboard> "
	ti.CharLimit = 512
	ti.Width = 80

	m := model{
		ctx:     ctx,
		app:     application,
		theme:   th,
		input:   ti,
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(th.Cursor)),
		focus:   focusInput,
		history: make([]string, 0, 32),
		width:   120,
	}
	m.refreshTitles()
	m.messages = append(m.messages, th.Banner.Render("Podboard ready. Type 'help' for assistance, Tab to switch panes."))
	if n := len(application.Diagnostics()); n > 0 {
		m.notify(th.Warning.Render(fmt.Sprintf("%d catalog problems; type 'diag' for details.", n)))
	}
	return m
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.input.Width = max(msg.Width-12, 20)
		return m, nil
	case processedMsg:
		return m.handleProcessed(msg), nil
	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			m.quitting = true
			return m, tea.Quit
		case tea.KeyTab:
			return m.toggleFocus(), nil
		}
		if m.focus == focusSelector {
			return m.updateSelector(msg)
		}
		if msg.Type == tea.KeyEnter {
			return m.handleSubmit()
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m model) toggleFocus() model {
	if m.focus == focusInput {
		m.focus = focusSelector
		m.input.Blur()
	} else {
		m.focus = focusInput
		m.input.Focus()
	}
	return m
}

func (m model) updateSelector(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	last := len(m.titles)
	switch msg.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < last {
			m.cursor++
		}
	case "home", "g":
		m.cursor = 0
	case "end", "G":
		m.cursor = last
	case "enter":
		m.selectCursor()
	case "esc":
		m = m.toggleFocus()
	}
	return m, nil
}

// selectCursor shows the catalog record under the cursor, or clears the
// display when "(none)" is selected.
func (m *model) selectCursor() {
	if m.cursor == 0 {
		m.display = nil
		m.source = ""
		return
	}
	title := m.titles[m.cursor-1]
	rec, ok := m.app.Catalog().Get(title)
	if !ok {
		m.notify(m.theme.Warning.Render(fmt.Sprintf("%s is no longer in the catalog.", title)))
		return
	}
	m.display = &rec
	m.source = "catalog: " + m.app.Catalog().Source(title)
}

func (m model) handleSubmit() (tea.Model, tea.Cmd) {
	command := strings.TrimSpace(m.input.Value())
	if command != "" {
		m.history = append(m.history, command)
	}
	m.input.SetValue("")

	if command == "" {
		return m, nil
	}

	if url, ok := m.app.ProcessTarget(command); ok {
		if m.busy {
			m.notify(m.theme.Warning.Render(fmt.Sprintf("Still processing %s; wait for it to finish.", m.pending)))
			return m, nil
		}
		m.busy = true
		m.pending = url
		m.notify(m.theme.Muted.Render(fmt.Sprintf("Processing %s...", url)))
		return m, tea.Batch(m.spinner.Tick, processFeed(m.ctx, m.app, url))
	}

	result, err := m.app.Execute(m.ctx, command)
	if err != nil {
		m.notify(m.theme.Error.Render(err.Error()))
		return m, nil
	}

	if result.Message != "" {
		m.notify(result.Message)
	}
	if result.Record != nil {
		m.display = result.Record
		m.source = "catalog: " + m.app.Catalog().Source(result.Record.Title())
		m.moveCursorTo(result.Record.Title())
	}
	m.refreshTitles()

	if result.Quit {
		m.quitting = true
		return m, tea.Quit
	}

	return m, nil
}

func processFeed(ctx context.Context, application *app.App, url string) tea.Cmd {
	return func() tea.Msg {
		rec, err := application.Process(ctx, url)
		return processedMsg{url: url, rec: rec, err: err}
	}
}

func (m model) handleProcessed(msg processedMsg) model {
	m.busy = false
	m.pending = ""
	m.lastURL = msg.url
	if msg.err != nil {
		m.notify(m.theme.Error.Render(msg.err.Error()))
		return m
	}
	rec := msg.rec
	m.display = &rec
	m.source = "processed: " + msg.url
	m.cursor = 0
	m.notify(fmt.Sprintf("Processed %s.", msg.url))
	return m
}

// refreshTitles reloads the selector entries, keeping the cursor on the
// selected title when it is still listed. An empty title is a valid entry.
func (m *model) refreshTitles() {
	selected, hasSelection := "", false
	if m.cursor > 0 && m.cursor <= len(m.titles) {
		selected, hasSelection = m.titles[m.cursor-1], true
	}
	m.titles = m.app.Catalog().Titles()
	m.cursor = 0
	if hasSelection {
		m.moveCursorTo(selected)
	}
}

func (m *model) moveCursorTo(title string) bool {
	for i, t := range m.titles {
		if t == title {
			m.cursor = i + 1
			return true
		}
	}
	return false
}

func (m *model) notify(message string) {
	m.messages = append(m.messages, message)
	if len(m.messages) > maxMessages {
		m.messages = m.messages[len(m.messages)-maxMessages:]
	}
}

func (m model) View() string {
	selector := m.selectorView()
	content := m.contentView()

	var b strings.Builder
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, selector, " ", content))
	b.WriteString("\n")

	messages := m.messages
	if len(messages) > shownMessages {
		messages = messages[len(messages)-shownMessages:]
	}
	for _, message := range messages {
		b.WriteString(message)
		b.WriteString("\n")
	}
	if m.busy {
		b.WriteString(m.spinner.View())
		b.WriteString(m.theme.Muted.Render(" processing " + m.pending))
		b.WriteString("\n")
	}
	b.WriteString(m.input.View())
	if !m.quitting {
		b.WriteString("\n")
	}
	return b.String()
}

func (m model) selectorView() string {
	var b strings.Builder
	b.WriteString(m.theme.Heading.Render("Catalog"))
	items := append([]string{noneLabel}, m.titles...)
	for i, item := range items {
		b.WriteString("\n")
		label := truncate(item, selectorWidth-4)
		if i == m.cursor {
			b.WriteString(m.theme.Cursor.Render("> "))
			b.WriteString(m.theme.Selected.Render(label))
			continue
		}
		b.WriteString("  ")
		b.WriteString(m.theme.Body.Render(label))
	}

	style := m.theme.Pane
	if m.focus == focusSelector {
		style = m.theme.Focused
	}
	return style.Width(selectorWidth).Render(b.String())
}

func (m model) contentView() string {
	width := max(m.width-selectorWidth-6, 30)
	if m.display == nil {
		return m.theme.Muted.Render("Select a podcast or enter a feed URL to process.")
	}
	body := m.app.Render(*m.display, width)
	if m.source != "" {
		body = m.theme.Muted.Render(m.source) + "\n" + body
	}
	return body
}

func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	if width <= 3 {
		return string(r[:width])
	}
	return string(r[:width-3]) + "..."
}
