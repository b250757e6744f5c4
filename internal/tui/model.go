package tui

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"issue-reviewer/internal/domain"
)

// SearchPort is the TUI-facing subset of the retriever.
type SearchPort interface {
	Search(query string, k int) ([]domain.ScoredChunk, error)
}

const (
	// resultLimit is how many ranked chunks one query pulls into the UI.
	resultLimit = 10

	headerLines     = 2
	footerLines     = 1
	minResultHeight = 3
)

// Model is the Bubble Tea model for the interactive code search UI.
type Model struct {
	searcher  SearchPort
	input     textinput.Model
	viewport  viewport.Model
	results   []domain.ScoredChunk
	summary   string
	status    string
	cursor    int
	ready     bool
	lastQuery string
}

// New creates a new TUI model instance. summary describes the indexed
// corpus and stays in the header.
func New(searcher SearchPort, summary string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Type query and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{searcher: searcher, input: ti, viewport: vp, summary: summary, status: "Indexed. Type to search."}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key and window events. Enter searches, up/down cycle the
// ranked chunks, pgup/pgdn scroll inside a long chunk, esc clears.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		m.resize(msg.Width, msg.Height)
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "ctrl+d":
			return m, tea.Quit
		case "esc":
			m.input.SetValue("")
			m.results = nil
			m.cursor = 0
			m.lastQuery = ""
			m.status = "Cleared. Type to search."
			m.viewport.SetContent(m.renderCurrentResult())
			return m, nil
		case "enter":
			return m.runSearch(), nil
		case "down", "ctrl+n":
			return m.moveCursor(1), nil
		case "up", "ctrl+p":
			return m.moveCursor(-1), nil
		case "pgup", "pgdown":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) runSearch() Model {
	q := strings.TrimSpace(m.input.Value())
	if q == "" {
		return m
	}
	res, err := m.searcher.Search(q, resultLimit)
	switch {
	case err != nil:
		m.status = "Error: " + err.Error()
		m.results = nil
	case len(res) == 0:
		m.status = fmt.Sprintf("No matches for %q", q)
		m.results = nil
	default:
		m.status = fmt.Sprintf("%d results for %q  (up/down cycle, pgup/pgdn scroll, esc clear)", len(res), q)
		m.results = res
		m.cursor = 0
		m.lastQuery = q
	}
	m.viewport.SetContent(m.renderCurrentResult())
	m.viewport.GotoTop()
	return m
}

func (m Model) moveCursor(delta int) Model {
	if len(m.results) == 0 {
		return m
	}
	m.cursor = (m.cursor + delta + len(m.results)) % len(m.results)
	m.viewport.SetContent(m.renderCurrentResult())
	m.viewport.GotoTop()
	return m
}

func (m *Model) resize(width, height int) {
	_, rh := resultBoxStyle.GetFrameSize()
	_, qh := queryBoxStyle.GetFrameSize()
	vh := height - headerLines - footerLines - qh - rh
	if vh < minResultHeight {
		vh = minResultHeight
	}
	if width < 20 {
		width = 20
	}
	m.viewport.Width = width
	m.viewport.Height = vh
	m.viewport.SetContent(m.renderCurrentResult())
}

// View stacks header, corpus summary, result pane, query box, and status.
func (m Model) View() string {
	if !m.ready {
		return "Preparing search view..."
	}
	var b strings.Builder
	b.WriteString(headerStyle.Render("Issue Reviewer - Code Search"))
	b.WriteByte('\n')
	b.WriteString(summaryStyle.Render(m.summary))
	b.WriteByte('\n')
	b.WriteString(resultBoxStyle.Render(m.viewport.View()))
	b.WriteByte('\n')
	b.WriteString(queryBoxStyle.Render(m.input.View()))
	b.WriteByte('\n')
	b.WriteString(statusStyle.Render(m.status))
	return b.String()
}

func (m Model) renderCurrentResult() string {
	if len(m.results) == 0 {
		return "No results yet."
	}
	r := m.results[m.cursor]
	title := fmt.Sprintf("Result %d/%d  %s (lines %d-%d)  score=%.2f",
		m.cursor+1, len(m.results), r.Chunk.SourcePath, r.Chunk.StartLine, r.Chunk.EndLine, r.Score)
	body := highlightMatchingLines(r.Chunk.Text, m.lastQuery)
	return title + "\n\n" + body
}

var (
	headerStyle    = lipgloss.NewStyle().Bold(true)
	summaryStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	resultBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	highlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	identWordRe    = regexp.MustCompile(`\b[a-z_][a-z0-9_]*\b`)
)

// highlightMatchingLines emphasizes the lines that share identifier tokens
// with the query.
func highlightMatchingLines(text, query string) string {
	qTokens := toTokenSet(query)
	if len(qTokens) == 0 {
		return text
	}
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		for _, tok := range identWordRe.FindAllString(strings.ToLower(line), -1) {
			if _, ok := qTokens[tok]; ok {
				lines[i] = highlightStyle.Render(line)
				break
			}
		}
	}
	return strings.Join(lines, "\n")
}

func toTokenSet(s string) map[string]struct{} {
	tokens := identWordRe.FindAllString(strings.ToLower(s), -1)
	m := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		m[t] = struct{}{}
	}
	return m
}
