package tui

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"kanaset/internal/charmap"
	"kanaset/internal/manifest"
)

// DatasetPort is the TUI-facing view of a finished dataset.
type DatasetPort interface {
	Classes() []manifest.ClassEntry
	Summary() string
}

// Dataset adapts a loaded manifest to DatasetPort.
type Dataset struct {
	Manifest *manifest.Manifest
}

func (d Dataset) Classes() []manifest.ClassEntry { return d.Manifest.Classes }

func (d Dataset) Summary() string {
	m := d.Manifest
	return fmt.Sprintf("%d classes, %d train / %d val samples, image %v, %s resampling",
		m.NumClasses, m.Split.TrainCount, m.Split.ValCount, m.ImageShape, m.Resampling)
}

// Verify checks that every manifest class resolves to the same id in the
// character map.
func (d Dataset) Verify(cm *charmap.Map) error {
	m := d.Manifest
	if cm.Len() != m.NumClasses {
		return fmt.Errorf("character map has %d classes, manifest has %d", cm.Len(), m.NumClasses)
	}
	for _, c := range m.Classes {
		ch, size := utf8.DecodeRuneInString(c.Character)
		if size != len(c.Character) {
			return fmt.Errorf("class %d: %q is not a single character", c.ID, c.Character)
		}
		id, ok := cm.Lookup(ch)
		if !ok {
			return fmt.Errorf("class %d: %s missing from character map", c.ID, c.Character)
		}
		if id != c.ID {
			return fmt.Errorf("class %s: manifest id %d, character map id %d", c.Character, c.ID, id)
		}
	}
	return nil
}

// Model is the Bubble Tea model for the dataset browser.
type Model struct {
	data     DatasetPort
	input    textinput.Model
	viewport viewport.Model
	results  []manifest.ClassEntry
	summary  string
	status   string
	cursor   int
	ready    bool
}

// New creates a new TUI model instance showing every class.
func New(data DatasetPort) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Type a character or class id and press Enter"
	ti.Focus()
	ti.CharLimit = 16
	vp := viewport.New(0, 0)
	return Model{
		data:     data,
		input:    ti,
		viewport: vp,
		results:  data.Classes(),
		summary:  data.Summary(),
		status:   "Loaded. Up/Down to browse classes.",
	}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, rh := resultBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 2 + 1 + qh + 1 // header+summary, status, spacer
		vh := msg.Height - reserved
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, vh-rh)
		m.viewport.SetContent(m.renderCurrent())
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			q := strings.TrimSpace(m.input.Value())
			m.results = Find(m.data.Classes(), q)
			m.cursor = 0
			switch {
			case q == "":
				m.status = "All classes"
			case len(m.results) == 0:
				m.status = fmt.Sprintf("No class matches %q", q)
			default:
				m.status = fmt.Sprintf("Results for %q", q)
			}
			m.viewport.SetContent(m.renderCurrent())
			return m, nil
		case "down":
			if len(m.results) > 0 {
				m.cursor = (m.cursor + 1) % len(m.results)
				m.viewport.SetContent(m.renderCurrent())
				return m, nil
			}
		case "up":
			if len(m.results) > 0 {
				m.cursor = (m.cursor - 1 + len(m.results)) % len(m.results)
				m.viewport.SetContent(m.renderCurrent())
				return m, nil
			}
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the layout and the selected class.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("Kana Dataset Browser")
	summary := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(m.summary)
	input := queryBoxStyle.Render(m.input.View())
	status := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(m.status)
	results := resultBoxStyle.Render(m.viewport.View())
	return header + "\n" + summary + "\n" + results + "\n" + input + "\n" + status
}

func (m Model) renderCurrent() string {
	if len(m.results) == 0 {
		return "No classes."
	}
	c := m.results[m.cursor]
	title := fmt.Sprintf("Class %d/%d", m.cursor+1, len(m.results))
	glyph := glyphStyle.Render(c.Character)
	body := fmt.Sprintf("id         %d\ncode point %s\ntrain      %d\nval        %d", c.ID, c.CodePoint, c.Train, c.Val)
	return title + "\n\n" + glyph + "\n\n" + body
}

// Find returns the classes matching q: an id, a single character, or all
// classes when q is empty.
func Find(classes []manifest.ClassEntry, q string) []manifest.ClassEntry {
	if q == "" {
		return classes
	}
	if id, err := strconv.Atoi(q); err == nil {
		for _, c := range classes {
			if c.ID == id {
				return []manifest.ClassEntry{c}
			}
		}
		return nil
	}
	var out []manifest.ClassEntry
	for _, r := range q {
		for _, c := range classes {
			if ch, _ := utf8.DecodeRuneInString(c.Character); ch == r {
				out = append(out, c)
			}
		}
	}
	return out
}

var (
	resultBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	glyphStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
)

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
