package browse

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/andrei-cloud/plugcore/pkg/plugincore"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	okStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	faultStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	panelStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

// result is the outcome of one command run from the browser.
type result struct {
	name   string
	status plugincore.Status
	ret    int32
	output string
}

type browseModel struct {
	namespace string
	names     []string
	cursor    int
	offset    int
	height    int
	run       func(name string) result
	last      *result
	quitting  bool
}

// newBrowseModel creates a new TUI model over names. run executes the selected command.
func newBrowseModel(namespace string, names []string, run func(string) result) browseModel {
	return browseModel{
		namespace: namespace,
		names:     names,
		height:    20,
		run:       run,
	}
}

// Init initializes the model.
func (m browseModel) Init() tea.Cmd {
	return nil
}

// Update handles messages and updates the model state.
func (m browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		// title, help line and result panel take about ten rows.
		m.height = max(msg.Height-10, 3)
		m.scroll()
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			m.quitting = true

			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.names)-1 {
				m.cursor++
			}
		case "home", "g":
			m.cursor = 0
		case "end", "G":
			m.cursor = max(len(m.names)-1, 0)
		case "enter":
			if len(m.names) > 0 {
				res := m.run(m.names[m.cursor])
				m.last = &res
			}
		}
		m.scroll()
	}

	return m, nil
}

// scroll keeps the cursor inside the visible window.
func (m *browseModel) scroll() {
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+m.height {
		m.offset = m.cursor - m.height + 1
	}
}

// View renders the current state of the model.
func (m browseModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("plugcore: %s (%d commands)", m.namespace, len(m.names))))
	b.WriteString("\n\n")

	if len(m.names) == 0 {
		b.WriteString("  no commands registered\n")
	}

	end := min(m.offset+m.height, len(m.names))
	for i := m.offset; i < end; i++ {
		if i == m.cursor {
			b.WriteString(selectedStyle.Render("▶ " + m.names[i]))
		} else {
			b.WriteString("  " + m.names[i])
		}
		b.WriteString("\n")
	}

	if m.last != nil {
		b.WriteString("\n")
		b.WriteString(panelStyle.Render(m.last.render()))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("↑/↓ select • enter run • q quit"))

	return b.String()
}

func (r result) render() string {
	style := okStyle
	if r.status != plugincore.StatusOK {
		style = faultStyle
	}

	s := fmt.Sprintf("%s → %s", r.name, style.Render(r.status.String()))
	if r.status == plugincore.StatusOK {
		s += fmt.Sprintf(" returned %d", r.ret)
	}
	if out := strings.TrimSpace(r.output); out != "" {
		s += "\n" + out
	}

	return s
}
