// internal/tui/picker.go
//
// Full-screen list picker built on bubbletea. The model follows the usual
// Elm loop: key and resize messages go through Update, View renders the list.

package tui

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ErrCancelled is returned when the user leaves the picker without choosing.
var ErrCancelled = errors.New("tui: selection cancelled")

// optionItem implements list.Item for one selectable entry.
type optionItem struct {
	title string
	desc  string
}

func (i optionItem) Title() string       { return i.title }
func (i optionItem) Description() string { return i.desc }
func (i optionItem) FilterValue() string { return i.title }

type pickerModel struct {
	list   list.Model
	choice int
	done   bool
}

func newPickerModel(title string, options []string) pickerModel {
	items := make([]list.Item, len(options))
	for i, opt := range options {
		items[i] = optionItem{title: opt, desc: fmt.Sprintf("Option %d of %d", i+1, len(options))}
	}
	l := list.New(items, list.NewDefaultDelegate(), 0, 0)
	l.Title = title
	l.Styles.Title = titleStyle
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	return pickerModel{list: l, choice: -1}
}

func (m pickerModel) Init() tea.Cmd {
	return nil
}

func (m pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetSize(max(0, msg.Width-4), max(0, msg.Height-4))
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc", "q":
			m.done = true
			return m, tea.Quit
		case "enter":
			if len(m.list.Items()) > 0 {
				m.choice = m.list.Index()
			}
			m.done = true
			return m, tea.Quit
		}
	}
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m pickerModel) View() string {
	if m.done {
		return ""
	}
	hint := hintStyle.Render("Enter → select    Esc → cancel")
	return lipgloss.NewStyle().Margin(1, 2).Render(lipgloss.JoinVertical(lipgloss.Left, m.list.View(), hint))
}

// Picker presents options in an interactive list. It needs a terminal on
// both ends; use Prompt otherwise.
type Picker struct {
	in  io.Reader
	out io.Writer
}

// NewPicker returns a picker bound to the given terminal streams.
func NewPicker(in io.Reader, out io.Writer) *Picker {
	return &Picker{in: in, out: out}
}

// Select runs the picker until the user chooses an entry or cancels. The
// question is only needed by line prompts; the list is navigated by keys.
func (p *Picker) Select(ctx context.Context, title, _ string, options []string) (int, error) {
	if len(options) == 0 {
		return -1, ErrNoOptions
	}
	program := tea.NewProgram(
		newPickerModel(title, options),
		tea.WithContext(ctx),
		tea.WithInput(p.in),
		tea.WithOutput(p.out),
		tea.WithAltScreen(),
	)
	final, err := program.Run()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return -1, ctxErr
		}
		return -1, fmt.Errorf("tui: run picker: %w", err)
	}
	m, ok := final.(pickerModel)
	if !ok || m.choice < 0 {
		return -1, ErrCancelled
	}
	return m.choice, nil
}
