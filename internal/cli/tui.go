package cli

import (
	"fmt"
	"slices"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/imgblocks/pkg/block"
	"github.com/matzehuels/imgblocks/pkg/errors"
	"github.com/matzehuels/imgblocks/pkg/location"
	"github.com/matzehuels/imgblocks/pkg/pipeline"
)

// Editor styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
	editorURLStyle    = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(colorDim).
				Padding(0, 1)
)

// effectKeys maps editor keys to the effect they toggle.
var effectKeys = map[string]string{
	"g": block.EffectGrayscale,
	"s": block.EffectSharpen,
	"u": block.EffectUpscale,
}

// =============================================================================
// Messages
// =============================================================================

// clipboardCopiedMsg reports a successful copy of the compiled URL.
type clipboardCopiedMsg struct{ url string }

// errMsg carries an error from a command back into the model.
type errMsg struct{ err error }

func copyURL(url string) tea.Cmd {
	return func() tea.Msg {
		if err := clipboard.WriteAll(url); err != nil {
			return errMsg{err}
		}
		return clipboardCopiedMsg{url}
	}
}

// =============================================================================
// EditorModel - Interactive pipeline editing
// =============================================================================

// EditorModel is the bubbletea model for editing one pipeline. The URL is
// recompiled on every render so it always reflects the current blocks.
type EditorModel struct {
	Pipeline *pipeline.Pipeline
	Location location.Location
	Cursor   int

	prompt    textinput.Model
	prompting bool
	status    string
	statusErr bool
}

// NewEditorModel creates an editor over p and loc.
func NewEditorModel(p *pipeline.Pipeline, loc location.Location) EditorModel {
	input := textinput.New()
	input.Placeholder = "key=value"
	input.Prompt = "set "
	return EditorModel{Pipeline: p, Location: loc, prompt: input}
}

func (m EditorModel) Init() tea.Cmd {
	return nil
}

// URL returns the compiled URL for the current state.
func (m EditorModel) URL() string {
	return m.Pipeline.Compile(m.Location)
}

// selected returns the block under the cursor.
func (m EditorModel) selected() (block.Block, bool) {
	blocks := m.Pipeline.Blocks()
	if m.Cursor < 0 || m.Cursor >= len(blocks) {
		return block.Block{}, false
	}
	return blocks[m.Cursor], true
}

func (m EditorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case clipboardCopiedMsg:
		m.setStatus("Copied URL to clipboard", false)
		return m, nil
	case errMsg:
		m.setStatus(msg.err.Error(), true)
		return m, nil
	case tea.KeyMsg:
		if m.prompting {
			return m.updatePrompt(msg)
		}
		return m.updateList(msg)
	}
	return m, nil
}

func (m EditorModel) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	m.status = ""

	if len(key) == 1 && key[0] >= '1' && int(key[0]-'1') < len(block.Types) {
		t := block.Types[key[0]-'1']
		m.Pipeline.Add(t)
		m.Cursor = m.Pipeline.Len() - 1
		m.setStatus("Added "+t.Title(), false)
		return m, nil
	}

	switch key {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "up", "k":
		if m.Cursor > 0 {
			m.Cursor--
		}
	case "down", "j":
		if m.Cursor < m.Pipeline.Len()-1 {
			m.Cursor++
		}
	case "K", "shift+up":
		if b, ok := m.selected(); ok && m.Pipeline.MoveUp(b.ID) {
			m.Cursor--
		}
	case "J", "shift+down":
		if b, ok := m.selected(); ok && m.Pipeline.MoveDown(b.ID) {
			m.Cursor++
		}
	case "x", "delete":
		if b, ok := m.selected(); ok {
			m.Pipeline.Remove(b.ID)
			if m.Cursor >= m.Pipeline.Len() && m.Cursor > 0 {
				m.Cursor--
			}
			m.setStatus("Removed "+b.Type.Title(), false)
		}
	case "enter", " ":
		if b, ok := m.selected(); ok {
			m.Pipeline.ToggleExpanded(b.ID)
		}
	case "e":
		if _, ok := m.selected(); ok {
			m.prompting = true
			m.prompt.SetValue("")
			return m, m.prompt.Focus()
		}
	case "g", "s", "u":
		b, ok := m.selected()
		if !ok {
			break
		}
		fx, isEffects := b.Params.(*block.EffectsParams)
		if !isEffects {
			m.setStatus("Effects can only be toggled on an Effects block", true)
			break
		}
		name := effectKeys[key]
		m.Pipeline.ToggleEffect(b.ID, name, !fx.Has(name))
	case "c":
		url := m.URL()
		if url == "" {
			m.setStatus("Nothing to copy: base URL or public ID is empty", true)
			break
		}
		return m, copyURL(url)
	}
	return m, nil
}

func (m EditorModel) updatePrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "ctrl+c":
		m.closePrompt()
		return m, nil
	case "enter":
		input := m.prompt.Value()
		m.closePrompt()
		if err := m.applyParam(input); err != nil {
			m.setStatus(errors.UserMessage(err), true)
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.prompt, cmd = m.prompt.Update(msg)
	return m, cmd
}

// applyParam sets one key=value on the selected block. An empty value
// unsets the key.
func (m *EditorModel) applyParam(input string) error {
	b, ok := m.selected()
	if !ok {
		return nil
	}
	key, value, found := strings.Cut(strings.TrimSpace(input), "=")
	if !found {
		return errors.New(errors.ErrCodeInvalidParam, "expected key=value, got %q", input)
	}
	key = strings.TrimSpace(key)
	if err := errors.ValidateParamKey(key); err != nil {
		return err
	}
	m.Pipeline.UpdateParam(b.ID, key, strings.TrimSpace(value))
	m.setStatus(fmt.Sprintf("Set %s on %s", key, b.Type.Title()), false)
	return nil
}

func (m *EditorModel) closePrompt() {
	m.prompting = false
	m.prompt.Blur()
}

func (m *EditorModel) setStatus(s string, isErr bool) {
	m.status = s
	m.statusErr = isErr
}

func (m EditorModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Pipeline Editor"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("%s  %s", orDash(m.Location.BaseURL), orDash(m.Location.PublicID))))
	b.WriteString("\n\n")

	url := m.URL()
	if url == "" {
		b.WriteString(editorURLStyle.Render(StyleWarning.Render("(no URL)")))
	} else {
		b.WriteString(editorURLStyle.Render(StyleLink.Render(url)))
	}
	b.WriteString("\n\n")

	blocks := m.Pipeline.Blocks()
	if len(blocks) == 0 {
		b.WriteString(listDimStyle.Render("  no blocks yet, press 1-7 to add one"))
		b.WriteString("\n")
	}
	for i, f := range m.Pipeline.Fragments() {
		cursor := "  "
		if i == m.Cursor {
			cursor = listSelectedStyle.Render("▸ ")
		}
		b.WriteString(cursor + fragmentLine(f))
		b.WriteString("\n")
		if blocks[i].Expanded {
			b.WriteString(paramLines(blocks[i]))
		}
	}

	b.WriteString("\n")
	if m.prompting {
		b.WriteString(m.prompt.View())
		b.WriteString("\n")
		b.WriteString(listDimStyle.Render("enter apply  esc cancel"))
	} else {
		b.WriteString(listDimStyle.Render(paletteHelp()))
		b.WriteString("\n")
		b.WriteString(listDimStyle.Render("↑/↓ select  K/J move  x remove  ⏎ expand  e set param  g/s/u effects  c copy  q quit"))
	}
	if m.status != "" {
		b.WriteString("\n")
		if m.statusErr {
			b.WriteString(StyleWarning.Render(m.status))
		} else {
			b.WriteString(listNormalStyle.Render(m.status))
		}
	}

	return b.String()
}

// =============================================================================
// Helpers
// =============================================================================

// paramLines renders an expanded block's params as indented key=value lines.
func paramLines(b block.Block) string {
	values := b.Params.Values()
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	var s strings.Builder
	for _, k := range keys {
		v := block.FormatValue(values[k])
		if v == "" {
			v = "-"
		}
		s.WriteString(listDimStyle.Render(fmt.Sprintf("       %s=%s", k, v)))
		s.WriteString("\n")
	}
	return s.String()
}

func paletteHelp() string {
	parts := make([]string, len(block.Types))
	for i, t := range block.Types {
		parts[i] = fmt.Sprintf("%d %s", i+1, t.Title())
	}
	return strings.Join(parts, "  ")
}
