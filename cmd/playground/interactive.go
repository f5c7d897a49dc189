package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/querypath/playground/config"
	"github.com/querypath/playground/errors"
	"github.com/querypath/playground/examples"
	"github.com/querypath/playground/listener"
	"github.com/querypath/playground/orchestrator"
	"github.com/querypath/playground/session"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFD700"))

	toastStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#444444")).
			Padding(0, 1)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type focusArea int

const (
	focusDocument focusArea = iota
	focusPath
)

type interactiveModel struct {
	orch      *orchestrator.Orchestrator
	debouncer *orchestrator.Debouncer
	log       *zap.Logger

	document textarea.Model
	path     textinput.Model
	focus    focusArea

	outcome    *orchestrator.Outcome
	shareQuery string
	toast      string

	categories []string
	category   int
	example    int

	width  int
	height int
}

type outcomeMsg struct {
	outcome orchestrator.Outcome
}

type toastMsg struct {
	text string
}

func newInteractiveModel(orch *orchestrator.Orchestrator, window *orchestrator.Debouncer, shared session.SharedState, log *zap.Logger) *interactiveModel {
	doc := textarea.New()
	doc.Placeholder = "XML document"
	doc.SetWidth(70)
	doc.SetHeight(12)
	doc.Focus()

	path := textinput.New()
	path.Placeholder = "dot.path.to.query"
	path.Prompt = "path: "
	path.Width = 60

	def := examples.Default()
	doc.SetValue(def.Document)
	if shared.HasDocument {
		doc.SetValue(shared.Document)
	}
	if shared.HasPath {
		path.SetValue(shared.Path)
	}

	return &interactiveModel{
		orch:       orch,
		debouncer:  window,
		log:        log,
		document:   doc,
		path:       path,
		categories: examples.Categories(),
	}
}

func (m *interactiveModel) Init() tea.Cmd {
	return textarea.Blink
}

// scheduleExecute debounces evaluation: only the last pending trigger
// fires, after the quiescence window. The outcome reaches the update
// loop through the subscription registry, not a return value.
func (m *interactiveModel) scheduleExecute() {
	doc, path := m.document.Value(), m.path.Value()
	m.debouncer.Schedule(func() {
		m.orch.Execute(context.Background(), doc, path)
	})
}

// executeNow bypasses the debounce window for the explicit chord.
func (m *interactiveModel) executeNow() tea.Cmd {
	m.debouncer.Cancel()
	doc, path := m.document.Value(), m.path.Value()
	return func() tea.Msg {
		m.orch.Execute(context.Background(), doc, path)
		return nil
	}
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if msg.Width > 10 {
			m.document.SetWidth(msg.Width - 4)
			m.path.Width = msg.Width - 12
		}

	case tea.KeyMsg:
		m.toast = ""
		switch msg.String() {
		case "ctrl+c":
			m.debouncer.Cancel()
			return m, tea.Quit

		case "ctrl+e":
			return m, m.executeNow()

		case "esc":
			m.debouncer.Cancel()
			m.outcome = nil
			return m, nil

		case "tab":
			if m.focus == focusDocument {
				m.focus = focusPath
				m.document.Blur()
				return m, m.path.Focus()
			}
			m.focus = focusDocument
			m.path.Blur()
			return m, m.document.Focus()

		case "ctrl+s":
			m.shareQuery = m.orch.ShareLink(m.document.Value(), m.path.Value())
			if m.shareQuery == "" {
				return m, toast("nothing to share")
			}
			return m, m.copyToClipboard("?"+m.shareQuery, "share link copied")

		case "ctrl+y":
			if m.outcome == nil || m.outcome.Kind != orchestrator.OutcomeSuccess {
				return m, toast("no result to copy")
			}
			return m, m.copyToClipboard(m.outcome.Result.Value, "result copied")

		case "ctrl+x":
			m.document.Reset()
			m.outcome = nil
			return m, nil

		case "ctrl+l":
			if err := m.orch.History().Clear(); err != nil {
				m.log.Warn("history clear failed", zap.Error(err))
				return m, toast("could not clear history")
			}
			return m, toast("history cleared")

		case "ctrl+n":
			m.cycleExample()
			m.scheduleExecute()
			return m, nil

		case "ctrl+g":
			m.cycleCategory()
			m.scheduleExecute()
			return m, nil
		}

	case outcomeMsg:
		out := msg.outcome
		m.outcome = &out
		if out.Kind == orchestrator.OutcomeSuccess {
			m.shareQuery = out.ShareQuery
		}
		return m, nil

	case toastMsg:
		m.toast = msg.text
		return m, nil
	}

	var cmd tea.Cmd
	before := m.document.Value() + "\x00" + m.path.Value()
	if m.focus == focusDocument {
		m.document, cmd = m.document.Update(msg)
	} else {
		m.path, cmd = m.path.Update(msg)
	}
	if m.document.Value()+"\x00"+m.path.Value() != before {
		m.scheduleExecute()
	}
	return m, cmd
}

func (m *interactiveModel) cycleCategory() {
	if len(m.categories) == 0 {
		return
	}
	m.category = (m.category + 1) % len(m.categories)
	m.example = 0
	m.loadExample()
}

func (m *interactiveModel) cycleExample() {
	members := examples.ByCategory(m.currentCategory())
	if len(members) == 0 {
		return
	}
	m.example = (m.example + 1) % len(members)
	m.loadExample()
}

func (m *interactiveModel) currentCategory() string {
	if len(m.categories) == 0 {
		return ""
	}
	return m.categories[m.category]
}

func (m *interactiveModel) loadExample() {
	members := examples.ByCategory(m.currentCategory())
	if m.example >= len(members) {
		return
	}
	ex := members[m.example]
	m.document.SetValue(ex.Document)
	if len(ex.Suggested) > 0 {
		m.path.SetValue(ex.Suggested[0])
	}
	m.outcome = nil
}

func (m *interactiveModel) copyToClipboard(text, confirmation string) tea.Cmd {
	return func() tea.Msg {
		if err := clipboard.WriteAll(text); err != nil {
			cerr := errors.ClipboardUnavailable(err)
			m.log.Warn("clipboard write failed", zap.Error(cerr))
			return toastMsg{text: cerr.Message()}
		}
		return toastMsg{text: confirmation}
	}
}

func toast(text string) tea.Cmd {
	return func() tea.Msg { return toastMsg{text: text} }
}

func (m *interactiveModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("querypath playground"))
	if cat := m.currentCategory(); cat != "" {
		b.WriteString("  " + labelStyle.Render("examples: "+cat))
	}
	b.WriteString("\n\n")

	b.WriteString(m.document.View())
	b.WriteString("\n\n")
	b.WriteString(m.path.View())
	b.WriteString("\n\n")

	b.WriteString(m.renderOutcome())

	if m.shareQuery != "" {
		b.WriteString(labelStyle.Render("share: "))
		b.WriteString("?" + m.shareQuery + "\n")
	}

	if history := m.orch.History().Load(); len(history) > 0 {
		b.WriteString(labelStyle.Render("history: "))
		b.WriteString(strings.Join(history, "  "))
		b.WriteString("\n")
	}

	if m.toast != "" {
		b.WriteString("\n" + toastStyle.Render(m.toast) + "\n")
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render(
		"ctrl+e run • esc clear • tab focus • ctrl+s share • ctrl+y copy • " +
			"ctrl+n example • ctrl+g category • ctrl+x clear doc • ctrl+l clear history • ctrl+c quit"))
	return b.String()
}

func (m *interactiveModel) renderOutcome() string {
	if m.outcome == nil {
		return helpStyle.Render("type a document and a path; evaluation runs after a pause") + "\n\n"
	}

	var b strings.Builder
	switch m.outcome.Kind {
	case orchestrator.OutcomeCleared:
		b.WriteString(helpStyle.Render("(cleared)"))
		b.WriteString("\n")

	case orchestrator.OutcomeFailure:
		b.WriteString(errorStyle.Render(m.outcome.Message))
		b.WriteString("\n")
		if m.outcome.Hint != "" {
			b.WriteString(hintStyle.Render(m.outcome.Hint))
			b.WriteString("\n")
		}

	case orchestrator.OutcomeSuccess:
		r := m.outcome.Result
		b.WriteString(labelStyle.Render("value:  "))
		b.WriteString(valueStyle.Render(r.Value))
		b.WriteString("\n")
		b.WriteString(labelStyle.Render("kind:   "))
		b.WriteString(r.Kind.String())
		b.WriteString("\n")
		b.WriteString(labelStyle.Render("exists: "))
		b.WriteString(fmt.Sprintf("%v", r.Exists))
		b.WriteString("\n")
		if r.Index >= 0 {
			b.WriteString(labelStyle.Render("index:  "))
			b.WriteString(fmt.Sprintf("%d", r.Index))
			b.WriteString("\n")
		}
	}
	b.WriteString("\n")
	return b.String()
}

func runInteractive(cfg *config.Config, shared string, log *zap.Logger) error {
	registry := listener.NewRegistry(log.Named("listener"))
	orch, teardown, err := wire(cfg, registry, log)
	if err != nil {
		return err
	}
	defer teardown(context.Background())

	share := session.NewShare(examples.Default().Document, log.Named("share"))
	state := share.Decode(strings.TrimPrefix(shared, "?"))

	// A shared document goes back through the guest's validate before it
	// reaches the textarea; an invalid one is not loaded.
	state, rejected := orch.RestoreShared(context.Background(), state)

	model := newInteractiveModel(orch, orchestrator.NewDebouncer(cfg.DebounceWindow), state, log)
	if rejected {
		model.toast = "shared document is invalid and was not loaded"
	}

	p := tea.NewProgram(model, tea.WithAltScreen())

	// Outcomes emitted by the orchestrator reach the UI through the
	// subscription registry, so re-wiring never stacks handlers.
	registry.Add(orchestrator.ResultTarget, orchestrator.ResultEvent, func(payload any) {
		if out, ok := payload.(orchestrator.Outcome); ok {
			p.Send(outcomeMsg{outcome: out})
		}
	}, nil)

	_, err = p.Run()
	return err
}
