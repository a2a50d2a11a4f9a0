package ui

import (
	"context"
	"fmt"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/prodintel/pkg/config"
	"github.com/vanderheijden86/prodintel/pkg/debug"
	"github.com/vanderheijden86/prodintel/pkg/model"
	"github.com/vanderheijden86/prodintel/pkg/view"
)

const (
	defaultWidth  = 120
	defaultHeight = 40

	queryPlaceholder = "Why did trial users churn last week?"
)

// focus represents which UI element has keyboard focus
type focus int

const (
	focusQuery focus = iota
	focusInsights
	focusMetrics
	focusCount
)

// Backend is the part of the API client the dashboard calls.
type Backend interface {
	Insights(ctx context.Context) ([]model.Insight, error)
	Metrics(ctx context.Context) ([]model.Metric, error)
	Ask(ctx context.Context, question string) (model.Answer, error)
	ResolveInsight(ctx context.Context, id model.ID) error
}

// Options configures a dashboard Model.
type Options struct {
	BaseURL    string         // shown in the header
	DateLayout string         // metric date layout; config.DefaultDateLayout when empty
	Location   *time.Location // metric date zone; time.Local when nil

	// ConfigPath is re-read whenever ConfigChanges fires so UI settings
	// apply without a restart. The base URL stays as resolved at startup.
	ConfigPath    string
	ConfigChanges <-chan struct{}
}

// Messages produced by the backend commands. Each carries its own error so
// a failure only touches the state it belongs to.
type insightsLoadedMsg struct {
	insights []model.Insight
	err      error
}

type metricsLoadedMsg struct {
	metrics []model.Metric
	err     error
}

type answerMsg struct {
	answer model.Answer
	err    error
}

type configChangedMsg struct{}

type resolvedMsg struct {
	id    model.ID
	title string
	err   error
}

// Model is the Bubble Tea model for the dashboard page.
type Model struct {
	backend Backend
	ctx     context.Context
	cancel  context.CancelFunc
	opts    Options

	// Data, replaced wholesale on every successful fetch
	insights []model.Insight
	metrics  []model.Metric
	answer   string

	// pending is the in-flight lock for query submission
	pending bool

	input    textinput.Model
	spinner  spinner.Model
	viewport viewport.Model
	md       *MarkdownRenderer
	theme    Theme
	keys     keyMap

	answerView string
	focus      focus
	selected   int

	statusMsg     string
	statusIsError bool

	width  int
	height int
}

// NewModel creates a dashboard backed by b. The model owns a context that
// every request runs under; Stop cancels it.
func NewModel(b Backend, opts Options) Model {
	if opts.DateLayout == "" {
		opts.DateLayout = config.DefaultDateLayout
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	ctx, cancel := context.WithCancel(context.Background())

	ti := textinput.New()
	ti.Placeholder = queryPlaceholder
	ti.Prompt = "› "
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(ColorInfo)

	m := Model{
		backend:  b,
		ctx:      ctx,
		cancel:   cancel,
		opts:     opts,
		insights: []model.Insight{},
		metrics:  []model.Metric{},
		input:    ti,
		spinner:  sp,
		viewport: viewport.New(defaultWidth, defaultHeight-2),
		md:       NewMarkdownRenderer(defaultWidth - 8),
		theme:    DefaultTheme(lipgloss.DefaultRenderer()),
		keys:     defaultKeyMap(),
		focus:    focusQuery,
		width:    defaultWidth,
		height:   defaultHeight,
	}
	m.resize(defaultWidth, defaultHeight)
	m.syncViewport()
	return m
}

// Init starts both data fetches concurrently.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.fetchInsightsCmd(),
		m.fetchMetricsCmd(),
		m.waitConfigCmd(),
		textinput.Blink,
	)
}

// Stop cancels every in-flight request.
func (m Model) Stop() {
	if m.cancel != nil {
		m.cancel()
	}
}

func (m Model) fetchInsightsCmd() tea.Cmd {
	ctx, b := m.ctx, m.backend
	return func() tea.Msg {
		items, err := b.Insights(ctx)
		return insightsLoadedMsg{insights: items, err: err}
	}
}

func (m Model) fetchMetricsCmd() tea.Cmd {
	ctx, b := m.ctx, m.backend
	return func() tea.Msg {
		items, err := b.Metrics(ctx)
		return metricsLoadedMsg{metrics: items, err: err}
	}
}

// waitConfigCmd blocks until the config file changes or the model stops.
func (m Model) waitConfigCmd() tea.Cmd {
	ch := m.opts.ConfigChanges
	if ch == nil {
		return nil
	}
	ctx := m.ctx
	return func() tea.Msg {
		select {
		case <-ch:
			return configChangedMsg{}
		case <-ctx.Done():
			return nil
		}
	}
}

func (m Model) askCmd(question string) tea.Cmd {
	ctx, b := m.ctx, m.backend
	return func() tea.Msg {
		ans, err := b.Ask(ctx, question)
		return answerMsg{answer: ans, err: err}
	}
}

func (m Model) resolveCmd(in model.Insight) tea.Cmd {
	ctx, b := m.ctx, m.backend
	return func() tea.Msg {
		err := b.ResolveInsight(ctx, in.ID)
		return resolvedMsg{id: in.ID, title: in.Title, err: err}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)

	case insightsLoadedMsg:
		if msg.err != nil {
			debug.Errorf("fetch insights: %v", msg.err)
			break
		}
		m.insights = msg.insights
		if m.insights == nil {
			m.insights = []model.Insight{}
		}
		m.clampSelection()

	case metricsLoadedMsg:
		if msg.err != nil {
			debug.Errorf("fetch metrics: %v", msg.err)
			break
		}
		m.metrics = msg.metrics
		if m.metrics == nil {
			m.metrics = []model.Metric{}
		}

	case answerMsg:
		m.pending = false
		if msg.err != nil {
			debug.Errorf("ask: %v", msg.err)
			break
		}
		m.answer = msg.answer.Answer
		m.renderAnswer()

	case resolvedMsg:
		if msg.err != nil {
			debug.Errorf("resolve insight %s: %v", msg.id, msg.err)
			m.statusMsg = fmt.Sprintf("Could not resolve %q", msg.title)
			m.statusIsError = true
			break
		}
		m.statusMsg = fmt.Sprintf("Resolved %q", msg.title)
		m.statusIsError = false
		cmds = append(cmds, m.fetchInsightsCmd())

	case configChangedMsg:
		m.reloadConfig()
		cmds = append(cmds, m.waitConfigCmd())

	case spinner.TickMsg:
		// Let the tick chain die once the query has resolved
		if m.pending {
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}

	case tea.KeyMsg:
		var quit bool
		m, cmd, quit = m.handleKeys(msg)
		if quit {
			return m, cmd
		}
		cmds = append(cmds, cmd)

	default:
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}

	m.syncViewport()
	return m, tea.Batch(cmds...)
}

// handleKeys dispatches a key press. quit is true when the program should
// exit.
func (m Model) handleKeys(msg tea.KeyMsg) (Model, tea.Cmd, bool) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.Stop()
		return m, tea.Quit, true

	case key.Matches(msg, m.keys.Focus):
		m.setFocus((m.focus + 1) % focusCount)
		return m, nil, false

	case key.Matches(msg, m.keys.FocusRev):
		m.setFocus((m.focus + focusCount - 1) % focusCount)
		return m, nil, false

	case key.Matches(msg, m.keys.Refresh):
		m.statusMsg = ""
		return m, tea.Batch(m.fetchInsightsCmd(), m.fetchMetricsCmd()), false

	case key.Matches(msg, m.keys.Copy):
		m.copyAnswer()
		return m, nil, false

	case key.Matches(msg, m.keys.PageUp), key.Matches(msg, m.keys.PageDown):
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd, false
	}

	switch m.focus {
	case focusInsights:
		m, cmd := m.handleInsightKeys(msg)
		return m, cmd, false
	case focusMetrics:
		switch {
		case key.Matches(msg, m.keys.Up):
			m.viewport.LineUp(1)
		case key.Matches(msg, m.keys.Down):
			m.viewport.LineDown(1)
		}
		return m, nil, false
	}

	if key.Matches(msg, m.keys.Submit) {
		m, cmd := m.Submit()
		return m, cmd, false
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd, false
}

func (m Model) handleInsightKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	visible := view.VisibleInsights(m.insights)
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.selected > 0 {
			m.selected--
		}
	case key.Matches(msg, m.keys.Down):
		if m.selected < len(visible)-1 {
			m.selected++
		}
	case key.Matches(msg, m.keys.Resolve):
		if m.selected < len(visible) {
			in := visible[m.selected]
			m.statusMsg = fmt.Sprintf("Resolving %q…", in.Title)
			m.statusIsError = false
			return m, m.resolveCmd(in)
		}
	}
	return m, nil
}

// Submit sends the current query text as-is. A submit while a query is
// pending is ignored, so at most one request is ever in flight.
func (m Model) Submit() (Model, tea.Cmd) {
	if m.pending {
		return m, nil
	}
	m.pending = true
	m.syncViewport()
	return m, tea.Batch(m.askCmd(m.input.Value()), m.spinner.Tick)
}

func (m *Model) setFocus(f focus) {
	m.focus = f
	if f == focusQuery {
		m.input.Focus()
	} else {
		m.input.Blur()
	}
}

func (m *Model) clampSelection() {
	n := len(view.VisibleInsights(m.insights))
	if m.selected >= n {
		m.selected = n - 1
	}
	if m.selected < 0 {
		m.selected = 0
	}
}

// reloadConfig applies the date layout from the config file. A broken file
// leaves the current settings in place.
func (m *Model) reloadConfig() {
	if m.opts.ConfigPath == "" {
		return
	}
	cfg, err := config.LoadFrom(m.opts.ConfigPath)
	if err != nil {
		debug.Errorf("reload config: %v", err)
		m.statusMsg = "Config not reloaded (see log)"
		m.statusIsError = true
		return
	}
	m.opts.DateLayout = cfg.UI.DateLayout
	m.statusMsg = "Reloaded config"
	m.statusIsError = false
}

func (m *Model) copyAnswer() {
	if m.answer == "" {
		m.statusMsg = "No answer to copy"
		m.statusIsError = true
		return
	}
	if err := clipboard.WriteAll(m.answer); err != nil {
		debug.Errorf("copy answer: %v", err)
		m.statusMsg = "Clipboard unavailable"
		m.statusIsError = true
		return
	}
	m.statusMsg = "Copied answer to clipboard"
	m.statusIsError = false
}

func (m *Model) resize(width, height int) {
	m.width, m.height = width, height
	m.viewport.Width = width
	m.viewport.Height = m.bodyHeight()
	m.input.Width = width - 32
	if m.input.Width < 10 {
		m.input.Width = 10
	}
	m.md.SetWidth(width - 8)
	m.renderAnswer()
}

// bodyHeight is the viewport height between the header and the footer.
func (m Model) bodyHeight() int {
	h := m.height - 2
	if h < 1 {
		h = 1
	}
	return h
}

func (m *Model) renderAnswer() {
	if m.answer == "" {
		m.answerView = ""
		return
	}
	m.answerView = m.md.Render(m.answer)
}

func (m *Model) syncViewport() {
	m.viewport.SetContent(m.renderBody())
}

// Accessors, mainly for tests and the robot surface.

// Insights returns the current insight collection.
func (m Model) Insights() []model.Insight { return m.insights }

// Metrics returns the current metric collection.
func (m Model) Metrics() []model.Metric { return m.metrics }

// Answer returns the displayed answer.
func (m Model) Answer() string { return m.answer }

// Pending reports whether a query is in flight.
func (m Model) Pending() bool { return m.pending }

// Query returns the text in the query box.
func (m Model) Query() string { return m.input.Value() }

// SetQuery replaces the text in the query box.
func (m Model) SetQuery(q string) Model {
	m.input.SetValue(q)
	m.syncViewport()
	return m
}

// StatusMessage returns the transient status line and whether it is an error.
func (m Model) StatusMessage() (string, bool) { return m.statusMsg, m.statusIsError }
