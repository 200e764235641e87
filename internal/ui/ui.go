package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/ytsync/internal/formatter"
	"github.com/desertthunder/ytsync/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	PlanView ViewState = iota
	ConfirmView
	SyncView
	ResultView
)

// logLines is how many recent progress messages the sync view keeps.
const logLines = 6

var (
	titleStyle = formatter.NewBold("#7D56F4")
	errorStyle = formatter.NewBold("#FF0000")
	mutedStyle = formatter.NewEm("#626262")
)

// Syncer is the part of [tasks.Engine] the TUI drives.
type Syncer interface {
	Plan(ctx context.Context, opts tasks.RunOptions) (*tasks.Plan, error)
	Run(ctx context.Context, opts tasks.RunOptions, progress chan<- tasks.ProgressUpdate) (*tasks.RunReport, error)
}

// Model represents the TUI application state.
type Model struct {
	ctx       context.Context
	engine    Syncer
	opts      tasks.RunOptions
	view      ViewState
	plan      *tasks.Plan
	progress  tasks.ProgressUpdate
	recent    []string
	report    *tasks.RunReport
	err       error
	startedAt time.Time
	spinner   spinner.Model
	bar       progress.Model
	help      help.Model
	keys      keyMap
}

// NewModel creates a TUI model that plans and then runs opts on engine.
func NewModel(ctx context.Context, engine Syncer, opts tasks.RunOptions) *Model {
	return &Model{
		ctx:     ctx,
		engine:  engine,
		opts:    opts,
		view:    PlanView,
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		help:    help.New(),
		keys:    newKeyMap(),
	}
}

// Started reports whether the user confirmed and the sync began.
func (m *Model) Started() bool { return !m.startedAt.IsZero() }

// StartedAt is when the sync began, zero if it never did.
func (m *Model) StartedAt() time.Time { return m.startedAt }

// Report is the run report, nil until the engine returns.
func (m *Model) Report() *tasks.RunReport { return m.report }

// Err is the error that stopped planning or syncing.
func (m *Model) Err() error { return m.err }

// State returns the current view.
func (m *Model) State() ViewState { return m.view }

// Init starts computing the plan.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.fetchPlan(), m.spinner.Tick)
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.bar.Width = min(max(msg.Width-8, 10), 60)
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKeys(msg)

	case spinner.TickMsg:
		if m.view != PlanView && m.view != SyncView {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case planReadyMsg:
		if msg.err != nil {
			m.err = msg.err
			m.view = ResultView
			return m, nil
		}
		m.plan = msg.plan
		m.view = ConfirmView
		return m, nil

	case progressUpdateMsg:
		m.progress = msg.update
		if m.progress.Message != "" {
			m.recent = append(m.recent, m.progress.Message)
			if len(m.recent) > logLines {
				m.recent = m.recent[len(m.recent)-logLines:]
			}
		}
		return m, waitForProgress(msg.updates)

	case syncCompleteMsg:
		m.report = msg.report
		m.err = msg.err
		m.view = ResultView
		return m, nil
	}

	return m, nil
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.quit) {
		return m, tea.Quit
	}

	switch m.view {
	case ConfirmView:
		switch {
		case key.Matches(msg, m.keys.yes):
			return m, m.startSync()
		case key.Matches(msg, m.keys.no):
			return m, tea.Quit
		}
	case ResultView:
		if msg.Type == tea.KeyEnter {
			return m, tea.Quit
		}
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case PlanView:
		return fmt.Sprintf("%s Computing changes...\n", m.spinner.View())
	case ConfirmView:
		return m.renderConfirm()
	case SyncView:
		return m.renderSync()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) fetchPlan() tea.Cmd {
	ctx, engine, opts := m.ctx, m.engine, m.opts
	return func() tea.Msg {
		plan, err := engine.Plan(ctx, opts)
		return planReadyMsg{plan: plan, err: err}
	}
}

func (m *Model) startSync() tea.Cmd {
	m.view = SyncView
	m.startedAt = time.Now().UTC()

	ctx, engine, opts := m.ctx, m.engine, m.opts
	updates := make(chan tasks.ProgressUpdate, 50)

	run := func() tea.Msg {
		report, err := engine.Run(ctx, opts, updates)
		close(updates)
		return syncCompleteMsg{report: report, err: err}
	}
	return tea.Batch(run, waitForProgress(updates), m.spinner.Tick)
}

// waitForProgress reads one update; it returns nil once the channel closes.
func waitForProgress(updates <-chan tasks.ProgressUpdate) tea.Cmd {
	return func() tea.Msg {
		update, ok := <-updates
		if !ok {
			return nil
		}
		return progressUpdateMsg{update: update, updates: updates}
	}
}

func (m *Model) renderConfirm() string {
	var b strings.Builder
	b.WriteString(formatter.FormatPlan(m.plan))
	b.WriteString("\n")
	b.WriteString(titleStyle.Render("Apply these changes?"))
	b.WriteString("\n\n")
	b.WriteString(m.help.ShortHelpView([]key.Binding{m.keys.yes, m.keys.no, m.keys.quit}))
	return b.String()
}

func (m *Model) renderSync() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Syncing"))
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "%s %s\n", m.spinner.View(), m.phaseLabel())
	if m.progress.Total > 0 {
		b.WriteString(m.bar.ViewAs(float64(m.progress.Step) / float64(m.progress.Total)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	for _, line := range m.recent {
		b.WriteString(mutedStyle.Render(line))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.help.ShortHelpView([]key.Binding{m.keys.quit}))
	return b.String()
}

func (m *Model) phaseLabel() string {
	p := m.progress
	switch p.Phase {
	case tasks.ScanLibrary:
		return "Scanning music directory..."
	case tasks.FetchSongs, tasks.FetchPlaylists, tasks.FetchMembers:
		return "Reading remote library..."
	case tasks.UploadSongs:
		return fmt.Sprintf("Uploading songs (%d/%d)", p.Step, p.Total)
	case tasks.DeleteSongs:
		return fmt.Sprintf("Deleting songs (%d/%d)", p.Step, p.Total)
	case tasks.Settle:
		return "Waiting for uploads to settle..."
	case tasks.DeletePlaylists, tasks.CreatePlaylists:
		return "Matching playlists..."
	case tasks.RemoveItems, tasks.AddItems:
		return "Updating playlist items..."
	default:
		return "Starting..."
	}
}

func (m *Model) renderResult() string {
	var b strings.Builder
	if m.report != nil {
		b.WriteString(formatter.FormatRunReport(m.report))
		b.WriteString("\n")
	}
	if m.err != nil {
		b.WriteString(errorStyle.Render(fmt.Sprintf("Sync failed: %v", m.err)))
		b.WriteString("\n\n")
	}
	b.WriteString(m.help.ShortHelpView([]key.Binding{
		key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "exit")),
		m.keys.quit,
	}))
	return b.String()
}
