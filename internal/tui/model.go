// Package tui provides the ledgerloop dashboard.
package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/runoshun/ledgerloop/internal/domain"
	"github.com/runoshun/ledgerloop/internal/usecase"
)

// Focus selects the table receiving navigation keys.
type Focus int

// Focus targets.
const (
	FocusRepos Focus = iota
	FocusHistory
)

// Model is the dashboard model.
// Fields are ordered to minimize memory padding.
type Model struct {
	// Dependencies
	source Source

	// Loaded data
	status  *usecase.ShowStatusOutput
	records []domain.IterationRecord
	err     error

	// UI components
	keys    KeyMap
	styles  Styles
	help    help.Model
	repos   table.Model
	history table.Model
	ledger  viewport.Model

	lastOutcome domain.IterationOutcome
	refresh     time.Duration

	// Numeric state (smaller types last)
	focus      Focus
	width      int
	height     int
	running    bool
	showLedger bool
}

// New creates a dashboard reading from source and refreshing every refresh interval.
func New(source Source, refresh time.Duration) *Model {
	repos := table.New(
		table.WithColumns([]table.Column{
			{Title: "Repository", Width: 24},
			{Title: "Done", Width: 6},
			{Title: "Total", Width: 6},
			{Title: "State", Width: 16},
		}),
		table.WithFocused(true),
		table.WithHeight(8),
		table.WithStyles(tableStyles()),
	)
	history := table.New(
		table.WithColumns([]table.Column{
			{Title: "Started", Width: 19},
			{Title: "Batch", Width: 6},
			{Title: "Outcome", Width: 12},
			{Title: "Repo", Width: 18},
			{Title: "OK", Width: 4},
			{Title: "Fail", Width: 4},
		}),
		table.WithHeight(10),
		table.WithStyles(tableStyles()),
	)

	return &Model{
		source:  source,
		keys:    DefaultKeyMap(),
		styles:  DefaultStyles(),
		help:    help.New(),
		repos:   repos,
		history: history,
		ledger:  viewport.New(80, 20),
		refresh: refresh,
		focus:   FocusRepos,
	}
}

// Init initializes the model and returns the initial command.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.loadStatus(), m.loadHistory(), m.tick())
}

// loadStatus returns a command that loads the status snapshot.
func (m *Model) loadStatus() tea.Cmd {
	return func() tea.Msg {
		out, err := m.source.Status(context.Background())
		if err != nil {
			return MsgError{Err: err}
		}
		return MsgStatusLoaded{Status: out}
	}
}

// loadHistory returns a command that loads recent iterations.
func (m *Model) loadHistory() tea.Cmd {
	return func() tea.Msg {
		records, err := m.source.History(context.Background())
		if err != nil {
			return MsgError{Err: err}
		}
		return MsgHistoryLoaded{Records: records}
	}
}

// loadLedger returns a command that reads the ledger for the preview.
func (m *Model) loadLedger() tea.Cmd {
	return func() tea.Msg {
		content, err := m.source.Ledger(context.Background())
		if err != nil {
			return MsgError{Err: err}
		}
		return MsgLedgerLoaded{Content: content}
	}
}

// runOnce returns a command that runs a single iteration.
func (m *Model) runOnce() tea.Cmd {
	return func() tea.Msg {
		outcome, err := m.source.RunOnce(context.Background())
		if err != nil {
			return MsgError{Err: err}
		}
		return MsgIterationDone{Outcome: outcome}
	}
}

func (m *Model) tick() tea.Cmd {
	if m.refresh <= 0 {
		return nil
	}
	return tea.Tick(m.refresh, func(time.Time) tea.Msg {
		return MsgTick{}
	})
}

// Status returns the last loaded status snapshot.
func (m *Model) Status() *usecase.ShowStatusOutput {
	return m.status
}

// Running reports whether an iteration started from the dashboard is in progress.
func (m *Model) Running() bool {
	return m.running
}

// Focused returns the table receiving navigation keys.
func (m *Model) Focused() Focus {
	return m.focus
}

// ShowingLedger reports whether the ledger preview replaces the tables.
func (m *Model) ShowingLedger() bool {
	return m.showLedger
}
