package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
)

// Update handles messages and returns the updated model and command.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.ledger.Width = max(msg.Width-4, 20)
		m.ledger.Height = max(msg.Height-10, 5)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case MsgStatusLoaded:
		m.status = msg.Status
		m.err = nil
		m.repos.SetRows(m.repoRows())
		return m, nil

	case MsgHistoryLoaded:
		m.records = msg.Records
		m.history.SetRows(m.historyRows())
		return m, nil

	case MsgLedgerLoaded:
		if strings.TrimSpace(msg.Content) == "" {
			m.ledger.SetContent("(ledger is empty)")
		} else {
			m.ledger.SetContent(highlightLedger(msg.Content))
		}
		return m, nil

	case MsgIterationDone:
		m.running = false
		m.lastOutcome = msg.Outcome
		return m, m.reload()

	case MsgError:
		m.running = false
		m.err = msg.Err
		return m, nil

	case MsgTick:
		return m, tea.Batch(m.reload(), m.tick())
	}

	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil

	case key.Matches(msg, m.keys.Ledger):
		m.showLedger = !m.showLedger
		if m.showLedger {
			m.ledger.GotoTop()
			return m, m.loadLedger()
		}
		return m, nil

	case key.Matches(msg, m.keys.Focus):
		if m.focus == FocusRepos {
			m.focus = FocusHistory
			m.repos.Blur()
			m.history.Focus()
		} else {
			m.focus = FocusRepos
			m.history.Blur()
			m.repos.Focus()
		}
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		return m, m.reload()

	case key.Matches(msg, m.keys.RunOnce):
		if m.running {
			return m, nil
		}
		m.running = true
		m.err = nil
		return m, m.runOnce()
	}

	var cmd tea.Cmd
	switch {
	case m.showLedger:
		m.ledger, cmd = m.ledger.Update(msg)
	case m.focus == FocusRepos:
		m.repos, cmd = m.repos.Update(msg)
	default:
		m.history, cmd = m.history.Update(msg)
	}
	return m, cmd
}

// reload refreshes everything currently on screen.
func (m *Model) reload() tea.Cmd {
	cmds := []tea.Cmd{m.loadStatus(), m.loadHistory()}
	if m.showLedger {
		cmds = append(cmds, m.loadLedger())
	}
	return tea.Batch(cmds...)
}

func (m *Model) repoRows() []table.Row {
	if m.status == nil {
		return nil
	}
	paused := make(map[string]time.Time, len(m.status.Paused))
	for _, p := range m.status.Paused {
		paused[p.Repo] = p.Until
	}
	rows := make([]table.Row, 0, len(m.status.Repos))
	for _, r := range m.status.Repos {
		state := "pending"
		switch until, ok := paused[r.Repo]; {
		case ok:
			state = "paused " + until.Local().Format("15:04")
		case r.Done == r.Total:
			state = "done"
		case r.Repo == m.status.LastRepo:
			state = "active"
		}
		rows = append(rows, table.Row{r.Repo, strconv.Itoa(r.Done), strconv.Itoa(r.Total), state})
	}
	return rows
}

func (m *Model) historyRows() []table.Row {
	rows := make([]table.Row, 0, len(m.records))
	for _, r := range m.records {
		rows = append(rows, table.Row{
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			strconv.Itoa(r.Batch),
			string(r.Outcome),
			r.Repo,
			fmt.Sprint(r.Successes),
			fmt.Sprint(r.Failures),
		})
	}
	return rows
}
