package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// View renders the dashboard.
func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(m.styles.Header.Render("ledgerloop"))
	b.WriteString("\n\n")
	b.WriteString(m.viewSummary())
	b.WriteString("\n\n")

	if m.showLedger {
		b.WriteString(m.styles.PanelFocused.Render(m.ledger.View()))
	} else {
		reposPanel, historyPanel := m.styles.Panel, m.styles.Panel
		if m.focus == FocusRepos {
			reposPanel = m.styles.PanelFocused
		} else {
			historyPanel = m.styles.PanelFocused
		}
		b.WriteString(lipgloss.JoinVertical(lipgloss.Left,
			reposPanel.Render(m.repos.View()),
			historyPanel.Render(m.history.View()),
		))
	}
	b.WriteString("\n")

	switch {
	case m.running:
		b.WriteString(m.styles.Footer.Render("running iteration..."))
		b.WriteString("\n")
	case m.err != nil:
		b.WriteString(m.styles.Error.Render("error: " + m.err.Error()))
		b.WriteString("\n")
	case m.lastOutcome != "":
		b.WriteString(m.styles.Footer.Render("last iteration: "))
		b.WriteString(OutcomeStyle(m.lastOutcome).Render(string(m.lastOutcome)))
		b.WriteString("\n")
	}

	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m *Model) viewSummary() string {
	s := m.status
	if s == nil {
		return m.styles.Label.Render("loading...")
	}
	field := func(label string, value any) string {
		return m.styles.Label.Render(label+" ") + m.styles.Value.Render(fmt.Sprint(value))
	}
	return strings.Join([]string{
		field("ledger", fmt.Sprintf("%s %d/%d", s.LedgerPath, s.Done, s.Total)),
		field("batches", s.BatchCounter),
		field("size", s.ActiveBatch),
		field("publish", fmt.Sprintf("%d/%d", s.SuccessModulo, s.PublishEvery)),
		field("branch", orDash(s.LastBranch)),
	}, "   ")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
