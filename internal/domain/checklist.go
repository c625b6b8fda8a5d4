package domain

import (
	"regexp"
	"strings"
)

var pendingChecklistRegex = regexp.MustCompile(`^- \[ \] ?(.*)$`)

// ParseChecklist extracts the titles of unchecked checklist lines from a free-form answer.
// Lines are trimmed first, so indented checklists are accepted.
func ParseChecklist(response string) []string {
	var titles []string
	for _, line := range splitLines(response) {
		m := pendingChecklistRegex.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		if title := strings.TrimSpace(m[1]); title != "" {
			titles = append(titles, title)
		}
	}
	return titles
}

// DedupeTitles removes case-insensitive duplicates, keeping the first spelling.
func DedupeTitles(titles []string) []string {
	seen := make(map[string]bool, len(titles))
	var out []string
	for _, t := range titles {
		key := strings.ToLower(strings.TrimSpace(t))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, t)
	}
	return out
}

// CapTitles splits titles into the first limit accepted items and the overflow.
func CapTitles(titles []string, limit int) (accepted, overflow []string) {
	if limit <= 0 || len(titles) <= limit {
		return titles, nil
	}
	return titles[:limit], titles[limit:]
}

// TaskContext renders a repository's task history for the replenishment prompt.
func TaskContext(sections []RepoTaskList) string {
	var b strings.Builder
	for _, s := range sections {
		for _, t := range s.Tasks {
			if b.Len() > 0 {
				b.WriteByte('\n')
			}
			if t.Completed {
				b.WriteString("✓ ")
			} else {
				b.WriteString("• ")
			}
			b.WriteString(t.Title)
		}
	}
	return b.String()
}

// splitLines splits text on \n, dropping a trailing \r from each line.
func splitLines(s string) []string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}
