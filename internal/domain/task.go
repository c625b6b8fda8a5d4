// Package domain contains core business entities and interfaces.
package domain

import (
	"crypto/sha1" //nolint:gosec // identity fingerprint, not a security boundary
	"encoding/hex"
	"sort"
	"strings"
)

// TaskItem is one checklist entry of the ledger.
// Fields are ordered to minimize memory padding.
type TaskItem struct {
	Repo      string `json:"repo"`      // Repository identifier (first token of the heading)
	Heading   string `json:"heading"`   // Section heading text
	Title     string `json:"title"`     // Trimmed checklist title
	Hash      string `json:"hash"`      // Identity hash of heading + title
	Line      int    `json:"-"`         // Physical line index, only meaningful to the ledger writer
	Completed bool   `json:"completed"` // Checkbox state
}

// RepoTaskList is a contiguous ledger section: one heading and its checklist.
type RepoTaskList struct {
	Heading string
	Repo    string
	Tasks   []TaskItem
}

// Pending returns the uncompleted tasks of the section in ledger order.
func (s RepoTaskList) Pending() []TaskItem {
	var pending []TaskItem
	for _, t := range s.Tasks {
		if !t.Completed {
			pending = append(pending, t)
		}
	}
	return pending
}

// TaskFile is a parsed ledger.
// Lines keeps the raw line buffer so rewrites can leave every other byte untouched.
type TaskFile struct {
	Sections []RepoTaskList
	Lines    []string
}

// TaskBatchItem pairs a task with its submission order inside a batch.
type TaskBatchItem struct {
	Task  TaskItem
	Order int
}

// TaskUpdate is a desired completion flag for the task with the given hash.
type TaskUpdate struct {
	Hash      string
	Completed bool
}

// TaskHash returns the identity hash of a task.
// The title is trimmed so whitespace-only edits keep the identity.
func TaskHash(heading, title string) string {
	h := sha1.New() //nolint:gosec // identity fingerprint
	h.Write([]byte(heading))
	h.Write([]byte("|"))
	h.Write([]byte(strings.TrimSpace(title)))
	return hex.EncodeToString(h.Sum(nil))
}

// RepoFromHeading returns the repository identifier of a heading:
// its first whitespace-delimited token.
func RepoFromHeading(heading string) string {
	fields := strings.Fields(heading)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// SortBatch orders batch items by submission order.
func SortBatch(items []TaskBatchItem) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Order < items[j].Order
	})
}

// NewBatch assigns zero-based submission orders to tasks.
func NewBatch(tasks []TaskItem) []TaskBatchItem {
	items := make([]TaskBatchItem, len(tasks))
	for i, t := range tasks {
		items[i] = TaskBatchItem{Task: t, Order: i}
	}
	return items
}

// IsEmpty reports whether the ledger has no sections.
func (f *TaskFile) IsEmpty() bool {
	return f == nil || len(f.Sections) == 0
}

// FindNextTasks returns the pending tasks of the first section that still has work.
// Sections of preferredRepo are evaluated first; the relative order of the rest is kept.
// Sections whose repository is in skip are ignored.
func (f *TaskFile) FindNextTasks(preferredRepo string, skip map[string]bool) []TaskItem {
	if f == nil {
		return nil
	}
	for _, section := range rotate(f.Sections, preferredRepo) {
		if skip[section.Repo] {
			continue
		}
		if pending := section.Pending(); len(pending) > 0 {
			return pending
		}
	}
	return nil
}

// rotate moves the sections of preferred to the front without sorting the rest.
func rotate(sections []RepoTaskList, preferred string) []RepoTaskList {
	if preferred == "" {
		return sections
	}
	ordered := make([]RepoTaskList, 0, len(sections))
	for _, s := range sections {
		if s.Repo == preferred {
			ordered = append(ordered, s)
		}
	}
	for _, s := range sections {
		if s.Repo != preferred {
			ordered = append(ordered, s)
		}
	}
	return ordered
}

// RepoSections returns every section belonging to repo, in ledger order.
func (f *TaskFile) RepoSections(repo string) []RepoTaskList {
	if f == nil {
		return nil
	}
	var out []RepoTaskList
	for _, s := range f.Sections {
		if s.Repo == repo {
			out = append(out, s)
		}
	}
	return out
}

// HasRepo reports whether any section belongs to repo.
func (f *TaskFile) HasRepo(repo string) bool {
	return len(f.RepoSections(repo)) > 0
}

// Repos returns the distinct repositories in order of their latest definition, newest first.
func (f *TaskFile) Repos() []string {
	if f == nil {
		return nil
	}
	seen := make(map[string]bool)
	var repos []string
	for i := len(f.Sections) - 1; i >= 0; i-- {
		repo := f.Sections[i].Repo
		if seen[repo] {
			continue
		}
		seen[repo] = true
		repos = append(repos, repo)
	}
	return repos
}

// Counts returns completed and total task counts for the whole ledger.
func (f *TaskFile) Counts() (done, total int) {
	if f == nil {
		return 0, 0
	}
	for _, s := range f.Sections {
		for _, t := range s.Tasks {
			total++
			if t.Completed {
				done++
			}
		}
	}
	return done, total
}
