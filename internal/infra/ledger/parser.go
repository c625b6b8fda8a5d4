// Package ledger reads and rewrites the markdown task ledger.
//
// The ledger is a flat list of sections, each opened by a `# <repo> [V<n>]` heading
// and followed by `- [ ]` / `- [x]` checklist lines. Everything else is prose that is
// carried through rewrites byte for byte.
package ledger

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/runoshun/ledgerloop/internal/domain"
)

var (
	headingRegex = regexp.MustCompile(`^#\s+(.*)$`)
	taskRegex    = regexp.MustCompile(`^- \[( |x|X)\] (.*)$`)
	versionRegex = regexp.MustCompile(`(?i)\sV(\d+)$`)
)

// Offset of the checkbox marker in a checklist line ("- [" is three bytes).
const markerOffset = 3

// Patch replaces one physical line of the ledger.
type Patch struct {
	Content string
	Line    int
}

// Parse turns ledger text into sections. Text without headings yields an empty TaskFile.
func Parse(source string) *domain.TaskFile {
	file := &domain.TaskFile{Lines: splitLines(source)}

	var current *domain.RepoTaskList
	flush := func() {
		if current != nil {
			file.Sections = append(file.Sections, *current)
		}
	}

	for i, raw := range file.Lines {
		line := strings.TrimSuffix(raw, "\r")
		if m := headingRegex.FindStringSubmatch(line); m != nil {
			flush()
			heading := strings.TrimSpace(m[1])
			current = &domain.RepoTaskList{
				Heading: heading,
				Repo:    domain.RepoFromHeading(heading),
			}
			continue
		}
		if current == nil {
			continue
		}
		if m := taskRegex.FindStringSubmatch(line); m != nil {
			title := strings.TrimSpace(m[2])
			current.Tasks = append(current.Tasks, domain.TaskItem{
				Repo:      current.Repo,
				Heading:   current.Heading,
				Title:     title,
				Hash:      domain.TaskHash(current.Heading, title),
				Line:      i,
				Completed: m[1] != " ",
			})
		}
	}
	flush()

	return file
}

// ApplyPatches returns a copy of lines with the patches applied.
// Patches pointing outside the buffer are ignored.
func ApplyPatches(lines []string, patches []Patch) []string {
	out := make([]string, len(lines))
	copy(out, lines)
	for _, p := range patches {
		if p.Line < 0 || p.Line >= len(out) {
			continue
		}
		out[p.Line] = p.Content
	}
	return out
}

// Render joins lines back into ledger text ending with exactly one newline.
func Render(lines []string) string {
	text := strings.Join(lines, "\n")
	if len(lines) == 0 || lines[len(lines)-1] != "" {
		text += "\n"
	}
	return text
}

// CompletionPatches computes the checkbox rewrites needed to apply updates to file.
// Hashes missing from the file are ignored, as are tasks already in the desired state.
func CompletionPatches(file *domain.TaskFile, updates []domain.TaskUpdate) []Patch {
	if len(updates) == 0 {
		return nil
	}
	desired := make(map[string]bool, len(updates))
	for _, u := range updates {
		desired[u.Hash] = u.Completed
	}

	var patches []Patch
	for _, section := range file.Sections {
		for _, task := range section.Tasks {
			want, ok := desired[task.Hash]
			if !ok || want == task.Completed {
				continue
			}
			patches = append(patches, Patch{
				Line:    task.Line,
				Content: setMarker(file.Lines[task.Line], want),
			})
		}
	}
	return patches
}

// RewriteCompletion applies completion updates to ledger text.
// Only the checkbox marker of matching lines changes; an empty update list returns source unchanged.
func RewriteCompletion(source string, updates []domain.TaskUpdate) string {
	file := Parse(source)
	patches := CompletionPatches(file, updates)
	if len(patches) == 0 {
		return source
	}
	return Render(ApplyPatches(file.Lines, patches))
}

// AppendSection appends a new section for repo with one unchecked line per title.
// It returns the new text and the heading used. Empty titles leave source unchanged.
func AppendSection(source, repo string, titles []string) (string, string) {
	if len(titles) == 0 {
		return source, ""
	}

	file := Parse(source)
	heading := NextHeading(file, repo)

	lines := file.Lines
	if source == "" {
		lines = nil
	} else if last := lines[len(lines)-1]; strings.TrimSpace(last) != "" {
		lines = append(lines, "")
	}
	lines = append(lines, "# "+heading)
	for _, title := range titles {
		lines = append(lines, "- [ ] "+strings.TrimSpace(title))
	}

	return Render(lines), heading
}

// NextHeading returns the heading for the next section of repo.
// The highest version found is incremented, treating unversioned headings as
// version 1, so a repository without sections starts at V2.
func NextHeading(file *domain.TaskFile, repo string) string {
	version := 1
	for _, s := range file.RepoSections(repo) {
		version = max(version, headingVersion(s.Heading))
	}
	return fmt.Sprintf("%s V%d", repo, version+1)
}

func headingVersion(heading string) int {
	m := versionRegex.FindStringSubmatch(heading)
	if m == nil {
		return 1
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 1
	}
	return n
}

func setMarker(line string, completed bool) string {
	mark := " "
	if completed {
		mark = "x"
	}
	return line[:markerOffset] + mark + line[markerOffset+1:]
}

func splitLines(source string) []string {
	return strings.Split(source, "\n")
}
