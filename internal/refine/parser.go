package refine

import (
	"regexp"
	"strings"

	"github.com/pathforge/api/internal/model"
)

const maxHeadingLen = 48

var (
	fencedBlock = regexp.MustCompile("(?s)```([A-Za-z0-9_+-]*)[^\n]*\n(.*?)```")
	heading     = regexp.MustCompile(`(?i)^\s*(?:#{1,6}\s*)?\**\s*(karel|krl|kuka|rapid|abb|fanuc)\b[\w\s()/-]*?\**\s*:?\s*$`)
)

// Sections is the result of parsing a free-text model reply
type Sections struct {
	// Labeled holds program text per dialect, from labeled fences or headings
	Labeled map[model.Dialect]string
	// Unlabeled holds fenced blocks with no recognizable language tag
	Unlabeled []string
}

// For returns the section for a dialect. A reply with a single unlabeled block
// and no labeled sections is taken as the requested program.
func (s Sections) For(d model.Dialect) (string, bool) {
	if text, ok := s.Labeled[d]; ok {
		return text, true
	}
	if len(s.Labeled) == 0 && len(s.Unlabeled) == 1 {
		return s.Unlabeled[0], true
	}
	return "", false
}

// ParseSections extracts dialect-labeled program sections from a reply. Fenced
// code blocks take precedence over headings; the first section per dialect wins.
func ParseSections(reply string) Sections {
	out := Sections{Labeled: make(map[model.Dialect]string)}

	for _, m := range fencedBlock.FindAllStringSubmatch(reply, -1) {
		body := strings.TrimSpace(m[2])
		if body == "" {
			continue
		}
		d, ok := model.ParseDialect(m[1])
		if !ok {
			out.Unlabeled = append(out.Unlabeled, body+"\n")
			continue
		}
		if _, seen := out.Labeled[d]; !seen {
			out.Labeled[d] = body + "\n"
		}
	}
	if len(out.Labeled) > 0 || len(out.Unlabeled) > 0 {
		return out
	}

	for d, body := range headingSections(reply) {
		out.Labeled[d] = body
	}
	return out
}

func headingSections(reply string) map[model.Dialect]string {
	sections := make(map[model.Dialect]string)
	var (
		current model.Dialect
		buf     []string
	)
	flush := func() {
		if current == "" {
			return
		}
		body := strings.TrimSpace(strings.Join(buf, "\n"))
		if _, seen := sections[current]; !seen && body != "" {
			sections[current] = body + "\n"
		}
	}

	for _, line := range strings.Split(reply, "\n") {
		if m := heading.FindStringSubmatch(line); m != nil && len(strings.TrimSpace(line)) <= maxHeadingLen {
			flush()
			current, _ = model.ParseDialect(m[1])
			buf = buf[:0]
			continue
		}
		if current != "" {
			buf = append(buf, line)
		}
	}
	flush()
	return sections
}
