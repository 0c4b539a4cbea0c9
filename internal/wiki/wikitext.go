// internal/wiki/wikitext.go
package wiki

import "strings"

// ParseWikitext converts raw wikitext into the paragraph/span shape the
// client renders. It keeps headings and [[internal links]] and treats
// everything else as plain text; templates and markup it does not understand
// pass through untouched.
func ParseWikitext(text string) []Paragraph {
	var paragraphs []Paragraph
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if level, title, ok := parseHeading(line); ok {
			paragraphs = append(paragraphs, Paragraph{
				Level: level,
				Spans: []Span{{Text: title}},
			})
			continue
		}
		spans := parseSpans(line)
		if len(spans) > 0 {
			paragraphs = append(paragraphs, Paragraph{Level: 0, Spans: spans})
		}
	}
	return paragraphs
}

// parseHeading recognizes "== Title ==" style lines. The number of equals
// signs is the heading level.
func parseHeading(line string) (int, string, bool) {
	if !strings.HasPrefix(line, "==") || !strings.HasSuffix(line, "==") {
		return 0, "", false
	}
	level := 0
	for level < len(line) && line[level] == '=' {
		level++
	}
	trimmed := strings.Trim(line, "=")
	title := strings.TrimSpace(trimmed)
	if title == "" {
		return 0, "", false
	}
	return level, title, true
}

// parseSpans splits a body line into text and link spans. Links look like
// [[Target]] or [[Target|label]].
func parseSpans(line string) []Span {
	var spans []Span
	rest := line
	for {
		open := strings.Index(rest, "[[")
		if open < 0 {
			break
		}
		close := strings.Index(rest[open:], "]]")
		if close < 0 {
			break
		}
		close += open

		if before := rest[:open]; before != "" {
			spans = append(spans, Span{Text: before})
		}

		inner := rest[open+2 : close]
		target, label := inner, inner
		if idx := strings.Index(inner, "|"); idx >= 0 {
			target = inner[:idx]
			label = inner[idx+1:]
		}
		// Skip file/category pseudo-links; render them as nothing.
		if !strings.Contains(target, ":") && target != "" {
			spans = append(spans, Span{Text: label, Link: target})
		}

		rest = rest[close+2:]
	}
	if rest != "" {
		spans = append(spans, Span{Text: rest})
	}
	return spans
}
