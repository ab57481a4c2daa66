package ai

import (
	"regexp"
	"strings"
)

// listItemPrefix matches numbered ("1.", "2)") and bulleted ("-", "*")
// list markers at the start of a line.
var listItemPrefix = regexp.MustCompile(`^\s*(?:\d+[.)]|[-*])\s+`)

// ParseCandidates extracts up to max candidate thoughts from a model reply.
// Numbered or bulleted list items are preferred; if the reply contains no
// list markers, blank-line-separated blocks are used instead. Empty items
// are dropped.
func ParseCandidates(reply string, max int) []string {
	if max <= 0 {
		return nil
	}

	var items []string
	var current strings.Builder
	sawMarker := false

	flush := func() {
		text := strings.TrimSpace(current.String())
		current.Reset()
		if text != "" {
			items = append(items, text)
		}
	}

	for _, line := range strings.Split(reply, "\n") {
		if listItemPrefix.MatchString(line) {
			flush()
			sawMarker = true
			current.WriteString(listItemPrefix.ReplaceAllString(line, ""))
			continue
		}
		// Continuation lines belong to the open item.
		if current.Len() > 0 && strings.TrimSpace(line) != "" {
			current.WriteString(" ")
			current.WriteString(strings.TrimSpace(line))
		}
	}
	flush()

	if !sawMarker {
		items = splitBlocks(reply)
	}

	if len(items) > max {
		items = items[:max]
	}
	return items
}

// splitBlocks splits text into blank-line-separated blocks.
func splitBlocks(text string) []string {
	var blocks []string
	for _, block := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n\n") {
		block = strings.TrimSpace(block)
		if block != "" {
			blocks = append(blocks, block)
		}
	}
	return blocks
}

// CleanTitle normalizes a generated title: first line only, surrounding
// quotes and whitespace stripped.
func CleanTitle(raw string) string {
	title := strings.TrimSpace(raw)
	if i := strings.IndexByte(title, '\n'); i >= 0 {
		title = strings.TrimSpace(title[:i])
	}
	title = strings.Trim(title, `"'`)
	return strings.TrimSpace(title)
}
