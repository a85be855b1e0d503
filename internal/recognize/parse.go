package recognize

import (
	"regexp"
	"strings"
)

// Guess is a heuristic title/author split of OCR output.
type Guess struct {
	Title  string `json:"title"`
	Author string `json:"author"`
}

var authorMarker = regexp.MustCompile(`(?i)by |author:`)

// ParseCoverText derives a title and author guess from raw OCR text. The
// first non-empty line is the title. The author is the first later line
// containing "by " or "author:" (case-insensitive) with the marker removed;
// when no line carries a marker, the second line is used as a fallback.
//
// This is inherently fragile against real cover layouts, which is why it is
// a pure function tested against fixed text fixtures.
func ParseCoverText(raw string) Guess {
	var lines []string
	for _, line := range strings.Split(raw, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}

	var g Guess
	if len(lines) == 0 {
		return g
	}
	g.Title = lines[0]

	for _, line := range lines[1:] {
		lower := strings.ToLower(line)
		if strings.Contains(lower, "by ") || strings.Contains(lower, "author:") {
			g.Author = strings.TrimSpace(stripFirstMarker(line))
			break
		}
	}

	if g.Author == "" && len(lines) > 1 {
		g.Author = lines[1]
	}
	return g
}

// stripFirstMarker removes only the first marker occurrence, so a line like
// "story by told by X" keeps its remaining text intact.
func stripFirstMarker(line string) string {
	loc := authorMarker.FindStringIndex(line)
	if loc == nil {
		return line
	}
	return line[:loc[0]] + line[loc[1]:]
}
