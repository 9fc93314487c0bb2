package entry

import (
	"path/filepath"
	"strconv"
	"strings"
)

// Maker converts a raw producer line into a Candidate. Returning false drops
// the line.
type Maker func(line string) (Candidate, bool)

// LineMaker uses the line itself as ordinal and display. Blank lines are
// dropped.
func LineMaker(line string) (Candidate, bool) {
	line = strings.TrimRight(line, "\r")
	if strings.TrimSpace(line) == "" {
		return Candidate{}, false
	}
	return Candidate{Value: line, Ordinal: line}, true
}

// Location is the Value produced by VimgrepMaker.
type Location struct {
	Path   string
	Line   int
	Column int
	Text   string
}

// VimgrepMaker parses "path:line:col:text" lines as printed by grep-like
// tools in vimgrep mode. Lines that do not parse are dropped.
func VimgrepMaker(line string) (Candidate, bool) {
	line = strings.TrimRight(line, "\r")
	parts := strings.SplitN(line, ":", 4)
	if len(parts) < 4 || parts[0] == "" {
		return Candidate{}, false
	}
	lnum, err := strconv.Atoi(parts[1])
	if err != nil || lnum <= 0 {
		return Candidate{}, false
	}
	col, err := strconv.Atoi(parts[2])
	if err != nil || col <= 0 {
		return Candidate{}, false
	}
	loc := Location{Path: parts[0], Line: lnum, Column: col, Text: parts[3]}
	return Candidate{
		Value:   loc,
		Ordinal: loc.Path + ":" + strings.TrimSpace(loc.Text),
		Display: line,
		ID:      loc.Path + ":" + parts[1] + ":" + parts[2],
	}, true
}

// PathMaker returns a Maker for file paths. Paths under cwd are displayed
// relative to it; the ordinal is always the displayed form.
func PathMaker(cwd string) Maker {
	return func(line string) (Candidate, bool) {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			return Candidate{}, false
		}
		display := line
		if cwd != "" && filepath.IsAbs(line) {
			if rel, err := filepath.Rel(cwd, line); err == nil && !strings.HasPrefix(rel, "..") {
				display = rel
			}
		}
		abs := line
		if !filepath.IsAbs(abs) && cwd != "" {
			abs = filepath.Join(cwd, line)
		}
		return Candidate{
			Value:   abs,
			Ordinal: display,
			ID:      filepath.Clean(abs),
		}, true
	}
}

// MakerByName returns the named Maker. Supported names are "line",
// "vimgrep" and "path".
func MakerByName(name, cwd string) (Maker, bool) {
	switch name {
	case "", "line":
		return LineMaker, true
	case "vimgrep":
		return VimgrepMaker, true
	case "path":
		return PathMaker(cwd), true
	default:
		return nil, false
	}
}
