package shell

import (
	"math"
	"os"
	"strings"

	"github.com/tartampluch/notabene/internal/config"
	"golang.org/x/term"
)

// paginate groups report blocks into pages of at most height lines. Blocks are
// separated by an empty line. A block taller than a page gets a page of its own.
func paginate(blocks []string, height int) []string {
	var pages []string
	var page []string
	used := 0

	for _, b := range blocks {
		n := strings.Count(b, "\n") + 1
		if len(page) > 0 {
			n++
		}
		if len(page) == 0 || used+n <= height {
			page = append(page, b)
			used += n
			continue
		}
		pages = append(pages, strings.Join(page, "\n\n"))
		page = []string{b}
		used = n - 1
	}
	if len(page) > 0 {
		pages = append(pages, strings.Join(page, "\n\n"))
	}
	return pages
}

// TerminalLines returns the page height for f: fixed when lines is positive,
// otherwise the terminal height minus the prompt lines. Output that is not a
// terminal is not paginated.
func TerminalLines(f *os.File, lines int) func() int {
	return func() int {
		if lines > 0 {
			return lines
		}
		fd := int(f.Fd())
		if !term.IsTerminal(fd) {
			return math.MaxInt
		}
		_, rows, err := term.GetSize(fd)
		if err != nil || rows <= config.PageLinesReserve {
			rows = config.FallbackLines
		}
		return rows - config.PageLinesReserve
	}
}
