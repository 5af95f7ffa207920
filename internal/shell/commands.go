package shell

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type command int

const (
	cmdUnknown command = iota
	cmdAdd
	cmdAll
	cmdChange
	cmdDelete
	cmdExit
	cmdHelp
	cmdSearch
	cmdShow
)

// serveWord starts the demo HTTP server.
const serveWord = "@"

// Every prefix of each English and Ukrainian command word, matched as a whole word.
var commandPatterns = []struct {
	cmd command
	re  *regexp.Regexp
}{
	{cmdAdd, regexp.MustCompile(`(?i)^(?:ad|add|` +
		`дод|дода|додай|додат|додати)$`)},
	{cmdAll, regexp.MustCompile(`(?i)^(?:al|all|` +
		`в|вс|вс[іе])$`)},
	{cmdChange, regexp.MustCompile(`(?i)^(?:c|ch|cha|chan|chang|change|` +
		`зм|змі|змін|зміна|зміни|змінит|змінити)$`)},
	{cmdDelete, regexp.MustCompile(`(?i)^(?:d|de|del|dele|delet|delete|` +
		`вид|вида|видал|видали|видалит|видалити)$`)},
	{cmdExit, regexp.MustCompile(`(?i)^(?:\.|e|ex|exi|exit|` +
		`q|qu|qui|quit|` +
		`b|by|bye|` +
		`вий|вий[тд]|вий[дт]и|вих|вихі|вихід)$`)},
	{cmdHelp, regexp.MustCompile(`(?i)^(?:\?|h|he|hel|help|` +
		`доп|допо|допом|допомо|допомож|допоможи|допомог|допомога)$`)},
	{cmdSearch, regexp.MustCompile(`(?i)^(?:se|se[ea]|sear|searc|search|` +
		`зн|зна|знай|знай[тд]|знай[тд]и|` +
		`пош|пошу|пошук|` +
		`ш|шу|шук|шука|шукай|шукат|шукати)$`)},
	{cmdShow, regexp.MustCompile(`(?i)^(?:sh|sho|show|` +
		`пок|пока|пока[зж]|покажи|показа|показат|показати|` +
		`ди|див|диви|дивис|дивис[яь]|дивит|дивити|дивитис|дивитис[яь])$`)},
}

func lookupCommand(word string) command {
	for _, p := range commandPatterns {
		if p.re.MatchString(word) {
			return p.cmd
		}
	}
	return cmdUnknown
}

// normalize collapses whitespace runs and trims the line.
func normalize(line string) string {
	return strings.Join(strings.Fields(line), " ")
}

// splitCommand separates the command word from its arguments.
func splitCommand(line string) (word, args string) {
	word, args, _ = strings.Cut(line, " ")
	return word, args
}

var titleCaser = cases.Title(language.Und)

// capitalize upper-cases the first letter and lower-cases the rest.
func capitalize(word string) string {
	return titleCaser.String(word)
}

// splitIndex separates a numeric suffix from a field title: "Phone2" gives
// ("Phone", 2). A missing or zero suffix addresses the first occurrence.
func splitIndex(title string) (string, int) {
	base := strings.TrimRightFunc(title, func(r rune) bool { return r >= '0' && r <= '9' })
	if base == title || base == "" {
		return title, 1
	}
	n, err := strconv.Atoi(title[len(base):])
	switch {
	case err != nil:
		n = math.MaxInt
	case n == 0:
		n = 1
	}
	return base, n
}
