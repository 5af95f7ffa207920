// Package shell implements the interactive command loop.
//
// The prompt shows the size of the book, of MATCH-SET and of MATCH-SUBSET,
// followed by '@' when there are unsaved changes and 'C' otherwise:
//
//	(12(3(1((@>
package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/tartampluch/notabene/internal/book"
	"github.com/tartampluch/notabene/internal/config"
	"github.com/tartampluch/notabene/internal/session"
	"golang.org/x/term"
)

const (
	flagModified = "@"
	flagClean    = "C"
)

type lineResult struct {
	line string
	err  error
}

// Shell is the interactive front end of a session.
type Shell struct {
	Session *session.Session
	Tr      *Translator
	Out     io.Writer

	// PageLines returns the page height for show and search output.
	PageLines func() int

	// Save persists the book. It runs on exit when the book is modified.
	Save func() error

	// Serve runs the demo HTTP server until it is told to stop.
	Serve    func(ctx context.Context) error
	ServeURL string

	// Interrupts delivers Ctrl+C presses.
	Interrupts <-chan os.Signal

	in       io.Reader
	lines    <-chan lineResult
	eof      bool
	errColor *color.Color
}

// New creates a shell reading commands from in and writing to out.
func New(sess *session.Session, tr *Translator, in io.Reader, out io.Writer) *Shell {
	errColor := color.New(color.FgRed)
	if f, ok := out.(*os.File); !ok || !term.IsTerminal(int(f.Fd())) {
		errColor.DisableColor()
	}
	return &Shell{
		Session:  sess,
		Tr:       tr,
		Out:      out,
		in:       in,
		errColor: errColor,
	}
}

// Run executes commands until exit, a double interrupt or end of input.
// Leaving by interrupt does not save.
func (sh *Shell) Run(ctx context.Context) error {
	done := make(chan struct{})
	defer close(done)
	sh.lines = readLines(sh.in, done)

	sh.println(sh.Tr.Msg(config.TKeyHint))

	for {
		line, ok := sh.prompt(ctx)
		if !ok {
			return ctx.Err()
		}

		line = normalize(line)
		if line == "" {
			continue
		}
		if line == serveWord {
			sh.serve(ctx)
			continue
		}

		word, args := splitCommand(line)
		cmd := lookupCommand(word)
		slog.Debug(config.MsgCommand,
			config.LogKeyComponent, config.CompShell,
			config.LogKeyCommand, word)

		if cmd == cmdExit {
			if err := sh.save(); err != nil {
				sh.report(err)
				continue
			}
			return nil
		}
		if err := sh.dispatch(ctx, cmd, args); err != nil {
			sh.report(err)
		}
	}
}

func readLines(r io.Reader, done <-chan struct{}) <-chan lineResult {
	ch := make(chan lineResult)
	go func() {
		defer close(ch)
		br := bufio.NewReader(r)
		for {
			line, err := br.ReadString('\n')
			select {
			case ch <- lineResult{line: line, err: err}:
			case <-done:
				return
			}
			if err != nil {
				return
			}
		}
	}()
	return ch
}

// prompt asks for a command line. An interrupt with unsaved changes only
// warns; a second one gives up.
func (sh *Shell) prompt(ctx context.Context) (string, bool) {
	for attempt := 0; attempt < 2; attempt++ {
		total, set, subset := sh.Session.Counts()
		flag := flagClean
		if sh.Session.Book.IsModified() {
			flag = flagModified
		}
		fmt.Fprintf(sh.Out, "(%d(%d(%d((%s> ", total, set, subset, flag)

		if line, ok := sh.readLine(ctx); ok {
			return line, true
		}
		sh.println("")
		if attempt == 0 && sh.Session.Book.IsModified() && ctx.Err() == nil {
			sh.println(sh.Tr.Msg(config.TKeyModifiedWarn))
			continue
		}
		break
	}
	return "", false
}

// readLine returns false on interrupt, end of input or cancellation.
func (sh *Shell) readLine(ctx context.Context) (string, bool) {
	if sh.eof {
		return "", false
	}
	select {
	case r, open := <-sh.lines:
		if !open {
			sh.eof = true
			return "", false
		}
		if r.err != nil {
			sh.eof = true
			if !errors.Is(r.err, io.EOF) {
				slog.Warn(config.ErrReadInput,
					config.LogKeyComponent, config.CompShell,
					config.LogKeyError, r.err)
			}
			if r.line == "" {
				return "", false
			}
		}
		return strings.TrimRight(r.line, "\r\n"), true
	case <-sh.Interrupts:
		slog.Debug(config.MsgInterrupted, config.LogKeyComponent, config.CompShell)
		return "", false
	case <-ctx.Done():
		return "", false
	}
}

func (sh *Shell) dispatch(ctx context.Context, cmd command, args string) error {
	switch cmd {
	case cmdAdd:
		return sh.add(args)
	case cmdAll:
		sh.Session.All()
	case cmdChange:
		return sh.change(args)
	case cmdDelete:
		sh.delete(args)
	case cmdHelp:
		sh.println(sh.Tr.Msg(config.TKeyHelp))
	case cmdSearch:
		if err := sh.Session.Search(args); err != nil {
			return err
		}
		sh.page(ctx, sh.Session.SubsetBlocks())
	case cmdShow:
		if args == "" {
			sh.page(ctx, sh.Session.SubsetBlocks())
			break
		}
		if report := sh.Session.Show(args); report != "" {
			sh.page(ctx, strings.Split(report, "\n\n"))
		}
	default:
		sh.println(sh.Tr.Msg(config.TKeyUnknownCmd))
	}
	return nil
}

// fieldArg resolves the first word of args to a field kind. With indexed set,
// a numeric suffix selects the occurrence. words holds the remaining words,
// or all of them when the first is not a field title. An explicit "name"
// title is dropped.
func fieldArg(args string, indexed bool) (kind book.Kind, isField bool, n int, words []string) {
	words = strings.Split(args, " ")
	title, n := capitalize(words[0]), 1
	if indexed {
		title, n = splitIndex(title)
	}
	if kind, ok := book.LookupKind(title); ok {
		return kind, true, n, words[1:]
	}
	if title == config.TitleName {
		words = words[1:]
	}
	return kind, false, n, words
}

func (sh *Shell) add(args string) error {
	if args == "" {
		sh.println(sh.Tr.Msg(config.TKeyArgRequired))
		return nil
	}
	kind, isField, _, words := fieldArg(args, false)
	if isField {
		return sh.Session.AddField(kind.Title(), strings.Join(words, " "))
	}
	_, err := sh.Session.AddRecord(strings.Join(words, " "))
	return err
}

func (sh *Shell) change(args string) error {
	kind, isField, n, words := fieldArg(args, true)
	if isField {
		return sh.Session.ChangeField(kind.Title(), n, strings.Join(words, " "))
	}
	_, err := sh.Session.Rename(strings.Join(words, " "))
	return err
}

func (sh *Shell) delete(args string) {
	kind, isField, n, words := fieldArg(args, true)
	if isField {
		sh.Session.DeleteField(kind.Title(), n, strings.Join(words, " "))
		return
	}
	if len(words) > 0 && words[0] == "" {
		words = words[1:]
	}
	if len(words) == 0 {
		sh.Session.DeleteRecords()
		return
	}
	sh.Session.DeleteSimilar(strings.Join(words, " "))
}

// page prints blocks a page at a time, asking before each following page.
func (sh *Shell) page(ctx context.Context, blocks []string) {
	height := config.FallbackLines - config.PageLinesReserve
	if sh.PageLines != nil {
		height = sh.PageLines()
	}

	pages := paginate(blocks, height)
	for i, p := range pages {
		sh.println(p)
		if i == len(pages)-1 {
			return
		}
		fmt.Fprint(sh.Out, sh.Tr.Msg(config.TKeyNextPage))
		ans, ok := sh.readLine(ctx)
		if !ok {
			sh.println("")
			return
		}
		ans = strings.ToLower(strings.TrimSpace(ans))
		if ans != "" && !strings.HasPrefix(ans, "y") {
			return
		}
	}
}

// serve runs the demo HTTP server; Ctrl+C stops it and returns to the prompt.
func (sh *Shell) serve(ctx context.Context) {
	if sh.Serve == nil {
		sh.println(sh.Tr.Msg(config.TKeyUnknownCmd))
		return
	}

	sctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-sh.Interrupts:
			cancel()
		case <-sctx.Done():
		}
	}()

	sh.println(sh.Tr.Msgf(config.TKeyServerURL, map[string]any{"URL": sh.ServeURL}))
	if err := sh.Serve(sctx); err != nil {
		sh.report(err)
	}
	sh.println(sh.Tr.Msg(config.TKeyServerStopped))
}

func (sh *Shell) save() error {
	if sh.Save == nil || !sh.Session.Book.IsModified() {
		return nil
	}
	if err := sh.Save(); err != nil {
		return err
	}
	sh.Session.Book.MarkSaved()
	return nil
}

// report prints a command failure on one line.
func (sh *Shell) report(err error) {
	msg := err.Error()
	var be *book.Error
	if errors.As(err, &be) {
		msg = sh.Tr.Msgf(config.TKeyErrorFormat, map[string]any{"Scope": be.Scope, "Reason": be.Reason})
	}
	slog.Debug(config.MsgCommandFailed,
		config.LogKeyComponent, config.CompShell,
		config.LogKeyError, err)
	_, _ = sh.errColor.Fprintln(sh.Out, msg)
}

func (sh *Shell) println(s string) {
	fmt.Fprintln(sh.Out, s)
}
