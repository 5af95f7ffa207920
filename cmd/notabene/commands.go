package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/tartampluch/notabene/internal/book"
	"github.com/tartampluch/notabene/internal/calendar"
	"github.com/tartampluch/notabene/internal/config"
	"github.com/tartampluch/notabene/internal/server"
	"github.com/tartampluch/notabene/internal/session"
	"github.com/tartampluch/notabene/internal/shell"
	"github.com/tartampluch/notabene/internal/storage"
)

// app carries what every command needs once flags are parsed.
type app struct {
	configPath string
	dataFile   string
	port       string
	lang       string
	debug      bool

	// clock defaults to the wall clock.
	clock book.Clock

	settings  *config.Settings
	tr        *shell.Translator
	logCloser io.Closer
}

func (a *app) close() {
	if a.logCloser != nil {
		_ = a.logCloser.Close()
	}
}

func (a *app) timeSource() book.Clock {
	if a.clock == nil {
		return book.RealClock{}
	}
	return a.clock
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:               config.CommandName,
		Short:             config.CmdShortRoot,
		Args:              cobra.NoArgs,
		SilenceUsage:      true,
		PersistentPreRunE: a.prepare,
		RunE:              a.runShell,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, config.FlagConfig, "", config.FlagDescConfig)
	pf.StringVar(&a.dataFile, config.FlagFile, "", config.FlagDescFile)
	pf.StringVar(&a.port, config.FlagPort, "", config.FlagDescPort)
	pf.StringVar(&a.lang, config.FlagLang, "", config.FlagDescLang)
	pf.BoolVar(&a.debug, config.FlagDebug, false, config.FlagDescDebug)

	root.AddCommand(
		newServeCmd(a),
		newExportCmd(a),
		newImportCmd(a),
		newBirthdaysCmd(a),
		newVersionCmd(),
	)
	return root
}

// prepare resolves settings, applies flag overrides and starts logging.
func (a *app) prepare(cmd *cobra.Command, _ []string) error {
	s, err := config.LoadSettings(a.configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed(config.FlagFile) {
		s.DataFile = a.dataFile
	}
	if flags.Changed(config.FlagPort) {
		s.Port = a.port
	}
	if flags.Changed(config.FlagLang) {
		s.Language = a.lang
	}
	if flags.Changed(config.FlagDebug) {
		s.Debug = a.debug
	}
	a.settings = s

	a.logCloser = setupLogging(s.Debug)
	logStartupInfo()
	slog.Debug(config.MsgSettings,
		config.LogKeyComponent, config.CompSettings,
		config.LogKeyFile, s.DataFile,
		config.LogKeyPort, s.Port,
		config.LogKeyLang, s.Language,
	)

	a.tr = shell.NewTranslator(s.Language)
	return nil
}

func (a *app) loadBook() (*book.AddressBook, error) {
	entries, err := storage.LoadJSON(a.settings.DataFile)
	if err != nil {
		return nil, err
	}
	ab, err := book.Load(a.timeSource(), entries)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrBookDecode, err)
	}
	return ab, nil
}

func (a *app) saveBook(ab *book.AddressBook) error {
	return storage.SaveJSON(a.settings.DataFile, ab.Entries())
}

func (a *app) generator() *calendar.Generator {
	return &calendar.Generator{
		Clock:           a.timeSource(),
		FormatSummary:   a.tr.SummaryFormatter(),
		ReminderTrigger: a.settings.Reminder,
	}
}

// serve publishes the current birthday feed and runs srv until it stops.
func (a *app) serve(ctx context.Context, srv *server.Server, entries []book.Entry) error {
	data, _, _, err := a.generator().Generate(ctx, entries)
	if err != nil {
		return err
	}
	srv.Update(data)
	return srv.Start(ctx)
}

func (a *app) runShell(cmd *cobra.Command, _ []string) error {
	ab, err := a.loadBook()
	if err != nil {
		return err
	}
	sess := session.New(ab)

	interrupts := make(chan os.Signal, config.ChannelBufferSize)
	signal.Notify(interrupts, os.Interrupt)
	defer signal.Stop(interrupts)

	sh := shell.New(sess, a.tr, os.Stdin, os.Stdout)
	sh.PageLines = shell.TerminalLines(os.Stdout, a.settings.PageLines)
	sh.Interrupts = interrupts
	sh.Save = func() error { return a.saveBook(ab) }
	sh.ServeURL = server.New(a.settings.Port, nil).URL()
	sh.Serve = func(ctx context.Context) error {
		return a.serve(ctx, server.New(a.settings.Port, sess), ab.Entries())
	}

	if err := sh.Run(cmd.Context()); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   config.CmdUseServe,
		Short: config.CmdShortServe,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			ab, err := a.loadBook()
			if err != nil {
				return err
			}
			sess := session.New(ab)
			sess.All()

			srv := server.New(a.settings.Port, sess)
			fmt.Fprintln(cmd.OutOrStdout(), a.tr.Msgf(config.TKeyServerURL, map[string]any{"URL": srv.URL()}))
			return a.serve(ctx, srv, ab.Entries())
		},
	}
}

func newExportCmd(a *app) *cobra.Command {
	var format, output string

	cmd := &cobra.Command{
		Use:   config.CmdUseExport,
		Short: config.CmdShortExport,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ab, err := a.loadBook()
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if output != "" {
				f, err := os.OpenFile(output, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, config.FilePermUserRW)
				if err != nil {
					return fmt.Errorf("%s: %w", config.ErrExportWrite, err)
				}
				defer func() { _ = f.Close() }()
				w = f
			}
			return a.export(cmd.Context(), w, format, ab.Entries())
		},
	}

	cmd.Flags().StringVar(&format, config.FlagFormat, config.ExportFormatJSON, config.FlagDescFormat)
	cmd.Flags().StringVarP(&output, config.FlagOutput, "o", "", config.FlagDescOutput)
	return cmd
}

func (a *app) export(ctx context.Context, w io.Writer, format string, entries []book.Entry) error {
	var data []byte
	switch format {
	case config.ExportFormatJSON:
		encoded, err := storage.EncodeJSON(entries)
		if err != nil {
			return err
		}
		data = append(encoded, '\n')
	case config.ExportFormatVCF:
		return storage.ExportVCard(w, entries)
	case config.ExportFormatICS:
		ics, _, _, err := a.generator().Generate(ctx, entries)
		if err != nil {
			return err
		}
		data = ics
	default:
		return fmt.Errorf("%s: %s", config.ErrUnknownFormat, format)
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("%s: %w", config.ErrExportWrite, err)
	}
	return nil
}

func newImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   config.CmdUseImport,
		Short: config.CmdShortImport,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			ab, err := a.loadBook()
			if err != nil {
				return err
			}

			imported, err := importCards(ctx, ab, storage.NewHTTPFetcher(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, a.tr.Msgf(config.TKeyImported, map[string]any{"Count": imported}))
			if imported == 0 {
				return nil
			}

			if err := a.saveBook(ab); err != nil {
				return err
			}
			fmt.Fprintln(out, a.tr.Msgf(config.TKeySaved, map[string]any{"Count": ab.Len(), "File": a.settings.DataFile}))
			return nil
		},
	}
}

// importCards merges the vCards found at src into ab. A contact replaces the
// record stored under the same name.
func importCards(ctx context.Context, ab *book.AddressBook, fetcher storage.VCardFetcher, src string) (int, error) {
	rc, err := storage.OpenSource(ctx, fetcher, src)
	if err != nil {
		return 0, err
	}
	defer func() { _ = rc.Close() }()

	entries, err := storage.ImportVCard(rc)
	if err != nil {
		return 0, err
	}

	imported := 0
	for _, e := range entries {
		if _, err := ab.SetFromPairs(e.Name, e.Pairs); err != nil {
			slog.Warn(config.MsgSkippedEntry,
				config.LogKeyComponent, config.CompStorage,
				config.LogKeyName, e.Name,
				config.LogKeyError, err,
			)
			continue
		}
		imported++
	}
	return imported, nil
}

func newBirthdaysCmd(a *app) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   config.CmdUseBdays,
		Short: config.CmdShortBdays,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ab, err := a.loadBook()
			if err != nil {
				return err
			}
			_, contacts, today, err := a.generator().Generate(cmd.Context(), ab.Entries())
			if err != nil {
				return err
			}
			a.listBirthdays(cmd.OutOrStdout(), contacts, today, days)
			return nil
		},
	}

	cmd.Flags().IntVar(&days, config.FlagDays, 0, config.FlagDescDays)
	return cmd
}

// listBirthdays prints contacts in the order given, stopping past the window
// of days when it is positive.
func (a *app) listBirthdays(w io.Writer, contacts []calendar.Contact, today, days int) {
	for _, c := range contacts {
		if days > 0 && c.DaysLeft > days {
			break
		}
		fmt.Fprintln(w, a.tr.Msgf(config.TKeyUpcoming, map[string]any{
			"Date": c.NextOccurrence.Format(config.BirthdayLayout),
			"Name": c.Name,
			"Age":  c.AgeNext,
			"Days": c.DaysLeft,
		}))
	}
	fmt.Fprintln(w, a.tr.Msgf(config.TKeyBdaysToday, map[string]any{"Count": today}))
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   config.CmdUseVersion,
		Short: config.CmdShortVersion,
		Args:  cobra.NoArgs,
		// Printing the version needs neither settings nor logging.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, _ []string) {
			printVersion(cmd.OutOrStdout())
		},
	}
}
