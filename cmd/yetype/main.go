// Package main provides the CLI entrypoint for yetype.
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/yetype/yetype/internal/config"
	"github.com/yetype/yetype/internal/generator"
	"github.com/yetype/yetype/internal/historyui"
	"github.com/yetype/yetype/internal/layout"
	"github.com/yetype/yetype/internal/model"
	"github.com/yetype/yetype/internal/quotes"
	"github.com/yetype/yetype/internal/remote"
	"github.com/yetype/yetype/internal/replay"
	"github.com/yetype/yetype/internal/server"
	"github.com/yetype/yetype/internal/session"
	"github.com/yetype/yetype/internal/stats"
	"github.com/yetype/yetype/internal/store"
	"github.com/yetype/yetype/internal/tui"
	"github.com/yetype/yetype/internal/wordlist"
)

const (
	defaultLang         = "en"
	defaultTrendWindow  = 5
	defaultServerAddr   = "127.0.0.1:8080"
	defaultReplayWidth  = 80
	quotePreviewRunes   = 60
	replayLineClear     = "\r\033[K"
	defaultConfigHeader = "# yetype configuration"
)

var (
	practiceMode      string
	practiceTimeLimit int
	practiceWordLimit int
	practiceWordsFile string
	practiceLang      string

	historyModes  string
	historyLast   int
	historyWindow int
	historyPlain  bool
	historyRemote bool

	replayPlain bool

	serveAddr  string
	serveToken string
	serveDB    string
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	defaults := model.DefaultTestConfig()
	rootCmd := &cobra.Command{
		Use:           "yetype",
		Short:         "Terminal typing test",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runPracticeCmd,
	}

	rootCmd.Flags().StringVar(&practiceMode, "mode", string(defaults.Mode), "test mode: timed, words or quote")
	rootCmd.Flags().IntVar(&practiceTimeLimit, "time-limit", defaults.TimeLimit, "seconds for timed tests (15, 60 or 120)")
	rootCmd.Flags().IntVar(&practiceWordLimit, "word-limit", defaults.WordLimit, "words for word tests (10, 40 or 200)")
	rootCmd.Flags().StringVar(&practiceWordsFile, "words-file", "", "word pool file, one word per line (default: built-in list)")
	rootCmd.Flags().StringVar(&practiceLang, "lang", defaultLang, "language filter applied to --words-file")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newReplayCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newQuotesCmd())

	return rootCmd
}

func runPracticeCmd(cmd *cobra.Command, _ []string) error {
	configPath := config.DefaultConfigPath()
	fileCfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	testCfg, err := practiceConfig(cmd, fileCfg)
	if err != nil {
		return err
	}
	applyStringConfig(cmd, "words-file", &practiceWordsFile, fileCfg.Test.WordsFile)
	applyStringConfig(cmd, "lang", &practiceLang, fileCfg.Test.Lang)

	pool, err := wordPool(practiceWordsFile, practiceLang)
	if err != nil {
		return err
	}
	catalog, err := quotes.Builtin()
	if err != nil {
		return fmt.Errorf("failed to load quotes: %w", err)
	}

	st, err := openStore(config.DefaultDBPath())
	if err != nil {
		return err
	}
	defer closeStore(st)

	logger, closeLog, err := openLogger(config.DefaultLogPath())
	if err != nil {
		return err
	}
	defer closeLog()

	m, err := tui.NewModel(tui.Options{
		Config:     testCfg,
		ConfigPath: configPath,
		Source:     generator.Source{Gen: generator.New(), Pool: pool, Quotes: catalog.All()},
		Store:      st,
		Remote:     remoteClient(fileCfg),
		Logger:     logger,
	})
	if err != nil {
		return fmt.Errorf("failed to start test: %w", err)
	}
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

// practiceConfig merges flags over the [test] section. Flags win when set.
func practiceConfig(cmd *cobra.Command, fileCfg config.FileConfig) (model.TestConfig, error) {
	cfg, err := fileCfg.TestConfig()
	if err != nil {
		return model.TestConfig{}, err
	}
	if cmd.Flags().Changed("mode") {
		mode, err := model.ParseMode(practiceMode)
		if err != nil {
			return model.TestConfig{}, fmt.Errorf("--mode: %w", err)
		}
		cfg.Mode = mode
	}
	if cmd.Flags().Changed("time-limit") {
		cfg.TimeLimit = practiceTimeLimit
	}
	if cmd.Flags().Changed("word-limit") {
		cfg.WordLimit = practiceWordLimit
	}
	if err := cfg.Validate(); err != nil {
		return model.TestConfig{}, err
	}
	return cfg, nil
}

func remoteClient(fileCfg config.FileConfig) *remote.Client {
	if fileCfg.Sync.URL == nil || fileCfg.Sync.Token == nil {
		return nil
	}
	return remote.NewClient(*fileCfg.Sync.URL, *fileCfg.Sync.Token)
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o600); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Browse past tests",
		Args:  cobra.NoArgs,
		RunE:  runHistoryCmd,
	}
	cmd.Flags().StringVar(&historyModes, "modes", "", "filters, e.g. \"timed:60, words, quote\" (default: all)")
	cmd.Flags().IntVar(&historyLast, "last", 0, "limit to last N tests")
	cmd.Flags().IntVar(&historyWindow, "window", defaultTrendWindow, "moving average window of the WPM trend")
	cmd.Flags().BoolVar(&historyPlain, "plain", false, "print a table instead of opening the browser")
	cmd.Flags().BoolVar(&historyRemote, "remote", false, "list tests stored on the sync server")
	return cmd
}

func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	filters, err := stats.ParseFilters(historyModes)
	if err != nil {
		return fmt.Errorf("invalid --modes value: %w", err)
	}
	if historyLast < 0 {
		return fmt.Errorf("--last must be >= 0")
	}
	if historyWindow < 1 {
		return fmt.Errorf("--window must be >= 1")
	}

	var lister stats.Lister
	if historyRemote {
		fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
		if err != nil {
			return err
		}
		client := remoteClient(fileCfg)
		if !client.Enabled() {
			return fmt.Errorf("--remote needs [sync] url and token in %s", config.DefaultConfigPath())
		}
		lister = client
	} else {
		st, err := openStore(config.DefaultDBPath())
		if err != nil {
			return err
		}
		defer closeStore(st)
		lister = st
	}

	if historyPlain {
		report, err := stats.BuildReport(cmd.Context(), lister, filters, historyLast)
		if err != nil {
			return fmt.Errorf("failed to load tests: %w", err)
		}
		out := cmd.OutOrStdout()
		if err := stats.RenderSummary(out, report.Tests, historyWindow); err != nil {
			return err
		}
		if report.Skipped > 0 {
			logErrf("skipped %d tests with a corrupt replay log\n", report.Skipped)
		}
		return stats.RenderHistory(out, report.Tests)
	}

	browser := historyui.NewModel(lister, historyui.Config{Filters: filters, Last: historyLast, Window: historyWindow})
	if _, err := tea.NewProgram(browser, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("failed to run history TUI: %w", err)
	}
	selected, ok := browser.Selected()
	if !ok {
		return nil
	}
	return runReplayTUI(selected)
}

func newReplayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay <id>",
		Short: "Play back a past test",
		Args:  cobra.ExactArgs(1),
		RunE:  runReplayCmd,
	}
	cmd.Flags().BoolVar(&replayPlain, "plain", false, "print the typed text as it was typed instead of opening the TUI")
	return cmd
}

func runReplayCmd(cmd *cobra.Command, args []string) error {
	id, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid test id: %w", err)
	}
	st, err := openStore(config.DefaultDBPath())
	if err != nil {
		return err
	}
	r, err := st.GetTest(cmd.Context(), id)
	closeStore(st)
	if err != nil {
		return fmt.Errorf("failed to load test %s: %w", id, err)
	}
	if !replayPlain {
		return runReplayTUI(r)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()
	return playPlain(ctx, cmd.OutOrStdout(), r, terminalWidth())
}

// runReplayTUI opens r in time travel inside the typing UI.
func runReplayTUI(r model.Result) error {
	catalog, err := quotes.Builtin()
	if err != nil {
		return fmt.Errorf("failed to load quotes: %w", err)
	}
	target, err := session.TargetFromResult(r, catalog)
	if err != nil {
		return fmt.Errorf("failed to rebuild test words: %w", err)
	}
	configPath := config.DefaultConfigPath()
	fileCfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	testCfg, err := fileCfg.TestConfig()
	if err != nil {
		return err
	}
	pool, err := fileWordPool(fileCfg)
	if err != nil {
		return err
	}
	st, err := openStore(config.DefaultDBPath())
	if err != nil {
		return err
	}
	defer closeStore(st)
	logger, closeLog, err := openLogger(config.DefaultLogPath())
	if err != nil {
		return err
	}
	defer closeLog()

	m, err := tui.NewReplayModel(tui.Options{
		Config:     testCfg,
		ConfigPath: configPath,
		Source:     generator.Source{Gen: generator.New(), Pool: pool, Quotes: catalog.All()},
		Store:      st,
		Remote:     remoteClient(fileCfg),
		Logger:     logger,
	}, r, target)
	if err != nil {
		return fmt.Errorf("failed to open replay: %w", err)
	}
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

// playPlain writes the replayed text line by line, redrawing the line being
// typed in place.
func playPlain(ctx context.Context, w io.Writer, r model.Result, width int) error {
	catalog, err := quotes.Builtin()
	if err != nil {
		return fmt.Errorf("failed to load quotes: %w", err)
	}
	target, err := session.TargetFromResult(r, catalog)
	if err != nil {
		return fmt.Errorf("failed to rebuild test words: %w", err)
	}
	wrap := layout.Wrap{Width: width}
	printed := 0
	var writeErr error
	onFrame := func(f replay.Frame) {
		tokens := session.SplitWords(f.Text)
		lines := wrap.Lines(tokens, 0, len(tokens))
		if len(lines) == 0 {
			return
		}
		for printed < len(lines)-1 {
			if _, err := fmt.Fprintf(w, "%s%s\n", replayLineClear, strings.Join(lines[printed], " ")); err != nil {
				writeErr = err
			}
			printed++
		}
		if _, err := fmt.Fprintf(w, "%s%s", replayLineClear, strings.Join(lines[len(lines)-1], " ")); err != nil {
			writeErr = err
		}
	}
	clock := session.SystemClock()
	player := replay.NewPlayer(target.Words, r.Log)
	if err := replay.Run(ctx, player, clock, clock.Now(), replay.Options{}, onFrame); err != nil {
		return err
	}
	if writeErr != nil {
		return writeErr
	}
	_, err = fmt.Fprintf(w, "\n%s  %d wpm  %s\n", stats.ModeLabel(r), r.Score.WPM(), stats.FormatAccuracy(r.Score.Accuracy()))
	return err
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return defaultReplayWidth
	}
	return width
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the results server",
		Args:  cobra.NoArgs,
		RunE:  runServeCmd,
	}
	cmd.Flags().StringVar(&serveAddr, "addr", defaultServerAddr, "listen address")
	cmd.Flags().StringVar(&serveToken, "token", "", "bearer token required by clients (default: no auth)")
	cmd.Flags().StringVar(&serveDB, "db", "", "database path (default: data dir)")
	return cmd
}

func runServeCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "addr", &serveAddr, fileCfg.Server.Addr)
	applyStringConfig(cmd, "token", &serveToken, fileCfg.Server.Token)
	if serveDB == "" {
		serveDB = config.DefaultDBPath()
	}

	catalog, err := quotes.Builtin()
	if err != nil {
		return fmt.Errorf("failed to load quotes: %w", err)
	}
	st, err := openStore(serveDB)
	if err != nil {
		return err
	}
	defer closeStore(st)

	logger := log.New(os.Stderr, "yetype ", log.LstdFlags)
	if serveToken == "" {
		logger.Println("no token configured; authentication disabled")
	}
	srv := &server.Server{Store: st, Quotes: catalog, Token: serveToken, Logger: logger}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	logger.Printf("listening on %s", serveAddr)
	return srv.ListenAndServe(ctx, serveAddr)
}

func newQuotesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "quotes",
		Short: "List built-in quotes",
		Args:  cobra.NoArgs,
		RunE:  runQuotesCmd,
	}
}

func runQuotesCmd(cmd *cobra.Command, _ []string) error {
	catalog, err := quotes.Builtin()
	if err != nil {
		return fmt.Errorf("failed to load quotes: %w", err)
	}
	for _, q := range catalog.All() {
		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", q.ID, preview(q.Text, quotePreviewRunes)); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func preview(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}

func openStore(path string) (*store.Store, error) {
	st, err := store.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	return st, nil
}

func closeStore(st *store.Store) {
	if err := st.Close(); err != nil {
		logErrf("failed to close db: %v\n", err)
	}
}

// openLogger appends to the log file at path. The TUI owns the terminal, so
// nothing is logged to stderr while it runs.
func openLogger(path string) (*log.Logger, func(), error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log: %w", err)
	}
	closeLog := func() {
		if err := f.Close(); err != nil {
			logErrf("failed to close log: %v\n", err)
		}
	}
	return log.New(f, "", log.LstdFlags), closeLog, nil
}

// wordPool returns the words random tests draw from: the file at path when
// set, the built-in common words otherwise.
func wordPool(path, lang string) ([]string, error) {
	if path == "" {
		return wordlist.Common(), nil
	}
	pool, err := wordlist.LoadWords(path, lang)
	if err != nil {
		return nil, fmt.Errorf("failed to load word list: %w", err)
	}
	return pool, nil
}

// fileWordPool is wordPool configured from the [test] section alone.
func fileWordPool(fileCfg config.FileConfig) ([]string, error) {
	path, lang := "", defaultLang
	if fileCfg.Test.WordsFile != nil {
		path = *fileCfg.Test.WordsFile
	}
	if fileCfg.Test.Lang != nil {
		lang = *fileCfg.Test.Lang
	}
	return wordPool(path, lang)
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	defaults := model.DefaultTestConfig()
	return fmt.Sprintf(`%s
# Uncomment a value to enable it. CLI flags override config values.
# Mode and limits are rewritten when changed from the test screen.

[test]
# mode = %q           # timed, words or quote
# time-limit = %d          # 15, 60 or 120
# word-limit = %d          # 10, 40 or 200
# words-file = ""          # One word per line (default: built-in list)
# lang = %q              # Language filter for words-file

[sync]
# url = "http://127.0.0.1:8080"
# token = ""

[server]
# addr = %q
# token = ""
`,
		defaultConfigHeader,
		defaults.Mode,
		defaults.TimeLimit,
		defaults.WordLimit,
		defaultLang,
		defaultServerAddr,
	)
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
