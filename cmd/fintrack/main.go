// Command fintrack records a week of daily income and expenses and reports on it.
package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/term"

	"fintrack/internal/config"
	"fintrack/internal/logging"
	"fintrack/internal/services/storage"
	"fintrack/internal/services/tracker"
	"fintrack/internal/services/transfer"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

const usageText = `Usage: fintrack [-data dir] [-backend file|sqlite|memory] <command> [arguments]

Commands:
  week                          show the current week
  income <day> <amount>         add income to a day (0-6, Monday, mon, ...)
  expense <day> <amount>        add an expense to a day
  extras                        list extra expenses
  extra add <reason> <amount>   add to an extra expense
  extra rm <reason>             remove an extra expense
  report                        weekly summary and comparison with the last archived week
  archive                       copy the current week into the history
  end-week                      archive, print the final report and clear the week
  clear                         clear the week and extras, keeping history and settings
  reset -y                      delete all data
  history [-n N]                list archived weeks
  export [-o file]              write all data to a JSON file ("-" for stdout)
  import <file>                 load a JSON export ("-" for stdin)
  settings [-currency s] [-theme light|dark] [-week-start 0-6]
                                show or change settings
  info                          storage usage and save state
  encrypt                       encrypt the data directory with a passphrase
  decrypt                       remove encryption from the data directory
  version                       print version information
`

var knownCommands = map[string]bool{
	"week": true, "income": true, "expense": true, "extras": true, "extra": true,
	"report": true, "archive": true, "end-week": true, "clear": true, "reset": true,
	"history": true, "export": true, "import": true, "settings": true, "info": true,
	"encrypt": true, "decrypt": true,
}

// usageError marks a command-line mistake; it exits with status 2
type usageError struct {
	msg string
}

func (e *usageError) Error() string { return e.msg }

func usagef(format string, args ...any) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

type app struct {
	cfg      *config.Config
	log      *logrus.Logger
	backend  storage.Backend
	store    *storage.Store
	tracker  *tracker.Tracker
	transfer *transfer.Service

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	lines  *bufio.Reader
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cfg := config.Load()

	fs := flag.NewFlagSet("fintrack", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { fmt.Fprint(stderr, usageText) }
	fs.StringVar(&cfg.DataDirectory, "data", cfg.DataDirectory, "data directory")
	fs.StringVar(&cfg.Backend, "backend", cfg.Backend, "storage backend")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return exitUsage
	}
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "data" && os.Getenv("FINTRACK_SQLITE_PATH") == "" {
			cfg.SQLitePath = filepath.Join(cfg.DataDirectory, "fintrack.db")
		}
	})
	cfg.Backend = strings.ToLower(cfg.Backend)

	command, rest := fs.Arg(0), fs.Args()[1:]
	switch command {
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usageText)
		return exitOK
	case "version":
		return report(stderr, cmdVersion(stdout, stderr))
	}

	if !knownCommands[command] {
		return report(stderr, usagef("unknown command %q (run fintrack help)", command))
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(stderr, err)
		return exitUsage
	}

	a := &app{
		cfg:    cfg,
		log:    logging.New(cfg.LogLevel, cfg.LogFormat, stderr),
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
	}
	if cfg.Debug {
		a.log.SetReportCaller(true)
	}
	if err := a.open(command); err != nil {
		return report(stderr, err)
	}
	defer a.close()

	return report(stderr, a.dispatch(command, rest))
}

func report(stderr io.Writer, err error) int {
	if err == nil {
		return exitOK
	}
	var uerr *usageError
	if errors.As(err, &uerr) {
		fmt.Fprintf(stderr, "usage: %v\n", err)
		return exitUsage
	}
	fmt.Fprintf(stderr, "error: %v\n", err)
	return exitFailure
}

// open wires the backend, store, tracker and transfer service
func (a *app) open(command string) error {
	if err := a.cfg.EnsureDirectories(); err != nil {
		return err
	}
	backend, err := storage.OpenBackend(a.cfg.Backend, a.cfg.DataDirectory, a.cfg.SQLitePath)
	if err != nil {
		return err
	}
	a.backend = backend
	a.log.WithFields(logrus.Fields{"backend": a.cfg.Backend, "dir": a.cfg.DataDirectory}).Debug("storage opened")

	if command != "encrypt" && command != "decrypt" {
		if err := a.unlock(); err != nil {
			a.close()
			return err
		}
	}

	quota, err := a.cfg.QuotaBytes()
	if err != nil {
		a.close()
		return err
	}

	a.store = storage.New(backend, storage.WithLogger(a.log))
	a.tracker = tracker.New(a.store,
		tracker.WithLogger(a.log),
		tracker.WithUnsavedWindow(a.cfg.UnsavedWindow),
		tracker.WithQuota(quota),
	)
	a.transfer = transfer.New(a.tracker, transfer.WithLogger(a.log))
	return nil
}

func (a *app) close() {
	if c, ok := a.backend.(io.Closer); ok {
		if err := c.Close(); err != nil {
			a.log.WithError(err).Warn("closing storage")
		}
	}
}

// unlock asks for the passphrase when the data directory is encrypted
func (a *app) unlock() error {
	enc, err := storage.AsEncryptor(a.backend)
	if err != nil || !enc.IsEncrypted() || enc.IsUnlocked() {
		return nil
	}
	pass, err := a.passphrase("Passphrase: ")
	if err != nil {
		return err
	}
	return enc.Unlock(pass)
}

// passphrase returns FINTRACK_PASSPHRASE, prompts on a terminal, or reads a line from stdin
func (a *app) passphrase(prompt string) (string, error) {
	if a.cfg.Passphrase != "" {
		return a.cfg.Passphrase, nil
	}
	if a.isTerminal() {
		f := a.stdin.(*os.File)
		fmt.Fprint(a.stderr, prompt)
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(a.stderr)
		if err != nil {
			return "", fmt.Errorf("read passphrase: %w", err)
		}
		return string(b), nil
	}

	if a.lines == nil {
		a.lines = bufio.NewReader(a.stdin)
	}
	line, err := a.lines.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		return "", errors.New("passphrase required: set FINTRACK_PASSPHRASE or run in a terminal")
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (a *app) isTerminal() bool {
	f, ok := a.stdin.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (a *app) dispatch(command string, args []string) error {
	switch command {
	case "week":
		return a.cmdWeek(args)
	case "income":
		return a.cmdEntry(args, true)
	case "expense":
		return a.cmdEntry(args, false)
	case "extras":
		return a.cmdExtras(args)
	case "extra":
		return a.cmdExtra(args)
	case "report":
		return a.cmdReport(args)
	case "archive":
		return a.cmdArchive(args)
	case "end-week":
		return a.cmdEndWeek(args)
	case "clear":
		return a.cmdClear(args)
	case "reset":
		return a.cmdReset(args)
	case "history":
		return a.cmdHistory(args)
	case "export":
		return a.cmdExport(args)
	case "import":
		return a.cmdImport(args)
	case "settings":
		return a.cmdSettings(args)
	case "info":
		return a.cmdInfo(args)
	case "encrypt":
		return a.cmdEncrypt(args)
	case "decrypt":
		return a.cmdDecrypt(args)
	default:
		return usagef("unknown command %q (run fintrack help)", command)
	}
}
