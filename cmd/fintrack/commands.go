package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"fintrack/internal/models"
	"fintrack/internal/render"
	"fintrack/internal/services/storage"
	"fintrack/internal/services/transfer"
	"fintrack/internal/version"
)

func cmdVersion(stdout, stderr io.Writer) error {
	info := version.Get()
	fmt.Fprintln(stdout, info.String())
	if w := info.Warning(); w != "" {
		fmt.Fprintln(stderr, w)
	}
	return nil
}

// newFlags returns a flag set whose errors are reported as usage errors
func (a *app) newFlags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	return fs
}

func parseFlags(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return usagef("%s: %v", fs.Name(), err)
	}
	return nil
}

func noArgs(name string, args []string) error {
	if len(args) > 0 {
		return usagef("%s takes no arguments", name)
	}
	return nil
}

func parseAmount(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", models.ErrInvalidAmount, s)
	}
	return v, nil
}

// renderer builds a renderer honoring the stored currency and theme
func (a *app) renderer() (*render.Renderer, error) {
	settings, err := a.tracker.Settings()
	if err != nil {
		return nil, err
	}
	return render.New(a.stdout, settings), nil
}

func (a *app) cmdWeek(args []string) error {
	if err := noArgs("week", args); err != nil {
		return err
	}
	week, err := a.tracker.Week()
	if err != nil {
		return err
	}
	r, err := a.renderer()
	if err != nil {
		return err
	}
	r.Week(week)
	return nil
}

func (a *app) cmdEntry(args []string, income bool) error {
	kind := "expense"
	if income {
		kind = "income"
	}
	if len(args) != 2 {
		return usagef("%s <day> <amount>", kind)
	}
	day, err := models.ParseDay(args[0])
	if err != nil {
		return err
	}
	amount, err := parseAmount(args[1])
	if err != nil {
		return err
	}

	var total float64
	if income {
		total, err = a.tracker.AddIncome(day, amount)
	} else {
		total, err = a.tracker.AddExpense(day, amount)
	}
	if err != nil {
		return err
	}

	r, err := a.renderer()
	if err != nil {
		return err
	}
	r.Message("Added %s %s on %s (day total %s)", r.Money(amount), kind, day, r.Money(total))
	return nil
}

func (a *app) cmdExtras(args []string) error {
	if err := noArgs("extras", args); err != nil {
		return err
	}
	extras, err := a.tracker.Extras()
	if err != nil {
		return err
	}
	r, err := a.renderer()
	if err != nil {
		return err
	}
	r.Extras(extras)
	return nil
}

func (a *app) cmdExtra(args []string) error {
	if len(args) == 0 {
		return usagef("extra add <reason> <amount> | extra rm <reason>")
	}
	switch args[0] {
	case "add":
		// the last argument is the amount; everything before it is the reason
		if len(args) < 3 {
			return usagef("extra add <reason> <amount>")
		}
		reason := strings.Join(args[1:len(args)-1], " ")
		amount, err := parseAmount(args[len(args)-1])
		if err != nil {
			return err
		}
		total, err := a.tracker.AddExtra(reason, amount)
		if err != nil {
			return err
		}
		r, err := a.renderer()
		if err != nil {
			return err
		}
		r.Message("Extra %q is now %s", strings.TrimSpace(reason), r.Money(total))
		return nil

	case "rm", "remove", "delete":
		if len(args) < 2 {
			return usagef("extra rm <reason>")
		}
		reason := strings.Join(args[1:], " ")
		removed, err := a.tracker.DeleteExtra(reason)
		if err != nil {
			return err
		}
		if removed {
			fmt.Fprintf(a.stdout, "Removed extra %q\n", strings.TrimSpace(reason))
			return nil
		}
		extras, err := a.tracker.Extras()
		if err != nil {
			return err
		}
		if suggestion, ok := extras.Suggest(reason); ok {
			fmt.Fprintf(a.stdout, "No extra named %q. Did you mean %q?\n", reason, suggestion)
		} else {
			fmt.Fprintf(a.stdout, "No extra named %q\n", reason)
		}
		return nil

	default:
		return usagef("unknown extra subcommand %q", args[0])
	}
}

func (a *app) cmdReport(args []string) error {
	fs := a.newFlags("report")
	asJSON := fs.Bool("json", false, "print the summary as JSON")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	cmp, err := a.tracker.Comparison()
	if err != nil {
		return err
	}
	if *asJSON {
		return writeJSON(a.stdout, cmp)
	}

	r, err := a.renderer()
	if err != nil {
		return err
	}
	r.Summary(cmp.Current, cmp)
	return nil
}

func (a *app) cmdArchive(args []string) error {
	if err := noArgs("archive", args); err != nil {
		return err
	}
	if err := a.warnIfEmpty(); err != nil {
		return err
	}
	if _, err := a.tracker.ArchiveWeek(); err != nil {
		return err
	}
	history, err := a.tracker.History()
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "Week archived (%d of %d weeks kept)\n", len(history), models.MaxHistoryWeeks)
	return nil
}

// warnIfEmpty notes on stderr that the week about to be archived has no entries
func (a *app) warnIfEmpty() error {
	week, err := a.tracker.Week()
	if err != nil {
		return err
	}
	if week.IsEmpty() {
		fmt.Fprintln(a.stderr, "warning: the current week has no income or expenses")
	}
	return nil
}

func (a *app) cmdEndWeek(args []string) error {
	if err := noArgs("end-week", args); err != nil {
		return err
	}
	if err := a.warnIfEmpty(); err != nil {
		return err
	}
	summary, err := a.tracker.EndWeek()
	if err != nil {
		return err
	}
	r, err := a.renderer()
	if err != nil {
		return err
	}
	r.Summary(summary, nil)
	r.Message("")
	r.Message("Week archived and cleared")
	return nil
}

func (a *app) cmdClear(args []string) error {
	if err := noArgs("clear", args); err != nil {
		return err
	}
	if err := a.tracker.Clear(); err != nil {
		return err
	}
	fmt.Fprintln(a.stdout, "Week and extras cleared; history and settings kept")
	return nil
}

func (a *app) cmdReset(args []string) error {
	fs := a.newFlags("reset")
	yes := fs.Bool("y", false, "confirm deleting all data")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if !*yes {
		return usagef("reset deletes all data including history; rerun with -y")
	}
	if err := a.tracker.Reset(); err != nil {
		return err
	}
	fmt.Fprintln(a.stdout, "All data deleted")
	return nil
}

func (a *app) cmdHistory(args []string) error {
	fs := a.newFlags("history")
	limit := fs.Int("n", 0, "show at most N weeks")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if *limit < 0 {
		return usagef("history: -n must not be negative")
	}
	history, err := a.tracker.History()
	if err != nil {
		return err
	}
	r, err := a.renderer()
	if err != nil {
		return err
	}
	r.History(history, *limit)
	return nil
}

func (a *app) cmdExport(args []string) error {
	fs := a.newFlags("export")
	out := fs.String("o", "", `output file, "-" for stdout (default financial-data-<date>.json)`)
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	data, err := a.transfer.Export()
	if err != nil {
		return err
	}
	if *out == "-" {
		_, err := a.stdout.Write(append(data, '\n'))
		return err
	}

	path := *out
	if path == "" {
		path = transfer.Filename(a.tracker.Now())
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o600); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	fmt.Fprintf(a.stdout, "Exported to %s\n", path)
	return nil
}

func (a *app) cmdImport(args []string) error {
	if len(args) != 1 {
		return usagef("import <file>")
	}

	var (
		data []byte
		err  error
	)
	if args[0] == "-" {
		data, err = io.ReadAll(a.stdin)
	} else {
		data, err = os.ReadFile(args[0])
	}
	if err != nil {
		return fmt.Errorf("read import: %w", err)
	}

	sections, err := a.transfer.Import(data)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "Imported sections: %s\n", sections)
	return nil
}

func (a *app) cmdSettings(args []string) error {
	current, err := a.tracker.Settings()
	if err != nil {
		return err
	}

	fs := a.newFlags("settings")
	currency := fs.String("currency", current.Currency, "currency symbol")
	theme := fs.String("theme", string(current.Theme), "light or dark")
	weekStart := fs.Int("week-start", current.WeekStartDay, "week start day, 0 = Sunday")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return usagef("settings takes only flags")
	}

	changed := false
	fs.Visit(func(*flag.Flag) { changed = true })
	if changed {
		next := models.Settings{Currency: *currency, Theme: models.Theme(strings.ToLower(*theme)), WeekStartDay: *weekStart}
		if err := a.tracker.SaveSettings(next); err != nil {
			return err
		}
		current = next
		fmt.Fprintln(a.stdout, "Settings saved")
	}

	fmt.Fprintf(a.stdout, "currency:   %s\ntheme:      %s\nweek start: %d\n", current.Currency, current.Theme, current.WeekStartDay)
	return nil
}

func (a *app) cmdInfo(args []string) error {
	fs := a.newFlags("info")
	asJSON := fs.Bool("json", false, "print usage as JSON")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	usage, err := a.tracker.StorageInfo()
	if err != nil {
		return err
	}
	if *asJSON {
		return writeJSON(a.stdout, usage)
	}

	saved, _, err := a.tracker.LastSaved()
	if err != nil {
		return err
	}
	unsaved, err := a.tracker.HasUnsavedChanges()
	if err != nil {
		return err
	}

	info := render.Info{
		Backend:   a.cfg.Backend,
		Usage:     usage,
		LastSaved: saved,
		Unsaved:   unsaved,
	}
	switch a.cfg.Backend {
	case storage.BackendFile:
		info.Location = a.cfg.DataDirectory
	case storage.BackendSQLite:
		info.Location = a.cfg.SQLitePath
	}
	if enc, err := storage.AsEncryptor(a.backend); err == nil {
		info.Encrypted = enc.IsEncrypted()
	}

	r, err := a.renderer()
	if err != nil {
		return err
	}
	r.StorageInfo(info)
	return nil
}

func (a *app) cmdEncrypt(args []string) error {
	if err := noArgs("encrypt", args); err != nil {
		return err
	}
	enc, err := storage.AsEncryptor(a.backend)
	if err != nil {
		return err
	}
	if enc.IsEncrypted() {
		return errors.New("data is already encrypted")
	}

	pass, err := a.passphrase("New passphrase: ")
	if err != nil {
		return err
	}
	if a.cfg.Passphrase == "" && a.isTerminal() {
		confirm, err := a.passphrase("Confirm passphrase: ")
		if err != nil {
			return err
		}
		if confirm != pass {
			return errors.New("passphrases do not match")
		}
	}

	if err := enc.EnableEncryption(pass); err != nil {
		return err
	}
	a.log.Info("encryption enabled")
	fmt.Fprintln(a.stdout, "Encryption enabled. Keep your passphrase safe: data cannot be recovered without it.")
	return nil
}

func (a *app) cmdDecrypt(args []string) error {
	if err := noArgs("decrypt", args); err != nil {
		return err
	}
	enc, err := storage.AsEncryptor(a.backend)
	if err != nil {
		return err
	}
	if !enc.IsEncrypted() {
		return errors.New("data is not encrypted")
	}

	pass, err := a.passphrase("Passphrase: ")
	if err != nil {
		return err
	}
	if err := enc.DisableEncryption(pass); err != nil {
		return err
	}
	a.log.Info("encryption disabled")
	fmt.Fprintln(a.stdout, "Encryption disabled")
	return nil
}
