package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"fintrack/internal/testutil"
	"fintrack/internal/version"
)

func runCLI(t *testing.T, stdin string, args ...string) testutil.Result {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(args, strings.NewReader(stdin), &stdout, &stderr)
	return testutil.Result{Code: code, Stdout: stdout.String(), Stderr: stderr.String()}
}

func TestUsage(t *testing.T) {
	testutil.SetTestEnv(t)

	testutil.AssertOutput(t, runCLI(t, "")).ExitCode(exitUsage)
	testutil.AssertOutput(t, runCLI(t, "", "frobnicate")).
		ExitCode(exitUsage).
		StderrContains(`unknown command "frobnicate"`)
	testutil.AssertOutput(t, runCLI(t, "", "help")).
		Success().
		ContainsAll("income <day> <amount>", "end-week", "export [-o file]")
	testutil.AssertOutput(t, runCLI(t, "", "income", "mon")).ExitCode(exitUsage)
	testutil.AssertOutput(t, runCLI(t, "", "week", "extra")).ExitCode(exitUsage)
}

func TestVersion(t *testing.T) {
	res := runCLI(t, "", "version")
	testutil.AssertOutput(t, res).
		Success().
		Matches(`^fintrack \S+`)

	if w := version.Get().Warning(); w != "" {
		testutil.AssertOutput(t, res).StderrContains(w)
	}
}

func TestDebugReportsCaller(t *testing.T) {
	testutil.SetTestEnv(t)
	t.Setenv("FINTRACK_DEBUG", "1")

	testutil.AssertOutput(t, runCLI(t, "", "week")).
		Success().
		StderrContains("storage opened").
		StderrContains("main.go:")
}

func TestArchiveWarnsOnEmptyWeek(t *testing.T) {
	testutil.SetTestEnv(t)

	testutil.AssertOutput(t, runCLI(t, "", "archive")).
		Success().
		StderrContains("the current week has no income or expenses")

	runCLI(t, "", "income", "mon", "10")
	res := runCLI(t, "", "end-week")
	testutil.AssertOutput(t, res).Success()
	if strings.Contains(res.Stderr, "no income or expenses") {
		t.Errorf("unexpected empty-week warning: %s", res.Stderr)
	}
}

func TestIncomeExpenseAndWeek(t *testing.T) {
	testutil.SetTestEnv(t)

	testutil.AssertOutput(t, runCLI(t, "", "income", "mon", "100")).
		Success().
		Contains("Added €100.00 income on Monday (day total €100.00)")
	testutil.AssertOutput(t, runCLI(t, "", "income", "0", "50")).
		Success().
		Contains("day total €150.00")
	testutil.AssertOutput(t, runCLI(t, "", "expense", "Sunday", "20.5")).
		Success().
		Contains("Added €20.50 expense on Sunday")

	testutil.AssertOutput(t, runCLI(t, "", "week")).
		Success().
		ContainsAll("This week", "Monday", "€150.00", "€20.50", "€129.50")
}

func TestInvalidEntries(t *testing.T) {
	testutil.SetTestEnv(t)

	testutil.AssertOutput(t, runCLI(t, "", "income", "mon", "abc")).
		ExitCode(exitFailure).
		StderrContains("amount must be a positive finite number")
	testutil.AssertOutput(t, runCLI(t, "", "income", "mon", "-5")).ExitCode(exitFailure)
	testutil.AssertOutput(t, runCLI(t, "", "expense", "9", "5")).
		ExitCode(exitFailure).
		StderrContains("day must be between 0")
	testutil.AssertOutput(t, runCLI(t, "", "extra", "add", " ", "5")).ExitCode(exitFailure)

	testutil.AssertOutput(t, runCLI(t, "", "week")).
		Success().
		NotContains("€5.00")
}

func TestExtras(t *testing.T) {
	testutil.SetTestEnv(t)

	testutil.AssertOutput(t, runCLI(t, "", "extra", "add", "coffee", "beans", "3.5")).
		Success().
		Contains(`Extra "coffee beans" is now €3.50`)
	testutil.AssertOutput(t, runCLI(t, "", "extra", "add", "coffee beans", "1.5")).
		Success().
		Contains("€5.00")

	testutil.AssertOutput(t, runCLI(t, "", "extras")).
		Success().
		ContainsAll("coffee beans", "€5.00")

	testutil.AssertOutput(t, runCLI(t, "", "extra", "rm", "cofee", "beans")).
		Success().
		Contains(`Did you mean "coffee beans"?`)

	testutil.AssertOutput(t, runCLI(t, "", "extra", "rm", "coffee", "beans")).
		Success().
		Contains(`Removed extra "coffee beans"`)

	testutil.AssertOutput(t, runCLI(t, "", "extras")).
		Success().
		Contains("No extra expenses recorded")
}

func TestReport(t *testing.T) {
	testutil.SetTestEnv(t)

	runCLI(t, "", "income", "mon", "100")
	runCLI(t, "", "expense", "mon", "20")
	runCLI(t, "", "extra", "add", "gift", "10")

	testutil.AssertOutput(t, runCLI(t, "", "report")).
		Success().
		ContainsAll("Weekly report", "€70.00", "70.00%", "Profitable", "Monday (€80.00)", "Tuesday (€0.00)").
		NotContains("Compared with")

	testutil.AssertOutput(t, runCLI(t, "", "report", "-json")).
		Success().
		ContainsAll(`"netProfit": 70`, `"profitMargin": 70`, `"hasData": false`)
}

func TestEndWeekAndHistory(t *testing.T) {
	testutil.SetTestEnv(t)

	runCLI(t, "", "income", "tue", "80")
	testutil.AssertOutput(t, runCLI(t, "", "end-week")).
		Success().
		ContainsAll("€80.00", "Week archived and cleared")

	testutil.AssertOutput(t, runCLI(t, "", "week")).
		Success().
		NotContains("€80.00")

	runCLI(t, "", "income", "tue", "120")
	testutil.AssertOutput(t, runCLI(t, "", "report")).
		Success().
		ContainsAll("Compared with last archived week", "+50.0%")

	testutil.AssertOutput(t, runCLI(t, "", "archive")).
		Success().
		Contains("Week archived (2 of 52 weeks kept)")

	testutil.AssertOutput(t, runCLI(t, "", "history", "-n", "1")).
		Success().
		Contains("€120.00").
		NotContains("€80.00")

	testutil.AssertOutput(t, runCLI(t, "", "history", "-n", "-1")).ExitCode(exitUsage)
}

func TestClearAndReset(t *testing.T) {
	dir := testutil.SetTestEnv(t)

	runCLI(t, "", "income", "mon", "10")
	runCLI(t, "", "archive")
	runCLI(t, "", "settings", "-currency", "$")

	testutil.AssertOutput(t, runCLI(t, "", "clear")).Success()
	assertFiles(t, dir, "fintrack_history.json", "fintrack_settings.json")

	testutil.AssertOutput(t, runCLI(t, "", "reset")).
		ExitCode(exitUsage).
		StderrContains("rerun with -y")
	assertFiles(t, dir, "fintrack_history.json", "fintrack_settings.json")

	testutil.AssertOutput(t, runCLI(t, "", "reset", "-y")).Success()
	assertFiles(t, dir)
}

func assertFiles(t *testing.T, dir string, want ...string) {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		t.Fatal(err)
	}
	var got []string
	for _, m := range matches {
		got = append(got, filepath.Base(m))
	}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("Expected files %v, got %v", want, got)
	}
}

func TestExportImport(t *testing.T) {
	dir := testutil.SetTestEnv(t)
	exportPath := filepath.Join(t.TempDir(), "backup.json")

	runCLI(t, "", "income", "wed", "42")
	runCLI(t, "", "extra", "add", "rent", "12")
	runCLI(t, "", "archive")

	testutil.AssertOutput(t, runCLI(t, "", "export", "-o", exportPath)).
		Success().
		Contains("Exported to " + exportPath)

	testutil.AssertOutput(t, runCLI(t, "", "export", "-o", "-")).
		Success().
		ContainsAll(`"weekData": {`, `"exportedAt"`)

	runCLI(t, "", "reset", "-y")
	testutil.AssertOutput(t, runCLI(t, "", "import", exportPath)).
		Success().
		Contains("Imported sections: weekData, extras, history, settings")

	testutil.AssertOutput(t, runCLI(t, "", "week")).Success().Contains("€42.00")
	testutil.AssertOutput(t, runCLI(t, "", "extras")).Success().Contains("rent")

	before, err := os.ReadFile(filepath.Join(dir, "fintrack_weekData.json"))
	if err != nil {
		t.Fatal(err)
	}
	garbage := testutil.WriteFile(t, t.TempDir(), "garbage.json", `{"weekData":{"incomes":[1]}}`)
	testutil.AssertOutput(t, runCLI(t, "", "import", garbage)).
		ExitCode(exitFailure).
		StderrContains("malformed import data")
	after, err := os.ReadFile(filepath.Join(dir, "fintrack_weekData.json"))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(before, after) {
		t.Error("Failed import modified stored week data")
	}

	testutil.AssertOutput(t, runCLI(t, `{"settings":{"currency":"£"}}`, "import", "-")).
		Success().
		Contains("Imported sections: settings")
}

func TestSettings(t *testing.T) {
	testutil.SetTestEnv(t)

	testutil.AssertOutput(t, runCLI(t, "", "settings")).
		Success().
		ContainsAll("currency:   €", "theme:      light", "week start: 1").
		NotContains("Settings saved")

	testutil.AssertOutput(t, runCLI(t, "", "settings", "-currency", "$", "-theme", "dark", "-week-start", "0")).
		Success().
		ContainsAll("Settings saved", "currency:   $", "theme:      dark", "week start: 0")

	testutil.AssertOutput(t, runCLI(t, "", "income", "fri", "5")).
		Success().
		Contains("Added $5.00 income on Friday")

	testutil.AssertOutput(t, runCLI(t, "", "settings", "-theme", "blue")).
		ExitCode(exitFailure).
		StderrContains("invalid settings")
}

func TestInfo(t *testing.T) {
	dir := testutil.SetTestEnv(t)

	testutil.AssertOutput(t, runCLI(t, "", "info")).
		Success().
		ContainsAll("Backend", "file", dir, "never")

	runCLI(t, "", "income", "mon", "1")
	testutil.AssertOutput(t, runCLI(t, "", "info")).
		Success().
		ContainsAll("Documents", "Recent changes were saved").
		NotContains("never")

	testutil.AssertOutput(t, runCLI(t, "", "info", "-json")).
		Success().
		ContainsAll(`"documents": 2`, `"quota": 5242880`)
}

func TestSQLiteBackend(t *testing.T) {
	dir := testutil.SetTestEnv(t)

	testutil.AssertOutput(t, runCLI(t, "", "-backend", "sqlite", "income", "sat", "7")).Success()
	testutil.AssertOutput(t, runCLI(t, "", "-backend", "sqlite", "week")).
		Success().
		Contains("€7.00")

	if _, err := os.Stat(filepath.Join(dir, "fintrack.db")); err != nil {
		t.Errorf("Expected SQLite database in data directory: %v", err)
	}
	testutil.AssertOutput(t, runCLI(t, "", "-backend", "sqlite", "encrypt")).
		ExitCode(exitFailure).
		StderrContains("only supported by the file backend")
}

func TestEncryptDecrypt(t *testing.T) {
	dir := testutil.SetTestEnv(t)
	runCLI(t, "", "income", "mon", "64")

	testutil.AssertOutput(t, runCLI(t, "short\n", "encrypt")).
		ExitCode(exitFailure).
		StderrContains("at least 8 characters")

	testutil.AssertOutput(t, runCLI(t, "correct horse\n", "encrypt")).
		Success().
		Contains("Encryption enabled")

	raw, err := os.ReadFile(filepath.Join(dir, "fintrack_weekData.json"))
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Contains(raw, []byte("incomes")) {
		t.Error("Expected week data to be encrypted at rest")
	}

	testutil.AssertOutput(t, runCLI(t, "", "week")).
		ExitCode(exitFailure).
		StderrContains("passphrase required")
	testutil.AssertOutput(t, runCLI(t, "wrong passphrase\n", "week")).
		ExitCode(exitFailure).
		StderrContains("incorrect passphrase")
	testutil.AssertOutput(t, runCLI(t, "correct horse\n", "week")).
		Success().
		Contains("€64.00")

	t.Setenv("FINTRACK_PASSPHRASE", "correct horse")
	testutil.AssertOutput(t, runCLI(t, "", "decrypt")).
		Success().
		Contains("Encryption disabled")

	raw, err = os.ReadFile(filepath.Join(dir, "fintrack_weekData.json"))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(raw, []byte("incomes")) {
		t.Error("Expected week data to be plaintext after decrypt")
	}
}
