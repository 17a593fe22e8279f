package testutil

import (
	"regexp"
	"strings"
	"testing"
)

// Result captures one command invocation
type Result struct {
	Code   int
	Stdout string
	Stderr string
}

// OutputAssertion provides fluent assertions for command output
type OutputAssertion struct {
	t   *testing.T
	res Result
}

// AssertOutput creates a new OutputAssertion for the given result
func AssertOutput(t *testing.T, res Result) *OutputAssertion {
	t.Helper()
	return &OutputAssertion{t: t, res: res}
}

// ExitCode asserts the command exited with code
func (oa *OutputAssertion) ExitCode(code int) *OutputAssertion {
	oa.t.Helper()
	if oa.res.Code != code {
		oa.t.Errorf("Expected exit code %d, got %d.\nStderr: %s", code, oa.res.Code, truncate(oa.res.Stderr, 500))
	}
	return oa
}

// Success asserts exit code 0
func (oa *OutputAssertion) Success() *OutputAssertion {
	return oa.ExitCode(0)
}

// Contains asserts stdout contains the given string
func (oa *OutputAssertion) Contains(substr string) *OutputAssertion {
	oa.t.Helper()
	if !strings.Contains(oa.res.Stdout, substr) {
		oa.t.Errorf("Expected stdout to contain %q, but it didn't.\nStdout (first 500 chars): %s",
			substr, truncate(oa.res.Stdout, 500))
	}
	return oa
}

// ContainsAll asserts stdout contains all the given strings
func (oa *OutputAssertion) ContainsAll(substrs ...string) *OutputAssertion {
	oa.t.Helper()
	for _, substr := range substrs {
		oa.Contains(substr)
	}
	return oa
}

// NotContains asserts stdout does not contain the given string
func (oa *OutputAssertion) NotContains(substr string) *OutputAssertion {
	oa.t.Helper()
	if strings.Contains(oa.res.Stdout, substr) {
		oa.t.Errorf("Expected stdout NOT to contain %q, but it did", substr)
	}
	return oa
}

// Matches asserts stdout matches the given regex pattern
func (oa *OutputAssertion) Matches(pattern string) *OutputAssertion {
	oa.t.Helper()
	matched, err := regexp.MatchString(pattern, oa.res.Stdout)
	if err != nil {
		oa.t.Fatalf("Invalid regex pattern %q: %v", pattern, err)
	}
	if !matched {
		oa.t.Errorf("Expected stdout to match pattern %q, but it didn't.\nStdout (first 500 chars): %s",
			pattern, truncate(oa.res.Stdout, 500))
	}
	return oa
}

// StderrContains asserts stderr contains the given string
func (oa *OutputAssertion) StderrContains(substr string) *OutputAssertion {
	oa.t.Helper()
	if !strings.Contains(oa.res.Stderr, substr) {
		oa.t.Errorf("Expected stderr to contain %q, but it didn't.\nStderr (first 500 chars): %s",
			substr, truncate(oa.res.Stderr, 500))
	}
	return oa
}

// Stdout returns the captured standard output
func (oa *OutputAssertion) Stdout() string {
	return oa.res.Stdout
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
