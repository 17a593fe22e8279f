// Package main provides a CLI tool for validating fintrack export bundles
// without touching any store.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"fintrack/internal/services/transfer"
)

type result struct {
	path     string
	sections transfer.Sections
	size     int
	duration time.Duration
	err      error
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	fs.SetOutput(stderr)
	verbose := fs.Bool("v", false, "Verbose output")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: validate [-v] <file>...")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}

	fmt.Fprintf(stdout, "Validating %d file(s)...\n\n", fs.NArg())

	var passed, failed int
	for _, path := range fs.Args() {
		r := validateFile(path)

		if r.err != nil {
			failed++
			fmt.Fprintf(stdout, "FAIL %s\n", r.path)
			fmt.Fprintf(stdout, "     Error: %v\n", r.err)
			continue
		}
		passed++
		fmt.Fprintf(stdout, "PASS %s\n", r.path)
		if *verbose {
			fmt.Fprintf(stdout, "     Sections: %s (%d bytes, %v)\n", r.sections, r.size, r.duration)
		}
	}

	fmt.Fprintf(stdout, "\n========================================\n")
	fmt.Fprintf(stdout, "Results: %d passed, %d failed\n", passed, failed)

	if failed > 0 {
		return 1
	}
	return 0
}

func validateFile(path string) result {
	start := time.Now()

	data, err := os.ReadFile(path)
	if err != nil {
		return result{path: path, err: fmt.Errorf("failed to read file: %w", err)}
	}

	sections, err := transfer.Validate(data)
	r := result{
		path:     path,
		sections: sections,
		size:     len(data),
		duration: time.Since(start),
		err:      err,
	}
	if err == nil && sections.Empty() {
		r.err = errors.New("bundle contains no sections")
	}
	return r
}
