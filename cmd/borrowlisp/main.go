package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"borrowlisp/interpreter-go/pkg/driver"
)

const cliToolVersion = "borrowlisp 0.1.0-dev"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		printUsage()
		return 1
	}

	switch args[0] {
	case "--help", "-h", "help":
		printUsage()
		return 0
	case "--version", "-V", "version":
		fmt.Fprintln(os.Stdout, cliToolVersion)
		return 0
	case "run":
		return runFile(args[1:])
	case "check":
		return runCheck(args[1:])
	case "repl":
		return runRepl(args[1:])
	case "fixtures":
		return runFixtures(args[1:])
	default:
		return runFile(args)
	}
}

// commonFlags are accepted by every subcommand that evaluates or checks code.
type commonFlags struct {
	verbose *bool
	deep    *bool
	types   *bool
}

func addCommonFlags(fs *flag.FlagSet) commonFlags {
	return commonFlags{
		verbose: fs.Bool("verbose", false, "log analysis and evaluation steps to stderr"),
		deep:    fs.Bool("deep", false, "render boxes and references through the store"),
		types:   fs.Bool("types", false, "print the analyzed type next to each value"),
	}
}

// loadConfig finds borrowlisp.yml above start and applies command-line overrides.
func loadConfig(start string, flags commonFlags) (*driver.Config, error) {
	cfg, err := driver.LoadConfigFrom(start)
	if err != nil {
		return nil, err
	}
	if *flags.verbose {
		cfg.LogLevel = "debug"
	}
	if *flags.deep {
		cfg.Render = driver.RenderDeep
	}
	if *flags.types {
		cfg.ShowTypes = true
	}
	return cfg, nil
}

func newSession(cfg *driver.Config) *driver.Session {
	return driver.NewSession(driver.SessionOptions{
		Stdout: os.Stdout,
		Logger: cfg.Logger(os.Stderr),
		Render: cfg.Render,
	})
}

func runFile(args []string) int {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	flags := addCommonFlags(fs)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "borrowlisp run requires exactly one source file")
		return 1
	}
	path := fs.Arg(0)

	cfg, err := loadConfig(filepath.Dir(path), flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		return 1
	}
	session := newSession(cfg)
	outcomes, source, err := session.RunFile(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, driver.FormatError(path, source, err))
		return 1
	}
	if len(outcomes) > 0 {
		printOutcome(outcomes[len(outcomes)-1], cfg.ShowTypes)
	}
	return 0
}

func printOutcome(outcome driver.Outcome, showTypes bool) {
	if showTypes {
		fmt.Fprintf(os.Stdout, "%s : %s\n", outcome.Rendered, outcome.Type.Name())
		return
	}
	fmt.Fprintln(os.Stdout, outcome.Rendered)
}

func runCheck(args []string) int {
	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	flags := addCommonFlags(fs)
	changed := fs.Bool("changed", false, "also check .blisp files modified in the enclosing git work tree")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	paths := fs.Args()
	if *changed {
		extra, err := driver.ChangedSources(".")
		if err != nil {
			fmt.Fprintf(os.Stderr, "check --changed: %v\n", err)
			return 1
		}
		paths = append(paths, extra...)
	}
	if len(paths) == 0 {
		if *changed {
			fmt.Fprintln(os.Stdout, "no changed sources")
			return 0
		}
		fmt.Fprintln(os.Stderr, "borrowlisp check requires at least one source file")
		return 1
	}

	cfg, err := loadConfig(".", flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		return 1
	}
	session := newSession(cfg)

	status := 0
	for _, path := range paths {
		checked, source, err := session.CheckFile(path)
		if err != nil {
			fmt.Fprintln(os.Stderr, driver.FormatError(path, source, err))
			status = 1
			continue
		}
		types := make([]string, len(checked))
		for idx, form := range checked {
			types[idx] = form.Type.Name()
		}
		fmt.Fprintf(os.Stdout, "%s: %s\n", path, strings.Join(types, ", "))
	}
	return status
}

func runFixtures(args []string) int {
	fs := flag.NewFlagSet("fixtures", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	dir := "."
	if fs.NArg() > 0 {
		dir = fs.Arg(0)
	}

	fixtures, err := driver.LoadFixtures(dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load fixtures: %v\n", err)
		return 1
	}
	if len(fixtures) == 0 {
		fmt.Fprintf(os.Stderr, "no fixtures found in %s\n", dir)
		return 1
	}

	failed := 0
	for _, fixture := range fixtures {
		if err := fixture.Run(); err != nil {
			failed++
			fmt.Fprintf(os.Stdout, "FAIL %s: %v\n", fixture.Name(), err)
			continue
		}
		fmt.Fprintf(os.Stdout, "ok   %s\n", fixture.Name())
	}
	fmt.Fprintf(os.Stdout, "%d fixtures, %d failed\n", len(fixtures), failed)
	if failed > 0 {
		return 1
	}
	return 0
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `usage:
  borrowlisp [run] [--deep] [--types] [--verbose] <file.blisp>
  borrowlisp check [--changed] [--verbose] [file.blisp ...]
  borrowlisp repl [--deep] [--types] [--verbose]
  borrowlisp fixtures [dir]
  borrowlisp version
`)
}
