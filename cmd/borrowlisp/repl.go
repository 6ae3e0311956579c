package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/peterh/liner"

	"borrowlisp/interpreter-go/pkg/driver"
	"borrowlisp/interpreter-go/pkg/parser"
)

const (
	defaultHistoryFile = ".borrowlisp_history"
	promptCont         = "...> "
	replBanner         = cliToolVersion + " (type :help for commands, :quit to exit)"
)

var replKeywords = []string{
	"lambda", "let", "let-rec", "if", "begin", "box", "unbox",
	"display", "debug", "true", "false", ":quit", ":help", ":store",
}

func historyPath(cfg *driver.Config) string {
	if cfg.REPL.HistoryFile != "" {
		return cfg.REPL.HistoryFile
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, defaultHistoryFile)
}

func runRepl(args []string) int {
	fs := flag.NewFlagSet("repl", flag.ContinueOnError)
	flags := addCommonFlags(fs)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	cfg, err := loadConfig(".", flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		return 1
	}
	fmt.Println(replBanner)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)
	ln.SetCompleter(completeKeyword)

	histPath := historyPath(cfg)
	if histPath != "" {
		if f, err := os.Open(histPath); err == nil {
			_, _ = ln.ReadHistory(f)
			_ = f.Close()
		}
		defer func() {
			if f, err := os.Create(histPath); err == nil {
				_, _ = ln.WriteHistory(f)
				_ = f.Close()
			}
		}()
	}

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigc)
	go func() {
		<-sigc
		ln.Close()
		os.Exit(130)
	}()

	session := newSession(cfg)
	for {
		code, ok := readUntilParsed(ln, cfg.REPL.Prompt, promptCont)
		if !ok {
			fmt.Println()
			break
		}
		trimmed := strings.TrimSpace(code)
		if trimmed == "" {
			continue
		}

		if strings.HasPrefix(trimmed, ":") {
			switch strings.ToLower(trimmed) {
			case ":quit", ":q":
				return 0
			case ":help":
				fmt.Println("commands: :help, :store (heap slot count), :quit")
			case ":store":
				fmt.Printf("%d slots allocated\n", session.Store().Len())
			default:
				fmt.Println("unknown command. Type :quit to exit.")
			}
			continue
		}

		ln.AppendHistory(strings.ReplaceAll(code, "\n", " "))
		outcomes, err := session.Run(code)
		for _, outcome := range outcomes {
			printOutcome(outcome, cfg.ShowTypes)
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, driver.FormatError("", code, err))
		}
	}
	return 0
}

// readUntilParsed keeps prompting until the buffered lines parse or fail for a reason other
// than running out of input.
func readUntilParsed(ln *liner.State, prompt, cont string) (string, bool) {
	var b strings.Builder
	for {
		current := prompt
		if b.Len() > 0 {
			current = cont
		}
		line, err := ln.Prompt(current)
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if errors.Is(err, liner.ErrPromptAborted) {
			return "", true
		}
		if err != nil {
			return "", false
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		src := b.String()
		if strings.HasPrefix(strings.TrimSpace(src), ":") {
			return src, true
		}
		if _, perr := parser.ParseAll(src); perr != nil && parser.IsIncomplete(perr) {
			continue
		}
		return src, true
	}
}

func completeKeyword(line string) []string {
	start := strings.LastIndexAny(line, "([ ") + 1
	prefix := line[start:]
	if prefix == "" {
		return nil
	}
	var out []string
	for _, kw := range replKeywords {
		if strings.HasPrefix(kw, prefix) {
			out = append(out, line[:start]+kw)
		}
	}
	return out
}
