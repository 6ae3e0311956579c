package driver

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ConfigFileName is the project configuration looked up from the working directory upwards.
const ConfigFileName = "borrowlisp.yml"

// ErrConfigNotFound is returned by FindConfig when no borrowlisp.yml exists above a directory.
var ErrConfigNotFound = errors.New(ConfigFileName + " not found")

// RenderMode selects how result values are printed.
type RenderMode string

const (
	// RenderShort prints handles as addresses, e.g. Box(0).
	RenderShort RenderMode = "short"
	// RenderDeep follows handles into the Store, e.g. Box(Int(5)).
	RenderDeep RenderMode = "deep"
)

// Config is the parsed contents of borrowlisp.yml.
type Config struct {
	Path      string
	LogLevel  string
	Render    RenderMode
	ShowTypes bool
	REPL      REPLConfig
}

// REPLConfig holds interactive-session settings.
type REPLConfig struct {
	Prompt      string
	HistoryFile string
}

type configFile struct {
	LogLevel  string         `yaml:"log_level"`
	Render    string         `yaml:"render"`
	ShowTypes *bool          `yaml:"show_types"`
	REPL      replConfigFile `yaml:"repl"`
}

type replConfigFile struct {
	Prompt      *string `yaml:"prompt"`
	HistoryFile string  `yaml:"history_file"`
}

// ValidationError aggregates configuration validation failures.
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return "config: invalid configuration"
	}
	var b strings.Builder
	b.WriteString("config validation failed:")
	for _, issue := range e.Issues {
		b.WriteString("\n- ")
		b.WriteString(issue)
	}
	return b.String()
}

// DefaultConfig is used when no borrowlisp.yml is found.
func DefaultConfig() *Config {
	return &Config{
		LogLevel: "warn",
		Render:   RenderShort,
		REPL:     REPLConfig{Prompt: "borrowlisp> "},
	}
}

// LoadConfig parses borrowlisp.yml from disk, returning a validated config. Keys left out keep
// their defaults; unknown keys are rejected.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config: empty path")
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("config: resolve %s: %w", path, err)
	}
	file, err := os.Open(absPath)
	if err != nil {
		return nil, fmt.Errorf("config: open %s: %w", absPath, err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)

	var raw configFile
	if err := decoder.Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: parse %s: %w", absPath, err)
	}

	cfg := raw.toConfig(absPath)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (raw configFile) toConfig(path string) *Config {
	cfg := DefaultConfig()
	cfg.Path = path
	if level := strings.TrimSpace(raw.LogLevel); level != "" {
		cfg.LogLevel = strings.ToLower(level)
	}
	if render := strings.TrimSpace(raw.Render); render != "" {
		cfg.Render = RenderMode(strings.ToLower(render))
	}
	if raw.ShowTypes != nil {
		cfg.ShowTypes = *raw.ShowTypes
	}
	if raw.REPL.Prompt != nil {
		cfg.REPL.Prompt = *raw.REPL.Prompt
	}
	if history := strings.TrimSpace(raw.REPL.HistoryFile); history != "" {
		if !filepath.IsAbs(history) {
			history = filepath.Join(filepath.Dir(path), history)
		}
		cfg.REPL.HistoryFile = history
	}
	return cfg
}

func (c *Config) validate() error {
	var errs ValidationError
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		errs.Issues = append(errs.Issues, fmt.Sprintf("log_level: %v", err))
	}
	switch c.Render {
	case RenderShort, RenderDeep:
	default:
		errs.Issues = append(errs.Issues, fmt.Sprintf("render must be %q or %q, got %q", RenderShort, RenderDeep, c.Render))
	}
	if len(errs.Issues) > 0 {
		return &errs
	}
	return nil
}

// FindConfig walks from start towards the filesystem root looking for borrowlisp.yml.
func FindConfig(start string) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("resolve start directory %q: %w", start, err)
	}
	if info, statErr := os.Stat(dir); statErr == nil && !info.IsDir() {
		dir = filepath.Dir(dir)
	}
	origin := dir
	for {
		candidate := filepath.Join(dir, ConfigFileName)
		info, err := os.Stat(candidate)
		if err == nil && !info.IsDir() {
			return candidate, nil
		}
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return "", err
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("no %s found from %s upwards: %w", ConfigFileName, origin, ErrConfigNotFound)
		}
		dir = parent
	}
}

// LoadConfigFrom finds and loads the nearest borrowlisp.yml, falling back to DefaultConfig.
func LoadConfigFrom(start string) (*Config, error) {
	path, err := FindConfig(start)
	if err != nil {
		if errors.Is(err, ErrConfigNotFound) {
			return DefaultConfig(), nil
		}
		return nil, err
	}
	return LoadConfig(path)
}

// ParseLogLevel maps a config level name to a slog level.
func ParseLogLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown level %q (want debug, info, warn or error)", name)
	}
}

// Logger builds the text logger configured by log_level, writing to w.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	level, err := ParseLogLevel(c.LogLevel)
	if err != nil {
		level = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
