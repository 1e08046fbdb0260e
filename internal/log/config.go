package log

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// Format represents the output format for logs
type Format int

const (
	// FormatJSON outputs logs in JSON format
	FormatJSON Format = iota
	// FormatText outputs logs in human-readable text format
	FormatText
)

// String returns the string representation of the format
func (f Format) String() string {
	if f == FormatText {
		return "text"
	}
	return "json"
}

// ParseFormat parses a string into a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json", "":
		return FormatJSON, nil
	case "text", "console":
		return FormatText, nil
	default:
		return FormatJSON, fmt.Errorf("unknown log format %q (want json or text)", s)
	}
}

// Output represents where logs should be written
type Output struct {
	writer io.Writer
}

// Writer returns the underlying io.Writer. The zero Output writes to stderr.
func (o Output) Writer() io.Writer {
	if o.writer == nil {
		return os.Stderr
	}
	return o.writer
}

// NewOutput creates an Output from an io.Writer
func NewOutput(w io.Writer) Output {
	return Output{writer: w}
}

// OutputStderr creates an Output that writes to stderr
func OutputStderr() Output {
	return Output{writer: os.Stderr}
}

// Config holds configuration for the logger
type Config struct {
	// Level is the minimum log level to output
	Level Level

	// Format is the output format (JSON or Text)
	Format Format

	// Output is where logs should be written. Plans go to stdout, so logs
	// default to stderr.
	Output Output

	// AddSource includes source file and line number in logs
	AddSource bool

	// ServiceName is attached to every entry as "service"
	ServiceName string
}

// DefaultConfig logs at INFO level in JSON format to stderr.
func DefaultConfig() Config {
	return Config{
		Level:       LevelInfo,
		Format:      FormatJSON,
		Output:      OutputStderr(),
		ServiceName: "waveplan",
	}
}

// DevelopmentConfig logs at DEBUG level in text format with source location.
func DevelopmentConfig() Config {
	return Config{
		Level:       LevelDebug,
		Format:      FormatText,
		Output:      OutputStderr(),
		AddSource:   true,
		ServiceName: "waveplan",
	}
}

// ConfigFromStrings builds a Config from the textual level and format used by
// flags and config files.
func ConfigFromStrings(level, format string, w io.Writer) (Config, error) {
	cfg := DefaultConfig()

	lvl, err := ParseLevel(level)
	if err != nil {
		return cfg, err
	}
	f, err := ParseFormat(format)
	if err != nil {
		return cfg, err
	}

	cfg.Level = lvl
	cfg.Format = f
	if w != nil {
		cfg.Output = NewOutput(w)
	}
	return cfg, nil
}
