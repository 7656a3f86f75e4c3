// Package report collects what happened during one conversion: ordered
// info/warning/error entries and a tally of data that could not be carried
// into the target schema.
package report

import (
	"context"
	"fmt"
	"log/slog"
)

// Level is the severity of a report entry.
type Level string

// Level constants, from least to most severe.
const (
	LevelInfo    Level = "INFO"
	LevelWarning Level = "WARNING"
	LevelError   Level = "ERROR"
)

// slogLevel maps a report level onto slog.
func (l Level) slogLevel() slog.Level {
	switch l {
	case LevelWarning:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Entry is one report record.
type Entry struct {
	Level   Level  `json:"level" yaml:"level"`
	Rule    string `json:"rule,omitempty" yaml:"rule,omitempty"`
	Message string `json:"message" yaml:"message"`
}

// String renders the entry on one line.
func (e Entry) String() string {
	if e.Rule != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Level, e.Rule, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Level, e.Message)
}

// Direction names the conversion direction.
type Direction string

// Direction constants.
const (
	Forward Direction = "forward"
	Reverse Direction = "reverse"
)

// Report documents one conversion call.
type Report struct {
	// ConversionID identifies the call (assigned by the caller, may be empty).
	ConversionID string `json:"conversion_id,omitempty" yaml:"conversion_id,omitempty"`

	// Direction is forward (2.0.2 to 2.1.0) or reverse.
	Direction Direction `json:"direction" yaml:"direction"`

	// SourceVersion is the version advertised by the input document.
	SourceVersion string `json:"source_version,omitempty" yaml:"source_version,omitempty"`

	// TargetVersion is the version written to the output document.
	TargetVersion string `json:"target_version,omitempty" yaml:"target_version,omitempty"`

	// Entries holds every record in emission order.
	Entries []Entry `json:"entries" yaml:"entries"`

	// DataLoss counts what rules actually dropped or approximated.
	DataLoss DataLoss `json:"data_loss" yaml:"data_loss"`

	// PreScan is the reverse-direction estimate computed before any rule ran.
	PreScan *DataLoss `json:"pre_scan,omitempty" yaml:"pre_scan,omitempty"`

	logger *slog.Logger
}

// New creates an empty report for direction.
func New(direction Direction) *Report {
	return &Report{Direction: direction, Entries: []Entry{}}
}

// WithLogger mirrors every subsequent entry to logger.
func (r *Report) WithLogger(logger *slog.Logger) *Report {
	r.logger = logger
	return r
}

// Add appends an entry.
func (r *Report) Add(level Level, rule, message string) {
	e := Entry{Level: level, Rule: rule, Message: message}
	r.Entries = append(r.Entries, e)
	if r.logger != nil {
		args := []any{"direction", string(r.Direction)}
		if rule != "" {
			args = append(args, "rule", rule)
		}
		if r.ConversionID != "" {
			args = append(args, "conversion_id", r.ConversionID)
		}
		r.logger.Log(context.Background(), level.slogLevel(), message, args...)
	}
}

// Info appends an informational entry.
func (r *Report) Info(rule, format string, args ...any) {
	r.Add(LevelInfo, rule, fmt.Sprintf(format, args...))
}

// Warn appends a warning entry.
func (r *Report) Warn(rule, format string, args ...any) {
	r.Add(LevelWarning, rule, fmt.Sprintf(format, args...))
}

// Error appends an error entry.
func (r *Report) Error(rule, format string, args ...any) {
	r.Add(LevelError, rule, fmt.Sprintf(format, args...))
}

// Filter returns the entries at level, in order.
func (r *Report) Filter(level Level) []Entry {
	var out []Entry
	for _, e := range r.Entries {
		if e.Level == level {
			out = append(out, e)
		}
	}
	return out
}

// Warnings returns the warning entries.
func (r *Report) Warnings() []Entry {
	return r.Filter(LevelWarning)
}

// HasWarnings reports whether any warning was recorded.
func (r *Report) HasWarnings() bool {
	return len(r.Warnings()) > 0
}

// HasErrors reports whether any error was recorded.
func (r *Report) HasErrors() bool {
	return len(r.Filter(LevelError)) > 0
}

// Messages returns the entry messages at level.
func (r *Report) Messages(level Level) []string {
	var out []string
	for _, e := range r.Filter(level) {
		out = append(out, e.Message)
	}
	return out
}
