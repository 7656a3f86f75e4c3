// Package render prints conversion reports for people (text) and for
// tools (JSON, YAML).
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"gopkg.in/yaml.v3"

	"github.com/FocuswithJustin/stbconv/core/report"
)

// Format is an output format.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat maps a configuration value onto a Format.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatText, nil
	case FormatText, FormatJSON, FormatYAML:
		return f, nil
	}
	return FormatText, fmt.Errorf("unknown output format %q", s)
}

// Summary is what the CLI prints after a conversion.
type Summary struct {
	Input        string         `json:"input,omitempty" yaml:"input,omitempty"`
	Output       string         `json:"output,omitempty" yaml:"output,omitempty"`
	InputDigest  string         `json:"input_blake3,omitempty" yaml:"input_blake3,omitempty"`
	OutputDigest string         `json:"output_blake3,omitempty" yaml:"output_blake3,omitempty"`
	DurationMS   int64          `json:"duration_ms" yaml:"duration_ms"`
	Report       *report.Report `json:"report" yaml:"report"`
}

// Renderer writes summaries in one format.
type Renderer struct {
	w      io.Writer
	format Format
	color  bool
	styles styles
}

type styles struct {
	title, info, warn, err, loss, muted lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		title: r.NewStyle().Bold(true),
		info:  r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#4A4A4A", Dark: "#A8A8A8"}),
		warn:  r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#B58900", Dark: "#FFD75F"}).Bold(true),
		err:   r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#D70000", Dark: "#FF5F5F"}).Bold(true),
		loss:  r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#AF005F", Dark: "#FF87AF"}),
		muted: r.NewStyle().Faint(true),
	}
}

// New creates a renderer on w. Colour is used only for text output to a
// terminal, and never when NO_COLOR is set.
func New(w io.Writer, format Format) *Renderer {
	color := format == FormatText && isTerminal(w) && os.Getenv("NO_COLOR") == ""
	return &Renderer{
		w:      w,
		format: format,
		color:  color,
		styles: newStyles(lipgloss.NewRenderer(w)),
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (r *Renderer) paint(s lipgloss.Style, text string) string {
	if !r.color {
		return text
	}
	return s.Render(text)
}

// Summary writes a conversion summary.
func (r *Renderer) Summary(s Summary) error {
	switch r.format {
	case FormatJSON:
		return r.json(s)
	case FormatYAML:
		return r.yaml(s)
	}
	return r.summaryText(s)
}

// Loss writes a data-loss estimate.
func (r *Renderer) Loss(source string, loss report.DataLoss) error {
	view := struct {
		Input    string          `json:"input,omitempty" yaml:"input,omitempty"`
		DataLoss report.DataLoss `json:"data_loss" yaml:"data_loss"`
		Total    int             `json:"total" yaml:"total"`
	}{source, loss, loss.Total()}

	switch r.format {
	case FormatJSON:
		return r.json(view)
	case FormatYAML:
		return r.yaml(view)
	}
	var b strings.Builder
	title := "reverse conversion data loss"
	if source != "" {
		title += ": " + source
	}
	b.WriteString(r.paint(r.styles.title, title) + "\n")
	r.writeLoss(&b, "", loss)
	_, err := io.WriteString(r.w, b.String())
	return err
}

func (r *Renderer) json(v any) error {
	enc := json.NewEncoder(r.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (r *Renderer) yaml(v any) error {
	enc := yaml.NewEncoder(r.w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

func (r *Renderer) summaryText(s Summary) error {
	var b strings.Builder
	rep := s.Report
	if rep == nil {
		rep = report.New("")
	}

	title := fmt.Sprintf("%s conversion", rep.Direction)
	if rep.SourceVersion != "" || rep.TargetVersion != "" {
		title += fmt.Sprintf(" %s -> %s", orUnknown(rep.SourceVersion), orUnknown(rep.TargetVersion))
	}
	b.WriteString(r.paint(r.styles.title, title) + "\n")
	if rep.ConversionID != "" {
		b.WriteString(r.paint(r.styles.muted, "  id       "+rep.ConversionID) + "\n")
	}
	if s.Input != "" {
		b.WriteString(r.paint(r.styles.muted, "  input    "+s.Input) + "\n")
	}
	if s.Output != "" {
		b.WriteString(r.paint(r.styles.muted, "  output   "+s.Output) + "\n")
	}
	if s.InputDigest != "" {
		b.WriteString(r.paint(r.styles.muted, "  blake3   "+s.InputDigest+" -> "+s.OutputDigest) + "\n")
	}
	b.WriteString(r.paint(r.styles.muted, fmt.Sprintf("  time     %dms", s.DurationMS)) + "\n")

	for _, e := range rep.Entries {
		style := r.styles.info
		switch e.Level {
		case report.LevelWarning:
			style = r.styles.warn
		case report.LevelError:
			style = r.styles.err
		}
		line := fmt.Sprintf("%-7s", e.Level)
		b.WriteString("  " + r.paint(style, line) + " ")
		if e.Rule != "" {
			b.WriteString(r.paint(r.styles.muted, e.Rule) + ": ")
		}
		b.WriteString(e.Message + "\n")
	}

	if rep.PreScan != nil {
		r.writeLoss(&b, "estimated ", *rep.PreScan)
	}
	r.writeLoss(&b, "", rep.DataLoss)

	_, err := io.WriteString(r.w, b.String())
	return err
}

func (r *Renderer) writeLoss(b *strings.Builder, prefix string, loss report.DataLoss) {
	if !loss.Any() {
		b.WriteString("  " + prefix + "data loss: none\n")
		return
	}
	b.WriteString("  " + r.paint(r.styles.loss, fmt.Sprintf("%sdata loss: %d", prefix, loss.Total())) + "\n")
	for _, c := range report.Categories {
		if n := loss.Count(c); n > 0 {
			b.WriteString(fmt.Sprintf("    %4d  %s\n", n, c.Describe()))
		}
	}
}

func orUnknown(v string) string {
	if v == "" {
		return "?"
	}
	return v
}
