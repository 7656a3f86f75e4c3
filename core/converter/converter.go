// Package converter runs the rule pipelines that migrate ST-Bridge documents
// between schema 2.0.2 and 2.1.0.
//
// A conversion never returns a partially converted document: when any rule
// fails, the call returns a *errors.RuleError naming the rule and no result.
package converter

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/FocuswithJustin/stbconv/core/errors"
	"github.com/FocuswithJustin/stbconv/core/report"
	"github.com/FocuswithJustin/stbconv/core/rules"
	"github.com/FocuswithJustin/stbconv/core/tree"
	"github.com/FocuswithJustin/stbconv/core/version"
)

// Options control one conversion call. The zero value disables everything;
// use DefaultOptions for the usual behaviour.
type Options struct {
	// SkipValidation skips the source version check.
	SkipValidation bool

	// PreserveOriginal converts a deep copy so the input is never mutated.
	PreserveOriginal bool

	// WarnDataLoss runs the data-loss pre-scan before a reverse conversion.
	WarnDataLoss bool
}

// DefaultOptions validates, preserves the input and warns about data loss.
func DefaultOptions() Options {
	return Options{
		SkipValidation:   false,
		PreserveOriginal: true,
		WarnDataLoss:     true,
	}
}

// Result is a converted document with its report.
type Result struct {
	Document *tree.Document
	Report   *report.Report
	Duration time.Duration
}

// Converter carries the per-process settings shared by conversion calls.
// It holds no per-conversion state and is safe for concurrent use.
type Converter struct {
	logger *slog.Logger
	newID  func() string
}

// Option configures a Converter.
type Option func(*Converter)

// WithLogger mirrors report entries and rule progress to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Converter) { c.logger = logger }
}

// WithIDFunc overrides how conversion ids are generated.
func WithIDFunc(fn func() string) Option {
	return func(c *Converter) { c.newID = fn }
}

// New creates a converter.
func New(opts ...Option) *Converter {
	c := &Converter{newID: func() string { return uuid.New().String() }}
	for _, o := range opts {
		o(c)
	}
	return c
}

var defaultConverter = New()

// ConvertForward converts a 2.0.2 document to 2.1.0 with the default converter.
func ConvertForward(doc *tree.Document, opts Options) (*Result, error) {
	return defaultConverter.Forward(doc, opts)
}

// ConvertReverse converts a 2.1.0 document to 2.0.2 with the default converter.
func ConvertReverse(doc *tree.Document, opts Options) (*Result, error) {
	return defaultConverter.Reverse(doc, opts)
}

// Forward converts a 2.0.2 document to 2.1.0.
func (c *Converter) Forward(doc *tree.Document, opts Options) (*Result, error) {
	return c.convert(doc, opts, report.Forward)
}

// Reverse converts a 2.1.0 document to 2.0.2. Data that 2.0.2 cannot hold is
// approximated or dropped and tallied in the report.
func (c *Converter) Reverse(doc *tree.Document, opts Options) (*Result, error) {
	return c.convert(doc, opts, report.Reverse)
}

func (c *Converter) convert(doc *tree.Document, opts Options, dir report.Direction) (*Result, error) {
	start := time.Now()
	if doc == nil || doc.Root() == nil {
		return nil, errors.NewMalformed(tree.RootTag, "document has no root element")
	}

	work := doc
	if opts.PreserveOriginal {
		work = doc.Clone()
	}
	work.Canonicalize()

	source, target := version.Legacy, version.Current
	if dir == report.Reverse {
		source, target = target, source
	}

	rep := report.New(dir)
	rep.ConversionID = c.newID()
	if c.logger != nil {
		rep.WithLogger(c.logger)
	}
	rep.SourceVersion, _ = version.Detect(work)
	rep.TargetVersion = target

	if !opts.SkipValidation {
		version.Validate(work, source, rep)
	}

	if dir == report.Reverse && opts.WarnDataLoss {
		pre := rules.ScanReverseLoss(work)
		rep.PreScan = &pre
		for _, cat := range report.Categories {
			if n := pre.Count(cat); n > 0 {
				rep.Warn("", "reverse conversion will lose data: %d %s", n, cat.Describe())
			}
		}
	}

	ctx := rules.NewContext(work, rep)
	for _, r := range pipeline(dir) {
		if err := runPass(r.For(dir), ctx); err != nil {
			rerr := errors.NewRule(r.Name, string(dir), err)
			if c.logger != nil {
				c.logger.Error("conversion aborted", "rule", r.Name, "direction", string(dir),
					"conversion_id", rep.ConversionID, "error", err)
			}
			return nil, rerr
		}
		if c.logger != nil {
			c.logger.Debug("rule complete", "rule", r.Name, "direction", string(dir), "conversion_id", rep.ConversionID)
		}
	}

	return &Result{Document: work, Report: rep, Duration: time.Since(start)}, nil
}

// runPass turns a panic inside a rule into an error.
func runPass(pass rules.Pass, ctx *rules.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return pass(ctx)
}

// DetectVersion returns the root version attribute of doc.
func DetectVersion(doc *tree.Document) (string, bool) {
	return version.Detect(doc)
}

// Validate checks doc's major.minor version against expected, recording any
// mismatch on rep.
func Validate(doc *tree.Document, expected string, rep *report.Report) bool {
	return version.Validate(doc, expected, rep)
}

// ScanDataLoss estimates what a reverse conversion of doc would lose without
// converting it.
func ScanDataLoss(doc *tree.Document) report.DataLoss {
	return rules.ScanReverseLoss(doc)
}
