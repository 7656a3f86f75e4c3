// Command stbconv converts ST-Bridge documents between schema versions
// 2.0.2 and 2.1.0, and serves the same conversions over HTTP.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"

	"github.com/FocuswithJustin/stbconv/core/converter"
	"github.com/FocuswithJustin/stbconv/core/errors"
	"github.com/FocuswithJustin/stbconv/core/report"
	"github.com/FocuswithJustin/stbconv/core/stbxml"
	"github.com/FocuswithJustin/stbconv/core/tree"
	"github.com/FocuswithJustin/stbconv/core/version"
	"github.com/FocuswithJustin/stbconv/internal/api"
	"github.com/FocuswithJustin/stbconv/internal/config"
	"github.com/FocuswithJustin/stbconv/internal/docio"
	"github.com/FocuswithJustin/stbconv/internal/logging"
	"github.com/FocuswithJustin/stbconv/internal/render"
)

const appVersion = "0.1.0"

// CLI defines the command-line interface for stbconv.
var CLI struct {
	Config string `name:"config" short:"c" help:"Configuration file (default: ./stbconv.toml when present)" type:"path"`

	Forward  ForwardCmd  `cmd:"" help:"Convert a 2.0.2 document to 2.1.0"`
	Reverse  ReverseCmd  `cmd:"" help:"Convert a 2.1.0 document to 2.0.2"`
	Detect   DetectCmd   `cmd:"" help:"Print the schema version of a document"`
	Validate ValidateCmd `cmd:"" help:"Check a document's schema version"`
	Scan     ScanCmd     `cmd:"" help:"Estimate what a reverse conversion would lose"`
	Serve    ServeCmd    `cmd:"" help:"Start the REST API server"`
	Version  VersionCmd  `cmd:"" help:"Print version information"`
}

// App is bound into every command's Run method.
type App struct {
	Settings *config.Settings
	Stdin    io.Reader
	Stdout   io.Writer
	Stderr   io.Writer
}

// ConvertFlags are shared by forward and reverse.
type ConvertFlags struct {
	Input             string `arg:"" help:"Input document (.xml or .xml.xz); - reads stdin"`
	Output            string `short:"o" help:"Output path; stdout when omitted. A .xz suffix compresses" type:"path"`
	SkipValidation    bool   `help:"Skip the source version check"`
	NoPreserve        bool   `help:"Convert the parsed input in place instead of a copy"`
	NoDataLossWarning bool   `name:"no-data-loss-warning" help:"Skip the data-loss pre-scan on reverse conversions"`
	ReportFormat      string `name:"report-format" help:"Report format: text, json or yaml (default from config)"`
}

type ForwardCmd struct {
	Flags ConvertFlags `embed:""`
}

func (c *ForwardCmd) Run(app *App) error {
	return c.Flags.run(app, report.Forward)
}

type ReverseCmd struct {
	Flags ConvertFlags `embed:""`
}

func (c *ReverseCmd) Run(app *App) error {
	return c.Flags.run(app, report.Reverse)
}

func (f *ConvertFlags) options(base converter.Options) converter.Options {
	if f.SkipValidation {
		base.SkipValidation = true
	}
	if f.NoPreserve {
		base.PreserveOriginal = false
	}
	if f.NoDataLossWarning {
		base.WarnDataLoss = false
	}
	return base
}

func (f *ConvertFlags) run(app *App, dir report.Direction) error {
	format, err := reportFormat(f.ReportFormat, app.Settings)
	if err != nil {
		return err
	}
	compress, err := docio.ParseCompression(app.Settings.Output.Compress)
	if err != nil {
		return err
	}

	data, doc, err := loadInput(app, f.Input)
	if err != nil {
		return err
	}

	conv := converter.New()
	opts := f.options(app.Settings.ConvertOptions())
	var res *converter.Result
	if dir == report.Reverse {
		res, err = conv.Reverse(doc, opts)
	} else {
		res, err = conv.Forward(doc, opts)
	}
	if err != nil {
		return err
	}

	out, err := stbxml.Serialize(res.Document, stbxml.Options{Indent: app.Settings.Output.Indent})
	if err != nil {
		return err
	}
	if f.Output == "" {
		if err := docio.Write(app.Stdout, out, compress); err != nil {
			return errors.NewIO("write", "stdout", err)
		}
	} else if err := docio.WriteFile(f.Output, out, compress); err != nil {
		return err
	}

	logging.Debug("conversion",
		"conversion_id", res.Report.ConversionID,
		"direction", string(dir),
		"duration_ms", res.Duration.Milliseconds(),
		"warnings", len(res.Report.Warnings()))

	return render.New(app.Stderr, format).Summary(render.Summary{
		Input:        inputName(f.Input),
		Output:       f.Output,
		InputDigest:  docio.Digest(data),
		OutputDigest: docio.Digest(out),
		DurationMS:   res.Duration.Milliseconds(),
		Report:       res.Report,
	})
}

type DetectCmd struct {
	Input string `arg:"" help:"Input document; - reads stdin"`
}

func (c *DetectCmd) Run(app *App) error {
	data, err := readInput(app, c.Input)
	if err != nil {
		return err
	}
	v, err := stbxml.SniffVersion(data)
	if err != nil {
		return withPath(err, c.Input)
	}
	if v == "" {
		return fmt.Errorf("%s: document has no version attribute", inputName(c.Input))
	}
	fmt.Fprintln(app.Stdout, v)
	return nil
}

type ValidateCmd struct {
	Input  string `arg:"" help:"Input document; - reads stdin"`
	Expect string `help:"Expected schema version (major.minor is compared)" default:"2.0.2"`
}

func (c *ValidateCmd) Run(app *App) error {
	_, doc, err := loadInput(app, c.Input)
	if err != nil {
		return err
	}
	rep := report.New("")
	if !converter.Validate(doc, c.Expect, rep) {
		for _, msg := range rep.Messages(report.LevelWarning) {
			fmt.Fprintln(app.Stderr, msg)
		}
		return fmt.Errorf("%s: version check failed", inputName(c.Input))
	}
	v, _ := converter.DetectVersion(doc)
	fmt.Fprintf(app.Stdout, "%s: version %s ok\n", inputName(c.Input), v)
	return nil
}

type ScanCmd struct {
	Input        string `arg:"" help:"Input 2.1.0 document; - reads stdin"`
	ReportFormat string `name:"report-format" help:"Report format: text, json or yaml (default from config)"`
}

func (c *ScanCmd) Run(app *App) error {
	format, err := reportFormat(c.ReportFormat, app.Settings)
	if err != nil {
		return err
	}
	_, doc, err := loadInput(app, c.Input)
	if err != nil {
		return err
	}
	if v, ok := converter.DetectVersion(doc); ok {
		if parsed, err := version.Parse(v); err == nil && !parsed.SameMajorMinor(version.MustParse(version.Current)) {
			logging.Warn("scanning a document that is not 2.1.x", "version", v)
		}
	}
	return render.New(app.Stdout, format).Loss(inputName(c.Input), converter.ScanDataLoss(doc))
}

type ServeCmd struct {
	Port int `help:"HTTP server port (default from config)"`
}

func (c *ServeCmd) Run(app *App) error {
	cfg := api.ConfigFromSettings(app.Settings)
	if c.Port != 0 {
		cfg.Port = c.Port
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return api.New(cfg).Run(ctx)
}

type VersionCmd struct{}

func (c *VersionCmd) Run(app *App) error {
	fmt.Fprintf(app.Stdout, "stbconv version %s (ST-Bridge %s <-> %s)\n", appVersion, version.Legacy, version.Current)
	return nil
}

// Helper functions

func reportFormat(flag string, s *config.Settings) (render.Format, error) {
	if flag == "" {
		flag = s.Output.Format
	}
	return render.ParseFormat(flag)
}

func inputName(path string) string {
	if path == "-" {
		return "stdin"
	}
	return path
}

func readInput(app *App, path string) ([]byte, error) {
	if path == "-" {
		data, err := docio.Read(app.Stdin, 0)
		if err != nil {
			return nil, errors.NewIO("read", "stdin", err)
		}
		return data, nil
	}
	return docio.ReadFile(path)
}

func loadInput(app *App, path string) ([]byte, *tree.Document, error) {
	data, err := readInput(app, path)
	if err != nil {
		return nil, nil, err
	}
	doc, err := stbxml.Parse(data)
	if err != nil {
		return nil, nil, withPath(err, path)
	}
	return data, doc, nil
}

func withPath(err error, path string) error {
	var pe *errors.ParseError
	if errors.As(err, &pe) {
		pe.Path = inputName(path)
	}
	return err
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("stbconv"),
		kong.Description("ST-Bridge 2.0.2 <-> 2.1.0 schema migration"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)

	settings, err := config.Load(CLI.Config)
	ctx.FatalIfErrorf(err)
	settings.InitLogging()
	api.Version = appVersion

	start := time.Now()
	err = ctx.Run(&App{
		Settings: settings,
		Stdin:    os.Stdin,
		Stdout:   os.Stdout,
		Stderr:   os.Stderr,
	})
	logging.Debug("command finished", "command", ctx.Command(), "duration_ms", time.Since(start).Milliseconds())
	ctx.FatalIfErrorf(err)
}
