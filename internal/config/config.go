// Package config loads stbconv settings.
//
// Sources are layered, later ones winning: embedded defaults, an optional
// TOML file, then STBCONV_ environment variables. A .env file in the working
// directory is loaded into the environment first. Environment keys use a
// double underscore between section and key, e.g. STBCONV_CONVERT__WARN_DATA_LOSS.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/FocuswithJustin/stbconv/core/converter"
	stberrors "github.com/FocuswithJustin/stbconv/core/errors"
	"github.com/FocuswithJustin/stbconv/internal/logging"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "STBCONV_"

// DefaultFile is looked up in the working directory when no path is given.
const DefaultFile = "stbconv.toml"

//go:embed defaults.toml
var defaultConfig []byte

// rawBytesProvider feeds embedded bytes to koanf.
type rawBytesProvider struct{ bytes []byte }

func (r *rawBytesProvider) ReadBytes() ([]byte, error) { return r.bytes, nil }
func (r *rawBytesProvider) Read() (map[string]interface{}, error) {
	return nil, errors.New("not implemented")
}

// Settings is the merged configuration.
type Settings struct {
	Convert ConvertSettings `koanf:"convert"`
	Log     LogSettings     `koanf:"log"`
	Output  OutputSettings  `koanf:"output"`
	API     APISettings     `koanf:"api"`
}

type ConvertSettings struct {
	SkipValidation   bool `koanf:"skip_validation"`
	PreserveOriginal bool `koanf:"preserve_original"`
	WarnDataLoss     bool `koanf:"warn_data_loss"`
}

type LogSettings struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// OutputSettings controls how the CLI writes documents and reports.
type OutputSettings struct {
	Format   string `koanf:"format"`   // report format: text, json or yaml
	Compress string `koanf:"compress"` // none or xz
	Indent   int    `koanf:"indent"`   // XML indent width
}

type APISettings struct {
	Port           int           `koanf:"port"`
	MaxBodyBytes   int64         `koanf:"max_body_bytes"`
	AllowedOrigins []string      `koanf:"allowed_origins"`
	CacheEntries   int           `koanf:"cache_entries"` // scan/detect results kept by digest; 0 disables
	CacheTTL       time.Duration `koanf:"cache_ttl"`
}

// Load reads settings. An empty path falls back to DefaultFile when it
// exists; an explicit path must exist.
func Load(path string) (*Settings, error) {
	// .env is optional
	_ = godotenv.Load()

	k := koanf.New(".")

	if err := k.Load(&rawBytesProvider{bytes: defaultConfig}, toml.Parser()); err != nil {
		return nil, stberrors.Wrap(err, "failed to load defaults")
	}

	if path == "" {
		if _, err := os.Stat(DefaultFile); err == nil {
			path = DefaultFile
		}
	} else if _, err := os.Stat(path); err != nil {
		return nil, stberrors.Wrapf(err, "config file %s", path)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return nil, stberrors.Wrapf(err, "failed to load config from %s", path)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, stberrors.Wrap(err, "failed to load env vars")
	}
	if v, ok := k.Get("api.allowed_origins").(string); ok {
		if err := k.Set("api.allowed_origins", splitList(v)); err != nil {
			return nil, stberrors.Wrap(err, "api.allowed_origins")
		}
	}

	var s Settings
	if err := k.Unmarshal("", &s); err != nil {
		return nil, stberrors.Wrap(err, "failed to unmarshal configuration")
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// envKey maps STBCONV_API__MAX_BODY_BYTES to api.max_body_bytes.
func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate rejects values the rest of the program cannot act on. Failures
// are *errors.ValidationError naming the offending key.
func (s *Settings) Validate() error {
	invalid := func(field string, value any, message string) error {
		return &stberrors.ValidationError{Field: field, Value: fmt.Sprint(value), Message: message}
	}
	if _, err := logging.ParseLevel(s.Log.Level); err != nil {
		return invalid("log.level", s.Log.Level, err.Error())
	}
	if _, err := logging.ParseFormat(s.Log.Format); err != nil {
		return invalid("log.format", s.Log.Format, err.Error())
	}
	switch s.Output.Format {
	case "text", "json", "yaml":
	default:
		return invalid("output.format", s.Output.Format, fmt.Sprintf("unknown format %q", s.Output.Format))
	}
	switch s.Output.Compress {
	case "none", "xz":
	default:
		return invalid("output.compress", s.Output.Compress, fmt.Sprintf("unknown compression %q", s.Output.Compress))
	}
	if s.Output.Indent < 0 {
		return invalid("output.indent", s.Output.Indent, "must not be negative")
	}
	if s.API.Port < 1 || s.API.Port > 65535 {
		return invalid("api.port", s.API.Port, fmt.Sprintf("%d out of range", s.API.Port))
	}
	if s.API.MaxBodyBytes <= 0 {
		return invalid("api.max_body_bytes", s.API.MaxBodyBytes, "must be positive")
	}
	if s.API.CacheEntries < 0 {
		return invalid("api.cache_entries", s.API.CacheEntries, "must not be negative")
	}
	if s.API.CacheTTL < 0 {
		return invalid("api.cache_ttl", s.API.CacheTTL, "must not be negative")
	}
	return nil
}

// ConvertOptions maps the convert section onto converter options.
func (s *Settings) ConvertOptions() converter.Options {
	return converter.Options{
		SkipValidation:   s.Convert.SkipValidation,
		PreserveOriginal: s.Convert.PreserveOriginal,
		WarnDataLoss:     s.Convert.WarnDataLoss,
	}
}

// InitLogging configures the global logger from the log section.
func (s *Settings) InitLogging() {
	level, _ := logging.ParseLevel(s.Log.Level)
	format, _ := logging.ParseFormat(s.Log.Format)
	logging.InitLogger(level, format)
}
