package api

import (
	"github.com/FocuswithJustin/stbconv/core/converter"
	"github.com/FocuswithJustin/stbconv/internal/cache"
	"github.com/FocuswithJustin/stbconv/internal/config"
)

// Config holds server configuration.
type Config struct {
	Port           int
	MaxBodyBytes   int64
	AllowedOrigins []string // CORS and websocket origins; empty or "*" allows all
	Indent         int      // XML indent width for converted documents
	Convert        converter.Options
	Cache          cache.Config // scan and detect results; MaxEntries 0 disables
}

// ConfigFromSettings builds a server configuration from loaded settings.
func ConfigFromSettings(s *config.Settings) Config {
	return Config{
		Port:           s.API.Port,
		MaxBodyBytes:   s.API.MaxBodyBytes,
		AllowedOrigins: s.API.AllowedOrigins,
		Indent:         s.Output.Indent,
		Convert:        s.ConvertOptions(),
		Cache: cache.Config{
			MaxEntries: s.API.CacheEntries,
			TTL:        s.API.CacheTTL,
		},
	}
}
