package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/FocuswithJustin/stbconv/core/converter"
	stberrors "github.com/FocuswithJustin/stbconv/core/errors"
	"github.com/FocuswithJustin/stbconv/core/report"
	"github.com/FocuswithJustin/stbconv/core/stbxml"
	"github.com/FocuswithJustin/stbconv/core/tree"
	"github.com/FocuswithJustin/stbconv/core/version"
	"github.com/FocuswithJustin/stbconv/internal/docio"
	"github.com/FocuswithJustin/stbconv/internal/logging"
	"github.com/FocuswithJustin/stbconv/internal/server"
)

// APIResponse is the standard API response format.
type APIResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *APIError `json:"error,omitempty"`
	Meta    *APIMeta  `json:"meta,omitempty"`
}

// APIError represents an API error.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// APIMeta contains response metadata.
type APIMeta struct {
	RequestID string `json:"request_id,omitempty"`
	Timestamp string `json:"timestamp"`
}

// HealthInfo is returned by /health.
type HealthInfo struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
	Clients int    `json:"websocket_clients"`
}

// ConvertResult is returned by the conversion endpoints.
type ConvertResult struct {
	ConversionID string         `json:"conversion_id"`
	Direction    string         `json:"direction"`
	Document     string         `json:"document"`
	Report       *report.Report `json:"report"`
	InputDigest  string         `json:"input_blake3"`
	OutputDigest string         `json:"output_blake3"`
	DurationMS   int64          `json:"duration_ms"`
}

// DetectResult is returned by /detect.
type DetectResult struct {
	Version   string `json:"version"`
	Supported bool   `json:"supported"`
	Direction string `json:"direction,omitempty"` // conversion that applies to this version
}

// ScanResult is returned by /scan.
type ScanResult struct {
	Version  string          `json:"version,omitempty"`
	DataLoss report.DataLoss `json:"data_loss"`
	Total    int             `json:"total"`
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	respond(w, r, http.StatusOK, map[string]any{
		"name":    "stbconv",
		"version": Version,
		"endpoints": []string{
			"GET /health",
			"POST /convert/forward",
			"POST /convert/reverse",
			"POST /detect",
			"POST /scan",
			"GET /ws",
			"GET /metrics",
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respond(w, r, http.StatusOK, HealthInfo{
		Status:  "healthy",
		Version: Version,
		Uptime:  time.Since(s.started).Round(time.Second).String(),
		Clients: s.hub.ClientCount(),
	})
}

// readBody reads an XML (optionally xz-compressed) request body. The body
// limit applies to both the wire bytes and the decompressed document. On
// failure it writes the error response and returns false.
func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	if !server.ValidateContentType(r.Header.Get("Content-Type"), server.XMLContentTypes) {
		respondError(w, r, http.StatusUnsupportedMediaType, "UNSUPPORTED_MEDIA_TYPE", "send the document as application/xml")
		return nil, false
	}
	data, err := docio.Read(r.Body, s.cfg.MaxBodyBytes)
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			respondError(w, r, http.StatusRequestEntityTooLarge, "BODY_TOO_LARGE", err.Error())
			return nil, false
		}
		respondError(w, r, http.StatusBadRequest, "READ_FAILED", err.Error())
		return nil, false
	}
	if len(data) == 0 {
		respondError(w, r, http.StatusBadRequest, "EMPTY_BODY", "request body is empty")
		return nil, false
	}
	return data, true
}

// parseBody reads and parses the request document.
func (s *Server) parseBody(w http.ResponseWriter, r *http.Request) (*tree.Document, []byte, bool) {
	data, ok := s.readBody(w, r)
	if !ok {
		return nil, nil, false
	}
	doc, err := stbxml.Parse(data)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "PARSE_FAILED", err.Error())
		return nil, nil, false
	}
	return doc, data, true
}

// options applies query overrides to the configured conversion options.
func (s *Server) options(r *http.Request) (converter.Options, error) {
	opts := s.cfg.Convert
	q := r.URL.Query()
	for name, dst := range map[string]*bool{
		"skip_validation": &opts.SkipValidation,
		"warn_data_loss":  &opts.WarnDataLoss,
	} {
		v := q.Get(name)
		if v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return opts, stberrors.NewValidation(name, "must be a boolean")
		}
		*dst = b
	}
	// Request documents are never shared, so converting in place is safe.
	opts.PreserveOriginal = false
	return opts, nil
}

func (s *Server) handleConvert(dir report.Direction) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doc, data, ok := s.parseBody(w, r)
		if !ok {
			s.metrics.observe(dir, outcomeRejected, 0, report.DataLoss{})
			return
		}
		opts, err := s.options(r)
		if err != nil {
			s.metrics.observe(dir, outcomeRejected, 0, report.DataLoss{})
			respondError(w, r, http.StatusBadRequest, "INVALID_OPTION", err.Error())
			return
		}

		id := uuid.NewString()
		w.Header().Set("X-Conversion-ID", id)
		s.hub.Broadcast(Event{Type: EventStart, ConversionID: id, Direction: string(dir)})

		conv := converter.New(
			converter.WithIDFunc(func() string { return id }),
			converter.WithLogger(logging.LoggerFromContext(r.Context())),
		)
		var res *converter.Result
		if dir == report.Reverse {
			res, err = conv.Reverse(doc, opts)
		} else {
			res, err = conv.Forward(doc, opts)
		}
		if err != nil {
			s.failConversion(w, r, id, dir, err)
			return
		}

		out, err := stbxml.Serialize(res.Document, stbxml.Options{Indent: s.cfg.Indent})
		if err != nil {
			s.failConversion(w, r, id, dir, err)
			return
		}

		rep := res.Report
		s.metrics.observe(dir, outcomeSuccess, res.Duration, rep.DataLoss)
		logging.Conversion(r.Context(), id, string(dir), res.Duration, len(rep.Warnings()))
		s.hub.Broadcast(Event{
			Type:         EventComplete,
			ConversionID: id,
			Direction:    string(dir),
			Data: map[string]any{
				"warnings":  len(rep.Warnings()),
				"data_loss": rep.DataLoss.Total(),
			},
		})

		respond(w, r, http.StatusOK, ConvertResult{
			ConversionID: id,
			Direction:    string(dir),
			Document:     string(out),
			Report:       rep,
			InputDigest:  docio.Digest(data),
			OutputDigest: docio.Digest(out),
			DurationMS:   res.Duration.Milliseconds(),
		})
	}
}

func (s *Server) failConversion(w http.ResponseWriter, r *http.Request, id string, dir report.Direction, err error) {
	s.metrics.observe(dir, outcomeFailed, 0, report.DataLoss{})
	logging.ConversionError(r.Context(), string(dir), err, "conversion_id", id)
	s.hub.Broadcast(Event{Type: EventError, ConversionID: id, Direction: string(dir), Message: err.Error()})

	switch {
	case stberrors.Is(err, stberrors.ErrMalformed):
		respondError(w, r, http.StatusUnprocessableEntity, "MALFORMED_DOCUMENT", err.Error())
	case stberrors.Is(err, stberrors.ErrConversion):
		respondError(w, r, http.StatusUnprocessableEntity, "CONVERSION_FAILED", err.Error())
	default:
		respondError(w, r, http.StatusInternalServerError, "INTERNAL", err.Error())
	}
}

func (s *Server) handleDetect(w http.ResponseWriter, r *http.Request) {
	data, ok := s.readBody(w, r)
	if !ok {
		return
	}
	key := docio.Digest(data)
	if s.versions != nil {
		if v, ok := s.versions.Get(key); ok {
			respond(w, r, http.StatusOK, detect(v))
			return
		}
	}
	v, err := stbxml.SniffVersion(data)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "PARSE_FAILED", err.Error())
		return
	}
	if s.versions != nil {
		s.versions.Put(key, v)
	}
	respond(w, r, http.StatusOK, detect(v))
}

func detect(v string) DetectResult {
	res := DetectResult{Version: v}
	parsed, err := version.Parse(v)
	if err != nil {
		return res
	}
	switch {
	case parsed.SameMajorMinor(version.MustParse(version.Legacy)):
		res.Supported, res.Direction = true, string(report.Forward)
	case parsed.SameMajorMinor(version.MustParse(version.Current)):
		res.Supported, res.Direction = true, string(report.Reverse)
	}
	return res
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	data, ok := s.readBody(w, r)
	if !ok {
		return
	}
	key := docio.Digest(data)
	if s.scans != nil {
		if res, ok := s.scans.Get(key); ok {
			respond(w, r, http.StatusOK, res)
			return
		}
	}
	doc, err := stbxml.Parse(data)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "PARSE_FAILED", err.Error())
		return
	}
	loss := converter.ScanDataLoss(doc)
	v, _ := converter.DetectVersion(doc)
	res := ScanResult{Version: v, DataLoss: loss, Total: loss.Total()}
	if s.scans != nil {
		s.scans.Put(key, res)
	}
	respond(w, r, http.StatusOK, res)
}

func meta(r *http.Request) *APIMeta {
	return &APIMeta{
		RequestID: logging.GetRequestID(r.Context()),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

func respond(w http.ResponseWriter, r *http.Request, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(APIResponse{Success: true, Data: data, Meta: meta(r)})
}

func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(APIResponse{
		Success: false,
		Error:   &APIError{Code: code, Message: message},
		Meta:    meta(r),
	})
}
