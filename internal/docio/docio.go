// Package docio reads and writes ST-Bridge documents on disk and over
// streams. xz-compressed documents are detected by magic bytes on read and
// produced on write when asked for or when the path ends in ".xz".
package docio

import (
	"bufio"
	"bytes"
	"encoding/hex"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/ulikunitz/xz"
	"github.com/zeebo/blake3"

	"github.com/FocuswithJustin/stbconv/core/errors"
	"github.com/FocuswithJustin/stbconv/core/stbxml"
	"github.com/FocuswithJustin/stbconv/core/tree"
)

// xzMagic is the xz stream header.
var xzMagic = []byte{0xFD, '7', 'z', 'X', 'Z', 0x00}

// Compression of a document stream.
type Compression string

const (
	None Compression = "none"
	XZ   Compression = "xz"
)

// ParseCompression maps a configuration value onto a Compression.
func ParseCompression(s string) (Compression, error) {
	switch Compression(strings.ToLower(strings.TrimSpace(s))) {
	case "", None:
		return None, nil
	case XZ:
		return XZ, nil
	}
	return None, errors.NewUnsupported("compression "+s, "only none and xz are supported")
}

// ForPath returns XZ for ".xz" paths and fallback otherwise.
func ForPath(path string, fallback Compression) Compression {
	if strings.HasSuffix(strings.ToLower(path), ".xz") {
		return XZ
	}
	return fallback
}

// Injectable for tests.
var (
	xzNewReader = xz.NewReader
	xzNewWriter = xz.NewWriter
)

// Read returns the full, decompressed content of r. A positive limit caps
// the decompressed size; content past it fails with *http.MaxBytesError.
func Read(r io.Reader, limit int64) ([]byte, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(len(xzMagic))
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, err
	}
	var src io.Reader = br
	if bytes.Equal(head, xzMagic) {
		xzr, err := xzNewReader(br)
		if err != nil {
			return nil, errors.Wrap(err, "xz reader")
		}
		src = xzr
	}
	if limit <= 0 {
		return io.ReadAll(src)
	}
	data, err := io.ReadAll(io.LimitReader(src, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, &http.MaxBytesError{Limit: limit}
	}
	return data, nil
}

// Write writes data to w, compressing it when c is XZ.
func Write(w io.Writer, data []byte, c Compression) error {
	if c != XZ {
		_, err := w.Write(data)
		return err
	}
	xzw, err := xzNewWriter(w)
	if err != nil {
		return errors.Wrap(err, "xz writer")
	}
	if _, err := xzw.Write(data); err != nil {
		xzw.Close()
		return err
	}
	return xzw.Close()
}

// ReadFile reads path, decompressing xz content.
func ReadFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.NewIO("open", path, err)
	}
	defer f.Close()
	data, err := Read(f, 0)
	if err != nil {
		return nil, errors.NewIO("read", path, err)
	}
	return data, nil
}

// WriteFile writes data to path. Compression follows ForPath(path, c).
func WriteFile(path string, data []byte, c Compression) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.NewIO("create", path, err)
	}
	if err := Write(f, data, ForPath(path, c)); err != nil {
		f.Close()
		return errors.NewIO("write", path, err)
	}
	if err := f.Close(); err != nil {
		return errors.NewIO("close", path, err)
	}
	return nil
}

// Digest is the hex BLAKE3-256 of data.
func Digest(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Loaded is a parsed document together with the digest of its XML.
type Loaded struct {
	Document *tree.Document
	Digest   string
	Size     int
}

// Load reads and parses a document from path.
func Load(path string) (*Loaded, error) {
	data, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	doc, err := stbxml.Parse(data)
	if err != nil {
		if pe, ok := err.(*errors.ParseError); ok {
			pe.Path = path
		}
		return nil, err
	}
	return &Loaded{Document: doc, Digest: Digest(data), Size: len(data)}, nil
}

// Save serializes doc to path and returns the digest of the uncompressed XML.
func Save(path string, doc *tree.Document, opts stbxml.Options, c Compression) (string, error) {
	data, err := stbxml.Serialize(doc, opts)
	if err != nil {
		return "", err
	}
	if err := WriteFile(path, data, c); err != nil {
		return "", err
	}
	return Digest(data), nil
}
