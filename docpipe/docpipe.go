// Package docpipe extracts plain text from uploaded document payloads.
//
// Supported formats:
//   - PDF — detected by the %PDF- magic, parsed with pdfcpu (cross-reference
//     table + content stream text operators)
//   - plain text — valid UTF-8 payloads without a recognised magic
//
// Extraction is a pure transform over the provided bytes: no temp files, no
// side effects. Output preserves reading order line by line where the
// underlying format allows it.
package docpipe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"unicode/utf8"
)

// Extraction failure sentinels. Callers classify with errors.Is.
var (
	// ErrEmptyInput means the payload had no bytes at all.
	ErrEmptyInput = errors.New("docpipe: empty input")

	// ErrNoText means the document parsed but yielded no usable text.
	ErrNoText = errors.New("docpipe: no text content")

	// ErrUnsupported means the payload is neither a PDF nor UTF-8 text.
	ErrUnsupported = errors.New("docpipe: unsupported format")

	// ErrCorrupt means the payload claimed a supported format but could not
	// be parsed.
	ErrCorrupt = errors.New("docpipe: corrupt document")

	// ErrTooLarge means the payload exceeds Config.MaxInputSize.
	ErrTooLarge = errors.New("docpipe: input too large")
)

// Format identifies a payload type.
type Format string

const (
	FormatPDF Format = "pdf"
	FormatTXT Format = "txt"
)

var pdfMagic = []byte("%PDF-")

// Config configures the extraction pipeline.
type Config struct {
	// MaxInputSize is the maximum payload size to process (default: 25 MB).
	MaxInputSize int64 `json:"max_input_size" yaml:"max_input_size"`

	// Logger for debug/error messages.
	Logger *slog.Logger `json:"-" yaml:"-"`
}

func (c *Config) defaults() {
	if c.MaxInputSize <= 0 {
		c.MaxInputSize = 25 * 1024 * 1024
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Pipeline is the document extraction engine.
type Pipeline struct {
	cfg    Config
	logger *slog.Logger
}

// New creates a Pipeline with the given configuration.
func New(cfg Config) *Pipeline {
	cfg.defaults()
	return &Pipeline{
		cfg:    cfg,
		logger: cfg.Logger,
	}
}

// Detect returns the payload format based on content sniffing.
func (p *Pipeline) Detect(data []byte) (Format, error) {
	if len(data) == 0 {
		return "", ErrEmptyInput
	}
	if bytes.HasPrefix(data, pdfMagic) {
		return FormatPDF, nil
	}
	if utf8.Valid(data) {
		return FormatTXT, nil
	}
	return "", ErrUnsupported
}

// ExtractBytes extracts plain text from an uploaded payload.
// It returns ErrNoText when the document parses but contains no usable
// text (including text that scores as extraction garbage).
func (p *Pipeline) ExtractBytes(ctx context.Context, data []byte) (string, error) {
	if int64(len(data)) > p.cfg.MaxInputSize {
		return "", fmt.Errorf("%w: %d bytes (max %d)", ErrTooLarge, len(data), p.cfg.MaxInputSize)
	}

	format, err := p.Detect(data)
	if err != nil {
		return "", err
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	var text string
	var quality *ExtractionQuality
	switch format {
	case FormatPDF:
		text, quality, err = extractPDF(data)
	case FormatTXT:
		text = extractText(data)
	}
	if err != nil {
		return "", err
	}

	if text == "" {
		return "", ErrNoText
	}
	if quality != nil && quality.IsGarbage() {
		p.logger.Warn("extraction yielded garbage text",
			"printable_ratio", quality.PrintableRatio,
			"wordlike_ratio", quality.WordlikeRatio,
			"chars_per_page", quality.CharsPerPage)
		return "", ErrNoText
	}

	p.logger.Debug("extraction complete", "format", string(format), "chars", len(text))
	return text, nil
}
