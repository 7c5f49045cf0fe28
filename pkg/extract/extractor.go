package extract

import (
	"strings"
	"unicode/utf8"

	"veritas-data-pipeline/internal/pkg/apperror"
)

const (
	MimeTextPlain = "text/plain"
	MimeTextHTML  = "text/html"
	MimeTextCSV   = "text/csv"
	MimePDF       = "application/pdf"
	MimeDoc       = "application/msword"
	MimeDocx      = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MimeXls       = "application/vnd.ms-excel"
	MimeXlsx      = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// binaryPreviewLimit bounds best-effort extraction of binary office formats.
const binaryPreviewLimit = 1000

type extractorFunc func(content []byte) (string, error)

// Registry maps MIME types to extraction routines. The per-format parsing is
// deliberately thin; the pipeline treats this as a black-box
// Extract(bytes, mimeType) -> text capability.
type Registry struct {
	extractors map[string]extractorFunc
}

func NewRegistry() *Registry {
	r := &Registry{extractors: make(map[string]extractorFunc)}
	r.extractors[MimeTextPlain] = extractText
	r.extractors[MimeTextCSV] = extractText
	r.extractors[MimeTextHTML] = extractHTML
	r.extractors[MimePDF] = extractBinaryPreview("PDF")
	r.extractors[MimeDoc] = extractBinaryPreview("Legacy DOC")
	r.extractors[MimeDocx] = extractBinaryPreview("DOCX")
	r.extractors[MimeXls] = extractBinaryPreview("Excel")
	r.extractors[MimeXlsx] = extractBinaryPreview("Excel")
	return r
}

// Extract returns the text content of a document.
// Unsupported MIME types are a validation error.
func (r *Registry) Extract(content []byte, mimeType string) (string, error) {
	fn, ok := r.extractors[mimeType]
	if !ok {
		return "", apperror.Validationf("unsupported MIME type: %s", mimeType)
	}
	return fn(content)
}

func (r *Registry) IsSupported(mimeType string) bool {
	_, ok := r.extractors[mimeType]
	return ok
}

func (r *Registry) SupportedMimeTypes() []string {
	types := make([]string, 0, len(r.extractors))
	for mt := range r.extractors {
		types = append(types, mt)
	}
	return types
}

func extractText(content []byte) (string, error) {
	if utf8.Valid(content) {
		return string(content), nil
	}
	// Fall back to a latin-1 interpretation so no bytes are lost.
	runes := make([]rune, len(content))
	for i, b := range content {
		runes[i] = rune(b)
	}
	return string(runes), nil
}

// extractHTML strips markup and returns the visible text. Script and style
// bodies are discarded.
func extractHTML(content []byte) (string, error) {
	text, err := extractText(content)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	inTag := false
	skipUntil := ""
	lower := strings.ToLower(text)

	for i := 0; i < len(text); i++ {
		if skipUntil != "" {
			if strings.HasPrefix(lower[i:], skipUntil) {
				i += len(skipUntil) - 1
				skipUntil = ""
			}
			continue
		}

		ch := text[i]
		switch {
		case ch == '<':
			inTag = true
			if strings.HasPrefix(lower[i:], "<script") {
				skipUntil = "</script>"
			} else if strings.HasPrefix(lower[i:], "<style") {
				skipUntil = "</style>"
			}
		case ch == '>':
			inTag = false
			sb.WriteByte(' ')
		case !inTag:
			sb.WriteByte(ch)
		}
	}

	return strings.Join(strings.Fields(sb.String()), " "), nil
}

// extractBinaryPreview returns a bounded textual preview for binary formats
// the pipeline has no native parser for.
func extractBinaryPreview(formatName string) extractorFunc {
	return func(content []byte) (string, error) {
		var sb strings.Builder
		count := 0
		for _, b := range content {
			if count >= binaryPreviewLimit {
				break
			}
			if b >= 32 && b < 127 {
				sb.WriteByte(b)
				count++
			} else if sb.Len() > 0 && !strings.HasSuffix(sb.String(), " ") {
				sb.WriteByte(' ')
				count++
			}
		}
		return sb.String() + " [" + formatName + " format - limited text extraction]", nil
	}
}
