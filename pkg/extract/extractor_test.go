package extract

import (
	"strings"
	"testing"

	"veritas-data-pipeline/internal/pkg/apperror"
)

func TestExtractPlainText(t *testing.T) {
	r := NewRegistry()

	text, err := r.Extract([]byte("hello world"), MimeTextPlain)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "hello world" {
		t.Errorf("text = %q, want %q", text, "hello world")
	}
}

func TestExtractTextInvalidUTF8(t *testing.T) {
	r := NewRegistry()

	// 0xE9 is latin-1 é, not valid UTF-8 on its own.
	text, err := r.Extract([]byte{'c', 'a', 'f', 0xE9}, MimeTextPlain)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "café" {
		t.Errorf("text = %q, want café", text)
	}
}

func TestExtractHTML(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{
			name: "simple markup",
			html: "<html><body><h1>Title</h1><p>Body text</p></body></html>",
			want: "Title Body text",
		},
		{
			name: "script body dropped",
			html: "<p>Visible</p><script>var hidden = 1;</script><p>Also visible</p>",
			want: "Visible Also visible",
		},
		{
			name: "style body dropped",
			html: "<style>.x { color: red }</style><span>Text</span>",
			want: "Text",
		},
	}

	r := NewRegistry()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Extract([]byte(tt.html), MimeTextHTML)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("text = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractBinaryPreview(t *testing.T) {
	r := NewRegistry()

	content := append([]byte("%PDF-1.4 some readable header"), 0x00, 0x01, 0x02)
	text, err := r.Extract(content, MimePDF)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(text, "%PDF-1.4") {
		t.Errorf("preview should keep printable bytes, got %q", text)
	}
	if !strings.Contains(text, "[PDF format - limited text extraction]") {
		t.Errorf("preview should carry the format marker, got %q", text)
	}
}

func TestExtractUnsupportedMimeType(t *testing.T) {
	r := NewRegistry()

	_, err := r.Extract([]byte("data"), "application/x-unknown")
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !apperror.IsKind(err, apperror.KindValidation) {
		t.Errorf("error kind = %v, want KindValidation", apperror.KindOf(err))
	}
}

func TestIsSupported(t *testing.T) {
	r := NewRegistry()

	for _, mt := range []string{MimeTextPlain, MimeTextHTML, MimeTextCSV, MimePDF, MimeDocx, MimeXlsx} {
		if !r.IsSupported(mt) {
			t.Errorf("%s should be supported", mt)
		}
	}
	if r.IsSupported("video/mp4") {
		t.Errorf("video/mp4 should not be supported")
	}
}
