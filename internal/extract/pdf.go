package extract

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ErrNoText is wrapped when a PDF parses but yields no text, typically a
// scanned document without an OCR layer.
var ErrNoText = errors.New("no extractable text")

// ExtractionError means the document could not be read and must be
// re-uploaded.
type ExtractionError struct {
	Source string
	Err    error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: %v", e.Source, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// Document is the extracted text of a PDF.
type Document struct {
	Source string   `json:"source"`
	Pages  []string `json:"-"`
	Text   string   `json:"-"`
}

func (d Document) PageCount() int { return len(d.Pages) }

// File extracts text from a PDF on disk.
func File(path string) (Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return Document{}, &ExtractionError{Source: path, Err: err}
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return Document{}, &ExtractionError{Source: path, Err: err}
	}
	return read(path, f, info.Size())
}

// Bytes extracts text from an in-memory PDF, such as an upload.
func Bytes(name string, b []byte) (Document, error) {
	return read(name, bytes.NewReader(b), int64(len(b)))
}

func read(source string, r io.ReaderAt, size int64) (doc Document, err error) {
	// The parser panics on some malformed cross-reference tables.
	defer func() {
		if p := recover(); p != nil {
			doc, err = Document{}, &ExtractionError{Source: source, Err: fmt.Errorf("malformed pdf: %v", p)}
		}
	}()

	reader, err := pdf.NewReader(r, size)
	if err != nil {
		return Document{}, &ExtractionError{Source: source, Err: err}
	}

	n := reader.NumPage()
	if n == 0 {
		return Document{}, &ExtractionError{Source: source, Err: errors.New("document has no pages")}
	}
	fonts := make(map[string]*pdf.Font)
	pages := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		p := reader.Page(i)
		if p.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		for _, name := range p.Fonts() {
			if _, ok := fonts[name]; !ok {
				f := p.Font(name)
				fonts[name] = &f
			}
		}
		text, err := p.GetPlainText(fonts)
		if err != nil {
			return Document{}, &ExtractionError{Source: source, Err: fmt.Errorf("page %d: %w", i, err)}
		}
		pages = append(pages, strings.TrimSpace(text))
	}

	doc = Document{Source: source, Pages: pages, Text: JoinPages(pages)}
	if strings.TrimSpace(doc.Text) == "" {
		return Document{}, &ExtractionError{Source: source, Err: ErrNoText}
	}
	return doc, nil
}

// JoinPages joins page texts with a blank line, skipping empty pages.
func JoinPages(pages []string) string {
	var b strings.Builder
	for _, p := range pages {
		if p == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(p)
	}
	return b.String()
}
