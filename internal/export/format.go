package export

import (
	"errors"
	"fmt"
	"strings"
)

type Format string

const (
	Text     Format = "text"
	Markdown Format = "markdown"
	HTML     Format = "html"
)

var ErrUnknownFormat = errors.New("unknown export format")

func Formats() []Format { return []Format{Text, Markdown, HTML} }

// ParseFormat accepts format names and their usual file extensions. An empty
// string selects Markdown.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "md", "markdown":
		return Markdown, nil
	case "txt", "text", "plain":
		return Text, nil
	case "html", "htm":
		return HTML, nil
	}
	return "", fmt.Errorf("%w %q (want text, markdown or html)", ErrUnknownFormat, s)
}

func (f Format) Ext() string {
	switch f {
	case Text:
		return ".txt"
	case HTML:
		return ".html"
	}
	return ".md"
}

func (f Format) ContentType() string {
	switch f {
	case Text:
		return "text/plain; charset=utf-8"
	case HTML:
		return "text/html; charset=utf-8"
	}
	return "text/markdown; charset=utf-8"
}
