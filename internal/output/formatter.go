// Package output renders analysis results as text, markdown, JSON or TOON.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	toon "github.com/toon-format/toon-go"
)

// Format is an output format name.
type Format string

const (
	FormatText     Format = "text"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
	FormatTOON     Format = "toon"
)

var formatAliases = map[string]Format{
	"json":     FormatJSON,
	"markdown": FormatMarkdown,
	"md":       FormatMarkdown,
	"toon":     FormatTOON,
}

// ParseFormat resolves a format name. Unknown names mean text.
func ParseFormat(s string) Format {
	if f, ok := formatAliases[strings.ToLower(s)]; ok {
		return f
	}
	return FormatText
}

// Renderable is a result with a human layout (text, markdown) and a data
// form used for JSON and TOON.
type Renderable interface {
	RenderText(w io.Writer, colored bool) error
	RenderMarkdown(w io.Writer) error
	RenderData() any
}

// Formatter writes results in one format to one destination.
type Formatter struct {
	format  Format
	w       io.Writer
	closer  io.Closer
	colored bool
}

// NewFormatter writes to stdout, or creates the file at path when path is
// set. Files never receive color codes.
func NewFormatter(format Format, path string, colored bool) (*Formatter, error) {
	if path == "" {
		return NewWriterFormatter(format, os.Stdout, colored), nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create output file: %w", err)
	}
	return &Formatter{format: format, w: f, closer: f}, nil
}

func NewWriterFormatter(format Format, w io.Writer, colored bool) *Formatter {
	return &Formatter{format: format, w: w, colored: colored}
}

func (f *Formatter) Close() error {
	if f.closer == nil {
		return nil
	}
	return f.closer.Close()
}

func (f *Formatter) Format() Format { return f.format }

func (f *Formatter) Colored() bool { return f.colored }

// Output writes data. A Renderable uses its own layouts; anything else is
// emitted as JSON (fenced in markdown) or TOON.
func (f *Formatter) Output(data any) error {
	r, ok := data.(Renderable)
	switch f.format {
	case FormatJSON:
		if ok {
			data = r.RenderData()
		}
		return writeJSON(f.w, data)
	case FormatTOON:
		if ok {
			data = r.RenderData()
		}
		return writeTOON(f.w, data)
	case FormatMarkdown:
		if ok {
			return r.RenderMarkdown(f.w)
		}
		return writeFencedJSON(f.w, data)
	default:
		if ok {
			return r.RenderText(f.w, f.colored)
		}
		return writeJSON(f.w, data)
	}
}

func writeJSON(w io.Writer, data any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

func writeFencedJSON(w io.Writer, data any) error {
	if _, err := io.WriteString(w, "```json\n"); err != nil {
		return err
	}
	if err := writeJSON(w, data); err != nil {
		return err
	}
	_, err := io.WriteString(w, "```\n")
	return err
}

func writeTOON(w io.Writer, data any) error {
	text, err := MarshalTOON(data)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, text)
	return err
}

// MarshalTOON encodes data as TOON after a JSON round trip, so json tags
// and MarshalJSON methods decide the field names.
func MarshalTOON(data any) (string, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return "", err
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return "", err
	}
	out, err := toon.Marshal(generic, toon.WithIndent(2))
	if err != nil {
		return "", fmt.Errorf("toon: %w", err)
	}
	return string(out), nil
}

// Success prints a status line, green when colored.
func (f *Formatter) Success(format string, args ...any) {
	f.status(color.FgGreen, "", format, args...)
}

// Warning prints a status line prefixed with WARNING, yellow when colored.
func (f *Formatter) Warning(format string, args ...any) {
	f.status(color.FgYellow, "WARNING: ", format, args...)
}

func (f *Formatter) status(attr color.Attribute, prefix, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if f.colored {
		color.New(attr).Fprintln(f.w, msg)
		return
	}
	fmt.Fprintln(f.w, prefix+msg)
}
