package rendersvc

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/shule/core/report"
)

// CSV renders every section as a block: a "# title" line, the header row, the rows,
// then the summary pairs. Blocks are separated by an empty line.
// Every record is padded to the widest one so that the file stays rectangular.
type CSV struct{}

var _ report.Renderer = CSV{}

func (CSV) ContentType() string { return "text/csv; charset=utf-8" }
func (CSV) Extension() string   { return ".csv" }

func (CSV) Render(w io.Writer, doc report.Document) error {
	width := 2 // summary pairs
	for _, s := range doc.Sections {
		if n := len(s.Table.Columns); n > width {
			width = n
		}
	}

	cw := csv.NewWriter(w)
	write := func(record ...string) {
		if len(record) < width {
			record = append(record, make([]string, width-len(record))...)
		}
		_ = cw.Write(record)
	}

	for i, s := range doc.Sections {
		if i > 0 {
			write()
		}
		if title := sectionTitle(doc, s); title != "" {
			write("# " + title)
		}
		if len(s.Table.Columns) > 0 {
			write(s.Table.Headers()...)
			for _, row := range s.Table.Rows {
				write(row...)
			}
		}
		for _, p := range s.Summary.Pairs {
			write(p.Label, p.Value)
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "csv.Writer")
}

func sectionTitle(doc report.Document, s report.Section) string {
	parts := make([]string, 0, 2)
	if doc.Title != "" {
		parts = append(parts, doc.Title)
	}
	if s.Title != "" {
		parts = append(parts, s.Title)
	}
	return strings.Join(parts, " - ")
}

// JSON renders the document as is.
type JSON struct{}

var _ report.Renderer = JSON{}

func (JSON) ContentType() string { return "application/json; charset=utf-8" }
func (JSON) Extension() string   { return ".json" }

func (JSON) Render(w io.Writer, doc report.Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(doc), "enc.Encode()")
}

var ErrUnknownFormat = errors.New("unknown report format")

// ForFormat returns the renderer of format: pdf, csv or json (the default).
func ForFormat(format string) (report.Renderer, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "json":
		return JSON{}, nil
	case "csv":
		return CSV{}, nil
	case "pdf":
		return PDF{}, nil
	default:
		return nil, ErrUnknownFormat
	}
}
