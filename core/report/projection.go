package report

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/trezcool/shule/core"
)

type (
	Column struct {
		Header string `json:"header"`
		Key    string `json:"key"`
	}

	// Row is one entity flattened to primitive values, keyed like the table columns.
	Row map[string]interface{}

	// Table is a rendered-ready projection: every cell is already text.
	Table struct {
		Columns []Column   `json:"columns"`
		Rows    [][]string `json:"rows"`
	}

	Pair struct {
		Label string `json:"label"`
		Value string `json:"value"`
	}

	SummaryBlock struct {
		Pairs []Pair `json:"pairs"`
	}

	Section struct {
		Title   string       `json:"title"`
		Table   Table        `json:"table"`
		Summary SummaryBlock `json:"summary"`
	}

	Document struct {
		Title       string    `json:"title"`
		Subtitle    string    `json:"subtitle"`
		GeneratedAt time.Time `json:"generated_at"`
		Sections    []Section `json:"sections"`
	}

	// Renderer turns a document into bytes (PDF, CSV, ...).
	Renderer interface {
		Render(w io.Writer, doc Document) error
		ContentType() string
		Extension() string
	}
)

// ProjectTable flattens rows into the columns' order. Missing keys and nil values become "".
func ProjectTable(rows []Row, columns []Column) Table {
	cols := make([]Column, len(columns))
	copy(cols, columns)

	table := Table{Columns: cols, Rows: make([][]string, 0, len(rows))}
	for _, row := range rows {
		cells := make([]string, len(cols))
		for i, col := range cols {
			cells[i] = FormatValue(row[col.Key])
		}
		table.Rows = append(table.Rows, cells)
	}
	return table
}

// Value returns the cell of row i under key, "" when either is unknown.
func (t Table) Value(i int, key string) string {
	if i < 0 || i >= len(t.Rows) {
		return ""
	}
	for j, col := range t.Columns {
		if col.Key == key && j < len(t.Rows[i]) {
			return t.Rows[i][j]
		}
	}
	return ""
}

func (t Table) Headers() []string {
	headers := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		headers[i] = col.Header
	}
	return headers
}

func ProjectSummary(pairs []Pair) SummaryBlock {
	block := SummaryBlock{Pairs: make([]Pair, len(pairs))}
	copy(block.Pairs, pairs)
	return block
}

func (b SummaryBlock) IsEmpty() bool { return len(b.Pairs) == 0 }

// FormatValue renders a primitive cell value.
// Floats use the shortest form that reads back to the same value, dates use YYYY-MM-DD.
func FormatValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case int32:
		return strconv.FormatInt(int64(val), 10)
	case int64:
		return strconv.FormatInt(val, 10)
	case uint:
		return strconv.FormatUint(uint64(val), 10)
	case uint64:
		return strconv.FormatUint(val, 10)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case time.Time:
		if val.IsZero() {
			return ""
		}
		return val.Format(core.DateLayout)
	case *time.Time:
		if val == nil {
			return ""
		}
		return FormatValue(*val)
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}
