package rendersvc

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/shule/core/report"
)

func testDocument() report.Document {
	cols := []report.Column{{Header: "Class", Key: "class"}, {Header: "Percentage", Key: "percentage"}}
	return report.Document{
		Title:       "Attendance",
		Subtitle:    "2021-03-01 to 2021-03-31",
		GeneratedAt: time.Date(2021, time.April, 1, 9, 30, 0, 0, time.UTC),
		Sections: []report.Section{
			{
				Title: "Classes",
				Table: report.ProjectTable([]report.Row{
					{"class": "Grade 1 A", "percentage": 70},
					{"class": "Grade 2, B", "percentage": 95},
				}, cols),
				Summary: report.SummaryBlock{Pairs: []report.Pair{{Label: "Overall", Value: "82"}}},
			},
			{Title: "Empty", Table: report.ProjectTable(nil, cols)},
		},
	}
}

func TestCSV_Render(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, CSV{}.Render(&buf, testDocument()))

	want := strings.Join([]string{
		"# Attendance - Classes,",
		"Class,Percentage",
		"Grade 1 A,70",
		`"Grade 2, B",95`,
		"Overall,82",
		",",
		"# Attendance - Empty,",
		"Class,Percentage",
		"",
	}, "\n")
	assert.Equal(t, want, buf.String())

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Len(t, records, 8)
}

func TestCSV_RenderPadsToWidestSection(t *testing.T) {
	cols := []report.Column{{Header: "A", Key: "a"}, {Header: "B", Key: "b"}, {Header: "C", Key: "c"}}
	doc := report.Document{Title: "Wide", Sections: []report.Section{
		{Title: "Totals", Summary: report.ProjectSummary([]report.Pair{{Label: "Total", Value: "3"}})},
		{Table: report.ProjectTable([]report.Row{{"a": 1, "b": 2}}, cols)},
	}}

	var buf bytes.Buffer
	require.NoError(t, CSV{}.Render(&buf, doc))
	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	for _, r := range records {
		assert.Len(t, r, 3)
	}
	assert.Equal(t, []string{"Total", "3", ""}, records[1])
	assert.Equal(t, []string{"1", "2", ""}, records[5])
}

func TestJSON_Render(t *testing.T) {
	var buf bytes.Buffer
	doc := testDocument()
	require.NoError(t, JSON{}.Render(&buf, doc))

	var got report.Document
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, doc.Title, got.Title)
	assert.Equal(t, "95", got.Sections[0].Table.Value(1, "percentage"))
}

func TestPDF_Render(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PDF{}.Render(&buf, testDocument()))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func TestPDF_RenderManyRows(t *testing.T) {
	cols := []report.Column{{Header: "N", Key: "n"}}
	rows := make([]report.Row, 200)
	for i := range rows {
		rows[i] = report.Row{"n": i}
	}
	doc := report.Document{Title: "Long", Sections: []report.Section{{Table: report.ProjectTable(rows, cols)}}}

	var buf bytes.Buffer
	require.NoError(t, PDF{}.Render(&buf, doc))
	assert.NotZero(t, buf.Len())
}

func TestColumnWidths(t *testing.T) {
	table := report.Table{
		Columns: []report.Column{{Header: "Name"}, {Header: "N"}},
		Rows:    [][]string{{"A very long student name", "1"}},
	}
	widths := columnWidths(table, 60)
	require.Len(t, widths, 2)
	assert.Equal(t, pdfMinColWidth, widths[1])
	assert.InDelta(t, 60, widths[0]+widths[1], 0.001)
}

func TestForFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantExt string
		wantErr error
	}{
		{"", ".json", nil},
		{"json", ".json", nil},
		{"CSV", ".csv", nil},
		{"pdf", ".pdf", nil},
		{"xlsx", "", ErrUnknownFormat},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			r, err := ForFormat(tt.format)
			assert.Equal(t, tt.wantErr, err)
			if err == nil {
				assert.Equal(t, tt.wantExt, r.Extension())
			}
		})
	}
}
