package exports

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/kpierre24/studio-sub001/internal/models"
)

func TestSerializeCSVQuoting(t *testing.T) {
	report := sampleReport("r1", 0)
	report.Data = []map[string]any{
		{"name": `say "hi", please`, "value": 1.5},
	}

	data, contentType, err := serialize(report, models.FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "text/csv", contentType)

	out := string(data)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "name,value", lines[0])
	// Fields containing the delimiter or quote character are quoted.
	assert.Contains(t, lines[1], `"say ""hi"", please"`)
	assert.Contains(t, lines[1], "1.5")
}

func TestSerializeCSVColumnUnion(t *testing.T) {
	report := sampleReport("r1", 0)
	report.Data = []map[string]any{
		{"a": 1},
		{"a": 2, "b": 3},
	}

	data, _, err := serialize(report, models.FormatCSV)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Equal(t, "a,b", lines[0])
	assert.Equal(t, "1,", lines[1], "missing fields serialize empty")
}

func TestSerializeJSONEnvelope(t *testing.T) {
	report := sampleReport("r1", 2)

	data, contentType, err := serialize(report, models.FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, "application/json", contentType)

	var envelope map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &envelope))
	assert.Contains(t, envelope, "metadata")
	assert.Contains(t, envelope, "summary")
	assert.Contains(t, envelope, "data")

	var rows []map[string]any
	require.NoError(t, json.Unmarshal(envelope["data"], &rows))
	assert.Len(t, rows, 2)
}

func TestSerializeXLSX(t *testing.T) {
	report := sampleReport("r1", 2)

	data, contentType, err := serialize(report, models.FormatXLSX)
	require.NoError(t, err)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", contentType)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Report")
	require.NoError(t, err)
	require.Len(t, rows, 3, "header plus two data rows")
	assert.Equal(t, []string{"name", "value"}, rows[0])
}

func TestSerializeDocumentPagination(t *testing.T) {
	report := sampleReport("r1", 85)

	data, contentType, err := serialize(report, models.FormatDocument)
	require.NoError(t, err)
	assert.Equal(t, "text/plain", contentType)

	out := string(data)
	// 85 rows at 40 per page is 3 pages.
	assert.Contains(t, out, "page 1 of 3")
	assert.Contains(t, out, "page 3 of 3")
	assert.Equal(t, 3, strings.Count(out, "\f"))
	assert.Contains(t, out, "everything is fine", "summary lands on the final page")
}

func TestSerializeUnknownFormat(t *testing.T) {
	_, _, err := serialize(sampleReport("r1", 1), "vinyl")
	assert.Error(t, err)
}
