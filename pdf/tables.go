package pdf

import (
	"encoding/json"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Table holds one tabular region captured from a page. The first detected
// row is treated as the header row.
type Table struct {
	Name    string
	Headers []string
	Rows    [][]string
}

// MarshalJSON encodes the table in column orientation, one object per
// header keyed by row index:
//
//	{"Quantity": {"0": "12", "1": "7"}, "Unit": {"0": "kg", "1": "kg"}}
func (t Table) MarshalJSON() ([]byte, error) {
	columns := make(map[string]map[string]string, len(t.Headers))

	for col, header := range t.Headers {
		cells := make(map[string]string, len(t.Rows))
		for row := range t.Rows {
			if col < len(t.Rows[row]) {
				cells[strconv.Itoa(row)] = t.Rows[row][col]
			}
		}
		columns[header] = cells
	}

	return json.Marshal(columns)
}

// UnmarshalJSON restores a table from its column-oriented form. Column
// order is not carried by the JSON object, so headers come back sorted.
func (t *Table) UnmarshalJSON(data []byte) error {
	var columns map[string]map[string]string
	if err := json.Unmarshal(data, &columns); err != nil {
		return err
	}

	headers := make([]string, 0, len(columns))
	for header := range columns {
		headers = append(headers, header)
	}
	sort.Strings(headers)

	rowCount := 0
	for _, cells := range columns {
		for idx := range cells {
			n, err := strconv.Atoi(idx)
			if err != nil {
				continue
			}
			if n+1 > rowCount {
				rowCount = n + 1
			}
		}
	}

	rows := make([][]string, rowCount)
	for i := range rows {
		rows[i] = make([]string, len(headers))
	}
	for col, header := range headers {
		for idx, cell := range columns[header] {
			n, err := strconv.Atoi(idx)
			if err != nil || n >= rowCount {
				continue
			}
			rows[n][col] = cell
		}
	}

	t.Name = deriveTableName(headers)
	t.Headers = headers
	t.Rows = rows
	return nil
}

// Encode renders the table as its name followed by the JSON body, the
// form embedded in record metadata.
func (t Table) Encode() (string, error) {
	body, err := json.Marshal(t)
	if err != nil {
		return "", err
	}
	return t.Name + "\n" + string(body), nil
}

// deriveTableName joins the named header cells, skipping empty cells and
// generated "Col*" placeholders.
func deriveTableName(headers []string) string {
	parts := make([]string, 0, len(headers))
	for _, header := range headers {
		if header == "" || strings.Contains(header, "Col") {
			continue
		}
		parts = append(parts, header)
	}
	return strings.Join(parts, "_")
}

// cellSplit separates table cells on tab runs or two-plus spaces
var cellSplit = regexp.MustCompile(`\t+| {2,}`)

// detectTables scans page text for runs of consecutive lines whose cells
// align into the same column count. A run of at least two lines is a
// table; the first line supplies the headers.
func detectTables(text string) []Table {
	var tables []Table
	var block [][]string

	flush := func() {
		if len(block) >= 2 {
			tables = append(tables, Table{
				Name:    deriveTableName(block[0]),
				Headers: block[0],
				Rows:    block[1:],
			})
		}
		block = nil
	}

	for _, line := range strings.Split(text, "\n") {
		cells := splitCells(line)
		if len(cells) < 2 {
			flush()
			continue
		}
		if len(block) > 0 && len(block[0]) != len(cells) {
			flush()
		}
		block = append(block, cells)
	}
	flush()

	return tables
}

func splitCells(line string) []string {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}

	var cells []string
	for _, part := range cellSplit.Split(line, -1) {
		part = strings.TrimSpace(part)
		if part != "" {
			cells = append(cells, part)
		}
	}
	return cells
}
