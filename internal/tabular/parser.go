package tabular

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
)

var (
	ErrEmptyFile         = errors.New("file is empty")
	ErrUnsupportedFormat = errors.New("unsupported file format: use .csv, .xls or .xlsx")
	ErrLegacyWorkbook    = errors.New("legacy binary .xls workbooks are not supported, save the file as .xlsx or .csv")
)

const preferredSheet = "Products"

// Row is one data row keyed by normalized header
type Row struct {
	Number int
	Values map[string]string
}

// Get returns the trimmed value of column, or "" when absent
func (r Row) Get(column string) string {
	return strings.TrimSpace(r.Values[column])
}

// IsBlank reports whether every cell in the row is empty
func (r Row) IsBlank() bool {
	for _, v := range r.Values {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// Table is the format-independent result of parsing an upload
type Table struct {
	Headers []string
	Rows    []Row
}

// HasHeader reports whether the normalized header is present
func (t *Table) HasHeader(name string) bool {
	for _, h := range t.Headers {
		if h == name {
			return true
		}
	}
	return false
}

// Parse reads an uploaded file, choosing the reader from the file extension
func Parse(fileName string, data []byte) (*Table, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyFile
	}

	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".csv":
		return parseDelimited(data, ',')
	case ".xlsx":
		return parseWorkbook(data)
	case ".xls":
		table, err := parseWorkbook(data)
		if err == nil {
			return table, nil
		}
		// .xls files produced by our own export are CSV-shaped text
		if looksLikeText(data) {
			return parseDelimited(data, detectDelimiter(data))
		}
		return nil, ErrLegacyWorkbook
	default:
		return nil, ErrUnsupportedFormat
	}
}

// NormalizeHeader lower-cases a header, drops all whitespace and the
// trailing required marker
func NormalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	h = strings.TrimSpace(h)
	h = strings.TrimSuffix(h, "*")
	h = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, h)
	return strings.ToLower(h)
}

func parseDelimited(data []byte, delimiter rune) (*Table, error) {
	data = bytes.TrimPrefix(data, []byte("\ufeff"))

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, ErrEmptyFile
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	table := &Table{Headers: normalizeHeaders(header)}
	for {
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read file: %w", err)
		}
		// rows are numbered by the file line they start on
		line, _ := reader.FieldPos(0)
		table.Rows = append(table.Rows, buildRow(table.Headers, fields, line))
	}
	return table, nil
}

func parseWorkbook(data []byte) (*Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets found in workbook")
	}
	sheetName := sheets[0]
	for _, name := range sheets {
		if strings.EqualFold(name, preferredSheet) {
			sheetName = name
			break
		}
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheetName, err)
	}
	if len(rows) == 0 {
		return nil, ErrEmptyFile
	}

	table := &Table{Headers: normalizeHeaders(rows[0])}
	for idx, cells := range rows[1:] {
		// spreadsheet rows are 1-based and the header occupies row 1
		table.Rows = append(table.Rows, buildRow(table.Headers, cells, idx+2))
	}
	return table, nil
}

func normalizeHeaders(raw []string) []string {
	headers := make([]string, len(raw))
	for i, h := range raw {
		headers[i] = NormalizeHeader(h)
	}
	return headers
}

func buildRow(headers, fields []string, number int) Row {
	values := make(map[string]string, len(headers))
	for i, h := range headers {
		if h == "" {
			continue
		}
		if i < len(fields) {
			values[h] = fields[i]
		} else if _, ok := values[h]; !ok {
			values[h] = ""
		}
	}
	return Row{Number: number, Values: values}
}

func looksLikeText(data []byte) bool {
	sample := data
	if len(sample) > 4096 {
		sample = sample[:4096]
	}
	if bytes.IndexByte(sample, 0) >= 0 {
		return false
	}
	// a truncated sample may split a multi-byte rune at the end
	for i := 0; i < utf8.UTFMax && len(sample) > 0; i++ {
		if utf8.Valid(sample) {
			return true
		}
		sample = sample[:len(sample)-1]
	}
	return utf8.Valid(sample)
}

func detectDelimiter(data []byte) rune {
	firstLine := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		firstLine = data[:i]
	}
	if bytes.Count(firstLine, []byte("\t")) > bytes.Count(firstLine, []byte(",")) {
		return '\t'
	}
	return ','
}
