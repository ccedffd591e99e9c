package bom

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ParseFile reads a BOM document, dispatching on the file extension:
// .json, .csv, .xlsx, or a board-source .zen file.
func ParseFile(path string) (*Document, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("bom: open %s: %w", path, err)
		}
		defer f.Close()
		return ParseJSON(f)
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("bom: open %s: %w", path, err)
		}
		defer f.Close()
		return ParseCSV(f)
	case ".xlsx":
		return ParseXLSX(path)
	case ".zen":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("bom: read %s: %w", path, err)
		}
		return ParseZen(string(data))
	default:
		return nil, fmt.Errorf("bom: unsupported BOM format %q", filepath.Ext(path))
	}
}

type jsonLine struct {
	Designators []string `json:"designators"`
	LCSC        string   `json:"lcsc"`
	MPN         string   `json:"mpn"`
	Value       string   `json:"value"`
	Package     string   `json:"package"`
	Qty         int      `json:"qty"`
	DNP         bool     `json:"dnp"`
}

// ParseJSON reads the array-of-objects BOM format.
func ParseJSON(r io.Reader) (*Document, error) {
	var raw []json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("bom: decode JSON document: %w", err)
	}

	doc := &Document{}
	for i, msg := range raw {
		record := i + 1
		var jl jsonLine
		if err := json.Unmarshal(msg, &jl); err != nil {
			doc.Errors = append(doc.Errors, LineError{Record: record, Reason: err.Error()})
			continue
		}
		line := Line{
			Designators: jl.Designators,
			LCSC:        jl.LCSC,
			MPN:         jl.MPN,
			Value:       jl.Value,
			Package:     jl.Package,
			Qty:         jl.Qty,
			DNP:         jl.DNP,
			Record:      record,
		}
		if err := finishLine(&line); err != nil {
			doc.Errors = append(doc.Errors, LineError{Record: record, Reason: err.Error()})
			continue
		}
		doc.Lines = append(doc.Lines, line)
	}
	return doc, nil
}

// ParseCSV reads a header-mapped CSV BOM.
func ParseCSV(r io.Reader) (*Document, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("bom: read CSV document: %w", err)
	}
	return parseRows(rows)
}

// ParseXLSX reads the first sheet of a workbook as a header-mapped BOM.
func ParseXLSX(path string) (*Document, error) {
	wb, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("bom: open workbook %s: %w", path, err)
	}
	defer wb.Close()

	sheets := wb.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("bom: workbook %s has no sheets", path)
	}
	rows, err := wb.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("bom: read sheet %s: %w", sheets[0], err)
	}
	return parseRows(rows)
}

// columnAliases maps normalized header names onto line fields.
var columnAliases = map[string]string{
	"designator":            "designators",
	"designators":           "designators",
	"reference":             "designators",
	"references":            "designators",
	"ref":                   "designators",
	"lcsc":                  "lcsc",
	"lcsc part":             "lcsc",
	"lcsc part #":           "lcsc",
	"jlcpcb part":           "lcsc",
	"jlcpcb part #":         "lcsc",
	"mpn":                   "mpn",
	"part number":           "mpn",
	"manufacturer part":     "mpn",
	"manufacturer part no.": "mpn",
	"value":                 "value",
	"comment":               "value",
	"package":               "package",
	"footprint":             "package",
	"qty":                   "qty",
	"quantity":              "qty",
	"dnp":                   "dnp",
}

func parseRows(rows [][]string) (*Document, error) {
	if len(rows) == 0 {
		return &Document{}, nil
	}

	fields := make(map[int]string)
	for i, h := range rows[0] {
		if field, ok := columnAliases[strings.ToLower(strings.TrimSpace(h))]; ok {
			fields[i] = field
		}
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("bom: no recognized columns in header %v", rows[0])
	}

	doc := &Document{}
	for i, row := range rows[1:] {
		record := i + 2
		if isBlankRow(row) {
			continue
		}
		line := Line{Record: record}
		var parseErr error
		for col, cell := range row {
			field, ok := fields[col]
			if !ok {
				continue
			}
			cell = strings.TrimSpace(cell)
			switch field {
			case "designators":
				line.Designators = splitDesignators(cell)
			case "lcsc":
				line.LCSC = cell
			case "mpn":
				line.MPN = cell
			case "value":
				line.Value = cell
			case "package":
				line.Package = cell
			case "qty":
				if cell != "" {
					line.Qty, parseErr = strconv.Atoi(cell)
					if parseErr != nil {
						parseErr = fmt.Errorf("bad quantity %q", cell)
					}
				}
			case "dnp":
				line.DNP = parseBool(cell)
			}
			if parseErr != nil {
				break
			}
		}
		if parseErr == nil {
			parseErr = finishLine(&line)
		}
		if parseErr != nil {
			doc.Errors = append(doc.Errors, LineError{Record: record, Reason: parseErr.Error()})
			continue
		}
		doc.Lines = append(doc.Lines, line)
	}
	return doc, nil
}

// finishLine validates a parsed line and applies quantity defaults.
func finishLine(line *Line) error {
	if len(line.Designators) == 0 {
		return fmt.Errorf("no designators")
	}
	// A free-text value counts as an identifier; the check stage reports
	// such lines as not-found instead of dropping them at parse time.
	if line.LCSC == "" && line.MPN == "" && line.Value == "" {
		return fmt.Errorf("no part identifier (lcsc, mpn or value)")
	}
	if line.Qty < 0 {
		return fmt.Errorf("negative quantity %d", line.Qty)
	}
	if line.Qty == 0 {
		line.Qty = len(line.Designators)
	}
	return nil
}

func splitDesignators(cell string) []string {
	var out []string
	for _, d := range strings.FieldsFunc(cell, func(r rune) bool {
		return r == ',' || r == ';' || r == ' '
	}) {
		out = append(out, strings.TrimSpace(d))
	}
	return out
}

func parseBool(cell string) bool {
	switch strings.ToLower(cell) {
	case "1", "true", "yes", "y", "dnp":
		return true
	default:
		return false
	}
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
