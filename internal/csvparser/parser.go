// =============================================================================
// Suenlace Generator - CSV Row Extractor
// =============================================================================
//
// CSV exports from banks and invoicing tools go through the same mapping
// contract as spreadsheets: column letters count fields from the left
// (A = first field), first_row counts physical records from 1, and the same
// ignore/generic conditions apply.
//
// ENCODING:
//   Input is read as UTF-8. Files that are not valid UTF-8 are decoded as
//   latin-1, which is what most Spanish banking portals still export.
//   A leading UTF-8 byte order mark is dropped.
//
// DELIMITER:
//   Settings.Delimiter selects the separator. When empty, the first
//   non-empty line decides between ';', ',', tab and '|'.
//
// =============================================================================

package csvparser

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/ginjaninja78/suenlace/internal/codec"
	"github.com/ginjaninja78/suenlace/internal/logger"
	"github.com/ginjaninja78/suenlace/internal/models"
	"github.com/ginjaninja78/suenlace/internal/types"
	"github.com/ginjaninja78/suenlace/internal/xlsxparser"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Settings tunes the CSV reader.
type Settings struct {
	// Delimiter is one of ";", ",", "|", "tab" (or "\t"); empty auto-detects.
	Delimiter string
}

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// Extract reads the CSV file at path and returns the mapped rows.
func Extract(path string, m models.Mapping, settings Settings) ([]types.Row, error) {
	plan, err := xlsxparser.Compile(m)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, types.NewError("read csv", types.ErrIO, err.Error())
	}
	rows, err := ExtractBytes(data, plan, settings)
	if err != nil {
		return nil, err
	}
	log := logger.WithComponent("csvparser")
	log.Debug().
		Str("file", path).
		Int("rows", len(rows)).
		Msg("csv extracted")
	return rows, nil
}

// ExtractBytes parses CSV content already in memory.
func ExtractBytes(data []byte, plan *xlsxparser.Plan, settings Settings) ([]types.Row, error) {
	text, err := decode(data)
	if err != nil {
		return nil, types.NewError("decode csv", types.ErrIO, err.Error())
	}

	reader := csv.NewReader(strings.NewReader(text))
	configureReader(reader, settings, text)

	var lines []int
	var cells [][]string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, types.NewError("parse csv", types.ErrIO, err.Error())
		}
		line, _ := reader.FieldPos(0)
		if isRowEmpty(record) {
			continue
		}
		lines = append(lines, line)
		cells = append(cells, record)
	}
	return plan.Apply(lines, cells), nil
}

// decode returns data as a UTF-8 string, falling back to latin-1.
func decode(data []byte) (string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return string(data), nil
	}
	return codec.DecodeLatin1(data)
}

// configureReader configures the CSV reader based on the settings.
func configureReader(reader *csv.Reader, settings Settings, text string) {
	switch settings.Delimiter {
	case "\\t", "\t", "tab", "TAB":
		reader.Comma = '\t'
	case "|", "pipe", "PIPE":
		reader.Comma = '|'
	case ";", "semicolon":
		reader.Comma = ';'
	case ",", "comma":
		reader.Comma = ','
	case "":
		reader.Comma = detectDelimiter(text)
	default:
		reader.Comma, _ = utf8.DecodeRuneInString(settings.Delimiter)
	}

	// Allow variable number of fields per row.
	reader.FieldsPerRecord = -1

	// Allow lazy quotes (quotes that don't follow strict CSV rules).
	reader.LazyQuotes = true
}

// detectDelimiter picks the most frequent candidate separator of the first
// non-empty line. Ties favour ';' because ',' is also the decimal separator.
func detectDelimiter(text string) rune {
	var line string
	for text != "" {
		line, text, _ = strings.Cut(text, "\n")
		if strings.TrimSpace(line) != "" {
			break
		}
	}
	best, count := ';', 0
	for _, c := range []rune{';', ',', '\t', '|'} {
		if n := strings.Count(line, string(c)); n > count {
			best, count = c, n
		}
	}
	return best
}

// isRowEmpty checks if a row contains only empty cells.
func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
