package dataset

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
)

// Meta describes how an uploaded file was read.
type Meta struct {
	Format    string `json:"format"`
	Delimiter string `json:"delimiter,omitempty"`
}

// sniffLines is how many leading lines are inspected to pick a delimiter.
const sniffLines = 5

var delimiterCandidates = []rune{',', ';', '\t', '|'}

// Load reads a CSV, TXT or XLSX file. The format is chosen from the file name
// extension.
func Load(r io.Reader, filename string) (*Table, Meta, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	format := strings.TrimPrefix(ext, ".")
	switch ext {
	case ".csv", ".txt":
		return loadDelimited(r, format)
	case ".xlsx", ".xlsm":
		t, err := loadWorkbook(r)
		return t, Meta{Format: format}, err
	default:
		return nil, Meta{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
}

// loadDelimited decodes the bytes as Latin-1, which never fails, so files with
// stray accented bytes still load.
func loadDelimited(r io.Reader, format string) (*Table, Meta, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, Meta{}, fmt.Errorf("reading upload: %w", err)
	}
	text, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
	if err != nil {
		return nil, Meta{}, fmt.Errorf("decoding latin-1: %w", err)
	}

	delim := DetectDelimiter(sample(string(text), sniffLines))
	meta := Meta{Format: format, Delimiter: string(delim)}

	reader := csv.NewReader(bytes.NewReader(text))
	reader.Comma = delim
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, meta, fmt.Errorf("parsing %s: %w", format, err)
	}
	if len(records) == 0 {
		return nil, meta, ErrEmpty
	}

	header := uniqueColumns(records[0])
	return New(header, records[1:]), meta, nil
}

func loadWorkbook(r io.Reader) (_ *Table, err error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmpty
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, ErrEmpty
	}

	header := uniqueColumns(rows[0])
	return New(header, dropBlankRows(rows[1:])), nil
}

func dropBlankRows(rows [][]string) [][]string {
	kept := rows[:0:0]
	for _, row := range rows {
		for _, v := range row {
			if v != "" {
				kept = append(kept, row)
				break
			}
		}
	}
	return kept
}

// uniqueColumns names blank headers "Unnamed: i" and suffixes repeated names
// with ".1", ".2" so every column can be addressed.
func uniqueColumns(header []string) []string {
	out := make([]string, len(header))
	seen := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimPrefix(name, "\ufeff")
		name = strings.TrimPrefix(name, "ï»¿")
		if strings.TrimSpace(name) == "" {
			name = "Unnamed: " + strconv.Itoa(i)
		}
		base := name
		for n := seen[base]; n > 0; n++ {
			candidate := base + "." + strconv.Itoa(n)
			if _, taken := seen[candidate]; !taken {
				name = candidate
				break
			}
		}
		seen[base]++
		if name != base {
			seen[name] = 1
		}
		out[i] = name
	}
	return out
}

func sample(text string, lines int) string {
	var b strings.Builder
	for i := 0; i < lines && text != ""; i++ {
		line, rest, found := strings.Cut(text, "\n")
		b.WriteString(line)
		if found {
			b.WriteByte('\n')
		}
		text = rest
	}
	return b.String()
}

// DetectDelimiter picks the candidate that splits every non-blank sample line
// into the same, largest number of fields. Without a consistent candidate the
// first one present wins, and ',' is the last resort.
func DetectDelimiter(sample string) rune {
	var lines []string
	for _, line := range strings.Split(sample, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}

	best, bestCount := rune(0), 0
	for _, d := range delimiterCandidates {
		count := -1
		for _, line := range lines {
			n := countOutsideQuotes(line, d)
			if count == -1 {
				count = n
			} else if n != count {
				count = 0
				break
			}
		}
		if count > bestCount {
			best, bestCount = d, count
		}
	}
	if best != 0 {
		return best
	}

	for _, d := range delimiterCandidates {
		if strings.ContainsRune(sample, d) {
			return d
		}
	}
	return ','
}

func countOutsideQuotes(line string, d rune) int {
	n, quoted := 0, false
	for _, c := range line {
		switch {
		case c == '"':
			quoted = !quoted
		case c == d && !quoted:
			n++
		}
	}
	return n
}
