package parser

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// csvReader 去除 BOM；非 UTF-8 内容按 Windows-1252 解码
func csvReader(data []byte) io.Reader {
	if utf8.Valid(bytes.TrimPrefix(data, []byte("\xEF\xBB\xBF"))) {
		dec := unicode.BOMOverride(unicode.UTF8.NewDecoder())
		return transform.NewReader(bytes.NewReader(data), dec)
	}
	return transform.NewReader(bytes.NewReader(data), charmap.Windows1252.NewDecoder())
}

// detectDelimiter 以首行中出现最多的分隔符为准
func detectDelimiter(data []byte) rune {
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}
	best, bestCount := ',', bytes.Count(line, []byte{','})
	for _, d := range []rune{';', '\t', '|'} {
		if n := bytes.Count(line, []byte(string(d))); n > bestCount {
			best, bestCount = d, n
		}
	}
	return best
}

func decodeCSV(data []byte, opts DecodeOptions) (*Sheet, error) {
	r := csv.NewReader(csvReader(data))
	r.Comma = detectDelimiter(data)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	b := newSheetBuilder("Sheet1", opts.MaxRows)
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: failed to read csv: %v", ErrUnreadable, err)
		}
		if b.sheet.Headers == nil {
			b.addHeader(record)
			continue
		}
		cells := make([]Cell, len(record))
		for i, v := range record {
			cells[i] = TypedTextCell(v)
		}
		if err := b.addRow(cells); err != nil {
			return nil, err
		}
	}
	return b.sheet, nil
}
