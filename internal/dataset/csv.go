package dataset

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

type csvLoader struct{}

func (csvLoader) CanLoad(path string) bool {
	name := strings.ToLower(path)
	return strings.HasSuffix(name, ".csv") || strings.HasSuffix(name, ".tsv") || strings.HasSuffix(name, ".txt")
}

func (csvLoader) Load(path string, opt LoadOptions) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()
	if opt.Delimiter == 0 && strings.HasSuffix(strings.ToLower(path), ".tsv") {
		opt.Delimiter = '\t'
	}
	return ReadCSV(f, filepath.Base(path), opt)
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ReadCSV parses delimited text. The first record is the header.
func ReadCSV(r io.Reader, name string, opt LoadOptions) (*Dataset, error) {
	br := bufio.NewReader(r)
	if b, err := br.Peek(3); err == nil && bytes.Equal(b, utf8BOM) {
		_, _ = br.Discard(3)
	}
	delim := opt.Delimiter
	if delim == 0 {
		// Sniff from the first 2 KiB
		sample, _ := br.Peek(2048)
		delim = SniffDelimiter(sample)
	}
	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.LazyQuotes = true
	cr.Comma = delim

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("read header: empty input")
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	var rows [][]string
	for {
		if opt.MaxRows > 0 && len(rows) >= opt.MaxRows {
			break
		}
		rec, err := cr.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read row %d: %w", len(rows)+1, err)
		}
		rows = append(rows, rec)
	}
	if opt.DecimalComma {
		applyLocale(rows)
	}
	return FromRecords(name, header, rows)
}

// SniffDelimiter picks ';' when the header line holds more semicolons than
// commas, and ',' otherwise.
func SniffDelimiter(sample []byte) rune {
	line := sample
	if i := bytes.IndexAny(sample, "\r\n"); i >= 0 {
		line = sample[:i]
	}
	if len(line) == 0 {
		return ','
	}
	if bytes.Count(line, []byte{'\t'}) > bytes.Count(line, []byte{','}) && bytes.Count(line, []byte{'\t'}) > bytes.Count(line, []byte{';'}) {
		return '\t'
	}
	if bytes.Count(line, []byte{';'}) > bytes.Count(line, []byte{','}) {
		return ';'
	}
	return ','
}
