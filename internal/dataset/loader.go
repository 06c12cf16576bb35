package dataset

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// LoadOptions controls how files are turned into a Dataset.
type LoadOptions struct {
	// Delimiter for CSV. If 0, sniffs ',' vs ';' on the header line ('\t' for .tsv).
	Delimiter rune
	// DecimalComma rewrites locale numbers such as "1.234,5" to "1234.5" before type inference.
	DecimalComma bool
	// Sheet selects an XLSX sheet by name; empty means the first sheet.
	Sheet string
	// MaxRows limits rows loaded; 0 means unlimited.
	MaxRows int
}

// Loader turns a file into a Dataset.
type Loader interface {
	CanLoad(path string) bool
	Load(path string, opt LoadOptions) (*Dataset, error)
}

var registry []Loader

// Register adds a loader implementation to the registry.
func Register(l Loader) {
	registry = append(registry, l)
}

// ErrUnsupported indicates no loader accepts the file.
var ErrUnsupported = errors.New("unsupported dataset format")

// LoadFile selects a loader by filename.
func LoadFile(path string, opt LoadOptions) (*Dataset, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("dataset %s: %w", path, err)
	}
	for _, l := range registry {
		if l.CanLoad(path) {
			return l.Load(path, opt)
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupported, filepath.Ext(path))
}

func init() {
	Register(csvLoader{})
	Register(xlsxLoader{})
}

var localeNumber = regexp.MustCompile(`^[-+]?(\d{1,3}(\.\d{3})+|\d+)(,\d+)?$`)

// applyLocale converts decimal-comma numbers in place; other cells are untouched.
func applyLocale(rows [][]string) {
	for _, r := range rows {
		for j, v := range r {
			t := strings.TrimSpace(v)
			if !strings.Contains(t, ",") || !localeNumber.MatchString(t) {
				continue
			}
			t = strings.ReplaceAll(t, ".", "")
			r[j] = strings.Replace(t, ",", ".", 1)
		}
	}
}
