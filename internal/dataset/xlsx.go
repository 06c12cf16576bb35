package dataset

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

type xlsxLoader struct{}

func (xlsxLoader) CanLoad(path string) bool {
	name := strings.ToLower(path)
	return strings.HasSuffix(name, ".xlsx") || strings.HasSuffix(name, ".xlsm")
}

// Load reads the selected sheet (first sheet by default). The first row is the header.
func (xlsxLoader) Load(path string, opt LoadOptions) (*Dataset, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheet := opt.Sheet
	sheets := f.GetSheetList()
	if sheet == "" {
		if len(sheets) == 0 {
			return nil, fmt.Errorf("xlsx %s has no sheets", filepath.Base(path))
		}
		sheet = sheets[0]
	} else if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, fmt.Errorf("sheet '%s' not found in workbook '%s'. Available sheets: %s",
			sheet, filepath.Base(path), strings.Join(sheets, ", "))
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %s is empty", sheet)
	}
	body := rows[1:]
	if opt.MaxRows > 0 && len(body) > opt.MaxRows {
		body = body[:opt.MaxRows]
	}
	if opt.DecimalComma {
		applyLocale(body)
	}
	return FromRecords(filepath.Base(path)+":"+sheet, rows[0], body)
}
