package export

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/Rana718/datagen/internal/types"
	"github.com/xuri/excelize/v2"
)

const (
	headerFill    = "366092"
	maxColWidth   = 50
	maxSheetChars = 31
)

var sheetNameReplacer = strings.NewReplacer(":", "", "\\", "", "/", "", "?", "", "*", "", "[", "", "]", "")

// SheetName derives a valid worksheet name from the table's display name.
func SheetName(def types.TableDefinition) string {
	name := strings.TrimSpace(sheetNameReplacer.Replace(def.DisplayName))
	if name == "" {
		name = def.TableName
	}
	if r := []rune(name); len(r) > maxSheetChars {
		name = string(r[:maxSheetChars])
	}
	return name
}

func writeXLSX(filePath string, def types.TableDefinition, records []types.Record) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := SheetName(def)
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("failed to name worksheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{headerFill}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	widths := make([]int, len(def.Fields))
	for col, field := range def.Fields {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, field.Name); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, cell, cell, headerStyle); err != nil {
			return err
		}
		widths[col] = utf8.RuneCountInString(field.Name)
	}

	for row, record := range records {
		for col, field := range def.Fields {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return err
			}
			value := cellValue(field, record[field.Name])
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return fmt.Errorf("failed to write cell %s: %w", cell, err)
			}
			if n := utf8.RuneCountInString(cellString(field, value)); n > widths[col] {
				widths[col] = n
			}
		}
	}

	for col, width := range widths {
		name, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, name, name, float64(min(width+2, maxColWidth))); err != nil {
			return err
		}
	}

	if err := f.SaveAs(filePath); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}
