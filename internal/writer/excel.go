package writer

import (
	"fmt"
	"math"
	"strconv"

	"github.com/xuri/excelize/v2"

	"fishwell-data-transformer/internal/summary"
)

// WriteWideXLSX 把宽格式汇总写成 Excel 报表
//
// 表头加粗带底色，一行一只动物，NaN 留空。
func WriteWideXLSX(path string, wide *summary.WideSummary) error {
	f := excelize.NewFile()

	sheetName := "Daily Summary"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		f.Close()
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold: true,
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		f.Close()
		return fmt.Errorf("failed to create header style: %w", err)
	}

	header := append([]string{"location", "genotype"}, wide.Columns...)
	for col, h := range header {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			f.Close()
			return fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			f.Close()
			return fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(sheetName, cell, cell, headerStyle); err != nil {
			f.Close()
			return fmt.Errorf("failed to set header style: %w", err)
		}
	}

	// 前两列窄，汇总列按列名宽度放宽
	if err := f.SetColWidth(sheetName, "A", "B", 12); err != nil {
		f.Close()
		return fmt.Errorf("failed to set column width: %w", err)
	}
	if len(wide.Columns) > 0 {
		last, err := excelize.ColumnNumberToName(len(header))
		if err == nil {
			if err := f.SetColWidth(sheetName, "C", last, 34); err != nil {
				f.Close()
				return fmt.Errorf("failed to set column width: %w", err)
			}
		}
	}

	for i, r := range wide.Rows {
		rowNum := i + 2
		if err := f.SetCellValue(sheetName, "A"+strconv.Itoa(rowNum), r.Location); err != nil {
			f.Close()
			return fmt.Errorf("failed to set cell: %w", err)
		}
		if err := f.SetCellValue(sheetName, "B"+strconv.Itoa(rowNum), r.Genotype); err != nil {
			f.Close()
			return fmt.Errorf("failed to set cell: %w", err)
		}
		for j, v := range r.Values {
			if math.IsNaN(v) {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(j+3, rowNum)
			if err != nil {
				f.Close()
				return fmt.Errorf("failed to convert coordinates: %w", err)
			}
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				f.Close()
				return fmt.Errorf("failed to set cell %s: %w", cell, err)
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		f.Close()
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return f.Close()
}
