package rawio

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"fishwell-data-transformer/internal/models"
)

// readRowsExcel 读取工作簿第一个工作表的全部非注释行
//
// 仪器原生导出就是 Excel 工作簿，分隔文本只是它的转换形态，
// 两条路径产出完全一致的 [][]string。
func readRowsExcel(path string, comment string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook %s has no sheets", models.ErrFormat, path)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s of %s: %w", sheets[0], path, err)
	}

	var out [][]string
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		if comment != "" && strings.HasPrefix(row[0], comment) {
			continue
		}
		out = append(out, row)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: workbook %s has no data", models.ErrFormat, path)
	}
	return out, nil
}
