package rawio

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"fishwell-data-transformer/internal/models"
)

// Table 已解析的原始表格：一行表头 + 数据行
type Table struct {
	Path   string
	Header []string
	Rows   [][]string
}

// ColumnIndex 按列名找列号，找不到返回 -1
func (t *Table) ColumnIndex(name string) int {
	for i, h := range t.Header {
		if strings.TrimSpace(h) == name {
			return i
		}
	}
	return -1
}

// ReadRows 读取文件的全部非注释行（含表头行），不解释表头深度
//
// 基因型表可能有 1 行或 2 行表头，表头深度由 genotype 包判断，
// 所以这里原样返回所有行。按扩展名自动走 Excel 或分隔文本路径。
func ReadRows(path string, comment string) ([][]string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm", ".xltx", ".xltm":
		return readRowsExcel(path, comment)
	}
	return readRowsDelimited(path, comment)
}

// ReadTable 读取单表头文件（活动数据文件格式）
func ReadTable(path string, comment string) (*Table, error) {
	rows, err := ReadRows(path, comment)
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("%w: %s has no data rows", models.ErrFormat, path)
	}
	return &Table{Path: path, Header: rows[0], Rows: rows[1:]}, nil
}

func readRowsDelimited(path string, comment string) ([][]string, error) {
	info, err := Sniff(path, comment)
	if err != nil {
		return nil, err
	}
	if info.FirstLine == "" && info.HeaderRows == 0 {
		return nil, fmt.Errorf("%w: %s is empty", models.ErrFormat, path)
	}
	if info.Delimiter == 0 {
		return nil, fmt.Errorf("%w: unable to determine delimiter of %s", models.ErrFormat, path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = info.Delimiter
	r.FieldsPerRecord = -1
	if comment != "" {
		r.Comment = rune(comment[0])
	}

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse %s: %v", models.ErrFormat, path, err)
	}
	return records, nil
}
