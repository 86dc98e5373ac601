package rawio

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"fishwell-data-transformer/internal/models"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// ============================================
// 嗅探
// ============================================

func TestSniff_CommaDelimited(t *testing.T) {
	path := writeFile(t, "data.csv",
		"# exported 2015-06-01\n"+
			"wt,het,mut\n"+
			"1,2,3\n")

	info, err := Sniff(path, "#")
	require.NoError(t, err)
	assert.Equal(t, 1, info.HeaderRows)
	assert.Equal(t, ',', info.Delimiter)
	assert.Equal(t, "1,2,3", info.FirstLine)
}

func TestSniff_TabDelimited(t *testing.T) {
	path := writeFile(t, "data.tsv",
		"wt\thet\tmut\n"+
			"1\t2\t3\n")

	info, err := Sniff(path, "#")
	require.NoError(t, err)
	assert.Equal(t, '\t', info.Delimiter)
}

func TestSniff_LocationPrefixedRows(t *testing.T) {
	// 活动文件的 location 列以字母开头，没有任何行以数字开头：
	// 分隔符退回从第一个非注释行推断
	path := writeFile(t, "act.csv",
		"location,stdate,sttime,middur\n"+
			"c12-1,01/06/2015,10:00:00,2.5\n")

	info, err := Sniff(path, "#")
	require.NoError(t, err)
	assert.Equal(t, ',', info.Delimiter)
}

func TestSniff_DoubleHeader(t *testing.T) {
	path := writeFile(t, "gt.csv",
		"OMR experiment,,\n"+
			"wt,het,mut\n"+
			"1,2,3\n")

	info, err := Sniff(path, "#")
	require.NoError(t, err)
	assert.Equal(t, 2, info.HeaderRows)
}

// ============================================
// 分隔文本读取
// ============================================

func TestReadTable_Delimited(t *testing.T) {
	path := writeFile(t, "data.csv",
		"# comment line\n"+
			"location,stdate,sttime,middur\n"+
			"c12-1,01/06/2015,10:00:00,2.5\n"+
			"c12-2,01/06/2015,10:00:00,0.0\n")

	tbl, err := ReadTable(path, "#")
	require.NoError(t, err)
	assert.Equal(t, []string{"location", "stdate", "sttime", "middur"}, tbl.Header)
	require.Len(t, tbl.Rows, 2)
	assert.Equal(t, "c12-2", tbl.Rows[1][0])

	assert.Equal(t, 3, tbl.ColumnIndex("middur"))
	assert.Equal(t, -1, tbl.ColumnIndex("nope"))
}

func TestReadTable_RaggedRows(t *testing.T) {
	// 基因型表各列长度不齐，短行不报错
	path := writeFile(t, "gt.csv",
		"wt,het,mut\n"+
			"1,2,3\n"+
			"4\n")

	rows, err := ReadRows(path, "#")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"4"}, rows[2])
}

func TestReadTable_Empty(t *testing.T) {
	path := writeFile(t, "empty.csv", "")
	_, err := ReadTable(path, "#")
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrFormat))
}

func TestReadTable_HeaderOnly(t *testing.T) {
	path := writeFile(t, "header.csv", "location,middur\n")
	_, err := ReadTable(path, "#")
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrFormat))
}

func TestReadRows_MissingFile(t *testing.T) {
	_, err := ReadRows(filepath.Join(t.TempDir(), "nope.csv"), "#")
	assert.Error(t, err)
}

// ============================================
// Excel 读取
// ============================================

func TestReadTable_Excel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.xlsx")

	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"location", "stdate", "sttime", "middur"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]any{"c12-1", "01/06/2015", "10:00:00", 2.5}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	tbl, err := ReadTable(path, "#")
	require.NoError(t, err)
	assert.Equal(t, []string{"location", "stdate", "sttime", "middur"}, tbl.Header)
	require.Len(t, tbl.Rows, 1)
	assert.Equal(t, "c12-1", tbl.Rows[0][0])
	assert.Equal(t, "2.5", tbl.Rows[0][3])
}
