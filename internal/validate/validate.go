// Package validate 原始输入文件的预检诊断
//
// 与加载路径的 fail-fast 不同，这里的检查是建议性的：尽量把一个
// 文件的所有问题一次性收集出来供人排查，不阻止加载器继续运行。
package validate

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"fishwell-data-transformer/internal/genotype"
	"fishwell-data-transformer/internal/loader"
	"fishwell-data-transformer/internal/rawio"
)

// 完整仪器导出的期望列集
var activityColumns = []string{
	"location", "animal", "user", "sn", "an", "datatype", "start",
	"end", "startreason", "endreason", "frect", "fredur", "midct",
	"middur", "burct", "burdur", "stdate", "sttime",
}

// 必须非负的数值列
var nonNegativeColumns = []string{
	"start", "end", "frect", "fredur", "midct", "middur", "burct", "burdur",
}

// Result 单个文件的诊断结果
type Result struct {
	File     string
	Problems []string
}

// OK 没有发现问题
func (r *Result) OK() bool {
	return len(r.Problems) == 0
}

func (r *Result) addf(format string, args ...any) {
	r.Problems = append(r.Problems, fmt.Sprintf(format, args...))
}

// GenotypeFile 检查基因型分配表
func GenotypeFile(path string, comment string) *Result {
	res := &Result{File: path}

	info, err := rawio.Sniff(path, comment)
	if err != nil {
		res.addf("cannot read file: %v", err)
		return res
	}
	switch {
	case info.HeaderRows >= 3:
		res.addf("possibly uses wrong comment character (%d header rows detected)", info.HeaderRows)
		return res
	case info.HeaderRows == 2:
		res.addf("probably has two header rows")
	case info.HeaderRows == 0:
		res.addf("probably missing a header row")
	}
	if info.FirstLine == "" && info.HeaderRows == 0 {
		res.addf("file has no data")
		return res
	}
	if info.Delimiter != ',' {
		res.addf("not comma delimited (found %q)", string(info.Delimiter))
	}

	rows, err := rawio.ReadRows(path, comment)
	if err != nil {
		res.addf("cannot parse file: %v", err)
		return res
	}
	headerRow := 0
	if info.HeaderRows == 2 {
		headerRow = 1
	}
	if len(rows) <= headerRow {
		res.addf("file has no data")
		return res
	}
	header := rows[headerRow]

	// omit 列用于标记剔除的动物，缺失通常意味着模板不对
	hasOmit := false
	labelCount := make(map[string]int)
	for _, h := range header {
		label := strings.TrimSpace(h)
		if label == "omit" {
			hasOmit = true
		}
		labelCount[label]++
	}
	if !hasOmit {
		res.addf("no `omit` column")
	}
	for label, n := range labelCount {
		if label != "" && n > 1 {
			res.addf("duplicated genotype column %q", label)
		}
	}

	// 融化检查：有无分配、location 是否重复
	seen := make(map[int]bool)
	var dups []int
	assigned := 0
	for _, row := range rows[headerRow+1:] {
		for col := range header {
			if col >= len(row) {
				continue
			}
			cell := strings.TrimSpace(row[col])
			if cell == "" {
				continue
			}
			assigned++
			loc, err := strconv.Atoi(cell)
			if err != nil {
				res.addf("non-integer location %q", cell)
				continue
			}
			if seen[loc] {
				dups = append(dups, loc)
			}
			seen[loc] = true
		}
	}
	if assigned == 0 {
		res.addf("no animals assigned genotypes")
	}
	if len(dups) > 0 {
		sort.Ints(dups)
		res.addf("duplicated locations: %v", dups)
	}
	return res
}

// ActivityFile 检查活动数据文件
//
// gt 可为 nil（跳过基因型对账）。
func ActivityFile(path string, comment string, gt *genotype.Assignment) *Result {
	res := &Result{File: path}

	info, err := rawio.Sniff(path, comment)
	if err != nil {
		res.addf("cannot read file: %v", err)
		return res
	}
	if info.Delimiter != ',' && !strings.HasSuffix(strings.ToLower(path), ".xlsx") {
		res.addf("not comma delimited (found %q)", string(info.Delimiter))
	}

	tbl, err := rawio.ReadTable(path, comment)
	if err != nil {
		res.addf("cannot parse file: %v", err)
		return res
	}

	checkColumns(tbl, res)
	checkValues(tbl, res)
	checkClock(tbl, res)
	if gt != nil {
		checkAssignment(tbl, gt, res)
	}
	return res
}

// checkColumns 列集对账
func checkColumns(tbl *rawio.Table, res *Result) {
	want := make(map[string]bool, len(activityColumns))
	for _, c := range activityColumns {
		want[c] = true
	}
	have := make(map[string]bool, len(tbl.Header))
	for _, h := range tbl.Header {
		have[strings.TrimSpace(h)] = true
	}
	for c := range have {
		if !want[c] {
			res.addf("unexpected column %q", c)
		}
	}
	for c := range want {
		if !have[c] {
			res.addf("missing column %q", c)
		}
	}
}

// checkValues 缺失值、负值、start 计数器单调性、间隔宽度
func checkValues(tbl *rawio.Table, res *Result) {
	missing := 0
	for _, row := range tbl.Rows {
		for _, cell := range row {
			if strings.TrimSpace(cell) == "" {
				missing++
			}
		}
	}
	if missing > 0 {
		res.addf("%d missing data entries", missing)
	}

	for _, col := range nonNegativeColumns {
		j := tbl.ColumnIndex(col)
		if j < 0 {
			continue
		}
		neg := 0
		for _, row := range tbl.Rows {
			if j < len(row) {
				if v, err := strconv.ParseFloat(strings.TrimSpace(row[j]), 64); err == nil && v < 0 {
					neg++
				}
			}
		}
		if neg > 0 {
			res.addf("%d negative `%s` values", neg, col)
		}
	}

	starts := numericColumn(tbl, "start")
	ends := numericColumn(tbl, "end")
	if starts == nil || ends == nil {
		return
	}

	uniq := uniqueInOrder(starts)
	for i := 1; i < len(uniq); i++ {
		if uniq[i] < uniq[i-1] {
			res.addf("nonsequential `start` values")
			break
		}
	}

	badOrder := 0
	var widths []float64
	for i := range starts {
		if i < len(ends) {
			if ends[i] <= starts[i] {
				badOrder++
			}
			widths = append(widths, ends[i]-starts[i])
		}
	}
	if badOrder > 0 {
		res.addf("%d `end` times at or before their `start` times", badOrder)
	}
	if len(widths) > 0 {
		med := median(widths)
		bad := 0
		for _, w := range widths {
			if math.Abs(w-med) > 1e-6 {
				bad++
			}
		}
		if bad > 0 {
			res.addf("%d intervals deviate from the standard width %.3f s", bad, med)
		}
	}

	// 墙钟与 start 计数器对账
	// （checkClock 解析墙钟；这里只留 start 自身的检查）
}

// checkClock 墙钟时间与 start 计数器的一致性
func checkClock(tbl *rawio.Table, res *Result) {
	jd, jt, js := tbl.ColumnIndex("stdate"), tbl.ColumnIndex("sttime"), tbl.ColumnIndex("start")
	if jd < 0 || jt < 0 || js < 0 {
		return
	}
	var tMin time.Time
	type pair struct {
		clock time.Time
		start float64
	}
	var pairs []pair
	for _, row := range tbl.Rows {
		if jd >= len(row) || jt >= len(row) || js >= len(row) {
			continue
		}
		ts, err := time.Parse("02/01/200615:04:05", row[jd]+row[jt])
		if err != nil {
			res.addf("unparseable timestamp %q %q", row[jd], row[jt])
			return
		}
		start, err := strconv.ParseFloat(strings.TrimSpace(row[js]), 64)
		if err != nil {
			continue
		}
		if tMin.IsZero() || ts.Before(tMin) {
			tMin = ts
		}
		pairs = append(pairs, pair{ts, start})
	}
	bad := 0
	for _, p := range pairs {
		if math.Abs(p.clock.Sub(tMin).Seconds()-p.start) > 1e-6 {
			bad++
		}
	}
	if bad > 0 {
		res.addf("%d rows where `sttime` and `start` disagree", bad)
	}
}

// checkAssignment 活动文件与基因型表的 location 对账
func checkAssignment(tbl *rawio.Table, gt *genotype.Assignment, res *Result) {
	j := tbl.ColumnIndex("location")
	if j < 0 {
		return
	}
	inActivity := make(map[int]bool)
	for _, row := range tbl.Rows {
		if j >= len(row) {
			continue
		}
		if loc, err := loader.ParseLocation(row[j]); err == nil {
			inActivity[loc] = true
		}
	}

	var onlyActivity, onlyGenotype []int
	for loc := range inActivity {
		if !gt.Contains(loc) {
			onlyActivity = append(onlyActivity, loc)
		}
	}
	for _, loc := range gt.Locations() {
		if !inActivity[loc] {
			onlyGenotype = append(onlyGenotype, loc)
		}
	}
	if len(onlyActivity) > 0 {
		sort.Ints(onlyActivity)
		res.addf("locations %v in activity file but not in genotype file", onlyActivity)
	}
	if len(onlyGenotype) > 0 {
		sort.Ints(onlyGenotype)
		res.addf("locations %v in genotype file but not in activity file", onlyGenotype)
	}
}

func numericColumn(tbl *rawio.Table, name string) []float64 {
	j := tbl.ColumnIndex(name)
	if j < 0 {
		return nil
	}
	out := make([]float64, 0, len(tbl.Rows))
	for _, row := range tbl.Rows {
		if j >= len(row) {
			return nil
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(row[j]), 64)
		if err != nil {
			return nil
		}
		out = append(out, v)
	}
	return out
}

func uniqueInOrder(x []float64) []float64 {
	seen := make(map[float64]bool, len(x))
	var out []float64
	for _, v := range x {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

func median(x []float64) float64 {
	s := append([]float64(nil), x...)
	sort.Float64s(s)
	mid := len(s) / 2
	if len(s)%2 == 1 {
		return s[mid]
	}
	return (s[mid-1] + s[mid]) / 2
}
