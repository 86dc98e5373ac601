// Package genotype 把宽格式基因型分配表融化为 location → genotype 映射
//
// 输入格式（实验室标准）：每列一个基因型，列下方的单元格是该基因型
// 对应的孔位编号，各列长度不齐时用空白填充。表头可能是 1 行或 2 行
// （2 行时第一行是描述性大表头，丢弃）。
package genotype

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"fishwell-data-transformer/internal/models"
)

// Options 融化选项
type Options struct {
	// DoubleHeader 是否为 2 行表头；nil 表示自动推断：
	// 表观首个数据行含非数字项时推断为 2 行表头
	DoubleHeader *bool

	// StripCounts 是否把列名裁到最后一个空格之前，
	// 用于去掉 "wt (n=22)" 里的 "(n=22)"
	StripCounts bool
}

// Assignment location → genotype 映射，建表后不可变
type Assignment struct {
	byLocation map[int]string
	locations  []int
}

// Genotype 查询某个 location 的基因型
func (a *Assignment) Genotype(location int) (string, bool) {
	g, ok := a.byLocation[location]
	return g, ok
}

// Contains 该 location 是否有基因型分配
func (a *Assignment) Contains(location int) bool {
	_, ok := a.byLocation[location]
	return ok
}

// Locations 升序返回全部已分配的 location
func (a *Assignment) Locations() []int {
	return append([]int(nil), a.locations...)
}

// Len 已分配的动物数
func (a *Assignment) Len() int {
	return len(a.byLocation)
}

// Build 从原始行构造映射
//
// rows 是文件的全部非注释行（含表头）。融化结果为空、location
// 不可解析、或同一 location 被分配了两个基因型时返回 ErrFormat：
// 这些都是实验配置错误，必须在进入后续流程前失败。
func Build(rows [][]string, opts Options, logger *zap.Logger) (*Assignment, error) {
	if len(rows) < 2 {
		return nil, fmt.Errorf("%w: genotype table has no data rows", models.ErrFormat)
	}

	headerRow := 0
	if opts.DoubleHeader != nil {
		if *opts.DoubleHeader {
			headerRow = 1
		}
	} else if len(rows) > 2 && !rowIsNumeric(rows[1]) {
		// 表观首个数据行不是数字 → 它才是真正的表头
		headerRow = 1
		logger.Warn("Inferring two header rows in genotype table")
	}
	if len(rows) <= headerRow+1 {
		return nil, fmt.Errorf("%w: genotype table has no data rows", models.ErrFormat)
	}

	header := rows[headerRow]
	labels := make([]string, len(header))
	for i, h := range header {
		label := strings.TrimSpace(h)
		if opts.StripCounts {
			if idx := strings.LastIndex(label, " "); idx > 0 {
				label = label[:idx]
			}
		}
		labels[i] = label
	}

	// 融化：逐列收集非空单元格
	byLocation := make(map[int]string)
	var locations []int
	for col, label := range labels {
		if label == "" {
			continue
		}
		for _, row := range rows[headerRow+1:] {
			if col >= len(row) {
				continue
			}
			cell := strings.TrimSpace(row[col])
			if cell == "" {
				continue
			}
			loc, err := parseLocation(cell)
			if err != nil {
				return nil, fmt.Errorf("%w: genotype cell %q is not a valid location", models.ErrFormat, cell)
			}
			if prev, ok := byLocation[loc]; ok {
				return nil, fmt.Errorf("%w: location %d assigned two genotypes (%s, %s)",
					models.ErrFormat, loc, prev, label)
			}
			byLocation[loc] = label
			locations = append(locations, loc)
		}
	}

	if len(byLocation) == 0 {
		return nil, fmt.Errorf("%w: no animals assigned genotypes", models.ErrFormat)
	}

	sort.Ints(locations)
	return &Assignment{byLocation: byLocation, locations: locations}, nil
}

// rowIsNumeric 整行非空单元格是否都能解析为数
func rowIsNumeric(row []string) bool {
	any := false
	for _, cell := range row {
		cell = strings.TrimSpace(cell)
		if cell == "" {
			continue
		}
		any = true
		if _, err := strconv.ParseFloat(cell, 64); err != nil {
			return false
		}
	}
	return any
}

// parseLocation 单元格值转 location 编号（容忍 "12.0" 形态的导出值）
func parseLocation(cell string) (int, error) {
	if n, err := strconv.Atoi(cell); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return 0, err
	}
	n := int(f)
	if float64(n) != f {
		return 0, fmt.Errorf("non-integer location %q", cell)
	}
	return n, nil
}
