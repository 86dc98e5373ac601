package summary

import (
	"fmt"
	"math"
	"sort"

	"fishwell-data-transformer/internal/models"
)

// WideSummary 报表用宽格式汇总：一行一只动物，一列一个
// 信号 × 日 × 昼夜组合
type WideSummary struct {
	Columns []string // 不含 location/genotype 两个行键
	Rows    []WideRow
}

// WideRow 宽表一行；Values 与 Columns 对齐，缺口为 NaN
type WideRow struct {
	Location int
	Genotype string
	Values   []float64
}

// PivotWide 把日汇总转为电子表格风格的宽表
//
// 列序：信号（activity 在前）、日升序、昼在夜前；
// 行序：genotype 升序，再 location 升序。
func PivotWide(summaries []models.DailySummary) *WideSummary {
	type colKey struct {
		signal string
		day    int
		light  bool
	}
	colSeen := make(map[colKey]bool)
	var cols []colKey
	type rowKey struct {
		location int
		genotype string
	}
	rowSeen := make(map[rowKey]bool)
	var rowKeys []rowKey

	for _, s := range summaries {
		for _, sig := range []string{models.SignalActivity, models.SignalSleep} {
			k := colKey{sig, s.Day, s.Light}
			if !colSeen[k] {
				colSeen[k] = true
				cols = append(cols, k)
			}
		}
		rk := rowKey{s.Location, s.Genotype}
		if !rowSeen[rk] {
			rowSeen[rk] = true
			rowKeys = append(rowKeys, rk)
		}
	}

	sort.Slice(cols, func(i, j int) bool {
		a, b := cols[i], cols[j]
		if a.signal != b.signal {
			return a.signal < b.signal
		}
		if a.day != b.day {
			return a.day < b.day
		}
		return a.light && !b.light
	})
	sort.Slice(rowKeys, func(i, j int) bool {
		a, b := rowKeys[i], rowKeys[j]
		if a.genotype != b.genotype {
			return a.genotype < b.genotype
		}
		return a.location < b.location
	})

	colIndex := make(map[colKey]int, len(cols))
	names := make([]string, len(cols))
	for i, k := range cols {
		colIndex[k] = i
		names[i] = columnName(k.signal, k.day, k.light)
	}
	rowIndex := make(map[rowKey]int, len(rowKeys))
	rows := make([]WideRow, len(rowKeys))
	for i, k := range rowKeys {
		rowIndex[k] = i
		vals := make([]float64, len(cols))
		for j := range vals {
			vals[j] = math.NaN()
		}
		rows[i] = WideRow{Location: k.location, Genotype: k.genotype, Values: vals}
	}

	for _, s := range summaries {
		ri := rowIndex[rowKey{s.Location, s.Genotype}]
		rows[ri].Values[colIndex[colKey{models.SignalActivity, s.Day, s.Light}]] = s.TotalActivity
		rows[ri].Values[colIndex[colKey{models.SignalSleep, s.Day, s.Light}]] = s.TotalSleep
	}

	return &WideSummary{Columns: names, Rows: rows}
}

// columnName 宽表列名，沿用既有报表措辞
func columnName(signal string, day int, light bool) string {
	var prefix string
	switch signal {
	case models.SignalActivity:
		prefix = "total seconds of activity in "
	case models.SignalSleep:
		prefix = "total minutes of sleep in "
	default:
		prefix = "total " + signal + " in "
	}
	if light {
		return fmt.Sprintf("%sday %d", prefix, day)
	}
	return fmt.Sprintf("%snight %d", prefix, day)
}
