// Package writer 把各级结果表写成带表头的分隔文本或 Excel 报表
package writer

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"strconv"

	"fishwell-data-transformer/internal/models"
	"fishwell-data-transformer/internal/summary"
)

const clockLayout = "2006-01-02 15:04:05"

// WriteTable 写 canonical / 重采样表
//
// 列序：信号列在前，随后是时间与标识列，顺序固定可复现。
func WriteTable(path string, t *models.Table) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := append([]string(nil), t.SignalColumns...)
	header = append(header,
		"time", "location", "genotype", "exp_time", "exp_ind",
		"zeit", "zeit_ind", "light", "day", "acquisition", "instrument", "trial")
	if err := w.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	row := make([]string, 0, len(header))
	for i := range t.Rows {
		r := &t.Rows[i]
		row = row[:0]
		for _, sig := range t.SignalColumns {
			row = append(row, formatFloat(r.Signals[sig]))
		}
		row = append(row,
			r.Time.Format(clockLayout),
			strconv.Itoa(r.Location),
			r.Genotype,
			formatFloat(r.ExpTime),
			strconv.Itoa(r.ExpInd),
			formatFloat(r.Zeit),
			strconv.Itoa(r.ZeitInd),
			formatBool(r.Light),
			strconv.Itoa(r.Day),
			strconv.Itoa(r.Acquisition),
			strconv.Itoa(r.Instrument),
			strconv.Itoa(r.Trial),
		)
		if err := w.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}

// WriteBouts 写片段表
func WriteBouts(path string, bouts []models.Bout) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{
		"location", "genotype", "day_start", "day_end", "light_start", "light_end",
		"bout_start_exp", "bout_end_exp", "bout_start_clock", "bout_end_clock", "bout_length",
	}
	if err := w.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i := range bouts {
		b := &bouts[i]
		row := []string{
			strconv.Itoa(b.Location),
			b.Genotype,
			strconv.Itoa(b.DayStart),
			strconv.Itoa(b.DayEnd),
			formatBool(b.LightStart),
			formatBool(b.LightEnd),
			formatFloat(b.StartExp),
			formatFloat(b.EndExp),
			b.StartClock.Format(clockLayout),
			b.EndClock.Format(clockLayout),
			formatFloat(b.Length),
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}

// WriteDaily 写日汇总表
func WriteDaily(path string, summaries []models.DailySummary) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{"location", "genotype", "day", "light", "total_activity", "total_sleep", "latency"}
	if err := w.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i := range summaries {
		s := &summaries[i]
		row := []string{
			strconv.Itoa(s.Location),
			s.Genotype,
			strconv.Itoa(s.Day),
			formatBool(s.Light),
			formatFloat(s.TotalActivity),
			formatFloat(s.TotalSleep),
			formatFloat(s.Latency),
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}

// WriteWideCSV 写宽格式汇总表
func WriteWideCSV(path string, wide *summary.WideSummary) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := append([]string{"location", "genotype"}, wide.Columns...)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, r := range wide.Rows {
		row := make([]string, 0, len(header))
		row = append(row, strconv.Itoa(r.Location), r.Genotype)
		for _, v := range r.Values {
			row = append(row, formatFloat(v))
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}

// formatFloat NaN 输出空串（电子表格约定），其余最短十进制表示
func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func formatBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}
