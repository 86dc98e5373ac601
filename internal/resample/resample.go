// Package resample 按固定采样数窗口对标准化表降采样
//
// 窗口绝不跨越分段边界：每个 (instrument, trial, location) 序列在
// light 切换或 acquisition 切换处断开，窗口只在段内划分。跨边界
// 求和会悄悄污染下游的昼/夜活动总量，这里是整条流水线最容易出错
// 的地方。
package resample

import (
	"fmt"

	"go.uber.org/zap"

	"fishwell-data-transformer/internal/models"
)

// Resample 对表降采样
//
// indWin 为窗口内的原始采样数；signals 为需要窗口求和的信号列，
// nil 表示表内全部信号列。非信号列（含 time/exp_time/zeit/exp_ind）
// 取窗口首行（左对齐约定：输出值代表从该时间戳开始的区间）。
// indWin == 1 时只做排序，不改数据。
func Resample(t *models.Table, indWin int, signals []string, progress models.Progress, logger *zap.Logger) (*models.Table, error) {
	if indWin < 1 {
		return nil, fmt.Errorf("%w: resample window must be >= 1, got %d", models.ErrConfiguration, indWin)
	}
	if signals == nil {
		signals = t.SignalColumns
	}

	out := t.Clone()
	out.SortCanonical()
	if indWin == 1 {
		return out, nil
	}

	groups := out.Groups()
	if progress == nil {
		progress = models.NopProgress{}
	}
	progress.Start("resample", len(groups))

	result := &models.Table{SignalColumns: append([]string(nil), out.SignalColumns...)}
	for _, g := range groups {
		for _, seg := range splitSegments(g.Rows) {
			result.Rows = append(result.Rows, resampleSegment(seg, indWin, signals)...)
		}
		progress.Step()
	}
	progress.Done()

	logger.Debug("Resampled table",
		zap.Int("window", indWin),
		zap.Int("rows_in", len(out.Rows)),
		zap.Int("rows_out", len(result.Rows)),
	)
	return result, nil
}

// splitSegments 在 light 或 acquisition 变化处断开序列
func splitSegments(rows []models.Record) [][]models.Record {
	var segments [][]models.Record
	start := 0
	for i := 1; i <= len(rows); i++ {
		if i == len(rows) ||
			rows[i].Light != rows[start].Light ||
			rows[i].Acquisition != rows[start].Acquisition {
			segments = append(segments, rows[start:i])
			start = i
		}
	}
	return segments
}

// resampleSegment 对单个段降采样
//
// 每 indWin 行出一行：信号列为窗口和，其余列取窗口首行。
func resampleSegment(rows []models.Record, indWin int, signals []string) []models.Record {
	var out []models.Record
	for start := 0; start < len(rows); start += indWin {
		row := rows[start]
		row.Signals = rows[start].CloneSignals()

		end := start + indWin
		if end > len(rows) {
			end = len(rows)
		}
		for _, sig := range signals {
			vals := make([]float64, 0, end-start)
			for i := start; i < end; i++ {
				vals = append(vals, rows[i].Signals[sig])
			}
			agg := resampleSeries(vals, indWin)
			row.Signals[sig] = agg[0]
		}
		out = append(out, row)
	}
	return out
}

// resampleSeries 对一维信号按窗口求和
//
// 尾部不足一窗时输出 mean(尾部)*indWin：把截断窗按满窗等效值
// 折算，保持"每满窗信号量"的单位一致。整段短于一窗时同理，
// 输出单个 mean*indWin。这是既有的建模约定，保持原样。
func resampleSeries(x []float64, indWin int) []float64 {
	if len(x) == 0 {
		panic("resample: empty series")
	}
	if len(x) < indWin {
		return []float64{mean(x) * float64(indWin)}
	}

	n := len(x) / indWin
	out := make([]float64, 0, n+1)
	for i := 0; i < n; i++ {
		sum := 0.0
		for _, v := range x[i*indWin : (i+1)*indWin] {
			sum += v
		}
		out = append(out, sum)
	}
	if tail := x[n*indWin:]; len(tail) > 0 {
		out = append(out, mean(tail)*float64(indWin))
	}
	return out
}

func mean(x []float64) float64 {
	sum := 0.0
	for _, v := range x {
		sum += v
	}
	return sum / float64(len(x))
}
