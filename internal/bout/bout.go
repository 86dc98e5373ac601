// Package bout 从逐动物的二值状态序列提取连续片段
//
// 片段 = 单一状态的最长连续游程。贴着记录起点/终点的游程可能被
// 记录窗口截断而非真实状态切换终止，计入会使时长统计偏短，因此
// 只保留两端都有切换的内部游程。
package bout

import (
	"fishwell-data-transformer/internal/models"
)

// Extract 提取全表的片段
//
// rest 为 true 提取睡眠片段，false 提取清醒片段。输入表须为
// canonical 序（逐 location 按时间递增）；每个 location 的结果
// 互不重叠且按时间排序，location 之间按分组键排序。
func Extract(t *models.Table, rest bool, progress models.Progress) []models.Bout {
	work := t.Clone()
	work.SortCanonical()

	groups := work.Groups()
	if progress == nil {
		progress = models.NopProgress{}
	}
	progress.Start("bouts", len(groups))

	var out []models.Bout
	for _, g := range groups {
		out = append(out, computeBouts(g.Rows, rest)...)
		progress.Step()
	}
	progress.Done()
	return out
}

// computeBouts 单个 location 序列的片段提取
func computeBouts(rows []models.Record, rest bool) []models.Bout {
	if len(rows) == 0 {
		return nil
	}

	// 状态切换位置：state[i] != state[i-1] 的 i
	var switches []int
	for i := 1; i < len(rows); i++ {
		if rows[i].Asleep() != rows[i-1].Asleep() {
			switches = append(switches, i)
		}
	}
	// 一个完整片段需要一个起始切换和一个结束切换
	if len(switches) < 2 {
		return nil
	}

	// 序列起始状态已是目标状态时，第一个切换是"离开目标状态"，
	// 从第二个切换起配对；否则从第一个切换起配对
	startInTarget := rows[0].Asleep() == rest
	offset := 0
	if startInTarget {
		offset = 1
	}

	var out []models.Bout
	for i := offset; i+1 < len(switches); i += 2 {
		start, end := &rows[switches[i]], &rows[switches[i+1]]
		out = append(out, models.Bout{
			Location:   start.Location,
			Genotype:   start.Genotype,
			DayStart:   start.Day,
			DayEnd:     end.Day,
			LightStart: start.Light,
			LightEnd:   end.Light,
			StartExp:   start.ExpTime,
			EndExp:     end.ExpTime,
			StartClock: start.Time,
			EndClock:   end.Time,
			Length:     end.ExpTime - start.ExpTime,
		})
	}
	return out
}
