// Package summary 生成逐动物的日汇总与睡眠潜伏期
package summary

import (
	"math"
	"sort"

	"fishwell-data-transformer/internal/models"
)

// Daily 按 (location, genotype, day, light) 汇总
//
// total_activity / total_sleep 为组内信号和；latency 为组内第一个
// 清醒采样到其后第一个重新入睡采样的实验时间差（见 sleepLatency）。
// 输出按 (location, day, dark→light) 排序。
func Daily(t *models.Table) []models.DailySummary {
	work := t.Clone()
	work.SortCanonical()

	type key struct {
		location int
		day      int
		light    bool
	}
	groups := make(map[key][]models.Record)
	var order []key
	for i := range work.Rows {
		r := &work.Rows[i]
		k := key{r.Location, r.Day, r.Light}
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], *r)
	}

	sort.Slice(order, func(i, j int) bool {
		a, b := order[i], order[j]
		if a.location != b.location {
			return a.location < b.location
		}
		if a.day != b.day {
			return a.day < b.day
		}
		return !a.light && b.light
	})

	out := make([]models.DailySummary, 0, len(order))
	for _, k := range order {
		rows := groups[k]
		s := models.DailySummary{
			Location: k.location,
			Genotype: rows[0].Genotype,
			Day:      k.day,
			Light:    k.light,
			Latency:  sleepLatency(rows),
		}
		for i := range rows {
			s.TotalActivity += rows[i].Signals[models.SignalActivity]
			s.TotalSleep += rows[i].Signals[models.SignalSleep]
		}
		out = append(out, s)
	}
	return out
}

// sleepLatency 睡眠潜伏期
//
// 组内第一个清醒采样的 exp_time 到其后（严格之后）第一个睡眠采样
// 的 exp_time 之差。组内始终睡眠、或醒后未再入睡时为 NaN。
// rows 须按时间递增。
func sleepLatency(rows []models.Record) float64 {
	firstAwake := math.NaN()
	for i := range rows {
		if !rows[i].Asleep() {
			firstAwake = rows[i].ExpTime
			break
		}
	}
	if math.IsNaN(firstAwake) {
		return math.NaN()
	}
	for i := range rows {
		if rows[i].Asleep() && rows[i].ExpTime > firstAwake {
			return rows[i].ExpTime - firstAwake
		}
	}
	return math.NaN()
}
