// Package models 定义活动时序数据的标准化数据结构
//
// 核心类型：
// - Record: 单只动物单个采样间隔的标准化记录（canonical 长格式）
// - Table: 记录集合 + 信号列清单（activity/sleep/扩展信号）
// - Bout: 单次睡眠/清醒连续片段
// - DailySummary: 按 (location, genotype, day, light) 的日汇总
package models

import (
	"sort"
	"time"
)

// SentinelUnknown instrument/trial 未知时的占位值
const SentinelUnknown = -9999

// 标准信号列名
const (
	SignalActivity = "activity" // 每个采样间隔内的活动秒数
	SignalSleep    = "sleep"    // 1=睡眠（活动低于唤醒阈值），0=清醒
)

// Record 单只动物单个采样间隔的标准化记录
//
// 由 loader 从原始仪器输出 + 基因型表生成，后续所有变换只读不改，
// 每次变换产生新的 Table。
type Record struct {
	Location    int               // 孔位/动物编号（基因型表外键）
	Genotype    string            // 基因型标签（从基因型表反规范化）
	Time        time.Time         // 采样墙钟时间
	ExpTime     float64           // 距实验最早采样的小时数
	Zeit        float64           // 距 Zeitgeber 零点的小时数
	ExpInd      int               // 该动物序列内的 0 基位置索引（无间隙）
	ZeitInd     int               // round(zeit/dt)，对齐公共时间网格的整数索引
	Day         int               // 实验日编号，日界 = 每日开灯时刻
	Light       bool              // true = 处于光照期
	Acquisition int               // 采集会话编号（仪器重启递增），从 1 开始
	Instrument  int               // 仪器编号，未知为 SentinelUnknown
	Trial       int               // 实验批次编号，未知为 SentinelUnknown
	Signals     map[string]float64 // 信号列（activity/sleep/扩展信号）
}

// Asleep 判断该记录是否处于睡眠状态（sleep 信号非零）
func (r *Record) Asleep() bool {
	return r.Signals[SignalSleep] != 0
}

// CloneSignals 复制信号映射（变换时避免共享底层 map）
func (r *Record) CloneSignals() map[string]float64 {
	s := make(map[string]float64, len(r.Signals))
	for k, v := range r.Signals {
		s[k] = v
	}
	return s
}

// Table 标准化长格式数据表
type Table struct {
	SignalColumns []string // 信号列顺序（输出列序、重采样默认列集）
	Rows          []Record
}

// Clone 深拷贝（行级信号映射也复制）
func (t *Table) Clone() *Table {
	out := &Table{
		SignalColumns: append([]string(nil), t.SignalColumns...),
		Rows:          make([]Record, len(t.Rows)),
	}
	for i := range t.Rows {
		out.Rows[i] = t.Rows[i]
		out.Rows[i].Signals = t.Rows[i].CloneSignals()
	}
	return out
}

// SortCanonical 按 (instrument, trial, location, time) 排序
//
// 这是 canonical 表的不变序：单个 location 的行按时间递增。
func (t *Table) SortCanonical() {
	sort.SliceStable(t.Rows, func(i, j int) bool {
		a, b := &t.Rows[i], &t.Rows[j]
		if a.Instrument != b.Instrument {
			return a.Instrument < b.Instrument
		}
		if a.Trial != b.Trial {
			return a.Trial < b.Trial
		}
		if a.Location != b.Location {
			return a.Location < b.Location
		}
		return a.Time.Before(b.Time)
	})
}

// SortByZeit 按 (instrument, trial, zeit, location) 排序（合并实验后的终序）
func (t *Table) SortByZeit() {
	sort.SliceStable(t.Rows, func(i, j int) bool {
		a, b := &t.Rows[i], &t.Rows[j]
		if a.Instrument != b.Instrument {
			return a.Instrument < b.Instrument
		}
		if a.Trial != b.Trial {
			return a.Trial < b.Trial
		}
		if a.Zeit != b.Zeit {
			return a.Zeit < b.Zeit
		}
		return a.Location < b.Location
	})
}

// GroupKey 重采样/分组用的序列标识
type GroupKey struct {
	Instrument int
	Trial      int
	Location   int
}

// Groups 按 canonical 序返回每个 (instrument, trial, location) 序列的行区间
//
// 调用方必须先 SortCanonical。返回的切片共享底层数组，只读使用。
func (t *Table) Groups() []struct {
	Key  GroupKey
	Rows []Record
} {
	var groups []struct {
		Key  GroupKey
		Rows []Record
	}
	start := 0
	for i := 1; i <= len(t.Rows); i++ {
		if i == len(t.Rows) ||
			t.Rows[i].Instrument != t.Rows[start].Instrument ||
			t.Rows[i].Trial != t.Rows[start].Trial ||
			t.Rows[i].Location != t.Rows[start].Location {
			r := &t.Rows[start]
			groups = append(groups, struct {
				Key  GroupKey
				Rows []Record
			}{
				Key:  GroupKey{Instrument: r.Instrument, Trial: r.Trial, Location: r.Location},
				Rows: t.Rows[start:i],
			})
			start = i
		}
	}
	return groups
}

// Locations 返回表中出现的 location 升序去重列表
func (t *Table) Locations() []int {
	seen := make(map[int]bool)
	var locs []int
	for i := range t.Rows {
		if !seen[t.Rows[i].Location] {
			seen[t.Rows[i].Location] = true
			locs = append(locs, t.Rows[i].Location)
		}
	}
	sort.Ints(locs)
	return locs
}
