// Package loader 把原始仪器输出转换为标准化长格式时序表
//
// 转换流程：
// 1. 解析 location 编号（两种编码：分隔符后缀 / 嵌入数字）
// 2. 用基因型表过滤并附加 genotype
// 3. 合成绝对时间戳，计算 light / day / exp_time / zeit
// 4. 多个采集会话编号后拼接，全局按 (location, time) 排序
// 5. 逐 location 计算 exp_ind，按中位采样间隔对齐 zeit_ind
// 6. 按唤醒阈值派生 sleep 信号，应用列重命名
package loader

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"fishwell-data-transformer/internal/genotype"
	"fishwell-data-transformer/internal/models"
	"fishwell-data-transformer/internal/rawio"
)

// 原始活动文件的固定列
const (
	colLocation = "location"
	colDate     = "stdate"
	colTime     = "sttime"
	colPrimary  = "middur" // 主信号：每间隔活动秒数
)

const (
	dateLayout = "02/01/2006"
	timeLayout = "15:04:05"
)

// Options 加载参数
type Options struct {
	LightsOn  ClockTime  // 每日开灯时刻（日界定义，始终需要）
	LightsOff *ClockTime // 每日关灯时刻；nil 表示不跟踪光照，light 全为 true

	DayInTheLife  int     // 采集开始时动物的日龄
	WakeThreshold float64 // 主信号低于该值视为睡眠

	ExtraColumns []string          // 额外保留的原始信号列（数值列）
	Rename       map[string]string // 信号列重命名，默认 middur → activity

	Instrument int // 仪器编号，未知用 models.SentinelUnknown
	Trial      int // 批次编号，未知用 models.SentinelUnknown

	// Zeitgeber 零点：显式时间戳优先；否则用 ZeitgeberDay 定位该日
	// 第一个处于光照期的采样所在日期的开灯时刻；都未给时零点取最早采样
	ZeitgeberZero *time.Time
	ZeitgeberDay  *int
}

// DefaultOptions 实验室默认参数
func DefaultOptions() Options {
	on, _ := ParseClockTime("9:00:00")
	off, _ := ParseClockTime("23:00:00")
	return Options{
		LightsOn:      on,
		LightsOff:     &off,
		DayInTheLife:  4,
		WakeThreshold: 0.1,
		Rename:        map[string]string{colPrimary: models.SignalActivity},
		Instrument:    models.SentinelUnknown,
		Trial:         models.SentinelUnknown,
	}
}

// LoadActivity 加载一个或多个采集会话为标准化表
//
// files 的顺序即采集会话顺序，acquisition 从 1 开始编号。
func LoadActivity(files []*rawio.Table, gt *genotype.Assignment, opts Options, logger *zap.Logger) (*models.Table, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no activity files given", models.ErrConfiguration)
	}
	if opts.LightsOff != nil && opts.LightsOn.SecondsOfDay() >= opts.LightsOff.SecondsOfDay() {
		return nil, fmt.Errorf("%w: lights-on %02d:%02d:%02d must precede lights-off within one day",
			models.ErrConfiguration, opts.LightsOn.Hour, opts.LightsOn.Minute, opts.LightsOn.Second)
	}

	// 原始信号列：主信号 + 扩展列（去重）
	rawSignals := []string{colPrimary}
	for _, c := range opts.ExtraColumns {
		if c != colPrimary {
			rawSignals = append(rawSignals, c)
		}
	}

	table := &models.Table{}
	for i, f := range files {
		rows, err := parseFile(f, gt, rawSignals, opts, i+1)
		if err != nil {
			return nil, err
		}
		table.Rows = append(table.Rows, rows...)
	}
	if len(table.Rows) == 0 {
		return nil, fmt.Errorf("%w: no rows match the genotype assignment", models.ErrFormat)
	}

	table.SortCanonical()

	tMin := table.Rows[0].Time
	for i := range table.Rows {
		if table.Rows[i].Time.Before(tMin) {
			tMin = table.Rows[i].Time
		}
	}

	// light / day / exp_time
	anchor := dayAnchor(tMin, opts.LightsOn)
	for i := range table.Rows {
		r := &table.Rows[i]
		r.Light = lightAt(r.Time, opts)
		r.Day = int(math.Floor(r.Time.Sub(anchor).Hours()/24)) + opts.DayInTheLife
		r.ExpTime = r.Time.Sub(tMin).Hours()
	}

	// Zeitgeber 零点与 zeit
	origin, err := resolveZeitZero(table, tMin, opts)
	if err != nil {
		return nil, err
	}
	for i := range table.Rows {
		table.Rows[i].Zeit = table.Rows[i].Time.Sub(origin).Hours()
	}

	// 逐 location 的位置索引（容忍墙钟缺漏，只按位置编号）
	for _, g := range table.Groups() {
		for i := range g.Rows {
			g.Rows[i].ExpInd = i
		}
	}

	// 名义采样间隔：代表性 location（编号最小）的中位采样间隔
	dt := nominalInterval(table)
	if dt <= 0 {
		logger.Warn("Cannot infer nominal sampling interval, zeit_ind left at 0")
	} else {
		for i := range table.Rows {
			table.Rows[i].ZeitInd = int(math.Round(table.Rows[i].Zeit / dt))
		}
	}

	// sleep 信号 + 列重命名
	for i := range table.Rows {
		r := &table.Rows[i]
		sleep := 0.0
		if r.Signals[colPrimary] < opts.WakeThreshold {
			sleep = 1.0
		}
		renamed := make(map[string]float64, len(r.Signals)+1)
		for k, v := range r.Signals {
			renamed[finalName(k, opts.Rename)] = v
		}
		renamed[models.SignalSleep] = sleep
		r.Signals = renamed
	}
	for _, raw := range rawSignals {
		table.SignalColumns = append(table.SignalColumns, finalName(raw, opts.Rename))
	}
	table.SignalColumns = append(table.SignalColumns, models.SignalSleep)

	logger.Info("Loaded activity data",
		zap.Int("rows", len(table.Rows)),
		zap.Int("locations", len(table.Locations())),
		zap.Int("acquisitions", len(files)),
		zap.Float64("nominal_interval_hours", dt),
	)
	return table, nil
}

// parseFile 解析单个采集会话的原始表
func parseFile(f *rawio.Table, gt *genotype.Assignment, rawSignals []string, opts Options, acquisition int) ([]models.Record, error) {
	required := append([]string{colLocation, colDate, colTime}, rawSignals...)
	idx := make(map[string]int, len(required))
	for _, c := range required {
		j := f.ColumnIndex(c)
		if j < 0 {
			return nil, fmt.Errorf("%w: %s missing required column %q", models.ErrFormat, f.Path, c)
		}
		idx[c] = j
	}

	maxIdx := 0
	for _, j := range idx {
		if j > maxIdx {
			maxIdx = j
		}
	}

	var out []models.Record
	for n, row := range f.Rows {
		if len(row) <= maxIdx {
			return nil, fmt.Errorf("%w: %s row %d has %d fields, want at least %d",
				models.ErrFormat, f.Path, n+1, len(row), maxIdx+1)
		}
		loc, err := ParseLocation(row[idx[colLocation]])
		if err != nil {
			return nil, fmt.Errorf("%w: %s row %d: %v", models.ErrFormat, f.Path, n+1, err)
		}
		gen, ok := gt.Genotype(loc)
		if !ok {
			// 没有基因型分配的孔位整体排除
			continue
		}

		ts, err := time.Parse(dateLayout+timeLayout, row[idx[colDate]]+row[idx[colTime]])
		if err != nil {
			return nil, fmt.Errorf("%w: %s row %d: bad timestamp %q %q",
				models.ErrFormat, f.Path, n+1, row[idx[colDate]], row[idx[colTime]])
		}

		signals := make(map[string]float64, len(rawSignals))
		for _, c := range rawSignals {
			v, err := strconv.ParseFloat(strings.TrimSpace(row[idx[c]]), 64)
			if err != nil {
				return nil, fmt.Errorf("%w: %s row %d: non-numeric %s %q",
					models.ErrFormat, f.Path, n+1, c, row[idx[c]])
			}
			signals[c] = v
		}

		out = append(out, models.Record{
			Location:    loc,
			Genotype:    gen,
			Time:        ts,
			Acquisition: acquisition,
			Instrument:  opts.Instrument,
			Trial:       opts.Trial,
			Signals:     signals,
		})
	}
	return out, nil
}

// ParseLocation 原始 location 字符串转孔位编号
//
// 两种编码：
// - 带分隔符的新格式："c12-5" → 5（最后一个 '-' 之后）
// - 旧格式：取第一串数字，"c007" → 7
func ParseLocation(s string) (int, error) {
	s = strings.TrimSpace(s)
	if i := strings.LastIndex(s, "-"); i >= 0 {
		n, err := strconv.Atoi(s[i+1:])
		if err != nil {
			return 0, fmt.Errorf("unparseable location %q", s)
		}
		return n, nil
	}
	start := -1
	for i, c := range s {
		if c >= '0' && c <= '9' {
			if start < 0 {
				start = i
			}
		} else if start >= 0 {
			return strconv.Atoi(s[start:i])
		}
	}
	if start < 0 {
		return 0, fmt.Errorf("unparseable location %q", s)
	}
	return strconv.Atoi(s[start:])
}

// dayAnchor 最早采样之前（含当时）最近的开灯时刻
func dayAnchor(tMin time.Time, lightsOn ClockTime) time.Time {
	anchor := lightsOn.OnDate(tMin)
	if anchor.After(tMin) {
		anchor = anchor.Add(-24 * time.Hour)
	}
	return anchor
}

// lightAt 按光照表判断某时刻是否处于光照期
func lightAt(t time.Time, opts Options) bool {
	if opts.LightsOff == nil {
		// 不跟踪光照，但日界计数照常进行
		return true
	}
	sec := secondsOfDay(t)
	return sec >= opts.LightsOn.SecondsOfDay() && sec < opts.LightsOff.SecondsOfDay()
}

// resolveZeitZero 解析 Zeitgeber 零点
func resolveZeitZero(table *models.Table, tMin time.Time, opts Options) (time.Time, error) {
	if opts.ZeitgeberZero != nil {
		return *opts.ZeitgeberZero, nil
	}
	if opts.ZeitgeberDay == nil {
		return tMin, nil
	}
	// 参考日内第一个处于光照期的采样，其所在日期的开灯时刻即零点
	for i := range table.Rows {
		r := &table.Rows[i]
		if r.Day == *opts.ZeitgeberDay && r.Light {
			return opts.LightsOn.OnDate(r.Time), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: check day and light-schedule parameters", models.ErrReferenceResolution)
}

// nominalInterval 代表性 location 的中位采样间隔（小时）
func nominalInterval(table *models.Table) float64 {
	locs := table.Locations()
	if len(locs) == 0 {
		return 0
	}
	rep := locs[0]
	var gaps []float64
	var prev *time.Time
	for i := range table.Rows {
		r := &table.Rows[i]
		if r.Location != rep {
			continue
		}
		if prev != nil {
			gaps = append(gaps, r.Time.Sub(*prev).Hours())
		}
		t := r.Time
		prev = &t
	}
	if len(gaps) == 0 {
		return 0
	}
	sort.Float64s(gaps)
	mid := len(gaps) / 2
	if len(gaps)%2 == 1 {
		return gaps[mid]
	}
	return (gaps[mid-1] + gaps[mid]) / 2
}

// finalName 应用重命名映射后的信号列名
func finalName(raw string, rename map[string]string) string {
	if rename != nil {
		if v, ok := rename[raw]; ok && v != "" {
			return v
		}
	}
	return raw
}
