package loader

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"fishwell-data-transformer/internal/genotype"
	"fishwell-data-transformer/internal/models"
	"fishwell-data-transformer/internal/rawio"
)

// ============================================
// location 解析
// ============================================

func TestParseLocation(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"c12-5", 5},        // 新格式：最后一个 '-' 之后
		{"c1-2-17", 17},     // 多个分隔符取最后一段
		{"c007", 7},         // 旧格式：第一串数字
		{"abc42def", 42},    // 嵌入数字
		{" 12 ", 12},        // 纯数字
	}
	for _, tt := range tests {
		got, err := ParseLocation(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestParseLocation_Invalid(t *testing.T) {
	for _, in := range []string{"", "fish", "c12-", "c12-x"} {
		_, err := ParseLocation(in)
		assert.Error(t, err, in)
	}
}

// ============================================
// 光照表时刻解析
// ============================================

func TestParseClockTime(t *testing.T) {
	c, err := ParseClockTime("9:00:00")
	require.NoError(t, err)
	assert.Equal(t, ClockTime{Hour: 9}, c)
	assert.Equal(t, 9*3600, c.SecondsOfDay())

	c, err = ParseClockTime("23:15")
	require.NoError(t, err)
	assert.Equal(t, ClockTime{Hour: 23, Minute: 15}, c)
}

func TestParseClockTime_Invalid(t *testing.T) {
	for _, in := range []string{"9", "25:00:00", "9:61:00", "nine:00:00", "1:2:3:4"} {
		_, err := ParseClockTime(in)
		require.Error(t, err, in)
		assert.True(t, errors.Is(err, models.ErrConfiguration), in)
	}
}

// ============================================
// 活动数据加载
// ============================================

func testAssignment(t *testing.T) *genotype.Assignment {
	t.Helper()
	gt, err := genotype.Build([][]string{
		{"wt", "mut"},
		{"1", "2"},
	}, genotype.Options{}, zap.NewNop())
	require.NoError(t, err)
	return gt
}

// activityFixture 两只动物、每 10 秒一个采样的原始表
func activityFixture(middur map[int][]string) *rawio.Table {
	times := []string{"10:00:00", "10:00:10", "10:00:20"}
	tbl := &rawio.Table{
		Path:   "test.csv",
		Header: []string{"location", "stdate", "sttime", "middur"},
	}
	for i, tm := range times {
		for _, loc := range []int{1, 2, 3} {
			vals, ok := middur[loc]
			if !ok {
				continue
			}
			tbl.Rows = append(tbl.Rows, []string{
				"c12-" + itoa(loc), "01/06/2015", tm, vals[i],
			})
		}
	}
	return tbl
}

func itoa(n int) string {
	return string(rune('0' + n))
}

func TestLoadActivity(t *testing.T) {
	tbl := activityFixture(map[int][]string{
		1: {"2.5", "0.05", "3.0"},
		2: {"0.0", "1.0", "0.09"},
		3: {"9.9", "9.9", "9.9"}, // 没有基因型分配，整体排除
	})

	got, err := LoadActivity([]*rawio.Table{tbl}, testAssignment(t), DefaultOptions(), zap.NewNop())
	require.NoError(t, err)

	require.Len(t, got.Rows, 6)
	assert.Equal(t, []string{models.SignalActivity, models.SignalSleep}, got.SignalColumns)
	assert.Equal(t, []int{1, 2}, got.Locations())

	// canonical 序：location 1 的三行在前，时间递增
	r0 := got.Rows[0]
	assert.Equal(t, 1, r0.Location)
	assert.Equal(t, "wt", r0.Genotype)
	assert.Equal(t, time.Date(2015, 6, 1, 10, 0, 0, 0, time.UTC), r0.Time)

	// exp_time：距最早采样的小时数
	assert.Equal(t, 0.0, r0.ExpTime)
	assert.InDelta(t, 10.0/3600, got.Rows[1].ExpTime, 1e-12)
	assert.InDelta(t, 20.0/3600, got.Rows[2].ExpTime, 1e-12)

	// 未给 Zeitgeber 参考时零点取最早采样
	assert.Equal(t, r0.ExpTime, r0.Zeit)

	// zeit_ind 按中位采样间隔（10 s）对齐
	assert.Equal(t, []int{0, 1, 2}, []int{got.Rows[0].ZeitInd, got.Rows[1].ZeitInd, got.Rows[2].ZeitInd})

	// exp_ind 逐 location 从 0 重新计数
	assert.Equal(t, 0, got.Rows[3].ExpInd)
	assert.Equal(t, 2, got.Rows[5].ExpInd)

	// 10:00 在 9:00–23:00 之间 → 光照期；日编号从 day_in_the_life 起算
	assert.True(t, r0.Light)
	assert.Equal(t, 4, r0.Day)
	assert.Equal(t, 1, r0.Acquisition)

	// 唤醒阈值 0.1：middur < 0.1 的采样记为睡眠
	assert.Equal(t, 0.0, got.Rows[0].Signals[models.SignalSleep])
	assert.Equal(t, 1.0, got.Rows[1].Signals[models.SignalSleep])
	assert.Equal(t, 0.05, got.Rows[1].Signals[models.SignalActivity])
	assert.Equal(t, 1.0, got.Rows[3].Signals[models.SignalSleep])
}

func TestLoadActivity_MultipleAcquisitions(t *testing.T) {
	first := activityFixture(map[int][]string{1: {"1.0", "1.0", "1.0"}})
	second := &rawio.Table{
		Path:   "test2.csv",
		Header: []string{"location", "stdate", "sttime", "middur"},
		Rows: [][]string{
			{"c12-1", "01/06/2015", "10:01:00", "2.0"},
		},
	}

	got, err := LoadActivity([]*rawio.Table{first, second}, testAssignment(t), DefaultOptions(), zap.NewNop())
	require.NoError(t, err)

	require.Len(t, got.Rows, 4)
	assert.Equal(t, 1, got.Rows[0].Acquisition)
	assert.Equal(t, 2, got.Rows[3].Acquisition)
	// exp_time 跨采集会话从墙钟连续计算
	assert.InDelta(t, 1.0/60, got.Rows[3].ExpTime, 1e-12)
	// exp_ind 跨采集会话连续编号
	assert.Equal(t, 3, got.Rows[3].ExpInd)
}

func TestLoadActivity_NightSamples(t *testing.T) {
	tbl := &rawio.Table{
		Path:   "night.csv",
		Header: []string{"location", "stdate", "sttime", "middur"},
		Rows: [][]string{
			{"c12-1", "01/06/2015", "22:59:50", "1.0"},
			{"c12-1", "01/06/2015", "23:00:00", "1.0"},
			{"c12-1", "02/06/2015", "08:59:50", "1.0"},
			{"c12-1", "02/06/2015", "09:00:00", "1.0"},
		},
	}

	got, err := LoadActivity([]*rawio.Table{tbl}, testAssignment(t), DefaultOptions(), zap.NewNop())
	require.NoError(t, err)
	require.Len(t, got.Rows, 4)

	// 光照区间 [9:00, 23:00)
	assert.True(t, got.Rows[0].Light)
	assert.False(t, got.Rows[1].Light)
	assert.False(t, got.Rows[2].Light)
	assert.True(t, got.Rows[3].Light)

	// 日界 = 开灯时刻：9:00 切到下一日
	assert.Equal(t, 4, got.Rows[2].Day)
	assert.Equal(t, 5, got.Rows[3].Day)
}

func TestLoadActivity_LightsOffDisabled(t *testing.T) {
	opts := DefaultOptions()
	opts.LightsOff = nil

	tbl := activityFixture(map[int][]string{1: {"1.0", "1.0", "1.0"}})
	got, err := LoadActivity([]*rawio.Table{tbl}, testAssignment(t), opts, zap.NewNop())
	require.NoError(t, err)
	for i := range got.Rows {
		assert.True(t, got.Rows[i].Light)
	}
}

func TestLoadActivity_ZeitgeberDay(t *testing.T) {
	opts := DefaultOptions()
	day := 4
	opts.ZeitgeberDay = &day

	tbl := activityFixture(map[int][]string{1: {"1.0", "1.0", "1.0"}})
	got, err := LoadActivity([]*rawio.Table{tbl}, testAssignment(t), opts, zap.NewNop())
	require.NoError(t, err)

	// 参考日第一个光照采样在 01/06 10:00 → 零点为当日 9:00
	assert.InDelta(t, 1.0, got.Rows[0].Zeit, 1e-12)
}

func TestLoadActivity_ZeitgeberZero(t *testing.T) {
	opts := DefaultOptions()
	zero := time.Date(2015, 6, 1, 8, 0, 0, 0, time.UTC)
	opts.ZeitgeberZero = &zero

	tbl := activityFixture(map[int][]string{1: {"1.0", "1.0", "1.0"}})
	got, err := LoadActivity([]*rawio.Table{tbl}, testAssignment(t), opts, zap.NewNop())
	require.NoError(t, err)
	assert.InDelta(t, 2.0, got.Rows[0].Zeit, 1e-12)
}

func TestLoadActivity_UnresolvableReference(t *testing.T) {
	opts := DefaultOptions()
	day := 99
	opts.ZeitgeberDay = &day

	tbl := activityFixture(map[int][]string{1: {"1.0", "1.0", "1.0"}})
	_, err := LoadActivity([]*rawio.Table{tbl}, testAssignment(t), opts, zap.NewNop())
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrReferenceResolution))
}

func TestLoadActivity_Rename(t *testing.T) {
	opts := DefaultOptions()
	opts.ExtraColumns = []string{"frect"}
	opts.Rename = map[string]string{"middur": "activity", "frect": "freeze"}

	tbl := &rawio.Table{
		Path:   "extra.csv",
		Header: []string{"location", "stdate", "sttime", "middur", "frect"},
		Rows: [][]string{
			{"c12-1", "01/06/2015", "10:00:00", "2.5", "0.3"},
		},
	}

	got, err := LoadActivity([]*rawio.Table{tbl}, testAssignment(t), opts, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, []string{"activity", "freeze", "sleep"}, got.SignalColumns)
	assert.Equal(t, 0.3, got.Rows[0].Signals["freeze"])
}

func TestLoadActivity_Errors(t *testing.T) {
	gt := testAssignment(t)
	opts := DefaultOptions()

	_, err := LoadActivity(nil, gt, opts, zap.NewNop())
	assert.True(t, errors.Is(err, models.ErrConfiguration))

	// 开灯须早于关灯
	bad := DefaultOptions()
	on, _ := ParseClockTime("23:00:00")
	off, _ := ParseClockTime("9:00:00")
	bad.LightsOn, bad.LightsOff = on, &off
	tbl := activityFixture(map[int][]string{1: {"1.0", "1.0", "1.0"}})
	_, err = LoadActivity([]*rawio.Table{tbl}, gt, bad, zap.NewNop())
	assert.True(t, errors.Is(err, models.ErrConfiguration))

	// 必需列缺失
	missing := &rawio.Table{
		Path:   "bad.csv",
		Header: []string{"location", "stdate", "middur"},
		Rows:   [][]string{{"c12-1", "01/06/2015", "1.0"}},
	}
	_, err = LoadActivity([]*rawio.Table{missing}, gt, opts, zap.NewNop())
	assert.True(t, errors.Is(err, models.ErrFormat))

	// 信号值不可解析
	nonNumeric := activityFixture(map[int][]string{1: {"1.0", "x", "1.0"}})
	_, err = LoadActivity([]*rawio.Table{nonNumeric}, gt, opts, zap.NewNop())
	assert.True(t, errors.Is(err, models.ErrFormat))

	// 所有孔位都没有基因型分配
	unassigned := activityFixture(map[int][]string{3: {"1.0", "1.0", "1.0"}})
	_, err = LoadActivity([]*rawio.Table{unassigned}, gt, opts, zap.NewNop())
	assert.True(t, errors.Is(err, models.ErrFormat))
}

func TestMergeExperiments(t *testing.T) {
	a := &models.Table{
		SignalColumns: []string{models.SignalActivity, models.SignalSleep},
		Rows: []models.Record{
			{Instrument: 1, Trial: 1, Location: 1, Zeit: 2.0,
				Signals: map[string]float64{models.SignalActivity: 1}},
		},
	}
	b := &models.Table{
		SignalColumns: []string{models.SignalSleep, models.SignalActivity},
		Rows: []models.Record{
			{Instrument: 1, Trial: 2, Location: 1, Zeit: 1.0,
				Signals: map[string]float64{models.SignalActivity: 2}},
		},
	}

	got, err := MergeExperiments([]*models.Table{a, b})
	require.NoError(t, err)
	require.Len(t, got.Rows, 2)
	// (instrument, trial) 优先于 zeit
	assert.Equal(t, 1, got.Rows[0].Trial)
	assert.Equal(t, 2, got.Rows[1].Trial)

	// 合并产生新表，不改输入
	got.Rows[0].Signals[models.SignalActivity] = 99
	assert.Equal(t, 1.0, a.Rows[0].Signals[models.SignalActivity])
}

func TestMergeExperiments_Errors(t *testing.T) {
	_, err := MergeExperiments(nil)
	assert.True(t, errors.Is(err, models.ErrConfiguration))

	a := &models.Table{
		SignalColumns: []string{models.SignalActivity},
		Rows:          []models.Record{{Instrument: 1, Trial: 1}},
	}
	diff := &models.Table{
		SignalColumns: []string{models.SignalSleep},
		Rows:          []models.Record{{Instrument: 1, Trial: 2}},
	}
	_, err = MergeExperiments([]*models.Table{a, diff})
	assert.True(t, errors.Is(err, models.ErrConfiguration))

	dup := &models.Table{
		SignalColumns: []string{models.SignalActivity},
		Rows:          []models.Record{{Instrument: 1, Trial: 1}},
	}
	_, err = MergeExperiments([]*models.Table{a, dup})
	assert.True(t, errors.Is(err, models.ErrConfiguration))
}

func TestNominalInterval_MedianOfGaps(t *testing.T) {
	base := time.Date(2015, 6, 1, 10, 0, 0, 0, time.UTC)
	tbl := &models.Table{Rows: []models.Record{
		{Location: 1, Time: base},
		{Location: 1, Time: base.Add(10 * time.Second)},
		{Location: 1, Time: base.Add(20 * time.Second)},
		{Location: 1, Time: base.Add(90 * time.Second)}, // 异常大间隔不影响中位数
	}}
	assert.InDelta(t, 10.0/3600, nominalInterval(tbl), 1e-12)

	empty := &models.Table{}
	assert.Equal(t, 0.0, nominalInterval(empty))
}
