package models

// DailySummary 按 (location, genotype, day, light) 的日汇总
type DailySummary struct {
	Location int
	Genotype string
	Day      int
	Light    bool

	// TotalActivity 组内活动秒数之和
	TotalActivity float64

	// TotalSleep 组内睡眠采样计数之和（采样间隔固定时等价于睡眠时长）
	TotalSleep float64

	// Latency 睡眠潜伏期：组内第一个清醒采样到其后第一个重新入睡
	// 采样之间的实验时间差。组内始终睡眠、或醒后未再入睡时为 NaN。
	Latency float64
}
