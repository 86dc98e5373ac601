package models

import "time"

// Bout 单个 location 序列中一段完整的同状态连续片段
//
// 只记录两端都有状态切换的片段：贴着记录起点或终点的片段可能被
// 记录窗口截断，计入会使时长统计偏短，因此排除。
type Bout struct {
	Location   int
	Genotype   string
	DayStart   int
	DayEnd     int
	LightStart bool
	LightEnd   bool
	StartExp   float64   // 片段起点的实验时间（小时）
	EndExp     float64   // 片段终点的实验时间（小时）
	StartClock time.Time // 片段起点墙钟时间
	EndClock   time.Time // 片段终点墙钟时间
	Length     float64   // EndExp - StartExp，恒为正
}
