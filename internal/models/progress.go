package models

// Progress 长循环（逐 location 重采样/片段提取）的进度回调
//
// 由调用方注入，默认 NopProgress。组件本身不做任何输出。
type Progress interface {
	Start(stage string, total int)
	Step()
	Done()
}

// NopProgress 默认空实现
type NopProgress struct{}

func (NopProgress) Start(string, int) {}
func (NopProgress) Step()             {}
func (NopProgress) Done()             {}
