package models

import "errors"

// 错误分类（调用方用 errors.Is 判断）
//
// 所有错误立即终止当前操作，不做部分结果恢复；文件校验类检查
// 走 validate 包的诊断累积路径，不属于这套分类。
var (
	// ErrConfiguration 参数组合非法（光照时刻越界、合并实验时
	// (instrument, trial) 重复、输出文件覆盖输入文件等）
	ErrConfiguration = errors.New("configuration error")

	// ErrFormat 输入表不符合预期格式（缺列、location 不可解析、
	// 基因型表融化后为空等）
	ErrFormat = errors.New("format error")

	// ErrReferenceResolution 按 day/光照参数定位不到 Zeitgeber 零点
	ErrReferenceResolution = errors.New("unable to locate time reference")
)
