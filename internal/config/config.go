package config

import (
	"os"
	"strconv"

	"fishwell-data-transformer/internal/database"
)

// Config 活动数据转换服务配置
//
// 数据库/日志配置来自环境变量，分析参数由 CLI 标志覆盖
// （标志值优先于环境变量默认值）。
type Config struct {
	Database database.Config

	// 分析参数
	Analysis struct {
		LightsOn      string            // 每日开灯时刻，如 "9:00:00"
		LightsOff     string            // 每日关灯时刻；空串表示不跟踪光照
		DayInTheLife  int               // 采集开始时动物的日龄
		WakeThreshold float64           // 唤醒阈值：每间隔活动秒数低于该值视为睡眠
		ResampleWin   int               // 重采样窗口（采样数），1 表示不重采样
		Rename        map[string]string // 信号列重命名，如 middur → activity
		ExtraColumns  []string          // 额外保留的原始信号列
		BoutsRest     bool              // 片段提取目标：true=睡眠片段，false=清醒片段
	}

	// ValidateOnly 只做输入文件预检，不运行转换
	ValidateOnly bool

	// 输入输出
	IO struct {
		ActivityFiles []string // 原始活动文件（多文件 = 多次采集）
		GenotypeFile  string   // 基因型分配表
		OutFile       string   // 标准化输出
		BoutsFile     string   // 片段表输出（可选）
		SummaryFile   string   // 日汇总输出（可选）
		WideFile      string   // 宽表汇总输出（可选，.xlsx 或 .csv）
		Comment       string   // 注释行前缀
	}

	// 归档配置（可选，写入 PostgreSQL activity_timeseries）
	Archive struct {
		Enabled bool
	}

	Log struct {
		Level  string
		Format string
	}
}

// Load 加载配置
func Load() (*Config, error) {
	cfg := &Config{}

	// 从环境变量加载（默认值）
	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = getEnvInt("DB_PORT", 5432)
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.Database.Database = getEnv("DB_NAME", "fishwell")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")

	// 分析参数默认值
	cfg.Analysis.LightsOn = getEnv("LIGHTS_ON", "9:00:00")
	cfg.Analysis.LightsOff = getEnv("LIGHTS_OFF", "23:00:00")
	cfg.Analysis.DayInTheLife = getEnvInt("DAY_IN_THE_LIFE", 4)
	cfg.Analysis.WakeThreshold = 0.1
	cfg.Analysis.ResampleWin = 1
	cfg.Analysis.Rename = map[string]string{"middur": "activity"}
	cfg.Analysis.ExtraColumns = nil
	cfg.Analysis.BoutsRest = true

	cfg.IO.Comment = "#"

	cfg.Archive.Enabled = getEnv("ARCHIVE_ENABLED", "") == "true"

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
