package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"go.uber.org/zap"

	"fishwell-data-transformer/internal/config"
	"fishwell-data-transformer/internal/logger"
	"fishwell-data-transformer/internal/service"
)

// version 构建版本
const version = "1.2.0"

func main() {
	// 加载配置（环境变量默认值）
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// CLI 标志覆盖配置（标志 → 参数直通，无独立逻辑）
	var activityFiles multiFlag
	flag.Var(&activityFiles, "activity", "activity file (repeat for multiple acquisitions)")
	genotypeFile := flag.String("genotype", "", "genotype assignment file")
	outFile := flag.String("out", "", "tidy output file")
	boutsFile := flag.String("bouts", "", "bouts output file (optional)")
	summaryFile := flag.String("summary", "", "daily summary output file (optional)")
	wideFile := flag.String("wide", "", "wide summary output file, .xlsx or .csv (optional)")
	lightsOn := flag.String("lights-on", cfg.Analysis.LightsOn, "daily lights-on time, e.g. 9:00:00")
	lightsOff := flag.String("lights-off", cfg.Analysis.LightsOff, "daily lights-off time; empty disables light tracking")
	dayInTheLife := flag.Int("day-in-the-life", cfg.Analysis.DayInTheLife, "day in the life when acquisition started")
	wakeThreshold := flag.Float64("wake-threshold", cfg.Analysis.WakeThreshold, "activity threshold below which a sample counts as sleep")
	resampleWin := flag.Int("window", cfg.Analysis.ResampleWin, "resampling window in samples (1 = no resampling)")
	rename := flag.String("rename", "", "signal column renames, e.g. middur=activity,frect=freeze")
	extraCols := flag.String("extra-cols", "", "comma-separated extra signal columns to keep")
	activeBouts := flag.Bool("active-bouts", false, "extract active bouts instead of rest bouts")
	validateOnly := flag.Bool("validate", false, "validate input files and exit")
	archive := flag.Bool("archive", cfg.Archive.Enabled, "archive canonical rows to PostgreSQL (connection from DB_* env)")
	flag.Parse()

	cfg.IO.ActivityFiles = activityFiles
	cfg.IO.GenotypeFile = *genotypeFile
	cfg.IO.OutFile = *outFile
	cfg.IO.BoutsFile = *boutsFile
	cfg.IO.SummaryFile = *summaryFile
	cfg.IO.WideFile = *wideFile
	cfg.Analysis.LightsOn = *lightsOn
	cfg.Analysis.LightsOff = *lightsOff
	cfg.Analysis.DayInTheLife = *dayInTheLife
	cfg.Analysis.WakeThreshold = *wakeThreshold
	cfg.Analysis.ResampleWin = *resampleWin
	cfg.Analysis.BoutsRest = !*activeBouts
	cfg.ValidateOnly = *validateOnly
	cfg.Archive.Enabled = *archive
	if *rename != "" {
		cfg.Analysis.Rename = parsePairs(*rename)
	}
	if *extraCols != "" {
		cfg.Analysis.ExtraColumns = splitList(*extraCols)
	}

	if len(cfg.IO.ActivityFiles) == 0 || cfg.IO.GenotypeFile == "" {
		fmt.Fprintln(os.Stderr, "both -activity and -genotype are required")
		flag.Usage()
		os.Exit(2)
	}

	// 初始化Logger
	zapLogger, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "fishwell-data-transformer")
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("Starting fishwell-data-transformer",
		zap.String("version", version),
		zap.Strings("activity_files", cfg.IO.ActivityFiles),
		zap.String("genotype_file", cfg.IO.GenotypeFile),
		zap.Int("resample_window", cfg.Analysis.ResampleWin),
	)

	pipeline, err := service.NewPipeline(cfg, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to create pipeline", zap.Error(err))
	}
	defer pipeline.Close()

	if err := pipeline.Run(); err != nil {
		zapLogger.Fatal("Pipeline failed", zap.Error(err))
	}
}

// multiFlag 可重复的字符串标志
type multiFlag []string

func (m *multiFlag) String() string {
	return strings.Join(*m, ",")
}

func (m *multiFlag) Set(v string) error {
	*m = append(*m, v)
	return nil
}

// parsePairs "a=b,c=d" → map
func parsePairs(s string) map[string]string {
	out := make(map[string]string)
	for _, pair := range strings.Split(s, ",") {
		kv := strings.SplitN(pair, "=", 2)
		if len(kv) == 2 && kv[0] != "" {
			out[strings.TrimSpace(kv[0])] = strings.TrimSpace(kv[1])
		}
	}
	return out
}

func splitList(s string) []string {
	var out []string
	for _, v := range strings.Split(s, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
