// Package service 编排一次完整的批处理：
// 基因型表 → 活动加载 → 重采样 → 输出/片段/汇总 → 可选归档
package service

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"fishwell-data-transformer/internal/bout"
	"fishwell-data-transformer/internal/config"
	"fishwell-data-transformer/internal/database"
	"fishwell-data-transformer/internal/genotype"
	"fishwell-data-transformer/internal/loader"
	"fishwell-data-transformer/internal/models"
	"fishwell-data-transformer/internal/rawio"
	"fishwell-data-transformer/internal/repository"
	"fishwell-data-transformer/internal/resample"
	"fishwell-data-transformer/internal/summary"
	"fishwell-data-transformer/internal/validate"
	"fishwell-data-transformer/internal/writer"
)

// Archiver canonical 表的归档后端
type Archiver interface {
	CreateRun(runID uuid.UUID, genotypeFile string, activityFiles []string) error
	InsertTable(runID uuid.UUID, t *models.Table) (int, error)
}

// Pipeline 批处理流水线
type Pipeline struct {
	cfg      *config.Config
	logger   *zap.Logger
	db       *sql.DB
	archive  Archiver
	progress models.Progress
}

// NewPipeline 创建批处理流水线
func NewPipeline(cfg *config.Config, logger *zap.Logger) (*Pipeline, error) {
	p := &Pipeline{
		cfg:      cfg,
		logger:   logger,
		progress: models.NopProgress{},
	}

	if cfg.Archive.Enabled {
		db, err := database.NewPostgresDB(&cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		p.db = db
		p.archive = repository.NewActivityTimeSeriesRepository(db, logger)
	}

	return p, nil
}

// SetProgress 注入进度回调（默认空实现）
func (p *Pipeline) SetProgress(progress models.Progress) {
	if progress != nil {
		p.progress = progress
	}
}

// SetArchiver 注入归档后端（测试用）
func (p *Pipeline) SetArchiver(a Archiver) {
	p.archive = a
}

// Close 释放资源
func (p *Pipeline) Close() error {
	return database.Close(p.db)
}

// Run 执行一次批处理
func (p *Pipeline) Run() error {
	started := time.Now()

	if p.cfg.ValidateOnly {
		return p.runValidation()
	}

	if err := p.checkOutputs(); err != nil {
		return err
	}

	opts, err := p.loaderOptions()
	if err != nil {
		return err
	}

	// 基因型表
	gtRows, err := rawio.ReadRows(p.cfg.IO.GenotypeFile, p.cfg.IO.Comment)
	if err != nil {
		return fmt.Errorf("failed to read genotype file: %w", err)
	}
	gt, err := genotype.Build(gtRows, genotype.Options{StripCounts: true}, p.logger)
	if err != nil {
		return err
	}
	p.logger.Info("Built genotype assignment", zap.Int("animals", gt.Len()))

	// 活动数据
	var files []*rawio.Table
	for _, path := range p.cfg.IO.ActivityFiles {
		tbl, err := rawio.ReadTable(path, p.cfg.IO.Comment)
		if err != nil {
			return fmt.Errorf("failed to read activity file: %w", err)
		}
		files = append(files, tbl)
	}
	table, err := loader.LoadActivity(files, gt, opts, p.logger)
	if err != nil {
		return err
	}

	// 重采样
	resampled, err := resample.Resample(table, p.cfg.Analysis.ResampleWin, nil, p.progress, p.logger)
	if err != nil {
		return err
	}

	if p.cfg.IO.OutFile != "" {
		if err := writer.WriteTable(p.cfg.IO.OutFile, resampled); err != nil {
			return err
		}
		p.logger.Info("Wrote tidy table",
			zap.String("path", p.cfg.IO.OutFile),
			zap.Int("rows", len(resampled.Rows)),
		)
	}

	// 片段提取在 canonical 分辨率上做，不受重采样影响
	if p.cfg.IO.BoutsFile != "" {
		bouts := bout.Extract(table, p.cfg.Analysis.BoutsRest, p.progress)
		if err := writer.WriteBouts(p.cfg.IO.BoutsFile, bouts); err != nil {
			return err
		}
		p.logger.Info("Wrote bouts table",
			zap.String("path", p.cfg.IO.BoutsFile),
			zap.Int("bouts", len(bouts)),
		)
	}

	if p.cfg.IO.SummaryFile != "" || p.cfg.IO.WideFile != "" {
		daily := summary.Daily(table)
		if p.cfg.IO.SummaryFile != "" {
			if err := writer.WriteDaily(p.cfg.IO.SummaryFile, daily); err != nil {
				return err
			}
			p.logger.Info("Wrote daily summary",
				zap.String("path", p.cfg.IO.SummaryFile),
				zap.Int("groups", len(daily)),
			)
		}
		if p.cfg.IO.WideFile != "" {
			wide := summary.PivotWide(daily)
			var err error
			if strings.EqualFold(filepath.Ext(p.cfg.IO.WideFile), ".xlsx") {
				err = writer.WriteWideXLSX(p.cfg.IO.WideFile, wide)
			} else {
				err = writer.WriteWideCSV(p.cfg.IO.WideFile, wide)
			}
			if err != nil {
				return err
			}
			p.logger.Info("Wrote wide summary", zap.String("path", p.cfg.IO.WideFile))
		}
	}

	if p.archive != nil {
		runID := uuid.New()
		if err := p.archive.CreateRun(runID, p.cfg.IO.GenotypeFile, p.cfg.IO.ActivityFiles); err != nil {
			return err
		}
		if _, err := p.archive.InsertTable(runID, table); err != nil {
			return err
		}
	}

	p.logger.Info("Pipeline finished", zap.Duration("elapsed", time.Since(started)))
	return nil
}

// runValidation 预检模式：收集并打印全部诊断，不做转换
func (p *Pipeline) runValidation() error {
	results := []*validate.Result{
		validate.GenotypeFile(p.cfg.IO.GenotypeFile, p.cfg.IO.Comment),
	}

	var gt *genotype.Assignment
	if rows, err := rawio.ReadRows(p.cfg.IO.GenotypeFile, p.cfg.IO.Comment); err == nil {
		gt, _ = genotype.Build(rows, genotype.Options{StripCounts: true}, p.logger)
	}
	for _, path := range p.cfg.IO.ActivityFiles {
		results = append(results, validate.ActivityFile(path, p.cfg.IO.Comment, gt))
	}

	failed := 0
	for _, res := range results {
		if res.OK() {
			p.logger.Info("Validation passed", zap.String("file", res.File))
			continue
		}
		failed++
		for _, problem := range res.Problems {
			p.logger.Warn("Validation problem",
				zap.String("file", res.File),
				zap.String("problem", problem),
			)
		}
	}
	if failed > 0 {
		p.logger.Warn("Validation finished with problems", zap.Int("files_with_problems", failed))
	} else {
		p.logger.Info("Validation finished, all files passed")
	}
	return nil
}

// checkOutputs 输出路径防呆：不覆盖输入，不覆盖已有文件
func (p *Pipeline) checkOutputs() error {
	inputs := make(map[string]bool)
	inputs[p.cfg.IO.GenotypeFile] = true
	for _, f := range p.cfg.IO.ActivityFiles {
		inputs[f] = true
	}

	for _, out := range []string{p.cfg.IO.OutFile, p.cfg.IO.BoutsFile, p.cfg.IO.SummaryFile, p.cfg.IO.WideFile} {
		if out == "" {
			continue
		}
		if inputs[out] {
			return fmt.Errorf("%w: cannot overwrite input file %s", models.ErrConfiguration, out)
		}
		if _, err := os.Stat(out); err == nil {
			return fmt.Errorf("%w: %s already exists, not overwriting", models.ErrConfiguration, out)
		}
	}
	return nil
}

// loaderOptions 把配置翻译成加载参数
func (p *Pipeline) loaderOptions() (loader.Options, error) {
	opts := loader.DefaultOptions()

	on, err := loader.ParseClockTime(p.cfg.Analysis.LightsOn)
	if err != nil {
		return opts, err
	}
	opts.LightsOn = on

	if p.cfg.Analysis.LightsOff == "" {
		opts.LightsOff = nil
	} else {
		off, err := loader.ParseClockTime(p.cfg.Analysis.LightsOff)
		if err != nil {
			return opts, err
		}
		opts.LightsOff = &off
	}

	opts.DayInTheLife = p.cfg.Analysis.DayInTheLife
	opts.WakeThreshold = p.cfg.Analysis.WakeThreshold
	opts.ExtraColumns = p.cfg.Analysis.ExtraColumns
	if p.cfg.Analysis.Rename != nil {
		opts.Rename = p.cfg.Analysis.Rename
	}
	return opts, nil
}
