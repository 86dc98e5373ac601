package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"fishwell-data-transformer/internal/models"
)

// ActivityTimeSeriesRepository 标准化活动时序数据仓库
//
// 把 canonical 表归档到 activity_timeseries 表，按 run_id 区分批次，
// 供后续跨实验查询。
type ActivityTimeSeriesRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewActivityTimeSeriesRepository 创建活动时序数据仓库
func NewActivityTimeSeriesRepository(db *sql.DB, logger *zap.Logger) *ActivityTimeSeriesRepository {
	return &ActivityTimeSeriesRepository{
		db:     db,
		logger: logger,
	}
}

// CreateRun 登记一次归档批次
func (r *ActivityTimeSeriesRepository) CreateRun(runID uuid.UUID, genotypeFile string, activityFiles []string) error {
	query := `
		INSERT INTO analysis_runs (
			run_id,
			genotype_file,
			activity_files,
			created_at
		) VALUES ($1, $2, $3, $4)
	`

	files := ""
	for i, f := range activityFiles {
		if i > 0 {
			files += ";"
		}
		files += f
	}

	_, err := r.db.Exec(query, runID.String(), genotypeFile, files, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to insert analysis run: %w", err)
	}
	return nil
}

// InsertRecord 插入单条标准化记录
func (r *ActivityTimeSeriesRepository) InsertRecord(runID uuid.UUID, rec *models.Record) (int64, error) {
	query := `
		INSERT INTO activity_timeseries (
			run_id,
			location,
			genotype,
			sample_time,
			exp_time,
			zeit,
			exp_ind,
			zeit_ind,
			day,
			light,
			acquisition,
			instrument,
			trial,
			activity,
			sleep
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15
		)
		RETURNING id
	`

	var id int64
	err := r.db.QueryRow(
		query,
		runID.String(),
		rec.Location,
		rec.Genotype,
		rec.Time,
		rec.ExpTime,
		rec.Zeit,
		rec.ExpInd,
		rec.ZeitInd,
		rec.Day,
		rec.Light,
		rec.Acquisition,
		rec.Instrument,
		rec.Trial,
		rec.Signals[models.SignalActivity],
		rec.Signals[models.SignalSleep],
	).Scan(&id)

	if err != nil {
		return 0, fmt.Errorf("failed to insert activity_timeseries: %w", err)
	}

	return id, nil
}

// InsertTable 批量归档整张表（单事务）
//
// 只归档标准信号列 activity/sleep，扩展信号列留在文件输出里。
func (r *ActivityTimeSeriesRepository) InsertTable(runID uuid.UUID, t *models.Table) (int, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}

	query := `
		INSERT INTO activity_timeseries (
			run_id, location, genotype, sample_time, exp_time, zeit,
			exp_ind, zeit_ind, day, light, acquisition, instrument, trial,
			activity, sleep
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	stmt, err := tx.Prepare(query)
	if err != nil {
		tx.Rollback()
		return 0, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i := range t.Rows {
		rec := &t.Rows[i]
		_, err := stmt.Exec(
			runID.String(),
			rec.Location,
			rec.Genotype,
			rec.Time,
			rec.ExpTime,
			rec.Zeit,
			rec.ExpInd,
			rec.ZeitInd,
			rec.Day,
			rec.Light,
			rec.Acquisition,
			rec.Instrument,
			rec.Trial,
			rec.Signals[models.SignalActivity],
			rec.Signals[models.SignalSleep],
		)
		if err != nil {
			tx.Rollback()
			return 0, fmt.Errorf("failed to insert activity_timeseries row %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit archive transaction: %w", err)
	}

	r.logger.Info("Archived canonical table",
		zap.String("run_id", runID.String()),
		zap.Int("rows", len(t.Rows)),
	)
	return len(t.Rows), nil
}
