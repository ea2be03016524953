// Package storage persists extraction and matching results in MySQL.
package storage

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

const batchSize = 200

// ErrNotFound reports a missing row.
var ErrNotFound = errors.New("not found")

// Config describes a MySQL connection.
type Config struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"-"`
}

// DSN renders the go-sql-driver connection string.
func (c Config) DSN() string {
	host := c.Host
	if host == "" {
		host = "localhost"
	}
	port := c.Port
	if port == 0 {
		port = 3306
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		c.User, c.Password, host, port, c.Name)
}

// Store reads and writes all tables.
type Store struct {
	db     *gorm.DB
	logger *zap.Logger
}

// Open connects to MySQL and migrates the schema.
func Open(ctx context.Context, dsn string, logger *zap.Logger) (*Store, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger:                                   gormlogger.Default.LogMode(gormlogger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to mysql: %w", err)
	}

	s := New(db, logger)
	if err := s.Migrate(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an existing connection.
func New(db *gorm.DB, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{db: db, logger: logger}
}

func (s *Store) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(allModels...); err != nil {
		return fmt.Errorf("migrating schema: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// SaveJobs inserts jobs. Rows whose filename is already stored are skipped.
func (s *Store) SaveJobs(ctx context.Context, jobs []Job) (int64, error) {
	n, err := s.insertNew(ctx, &jobs, len(jobs))
	if err != nil {
		return 0, fmt.Errorf("saving jobs: %w", err)
	}
	s.logger.Info("jobs saved", zap.Int("requested", len(jobs)), zap.Int64("inserted", n))
	return n, nil
}

// SaveResumes inserts résumés. Rows whose filename is already stored are
// skipped.
func (s *Store) SaveResumes(ctx context.Context, resumes []Resume) (int64, error) {
	n, err := s.insertNew(ctx, &resumes, len(resumes))
	if err != nil {
		return 0, fmt.Errorf("saving resumes: %w", err)
	}
	s.logger.Info("resumes saved", zap.Int("requested", len(resumes)), zap.Int64("inserted", n))
	return n, nil
}

func (s *Store) insertNew(ctx context.Context, rows any, n int) (int64, error) {
	if n == 0 {
		return 0, nil
	}
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		CreateInBatches(rows, batchSize)
	return res.RowsAffected, res.Error
}

// Filenames returns the filenames already stored for jobs or résumés.
func (s *Store) Filenames(ctx context.Context, model any) (map[string]struct{}, error) {
	var names []string
	if err := s.db.WithContext(ctx).Model(model).Pluck("filename", &names).Error; err != nil {
		return nil, fmt.Errorf("listing filenames: %w", err)
	}
	out := make(map[string]struct{}, len(names))
	for _, n := range names {
		out[n] = struct{}{}
	}
	return out, nil
}

func (s *Store) Jobs(ctx context.Context) ([]Job, error) {
	var jobs []Job
	if err := s.db.WithContext(ctx).Order("id").Find(&jobs).Error; err != nil {
		return nil, fmt.Errorf("loading jobs: %w", err)
	}
	return jobs, nil
}

// Job returns a single job. A missing job is reported as ErrNotFound.
func (s *Store) Job(ctx context.Context, id uint) (Job, error) {
	var job Job
	err := s.db.WithContext(ctx).First(&job, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Job{}, fmt.Errorf("job %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return Job{}, fmt.Errorf("loading job %d: %w", id, err)
	}
	return job, nil
}

func (s *Store) Resumes(ctx context.Context) ([]Resume, error) {
	var resumes []Resume
	if err := s.db.WithContext(ctx).Order("id").Find(&resumes).Error; err != nil {
		return nil, fmt.Errorf("loading resumes: %w", err)
	}
	return resumes, nil
}

// Count returns the number of rows in model's table.
func (s *Store) Count(ctx context.Context, model any) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(model).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("counting rows: %w", err)
	}
	return n, nil
}

// SkillWeights returns the stored weighting statistics keyed by job id.
func (s *Store) SkillWeights(ctx context.Context) (map[uint]JobSkillWeight, error) {
	var rows []JobSkillWeight
	if err := s.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("loading job skill weights: %w", err)
	}
	out := make(map[uint]JobSkillWeight, len(rows))
	for _, r := range rows {
		out[r.JobID] = r
	}
	return out, nil
}

func (s *Store) ReplaceSkillWeights(ctx context.Context, rows []JobSkillWeight) error {
	return s.replace(ctx, &JobSkillWeight{}, &rows, len(rows), "job skill weights")
}

func (s *Store) ReplaceComparisons(ctx context.Context, rows []JobResumeComparison) error {
	return s.replace(ctx, &JobResumeComparison{}, &rows, len(rows), "comparisons")
}

func (s *Store) ReplaceSkillMaster(ctx context.Context, rows []SkillMaster) error {
	return s.replace(ctx, &SkillMaster{}, &rows, len(rows), "skill master")
}

// replace swaps the content of a table in one transaction.
func (s *Store) replace(ctx context.Context, model, rows any, n int, what string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error; err != nil {
			return err
		}
		if n == 0 {
			return nil
		}
		return tx.CreateInBatches(rows, batchSize).Error
	})
	if err != nil {
		return fmt.Errorf("replacing %s: %w", what, err)
	}
	s.logger.Info("table replaced", zap.String("table", what), zap.Int("rows", n))
	return nil
}
