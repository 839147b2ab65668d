// Package store persists the run index served by the API. Rows are
// synced from the report.json files in the results directory.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/qa-sync/qasync/pkg/config"
	"github.com/qa-sync/qasync/pkg/engine"
	"github.com/qa-sync/qasync/pkg/report"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Store provides persistence for the run index.
type Store interface {
	Start(ctx context.Context) error
	Stop() error

	UpsertRun(ctx context.Context, run *Run) error
	GetRun(ctx context.Context, runID string) (*Run, error)
	ListRuns(ctx context.Context, project string, limit int) ([]Run, error)

	// SyncFromDir scans the results directory for run directories
	// containing a report.json and upserts a row per run.
	SyncFromDir(ctx context.Context, dir string) (int, error)
}

// Compile-time interface check.
var _ Store = (*store)(nil)

type store struct {
	log logrus.FieldLogger
	cfg *config.APIDatabaseConfig
	db  *gorm.DB
}

// NewStore creates a new Store backed by the configured database driver.
func NewStore(
	log logrus.FieldLogger,
	cfg *config.APIDatabaseConfig,
) Store {
	return &store{
		log: log.WithField("component", "store"),
		cfg: cfg,
	}
}

// Start opens the database connection and runs migrations.
func (s *store) Start(ctx context.Context) error {
	var (
		dialector gorm.Dialector
		err       error
	)

	gormCfg := &gorm.Config{
		Logger: logger.Discard,
	}

	switch s.cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(s.cfg.SQLite.Path)
	case "postgres":
		dialector = postgres.Open(s.cfg.Postgres.DSN())
	default:
		return fmt.Errorf("unsupported database driver: %s", s.cfg.Driver)
	}

	s.db, err = gorm.Open(dialector, gormCfg)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}

	if err := s.db.WithContext(ctx).AutoMigrate(&Run{}); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	s.log.WithField("driver", s.cfg.Driver).Info("Store started")

	return nil
}

// Stop closes the database connection.
func (s *store) Stop() error {
	if s.db == nil {
		return nil
	}

	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("getting database handle: %w", err)
	}

	return sqlDB.Close()
}

// UpsertRun inserts or updates the row for a run, keyed by RunID.
func (s *store) UpsertRun(ctx context.Context, run *Run) error {
	var existing Run

	err := s.db.WithContext(ctx).Where("run_id = ?", run.RunID).First(&existing).Error

	switch {
	case err == nil:
		run.ID = existing.ID
		run.CreatedAt = existing.CreatedAt

		return s.db.WithContext(ctx).Save(run).Error
	case errors.Is(err, gorm.ErrRecordNotFound):
		return s.db.WithContext(ctx).Create(run).Error
	default:
		return err
	}
}

// GetRun returns one run by its run directory name.
func (s *store) GetRun(ctx context.Context, runID string) (*Run, error) {
	var run Run
	if err := s.db.WithContext(ctx).Where("run_id = ?", runID).First(&run).Error; err != nil {
		return nil, err
	}

	return &run, nil
}

// ListRuns returns runs newest-first, optionally filtered by project.
func (s *store) ListRuns(ctx context.Context, project string, limit int) ([]Run, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	q := s.db.WithContext(ctx).Order("run_at DESC").Limit(limit)
	if project != "" {
		q = q.Where("project_name = ?", project)
	}

	var runs []Run
	if err := q.Find(&runs).Error; err != nil {
		return nil, err
	}

	return runs, nil
}

// SyncFromDir indexes every run directory under dir that holds a
// report.json, returning the number of rows synced. Unreadable or
// malformed reports are skipped with a warning.
func (s *store) SyncFromDir(ctx context.Context, dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}

		return 0, fmt.Errorf("reading results directory: %w", err)
	}

	synced := 0

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		jsonPath := filepath.Join(dir, entry.Name(), report.JSONFileName)

		data, err := os.ReadFile(jsonPath)
		if err != nil {
			continue
		}

		var rep engine.TestReport
		if err := json.Unmarshal(data, &rep); err != nil {
			s.log.WithError(err).WithField("run", entry.Name()).Warn("Skipping malformed report")

			continue
		}

		runAt, err := time.Parse(time.RFC3339, rep.RunAt)
		if err != nil {
			s.log.WithError(err).WithField("run", entry.Name()).Warn("Report has invalid run_at")
		}

		run := &Run{
			RunID:       entry.Name(),
			ProjectName: rep.ProjectName,
			SiteURL:     rep.SiteURL,
			RunAt:       runAt,
			TotalTests:  rep.TotalTests,
			Passed:      rep.Passed,
			Failed:      rep.Failed,
			Skipped:     rep.Skipped,
			Errors:      rep.Error,
			DurationMs:  rep.DurationMs,
			ReportJSON:  jsonPath,
			ReportMD:    filepath.Join(dir, entry.Name(), report.MarkdownFileName),
		}

		if err := s.UpsertRun(ctx, run); err != nil {
			s.log.WithError(err).WithField("run", entry.Name()).Warn("Failed to index run")

			continue
		}

		synced++
	}

	return synced, nil
}
