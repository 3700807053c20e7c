// Package tasks registers reconciliation tasks and serves them back to the
// chunk pipeline.
package tasks

import (
	"context"
	"strings"
	"time"

	"github.com/nkasozi/reconciler-backend/internal/recon"
	"github.com/nkasozi/reconciler-backend/pkg/id"
	logpkg "github.com/nkasozi/reconciler-backend/pkg/log"
)

type Service struct {
	store  recon.TaskStore
	logger logpkg.Logger
	now    func() time.Time
	newID  func(prefix string) string
}

func New(store recon.TaskStore, logger logpkg.Logger) *Service {
	if logger == nil {
		logger = logpkg.NewLogger(logpkg.WithLevel(logpkg.InfoLevel))
	}
	return &Service{store: store, logger: logger.WithComponent("tasks"), now: time.Now, newID: id.New}
}

// Create validates req, stores a new task with both file records and
// returns its summary.
func (s *Service) Create(ctx context.Context, req recon.CreateReconTaskRequest) (recon.ReconTaskResponseDetails, error) {
	if err := req.Validate(); err != nil {
		return recon.ReconTaskResponseDetails{}, err
	}
	task := recon.ReconTask{
		ID:     s.newID(id.ReconTaskPrefix),
		UserID: req.UserID,
		SourceFile: recon.ReconFileDetails{
			ID:          s.newID(id.ReconFilePrefix),
			FileName:    req.SourceFileName,
			FileHash:    req.SourceFileHash,
			RowCount:    req.SourceFileRowCount,
			ColumnCount: req.SourceFileColumnCount,
			FileType:    recon.SourceReconFile,
		},
		ComparisonFile: recon.ReconFileDetails{
			ID:          s.newID(id.ReconFilePrefix),
			FileName:    req.ComparisonFileName,
			FileHash:    req.ComparisonFileHash,
			RowCount:    req.ComparisonFileRowCount,
			ColumnCount: req.ComparisonFileColumnCount,
			FileType:    recon.ComparisonReconFile,
		},
		ColumnDelimiters: append([]string(nil), req.ColumnDelimiters...),
		ComparisonPairs:  append([]recon.ComparisonPair(nil), req.ComparisonPairs...),
		Config:           req.ReconConfigurations,
		DateCreated:      s.now().Unix(),
	}
	if err := s.store.Save(ctx, task); err != nil {
		s.logger.Warn("save task failed", logpkg.Str("task_id", task.ID), logpkg.Err(err))
		return recon.ReconTaskResponseDetails{}, err
	}
	s.logger.Info("task created",
		logpkg.Str("task_id", task.ID),
		logpkg.Str("user_id", task.UserID),
		logpkg.Int("comparison_pairs", len(task.ComparisonPairs)),
	)
	return task.Summary(), nil
}

// Get returns the full stored task.
func (s *Service) Get(ctx context.Context, taskID string) (recon.ReconTask, error) {
	if strings.TrimSpace(taskID) == "" {
		return recon.ReconTask{}, recon.NewError(recon.KindBadClientRequest, "please supply a taskID")
	}
	return s.store.Get(ctx, taskID)
}

// List returns up to limit stored tasks ordered by id.
func (s *Service) List(ctx context.Context, limit int) ([]recon.ReconTask, error) {
	tasks, err := s.store.List(ctx, limit)
	if err != nil {
		s.logger.Warn("list tasks failed", logpkg.Err(err))
		return nil, err
	}
	if tasks == nil {
		tasks = []recon.ReconTask{}
	}
	return tasks, nil
}

// Summary returns {task_id, is_done, has_begun} for taskID.
func (s *Service) Summary(ctx context.Context, taskID string) (recon.ReconTaskResponseDetails, error) {
	task, err := s.Get(ctx, taskID)
	if err != nil {
		return recon.ReconTaskResponseDetails{}, err
	}
	return task.Summary(), nil
}

// Metadata is the lookup view used by the chunk pipeline.
func (s *Service) Metadata(ctx context.Context, taskID string) (recon.ReconTaskMetadata, error) {
	task, err := s.Get(ctx, taskID)
	if err != nil {
		return recon.ReconTaskMetadata{}, err
	}
	return task.Metadata(), nil
}
