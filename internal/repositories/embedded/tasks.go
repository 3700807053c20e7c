// Package embedded implements the recon collaborators on the node's own
// pebble store: tasks are JSON documents under task/{id} and chunks go to
// workqueue queues.
package embedded

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nkasozi/reconciler-backend/internal/recon"
	pebblestore "github.com/nkasozi/reconciler-backend/internal/storage/pebble"
)

const taskKeyPrefix = "task/"

// TaskStore persists tasks in pebble.
type TaskStore struct {
	db *pebblestore.DB
}

func NewTaskStore(db *pebblestore.DB) *TaskStore { return &TaskStore{db: db} }

func taskKey(id string) []byte { return []byte(taskKeyPrefix + id) }

func (s *TaskStore) Save(ctx context.Context, task recon.ReconTask) error {
	b, err := json.Marshal(task)
	if err != nil {
		return recon.WrapError(recon.KindInternalError, err)
	}
	batch := s.db.NewBatch()
	defer batch.Close()
	if err := batch.Set(taskKey(task.ID), b, nil); err != nil {
		return recon.WrapError(recon.KindInternalError, err)
	}
	if err := s.db.CommitBatch(ctx, batch); err != nil {
		return recon.WrapError(recon.KindInternalError, fmt.Errorf("save task %s: %w", task.ID, err))
	}
	return nil
}

func (s *TaskStore) Get(_ context.Context, taskID string) (recon.ReconTask, error) {
	raw, err := s.db.Get(taskKey(taskID))
	if err != nil {
		if pebblestore.IsNotFound(err) {
			return recon.ReconTask{}, recon.NewError(recon.KindNotFound, "no recon task with id %s", taskID)
		}
		return recon.ReconTask{}, recon.WrapError(recon.KindInternalError, err)
	}
	var task recon.ReconTask
	if err := json.Unmarshal(raw, &task); err != nil {
		return recon.ReconTask{}, recon.WrapError(recon.KindResponseUnmarshalError, err)
	}
	return task, nil
}

// List returns up to limit stored tasks in id order.
func (s *TaskStore) List(_ context.Context, limit int) ([]recon.ReconTask, error) {
	var (
		out     []recon.ReconTask
		decodeE error
	)
	err := s.db.ScanPrefix([]byte(taskKeyPrefix), func(_, v []byte) bool {
		var task recon.ReconTask
		if err := json.Unmarshal(v, &task); err != nil {
			decodeE = err
			return false
		}
		out = append(out, task)
		return limit <= 0 || len(out) < limit
	})
	if err == nil {
		err = decodeE
	}
	if err != nil {
		return nil, recon.WrapError(recon.KindInternalError, err)
	}
	return out, nil
}

var _ recon.TaskStore = (*TaskStore)(nil)
