// Package memory provides in-process implementations of the recon
// collaborators. They are safe for concurrent use.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/nkasozi/reconciler-backend/internal/recon"
)

// TaskStore keeps tasks in a map.
type TaskStore struct {
	mu    sync.RWMutex
	tasks map[string]recon.ReconTask
	// Err, when set, is returned by every call.
	Err error
}

func NewTaskStore() *TaskStore { return &TaskStore{tasks: make(map[string]recon.ReconTask)} }

func (s *TaskStore) Save(_ context.Context, task recon.ReconTask) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.tasks[task.ID] = task
	return nil
}

func (s *TaskStore) Get(_ context.Context, taskID string) (recon.ReconTask, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.Err != nil {
		return recon.ReconTask{}, s.Err
	}
	task, ok := s.tasks[taskID]
	if !ok {
		return recon.ReconTask{}, recon.NewError(recon.KindNotFound, "no recon task with id %s", taskID)
	}
	return task, nil
}

// List returns up to limit tasks ordered by id.
func (s *TaskStore) List(_ context.Context, limit int) ([]recon.ReconTask, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.Err != nil {
		return nil, s.Err
	}
	ids := make([]string, 0, len(s.tasks))
	for id := range s.tasks {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	out := make([]recon.ReconTask, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.tasks[id])
	}
	return out, nil
}

// Lookup serves fixed metadata per upload request id.
type Lookup struct {
	mu    sync.Mutex
	meta  map[string]recon.ReconTaskMetadata
	calls int
	// Err, when set, is returned by Get.
	Err error
}

func NewLookup() *Lookup { return &Lookup{meta: make(map[string]recon.ReconTaskMetadata)} }

// Put registers metadata for an upload request id.
func (l *Lookup) Put(uploadRequestID string, meta recon.ReconTaskMetadata) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.meta[uploadRequestID] = meta
}

func (l *Lookup) Get(_ context.Context, uploadRequestID string) (recon.ReconTaskMetadata, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
	if l.Err != nil {
		return recon.ReconTaskMetadata{}, l.Err
	}
	meta, ok := l.meta[uploadRequestID]
	if !ok {
		return recon.ReconTaskMetadata{}, recon.NewError(recon.KindNotFound, "no recon task with id %s", uploadRequestID)
	}
	return meta, nil
}

// Calls reports how many times Get ran.
func (l *Lookup) Calls() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls
}

// Published is one recorded Publish call.
type Published struct {
	Queue   string
	Payload []byte
	AckID   string
}

// Publisher records every publish.
type Publisher struct {
	mu   sync.Mutex
	sent []Published
	// Err, when set, is returned by Publish and nothing is recorded.
	Err error
}

func NewPublisher() *Publisher { return &Publisher{} }

func (p *Publisher) Publish(_ context.Context, queue string, payload []byte) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return "", p.Err
	}
	ack := fmt.Sprintf("mem-%d", len(p.sent)+1)
	p.sent = append(p.sent, Published{Queue: queue, Payload: append([]byte(nil), payload...), AckID: ack})
	return ack, nil
}

// Sent returns a copy of the recorded publishes.
func (p *Publisher) Sent() []Published {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Published(nil), p.sent...)
}

var (
	_ recon.TaskStore          = (*TaskStore)(nil)
	_ recon.TaskMetadataLookup = (*Lookup)(nil)
	_ recon.QueuePublisher     = (*Publisher)(nil)
)
