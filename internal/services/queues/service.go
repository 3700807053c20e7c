// Package queues is the consumer and admin surface over the embedded chunk
// queues: stats, filtered listing, lease based dequeue, complete, fail and
// dead-letter inspection.
package queues

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/nkasozi/reconciler-backend/internal/recon"
	"github.com/nkasozi/reconciler-backend/internal/workqueue"
	logpkg "github.com/nkasozi/reconciler-backend/pkg/log"
)

const (
	defaultListLimit = 100
	maxBatch         = 100
)

// Item is a queued chunk as returned to consumers.
type Item struct {
	Seq      uint64            `json:"seq"`
	Priority uint32            `json:"priority"`
	Attempts uint32            `json:"attempts"`
	ExpiryMs int64             `json:"lease_expiry_ms,omitempty"`
	Header   recon.ChunkHeader `json:"header"`
	Chunk    json.RawMessage   `json:"chunk,omitempty"`
}

type Service struct {
	mgr     *workqueue.Manager
	queues  recon.Queues
	leaseMs int64
	logger  logpkg.Logger
}

func New(mgr *workqueue.Manager, queues recon.Queues, leaseMs int64, logger logpkg.Logger) *Service {
	if logger == nil {
		logger = logpkg.NewLogger(logpkg.WithLevel(logpkg.InfoLevel))
	}
	if leaseMs <= 0 {
		leaseMs = 30_000
	}
	return &Service{mgr: mgr, queues: queues, leaseMs: leaseMs, logger: logger.WithComponent("queues")}
}

// queue resolves a name to one of the two chunk queues; empty means primary.
func (s *Service) queue(name string) (*workqueue.WorkQueue, error) {
	switch name {
	case "":
		name = s.queues.Primary
	case s.queues.Primary, s.queues.Comparison:
	default:
		return nil, recon.NewError(recon.KindBadClientRequest, "unknown queue %s", name)
	}
	q, err := s.mgr.Queue(name)
	if err != nil {
		return nil, recon.WrapError(recon.KindInternalError, err)
	}
	return q, nil
}

func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, workqueue.ErrNotLeased) {
		return recon.WrapError(recon.KindBadClientRequest, err)
	}
	var re *recon.Error
	if errors.As(err, &re) {
		return err
	}
	return recon.WrapError(recon.KindInternalError, err)
}

func toItem(m workqueue.Message, withChunk bool) Item {
	it := Item{Seq: m.Seq, Priority: m.Priority, Attempts: m.Attempts, ExpiryMs: m.ExpiryMs}
	_ = json.Unmarshal(m.Header, &it.Header)
	if withChunk {
		it.Chunk = json.RawMessage(append([]byte(nil), m.Payload...))
	}
	return it
}

func toItems(msgs []workqueue.Message, withChunk bool) []Item {
	out := make([]Item, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, toItem(m, withChunk))
	}
	return out
}

// Stats returns counts for both chunk queues.
func (s *Service) Stats(ctx context.Context) ([]workqueue.Stats, error) {
	var out []workqueue.Stats
	for _, name := range []string{s.queues.Primary, s.queues.Comparison} {
		q, err := s.queue(name)
		if err != nil {
			return nil, err
		}
		st, err := q.Stats(ctx)
		if err != nil {
			return nil, mapErr(err)
		}
		out = append(out, st)
	}
	return out, nil
}

// Ready lists ready chunks in dequeue order without leasing them. filter is
// an optional CEL expression over the chunk header fields and the full
// chunk as json.
func (s *Service) Ready(ctx context.Context, queue, filter string, limit int, withChunk bool) ([]Item, error) {
	f, err := newCELFilter(filter)
	if err != nil {
		if recon.IsKind(err, recon.KindBadClientRequest) {
			return nil, err
		}
		return nil, recon.NewError(recon.KindBadClientRequest, "invalid filter: %v", err)
	}
	q, err := s.queue(queue)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	msgs, err := q.ListReady(ctx, limit, f.match())
	if err != nil {
		return nil, mapErr(err)
	}
	return toItems(msgs, withChunk), nil
}

// Dequeue leases up to count chunks. A zero leaseMs uses the configured lease.
func (s *Service) Dequeue(ctx context.Context, queue string, count int, leaseMs int64) ([]Item, error) {
	q, err := s.queue(queue)
	if err != nil {
		return nil, err
	}
	if count > maxBatch {
		count = maxBatch
	}
	if leaseMs <= 0 {
		leaseMs = s.leaseMs
	}
	msgs, err := q.Dequeue(ctx, count, leaseMs, 0)
	if err != nil {
		return nil, mapErr(err)
	}
	if len(msgs) > 0 {
		s.logger.Debug("leased chunks", logpkg.Str("queue", q.Name()), logpkg.Int("count", len(msgs)))
	}
	return toItems(msgs, true), nil
}

// Extend renews leases on seqs.
func (s *Service) Extend(ctx context.Context, queue string, seqs []uint64, leaseMs int64) error {
	q, err := s.queue(queue)
	if err != nil {
		return err
	}
	if leaseMs <= 0 {
		leaseMs = s.leaseMs
	}
	return mapErr(q.ExtendLease(ctx, seqs, leaseMs, 0))
}

// Complete acknowledges processed chunks.
func (s *Service) Complete(ctx context.Context, queue string, seqs []uint64) error {
	q, err := s.queue(queue)
	if err != nil {
		return err
	}
	return mapErr(q.Complete(ctx, seqs))
}

// Fail releases chunks for retry, or dead-letters them. It returns how many
// were dead-lettered.
func (s *Service) Fail(ctx context.Context, queue string, seqs []uint64, retryAfterMs int64, toDLQ bool) (int, error) {
	q, err := s.queue(queue)
	if err != nil {
		return 0, err
	}
	dead, err := q.Fail(ctx, seqs, retryAfterMs, toDLQ, 0)
	if err != nil {
		return 0, mapErr(err)
	}
	if dead > 0 {
		s.logger.Warn("chunks dead-lettered", logpkg.Str("queue", q.Name()), logpkg.Int("count", dead))
	}
	return dead, nil
}

// DLQ lists dead-lettered chunks.
func (s *Service) DLQ(ctx context.Context, queue string, limit int) ([]Item, error) {
	q, err := s.queue(queue)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	msgs, err := q.ListDLQ(ctx, limit)
	if err != nil {
		return nil, mapErr(err)
	}
	return toItems(msgs, true), nil
}
