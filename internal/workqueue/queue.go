package workqueue

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/cockroachdb/pebble"

	pebblestore "github.com/nkasozi/reconciler-backend/internal/storage/pebble"
)

const (
	defaultLeaseMs     = 30_000
	defaultMaxAttempts = 5
)

// ErrNotLeased is returned when completing or failing a message that holds no lease.
var ErrNotLeased = errors.New("workqueue: message is not leased")

// Options tunes a WorkQueue.
type Options struct {
	// MaxAvailable throttles Enqueue while at least this many messages are
	// ready. Zero disables backpressure.
	MaxAvailable  int
	ThrottleSleep time.Duration
	// MaxAttempts moves a message to the DLQ on its Nth failure.
	MaxAttempts int
	// RetryPriority is the priority a retried or reclaimed message gets when
	// its original priority is unknown.
	RetryPriority uint32
}

// WorkQueue is one named queue stored in pebble.
type WorkQueue struct {
	db   *pebblestore.DB
	name string
	keys keyspace
	opts Options

	mu      sync.Mutex
	lastSeq uint64

	sweepMu   sync.Mutex
	sweepStop chan struct{}
	sweepDone chan struct{}
}

// Message is a stored message as seen by consumers and inspectors.
type Message struct {
	Seq      uint64
	Priority uint32
	Header   []byte
	Payload  []byte
	// Attempts counts failures so far.
	Attempts uint32
	// ExpiryMs is set for leased messages.
	ExpiryMs int64
}

// OpenQueue opens (or creates) a queue and restores its sequence counter.
func OpenQueue(db *pebblestore.DB, namespace, name string, opts Options) (*WorkQueue, error) {
	if name == "" {
		return nil, errors.New("workqueue: queue name is required")
	}
	if opts.ThrottleSleep <= 0 {
		opts.ThrottleSleep = 10 * time.Millisecond
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = defaultMaxAttempts
	}
	q := &WorkQueue{db: db, name: name, keys: newKeyspace(namespace, name), opts: opts}
	meta, err := db.Get(q.keys.meta())
	switch {
	case err == nil && len(meta) >= 8:
		q.lastSeq = binary.BigEndian.Uint64(meta[:8])
	case err != nil && !pebblestore.IsNotFound(err):
		return nil, fmt.Errorf("workqueue %s: read meta: %w", name, err)
	}
	return q, nil
}

// Name returns the queue name.
func (q *WorkQueue) Name() string { return q.name }

// Enqueue stores a message. Lower priorities are dequeued first; a positive
// delayMs hides the message until nowMs+delayMs. nowMs <= 0 means now.
func (q *WorkQueue) Enqueue(ctx context.Context, header, payload []byte, priority uint32, delayMs int64, nowMs int64) (uint64, error) {
	if nowMs <= 0 {
		nowMs = time.Now().UnixMilli()
	}
	if err := q.waitForRoom(ctx); err != nil {
		return 0, err
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	b := q.db.NewBatch()
	defer b.Close()

	seq := q.lastSeq + 1
	if err := b.Set(q.keys.msg(seq), encodeRecord(header, payload), nil); err != nil {
		return 0, err
	}
	if delayMs > 0 {
		if err := b.Set(q.keys.delay(nowMs+delayMs, seq), u32(priority), nil); err != nil {
			return 0, err
		}
	} else if err := b.Set(q.keys.prio(priority, seq), nil, nil); err != nil {
		return 0, err
	}
	var meta [8]byte
	binary.BigEndian.PutUint64(meta[:], seq)
	if err := b.Set(q.keys.meta(), meta[:], nil); err != nil {
		return 0, err
	}
	if err := q.db.CommitBatch(ctx, b); err != nil {
		return 0, err
	}
	q.lastSeq = seq
	return seq, nil
}

func (q *WorkQueue) waitForRoom(ctx context.Context) error {
	if q.opts.MaxAvailable <= 0 {
		return nil
	}
	for {
		n, err := q.countPrefix(q.keys.prefix(segPrio), q.opts.MaxAvailable)
		if err != nil {
			return err
		}
		if n < q.opts.MaxAvailable {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(q.opts.ThrottleSleep):
		}
	}
}

// promoteDue moves due delayed messages into the ready index. Caller holds q.mu.
func (q *WorkQueue) promoteDue(ctx context.Context, nowMs int64, max int) error {
	prefix := q.keys.prefix(segDelay)
	iter, err := q.db.NewIter(&pebble.IterOptions{LowerBound: prefix, UpperBound: pebblestore.PrefixUpperBound(prefix)})
	if err != nil {
		return err
	}
	defer iter.Close()

	b := q.db.NewBatch()
	defer b.Close()
	promoted := 0
	for ok := iter.First(); ok; ok = iter.Next() {
		readyAt, seq, valid := splitTimed(iter.Key(), len(prefix))
		if !valid {
			continue
		}
		if readyAt > nowMs {
			break
		}
		prio := q.opts.RetryPriority
		if v := iter.Value(); len(v) >= 4 {
			prio = binary.BigEndian.Uint32(v)
		}
		if err := b.Delete(iter.Key(), nil); err != nil {
			return err
		}
		if err := b.Set(q.keys.prio(prio, seq), nil, nil); err != nil {
			return err
		}
		promoted++
		if max > 0 && promoted >= max {
			break
		}
	}
	if err := iter.Error(); err != nil {
		return err
	}
	if promoted == 0 {
		return nil
	}
	return q.db.CommitBatch(ctx, b)
}

// Dequeue leases up to count ready messages in priority order.
func (q *WorkQueue) Dequeue(ctx context.Context, count int, leaseMs int64, nowMs int64) ([]Message, error) {
	if nowMs <= 0 {
		nowMs = time.Now().UnixMilli()
	}
	if count <= 0 {
		count = 1
	}
	if leaseMs <= 0 {
		leaseMs = defaultLeaseMs
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if err := q.promoteDue(ctx, nowMs, count*4); err != nil {
		return nil, err
	}

	prefix := q.keys.prefix(segPrio)
	iter, err := q.db.NewIter(&pebble.IterOptions{LowerBound: prefix, UpperBound: pebblestore.PrefixUpperBound(prefix)})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	b := q.db.NewBatch()
	defer b.Close()
	dirty := false
	msgs := make([]Message, 0, count)
	for ok := iter.First(); ok && len(msgs) < count; ok = iter.Next() {
		prio, seq, valid := splitPrio(iter.Key(), len(prefix))
		if !valid {
			continue
		}
		dirty = true
		if err := b.Delete(iter.Key(), nil); err != nil {
			return nil, err
		}
		val, err := q.db.Get(q.keys.msg(seq))
		if err != nil {
			if pebblestore.IsNotFound(err) {
				continue // orphaned index entry
			}
			return nil, err
		}
		header, payload, err := decodeRecord(val)
		if err != nil {
			continue
		}
		attempts := uint32(0)
		if prev, err := q.db.Get(q.keys.lease(seq)); err == nil {
			if ls, ok := decodeLease(prev); ok {
				attempts = ls.Attempts
			}
		}
		exp := nowMs + leaseMs
		ls := leaseState{ExpiresMs: exp, Attempts: attempts, Priority: prio}
		if err := b.Set(q.keys.lease(seq), ls.encode(), nil); err != nil {
			return nil, err
		}
		if err := b.Set(q.keys.leaseIdx(exp, seq), nil, nil); err != nil {
			return nil, err
		}
		msgs = append(msgs, Message{Seq: seq, Priority: prio, Header: header, Payload: payload, Attempts: attempts, ExpiryMs: exp})
	}
	if err := iter.Error(); err != nil {
		return nil, err
	}
	if dirty {
		if err := q.db.CommitBatch(ctx, b); err != nil {
			return nil, err
		}
	}
	return msgs, nil
}

// activeLease returns the lease of seq if it is currently held.
func (q *WorkQueue) activeLease(seq uint64) (leaseState, error) {
	raw, err := q.db.Get(q.keys.lease(seq))
	if err != nil {
		if pebblestore.IsNotFound(err) {
			return leaseState{}, fmt.Errorf("%w: seq %d", ErrNotLeased, seq)
		}
		return leaseState{}, err
	}
	ls, ok := decodeLease(raw)
	if !ok || ls.ExpiresMs == 0 {
		return leaseState{}, fmt.Errorf("%w: seq %d", ErrNotLeased, seq)
	}
	return ls, nil
}

// ExtendLease pushes the expiry of held leases to nowMs+leaseMs.
func (q *WorkQueue) ExtendLease(ctx context.Context, seqs []uint64, leaseMs int64, nowMs int64) error {
	if nowMs <= 0 {
		nowMs = time.Now().UnixMilli()
	}
	if leaseMs <= 0 {
		leaseMs = defaultLeaseMs
	}
	q.mu.Lock()
	defer q.mu.Unlock()

	b := q.db.NewBatch()
	defer b.Close()
	for _, seq := range seqs {
		ls, err := q.activeLease(seq)
		if err != nil {
			return err
		}
		if err := b.Delete(q.keys.leaseIdx(ls.ExpiresMs, seq), nil); err != nil {
			return err
		}
		ls.ExpiresMs = nowMs + leaseMs
		if err := b.Set(q.keys.lease(seq), ls.encode(), nil); err != nil {
			return err
		}
		if err := b.Set(q.keys.leaseIdx(ls.ExpiresMs, seq), nil, nil); err != nil {
			return err
		}
	}
	return q.db.CommitBatch(ctx, b)
}

// Complete acknowledges leased messages and deletes them.
func (q *WorkQueue) Complete(ctx context.Context, seqs []uint64) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	b := q.db.NewBatch()
	defer b.Close()
	for _, seq := range seqs {
		ls, err := q.activeLease(seq)
		if err != nil {
			return err
		}
		for _, k := range [][]byte{q.keys.lease(seq), q.keys.leaseIdx(ls.ExpiresMs, seq), q.keys.msg(seq)} {
			if err := b.Delete(k, nil); err != nil {
				return err
			}
		}
	}
	return q.db.CommitBatch(ctx, b)
}

// Fail releases leased messages. Each is retried after retryAfterMs unless
// toDLQ is set or it has now failed MaxAttempts times, in which case it moves
// to the DLQ. It reports how many messages were dead-lettered.
func (q *WorkQueue) Fail(ctx context.Context, seqs []uint64, retryAfterMs int64, toDLQ bool, nowMs int64) (int, error) {
	if nowMs <= 0 {
		nowMs = time.Now().UnixMilli()
	}
	q.mu.Lock()
	defer q.mu.Unlock()

	b := q.db.NewBatch()
	defer b.Close()
	dead := 0
	for _, seq := range seqs {
		ls, err := q.activeLease(seq)
		if err != nil {
			return 0, err
		}
		ls.Attempts++
		if err := b.Delete(q.keys.leaseIdx(ls.ExpiresMs, seq), nil); err != nil {
			return 0, err
		}
		if toDLQ || int(ls.Attempts) >= q.opts.MaxAttempts {
			val, err := q.db.Get(q.keys.msg(seq))
			if err != nil && !pebblestore.IsNotFound(err) {
				return 0, err
			}
			if err == nil {
				if err := b.Set(q.keys.dlq(seq), append(u32(ls.Attempts), val...), nil); err != nil {
					return 0, err
				}
			}
			if err := b.Delete(q.keys.msg(seq), nil); err != nil {
				return 0, err
			}
			if err := b.Delete(q.keys.lease(seq), nil); err != nil {
				return 0, err
			}
			dead++
			continue
		}
		// keep attempts on an expired-at-zero lease record for the next Dequeue
		released := leaseState{Attempts: ls.Attempts, Priority: ls.Priority}
		if err := b.Set(q.keys.lease(seq), released.encode(), nil); err != nil {
			return 0, err
		}
		if retryAfterMs > 0 {
			err = b.Set(q.keys.delay(nowMs+retryAfterMs, seq), u32(ls.Priority), nil)
		} else {
			err = b.Set(q.keys.prio(ls.Priority, seq), nil, nil)
		}
		if err != nil {
			return 0, err
		}
	}
	if err := q.db.CommitBatch(ctx, b); err != nil {
		return 0, err
	}
	return dead, nil
}

// ReclaimExpired makes messages whose lease expired at or before nowMs ready
// again. It returns how many were reclaimed.
func (q *WorkQueue) ReclaimExpired(ctx context.Context, nowMs int64, max int) (int, error) {
	if nowMs <= 0 {
		nowMs = time.Now().UnixMilli()
	}
	q.mu.Lock()
	defer q.mu.Unlock()

	prefix := q.keys.prefix(segLeaseIdx)
	hi := pebblestore.PrefixUpperBound(prefix)
	iter, err := q.db.NewIter(&pebble.IterOptions{LowerBound: prefix, UpperBound: hi})
	if err != nil {
		return 0, err
	}
	defer iter.Close()

	b := q.db.NewBatch()
	defer b.Close()
	reclaimed := 0
	for ok := iter.First(); ok; ok = iter.Next() {
		exp, seq, valid := splitTimed(iter.Key(), len(prefix))
		if !valid {
			continue
		}
		if exp > nowMs {
			break
		}
		if err := b.Delete(iter.Key(), nil); err != nil {
			return reclaimed, err
		}
		prio := q.opts.RetryPriority
		attempts := uint32(0)
		if raw, err := q.db.Get(q.keys.lease(seq)); err == nil {
			if ls, ok := decodeLease(raw); ok {
				prio, attempts = ls.Priority, ls.Attempts
			}
		}
		released := leaseState{Attempts: attempts, Priority: prio}
		if err := b.Set(q.keys.lease(seq), released.encode(), nil); err != nil {
			return reclaimed, err
		}
		if err := b.Set(q.keys.prio(prio, seq), nil, nil); err != nil {
			return reclaimed, err
		}
		reclaimed++
		if max > 0 && reclaimed >= max {
			break
		}
	}
	if err := iter.Error(); err != nil {
		return reclaimed, err
	}
	if reclaimed == 0 {
		return 0, nil
	}
	if err := q.db.CommitBatch(ctx, b); err != nil {
		return 0, err
	}
	if reclaimed >= 4096 {
		_ = q.db.CompactRange(prefix, hi)
	}
	return reclaimed, nil
}

// StartSweeper reclaims expired leases every interval (with up to 10%
// jitter) until StopSweeper is called.
func (q *WorkQueue) StartSweeper(interval time.Duration, maxPerTick int) {
	q.sweepMu.Lock()
	defer q.sweepMu.Unlock()
	if q.sweepStop != nil {
		return
	}
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	if maxPerTick <= 0 {
		maxPerTick = 1024
	}
	stop, done := make(chan struct{}), make(chan struct{})
	q.sweepStop, q.sweepDone = stop, done
	go func() {
		defer close(done)
		rng := rand.New(rand.NewSource(time.Now().UnixNano()))
		for {
			timer := time.NewTimer(interval + time.Duration(rng.Int63n(int64(interval/10+1))))
			select {
			case <-stop:
				timer.Stop()
				return
			case <-timer.C:
				_, _ = q.ReclaimExpired(context.Background(), time.Now().UnixMilli(), maxPerTick)
			}
		}
	}()
}

// StopSweeper stops the background sweeper and waits for it to exit.
func (q *WorkQueue) StopSweeper() {
	q.sweepMu.Lock()
	stop, done := q.sweepStop, q.sweepDone
	q.sweepStop, q.sweepDone = nil, nil
	q.sweepMu.Unlock()
	if stop != nil {
		close(stop)
		<-done
	}
}
