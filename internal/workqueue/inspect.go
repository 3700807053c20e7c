package workqueue

import (
	"context"
	"encoding/binary"

	pebblestore "github.com/nkasozi/reconciler-backend/internal/storage/pebble"
)

// Stats is a point-in-time count of a queue's messages by state.
type Stats struct {
	Queue   string `json:"queue"`
	Ready   int    `json:"ready"`
	Delayed int    `json:"delayed"`
	Leased  int    `json:"leased"`
	DLQ     int    `json:"dlq"`
	LastSeq uint64 `json:"last_seq"`
}

// Stats counts messages per state. Counts are taken with separate scans and
// can be momentarily inconsistent under concurrent writes.
func (q *WorkQueue) Stats(ctx context.Context) (Stats, error) {
	st := Stats{Queue: q.name}
	var err error
	if st.Ready, err = q.countPrefix(q.keys.prefix(segPrio), 0); err != nil {
		return st, err
	}
	if st.Delayed, err = q.countPrefix(q.keys.prefix(segDelay), 0); err != nil {
		return st, err
	}
	if st.Leased, err = q.countPrefix(q.keys.prefix(segLeaseIdx), 0); err != nil {
		return st, err
	}
	if st.DLQ, err = q.countPrefix(q.keys.prefix(segDLQ), 0); err != nil {
		return st, err
	}
	q.mu.Lock()
	st.LastSeq = q.lastSeq
	q.mu.Unlock()
	return st, ctx.Err()
}

// countPrefix counts keys under prefix, stopping at limit when limit > 0.
func (q *WorkQueue) countPrefix(prefix []byte, limit int) (int, error) {
	n := 0
	err := q.db.ScanPrefix(prefix, func(_, _ []byte) bool {
		n++
		return limit <= 0 || n < limit
	})
	return n, err
}

// MatchFunc decides whether an inspected message is returned.
type MatchFunc func(Message) (bool, error)

// ListReady returns up to limit ready messages in dequeue order without
// leasing them. A nil match accepts everything.
func (q *WorkQueue) ListReady(ctx context.Context, limit int, match MatchFunc) ([]Message, error) {
	prefix := q.keys.prefix(segPrio)
	var out []Message
	var firstErr error
	err := q.db.ScanPrefix(prefix, func(k, _ []byte) bool {
		if ctx.Err() != nil {
			firstErr = ctx.Err()
			return false
		}
		prio, seq, ok := splitPrio(k, len(prefix))
		if !ok {
			return true
		}
		raw, err := q.db.Get(q.keys.msg(seq))
		if err != nil {
			if !pebblestore.IsNotFound(err) {
				firstErr = err
				return false
			}
			return true
		}
		header, payload, err := decodeRecord(raw)
		if err != nil {
			return true
		}
		m := Message{Seq: seq, Priority: prio, Header: header, Payload: payload}
		if match != nil {
			keep, err := match(m)
			if err != nil {
				firstErr = err
				return false
			}
			if !keep {
				return true
			}
		}
		out = append(out, m)
		return limit <= 0 || len(out) < limit
	})
	if firstErr != nil {
		return nil, firstErr
	}
	return out, err
}

// ListDLQ returns up to limit dead-lettered messages in sequence order.
func (q *WorkQueue) ListDLQ(ctx context.Context, limit int) ([]Message, error) {
	prefix := q.keys.prefix(segDLQ)
	var out []Message
	err := q.db.ScanPrefix(prefix, func(k, v []byte) bool {
		if len(k) != len(prefix)+8 || len(v) < 4 {
			return true
		}
		header, payload, err := decodeRecord(v[4:])
		if err != nil {
			return true
		}
		out = append(out, Message{
			Seq:      binary.BigEndian.Uint64(k[len(prefix):]),
			Header:   header,
			Payload:  payload,
			Attempts: binary.BigEndian.Uint32(v[:4]),
		})
		return limit <= 0 || len(out) < limit
	})
	if err != nil {
		return nil, err
	}
	return out, ctx.Err()
}
