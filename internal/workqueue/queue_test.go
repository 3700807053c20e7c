package workqueue

import (
	"context"
	"errors"
	"testing"
	"time"

	pebblestore "github.com/nkasozi/reconciler-backend/internal/storage/pebble"
)

func openTestDB(t *testing.T) *pebblestore.DB {
	t.Helper()
	db, err := pebblestore.Open(pebblestore.Options{DataDir: t.TempDir(), Fsync: pebblestore.FsyncModeAlways})
	if err != nil {
		t.Fatalf("open pebble: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func openTestQueue(t *testing.T, opts Options) *WorkQueue {
	t.Helper()
	q, err := OpenQueue(openTestDB(t), "ns", "q", opts)
	if err != nil {
		t.Fatalf("open queue: %v", err)
	}
	return q
}

func TestEnqueueAssignsIncreasingSeq(t *testing.T) {
	q := openTestQueue(t, Options{})
	ctx := context.Background()
	a, err := q.Enqueue(ctx, []byte("h"), []byte("p"), 5, 0, 1000)
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	b, _ := q.Enqueue(ctx, nil, []byte("p2"), 5, 0, 1000)
	if a == 0 || b != a+1 {
		t.Fatalf("seqs %d %d", a, b)
	}
}

func TestSeqSurvivesReopen(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	q, _ := OpenQueue(db, "ns", "q", Options{})
	_, _ = q.Enqueue(ctx, nil, []byte("a"), 1, 0, 1000)
	last, _ := q.Enqueue(ctx, nil, []byte("b"), 1, 0, 1000)

	again, err := OpenQueue(db, "ns", "q", Options{})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	next, _ := again.Enqueue(ctx, nil, []byte("c"), 1, 0, 1000)
	if next != last+1 {
		t.Fatalf("want %d, got %d", last+1, next)
	}
}

func TestDequeueRespectsPriorityAndDelay(t *testing.T) {
	q := openTestQueue(t, Options{})
	ctx := context.Background()
	s1, _ := q.Enqueue(ctx, nil, []byte("a"), 10, 0, 1000)
	s2, _ := q.Enqueue(ctx, nil, []byte("b"), 1, 200, 1000)

	msgs, err := q.Dequeue(ctx, 1, 1000, 1100)
	if err != nil {
		t.Fatalf("dequeue: %v", err)
	}
	if len(msgs) != 1 || msgs[0].Seq != s1 || string(msgs[0].Payload) != "a" {
		t.Fatalf("expected s1 before the delay is due, got %+v", msgs)
	}
	msgs, err = q.Dequeue(ctx, 1, 1000, 1300)
	if err != nil {
		t.Fatalf("dequeue2: %v", err)
	}
	if len(msgs) != 1 || msgs[0].Seq != s2 || msgs[0].Priority != 1 {
		t.Fatalf("expected s2 after delay due, got %+v", msgs)
	}
}

func TestDequeueOrdersBySeqWithinPriority(t *testing.T) {
	q := openTestQueue(t, Options{})
	ctx := context.Background()
	for _, p := range []string{"1", "2", "3"} {
		_, _ = q.Enqueue(ctx, nil, []byte(p), 7, 0, 1000)
	}
	msgs, _ := q.Dequeue(ctx, 10, 1000, 1000)
	if len(msgs) != 3 {
		t.Fatalf("want 3, got %d", len(msgs))
	}
	for i, want := range []string{"1", "2", "3"} {
		if string(msgs[i].Payload) != want {
			t.Fatalf("position %d = %s", i, msgs[i].Payload)
		}
	}
	if again, _ := q.Dequeue(ctx, 10, 1000, 1000); len(again) != 0 {
		t.Fatalf("leased messages delivered twice")
	}
}

func TestExtendAndComplete(t *testing.T) {
	q := openTestQueue(t, Options{})
	ctx := context.Background()
	s, _ := q.Enqueue(ctx, nil, []byte("x"), 5, 0, 1000)
	msgs, err := q.Dequeue(ctx, 1, 1000, 1100)
	if err != nil || len(msgs) != 1 || msgs[0].Seq != s {
		t.Fatalf("dequeue: %v", err)
	}
	if err := q.ExtendLease(ctx, []uint64{s}, 2000, 1200); err != nil {
		t.Fatalf("extend: %v", err)
	}
	// the old expiry (2100) must not reclaim an extended lease
	if n, _ := q.ReclaimExpired(ctx, 2500, 0); n != 0 {
		t.Fatalf("extended lease reclaimed")
	}
	if err := q.Complete(ctx, []uint64{s}); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if err := q.Complete(ctx, []uint64{s}); !errors.Is(err, ErrNotLeased) {
		t.Fatalf("second complete: %v", err)
	}
	st, _ := q.Stats(ctx)
	if st.Ready+st.Leased+st.Delayed+st.DLQ != 0 {
		t.Fatalf("completed message left state behind: %+v", st)
	}
}

func TestFailRetryAndDLQ(t *testing.T) {
	q := openTestQueue(t, Options{})
	ctx := context.Background()
	s, _ := q.Enqueue(ctx, nil, []byte("x"), 5, 0, 1000)
	_, _ = q.Dequeue(ctx, 1, 1000, 1100)
	if dead, err := q.Fail(ctx, []uint64{s}, 200, false, 1100); err != nil || dead != 0 {
		t.Fatalf("fail retry: %d %v", dead, err)
	}
	if msgs, _ := q.Dequeue(ctx, 1, 1000, 1150); len(msgs) != 0 {
		t.Fatalf("should not dequeue before retry after")
	}
	msgs, _ := q.Dequeue(ctx, 1, 1000, 1400)
	if len(msgs) != 1 || msgs[0].Seq != s || msgs[0].Attempts != 1 {
		t.Fatalf("should dequeue after retry delay with one attempt, got %+v", msgs)
	}

	s2, _ := q.Enqueue(ctx, []byte("h2"), []byte("y"), 5, 0, 2000)
	_, _ = q.Dequeue(ctx, 1, 1000, 2100)
	if dead, err := q.Fail(ctx, []uint64{s2}, 0, true, 2100); err != nil || dead != 1 {
		t.Fatalf("fail dlq: %d %v", dead, err)
	}
	dlq, err := q.ListDLQ(ctx, 0)
	if err != nil || len(dlq) != 1 || dlq[0].Seq != s2 || string(dlq[0].Header) != "h2" || dlq[0].Attempts != 1 {
		t.Fatalf("dlq: %+v %v", dlq, err)
	}
}

func TestFailMovesToDLQAfterMaxAttempts(t *testing.T) {
	q := openTestQueue(t, Options{MaxAttempts: 2})
	ctx := context.Background()
	s, _ := q.Enqueue(ctx, nil, []byte("x"), 5, 0, 1000)
	now := int64(1000)
	for attempt := 1; attempt <= 2; attempt++ {
		msgs, _ := q.Dequeue(ctx, 1, 1000, now)
		if len(msgs) != 1 {
			t.Fatalf("attempt %d: nothing to dequeue", attempt)
		}
		dead, err := q.Fail(ctx, []uint64{s}, 0, false, now)
		if err != nil {
			t.Fatalf("fail: %v", err)
		}
		if want := map[int]int{1: 0, 2: 1}[attempt]; dead != want {
			t.Fatalf("attempt %d dead=%d want %d", attempt, dead, want)
		}
		now += 10
	}
	st, _ := q.Stats(ctx)
	if st.DLQ != 1 || st.Ready != 0 {
		t.Fatalf("stats %+v", st)
	}
}

func TestBackpressureHonoursContext(t *testing.T) {
	q := openTestQueue(t, Options{MaxAvailable: 1, ThrottleSleep: time.Millisecond})
	ctx := context.Background()
	if _, err := q.Enqueue(ctx, nil, []byte("first"), 5, 0, 1000); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	short, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	if _, err := q.Enqueue(short, nil, []byte("second"), 5, 0, 1000); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("want deadline exceeded, got %v", err)
	}
	_, _ = q.Dequeue(ctx, 1, 1000, 1000)
	if _, err := q.Enqueue(ctx, nil, []byte("third"), 5, 0, 1000); err != nil {
		t.Fatalf("enqueue after drain: %v", err)
	}
}

func TestReclaimExpired(t *testing.T) {
	q := openTestQueue(t, Options{})
	ctx := context.Background()
	s, _ := q.Enqueue(ctx, nil, []byte("x"), 3, 0, 1000)
	_, _ = q.Dequeue(ctx, 1, 50, 1000)
	n, err := q.ReclaimExpired(ctx, 1100, 10)
	if err != nil {
		t.Fatalf("reclaim: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected one reclaim, got %d", n)
	}
	msgs, _ := q.Dequeue(ctx, 1, 1000, 1200)
	if len(msgs) != 1 || msgs[0].Seq != s || msgs[0].Priority != 3 {
		t.Fatalf("expected reclaimed seq with its priority, got %+v", msgs)
	}
}

func TestSweeperBackground(t *testing.T) {
	q := openTestQueue(t, Options{})
	ctx := context.Background()
	now := time.Now().UnixMilli()
	_, _ = q.Enqueue(ctx, nil, []byte("x"), 5, 0, now)
	_, _ = q.Dequeue(ctx, 1, 1, now)
	q.StartSweeper(20*time.Millisecond, 32)
	defer q.StopSweeper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if st, _ := q.Stats(ctx); st.Ready == 1 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("expected the sweeper to reclaim the expired lease")
}

func TestListReadyFilters(t *testing.T) {
	q := openTestQueue(t, Options{})
	ctx := context.Background()
	for _, h := range []string{"keep", "drop", "keep"} {
		_, _ = q.Enqueue(ctx, []byte(h), []byte("p"), 1, 0, 1000)
	}
	got, err := q.ListReady(ctx, 0, func(m Message) (bool, error) { return string(m.Header) == "keep", nil })
	if err != nil || len(got) != 2 {
		t.Fatalf("ListReady: %v %+v", err, got)
	}
	limited, _ := q.ListReady(ctx, 1, nil)
	if len(limited) != 1 || limited[0].Seq != 1 {
		t.Fatalf("limit ignored: %+v", limited)
	}
	boom := errors.New("boom")
	if _, err := q.ListReady(ctx, 0, func(Message) (bool, error) { return false, boom }); !errors.Is(err, boom) {
		t.Fatalf("match error lost: %v", err)
	}
	// listing must not lease
	if msgs, _ := q.Dequeue(ctx, 10, 1000, 1000); len(msgs) != 3 {
		t.Fatalf("ListReady consumed messages")
	}
}

func TestManagerOpensOnce(t *testing.T) {
	m := NewManager(openTestDB(t), "ns", Options{})
	defer m.Close()
	a, err := m.Queue("primary-file-chunks")
	if err != nil {
		t.Fatalf("queue: %v", err)
	}
	b, _ := m.Queue("primary-file-chunks")
	if a != b {
		t.Fatalf("expected the same queue instance")
	}
	_, _ = m.Queue("comparison-file-chunks")
	if names := m.Names(); len(names) != 2 || names[0] != "comparison-file-chunks" {
		t.Fatalf("names %v", names)
	}
	m.StartSweepers(time.Hour)
	if _, err := m.Queue(""); err == nil {
		t.Fatalf("empty name accepted")
	}
}
