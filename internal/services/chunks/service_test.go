package chunks

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/nkasozi/reconciler-backend/internal/recon"
	"github.com/nkasozi/reconciler-backend/internal/repositories/memory"
	logpkg "github.com/nkasozi/reconciler-backend/pkg/log"
)

var queues = recon.Queues{Primary: "primary", Comparison: "comparison"}

func quietLogger() logpkg.Logger {
	return logpkg.NewLogger(logpkg.WithOutput(logpkg.NullOutput{}))
}

func setup() (*Service, *memory.Lookup, *memory.Publisher) {
	lookup := memory.NewLookup()
	lookup.Put("RECON-TASK-1", recon.ReconTaskMetadata{
		TaskID:           "RECON-TASK-1",
		ColumnDelimiters: []string{","},
		ComparisonPairs:  []recon.ComparisonPair{{SourceColumnIndex: 0, ComparisonColumnIndex: 1}},
	})
	pub := memory.NewPublisher()
	return New(lookup, pub, queues, WithLogger(quietLogger())), lookup, pub
}

func decode(t *testing.T, payload []byte) recon.FileUploadChunk {
	t.Helper()
	var c recon.FileUploadChunk
	if err := json.Unmarshal(payload, &c); err != nil {
		t.Fatalf("decode chunk: %v", err)
	}
	return c
}

func TestUploadRoutesByRole(t *testing.T) {
	svc, _, pub := setup()
	ctx := context.Background()
	for _, tc := range []struct {
		source recon.ChunkSource
		column uint32
		queue  string
	}{
		{recon.PrimaryFileChunk, 0, "primary"},
		{recon.ComparisonFileChunk, 1, "comparison"},
	} {
		resp, err := svc.Upload(ctx, recon.UploadChunkRequest{
			UploadRequestID:     "RECON-TASK-1",
			ChunkSequenceNumber: 1,
			ChunkSource:         tc.source,
			ChunkRows:           []string{"a,b"},
		})
		if err != nil {
			t.Fatalf("%v: %v", tc.source, err)
		}
		sent := pub.Sent()
		last := sent[len(sent)-1]
		if last.Queue != tc.queue {
			t.Fatalf("%v routed to %s", tc.source, last.Queue)
		}
		chunk := decode(t, last.Payload)
		if chunk.ID != resp.FileChunkID || chunk.ChunkSource != tc.source {
			t.Fatalf("published chunk %+v, response %+v", chunk, resp)
		}
		if chunk.ChunkRows[0].ReconResult != recon.ReconPending {
			t.Fatalf("row should be pending: %+v", chunk.ChunkRows[0])
		}
	}
	if n := len(pub.Sent()); n != 2 {
		t.Fatalf("want 2 publishes, got %d", n)
	}
}

func TestValidationShortCircuits(t *testing.T) {
	svc, lookup, pub := setup()
	_, err := svc.Upload(context.Background(), recon.UploadChunkRequest{
		UploadRequestID:     "RECON-TASK-1",
		ChunkSequenceNumber: 0,
		ChunkSource:         recon.PrimaryFileChunk,
		ChunkRows:           []string{"a"},
	})
	if !recon.IsKind(err, recon.KindBadClientRequest) {
		t.Fatalf("want BadClientRequest, got %v", err)
	}
	if lookup.Calls() != 0 || len(pub.Sent()) != 0 {
		t.Fatalf("no I/O expected: lookups=%d publishes=%d", lookup.Calls(), len(pub.Sent()))
	}
}

func TestLookupFailureNeverPublishes(t *testing.T) {
	svc, lookup, pub := setup()
	lookupErr := recon.NewError(recon.KindConnectionError, "task service down")
	lookup.Err = lookupErr
	_, err := svc.Upload(context.Background(), recon.UploadChunkRequest{
		UploadRequestID: "RECON-TASK-1", ChunkSequenceNumber: 1,
		ChunkSource: recon.PrimaryFileChunk, ChunkRows: []string{"a"},
	})
	if !errors.Is(err, lookupErr) {
		t.Fatalf("lookup error should pass through unchanged, got %v", err)
	}
	if len(pub.Sent()) != 0 {
		t.Fatalf("published after lookup failure")
	}
}

func TestUnknownTaskIsNotFound(t *testing.T) {
	svc, _, _ := setup()
	_, err := svc.Upload(context.Background(), recon.UploadChunkRequest{
		UploadRequestID: "RECON-TASK-404", ChunkSequenceNumber: 1,
		ChunkSource: recon.PrimaryFileChunk, ChunkRows: []string{"a"},
	})
	if !recon.IsKind(err, recon.KindNotFound) {
		t.Fatalf("want NotFound, got %v", err)
	}
}

func TestPublishFailurePassesThrough(t *testing.T) {
	svc, _, pub := setup()
	pubErr := errors.New("broker gone")
	pub.Err = pubErr
	_, err := svc.Upload(context.Background(), recon.UploadChunkRequest{
		UploadRequestID: "RECON-TASK-1", ChunkSequenceNumber: 1,
		ChunkSource: recon.PrimaryFileChunk, ChunkRows: []string{"a"},
	})
	if err != pubErr {
		t.Fatalf("want publisher error unchanged, got %v", err)
	}
}

func TestMalformedRowStillPublished(t *testing.T) {
	lookup := memory.NewLookup()
	lookup.Put("T", recon.ReconTaskMetadata{
		ColumnDelimiters: []string{","},
		ComparisonPairs:  []recon.ComparisonPair{{SourceColumnIndex: 2}},
	})
	pub := memory.NewPublisher()
	svc := New(lookup, pub, queues, WithLogger(quietLogger()))
	if _, err := svc.Upload(context.Background(), recon.UploadChunkRequest{
		UploadRequestID: "T", ChunkSequenceNumber: 4, ChunkSource: recon.PrimaryFileChunk,
		ChunkRows: []string{"a,b,c", "a,b", "x,y,z"},
	}); err != nil {
		t.Fatalf("upload: %v", err)
	}
	chunk := decode(t, pub.Sent()[0].Payload)
	var statuses []recon.ReconStatus
	for _, r := range chunk.ChunkRows {
		statuses = append(statuses, r.ReconResult)
	}
	want := []recon.ReconStatus{recon.ReconPending, recon.ReconFailed, recon.ReconPending}
	if diff := cmp.Diff(want, statuses); diff != "" {
		t.Fatalf("statuses (-want +got):\n%s", diff)
	}
	if got := chunk.ChunkRows[1].FailureReasons; len(got) != 1 || got[0] != "cant find a value in column 2 of source file for this row 2" {
		t.Fatalf("reasons: %q", got)
	}
}

func TestDeterministicAssembly(t *testing.T) {
	lookup := memory.NewLookup()
	lookup.Put("T", recon.ReconTaskMetadata{ColumnDelimiters: []string{","}})
	pub := memory.NewPublisher()
	at := time.Unix(1_700_000_000, 0)
	svc := New(lookup, pub, queues, WithLogger(quietLogger()),
		WithAssembler(&recon.Assembler{NewID: func() string { return "FILE-CHUNK-fixed" }, Now: func() time.Time { return at }}))
	resp, err := svc.Upload(context.Background(), recon.UploadChunkRequest{
		UploadRequestID: "T", ChunkSequenceNumber: 1, ChunkSource: recon.ComparisonFileChunk, ChunkRows: []string{"r"},
	})
	if err != nil || resp.FileChunkID != "FILE-CHUNK-fixed" {
		t.Fatalf("resp=%+v err=%v", resp, err)
	}
	chunk := decode(t, pub.Sent()[0].Payload)
	if chunk.DateCreated != at.Unix() || chunk.DateModified != chunk.DateCreated {
		t.Fatalf("timestamps %d/%d", chunk.DateCreated, chunk.DateModified)
	}
}

type countingRecorder struct {
	mu       sync.Mutex
	outcomes []string
	failed   int
}

func (r *countingRecorder) ObserveUpload(_, outcome string, _, failed int, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, outcome)
	r.failed += failed
}

func (r *countingRecorder) ObservePublish(string, error) {}

func TestConcurrentUploadsGetUniqueIDs(t *testing.T) {
	lookup := memory.NewLookup()
	lookup.Put("T", recon.ReconTaskMetadata{ColumnDelimiters: []string{","}})
	pub := memory.NewPublisher()
	rec := &countingRecorder{}
	svc := New(lookup, pub, queues, WithLogger(quietLogger()), WithRecorder(rec))

	const n = 32
	ids := make(chan string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(seq int64) {
			defer wg.Done()
			resp, err := svc.Upload(context.Background(), recon.UploadChunkRequest{
				UploadRequestID: "T", ChunkSequenceNumber: seq, ChunkSource: recon.PrimaryFileChunk, ChunkRows: []string{"same,row"},
			})
			if err != nil {
				t.Errorf("upload %d: %v", seq, err)
				return
			}
			ids <- resp.FileChunkID
		}(int64(i + 1))
	}
	wg.Wait()
	close(ids)
	seen := map[string]bool{}
	for id := range ids {
		if seen[id] {
			t.Fatalf("duplicate chunk id %s", id)
		}
		seen[id] = true
	}
	if len(seen) != n || len(rec.outcomes) != n {
		t.Fatalf("ids=%d outcomes=%d", len(seen), len(rec.outcomes))
	}
}
