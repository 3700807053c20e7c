package recon

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/nkasozi/reconciler-backend/pkg/id"
)

func TestAssembleStampsOneInstant(t *testing.T) {
	at := time.Unix(1_700_000_000, 999_000_000)
	a := &Assembler{NewID: func() string { return "FILE-CHUNK-fixed" }, Now: func() time.Time { return at }}
	req := validRequest()
	rows := PrepareRows(req.ChunkRows, comma(ComparisonPair{}), req.ChunkSource)

	chunk := a.Assemble(req, rows)
	if chunk.ID != "FILE-CHUNK-fixed" {
		t.Fatalf("id=%s", chunk.ID)
	}
	if chunk.DateCreated != 1_700_000_000 || chunk.DateModified != chunk.DateCreated {
		t.Fatalf("timestamps %d/%d", chunk.DateCreated, chunk.DateModified)
	}
	if chunk.UploadRequestID != req.UploadRequestID || chunk.ChunkSequenceNumber != 1 || chunk.ChunkSource != PrimaryFileChunk {
		t.Fatalf("request fields not carried: %+v", chunk)
	}
}

func TestAssembleIDsAreUnique(t *testing.T) {
	a := NewAssembler()
	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		c := a.Assemble(validRequest(), nil)
		if !id.HasPrefix(c.ID, id.FileChunkPrefix) {
			t.Fatalf("bad id %q", c.ID)
		}
		if seen[c.ID] {
			t.Fatalf("duplicate id %q", c.ID)
		}
		seen[c.ID] = true
	}
}

func TestChunkWireNames(t *testing.T) {
	a := &Assembler{NewID: func() string { return "FILE-CHUNK-1" }, Now: func() time.Time { return time.Unix(10, 0) }}
	req := validRequest()
	req.ChunkSource = ComparisonFileChunk
	chunk := a.Assemble(req, PrepareRows([]string{"a"}, comma(ComparisonPair{ComparisonColumnIndex: 4}), req.ChunkSource))
	b, err := json.Marshal(chunk)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	s := string(b)
	for _, want := range []string{
		`"chunk_rows":[`, `"raw_data":"a"`, `"parsed_columns_from_row":[]`,
		`"recon_result":"Failed"`, `"recon_result_reasons":["cant find a value in column 4 of comparison file for this row 1"]`,
		`"chunk_source":"ComparisonFileChunk"`, `"date_created":10`, `"date_modified":10`,
	} {
		if !strings.Contains(s, want) {
			t.Fatalf("missing %s in %s", want, s)
		}
	}
	if chunk.FailedRows() != 1 {
		t.Fatalf("FailedRows=%d", chunk.FailedRows())
	}
}

func TestChunkSourceJSON(t *testing.T) {
	var req UploadChunkRequest
	if err := json.Unmarshal([]byte(`{"chunk_source":"ComparisonFileChunk"}`), &req); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if req.ChunkSource != ComparisonFileChunk {
		t.Fatalf("got %v", req.ChunkSource)
	}
	if err := json.Unmarshal([]byte(`{"chunk_source":"Sideways"}`), &req); err != nil {
		t.Fatalf("unknown names decode as unknown: %v", err)
	}
	if req.ChunkSource != ChunkSourceUnknown {
		t.Fatalf("got %v", req.ChunkSource)
	}
}

func TestRoute(t *testing.T) {
	q := Queues{Primary: "p", Comparison: "c"}
	if q.Route(PrimaryFileChunk) != "p" || q.Route(ComparisonFileChunk) != "c" {
		t.Fatalf("routing broken")
	}
}
