package taskhttp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/nkasozi/reconciler-backend/internal/recon"
)

func TestGetMetadata(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/task-details/RECON-TASK-1/metadata":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"task_id":"RECON-TASK-1","column_delimiters":[","],"comparison_pairs":[{"source_column_index":0,"comparison_column_index":1,"is_record_id":true}]}`))
		case "/v1/task-details/garbled/metadata":
			_, _ = w.Write([]byte(`{"column_delimiters":`))
		case "/v1/task-details/broken/metadata":
			http.Error(w, "boom", http.StatusInternalServerError)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()
	c := New(srv.URL+"/", time.Second)
	ctx := context.Background()

	got, err := c.Get(ctx, "RECON-TASK-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	want := recon.ReconTaskMetadata{
		TaskID:           "RECON-TASK-1",
		ColumnDelimiters: []string{","},
		ComparisonPairs:  []recon.ComparisonPair{{SourceColumnIndex: 0, ComparisonColumnIndex: 1, IsRecordIDColumn: true}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("metadata mismatch (-want +got):\n%s", diff)
	}

	cases := map[string]recon.Kind{
		"missing": recon.KindNotFound,
		"garbled": recon.KindResponseUnmarshalError,
		"broken":  recon.KindConnectionError,
	}
	for id, kind := range cases {
		if _, err := c.Get(ctx, id); !recon.IsKind(err, kind) {
			t.Fatalf("%s: want %s, got %v", id, kind, err)
		}
	}
}

func TestUnreachableIsConnectionError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()
	if _, err := New(addr, 200*time.Millisecond).Get(context.Background(), "x"); !recon.IsKind(err, recon.KindConnectionError) {
		t.Fatalf("want ConnectionError, got %v", err)
	}
}
