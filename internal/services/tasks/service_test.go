package tasks

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/nkasozi/reconciler-backend/internal/recon"
	"github.com/nkasozi/reconciler-backend/internal/repositories/memory"
	"github.com/nkasozi/reconciler-backend/pkg/id"
	logpkg "github.com/nkasozi/reconciler-backend/pkg/log"
)

func validRequest() recon.CreateReconTaskRequest {
	return recon.CreateReconTaskRequest{
		UserID:                    "user-1",
		SourceFileName:            "bank.csv",
		SourceFileHash:            "abc",
		SourceFileRowCount:        10,
		SourceFileColumnCount:     3,
		ComparisonFileName:        "ledger.csv",
		ComparisonFileHash:        "def",
		ComparisonFileRowCount:    12,
		ComparisonFileColumnCount: 4,
		ColumnDelimiters:          []string{","},
		ComparisonPairs:           []recon.ComparisonPair{{SourceColumnIndex: 0, ComparisonColumnIndex: 3, IsRecordIDColumn: true}},
		ReconConfigurations:       recon.ReconConfig{CaseSensitive: true},
	}
}

func newService() (*Service, *memory.TaskStore) {
	store := memory.NewTaskStore()
	return New(store, logpkg.NewLogger(logpkg.WithOutput(logpkg.NullOutput{}))), store
}

func TestCreateAndGet(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()
	summary, err := svc.Create(ctx, validRequest())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !id.HasPrefix(summary.TaskID, id.ReconTaskPrefix) || summary.IsDone || summary.HasBegun {
		t.Fatalf("summary %+v", summary)
	}

	task, err := svc.Get(ctx, summary.TaskID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !id.HasPrefix(task.SourceFile.ID, id.ReconFilePrefix) || task.SourceFile.ID == task.ComparisonFile.ID {
		t.Fatalf("file ids %s %s", task.SourceFile.ID, task.ComparisonFile.ID)
	}
	if task.SourceFile.FileType != recon.SourceReconFile || task.ComparisonFile.FileType != recon.ComparisonReconFile {
		t.Fatalf("file types %+v", task)
	}
	if !task.Config.CaseSensitive || task.ComparisonFile.ColumnCount != 4 {
		t.Fatalf("task %+v", task)
	}

	meta, err := svc.Metadata(ctx, summary.TaskID)
	if err != nil {
		t.Fatalf("metadata: %v", err)
	}
	want := recon.ReconTaskMetadata{
		TaskID:           summary.TaskID,
		ColumnDelimiters: []string{","},
		ComparisonPairs:  []recon.ComparisonPair{{SourceColumnIndex: 0, ComparisonColumnIndex: 3, IsRecordIDColumn: true}},
	}
	if diff := cmp.Diff(want, meta); diff != "" {
		t.Fatalf("metadata (-want +got):\n%s", diff)
	}
	got, err := svc.Summary(ctx, summary.TaskID)
	if err != nil || got != summary {
		t.Fatalf("summary %+v %v", got, err)
	}
}

func TestCreateRejectsInvalid(t *testing.T) {
	svc, _ := newService()
	req := validRequest()
	req.UserID = ""
	req.ColumnDelimiters = []string{"::"}
	_, err := svc.Create(context.Background(), req)
	if !recon.IsKind(err, recon.KindBadClientRequest) {
		t.Fatalf("want BadClientRequest, got %v", err)
	}
	if !strings.Contains(err.Error(), "please supply a user_id , ") {
		t.Fatalf("messages not joined: %v", err)
	}
}

func TestGetErrors(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()
	_, err := svc.Get(ctx, " ")
	if err == nil || err.Error() != "BadClientRequest - [please supply a taskID]" {
		t.Fatalf("empty id: %v", err)
	}
	if _, err := svc.Metadata(ctx, "RECON-TASK-missing"); !recon.IsKind(err, recon.KindNotFound) {
		t.Fatalf("want NotFound, got %v", err)
	}
}

func TestCreateSurfacesStoreError(t *testing.T) {
	svc, store := newService()
	storeErr := errors.New("disk full")
	store.Err = storeErr
	if _, err := svc.Create(context.Background(), validRequest()); !errors.Is(err, storeErr) {
		t.Fatalf("want store error, got %v", err)
	}
}

func TestListReturnsCreatedTasks(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()
	empty, err := svc.List(ctx, 0)
	if err != nil || empty == nil || len(empty) != 0 {
		t.Fatalf("empty list: %#v %v", empty, err)
	}
	a, _ := svc.Create(ctx, validRequest())
	b, _ := svc.Create(ctx, validRequest())
	all, err := svc.List(ctx, 0)
	if err != nil || len(all) != 2 {
		t.Fatalf("list: %+v %v", all, err)
	}
	got := map[string]bool{all[0].ID: true, all[1].ID: true}
	if !got[a.TaskID] || !got[b.TaskID] {
		t.Fatalf("missing tasks %s %s in %+v", a.TaskID, b.TaskID, got)
	}
}
