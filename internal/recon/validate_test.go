package recon

import (
	"encoding/json"
	"strings"
	"testing"
)

func validRequest() UploadChunkRequest {
	return UploadChunkRequest{
		UploadRequestID:     "RECON-TASK-1",
		ChunkSequenceNumber: 1,
		ChunkSource:         PrimaryFileChunk,
		ChunkRows:           []string{"a,b"},
	}
}

func TestValidateAcceptsWellFormed(t *testing.T) {
	if err := Validate(validRequest()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	req := validRequest()
	req.ChunkRows = []string{""}
	if err := Validate(req); err != nil {
		t.Fatalf("empty row strings are allowed: %v", err)
	}
}

func TestValidateAcceptsAnyNonEmptyIDAndLargeSequence(t *testing.T) {
	req := validRequest()
	req.UploadRequestID = " "
	if err := Validate(req); err != nil {
		t.Fatalf("whitespace id is non-empty: %v", err)
	}

	var decoded UploadChunkRequest
	body := `{"upload_request_id":"T","chunk_sequence_number":5000000000,"chunk_source":"PrimaryFileChunk","chunk_rows":["a"]}`
	if err := json.Unmarshal([]byte(body), &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.ChunkSequenceNumber != 5_000_000_000 {
		t.Fatalf("sequence = %d", decoded.ChunkSequenceNumber)
	}
	if err := Validate(decoded); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*UploadChunkRequest)
		want   string
	}{
		{"zero sequence", func(r *UploadChunkRequest) { r.ChunkSequenceNumber = 0 }, "chunk_sequence_number"},
		{"missing id", func(r *UploadChunkRequest) { r.UploadRequestID = "" }, "upload_request_id"},
		{"negative sequence", func(r *UploadChunkRequest) { r.ChunkSequenceNumber = -3 }, "chunk_sequence_number"},
		{"unknown source", func(r *UploadChunkRequest) { r.ChunkSource = ChunkSourceUnknown }, "chunk_source"},
		{"no rows", func(r *UploadChunkRequest) { r.ChunkRows = nil }, "chunk rows"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req)
			err := Validate(req)
			if !IsKind(err, KindBadClientRequest) {
				t.Fatalf("want BadClientRequest, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("message %q does not mention %q", err.Error(), tt.want)
			}
		})
	}
}

func TestValidateJoinsAllProblems(t *testing.T) {
	err := Validate(UploadChunkRequest{})
	if !IsKind(err, KindBadClientRequest) {
		t.Fatalf("want BadClientRequest, got %v", err)
	}
	e := err.(*Error)
	if n := len(strings.Split(e.Message, validationSeparator)); n != 4 {
		t.Fatalf("want 4 joined problems, got %d in %q", n, e.Message)
	}
	if !strings.HasPrefix(err.Error(), "BadClientRequest - [") {
		t.Fatalf("unexpected rendering %q", err.Error())
	}
}
