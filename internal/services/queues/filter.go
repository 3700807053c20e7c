package queues

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/cel-go/cel"

	"github.com/nkasozi/reconciler-backend/internal/recon"
	"github.com/nkasozi/reconciler-backend/internal/workqueue"
)

// celFilter wraps a compiled CEL program evaluated against queued chunks.
// When disabled, Eval always returns true.
type celFilter struct {
	prog    cel.Program
	enabled bool
}

func newCELFilter(expr string) (celFilter, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return celFilter{enabled: false}, nil
	}
	env, err := cel.NewEnv(
		cel.Variable("seq", cel.IntType),
		cel.Variable("priority", cel.IntType),
		cel.Variable("attempts", cel.IntType),
		cel.Variable("size", cel.IntType),
		cel.Variable("upload_request_id", cel.StringType),
		cel.Variable("chunk_sequence_number", cel.IntType),
		cel.Variable("chunk_source", cel.StringType),
		cel.Variable("row_count", cel.IntType),
		cel.Variable("failed_rows", cel.IntType),
		cel.Variable("date_created", cel.IntType),
		// full chunk document, rows included
		cel.Variable("json", cel.DynType),
		cel.Variable("now_ms", cel.IntType),
	)
	if err != nil {
		return celFilter{}, err
	}
	ast, iss := env.Parse(expr)
	if iss != nil && iss.Err() != nil {
		return celFilter{}, iss.Err()
	}
	checked, iss2 := env.Check(ast)
	if iss2 != nil && iss2.Err() != nil {
		return celFilter{}, iss2.Err()
	}
	if !checked.OutputType().IsExactType(cel.BoolType) {
		return celFilter{}, recon.NewError(recon.KindBadClientRequest, "filter must evaluate to a bool, got %s", checked.OutputType())
	}
	prog, err := env.Program(checked)
	if err != nil {
		return celFilter{}, err
	}
	return celFilter{prog: prog, enabled: true}, nil
}

// Eval reports whether m matches. Evaluation errors count as no match.
func (f celFilter) Eval(m workqueue.Message) bool {
	if !f.enabled {
		return true
	}
	var h recon.ChunkHeader
	_ = json.Unmarshal(m.Header, &h)
	var doc any
	_ = json.Unmarshal(m.Payload, &doc)
	out, _, err := f.prog.Eval(map[string]any{
		"seq":                   int64(m.Seq),
		"priority":              int64(m.Priority),
		"attempts":              int64(m.Attempts),
		"size":                  int64(len(m.Payload)),
		"upload_request_id":     h.UploadRequestID,
		"chunk_sequence_number": int64(h.ChunkSequenceNumber),
		"chunk_source":          h.ChunkSource,
		"row_count":             int64(h.RowCount),
		"failed_rows":           int64(h.FailedRows),
		"date_created":          h.DateCreated,
		"json":                  doc,
		"now_ms":                time.Now().UnixMilli(),
	})
	if err != nil {
		return false
	}
	b, ok := out.Value().(bool)
	return ok && b
}

func (f celFilter) match() workqueue.MatchFunc {
	if !f.enabled {
		return nil
	}
	return func(m workqueue.Message) (bool, error) { return f.Eval(m), nil }
}
