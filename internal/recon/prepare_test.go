package recon

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func comma(pairs ...ComparisonPair) ReconTaskMetadata {
	return ReconTaskMetadata{ColumnDelimiters: []string{","}, ComparisonPairs: pairs}
}

func TestPrepareRowScenarios(t *testing.T) {
	tests := []struct {
		name   string
		row    string
		meta   ReconTaskMetadata
		source ChunkSource
		want   ParsedRow
	}{
		{
			name:   "resolves source column",
			row:    "A,B",
			meta:   comma(ComparisonPair{SourceColumnIndex: 0, ComparisonColumnIndex: 0}),
			source: PrimaryFileChunk,
			want:   ParsedRow{RawData: "A,B", ParsedColumns: []string{"A"}, ReconResult: ReconPending, FailureReasons: []string{}},
		},
		{
			name:   "empty row yields one empty fragment",
			row:    "",
			meta:   comma(ComparisonPair{SourceColumnIndex: 0, ComparisonColumnIndex: 0}),
			source: PrimaryFileChunk,
			want:   ParsedRow{RawData: "", ParsedColumns: []string{""}, ReconResult: ReconPending, FailureReasons: []string{}},
		},
		{
			name:   "out of range source column",
			row:    "A,B",
			meta:   comma(ComparisonPair{SourceColumnIndex: 5, ComparisonColumnIndex: 5}),
			source: PrimaryFileChunk,
			want: ParsedRow{
				RawData:        "A,B",
				ParsedColumns:  []string{},
				ReconResult:    ReconFailed,
				FailureReasons: []string{"cant find a value in column 5 of source file for this row 1"},
			},
		},
		{
			name:   "index equal to fragment count is out of range",
			row:    "A,B",
			meta:   comma(ComparisonPair{SourceColumnIndex: 2}),
			source: PrimaryFileChunk,
			want: ParsedRow{
				RawData:        "A,B",
				ParsedColumns:  []string{},
				ReconResult:    ReconFailed,
				FailureReasons: []string{"cant find a value in column 2 of source file for this row 1"},
			},
		},
		{
			name:   "comparison role uses comparison index",
			row:    "x,y,z",
			meta:   comma(ComparisonPair{SourceColumnIndex: 0, ComparisonColumnIndex: 2}),
			source: ComparisonFileChunk,
			want:   ParsedRow{RawData: "x,y,z", ParsedColumns: []string{"z"}, ReconResult: ReconPending, FailureReasons: []string{}},
		},
		{
			name: "evaluation continues after a failure",
			row:  "x,y",
			meta: comma(
				ComparisonPair{ComparisonColumnIndex: 7},
				ComparisonPair{ComparisonColumnIndex: 1},
				ComparisonPair{ComparisonColumnIndex: 9},
			),
			source: ComparisonFileChunk,
			want: ParsedRow{
				RawData:       "x,y",
				ParsedColumns: []string{"y"},
				ReconResult:   ReconFailed,
				FailureReasons: []string{
					"cant find a value in column 7 of comparison file for this row 1",
					"cant find a value in column 9 of comparison file for this row 1",
				},
			},
		},
		{
			name:   "empty delimiter set fails every pair",
			row:    "A,B",
			meta:   ReconTaskMetadata{ComparisonPairs: []ComparisonPair{{SourceColumnIndex: 0}}},
			source: PrimaryFileChunk,
			want: ParsedRow{
				RawData:        "A,B",
				ParsedColumns:  []string{},
				ReconResult:    ReconFailed,
				FailureReasons: []string{"cant find a value in column 0 of source file for this row 1"},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PrepareRow(tt.row, 1, tt.meta.ColumnDelimiters, tt.meta.ComparisonPairs, tt.source)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("PrepareRow mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestPrepareRowsOnlyMalformedRowFails(t *testing.T) {
	meta := comma(ComparisonPair{SourceColumnIndex: 1, ComparisonColumnIndex: 1})
	rows := PrepareRows([]string{"a,1", "b", "c,3"}, meta, PrimaryFileChunk)
	if len(rows) != 3 {
		t.Fatalf("want 3 rows, got %d", len(rows))
	}
	for i, want := range []ReconStatus{ReconPending, ReconFailed, ReconPending} {
		if rows[i].ReconResult != want {
			t.Fatalf("row %d status=%v want %v", i+1, rows[i].ReconResult, want)
		}
	}
	if diff := cmp.Diff([]string{"cant find a value in column 1 of source file for this row 2"}, rows[1].FailureReasons); diff != "" {
		t.Fatalf("row 2 reasons (-want +got):\n%s", diff)
	}
	if len(rows[0].FailureReasons) != 0 || len(rows[2].FailureReasons) != 0 {
		t.Fatalf("rows 1 and 3 must carry no reasons")
	}
}

func TestPrepareRowsPreservesOrder(t *testing.T) {
	meta := comma(ComparisonPair{SourceColumnIndex: 0})
	inputs := [][]string{
		{"c", "a", "b"},
		{"", "z,z", "", "q"},
		{"same", "same", "same"},
	}
	for _, in := range inputs {
		rows := PrepareRows(in, meta, PrimaryFileChunk)
		got := make([]string, len(rows))
		for i, r := range rows {
			got[i] = r.RawData
		}
		if diff := cmp.Diff(in, got); diff != "" {
			t.Fatalf("order changed (-want +got):\n%s", diff)
		}
	}
}

func TestPrepareRowsDeterministic(t *testing.T) {
	meta := ReconTaskMetadata{
		ColumnDelimiters: []string{",", ";"},
		ComparisonPairs:  []ComparisonPair{{SourceColumnIndex: 0}, {SourceColumnIndex: 3}, {SourceColumnIndex: 8}},
	}
	rows := []string{"a,b;c", "d;e,f,g", ""}
	first, err := json.Marshal(PrepareRows(rows, meta, PrimaryFileChunk))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, _ := json.Marshal(PrepareRows(rows, meta, PrimaryFileChunk))
		if string(again) != string(first) {
			t.Fatalf("run %d differs:\n%s\n%s", i, first, again)
		}
	}
}

func TestPrepareRowsDoesNotAliasInput(t *testing.T) {
	meta := comma(ComparisonPair{SourceColumnIndex: 0})
	in := []string{"a,b", "c,d"}
	rows := PrepareRows(in, meta, PrimaryFileChunk)
	in[0] = "mutated"
	if rows[0].RawData != "a,b" {
		t.Fatalf("prepared row follows caller mutation")
	}
}
