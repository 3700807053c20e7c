package recon

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// ReconFileType tells the two files of a task apart.
type ReconFileType string

const (
	SourceReconFile     ReconFileType = "SourceReconFile"
	ComparisonReconFile ReconFileType = "ComparisonReconFile"
)

// ReconConfig holds the matching switches chosen when the task was created.
// They are stored and echoed back; the chunk pipeline does not interpret them.
type ReconConfig struct {
	CheckForDuplicatesInComparisonFile bool `json:"should_check_for_duplicate_records_in_comparison_file" yaml:"should_check_for_duplicate_records_in_comparison_file"`
	CaseSensitive                      bool `json:"should_reconciliation_be_case_sensitive" yaml:"should_reconciliation_be_case_sensitive"`
	IgnoreWhiteSpace                   bool `json:"should_ignore_white_space" yaml:"should_ignore_white_space"`
	ReverseReconciliation              bool `json:"should_do_reverse_reconciliation" yaml:"should_do_reverse_reconciliation"`
}

// ReconFileDetails describes one file of a task.
type ReconFileDetails struct {
	ID          string        `json:"id"`
	FileName    string        `json:"file_name"`
	FileHash    string        `json:"file_hash"`
	RowCount    uint64        `json:"row_count"`
	ColumnCount uint64        `json:"column_count"`
	FileType    ReconFileType `json:"recon_file_type"`
}

// ReconTask is the stored aggregate of a reconciliation task.
type ReconTask struct {
	ID               string           `json:"id"`
	UserID           string           `json:"user_id"`
	SourceFile       ReconFileDetails `json:"source_file"`
	ComparisonFile   ReconFileDetails `json:"comparison_file"`
	IsDone           bool             `json:"is_done"`
	HasBegun         bool             `json:"has_begun"`
	ColumnDelimiters []string         `json:"column_delimiters"`
	ComparisonPairs  []ComparisonPair `json:"comparison_pairs"`
	Config           ReconConfig      `json:"recon_config"`
	DateCreated      int64            `json:"date_created"`
}

// Metadata is the view of a task the chunk pipeline consumes.
func (t ReconTask) Metadata() ReconTaskMetadata {
	return ReconTaskMetadata{
		TaskID:           t.ID,
		ColumnDelimiters: append([]string(nil), t.ColumnDelimiters...),
		ComparisonPairs:  append([]ComparisonPair(nil), t.ComparisonPairs...),
	}
}

// Summary is the short response returned by the task endpoints.
func (t ReconTask) Summary() ReconTaskResponseDetails {
	return ReconTaskResponseDetails{TaskID: t.ID, IsDone: t.IsDone, HasBegun: t.HasBegun}
}

// ReconTaskResponseDetails is the public summary of a task.
type ReconTaskResponseDetails struct {
	TaskID   string `json:"task_id"`
	IsDone   bool   `json:"is_done"`
	HasBegun bool   `json:"has_begun"`
}

// CreateReconTaskRequest registers a task and both of its files.
type CreateReconTaskRequest struct {
	UserID                    string           `json:"user_id" yaml:"user_id"`
	SourceFileName            string           `json:"source_file_name" yaml:"source_file_name"`
	SourceFileHash            string           `json:"source_file_hash" yaml:"source_file_hash"`
	SourceFileRowCount        uint64           `json:"source_file_row_count" yaml:"source_file_row_count"`
	SourceFileColumnCount     uint64           `json:"source_file_column_count" yaml:"source_file_column_count"`
	ComparisonFileName        string           `json:"comparison_file_name" yaml:"comparison_file_name"`
	ComparisonFileHash        string           `json:"comparison_file_hash" yaml:"comparison_file_hash"`
	ComparisonFileRowCount    uint64           `json:"comparison_file_row_count" yaml:"comparison_file_row_count"`
	ComparisonFileColumnCount uint64           `json:"comparison_file_column_count" yaml:"comparison_file_column_count"`
	ColumnDelimiters          []string         `json:"column_delimiters" yaml:"column_delimiters"`
	ReconConfigurations       ReconConfig      `json:"recon_configurations" yaml:"recon_configurations"`
	ComparisonPairs           []ComparisonPair `json:"comparison_pairs" yaml:"comparison_pairs"`
}

// Validate reports every problem with the request as one BadClientRequest.
func (r CreateReconTaskRequest) Validate() error {
	var problems []string
	need := func(ok bool, msg string) {
		if !ok {
			problems = append(problems, msg)
		}
	}
	need(strings.TrimSpace(r.UserID) != "", "please supply a user_id")
	need(r.SourceFileName != "", "please supply a source_file_name")
	need(r.SourceFileHash != "", "please supply a source_file_hash")
	need(r.SourceFileRowCount >= 1, "please supply a source_file_row_count")
	need(r.SourceFileColumnCount >= 1, "please supply a source_file_column_count")
	need(r.ComparisonFileName != "", "please supply a comparison_file_name")
	need(r.ComparisonFileHash != "", "please supply a comparison_file_hash")
	need(r.ComparisonFileRowCount >= 1, "please supply a comparison_file_row_count")
	need(r.ComparisonFileColumnCount >= 1, "please supply a comparison_file_column_count")
	need(len(r.ColumnDelimiters) > 0, "please supply at least one column delimiter")
	for i, d := range r.ColumnDelimiters {
		need(utf8.RuneCountInString(d) == 1,
			fmt.Sprintf("please supply a single character in column_delimiters[%d]", i))
	}
	for i, p := range r.ComparisonPairs {
		if r.SourceFileColumnCount > 0 {
			need(uint64(p.SourceColumnIndex) < r.SourceFileColumnCount,
				fmt.Sprintf("comparison_pairs[%d].source_column_index must be below source_file_column_count", i))
		}
		if r.ComparisonFileColumnCount > 0 {
			need(uint64(p.ComparisonColumnIndex) < r.ComparisonFileColumnCount,
				fmt.Sprintf("comparison_pairs[%d].comparison_column_index must be below comparison_file_column_count", i))
		}
	}
	if len(problems) > 0 {
		return &Error{Kind: KindBadClientRequest, Message: strings.Join(problems, validationSeparator)}
	}
	return nil
}
