package recon

import (
	"encoding/json"
	"fmt"
)

// ChunkSource is the role of a chunk within its reconciliation task.
type ChunkSource int

const (
	ChunkSourceUnknown ChunkSource = iota
	PrimaryFileChunk
	ComparisonFileChunk
)

func (s ChunkSource) String() string {
	switch s {
	case PrimaryFileChunk:
		return "PrimaryFileChunk"
	case ComparisonFileChunk:
		return "ComparisonFileChunk"
	default:
		return "Unknown"
	}
}

// ParseChunkSource accepts the wire names plus the short CLI forms.
func ParseChunkSource(s string) (ChunkSource, error) {
	switch s {
	case "PrimaryFileChunk", "primary":
		return PrimaryFileChunk, nil
	case "ComparisonFileChunk", "comparison":
		return ComparisonFileChunk, nil
	default:
		return ChunkSourceUnknown, fmt.Errorf("unknown chunk source %q", s)
	}
}

func (s ChunkSource) MarshalJSON() ([]byte, error) {
	if s != PrimaryFileChunk && s != ComparisonFileChunk {
		return nil, fmt.Errorf("cannot marshal chunk source %d", int(s))
	}
	return json.Marshal(s.String())
}

// UnmarshalJSON keeps unknown names as ChunkSourceUnknown so that
// validation can report them with the other request problems.
func (s *ChunkSource) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err != nil {
		return err
	}
	parsed, err := ParseChunkSource(name)
	if err != nil {
		*s = ChunkSourceUnknown
		return nil
	}
	*s = parsed
	return nil
}

// ReconStatus is the per-row preparation outcome.
type ReconStatus int

const (
	ReconPending ReconStatus = iota
	ReconFailed
)

func (r ReconStatus) String() string {
	if r == ReconFailed {
		return "Failed"
	}
	return "Pending"
}

func (r ReconStatus) MarshalJSON() ([]byte, error) { return json.Marshal(r.String()) }

func (r *ReconStatus) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err != nil {
		return err
	}
	switch name {
	case "Pending":
		*r = ReconPending
	case "Failed":
		*r = ReconFailed
	default:
		return fmt.Errorf("unknown recon status %q", name)
	}
	return nil
}

// UploadChunkRequest is one inbound chunk of a primary or comparison file.
type UploadChunkRequest struct {
	UploadRequestID     string      `json:"upload_request_id"`
	ChunkSequenceNumber int64       `json:"chunk_sequence_number"`
	ChunkSource         ChunkSource `json:"chunk_source"`
	ChunkRows           []string    `json:"chunk_rows"`
}

// UploadChunkResponse is returned once a chunk has been queued.
type UploadChunkResponse struct {
	FileChunkID string `json:"file_chunk_id"`
}

// ComparisonPair maps a primary-file column to a comparison-file column.
type ComparisonPair struct {
	SourceColumnIndex     uint32 `json:"source_column_index" yaml:"source_column_index"`
	ComparisonColumnIndex uint32 `json:"comparison_column_index" yaml:"comparison_column_index"`
	IsRecordIDColumn      bool   `json:"is_record_id" yaml:"is_record_id"`
}

// ReconTaskMetadata is what the pipeline needs to know about a task.
type ReconTaskMetadata struct {
	TaskID           string           `json:"task_id,omitempty"`
	ColumnDelimiters []string         `json:"column_delimiters"`
	ComparisonPairs  []ComparisonPair `json:"comparison_pairs"`
}

// ParsedRow is one input row plus the values it contributes per pair.
type ParsedRow struct {
	RawData        string      `json:"raw_data"`
	ParsedColumns  []string    `json:"parsed_columns_from_row"`
	ReconResult    ReconStatus `json:"recon_result"`
	FailureReasons []string    `json:"recon_result_reasons"`
}

// FileUploadChunk is the record published to the downstream queues.
type FileUploadChunk struct {
	ID                  string      `json:"id"`
	UploadRequestID     string      `json:"upload_request_id"`
	ChunkSequenceNumber int64       `json:"chunk_sequence_number"`
	ChunkSource         ChunkSource `json:"chunk_source"`
	ChunkRows           []ParsedRow `json:"chunk_rows"`
	DateCreated         int64       `json:"date_created"`
	DateModified        int64       `json:"date_modified"`
}

// FailedRows counts rows whose status is Failed.
func (c FileUploadChunk) FailedRows() int {
	n := 0
	for _, r := range c.ChunkRows {
		if r.ReconResult == ReconFailed {
			n++
		}
	}
	return n
}

// ChunkHeader summarises a queued chunk without its rows.
type ChunkHeader struct {
	AckID               string `json:"ack_id,omitempty"`
	ChunkID             string `json:"chunk_id"`
	UploadRequestID     string `json:"upload_request_id"`
	ChunkSequenceNumber int64  `json:"chunk_sequence_number"`
	ChunkSource         string `json:"chunk_source"`
	RowCount            int    `json:"row_count"`
	FailedRows          int    `json:"failed_rows"`
	DateCreated         int64  `json:"date_created"`
}

// Header builds the summary of c.
func (c FileUploadChunk) Header() ChunkHeader {
	return ChunkHeader{
		ChunkID:             c.ID,
		UploadRequestID:     c.UploadRequestID,
		ChunkSequenceNumber: c.ChunkSequenceNumber,
		ChunkSource:         c.ChunkSource.String(),
		RowCount:            len(c.ChunkRows),
		FailedRows:          c.FailedRows(),
		DateCreated:         c.DateCreated,
	}
}
