package recon

import "strings"

// validationSeparator joins every violated rule into one message.
const validationSeparator = " , "

// Validate checks the structural preconditions of a chunk request. All
// violations are reported together as one BadClientRequest error.
func Validate(req UploadChunkRequest) error {
	var problems []string
	if req.UploadRequestID == "" {
		problems = append(problems, "please supply an upload_request_id")
	}
	if req.ChunkSequenceNumber < 1 {
		problems = append(problems, "please supply a chunk_sequence_number of at least 1")
	}
	if req.ChunkSource != PrimaryFileChunk && req.ChunkSource != ComparisonFileChunk {
		problems = append(problems, "please supply a chunk_source of PrimaryFileChunk or ComparisonFileChunk")
	}
	if len(req.ChunkRows) == 0 {
		problems = append(problems, "please supply the chunk rows")
	}
	if len(problems) > 0 {
		return &Error{Kind: KindBadClientRequest, Message: strings.Join(problems, validationSeparator)}
	}
	return nil
}
