package controllers

// Request bodies for the queue consumer endpoints.

type dequeueReq struct {
	Queue   string `json:"queue"`
	Count   int    `json:"count"`
	LeaseMs int64  `json:"lease_ms"`
}

type seqsReq struct {
	Queue   string   `json:"queue"`
	Seqs    []uint64 `json:"seqs"`
	LeaseMs int64    `json:"lease_ms,omitempty"`
}

type failReq struct {
	Queue        string   `json:"queue"`
	Seqs         []uint64 `json:"seqs"`
	RetryAfterMs int64    `json:"retry_after_ms"`
	ToDLQ        bool     `json:"to_dlq"`
}
