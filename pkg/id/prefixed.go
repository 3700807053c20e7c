package id

import (
	"strings"

	"github.com/google/uuid"
)

const (
	FileChunkPrefix = "FILE-CHUNK"
	ReconTaskPrefix = "RECON-TASK"
	ReconFilePrefix = "RECON-FILE"
)

// New returns prefix + "-" + a random v4 uuid.
func New(prefix string) string {
	return prefix + "-" + uuid.NewString()
}

// HasPrefix reports whether s looks like an id minted by New(prefix).
func HasPrefix(s, prefix string) bool {
	rest, ok := strings.CutPrefix(s, prefix+"-")
	if !ok {
		return false
	}
	_, err := uuid.Parse(rest)
	return err == nil
}
