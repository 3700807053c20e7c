package recon

import "context"

// TaskMetadataLookup resolves an upload request id to its task layout.
// Implementations fail with KindNotFound or KindConnectionError.
type TaskMetadataLookup interface {
	Get(ctx context.Context, uploadRequestID string) (ReconTaskMetadata, error)
}

// QueuePublisher delivers a serialized chunk to a named queue and returns
// the broker's acknowledgement id.
type QueuePublisher interface {
	Publish(ctx context.Context, queue string, payload []byte) (string, error)
}

// Queues names the two downstream destinations.
type Queues struct {
	Primary    string
	Comparison string
}

// Route picks the destination for a chunk role.
func (q Queues) Route(source ChunkSource) string {
	if source == ComparisonFileChunk {
		return q.Comparison
	}
	return q.Primary
}

// TaskStore persists reconciliation tasks. Get fails with KindNotFound for
// unknown ids.
type TaskStore interface {
	Save(ctx context.Context, task ReconTask) error
	Get(ctx context.Context, taskID string) (ReconTask, error)
	// List returns up to limit tasks ordered by id; limit <= 0 means all.
	List(ctx context.Context, limit int) ([]ReconTask, error)
}

// StoreLookup serves TaskMetadataLookup from a TaskStore; the upload
// request id of a chunk is the id of its task.
type StoreLookup struct {
	Store TaskStore
}

func (l StoreLookup) Get(ctx context.Context, uploadRequestID string) (ReconTaskMetadata, error) {
	task, err := l.Store.Get(ctx, uploadRequestID)
	if err != nil {
		return ReconTaskMetadata{}, err
	}
	return task.Metadata(), nil
}
