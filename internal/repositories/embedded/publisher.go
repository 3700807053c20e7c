package embedded

import (
	"context"
	"encoding/json"
	"math"

	"github.com/nkasozi/reconciler-backend/internal/recon"
	"github.com/nkasozi/reconciler-backend/internal/workqueue"
	"github.com/nkasozi/reconciler-backend/pkg/id"
)

// Publisher enqueues serialized chunks onto local workqueues. Chunks are
// prioritised by sequence number so consumers see a file in order; the
// header carries a ChunkHeader used for inspection and filtering.
type Publisher struct {
	queues *workqueue.Manager
	ids    *id.Generator
}

func NewPublisher(queues *workqueue.Manager) *Publisher {
	return &Publisher{queues: queues, ids: id.NewGenerator()}
}

func (p *Publisher) Publish(ctx context.Context, queue string, payload []byte) (string, error) {
	q, err := p.queues.Queue(queue)
	if err != nil {
		return "", recon.WrapError(recon.KindInternalError, err)
	}
	ack := p.ids.Next().String()

	var chunk recon.FileUploadChunk
	if err := json.Unmarshal(payload, &chunk); err != nil {
		return "", recon.WrapError(recon.KindResponseUnmarshalError, err)
	}
	h := chunk.Header()
	h.AckID = ack
	header, err := json.Marshal(h)
	if err != nil {
		return "", recon.WrapError(recon.KindInternalError, err)
	}
	if _, err := q.Enqueue(ctx, header, payload, sequencePriority(chunk.ChunkSequenceNumber), 0, 0); err != nil {
		return "", recon.WrapError(recon.KindInternalError, err)
	}
	return ack, nil
}

// sequencePriority maps a chunk sequence number onto the queue's uint32
// priority. Sequences past MaxUint32 share the lowest priority.
func sequencePriority(seq int64) uint32 {
	switch {
	case seq <= 0:
		return 0
	case seq > math.MaxUint32:
		return math.MaxUint32
	default:
		return uint32(seq)
	}
}

var _ recon.QueuePublisher = (*Publisher)(nil)
