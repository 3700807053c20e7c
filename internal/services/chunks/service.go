// Package chunks runs the upload pipeline for one file chunk: validate,
// look up the task layout, prepare every row, stamp the chunk and publish it
// to the queue for its role.
package chunks

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nkasozi/reconciler-backend/internal/recon"
	logpkg "github.com/nkasozi/reconciler-backend/pkg/log"
)

// Recorder observes finished uploads. *metrics.Metrics satisfies it.
type Recorder interface {
	ObserveUpload(source, outcome string, pending, failed int, d time.Duration)
	ObservePublish(queue string, err error)
}

type nopRecorder struct{}

func (nopRecorder) ObserveUpload(string, string, int, int, time.Duration) {}
func (nopRecorder) ObservePublish(string, error)                          {}

// Service holds no per-request state and is safe for concurrent use.
type Service struct {
	lookup    recon.TaskMetadataLookup
	publisher recon.QueuePublisher
	queues    recon.Queues
	assembler *recon.Assembler
	recorder  Recorder
	logger    logpkg.Logger
}

// Option customises a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(l logpkg.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l.WithComponent("chunks")
		}
	}
}

// WithRecorder sets the metrics sink.
func WithRecorder(r Recorder) Option {
	return func(s *Service) {
		if r != nil {
			s.recorder = r
		}
	}
}

// WithAssembler replaces the id and clock source.
func WithAssembler(a *recon.Assembler) Option {
	return func(s *Service) {
		if a != nil {
			s.assembler = a
		}
	}
}

func New(lookup recon.TaskMetadataLookup, publisher recon.QueuePublisher, queues recon.Queues, opts ...Option) *Service {
	s := &Service{
		lookup:    lookup,
		publisher: publisher,
		queues:    queues,
		assembler: recon.NewAssembler(),
		recorder:  nopRecorder{},
		logger:    logpkg.NewLogger(logpkg.WithLevel(logpkg.InfoLevel)).WithComponent("chunks"),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Upload processes one chunk and returns the id of the published chunk.
// Lookup and publish errors are returned as the collaborator produced them.
// Rows whose columns can't be resolved are marked Failed and still published.
func (s *Service) Upload(ctx context.Context, req recon.UploadChunkRequest) (resp recon.UploadChunkResponse, err error) {
	start := time.Now()
	var pending, failed int
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = string(recon.KindOf(err))
		}
		s.recorder.ObserveUpload(req.ChunkSource.String(), outcome, pending, failed, time.Since(start))
	}()

	if err := recon.Validate(req); err != nil {
		s.logger.Debug("rejected chunk", logpkg.Str("upload_request_id", req.UploadRequestID), logpkg.Err(err))
		return recon.UploadChunkResponse{}, err
	}
	log := s.logger.With(
		logpkg.Str("upload_request_id", req.UploadRequestID),
		logpkg.Int64("chunk_sequence_number", req.ChunkSequenceNumber),
		logpkg.Str("chunk_source", req.ChunkSource.String()),
	)

	meta, err := s.lookup.Get(ctx, req.UploadRequestID)
	if err != nil {
		log.Warn("task metadata lookup failed", logpkg.Err(err))
		return recon.UploadChunkResponse{}, err
	}

	rows := recon.PrepareRows(req.ChunkRows, meta, req.ChunkSource)
	chunk := s.assembler.Assemble(req, rows)

	payload, err := json.Marshal(chunk)
	if err != nil {
		return recon.UploadChunkResponse{}, recon.WrapError(recon.KindResponseUnmarshalError, err)
	}

	queue := s.queues.Route(req.ChunkSource)
	ack, err := s.publisher.Publish(ctx, queue, payload)
	s.recorder.ObservePublish(queue, err)
	if err != nil {
		log.Warn("publish failed", logpkg.Str("queue", queue), logpkg.Err(err))
		return recon.UploadChunkResponse{}, err
	}

	failed = chunk.FailedRows()
	pending = len(rows) - failed
	log.Debug("chunk published",
		logpkg.Str("file_chunk_id", chunk.ID),
		logpkg.Str("queue", queue),
		logpkg.Str("ack_id", ack),
		logpkg.Int("rows", len(rows)),
		logpkg.Int("failed_rows", failed),
	)
	return recon.UploadChunkResponse{FileChunkID: chunk.ID}, nil
}
