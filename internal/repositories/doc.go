// Package repositories groups the implementations of the collaborator
// interfaces declared in internal/recon:
//
//   - embedded: pebble task store and workqueue-backed publisher (single node)
//   - redistasks: Redis task store (shared state across instances)
//   - taskhttp: TaskMetadataLookup over a remote task details service
//   - amqppub: RabbitMQ QueuePublisher
//   - memory: in-process doubles for tests and local tooling
package repositories
