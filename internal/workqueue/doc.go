// Package workqueue is a lease-based queue on top of pebble. The reconciler
// runs one queue per downstream destination (primary-file and
// comparison-file chunks); each message is delivered to one consumer at a
// time and comes back if its lease runs out.
//
// # Keyspace
//
// All keys live under ns/{namespace}/wq/{queue}/:
//
//	meta                          lastSeq (8B)
//	msg/{seq}                     record: header + payload + crc
//	prio/{priority}{seq}          ready index, ascending priority then seq
//	delay/{ready_at_ms}{seq}      delayed index, value = priority
//	lease/{seq}                   expires_ms | attempts | priority
//	lease_idx/{expires_ms}{seq}   expiry index for the sweeper
//	dlq/{seq}                     record + attempts, after MaxAttempts or an explicit DLQ
//
// Numeric key parts are big-endian so byte order equals numeric order.
//
// # Lifecycle
//
//  1. Enqueue: record written and indexed by priority or delay.
//  2. Dequeue: ready messages leased in priority order.
//  3. Complete deletes the message; Fail retries after a delay or dead-letters it.
//  4. ReclaimExpired (or the background sweeper) makes expired leases ready again.
//
// Delivery is at-least-once; consumers must tolerate duplicates.
package workqueue
