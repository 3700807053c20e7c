package workqueue

import (
	"encoding/binary"
	"fmt"
)

const (
	segMeta     = "meta"
	segMsg      = "msg/"
	segPrio     = "prio/"
	segDelay    = "delay/"
	segLease    = "lease/"
	segLeaseIdx = "lease_idx/"
	segDLQ      = "dlq/"
)

// queuePrefix is ns/{namespace}/wq/{queue}/.
func queuePrefix(namespace, queue string) string {
	return fmt.Sprintf("ns/%s/wq/%s/", namespace, queue)
}

type keyspace struct {
	base string
}

func newKeyspace(namespace, queue string) keyspace {
	return keyspace{base: queuePrefix(namespace, queue)}
}

func (k keyspace) prefix(seg string) []byte { return []byte(k.base + seg) }

func (k keyspace) meta() []byte { return k.prefix(segMeta) }

func (k keyspace) withSeq(seg string, seq uint64) []byte {
	p := k.base + seg
	key := make([]byte, len(p)+8)
	copy(key, p)
	binary.BigEndian.PutUint64(key[len(p):], seq)
	return key
}

func (k keyspace) msg(seq uint64) []byte   { return k.withSeq(segMsg, seq) }
func (k keyspace) lease(seq uint64) []byte { return k.withSeq(segLease, seq) }
func (k keyspace) dlq(seq uint64) []byte   { return k.withSeq(segDLQ, seq) }

// prio sorts lower priorities first, then by sequence.
func (k keyspace) prio(priority uint32, seq uint64) []byte {
	p := k.base + segPrio
	key := make([]byte, len(p)+4+8)
	copy(key, p)
	binary.BigEndian.PutUint32(key[len(p):], priority)
	binary.BigEndian.PutUint64(key[len(p)+4:], seq)
	return key
}

func (k keyspace) timed(seg string, atMs int64, seq uint64) []byte {
	p := k.base + seg
	key := make([]byte, len(p)+8+8)
	copy(key, p)
	binary.BigEndian.PutUint64(key[len(p):], uint64(atMs))
	binary.BigEndian.PutUint64(key[len(p)+8:], seq)
	return key
}

func (k keyspace) delay(readyAtMs int64, seq uint64) []byte { return k.timed(segDelay, readyAtMs, seq) }
func (k keyspace) leaseIdx(expMs int64, seq uint64) []byte  { return k.timed(segLeaseIdx, expMs, seq) }

// splitTimed decodes the {ms}{seq} suffix of a delay or lease_idx key.
func splitTimed(key []byte, prefixLen int) (atMs int64, seq uint64, ok bool) {
	if len(key) != prefixLen+16 {
		return 0, 0, false
	}
	return int64(binary.BigEndian.Uint64(key[prefixLen:])), binary.BigEndian.Uint64(key[prefixLen+8:]), true
}

// splitPrio decodes the {priority}{seq} suffix of a prio key.
func splitPrio(key []byte, prefixLen int) (priority uint32, seq uint64, ok bool) {
	if len(key) != prefixLen+12 {
		return 0, 0, false
	}
	return binary.BigEndian.Uint32(key[prefixLen:]), binary.BigEndian.Uint64(key[prefixLen+4:]), true
}

// leaseState is the value stored under lease/{seq}.
type leaseState struct {
	ExpiresMs int64
	Attempts  uint32
	Priority  uint32
}

func (l leaseState) encode() []byte {
	var b [16]byte
	binary.BigEndian.PutUint64(b[0:8], uint64(l.ExpiresMs))
	binary.BigEndian.PutUint32(b[8:12], l.Attempts)
	binary.BigEndian.PutUint32(b[12:16], l.Priority)
	return b[:]
}

func decodeLease(b []byte) (leaseState, bool) {
	if len(b) < 16 {
		return leaseState{}, false
	}
	return leaseState{
		ExpiresMs: int64(binary.BigEndian.Uint64(b[0:8])),
		Attempts:  binary.BigEndian.Uint32(b[8:12]),
		Priority:  binary.BigEndian.Uint32(b[12:16]),
	}, true
}

func u32(v uint32) []byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	return b[:]
}
