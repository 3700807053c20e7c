package workqueue

import (
	"encoding/binary"
	"errors"
	"hash/crc32"
)

// Record layout: headerLen (4B BE) | header | payload | crc32c(header|payload)

// ErrCorruptRecord is returned when a stored record fails its length or CRC check.
var ErrCorruptRecord = errors.New("workqueue: corrupt record")

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

func encodeRecord(header, payload []byte) []byte {
	out := make([]byte, 4, 4+len(header)+len(payload)+4)
	binary.BigEndian.PutUint32(out, uint32(len(header)))
	out = append(out, header...)
	out = append(out, payload...)
	crc := crc32.Update(crc32.Update(0, castagnoli, header), castagnoli, payload)
	return binary.BigEndian.AppendUint32(out, crc)
}

// decodeRecord returns copies of header and payload.
func decodeRecord(b []byte) (header, payload []byte, err error) {
	if len(b) < 8 {
		return nil, nil, ErrCorruptRecord
	}
	hlen := int(binary.BigEndian.Uint32(b[:4]))
	if 4+hlen+4 > len(b) {
		return nil, nil, ErrCorruptRecord
	}
	h := b[4 : 4+hlen]
	p := b[4+hlen : len(b)-4]
	crc := crc32.Update(crc32.Update(0, castagnoli, h), castagnoli, p)
	if crc != binary.BigEndian.Uint32(b[len(b)-4:]) {
		return nil, nil, ErrCorruptRecord
	}
	return append([]byte(nil), h...), append([]byte(nil), p...), nil
}
