package ring

import "encoding/binary"

// SlotSize is the fixed on-wire size of one ring-buffer slot, per the
// binary layout table: 8(timestamp) + 4(latency) + 2(status) +
// 4(content length) + 8(name hash) + 1(worker id) + 1(error category)
// + 1(method code) + 3(padding) = 32 bytes.
const SlotSize = 32

// Slot is the decoded form of one 32-byte ring-buffer record.
type Slot struct {
	Timestamp      float64 // monotonic seconds
	LatencyMs      float32
	StatusCode     uint16
	ContentLength  uint32
	NameHash       uint64
	WorkerID       uint8
	ErrorCategory  uint8
	MethodCode     uint8
}

// Encode packs s into a 32-byte network-byte-order record.
func Encode(s Slot) [SlotSize]byte {
	var buf [SlotSize]byte
	binary.BigEndian.PutUint64(buf[0:8], float64bits(s.Timestamp))
	binary.BigEndian.PutUint32(buf[8:12], float32bits(s.LatencyMs))
	binary.BigEndian.PutUint16(buf[12:14], s.StatusCode)
	binary.BigEndian.PutUint32(buf[14:18], s.ContentLength)
	binary.BigEndian.PutUint64(buf[18:26], s.NameHash)
	buf[26] = s.WorkerID
	buf[27] = s.ErrorCategory
	buf[28] = s.MethodCode
	// bytes 29-31 reserved/padding, left zero
	return buf
}

// Decode unpacks a 32-byte network-byte-order record.
func Decode(buf [SlotSize]byte) Slot {
	return Slot{
		Timestamp:     float64frombits(binary.BigEndian.Uint64(buf[0:8])),
		LatencyMs:     float32frombits(binary.BigEndian.Uint32(buf[8:12])),
		StatusCode:    binary.BigEndian.Uint16(buf[12:14]),
		ContentLength: binary.BigEndian.Uint32(buf[14:18]),
		NameHash:      binary.BigEndian.Uint64(buf[18:26]),
		WorkerID:      buf[26],
		ErrorCategory: buf[27],
		MethodCode:    buf[28],
	}
}
