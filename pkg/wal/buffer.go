package wal

// Buffer accumulates one transaction's WAL records in commit order,
// grounded on BTreeVI.cpp's reserveWALEntry/submit pair: a record is
// reserved with its final size known up front, filled in place by the
// caller (including, for updates, being XOR'd a second time after the
// caller's mutation callback runs), then submitted. Rollback replays
// Records() in reverse.
type Buffer struct {
	records []*Record
}

// NewBuffer returns an empty per-transaction WAL buffer.
func NewBuffer() *Buffer {
	return &Buffer{}
}

// ReserveInsert allocates and appends an Insert record with key||value
// already laid out in its Payload.
func (b *Buffer) ReserveInsert(key, value []byte) *Record {
	r := &Record{
		Kind:        Insert,
		KeyLength:   uint16(len(key)),
		ValueLength: uint16(len(value)),
		Payload:     make([]byte, len(key)+len(value)),
	}
	copy(r.Payload, key)
	copy(r.Payload[len(key):], value)
	b.records = append(b.records, r)
	return r
}

// ReserveUpdateSSIP allocates and appends an UpdateSSIP record. The caller
// fills the descriptor+diff region of Payload (key||descriptorAndDiff)
// itself, since the diff bytes are written, then overwritten with the
// XOR'd post-image diff, around the caller's own mutation of the primary.
func (b *Buffer) ReserveUpdateSSIP(key []byte, deltaLength int, before, after WriterIdentity) *Record {
	r := &Record{
		Kind:        UpdateSSIP,
		KeyLength:   uint16(len(key)),
		DeltaLength: uint16(deltaLength),
		Before:      before,
		After:       after,
		Payload:     make([]byte, len(key)+deltaLength),
	}
	copy(r.Payload, key)
	b.records = append(b.records, r)
	return r
}

// ReserveRemove allocates and appends a Remove record with key||value
// (the pre-image) already laid out in its Payload. beforeIsFinal records
// whether the superseded primary had is_final set, so undo can restore it.
func (b *Buffer) ReserveRemove(key, value []byte, before WriterIdentity, beforeIsFinal bool) *Record {
	r := &Record{
		Kind:          Remove,
		KeyLength:     uint16(len(key)),
		ValueLength:   uint16(len(value)),
		Before:        before,
		BeforeIsFinal: beforeIsFinal,
		Payload:       make([]byte, len(key)+len(value)),
	}
	copy(r.Payload, key)
	copy(r.Payload[len(key):], value)
	b.records = append(b.records, r)
	return r
}

// Records returns the buffered records in submission order.
func (b *Buffer) Records() []*Record {
	return b.records
}

// Reset discards all buffered records, for reuse across transactions on a
// worker.
func (b *Buffer) Reset() {
	b.records = b.records[:0]
}
