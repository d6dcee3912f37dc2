// Package tuple implements the on-page primary tuple encoding (Chained or
// Fat format) and the secondary version record encoding used by the
// versions store. Records are accessed through checked byte-slice views
// rather than pointer casts, per the design note in spec.md §9 ("define an
// explicit on-disk record layout with fixed field offsets, and access it
// via checked views rather than pointer casts").
//
// This is grounded on the teacher's tikv/mvcc/mvcc.go MvccLockHdr/
// MarshalBinary pattern (a fixed header followed by variable payload) and
// on BTreeVI.cpp's ChainedTuple/ChainedTupleVersion layouts in
// original_source, reimplemented with encoding/binary instead of
// unsafe.Pointer casts.
package tuple

import "encoding/binary"

// Format discriminates the two primary tuple encodings a leaf slot can
// hold.
type Format uint8

const (
	Chained Format = 0
	Fat     Format = 1
)

// Chained tuple flag bits, packed into the single Flags byte.
const (
	flagWriteLocked uint8 = 1 << 0
	flagIsRemoved   uint8 = 1 << 1
	flagIsFinal     uint8 = 1 << 2
)

// ChainedTupleHeader field offsets. The header is the fixed-size prefix of
// every Chained primary's on-page payload; the remainder of the payload is
// the current value bytes.
const (
	offFormat                = 0
	offFlags                 = 1
	offWorkerID              = 2
	offTxID                  = offWorkerID + 8
	offCommandID              = offTxID + 8
	offReadTSOrLockCounter   = offCommandID + 4
	ChainedTupleHeaderSize   = offReadTSOrLockCounter + 8
)

// FatTupleHeader field offsets. The fat-tuple body itself is not
// implemented (see SPEC_FULL.md §12 "Open Questions"); this header exists
// so Classify can recognize the format and callers can reject it cleanly.
const (
	offFatFormat       = 0
	offFatVersionCount = 1
	offFatWorkerID     = 2
	offFatTxID         = offFatWorkerID + 8
	FatTupleHeaderSize = offFatTxID + 8
)

// ChainedTuple is the decoded, in-memory view of a Chained primary.
type ChainedTuple struct {
	WorkerID uint64
	TxID     uint64
	CommandID uint32

	WriteLocked bool
	IsRemoved   bool
	IsFinal     bool

	// ReadTS holds the latest reader's tx-id under SSI, or
	// ReadLockCounter holds the bitmap of holder worker ids under 2PL.
	// Only one is meaningful at a time, selected by the tree's TwoPL
	// config switch; both share the same on-page 8 bytes.
	ReadTSOrLockCounter uint64

	// Payload is the current value bytes (a view into the owning page's
	// backing array, not a copy).
	Payload []byte
}

// Classify reports which primary format a leaf slot's raw payload encodes.
func Classify(raw []byte) Format {
	if len(raw) == 0 {
		panic("tuple: cannot classify empty payload")
	}
	return Format(raw[offFormat])
}

// NewChainedTuple builds the header for a freshly inserted key: the
// writer's identity, command_id 0, and is_final set (no prior version
// exists yet), matching BTreeVI::insert's ChainedTuple constructor call.
func NewChainedTuple(workerID, txID uint64, value []byte) ChainedTuple {
	return ChainedTuple{
		WorkerID: workerID,
		TxID:     txID,
		IsFinal:  true,
		Payload:  value,
	}
}

// EncodeChained serializes t into a freshly allocated byte slice of
// ChainedTupleHeaderSize+len(t.Payload) bytes.
func EncodeChained(t ChainedTuple) []byte {
	buf := make([]byte, ChainedTupleHeaderSize+len(t.Payload))
	PutChainedHeader(buf, t)
	copy(buf[ChainedTupleHeaderSize:], t.Payload)
	return buf
}

// PutChainedHeader writes t's header fields into the first
// ChainedTupleHeaderSize bytes of buf, which must be at least that long.
// The payload bytes past the header are left untouched; callers that want
// a full encode use EncodeChained, callers mutating an existing page slot
// in place use this directly so the payload region (and any alias to it)
// survives the write.
func PutChainedHeader(buf []byte, t ChainedTuple) {
	buf[offFormat] = byte(Chained)
	var flags uint8
	if t.WriteLocked {
		flags |= flagWriteLocked
	}
	if t.IsRemoved {
		flags |= flagIsRemoved
	}
	if t.IsFinal {
		flags |= flagIsFinal
	}
	buf[offFlags] = flags
	binary.LittleEndian.PutUint64(buf[offWorkerID:], t.WorkerID)
	binary.LittleEndian.PutUint64(buf[offTxID:], t.TxID)
	binary.LittleEndian.PutUint32(buf[offCommandID:], t.CommandID)
	binary.LittleEndian.PutUint64(buf[offReadTSOrLockCounter:], t.ReadTSOrLockCounter)
}

// DecodeChained parses raw (a leaf slot's full payload) into a
// ChainedTuple. Payload aliases raw's backing array.
func DecodeChained(raw []byte) ChainedTuple {
	if len(raw) < ChainedTupleHeaderSize {
		panic("tuple: chained payload shorter than header")
	}
	flags := raw[offFlags]
	return ChainedTuple{
		WorkerID:            binary.LittleEndian.Uint64(raw[offWorkerID:]),
		TxID:                binary.LittleEndian.Uint64(raw[offTxID:]),
		CommandID:           binary.LittleEndian.Uint32(raw[offCommandID:]),
		WriteLocked:         flags&flagWriteLocked != 0,
		IsRemoved:           flags&flagIsRemoved != 0,
		IsFinal:             flags&flagIsFinal != 0,
		ReadTSOrLockCounter: binary.LittleEndian.Uint64(raw[offReadTSOrLockCounter:]),
		Payload:             raw[ChainedTupleHeaderSize:],
	}
}

// FatTuple is the decoded view of a Fat primary's fixed header. The
// open-question stub: no in-place version body is implemented, see
// SPEC_FULL.md §12.
type FatTuple struct {
	WorkerID     uint64
	TxID         uint64
	VersionCount uint8
}

// DecodeFatHeader parses raw's fixed Fat header. Callers encountering a Fat
// primary in the leaf operator reject it with verrors.Other; nothing in
// this tree ever creates one (FatTuple config switch is always false).
func DecodeFatHeader(raw []byte) FatTuple {
	if len(raw) < FatTupleHeaderSize {
		panic("tuple: fat payload shorter than header")
	}
	return FatTuple{
		WorkerID:     binary.LittleEndian.Uint64(raw[offFatWorkerID:]),
		TxID:         binary.LittleEndian.Uint64(raw[offFatTxID:]),
		VersionCount: raw[offFatVersionCount],
	}
}
