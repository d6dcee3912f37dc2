package tuple

import (
	"encoding/binary"
	"math"
)

// CommittedBeforeInfinite is the sentinel CommittedBeforeTxID value used
// when a secondary version supersedes a write by the same worker in the
// same transaction (a self-overwrite): there is no meaningful upper bound
// snapshot, so it is never authoritative-until anything. Grounded on
// BTreeVI::updateSameSizeInPlace's committed_before_txid = max case.
const CommittedBeforeInfinite = math.MaxUint64

const (
	versionFlagIsDelta   uint8 = 1 << 0
	versionFlagIsRemoved uint8 = 1 << 1
)

const (
	vOffFlags               = 0
	vOffWorkerID            = 1
	vOffTxID                = vOffWorkerID + 8
	vOffCommandID           = vOffTxID + 8
	vOffCommittedBeforeTxID = vOffCommandID + 4
	vOffGCTrigger           = vOffCommittedBeforeTxID + 8
	VersionHeaderSize       = vOffGCTrigger + 8
)

// Version is the decoded view of a secondary version record stored in the
// versions store. The store keys it by the (tx_id, command_id) of the
// write that superseded it, which is the identity that write stamped on
// the primary. The record's header holds the superseded writer's
// identity, which is in turn the key of the next older record.
type Version struct {
	WorkerID  uint64
	TxID      uint64
	CommandID uint32

	IsDelta   bool
	IsRemoved bool

	// CommittedBeforeTxID is the upper bound snapshot at which the prior
	// state was still authoritative: CommittedBeforeInfinite for
	// same-transaction self-overwrites, else the writer's tx-id.
	CommittedBeforeTxID uint64

	// GCTrigger is the tx-id at which this record becomes eligible for GC.
	GCTrigger uint64

	// Payload is [descriptor || forwardDiff] when IsDelta, or the full
	// value bytes otherwise.
	Payload []byte
}

// Size returns the full encoded size of v (header + payload).
func (v Version) Size() int {
	return VersionHeaderSize + len(v.Payload)
}

// Encode serializes v into a freshly allocated buffer.
func Encode(v Version) []byte {
	buf := make([]byte, v.Size())
	PutHeader(buf, v)
	copy(buf[VersionHeaderSize:], v.Payload)
	return buf
}

// PutHeader writes v's fixed header into the first VersionHeaderSize bytes
// of buf, matching the versions store's reserve+fill pattern: the caller
// reserves exactly v.Size() bytes and fills the header then the payload in
// place, per spec.md §9 ("reserve + fill" pattern).
func PutHeader(buf []byte, v Version) {
	var flags uint8
	if v.IsDelta {
		flags |= versionFlagIsDelta
	}
	if v.IsRemoved {
		flags |= versionFlagIsRemoved
	}
	buf[vOffFlags] = flags
	binary.LittleEndian.PutUint64(buf[vOffWorkerID:], v.WorkerID)
	binary.LittleEndian.PutUint64(buf[vOffTxID:], v.TxID)
	binary.LittleEndian.PutUint32(buf[vOffCommandID:], v.CommandID)
	binary.LittleEndian.PutUint64(buf[vOffCommittedBeforeTxID:], v.CommittedBeforeTxID)
	binary.LittleEndian.PutUint64(buf[vOffGCTrigger:], v.GCTrigger)
}

// Decode parses raw into a Version. Payload aliases raw's backing array.
func Decode(raw []byte) Version {
	if len(raw) < VersionHeaderSize {
		panic("tuple: version payload shorter than header")
	}
	flags := raw[vOffFlags]
	return Version{
		WorkerID:            binary.LittleEndian.Uint64(raw[vOffWorkerID:]),
		TxID:                binary.LittleEndian.Uint64(raw[vOffTxID:]),
		CommandID:           binary.LittleEndian.Uint32(raw[vOffCommandID:]),
		IsDelta:             flags&versionFlagIsDelta != 0,
		IsRemoved:           flags&versionFlagIsRemoved != 0,
		CommittedBeforeTxID: binary.LittleEndian.Uint64(raw[vOffCommittedBeforeTxID:]),
		GCTrigger:           binary.LittleEndian.Uint64(raw[vOffGCTrigger:]),
		Payload:             raw[VersionHeaderSize:],
	}
}
