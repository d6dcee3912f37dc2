// Package wal defines the write-ahead log record types the Leaf Operator
// emits and the Undo Engine replays, and a per-transaction record buffer
// implementing the "reserve then fill in place" pattern BTreeVI.cpp's
// reserveWALEntry/submit uses. Group commit and durable persistence are out
// of scope (spec.md §1 lists the WAL ring/group commit as an external
// collaborator); this package only buffers records for in-process undo.
package wal

// Type discriminates the three record kinds a Leaf Operator mutation can
// emit, mirroring BTreeVI.cpp's WAL_LOG_TYPE.
type Type uint8

const (
	Insert Type = iota
	UpdateSSIP
	Remove
)

// WriterIdentity names the (worker, tx, command) triple that produced or
// was superseded by a record.
type WriterIdentity struct {
	WorkerID  uint64
	TxID      uint64
	CommandID uint32
}

// Record is one WAL entry buffered for a transaction. Payload's layout
// depends on Kind:
//   - Insert:     key || value
//   - UpdateSSIP: key || descriptor || xorDiff
//   - Remove:     key || value
type Record struct {
	Kind Type

	KeyLength   uint16
	ValueLength uint16 // Insert, Remove: length of the value/pre-image
	DeltaLength uint16 // UpdateSSIP: length of descriptor+diff

	Before WriterIdentity // UpdateSSIP, Remove: writer superseded by this record
	After  WriterIdentity // UpdateSSIP: writer installed by this record

	// BeforeIsFinal records whether the primary Remove superseded had
	// is_final set, so undoRemove can reconstruct it faithfully; not
	// part of spec.md §6's WALRemove field list but required to restore
	// the exact pre-image header rather than guessing from CommandID.
	BeforeIsFinal bool

	Payload []byte
}

// Key returns the record's key, valid for every Kind.
func (r *Record) Key() []byte {
	return r.Payload[:r.KeyLength]
}

// Value returns the value/pre-image bytes for Insert and Remove records.
func (r *Record) Value() []byte {
	return r.Payload[r.KeyLength : r.KeyLength+r.ValueLength]
}

// DescriptorAndDiff returns the descriptor+diff bytes for an UpdateSSIP
// record.
func (r *Record) DescriptorAndDiff() []byte {
	return r.Payload[r.KeyLength : r.KeyLength+r.DeltaLength]
}
