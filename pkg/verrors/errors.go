// Package verrors defines the closed error taxonomy returned by the leaf
// operator, reconstructor, GC, and undo engine. Callers switch on these
// sentinel values rather than inspecting error strings.
package verrors

import "github.com/pingcap/errors"

// Result is the closed set of outcomes a leaf operation can report. It is
// distinct from the wrapped I/O errors a collaborator (page store, versions
// store) may return, which are propagated via the normal error return and
// wrapped with errors.Annotate (via Wrap) at the point they're first observed.
type Result int

const (
	// OK means the operation succeeded.
	OK Result = iota
	// NotFound means the key is absent, or tombstoned from the reader's view.
	NotFound
	// Duplicate is internal only: seekToInsert found an existing, visible
	// primary. Callers of insert see this surfaced as AbortTx.
	Duplicate
	// AbortTx means a write-write or SSI conflict was detected; the caller
	// must roll back via the undo engine.
	AbortTx
	// NotEnoughSpace is internal: it triggers a split and retry inside the
	// leaf operator and never escapes to the transaction layer.
	NotEnoughSpace
	// Other marks an unreachable/should-not-happen condition. In development
	// builds callers are expected to panic rather than silently continue.
	Other
)

func (r Result) String() string {
	switch r {
	case OK:
		return "OK"
	case NotFound:
		return "NOT_FOUND"
	case Duplicate:
		return "DUPLICATE"
	case AbortTx:
		return "ABORT_TX"
	case NotEnoughSpace:
		return "NOT_ENOUGH_SPACE"
	case Other:
		return "OTHER"
	default:
		return "UNKNOWN"
	}
}

// Wrap attaches a stack trace to an unexpected collaborator error (page
// store or versions store I/O), matching the teacher's pingcap/errors usage
// for unexpected, non-taxonomy failures.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return errors.Annotate(err, msg)
}

// Invariant panics with a formatted message. Invariant violations trap
// immediately rather than being folded into the Result taxonomy, matching
// spec's propagation policy ("invariant violations trap immediately").
func Invariant(format string, args ...interface{}) {
	panic(errors.Errorf(format, args...))
}
