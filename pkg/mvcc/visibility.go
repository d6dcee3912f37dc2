package mvcc

// IsVisible answers whether a record last written by (workerID, txID) is
// visible to txn, exactly spec.md §4.2:
//   - own writes are always visible to their writer;
//   - under RC, any committed writer is visible, readers never block writers;
//   - under SI/SSI, visible iff txID committed at or before the reader's
//     snapshot start (its own tx-id, which doubles as start timestamp);
//   - writing=true additionally denies visibility of a concurrently
//     write-locked tuple, short-circuiting mutators into ABORT_TX.
//
// Grounded on other_examples/mjm918-tur__visibility.go's IsVersionVisible
// shape (own-write short-circuit, then committed-before-snapshot check)
// adapted onto BTreeVI.cpp's isVisibleForMe call sites.
func IsVisible(txn *Txn, workerID, txID uint64, writing bool, writeLocked bool) bool {
	if workerID == txn.WorkerID && txID == txn.TxID {
		return true
	}
	if writing && writeLocked {
		return false
	}
	switch txn.Isolation {
	case RC:
		return txn.oracle.IsCommitted(txID)
	default: // SI, SSI
		return txn.oracle.IsCommitted(txID) && txID <= txn.TxID
	}
}
