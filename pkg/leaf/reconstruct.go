// Package leaf implements the transactional CRUD engine (Leaf Operator),
// its version-chain walker (Reconstructor), and the rollback undo engine.
// Grounded on original_source/backend/leanstore/storage/btree/BTreeVI.cpp's
// lookup/lookupOptimistic/lookupPessimistic/insert/updateSameSizeInPlace/
// remove/reconstructChainedTuple/undo, reshaped into restartable Go
// functions per spec.md §9 (a bounded retry loop replacing
// jumpmuTry/jumpmu_return/jumpmu_continue), and onto the teacher's
// kv/transaction/commands/prewrite.go command-shaped Read/PrepareWrites
// split and kv/transaction/latches/latches.go's per-key latch idea (here
// the Page Store's per-page sync.RWMutex).
package leaf

import (
	"github.com/tinykv-contrib/vtree/pkg/mvcc"
	"github.com/tinykv-contrib/vtree/pkg/tuple"
	"github.com/tinykv-contrib/vtree/pkg/verrors"
	"github.com/tinykv-contrib/vtree/pkg/versionstore"
)

// Reconstruct implements spec.md §4.4: given a primary not visible to txn,
// walk the delta chain in the versions store applying diffs until a
// visible ancestor or chain end is reached. Grounded on BTreeVI.cpp's
// reconstructChainedTuple line for line: scratch buffer seeded from the
// primary payload, descriptor-driven ApplyDiff/full-payload replace per
// version, identity chaining via (worker_id, tx_id, command_id), and
// other_examples/mjm918-tur__visibility.go's FindVisibleVersion walk
// shape. maxChainLength enforcement is a fatal panic (spec.md §9's
// "invariant violations trap immediately"), not a Result.
func Reconstruct(txn *mvcc.Txn, versions versionstore.Store, treeID uint32, primary tuple.ChainedTuple, maxChainLength int) ([]byte, verrors.Result, int, error) {
	if primary.IsFinal {
		return nil, verrors.NotFound, 0, nil
	}

	scratch := append([]byte(nil), primary.Payload...)
	nextWorker, nextTx, nextCmd := primary.WorkerID, primary.TxID, primary.CommandID

	chainLength := 0
	for {
		chainLength++
		if chainLength > maxChainLength {
			verrors.Invariant("leaf: version chain length %d exceeds max_chain_length %d", chainLength, maxChainLength)
		}

		key := versionstore.Key{TreeID: treeID, TxID: nextTx, CommandID: nextCmd}
		var v tuple.Version
		found, err := versions.Retrieve(key, func(buf []byte) error {
			v = tuple.Decode(buf)
			return nil
		})
		if err != nil {
			return nil, verrors.Other, chainLength, verrors.Wrap(err, "leaf: reconstruct retrieve version")
		}
		if !found {
			return nil, verrors.NotFound, chainLength, nil
		}

		if v.IsDelta {
			desc, n := tuple.DecodeDescriptor(v.Payload)
			tuple.ApplyDiff(desc, scratch, v.Payload[n:])
		} else {
			scratch = append(scratch[:0], v.Payload...)
		}

		nextWorker, nextTx, nextCmd = v.WorkerID, v.TxID, v.CommandID

		if mvcc.IsVisible(txn, nextWorker, nextTx, false, false) {
			if v.IsRemoved {
				return nil, verrors.NotFound, chainLength, nil
			}
			return scratch, verrors.OK, chainLength, nil
		}
	}
}
