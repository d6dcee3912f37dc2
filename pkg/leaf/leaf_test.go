package leaf

import (
	"github.com/tinykv-contrib/vtree/pkg/config"
	"github.com/tinykv-contrib/vtree/pkg/mvcc"
	"github.com/tinykv-contrib/vtree/pkg/pagestore"
	"github.com/tinykv-contrib/vtree/pkg/versionstore"
)

// testHarness bundles one Tree with the Oracle and per-worker context
// tests need to drive transactions against it, following
// kv/transaction/mvcc/transaction_test.go's small table-style helper
// convention rather than a generic fixture framework.
type testHarness struct {
	tree   *Tree
	oracle *mvcc.Oracle
	worker *mvcc.Worker
}

func newHarness(cfg *config.Config) *testHarness {
	oracle := mvcc.NewOracle()
	versions := versionstore.NewMemStore()
	worker := mvcc.NewWorker(1, oracle, versions)
	tree := NewTree(1, pagestore.NewStore(), versions, cfg)
	return &testHarness{tree: tree, oracle: oracle, worker: worker}
}

func (h *testHarness) workerN(id uint64) *mvcc.Worker {
	return mvcc.NewWorker(id, h.oracle, h.tree.Versions)
}

func (h *testHarness) begin(isolation mvcc.Isolation, singleStatement bool) *mvcc.Txn {
	return h.worker.Begin(isolation, h.tree.Config.TwoPL, singleStatement)
}
