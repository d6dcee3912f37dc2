// Command vtreed is the tree-wide demo entrypoint: it loads a TOML
// config (optionally overridden by flags), opens the badger-backed
// versions store, wires a leaf.Tree and its dispatch.Table, and runs a
// small insert/lookup/remove demo against them, then exits; it installs a
// signal handler but does not wait for a signal. Grounded on kv/tinykv-server/main.go's
// flag-then-toml loadConfig pattern and signal handling, with
// spf13/pflag in place of the teacher's bare flag package (SPEC_FULL.md
// §5's pflag-over-toml layering).
package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/BurntSushi/toml"
	"github.com/coocood/badger"
	"github.com/spf13/pflag"

	"github.com/tinykv-contrib/vtree/pkg/config"
	"github.com/tinykv-contrib/vtree/pkg/dispatch"
	"github.com/tinykv-contrib/vtree/pkg/leaf"
	"github.com/tinykv-contrib/vtree/pkg/mvcc"
	"github.com/tinykv-contrib/vtree/pkg/pagestore"
	"github.com/tinykv-contrib/vtree/pkg/verrors"
	"github.com/tinykv-contrib/vtree/pkg/versionstore"
	"github.com/tinykv-contrib/vtree/pkg/xlog"
)

var (
	configPath = pflag.String("config", "", "config file path")
	dbPath     = pflag.String("db-path", "", "versions store data directory, overrides config")
	logLevel   = pflag.String("log-level", "", "log level, overrides config")
	mv         = pflag.Bool("mv", true, "enable MVCC version creation")
	twoPL      = pflag.Bool("two-pl", false, "use strict two-phase locking instead of SSI read timestamps")
)

// loadConfig mirrors kv/tinykv-server/main.go's loadConfig: start from the
// package default, decode a TOML file over it when one is given, then let
// flags win.
func loadConfig() *config.Config {
	conf := config.NewDefaultConfig()
	if *configPath != "" {
		if _, err := toml.DecodeFile(*configPath, conf); err != nil {
			panic(err)
		}
	}
	if *dbPath != "" {
		conf.DBPath = *dbPath
	}
	if *logLevel != "" {
		conf.LogLevel = *logLevel
	}
	conf.MV = *mv
	conf.TwoPL = *twoPL
	if err := conf.Validate(); err != nil {
		panic(err)
	}
	return conf
}

func openVersionsDB(conf *config.Config) *badger.DB {
	if err := os.MkdirAll(conf.DBPath, os.ModePerm); err != nil {
		xlog.Error("failed to create db path", xlog.String("path", conf.DBPath), xlog.Err(err))
		os.Exit(1)
	}
	opts := badger.DefaultOptions
	opts.Dir = conf.DBPath
	opts.ValueDir = conf.DBPath
	db, err := badger.Open(opts)
	if err != nil {
		xlog.Error("failed to open versions store", xlog.Err(err))
		os.Exit(1)
	}
	return db
}

func handleSignal(done chan<- struct{}) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		sig := <-sigCh
		xlog.Info("got signal, shutting down", xlog.String("signal", sig.String()))
		close(done)
	}()
}

// runDemo exercises Insert, Lookup and Remove on the tree, then drains the
// remover's staged point-GC work through the dispatch table's Todo
// callback, standing in for the real RPC surface spec.md §1
// excludes from this module's scope.
func runDemo(tree *leaf.Tree, dt *dispatch.Table, worker *mvcc.Worker) {
	txn := worker.Begin(mvcc.SI, tree.Config.TwoPL, true)
	if res, err := tree.Insert(txn, []byte("hello"), []byte("world")); err != nil || res != verrors.OK {
		xlog.Warn("demo insert did not succeed", xlog.String("result", res.String()))
	}
	txn.Commit()

	reader := worker.Begin(mvcc.SI, tree.Config.TwoPL, true)
	value, res, err := tree.Lookup(reader, []byte("hello"))
	if err != nil {
		xlog.Error("demo lookup failed", xlog.Err(err))
		return
	}
	xlog.Info("demo lookup", xlog.String("result", res.String()), xlog.String("value", string(value)))
	reader.Commit()

	remover := worker.Begin(mvcc.SI, tree.Config.TwoPL, true)
	if _, err := tree.Remove(remover, []byte("hello")); err != nil {
		xlog.Error("demo remove failed", xlog.Err(err))
		return
	}
	remover.Commit()
	dt.Todo(remover, remover.LWM())
}

func main() {
	pflag.Parse()
	conf := loadConfig()
	xlog.SetLevel(conf.LogLevel)
	xlog.Info("starting vtreed", xlog.String("db_path", conf.DBPath), xlog.Bool("mv", conf.MV))

	db := openVersionsDB(conf)
	defer db.Close()

	versions := versionstore.NewBadgerStore(db)
	pages := pagestore.NewStore()
	tree := leaf.NewTree(1, pages, versions, conf)
	dt := dispatch.New(tree)

	oracle := mvcc.NewOracle()
	worker := mvcc.NewWorker(1, oracle, versions)
	runDemo(tree, dt, worker)

	done := make(chan struct{})
	handleSignal(done)
	close(done) // the demo has nothing left to serve; exit immediately
	xlog.Info("vtreed stopped")
}
