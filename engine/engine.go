// Package engine wires configuration, storage, logging and the ledger into
// the single façade that command line tools and services call.
package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	bsvhash "github.com/bsv-blockchain/go-sdk/primitives/hash"

	"github.com/bitfsorg/libshares-go/account"
	"github.com/bitfsorg/libshares-go/bank"
	"github.com/bitfsorg/libshares-go/config"
	"github.com/bitfsorg/libshares-go/kvstore"
	"github.com/bitfsorg/libshares-go/ledger"
	"github.com/bitfsorg/libshares-go/logging"
	"github.com/bitfsorg/libshares-go/relations"
	"github.com/bitfsorg/libshares-go/revshare"
)

// DefaultFactory is the issuing identity used when the configuration names
// none.
var DefaultFactory = func() account.Address {
	var a account.Address
	copy(a[:], bsvhash.Hash160([]byte("libshares factory v1")))
	return a
}()

// Engine is the shared business logic layer. It holds an exclusive lock on
// the data directory for as long as it is open.
type Engine struct {
	Config      config.Config
	Network     *account.Network
	Store       kvstore.Store
	Ledger      *ledger.Ledger
	Distributor *revshare.Distributor
	Log         logging.Logger

	lock *os.File
}

// Open validates cfg, locks the data directory, opens the configured store
// and builds the ledger on top of it.
func Open(cfg config.Config) (*Engine, error) {
	if err := config.ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	netCfg, err := account.GetNetwork(cfg.Network)
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	factory, collector, err := identities(cfg)
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}

	if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
		return nil, fmt.Errorf("engine: create data dir: %w", err)
	}
	fl, err := tryLock(filepath.Join(cfg.DataDir, "engine.lock"))
	if err != nil {
		return nil, fmt.Errorf("engine lock: %w", err)
	}

	log, err := logging.NewZap(logging.ZapConfig{Level: cfg.LogLevel, File: cfg.LogFile})
	if err != nil {
		releaseLock(fl)
		return nil, fmt.Errorf("engine: %w", err)
	}

	store, err := openStore(cfg)
	if err != nil {
		releaseLock(fl)
		return nil, fmt.Errorf("engine: open store: %w", err)
	}

	l, err := ledger.New(store, ledger.Options{
		Factory:      factory,
		FeeRate:      cfg.FeeRate,
		FeeCollector: collector,
		Logger:       log,
	})
	if err != nil {
		_ = store.Close()
		releaseLock(fl)
		return nil, fmt.Errorf("engine: %w", err)
	}

	e := &Engine{
		Config:      cfg,
		Network:     netCfg,
		Store:       store,
		Ledger:      l,
		Distributor: revshare.NewDistributor(l, log),
		Log:         log,
		lock:        fl,
	}
	l.Subscribe(e.logEvent)
	return e, nil
}

func identities(cfg config.Config) (factory, collector account.Address, err error) {
	factory = DefaultFactory
	if cfg.Factory != "" {
		if factory, err = account.ParseAddress(cfg.Factory); err != nil {
			return factory, collector, err
		}
	}
	if cfg.FeeCollector != "" {
		if collector, err = account.ParseAddress(cfg.FeeCollector); err != nil {
			return factory, collector, err
		}
	}
	return factory, collector, nil
}

func openStore(cfg config.Config) (kvstore.Store, error) {
	if cfg.StoreBackend == config.BackendMemory {
		return kvstore.NewMemStore(), nil
	}
	return kvstore.OpenBoltStore(filepath.Join(cfg.DataDir, "state.db"))
}

func (e *Engine) logEvent(ev ledger.Event) {
	e.Log.Log(context.Background(), logging.LevelDebug, "ledger event",
		logging.String("kind", string(ev.Kind)),
		logging.Stringer("instance", ev.Instance),
		logging.String("currency", string(ev.Currency)),
		logging.Uint64("amount", ev.Amount))
}

// Close releases the store, flushes the logger and drops the lock.
func (e *Engine) Close() error {
	err := e.Store.Close()
	_ = e.Log.Sync(context.Background())
	releaseLock(e.lock)
	e.lock = nil
	if err != nil {
		return fmt.Errorf("engine: close store: %w", err)
	}
	return nil
}

// FormatAddress renders a in the configured network's text encoding.
func (e *Engine) FormatAddress(a account.Address) string {
	s, err := a.Encode(e.Network)
	if err != nil {
		return a.Hex()
	}
	return s
}

// Deposit credits amount of cur to the raw balance of to. Deposits into an
// instance are picked up by its next advance.
func (e *Engine) Deposit(ctx context.Context, to account.Address, cur bank.Currency, amount uint64) error {
	return e.Ledger.Update(ctx, func(t *ledger.Txn) error {
		return bank.Mint(t.Tx(), to, cur, amount)
	})
}

// Balance returns the raw balance of owner in cur.
func (e *Engine) Balance(ctx context.Context, owner account.Address, cur bank.Currency) (uint64, error) {
	var b uint64
	err := e.Ledger.View(ctx, func(t *ledger.Txn) error {
		b = bank.Balance(t.Tx(), owner, cur)
		return nil
	})
	return b, err
}

// Holdings lists every raw balance of owner.
func (e *Engine) Holdings(ctx context.Context, owner account.Address) ([]bank.Holding, error) {
	var hs []bank.Holding
	err := e.Ledger.View(ctx, func(t *ledger.Txn) error {
		var err error
		hs, err = bank.Holdings(t.Tx(), owner)
		return err
	})
	return hs, err
}

// Relations describes the composition graph around an instance.
type Relations struct {
	Issuers   []account.Address
	Holders   []account.Address
	Ancestors []account.Address
}

// Relations returns the edges and ancestors of inst.
func (e *Engine) Relations(ctx context.Context, inst account.Address) (*Relations, error) {
	r := &Relations{}
	err := e.Ledger.View(ctx, func(t *ledger.Txn) error {
		var err error
		if r.Issuers, err = relations.Issuers(t.Tx(), inst); err != nil {
			return err
		}
		if r.Holders, err = relations.Holders(t.Tx(), inst); err != nil {
			return err
		}
		r.Ancestors, err = relations.Ancestors(t.Tx(), inst)
		return err
	})
	return r, err
}

// Distribute pays a split payment from payer. See revshare.Distributor.
func (e *Engine) Distribute(ctx context.Context, payer account.Address, cur bank.Currency, payment uint64, groups []revshare.CollateralGroup) ([]revshare.Distribution, error) {
	return e.Distributor.Distribute(ctx, payer, cur, payment, groups)
}
