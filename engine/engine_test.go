package engine

import (
	"context"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitfsorg/libshares-go/account"
	"github.com/bitfsorg/libshares-go/bank"
	"github.com/bitfsorg/libshares-go/config"
	"github.com/bitfsorg/libshares-go/revshare"
)

const usd bank.Currency = "USD"

func makeAddr(seed byte) account.Address {
	var a account.Address
	for i := range a {
		a[i] = seed
	}
	return a
}

var (
	alice     = makeAddr(0xA1)
	bob       = makeAddr(0xB0)
	collector = makeAddr(0xFC)
)

func testConfig(t *testing.T, backend string) config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.DataDir = t.TempDir()
	cfg.LogLevel = "error"
	cfg.StoreBackend = backend
	cfg.FeeRate = 10_000_000_000_000_000 // 1%
	cfg.FeeCollector = collector.Hex()
	return cfg
}

func TestOpen_InvalidConfig(t *testing.T) {
	cfg := testConfig(t, config.BackendMemory)
	cfg.Network = "devnet"
	_, err := Open(cfg)
	assert.ErrorIs(t, err, config.ErrInvalidNetwork)
}

func TestOpen_LocksDataDir(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("no cross-process lock on windows")
	}
	cfg := testConfig(t, config.BackendMemory)
	e, err := Open(cfg)
	require.NoError(t, err)

	_, err = Open(cfg)
	assert.ErrorIs(t, err, ErrLocked)

	require.NoError(t, e.Close())
	e2, err := Open(cfg)
	require.NoError(t, err)
	require.NoError(t, e2.Close())
}

func TestEngine_Lifecycle(t *testing.T) {
	ctx := context.Background()
	e, err := Open(testConfig(t, config.BackendMemory))
	require.NoError(t, err)
	defer func() { _ = e.Close() }()

	assert.Equal(t, DefaultFactory, e.Ledger.Factory())
	fs, err := e.Ledger.FeeSchedule(ctx)
	require.NoError(t, err)
	assert.Equal(t, collector, fs.Collector)

	inst, err := e.Ledger.CreateInstance(ctx, alice, alice, 100)
	require.NoError(t, err)
	require.NoError(t, e.Ledger.Transfer(ctx, inst.Address, alice, alice, bob, 40))

	require.NoError(t, e.Deposit(ctx, inst.Address, usd, 1000))
	got, err := e.Ledger.Claim(ctx, inst.Address, alice, usd)
	require.NoError(t, err)
	assert.Equal(t, uint64(594), got) // 1000 - 1% fee, 60%

	bal, err := e.Balance(ctx, alice, usd)
	require.NoError(t, err)
	assert.Equal(t, uint64(594), bal)

	hs, err := e.Holdings(ctx, inst.Address)
	require.NoError(t, err)
	assert.Equal(t, []bank.Holding{{Currency: usd, Amount: 406}}, hs)
}

func TestEngine_BoltPersists(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t, config.BackendBolt)

	e, err := Open(cfg)
	require.NoError(t, err)
	inst, err := e.Ledger.CreateInstance(ctx, alice, alice, 10)
	require.NoError(t, err)
	require.NoError(t, e.Deposit(ctx, inst.Address, usd, 50))
	require.NoError(t, e.Close())

	e, err = Open(cfg)
	require.NoError(t, err)
	defer func() { _ = e.Close() }()

	claimable, feePortion, err := e.Ledger.ClaimableAmount(ctx, inst.Address, alice, usd)
	require.NoError(t, err)
	assert.Equal(t, uint64(50), claimable, "1% of 50 floors to zero")
	assert.Zero(t, feePortion)
}

func TestEngine_DistributeAndRelations(t *testing.T) {
	ctx := context.Background()
	e, err := Open(testConfig(t, config.BackendMemory))
	require.NoError(t, err)
	defer func() { _ = e.Close() }()

	outer, err := e.Ledger.CreateInstance(ctx, alice, alice, 10)
	require.NoError(t, err)
	inner, err := e.Ledger.CreateInstance(ctx, alice, outer.Address, 10)
	require.NoError(t, err)

	rel, err := e.Relations(ctx, outer.Address)
	require.NoError(t, err)
	assert.Equal(t, []account.Address{inner.Address}, rel.Issuers)
	assert.Empty(t, rel.Holders)
	assert.Equal(t, []account.Address{inner.Address}, rel.Ancestors)

	require.NoError(t, e.Deposit(ctx, bob, usd, 200))
	groups := []revshare.CollateralGroup{{
		Contributor:   bob,
		Weight:        1,
		Beneficiaries: []revshare.Beneficiary{{Address: inner.Address, PPM: revshare.PPMTotal}},
	}}
	ds, err := e.Distribute(ctx, bob, usd, 200, groups)
	require.NoError(t, err)
	assert.Equal(t, []revshare.Distribution{{Address: inner.Address, Amount: 200}}, ds)

	// inner keeps 1% (2) as fee and forwards 198 to outer, which keeps 1% of
	// that (1) and credits the rest to alice.
	claimable, _, err := e.Ledger.ClaimableAmount(ctx, outer.Address, alice, usd)
	require.NoError(t, err)
	assert.Equal(t, uint64(197), claimable)
}

func TestEngine_FormatAddress(t *testing.T) {
	e, err := Open(testConfig(t, config.BackendMemory))
	require.NoError(t, err)
	defer func() { _ = e.Close() }()

	s := e.FormatAddress(alice)
	assert.True(t, strings.HasPrefix(s, "1"), "mainnet P2PKH addresses start with 1, got %s", s)
	parsed, err := account.ParseAddress(s)
	require.NoError(t, err)
	assert.Equal(t, alice, parsed)
}
