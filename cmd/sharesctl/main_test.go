package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitfsorg/libshares-go/account"
)

const (
	alice = "a1a1a1a1a1a1a1a1a1a1a1a1a1a1a1a1a1a1a1a1"
	bob   = "b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0"
	payer = "5050505050505050505050505050505050505050"
)

func run(t *testing.T, input string, name string, args ...string) (string, error) {
	t.Helper()
	cmd, ok := commands[name]
	require.True(t, ok, "unknown command %q", name)
	var out bytes.Buffer
	err := cmd(strings.NewReader(input), &out, args)
	return out.String(), err
}

func mustRun(t *testing.T, input string, name string, args ...string) string {
	t.Helper()
	out, err := run(t, input, name, args...)
	require.NoError(t, err, "%s %v", name, args)
	return out
}

func TestVersion(t *testing.T) {
	assert.Equal(t, "dev\n", mustRun(t, "", "version"))
}

func TestAvailableCmdsSorted(t *testing.T) {
	cmds := availableCmds()
	assert.Len(t, cmds, len(commands))
	assert.IsIncreasing(t, cmds)
}

func TestKeygen(t *testing.T) {
	out := mustRun(t, "", "keygen", "-network", "testnet")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "private: "))

	encoded := strings.TrimPrefix(lines[1], "address: ")
	hex := strings.TrimSpace(strings.TrimPrefix(lines[2], "hex:"))
	a, err := account.ParseAddress(encoded)
	require.NoError(t, err)
	assert.Equal(t, hex, a.Hex())
}

func TestWorkflow(t *testing.T) {
	dir := t.TempDir()
	d := []string{"-datadir", dir}
	with := func(args ...string) []string { return append(append([]string{}, d...), args...) }

	mustRun(t, "", "init", with("-loglevel", "error")...)
	_, err := run(t, "", "init", with()...)
	assert.Error(t, err, "second init must not overwrite the config")

	inst := strings.TrimSpace(mustRun(t, "", "create", with("-as", alice, "-supply", "1000")...))
	_, err = account.ParseAddress(inst)
	require.NoError(t, err)

	mustRun(t, "", "transfer", with("-instance", inst, "-as", alice, "-to", bob, "-amount", "400")...)
	holders := mustRun(t, "", "holders", with("-instance", inst)...)
	assert.Contains(t, holders, "\t600\n")
	assert.Contains(t, holders, "\t400\n")

	mustRun(t, "", "deposit", with("-to", inst, "-currency", "USD", "-amount", "101")...)
	assert.Equal(t, "claimable\t40\nfee\t0\n",
		mustRun(t, "", "claimable", with("-instance", inst, "-holder", bob, "-currency", "USD")...))
	assert.Equal(t, "USD\t60\n", mustRun(t, "", "claim", with("-instance", inst, "-holder", alice)...))
	assert.Equal(t, "USD\t40\n", mustRun(t, "", "claim", with("-instance", inst, "-holder", bob, "-currency", "USD")...))
	assert.Equal(t, "USD\t1\n", mustRun(t, "", "balance", with("-owner", inst)...))

	mustRun(t, "", "deposit", with("-to", payer, "-currency", "USD", "-amount", "100")...)
	groups := `[{"contributor": "` + payer + `", "weight": 1,
		"beneficiaries": [{"address": "` + inst + `", "ppm": 500000}, {"address": "` + bob + `", "ppm": 500000}]}]`
	out := mustRun(t, groups, "distribute", with("-payer", payer, "-currency", "USD", "-amount", "100")...)
	assert.Equal(t, 2, strings.Count(out, "\t50\n"))

	// 50 reached the instance: alice is owed 60% of it.
	assert.Equal(t, "USD\t30\n", mustRun(t, "", "claim", with("-instance", inst, "-holder", alice)...))

	_, err = run(t, `[{"weight": 1, "beneficiaries": [{"address": "`+bob+`", "ppm": 1}]}]`,
		"distribute", with("-payer", payer, "-currency", "USD", "-amount", "1")...)
	assert.Error(t, err)

	_, err = run(t, "", "sweep-fee", with("-instance", inst, "-as", alice, "-currency", "USD")...)
	assert.Error(t, err, "alice is not the fee collector")

	assert.Empty(t, mustRun(t, "", "relations", with("-instance", inst)...))
}

func TestMissingFlags(t *testing.T) {
	dir := t.TempDir()
	_, err := run(t, "", "create", "-datadir", dir, "-supply", "1")
	assert.ErrorContains(t, err, "-as is required")
	_, err = run(t, "", "deposit", "-datadir", dir, "-to", alice, "-currency", "usd", "-amount", "1")
	assert.ErrorContains(t, err, "-currency")
}
