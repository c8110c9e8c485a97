package ledger

import (
	"math"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMulDiv(t *testing.T) {
	tests := []struct {
		a, b, d, want uint64
	}{
		{101, 0, ScaleUint64, 0},
		{1000, 10 * pct, ScaleUint64, 100},
		{999, pct, ScaleUint64, 9},
		{math.MaxUint64, ScaleUint64, ScaleUint64, math.MaxUint64},
		{math.MaxUint64, 3, 4, 3<<62 - 1},
	}
	for _, tt := range tests {
		got, err := mulDiv(tt.a, tt.b, tt.d)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "%d*%d/%d", tt.a, tt.b, tt.d)
	}

	_, err := mulDiv(math.MaxUint64, 2, 1)
	assert.ErrorIs(t, err, ErrOverflow)
	_, err = mulDiv(1, 1, 0)
	assert.ErrorIs(t, err, ErrInvariantViolation)
}

func TestOwedFor(t *testing.T) {
	idx := new(big.Int).Mul(big.NewInt(101), big.NewInt(1e15))

	owed, err := owedFor(600, idx, new(big.Int))
	require.NoError(t, err)
	assert.Equal(t, uint64(60), owed)

	owed, err = owedFor(0, idx, new(big.Int))
	require.NoError(t, err)
	assert.Zero(t, owed)

	_, err = owedFor(1, new(big.Int), idx)
	assert.ErrorIs(t, err, ErrInvariantViolation)
}

func TestAccrue(t *testing.T) {
	rec := newRecord(10 * pct)

	next, acc, err := accrue(rec, 1000, 1000, 20*pct)
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), acc.Income)
	assert.Equal(t, uint64(100), acc.Fee)
	assert.Equal(t, uint64(900), acc.Net)
	assert.False(t, acc.Orphaned)
	assert.Equal(t, "900000000000000000", next.CumulativeIndex.String())
	assert.Equal(t, uint64(1000), next.AccountedBalance)
	assert.Equal(t, uint64(100), next.AvailableFee)
	assert.Equal(t, 20*pct, next.FeeRate)

	assert.Zero(t, rec.CumulativeIndex.Sign(), "input record is not modified")
	assert.Equal(t, 10*pct, rec.FeeRate)
}

func TestAccrue_NoIncome(t *testing.T) {
	rec := newRecord(0)
	rec.AccountedBalance = 50

	next, acc, err := accrue(rec, 50, 10, pct)
	require.NoError(t, err)
	assert.Zero(t, acc.Income)
	assert.Equal(t, pct, next.FeeRate)
	assert.Equal(t, uint64(50), next.AccountedBalance)
}

func TestAccrue_ZeroSupply(t *testing.T) {
	rec := newRecord(10 * pct)

	next, acc, err := accrue(rec, 1000, 0, 10*pct)
	require.NoError(t, err)
	assert.True(t, acc.Orphaned)
	assert.Zero(t, next.CumulativeIndex.Sign(), "index is not credited without shares")
	assert.Equal(t, uint64(100), next.AvailableFee)
	assert.Equal(t, uint64(1000), next.AccountedBalance, "income is consumed and stays unattributed")
}

func TestAccrue_Deficit(t *testing.T) {
	rec := newRecord(0)
	rec.AccountedBalance = 10

	_, _, err := accrue(rec, 9, 1, 0)
	assert.ErrorIs(t, err, ErrBalanceDeficit)
}

func TestAccrue_IndexOverflow(t *testing.T) {
	rec := newRecord(0)
	rec.CumulativeIndex = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), maxIndexBits), big.NewInt(1))

	_, _, err := accrue(rec, 1, 1, 0)
	assert.ErrorIs(t, err, ErrOverflow)
}

func TestCodec_Record(t *testing.T) {
	rec := &CurrencyRecord{
		CumulativeIndex:  new(big.Int).Lsh(big.NewInt(3), 200),
		AccountedBalance: 77,
		FeeRate:          pct,
		AvailableFee:     5,
	}
	data, err := encodeRecord(rec)
	require.NoError(t, err)
	assert.Len(t, data, recordSize)

	got, err := decodeRecord(data)
	require.NoError(t, err)
	assert.Equal(t, 0, rec.CumulativeIndex.Cmp(got.CumulativeIndex))
	assert.Equal(t, rec.AccountedBalance, got.AccountedBalance)
	assert.Equal(t, rec.FeeRate, got.FeeRate)
	assert.Equal(t, rec.AvailableFee, got.AvailableFee)

	_, err = decodeRecord(data[:10])
	assert.ErrorIs(t, err, ErrCorruptRecord)

	_, err = encodeRecord(&CurrencyRecord{CumulativeIndex: big.NewInt(-1)})
	assert.ErrorIs(t, err, ErrOverflow)
}

func TestCodec_Corrupt(t *testing.T) {
	_, err := decodeInstance(alice, []byte{1, 2})
	assert.ErrorIs(t, err, ErrCorruptRecord)
	_, err = decodeSettlement(make([]byte, 8))
	assert.ErrorIs(t, err, ErrCorruptRecord)
	_, err = decodeFeeSchedule(nil)
	assert.ErrorIs(t, err, ErrCorruptRecord)
	_, err = decodeUint64([]byte{1})
	assert.ErrorIs(t, err, ErrCorruptRecord)
}
