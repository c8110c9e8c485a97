package ledger

import (
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/bitfsorg/libshares-go/account"
)

const (
	indexSize       = 32                     // 256-bit big-endian
	instanceSize    = 36                     // creator(20) + supply(8) + nonce(8)
	recordSize      = indexSize + 8 + 8 + 8  // index + accounted + fee rate + available fee
	settlementSize  = indexSize + 8          // index + owed
	feeScheduleSize = 8 + account.AddressSize // rate(8) + collector(20)
)

// putIndex writes v as a 32-byte big-endian word.
func putIndex(buf []byte, v *big.Int) error {
	if v.Sign() < 0 || v.BitLen() > maxIndexBits {
		return fmt.Errorf("%w: index of %d bits", ErrOverflow, v.BitLen())
	}
	v.FillBytes(buf[:indexSize])
	return nil
}

// encodeRecord serializes a CurrencyRecord to its fixed-width form.
func encodeRecord(r *CurrencyRecord) ([]byte, error) {
	buf := make([]byte, recordSize)
	if err := putIndex(buf[0:indexSize], r.CumulativeIndex); err != nil {
		return nil, err
	}
	binary.BigEndian.PutUint64(buf[32:40], r.AccountedBalance)
	binary.BigEndian.PutUint64(buf[40:48], r.FeeRate)
	binary.BigEndian.PutUint64(buf[48:56], r.AvailableFee)
	return buf, nil
}

// decodeRecord parses a CurrencyRecord.
func decodeRecord(data []byte) (*CurrencyRecord, error) {
	if len(data) != recordSize {
		return nil, fmt.Errorf("%w: currency record: expected %d bytes, got %d", ErrCorruptRecord, recordSize, len(data))
	}
	return &CurrencyRecord{
		CumulativeIndex:  new(big.Int).SetBytes(data[0:32]),
		AccountedBalance: binary.BigEndian.Uint64(data[32:40]),
		FeeRate:          binary.BigEndian.Uint64(data[40:48]),
		AvailableFee:     binary.BigEndian.Uint64(data[48:56]),
	}, nil
}

func encodeSettlement(st *settlement) ([]byte, error) {
	buf := make([]byte, settlementSize)
	if err := putIndex(buf[0:indexSize], st.Index); err != nil {
		return nil, err
	}
	binary.BigEndian.PutUint64(buf[32:40], st.Owed)
	return buf, nil
}

func decodeSettlement(data []byte) (*settlement, error) {
	if len(data) != settlementSize {
		return nil, fmt.Errorf("%w: settlement: expected %d bytes, got %d", ErrCorruptRecord, settlementSize, len(data))
	}
	return &settlement{
		Index: new(big.Int).SetBytes(data[0:32]),
		Owed:  binary.BigEndian.Uint64(data[32:40]),
	}, nil
}

func encodeInstance(inst *Instance) []byte {
	buf := make([]byte, instanceSize)
	copy(buf[0:20], inst.Creator[:])
	binary.BigEndian.PutUint64(buf[20:28], inst.TotalSupply)
	binary.BigEndian.PutUint64(buf[28:36], inst.Nonce)
	return buf
}

func decodeInstance(addr account.Address, data []byte) (*Instance, error) {
	if len(data) != instanceSize {
		return nil, fmt.Errorf("%w: instance: expected %d bytes, got %d", ErrCorruptRecord, instanceSize, len(data))
	}
	inst := &Instance{Address: addr}
	copy(inst.Creator[:], data[0:20])
	inst.TotalSupply = binary.BigEndian.Uint64(data[20:28])
	inst.Nonce = binary.BigEndian.Uint64(data[28:36])
	return inst, nil
}

func encodeFeeSchedule(fs FeeSchedule) []byte {
	buf := make([]byte, feeScheduleSize)
	binary.BigEndian.PutUint64(buf[0:8], fs.Rate)
	copy(buf[8:28], fs.Collector[:])
	return buf
}

func decodeFeeSchedule(data []byte) (FeeSchedule, error) {
	var fs FeeSchedule
	if len(data) != feeScheduleSize {
		return fs, fmt.Errorf("%w: fee schedule: expected %d bytes, got %d", ErrCorruptRecord, feeScheduleSize, len(data))
	}
	fs.Rate = binary.BigEndian.Uint64(data[0:8])
	copy(fs.Collector[:], data[8:28])
	return fs, nil
}

func encodeUint64(v uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, v)
	return buf
}

func decodeUint64(data []byte) (uint64, error) {
	if len(data) != 8 {
		return 0, fmt.Errorf("%w: expected 8 bytes, got %d", ErrCorruptRecord, len(data))
	}
	return binary.BigEndian.Uint64(data), nil
}
