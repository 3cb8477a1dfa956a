package aggregate

import (
	"fmt"
	"math/big"

	"ammCore/internal/model"
)

// Accumulator holds aggregate values for one pool within one simulation run.
type Accumulator struct {
	RunID         string
	Market        string
	AssetA        string
	AssetB        string
	SwapCount     uint64
	DepositCount  uint64
	WithdrawCount uint64
	FailedCount   uint64
	VolumeA       *big.Int
	VolumeB       *big.Int
	FeeA          *big.Int
	FeeB          *big.Int
	Minted        *big.Int
	Burned        *big.Int
	Last          model.Reserves
	LastSeq       uint64
}

func NewAccumulator(record model.OperationRecord) *Accumulator {
	return &Accumulator{
		RunID:   record.RunID,
		Market:  record.Market,
		AssetA:  record.AssetA,
		AssetB:  record.AssetB,
		VolumeA: big.NewInt(0),
		VolumeB: big.NewInt(0),
		FeeA:    big.NewInt(0),
		FeeB:    big.NewInt(0),
		Minted:  big.NewInt(0),
		Burned:  big.NewInt(0),
	}
}

// AddRecord folds one journal record into the totals. Failed records only count as failures.
func (a *Accumulator) AddRecord(record model.OperationRecord) error {
	if record.Status == model.StatusFailed {
		a.FailedCount++
		return nil
	}
	if record.Seq >= a.LastSeq && record.After != nil {
		a.Last = *record.After
		a.LastSeq = record.Seq
	}

	switch record.Op {
	case model.OpSwap:
		if record.Swap == nil {
			return fmt.Errorf("swap record %d has no swap data", record.Seq)
		}
		return a.applySwap(*record.Swap)
	case model.OpDeposit:
		if record.Deposit == nil {
			return fmt.Errorf("deposit record %d has no plan", record.Seq)
		}
		a.DepositCount++
		addUint(a.Minted, record.Deposit.Minted)
		addUint(a.Minted, record.Deposit.Locked)
	case model.OpWithdraw:
		if record.Before == nil || record.After == nil {
			return fmt.Errorf("withdraw record %d has no reserves", record.Seq)
		}
		if record.After.Supply > record.Before.Supply {
			return fmt.Errorf("withdraw record %d grew supply", record.Seq)
		}
		a.WithdrawCount++
		addUint(a.Burned, record.Before.Supply-record.After.Supply)
	}
	return nil
}

func (a *Accumulator) applySwap(swap model.SwapEventData) error {
	q := swap.Quote
	switch swap.Direction {
	case model.AToB:
		addUint(a.VolumeA, q.Input)
		addUint(a.FeeA, q.Fee)
		addUint(a.VolumeB, q.Output)
	case model.BToA:
		addUint(a.VolumeB, q.Input)
		addUint(a.FeeB, q.Fee)
		addUint(a.VolumeA, q.Output)
	default:
		return fmt.Errorf("invalid swap direction %d", swap.Direction)
	}
	a.SwapCount++
	return nil
}

func addUint(target *big.Int, value uint64) {
	if target == nil || value == 0 {
		return
	}
	target.Add(target, new(big.Int).SetUint64(value))
}
