package types

import (
	"fmt"

	"github.com/holiman/uint256"
)

// FeeSchedule prices a batch operation of n items in wei:
//
//	fee(n) = Base + Step*(n-1) [+ Step*(n-BulkThreshold) when BulkThreshold > 0 and n > BulkThreshold]
//
// Items beyond the bulk threshold therefore pay the step twice.
type FeeSchedule struct {
	Base          *uint256.Int `json:"base"`
	Step          *uint256.Int `json:"step"`
	BulkThreshold uint64       `json:"bulk_threshold"`
}

// ZeroFees returns a schedule that charges nothing.
func ZeroFees() FeeSchedule {
	return FeeSchedule{Base: new(uint256.Int), Step: new(uint256.Int)}
}

// NewFeeSchedule builds a schedule from the three-entry form
// [base, step, bulkThreshold] used by setMintFees, setBurnFees and setDualFees.
func NewFeeSchedule(values []*uint256.Int) (FeeSchedule, error) {
	if len(values) != 3 {
		return FeeSchedule{}, ErrInvalidFees
	}
	for _, v := range values {
		if v == nil {
			return FeeSchedule{}, ErrInvalidFees
		}
	}
	if !values[2].IsUint64() {
		return FeeSchedule{}, fmt.Errorf("%w: bulk threshold too large", ErrInvalidFees)
	}
	return FeeSchedule{
		Base:          values[0].Clone(),
		Step:          values[1].Clone(),
		BulkThreshold: values[2].Uint64(),
	}, nil
}

// Values returns the schedule in its three-entry form.
func (f FeeSchedule) Values() []*uint256.Int {
	return []*uint256.Int{
		OrZero(f.Base).Clone(),
		OrZero(f.Step).Clone(),
		uint256.NewInt(f.BulkThreshold),
	}
}

// IsZero reports whether the schedule never charges anything.
func (f FeeSchedule) IsZero() bool {
	return OrZero(f.Base).IsZero() && OrZero(f.Step).IsZero()
}

// Fee returns the fee for an operation over n items. Zero items cost
// nothing. ErrOverflow is returned if the fee does not fit in 256 bits.
func (f FeeSchedule) Fee(n uint64) (*uint256.Int, error) {
	if n == 0 {
		return new(uint256.Int), nil
	}
	steps := n - 1
	if f.BulkThreshold > 0 && n > f.BulkThreshold {
		steps += n - f.BulkThreshold
	}
	stepTotal, overflow := new(uint256.Int).MulOverflow(OrZero(f.Step), uint256.NewInt(steps))
	if overflow {
		return nil, ErrOverflow
	}
	fee, overflow := new(uint256.Int).AddOverflow(OrZero(f.Base), stepTotal)
	if overflow {
		return nil, ErrOverflow
	}
	return fee, nil
}
