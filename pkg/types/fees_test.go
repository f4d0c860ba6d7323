package types

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func schedule(t *testing.T, base, step, threshold uint64) FeeSchedule {
	t.Helper()
	f, err := NewFeeSchedule([]*uint256.Int{
		uint256.NewInt(base), uint256.NewInt(step), uint256.NewInt(threshold),
	})
	require.NoError(t, err)
	return f
}

func TestFeeSchedule_Fee(t *testing.T) {
	tests := []struct {
		name  string
		sched FeeSchedule
		n     uint64
		want  uint64
	}{
		{"zero items", schedule(t, 2, 2, 2), 0, 0},
		{"single item pays base", schedule(t, 2, 2, 2), 1, 2},
		{"at threshold", schedule(t, 2, 2, 2), 2, 4},
		{"past threshold pays step twice", schedule(t, 2, 2, 2), 3, 8},
		{"no threshold is linear", schedule(t, 2, 2, 0), 3, 6},
		{"zero schedule", ZeroFees(), 10, 0},
		{"nil fields act as zero", FeeSchedule{}, 4, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.sched.Fee(tt.n)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Uint64())
		})
	}
}

func TestFeeSchedule_Overflow(t *testing.T) {
	max := new(uint256.Int).SetAllOne()
	f := FeeSchedule{Base: max, Step: uint256.NewInt(1)}
	_, err := f.Fee(2)
	assert.ErrorIs(t, err, ErrOverflow)

	f = FeeSchedule{Base: new(uint256.Int), Step: max}
	_, err = f.Fee(3)
	assert.ErrorIs(t, err, ErrOverflow)
}

func TestNewFeeSchedule(t *testing.T) {
	_, err := NewFeeSchedule([]*uint256.Int{uint256.NewInt(1)})
	assert.ErrorIs(t, err, ErrInvalidFees)

	_, err = NewFeeSchedule([]*uint256.Int{uint256.NewInt(1), nil, uint256.NewInt(1)})
	assert.ErrorIs(t, err, ErrInvalidFees)

	big := new(uint256.Int).Lsh(uint256.NewInt(1), 70)
	_, err = NewFeeSchedule([]*uint256.Int{uint256.NewInt(1), uint256.NewInt(1), big})
	assert.ErrorIs(t, err, ErrInvalidFees)

	f := schedule(t, 5, 3, 7)
	vals := f.Values()
	require.Len(t, vals, 3)
	assert.Equal(t, uint64(5), vals[0].Uint64())
	assert.Equal(t, uint64(3), vals[1].Uint64())
	assert.Equal(t, uint64(7), vals[2].Uint64())
	assert.False(t, f.IsZero())
	assert.True(t, ZeroFees().IsZero())
}
