package scenario

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/mesh-intelligence/xvault/pkg/types"
)

var ctx = context.Background()

func TestExpectRevert(t *testing.T) {
	assert.NoError(t, ExpectRevert(&types.RevertError{Method: "mintPunk", Err: types.ErrNotOwner}))
	assert.ErrorIs(t, ExpectRevert(nil), ErrExpectedRevert)

	err := ExpectRevert(types.ErrInsufficientFunds)
	assert.ErrorIs(t, err, ErrExpectedRevert)
	assert.ErrorIs(t, err, types.ErrInsufficientFunds)
}

func TestRunAllStages(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	var out bytes.Buffer
	s, err := New(context.Background(), Options{
		Logger:   zap.New(core),
		Out:      &out,
		Registry: prometheus.NewRegistry(),
	})
	require.NoError(t, err)

	res := s.Run(context.Background())
	require.NoError(t, res.Err())
	assert.True(t, res.Passed())
	require.Len(t, res.Stages, len(Stages()))

	for _, st := range Stages() {
		assert.Contains(t, out.String(), "✓")
		assert.Contains(t, out.String(), st.Name)
	}
	assert.Contains(t, out.String(), "Profitable: setMintFees")
	assert.Contains(t, out.String(), "Controllable")
	assert.Equal(t, len(Stages()), logs.FilterMessage("stage passed").Len())

	// Migrate leaves the supply unbacked but still fully held.
	final := res.Stages[len(res.Stages)-1].Report
	assert.True(t, final.SupplyReconciled())
	assert.Zero(t, final.VaultNFTs)
	assert.True(t, s.Deployment().Vault.FeesCollected().IsZero())
	assert.Equal(t, s.Holders()[3].Address, s.Deployment().Vault.Owner())
}

func TestRunIsDeterministic(t *testing.T) {
	if testing.Short() {
		t.Skip("runs the full scenario twice")
	}
	run := func() string {
		s, err := New(context.Background(), Options{})
		require.NoError(t, err)
		require.True(t, s.Run(context.Background()).Passed())
		return s.Chain().Head().Hash.Hex()
	}
	assert.Equal(t, run(), run())
}

func TestStageNeedsPunks(t *testing.T) {
	s, err := New(context.Background(), Options{})
	require.NoError(t, err)

	// Without stage one nobody holds a punk, so stage two cannot start.
	err = Stages()[1].Run(context.Background(), s)
	assert.ErrorIs(t, err, ErrAssertion)
	assert.False(t, errors.Is(err, ErrUnbalanced))
}

func TestResultPassedRequiresEveryStage(t *testing.T) {
	r := &Result{Stages: []StageResult{{Name: "one"}}}
	assert.False(t, r.Passed())
	assert.NoError(t, r.Err())

	r.Stages = append(r.Stages, StageResult{Name: "two", Err: ErrUnbalanced})
	assert.ErrorIs(t, r.Err(), ErrUnbalanced)
	assert.Contains(t, r.Err().Error(), `stage "two"`)
}
