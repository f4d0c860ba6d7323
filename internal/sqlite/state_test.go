package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/xvault/internal/chain"
	"github.com/mesh-intelligence/xvault/internal/contracts"
	"github.com/mesh-intelligence/xvault/internal/deploy"
	"github.com/mesh-intelligence/xvault/pkg/types"
)

var start = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// ledger returns a chain with a local deployment, one minted punk and one
// reverted transaction.
func ledger(t *testing.T) (*chain.Chain, *deploy.Result, []chain.Signer) {
	t.Helper()
	ctx := context.Background()
	c := chain.New(chain.Options{Clock: chain.NewManualClock(start), Factories: contracts.Factories()})
	signers, err := chain.DeriveSigners(3)
	require.NoError(t, err)
	c.Genesis(signers, types.Ether(100))

	d, err := deploy.Run(ctx, c, deploy.Options{Profile: types.ProfileLocal, Name: "dev", Deployer: signers[0].Address})
	require.NoError(t, err)

	alice := chain.TxOpts{From: signers[1].Address}
	_, err = d.Market.SetInitialOwner(ctx, alice, signers[1].Address, 7)
	require.NoError(t, err)
	_, err = d.Market.OfferPunkForSaleToAddress(ctx, alice, 7, new(uint256.Int), d.Vault.Address())
	require.NoError(t, err)
	_, err = d.Vault.MintPunk(ctx, alice, 7)
	require.NoError(t, err)
	_, err = d.Vault.MintPunk(ctx, alice, 7)
	require.True(t, types.IsRevert(err))
	return c, d, signers
}

func TestLoadStateFresh(t *testing.T) {
	b, _ := attach(t)
	_, err := b.LoadState(context.Background())
	if !errors.Is(err, types.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSaveLoadState(t *testing.T) {
	ctx := context.Background()
	b, _ := attach(t)
	c, d, signers := ledger(t)

	st, err := c.Export()
	require.NoError(t, err)
	require.NoError(t, b.SaveState(ctx, st))

	loaded, err := b.LoadState(ctx)
	require.NoError(t, err)
	assert.Equal(t, st.Head.Number, loaded.Head.Number)
	assert.Equal(t, st.Head.Hash, loaded.Head.Hash)
	assert.Equal(t, st.Head.ParentHash, loaded.Head.ParentHash)
	assert.True(t, st.Head.Time.Equal(loaded.Head.Time))
	assert.Equal(t, st.Offset, loaded.Offset)
	assert.Equal(t, st.Accounts, loaded.Accounts)
	require.Len(t, loaded.Contracts, len(st.Contracts))
	require.Len(t, loaded.Receipts, len(st.Receipts))

	last := loaded.Receipts[len(loaded.Receipts)-1]
	assert.Equal(t, chain.StatusReverted, last.Status)
	assert.NotEmpty(t, last.Error)
	mint := loaded.Receipts[len(loaded.Receipts)-2]
	assert.Equal(t, "mintPunk", mint.Method)
	assert.Equal(t, st.Receipts[len(st.Receipts)-2].Logs, mint.Logs)

	fresh := chain.New(chain.Options{Clock: chain.NewManualClock(start), Factories: contracts.Factories()})
	require.NoError(t, fresh.Import(loaded))
	rebound, err := deploy.Bind(fresh, d.Deployment)
	require.NoError(t, err)
	assert.Equal(t, types.Unit(), rebound.Token.BalanceOf(signers[1].Address))
	assert.Equal(t, []uint64{7}, rebound.Vault.Reserves())
	assert.Equal(t, c.Nonce(signers[1].Address), fresh.Nonce(signers[1].Address))
	assert.Equal(t, "alice", fresh.Label(signers[1].Address))
}

func TestSaveStateReplacesPrevious(t *testing.T) {
	ctx := context.Background()
	b, _ := attach(t)
	c, d, signers := ledger(t)

	st, err := c.Export()
	require.NoError(t, err)
	require.NoError(t, b.SaveState(ctx, st))

	c.IncreaseTime(time.Hour)
	_, err = d.Token.Transfer(ctx, chain.TxOpts{From: signers[1].Address}, signers[2].Address, types.Unit())
	require.NoError(t, err)
	st2, err := c.Export()
	require.NoError(t, err)
	require.NoError(t, b.SaveState(ctx, st2))

	loaded, err := b.LoadState(ctx)
	require.NoError(t, err)
	assert.Len(t, loaded.Receipts, len(st2.Receipts))
	assert.Equal(t, st2.Head.Number, loaded.Head.Number)
	assert.Equal(t, time.Hour, loaded.Offset)

	var blocks int
	require.NoError(t, b.read(func(db *sql.DB) error {
		return db.QueryRow("SELECT COUNT(*) FROM blocks").Scan(&blocks)
	}))
	assert.Equal(t, len(st2.Receipts), blocks)
}
