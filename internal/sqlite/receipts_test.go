package sqlite

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/xvault/internal/chain"
	"github.com/mesh-intelligence/xvault/pkg/types"
)

func TestReceiptsFilter(t *testing.T) {
	ctx := context.Background()
	b, _ := attach(t)
	c, d, signers := ledger(t)
	st, err := c.Export()
	require.NoError(t, err)
	require.NoError(t, b.SaveState(ctx, st))

	tests := []struct {
		name   string
		filter ReceiptFilter
		want   int
	}{
		{"all", ReceiptFilter{}, len(st.Receipts)},
		{"reverted", ReceiptFilter{Status: chain.StatusReverted}, 1},
		{"method", ReceiptFilter{Method: "mintPunk"}, 2},
		{"from alice", ReceiptFilter{From: signers[1].Address}, 4},
		{"to vault", ReceiptFilter{To: d.Vault.Address()}, 3},
		{"successful mints", ReceiptFilter{Method: "mintPunk", Status: chain.StatusSuccess}, 1},
		{"limit", ReceiptFilter{Limit: 2}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := b.Receipts(ctx, tt.filter)
			require.NoError(t, err)
			assert.Len(t, got, tt.want)
		})
	}

	last, err := b.Receipts(ctx, ReceiptFilter{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, st.Receipts[len(st.Receipts)-2].ID, last[0].ID)
	assert.Equal(t, st.Receipts[len(st.Receipts)-1].ID, last[1].ID)
}

func TestExportReceipts(t *testing.T) {
	ctx := context.Background()
	b, dir := attach(t)
	c, _, _ := ledger(t)
	st, err := c.Export()
	require.NoError(t, err)
	require.NoError(t, b.SaveState(ctx, st))

	path, err := b.ExportReceipts(ctx)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, ReceiptsFile), path)

	// A torn trailing line is skipped on read.
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0)
	require.NoError(t, err)
	_, err = f.WriteString(`{"id":"broken`)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	got, err := ReadReceiptsFile(path)
	require.NoError(t, err)
	require.Len(t, got, len(st.Receipts))
	for i, r := range got {
		assert.Equal(t, st.Receipts[i].ID, r.ID)
		assert.Equal(t, st.Receipts[i].Status, r.Status)
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".tmp", "temp file left behind")
	}
}

func TestReadReceiptsFileMissing(t *testing.T) {
	_, err := ReadReceiptsFile(filepath.Join(t.TempDir(), ReceiptsFile))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestDeployments(t *testing.T) {
	ctx := context.Background()
	b, _ := attach(t)
	_, d, _ := ledger(t)

	_, err := b.Deployment(ctx, "dev")
	assert.True(t, errors.Is(err, types.ErrNotFound))

	require.NoError(t, b.SaveDeployment(ctx, d.Deployment))
	got, err := b.Deployment(ctx, "dev")
	require.NoError(t, err)
	assert.Equal(t, d.Deployment.Vault, got.Vault)
	assert.Equal(t, d.Deployment.Market, got.Market)
	assert.Equal(t, d.Deployment.Token, got.Token)
	assert.Equal(t, types.ProfileLocal, got.Profile)
	assert.True(t, d.Deployment.CreatedAt.Equal(got.CreatedAt))

	second := d.Deployment
	second.Name = "later"
	second.Block++
	second.CreatedAt = second.CreatedAt.Add(time.Minute)
	require.NoError(t, b.SaveDeployment(ctx, second))

	// Saving again under the same name replaces the record.
	require.NoError(t, b.SaveDeployment(ctx, d.Deployment))
	all, err := b.Deployments(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "dev", all[0].Name)
	assert.Equal(t, "later", all[1].Name)

	assert.ErrorIs(t, b.SaveDeployment(ctx, types.Deployment{Profile: types.ProfileLocal}), ErrDeploymentName)
}
