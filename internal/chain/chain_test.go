package chain

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/xvault/pkg/types"
)

// counter is a minimal contract used to exercise the ledger.
type counter struct {
	st counterState
}

type counterState struct {
	Count uint64 `json:"count"`
}

var errTooBig = errors.New("count too big")

func (c *counter) Kind() string { return "Counter" }

func (c *counter) MarshalState() ([]byte, error) { return json.Marshal(c.st) }

func (c *counter) UnmarshalState(data []byte) error {
	var st counterState
	if err := json.Unmarshal(data, &st); err != nil {
		return err
	}
	c.st = st
	return nil
}

func (c *counter) add(env *Env, n uint64) error {
	c.st.Count += n
	env.Emit("Added", "by", env.Sender(), "n", n)
	if c.st.Count > 10 {
		return errTooBig
	}
	return nil
}

var testStart = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func newTestChain(t *testing.T) (*Chain, *ManualClock, []Signer) {
	t.Helper()
	clock := NewManualClock(testStart)
	c := New(Options{
		Clock:     clock,
		Registry:  prometheus.NewRegistry(),
		Factories: map[string]Factory{"Counter": func() Contract { return &counter{} }},
	})
	signers, err := DeriveSigners(3)
	require.NoError(t, err)
	c.Genesis(signers, types.Ether(100))
	return c, clock, signers
}

func deployCounter(t *testing.T, c *Chain, from common.Address) (common.Address, *counter) {
	t.Helper()
	ct := &counter{}
	addr, rcpt, err := c.Deploy(context.Background(), TxOpts{From: from}, "Counter", nil, func(env *Env) (Contract, error) {
		return ct, nil
	})
	require.NoError(t, err)
	require.True(t, rcpt.Succeeded())
	return addr, ct
}

func TestDeploy_UsesCreateAddress(t *testing.T) {
	c, _, signers := newTestChain(t)
	from := signers[0].Address

	want := crypto.CreateAddress(from, 0)
	addr, _ := deployCounter(t, c, from)
	assert.Equal(t, want, addr)
	assert.Equal(t, uint64(1), c.Nonce(from))

	second, _ := deployCounter(t, c, from)
	assert.Equal(t, crypto.CreateAddress(from, 1), second)

	ct, err := c.Contract(addr)
	require.NoError(t, err)
	assert.Equal(t, "Counter", ct.Kind())
}

func TestTransact_Success(t *testing.T) {
	c, _, signers := newTestChain(t)
	alice := signers[1].Address
	addr, ct := deployCounter(t, c, signers[0].Address)

	rcpt, err := c.Transact(context.Background(), TxOpts{From: alice, Value: uint256.NewInt(5)}, addr, "add", []any{uint64(3)}, func(env *Env) error {
		assert.Equal(t, alice, env.Sender())
		assert.Equal(t, addr, env.Self())
		assert.Equal(t, uint64(5), env.Value().Uint64())
		return ct.add(env, 3)
	})
	require.NoError(t, err)
	assert.True(t, rcpt.Succeeded())
	assert.Equal(t, []string{"3"}, rcpt.Args)
	require.Len(t, rcpt.Logs, 1)
	assert.Equal(t, "Added", rcpt.Logs[0].Event)
	assert.Equal(t, alice.Hex(), rcpt.Logs[0].Fields["by"])

	assert.Equal(t, uint64(3), ct.st.Count)
	assert.Equal(t, uint64(5), c.Balance(addr).Uint64())
	assert.Equal(t, rcpt.Block, c.Head().Number)
	assert.Equal(t, rcpt.BlockHash, c.Head().Hash)
}

func TestTransact_RevertRollsBack(t *testing.T) {
	c, _, signers := newTestChain(t)
	alice := signers[1].Address
	addr, ct := deployCounter(t, c, signers[0].Address)
	before := c.Balance(alice)

	rcpt, err := c.Transact(context.Background(), TxOpts{From: alice, Value: uint256.NewInt(7)}, addr, "add", []any{uint64(11)}, func(env *Env) error {
		return ct.add(env, 11)
	})
	require.Error(t, err)
	assert.True(t, types.IsRevert(err))
	assert.ErrorIs(t, err, errTooBig)

	require.NotNil(t, rcpt)
	assert.Equal(t, StatusReverted, rcpt.Status)
	assert.Empty(t, rcpt.Logs)
	assert.Equal(t, "count too big", rcpt.Error)

	assert.Equal(t, uint64(0), ct.st.Count, "contract state rolled back")
	assert.Equal(t, before, c.Balance(alice), "value refunded")
	assert.Equal(t, uint64(1), c.Nonce(alice), "nonce still consumed")
}

func TestTransact_InsufficientFunds(t *testing.T) {
	c, _, signers := newTestChain(t)
	addr, ct := deployCounter(t, c, signers[0].Address)
	poor := common.HexToAddress("0x1234")

	_, err := c.Transact(context.Background(), TxOpts{From: poor, Value: uint256.NewInt(1)}, addr, "add", nil, func(env *Env) error {
		return ct.add(env, 1)
	})
	assert.ErrorIs(t, err, types.ErrInsufficientFunds)
	assert.True(t, types.IsRevert(err))
}

func TestTransact_UnknownContract(t *testing.T) {
	c, _, signers := newTestChain(t)
	_, err := c.Transact(context.Background(), TxOpts{From: signers[0].Address}, common.HexToAddress("0xdead"), "noop", nil, func(env *Env) error {
		return nil
	})
	assert.ErrorIs(t, err, types.ErrUnknownContract)
}

func TestTransact_CanceledContext(t *testing.T) {
	c, _, signers := newTestChain(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Transact(ctx, TxOpts{From: signers[0].Address}, common.Address{}, "noop", nil, func(env *Env) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, uint64(0), c.Head().Number)
}

func TestBlockTime(t *testing.T) {
	c, clock, signers := newTestChain(t)
	addr, ct := deployCounter(t, c, signers[0].Address)
	assert.Equal(t, testStart, c.Head().Time)

	clock.Advance(90 * time.Second)
	c.IncreaseTime(10 * time.Second)

	var seen time.Time
	_, err := c.Transact(context.Background(), TxOpts{From: signers[0].Address}, addr, "add", nil, func(env *Env) error {
		seen = env.Now()
		return ct.add(env, 1)
	})
	require.NoError(t, err)
	assert.Equal(t, testStart.Add(100*time.Second), seen)

	// Moving the clock back never produces an older block.
	clock.Set(testStart)
	_, err = c.Transact(context.Background(), TxOpts{From: signers[0].Address}, addr, "add", nil, func(env *Env) error {
		return ct.add(env, 1)
	})
	require.NoError(t, err)
	assert.Equal(t, seen, c.Head().Time)
}

func TestEnvCall_MovesValue(t *testing.T) {
	c, _, signers := newTestChain(t)
	a, _ := deployCounter(t, c, signers[0].Address)
	b, ctB := deployCounter(t, c, signers[0].Address)

	_, err := c.Transact(context.Background(), TxOpts{From: signers[1].Address, Value: uint256.NewInt(9)}, a, "forward", nil, func(env *Env) error {
		inner, err := env.Call(b, uint256.NewInt(4))
		if err != nil {
			return err
		}
		assert.Equal(t, a, inner.Sender())
		assert.Equal(t, b, inner.Self())
		return ctB.add(inner, 1)
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(5), c.Balance(a).Uint64())
	assert.Equal(t, uint64(4), c.Balance(b).Uint64())
	assert.Equal(t, uint64(1), ctB.st.Count)
}

func TestEventBus(t *testing.T) {
	c, _, signers := newTestChain(t)
	addr, ct := deployCounter(t, c, signers[0].Address)

	var all, named []Log
	onAll := func(l Log) { all = append(all, l) }
	onAdded := func(l Log) { named = append(named, l) }
	require.NoError(t, c.Subscribe(TopicAllLogs, onAll))
	require.NoError(t, c.Subscribe(TopicLogPrefix+"Added", onAdded))

	_, err := c.Transact(context.Background(), TxOpts{From: signers[0].Address}, addr, "add", nil, func(env *Env) error {
		return ct.add(env, 2)
	})
	require.NoError(t, err)
	assert.Len(t, all, 1)
	assert.Len(t, named, 1)

	// Reverted transactions publish nothing.
	_, err = c.Transact(context.Background(), TxOpts{From: signers[0].Address}, addr, "add", nil, func(env *Env) error {
		return ct.add(env, 50)
	})
	require.Error(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, c.Unsubscribe(TopicAllLogs, onAll))
}

func TestMetrics(t *testing.T) {
	c, _, signers := newTestChain(t)
	addr, ct := deployCounter(t, c, signers[0].Address)

	for _, n := range []uint64{1, 2, 20} {
		n := n
		_, _ = c.Transact(context.Background(), TxOpts{From: signers[0].Address}, addr, "add", nil, func(env *Env) error {
			return ct.add(env, n)
		})
	}
	m := c.Metrics()
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Transactions.WithLabelValues("add", StatusSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Transactions.WithLabelValues("add", StatusReverted)))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.Blocks))
}

func TestExportImport(t *testing.T) {
	c, _, signers := newTestChain(t)
	addr, ct := deployCounter(t, c, signers[0].Address)
	_, err := c.Transact(context.Background(), TxOpts{From: signers[1].Address, Value: uint256.NewInt(3)}, addr, "add", nil, func(env *Env) error {
		return ct.add(env, 4)
	})
	require.NoError(t, err)
	c.IncreaseTime(time.Minute)

	st, err := c.Export()
	require.NoError(t, err)
	data, err := json.Marshal(st)
	require.NoError(t, err)

	var decoded State
	require.NoError(t, json.Unmarshal(data, &decoded))

	other := New(Options{
		Clock:     NewManualClock(testStart),
		Factories: map[string]Factory{"Counter": func() Contract { return &counter{} }},
	})
	require.NoError(t, other.Import(&decoded))

	assert.Equal(t, c.Head().Number, other.Head().Number)
	assert.Equal(t, c.Head().Hash, other.Head().Hash)
	assert.True(t, c.Head().Time.Equal(other.Head().Time))
	assert.Equal(t, c.Balance(addr), other.Balance(addr))
	assert.Equal(t, c.Nonce(signers[1].Address), other.Nonce(signers[1].Address))
	assert.Equal(t, "alice", other.Label(signers[1].Address))
	assert.Len(t, other.Receipts(), 2)
	assert.True(t, testStart.Add(time.Minute).Equal(other.Now()))

	imported, err := other.Contract(addr)
	require.NoError(t, err)
	assert.Equal(t, uint64(4), imported.(*counter).st.Count)
}

func TestImport_UnknownKind(t *testing.T) {
	c := New(Options{})
	err := c.Import(&State{Contracts: []ContractState{{Kind: "Mystery", State: json.RawMessage(`{}`)}}})
	assert.ErrorIs(t, err, types.ErrUnknownKind)
}

func TestInstall(t *testing.T) {
	c, _, _ := newTestChain(t)
	addr := common.HexToAddress("0xb47e3cd837dDF8e4c57F05d70Ab865de6e193BBB")
	require.NoError(t, c.Install(addr, &counter{}))
	assert.ErrorIs(t, c.Install(addr, &counter{}), types.ErrAddressInUse)

	found := false
	for _, info := range c.Accounts() {
		if info.Address == addr {
			found = true
			assert.Equal(t, "Counter", info.Contract)
		}
	}
	assert.True(t, found)
}

func TestLabels(t *testing.T) {
	c, _, signers := newTestChain(t)
	addr, ok := c.LookupLabel("bob")
	require.True(t, ok)
	assert.Equal(t, signers[2].Address, addr)

	_, ok = c.LookupLabel("mallory")
	assert.False(t, ok)
}
