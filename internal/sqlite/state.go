package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/mesh-intelligence/xvault/internal/chain"
	"github.com/mesh-intelligence/xvault/pkg/types"
)

// meta keys.
const (
	metaSchemaVersion = "schema_version"
	metaHead          = "head"
	metaOffset        = "time_offset"
)

const timeLayout = time.RFC3339Nano

// SaveState replaces the stored ledger with st in one transaction.
func (b *Backend) SaveState(ctx context.Context, st *chain.State) error {
	return b.withTx(ctx, func(tx *sql.Tx) error {
		for _, table := range []string{"logs", "receipts", "blocks", "contracts", "accounts"} {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				return fmt.Errorf("clearing %s: %w", table, err)
			}
		}

		head, err := json.Marshal(st.Head)
		if err != nil {
			return err
		}
		if err := putMeta(ctx, tx, metaHead, string(head)); err != nil {
			return err
		}
		if err := putMeta(ctx, tx, metaOffset, strconv.FormatInt(int64(st.Offset), 10)); err != nil {
			return err
		}

		for _, a := range st.Accounts {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO accounts (address, label, balance, nonce) VALUES (?, ?, ?, ?)",
				a.Address.Hex(), a.Label, types.OrZero(a.Balance).Dec(), a.Nonce,
			); err != nil {
				return fmt.Errorf("saving account %s: %w", a.Address.Hex(), err)
			}
		}
		for _, c := range st.Contracts {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO contracts (address, kind, state) VALUES (?, ?, ?)",
				c.Address.Hex(), c.Kind, string(c.State),
			); err != nil {
				return fmt.Errorf("saving contract %s: %w", c.Address.Hex(), err)
			}
		}

		if err := insertBlock(ctx, tx, st.Head.Number, st.Head.Hash, &st.Head.ParentHash, st.Head.Time); err != nil {
			return err
		}
		for i, r := range st.Receipts {
			if err := insertReceipt(ctx, tx, int64(i), r); err != nil {
				return err
			}
		}
		return nil
	})
}

// LoadState reads the stored ledger. It returns ErrNotFound when nothing has
// been saved yet.
func (b *Backend) LoadState(ctx context.Context) (*chain.State, error) {
	st := &chain.State{}
	err := b.read(func(db *sql.DB) error {
		head, err := getMeta(ctx, db, metaHead)
		if err != nil {
			return err
		}
		if err := json.Unmarshal([]byte(head), &st.Head); err != nil {
			return fmt.Errorf("decoding head: %w", err)
		}
		offset, err := getMeta(ctx, db, metaOffset)
		if err != nil {
			return err
		}
		n, err := strconv.ParseInt(offset, 10, 64)
		if err != nil {
			return fmt.Errorf("decoding time offset: %w", err)
		}
		st.Offset = time.Duration(n)

		if st.Accounts, err = loadAccounts(ctx, db); err != nil {
			return err
		}
		if st.Contracts, err = loadContracts(ctx, db); err != nil {
			return err
		}
		st.Receipts, err = queryReceipts(ctx, db, ReceiptFilter{})
		return err
	})
	if err != nil {
		return nil, err
	}
	return st, nil
}

func putMeta(ctx context.Context, tx *sql.Tx, key, value string) error {
	_, err := tx.ExecContext(ctx,
		"INSERT INTO meta (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value)
	if err != nil {
		return fmt.Errorf("saving %s: %w", key, err)
	}
	return nil
}

func getMeta(ctx context.Context, db *sql.DB, key string) (string, error) {
	var v string
	err := db.QueryRowContext(ctx, "SELECT value FROM meta WHERE key = ?", key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: %s", types.ErrNotFound, key)
	}
	return v, err
}

func loadAccounts(ctx context.Context, db *sql.DB) ([]chain.AccountState, error) {
	rows, err := db.QueryContext(ctx, "SELECT address, label, balance, nonce FROM accounts ORDER BY address")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []chain.AccountState
	for rows.Next() {
		var (
			addr, balance string
			label         sql.NullString
			nonce         uint64
		)
		if err := rows.Scan(&addr, &label, &balance, &nonce); err != nil {
			return nil, err
		}
		bal, err := uint256.FromDecimal(balance)
		if err != nil {
			return nil, fmt.Errorf("account %s balance: %w", addr, err)
		}
		out = append(out, chain.AccountState{
			Address: common.HexToAddress(addr),
			Label:   label.String,
			Balance: bal,
			Nonce:   nonce,
		})
	}
	return out, rows.Err()
}

func loadContracts(ctx context.Context, db *sql.DB) ([]chain.ContractState, error) {
	rows, err := db.QueryContext(ctx, "SELECT address, kind, state FROM contracts ORDER BY address")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []chain.ContractState
	for rows.Next() {
		var addr, kind, state string
		if err := rows.Scan(&addr, &kind, &state); err != nil {
			return nil, err
		}
		out = append(out, chain.ContractState{
			Address: common.HexToAddress(addr),
			Kind:    kind,
			State:   json.RawMessage(state),
		})
	}
	return out, rows.Err()
}

func insertBlock(ctx context.Context, tx *sql.Tx, number uint64, hash common.Hash, parent *common.Hash, t time.Time) error {
	var parentHex any
	if parent != nil {
		parentHex = parent.Hex()
	}
	_, err := tx.ExecContext(ctx,
		`INSERT INTO blocks (number, hash, parent_hash, time) VALUES (?, ?, ?, ?)
		 ON CONFLICT(number) DO UPDATE SET parent_hash = COALESCE(blocks.parent_hash, excluded.parent_hash)`,
		number, hash.Hex(), parentHex, t.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("saving block %d: %w", number, err)
	}
	return nil
}
