package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/mesh-intelligence/xvault/internal/chain"
	"github.com/mesh-intelligence/xvault/pkg/types"
)

// ReceiptFilter narrows Receipts. Zero fields match everything.
type ReceiptFilter struct {
	From   common.Address
	To     common.Address
	Method string
	Status string

	// Limit keeps only the most recent receipts when positive.
	Limit int
}

func (f ReceiptFilter) where() (string, []any) {
	var (
		conds []string
		args  []any
	)
	if f.From != (common.Address{}) {
		conds = append(conds, "from_address = ?")
		args = append(args, f.From.Hex())
	}
	if f.To != (common.Address{}) {
		conds = append(conds, "to_address = ?")
		args = append(args, f.To.Hex())
	}
	if f.Method != "" {
		conds = append(conds, "method = ?")
		args = append(args, f.Method)
	}
	if f.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, f.Status)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// Receipts returns stored receipts matching filter in execution order.
func (b *Backend) Receipts(ctx context.Context, filter ReceiptFilter) ([]*chain.Receipt, error) {
	var out []*chain.Receipt
	err := b.read(func(db *sql.DB) error {
		var err error
		out, err = queryReceipts(ctx, db, filter)
		return err
	})
	return out, err
}

func queryReceipts(ctx context.Context, db *sql.DB, filter ReceiptFilter) ([]*chain.Receipt, error) {
	where, args := filter.where()
	q := `SELECT receipt_id, block, block_hash, from_address, to_address, method, args, value, status, error, time
	      FROM receipts` + where + " ORDER BY seq"
	if filter.Limit > 0 {
		q = "SELECT * FROM (" + strings.Replace(q, "ORDER BY seq", "ORDER BY seq DESC", 1) +
			fmt.Sprintf(" LIMIT %d) ORDER BY block", filter.Limit)
	}

	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying receipts: %w", err)
	}
	defer rows.Close()

	var (
		out   []*chain.Receipt
		byID  = make(map[string]*chain.Receipt)
		order []string
	)
	for rows.Next() {
		var (
			r                         chain.Receipt
			blockHash, from, to, argv string
			value, ts                 string
			errText                   sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.Block, &blockHash, &from, &to, &r.Method, &argv, &value, &r.Status, &errText, &ts); err != nil {
			return nil, err
		}
		r.BlockHash = common.HexToHash(blockHash)
		r.From = common.HexToAddress(from)
		r.To = common.HexToAddress(to)
		r.Error = errText.String
		if err := json.Unmarshal([]byte(argv), &r.Args); err != nil {
			return nil, fmt.Errorf("receipt %s args: %w", r.ID, err)
		}
		if r.Value, err = uint256.FromDecimal(value); err != nil {
			return nil, fmt.Errorf("receipt %s value: %w", r.ID, err)
		}
		if r.Time, err = time.Parse(timeLayout, ts); err != nil {
			return nil, fmt.Errorf("receipt %s time: %w", r.ID, err)
		}
		out = append(out, &r)
		byID[r.ID] = &r
		order = append(order, r.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	if err := attachLogs(ctx, db, byID); err != nil {
		return nil, err
	}
	return out, nil
}

func attachLogs(ctx context.Context, db *sql.DB, byID map[string]*chain.Receipt) error {
	rows, err := db.QueryContext(ctx, "SELECT receipt_id, address, event, fields FROM logs ORDER BY receipt_id, idx")
	if err != nil {
		return fmt.Errorf("querying logs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, addr, event, fields string
		if err := rows.Scan(&id, &addr, &event, &fields); err != nil {
			return err
		}
		r, ok := byID[id]
		if !ok {
			continue
		}
		l := chain.Log{Address: common.HexToAddress(addr), Event: event}
		if err := json.Unmarshal([]byte(fields), &l.Fields); err != nil {
			return fmt.Errorf("log fields for %s: %w", id, err)
		}
		r.Logs = append(r.Logs, l)
	}
	return rows.Err()
}

func insertReceipt(ctx context.Context, tx *sql.Tx, seq int64, r *chain.Receipt) error {
	args, err := json.Marshal(orEmpty(r.Args))
	if err != nil {
		return err
	}
	var errText any
	if r.Error != "" {
		errText = r.Error
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO receipts (receipt_id, seq, block, block_hash, from_address, to_address, method, args, value, status, error, time)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, seq, r.Block, r.BlockHash.Hex(), r.From.Hex(), r.To.Hex(), r.Method, string(args),
		types.OrZero(r.Value).Dec(), r.Status, errText, r.Time.UTC().Format(timeLayout),
	); err != nil {
		return fmt.Errorf("saving receipt %s: %w", r.ID, err)
	}
	for i, l := range r.Logs {
		fields, err := json.Marshal(l.Fields)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO logs (receipt_id, idx, address, event, fields) VALUES (?, ?, ?, ?, ?)",
			r.ID, i, l.Address.Hex(), l.Event, string(fields),
		); err != nil {
			return fmt.Errorf("saving log %d of %s: %w", i, r.ID, err)
		}
	}
	return insertBlock(ctx, tx, r.Block, r.BlockHash, nil, r.Time)
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// ExportReceipts writes every stored receipt to receipts.jsonl in the data
// directory and returns the file path.
func (b *Backend) ExportReceipts(ctx context.Context) (string, error) {
	receipts, err := b.Receipts(ctx, ReceiptFilter{})
	if err != nil {
		return "", err
	}
	path := filepath.Join(b.DataDir(), ReceiptsFile)
	err = writeJSONL(path, func(enc *json.Encoder) error {
		for _, r := range receipts {
			if err := enc.Encode(r); err != nil {
				return fmt.Errorf("encoding receipt %s: %w", r.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return path, nil
}
