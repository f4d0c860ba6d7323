package chain

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/holiman/uint256"
)

// Receipt statuses.
const (
	StatusSuccess  = "success"
	StatusReverted = "reverted"
)

// TxOpts carries the sender and attached native value of a transaction.
type TxOpts struct {
	From  common.Address
	Value *uint256.Int
}

// Log is an event emitted by contract code.
type Log struct {
	Address common.Address    `json:"address"`
	Event   string            `json:"event"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// Receipt records the outcome of one transaction.
type Receipt struct {
	ID        string         `json:"id"`
	Block     uint64         `json:"block"`
	BlockHash common.Hash    `json:"block_hash"`
	From      common.Address `json:"from"`
	To        common.Address `json:"to"`
	Method    string         `json:"method"`
	Args      []string       `json:"args,omitempty"`
	Value     *uint256.Int   `json:"value"`
	Status    string         `json:"status"`
	Error     string         `json:"error,omitempty"`
	Logs      []Log          `json:"logs,omitempty"`
	Time      time.Time      `json:"time"`
}

// Succeeded reports whether the transaction was applied.
func (r *Receipt) Succeeded() bool {
	return r.Status == StatusSuccess
}

// Event returns the first log with the given event name.
func (r *Receipt) Event(name string) (Log, bool) {
	for _, l := range r.Logs {
		if l.Event == name {
			return l, true
		}
	}
	return Log{}, false
}

// newReceiptID generates a UUID v7 for receipts.
func newReceiptID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to UUID v4 if v7 generation fails
		return uuid.New().String()
	}
	return id.String()
}

// formatValue renders call arguments and event fields as strings.
func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case *uint256.Int:
		if x == nil {
			return "0"
		}
		return x.Dec()
	case common.Address:
		return x.Hex()
	case common.Hash:
		return x.Hex()
	case uint64:
		return strconv.FormatUint(x, 10)
	case []uint64:
		parts := make([]string, len(x))
		for i, n := range x {
			parts[i] = strconv.FormatUint(n, 10)
		}
		return "[" + strings.Join(parts, ",") + "]"
	case []*uint256.Int:
		parts := make([]string, len(x))
		for i, n := range x {
			parts[i] = formatValue(n)
		}
		return "[" + strings.Join(parts, ",") + "]"
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

func formatArgs(args []any) []string {
	if len(args) == 0 {
		return nil
	}
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = formatValue(a)
	}
	return out
}
