package sqlite

import (
	"encoding/json"

	"github.com/mesh-intelligence/xvault/internal/chain"
)

// ReadReceiptsFile decodes a receipts.jsonl export. Lines that are not
// valid receipts are skipped so a file truncated mid-write still yields
// every complete record.
func ReadReceiptsFile(path string) ([]*chain.Receipt, error) {
	var out []*chain.Receipt
	err := readJSONL(path, func(line []byte) error {
		var r chain.Receipt
		if json.Unmarshal(line, &r) == nil && r.ID != "" {
			out = append(out, &r)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
