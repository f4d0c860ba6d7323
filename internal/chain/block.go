package chain

import (
	"encoding/binary"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Block is the header of a mined block. Every transaction is mined in its
// own block.
type Block struct {
	Number     uint64      `json:"number"`
	Hash       common.Hash `json:"hash"`
	ParentHash common.Hash `json:"parent_hash"`
	Time       time.Time   `json:"time"`
}

// blockTimestamp truncates t to whole seconds in UTC, the resolution of
// block timestamps.
func blockTimestamp(t time.Time) time.Time {
	return time.Unix(t.Unix(), 0).UTC()
}

// hashBlock derives a block hash from its header fields and a seed that
// identifies the transaction it carries.
func hashBlock(parent common.Hash, number uint64, t time.Time, seed []byte) common.Hash {
	var buf [16]byte
	binary.BigEndian.PutUint64(buf[:8], number)
	binary.BigEndian.PutUint64(buf[8:], uint64(t.Unix()))
	return crypto.Keccak256Hash(parent.Bytes(), buf[:], seed)
}

func genesisBlock(t time.Time) Block {
	b := Block{Number: 0, Time: blockTimestamp(t)}
	b.Hash = hashBlock(common.Hash{}, 0, b.Time, []byte("genesis"))
	return b
}
