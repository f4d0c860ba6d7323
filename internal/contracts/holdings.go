package contracts

import (
	"encoding/json"

	"github.com/mesh-intelligence/xvault/pkg/types"
)

// holdings is an ordered set of punk ids. Removal swaps the last id into the
// freed position, so order is stable only while nothing is removed.
type holdings struct {
	ids []uint64
	pos map[uint64]int
}

func newHoldings(ids ...uint64) *holdings {
	h := &holdings{pos: make(map[uint64]int)}
	for _, id := range ids {
		_ = h.add(id)
	}
	return h
}

func (h *holdings) len() int { return len(h.ids) }

func (h *holdings) contains(id uint64) bool {
	_, ok := h.pos[id]
	return ok
}

func (h *holdings) at(i int) uint64 { return h.ids[i] }

func (h *holdings) add(id uint64) error {
	if h.contains(id) {
		return types.ErrAlreadyHeld
	}
	h.pos[id] = len(h.ids)
	h.ids = append(h.ids, id)
	return nil
}

// removeAt removes and returns the id at position i.
func (h *holdings) removeAt(i int) uint64 {
	id := h.ids[i]
	last := len(h.ids) - 1
	if i != last {
		moved := h.ids[last]
		h.ids[i] = moved
		h.pos[moved] = i
	}
	h.ids = h.ids[:last]
	delete(h.pos, id)
	return id
}

func (h *holdings) remove(id uint64) error {
	i, ok := h.pos[id]
	if !ok {
		return types.ErrNotHeld
	}
	h.removeAt(i)
	return nil
}

func (h *holdings) list() []uint64 {
	out := make([]uint64, len(h.ids))
	copy(out, h.ids)
	return out
}

func (h *holdings) clear() {
	h.ids = nil
	h.pos = make(map[uint64]int)
}

func (h *holdings) MarshalJSON() ([]byte, error) {
	if h.ids == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(h.ids)
}

func (h *holdings) UnmarshalJSON(data []byte) error {
	var ids []uint64
	if err := json.Unmarshal(data, &ids); err != nil {
		return err
	}
	h.ids = nil
	h.pos = make(map[uint64]int, len(ids))
	for _, id := range ids {
		if err := h.add(id); err != nil {
			return err
		}
	}
	return nil
}
