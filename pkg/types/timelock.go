package types

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Slot identifies one of the vault's independently timed governance locks.
type Slot uint8

// Timelock slots, from the shortest delay to the longest.
const (
	SlotShort Slot = iota
	SlotMedium
	SlotLong
)

// NumSlots is the number of timelock slots.
const NumSlots = 3

var slotNames = [NumSlots]string{"short", "medium", "long"}

func (s Slot) String() string {
	if int(s) < NumSlots {
		return slotNames[s]
	}
	return "slot(" + strconv.Itoa(int(s)) + ")"
}

// Valid reports whether s names an existing slot.
func (s Slot) Valid() bool {
	return int(s) < NumSlots
}

// ParseSlot accepts a slot index ("0") or name ("short", case-insensitive).
func ParseSlot(s string) (Slot, error) {
	for i, name := range slotNames {
		if strings.EqualFold(s, name) {
			return Slot(i), nil
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 || n >= NumSlots {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSlot, s)
	}
	return Slot(n), nil
}

// MaxSecurityLevel is the highest level increaseSecurityLevel can reach.
const MaxSecurityLevel = 3

// timelockDurations holds the unlock delay per security level and slot.
// Level 0 is meant for local runs; deployments raise the level.
var timelockDurations = [MaxSecurityLevel + 1][NumSlots]time.Duration{
	{1 * time.Second, 2 * time.Second, 3 * time.Second},
	{1 * time.Hour, 24 * time.Hour, 3 * 24 * time.Hour},
	{24 * time.Hour, 3 * 24 * time.Hour, 7 * 24 * time.Hour},
	{3 * 24 * time.Hour, 7 * 24 * time.Hour, 14 * 24 * time.Hour},
}

// TimelockDuration returns how long a slot stays locked after
// initiateUnlock at the given security level.
func TimelockDuration(level int, slot Slot) (time.Duration, error) {
	if !slot.Valid() {
		return 0, ErrInvalidSlot
	}
	if level < 0 {
		level = 0
	}
	if level > MaxSecurityLevel {
		level = MaxSecurityLevel
	}
	return timelockDurations[level][slot], nil
}
