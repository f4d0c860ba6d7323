package types

import (
	"errors"
	"fmt"
)

// ErrReverted matches every *RevertError with errors.Is.
var ErrReverted = errors.New("transaction reverted")

// RevertError is returned by the ledger when a transaction is rejected by
// contract code. All state changes made by the transaction are rolled back.
type RevertError struct {
	Method string
	Err    error
}

func (e *RevertError) Error() string {
	return fmt.Sprintf("%s reverted: %v", e.Method, e.Err)
}

func (e *RevertError) Unwrap() error { return e.Err }

// Is reports whether target is ErrReverted.
func (e *RevertError) Is(target error) bool {
	return target == ErrReverted
}

// IsRevert reports whether err is (or wraps) a contract revert.
func IsRevert(err error) bool {
	return errors.Is(err, ErrReverted)
}

// Ledger errors.
var (
	ErrUnknownContract   = errors.New("no contract at address")
	ErrWrongContract     = errors.New("contract has unexpected kind")
	ErrUnknownKind       = errors.New("unknown contract kind")
	ErrAddressInUse      = errors.New("address already holds a contract")
	ErrInsufficientFunds = errors.New("insufficient native balance")
	ErrUnknownAccount    = errors.New("unknown account")
)

// Access control errors.
var (
	ErrNotOwner      = errors.New("caller is not the owner")
	ErrZeroAddress   = errors.New("zero address")
	ErrNotController = errors.New("caller is not a controller")
)

// Token errors.
var (
	ErrInsufficientBalance   = errors.New("amount exceeds balance")
	ErrInsufficientAllowance = errors.New("amount exceeds allowance")
	ErrOverflow              = errors.New("arithmetic overflow")
)

// Market errors.
var (
	ErrInvalidPunk       = errors.New("punk index out of range")
	ErrNotPunkOwner      = errors.New("caller does not own the punk")
	ErrPunkAssigned      = errors.New("punk already assigned")
	ErrAssignmentClosed  = errors.New("initial assignment is closed")
	ErrNotForSale        = errors.New("punk is not for sale")
	ErrRestrictedBuyer   = errors.New("offer is reserved for another buyer")
	ErrPriceTooLow       = errors.New("value below asking price")
	ErrSellerNotOwner    = errors.New("seller no longer owns the punk")
	ErrNothingToWithdraw = errors.New("nothing to withdraw")
)

// Vault errors.
var (
	ErrPaused           = errors.New("vault is paused")
	ErrNotPaused        = errors.New("vault is not paused")
	ErrSafeMode         = errors.New("operation disabled in safe mode")
	ErrLocked           = errors.New("timelock slot is locked")
	ErrInvalidSlot      = errors.New("invalid timelock slot")
	ErrMaxSecurityLevel = errors.New("security level already at maximum")
	ErrFeeTooLow        = errors.New("value below required fee")
	ErrInvalidFees      = errors.New("fee schedule must have three entries")
	ErrNotOffered       = errors.New("punk not offered to the vault at zero price")
	ErrDuplicatePunk    = errors.New("duplicate punk in request")
	ErrNotHeld          = errors.New("punk is not held by the vault")
	ErrAlreadyHeld      = errors.New("punk is already accounted for")
	ErrNotVaultOwned    = errors.New("punk is not owned by the vault")
	ErrEmptyReserves    = errors.New("not enough punks in reserve")
	ErrInvalidCount     = errors.New("count must be positive")
)
