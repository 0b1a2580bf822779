package types

import (
	"errors"
	"fmt"
)

var (
	// ErrUserRejected means the signer declined the request
	ErrUserRejected = errors.New("user rejected the request")
	// ErrNetwork covers transport and node failures
	ErrNetwork = errors.New("network error")
	// ErrOnChainRevert means the transaction was mined but reverted
	ErrOnChainRevert = errors.New("transaction reverted on-chain")
	// ErrAlreadyInFlight rejects a duplicate concurrent request
	ErrAlreadyInFlight = errors.New("request already in flight")
	// ErrPreconditionFailed rejects a request made against stale state
	ErrPreconditionFailed = errors.New("precondition failed")
)

// RevertError carries the hash of a reverted transaction
type RevertError struct {
	TxHash string
}

func (e *RevertError) Error() string {
	return fmt.Sprintf("transaction %s reverted on-chain", e.TxHash)
}

func (e *RevertError) Unwrap() error {
	return ErrOnChainRevert
}

// Retryable reports whether the user may simply try again
func Retryable(err error) bool {
	return errors.Is(err, ErrUserRejected) || errors.Is(err, ErrNetwork)
}
