package txn

import (
	"errors"
	"fmt"
)

// ErrReplacementRejected is matched by every replacement rejection.
var ErrReplacementRejected = errors.New("txn: replacement rejected")

var (
	// ErrAlreadyMined means the transaction to replace is already in a block.
	ErrAlreadyMined = fmt.Errorf("%w: transaction already mined", ErrReplacementRejected)

	// ErrNonceMismatch means the replacement names a different nonce.
	ErrNonceMismatch = fmt.Errorf("%w: nonce does not match the pending transaction", ErrReplacementRejected)

	// ErrGasPriceTooLow means an explicit replacement gas price does not exceed
	// the pending one.
	ErrGasPriceTooLow = fmt.Errorf("%w: gas price must exceed the pending transaction", ErrReplacementRejected)
)

// ErrGasLimitExceeded means a gas estimate is above the block gas limit.
var ErrGasLimitExceeded = errors.New("txn: estimate exceeds block gas limit")
