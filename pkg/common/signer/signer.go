package signer

import (
	"context"
	"errors"

	"github.com/dmtlabs/probeseek/pkg/common/chain"
	"github.com/dmtlabs/probeseek/pkg/common/engine"
)

// ErrUnavailable is returned by operations that need a signer when none is
// attached.
var ErrUnavailable = errors.New("signer: no signer attached")

// Signer is the signing capability resolved from a connected wallet.
type Signer interface {
	// Address returns the account this signer signs for.
	Address() chain.Address

	// SignTypedData produces an EIP-712 typed-data signature as 0x-hex.
	// It may block on a wallet prompt.
	SignTypedData(ctx context.Context, data engine.TypedData) (string, error)
}

// TxSender is the transaction-sending half of a wallet. Contract writers that
// do not talk to the chain themselves delegate submission to it.
type TxSender interface {
	SendTransaction(ctx context.Context, to chain.Address, calldata []byte) (chain.Tx, error)
}
