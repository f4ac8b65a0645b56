package chain

import (
	"context"
	"encoding/hex"
	"strings"

	"github.com/pkg/errors"
)

// HandleSize is the length of a ciphertext handle as stored on-chain.
const HandleSize = 32

// Handle identifies an encrypted value held by the chain and the decryption
// authority. The all-zero value is a sentinel meaning "no result yet" and is
// never a valid handle.
type Handle [HandleSize]byte

// SentinelHandle is the well-known "no result computed yet" value.
var SentinelHandle Handle

func (h Handle) IsSentinel() bool {
	return h == SentinelHandle
}

func (h Handle) Equal(other Handle) bool {
	return h == other
}

func (h Handle) Bytes() []byte {
	b := make([]byte, HandleSize)
	copy(b, h[:])
	return b
}

func (h Handle) Hex() string {
	return "0x" + hex.EncodeToString(h[:])
}

// HandleFromHex parses a 0x-prefixed 32-byte hex string.
func HandleFromHex(s string) (Handle, error) {
	var h Handle
	raw, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return h, errors.WithMessage(err, "chain: invalid handle hex")
	}
	if len(raw) != HandleSize {
		return h, errors.Errorf("chain: handle must be %d bytes, got %d", HandleSize, len(raw))
	}
	copy(h[:], raw)
	return h, nil
}

// HandleFromBytes copies raw into a Handle. Short input is rejected rather
// than padded so a truncated read never aliases the sentinel.
func HandleFromBytes(raw []byte) (Handle, error) {
	var h Handle
	if len(raw) != HandleSize {
		return h, errors.Errorf("chain: handle must be %d bytes, got %d", HandleSize, len(raw))
	}
	copy(h[:], raw)
	return h, nil
}

// Address is a 0x-prefixed hex account or contract address. The empty string
// means "not configured" / "not connected".
type Address string

func (a Address) IsZero() bool {
	return a == ""
}

func (a Address) String() string {
	return string(a)
}

// Tx is a submitted state-changing transaction.
type Tx interface {
	// Hash returns the transaction hash as 0x-hex.
	Hash() string
	// Wait blocks until the transaction is confirmed on-chain or fails.
	Wait(ctx context.Context) error
}

// ContractReader is the read-only surface of the game contract.
type ContractReader interface {
	HasJoined(ctx context.Context, account Address) (bool, error)
	GetRound(ctx context.Context, account Address) (uint64, error)
	GetLatestResult(ctx context.Context, account Address) (Handle, error)
}

// ContractWriter is the state-changing surface of the game contract. A writer
// is bound to the signing account that produced it.
type ContractWriter interface {
	JoinGame(ctx context.Context) (Tx, error)
	SubmitGuess(ctx context.Context, handle []byte, proof []byte) (Tx, error)
}
