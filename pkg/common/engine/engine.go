package engine

import (
	"context"
	"errors"

	"github.com/dmtlabs/probeseek/pkg/common/chain"
)

// ErrNotReady is returned when the cipher engine has not finished
// initializing.
var ErrNotReady = errors.New("engine: cipher engine not ready")

// Keypair is an ephemeral user-decryption keypair. It is generated fresh for
// every decryption attempt and never persisted.
type Keypair struct {
	PublicKey  string
	PrivateKey string
}

// TypedData is an EIP-712 payload as produced by the engine's authorization
// builder: domain separator, type definitions, primary type and message.
type TypedData struct {
	Domain      map[string]interface{}
	Types       map[string][]TypedDataField
	PrimaryType string
	Message     map[string]interface{}
}

type TypedDataField struct {
	Name string
	Type string
}

// HandleContractPair scopes a decryption request to the contract holding the
// ciphertext.
type HandleContractPair struct {
	Handle          chain.Handle
	ContractAddress chain.Address
}

// CiphertextBundle is the result of encrypting one or more inputs: the
// on-chain handles plus a correctness proof covering all of them.
type CiphertextBundle struct {
	Handles    [][]byte
	InputProof []byte
}

// EncryptedInputBuilder accumulates plaintext values bound to a
// (contract, account) pair and encrypts them in one shot.
type EncryptedInputBuilder interface {
	// Add32 appends an unsigned 32-bit value to the input.
	Add32(value uint32) EncryptedInputBuilder

	// Encrypt produces ciphertext handles and the input proof. It may call
	// out to the encryption service.
	Encrypt(ctx context.Context) (*CiphertextBundle, error)
}

// CipherEngine is the externally supplied homomorphic-encryption instance.
// Implementations wrap a real relayer/engine SDK; in-repo implementations are
// plaintext test doubles only.
type CipherEngine interface {
	// Ready reports whether the engine has finished initializing.
	Ready() bool

	// CreateEncryptedInput starts an encrypted input bound to contract and
	// account.
	CreateEncryptedInput(contract, account chain.Address) EncryptedInputBuilder

	// GenerateKeypair returns a fresh ephemeral keypair for user decryption.
	GenerateKeypair() (Keypair, error)

	// CreateEIP712 builds the typed-data authorization message for a user
	// decryption scoped to contracts, starting at startTimestamp (unix
	// seconds) and valid for durationDays.
	CreateEIP712(publicKey string, contracts []chain.Address, startTimestamp int64, durationDays int64) TypedData

	// UserDecrypt asks the decryption authority to decrypt the requested
	// handles under the given authorization. The signature is hex without a
	// 0x prefix. The result maps handle hex to plaintext decimal strings.
	UserDecrypt(
		ctx context.Context,
		requests []HandleContractPair,
		privateKey string,
		publicKey string,
		signature string,
		contracts []chain.Address,
		account chain.Address,
		startTimestamp int64,
		durationDays int64,
	) (map[string]string, error)
}
