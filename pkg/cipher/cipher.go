package cipher

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/dmtlabs/probeseek/lib/guard"
	"github.com/dmtlabs/probeseek/pkg/common/chain"
	com_engine "github.com/dmtlabs/probeseek/pkg/common/engine"
	com_signer "github.com/dmtlabs/probeseek/pkg/common/signer"
)

// decryptValidityDays is the fixed validity window of a user-decryption
// authorization.
const decryptValidityDays = 10

// Client wraps the externally supplied cipher engine: it builds encrypted
// guesses bound to (contract, account) and performs authenticated user
// decryption with a fresh ephemeral keypair per attempt.
type Client struct {
	engine   com_engine.CipherEngine
	contract chain.Address
	logger   *slog.Logger

	mu     sync.RWMutex
	signer com_signer.Signer

	decrypting *guard.Guard
}

func NewClient(eng com_engine.CipherEngine, contract chain.Address, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		engine:     eng,
		contract:   contract,
		logger:     logger,
		decrypting: guard.New(),
	}
}

// AttachSigner binds the connected wallet's signer. Passing nil detaches.
func (c *Client) AttachSigner(s com_signer.Signer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.signer = s
}

func (c *Client) currentSigner() (com_signer.Signer, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.signer == nil {
		return nil, com_signer.ErrUnavailable
	}
	return c.signer, nil
}

// EncryptGuess encrypts a single unsigned 32-bit guess bound to the contract
// and the connected account, producing the on-chain handle and its
// correctness proof.
func (c *Client) EncryptGuess(ctx context.Context, value uint32) (*com_engine.CiphertextBundle, error) {
	if !c.engine.Ready() {
		return nil, com_engine.ErrNotReady
	}
	s, err := c.currentSigner()
	if err != nil {
		return nil, err
	}

	bundle, err := c.engine.CreateEncryptedInput(c.contract, s.Address()).
		Add32(value).
		Encrypt(ctx)
	if err != nil {
		return nil, errors.WithMessage(err, "cipher: failed to encrypt input")
	}
	if len(bundle.Handles) == 0 {
		return nil, errors.New("cipher: engine returned no ciphertext handle")
	}
	return bundle, nil
}

// Decrypt performs an authenticated user-decryption of handle and returns the
// plaintext as an integer. At most one decryption may be in flight per
// client; duplicates fail with ErrDecryptInFlight.
func (c *Client) Decrypt(ctx context.Context, handle chain.Handle) (int, error) {
	if !c.decrypting.TryAcquire() {
		return 0, ErrDecryptInFlight
	}
	defer c.decrypting.Release()

	if !c.engine.Ready() {
		return 0, com_engine.ErrNotReady
	}
	s, err := c.currentSigner()
	if err != nil {
		return 0, err
	}

	keypair, err := c.engine.GenerateKeypair()
	if err != nil {
		return 0, errors.WithMessage(err, "cipher: failed to generate keypair")
	}

	contracts := []chain.Address{c.contract}
	start := time.Now().Unix()
	typed := c.engine.CreateEIP712(keypair.PublicKey, contracts, start, decryptValidityDays)

	// May prompt the wallet user.
	signature, err := s.SignTypedData(ctx, typed)
	if err != nil {
		return 0, errors.WithMessage(err, "cipher: typed-data signature refused")
	}
	signature = strings.TrimPrefix(signature, "0x")

	requests := []com_engine.HandleContractPair{{
		Handle:          handle,
		ContractAddress: c.contract,
	}}
	results, err := c.engine.UserDecrypt(ctx, requests,
		keypair.PrivateKey, keypair.PublicKey, signature,
		contracts, s.Address(), start, decryptValidityDays)
	if err != nil {
		return 0, errors.WithMessage(err, "cipher: user decryption failed")
	}

	return parseResult(results, handle)
}

// parseResult extracts the plaintext for handle. When the keyed lookup
// misses, it deliberately falls back to the first value present: some
// authority responses key the mapping differently, and the quirk is kept
// rather than papered over.
func parseResult(results map[string]string, handle chain.Handle) (int, error) {
	raw, ok := results[handle.Hex()]
	if !ok {
		for _, v := range results {
			raw = v
			ok = true
			break
		}
	}
	if !ok {
		return 0, fmt.Errorf("%w: empty response", ErrMalformedResult)
	}

	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not an integer", ErrMalformedResult, raw)
	}
	return value, nil
}
