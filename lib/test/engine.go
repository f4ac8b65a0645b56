package test

import (
	"context"
	"encoding/hex"
	"strconv"
	"sync"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/zeebo/blake3"

	"github.com/dmtlabs/probeseek/pkg/common/chain"
	com_engine "github.com/dmtlabs/probeseek/pkg/common/engine"
)

// InputProof is the CBOR document the fake engine emits as the correctness
// proof of an encrypted input. The binding ties the handles to the
// (contract, account) pair they were built for.
type InputProof struct {
	Handles [][]byte `cbor:"1,keyasint"`
	Binding []byte   `cbor:"2,keyasint"`
}

// FakeEngine is a plaintext-map stand-in for the homomorphic cipher engine.
// Handles are blake3-derived and opaque; the plaintext never leaves the
// engine, which is enough to exercise the round-trip protocol.
type FakeEngine struct {
	mu         sync.Mutex
	ready      bool
	plaintexts map[string]uint64

	// BareKeys makes UserDecrypt key its response by request index instead
	// of handle hex, imitating authority response-shape variance.
	BareKeys bool

	// DecryptErr fails the next UserDecrypt call.
	DecryptErr error

	// DecryptGate, when non-nil, blocks UserDecrypt until closed.
	DecryptGate chan struct{}

	decryptCalls int
}

func NewFakeEngine() *FakeEngine {
	return &FakeEngine{
		ready:      true,
		plaintexts: make(map[string]uint64),
	}
}

func (e *FakeEngine) SetReady(ready bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ready = ready
}

func (e *FakeEngine) Ready() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ready
}

func (e *FakeEngine) DecryptCalls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.decryptCalls
}

// Mint stores value under a fresh handle bound to (contract, account).
func (e *FakeEngine) Mint(value uint64, contract, account chain.Address) chain.Handle {
	h := deriveHandle(contract, account)
	e.mu.Lock()
	defer e.mu.Unlock()
	e.plaintexts[h.Hex()] = value
	return h
}

// PlaintextOf looks up the cleartext behind a handle.
func (e *FakeEngine) PlaintextOf(handle []byte) (uint64, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	v, ok := e.plaintexts["0x"+hex.EncodeToString(handle)]
	return v, ok
}

func (e *FakeEngine) CreateEncryptedInput(contract, account chain.Address) com_engine.EncryptedInputBuilder {
	return &fakeBuilder{engine: e, contract: contract, account: account}
}

func (e *FakeEngine) GenerateKeypair() (com_engine.Keypair, error) {
	priv, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return com_engine.Keypair{}, err
	}
	return com_engine.Keypair{
		PublicKey:  hex.EncodeToString(priv.PubKey().SerializeCompressed()),
		PrivateKey: hex.EncodeToString(priv.Serialize()),
	}, nil
}

func (e *FakeEngine) CreateEIP712(publicKey string, contracts []chain.Address, startTimestamp int64, durationDays int64) com_engine.TypedData {
	addrs := make([]string, len(contracts))
	for i, c := range contracts {
		addrs[i] = c.String()
	}
	return com_engine.TypedData{
		Domain: map[string]interface{}{
			"name":    "Decryption",
			"version": "1",
		},
		Types: map[string][]com_engine.TypedDataField{
			"UserDecryptRequestVerification": {
				{Name: "publicKey", Type: "bytes"},
				{Name: "contractAddresses", Type: "address[]"},
				{Name: "startTimestamp", Type: "uint256"},
				{Name: "durationDays", Type: "uint256"},
			},
		},
		PrimaryType: "UserDecryptRequestVerification",
		Message: map[string]interface{}{
			"publicKey":         publicKey,
			"contractAddresses": addrs,
			"startTimestamp":    startTimestamp,
			"durationDays":      durationDays,
		},
	}
}

func (e *FakeEngine) UserDecrypt(
	ctx context.Context,
	requests []com_engine.HandleContractPair,
	privateKey string,
	publicKey string,
	signature string,
	contracts []chain.Address,
	account chain.Address,
	startTimestamp int64,
	durationDays int64,
) (map[string]string, error) {
	e.mu.Lock()
	e.decryptCalls++
	gate := e.DecryptGate
	failure := e.DecryptErr
	e.DecryptErr = nil
	bare := e.BareKeys
	e.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if failure != nil {
		return nil, failure
	}

	if raw, err := hex.DecodeString(signature); err != nil || len(raw) == 0 {
		return nil, errors.New("fake engine: signature is not bare hex")
	}
	if durationDays <= 0 || startTimestamp <= 0 {
		return nil, errors.New("fake engine: invalid validity window")
	}

	results := make(map[string]string, len(requests))
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, req := range requests {
		plain, ok := e.plaintexts[req.Handle.Hex()]
		if !ok {
			return nil, errors.Errorf("fake engine: unknown handle %s", req.Handle.Hex())
		}
		key := req.Handle.Hex()
		if bare {
			key = strconv.Itoa(i)
		}
		results[key] = strconv.FormatUint(plain, 10)
	}
	return results, nil
}

type fakeBuilder struct {
	engine   *FakeEngine
	contract chain.Address
	account  chain.Address
	values   []uint32
}

func (b *fakeBuilder) Add32(value uint32) com_engine.EncryptedInputBuilder {
	b.values = append(b.values, value)
	return b
}

func (b *fakeBuilder) Encrypt(ctx context.Context) (*com_engine.CiphertextBundle, error) {
	if len(b.values) == 0 {
		return nil, errors.New("fake engine: empty encrypted input")
	}
	handles := make([][]byte, len(b.values))
	for i, v := range b.values {
		h := b.engine.Mint(uint64(v), b.contract, b.account)
		handles[i] = h.Bytes()
	}
	proof, err := cbor.Marshal(InputProof{
		Handles: handles,
		Binding: bindingDigest(handles, b.contract, b.account),
	})
	if err != nil {
		return nil, err
	}
	return &com_engine.CiphertextBundle{Handles: handles, InputProof: proof}, nil
}

// VerifyInputProof re-derives the binding and checks it covers exactly handle
// for (contract, account). The fake chain uses it in place of real proof
// verification.
func VerifyInputProof(proof []byte, handle []byte, contract, account chain.Address) error {
	var doc InputProof
	if err := cbor.Unmarshal(proof, &doc); err != nil {
		return errors.WithMessage(err, "fake engine: undecodable input proof")
	}
	found := false
	for _, h := range doc.Handles {
		if string(h) == string(handle) {
			found = true
		}
	}
	if !found {
		return errors.New("fake engine: proof does not cover handle")
	}
	want := bindingDigest(doc.Handles, contract, account)
	if string(want) != string(doc.Binding) {
		return errors.New("fake engine: proof bound to different contract or account")
	}
	return nil
}

func deriveHandle(contract, account chain.Address) chain.Handle {
	hasher := blake3.New()
	hasher.Write([]byte(contract))
	hasher.Write([]byte(account))
	id := uuid.New()
	hasher.Write(id[:])
	var h chain.Handle
	copy(h[:], hasher.Sum(nil))
	return h
}

func bindingDigest(handles [][]byte, contract, account chain.Address) []byte {
	hasher := blake3.New()
	for _, h := range handles {
		hasher.Write(h)
	}
	hasher.Write([]byte(contract))
	hasher.Write([]byte(account))
	return hasher.Sum(nil)
}
