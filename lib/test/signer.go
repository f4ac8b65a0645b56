package test

import (
	"context"
	"encoding/hex"
	"sync"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	secp_ecdsa "github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/fxamacker/cbor/v2"
	"github.com/pkg/errors"
	"golang.org/x/crypto/sha3"

	"github.com/dmtlabs/probeseek/pkg/common/chain"
	com_engine "github.com/dmtlabs/probeseek/pkg/common/engine"
)

// DevSigner is a local secp256k1 signer with an Ethereum-style address. It
// signs a Keccak-256 digest of the CBOR-encoded typed data, which is all the
// fake decryption authority checks.
type DevSigner struct {
	mu      sync.Mutex
	priv    *secp256k1.PrivateKey
	address chain.Address

	// RejectNext makes the next signing request fail as a wallet refusal.
	RejectNext bool

	// SendFunc, when set, lets the signer act as a transaction sender.
	SendFunc func(ctx context.Context, to chain.Address, calldata []byte) (chain.Tx, error)
}

func NewDevSigner() (*DevSigner, error) {
	priv, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return nil, err
	}
	return &DevSigner{
		priv:    priv,
		address: addressOf(priv.PubKey()),
	}, nil
}

func (s *DevSigner) Address() chain.Address {
	return s.address
}

func (s *DevSigner) SignTypedData(ctx context.Context, data com_engine.TypedData) (string, error) {
	s.mu.Lock()
	reject := s.RejectNext
	s.RejectNext = false
	s.mu.Unlock()
	if reject {
		return "", chain.ErrRejected
	}

	digest, err := typedDataDigest(data)
	if err != nil {
		return "", err
	}
	sig := secp_ecdsa.SignCompact(s.priv, digest, false)
	return "0x" + hex.EncodeToString(sig), nil
}

func (s *DevSigner) SendTransaction(ctx context.Context, to chain.Address, calldata []byte) (chain.Tx, error) {
	s.mu.Lock()
	send := s.SendFunc
	s.mu.Unlock()
	if send == nil {
		return nil, errors.New("dev signer: no transaction sender wired")
	}
	return send(ctx, to, calldata)
}

func typedDataDigest(data com_engine.TypedData) ([]byte, error) {
	enc, err := cbor.Marshal(struct {
		Domain      map[string]interface{}
		PrimaryType string
		Message     map[string]interface{}
	}{data.Domain, data.PrimaryType, data.Message})
	if err != nil {
		return nil, errors.WithMessage(err, "dev signer: failed to encode typed data")
	}
	hasher := sha3.NewLegacyKeccak256()
	hasher.Write(enc)
	return hasher.Sum(nil), nil
}

func addressOf(pub *secp256k1.PublicKey) chain.Address {
	hasher := sha3.NewLegacyKeccak256()
	hasher.Write(pub.SerializeUncompressed()[1:])
	sum := hasher.Sum(nil)
	return chain.Address("0x" + hex.EncodeToString(sum[12:]))
}
