package test

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/dmtlabs/probeseek/pkg/common/chain"
	com_signer "github.com/dmtlabs/probeseek/pkg/common/signer"
)

// GameChain is an in-memory rendition of the guessing-game contract. It
// evaluates encrypted guesses through the fake engine, so plaintexts stay
// out of the "chain" state just like on the real thing.
type GameChain struct {
	mu      sync.Mutex
	engine  *FakeEngine
	address chain.Address

	players map[chain.Address]*playerState
	targets map[chain.Address]uint64

	// ReadErr fails every contract view until cleared.
	ReadErr error
	// WriteErr fails the next state-changing call.
	WriteErr error
}

type playerState struct {
	joined bool
	round  uint64
	result chain.Handle
}

func NewGameChain(engine *FakeEngine, address chain.Address) *GameChain {
	return &GameChain{
		engine:  engine,
		address: address,
		players: make(map[chain.Address]*playerState),
		targets: make(map[chain.Address]uint64),
	}
}

func (c *GameChain) Address() chain.Address {
	return c.address
}

// SetTarget fixes the hidden number for account's current and future rounds.
func (c *GameChain) SetTarget(account chain.Address, target uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.targets[account] = target
}

func (c *GameChain) HasJoined(ctx context.Context, account chain.Address) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ReadErr != nil {
		return false, c.ReadErr
	}
	ps, ok := c.players[account]
	return ok && ps.joined, nil
}

func (c *GameChain) GetRound(ctx context.Context, account chain.Address) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ReadErr != nil {
		return 0, c.ReadErr
	}
	ps, ok := c.players[account]
	if !ok {
		return 0, nil
	}
	return ps.round, nil
}

func (c *GameChain) GetLatestResult(ctx context.Context, account chain.Address) (chain.Handle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ReadErr != nil {
		return chain.SentinelHandle, c.ReadErr
	}
	ps, ok := c.players[account]
	if !ok {
		return chain.SentinelHandle, nil
	}
	return ps.result, nil
}

// NewWriter returns a contract writer bound to the signer's account.
func (c *GameChain) NewWriter(s com_signer.Signer) chain.ContractWriter {
	return &gameWriter{chain: c, account: s.Address()}
}

type gameWriter struct {
	chain   *GameChain
	account chain.Address
}

func (w *gameWriter) JoinGame(ctx context.Context) (chain.Tx, error) {
	c := w.chain
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.takeWriteErr(); err != nil {
		return nil, err
	}

	ps, ok := c.players[w.account]
	if !ok {
		ps = &playerState{}
		c.players[w.account] = ps
	}
	if ps.joined {
		// Re-joining starts a fresh round; any previous result is void.
		ps.round++
	} else {
		ps.joined = true
		ps.round = 1
	}
	ps.result = chain.SentinelHandle
	return newFakeTx(), nil
}

func (w *gameWriter) SubmitGuess(ctx context.Context, handle []byte, proof []byte) (chain.Tx, error) {
	c := w.chain
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.takeWriteErr(); err != nil {
		return nil, err
	}

	ps, ok := c.players[w.account]
	if !ok || !ps.joined {
		return nil, errors.New("game chain: account has not joined")
	}
	if err := VerifyInputProof(proof, handle, c.address, w.account); err != nil {
		return nil, err
	}
	guess, ok := c.engine.PlaintextOf(handle)
	if !ok {
		return nil, errors.New("game chain: unknown ciphertext handle")
	}

	code := scoreGuess(guess, c.targets[w.account])
	ps.result = c.engine.Mint(code, c.address, w.account)
	return newFakeTx(), nil
}

func (c *GameChain) takeWriteErr() error {
	if c.WriteErr == nil {
		return nil
	}
	err := c.WriteErr
	c.WriteErr = nil
	return err
}

// scoreGuess maps a guess onto the private feedback code: 1 direct hit,
// 2 off by one, 3 within three, 4 cold.
func scoreGuess(guess, target uint64) uint64 {
	diff := guess - target
	if target > guess {
		diff = target - guess
	}
	switch {
	case diff == 0:
		return 1
	case diff == 1:
		return 2
	case diff <= 3:
		return 3
	default:
		return 4
	}
}

type fakeTx struct {
	hash string
}

func newFakeTx() *fakeTx {
	return &fakeTx{hash: fmt.Sprintf("0x%x", uuid.New())}
}

func (t *fakeTx) Hash() string {
	return t.hash
}

func (t *fakeTx) Wait(ctx context.Context) error {
	return ctx.Err()
}
