package game

import (
	"context"
	"log/slog"
	"sync"

	"github.com/dmtlabs/probeseek/pkg/cipher"
	"github.com/dmtlabs/probeseek/pkg/common/chain"
	com_engine "github.com/dmtlabs/probeseek/pkg/common/engine"
	com_session "github.com/dmtlabs/probeseek/pkg/common/session"
	com_signer "github.com/dmtlabs/probeseek/pkg/common/signer"
	"github.com/dmtlabs/probeseek/pkg/reader"
	"github.com/dmtlabs/probeseek/pkg/session"
	"github.com/dmtlabs/probeseek/pkg/submitter"
)

// Backend ties the contract's read surface to a writer factory for the
// connected signer.
type Backend interface {
	chain.ContractReader

	// NewWriter returns a contract writer bound to the signer's account.
	NewWriter(s com_signer.Signer) chain.ContractWriter
}

// Config wires a game client. An empty Contract or nil Backend leaves the
// client unconfigured: reads are skipped and chain-dependent operations fail
// cleanly.
type Config struct {
	Contract chain.Address
	Backend  Backend
	Engine   com_engine.CipherEngine
	Logger   *slog.Logger
}

// Client is the top-level session owner: it tracks the connected account,
// drives the chain reader, encryption client and transaction submitter, and
// is the only writer of session state.
type Client struct {
	logger   *slog.Logger
	contract chain.Address
	backend  Backend

	sessions  *session.SessionManager
	reader    *reader.ChainReader
	cipher    *cipher.Client
	submitter *submitter.Submitter

	mu       sync.RWMutex
	account  chain.Address
	onResult func(cipher chain.Handle)
}

func NewClient(cfg Config) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	mgr := session.NewSessionManager(session.NewInMemorySessionStore())

	var contractReader chain.ContractReader
	if cfg.Backend != nil && !cfg.Contract.IsZero() {
		contractReader = cfg.Backend
	}
	rd := reader.New(contractReader, mgr, logger)
	ci := cipher.NewClient(cfg.Engine, cfg.Contract, logger)
	sub := submitter.New(mgr, rd, ci, logger)

	c := &Client{
		logger:    logger,
		contract:  cfg.Contract,
		backend:   cfg.Backend,
		sessions:  mgr,
		reader:    rd,
		cipher:    ci,
		submitter: sub,
	}
	rd.SetNotify(c.handleResultReady)
	return c
}

// IsContractConfigured reports whether chain-dependent operations are
// enabled.
func (c *Client) IsContractConfigured() bool {
	return c.backend != nil && !c.contract.IsZero()
}

// OnResult registers a callback fired when a refresh observes a new
// non-sentinel ciphertext for the connected account.
func (c *Client) OnResult(fn func(cipher chain.Handle)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onResult = fn
}

func (c *Client) handleResultReady(account chain.Address, h chain.Handle) {
	c.mu.RLock()
	fn := c.onResult
	current := c.account
	c.mu.RUnlock()
	if fn != nil && account == current {
		fn(h)
	}
}

// Connect binds a wallet signer and starts a session for its account.
// Connecting a different signer is an account switch: the previous session is
// dropped.
func (c *Client) Connect(ctx context.Context, s com_signer.Signer) error {
	if s == nil {
		return ErrWalletNotConnected
	}

	c.mu.Lock()
	prev := c.account
	c.account = s.Address()
	c.mu.Unlock()

	if !prev.IsZero() && prev != s.Address() {
		if err := c.sessions.Drop(prev); err != nil {
			c.logger.Warn("failed to drop previous session", "account", prev.String(), "err", err)
		}
	}
	if err := c.sessions.NewSession(s.Address()); err != nil {
		return err
	}

	c.cipher.AttachSigner(s)
	if c.IsContractConfigured() {
		c.submitter.AttachWriter(c.backend.NewWriter(s))
	}

	// First refresh is best-effort: a failure leaves a cleared session and
	// is retried on the next trigger.
	if err := c.Refresh(ctx); err != nil {
		c.logger.Warn("initial refresh failed", "account", s.Address().String(), "err", err)
	}
	return nil
}

// Disconnect drops the session and detaches the signer.
func (c *Client) Disconnect() {
	c.mu.Lock()
	account := c.account
	c.account = ""
	c.mu.Unlock()

	c.cipher.AttachSigner(nil)
	c.submitter.AttachWriter(nil)
	if !account.IsZero() {
		if err := c.sessions.Drop(account); err != nil {
			c.logger.Warn("failed to drop session", "account", account.String(), "err", err)
		}
	}
}

// Account returns the connected account, if any.
func (c *Client) Account() chain.Address {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.account
}

// Session returns the connected account's session.
func (c *Client) Session() (com_session.Session, error) {
	account := c.Account()
	if account.IsZero() {
		return nil, ErrWalletNotConnected
	}
	return c.sessions.Get(account)
}

// Phase returns the explicit round phase, Disconnected when no wallet is
// connected.
func (c *Client) Phase() com_session.Phase {
	sess, err := c.Session()
	if err != nil {
		return com_session.Disconnected
	}
	return sess.Phase()
}

// Refresh re-reads the contract views for the connected account.
func (c *Client) Refresh(ctx context.Context) error {
	account := c.Account()
	if account.IsZero() {
		return ErrWalletNotConnected
	}
	_, err := c.reader.Refresh(ctx, account)
	return err
}

// Join enters the game (or starts a new round when already joined).
func (c *Client) Join(ctx context.Context) error {
	account := c.Account()
	if account.IsZero() {
		return ErrWalletNotConnected
	}
	if !c.IsContractConfigured() {
		return chain.ErrNotConfigured
	}
	return c.submitter.Join(ctx, account)
}

// Guess encrypts value and submits it as the player's probe.
func (c *Client) Guess(ctx context.Context, value int) error {
	if !submitter.ValidGuess(value) {
		return submitter.ErrInvalidGuessRange
	}
	account := c.Account()
	if account.IsZero() {
		return ErrWalletNotConnected
	}
	if !c.IsContractConfigured() {
		return chain.ErrNotConfigured
	}
	return c.submitter.Guess(ctx, account, value)
}

// Reveal decrypts the pending result ciphertext and records the feedback.
// The returned code is only recorded while the ciphertext is still current;
// a handle superseded mid-decryption leaves the session untouched.
func (c *Client) Reveal(ctx context.Context) (int, error) {
	account := c.Account()
	if account.IsZero() {
		return 0, ErrWalletNotConnected
	}
	sess, err := c.sessions.Get(account)
	if err != nil {
		return 0, err
	}
	handle := sess.Cipher()
	if handle.IsSentinel() || !sess.Joined() {
		return 0, ErrNoResult
	}

	code, err := c.cipher.Decrypt(ctx, handle)
	if err != nil {
		return 0, err
	}

	if err := c.sessions.SetFeedback(account, com_session.Feedback{
		Code:         code,
		SourceCipher: handle,
	}); err != nil {
		// The cipher moved on while the authority was answering; the code
		// belongs to a superseded result.
		c.logger.Warn("discarding feedback for superseded cipher",
			"account", account.String(), "cipher", handle.Hex(), "err", err)
	}
	return code, nil
}
