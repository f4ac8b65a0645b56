package submitter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/dmtlabs/probeseek/lib/guard"
	"github.com/dmtlabs/probeseek/pkg/cipher"
	"github.com/dmtlabs/probeseek/pkg/common/chain"
	com_session "github.com/dmtlabs/probeseek/pkg/common/session"
	com_signer "github.com/dmtlabs/probeseek/pkg/common/signer"
	"github.com/dmtlabs/probeseek/pkg/reader"
)

const (
	// GuessMin and GuessMax bound a valid probe value.
	GuessMin = 1
	GuessMax = 10
)

// ValidGuess reports whether v is inside the accepted probe range.
func ValidGuess(v int) bool {
	return v >= GuessMin && v <= GuessMax
}

// Submitter sends the two state-changing contract calls. Each operation kind
// is single-flight: a duplicate while one is pending fails with
// guard.ErrBusy, so rapid repeated user action can never double-submit.
type Submitter struct {
	sessions com_session.SessionManager
	reader   *reader.ChainReader
	cipher   *cipher.Client
	logger   *slog.Logger

	mu     sync.RWMutex
	writer chain.ContractWriter

	joining  *guard.Guard
	guessing *guard.Guard
}

func New(sessions com_session.SessionManager, rd *reader.ChainReader, ci *cipher.Client, logger *slog.Logger) *Submitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Submitter{
		sessions: sessions,
		reader:   rd,
		cipher:   ci,
		logger:   logger,
		joining:  guard.New(),
		guessing: guard.New(),
	}
}

// AttachWriter binds the contract writer produced for the connected signer.
// Passing nil detaches.
func (s *Submitter) AttachWriter(w chain.ContractWriter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writer = w
}

func (s *Submitter) currentWriter() (chain.ContractWriter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.writer == nil {
		return nil, com_signer.ErrUnavailable
	}
	return s.writer, nil
}

// Join submits joinGame, waits for confirmation, then clears stale feedback
// and refreshes the session. A new round invalidates any prior feedback.
func (s *Submitter) Join(ctx context.Context, account chain.Address) error {
	return s.joining.Do(func() error {
		w, err := s.currentWriter()
		if err != nil {
			return err
		}

		tx, err := w.JoinGame(ctx)
		if err != nil {
			return classify(err)
		}
		if err := tx.Wait(ctx); err != nil {
			return classify(err)
		}

		if err := s.sessions.ClearFeedback(account); err != nil {
			return err
		}
		s.refresh(ctx, account)
		return nil
	})
}

// Guess validates value, encrypts it and submits submitGuess with the proof.
// Validation happens before any network call; the joined requirement is
// checked against the current session.
func (s *Submitter) Guess(ctx context.Context, account chain.Address, value int) error {
	if !ValidGuess(value) {
		return ErrInvalidGuessRange
	}

	return s.guessing.Do(func() error {
		w, err := s.currentWriter()
		if err != nil {
			return err
		}

		sess, err := s.sessions.Get(account)
		if err != nil {
			return err
		}
		if !sess.Joined() {
			return ErrNotJoined
		}

		bundle, err := s.cipher.EncryptGuess(ctx, uint32(value))
		if err != nil {
			return err
		}

		tx, err := w.SubmitGuess(ctx, bundle.Handles[0], bundle.InputProof)
		if err != nil {
			return classify(err)
		}
		if err := tx.Wait(ctx); err != nil {
			return classify(err)
		}

		s.refresh(ctx, account)
		return nil
	})
}

// refresh is a post-transaction trigger: failures are logged and retried on
// the next natural trigger, never surfaced as operation failures.
func (s *Submitter) refresh(ctx context.Context, account chain.Address) {
	if _, err := s.reader.Refresh(ctx, account); err != nil {
		s.logger.Warn("post-transaction refresh failed", "account", account.String(), "err", err)
	}
}

func classify(err error) error {
	if errors.Is(err, chain.ErrRejected) {
		return ErrWalletRejected
	}
	return fmt.Errorf("%w: %v", ErrChain, err)
}
