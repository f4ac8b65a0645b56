package reader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/dmtlabs/probeseek/pkg/common/chain"
	com_session "github.com/dmtlabs/probeseek/pkg/common/session"
)

// ErrRefreshFailed wraps any read failure. Refreshes are all-or-nothing: a
// failed refresh leaves the session untouched and is retried on the next
// natural trigger, so callers treat this as non-fatal.
var ErrRefreshFailed = errors.New("reader: refresh failed")

// ChainReader polls the three read-only contract views and applies the result
// to the session as one atomic snapshot.
type ChainReader struct {
	contract chain.ContractReader
	sessions com_session.SessionManager
	logger   *slog.Logger

	mu     sync.RWMutex
	notify func(account chain.Address, cipher chain.Handle)
}

// New builds a ChainReader. A nil contract means no contract address is
// configured; Refresh then clears the session without any network I/O.
func New(contract chain.ContractReader, sessions com_session.SessionManager, logger *slog.Logger) *ChainReader {
	if logger == nil {
		logger = slog.Default()
	}
	return &ChainReader{
		contract: contract,
		sessions: sessions,
		logger:   logger,
	}
}

func (r *ChainReader) Configured() bool {
	return r.contract != nil
}

// SetNotify registers the "result ready" hook, invoked after a refresh
// observes a new non-sentinel ciphertext handle.
func (r *ChainReader) SetNotify(fn func(account chain.Address, cipher chain.Handle)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notify = fn
}

// Refresh re-reads hasJoined, getRound and getLatestResult for account. The
// three reads run concurrently and must all succeed; no partial update is
// ever applied. The returned diff describes what changed.
func (r *ChainReader) Refresh(ctx context.Context, account chain.Address) (com_session.Diff, error) {
	if account.IsZero() {
		return com_session.Diff{}, nil
	}
	if r.contract == nil {
		return r.sessions.ApplySnapshot(account, com_session.Snapshot{})
	}

	var snap com_session.Snapshot
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		joined, err := r.contract.HasJoined(gctx, account)
		if err != nil {
			return fmt.Errorf("hasJoined: %w", err)
		}
		snap.Joined = joined
		return nil
	})
	g.Go(func() error {
		round, err := r.contract.GetRound(gctx, account)
		if err != nil {
			return fmt.Errorf("getRound: %w", err)
		}
		snap.Round = round
		return nil
	})
	g.Go(func() error {
		cipher, err := r.contract.GetLatestResult(gctx, account)
		if err != nil {
			return fmt.Errorf("getLatestResult: %w", err)
		}
		snap.Cipher = cipher
		return nil
	})
	if err := g.Wait(); err != nil {
		r.logger.Warn("refresh abandoned, session unchanged",
			"account", account.String(), "err", err)
		return com_session.Diff{}, fmt.Errorf("%w: %v", ErrRefreshFailed, err)
	}

	diff, err := r.sessions.ApplySnapshot(account, snap)
	if err != nil {
		return diff, err
	}
	if diff.ResultReady {
		r.mu.RLock()
		notify := r.notify
		r.mu.RUnlock()
		if notify != nil {
			notify(account, snap.Cipher)
		}
	}
	return diff, nil
}
