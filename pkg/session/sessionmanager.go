package session

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/dmtlabs/probeseek/pkg/common/chain"
	com_session "github.com/dmtlabs/probeseek/pkg/common/session"
)

// ErrStaleFeedback is returned when feedback is recorded for a ciphertext
// handle that is no longer the session's current one.
var ErrStaleFeedback = errors.New("session: feedback source does not match current cipher")

// SessionManager is the single writer of session state. Snapshots are applied
// wholesale; feedback invalidation happens inside the same critical section
// as the update, so readers never observe feedback for a superseded cipher.
type SessionManager struct {
	mu    sync.Mutex
	store com_session.SessionStore
}

func NewSessionManager(store com_session.SessionStore) *SessionManager {
	return &SessionManager{
		store: store,
	}
}

func (m *SessionManager) NewSession(account chain.Address) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.store.Import(account, NewSession(account))
}

func (m *SessionManager) Get(account chain.Address) (com_session.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.store.Get(account)
}

func (m *SessionManager) ApplySnapshot(account chain.Address, snap com_session.Snapshot) (com_session.Diff, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cur, err := m.get(account)
	if err != nil {
		return com_session.Diff{}, err
	}

	next := &Session{
		account:  account,
		joined:   snap.Joined,
		round:    snap.Round,
		cipher:   snap.Cipher,
		feedback: cur.feedback,
	}

	var diff com_session.Diff
	diff.CipherChanged = !snap.Cipher.Equal(cur.cipher)
	diff.ResultReady = diff.CipherChanged && !snap.Cipher.IsSentinel()

	// Feedback is only derivable from the current ciphertext: drop it when
	// the handle moves on, and force-clear it for accounts that have not
	// joined.
	if next.feedback != nil && (diff.CipherChanged || !snap.Joined) {
		next.feedback = nil
		diff.FeedbackCleared = true
	}

	next.phase = derivePhase(next)
	if err := m.store.Import(account, next); err != nil {
		return com_session.Diff{}, err
	}
	return diff, nil
}

func (m *SessionManager) SetFeedback(account chain.Address, fb com_session.Feedback) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cur, err := m.get(account)
	if err != nil {
		return err
	}
	if !cur.joined || !fb.SourceCipher.Equal(cur.cipher) || fb.SourceCipher.IsSentinel() {
		return ErrStaleFeedback
	}

	next := cur.clone()
	next.feedback = &fb
	next.phase = derivePhase(next)
	return m.store.Import(account, next)
}

func (m *SessionManager) ClearFeedback(account chain.Address) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cur, err := m.get(account)
	if err != nil {
		return err
	}
	if cur.feedback == nil {
		return nil
	}

	next := cur.clone()
	next.feedback = nil
	next.phase = derivePhase(next)
	return m.store.Import(account, next)
}

func (m *SessionManager) Drop(account chain.Address) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.store.Delete(account)
}

func (m *SessionManager) get(account chain.Address) (*Session, error) {
	sess, err := m.store.Get(account)
	if err != nil {
		return nil, err
	}
	cur, ok := sess.(*Session)
	if !ok {
		return nil, errors.Errorf("session: unexpected session type %T", sess)
	}
	return cur, nil
}

func (s *Session) clone() *Session {
	c := *s
	if s.feedback != nil {
		fb := *s.feedback
		c.feedback = &fb
	}
	return &c
}
