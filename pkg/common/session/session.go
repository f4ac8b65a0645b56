package session

import (
	"github.com/dmtlabs/probeseek/pkg/common/chain"
)

// Phase is the explicit round state. It is recomputed on every session
// mutation so impossible flag combinations cannot persist.
type Phase int

const (
	// Disconnected: no wallet account.
	Disconnected Phase = iota
	// Idle: wallet connected, player has not joined.
	Idle
	// Joined: joined, no pending ciphertext (sentinel handle).
	Joined
	// ResultPending: a non-sentinel ciphertext is waiting to be decrypted.
	ResultPending
	// ResultRevealed: feedback decrypted from the current ciphertext.
	ResultRevealed
)

func (p Phase) String() string {
	switch p {
	case Disconnected:
		return "disconnected"
	case Idle:
		return "idle"
	case Joined:
		return "joined"
	case ResultPending:
		return "result-pending"
	case ResultRevealed:
		return "result-revealed"
	default:
		return "unknown"
	}
}

// Feedback is a decrypted outcome. It is only valid while SourceCipher still
// equals the session's current ciphertext handle.
type Feedback struct {
	Code         int
	SourceCipher chain.Handle
}

// Snapshot is the wholesale result of one chain refresh. Sessions are always
// updated from a complete snapshot, never field by field.
type Snapshot struct {
	Joined bool
	Round  uint64
	Cipher chain.Handle
}

// Diff describes what a snapshot application changed, computed after the
// atomic update.
type Diff struct {
	// CipherChanged is true when the ciphertext handle differs from the
	// previous one.
	CipherChanged bool
	// ResultReady is true when the new handle is non-sentinel and differs
	// from the previous one.
	ResultReady bool
	// FeedbackCleared is true when stale feedback was dropped.
	FeedbackCleared bool
}

// Session is the read surface of one account's round state.
type Session interface {
	Account() chain.Address
	Joined() bool
	Round() uint64
	Cipher() chain.Handle
	Feedback() *Feedback
	Phase() Phase
}

// SessionStore holds sessions keyed by account.
type SessionStore interface {
	Import(account chain.Address, s Session) error
	Get(account chain.Address) (Session, error)
	Delete(account chain.Address) error
}

// SessionManager owns all session mutation. Feedback invalidation rules:
// feedback is cleared whenever the ciphertext handle changes or the player is
// not joined.
type SessionManager interface {
	// NewSession creates a cleared session for account, replacing any
	// existing one.
	NewSession(account chain.Address) error

	// Get returns the session for account.
	Get(account chain.Address) (Session, error)

	// ApplySnapshot replaces the session's chain-derived fields wholesale
	// and returns the post-apply diff.
	ApplySnapshot(account chain.Address, snap Snapshot) (Diff, error)

	// SetFeedback records decrypted feedback. It is rejected when source no
	// longer matches the session's current ciphertext handle.
	SetFeedback(account chain.Address, fb Feedback) error

	// ClearFeedback drops any feedback.
	ClearFeedback(account chain.Address) error

	// Drop removes the session entirely (wallet disconnect).
	Drop(account chain.Address) error
}
