package session

import (
	"github.com/dmtlabs/probeseek/pkg/common/chain"
	com_session "github.com/dmtlabs/probeseek/pkg/common/session"
)

type Session struct {
	account  chain.Address
	joined   bool
	round    uint64
	cipher   chain.Handle
	feedback *com_session.Feedback
	phase    com_session.Phase
}

func NewSession(account chain.Address) *Session {
	s := &Session{
		account: account,
	}
	s.phase = derivePhase(s)
	return s
}

func (s *Session) Account() chain.Address {
	return s.account
}

func (s *Session) Joined() bool {
	return s.joined
}

func (s *Session) Round() uint64 {
	return s.round
}

func (s *Session) Cipher() chain.Handle {
	return s.cipher
}

func (s *Session) Feedback() *com_session.Feedback {
	if s.feedback == nil {
		return nil
	}
	fb := *s.feedback
	return &fb
}

func (s *Session) Phase() com_session.Phase {
	return s.phase
}

// derivePhase maps the observable fields onto the explicit phase tag.
// Feedback for a superseded or sentinel cipher never survives a mutation, so
// the mapping is total.
func derivePhase(s *Session) com_session.Phase {
	switch {
	case s.account.IsZero():
		return com_session.Disconnected
	case !s.joined:
		return com_session.Idle
	case s.cipher.IsSentinel():
		return com_session.Joined
	case s.feedback != nil && s.feedback.SourceCipher.Equal(s.cipher):
		return com_session.ResultRevealed
	default:
		return com_session.ResultPending
	}
}
