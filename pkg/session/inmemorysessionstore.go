package session

import (
	"errors"
	"sync"

	"github.com/dmtlabs/probeseek/pkg/common/chain"
	com_session "github.com/dmtlabs/probeseek/pkg/common/session"
)

var ErrSessionNotFound = errors.New("session not found")

type InMemorySessionStore struct {
	lock     sync.RWMutex
	sessions map[chain.Address]com_session.Session
}

func NewInMemorySessionStore() *InMemorySessionStore {
	return &InMemorySessionStore{
		sessions: make(map[chain.Address]com_session.Session),
	}
}

func (s *InMemorySessionStore) Import(account chain.Address, sess com_session.Session) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.sessions[account] = sess

	return nil
}

func (s *InMemorySessionStore) Get(account chain.Address) (com_session.Session, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	sess, ok := s.sessions[account]
	if !ok {
		return nil, ErrSessionNotFound
	}

	return sess, nil
}

func (s *InMemorySessionStore) Delete(account chain.Address) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	delete(s.sessions, account)

	return nil
}
