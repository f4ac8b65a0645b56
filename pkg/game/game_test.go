package game

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	libtest "github.com/dmtlabs/probeseek/lib/test"
	"github.com/dmtlabs/probeseek/pkg/common/chain"
	com_session "github.com/dmtlabs/probeseek/pkg/common/session"
	"github.com/dmtlabs/probeseek/pkg/submitter"
)

const contractAddr = chain.Address("0x00000000000000000000000000000000000000CC")

type fixture struct {
	engine    *libtest.FakeEngine
	gameChain *libtest.GameChain
	signer    *libtest.DevSigner
	client    *Client
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	eng := libtest.NewFakeEngine()
	gc := libtest.NewGameChain(eng, contractAddr)
	s, err := libtest.NewDevSigner()
	require.NoError(t, err)

	c := NewClient(Config{
		Contract: contractAddr,
		Backend:  gc,
		Engine:   eng,
	})
	require.NoError(t, c.Connect(context.Background(), s))

	return &fixture{engine: eng, gameChain: gc, signer: s, client: c}
}

func TestConnectStartsIdle(t *testing.T) {
	f := newFixture(t)

	assert.True(t, f.client.IsContractConfigured())
	assert.Equal(t, com_session.Idle, f.client.Phase())
	assert.Equal(t, f.signer.Address(), f.client.Account())
}

func TestGuessBeforeJoin(t *testing.T) {
	f := newFixture(t)

	err := f.client.Guess(context.Background(), 5)
	assert.ErrorIs(t, err, submitter.ErrNotJoined)
	assert.Equal(t, "Initialize session before deploying probes.", StatusMessage(err))

	// No transaction was sent.
	h, rerr := f.gameChain.GetLatestResult(context.Background(), f.signer.Address())
	require.NoError(t, rerr)
	assert.True(t, h.IsSentinel())
}

func TestJoinLeavesFeedbackNull(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.client.Join(context.Background()))

	sess, err := f.client.Session()
	require.NoError(t, err)
	assert.True(t, sess.Joined())
	assert.Equal(t, uint64(1), sess.Round())
	assert.Nil(t, sess.Feedback())
	assert.Equal(t, com_session.Joined, f.client.Phase())
}

func TestFullRoundTripRevealsSoClose(t *testing.T) {
	f := newFixture(t)
	f.gameChain.SetTarget(f.signer.Address(), 6)

	var notified []chain.Handle
	var mu sync.Mutex
	f.client.OnResult(func(h chain.Handle) {
		mu.Lock()
		notified = append(notified, h)
		mu.Unlock()
	})

	require.NoError(t, f.client.Join(context.Background()))
	mu.Lock()
	assert.Empty(t, notified, "sentinel never signals result ready")
	mu.Unlock()

	require.NoError(t, f.client.Guess(context.Background(), 5))
	assert.Equal(t, com_session.ResultPending, f.client.Phase())

	mu.Lock()
	require.Len(t, notified, 1)
	mu.Unlock()

	code, err := f.client.Reveal(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, code)
	assert.Equal(t, "So close! The signal is right next door.", FeedbackMessage(code))

	sess, err := f.client.Session()
	require.NoError(t, err)
	require.NotNil(t, sess.Feedback())
	assert.Equal(t, 2, sess.Feedback().Code)
	assert.Equal(t, sess.Cipher(), sess.Feedback().SourceCipher)
	assert.Equal(t, com_session.ResultRevealed, f.client.Phase())

	// Refreshing with the unchanged handle must not clear the feedback.
	require.NoError(t, f.client.Refresh(context.Background()))
	sess, err = f.client.Session()
	require.NoError(t, err)
	require.NotNil(t, sess.Feedback())
	assert.Equal(t, com_session.ResultRevealed, f.client.Phase())

	mu.Lock()
	assert.Len(t, notified, 1, "unchanged handle never re-notifies")
	mu.Unlock()
}

func TestSupersedingProbeClearsFeedback(t *testing.T) {
	f := newFixture(t)
	f.gameChain.SetTarget(f.signer.Address(), 6)

	require.NoError(t, f.client.Join(context.Background()))
	require.NoError(t, f.client.Guess(context.Background(), 5))
	_, err := f.client.Reveal(context.Background())
	require.NoError(t, err)

	// A second probe supersedes the old result ciphertext.
	require.NoError(t, f.client.Guess(context.Background(), 6))

	sess, err := f.client.Session()
	require.NoError(t, err)
	assert.Nil(t, sess.Feedback())
	assert.Equal(t, com_session.ResultPending, f.client.Phase())

	code, err := f.client.Reveal(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, code)
}

func TestRevealWithoutResult(t *testing.T) {
	f := newFixture(t)

	_, err := f.client.Reveal(context.Background())
	assert.ErrorIs(t, err, ErrNoResult)

	require.NoError(t, f.client.Join(context.Background()))
	_, err = f.client.Reveal(context.Background())
	assert.ErrorIs(t, err, ErrNoResult)
}

func TestUnconfiguredClient(t *testing.T) {
	eng := libtest.NewFakeEngine()
	s, err := libtest.NewDevSigner()
	require.NoError(t, err)

	c := NewClient(Config{Engine: eng})
	require.NoError(t, c.Connect(context.Background(), s))

	assert.False(t, c.IsContractConfigured())
	assert.Equal(t, com_session.Idle, c.Phase())
	assert.ErrorIs(t, c.Join(context.Background()), chain.ErrNotConfigured)
	assert.ErrorIs(t, c.Guess(context.Background(), 5), chain.ErrNotConfigured)
}

func TestDisconnectDropsSession(t *testing.T) {
	f := newFixture(t)

	f.client.Disconnect()
	assert.Equal(t, com_session.Disconnected, f.client.Phase())
	_, err := f.client.Session()
	assert.ErrorIs(t, err, ErrWalletNotConnected)

	err = f.client.Guess(context.Background(), 5)
	assert.ErrorIs(t, err, ErrWalletNotConnected)
}

func TestAccountSwitchResetsSession(t *testing.T) {
	f := newFixture(t)
	f.gameChain.SetTarget(f.signer.Address(), 5)

	require.NoError(t, f.client.Join(context.Background()))
	require.NoError(t, f.client.Guess(context.Background(), 5))

	other, err := libtest.NewDevSigner()
	require.NoError(t, err)
	require.NoError(t, f.client.Connect(context.Background(), other))

	assert.Equal(t, other.Address(), f.client.Account())
	assert.Equal(t, com_session.Idle, f.client.Phase())
}

func TestParseGuess(t *testing.T) {
	for _, input := range []string{"abc", "3.5", "0", "11", ""} {
		_, err := ParseGuess(input)
		assert.ErrorIs(t, err, submitter.ErrInvalidGuessRange, "input %q", input)
	}

	v, err := ParseGuess(" 7 ")
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}

func TestStatusMessages(t *testing.T) {
	assert.Equal(t, "", StatusMessage(nil))
	assert.Equal(t, "Connect your wallet to play.", StatusMessage(ErrWalletNotConnected))
	assert.Equal(t, "Probes must target a whole number from 1 to 10.",
		StatusMessage(submitter.ErrInvalidGuessRange))
}
