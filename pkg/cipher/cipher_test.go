package cipher

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	libtest "github.com/dmtlabs/probeseek/lib/test"
	"github.com/dmtlabs/probeseek/pkg/common/chain"
	com_engine "github.com/dmtlabs/probeseek/pkg/common/engine"
	com_signer "github.com/dmtlabs/probeseek/pkg/common/signer"
)

const contractAddr = chain.Address("0x00000000000000000000000000000000000000AA")

func newFixture(t *testing.T) (*Client, *libtest.FakeEngine, *libtest.DevSigner) {
	t.Helper()
	eng := libtest.NewFakeEngine()
	s, err := libtest.NewDevSigner()
	require.NoError(t, err)
	c := NewClient(eng, contractAddr, nil)
	c.AttachSigner(s)
	return c, eng, s
}

func TestEncryptGuessBindsContractAndAccount(t *testing.T) {
	c, eng, s := newFixture(t)

	bundle, err := c.EncryptGuess(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, bundle.Handles, 1)
	require.NotEmpty(t, bundle.InputProof)

	require.NoError(t, libtest.VerifyInputProof(bundle.InputProof, bundle.Handles[0], contractAddr, s.Address()))

	plain, ok := eng.PlaintextOf(bundle.Handles[0])
	require.True(t, ok)
	assert.Equal(t, uint64(7), plain)
}

func TestEncryptGuessRequiresReadyEngine(t *testing.T) {
	c, eng, _ := newFixture(t)
	eng.SetReady(false)

	_, err := c.EncryptGuess(context.Background(), 3)
	assert.ErrorIs(t, err, com_engine.ErrNotReady)
}

func TestEncryptGuessRequiresSigner(t *testing.T) {
	c, _, _ := newFixture(t)
	c.AttachSigner(nil)

	_, err := c.EncryptGuess(context.Background(), 3)
	assert.ErrorIs(t, err, com_signer.ErrUnavailable)
}

func TestDecryptRoundTrip(t *testing.T) {
	c, eng, s := newFixture(t)
	h := eng.Mint(2, contractAddr, s.Address())

	code, err := c.Decrypt(context.Background(), h)
	require.NoError(t, err)
	assert.Equal(t, 2, code)
	assert.Equal(t, 1, eng.DecryptCalls())
}

func TestDecryptRequiresSigner(t *testing.T) {
	c, eng, s := newFixture(t)
	h := eng.Mint(1, contractAddr, s.Address())
	c.AttachSigner(nil)

	_, err := c.Decrypt(context.Background(), h)
	assert.ErrorIs(t, err, com_signer.ErrUnavailable)
	assert.Zero(t, eng.DecryptCalls(), "no authority request without a signer")
}

func TestDecryptFallsBackToFirstValue(t *testing.T) {
	c, eng, s := newFixture(t)
	h := eng.Mint(4, contractAddr, s.Address())
	eng.BareKeys = true

	code, err := c.Decrypt(context.Background(), h)
	require.NoError(t, err)
	assert.Equal(t, 4, code)
}

func TestDecryptSingleFlight(t *testing.T) {
	c, eng, s := newFixture(t)
	h := eng.Mint(3, contractAddr, s.Address())

	gate := make(chan struct{})
	eng.DecryptGate = gate

	var wg sync.WaitGroup
	wg.Add(1)
	first := make(chan error, 1)
	started := make(chan struct{})
	go func() {
		defer wg.Done()
		close(started)
		_, err := c.Decrypt(context.Background(), h)
		first <- err
	}()

	<-started
	// Wait until the first decrypt holds the slot and is parked on the
	// authority call.
	require.Eventually(t, func() bool { return eng.DecryptCalls() == 1 },
		time.Second, time.Millisecond)

	_, err := c.Decrypt(context.Background(), h)
	assert.ErrorIs(t, err, ErrDecryptInFlight)

	close(gate)
	wg.Wait()
	require.NoError(t, <-first)
	assert.Equal(t, 1, eng.DecryptCalls(), "exactly one outstanding authority request")
}

func TestDecryptMalformedResult(t *testing.T) {
	t.Run("empty response", func(t *testing.T) {
		_, err := parseResult(map[string]string{}, chain.Handle{})
		assert.ErrorIs(t, err, ErrMalformedResult)
	})

	t.Run("non-integral plaintext", func(t *testing.T) {
		var h chain.Handle
		h[0] = 1
		_, err := parseResult(map[string]string{h.Hex(): "not-a-number"}, h)
		assert.ErrorIs(t, err, ErrMalformedResult)
	})

	t.Run("keyed lookup preferred over fallback", func(t *testing.T) {
		var h chain.Handle
		h[0] = 2
		v, err := parseResult(map[string]string{h.Hex(): "2", "other": "9"}, h)
		require.NoError(t, err)
		assert.Equal(t, 2, v)
	})
}
