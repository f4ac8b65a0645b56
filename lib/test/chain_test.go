package test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmtlabs/probeseek/pkg/common/chain"
)

const contractAddr = chain.Address("0x00000000000000000000000000000000000000EE")

func TestGuessScoring(t *testing.T) {
	cases := []struct {
		guess, target uint64
		code          uint64
	}{
		{6, 6, 1},
		{5, 6, 2},
		{7, 6, 2},
		{3, 6, 3},
		{9, 6, 3},
		{1, 6, 4},
		{10, 6, 4},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.code, scoreGuess(tc.guess, tc.target),
			"guess %d target %d", tc.guess, tc.target)
	}
}

func TestSubmitGuessRejectsForeignProof(t *testing.T) {
	eng := NewFakeEngine()
	gc := NewGameChain(eng, contractAddr)

	s, err := NewDevSigner()
	require.NoError(t, err)
	other, err := NewDevSigner()
	require.NoError(t, err)

	w := gc.NewWriter(s)
	_, err = w.JoinGame(context.Background())
	require.NoError(t, err)

	// An input encrypted for a different account must be refused even
	// though the handle itself is known to the engine.
	bundle, err := eng.CreateEncryptedInput(contractAddr, other.Address()).
		Add32(5).
		Encrypt(context.Background())
	require.NoError(t, err)

	_, err = w.SubmitGuess(context.Background(), bundle.Handles[0], bundle.InputProof)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bound to different contract or account")
}

func TestSubmitGuessRequiresJoin(t *testing.T) {
	eng := NewFakeEngine()
	gc := NewGameChain(eng, contractAddr)

	s, err := NewDevSigner()
	require.NoError(t, err)

	bundle, err := eng.CreateEncryptedInput(contractAddr, s.Address()).
		Add32(5).
		Encrypt(context.Background())
	require.NoError(t, err)

	w := gc.NewWriter(s)
	_, err = w.SubmitGuess(context.Background(), bundle.Handles[0], bundle.InputProof)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "has not joined")
}
