package game

import "errors"

var (
	// ErrWalletNotConnected rejects player operations before Connect.
	ErrWalletNotConnected = errors.New("game: wallet not connected")

	// ErrNoResult rejects Reveal when no ciphertext is pending.
	ErrNoResult = errors.New("game: no result to reveal")
)
