package submitter

import "errors"

var (
	// ErrInvalidGuessRange rejects guesses outside [1,10] before any
	// network call is made.
	ErrInvalidGuessRange = errors.New("submitter: guess must be an integer between 1 and 10")

	// ErrNotJoined rejects guesses from accounts that have not joined the
	// game.
	ErrNotJoined = errors.New("submitter: account has not joined the game")

	// ErrWalletRejected is surfaced when the wallet user declines the
	// transaction prompt.
	ErrWalletRejected = errors.New("submitter: transaction rejected by wallet")

	// ErrChain wraps any other transaction failure; the underlying message
	// is preserved.
	ErrChain = errors.New("submitter: chain error")
)
