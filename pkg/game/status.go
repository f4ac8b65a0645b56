package game

import (
	"errors"
	"strconv"
	"strings"

	"github.com/dmtlabs/probeseek/lib/guard"
	"github.com/dmtlabs/probeseek/pkg/cipher"
	"github.com/dmtlabs/probeseek/pkg/common/chain"
	com_engine "github.com/dmtlabs/probeseek/pkg/common/engine"
	com_signer "github.com/dmtlabs/probeseek/pkg/common/signer"
	"github.com/dmtlabs/probeseek/pkg/submitter"
)

// ParseGuess converts user input into a probe value. Anything that is not an
// integer in [1,10] fails with ErrInvalidGuessRange, so "abc" and "3.5" are
// rejected exactly like 0 or 11.
func ParseGuess(input string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil {
		return 0, submitter.ErrInvalidGuessRange
	}
	if !submitter.ValidGuess(v) {
		return 0, submitter.ErrInvalidGuessRange
	}
	return v, nil
}

// StatusMessage maps an operation failure onto the human-readable status line
// the front end shows. No error propagates unhandled past this point.
func StatusMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrWalletNotConnected):
		return "Connect your wallet to play."
	case errors.Is(err, chain.ErrNotConfigured):
		return "Game contract address is not configured."
	case errors.Is(err, com_signer.ErrUnavailable):
		return "No signer available. Reconnect your wallet."
	case errors.Is(err, com_engine.ErrNotReady):
		return "Encryption engine is still warming up. Try again shortly."
	case errors.Is(err, submitter.ErrInvalidGuessRange):
		return "Probes must target a whole number from 1 to 10."
	case errors.Is(err, submitter.ErrNotJoined):
		return "Initialize session before deploying probes."
	case errors.Is(err, submitter.ErrWalletRejected):
		return "Wallet rejected the transaction."
	case errors.Is(err, cipher.ErrDecryptInFlight):
		return "A reveal is already in progress."
	case errors.Is(err, guard.ErrBusy):
		return "Previous action is still pending."
	case errors.Is(err, cipher.ErrMalformedResult):
		return "The decryption authority returned an unreadable result."
	case errors.Is(err, ErrNoResult):
		return "Nothing to reveal yet. Deploy a probe first."
	case errors.Is(err, submitter.ErrChain):
		return "Chain error: " + strings.TrimPrefix(err.Error(), submitter.ErrChain.Error()+": ")
	default:
		return err.Error()
	}
}

// FeedbackMessage maps a decrypted feedback code onto the reveal copy.
func FeedbackMessage(code int) string {
	switch code {
	case 1:
		return "Direct hit! The probe found the signal."
	case 2:
		return "So close! The signal is right next door."
	case 3:
		return "Warm. The probe picked up a faint trace."
	case 4:
		return "Cold. Empty space out here."
	default:
		return "Unreadable echo from the probe."
	}
}
