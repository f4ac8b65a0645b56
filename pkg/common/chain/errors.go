package chain

import "errors"

var (
	// ErrRejected is returned (or wrapped) by signers and writers when the
	// wallet user declines a prompt.
	ErrRejected = errors.New("chain: request rejected by wallet")

	// ErrNotConfigured is returned when no contract address is configured.
	ErrNotConfigured = errors.New("chain: contract not configured")
)
