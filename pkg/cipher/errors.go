package cipher

import "errors"

var (
	// ErrDecryptInFlight is returned when a decrypt request arrives while
	// another one is outstanding. The duplicate is dropped, never queued.
	ErrDecryptInFlight = errors.New("cipher: decryption already in flight")

	// ErrMalformedResult is returned when the decryption authority's
	// response carries no parseable integer for the requested handle.
	ErrMalformedResult = errors.New("cipher: malformed decryption result")
)
