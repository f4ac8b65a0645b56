package chainrpc

import (
	"encoding/binary"
	"encoding/hex"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/crypto/sha3"

	"github.com/dmtlabs/probeseek/pkg/common/chain"
)

// Minimal ABI plumbing for the game contract's five functions. Words are
// 32 bytes; dynamic bytes are offset, length, then right-padded payload.

const wordSize = 32

func selector(signature string) []byte {
	hasher := sha3.NewLegacyKeccak256()
	hasher.Write([]byte(signature))
	return hasher.Sum(nil)[:4]
}

func addressWord(addr chain.Address) ([]byte, error) {
	raw, err := hex.DecodeString(strings.TrimPrefix(addr.String(), "0x"))
	if err != nil {
		return nil, errors.WithMessagef(err, "chainrpc: invalid address %q", addr)
	}
	if len(raw) != 20 {
		return nil, errors.Errorf("chainrpc: address must be 20 bytes, got %d", len(raw))
	}
	word := make([]byte, wordSize)
	copy(word[wordSize-len(raw):], raw)
	return word, nil
}

func hasJoinedData(account chain.Address) ([]byte, error) {
	word, err := addressWord(account)
	if err != nil {
		return nil, err
	}
	return append(selector("hasJoined(address)"), word...), nil
}

func getRoundData(account chain.Address) ([]byte, error) {
	word, err := addressWord(account)
	if err != nil {
		return nil, err
	}
	return append(selector("getRound(address)"), word...), nil
}

func getLatestResultData(account chain.Address) ([]byte, error) {
	word, err := addressWord(account)
	if err != nil {
		return nil, err
	}
	return append(selector("getLatestResult(address)"), word...), nil
}

func joinGameData() []byte {
	return selector("joinGame()")
}

func submitGuessData(handle []byte, proof []byte) ([]byte, error) {
	if len(handle) != wordSize {
		return nil, errors.Errorf("chainrpc: handle must be %d bytes, got %d", wordSize, len(handle))
	}

	data := selector("submitGuess(bytes32,bytes)")
	data = append(data, handle...)

	// Offset of the dynamic argument, counted from the start of the
	// argument block: two head words.
	offset := make([]byte, wordSize)
	binary.BigEndian.PutUint64(offset[wordSize-8:], 2*wordSize)
	data = append(data, offset...)

	length := make([]byte, wordSize)
	binary.BigEndian.PutUint64(length[wordSize-8:], uint64(len(proof)))
	data = append(data, length...)

	data = append(data, proof...)
	if pad := len(proof) % wordSize; pad != 0 {
		data = append(data, make([]byte, wordSize-pad)...)
	}
	return data, nil
}

func decodeBool(ret []byte) (bool, error) {
	if len(ret) < wordSize {
		return false, errors.Errorf("chainrpc: bool return too short: %d bytes", len(ret))
	}
	return ret[wordSize-1] != 0, nil
}

func decodeUint64(ret []byte) (uint64, error) {
	if len(ret) < wordSize {
		return 0, errors.Errorf("chainrpc: uint return too short: %d bytes", len(ret))
	}
	for _, b := range ret[:wordSize-8] {
		if b != 0 {
			return 0, errors.New("chainrpc: uint return overflows uint64")
		}
	}
	return binary.BigEndian.Uint64(ret[wordSize-8 : wordSize]), nil
}

func decodeHandle(ret []byte) (chain.Handle, error) {
	if len(ret) < wordSize {
		return chain.SentinelHandle, errors.Errorf("chainrpc: bytes32 return too short: %d bytes", len(ret))
	}
	return chain.HandleFromBytes(ret[:wordSize])
}
