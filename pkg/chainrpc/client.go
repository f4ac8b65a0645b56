package chainrpc

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"

	"github.com/dmtlabs/probeseek/pkg/common/chain"
	com_signer "github.com/dmtlabs/probeseek/pkg/common/signer"
)

// receiptPollInterval paces Tx confirmation polling.
const receiptPollInterval = 2 * time.Second

// Client reads the game contract over Ethereum JSON-RPC. It implements the
// contract's read surface with eth_call and produces writers that delegate
// submission to the connected wallet's transaction sender.
type Client struct {
	endpoint string
	contract chain.Address
	httpc    *http.Client
	logger   *slog.Logger
	nextID   atomic.Uint64
}

func New(endpoint string, contract chain.Address, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		endpoint: endpoint,
		contract: contract,
		httpc:    &http.Client{},
		logger:   logger,
	}
}

func (c *Client) Contract() chain.Address {
	return c.contract
}

func (c *Client) HasJoined(ctx context.Context, account chain.Address) (bool, error) {
	data, err := hasJoinedData(account)
	if err != nil {
		return false, err
	}
	ret, err := c.ethCall(ctx, data)
	if err != nil {
		return false, err
	}
	return decodeBool(ret)
}

func (c *Client) GetRound(ctx context.Context, account chain.Address) (uint64, error) {
	data, err := getRoundData(account)
	if err != nil {
		return 0, err
	}
	ret, err := c.ethCall(ctx, data)
	if err != nil {
		return 0, err
	}
	return decodeUint64(ret)
}

func (c *Client) GetLatestResult(ctx context.Context, account chain.Address) (chain.Handle, error) {
	data, err := getLatestResultData(account)
	if err != nil {
		return chain.SentinelHandle, err
	}
	ret, err := c.ethCall(ctx, data)
	if err != nil {
		return chain.SentinelHandle, err
	}
	return decodeHandle(ret)
}

// NewWriter returns a contract writer for s. The signer must also be a
// transaction sender; writers for signing-only wallets fail on use.
func (c *Client) NewWriter(s com_signer.Signer) chain.ContractWriter {
	sender, _ := s.(com_signer.TxSender)
	return &rpcWriter{client: c, sender: sender}
}

type rpcWriter struct {
	client *Client
	sender com_signer.TxSender
}

func (w *rpcWriter) JoinGame(ctx context.Context) (chain.Tx, error) {
	return w.send(ctx, joinGameData())
}

func (w *rpcWriter) SubmitGuess(ctx context.Context, handle []byte, proof []byte) (chain.Tx, error) {
	data, err := submitGuessData(handle, proof)
	if err != nil {
		return nil, err
	}
	return w.send(ctx, data)
}

func (w *rpcWriter) send(ctx context.Context, calldata []byte) (chain.Tx, error) {
	if w.sender == nil {
		return nil, errors.New("chainrpc: signer cannot send transactions")
	}
	return w.sender.SendTransaction(ctx, w.client.contract, calldata)
}

// WaitMined polls for the transaction receipt until it lands or ctx expires.
// A reverted transaction is reported as an error.
func (c *Client) WaitMined(ctx context.Context, txHash string) error {
	ticker := time.NewTicker(receiptPollInterval)
	defer ticker.Stop()
	for {
		var receipt struct {
			Status string `json:"status"`
		}
		raw, err := c.call(ctx, "eth_getTransactionReceipt", txHash)
		if err != nil {
			return err
		}
		if !bytes.Equal(raw, []byte("null")) {
			if err := json.Unmarshal(raw, &receipt); err != nil {
				return errors.WithMessage(err, "chainrpc: undecodable receipt")
			}
			if receipt.Status == "0x0" {
				return errors.Errorf("chainrpc: transaction %s reverted", txHash)
			}
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (c *Client) ethCall(ctx context.Context, calldata []byte) ([]byte, error) {
	params := []interface{}{
		map[string]string{
			"to":   c.contract.String(),
			"data": "0x" + hex.EncodeToString(calldata),
		},
		"latest",
	}
	raw, err := c.call(ctx, "eth_call", params...)
	if err != nil {
		return nil, err
	}
	var retHex string
	if err := json.Unmarshal(raw, &retHex); err != nil {
		return nil, errors.WithMessage(err, "chainrpc: eth_call returned non-string result")
	}
	ret, err := hex.DecodeString(strings.TrimPrefix(retHex, "0x"))
	if err != nil {
		return nil, errors.WithMessage(err, "chainrpc: eth_call returned invalid hex")
	}
	return ret, nil
}

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (c *Client) call(ctx context.Context, method string, params ...interface{}) (json.RawMessage, error) {
	if params == nil {
		params = []interface{}{}
	}
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      c.nextID.Add(1),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, errors.WithMessagef(err, "chainrpc: %s request failed", method)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.WithMessagef(err, "chainrpc: reading %s response", method)
	}
	var decoded rpcResponse
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return nil, errors.WithMessagef(err, "chainrpc: undecodable %s response", method)
	}
	if decoded.Error != nil {
		return nil, errors.Errorf("chainrpc: %s failed: %s (code %d)", method, decoded.Error.Message, decoded.Error.Code)
	}
	return decoded.Result, nil
}
