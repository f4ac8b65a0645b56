package chainrpc

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
)

// HeadWatcher subscribes to new block headers over a websocket endpoint and
// invokes a callback per head. The game client uses it as a refresh trigger
// between transactions.
type HeadWatcher struct {
	endpoint string
	logger   *slog.Logger
}

func NewHeadWatcher(endpoint string, logger *slog.Logger) *HeadWatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &HeadWatcher{endpoint: endpoint, logger: logger}
}

// Run connects, subscribes to newHeads and calls onHead for every header
// until ctx is cancelled or the connection drops.
func (w *HeadWatcher) Run(ctx context.Context, onHead func()) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, w.endpoint, nil)
	if err != nil {
		return errors.WithMessagef(err, "chainrpc: dialing %s", w.endpoint)
	}
	defer conn.Close()

	sub := rpcRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "eth_subscribe",
		Params:  []interface{}{"newHeads"},
	}
	if err := conn.WriteJSON(sub); err != nil {
		return errors.WithMessage(err, "chainrpc: sending subscription")
	}

	// Unblock the read loop when the caller gives up.
	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	var acked bool
	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return errors.WithMessage(err, "chainrpc: subscription read")
		}

		if !acked {
			var ack rpcResponse
			if err := json.Unmarshal(payload, &ack); err == nil && ack.Error != nil {
				return errors.Errorf("chainrpc: subscription refused: %s", ack.Error.Message)
			}
			acked = true
			continue
		}

		w.logger.Debug("new head observed")
		onHead()
	}
}
