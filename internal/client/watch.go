package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/kgellert/hodatay-groups/internal/ws"
)

// Subscription names a live query and its arguments.
type Subscription struct {
	Query string
	Args  ws.QueryArgs
}

// Watch subscribes to sub and calls fn with every result until ctx is
// cancelled, the server closes the socket, or fn returns an error.
func (c *Client) Watch(ctx context.Context, sub Subscription, fn func(data json.RawMessage) error) error {
	const subID = "watch"

	wsURL, err := c.wsURL()
	if err != nil {
		return err
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", wsURL, err)
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() {
		_ = conn.Close()
	})
	defer stop()

	if err := conn.WriteJSON(ws.ClientFrame{
		Type:  ws.FrameSubscribe,
		ID:    subID,
		Query: sub.Query,
		Args:  sub.Args,
	}); err != nil {
		return err
	}

	for {
		var frame ws.ServerFrame
		if err := conn.ReadJSON(&frame); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return nil
			}
			return err
		}

		switch frame.Type {
		case ws.FrameResult:
			if err := fn(frame.Data); err != nil {
				return err
			}
		case ws.FrameError:
			apiErr := &APIError{}
			if frame.Error != nil {
				apiErr.Code = frame.Error.Code
				apiErr.Message = frame.Error.Message
			}
			return apiErr
		}
	}
}

func (c *Client) wsURL() (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", err
	}

	switch strings.ToLower(u.Scheme) {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws"

	return u.String(), nil
}
