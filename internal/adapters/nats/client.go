package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

// RemoteError is a failure reported by a remote responder.
type RemoteError struct {
	ErrorReply
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote %s (%d): %s", e.Code, e.Status, e.Message)
}

// Client sends coverage requests to a Responder.
type Client struct {
	conn    *nats.Conn
	subject string
	timeout time.Duration
}

// NewClient creates a client publishing to subject.
func NewClient(conn *nats.Conn, subject string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{conn: conn, subject: subject, timeout: timeout}
}

// Coverage sends a raw coverage request body and returns the raw
// CoverageResponse JSON.
func (c *Client) Coverage(ctx context.Context, body []byte) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	msg, err := c.conn.RequestWithContext(ctx, c.subject, body)
	if err != nil {
		return nil, fmt.Errorf("nats request %s: %w", c.subject, err)
	}
	if msg.Header.Get(ErrorCodeHeader) != "" {
		var reply ErrorReply
		if err := json.Unmarshal(msg.Data, &reply); err != nil {
			return nil, fmt.Errorf("decode error reply: %w", err)
		}
		return nil, &RemoteError{ErrorReply: reply}
	}
	return msg.Data, nil
}
