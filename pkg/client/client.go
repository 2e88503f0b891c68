// Package client sends a single command to a running daemon.
package client

import (
	"context"
	"fmt"
	"io"
	"net"
	"time"
)

const DefaultTimeout = 2 * time.Minute

type Client struct {
	addr    string
	timeout time.Duration
}

func New(addr string, timeout time.Duration) Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return Client{addr: addr, timeout: timeout}
}

// Send writes command, closes the write side and returns everything the daemon
// replies before it closes the connection. An unknown command yields an empty reply.
func (c Client) Send(ctx context.Context, command string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", c.addr)
	if err != nil {
		return "", fmt.Errorf("failed to connect to %s: %w", c.addr, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	}

	if _, err := io.WriteString(conn, command); err != nil {
		return "", fmt.Errorf("failed to send command: %w", err)
	}
	if tcp, ok := conn.(*net.TCPConn); ok {
		tcp.CloseWrite()
	}

	b, err := io.ReadAll(conn)
	if err != nil {
		return string(b), fmt.Errorf("failed to read response: %w", err)
	}
	return string(b), nil
}

func (c Client) Status(ctx context.Context) (string, error) {
	return c.Send(ctx, "send-status")
}

func (c Client) Watchlist(ctx context.Context) (string, error) {
	return c.Send(ctx, "show-watchlist")
}

func (c Client) Login(ctx context.Context, user, secret string) (string, error) {
	return c.Send(ctx, "login:"+user+":"+secret)
}

func (c Client) Refresh(ctx context.Context) (string, error) {
	return c.Send(ctx, "refresh")
}
