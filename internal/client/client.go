// Package client is a minimal TCP dispatcher for cmd/ignite-cli: it opens
// one connection, sends one framed command, reads one reply, per
// spec.md §6's "a connection may carry many request/reply pairs" contract
// (the CLI just happens to use one pair per invocation).
package client

import (
	"bufio"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/ignitekv/ignite/internal/protocol"
)

// Client is a single-shot dispatcher to one IgniteKV server.
type Client struct {
	addr    string
	timeout time.Duration
}

// New builds a Client targeting host:port.
func New(host string, port int, timeout time.Duration) *Client {
	return &Client{addr: net.JoinHostPort(host, fmt.Sprintf("%d", port)), timeout: timeout}
}

func (c *Client) send(line string) (string, error) {
	conn, err := net.DialTimeout("tcp", c.addr, c.timeout)
	if err != nil {
		return "", err
	}
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(c.timeout))

	if _, err := conn.Write([]byte(line + "\n")); err != nil {
		return "", err
	}
	reply, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSuffix(reply, "\n"), nil
}

// Put sends a PUT command.
func (c *Client) Put(key, value string) (string, error) {
	return c.send("PUT " + key + " " + string(protocol.Escape([]byte(value))))
}

// BatchPut sends a BATCHPUT command.
func (c *Client) BatchPut(keys, values []string) (string, error) {
	escaped := make([]string, len(values))
	for i, v := range values {
		escaped[i] = string(protocol.Escape([]byte(v)))
	}
	return c.send("BATCHPUT " + strings.Join(keys, protocol.BatchSeparator) + " " + strings.Join(escaped, protocol.BatchSeparator))
}

// Read sends a READ command.
func (c *Client) Read(key string) (string, error) {
	return c.send("READ " + key)
}

// ReadRange sends a READRANGE command.
func (c *Client) ReadRange(start, end string) (string, error) {
	return c.send("READRANGE " + start + " " + end)
}

// Delete sends a DELETE command.
func (c *Client) Delete(key string) (string, error) {
	return c.send("DELETE " + key)
}
