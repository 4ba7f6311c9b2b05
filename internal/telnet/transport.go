// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 VoWmud Contributors

package telnet

import (
	"bufio"
	"net"
	"time"

	"github.com/samber/oops"
)

// connTransport is the line-oriented byte stream the authentication flow
// reads from and writes to.
type connTransport struct {
	conn        net.Conn
	reader      *bufio.Reader
	writer      *bufio.Writer
	idleTimeout time.Duration
}

func newConnTransport(conn net.Conn, idleTimeout time.Duration) *connTransport {
	return &connTransport{
		conn:        conn,
		reader:      bufio.NewReader(conn),
		writer:      bufio.NewWriter(conn),
		idleTimeout: idleTimeout,
	}
}

// Read returns the next line, newline included, truncated to max bytes.
// The rest of an overlong line is discarded. A line cut off by the peer
// closing the connection is not returned.
func (t *connTransport) Read(max int) ([]byte, error) {
	if t.idleTimeout > 0 {
		if err := t.conn.SetReadDeadline(time.Now().Add(t.idleTimeout)); err != nil {
			return nil, oops.Code("TELNET_READ_FAILED").Wrap(err)
		}
	}

	line := make([]byte, 0, max)
	for {
		b, err := t.reader.ReadByte()
		if err != nil {
			return nil, oops.Code("TELNET_READ_FAILED").Wrap(err)
		}
		if len(line) < max {
			line = append(line, b)
		}
		if b == '\n' {
			return line, nil
		}
	}
}

func (t *connTransport) Write(p []byte) error {
	if _, err := t.writer.Write(p); err != nil {
		return oops.Code("TELNET_WRITE_FAILED").Wrap(err)
	}
	return nil
}

func (t *connTransport) Flush() error {
	if err := t.writer.Flush(); err != nil {
		return oops.Code("TELNET_WRITE_FAILED").Wrap(err)
	}
	return nil
}

func (t *connTransport) PeerAddress() string {
	return t.conn.RemoteAddr().String()
}
