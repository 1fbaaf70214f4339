// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package fluentshipper

import "net"

// transport is the capability a Sender needs from its underlying socket
// kind: dial the configured address and return a fresh stream connection.
// Modeling TCP and Unix as two implementations of one small interface (per
// spec.md §9 DESIGN NOTES: "Model the transport as a capability
// connect(addr) -> stream, write(stream, bytes) -> bytes_written") avoids
// duplicating Sender's emit/flush/reconnect logic per socket kind; the two
// transport types below are the single source of truth for address ->
// net.Conn, the
// same role the teacher's netKind table plays for address -> (Protocol,
// ByteOrder).
type transport interface {
	dial() (net.Conn, error)
	network() string
	address() string
}

type tcpTransport struct{ addr string }

func (t tcpTransport) dial() (net.Conn, error) { return net.Dial("tcp", t.addr) }
func (t tcpTransport) network() string         { return "tcp" }
func (t tcpTransport) address() string         { return t.addr }

type unixTransport struct{ path string }

func (t unixTransport) dial() (net.Conn, error) { return net.Dial("unix", t.path) }
func (t unixTransport) network() string         { return "unix" }
func (t unixTransport) address() string         { return t.path }

// TCPAddr builds a transport that dials a TCP address, e.g. "127.0.0.1:24224".
func TCPAddr(addr string) transport { return tcpTransport{addr: addr} }

// UnixAddr builds a transport that dials a Unix domain socket path.
func UnixAddr(path string) transport { return unixTransport{path: path} }
