package pop3

import (
	"bufio"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"crypto/tls"

	"github.com/pkg/errors"
)

// Constants

// Status markers and framing symbols of the POP3 protocol.
const (
	// StatusOK starts every positive server reply.
	StatusOK = "+OK"

	// StatusErr starts every negative server reply.
	StatusErr = "-ERR"

	// MultilineEnd terminates a multi-line reply when it
	// appears as the only content of a line.
	MultilineEnd = "."
)

// Structs

// Connection carries all information specific to one
// established connection to a POP3 server. It owns the
// socket and the buffered reader on top of it and
// provides the line-oriented framing primitives that
// all higher-level operations are built on.
type Connection struct {
	conn    net.Conn
	reader  *bufio.Reader
	timeout time.Duration

	// sequence serializes complete command/response
	// exchanges. POP3 permits exactly one command in
	// flight per connection, so every exchange has to
	// span send and full response under this lock.
	sequence sync.Mutex

	// sendLock keeps concurrent writers from
	// interleaving partial command lines.
	sendLock sync.Mutex

	closeLock sync.Mutex
	closed    bool
}

// Functions

// Connect opens a connection to the POP3 server running
// at supplied host and port and consumes the mandatory
// server greeting. If a TLS config is supplied, the
// connection is encrypted before any protocol byte is
// exchanged. A timeout of zero lets reads block forever.
func Connect(host string, port string, tlsConfig *tls.Config, timeout time.Duration) (*Connection, error) {

	addr := net.JoinHostPort(host, port)

	// Dial the raw TCP connection first so that network
	// failures and handshake failures stay distinguishable.
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return nil, &ConnectionError{Err: errors.Wrapf(err, "failed to dial %s", addr)}
	}

	if tlsConfig != nil {

		// Make sure the server's certificate is checked
		// against the host we intended to reach.
		if tlsConfig.ServerName == "" {
			tlsConfig = tlsConfig.Clone()
			tlsConfig.ServerName = host
		}

		tlsConn := tls.Client(conn, tlsConfig)

		if timeout > 0 {
			_ = tlsConn.SetDeadline(time.Now().Add(timeout))
		}

		if err := tlsConn.Handshake(); err != nil {
			conn.Close()
			return nil, &TLSError{Err: errors.Wrapf(err, "TLS handshake with %s failed", addr)}
		}

		_ = tlsConn.SetDeadline(time.Time{})
		conn = tlsConn
	}

	c := &Connection{
		conn:    conn,
		reader:  bufio.NewReader(conn),
		timeout: timeout,
	}

	// The server starts the conversation with exactly one
	// greeting line that has to carry the +OK marker.
	greeting, err := c.Receive()
	if err != nil {
		c.Close()
		return nil, err
	}

	if !strings.HasPrefix(greeting, StatusOK) {
		c.Close()
		return nil, &ProtocolError{Line: greeting}
	}

	return c, nil
}

// Send takes in a command line as a string, appends the
// protocol's CRLF line ending and writes it out on the
// connection. A write-exclusion lock guarantees that
// partial lines from concurrent callers never interleave.
func (c *Connection) Send(text string) error {

	c.sendLock.Lock()
	defer c.sendLock.Unlock()

	if c.isClosed() {
		return &ClosedConnectionError{Op: "send"}
	}

	if _, err := fmt.Fprintf(c.conn, "%s\r\n", text); err != nil {
		return &ConnectionError{Err: errors.Wrap(err, "failed to send command line")}
	}

	return nil
}

// Receive wraps the main io.Reader function that awaits
// text until a newline symbol and deletes the line ending
// symbols afterwards again. It returns the resulting line.
func (c *Connection) Receive() (string, error) {

	if c.isClosed() {
		return "", &ClosedConnectionError{Op: "receive"}
	}

	if c.timeout > 0 {
		_ = c.conn.SetReadDeadline(time.Now().Add(c.timeout))
	}

	text, err := c.reader.ReadString('\n')
	if err != nil {
		return "", &ConnectionError{Err: errors.Wrap(err, "failed to receive response line")}
	}

	return strings.TrimRight(text, "\r\n"), nil
}

// ReceiveBlock reads lines until it observes the line
// consisting solely of the termination symbol and returns
// the accumulated lines joined by newline symbols, with
// the terminator excluded. Lines that were dot-stuffed by
// the server are unstuffed again.
func (c *Connection) ReceiveBlock() (string, error) {

	var lines []string

	for {

		line, err := c.Receive()
		if err != nil {
			return "", err
		}

		if line == MultilineEnd {
			break
		}

		// A content line starting with a dot had a second
		// dot prepended by the server. Remove it again.
		if strings.HasPrefix(line, "..") {
			line = line[1:]
		}

		lines = append(lines, line)
	}

	return strings.Join(lines, "\n"), nil
}

// Exchange performs one complete single-line exchange:
// it sends the supplied command and reads the status
// reply under the connection's sequence lock, so that no
// other command can be written and no stray byte can be
// read while this exchange is in flight.
func (c *Connection) Exchange(command string) (string, error) {

	c.sequence.Lock()
	defer c.sequence.Unlock()

	return c.exchange(command)
}

// ExchangeBlock performs one complete multi-line exchange
// under the sequence lock. It returns the status line and,
// if the status was positive, the following multi-line
// block. On a negative status no block is read, because
// the server sends none.
func (c *Connection) ExchangeBlock(command string) (string, string, error) {

	c.sequence.Lock()
	defer c.sequence.Unlock()

	return c.exchangeBlock(command)
}

// Close unconditionally releases the underlying socket.
// It is safe to call more than once and safe to call
// while an exchange is blocked on a read, which will then
// return a connection error to its caller.
func (c *Connection) Close() error {

	c.closeLock.Lock()
	defer c.closeLock.Unlock()

	if c.closed {
		return nil
	}

	c.closed = true

	return c.conn.Close()
}

// exchange is the lock-free variant of Exchange for
// compound operations that already hold the sequence lock.
func (c *Connection) exchange(command string) (string, error) {

	if err := c.Send(command); err != nil {
		return "", err
	}

	return c.Receive()
}

// exchangeBlock is the lock-free variant of ExchangeBlock
// for compound operations that already hold the sequence lock.
func (c *Connection) exchangeBlock(command string) (string, string, error) {

	status, err := c.exchange(command)
	if err != nil {
		return "", "", err
	}

	if !strings.HasPrefix(status, StatusOK) {
		return status, "", nil
	}

	block, err := c.ReceiveBlock()
	if err != nil {
		return status, "", err
	}

	return status, block, nil
}

// isClosed reports whether Close has been called.
func (c *Connection) isClosed() bool {

	c.closeLock.Lock()
	defer c.closeLock.Unlock()

	return c.closed
}

// detail strips the error marker off a negative status
// line so that only the server's free-text part remains.
func detail(status string) string {
	return strings.TrimSpace(strings.TrimPrefix(status, StatusErr))
}
