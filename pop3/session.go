package pop3

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"crypto/tls"

	"github.com/emersion/go-message"
)

// Constants

// Integer counter for session states.
const (
	StateDisconnected State = iota
	StateConnected
	StateAuthenticated
)

// Structs

// State represents the integer value associated with one
// of the implemented session states a connection can be in.
type State int

// Session contains all elements needed for tracking and
// performing the actual POP3 operations against one
// server connection. All shared mutable state of the
// session, the state flag and the capability cache, is
// guarded by the connection's sequence lock.
type Session struct {
	conn      *Connection
	state     State
	caps      []string
	assembler Assembler
}

// Functions

// Dial connects to the POP3 server running at supplied
// host and port and returns a session in connected state.
// A non-nil TLS config selects an encrypted connection.
func Dial(host string, port string, tlsConfig *tls.Config, timeout time.Duration) (*Session, error) {

	conn, err := Connect(host, port, tlsConfig, timeout)
	if err != nil {
		return nil, err
	}

	return NewSession(conn), nil
}

// NewSession wraps an established connection into a
// session in connected state with the default message
// assembler attached.
func NewSession(conn *Connection) *Session {

	return &Session{
		conn:      conn,
		state:     StateConnected,
		assembler: NewAssembler(),
	}
}

// SetAssembler replaces the assembler used to turn
// fetched raw text into structured messages.
func (s *Session) SetAssembler(assembler Assembler) {

	s.conn.sequence.Lock()
	defer s.conn.sequence.Unlock()

	s.assembler = assembler
}

// State returns the current session state.
func (s *Session) State() State {

	s.conn.sequence.Lock()
	defer s.conn.sequence.Unlock()

	return s.state
}

// Authenticate runs the selected credential exchange and
// on success transitions the session into authenticated
// state. On failure the session stays in connected state
// and the specific error is returned. Calling it on an
// already authenticated session is a no-op.
func (s *Session) Authenticate(method AuthMethod, username string, secret string) error {

	s.conn.sequence.Lock()
	defer s.conn.sequence.Unlock()

	if s.conn.isClosed() || s.state == StateDisconnected {
		return &ClosedConnectionError{Op: "authenticate"}
	}

	if s.state == StateAuthenticated {
		return nil
	}

	if err := authenticate(s.conn, method, username, secret); err != nil {
		return err
	}

	s.state = StateAuthenticated

	return nil
}

// Capabilities sends the optional CAPA command and
// returns the server's capability list with each entry
// folded to upper case. The list is fetched once per
// session and cached for its lifetime, only a reconnect
// invalidates it. Callable in connected and in
// authenticated state.
func (s *Session) Capabilities() ([]string, error) {

	s.conn.sequence.Lock()
	defer s.conn.sequence.Unlock()

	return s.capabilities()
}

// Supports performs a case-insensitive membership test
// against the capability list, triggering discovery if
// the list has not been fetched yet.
func (s *Session) Supports(name string) (bool, error) {

	s.conn.sequence.Lock()
	defer s.conn.sequence.Unlock()

	caps, err := s.capabilities()
	if err != nil {
		return false, err
	}

	name = strings.ToUpper(name)

	for _, capability := range caps {
		if capability == name {
			return true, nil
		}
	}

	return false, nil
}

// List issues the mailbox listing command and returns one
// MessageInfo per well-formed response line. Lines that
// do not carry a number and a size are skipped.
func (s *Session) List() ([]MessageInfo, error) {

	s.conn.sequence.Lock()
	defer s.conn.sequence.Unlock()

	return s.list()
}

// MessageNumbers issues the mailbox listing command and
// returns only the message numbers, in server order.
func (s *Session) MessageNumbers() ([]uint, error) {

	s.conn.sequence.Lock()
	defer s.conn.sequence.Unlock()

	return s.messageNumbers()
}

// Fetch retrieves the message with the supplied number
// and hands the raw text to the assembler. FetchHeadersOnly
// retrieves only the header section via TOP, FetchNormal
// the complete message via RETR. With deleteAfter set the
// message is deleted right after retrieval, inside the
// same locked exchange, so no other command can slip in
// between retrieve and delete.
func (s *Session) Fetch(number uint, options FetchOptions, deleteAfter bool) (*message.Entity, error) {

	raw, err := s.fetchRaw(number, options, deleteAfter)
	if err != nil {
		return nil, err
	}

	if options == FetchHeadersOnly {
		return s.assembler.AssembleHeaders(raw)
	}

	return s.assembler.Assemble(raw)
}

// FetchAll retrieves the messages with the supplied
// numbers, or every message in the mailbox if numbers is
// nil, strictly one after the other in the given order.
// The protocol permits one command at a time per
// connection, callers wanting parallel fetches need
// multiple independent connections.
func (s *Session) FetchAll(numbers []uint, options FetchOptions, deleteAfter bool) ([]*message.Entity, error) {

	if numbers == nil {

		resolved, err := s.MessageNumbers()
		if err != nil {
			return nil, err
		}

		numbers = resolved
	}

	msgs := make([]*message.Entity, 0, len(numbers))

	for _, number := range numbers {

		msg, err := s.Fetch(number, options, deleteAfter)
		if err != nil {
			return nil, err
		}

		msgs = append(msgs, msg)
	}

	return msgs, nil
}

// Delete marks the message with the supplied number as
// deleted on the server.
func (s *Session) Delete(number uint) error {

	s.conn.sequence.Lock()
	defer s.conn.sequence.Unlock()

	if err := s.requireAuthenticated("delete"); err != nil {
		return err
	}

	return s.deleteLocked(number)
}

// Noop sends the keepalive command. Servers reset their
// inactivity autologout timer on it.
func (s *Session) Noop() error {

	s.conn.sequence.Lock()
	defer s.conn.sequence.Unlock()

	if err := s.requireAuthenticated("noop"); err != nil {
		return err
	}

	status, err := s.conn.exchange("NOOP")
	if err != nil {
		return err
	}

	if !strings.HasPrefix(status, StatusOK) {
		return &BadServerResponseError{Detail: detail(status)}
	}

	return nil
}

// Reset unmarks all messages that were marked as deleted
// during this session.
func (s *Session) Reset() error {

	s.conn.sequence.Lock()
	defer s.conn.sequence.Unlock()

	if err := s.requireAuthenticated("reset"); err != nil {
		return err
	}

	status, err := s.conn.exchange("RSET")
	if err != nil {
		return err
	}

	if !strings.HasPrefix(status, StatusOK) {
		return &BadServerResponseError{Detail: detail(status)}
	}

	return nil
}

// Quit ends the authenticated part of the session. It is
// a no-op when the session is not authenticated. On a
// positive reply the session transitions to disconnected
// state, the server is expected to close the connection.
func (s *Session) Quit() error {

	s.conn.sequence.Lock()
	defer s.conn.sequence.Unlock()

	if s.conn.isClosed() {
		return &ClosedConnectionError{Op: "quit"}
	}

	if s.state != StateAuthenticated {
		return nil
	}

	status, err := s.conn.exchange("QUIT")
	if err != nil {
		return err
	}

	if !strings.HasPrefix(status, StatusOK) {
		return &BadServerResponseError{Detail: detail(status)}
	}

	s.state = StateDisconnected

	return nil
}

// Close unconditionally releases the underlying socket.
// Any operation invoked afterwards fails with a closed
// connection error, the session never silently reconnects.
func (s *Session) Close() error {

	err := s.conn.Close()

	s.conn.sequence.Lock()
	s.state = StateDisconnected
	s.conn.sequence.Unlock()

	return err
}

// requireAuthenticated fails fast, before any network
// I/O, unless the session is in authenticated state.
// Callers must hold the sequence lock.
func (s *Session) requireAuthenticated(op string) error {

	if s.conn.isClosed() || s.state == StateDisconnected {
		return &ClosedConnectionError{Op: op}
	}

	if s.state != StateAuthenticated {
		return &NotAuthenticatedError{Op: op}
	}

	return nil
}

// capabilities implements capability discovery for
// callers already holding the sequence lock.
func (s *Session) capabilities() ([]string, error) {

	if s.conn.isClosed() || s.state == StateDisconnected {
		return nil, &ClosedConnectionError{Op: "capabilities"}
	}

	if s.caps != nil {
		return append([]string(nil), s.caps...), nil
	}

	status, block, err := s.conn.exchangeBlock("CAPA")
	if err != nil {
		return nil, err
	}

	// CAPA is an optional extension, a server may
	// legitimately reject it.
	if !strings.HasPrefix(status, StatusOK) {
		return nil, &UnsupportedCapabilityError{Detail: detail(status)}
	}

	caps := []string{}

	if block != "" {
		for _, line := range strings.Split(block, "\n") {
			caps = append(caps, strings.ToUpper(line))
		}
	}

	s.caps = caps

	return append([]string(nil), s.caps...), nil
}

// list implements the mailbox listing for callers
// already holding the sequence lock.
func (s *Session) list() ([]MessageInfo, error) {

	if err := s.requireAuthenticated("list"); err != nil {
		return nil, err
	}

	status, block, err := s.conn.exchangeBlock("LIST")
	if err != nil {
		return nil, err
	}

	if !strings.HasPrefix(status, StatusOK) {
		return nil, &BadServerResponseError{Detail: detail(status)}
	}

	infos := []MessageInfo{}

	if block == "" {
		return infos, nil
	}

	for _, line := range strings.Split(block, "\n") {

		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}

		number, err := strconv.ParseUint(fields[0], 10, 0)
		if err != nil {
			continue
		}

		size, err := strconv.ParseUint(fields[1], 10, 64)
		if err != nil {
			continue
		}

		infos = append(infos, MessageInfo{
			Number: uint(number),
			Size:   size,
		})
	}

	return infos, nil
}

// messageNumbers extracts only the number field of each
// listing entry. Callers must hold the sequence lock.
func (s *Session) messageNumbers() ([]uint, error) {

	infos, err := s.list()
	if err != nil {
		return nil, err
	}

	numbers := make([]uint, len(infos))
	for i, info := range infos {
		numbers[i] = info.Number
	}

	return numbers, nil
}

// fetchRaw performs the locked wire part of a fetch:
// retrieve exchange plus, if requested, the follow-up
// delete, as one atomic unit under the sequence lock.
func (s *Session) fetchRaw(number uint, options FetchOptions, deleteAfter bool) (string, error) {

	s.conn.sequence.Lock()
	defer s.conn.sequence.Unlock()

	if err := s.requireAuthenticated("fetch"); err != nil {
		return "", err
	}

	command := fmt.Sprintf("RETR %d", number)
	if options == FetchHeadersOnly {
		command = fmt.Sprintf("TOP %d 0", number)
	}

	status, block, err := s.conn.exchangeBlock(command)
	if err != nil {
		return "", err
	}

	if !strings.HasPrefix(status, StatusOK) {
		return "", &BadServerResponseError{Detail: detail(status)}
	}

	if deleteAfter {
		if err := s.deleteLocked(number); err != nil {
			return "", err
		}
	}

	return block, nil
}

// deleteLocked issues the delete command. Callers must
// hold the sequence lock.
func (s *Session) deleteLocked(number uint) error {

	status, err := s.conn.exchange(fmt.Sprintf("DELE %d", number))
	if err != nil {
		return err
	}

	if !strings.HasPrefix(status, StatusOK) {
		return &BadServerResponseError{Detail: detail(status)}
	}

	return nil
}
