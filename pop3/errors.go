package pop3

import (
	"fmt"
)

// Structs

// ConnectionError indicates a failure of the underlying
// network connection: a refused dial, a reset socket or
// an expired read deadline while waiting for the server.
type ConnectionError struct {
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection error: %v", e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// TLSError indicates that the encrypted handshake with
// the server could not be completed, for example because
// certificate verification failed.
type TLSError struct {
	Err error
}

func (e *TLSError) Error() string {
	return fmt.Sprintf("TLS error: %v", e.Err)
}

func (e *TLSError) Unwrap() error { return e.Err }

// ProtocolError indicates that the server sent a line
// that does not fit the expected framing, such as a
// greeting that carries no status marker.
type ProtocolError struct {
	Line string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("protocol error: unexpected line %q", e.Line)
}

// NotAuthenticatedError indicates that an operation
// requiring authenticated state was attempted before a
// successful authentication exchange. No bytes have been
// written to the wire when this error is returned.
type NotAuthenticatedError struct {
	Op string
}

func (e *NotAuthenticatedError) Error() string {
	return fmt.Sprintf("operation %s requires an authenticated session", e.Op)
}

// InvalidCredentialsError indicates that the server
// rejected the supplied credentials. Detail carries the
// server's free-text explanation verbatim.
type InvalidCredentialsError struct {
	Detail string
}

func (e *InvalidCredentialsError) Error() string {
	return fmt.Sprintf("server rejected credentials: %s", e.Detail)
}

// BadServerResponseError indicates any other negative
// status reply from the server. Detail carries the
// server's free-text explanation verbatim.
type BadServerResponseError struct {
	Detail string
}

func (e *BadServerResponseError) Error() string {
	return fmt.Sprintf("server answered with error: %s", e.Detail)
}

// UnsupportedCapabilityError indicates that the server
// rejected the capability discovery command. CAPA is an
// optional extension, so this is expected on some servers.
type UnsupportedCapabilityError struct {
	Detail string
}

func (e *UnsupportedCapabilityError) Error() string {
	return fmt.Sprintf("server does not support capability discovery: %s", e.Detail)
}

// UnsupportedAuthMethodError indicates that the requested
// authentication variant is not implemented by this client.
type UnsupportedAuthMethodError struct {
	Method AuthMethod
}

func (e *UnsupportedAuthMethodError) Error() string {
	return fmt.Sprintf("authentication method %s is not supported", e.Method)
}

// ClosedConnectionError indicates that an operation was
// attempted on a session whose connection has already
// been released.
type ClosedConnectionError struct {
	Op string
}

func (e *ClosedConnectionError) Error() string {
	return fmt.Sprintf("operation %s attempted on a closed connection", e.Op)
}
