/*
Package pop3 implements a client for the Post Office Protocol version 3: connection
and session lifecycle, line-oriented command/response framing, multi-line block
termination, authentication, and the authenticated mailbox operations.

POP3 is a non-pipelined, stateful protocol, so a session permits exactly one
command in flight on the wire at any time. Every operation that talks to the
server runs under one session-wide sequence lock spanning the sent command and
its complete response, including any multi-line continuation and any follow-up
command such as delete-after-fetch. Concurrent callers on one session are safe,
their operations execute strictly one after another. Callers wanting parallel
fetches need multiple independent connections.

There is no automatic retry, backoff or reconnection anywhere in this package.
A failed exchange leaves the session in a well-defined but possibly unusable
state that the caller has to recover explicitly, usually by reconnecting.

Please refer to https://tools.ietf.org/html/rfc1939 for the full POP3 RFC and
https://tools.ietf.org/html/rfc2449 for the CAPA extension mechanism.
*/
package pop3
