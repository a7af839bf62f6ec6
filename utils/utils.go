package utils

import (
	"bufio"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"crypto/tls"
)

// Structs

// Step describes one exchange of a scripted POP3
// conversation: the command line the server expects to
// read next and the reply lines it sends back.
type Step struct {
	// Expect documents the command this step answers.
	// The server reads exactly one line for every step
	// and records it for later inspection.
	Expect string

	// Reply holds the lines sent back to the client,
	// each terminated with CRLF on the wire.
	Reply []string

	// Delay, if set, pauses the server between the first
	// reply line and the remaining ones. Tests use it to
	// try to provoke interleaving of concurrent callers.
	Delay time.Duration
}

// TestServer is a scripted POP3 server for tests. It
// accepts a single connection, sends the greeting, then
// walks its script: read one line, send the reply lines,
// repeat. Everything the client sent can be inspected
// afterwards via Received.
type TestServer struct {
	Addr string

	listener net.Listener
	greeting string
	steps    []Step

	lock     sync.Mutex
	received []string

	done chan struct{}
}

// Functions

// NewTestServer starts a scripted POP3 server on a free
// loopback port, speaking plain text.
func NewTestServer(greeting string, steps []Step) (*TestServer, error) {

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("[utils.NewTestServer] Failed to listen on loopback address: %s\n", err.Error())
	}

	return serveScript(listener, greeting, steps), nil
}

// NewTLSTestServer starts a scripted POP3 server on a
// free loopback port, speaking TLS with the supplied
// server-side config.
func NewTLSTestServer(greeting string, steps []Step, tlsConfig *tls.Config) (*TestServer, error) {

	listener, err := tls.Listen("tcp", "127.0.0.1:0", tlsConfig)
	if err != nil {
		return nil, fmt.Errorf("[utils.NewTLSTestServer] Failed to listen on loopback address: %s\n", err.Error())
	}

	return serveScript(listener, greeting, steps), nil
}

// Host returns the host part of the server's address.
func (s *TestServer) Host() string {
	host, _, _ := net.SplitHostPort(s.Addr)
	return host
}

// Port returns the port part of the server's address.
func (s *TestServer) Port() string {
	_, port, _ := net.SplitHostPort(s.Addr)
	return port
}

// Received returns the command lines the client sent so
// far, in arrival order.
func (s *TestServer) Received() []string {

	s.lock.Lock()
	defer s.lock.Unlock()

	return append([]string(nil), s.received...)
}

// WaitDone blocks until the server has walked its
// complete script or the supplied duration has passed.
func (s *TestServer) WaitDone(d time.Duration) bool {

	select {
	case <-s.done:
		return true
	case <-time.After(d):
		return false
	}
}

// Close shuts the listener down. An accepted connection
// is closed by the serving goroutine when the script has
// been walked or the client went away.
func (s *TestServer) Close() {
	s.listener.Close()
}

// serveScript runs the scripted conversation on the
// first accepted connection in a background goroutine.
func serveScript(listener net.Listener, greeting string, steps []Step) *TestServer {

	s := &TestServer{
		Addr:     listener.Addr().String(),
		listener: listener,
		greeting: greeting,
		steps:    steps,
		done:     make(chan struct{}),
	}

	go func() {

		defer close(s.done)

		conn, err := s.listener.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		if _, err := fmt.Fprintf(conn, "%s\r\n", s.greeting); err != nil {
			return
		}

		reader := bufio.NewReader(conn)

		for _, step := range s.steps {

			if step.Expect != "" {

				line, err := reader.ReadString('\n')
				if err != nil {
					return
				}

				s.lock.Lock()
				s.received = append(s.received, strings.TrimRight(line, "\r\n"))
				s.lock.Unlock()
			}

			for i, reply := range step.Reply {

				if i == 1 && step.Delay > 0 {
					time.Sleep(step.Delay)
				}

				if _, err := fmt.Fprintf(conn, "%s\r\n", reply); err != nil {
					return
				}
			}
		}
	}()

	return s
}
