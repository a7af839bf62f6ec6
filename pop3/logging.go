package pop3

import (
	"github.com/emersion/go-message"
	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
)

// Interfaces

// Service defines the mailbox operations a session
// provides. Session implements it, and decorators such
// as the logging service wrap it.
type Service interface {

	// Authenticate runs the selected credential exchange
	// and on success transitions the session into
	// authenticated state.
	Authenticate(method AuthMethod, username string, secret string) error

	// Capabilities returns the server's capability list,
	// fetched once per session and cached afterwards.
	Capabilities() ([]string, error)

	// Supports performs a case-insensitive membership
	// test against the capability list.
	Supports(name string) (bool, error)

	// List returns one MessageInfo per mailbox entry.
	List() ([]MessageInfo, error)

	// MessageNumbers returns the message numbers of all
	// mailbox entries, in server order.
	MessageNumbers() ([]uint, error)

	// Fetch retrieves and assembles one message,
	// optionally deleting it right after retrieval.
	Fetch(number uint, options FetchOptions, deleteAfter bool) (*message.Entity, error)

	// FetchAll retrieves the supplied messages, or all
	// messages if numbers is nil, strictly sequentially.
	FetchAll(numbers []uint, options FetchOptions, deleteAfter bool) ([]*message.Entity, error)

	// Delete marks one message as deleted on the server.
	Delete(number uint) error

	// Noop sends the keepalive command.
	Noop() error

	// Reset unmarks all messages marked as deleted.
	Reset() error

	// Quit ends the authenticated part of the session.
	Quit() error

	// Close unconditionally releases the connection.
	Close() error
}

// Structs

type loggingService struct {
	logger  log.Logger
	service Service
}

// Functions

// NewLoggingService wraps a provided existing
// service with the provided logger.
func NewLoggingService(s Service, logger log.Logger) Service {
	return &loggingService{logger, s}
}

// Authenticate wraps this service's Authenticate method
// with added logging capabilities.
func (s *loggingService) Authenticate(method AuthMethod, username string, secret string) error {

	err := s.service.Authenticate(method, username, secret)

	logger := log.With(s.logger,
		"method", "AUTHENTICATE",
		"mechanism", method.String(),
		"user", username,
	)

	if err != nil {
		level.Info(logger).Log("msg", "failed to authenticate session", "err", err)
	} else {
		level.Debug(logger).Log()
	}

	return err
}

// Capabilities wraps this service's Capabilities method
// with added logging capabilities.
func (s *loggingService) Capabilities() ([]string, error) {

	caps, err := s.service.Capabilities()

	logger := log.With(s.logger, "method", "CAPA")

	if err != nil {
		level.Info(logger).Log("msg", "failed to discover capabilities", "err", err)
	} else {
		level.Debug(logger).Log("count", len(caps))
	}

	return caps, err
}

// Supports wraps this service's Supports method with
// added logging capabilities.
func (s *loggingService) Supports(name string) (bool, error) {

	ok, err := s.service.Supports(name)

	logger := log.With(s.logger,
		"method", "CAPA",
		"capability", name,
	)

	if err != nil {
		level.Info(logger).Log("msg", "failed to check capability", "err", err)
	} else {
		level.Debug(logger).Log("supported", ok)
	}

	return ok, err
}

// List wraps this service's List method with added
// logging capabilities.
func (s *loggingService) List() ([]MessageInfo, error) {

	infos, err := s.service.List()

	logger := log.With(s.logger, "method", "LIST")

	if err != nil {
		level.Info(logger).Log("msg", "failed to list mailbox", "err", err)
	} else {
		level.Debug(logger).Log("messages", len(infos))
	}

	return infos, err
}

// MessageNumbers wraps this service's MessageNumbers
// method with added logging capabilities.
func (s *loggingService) MessageNumbers() ([]uint, error) {

	numbers, err := s.service.MessageNumbers()

	logger := log.With(s.logger, "method", "LIST")

	if err != nil {
		level.Info(logger).Log("msg", "failed to list message numbers", "err", err)
	} else {
		level.Debug(logger).Log("messages", len(numbers))
	}

	return numbers, err
}

// Fetch wraps this service's Fetch method with added
// logging capabilities.
func (s *loggingService) Fetch(number uint, options FetchOptions, deleteAfter bool) (*message.Entity, error) {

	msg, err := s.service.Fetch(number, options, deleteAfter)

	logger := log.With(s.logger,
		"method", "RETR",
		"message", number,
		"headersOnly", options == FetchHeadersOnly,
		"deleteAfter", deleteAfter,
	)

	if err != nil {
		level.Info(logger).Log("msg", "failed to fetch message", "err", err)
	} else {
		level.Debug(logger).Log()
	}

	return msg, err
}

// FetchAll wraps this service's FetchAll method with
// added logging capabilities.
func (s *loggingService) FetchAll(numbers []uint, options FetchOptions, deleteAfter bool) ([]*message.Entity, error) {

	msgs, err := s.service.FetchAll(numbers, options, deleteAfter)

	logger := log.With(s.logger,
		"method", "RETR",
		"headersOnly", options == FetchHeadersOnly,
		"deleteAfter", deleteAfter,
	)

	if err != nil {
		level.Info(logger).Log("msg", "failed to fetch messages", "err", err)
	} else {
		level.Debug(logger).Log("messages", len(msgs))
	}

	return msgs, err
}

// Delete wraps this service's Delete method with added
// logging capabilities.
func (s *loggingService) Delete(number uint) error {

	err := s.service.Delete(number)

	logger := log.With(s.logger,
		"method", "DELE",
		"message", number,
	)

	if err != nil {
		level.Info(logger).Log("msg", "failed to delete message", "err", err)
	} else {
		level.Debug(logger).Log()
	}

	return err
}

// Noop wraps this service's Noop method with added
// logging capabilities.
func (s *loggingService) Noop() error {

	err := s.service.Noop()

	if err != nil {
		level.Info(log.With(s.logger, "method", "NOOP")).Log("msg", "failed to send keepalive", "err", err)
	}

	return err
}

// Reset wraps this service's Reset method with added
// logging capabilities.
func (s *loggingService) Reset() error {

	err := s.service.Reset()

	if err != nil {
		level.Info(log.With(s.logger, "method", "RSET")).Log("msg", "failed to reset deletion marks", "err", err)
	}

	return err
}

// Quit wraps this service's Quit method with added
// logging capabilities.
func (s *loggingService) Quit() error {

	err := s.service.Quit()

	logger := log.With(s.logger, "method", "QUIT")

	if err != nil {
		level.Info(logger).Log("msg", "failed to end session", "err", err)
	} else {
		level.Debug(logger).Log()
	}

	return err
}

// Close wraps this service's Close method with added
// logging capabilities.
func (s *loggingService) Close() error {

	err := s.service.Close()

	if err != nil {
		level.Info(s.logger).Log("msg", "failed to close connection", "err", err)
	}

	return err
}
