package pop3_test

import (
	"testing"

	"github.com/emersion/go-message"
	"github.com/go-kit/kit/log"
	"github.com/go-pluto/mailfetch/pop3"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

// Structs

// recordingService counts calls and returns canned values
// so the decorator's passthrough behavior can be checked.
type recordingService struct {
	calls map[string]int
	err   error
}

func newRecordingService(err error) *recordingService {
	return &recordingService{calls: make(map[string]int), err: err}
}

func (s *recordingService) Authenticate(method pop3.AuthMethod, username string, secret string) error {
	s.calls["authenticate"]++
	return s.err
}

func (s *recordingService) Capabilities() ([]string, error) {
	s.calls["capabilities"]++
	return []string{"UIDL"}, s.err
}

func (s *recordingService) Supports(name string) (bool, error) {
	s.calls["supports"]++
	return true, s.err
}

func (s *recordingService) List() ([]pop3.MessageInfo, error) {
	s.calls["list"]++
	return []pop3.MessageInfo{{Number: 1, Size: 10}}, s.err
}

func (s *recordingService) MessageNumbers() ([]uint, error) {
	s.calls["messageNumbers"]++
	return []uint{1}, s.err
}

func (s *recordingService) Fetch(number uint, options pop3.FetchOptions, deleteAfter bool) (*message.Entity, error) {
	s.calls["fetch"]++
	return nil, s.err
}

func (s *recordingService) FetchAll(numbers []uint, options pop3.FetchOptions, deleteAfter bool) ([]*message.Entity, error) {
	s.calls["fetchAll"]++
	return nil, s.err
}

func (s *recordingService) Delete(number uint) error {
	s.calls["delete"]++
	return s.err
}

func (s *recordingService) Noop() error {
	s.calls["noop"]++
	return s.err
}

func (s *recordingService) Reset() error {
	s.calls["reset"]++
	return s.err
}

func (s *recordingService) Quit() error {
	s.calls["quit"]++
	return s.err
}

func (s *recordingService) Close() error {
	s.calls["close"]++
	return s.err
}

// Functions

// TestLoggingServicePassthrough checks that the logging
// decorator forwards every call and hands results and
// errors through unchanged.
func TestLoggingServicePassthrough(t *testing.T) {

	inner := newRecordingService(nil)
	svc := pop3.NewLoggingService(inner, log.NewNopLogger())

	assert.Nil(t, svc.Authenticate(pop3.AuthLogin, "user0", "secret"), "authenticate should pass through")

	caps, err := svc.Capabilities()
	assert.Nil(t, err, "capabilities should pass through")
	assert.Equal(t, []string{"UIDL"}, caps, "capability result should be unchanged")

	infos, err := svc.List()
	assert.Nil(t, err, "list should pass through")
	assert.Equal(t, uint(1), infos[0].Number, "listing result should be unchanged")

	assert.Nil(t, svc.Delete(1), "delete should pass through")
	assert.Nil(t, svc.Noop(), "noop should pass through")
	assert.Nil(t, svc.Reset(), "reset should pass through")
	assert.Nil(t, svc.Quit(), "quit should pass through")
	assert.Nil(t, svc.Close(), "close should pass through")

	for _, name := range []string{"authenticate", "capabilities", "list", "delete", "noop", "reset", "quit", "close"} {
		assert.Equal(t, 1, inner.calls[name], "decorator should forward %s exactly once", name)
	}

	failing := pop3.NewLoggingService(newRecordingService(errors.New("boom")), log.NewNopLogger())

	err = failing.Authenticate(pop3.AuthLogin, "user0", "secret")
	assert.NotNil(t, err, "errors should pass through the decorator unchanged")
	assert.Equal(t, "boom", err.Error(), "error text should be unchanged")
}
