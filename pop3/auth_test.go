package pop3

import (
	"testing"
	"time"

	"github.com/go-pluto/mailfetch/utils"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

// Functions

// TestCRAMMD5Digest checks the keyed hash computation
// against the reference exchange of RFC 2195 section 2.
func TestCRAMMD5Digest(t *testing.T) {

	challenge := []byte("<1896.697170952@postoffice.reston.mci.net>")

	digest := cramMD5Digest("tanstaaftanstaaf", challenge)

	assert.Equal(t, "b913a602c7eda7a495b4e6e7334d3890", digest, "digest should match the RFC 2195 reference value")
}

// TestAuthenticateCRAMMD5 runs the complete challenge
// response exchange of RFC 2195 section 2 against a
// scripted server and checks the exact response framing.
func TestAuthenticateCRAMMD5(t *testing.T) {

	server, err := utils.NewTestServer("+OK ready", []utils.Step{
		{Expect: "AUTH CRAM-MD5", Reply: []string{"+ PDE4OTYuNjk3MTcwOTUyQHBvc3RvZmZpY2UucmVzdG9uLm1jaS5uZXQ+"}},
		{Expect: "response", Reply: []string{"+OK welcome tim"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	defer server.Close()

	session, err := Dial(server.Host(), server.Port(), nil, time.Second)
	if err != nil {
		t.Fatal(err)
	}
	defer session.Close()

	err = session.Authenticate(AuthCRAMMD5, "tim", "tanstaaftanstaaf")
	assert.Nil(t, err, "CRAM-MD5 authentication should not return an error")
	assert.Equal(t, StateAuthenticated, session.State(), "session should be authenticated after the exchange")

	received := server.Received()
	assert.Equal(t, "dGltIGI5MTNhNjAyYzdlZGE3YTQ5NWI0ZTZlNzMzNGQzODkw", received[1], "challenge response should be the base64 encoded user name and hex digest")
}

// TestAuthenticateLoginInvalidCredentials checks that a
// rejected password surfaces as invalid credentials and
// leaves the session in connected state, so that a fresh
// complete attempt is possible.
func TestAuthenticateLoginInvalidCredentials(t *testing.T) {

	server, err := utils.NewTestServer("+OK ready", []utils.Step{
		{Expect: "USER user0", Reply: []string{"+OK send your password"}},
		{Expect: "PASS wrong", Reply: []string{"-ERR invalid password"}},
		{Expect: "USER user0", Reply: []string{"+OK send your password"}},
		{Expect: "PASS secret", Reply: []string{"+OK logged in"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	defer server.Close()

	session, err := Dial(server.Host(), server.Port(), nil, time.Second)
	if err != nil {
		t.Fatal(err)
	}
	defer session.Close()

	err = session.Authenticate(AuthLogin, "user0", "wrong")

	var credErr *InvalidCredentialsError
	assert.True(t, errors.As(err, &credErr), "rejected password should fail with an InvalidCredentialsError, got %v", err)
	assert.Equal(t, "invalid password", credErr.Detail, "server detail text should be carried verbatim")
	assert.Equal(t, StateConnected, session.State(), "failed authentication should leave the session connected")

	// A new logical attempt starts from USER again, the
	// failed attempt is never resumed halfway.
	err = session.Authenticate(AuthLogin, "user0", "secret")
	assert.Nil(t, err, "retried authentication should not return an error")
	assert.Equal(t, StateAuthenticated, session.State(), "session should be authenticated after the retry")
}

// TestAuthenticateLoginRejectedUser checks that a
// rejected user name surfaces as a bad server response.
func TestAuthenticateLoginRejectedUser(t *testing.T) {

	server, err := utils.NewTestServer("+OK ready", []utils.Step{
		{Expect: "USER nosuchuser", Reply: []string{"-ERR never heard of that mailbox"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	defer server.Close()

	session, err := Dial(server.Host(), server.Port(), nil, time.Second)
	if err != nil {
		t.Fatal(err)
	}
	defer session.Close()

	err = session.Authenticate(AuthLogin, "nosuchuser", "secret")

	var respErr *BadServerResponseError
	assert.True(t, errors.As(err, &respErr), "rejected user name should fail with a BadServerResponseError, got %v", err)
	assert.Equal(t, StateConnected, session.State(), "failed authentication should leave the session connected")
}

// TestAuthenticateXOAuth2Unsupported checks that the
// token-based variant is rejected up front, without
// touching the wire or faking an authenticated state.
func TestAuthenticateXOAuth2Unsupported(t *testing.T) {

	server, err := utils.NewTestServer("+OK ready", []utils.Step{
		{Expect: "unreached", Reply: nil},
	})
	if err != nil {
		t.Fatal(err)
	}
	defer server.Close()

	session, err := Dial(server.Host(), server.Port(), nil, time.Second)
	if err != nil {
		t.Fatal(err)
	}
	defer session.Close()

	err = session.Authenticate(AuthXOAuth2, "user0", "some-token")

	var methodErr *UnsupportedAuthMethodError
	assert.True(t, errors.As(err, &methodErr), "XOAUTH2 should be rejected with an UnsupportedAuthMethodError, got %v", err)
	assert.Equal(t, StateConnected, session.State(), "session must never fake an authenticated state")
	assert.Equal(t, 0, len(server.Received()), "the rejected variant must not have touched the wire")
}
