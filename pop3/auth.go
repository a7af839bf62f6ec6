package pop3

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"

	"crypto/hmac"
	"crypto/md5"
)

// Constants

// Available authentication variants.
const (
	// AuthLogin submits the credentials in plain text via
	// the two-phase USER and PASS commands. Only use this
	// over an encrypted connection.
	AuthLogin AuthMethod = iota

	// AuthCRAMMD5 answers a server challenge with a keyed
	// hash of the challenge, so the secret itself never
	// crosses the wire.
	AuthCRAMMD5

	// AuthXOAuth2 would perform a token-based SASL
	// exchange. The framing of this mechanism is not
	// implemented and the variant is rejected up front.
	AuthXOAuth2
)

// Structs

// AuthMethod selects one of the implemented credential
// exchange variants.
type AuthMethod int

// String returns the textual name of the method.
func (m AuthMethod) String() string {

	switch m {
	case AuthLogin:
		return "LOGIN"
	case AuthCRAMMD5:
		return "CRAM-MD5"
	case AuthXOAuth2:
		return "XOAUTH2"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", int(m))
	}
}

// Functions

// authenticate runs the selected credential exchange
// against the supplied connection. It is stateless per
// attempt and expects its caller to hold the sequence
// lock for the whole exchange, because the two halves of
// a variant form one logical authentication attempt and
// must never be split by another command.
func authenticate(c *Connection, method AuthMethod, username string, secret string) error {

	switch method {
	case AuthLogin:
		return authenticateLogin(c, username, secret)
	case AuthCRAMMD5:
		return authenticateCRAMMD5(c, username, secret)
	default:
		return &UnsupportedAuthMethodError{Method: method}
	}
}

// authenticateLogin performs the two-phase USER and PASS
// exchange. A rejected user name surfaces as a bad server
// response, a rejected password as invalid credentials.
func authenticateLogin(c *Connection, username string, password string) error {

	status, err := c.exchange(fmt.Sprintf("USER %s", username))
	if err != nil {
		return err
	}

	if !strings.HasPrefix(status, StatusOK) {
		return &BadServerResponseError{Detail: detail(status)}
	}

	status, err = c.exchange(fmt.Sprintf("PASS %s", password))
	if err != nil {
		return err
	}

	if !strings.HasPrefix(status, StatusOK) {
		return &InvalidCredentialsError{Detail: detail(status)}
	}

	return nil
}

// authenticateCRAMMD5 initiates the challenge-response
// exchange of RFC 2195. The server answers the initiating
// command with a base64 encoded nonce, the client replies
// with the user name and the hex digest of the HMAC-MD5
// keyed hash of that nonce under the shared secret, again
// base64 encoded.
func authenticateCRAMMD5(c *Connection, username string, secret string) error {

	status, err := c.exchange("AUTH CRAM-MD5")
	if err != nil {
		return err
	}

	// The continuation reply carries a '+' marker followed
	// by the encoded challenge.
	if !strings.HasPrefix(status, "+ ") {

		if strings.HasPrefix(status, StatusErr) {
			return &BadServerResponseError{Detail: detail(status)}
		}

		return &ProtocolError{Line: status}
	}

	challenge, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(status, "+ "))
	if err != nil {
		return &ProtocolError{Line: status}
	}

	response := base64.StdEncoding.EncodeToString([]byte(fmt.Sprintf("%s %s", username, cramMD5Digest(secret, challenge))))

	status, err = c.exchange(response)
	if err != nil {
		return err
	}

	if !strings.HasPrefix(status, StatusOK) {
		return &InvalidCredentialsError{Detail: detail(status)}
	}

	return nil
}

// cramMD5Digest computes the lowercase hex digest of the
// HMAC-MD5 keyed hash of challenge under secret.
func cramMD5Digest(secret string, challenge []byte) string {

	mac := hmac.New(md5.New, []byte(secret))
	mac.Write(challenge)

	return hex.EncodeToString(mac.Sum(nil))
}
