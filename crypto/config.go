package crypto

import (
	"fmt"
	"os"

	"crypto/tls"
	"crypto/x509"
)

// Structs

// VerifyFunc is an optional override for the trust
// decision made during the TLS handshake. It receives
// the raw certificates presented by the server and the
// chains that were built during standard verification.
// Returning a non-nil error aborts the handshake.
type VerifyFunc func(rawCerts [][]byte, verifiedChains [][]*x509.Certificate) error

// Functions

// NewClientTLSConfig returns a TLS config that is to be
// used when connecting to POP3 servers on the public
// Internet. It defines very strict defaults and verifies
// the server certificate against the system cert pools,
// or against the root certificate supplied via path.
// Good parts of the defaults were taken from the excellent
// post: "Achieving a Perfect SSL Labs Score with Go":
// https://blog.bracelab.com/achieving-perfect-ssl-labs-score-with-go
//
// Verification is strict unless insecureSkipVerify is
// set, which disables certificate checking entirely and
// exists only as an explicit opt-in for test setups. The
// optional verify hook runs in addition to the standard
// verification and can only reject further, not accept a
// certificate that standard verification already refused.
func NewClientTLSConfig(serverName string, rootCertPath string, insecureSkipVerify bool, verify VerifyFunc) (*tls.Config, error) {

	config := &tls.Config{
		ServerName:         serverName,
		InsecureSkipVerify: insecureSkipVerify,
		MinVersion:         tls.VersionTLS12,
		CurvePreferences:   []tls.CurveID{tls.X25519, tls.CurveP256, tls.CurveP384},
	}

	// If a root certificate was supplied via path, verify
	// the server against exactly that certificate instead
	// of the system pools.
	if rootCertPath != "" {

		rootCert, err := os.ReadFile(rootCertPath)
		if err != nil {
			return nil, fmt.Errorf("[crypto.NewClientTLSConfig] Reading root certificate into memory failed with: %s\n", err.Error())
		}

		config.RootCAs = x509.NewCertPool()

		if ok := config.RootCAs.AppendCertsFromPEM(rootCert); !ok {
			return nil, fmt.Errorf("[crypto.NewClientTLSConfig] Failed to append root certificate to root CA pool.\n")
		}
	}

	if verify != nil {
		config.VerifyPeerCertificate = verify
	}

	return config, nil
}
