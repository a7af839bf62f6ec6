// Parts of the certificate bootstrapping below were
// heavily inspired by:
// - https://raw.githubusercontent.com/golang/go/master/src/crypto/tls/generate_cert.go
// - https://ericchiang.github.io/tls/go/https/2015/06/21/go-tls.html
package crypto

import (
	"fmt"
	"net"
	"time"

	"crypto/rand"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
)

// Functions

// SelfSignedCert generates a key pair and a self-signed
// certificate valid for the supplied host, returned PEM
// encoded. Test setups use it to run a TLS-enabled fake
// server and to hand the certificate to a client as its
// root of trust.
func SelfSignedCert(host string, validFor time.Duration) (certPEM []byte, keyPEM []byte, err error) {

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, nil, fmt.Errorf("[crypto.SelfSignedCert] Failed to generate key: %s\n", err.Error())
	}

	// For serial number generation we need a biggest
	// number to mark the range of the serial number.
	serialNumberLimit := new(big.Int).Lsh(big.NewInt(1), 128)

	serialNumber, err := rand.Int(rand.Reader, serialNumberLimit)
	if err != nil {
		return nil, nil, fmt.Errorf("[crypto.SelfSignedCert] Could not generate random serial number: %s\n", err.Error())
	}

	notBefore := time.Now()

	template := &x509.Certificate{
		SerialNumber:          serialNumber,
		Subject:               pkix.Name{Organization: []string{"pop3 test certificates"}},
		NotBefore:             notBefore,
		NotAfter:              notBefore.Add(validFor),
		BasicConstraintsValid: true,
		IsCA:                  true,
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment | x509.KeyUsageCertSign,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
	}

	// Hosts may be supplied as IP address or DNS name.
	if ip := net.ParseIP(host); ip != nil {
		template.IPAddresses = append(template.IPAddresses, ip)
	} else {
		template.DNSNames = append(template.DNSNames, host)
	}

	certDER, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	if err != nil {
		return nil, nil, fmt.Errorf("[crypto.SelfSignedCert] Failed to create DER byte representation of certificate: %s\n", err.Error())
	}

	certPEM = pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: certDER})
	keyPEM = pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})

	return certPEM, keyPEM, nil
}

// SelfSignedServerConfig generates a self-signed
// certificate for the supplied host and wraps it into a
// TLS config ready to serve with. The certificate is
// returned alongside so that clients can pin it.
func SelfSignedServerConfig(host string) (*tls.Config, []byte, error) {

	certPEM, keyPEM, err := SelfSignedCert(host, 24*time.Hour)
	if err != nil {
		return nil, nil, err
	}

	cert, err := tls.X509KeyPair(certPEM, keyPEM)
	if err != nil {
		return nil, nil, fmt.Errorf("[crypto.SelfSignedServerConfig] Failed to load generated key pair: %s\n", err.Error())
	}

	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}, certPEM, nil
}
