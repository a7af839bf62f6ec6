/*
Package crypto provides the basis for secure connections to POP3 servers. Other than making a
proper client-side TLS configuration with strict defaults available, it also provides helpers to
generate self-signed certificates for test setups.
*/
package crypto
