package smtptest

import (
	"crypto/tls"
	"os"
	"testing"
	"time"

	"github.com/flashmob/go-guerrilla/tests/testcert"
)

// NewTLSConfig writes a TLS key and certificate for 127.0.0.1 to a
// temporary test directory that is removed after the test runs, and
// returns a server config that presents them. The certificate is a
// self-signed root cert, so clients need to skip verification or trust it.
func NewTLSConfig(t testing.TB) *tls.Config {
	t.Helper()

	host := "127.0.0.1"
	// GenerateCert prepends this to the file names as-is
	d := t.TempDir() + string(os.PathSeparator)
	err := testcert.GenerateCert(
		host,
		"",                         // defaults to now
		time.Duration(1)*time.Hour, // the test suite won't run for this long
		true,                       // is a CA cert
		2048,                       // usually seen in online tutorials
		"",                         // RSA rather than an ecdsa curve
		d,
	)
	if err != nil {
		t.Fatalf("can't generate a TLS certificate: %v", err)
	}

	// These path names are hardcoded into testcert.GenerateCert
	cert, err := tls.LoadX509KeyPair(d+host+".cert.pem", d+host+".key.pem")
	if err != nil {
		t.Fatalf("can't load the TLS key pair: %v", err)
	}

	return &tls.Config{
		Certificates: []tls.Certificate{cert},
	}
}
