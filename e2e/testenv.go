package e2e

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/ptgott/mailnotify/smtptest"
	"github.com/ptgott/mailnotify/userconfig"
)

const (
	tempDirPathName = "tempTestDir"
	testHostname    = "lemmy.example"
)

// testEnvironmentConfig exposes options that should be available and
// perhaps changeable when spinning up a test environment. While they
// may not vary between tests, they shouldn't be buried inside
// functions.
type testEnvironmentConfig struct {
	// "starttls", "tls", or anything else for a plaintext relay
	tlsType string
	// The relay refuses mail from unauthenticated clients
	requireAuth bool
}

// testEnvironment manages all dependencies required to simulate a "real"
// environment and run the e2e tests. Callers should create this via
// startTestEnvironment.
type testEnvironment struct {
	SMTPServer  *smtptest.InProcessServer
	tlsType     string
	tempDirPath string // must be populated programmatically
}

// startTestEnvironment starts an SMTP relay that speaks the transport in
// c. Callers should defer a call to tearDown.
//
// Note that if startTestEnvironment fails, it will return an error along with
// whatever shreds of a test environment we've set up so far so you can tear
// it down (i.e., it won't just be the zero value)
func startTestEnvironment(t *testing.T, c testEnvironmentConfig) (*testEnvironment, error) {
	te := &testEnvironment{tlsType: c.tlsType}

	p, err := os.MkdirTemp("", tempDirPathName)
	if err != nil {
		// Shouldn't happen
		return te, fmt.Errorf("could not create the test config directory: %w", err)
	}

	te.tempDirPath = p

	opts := smtptest.Options{
		RequireAuth: c.requireAuth,
		// Only the plaintext relay needs this, but it's harmless otherwise
		AllowInsecureAuth: true,
	}
	switch c.tlsType {
	case "starttls":
		opts.TLSConfig = smtptest.NewTLSConfig(t)
	case "tls":
		opts.TLSConfig = smtptest.NewTLSConfig(t)
		opts.ImplicitTLS = true
	}

	ts, err := smtptest.NewInProcessServer(opts)
	if err != nil {
		return te, err
	}

	te.SMTPServer = ts

	go ts.Start()

	return te, nil
}

// loadConfig writes a config file for this environment and reads it back
// the same way the command does.
func (te *testEnvironment) loadConfig(opts appConfigOptions) (*userconfig.Settings, error) {
	if opts.Hostname == "" {
		opts.Hostname = testHostname
	}
	opts.SMTPServerAddress = te.SMTPServer.Address()
	opts.TLSType = te.tlsType

	path := filepath.Join(te.tempDirPath, "config.yaml")
	if err := createAppConfig(path, opts); err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("can't open the config file: %v", err)
	}
	defer f.Close()

	return userconfig.Parse(f)
}

// tearDown returns the testEnvironment to its state prior to start. Designed
// to call with defer
func (te *testEnvironment) tearDown() {
	if te.SMTPServer != nil {
		te.SMTPServer.Close()
	}

	// This error will be nil if the path doesn't exist. See:
	// https://golang.org/pkg/os/#RemoveAll
	err := os.RemoveAll(te.tempDirPath)

	// We're not expecting this to return an error since it's designed to call with
	// defer. Instead we panic, and hopefully we can prevent any panic-causing
	// error from happening again.
	if err != nil {
		panic(fmt.Sprintf("can't delete the test config directory: %v", err))
	}
}
