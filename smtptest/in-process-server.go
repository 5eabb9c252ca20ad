package smtptest

import (
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/docker/go-units"
	"github.com/emersion/go-smtp"
	"github.com/rs/zerolog/log"
)

// Message is an email received by an InProcessServer along with what we
// learned about the session that delivered it.
type Message struct {
	Created time.Time
	// Name the client gave in EHLO/HELO
	HeloName string
	// Whether the session was encrypted when the message arrived, either
	// via STARTTLS or implicit TLS
	TLS bool
	// Empty for unauthenticated sessions
	Username string
	From     string
	To       []string
	// Raw message data, headers included
	Body string
}

// Options configures an InProcessServer.
type Options struct {
	// If set, the server advertises STARTTLS with this config. Required
	// for ImplicitTLS.
	TLSConfig *tls.Config
	// Speak TLS from the start of each connection instead of offering
	// STARTTLS.
	ImplicitTLS bool
	// Refuse to accept mail from clients that haven't authenticated.
	RequireAuth bool
	// Allow AUTH over unencrypted connections.
	AllowInsecureAuth bool
	// RCPT TO is rejected with a permanent error for these addresses.
	RejectRecipients []string
}

// Backend implements smtp.Backend. It's a thin authentication wrapper
// for an InMemoryEmailStore.
type Backend struct {
	*InMemoryEmailStore
	requireAuth bool
	reject      map[string]struct{}
}

// Login implements smtp.Backend. Any username/password is fine, since we
// don't want to couple this with specific test configurations.
func (be *Backend) Login(state *smtp.ConnectionState, username string, password string) (smtp.Session, error) {
	if username != "" && password != "" {
		return be.newSession(state, username), nil
	}
	return nil, errors.New("no username or password provided")
}

// AnonymousLogin implements smtp.Backend. Only allowed if the server
// doesn't require AUTH.
func (be *Backend) AnonymousLogin(state *smtp.ConnectionState) (smtp.Session, error) {
	if be.requireAuth {
		return nil, smtp.ErrAuthRequired
	}
	return be.newSession(state, ""), nil
}

func (be *Backend) newSession(state *smtp.ConnectionState, username string) *session {
	return &session{
		store:    be.InMemoryEmailStore,
		reject:   be.reject,
		heloName: state.Hostname,
		tls:      state.TLS.HandshakeComplete,
		username: username,
	}
}

// session implements smtp.Session, collecting the envelope of the
// current message until Data hands it to the store.
type session struct {
	store    *InMemoryEmailStore
	reject   map[string]struct{}
	heloName string
	tls      bool
	username string
	from     string
	to       []string
}

// Reset implements smtp.Session.
func (s *session) Reset() {
	s.from = ""
	s.to = nil
}

// Logout implements smtp.Session. No-op here.
func (s *session) Logout() error { return nil }

// Mail implements smtp.Session.
func (s *session) Mail(from string, _ smtp.MailOptions) error {
	s.from = from
	return nil
}

// Rcpt implements smtp.Session.
func (s *session) Rcpt(to string) error {
	if _, ok := s.reject[to]; ok {
		return &smtp.SMTPError{
			Code:         550,
			EnhancedCode: smtp.EnhancedCode{5, 1, 1},
			Message:      "no such user",
		}
	}
	s.to = append(s.to, to)
	return nil
}

// Data implements smtp.Session. Stores the email data in memory for
// retrieval at the end of the test.
func (s *session) Data(r io.Reader) error {
	// doubtful we'll get an email this big, but we need a limit
	var maxEmailSize int64 = 100 * units.MiB
	buf, err := io.ReadAll(io.LimitReader(r, maxEmailSize))
	if err != nil {
		return err
	}

	s.store.saveEmail(Message{
		HeloName: s.heloName,
		TLS:      s.tls,
		Username: s.username,
		From:     s.from,
		To:       append([]string{}, s.to...),
		Body:     string(buf),
	})
	return nil
}

// InMemoryEmailStore retains email bodies in memory for comparison against
// a test's expected output.
// Designed to be goroutine safe since we don't know how many goroutines will
// be hitting the server at once.
type InMemoryEmailStore struct {
	mu       *sync.Mutex
	messages []Message
}

// InProcessServer is an SMTP server that runs in the same process as the
// test suite, letting us inspect sent emails. You must initialize this
// via NewInProcessServer
type InProcessServer struct {
	*smtp.Server
	*InMemoryEmailStore
	listener *countingListener
}

// NewInProcessServer creates an InProcessServer listening on a random
// local port, including configuring its SMTP server to store incoming
// messages in memory. Call Start to begin accepting connections.
func NewInProcessServer(opts Options) (*InProcessServer, error) {
	if opts.ImplicitTLS && opts.TLSConfig == nil {
		return nil, errors.New("implicit TLS requires a TLS config")
	}

	is := &InMemoryEmailStore{
		mu:       &sync.Mutex{},
		messages: []Message{},
	}

	reject := make(map[string]struct{}, len(opts.RejectRecipients))
	for _, r := range opts.RejectRecipients {
		reject[r] = struct{}{}
	}

	srv := smtp.NewServer(&Backend{
		InMemoryEmailStore: is,
		requireAuth:        opts.RequireAuth,
		reject:             reject,
	})

	srv.Domain = "localhost"
	srv.AllowInsecureAuth = opts.AllowInsecureAuth
	srv.AuthDisabled = false
	// Strict is undocumented, but it looks like it enforces <address> syntax
	// in messages:
	// https://github.com/emersion/go-smtp/blob/f92bf7f1a25777bcdaa28a142b1cd1a54b74c8f4/conn.go#L321-L325
	srv.Strict = true
	srv.ErrorLog = serverLogger{}
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second

	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("can't listen for SMTP connections: %v", err)
	}

	if opts.ImplicitTLS {
		l = tls.NewListener(l, opts.TLSConfig)
	} else {
		// Only advertise STARTTLS if we're not already encrypted
		srv.TLSConfig = opts.TLSConfig
	}

	cl := &countingListener{Listener: l}
	srv.Addr = cl.Addr().String()

	return &InProcessServer{
		Server:             srv,
		InMemoryEmailStore: is,
		listener:           cl,
	}, nil
}

// saveEmail stores the message along with a timestamp created just prior
// to saving
func (es *InMemoryEmailStore) saveEmail(m Message) {
	es.mu.Lock()
	defer es.mu.Unlock()

	m.Created = time.Now()
	es.messages = append(es.messages, m)
}

// Start starts the test server. Blocking.
func (is *InProcessServer) Start() error {
	return is.Server.Serve(is.listener)
}

// Close shuts down the test server daemon. You must initialize a new
// InProcessServer instead of restarting this one.
func (is *InProcessServer) Close() {
	if err := is.Server.Close(); err != nil {
		log.Debug().Err(err).Msg("closing the test SMTP server")
	}
	// In case Start was never called
	is.listener.Close()
}

// RetrieveEmails returns a slice of all message bodies (as strings)
// sent after epoch nanoseconds t
// Satisfies smtptest.Server but isn't expected to return an error.
func (es *InMemoryEmailStore) RetrieveEmails(t int64) ([]string, error) {
	ms := es.Messages(t)
	r := make([]string, 0, len(ms))
	for _, m := range ms {
		r = append(r, m.Body)
	}
	return r, nil
}

// Messages returns copies of all messages received after epoch nanoseconds
// t, with session details.
func (es *InMemoryEmailStore) Messages(t int64) []Message {
	es.mu.Lock()
	defer es.mu.Unlock()

	r := make([]Message, 0, len(es.messages))
	for _, m := range es.messages {
		if m.Created.UnixNano() >= t {
			r = append(r, m)
		}
	}
	return r
}

// Address returns the host:port of the test SMTP server.
func (is *InProcessServer) Address() string {
	return is.listener.Addr().String()
}

// Connections returns the number of connections the server has accepted.
// Tests use this to make sure nothing was sent over the network.
func (is *InProcessServer) Connections() int {
	return int(is.listener.accepted.Load())
}

// countingListener counts accepted connections.
type countingListener struct {
	net.Listener
	accepted atomic.Int64
}

func (cl *countingListener) Accept() (net.Conn, error) {
	c, err := cl.Listener.Accept()
	if err == nil {
		cl.accepted.Add(1)
	}
	return c, err
}

// serverLogger sends go-smtp's server log to zerolog at debug level.
type serverLogger struct{}

func (serverLogger) Printf(format string, v ...interface{}) {
	log.Debug().Str("component", "smtptest").Msgf(format, v...)
}

func (serverLogger) Println(v ...interface{}) {
	log.Debug().Str("component", "smtptest").Msg(strings.TrimSuffix(fmt.Sprintln(v...), "\n"))
}
