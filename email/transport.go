package email

import (
	"context"
	"crypto/tls"
	"io"
	"net"
	"strconv"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Transport is the way we connect to the SMTP relay.
type Transport int

const (
	// TransportPlain never encrypts the connection. It's what we fall back
	// to for an unknown TLS type, which is insecure but intentional.
	TransportPlain Transport = iota
	// TransportStartTLS connects in plaintext and requires the relay to
	// upgrade the connection with STARTTLS (RFC 3207).
	TransportStartTLS
	// TransportTLS negotiates TLS before speaking SMTP (RFC 8314).
	TransportTLS
)

func (t Transport) String() string {
	switch t {
	case TransportStartTLS:
		return "starttls"
	case TransportTLS:
		return "tls"
	default:
		return "plain"
	}
}

// SelectTransport maps the tls_type setting to a Transport. Anything other
// than "starttls" or "tls", including an empty string, means plaintext.
func SelectTransport(tlsType string) Transport {
	switch tlsType {
	case "starttls":
		return TransportStartTLS
	case "tls":
		return TransportTLS
	default:
		return TransportPlain
	}
}

// relay contains everything we need to open one connection to an SMTP
// server and deliver one message over it. There is no pooling: every
// send dials anew.
type relay struct {
	host      string
	port      uint16
	transport Transport
	// only used if auth is true
	login    string
	password string
	auth     bool
	// name we introduce ourselves as in EHLO/HELO
	helloName string
	tlsConfig *tls.Config
}

func (r *relay) address() string {
	return net.JoinHostPort(r.host, strconv.Itoa(int(r.port)))
}

// dial connects to the relay, negotiating TLS first if the transport
// calls for it.
func (r *relay) dial(ctx context.Context) (net.Conn, error) {
	d := &net.Dialer{}
	if r.transport == TransportTLS {
		td := &tls.Dialer{
			NetDialer: d,
			Config:    r.tlsConfig,
		}
		return td.DialContext(ctx, "tcp", r.address())
	}
	return d.DialContext(ctx, "tcp", r.address())
}

// send delivers msg to every address in to. It implements the signature of
// gomail.SendFunc once ctx is bound. Errors carry a stack trace. If ctx is done before we're finished,
// the connection is closed, though the relay may have already accepted
// the message by then.
func (r *relay) send(ctx context.Context, from string, to []string, msg io.WriterTo) error {
	conn, err := r.dial(ctx)
	if err != nil {
		return errors.Wrapf(err, "can't connect to %v", r.address())
	}
	stop := context.AfterFunc(ctx, func() {
		conn.Close()
	})
	defer stop()

	c, err := smtp.NewClient(conn, r.host)
	if err != nil {
		conn.Close()
		return errors.Wrapf(err, "can't start an SMTP session with %v", r.address())
	}
	defer c.Close()

	if err := c.Hello(r.helloName); err != nil {
		return errors.Wrap(err, "EHLO failed")
	}

	if r.transport == TransportStartTLS {
		if ok, _ := c.Extension("STARTTLS"); !ok {
			return errors.New("the server does not support STARTTLS")
		}
		if err := c.StartTLS(r.tlsConfig); err != nil {
			return errors.Wrap(err, "STARTTLS failed")
		}
	}

	if r.auth {
		if err := c.Auth(sasl.NewPlainClient("", r.login, r.password)); err != nil {
			return errors.Wrap(err, "authentication failed")
		}
	}

	if err := c.Mail(from, nil); err != nil {
		return errors.Wrap(err, "MAIL FROM failed")
	}
	for _, addr := range to {
		if err := c.Rcpt(addr); err != nil {
			return errors.Wrapf(err, "RCPT TO %v failed", addr)
		}
	}

	w, err := c.Data()
	if err != nil {
		return errors.Wrap(err, "DATA failed")
	}
	if _, err := msg.WriteTo(w); err != nil {
		w.Close()
		return errors.Wrap(err, "can't write the message")
	}
	if err := w.Close(); err != nil {
		return errors.Wrap(err, "the server rejected the message")
	}

	// The relay has taken responsibility for the message. Failing now would
	// make a caller that retries send it twice.
	if err := c.Quit(); err != nil {
		log.Warn().
			Err(err).
			Str("server", r.address()).
			Msg("the relay accepted the message but QUIT failed")
	}

	return nil
}
