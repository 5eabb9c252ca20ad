package email

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	gomail "gopkg.in/gomail.v2"

	"github.com/ptgott/mailnotify/html"
	"github.com/ptgott/mailnotify/userconfig"
)

// SendEmail sends a message with the given subject and HTML body to
// toEmail, addressed by toUsername, through the relay in settings.Email.
// The message includes a plain text version of the HTML. A nil error means
// the relay accepted the message.
//
// Everything that can be checked locally is checked before we connect, so
// configuration and address errors never cost a network round trip. Once
// we connect, any failure is reported as ErrEmailSendFailed. Nothing is
// retried.
func SendEmail(
	ctx context.Context,
	subject string,
	toEmail string,
	toUsername string,
	htmlBody string,
	settings *userconfig.Settings,
) error {
	if settings == nil || settings.Email == nil {
		return ErrNoEmailSetup
	}
	if strings.TrimSpace(settings.Hostname) == "" {
		return ErrNoHostname
	}
	ec := settings.Email

	host, port, err := ParseSMTPServer(ec.SMTPServer)
	if err != nil {
		return err
	}

	m, err := newMessage(subject, toEmail, toUsername, htmlBody, ec.SMTPFromAddress, settings.Hostname)
	if err != nil {
		return err
	}

	r := &relay{
		host:      host,
		port:      port,
		transport: SelectTransport(ec.TLSType),
		helloName: settings.Hostname,
		tlsConfig: &tls.Config{
			ServerName:         host,
			InsecureSkipVerify: ec.SkipCertVerification,
		},
	}
	r.login, r.password, r.auth = ec.Credentials()

	log.Debug().
		Str("server", r.address()).
		Str("transport", r.transport.String()).
		Bool("auth", r.auth).
		Strs("messageID", m.GetHeader("Message-ID")).
		Msg("sending an email")

	err = gomail.Send(gomail.SendFunc(
		func(from string, to []string, msg io.WriterTo) error {
			err := r.send(ctx, from, to, msg)
			if err != nil {
				log.Error().
					Stack().
					Err(err).
					Str("server", r.address()).
					Msg("could not send an email")
			}
			return err
		},
	), m)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrEmailSendFailed, err)
	}

	return nil
}

// newMessage validates the addresses and builds a multipart/alternative
// message with a text/plain part derived from htmlBody, followed by
// htmlBody itself.
func newMessage(subject, toEmail, toUsername, htmlBody, fromAddress, hostname string) (*gomail.Message, error) {
	txt, err := html.PlainText(htmlBody)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPlainText, err)
	}

	// The from address comes from the config and may include a display
	// name, e.g., "Example <noreply@example.com>".
	from, err := mail.ParseAddress(fromAddress)
	if err != nil {
		return nil, &InvalidAddressError{Address: fromAddress, Err: err}
	}

	to, err := parseBareAddress(toEmail)
	if err != nil {
		return nil, &InvalidAddressError{Address: toEmail, Err: err}
	}

	m := gomail.NewMessage()
	m.SetAddressHeader("From", from.Address, from.Name)
	m.SetAddressHeader("To", to, toUsername)
	m.SetHeader("Message-ID", newMessageID(hostname))
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", txt)
	m.AddAlternative("text/html", htmlBody)

	return m, nil
}

// parseBareAddress accepts only an addr-spec like user@example.com. The
// display name for a recipient is supplied separately, so angle brackets
// or a name here mean the caller passed the wrong thing.
func parseBareAddress(s string) (string, error) {
	a, err := mail.ParseAddress(s)
	if err != nil {
		return "", err
	}
	if a.Name != "" || a.Address != strings.TrimSpace(s) {
		return "", fmt.Errorf("expected a bare address, not %q", s)
	}
	return a.Address, nil
}

// newMessageID returns a globally unique Message-ID for a message sent
// from hostname.
func newMessageID(hostname string) string {
	return fmt.Sprintf("<%v@%v>", uuid.New(), hostname)
}
