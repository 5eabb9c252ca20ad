package notify

import (
	"context"
	"errors"
	"fmt"
	"html"
	"html/template"
	"net/url"

	"github.com/rs/zerolog/log"

	"github.com/ptgott/mailnotify/email"
	mailhtml "github.com/ptgott/mailnotify/html"
	"github.com/ptgott/mailnotify/lang"
	"github.com/ptgott/mailnotify/userconfig"
)

// Recipient is someone we send a notification to.
type Recipient struct {
	// Bare address, e.g., bob@example.com
	Email string
	// Display name. Also used in greetings.
	Name string
	// Language preference, e.g., "de" or "pt_BR". Anything we don't have a
	// catalog for gets English.
	Lang string
}

// Sender sends notifications through the relay in Settings.
type Sender struct {
	Settings *userconfig.Settings
}

// PasswordReset sends the recipient a link for choosing a new password.
// The link ends with token.
func (s *Sender) PasswordReset(ctx context.Context, to Recipient, token string) error {
	if err := s.check(); err != nil {
		return err
	}
	l := lang.Resolve(to.Lang)
	p := l.Printer()
	link := s.link("password_change", token)

	return s.send(ctx, "password reset", to, l,
		p.Sprintf(lang.PasswordResetSubject, to.Name),
		p.Sprintf(lang.PasswordResetBody, html.EscapeString(link), html.EscapeString(to.Name)),
	)
}

// VerifyEmail asks the recipient to confirm their address by following a
// link that ends with token.
func (s *Sender) VerifyEmail(ctx context.Context, to Recipient, token string) error {
	if err := s.check(); err != nil {
		return err
	}
	l := lang.Resolve(to.Lang)
	p := l.Printer()
	link := s.link("verify_email", token)
	host := html.EscapeString(s.Settings.Hostname)

	return s.send(ctx, "email verification", to, l,
		p.Sprintf(lang.VerifyEmailSubject, s.Settings.Hostname),
		p.Sprintf(lang.VerifyEmailBody, host, html.EscapeString(to.Name), html.EscapeString(link)),
	)
}

// ApplicationApproved tells the recipient that their registration
// application was accepted.
func (s *Sender) ApplicationApproved(ctx context.Context, to Recipient) error {
	if err := s.check(); err != nil {
		return err
	}
	l := lang.Resolve(to.Lang)
	p := l.Printer()

	return s.send(ctx, "registration approval", to, l,
		p.Sprintf(lang.RegistrationApprovedSubject, to.Name),
		p.Sprintf(lang.RegistrationApprovedBody, html.EscapeString(s.Settings.Hostname)),
	)
}

// NewApplicant tells every admin that applicant has applied to register.
// Admins get one email each. A failure for one admin doesn't stop the
// others; the returned error joins every failure.
func (s *Sender) NewApplicant(ctx context.Context, admins []Recipient, applicant string) error {
	if err := s.check(); err != nil {
		return err
	}
	link := html.EscapeString(s.link("registration_applications", ""))

	var errs []error
	for _, a := range admins {
		l := lang.Resolve(a.Lang)
		p := l.Printer()
		err := s.send(ctx, "new applicant", a, l,
			p.Sprintf(lang.NewApplicationSubject, applicant, s.Settings.Hostname),
			p.Sprintf(lang.NewApplicationBody, link),
		)
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Test sends a message whose only purpose is confirming that the email
// settings work.
func (s *Sender) Test(ctx context.Context, to Recipient) error {
	if err := s.check(); err != nil {
		return err
	}
	l := lang.Resolve(to.Lang)
	p := l.Printer()
	host := html.EscapeString(s.Settings.Hostname)

	return s.send(ctx, "test", to, l,
		p.Sprintf(lang.TestEmailSubject, s.Settings.Hostname),
		p.Sprintf(lang.TestEmailBody, host),
	)
}

func (s *Sender) check() error {
	if s.Settings == nil || s.Settings.Email == nil {
		return email.ErrNoEmailSetup
	}
	return nil
}

// link returns an absolute URL on the serving host. token is escaped and
// appended as the last path segment if it's not empty.
func (s *Sender) link(path, token string) string {
	u := "https://" + s.Settings.Hostname + "/" + path
	if token != "" {
		u += "/" + url.PathEscape(token)
	}
	return u
}

// send wraps fragment, the localized body, in a document and sends it.
func (s *Sender) send(ctx context.Context, kind string, to Recipient, l lang.Lang, subject, fragment string) error {
	body, err := mailhtml.EmailBody(l.String(), subject, template.HTML(fragment))
	if err != nil {
		return err
	}
	err = email.SendEmail(ctx, subject, to.Email, to.Name, body, s.Settings)
	if err != nil {
		return fmt.Errorf("can't send the %v email to %v: %w", kind, to.Email, err)
	}
	log.Info().
		Str("kind", kind).
		Str("to", to.Email).
		Str("lang", l.String()).
		Msg("sent a notification")
	return nil
}
