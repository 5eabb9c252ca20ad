package notify

import (
	"context"
	"mime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ptgott/mailnotify/email"
	"github.com/ptgott/mailnotify/smtptest"
	"github.com/ptgott/mailnotify/userconfig"
)

func startSink(t *testing.T, opts smtptest.Options) *smtptest.InProcessServer {
	t.Helper()
	srv, err := smtptest.NewInProcessServer(opts)
	require.NoError(t, err)
	go func() {
		srv.Start()
	}()
	t.Cleanup(srv.Close)
	return srv
}

func newSender(addr string) *Sender {
	return &Sender{
		Settings: &userconfig.Settings{
			Hostname: "lemmy.example",
			Email: &userconfig.EmailConfig{
				SMTPServer:      addr,
				SMTPFromAddress: "noreply@lemmy.example",
			},
		},
	}
}

// received is a delivered notification with its subject decoded.
type received struct {
	to      []string
	subject string
	html    string
	text    string
}

func receivedEmails(t *testing.T, srv *smtptest.InProcessServer) []received {
	t.Helper()
	var dec mime.WordDecoder
	var r []received
	for _, m := range srv.Messages(0) {
		pe, err := smtptest.ParseEmail(m.Body)
		require.NoError(t, err)
		subj, err := dec.DecodeHeader(pe.Header.Get("Subject"))
		require.NoError(t, err)
		r = append(r, received{
			to:      m.To,
			subject: subj,
			html:    strings.ReplaceAll(pe.Parts["text/html"], "\r\n", "\n"),
			text:    strings.ReplaceAll(pe.Parts["text/plain"], "\r\n", "\n"),
		})
	}
	return r
}

func TestNotifications(t *testing.T) {
	t.Setenv(userconfig.PasswordEnvVar, "")

	testCases := []struct {
		description   string
		send          func(s *Sender) error
		expectSubject string
		expectLinks   []string
		expectInHTML  []string
		expectInText  []string
		expectNotHTML []string
	}{
		{
			description: "password reset",
			send: func(s *Sender) error {
				return s.PasswordReset(context.Background(), Recipient{Email: "bob@example.com", Name: "bob"}, "abc123")
			},
			expectSubject: "Password reset for bob",
			expectLinks:   []string{"https://lemmy.example/password_change/abc123"},
			expectInHTML:  []string{"Hello bob,"},
			expectInText:  []string{"(https://lemmy.example/password_change/abc123)"},
		},
		{
			description: "password reset token is escaped",
			send: func(s *Sender) error {
				return s.PasswordReset(context.Background(), Recipient{Email: "bob@example.com", Name: "bob"}, "a b/c")
			},
			expectSubject: "Password reset for bob",
			expectLinks:   []string{"https://lemmy.example/password_change/a%20b%2Fc"},
		},
		{
			description: "password reset in German",
			send: func(s *Sender) error {
				return s.PasswordReset(context.Background(), Recipient{Email: "anna@example.com", Name: "anna", Lang: "de"}, "abc123")
			},
			expectSubject: "Passwort zurücksetzen für anna",
			expectLinks:   []string{"https://lemmy.example/password_change/abc123"},
			expectInHTML:  []string{"Hallo anna,"},
		},
		{
			description: "verify email",
			send: func(s *Sender) error {
				return s.VerifyEmail(context.Background(), Recipient{Email: "bob@example.com", Name: "bob", Lang: "en-US"}, "tok")
			},
			expectSubject: "Verify your email address for lemmy.example",
			expectLinks:   []string{"https://lemmy.example/verify_email/tok"},
			expectInHTML:  []string{"Hello bob,", "for lemmy.example:"},
		},
		{
			description: "verify email with an unknown language",
			send: func(s *Sender) error {
				return s.VerifyEmail(context.Background(), Recipient{Email: "bob@example.com", Name: "bob", Lang: "xx-nonexistent"}, "tok")
			},
			expectSubject: "Verify your email address for lemmy.example",
			expectLinks:   []string{"https://lemmy.example/verify_email/tok"},
		},
		{
			description: "application approved in Brazilian Portuguese",
			send: func(s *Sender) error {
				return s.ApplicationApproved(context.Background(), Recipient{Email: "ana@example.com", Name: "ana", Lang: "pt_BR"})
			},
			expectSubject: "Cadastro aprovado para ana",
			expectLinks:   []string{},
			expectInText:  []string{"Seu cadastro em lemmy.example foi aprovado."},
		},
		{
			description: "test email",
			send: func(s *Sender) error {
				return s.Test(context.Background(), Recipient{Email: "admin@example.com", Name: "admin"})
			},
			expectSubject: "Test email from lemmy.example",
			expectLinks:   []string{},
			expectInText:  []string{"This is a test email from lemmy.example."},
		},
		{
			description: "names are escaped in the HTML body",
			send: func(s *Sender) error {
				return s.PasswordReset(context.Background(), Recipient{Email: "eve@example.com", Name: "<b>eve</b>"}, "abc123")
			},
			expectSubject: "Password reset for <b>eve</b>",
			expectLinks:   []string{"https://lemmy.example/password_change/abc123"},
			expectInHTML:  []string{"Hello &lt;b&gt;eve&lt;/b&gt;,"},
			expectInText:  []string{"Hello <b>eve</b>,"},
			expectNotHTML: []string{"<b>eve</b>"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			srv := startSink(t, smtptest.Options{})
			require.NoError(t, tc.send(newSender(srv.Address())))

			r := receivedEmails(t, srv)
			require.Len(t, r, 1)
			assert.Equal(t, tc.expectSubject, r[0].subject)
			if tc.expectLinks != nil {
				assert.Equal(t, tc.expectLinks, smtptest.ExtractLinks(r[0].html))
			}
			for _, s := range tc.expectInHTML {
				assert.Contains(t, r[0].html, s)
			}
			for _, s := range tc.expectInText {
				assert.Contains(t, r[0].text, s)
			}
			for _, s := range tc.expectNotHTML {
				assert.NotContains(t, r[0].html, s)
			}
			assert.Contains(t, r[0].html, "<!DOCTYPE html>")
		})
	}
}

func TestNewApplicant(t *testing.T) {
	t.Setenv(userconfig.PasswordEnvVar, "")
	srv := startSink(t, smtptest.Options{})

	admins := []Recipient{
		{Email: "one@example.com", Name: "one"},
		{Email: "two@example.com", Name: "two", Lang: "fr"},
	}
	err := newSender(srv.Address()).NewApplicant(context.Background(), admins, "carol")
	require.NoError(t, err)

	r := receivedEmails(t, srv)
	require.Len(t, r, 2)

	assert.Equal(t, []string{"one@example.com"}, r[0].to)
	assert.Equal(t, "New registration application carol on lemmy.example", r[0].subject)
	assert.Equal(t, []string{"https://lemmy.example/registration_applications"}, smtptest.ExtractLinks(r[0].html))

	assert.Equal(t, []string{"two@example.com"}, r[1].to)
	assert.Equal(t, "Nouvelle demande d'inscription carol sur lemmy.example", r[1].subject)
}

func TestNewApplicantContinuesPastFailures(t *testing.T) {
	t.Setenv(userconfig.PasswordEnvVar, "")
	srv := startSink(t, smtptest.Options{RejectRecipients: []string{"gone@example.com"}})

	admins := []Recipient{
		{Email: "gone@example.com", Name: "gone"},
		{Email: "not an address", Name: "broken"},
		{Email: "here@example.com", Name: "here"},
	}
	err := newSender(srv.Address()).NewApplicant(context.Background(), admins, "carol")
	require.Error(t, err)
	assert.ErrorIs(t, err, email.ErrEmailSendFailed)
	assert.ErrorIs(t, err, email.ErrInvalidEmailAddress)
	assert.Contains(t, err.Error(), "gone@example.com")

	r := receivedEmails(t, srv)
	require.Len(t, r, 1)
	assert.Equal(t, []string{"here@example.com"}, r[0].to)
}

func TestNewApplicantNoAdmins(t *testing.T) {
	srv := startSink(t, smtptest.Options{})
	assert.NoError(t, newSender(srv.Address()).NewApplicant(context.Background(), nil, "carol"))
	assert.Equal(t, 0, srv.Connections())
}

func TestNoEmailSetup(t *testing.T) {
	ctx := context.Background()
	r := Recipient{Email: "bob@example.com", Name: "bob"}

	testCases := []struct {
		description string
		sender      *Sender
	}{
		{
			description: "nil settings",
			sender:      &Sender{},
		},
		{
			description: "no email section",
			sender:      &Sender{Settings: &userconfig.Settings{Hostname: "lemmy.example"}},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			assert.ErrorIs(t, tc.sender.PasswordReset(ctx, r, "tok"), email.ErrNoEmailSetup)
			assert.ErrorIs(t, tc.sender.VerifyEmail(ctx, r, "tok"), email.ErrNoEmailSetup)
			assert.ErrorIs(t, tc.sender.ApplicationApproved(ctx, r), email.ErrNoEmailSetup)
			assert.ErrorIs(t, tc.sender.NewApplicant(ctx, []Recipient{r}, "carol"), email.ErrNoEmailSetup)
			assert.ErrorIs(t, tc.sender.Test(ctx, r), email.ErrNoEmailSetup)
		})
	}
}
