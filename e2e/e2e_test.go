package e2e

import (
	"context"
	"mime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ptgott/mailnotify/email"
	"github.com/ptgott/mailnotify/lang"
	"github.com/ptgott/mailnotify/notify"
	"github.com/ptgott/mailnotify/smtptest"
	"github.com/ptgott/mailnotify/userconfig"
)

// retrieveParsed returns every message the server received, parsed.
func retrieveParsed(t *testing.T, s smtptest.Server) []*smtptest.ParsedEmail {
	t.Helper()
	ems, err := s.RetrieveEmails(0)
	if err != nil {
		t.Fatalf("can't retrieve email from the test SMTP server: %v", err)
	}
	r := make([]*smtptest.ParsedEmail, len(ems))
	for i := range ems {
		pe, err := smtptest.ParseEmail(ems[i])
		if err != nil {
			t.Fatalf("can't parse email %v: %v", i, err)
		}
		r[i] = pe
	}
	return r
}

func subject(t *testing.T, pe *smtptest.ParsedEmail) string {
	t.Helper()
	var dec mime.WordDecoder
	s, err := dec.DecodeHeader(pe.Header.Get("Subject"))
	require.NoError(t, err)
	return s
}

// Load a config file for each kind of relay and make sure a password reset
// email arrives intact, over the expected transport.
func TestPasswordResetFromConfigFile(t *testing.T) {
	t.Setenv(userconfig.PasswordEnvVar, "")

	testCases := []struct {
		description string
		tlsType     string
		expectTLS   bool
	}{
		{
			description: "plaintext relay",
			tlsType:     "none",
			expectTLS:   false,
		},
		{
			description: "STARTTLS relay",
			tlsType:     "starttls",
			expectTLS:   true,
		},
		{
			description: "implicit TLS relay",
			tlsType:     "tls",
			expectTLS:   true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			testenv, err := startTestEnvironment(t, testEnvironmentConfig{
				tlsType:     tc.tlsType,
				requireAuth: true,
			})

			defer testenv.tearDown()

			if err != nil {
				t.Fatalf("error starting test environment: %v", err)
			}

			config, err := testenv.loadConfig(appConfigOptions{
				Login:    "lemmy",
				Password: "hunter2",
			})
			if err != nil {
				t.Fatalf("can't load the app config: %v", err)
			}

			s := &notify.Sender{Settings: config}
			err = s.PasswordReset(
				context.Background(),
				notify.Recipient{Email: "bob@example.com", Name: "bob", Lang: "en"},
				"t0k3n",
			)
			require.NoError(t, err)

			msgs := testenv.SMTPServer.Messages(0)
			require.Len(t, msgs, 1)
			assert.Equal(t, tc.expectTLS, msgs[0].TLS)
			assert.Equal(t, "lemmy", msgs[0].Username)
			assert.Equal(t, testHostname, msgs[0].HeloName)
			assert.Equal(t, "noreply@"+testHostname, msgs[0].From)

			ems := retrieveParsed(t, testenv.SMTPServer)
			require.Len(t, ems, 1)
			assert.Equal(t, "Password reset for bob", subject(t, ems[0]))
			assert.Equal(t,
				[]string{"https://lemmy.example/password_change/t0k3n"},
				smtptest.ExtractLinks(ems[0].Parts["text/html"]),
			)
			assert.Contains(t, ems[0].Parts["text/plain"], "https://lemmy.example/password_change/t0k3n")
			assert.True(t, strings.HasSuffix(ems[0].Header.Get("Message-ID"), "@"+testHostname+">"))
		})
	}
}

// The password in the environment takes the place of one in the file.
func TestPasswordFromEnvironment(t *testing.T) {
	t.Setenv(userconfig.PasswordEnvVar, "from-the-environment")

	testenv, err := startTestEnvironment(t, testEnvironmentConfig{
		tlsType:     "starttls",
		requireAuth: true,
	})

	defer testenv.tearDown()

	if err != nil {
		t.Fatalf("error starting test environment: %v", err)
	}

	config, err := testenv.loadConfig(appConfigOptions{Login: "lemmy"})
	if err != nil {
		t.Fatalf("can't load the app config: %v", err)
	}

	s := &notify.Sender{Settings: config}
	require.NoError(t, s.Test(context.Background(), notify.Recipient{Email: "admin@example.com"}))

	msgs := testenv.SMTPServer.Messages(0)
	require.Len(t, msgs, 1)
	assert.Equal(t, "lemmy", msgs[0].Username)
}

// Without credentials we can't get past a relay that requires them, and
// the caller only learns that the send failed.
func TestRelayRequiresAuth(t *testing.T) {
	t.Setenv(userconfig.PasswordEnvVar, "")

	testenv, err := startTestEnvironment(t, testEnvironmentConfig{
		tlsType:     "starttls",
		requireAuth: true,
	})

	defer testenv.tearDown()

	if err != nil {
		t.Fatalf("error starting test environment: %v", err)
	}

	config, err := testenv.loadConfig(appConfigOptions{})
	if err != nil {
		t.Fatalf("can't load the app config: %v", err)
	}

	s := &notify.Sender{Settings: config}
	err = s.Test(context.Background(), notify.Recipient{Email: "admin@example.com"})
	assert.ErrorIs(t, err, email.ErrEmailSendFailed)
	assert.Empty(t, retrieveParsed(t, testenv.SMTPServer))
}

func TestConfigWithoutEmailSection(t *testing.T) {
	testenv, err := startTestEnvironment(t, testEnvironmentConfig{})

	defer testenv.tearDown()

	if err != nil {
		t.Fatalf("error starting test environment: %v", err)
	}

	config, err := testenv.loadConfig(appConfigOptions{NoEmail: true})
	if err != nil {
		t.Fatalf("can't load the app config: %v", err)
	}
	assert.Nil(t, config.Email)

	s := &notify.Sender{Settings: config}
	err = s.Test(context.Background(), notify.Recipient{Email: "admin@example.com"})
	assert.ErrorIs(t, err, email.ErrNoEmailSetup)
	assert.Equal(t, 0, testenv.SMTPServer.Connections())
}

// Every catalog renders a complete message in its own language.
func TestEveryLanguage(t *testing.T) {
	t.Setenv(userconfig.PasswordEnvVar, "")

	testenv, err := startTestEnvironment(t, testEnvironmentConfig{})

	defer testenv.tearDown()

	if err != nil {
		t.Fatalf("error starting test environment: %v", err)
	}

	config, err := testenv.loadConfig(appConfigOptions{})
	if err != nil {
		t.Fatalf("can't load the app config: %v", err)
	}

	s := &notify.Sender{Settings: config}
	admins := make([]notify.Recipient, 0, len(lang.Supported()))
	for _, l := range lang.Supported() {
		admins = append(admins, notify.Recipient{
			Email: l.String() + "@example.com",
			Lang:  l.String(),
		})
	}
	require.NoError(t, s.NewApplicant(context.Background(), admins, "carol"))

	ems := retrieveParsed(t, testenv.SMTPServer)
	require.Len(t, ems, len(admins))

	subjects := make(map[string]struct{})
	for i, pe := range ems {
		l := lang.Supported()[i]
		subj := subject(t, pe)
		want := l.Printer().Sprintf(lang.NewApplicationSubject, "carol", testHostname)
		assert.Equal(t, want, subj, l.String())
		assert.Equal(t,
			[]string{"https://lemmy.example/registration_applications"},
			smtptest.ExtractLinks(pe.Parts["text/html"]),
			l.String(),
		)
		assert.NotEmpty(t, strings.TrimSpace(pe.Parts["text/plain"]), l.String())
		subjects[subj] = struct{}{}
	}
	// Each language has its own wording
	assert.Len(t, subjects, len(admins))
}
