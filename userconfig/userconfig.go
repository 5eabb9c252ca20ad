package userconfig

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/rs/zerolog/log"

	yaml "gopkg.in/yaml.v2"
)

// PasswordEnvVar names the environment variable that, when set, overrides
// the SMTP password in the config file so the secret can stay out of it.
const PasswordEnvVar = "MAILNOTIFY_SMTP_PASSWORD"

// Settings represents all current config options that the application can
// use, i.e., after validation and parsing
type Settings struct {
	// Hostname is the serving domain. It identifies the client during
	// EHLO and forms the domain part of each Message-ID.
	Hostname string `yaml:"hostname"`
	// Email is nil if the config has no "email" section. Senders treat
	// that as "email is not set up" rather than skipping silently.
	Email *EmailConfig `yaml:"email"`
}

// EmailConfig contains the options for connecting to an SMTP relay.
type EmailConfig struct {
	// host:port of the relay
	SMTPServer      string
	SMTPFromAddress string
	// "starttls", "tls", or anything else for an unencrypted connection
	TLSType      string
	SMTPLogin    string
	SMTPPassword string
	// Accept any certificate the relay presents. Only useful against
	// relays with self-signed certs, e.g., in tests.
	SkipCertVerification bool
}

// UnmarshalYAML implements the yaml.Unmarshaler interface. Validation is
// performed here.
func (ec *EmailConfig) UnmarshalYAML(unmarshal func(interface{}) error) error {
	v := make(map[string]string)
	err := unmarshal(&v)

	if err != nil {
		return fmt.Errorf("can't parse the email config: %v", err)
	}

	s, ok := v["smtp_server"]
	if !ok || s == "" {
		return errors.New("the email config must include an SMTP server address")
	}
	ec.SMTPServer = s

	f, ok := v["smtp_from_address"]
	if !ok || f == "" {
		return errors.New("the email config must include a \"from\" address")
	}
	ec.SMTPFromAddress = f

	ec.TLSType = v["tls_type"]
	ec.SMTPLogin = v["smtp_login"]
	ec.SMTPPassword = v["smtp_password"]

	sv, ok := v["skip_cert_verification"]
	if !ok {
		sv = "false"
	}
	b, err := strconv.ParseBool(sv)
	if err != nil {
		return fmt.Errorf("can't parse skip_cert_verification as a boolean: %v", err)
	}
	ec.SkipCertVerification = b

	return nil
}

// Password returns the SMTP password, preferring the value of
// PasswordEnvVar if it is set.
func (ec *EmailConfig) Password() string {
	if p, ok := os.LookupEnv(PasswordEnvVar); ok && p != "" {
		return p
	}
	return ec.SMTPPassword
}

// Credentials returns the SMTP login and password and whether both are
// present. Authentication only happens when ok is true.
func (ec *EmailConfig) Credentials() (login, password string, ok bool) {
	login = ec.SMTPLogin
	password = ec.Password()
	return login, password, login != "" && password != ""
}

// CheckAndSetDefaults validates s and either returns a copy of s or
// returns an error due to an invalid configuration
func (s *Settings) CheckAndSetDefaults() (Settings, error) {
	if s.Hostname == "" {
		return Settings{}, errors.New(
			"user-provided config does not include a hostname",
		)
	}

	c := Settings{Hostname: s.Hostname}
	if s.Email != nil {
		e := *s.Email
		c.Email = &e
	}

	return c, nil
}

// Parse generates usable configurations from possibly arbitrary user input.
// An error indicates a problem with parsing or validation. The Reader r
// can be either JSON or YAML.
func Parse(r io.Reader) (*Settings, error) {
	var s Settings
	err := yaml.NewDecoder(r).Decode(&s)
	if err != nil {
		return &Settings{}, fmt.Errorf("can't read the config file as YAML: %v", err)
	}

	if s.Email == nil {
		log.Warn().Msg(
			"the config has no \"email\" section, so no email can be sent",
		)
	}

	c, err := s.CheckAndSetDefaults()
	if err != nil {
		return &Settings{}, err
	}

	return &c, nil
}
