package email

import (
	"errors"
	"fmt"
)

var (
	// ErrNoEmailSetup means the settings have no email section.
	ErrNoEmailSetup = errors.New("no email setup")
	// ErrNoHostname means the settings don't say which domain we serve.
	// It names the EHLO identity and the Message-ID domain.
	ErrNoHostname = errors.New("the settings need a hostname")
	// ErrSMTPServerNeedsHost means the SMTP server address has no host.
	ErrSMTPServerNeedsHost = errors.New("the SMTP server address needs a host")
	// ErrSMTPServerNeedsPort means the SMTP server address has no port.
	ErrSMTPServerNeedsPort = errors.New("the SMTP server address needs a port")
	// ErrInvalidSMTPPort means the port of the SMTP server address is not
	// a number between 0 and 65535.
	ErrInvalidSMTPPort = errors.New("can't parse the SMTP server port")
	// ErrInvalidEmailAddress is matched by every *InvalidAddressError.
	ErrInvalidEmailAddress = errors.New("invalid email address")
	// ErrPlainText means the HTML body couldn't be converted to text.
	ErrPlainText = errors.New("can't convert the HTML body to plain text")
	// ErrEmailSendFailed covers every failure while talking to the relay.
	// Callers can't tell a rejected recipient from an unreachable server.
	ErrEmailSendFailed = errors.New("email send failed")
)

// InvalidAddressError reports an address that isn't a valid mailbox.
type InvalidAddressError struct {
	Address string
	Err     error
}

func (e *InvalidAddressError) Error() string {
	return fmt.Sprintf("%v %q: %v", ErrInvalidEmailAddress, e.Address, e.Err)
}

// Is lets errors.Is(err, ErrInvalidEmailAddress) match any
// InvalidAddressError.
func (e *InvalidAddressError) Is(target error) bool {
	return target == ErrInvalidEmailAddress
}

func (e *InvalidAddressError) Unwrap() error {
	return e.Err
}
