package email

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
)

// ParseSMTPServer splits an SMTP server address of the form host:port.
// A missing host, a missing port and a port that isn't a number are
// reported as ErrSMTPServerNeedsHost, ErrSMTPServerNeedsPort and
// ErrInvalidSMTPPort respectively.
func ParseSMTPServer(addr string) (host string, port uint16, err error) {
	if addr == "" {
		return "", 0, ErrSMTPServerNeedsHost
	}
	// A bare IPv6 address has colons but still no port
	if !strings.Contains(addr, ":") || net.ParseIP(addr) != nil {
		return "", 0, fmt.Errorf("%w: %q", ErrSMTPServerNeedsPort, addr)
	}

	h, p, err := net.SplitHostPort(addr)
	if err != nil {
		var ae *net.AddrError
		if errors.As(err, &ae) && ae.Err == "missing port in address" {
			return "", 0, fmt.Errorf("%w: %q", ErrSMTPServerNeedsPort, addr)
		}
		return "", 0, fmt.Errorf("%w: %v", ErrInvalidSMTPPort, err)
	}

	if h == "" {
		return "", 0, fmt.Errorf("%w: %q", ErrSMTPServerNeedsHost, addr)
	}
	if p == "" {
		return "", 0, fmt.Errorf("%w: %q", ErrSMTPServerNeedsPort, addr)
	}

	n, err := strconv.ParseUint(p, 10, 16)
	if err != nil {
		return "", 0, fmt.Errorf("%w: %v", ErrInvalidSMTPPort, err)
	}

	return h, uint16(n), nil
}
