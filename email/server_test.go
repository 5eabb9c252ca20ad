package email

import (
	"errors"
	"testing"
)

func TestParseSMTPServer(t *testing.T) {
	testCases := []struct {
		description string
		input       string
		host        string
		port        uint16
		err         error
	}{
		{
			description: "host and port",
			input:       "smtp.example.com:587",
			host:        "smtp.example.com",
			port:        587,
		},
		{
			description: "IP address",
			input:       "127.0.0.1:25",
			host:        "127.0.0.1",
			port:        25,
		},
		{
			description: "IPv6 address",
			input:       "[::1]:465",
			host:        "::1",
			port:        465,
		},
		{
			description: "no port",
			input:       "smtp.example.com",
			err:         ErrSMTPServerNeedsPort,
		},
		{
			description: "colon but no port",
			input:       "smtp.example.com:",
			err:         ErrSMTPServerNeedsPort,
		},
		{
			description: "bracketed IPv6 address without a port",
			input:       "[::1]",
			err:         ErrSMTPServerNeedsPort,
		},
		{
			description: "bare IPv6 address",
			input:       "::1",
			err:         ErrSMTPServerNeedsPort,
		},
		{
			description: "IPv6 address with an empty port",
			input:       "[::1]:",
			err:         ErrSMTPServerNeedsPort,
		},
		{
			description: "non-numeric port",
			input:       "smtp.example.com:abc",
			err:         ErrInvalidSMTPPort,
		},
		{
			description: "port out of range",
			input:       "smtp.example.com:70000",
			err:         ErrInvalidSMTPPort,
		},
		{
			description: "no host",
			input:       ":25",
			err:         ErrSMTPServerNeedsHost,
		},
		{
			description: "empty",
			input:       "",
			err:         ErrSMTPServerNeedsHost,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			h, p, err := ParseSMTPServer(tc.input)
			if tc.err != nil {
				if !errors.Is(err, tc.err) {
					t.Fatalf("expected error %v but got %v", tc.err, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if h != tc.host || p != tc.port {
				t.Errorf("expected %v:%v but got %v:%v", tc.host, tc.port, h, p)
			}
		})
	}
}
