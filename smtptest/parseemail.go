package smtptest

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/mail"
	"regexp"
	"strings"
)

// ParsedEmail is a received message split into its headers and the
// decoded body of each MIME part, keyed by media type (e.g., "text/plain").
type ParsedEmail struct {
	Header mail.Header
	// Media types in the order the parts appear
	PartTypes []string
	Parts     map[string]string
}

// ParseEmail reads a raw message as received by an InProcessServer. The
// message must be multipart. Quoted-printable parts are decoded.
func ParseEmail(raw string) (*ParsedEmail, error) {
	m, err := mail.ReadMessage(strings.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("can't read the message: %v", err)
	}

	mt, params, err := mime.ParseMediaType(m.Header.Get("Content-Type"))
	if err != nil {
		return nil, fmt.Errorf("can't parse the Content-Type header: %v", err)
	}
	if !strings.HasPrefix(mt, "multipart/") {
		return nil, fmt.Errorf("expected a multipart message but got %v", mt)
	}

	pe := &ParsedEmail{
		Header: m.Header,
		Parts:  make(map[string]string),
	}

	rdr := multipart.NewReader(m.Body, params["boundary"])
	for {
		// NextPart removes quoted-printable encoding for us
		p, err := rdr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("can't read a MIME part: %v", err)
		}
		pt, _, err := mime.ParseMediaType(p.Header.Get("Content-Type"))
		if err != nil {
			return nil, fmt.Errorf("can't parse the Content-Type of a part: %v", err)
		}
		b, err := io.ReadAll(p)
		if err != nil {
			return nil, fmt.Errorf("can't read the %v part: %v", pt, err)
		}
		pe.PartTypes = append(pe.PartTypes, pt)
		pe.Parts[pt] = string(b)
	}

	return pe, nil
}

var linkPattern = regexp.MustCompile(`href="([^"]+)"`)

// ExtractLinks returns the href of every link in an HTML body, in order.
// If a test that calls this starts failing, make sure the pattern it uses
// to match links is up to date.
func ExtractLinks(body string) []string {
	if body == "" {
		return []string{}
	}
	m := linkPattern.FindAllStringSubmatch(body, -1)
	r := make([]string, 0, len(m))
	for _, s := range m {
		r = append(r, s[1])
	}
	return r
}
