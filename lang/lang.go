package lang

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Lang is a handle to one of the translation catalogs compiled into the
// binary. The zero value is English.
type Lang int

const (
	English Lang = iota
	German
	French
	Spanish
	BrazilianPortuguese
)

var tags = [...]language.Tag{
	English:             language.English,
	German:              language.German,
	French:              language.French,
	Spanish:             language.Spanish,
	BrazilianPortuguese: language.BrazilianPortuguese,
}

// Lookup tables keyed by canonical tag strings. Filled in by init.
var (
	byTag  = make(map[string]Lang, len(tags))
	byBase = make(map[string]Lang, len(tags))
)

// Supported returns every Lang with a compiled-in catalog.
func Supported() []Lang {
	l := make([]Lang, len(tags))
	for i := range tags {
		l[i] = Lang(i)
	}
	return l
}

// Tag returns the BCP 47 tag of l. Unknown values are treated as English.
func (l Lang) Tag() language.Tag {
	if l < 0 || int(l) >= len(tags) {
		return tags[English]
	}
	return tags[l]
}

func (l Lang) String() string {
	return l.Tag().String()
}

// Printer returns a printer that formats the message keys in this package
// using l's catalog.
func (l Lang) Printer() *message.Printer {
	return message.NewPrinter(l.Tag(), message.Catalog(translations))
}

// Resolve returns the Lang for a language preference such as "de",
// "pt_BR" or "en-US". The match is on the whole tag first, then on its
// base language. Anything we don't have a catalog for, including an
// empty or malformed tag, resolves to English.
func Resolve(tag string) Lang {
	t, err := language.Parse(strings.ReplaceAll(strings.TrimSpace(tag), "_", "-"))
	if err != nil {
		return English
	}

	if l, ok := byTag[t.String()]; ok {
		return l
	}

	b, conf := t.Base()
	if conf != language.Exact {
		return English
	}
	if l, ok := byBase[b.String()]; ok {
		return l
	}

	return English
}
