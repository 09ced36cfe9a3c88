package domain

import (
	"net/mail"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// Identity is the email address or account string being monitored.
type Identity string

func (i Identity) String() string { return string(i) }

// IsEmail reports whether the identity looks like an email address.
func (i Identity) IsEmail() bool { return strings.Contains(string(i), "@") }

// Domain returns the registrable domain (eTLD+1) of an email identity, or ""
// for account strings.
func (i Identity) Domain() string {
	s := string(i)
	at := strings.LastIndex(s, "@")
	if at < 0 || at == len(s)-1 {
		return ""
	}
	host := strings.ToLower(s[at+1:])
	registrable, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host
	}
	return registrable
}

// ParseIdentity trims raw input and rejects empty values. Inputs containing an
// "@" must parse as a bare address whose host has a public suffix.
func ParseIdentity(raw string) (Identity, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", invalid("identity is required")
	}
	if !strings.Contains(s, "@") {
		return Identity(s), nil
	}
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return "", invalid("identity is not a valid email address")
	}
	host := s[strings.LastIndex(s, "@")+1:]
	if _, err := publicsuffix.EffectiveTLDPlusOne(strings.ToLower(host)); err != nil {
		return "", invalid("email domain has no registrable suffix")
	}
	return Identity(s), nil
}
