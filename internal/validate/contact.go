// Package validate classifies extracted phone numbers and email addresses as
// qualifying business contacts. The phone check is deliberately mobile-only
// to bias toward reachable contacts.
package validate

import (
	_ "embed"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

//go:embed blocklists.yaml
var defaultBlocklists []byte

var nonDigitRe = regexp.MustCompile(`\D`)

// emailShapeRe is a minimal local@domain.tld check, not RFC validation.
var emailShapeRe = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// Blocklists holds the domain and local-part denylists applied to emails.
type Blocklists struct {
	// BlockedDomains are freemail, webhosting, and platform domains whose
	// addresses never qualify as business emails.
	BlockedDomains []string `yaml:"blocked_domains" mapstructure:"blocked_domains"`
	// GenericPrefixes are shared-inbox local parts; they disqualify an
	// address only on a subdomain of a blocked domain.
	GenericPrefixes []string `yaml:"generic_prefixes" mapstructure:"generic_prefixes"`
}

// Validator applies the contact qualification rules.
type Validator struct {
	blockedDomains  map[string]struct{}
	genericPrefixes map[string]struct{}
	verifyMX        bool
}

// Option customizes a Validator.
type Option func(*Validator)

// WithMXVerification enables DNS MX lookups for otherwise-passing emails.
func WithMXVerification() Option {
	return func(v *Validator) { v.verifyMX = true }
}

// WithBlocklists replaces the embedded default blocklists.
func WithBlocklists(b Blocklists) Option {
	return func(v *Validator) { v.load(b) }
}

// New builds a Validator with the embedded default blocklists.
func New(opts ...Option) (*Validator, error) {
	var b Blocklists
	if err := yaml.Unmarshal(defaultBlocklists, &b); err != nil {
		return nil, eris.Wrap(err, "validate: parse embedded blocklists")
	}
	v := &Validator{}
	v.load(b)
	for _, opt := range opts {
		opt(v)
	}
	return v, nil
}

func (v *Validator) load(b Blocklists) {
	v.blockedDomains = make(map[string]struct{}, len(b.BlockedDomains))
	for _, d := range b.BlockedDomains {
		v.blockedDomains[strings.ToLower(strings.TrimSpace(d))] = struct{}{}
	}
	v.genericPrefixes = make(map[string]struct{}, len(b.GenericPrefixes))
	for _, p := range b.GenericPrefixes {
		v.genericPrefixes[strings.ToLower(strings.TrimSpace(p))] = struct{}{}
	}
}

// IsQualifyingPhone reports whether the number is a domestic mobile for the
// given country. Accepted Australian forms after digit-stripping: the
// trunk-prefixed "04xxxxxxxx", the international "614xxxxxxxx", or the
// latter with a leading plus. Landlines and unknown countries fail.
func IsQualifyingPhone(phone, country string) bool {
	if !strings.EqualFold(strings.TrimSpace(country), "australia") {
		return false
	}
	digits := nonDigitRe.ReplaceAllString(phone, "")
	switch len(digits) {
	case 10:
		return strings.HasPrefix(digits, "04")
	case 11:
		return strings.HasPrefix(digits, "614")
	default:
		return false
	}
}

// IsBusinessEmail reports whether the address looks like a genuine business
// inbox. Well-shaped addresses on blocked domains never pass. On a subdomain
// of a blocked entry (a site hosted on a platform, like acme.myshopify.com)
// a named local part still passes but a generic shared inbox does not.
// Generic prefixes on a real business domain always pass.
func (v *Validator) IsBusinessEmail(email string) bool {
	email = strings.TrimSpace(email)
	if !emailShapeRe.MatchString(email) {
		return false
	}
	at := strings.LastIndex(email, "@")
	local := strings.ToLower(email[:at])
	domain := strings.ToLower(email[at+1:])

	if _, blocked := v.blockedDomains[domain]; blocked {
		return false
	}
	if _, generic := v.genericPrefixes[local]; generic && v.hostedOnBlocked(domain) {
		return false
	}
	if v.verifyMX && !HasMXRecords(domain) {
		return false
	}
	return true
}

// hostedOnBlocked reports whether domain is a subdomain of a blocked entry.
func (v *Validator) hostedOnBlocked(domain string) bool {
	for blocked := range v.blockedDomains {
		if strings.HasSuffix(domain, "."+blocked) {
			return true
		}
	}
	return false
}
