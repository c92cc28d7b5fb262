// Package extract holds the pure field extractors that turn raw page text
// and DOM snapshots into normalized business contact fields. Nothing here
// touches a browser, so every heuristic is unit-testable offline.
package extract

import (
	"regexp"
	"strings"
)

var (
	leadingJunkRe = regexp.MustCompile(`^[^a-zA-Z0-9\s.,'#\-+/&_]+`)
	controlRe     = regexp.MustCompile(`[\x{0000}-\x{001f}\x{007f}-\x{009f}\x{feff}]`)
	wsRe          = regexp.MustCompile(`\s+`)
	emailRe       = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
)

// CleanText strips decorative leading symbols, control characters, and
// collapses all whitespace runs into single spaces.
func CleanText(text string) string {
	if text == "" {
		return ""
	}
	cleaned := leadingJunkRe.ReplaceAllString(text, "")
	cleaned = controlRe.ReplaceAllString(cleaned, "")
	return strings.TrimSpace(wsRe.ReplaceAllString(cleaned, " "))
}

var nonDigitRe = regexp.MustCompile(`\D`)

// NormalizePhone strips non-digits and, for the designated domestic country,
// rewrites the trunk prefix into the international one. Bare local numbers
// (8-10 digits without a prefix) get the country code prepended.
func NormalizePhone(raw, country string) string {
	if raw == "" {
		return ""
	}
	cleaned := nonDigitRe.ReplaceAllString(strings.TrimSpace(raw), "")
	if !strings.EqualFold(strings.TrimSpace(country), "australia") {
		return cleaned
	}
	switch {
	case strings.HasPrefix(cleaned, "0"):
		cleaned = "61" + cleaned[1:]
	case strings.HasPrefix(cleaned, "61"):
	case len(cleaned) >= 8 && len(cleaned) <= 10:
		cleaned = "61" + cleaned
	}
	// A trunk zero surviving behind the country code is a double prefix.
	if strings.HasPrefix(cleaned, "610") && len(cleaned) > 10 {
		cleaned = "61" + cleaned[3:]
	}
	return cleaned
}

// ownerTitles are the role keywords that anchor the owner-name scan.
var ownerTitles = []string{
	"owner", "founder", "director", "co-founder", "principal",
	"manager", "proprietor", "ceo", "president",
}

// genericWords disqualify a candidate owner name; they mark boilerplate
// lines rather than people.
var genericWords = []string{
	"project", "business", "team", "contact", "support", "admin", "office",
	"store", "shop", "sales", "info", "general", "us", "our", "hello",
	"get in touch", "enquiries", "email", "phone", "location", "locations",
	"company", "services", "trading", "group", "ltd", "pty", "inc", "llc",
	"customer", "relations", "marketing", "welcome", "home", "privacy",
	"terms", "cookies", "copyright", "all rights reserved", "headquarters",
	"menu", "products", "delivery", "online",
}

var (
	articleRe = regexp.MustCompile(`(?i)^(the|a|an)\s+`)
	suffixRe  = regexp.MustCompile(`(?i)\s+(of|and|inc|ltd|pty|group|llc)\s*$`)
)

// OwnerName scans page text for a line naming a person with a role title
// (owner, founder, ...) and returns the capitalized 2-4 word name preceding
// the title, or "" when no line passes the name-shape and generic-word
// checks.
func OwnerName(pageText string) string {
	for _, line := range strings.Split(pageText, "\n") {
		lower := lowerASCII(line)
		for _, title := range ownerTitles {
			idx := strings.Index(lower, title)
			if idx < 0 {
				continue
			}
			candidate := strings.TrimSpace(line[:idx])
			candidate = strings.TrimRight(candidate, " ,-:|")
			candidate = articleRe.ReplaceAllString(candidate, "")
			candidate = suffixRe.ReplaceAllString(candidate, "")
			candidate = strings.TrimSpace(candidate)
			if looksLikePersonName(candidate) && !containsGenericWord(candidate) {
				return candidate
			}
		}
	}
	return ""
}

// lowerASCII folds only A-Z so byte offsets stay valid in the original
// string. strings.ToLower can change byte lengths for some Unicode runes,
// which would break the line[:idx] slice above. The title keywords are all
// ASCII, so this fold is enough for the match.
func lowerASCII(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= 'A' && r <= 'Z' {
			return r + ('a' - 'A')
		}
		return r
	}, s)
}

// looksLikePersonName accepts 2-4 words, each capitalized or very short
// (particles like "de", "van").
func looksLikePersonName(s string) bool {
	if len(s) <= 3 {
		return false
	}
	words := strings.Fields(s)
	if len(words) < 2 || len(words) > 4 {
		return false
	}
	for _, w := range words {
		r := []rune(w)
		if len(r) > 3 && !isUpper(r[0]) {
			return false
		}
	}
	return true
}

func isUpper(r rune) bool { return r >= 'A' && r <= 'Z' }

func containsGenericWord(s string) bool {
	lower := strings.ToLower(s)
	for _, w := range genericWords {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

// textEmailSkips drop matches that are platform defaults or generic inboxes;
// the validator applies the full ruleset later, this just avoids surfacing
// obvious noise from free-text scans.
var textEmailSkips = []string{"wix.com", "squarespace.com", "mail.ru", "noreply", "info@", "contact@"}

// EmailFromText returns the first plausible email address found in free page
// text, skipping platform-default and generic addresses.
func EmailFromText(pageText string) string {
	for _, match := range emailRe.FindAllString(pageText, -1) {
		lower := strings.ToLower(match)
		skip := false
		for _, frag := range textEmailSkips {
			if strings.Contains(lower, frag) {
				skip = true
				break
			}
		}
		if !skip {
			return match
		}
	}
	return ""
}
