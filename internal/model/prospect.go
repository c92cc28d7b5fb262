// Package model defines the request and record shapes shared across the
// collection pipeline.
package model

import (
	"strings"

	"github.com/rotisserie/eris"
)

// QualificationMode selects which contact fields a business must carry to
// count toward the target.
type QualificationMode string

const (
	// RequireBoth accepts only businesses with a valid phone AND email.
	RequireBoth QualificationMode = "both"
	// RequireEither accepts businesses with a valid phone OR email.
	RequireEither QualificationMode = "either"
)

// CollectionRequest describes one collection run. Immutable for the run's
// lifetime.
type CollectionRequest struct {
	Category    string            `json:"category"`
	Area        string            `json:"area"`
	Country     string            `json:"country"`
	TargetCount int               `json:"count"` // 0 means unbounded
	Mode        QualificationMode `json:"mode"`
}

// Validate checks the request before any browser session is opened.
func (r *CollectionRequest) Validate() error {
	if strings.TrimSpace(r.Category) == "" {
		return eris.New("request: category is required")
	}
	if strings.TrimSpace(r.Area) == "" {
		return eris.New("request: area or postal code is required")
	}
	if strings.TrimSpace(r.Country) == "" {
		return eris.New("request: country is required")
	}
	if r.TargetCount < 0 {
		return eris.Errorf("request: count must be >= 0, got %d", r.TargetCount)
	}
	switch r.Mode {
	case RequireBoth, RequireEither:
	case "":
		r.Mode = RequireBoth
	default:
		return eris.Errorf("request: unknown qualification mode %q", r.Mode)
	}
	return nil
}

// Unbounded reports whether the run has no target ceiling.
func (r *CollectionRequest) Unbounded() bool { return r.TargetCount == 0 }

// SearchQuery builds the listing-surface query string.
func (r *CollectionRequest) SearchQuery() string {
	return r.Category + " in " + r.Area + ", " + r.Country
}

// RawBusiness holds the merged output of the two detail-fetch stages before
// qualification. Listing fields are authoritative for name/address/phone/
// website/listing URL; website fields for email/owner/socials. A later stage
// never overwrites a field an earlier stage set.
type RawBusiness struct {
	BusinessName  string `json:"business_name"`
	StreetAddress string `json:"street_address"`
	Website       string `json:"website"`
	Phone         string `json:"phone"`
	ListingURL    string `json:"listing_url"`
	OwnerName     string `json:"owner_name"`
	Email         string `json:"email"`
	InstagramURL  string `json:"instagram_url"`
	FacebookURL   string `json:"facebook_url"`
}

// Prospect is a qualified, deduplicated business record.
type Prospect struct {
	RawBusiness
	IdentityKey string `json:"-"`
}

// MakeIdentityKey derives the dedup key from name and website. Empty when
// both inputs are empty, in which case dedup does not apply.
func MakeIdentityKey(name, website string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	website = strings.ToLower(strings.TrimSpace(website))
	if name == "" && website == "" {
		return ""
	}
	return name + "|" + website
}

// Result is the terminal outcome of a completed run. A shortfall is a partial
// success, not an error.
type Result struct {
	Prospects    []Prospect `json:"prospects"`
	RawProcessed int        `json:"raw_processed"`
	Discovered   int        `json:"discovered"`
	Attempts     int        `json:"collection_attempts"`
	Shortfall    bool       `json:"shortfall"`
}
