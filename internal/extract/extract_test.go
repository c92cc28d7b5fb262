package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Acme Plumbing", "Acme Plumbing"},
		{"leading glyph", " Acme Plumbing", "Acme Plumbing"},
		{"control chars", "Acme\u0001 Plumbing\uFEFF", "Acme Plumbing"},
		{"whitespace runs", "  12 High St,\n Newcastle  NSW ", "12 High St, Newcastle NSW"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanText(tt.in))
		})
	}
}

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		country string
		want    string
	}{
		{"trunk prefix", "0412 345 678", "australia", "61412345678"},
		{"already international", "+61 412 345 678", "australia", "61412345678"},
		{"bare local", "49123456", "australia", "6149123456"},
		{"double prefix collapsed", "610412345678", "australia", "61412345678"},
		{"landline keeps country code", "02 4912 3456", "australia", "61249123456"},
		{"other country untouched", "0412 345 678", "germany", "0412345678"},
		{"empty", "", "australia", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizePhone(tt.raw, tt.country))
		})
	}
}

func TestOwnerName(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"dash separator", "Our people\nJane Citizen - Owner\nCall us", "Jane Citizen"},
		{"comma separator", "Bob van Dyk, Founder of Acme", "Bob van Dyk"},
		{"article stripped", "The Sarah Jones Director bio", "Sarah Jones"},
		{"generic line rejected", "Contact the Team - Manager", ""},
		{"lowercase rejected", "jane citizen - owner", ""},
		{"too many words", "One Two Three Four Five - Director", ""},
		{"no title", "Jane Citizen writes poetry", ""},
		{"multibyte before title", "İş Jane CitizenOwner", "İş Jane Citizen"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, OwnerName(tt.text))
		})
	}
}

func TestEmailFromText(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"plain", "Reach us at jane@acmeplumbing.com.au today", "jane@acmeplumbing.com.au"},
		{"skips generic then finds named", "info@acme.com.au or jane@acme.com.au", "jane@acme.com.au"},
		{"platform default skipped", "noreply@sitebuilder.wix.com", ""},
		{"nothing", "no address here", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EmailFromText(tt.text))
		})
	}
}
