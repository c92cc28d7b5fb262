package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// aboutKeywords mark links likely to lead to a page naming people and
// contact details.
var aboutKeywords = []string{
	"about", "team", "our-story", "who-we-are", "meet-the-team", "contact", "people",
}

// AboutLink returns the href of the first anchor whose visible text contains
// an about/contact/team keyword, or "" when none exists. Only absolute http
// links qualify.
func AboutLink(doc *goquery.Document) string {
	found := ""
	for _, keyword := range aboutKeywords {
		doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
			href, _ := sel.Attr("href")
			href = strings.TrimSpace(href)
			text := strings.ToLower(sel.Text())
			if strings.Contains(text, keyword) && strings.HasPrefix(href, "http") {
				found = href
				return false
			}
			return true
		})
		if found != "" {
			return found
		}
	}
	return ""
}

// FirstMailto returns the address of the first mailto: link, with any query
// suffix stripped.
func FirstMailto(doc *goquery.Document) string {
	email := ""
	doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, _ := sel.Attr("href")
		href = strings.TrimSpace(href)
		if !strings.HasPrefix(strings.ToLower(href), "mailto:") {
			return true
		}
		addr := href[len("mailto:"):]
		if idx := strings.Index(addr, "?"); idx >= 0 {
			addr = addr[:idx]
		}
		addr = strings.TrimSpace(addr)
		if addr != "" {
			email = addr
			return false
		}
		return true
	})
	return email
}

// SocialLinks returns the first instagram and facebook links found in the
// document, matched by hostname substring.
func SocialLinks(doc *goquery.Document) (instagram, facebook string) {
	doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, _ := sel.Attr("href")
		switch {
		case instagram == "" && strings.Contains(href, "instagram.com"):
			instagram = href
		case facebook == "" && strings.Contains(href, "facebook.com"):
			facebook = href
		}
		return instagram == "" || facebook == ""
	})
	return instagram, facebook
}
