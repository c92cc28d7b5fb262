package collect

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/prospect-cli/internal/config"
	"github.com/sells-group/prospect-cli/internal/extract"
	"github.com/sells-group/prospect-cli/internal/model"
)

// Selectors for the listing detail page.
const (
	headingSel   = `h1`
	addressSel   = `button[data-item-id="address"]`
	authoritySel = `a[data-item-id="authority"]`
	phoneSel     = `button[data-item-id*="phone"]`
)

// DetailFetcher performs the two-tier fetch for one candidate: the listing
// detail page, then the business's own website when the listing names one.
type DetailFetcher struct {
	session Session
	cfg     *config.CollectConfig
	limiter *rate.Limiter
	country string
	log     *zap.Logger
}

// NewDetailFetcher creates a DetailFetcher over an open session.
func NewDetailFetcher(session Session, cfg *config.CollectConfig, limiter *rate.Limiter, country string, log *zap.Logger) *DetailFetcher {
	return &DetailFetcher{
		session: session,
		cfg:     cfg,
		limiter: limiter,
		country: country,
		log:     log.With(zap.String("component", "detail")),
	}
}

// FetchDetails loads the candidate's listing page and merges in whatever the
// website stage can add. Returns *DetailFetchError when the listing page
// never renders its heading; website-stage failures degrade to empty fields
// and never fail the candidate.
func (f *DetailFetcher) FetchDetails(ctx context.Context, candidateID string) (model.RawBusiness, error) {
	var raw model.RawBusiness

	if err := f.limiter.Wait(ctx); err != nil {
		return raw, err
	}
	if err := f.session.Navigate(ctx, candidateID); err != nil {
		if ctx.Err() != nil {
			return raw, ctx.Err()
		}
		return raw, &DetailFetchError{CandidateID: candidateID, Cause: err}
	}
	if err := f.session.WaitVisible(ctx, headingSel, f.cfg.HeadingWait()); err != nil {
		if ctx.Err() != nil {
			return raw, ctx.Err()
		}
		return raw, &DetailFetchError{CandidateID: candidateID, Cause: err}
	}

	name, _ := f.session.Text(ctx, headingSel)
	address, _ := f.session.Text(ctx, addressSel)
	website, _ := f.session.Attr(ctx, authoritySel, "href")
	phone, _ := f.session.Text(ctx, phoneSel)
	location, _ := f.session.Location(ctx)

	raw.BusinessName = extract.CleanText(name)
	raw.StreetAddress = extract.CleanText(address)
	raw.Website = strings.TrimSpace(website)
	raw.Phone = extract.NormalizePhone(phone, f.country)
	raw.ListingURL = location
	if raw.ListingURL == "" {
		raw.ListingURL = candidateID
	}

	if raw.Website != "" {
		f.fetchWebsite(ctx, &raw)
	}

	return raw, nil
}

// fetchWebsite runs the second tier: navigate to the business website,
// prefer an about/contact/team page when one is linked, and extract owner
// name, email, and social links. Every failure here is a degradation, not
// an error.
func (f *DetailFetcher) fetchWebsite(ctx context.Context, raw *model.RawBusiness) {
	if err := f.limiter.Wait(ctx); err != nil {
		return
	}
	if err := f.session.Navigate(ctx, raw.Website); err != nil {
		f.log.Debug("website unreachable", zap.String("website", raw.Website), zap.Error(err))
		return
	}

	if doc := f.document(ctx); doc != nil {
		if about := extract.AboutLink(doc); about != "" {
			if err := f.session.Navigate(ctx, about); err != nil {
				f.log.Debug("about page unreachable", zap.String("url", about), zap.Error(err))
				return
			}
		}
	}

	doc := f.document(ctx)
	pageText, err := f.session.BodyText(ctx)
	if err != nil {
		f.log.Debug("page text unavailable", zap.String("website", raw.Website), zap.Error(err))
		pageText = ""
	}

	if raw.OwnerName == "" {
		raw.OwnerName = extract.OwnerName(pageText)
	}
	if doc != nil {
		if raw.InstagramURL == "" || raw.FacebookURL == "" {
			instagram, facebook := extract.SocialLinks(doc)
			if raw.InstagramURL == "" {
				raw.InstagramURL = instagram
			}
			if raw.FacebookURL == "" {
				raw.FacebookURL = facebook
			}
		}
		if raw.Email == "" {
			raw.Email = extract.FirstMailto(doc)
		}
	}
	if raw.Email == "" {
		raw.Email = extract.EmailFromText(pageText)
	}
}

// document snapshots the current page into a goquery document, or nil when
// the page cannot be read.
func (f *DetailFetcher) document(ctx context.Context) *goquery.Document {
	html, err := f.session.HTML(ctx)
	if err != nil || html == "" {
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}
	return doc
}
