package collect

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/prospect-cli/internal/config"
)

// Selectors for the map-listing search surface.
const (
	mapsHomeURL    = "https://www.google.com/maps"
	feedSelector   = `div[role="feed"]`
	searchBoxSel   = `#searchboxinput`
	searchBtnSel   = `#searchbox-searchbutton`
	consentBtnSel  = `form[action^="https://consent.google.com"] button[aria-label="Accept all"]`
	placeLinkSel   = feedSelector + ` a[href*="https://www.google.com/maps/place/"]`
	consentTimeout = 10 * time.Second
)

// ListingSource surfaces candidate listing URLs via scroll-driven pagination.
// The search is submitted once per run; subsequent batches resume scrolling
// the same feed.
type ListingSource struct {
	session  Session
	cfg      *config.CollectConfig
	limiter  *rate.Limiter
	log      *zap.Logger
	searched bool
}

// NewListingSource creates a ListingSource over an open session.
func NewListingSource(session Session, cfg *config.CollectConfig, limiter *rate.Limiter, log *zap.Logger) *ListingSource {
	return &ListingSource{
		session: session,
		cfg:     cfg,
		limiter: limiter,
		log:     log.With(zap.String("component", "listing")),
	}
}

// DiscoverBatch scrolls the results feed collecting candidate URLs not yet
// in seen, until the batch reaches hint, the total scroll ceiling is hit, or
// MaxNoProgress consecutive iterations make no progress (no new URL and no
// scroll-height growth), which is the exhaustion heuristic for an unbounded
// surface.
// Newly discovered URLs are added to seen. An empty batch signals likely
// exhaustion. Returns ErrNoResultsSurface when the feed never renders.
func (s *ListingSource) DiscoverBatch(ctx context.Context, query string, hint int, seen map[string]struct{}) ([]string, error) {
	if !s.searched {
		if err := s.openSearch(ctx, query); err != nil {
			return nil, err
		}
		s.searched = true
	}

	var (
		batch          []string
		lastHeight     int
		noProgress     int
		scrollAttempts int
	)

	for scrollAttempts < s.cfg.MaxScrollAttempts && len(batch) < hint && noProgress < s.cfg.MaxNoProgress {
		hrefs, err := s.session.AnchorHrefs(ctx, placeLinkSel)
		if err != nil {
			return batch, err
		}

		newThisPass := 0
		for _, href := range hrefs {
			if _, dup := seen[href]; dup {
				continue
			}
			seen[href] = struct{}{}
			batch = append(batch, href)
			newThisPass++
		}

		if err := s.session.ScrollToBottom(ctx, feedSelector); err != nil {
			return batch, err
		}
		if err := sleepCtx(ctx, s.cfg.ScrollSettle()); err != nil {
			return batch, err
		}
		scrollAttempts++

		height, err := s.session.ScrollHeight(ctx, feedSelector)
		if err != nil {
			return batch, err
		}

		if newThisPass > 0 || height > lastHeight {
			noProgress = 0
		} else {
			noProgress++
		}
		lastHeight = height
	}

	s.log.Debug("batch collected",
		zap.Int("batch", len(batch)),
		zap.Int("hint", hint),
		zap.Int("scrolls", scrollAttempts),
		zap.Int("no_progress", noProgress),
	)
	return batch, nil
}

// openSearch navigates to the search surface, dismisses the consent dialog
// when present, and submits the query. The consent click is best-effort.
func (s *ListingSource) openSearch(ctx context.Context, query string) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}
	if err := s.session.Navigate(ctx, mapsHomeURL); err != nil {
		return err
	}
	if err := s.session.WaitVisible(ctx, consentBtnSel, consentTimeout); err == nil {
		if err := s.session.Click(ctx, consentBtnSel); err == nil {
			s.log.Debug("consent dialog dismissed")
		}
	}
	if err := s.session.SendKeys(ctx, searchBoxSel, query); err != nil {
		return err
	}
	if err := s.session.Click(ctx, searchBtnSel); err != nil {
		return err
	}
	if err := s.session.WaitVisible(ctx, feedSelector, s.cfg.FeedWait()); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return ErrNoResultsSurface
	}
	return nil
}

// sleepCtx sleeps for d or until the context is canceled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
