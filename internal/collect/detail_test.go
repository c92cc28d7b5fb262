package collect

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

func testDetailFetcher(session *stubSession) *DetailFetcher {
	return NewDetailFetcher(session, testCollectConfig(), rate.NewLimiter(1000, 1), "australia", zap.NewNop())
}

func TestFetchDetailsListingOnly(t *testing.T) {
	session := newStubSession()
	candidate := placeURL("acme")
	session.pages[candidate] = &stubPage{
		heading: " Acme Plumbing",
		address: "12 High St, Newcastle NSW",
		phone:   "0412 345 678",
	}

	raw, err := testDetailFetcher(session).FetchDetails(context.Background(), candidate)
	require.NoError(t, err)

	assert.Equal(t, "Acme Plumbing", raw.BusinessName)
	assert.Equal(t, "12 High St, Newcastle NSW", raw.StreetAddress)
	assert.Equal(t, "61412345678", raw.Phone)
	assert.Equal(t, candidate, raw.ListingURL)
	assert.Empty(t, raw.Website)
	assert.Empty(t, raw.Email)
}

func TestFetchDetailsWebsiteTier(t *testing.T) {
	session := newStubSession()
	candidate := placeURL("acme")
	site := "https://www.acmeplumbing.com.au"
	about := "https://www.acmeplumbing.com.au/about"

	session.pages[candidate] = &stubPage{
		heading: "Acme Plumbing",
		phone:   "0412 345 678",
		website: site,
	}
	session.pages[site] = &stubPage{
		html: `<html><body><a href="` + about + `">About Us</a></body></html>`,
	}
	session.pages[about] = &stubPage{
		html: `<html><body>
			<a href="mailto:jane@acmeplumbing.com.au?subject=hello">Email Jane</a>
			<a href="https://www.instagram.com/acmeplumbing">IG</a>
			<a href="https://www.facebook.com/acmeplumbing">FB</a>
		</body></html>`,
		body: "Meet the team\nJane Citizen - Owner and Founder\nCall us today",
	}

	raw, err := testDetailFetcher(session).FetchDetails(context.Background(), candidate)
	require.NoError(t, err)

	assert.Equal(t, site, raw.Website)
	assert.Equal(t, "jane@acmeplumbing.com.au", raw.Email)
	assert.Equal(t, "Jane Citizen", raw.OwnerName)
	assert.Equal(t, "https://www.instagram.com/acmeplumbing", raw.InstagramURL)
	assert.Equal(t, "https://www.facebook.com/acmeplumbing", raw.FacebookURL)
}

func TestFetchDetailsEmailFromTextFallback(t *testing.T) {
	session := newStubSession()
	candidate := placeURL("acme")
	site := "https://www.acmeplumbing.com.au"

	session.pages[candidate] = &stubPage{heading: "Acme Plumbing", website: site}
	// No about link and no mailto; the address only appears in page text.
	session.pages[site] = &stubPage{
		html: `<html><body><p>Reach us at jane@acmeplumbing.com.au</p></body></html>`,
		body: "Reach us at jane@acmeplumbing.com.au",
	}

	raw, err := testDetailFetcher(session).FetchDetails(context.Background(), candidate)
	require.NoError(t, err)
	assert.Equal(t, "jane@acmeplumbing.com.au", raw.Email)
}

func TestFetchDetailsWebsiteFailureDegrades(t *testing.T) {
	session := newStubSession()
	candidate := placeURL("acme")
	site := "https://www.acmeplumbing.com.au"

	session.pages[candidate] = &stubPage{
		heading: "Acme Plumbing",
		phone:   "0412 345 678",
		website: site,
	}
	session.navErrs[site] = errors.New("connection refused")

	raw, err := testDetailFetcher(session).FetchDetails(context.Background(), candidate)
	require.NoError(t, err)

	// Listing fields survive; website fields stay empty.
	assert.Equal(t, "Acme Plumbing", raw.BusinessName)
	assert.Equal(t, site, raw.Website)
	assert.Empty(t, raw.Email)
	assert.Empty(t, raw.OwnerName)
}

func TestFetchDetailsListingPageBroken(t *testing.T) {
	session := newStubSession()
	candidate := placeURL("ghost")
	session.pages[candidate] = &stubPage{broken: true}

	_, err := testDetailFetcher(session).FetchDetails(context.Background(), candidate)
	require.Error(t, err)

	var fetchErr *DetailFetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, candidate, fetchErr.CandidateID)
}
