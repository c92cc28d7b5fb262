package collect

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/prospect-cli/internal/config"
	"github.com/sells-group/prospect-cli/internal/model"
	"github.com/sells-group/prospect-cli/internal/validate"
)

func testCollectConfig() *config.CollectConfig {
	return &config.CollectConfig{
		BatchAmplification:    5,
		BatchFloor:            20,
		RawAmplification:      15,
		RawFloor:              50,
		MaxCollectionAttempts: 3,
		MaxScrollAttempts:     5,
		MaxNoProgress:         2,
		ScrollSettleMs:        0,
		FeedWaitSecs:          1,
		HeadingWaitSecs:       1,
		NavigationsPerSec:     1000,
	}
}

func testValidator(t *testing.T) *validate.Validator {
	t.Helper()
	v, err := validate.New()
	require.NoError(t, err)
	return v
}

func placeURL(slug string) string {
	return "https://www.google.com/maps/place/" + slug
}

func testRequest(target int) model.CollectionRequest {
	return model.CollectionRequest{
		Category:    "plumbers",
		Area:        "Newcastle NSW",
		Country:     "Australia",
		TargetCount: target,
		Mode:        model.RequireEither,
	}
}

func TestRunStopsAtTarget(t *testing.T) {
	session := newStubSession()
	session.batches = [][]string{{placeURL("acme"), placeURL("bravo"), placeURL("clyde")}}
	session.pages[placeURL("acme")] = &stubPage{heading: "Acme Plumbing", phone: "0412 345 678"}
	session.pages[placeURL("bravo")] = &stubPage{heading: "Bravo Plumbing", phone: "0498 765 432"}
	session.pages[placeURL("clyde")] = &stubPage{heading: "Clyde Plumbing", phone: "02 4999 9999"}

	emitter := &recordingEmitter{}
	c := New(&stubEngine{session: session}, testCollectConfig(), "australia", testValidator(t), emitter)

	result, err := c.Run(context.Background(), testRequest(2))
	require.NoError(t, err)

	require.Len(t, result.Prospects, 2)
	assert.Equal(t, "Acme Plumbing", result.Prospects[0].BusinessName)
	assert.Equal(t, "Bravo Plumbing", result.Prospects[1].BusinessName)
	assert.Equal(t, "61412345678", result.Prospects[0].Phone)
	assert.NotEqual(t, result.Prospects[0].IdentityKey, result.Prospects[1].IdentityKey)

	// The third discovered candidate is never detail-fetched.
	assert.Equal(t, 2, result.RawProcessed)
	assert.Equal(t, 3, result.Discovered)
	assert.False(t, result.Shortfall)
	assert.Equal(t, 1, session.closed)

	found, target := emitter.lastProgress()
	assert.Equal(t, 2, found)
	assert.Equal(t, 2, target)
}

func TestRunExhaustionShortfall(t *testing.T) {
	session := newStubSession()
	session.batches = [][]string{{placeURL("acme"), placeURL("clyde")}}
	session.pages[placeURL("acme")] = &stubPage{heading: "Acme Plumbing", phone: "0412 345 678"}
	// Landline only, never qualifies.
	session.pages[placeURL("clyde")] = &stubPage{heading: "Clyde Plumbing", phone: "02 4999 9999"}

	emitter := &recordingEmitter{}
	cfg := testCollectConfig()
	c := New(&stubEngine{session: session}, cfg, "australia", testValidator(t), emitter)

	result, err := c.Run(context.Background(), testRequest(5))
	require.NoError(t, err)

	require.Len(t, result.Prospects, 1)
	assert.True(t, result.Shortfall)
	assert.Equal(t, cfg.MaxCollectionAttempts, result.Attempts)
	assert.Equal(t, 2, result.RawProcessed)
	assert.Equal(t, 1, session.closed)
}

func TestRunUnboundedTargetNoShortfall(t *testing.T) {
	session := newStubSession()
	session.batches = [][]string{{placeURL("acme")}}
	session.pages[placeURL("acme")] = &stubPage{heading: "Acme Plumbing", phone: "0412 345 678"}

	c := New(&stubEngine{session: session}, testCollectConfig(), "australia", testValidator(t), nil)

	result, err := c.Run(context.Background(), testRequest(0))
	require.NoError(t, err)

	require.Len(t, result.Prospects, 1)
	assert.False(t, result.Shortfall)
	assert.Equal(t, 1, session.closed)
}

func TestRunSetupError(t *testing.T) {
	boom := errors.New("chrome failed to start")
	c := New(&stubEngine{err: boom}, testCollectConfig(), "australia", testValidator(t), nil)

	result, err := c.Run(context.Background(), testRequest(1))
	require.Error(t, err)
	assert.Nil(t, result)

	var setupErr *SetupError
	require.ErrorAs(t, err, &setupErr)
	assert.ErrorIs(t, err, boom)
}

func TestRunNoResultsSurface(t *testing.T) {
	session := newStubSession()
	session.noFeed = true

	c := New(&stubEngine{session: session}, testCollectConfig(), "australia", testValidator(t), nil)

	result, err := c.Run(context.Background(), testRequest(3))
	require.ErrorIs(t, err, ErrNoResultsSurface)
	assert.Nil(t, result)
	assert.Equal(t, 1, session.closed)
}

func TestRunSkipsFailedDetailFetch(t *testing.T) {
	session := newStubSession()
	session.batches = [][]string{{placeURL("ghost"), placeURL("bravo")}}
	session.pages[placeURL("ghost")] = &stubPage{broken: true}
	session.pages[placeURL("bravo")] = &stubPage{heading: "Bravo Plumbing", phone: "0498 765 432"}

	c := New(&stubEngine{session: session}, testCollectConfig(), "australia", testValidator(t), nil)

	result, err := c.Run(context.Background(), testRequest(1))
	require.NoError(t, err)

	require.Len(t, result.Prospects, 1)
	assert.Equal(t, "Bravo Plumbing", result.Prospects[0].BusinessName)
	assert.Equal(t, 2, result.RawProcessed)
}

func TestRunDeduplicatesByNameAndWebsite(t *testing.T) {
	session := newStubSession()
	session.batches = [][]string{{placeURL("acme"), placeURL("acme2")}}
	// Same business listed twice under different candidate URLs.
	session.pages[placeURL("acme")] = &stubPage{heading: "Acme Plumbing", phone: "0412 345 678"}
	session.pages[placeURL("acme2")] = &stubPage{heading: "Acme Plumbing", phone: "0412 345 678"}

	c := New(&stubEngine{session: session}, testCollectConfig(), "australia", testValidator(t), nil)

	result, err := c.Run(context.Background(), testRequest(2))
	require.NoError(t, err)

	require.Len(t, result.Prospects, 1)
	assert.True(t, result.Shortfall)
	assert.Equal(t, 2, result.RawProcessed)
}

func TestRunRejectsInvalidRequest(t *testing.T) {
	c := New(&stubEngine{}, testCollectConfig(), "australia", testValidator(t), nil)

	_, err := c.Run(context.Background(), model.CollectionRequest{Area: "Newcastle", Country: "Australia"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "category")
}

func TestRunCancellation(t *testing.T) {
	session := newStubSession()
	session.batches = [][]string{{placeURL("acme")}}
	session.pages[placeURL("acme")] = &stubPage{heading: "Acme Plumbing", phone: "0412 345 678"}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := New(&stubEngine{session: session}, testCollectConfig(), "australia", testValidator(t), nil)

	result, err := c.Run(ctx, testRequest(1))
	require.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, result)
	assert.Equal(t, 1, session.closed)
}
