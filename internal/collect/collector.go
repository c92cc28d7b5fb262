package collect

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/prospect-cli/internal/config"
	"github.com/sells-group/prospect-cli/internal/model"
	"github.com/sells-group/prospect-cli/internal/validate"
)

// Collector drives the target-seeking loop: discover a candidate batch,
// detail-fetch and qualify each candidate, repeat until the target is met or
// a termination ceiling fires. One browser session serves the whole run and
// is released exactly once on every exit path.
type Collector struct {
	engine    Engine
	cfg       *config.CollectConfig
	country   string
	validator *validate.Validator
	emitter   Emitter
}

// New creates a Collector. A nil emitter discards events.
func New(engine Engine, cfg *config.CollectConfig, country string, validator *validate.Validator, emitter Emitter) *Collector {
	if emitter == nil {
		emitter = NopEmitter{}
	}
	return &Collector{
		engine:    engine,
		cfg:       cfg,
		country:   country,
		validator: validator,
		emitter:   emitter,
	}
}

// runState is the mutable state of one run. Nothing in it outlives the run
// or is shared across concurrent runs.
type runState struct {
	seen         map[string]struct{}
	prospects    []model.Prospect
	rawProcessed int
	attempts     int
}

// Run executes one collection run to completion. A shortfall against the
// target is a successful result with Shortfall set; only setup failures, a
// missing results surface before any candidate was found, and cancellation
// return errors.
func (c *Collector) Run(ctx context.Context, req model.CollectionRequest) (*model.Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	log := zap.L().With(
		zap.String("run_id", runID),
		zap.String("category", req.Category),
		zap.String("area", req.Area),
	)

	session, err := c.engine.NewSession(ctx)
	if err != nil {
		return nil, &SetupError{Cause: err}
	}
	defer func() {
		if cerr := session.Close(); cerr != nil {
			log.Warn("session close failed", zap.Error(cerr))
		}
	}()

	limiter := rate.NewLimiter(rate.Limit(c.cfg.NavigationsPerSec), 1)
	source := NewListingSource(session, c.cfg, limiter, log)
	fetcher := NewDetailFetcher(session, c.cfg, limiter, c.country, log)
	qualifier := NewQualifier(c.validator, c.country, req.Mode, log)

	target := req.TargetCount
	maxRaw := 0
	if target > 0 {
		maxRaw = target * c.cfg.RawAmplification
		if maxRaw < c.cfg.RawFloor {
			maxRaw = c.cfg.RawFloor
		}
	}

	query := req.SearchQuery()
	state := &runState{seen: make(map[string]struct{})}

	log.Info("collection started",
		zap.String("query", query),
		zap.Int("target", target),
		zap.Int("max_raw", maxRaw),
		zap.String("mode", string(req.Mode)),
	)
	c.emitter.Log("info", fmt.Sprintf("Searching for %q, target %s", query, targetLabel(target)))

	err = c.loop(ctx, state, source, fetcher, qualifier, query, target, maxRaw, log)
	if err != nil {
		return nil, err
	}

	result := &model.Result{
		Prospects:    state.prospects,
		RawProcessed: state.rawProcessed,
		Discovered:   len(state.seen),
		Attempts:     state.attempts,
		Shortfall:    target > 0 && len(state.prospects) < target,
	}
	if result.Shortfall {
		msg := fmt.Sprintf("Found %d of %d requested prospects within the search limits (%d raw candidates processed, %d discovered)",
			len(state.prospects), target, state.rawProcessed, len(state.seen))
		log.Warn("collection ended below target",
			zap.Int("found", len(state.prospects)),
			zap.Int("target", target),
		)
		c.emitter.Log("warning", msg)
	}

	log.Info("collection complete",
		zap.Int("qualified", len(state.prospects)),
		zap.Int("raw_processed", state.rawProcessed),
		zap.Int("discovered", len(state.seen)),
		zap.Int("attempts", state.attempts),
	)
	return result, nil
}

// loop alternates Discovering and Detailing until a termination condition
// fires. Termination: target met, collection-attempt ceiling, raw-candidate
// ceiling, exhausted discovery surface, or cancellation.
func (c *Collector) loop(ctx context.Context, state *runState, source *ListingSource, fetcher *DetailFetcher, qualifier *Qualifier, query string, target, maxRaw int, log *zap.Logger) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if target > 0 && len(state.prospects) >= target {
			return nil
		}
		if state.attempts >= c.cfg.MaxCollectionAttempts {
			log.Warn("collection attempt ceiling reached", zap.Int("attempts", state.attempts))
			return nil
		}
		if maxRaw > 0 && len(state.seen) >= maxRaw {
			log.Warn("raw discovery ceiling reached", zap.Int("discovered", len(state.seen)))
			return nil
		}

		hint := c.batchHint(target, len(state.prospects))
		if maxRaw > 0 {
			if slots := maxRaw - len(state.seen); slots < hint {
				hint = slots
			}
		}

		batch, err := source.DiscoverBatch(ctx, query, hint, state.seen)
		if errors.Is(err, ErrNoResultsSurface) {
			if len(state.seen) == 0 && state.rawProcessed == 0 {
				return err
			}
			// Some candidates were already processed; treat as exhaustion.
			log.Info("results surface gone, treating as exhaustion")
			return nil
		}
		if err != nil {
			return err
		}

		if len(batch) == 0 {
			state.attempts++
			log.Info("no new candidates discovered",
				zap.Int("attempt", state.attempts),
				zap.Int("max_attempts", c.cfg.MaxCollectionAttempts),
			)
			c.emitter.Log("info", fmt.Sprintf("No new listings found (attempt %d/%d)", state.attempts, c.cfg.MaxCollectionAttempts))
			continue
		}

		c.emitter.Log("info", fmt.Sprintf("Discovered %d new listings, fetching details", len(batch)))
		done, err := c.detailBatch(ctx, state, fetcher, qualifier, batch, target, maxRaw, log)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
}

// detailBatch processes one discovered batch serially. Returns done=true
// when the target or the raw ceiling was reached mid-batch.
func (c *Collector) detailBatch(ctx context.Context, state *runState, fetcher *DetailFetcher, qualifier *Qualifier, batch []string, target, maxRaw int, log *zap.Logger) (bool, error) {
	for _, candidateID := range batch {
		if err := ctx.Err(); err != nil {
			return false, err
		}

		state.rawProcessed++
		raw, err := fetcher.FetchDetails(ctx, candidateID)
		if err != nil {
			var dfe *DetailFetchError
			if errors.As(err, &dfe) {
				log.Warn("detail fetch failed, skipping candidate",
					zap.String("candidate", dfe.CandidateID),
					zap.Error(dfe.Cause),
				)
				c.emitter.Log("warning", fmt.Sprintf("Skipped a listing that failed to load (%d processed)", state.rawProcessed))
				c.emitter.Progress(len(state.prospects), target)
				continue
			}
			return false, err
		}

		prospect, outcome := qualifier.Qualify(raw)
		switch outcome {
		case Accepted:
			state.prospects = append(state.prospects, prospect)
			c.emitter.Log("info", fmt.Sprintf("Qualified: %s (%d/%s)", prospect.BusinessName, len(state.prospects), targetLabel(target)))
		case Duplicate:
			c.emitter.Log("info", fmt.Sprintf("Duplicate dropped: %s", raw.BusinessName))
		case Rejected:
			log.Debug("candidate rejected",
				zap.String("business", raw.BusinessName),
				zap.String("phone", raw.Phone),
				zap.String("email", raw.Email),
			)
		}
		c.emitter.Progress(len(state.prospects), target)

		if target > 0 && len(state.prospects) >= target {
			return true, nil
		}
		if maxRaw > 0 && state.rawProcessed >= maxRaw {
			log.Warn("raw processing ceiling reached", zap.Int("raw_processed", state.rawProcessed))
			return true, nil
		}
	}
	return false, nil
}

// batchHint sizes the next discovery batch: the remaining target amplified
// by the expected qualification failure rate, floored for thin batches.
func (c *Collector) batchHint(target, found int) int {
	if target <= 0 {
		return c.cfg.BatchFloor
	}
	hint := (target - found) * c.cfg.BatchAmplification
	if hint < c.cfg.BatchFloor {
		hint = c.cfg.BatchFloor
	}
	return hint
}

func targetLabel(target int) string {
	if target <= 0 {
		return "unbounded"
	}
	return fmt.Sprintf("%d", target)
}
