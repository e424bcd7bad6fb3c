package match

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/votermatch/internal/debug"
	"github.com/votermatch/internal/metro"
	"github.com/votermatch/internal/normalize"
	"github.com/votermatch/internal/phonetics"
)

// DefaultConcurrency is the number of entries matched in parallel
const DefaultConcurrency = 8

// Engine orchestrates matching of person entries against the voter file
type Engine struct {
	retriever       *Retriever
	featureComputer *FeatureComputer
	scorer          *Scorer
	results         ResultStore
	concurrency     int
	now             func() time.Time
	logger          *slog.Logger
	debug           bool
}

// EngineConfig holds configuration for the matching engine. Only Store is
// required; every other field has a production default.
type EngineConfig struct {
	Store       ReferenceStore
	Results     ResultStore
	Phonetics   *phonetics.Service
	Nicknames   *normalize.NicknameTable
	Metro       *metro.Resolver
	Weights     *Weights
	Tiers       *Tiers
	Limits      *Limits
	Concurrency int
	Clock       func() time.Time
	Logger      *slog.Logger
	Debug       bool
}

// NewEngine creates a new matching engine
func NewEngine(config EngineConfig) (*Engine, error) {
	if config.Store == nil {
		return nil, errors.New("engine requires a reference store")
	}

	ph := config.Phonetics
	if ph == nil {
		ph = phonetics.NewService()
	}
	nicknames := config.Nicknames
	if nicknames == nil {
		nicknames = normalize.DefaultNicknameTable()
	}
	resolver := config.Metro
	if resolver == nil {
		resolver = metro.DefaultResolver(ph.Similarity)
	}
	weights := config.Weights
	if weights == nil {
		weights = DefaultWeights()
	}
	tiers := config.Tiers
	if tiers == nil {
		tiers = DefaultTiers()
	}
	results := config.Results
	if results == nil {
		results = NewMemoryResultStore()
	}
	concurrency := config.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	now := config.Clock
	if now == nil {
		now = time.Now
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Engine{
		retriever:       NewRetriever(config.Store, config.Limits, logger),
		featureComputer: NewFeatureComputer(ph, nicknames, resolver, now),
		scorer:          NewScorerWithConfig(weights, tiers),
		results:         results,
		concurrency:     concurrency,
		now:             now,
		logger:          logger,
		debug:           config.Debug,
	}, nil
}

// DisableFuzzy switches the engine to exact and phonetic retrieval only,
// for example when the startup probe finds no trigram support.
func (e *Engine) DisableFuzzy(reason error) {
	e.retriever.DisableFuzzy(reason)
}

// Degraded reports whether fuzzy retrieval is off
func (e *Engine) Degraded() bool {
	return e.retriever.Degraded()
}

// Explain breaks a candidate's score into weighted contributions
func (e *Engine) Explain(c Candidate) map[string]float64 {
	return e.scorer.Explain(c)
}

// Match resolves a batch of person entries within one state.
//
// Invalid entries are reported in Batch.Errors and do not stop the batch.
// A reference or result store failure aborts the batch with an error
// wrapping ErrMatchingUnavailable. On cancellation the batch holds the
// entries finished so far, which are already saved, and the context error
// is returned with it.
func (e *Engine) Match(ctx context.Context, people []PersonEntry, state string) (*Batch, error) {
	debug.DebugHeader(e.debug)
	defer debug.DebugFooter(e.debug)
	defer debug.DebugTiming(e.debug, fmt.Sprintf("match batch of %d", len(people)))()

	state = strings.ToUpper(strings.TrimSpace(state))
	if len(state) != 2 {
		return nil, fmt.Errorf("%w: state %q must be a two-letter code", ErrInvalidEntry, state)
	}

	start := e.now()
	results := make([]*MatchResult, len(people))
	entryErrs := make([]error, len(people))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)

	for i, p := range people {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			r, err := e.matchOne(gctx, p, state)
			switch {
			case errors.Is(err, ErrInvalidEntry):
				entryErrs[i] = err
				return nil
			case err != nil:
				return err
			}
			results[i] = &r
			return nil
		})
	}
	err := g.Wait()

	batch := &Batch{Degraded: e.Degraded()}
	for i := range people {
		switch {
		case results[i] != nil:
			batch.Results = append(batch.Results, *results[i])
		case entryErrs[i] != nil:
			batch.Errors = append(batch.Errors, EntryError{
				Index:         i,
				PersonEntryID: people[i].ID,
				Err:           entryErrs[i],
			})
		}
	}

	if err == nil && ctx.Err() != nil && len(batch.Results)+len(batch.Errors) < len(people) {
		err = ctx.Err()
	}

	stats := batch.Stats()
	debug.DebugOutput(e.debug, "Batch complete - Confirmed: %d, Ambiguous: %d, Unmatched: %d, Errors: %d",
		stats.Confirmed, stats.Ambiguous, stats.Unmatched, stats.Errors)

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			e.logger.Warn("match batch cancelled",
				"state", state, "requested", len(people), "completed", len(batch.Results))
			return batch, ctxErr
		}
		e.logger.Error("match batch failed", "state", state, "error", err)
		return batch, fmt.Errorf("%w: %w", ErrMatchingUnavailable, err)
	}

	e.logger.Info("match batch complete",
		"state", state,
		"total", stats.Total,
		"confirmed", stats.Confirmed,
		"ambiguous", stats.Ambiguous,
		"unmatched", stats.Unmatched,
		"errors", stats.Errors,
		"degraded", batch.Degraded,
		"took", e.now().Sub(start))

	return batch, nil
}

// matchOne runs the pipeline for a single entry and saves the outcome
func (e *Engine) matchOne(ctx context.Context, p PersonEntry, state string) (MatchResult, error) {
	if err := p.Validate(); err != nil {
		return MatchResult{}, err
	}

	// Step 1: normalize and expand
	q := e.featureComputer.prepare(p, state)
	debug.DebugOutput(e.debug, "Entry %s: %s %s codes=%v nicknames=%v",
		p.ID, q.first, q.last, q.codes, q.nicknames)

	// Step 2: retrieve
	records, err := e.retriever.Retrieve(ctx, e.debug, q.blockQuery())
	if err != nil {
		return MatchResult{}, err
	}

	// Step 3: score
	cands := make([]scored, 0, len(records))
	for _, rec := range records {
		breakdown, fields := e.featureComputer.ComputeFeatures(e.debug, q, rec)
		cands = append(cands, scored{
			Candidate: Candidate{
				Record:        rec.Safe(),
				Score:         e.scorer.ScoreCandidate(breakdown),
				MatchedFields: fields,
				Breakdown:     breakdown,
			},
			voter: rec,
		})
	}

	// Step 4: classify
	outcome, kept := e.scorer.Classify(e.debug, cands)

	result := MatchResult{
		PersonEntryID:    p.ID,
		Outcome:          outcome,
		Candidates:       kept,
		EntryFingerprint: p.Fingerprint(),
		UpdatedAt:        e.now(),
	}

	stored, err := e.results.SaveAutomatic(ctx, result)
	if err != nil {
		return MatchResult{}, fmt.Errorf("save result for %s: %w", p.ID, err)
	}
	return stored, nil
}

// Submit records a pending result for a new person entry. An existing
// result is returned unchanged.
func (e *Engine) Submit(ctx context.Context, p PersonEntry) (MatchResult, error) {
	if err := p.Validate(); err != nil {
		return MatchResult{}, err
	}
	return e.results.Ensure(ctx, MatchResult{
		PersonEntryID:    p.ID,
		Outcome:          Pending{},
		EntryFingerprint: p.Fingerprint(),
		UpdatedAt:        e.now(),
	})
}

// ConfirmMatch records the user's choice of record. It overrides any
// automatic outcome and survives re-matching until the entry changes.
func (e *Engine) ConfirmMatch(ctx context.Context, personEntryID string, record SafeRecord) (MatchResult, error) {
	if strings.TrimSpace(personEntryID) == "" {
		return MatchResult{}, fmt.Errorf("%w: id is required", ErrInvalidEntry)
	}
	if strings.TrimSpace(record.LastName) == "" {
		return MatchResult{}, fmt.Errorf("%w: confirmed record has no last name", ErrInvalidEntry)
	}

	existing, err := e.existing(ctx, personEntryID)
	if err != nil {
		return MatchResult{}, err
	}

	result, err := e.results.SaveManual(ctx, MatchResult{
		PersonEntryID:    personEntryID,
		Outcome:          Confirmed{Record: record},
		Candidates:       existing.Candidates,
		UserConfirmed:    true,
		EntryFingerprint: existing.EntryFingerprint,
		UpdatedAt:        e.now(),
	})
	if err != nil {
		return MatchResult{}, fmt.Errorf("%w: confirm %s: %w", ErrMatchingUnavailable, personEntryID, err)
	}
	e.logger.Info("match confirmed by user", "person_entry_id", personEntryID)
	return result, nil
}

// RejectMatch records that none of the suggestions is this person
func (e *Engine) RejectMatch(ctx context.Context, personEntryID string) (MatchResult, error) {
	if strings.TrimSpace(personEntryID) == "" {
		return MatchResult{}, fmt.Errorf("%w: id is required", ErrInvalidEntry)
	}

	existing, err := e.existing(ctx, personEntryID)
	if err != nil {
		return MatchResult{}, err
	}

	result, err := e.results.SaveManual(ctx, MatchResult{
		PersonEntryID:    personEntryID,
		Outcome:          Unmatched{},
		UserRejected:     true,
		EntryFingerprint: existing.EntryFingerprint,
		UpdatedAt:        e.now(),
	})
	if err != nil {
		return MatchResult{}, fmt.Errorf("%w: reject %s: %w", ErrMatchingUnavailable, personEntryID, err)
	}
	e.logger.Info("match rejected by user", "person_entry_id", personEntryID)
	return result, nil
}

// Result returns the stored result for a person entry
func (e *Engine) Result(ctx context.Context, personEntryID string) (MatchResult, error) {
	return e.results.Get(ctx, personEntryID)
}

// Forget removes the result of a deleted person entry
func (e *Engine) Forget(ctx context.Context, personEntryID string) error {
	return e.results.Delete(ctx, personEntryID)
}

// existing loads the current result, treating a missing one as empty. A
// manual decision on an unseen entry carries no fingerprint, so no later
// automatic match replaces it.
func (e *Engine) existing(ctx context.Context, personEntryID string) (MatchResult, error) {
	r, err := e.results.Get(ctx, personEntryID)
	switch {
	case errors.Is(err, ErrResultNotFound):
		return MatchResult{}, nil
	case err != nil:
		return MatchResult{}, fmt.Errorf("%w: load %s: %w", ErrMatchingUnavailable, personEntryID, err)
	}
	return r, nil
}
