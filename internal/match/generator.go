package match

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/votermatch/internal/debug"
)

// BlockQuery is one blocking lookup against the reference store
type BlockQuery struct {
	State      string   // two-letter state, upper case
	LastName   string   // normalized last name
	Codes      []string // phonetic blocking keys of LastName
	FirstNames []string // expanded nickname set, used for ordering only
	Zip        string   // normalized 5-digit zip, may be empty
	// Cities and ZipPrefixes describe the entry's surroundings: its own
	// city key and zip prefix plus those of its metro. Ordering only.
	Cities      []string
	ZipPrefixes []string
	// MinSimilarity is the trigram cutoff for ByTrigram
	MinSimilarity float64
	Limit         int
}

// ReferenceStore is the read side of the voter file. Every method returns
// at most q.Limit records in the state, ordered by: first name in
// q.FirstNames, exact zip, city key in q.Cities, zip prefix in
// q.ZipPrefixes, voter id.
type ReferenceStore interface {
	// ByLastName matches normalized last name exactly
	ByLastName(ctx context.Context, q BlockQuery) ([]VoterRecord, error)
	// ByPhoneticCode matches any of q.Codes against either stored code
	ByPhoneticCode(ctx context.Context, q BlockQuery) ([]VoterRecord, error)
	// ByTrigram matches last names by trigram similarity. Stores without
	// trigram support return ErrFuzzyUnavailable.
	ByTrigram(ctx context.Context, q BlockQuery) ([]VoterRecord, error)
}

// Retriever runs the blocking tiers and merges their results
type Retriever struct {
	store  ReferenceStore
	limits *Limits
	logger *slog.Logger

	fuzzyDisabled atomic.Bool
	warnOnce      sync.Once
}

// NewRetriever creates a retriever over store
func NewRetriever(store ReferenceStore, limits *Limits, logger *slog.Logger) *Retriever {
	if limits == nil {
		limits = DefaultLimits()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Retriever{store: store, limits: limits, logger: logger}
}

// DisableFuzzy turns off the trigram tier for the lifetime of the retriever
func (r *Retriever) DisableFuzzy(reason error) {
	r.fuzzyDisabled.Store(true)
	r.warnOnce.Do(func() {
		r.logger.Warn("fuzzy retrieval disabled, continuing with exact and phonetic tiers",
			"error", reason)
	})
}

// Degraded reports whether the trigram tier has been disabled
func (r *Retriever) Degraded() bool {
	return r.fuzzyDisabled.Load()
}

// Retrieve returns up to MaxRetrieved distinct records for q. Tier 1 is the
// exact last name, tier 2 the phonetic codes and tier 3 trigram similarity,
// which only runs when the first two tiers came back thin.
func (r *Retriever) Retrieve(ctx context.Context, localDebug bool, q BlockQuery) ([]VoterRecord, error) {
	debug.DebugHeader(localDebug)
	defer debug.DebugFooter(localDebug)

	q.Limit = r.limits.TierLimit
	q.MinSimilarity = r.limits.TrigramThreshold

	merged := make([]VoterRecord, 0, r.limits.TierLimit)
	seen := make(map[string]bool)
	add := func(tier string, recs []VoterRecord) {
		added := 0
		for _, rec := range recs {
			if len(merged) >= r.limits.MaxRetrieved {
				break
			}
			if seen[rec.VoterID] {
				continue
			}
			seen[rec.VoterID] = true
			merged = append(merged, rec)
			added++
		}
		debug.DebugOutput(localDebug, "Tier %s: %d returned, %d new", tier, len(recs), added)
	}

	// Tier 1 - exact last name
	recs, err := r.store.ByLastName(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("exact last name lookup: %w", err)
	}
	add("exact", recs)

	// Tier 2 - phonetic code
	if len(q.Codes) > 0 && len(merged) < r.limits.MaxRetrieved {
		recs, err = r.store.ByPhoneticCode(ctx, q)
		if err != nil {
			return nil, fmt.Errorf("phonetic lookup: %w", err)
		}
		add("phonetic", recs)
	}

	// Tier 3 - trigram fallback
	if len(merged) < r.limits.FuzzyFallbackBelow && !r.Degraded() {
		recs, err = r.store.ByTrigram(ctx, q)
		switch {
		case errors.Is(err, ErrFuzzyUnavailable):
			r.DisableFuzzy(err)
		case err != nil:
			return nil, fmt.Errorf("trigram lookup: %w", err)
		default:
			add("trigram", recs)
		}
	}

	return merged, nil
}
