package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/votermatch/internal/match"
)

// ProbeResult describes what the database can serve
type ProbeResult struct {
	Voters       int64
	Fuzzy        bool
	SchemaLoaded bool
}

// Probe checks that the reference store is reachable and whether trigram
// retrieval is available. Unreachable or unmigrated databases wrap
// match.ErrMatchingUnavailable.
func Probe(ctx context.Context, db *sql.DB) (ProbeResult, error) {
	var res ProbeResult

	if err := db.PingContext(ctx); err != nil {
		return res, fmt.Errorf("%w: %w", match.ErrMatchingUnavailable, err)
	}

	err := db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM pg_extension WHERE extname = 'pg_trgm')`).Scan(&res.Fuzzy)
	if err != nil {
		return res, fmt.Errorf("%w: check pg_trgm: %w", match.ErrMatchingUnavailable, err)
	}

	res.Voters, err = CountVoters(ctx, db, "")
	switch {
	case isUndefinedTable(err):
		return res, fmt.Errorf("%w: schema not migrated", match.ErrMatchingUnavailable)
	case err != nil:
		return res, fmt.Errorf("%w: %w", match.ErrMatchingUnavailable, err)
	}
	res.SchemaLoaded = true
	return res, nil
}
