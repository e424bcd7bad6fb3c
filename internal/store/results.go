package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"

	"github.com/votermatch/internal/match"
)

const resultTable = "match_result"

var resultColumns = []string{
	"person_entry_id", "status", "low_confidence", "best_match", "candidates",
	"user_confirmed", "user_rejected", "entry_fingerprint", "updated_at",
}

// upsertSet replaces every column with the incoming row
const upsertSet = `ON CONFLICT (person_entry_id) DO UPDATE SET
	status = EXCLUDED.status,
	low_confidence = EXCLUDED.low_confidence,
	best_match = EXCLUDED.best_match,
	candidates = EXCLUDED.candidates,
	user_confirmed = EXCLUDED.user_confirmed,
	user_rejected = EXCLUDED.user_rejected,
	entry_fingerprint = EXCLUDED.entry_fingerprint,
	updated_at = EXCLUDED.updated_at`

// automaticGuard is match.AutomaticMayReplace evaluated inside the upsert,
// which makes the check and the write one atomic statement.
const automaticGuard = `
WHERE NOT (match_result.user_confirmed OR match_result.user_rejected)
   OR (match_result.entry_fingerprint <> '' AND match_result.entry_fingerprint <> EXCLUDED.entry_fingerprint)`

// ResultStore persists match results in Postgres
type ResultStore struct {
	db *sql.DB
}

// NewResultStore creates a result store over db
func NewResultStore(db *sql.DB) *ResultStore {
	return &ResultStore{db: db}
}

func (s *ResultStore) Get(ctx context.Context, personEntryID string) (match.MatchResult, error) {
	query, args, err := builder.Select(resultColumns...).
		From(resultTable).
		Where(squirrel.Eq{"person_entry_id": personEntryID}).
		ToSql()
	if err != nil {
		return match.MatchResult{}, err
	}
	r, err := scanResult(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return match.MatchResult{}, match.ErrResultNotFound
	}
	return r, err
}

func (s *ResultStore) Ensure(ctx context.Context, r match.MatchResult) (match.MatchResult, error) {
	insert, err := s.insert(r)
	if err != nil {
		return match.MatchResult{}, err
	}
	if err := s.exec(ctx, insert.Suffix("ON CONFLICT (person_entry_id) DO NOTHING")); err != nil {
		return match.MatchResult{}, err
	}
	return s.Get(ctx, r.PersonEntryID)
}

func (s *ResultStore) SaveAutomatic(ctx context.Context, r match.MatchResult) (match.MatchResult, error) {
	insert, err := s.insert(r)
	if err != nil {
		return match.MatchResult{}, err
	}
	query, args, err := insert.
		Suffix(upsertSet + automaticGuard + "\nRETURNING " + strings.Join(resultColumns, ", ")).
		ToSql()
	if err != nil {
		return match.MatchResult{}, err
	}

	stored, err := scanResult(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		// the guard kept a user decision in place
		return s.Get(ctx, r.PersonEntryID)
	}
	return stored, err
}

func (s *ResultStore) SaveManual(ctx context.Context, r match.MatchResult) (match.MatchResult, error) {
	insert, err := s.insert(r)
	if err != nil {
		return match.MatchResult{}, err
	}
	if err := s.exec(ctx, insert.Suffix(upsertSet)); err != nil {
		return match.MatchResult{}, err
	}
	return r, nil
}

func (s *ResultStore) Delete(ctx context.Context, personEntryID string) error {
	query, args, err := builder.Delete(resultTable).
		Where(squirrel.Eq{"person_entry_id": personEntryID}).
		ToSql()
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete result %s: %w", personEntryID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return match.ErrResultNotFound
	}
	return nil
}

func (s *ResultStore) insert(r match.MatchResult) (squirrel.InsertBuilder, error) {
	var best []byte
	if rec, ok := r.BestMatch(); ok {
		var err error
		if best, err = json.Marshal(rec); err != nil {
			return squirrel.InsertBuilder{}, fmt.Errorf("encode best match: %w", err)
		}
	}
	cands := r.Candidates
	if cands == nil {
		cands = []match.Candidate{}
	}
	candidates, err := json.Marshal(cands)
	if err != nil {
		return squirrel.InsertBuilder{}, fmt.Errorf("encode candidates: %w", err)
	}

	return builder.Insert(resultTable).
		Columns(resultColumns...).
		Values(r.PersonEntryID, string(r.Status()), r.LowConfidence(), nullJSON(best), string(candidates),
			r.UserConfirmed, r.UserRejected, r.EntryFingerprint, r.UpdatedAt), nil
}

func (s *ResultStore) exec(ctx context.Context, sb squirrel.Sqlizer) error {
	query, args, err := sb.ToSql()
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, query, args...)
	return err
}

func scanResult(row scanner) (match.MatchResult, error) {
	var (
		r          match.MatchResult
		status     string
		low        bool
		best       []byte
		candidates []byte
	)
	err := row.Scan(&r.PersonEntryID, &status, &low, &best, &candidates,
		&r.UserConfirmed, &r.UserRejected, &r.EntryFingerprint, &r.UpdatedAt)
	if err != nil {
		return match.MatchResult{}, err
	}

	var bestRec *match.SafeRecord
	if len(best) > 0 {
		bestRec = &match.SafeRecord{}
		if err := json.Unmarshal(best, bestRec); err != nil {
			return match.MatchResult{}, fmt.Errorf("decode best match: %w", err)
		}
	}
	if r.Outcome, err = match.OutcomeFrom(match.Status(status), bestRec, low); err != nil {
		return match.MatchResult{}, err
	}
	if err := json.Unmarshal(candidates, &r.Candidates); err != nil {
		return match.MatchResult{}, fmt.Errorf("decode candidates: %w", err)
	}
	if len(r.Candidates) == 0 {
		r.Candidates = nil
	}
	return r, nil
}

func nullJSON(b []byte) any {
	if b == nil {
		return nil
	}
	return string(b)
}
