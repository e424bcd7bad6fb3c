// Package store is the Postgres implementation of the voter file and the
// match result store.
package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/votermatch/internal/match"
)

const voterTable = "voter_record"

var voterColumns = []string{
	"voter_id", "first_name", "middle_name", "last_name", "date_of_birth", "gender",
	"residential_address", "city", "state", "zip", "party_affiliation",
	"registration_date", "voter_status", "vote_history",
}

// builder renders $n placeholders for lib/pq
var builder = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// ReferenceStore reads candidate voter records from Postgres
type ReferenceStore struct {
	db *sql.DB
}

// NewReferenceStore creates a reference store over db
func NewReferenceStore(db *sql.DB) *ReferenceStore {
	return &ReferenceStore{db: db}
}

// ByLastName matches the normalized last name exactly
func (s *ReferenceStore) ByLastName(ctx context.Context, q match.BlockQuery) ([]match.VoterRecord, error) {
	return s.query(ctx, s.blockSelect(q).Where(squirrel.Eq{"last_name_norm": q.LastName}))
}

// ByPhoneticCode matches any code against either stored metaphone column
func (s *ReferenceStore) ByPhoneticCode(ctx context.Context, q match.BlockQuery) ([]match.VoterRecord, error) {
	if len(q.Codes) == 0 {
		return nil, nil
	}
	codes := pq.Array(q.Codes)
	return s.query(ctx, s.blockSelect(q).Where(squirrel.Or{
		squirrel.Expr("metaphone_primary = ANY(?)", codes),
		squirrel.Expr("metaphone_alternate = ANY(?)", codes),
	}))
}

// ByTrigram matches last names by pg_trgm similarity. The % operator lets
// the GIN index prefilter at the session threshold; the explicit
// similarity test applies the configured one.
func (s *ReferenceStore) ByTrigram(ctx context.Context, q match.BlockQuery) ([]match.VoterRecord, error) {
	recs, err := s.query(ctx, s.blockSelect(q).
		Where("last_name_norm % ?", q.LastName).
		Where("similarity(last_name_norm, ?) >= ?", q.LastName, q.MinSimilarity))
	if isUndefinedFunction(err) {
		return nil, fmt.Errorf("%w: %v", match.ErrFuzzyUnavailable, err)
	}
	return recs, err
}

// blockSelect is the shared state filter, ordering and limit of every tier
func (s *ReferenceStore) blockSelect(q match.BlockQuery) squirrel.SelectBuilder {
	sb := builder.Select(voterColumns...).
		From(voterTable).
		Where(squirrel.Eq{"state": q.State}).
		OrderByClause("(first_name_norm = ANY(?)) DESC", pq.Array(nonNil(q.FirstNames))).
		OrderByClause("(zip = ?) DESC", q.Zip).
		OrderByClause("(city_norm = ANY(?)) DESC", pq.Array(nonNil(q.Cities))).
		OrderByClause("(left(zip, 3) = ANY(?)) DESC", pq.Array(nonNil(q.ZipPrefixes))).
		OrderBy("voter_id")
	if q.Limit > 0 {
		sb = sb.Limit(uint64(q.Limit))
	}
	return sb
}

// nonNil keeps pq.Array from sending NULL, which would make ANY() unknown
func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

func (s *ReferenceStore) query(ctx context.Context, sb squirrel.SelectBuilder) ([]match.VoterRecord, error) {
	query, args, err := sb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build voter query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []match.VoterRecord
	for rows.Next() {
		rec, err := scanVoter(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanVoter(row scanner) (match.VoterRecord, error) {
	var (
		rec          match.VoterRecord
		dob, regDate sql.NullTime
		history      string
	)
	err := row.Scan(
		&rec.VoterID, &rec.FirstName, &rec.MiddleName, &rec.LastName, &dob, &rec.Gender,
		&rec.ResidentialAddress, &rec.City, &rec.State, &rec.Zip, &rec.PartyAffiliation,
		&regDate, &rec.VoterStatus, &history,
	)
	if err != nil {
		return match.VoterRecord{}, fmt.Errorf("scan voter record: %w", err)
	}
	if dob.Valid {
		rec.DateOfBirth = dob.Time
	}
	if regDate.Valid {
		rec.RegistrationDate = regDate.Time
	}
	if err := rec.VoteHistory.UnmarshalText([]byte(history)); err != nil {
		return match.VoterRecord{}, err
	}
	return rec, nil
}
