package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/votermatch/internal/match"
	"github.com/votermatch/internal/normalize"
	"github.com/votermatch/internal/phonetics"
)

// insertChunk bounds the rows per INSERT so the parameter count stays
// well under Postgres' limit of 65535.
const insertChunk = 500

var loadColumns = append(append([]string{}, voterColumns...),
	"last_name_norm", "first_name_norm", "city_norm", "metaphone_primary", "metaphone_alternate")

// VoterLoader writes voter records together with their blocking columns
type VoterLoader struct {
	db        *sql.DB
	phonetics *phonetics.Service
}

// NewVoterLoader creates a loader. The phonetics service must be the one the
// engine uses so stored codes and query codes agree.
func NewVoterLoader(db *sql.DB, ph *phonetics.Service) *VoterLoader {
	return &VoterLoader{db: db, phonetics: ph}
}

// Load upserts records in one transaction and returns the number written.
// When a voter id repeats, the last record wins.
func (l *VoterLoader) Load(ctx context.Context, recs []match.VoterRecord) (int, error) {
	recs = lastByVoterID(recs)

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin import: %w", err)
	}
	defer tx.Rollback()

	written := 0
	for start := 0; start < len(recs); start += insertChunk {
		end := min(start+insertChunk, len(recs))

		insert := builder.Insert(voterTable).Columns(loadColumns...)
		for _, rec := range recs[start:end] {
			insert = insert.Values(l.values(rec)...)
		}
		insert = insert.Suffix(`ON CONFLICT (voter_id) DO UPDATE SET
			first_name = EXCLUDED.first_name,
			middle_name = EXCLUDED.middle_name,
			last_name = EXCLUDED.last_name,
			date_of_birth = EXCLUDED.date_of_birth,
			gender = EXCLUDED.gender,
			residential_address = EXCLUDED.residential_address,
			city = EXCLUDED.city,
			state = EXCLUDED.state,
			zip = EXCLUDED.zip,
			party_affiliation = EXCLUDED.party_affiliation,
			registration_date = EXCLUDED.registration_date,
			voter_status = EXCLUDED.voter_status,
			vote_history = EXCLUDED.vote_history,
			last_name_norm = EXCLUDED.last_name_norm,
			first_name_norm = EXCLUDED.first_name_norm,
			city_norm = EXCLUDED.city_norm,
			metaphone_primary = EXCLUDED.metaphone_primary,
			metaphone_alternate = EXCLUDED.metaphone_alternate,
			imported_at = now()`)

		query, args, err := insert.ToSql()
		if err != nil {
			return written, fmt.Errorf("build voter insert: %w", err)
		}
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return written, fmt.Errorf("insert voters %d-%d: %w", start, end, err)
		}
		n, _ := res.RowsAffected()
		written += int(n)

		slog.Debug("voter chunk written", "from", start, "to", end)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit import: %w", err)
	}
	return written, nil
}

func (l *VoterLoader) values(rec match.VoterRecord) []any {
	last := normalize.NormalizeName(rec.LastName)
	codes := l.phonetics.Codes(last)
	primary, alternate := "", ""
	if len(codes) > 0 {
		primary = codes[0]
	}
	if len(codes) > 1 {
		alternate = codes[1]
	}
	return []any{
		rec.VoterID, rec.FirstName, rec.MiddleName, rec.LastName, nullTime(rec.DateOfBirth), rec.Gender,
		rec.ResidentialAddress, rec.City, strings.ToUpper(rec.State), normalize.NormalizeZip(rec.Zip),
		rec.PartyAffiliation, nullTime(rec.RegistrationDate), rec.VoterStatus, rec.VoteHistory.String(),
		last, normalize.NormalizeName(rec.FirstName), normalize.CityKey(rec.City), primary, alternate,
	}
}

// CountVoters returns the number of voter records, optionally in one state
func CountVoters(ctx context.Context, db *sql.DB, state string) (int64, error) {
	sb := builder.Select("count(*)").From(voterTable)
	if state != "" {
		sb = sb.Where(squirrel.Eq{"state": strings.ToUpper(state)})
	}
	query, args, err := sb.ToSql()
	if err != nil {
		return 0, err
	}
	var n int64
	err = db.QueryRowContext(ctx, query, args...).Scan(&n)
	return n, err
}

// lastByVoterID drops earlier duplicates, since one INSERT cannot update the
// same row twice.
func lastByVoterID(recs []match.VoterRecord) []match.VoterRecord {
	pos := make(map[string]int, len(recs))
	out := make([]match.VoterRecord, 0, len(recs))
	for _, rec := range recs {
		if i, ok := pos[rec.VoterID]; ok {
			out[i] = rec
			continue
		}
		pos[rec.VoterID] = len(out)
		out = append(out, rec)
	}
	return out
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
