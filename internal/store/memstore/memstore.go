// Package memstore is an in-memory voter file used by tests and by the
// CLI's fixture mode. It implements the same blocking and ordering rules
// as the Postgres store.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/votermatch/internal/match"
	"github.com/votermatch/internal/normalize"
	"github.com/votermatch/internal/phonetics"
)

type row struct {
	rec   match.VoterRecord
	state string
	first string
	last  string
	city  string
	zip   string
	codes []string
}

// Store holds voter records indexed by state
type Store struct {
	mu        sync.RWMutex
	phonetics *phonetics.Service
	byState   map[string][]row
	trigram   bool
}

// Option configures a Store
type Option func(*Store)

// WithoutTrigram makes ByTrigram report ErrFuzzyUnavailable, as a database
// without pg_trgm would.
func WithoutTrigram() Option {
	return func(s *Store) { s.trigram = false }
}

// New creates an empty store
func New(ph *phonetics.Service, opts ...Option) *Store {
	if ph == nil {
		ph = phonetics.NewService()
	}
	s := &Store{
		phonetics: ph,
		byState:   make(map[string][]row),
		trigram:   true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Add indexes records. A repeated voter id is stored as another row; the
// retriever keeps only the first one it sees.
func (s *Store) Add(records ...match.VoterRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range records {
		last := normalize.NormalizeName(rec.LastName)
		state := strings.ToUpper(strings.TrimSpace(rec.State))
		s.byState[state] = append(s.byState[state], row{
			rec:   rec,
			state: state,
			first: normalize.NormalizeName(rec.FirstName),
			last:  last,
			city:  normalize.CityKey(rec.City),
			zip:   normalize.NormalizeZip(rec.Zip),
			codes: s.phonetics.Codes(last),
		})
	}
}

// Len returns the number of stored records
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, rows := range s.byState {
		n += len(rows)
	}
	return n
}

func (s *Store) ByLastName(ctx context.Context, q match.BlockQuery) ([]match.VoterRecord, error) {
	return s.find(ctx, q, func(r row) bool { return r.last == q.LastName })
}

func (s *Store) ByPhoneticCode(ctx context.Context, q match.BlockQuery) ([]match.VoterRecord, error) {
	return s.find(ctx, q, func(r row) bool {
		for _, c := range r.codes {
			for _, want := range q.Codes {
				if c == want {
					return true
				}
			}
		}
		return false
	})
}

func (s *Store) ByTrigram(ctx context.Context, q match.BlockQuery) ([]match.VoterRecord, error) {
	if !s.trigram {
		return nil, match.ErrFuzzyUnavailable
	}
	want := trigrams(q.LastName)
	return s.find(ctx, q, func(r row) bool {
		return similarity(want, trigrams(r.last)) >= q.MinSimilarity
	})
}

func (s *Store) find(ctx context.Context, q match.BlockQuery, keep func(row) bool) ([]match.VoterRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	var hits []row
	for _, r := range s.byState[q.State] {
		if keep(r) {
			hits = append(hits, r)
		}
	}
	s.mu.RUnlock()

	nicknames := set(q.FirstNames)
	cities := set(q.Cities)
	prefixes := set(q.ZipPrefixes)
	// each criterion outweighs all the ones after it
	rank := func(r row) int {
		rank := 0
		if nicknames[r.first] {
			rank += 8
		}
		if q.Zip != "" && r.zip == q.Zip {
			rank += 4
		}
		if r.city != "" && cities[r.city] {
			rank += 2
		}
		if r.zip != "" && prefixes[normalize.ZipPrefix(r.zip)] {
			rank++
		}
		return rank
	}
	sort.SliceStable(hits, func(i, j int) bool {
		ri, rj := rank(hits[i]), rank(hits[j])
		if ri != rj {
			return ri > rj
		}
		return hits[i].rec.VoterID < hits[j].rec.VoterID
	})

	if q.Limit > 0 && len(hits) > q.Limit {
		hits = hits[:q.Limit]
	}
	out := make([]match.VoterRecord, len(hits))
	for i, r := range hits {
		out[i] = r.rec
	}
	return out, nil
}

func set(values []string) map[string]bool {
	m := make(map[string]bool, len(values))
	for _, v := range values {
		m[v] = true
	}
	return m
}
