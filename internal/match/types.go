package match

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/votermatch/internal/normalize"
	"github.com/votermatch/internal/turnout"
)

var (
	// ErrMatchingUnavailable means matching could not run at all, as opposed
	// to running and finding nothing.
	ErrMatchingUnavailable = errors.New("matching unavailable")
	// ErrInvalidEntry marks a person entry that cannot be matched.
	ErrInvalidEntry = errors.New("invalid person entry")
	// ErrFuzzyUnavailable is returned by a ReferenceStore whose trigram
	// support is missing.
	ErrFuzzyUnavailable = errors.New("fuzzy retrieval unavailable")
	// ErrResultNotFound is returned when no result exists for a person entry.
	ErrResultNotFound = errors.New("match result not found")
)

// PersonEntry is a user-entered contact to be resolved against the voter file
type PersonEntry struct {
	ID        string    `json:"id"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	City      string    `json:"city,omitempty"`
	Zip       string    `json:"zip,omitempty"`
	Age       *int      `json:"age,omitempty"`
	AgeRange  string    `json:"ageRange,omitempty"`
	Gender    string    `json:"gender,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Address   string    `json:"address,omitempty"`
	Category  string    `json:"category,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

// Validate reports whether the entry can be matched. A last name is
// required because every retrieval tier blocks on it.
func (p PersonEntry) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidEntry)
	}
	first := normalize.NormalizeName(p.FirstName)
	last := normalize.NormalizeName(p.LastName)
	switch {
	case first == "" && last == "":
		return fmt.Errorf("%w: first and last name are empty", ErrInvalidEntry)
	case last == "":
		return fmt.Errorf("%w: last name is empty", ErrInvalidEntry)
	}
	if p.Age != nil && (*p.Age < 0 || *p.Age > 130) {
		return fmt.Errorf("%w: age %d out of range", ErrInvalidEntry, *p.Age)
	}
	return nil
}

// Fingerprint hashes the fields that influence matching. Two entries with
// the same fingerprint produce the same automatic result.
func (p PersonEntry) Fingerprint() string {
	age := ""
	if p.Age != nil {
		age = strconv.Itoa(*p.Age)
	}
	parts := []string{
		normalize.NormalizeName(p.FirstName),
		normalize.NormalizeName(p.LastName),
		normalize.CityKey(p.City),
		normalize.NormalizeZip(p.Zip),
		age,
		strings.TrimSpace(p.AgeRange),
		normalize.NormalizeGender(p.Gender),
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, "\x1f")))
	return hex.EncodeToString(sum[:])
}

// VoterRecord is a row of the reference voter file. It stays inside the
// engine and the stores; results only ever carry its SafeRecord projection.
type VoterRecord struct {
	VoterID            string
	FirstName          string
	MiddleName         string
	LastName           string
	DateOfBirth        time.Time
	Gender             string
	ResidentialAddress string
	City               string
	State              string
	Zip                string
	PartyAffiliation   string
	RegistrationDate   time.Time
	VoterStatus        string
	VoteHistory        turnout.History
}

// BirthYear returns the year of birth, or 0 if the date is unknown
func (v VoterRecord) BirthYear() int {
	if v.DateOfBirth.IsZero() {
		return 0
	}
	return v.DateOfBirth.Year()
}

// Safe projects the record for display, dropping the voter id and
// reducing the date of birth to a year.
func (v VoterRecord) Safe() SafeRecord {
	return SafeRecord{
		FirstName:          v.FirstName,
		MiddleName:         v.MiddleName,
		LastName:           v.LastName,
		BirthYear:          v.BirthYear(),
		Gender:             v.Gender,
		ResidentialAddress: v.ResidentialAddress,
		City:               v.City,
		State:              v.State,
		Zip:                v.Zip,
		PartyAffiliation:   v.PartyAffiliation,
		RegistrationDate:   v.RegistrationDate,
		VoterStatus:        v.VoterStatus,
		VoteHistory:        v.VoteHistory,
	}
}

// SafeRecord is the display projection of a VoterRecord
type SafeRecord struct {
	FirstName          string          `json:"firstName"`
	MiddleName         string          `json:"middleName,omitempty"`
	LastName           string          `json:"lastName"`
	BirthYear          int             `json:"birthYear,omitempty"`
	Gender             string          `json:"gender,omitempty"`
	ResidentialAddress string          `json:"residentialAddress,omitempty"`
	City               string          `json:"city,omitempty"`
	State              string          `json:"state"`
	Zip                string          `json:"zip,omitempty"`
	PartyAffiliation   string          `json:"partyAffiliation,omitempty"`
	RegistrationDate   time.Time       `json:"registrationDate"`
	VoterStatus        string          `json:"voterStatus,omitempty"`
	VoteHistory        turnout.History `json:"voteHistory"`
}

// VoteScore is the share of the last six general elections voted in
func (r SafeRecord) VoteScore() float64 {
	return turnout.Score(r.VoteHistory)
}

// SubScores holds the per-field similarities behind a composite score.
// A nil field was not comparable and carried no weight.
type SubScores struct {
	Name      *float64 `json:"name,omitempty"`
	FirstName *float64 `json:"firstName,omitempty"`
	LastName  *float64 `json:"lastName,omitempty"`
	Geo       *float64 `json:"geo,omitempty"`
	Age       *float64 `json:"age,omitempty"`
	Gender    *float64 `json:"gender,omitempty"`
}

// Candidate is a scored reference record
type Candidate struct {
	Record        SafeRecord `json:"record"`
	Score         float64    `json:"score"`
	MatchedFields []string   `json:"matchedFields"`
	Breakdown     SubScores  `json:"breakdown"`
}

// Status is the string form of an Outcome
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusAmbiguous Status = "ambiguous"
	StatusUnmatched Status = "unmatched"
)

// Outcome is the classification of a person entry. The set of
// implementations is closed: Pending, Confirmed, Ambiguous, Unmatched.
type Outcome interface {
	Status() Status
	outcome()
}

// Pending is a submitted entry that has not been matched yet
type Pending struct{}

// Confirmed carries the single accepted record
type Confirmed struct {
	Record SafeRecord
}

// Ambiguous means no candidate was accepted outright. LowConfidence is set
// when even the best candidate only cleared the low cutoff.
type Ambiguous struct {
	LowConfidence bool
}

// Unmatched means no candidate cleared the low cutoff, or the user rejected
// the suggestions.
type Unmatched struct{}

func (Pending) Status() Status   { return StatusPending }
func (Confirmed) Status() Status { return StatusConfirmed }
func (Ambiguous) Status() Status { return StatusAmbiguous }
func (Unmatched) Status() Status { return StatusUnmatched }

func (Pending) outcome()   {}
func (Confirmed) outcome() {}
func (Ambiguous) outcome() {}
func (Unmatched) outcome() {}

// MatchResult is the stored state of one person entry's match
type MatchResult struct {
	PersonEntryID    string
	Outcome          Outcome
	Candidates       []Candidate
	UserConfirmed    bool
	UserRejected     bool
	EntryFingerprint string
	UpdatedAt        time.Time
}

// Status returns the outcome's status; a result without an outcome is pending
func (r MatchResult) Status() Status {
	if r.Outcome == nil {
		return StatusPending
	}
	return r.Outcome.Status()
}

// BestMatch returns the confirmed record, if any
func (r MatchResult) BestMatch() (SafeRecord, bool) {
	if c, ok := r.Outcome.(Confirmed); ok {
		return c.Record, true
	}
	return SafeRecord{}, false
}

// VoteScore is derived from the best match on every call
func (r MatchResult) VoteScore() (float64, bool) {
	best, ok := r.BestMatch()
	if !ok {
		return 0, false
	}
	return best.VoteScore(), true
}

// Segment is derived from the vote score on every call
func (r MatchResult) Segment() (turnout.Segment, bool) {
	score, ok := r.VoteScore()
	if !ok {
		return "", false
	}
	return turnout.DetermineSegment(score), true
}

// LowConfidence reports an ambiguous result whose best candidate was weak
func (r MatchResult) LowConfidence() bool {
	a, ok := r.Outcome.(Ambiguous)
	return ok && a.LowConfidence
}

// UserDecided reports whether a person confirmed or rejected this result
func (r MatchResult) UserDecided() bool {
	return r.UserConfirmed || r.UserRejected
}

// EntryError reports a person entry that was skipped
type EntryError struct {
	Index         int
	PersonEntryID string
	Err           error
}

func (e EntryError) Error() string {
	return fmt.Sprintf("entry %d (%s): %v", e.Index, e.PersonEntryID, e.Err)
}

func (e EntryError) Unwrap() error { return e.Err }

// Batch is the response to one Match call. Results and Errors together
// cover every submitted entry, each in input order.
type Batch struct {
	Results  []MatchResult
	Errors   []EntryError
	Degraded bool
}

// BatchStats summarises a batch
type BatchStats struct {
	Total         int `json:"total"`
	Confirmed     int `json:"confirmed"`
	Ambiguous     int `json:"ambiguous"`
	LowConfidence int `json:"lowConfidence"`
	Unmatched     int `json:"unmatched"`
	Pending       int `json:"pending"`
	UserDecided   int `json:"userDecided"`
	Errors        int `json:"errors"`
}

// Stats counts outcomes across the batch
func (b *Batch) Stats() BatchStats {
	stats := BatchStats{
		Total:  len(b.Results) + len(b.Errors),
		Errors: len(b.Errors),
	}
	for _, r := range b.Results {
		switch o := r.Outcome.(type) {
		case Confirmed:
			stats.Confirmed++
		case Ambiguous:
			stats.Ambiguous++
			if o.LowConfidence {
				stats.LowConfidence++
			}
		case Unmatched:
			stats.Unmatched++
		default:
			stats.Pending++
		}
		if r.UserDecided() {
			stats.UserDecided++
		}
	}
	return stats
}
