package match

import (
	"strconv"
	"strings"
	"time"

	"github.com/votermatch/internal/debug"
	"github.com/votermatch/internal/metro"
	"github.com/votermatch/internal/normalize"
	"github.com/votermatch/internal/phonetics"
)

const (
	firstNameShare = 0.4
	lastNameShare  = 0.6
	// strongField is the sub-score at which a field is reported as matched
	strongField = 0.9
	// oldestAge bounds the open end of ranges like "65+"
	oldestAge = 110
)

// Field names reported in Candidate.MatchedFields
const (
	FieldFirstName = "firstName"
	FieldNickname  = "nickname"
	FieldLastName  = "lastName"
	FieldGeo       = "geo"
	FieldAge       = "age"
	FieldGender    = "gender"
)

// query is a person entry after normalization and expansion
type query struct {
	entry     PersonEntry
	state     string
	first     string
	last      string
	zip       string
	gender    string
	nicknames []string
	codes     []string
	years     *yearRange
	// cities and zipPrefixes place the entry's metro for retrieval order
	cities      []string
	zipPrefixes []string
}

// yearRange is an inclusive range of plausible birth years
type yearRange struct {
	min, max int
}

func (r yearRange) distance(year int) int {
	switch {
	case year < r.min:
		return r.min - year
	case year > r.max:
		return year - r.max
	default:
		return 0
	}
}

// blockQuery is the store-facing part of the query
func (q query) blockQuery() BlockQuery {
	return BlockQuery{
		State:       q.state,
		LastName:    q.last,
		Codes:       q.codes,
		FirstNames:  q.nicknames,
		Zip:         q.zip,
		Cities:      q.cities,
		ZipPrefixes: q.zipPrefixes,
	}
}

// FeatureComputer turns a (query, record) pair into sub-scores
type FeatureComputer struct {
	phonetics *phonetics.Service
	nicknames *normalize.NicknameTable
	metro     *metro.Resolver
	now       func() time.Time
}

// NewFeatureComputer creates a feature computer from shared, immutable helpers
func NewFeatureComputer(ph *phonetics.Service, nicknames *normalize.NicknameTable, resolver *metro.Resolver, now func() time.Time) *FeatureComputer {
	return &FeatureComputer{
		phonetics: ph,
		nicknames: nicknames,
		metro:     resolver,
		now:       now,
	}
}

// prepare normalizes and expands a person entry once per match
func (fc *FeatureComputer) prepare(p PersonEntry, state string) query {
	first := normalize.NormalizeName(p.FirstName)
	last := normalize.NormalizeName(p.LastName)
	cities, zipPrefixes := fc.metro.Area(p.City, p.Zip)
	return query{
		entry:       p,
		state:       state,
		first:       first,
		last:        last,
		zip:         normalize.NormalizeZip(p.Zip),
		gender:      normalize.NormalizeGender(p.Gender),
		nicknames:   fc.nicknames.Expand(first),
		codes:       fc.phonetics.Codes(last),
		years:       fc.birthYears(p),
		cities:      cities,
		zipPrefixes: zipPrefixes,
	}
}

// birthYears derives the plausible birth years from Age, or AgeRange when
// no exact age was given. Someone aged a on the reference date was born in
// year ref-a or ref-a-1 depending on their birthday.
func (fc *FeatureComputer) birthYears(p PersonEntry) *yearRange {
	ref := fc.now().Year()
	if p.Age != nil {
		return &yearRange{min: ref - *p.Age - 1, max: ref - *p.Age}
	}
	lo, hi, ok := ParseAgeRange(p.AgeRange)
	if !ok {
		return nil
	}
	return &yearRange{min: ref - hi - 1, max: ref - lo}
}

// ParseAgeRange parses "35-44" or "65+" into inclusive age bounds
func ParseAgeRange(s string) (lo, hi int, ok bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), " ", "")
	if s == "" {
		return 0, 0, false
	}
	if strings.HasSuffix(s, "+") {
		n, err := strconv.Atoi(strings.TrimSuffix(s, "+"))
		if err != nil || n < 0 {
			return 0, 0, false
		}
		return n, oldestAge, true
	}
	a, b, found := strings.Cut(s, "-")
	if !found {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return 0, 0, false
		}
		return n, n, true
	}
	lo, errLo := strconv.Atoi(a)
	hi, errHi := strconv.Atoi(b)
	if errLo != nil || errHi != nil || lo < 0 || hi < lo {
		return 0, 0, false
	}
	return lo, hi, true
}

// ComputeFeatures scores every comparable field of rec against q
func (fc *FeatureComputer) ComputeFeatures(localDebug bool, q query, rec VoterRecord) (SubScores, []string) {
	var scores SubScores
	var fields []string

	// Name
	candFirst := normalize.NormalizeName(rec.FirstName)
	candLast := normalize.NormalizeName(rec.LastName)

	last := fc.phonetics.Similarity(q.last, candLast)
	scores.LastName = &last
	if last >= strongField {
		fields = append(fields, FieldLastName)
	}

	name := last
	if q.first != "" {
		first, viaNickname := fc.firstNameScore(q, candFirst)
		scores.FirstName = &first
		if first >= strongField {
			fields = append(fields, FieldFirstName)
			if viaNickname {
				fields = append(fields, FieldNickname)
			}
		}
		name = firstNameShare*first + lastNameShare*last
	}
	scores.Name = &name

	// Geography, only when the two sides share a comparable field
	if fc.metro.Comparable(q.entry.City, rec.City, q.entry.Zip, rec.Zip) {
		geo := fc.metro.CityMatchScore(q.entry.City, rec.City, q.entry.Zip, rec.Zip)
		scores.Geo = &geo
		if geo >= strongField {
			fields = append(fields, FieldGeo)
		}
	}

	// Age
	if q.years != nil {
		if year := rec.BirthYear(); year != 0 {
			var age float64
			switch q.years.distance(year) {
			case 0:
				age = 1.0
			case 1:
				age = 0.5
			}
			scores.Age = &age
			if age >= strongField {
				fields = append(fields, FieldAge)
			}
		}
	}

	// Gender
	if candGender := normalize.NormalizeGender(rec.Gender); q.gender != "" && candGender != "" {
		var gender float64
		if q.gender == candGender {
			gender = 1.0
			fields = append(fields, FieldGender)
		}
		scores.Gender = &gender
	}

	debug.DebugOutput(localDebug, "Features %s %s: name=%.3f fields=%v",
		candFirst, candLast, name, fields)

	return scores, fields
}

// firstNameScore is 1.0 when the candidate's first name, or its first word,
// is in the nickname set, otherwise the best similarity against the set.
func (fc *FeatureComputer) firstNameScore(q query, candFirst string) (float64, bool) {
	if candFirst == "" {
		return 0, false
	}
	head, _, _ := strings.Cut(candFirst, " ")
	for _, n := range q.nicknames {
		if n == candFirst || n == head {
			return 1.0, n != q.first
		}
	}
	best := 0.0
	for _, n := range q.nicknames {
		if sim := fc.phonetics.Similarity(n, candFirst); sim > best {
			best = sim
		}
	}
	return best, false
}
