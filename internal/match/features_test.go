package match

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/votermatch/internal/metro"
	"github.com/votermatch/internal/normalize"
	"github.com/votermatch/internal/phonetics"
)

func fixedClock() time.Time {
	return time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)
}

func newTestFeatureComputer() *FeatureComputer {
	ph := phonetics.NewService()
	return NewFeatureComputer(ph, normalize.DefaultNicknameTable(), metro.DefaultResolver(ph.Similarity), fixedClock)
}

func born(year int) time.Time {
	return time.Date(year, time.March, 10, 0, 0, 0, 0, time.UTC)
}

func intPtr(v int) *int { return &v }

func TestNicknameEquivalence(t *testing.T) {
	fc := newTestFeatureComputer()
	rec := VoterRecord{FirstName: "Robert", LastName: "Smith", City: "Brooklyn", State: "NY"}

	bob, bobFields := fc.ComputeFeatures(false, fc.prepare(PersonEntry{ID: "1", FirstName: "Bob", LastName: "Smith", City: "Brooklyn"}, "NY"), rec)
	robert, robertFields := fc.ComputeFeatures(false, fc.prepare(PersonEntry{ID: "2", FirstName: "Robert", LastName: "Smith", City: "Brooklyn"}, "NY"), rec)

	require.NotNil(t, bob.Name)
	require.NotNil(t, robert.Name)
	assert.Equal(t, *robert.Name, *bob.Name)
	assert.Equal(t, 1.0, *bob.FirstName)
	assert.Contains(t, bobFields, FieldNickname)
	assert.NotContains(t, robertFields, FieldNickname)
}

func TestFirstNameWithMiddleInitial(t *testing.T) {
	fc := newTestFeatureComputer()
	q := fc.prepare(PersonEntry{ID: "1", FirstName: "Jim", LastName: "Carter"}, "NY")

	scores, _ := fc.ComputeFeatures(false, q, VoterRecord{FirstName: "James R", LastName: "Carter"})
	assert.Equal(t, 1.0, *scores.FirstName)
}

func TestNameWithoutFirstName(t *testing.T) {
	fc := newTestFeatureComputer()
	q := fc.prepare(PersonEntry{ID: "1", LastName: "Carter"}, "NY")

	scores, _ := fc.ComputeFeatures(false, q, VoterRecord{FirstName: "James", LastName: "Carter"})
	assert.Nil(t, scores.FirstName)
	assert.Equal(t, 1.0, *scores.Name)
}

func TestAgeScore(t *testing.T) {
	fc := newTestFeatureComputer()

	tests := []struct {
		name     string
		entry    PersonEntry
		birth    time.Time
		expected *float64
	}{
		{"exact age, birthday passed", PersonEntry{Age: intPtr(40)}, born(1984), f(1.0)},
		{"exact age, birthday ahead", PersonEntry{Age: intPtr(40)}, born(1983), f(1.0)},
		{"one year off", PersonEntry{Age: intPtr(40)}, born(1982), f(0.5)},
		{"one year off other side", PersonEntry{Age: intPtr(40)}, born(1985), f(0.5)},
		{"far off", PersonEntry{Age: intPtr(40)}, born(1970), f(0.0)},
		{"range", PersonEntry{AgeRange: "35-44"}, born(1985), f(1.0)},
		{"range lower edge", PersonEntry{AgeRange: "35-44"}, born(1979), f(1.0)},
		{"range open ended", PersonEntry{AgeRange: "65+"}, born(1940), f(1.0)},
		{"age beats range", PersonEntry{Age: intPtr(40), AgeRange: "65+"}, born(1984), f(1.0)},
		{"no age given", PersonEntry{}, born(1984), nil},
		{"unknown birth date", PersonEntry{Age: intPtr(40)}, time.Time{}, nil},
		{"bad range", PersonEntry{AgeRange: "old"}, born(1984), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.entry.ID = "1"
			tt.entry.LastName = "Carter"
			q := fc.prepare(tt.entry, "NY")
			scores, _ := fc.ComputeFeatures(false, q, VoterRecord{LastName: "Carter", DateOfBirth: tt.birth})
			if tt.expected == nil {
				assert.Nil(t, scores.Age)
				return
			}
			require.NotNil(t, scores.Age)
			assert.Equal(t, *tt.expected, *scores.Age)
		})
	}
}

func TestGenderScore(t *testing.T) {
	fc := newTestFeatureComputer()

	tests := []struct {
		name     string
		query    string
		record   string
		expected *float64
	}{
		{"agree", "M", "m", f(1.0)},
		{"disagree", "female", "M", f(0.0)},
		{"unknown treated as absent", "U", "M", nil},
		{"record missing", "F", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := fc.prepare(PersonEntry{ID: "1", LastName: "Carter", Gender: tt.query}, "NY")
			scores, _ := fc.ComputeFeatures(false, q, VoterRecord{LastName: "Carter", Gender: tt.record})
			if tt.expected == nil {
				assert.Nil(t, scores.Gender)
				return
			}
			require.NotNil(t, scores.Gender)
			assert.Equal(t, *tt.expected, *scores.Gender)
		})
	}
}

func TestGeoScore(t *testing.T) {
	fc := newTestFeatureComputer()

	q := fc.prepare(PersonEntry{ID: "1", LastName: "Carter", City: "Forest Hills"}, "NY")
	scores, fields := fc.ComputeFeatures(false, q, VoterRecord{LastName: "Carter", City: "New York"})
	require.NotNil(t, scores.Geo)
	assert.Equal(t, metro.ScoreSameMetro, *scores.Geo)
	assert.Contains(t, fields, FieldGeo)

	q = fc.prepare(PersonEntry{ID: "1", LastName: "Carter"}, "NY")
	scores, _ = fc.ComputeFeatures(false, q, VoterRecord{LastName: "Carter", City: "New York"})
	assert.Nil(t, scores.Geo, "query without city or zip")

	q = fc.prepare(PersonEntry{ID: "1", LastName: "Carter", Zip: "11375"}, "NY")
	scores, _ = fc.ComputeFeatures(false, q, VoterRecord{LastName: "Carter"})
	assert.Nil(t, scores.Geo, "record without city or zip")

	q = fc.prepare(PersonEntry{ID: "1", LastName: "Carter", City: "Springfield"}, "IL")
	scores, fields = fc.ComputeFeatures(false, q, VoterRecord{LastName: "Carter", Zip: "62701"})
	assert.Nil(t, scores.Geo, "city against zip with no metro on either side")
	assert.NotContains(t, fields, FieldGeo)

	q = fc.prepare(PersonEntry{ID: "1", LastName: "Carter", City: "Queens"}, "NY")
	scores, _ = fc.ComputeFeatures(false, q, VoterRecord{LastName: "Carter", Zip: "11375"})
	require.NotNil(t, scores.Geo, "city against zip in the same metro")
	assert.Equal(t, metro.ScoreZipOrZipMetro, *scores.Geo)
}

func TestPrepareArea(t *testing.T) {
	fc := newTestFeatureComputer()

	q := fc.prepare(PersonEntry{ID: "1", LastName: "Smith", City: "Brooklyn"}, "NY")
	bq := q.blockQuery()
	require.NotEmpty(t, bq.Cities)
	assert.Equal(t, "brooklyn", bq.Cities[0])
	assert.Contains(t, bq.Cities, "new york")
	assert.Contains(t, bq.Cities, "queens")
	assert.Contains(t, bq.ZipPrefixes, "112")

	q = fc.prepare(PersonEntry{ID: "1", LastName: "Smith", City: "Buffalo", Zip: "14201"}, "NY")
	bq = q.blockQuery()
	assert.Equal(t, []string{"buffalo"}, bq.Cities)
	assert.Equal(t, []string{"142"}, bq.ZipPrefixes)
}

func TestParseAgeRange(t *testing.T) {
	tests := []struct {
		input  string
		lo, hi int
		ok     bool
	}{
		{"35-44", 35, 44, true},
		{" 18 - 24 ", 18, 24, true},
		{"65+", 65, oldestAge, true},
		{"40", 40, 40, true},
		{"44-35", 0, 0, false},
		{"", 0, 0, false},
		{"adult", 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			lo, hi, ok := ParseAgeRange(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.lo, lo)
			assert.Equal(t, tt.hi, hi)
		})
	}
}
