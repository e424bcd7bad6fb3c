package metro

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/votermatch/internal/phonetics"
)

func TestCityMatchScore(t *testing.T) {
	r := DefaultResolver(phonetics.NewService().Similarity)

	tests := []struct {
		name         string
		cityA, cityB string
		zipA, zipB   string
		want         float64
	}{
		{name: "exact city", cityA: "Albany", cityB: "ALBANY", want: 1.0},
		{name: "exact city with punctuation", cityA: "St. Albans", cityB: "st albans", want: 1.0},
		{name: "neighborhood to city", cityA: "Forest Hills", cityB: "New York", want: 0.95},
		{name: "borough to abbreviation", cityA: "Queens", cityB: "NYC", want: 0.95},
		{name: "neighborhood to other borough", cityA: "Astoria", cityB: "Brooklyn", want: 0.95},
		{name: "same five digit zip", cityA: "Springfield", cityB: "Shelbyville", zipA: "62701", zipB: "62701", want: 0.85},
		{name: "city alias and zip metro", cityA: "Manhattan", zipB: "11375", want: 0.85},
		{name: "same prefix with metro", zipA: "11375", zipB: "11354", want: 0.85},
		{name: "different prefixes same metro", zipA: "10001", zipB: "11375", want: 0.80},
		{name: "same prefix without metro", cityA: "Troy", cityB: "Latham", zipA: "12180", zipB: "12110", want: 0.5},
		{name: "unrelated cities", cityA: "Buffalo", cityB: "Albany", zipA: "14201", zipB: "12207", want: 0.0},
		{name: "different metros", cityA: "Brooklyn", cityB: "Chicago", want: 0.0},
		{name: "all absent", want: 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, r.CityMatchScore(tt.cityA, tt.cityB, tt.zipA, tt.zipB), 1e-9)
		})
	}
}

func TestCityMatchScoreTypoFallback(t *testing.T) {
	r := DefaultResolver(phonetics.NewService().Similarity)

	got := r.CityMatchScore("Rochester", "Rochestr", "", "")
	assert.Greater(t, got, 0.8)
	assert.Less(t, got, 0.9, "string similarity must stay below a confirmed metro match")

	noSim := DefaultResolver(nil)
	assert.Equal(t, 0.0, noSim.CityMatchScore("Rochester", "Rochestr", "", ""))
}

func TestCityMatchScoreOrderingDominance(t *testing.T) {
	r := DefaultResolver(phonetics.NewService().Similarity)

	// The alias match must win even though the zips disagree.
	assert.Equal(t, ScoreSameMetro, r.CityMatchScore("Harlem", "Bronx", "10027", "60601"))
}

func TestNewResolverRejectsConflicts(t *testing.T) {
	_, err := NewResolver([]Metro{
		{Name: "a", Aliases: []string{"shared"}},
		{Name: "b", Aliases: []string{"shared"}},
	}, nil)
	require.Error(t, err)

	_, err = NewResolver([]Metro{
		{Name: "a", ZipPrefixes: []string{"123"}},
		{Name: "b", ZipPrefixes: []string{"123"}},
	}, nil)
	require.Error(t, err)
}

func TestMetroLookups(t *testing.T) {
	r := DefaultResolver(nil)

	assert.Equal(t, "new york", r.MetroForCity("Jackson Heights"))
	assert.Equal(t, "new york", r.MetroForCity("new york"))
	assert.Equal(t, "washington", r.MetroForCity("Washington, D.C."))
	assert.Equal(t, "chicago", r.MetroForZip("60614-2201"))
	assert.Equal(t, "", r.MetroForZip("12207"))
}

func TestResolveCityThenZip(t *testing.T) {
	r := DefaultResolver(nil)

	assert.Equal(t, "new york", r.Resolve("Astoria", ""))
	assert.Equal(t, "chicago", r.Resolve("", "60614"))
	assert.Equal(t, "new york", r.Resolve("Queens", "60614"), "the city wins over the zip")
	assert.Equal(t, "", r.Resolve("Buffalo", "14201"))
}

func TestArea(t *testing.T) {
	r, err := NewResolver([]Metro{
		{Name: "Twin Cities", Aliases: []string{"Minneapolis", "St. Paul"}, ZipPrefixes: []string{"554", "551"}},
	}, nil)
	require.NoError(t, err)

	cities, prefixes := r.Area("St. Paul", "55102")
	assert.Equal(t, []string{"st paul", "twin cities", "minneapolis"}, cities)
	assert.Equal(t, []string{"551", "554"}, prefixes)

	cities, prefixes = r.Area("", "55401")
	assert.Equal(t, []string{"twin cities", "minneapolis", "st paul"}, cities, "a zip alone resolves the metro")
	assert.Equal(t, []string{"554", "551"}, prefixes)

	cities, prefixes = r.Area("Duluth", "")
	assert.Equal(t, []string{"duluth"}, cities)
	assert.Nil(t, prefixes)

	cities, prefixes = r.Area("", "")
	assert.Nil(t, cities)
	assert.Nil(t, prefixes)
}

func TestComparable(t *testing.T) {
	r := DefaultResolver(nil)

	tests := []struct {
		name         string
		cityA, cityB string
		zipA, zipB   string
		want         bool
	}{
		{name: "city and city", cityA: "Springfield", cityB: "Albany", want: true},
		{name: "zip and zip", zipA: "62701", zipB: "12207", want: true},
		{name: "city and zip both in a metro", cityA: "Queens", zipB: "11375", want: true},
		{name: "city and zip without metro", cityA: "Springfield", zipB: "62701", want: false},
		{name: "metro city and unmapped zip", cityA: "Queens", zipB: "62701", want: false},
		{name: "malformed zip", zipA: "627", zipB: "62701", want: false},
		{name: "one side empty", cityA: "Queens", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Comparable(tt.cityA, tt.cityB, tt.zipA, tt.zipB))
		})
	}
}
