// Package metro resolves city, borough and neighborhood names and zip
// prefixes to canonical metro areas and scores how likely two locations
// refer to the same place.
package metro

import (
	"fmt"

	"github.com/votermatch/internal/normalize"
)

// Scores returned by CityMatchScore, highest precision first.
const (
	ScoreExact          = 1.0
	ScoreSameMetro      = 0.95
	ScoreZipOrZipMetro  = 0.85
	ScoreZipPrefixMetro = 0.80
	ScoreSameZipPrefix  = 0.5

	strongSimilarity = 0.92
	weakSimilarity   = 0.80
)

// Metro describes one metro area.
type Metro struct {
	Name        string
	Aliases     []string
	ZipPrefixes []string
}

// SimilarityFunc scores two normalized city names in [0,1].
type SimilarityFunc func(a, b string) float64

// Resolver maps city aliases and zip prefixes to metro names. It is
// read-only after construction.
type Resolver struct {
	byAlias     map[string]string
	byZipPrefix map[string]string
	aliases     map[string][]string
	zipPrefixes map[string][]string
	similarity  SimilarityFunc
}

// NewResolver indexes metros. An alias or zip prefix claimed by two metros
// is a configuration error. sim may be nil, which disables the typo fallback.
func NewResolver(metros []Metro, sim SimilarityFunc) (*Resolver, error) {
	r := &Resolver{
		byAlias:     make(map[string]string),
		byZipPrefix: make(map[string]string),
		aliases:     make(map[string][]string),
		zipPrefixes: make(map[string][]string),
		similarity:  sim,
	}

	for _, m := range metros {
		name := normalize.CityKey(m.Name)
		if name == "" {
			return nil, fmt.Errorf("metro with empty name")
		}
		for _, alias := range append([]string{m.Name}, m.Aliases...) {
			key := normalize.CityKey(alias)
			if key == "" {
				continue
			}
			owner, ok := r.byAlias[key]
			if ok && owner != name {
				return nil, fmt.Errorf("alias %q claimed by both %q and %q", key, owner, name)
			}
			if !ok {
				r.byAlias[key] = name
				r.aliases[name] = append(r.aliases[name], key)
			}
		}
		for _, prefix := range m.ZipPrefixes {
			owner, ok := r.byZipPrefix[prefix]
			if ok && owner != name {
				return nil, fmt.Errorf("zip prefix %q claimed by both %q and %q", prefix, owner, name)
			}
			if !ok {
				r.byZipPrefix[prefix] = name
				r.zipPrefixes[name] = append(r.zipPrefixes[name], prefix)
			}
		}
	}

	return r, nil
}

// DefaultResolver builds a resolver over the built-in US metro table.
func DefaultResolver(sim SimilarityFunc) *Resolver {
	r, err := NewResolver(builtinMetros, sim)
	if err != nil {
		panic(fmt.Sprintf("metro: built-in table is inconsistent: %v", err))
	}
	return r
}

// MetroForCity returns the metro a city, borough or neighborhood belongs to.
func (r *Resolver) MetroForCity(city string) string {
	return r.byAlias[normalize.CityKey(city)]
}

// MetroForZip returns the metro a zip code's three-digit prefix belongs to.
func (r *Resolver) MetroForZip(zip string) string {
	return r.byZipPrefix[normalize.ZipPrefix(zip)]
}

// Resolve returns the metro of a location, by city first and zip second.
func (r *Resolver) Resolve(city, zip string) string {
	if m := r.MetroForCity(city); m != "" {
		return m
	}
	return r.MetroForZip(zip)
}

// Area lists the city keys and zip prefixes that count as near a location:
// its own city key and zip prefix, plus every alias and prefix of its metro.
func (r *Resolver) Area(city, zip string) (cities, zipPrefixes []string) {
	if key := normalize.CityKey(city); key != "" {
		cities = append(cities, key)
	}
	if prefix := normalize.ZipPrefix(zip); prefix != "" {
		zipPrefixes = append(zipPrefixes, prefix)
	}

	m := r.Resolve(city, zip)
	if m == "" {
		return cities, zipPrefixes
	}
	for _, key := range r.aliases[m] {
		if len(cities) == 0 || key != cities[0] {
			cities = append(cities, key)
		}
	}
	for _, prefix := range r.zipPrefixes[m] {
		if len(zipPrefixes) == 0 || prefix != zipPrefixes[0] {
			zipPrefixes = append(zipPrefixes, prefix)
		}
	}
	return cities, zipPrefixes
}

// Comparable reports whether two locations share something to compare:
// a city on both sides, a zip on both sides, or a metro both resolve to
// some metro through either field.
func (r *Resolver) Comparable(cityA, cityB, zipA, zipB string) bool {
	if normalize.CityKey(cityA) != "" && normalize.CityKey(cityB) != "" {
		return true
	}
	if normalize.NormalizeZip(zipA) != "" && normalize.NormalizeZip(zipB) != "" {
		return true
	}
	return r.Resolve(cityA, zipA) != "" && r.Resolve(cityB, zipB) != ""
}

// CityMatchScore scores how likely two locations are the same place. Empty
// strings mean the field is absent. Rules are evaluated in order so that a
// higher-precision signal always wins over a lower-precision one:
//
//	1.0   identical normalized city
//	0.95  both cities resolve to the same metro through the alias table
//	0.85  identical 5-digit zip, or same metro when zip lookup is needed
//	0.80  different zip prefixes that belong to the same metro
//	0.5   identical zip prefix with no metro mapping
//	      scaled string similarity for city-name typos, else 0
func (r *Resolver) CityMatchScore(cityA, cityB, zipA, zipB string) float64 {
	ca, cb := normalize.CityKey(cityA), normalize.CityKey(cityB)
	if ca != "" && ca == cb {
		return ScoreExact
	}

	ma, mb := r.byAlias[ca], r.byAlias[cb]
	if ma != "" && ma == mb {
		return ScoreSameMetro
	}

	za, zb := normalize.NormalizeZip(zipA), normalize.NormalizeZip(zipB)
	if za != "" && za == zb {
		return ScoreZipOrZipMetro
	}

	pa, pb := normalize.ZipPrefix(zipA), normalize.ZipPrefix(zipB)
	zma, zmb := r.byZipPrefix[pa], r.byZipPrefix[pb]

	ea, eb := ma, mb
	if ea == "" {
		ea = zma
	}
	if eb == "" {
		eb = zmb
	}
	if ea != "" && ea == eb {
		if ma == "" && mb == "" && pa != pb {
			return ScoreZipPrefixMetro
		}
		return ScoreZipOrZipMetro
	}

	if pa != "" && pa == pb && zma == "" {
		return ScoreSameZipPrefix
	}

	if r.similarity != nil && ca != "" && cb != "" {
		sim := r.similarity(ca, cb)
		switch {
		case sim > strongSimilarity:
			return sim * 0.9
		case sim > weakSimilarity:
			return sim * 0.7
		}
	}

	return 0.0
}
