package voterfile

import (
	"io"
	"strings"

	"github.com/google/uuid"

	"github.com/votermatch/internal/match"
	"github.com/votermatch/internal/normalize"
)

// Person-entry columns: id, first_name, last_name, city, zip, age,
// age_range, gender, phone, address, category. Rows without an id get one
// derived from their contents, so re-reading the same file yields the same
// ids and earlier decisions still apply.
var peopleRequired = []string{"firstname", "lastname"}

// personNamespace scopes derived person-entry ids
var personNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("urn:votermatch:person-entry"))

// ReadPeople maps a person-entry CSV to entries. Name validation is left to
// the engine, which reports bad entries per entry.
func ReadPeople(r io.Reader) ([]match.PersonEntry, []RowError, error) {
	var people []match.PersonEntry
	rowErrs, err := readCSV(r, peopleRequired, func(row row) error {
		age, err := parseAge(row.get("age"))
		if err != nil {
			return err
		}
		p := match.PersonEntry{
			ID:        row.get("id"),
			FirstName: row.get("firstname"),
			LastName:  row.get("lastname"),
			City:      row.get("city"),
			Zip:       row.get("zip"),
			Age:       age,
			AgeRange:  row.get("agerange"),
			Gender:    row.get("gender"),
			Phone:     row.get("phone"),
			Address:   row.get("address"),
			Category:  row.get("category"),
		}
		if p.ID == "" {
			p.ID = derivedID(p)
		}
		people = append(people, p)
		return nil
	})
	return people, rowErrs, err
}

// ReadPeopleFile reads a person-entry CSV from disk
func ReadPeopleFile(path string) ([]match.PersonEntry, []RowError, error) {
	f, err := openFile(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()
	return ReadPeople(f)
}

// derivedID is a name-based UUID over the entry's normalized fields
func derivedID(p match.PersonEntry) string {
	key := strings.Join([]string{
		p.Fingerprint(),
		strings.Join(strings.Fields(strings.ToLower(p.Phone)), ""),
		normalize.NormalizeCity(p.Address),
	}, "\x1f")
	return uuid.NewSHA1(personNamespace, []byte(key)).String()
}
