package voterfile

import (
	"errors"
	"fmt"
	"io"

	"github.com/votermatch/internal/match"
	"github.com/votermatch/internal/turnout"
)

// Voter file columns, matched case- and punctuation-insensitively:
// voter_id, first_name, middle_name, last_name, date_of_birth, gender,
// residential_address, city, state, zip, party_affiliation,
// registration_date, voter_status, vote_history
var voterRequired = []string{"voterid", "lastname", "state"}

// ReadVoters maps a voter-file CSV to records
func ReadVoters(r io.Reader) ([]match.VoterRecord, []RowError, error) {
	var recs []match.VoterRecord
	rowErrs, err := readCSV(r, voterRequired, func(row row) error {
		rec, err := mapVoter(row)
		if err != nil {
			return err
		}
		recs = append(recs, rec)
		return nil
	})
	return recs, rowErrs, err
}

// ReadVotersFile reads a voter-file CSV from disk
func ReadVotersFile(path string) ([]match.VoterRecord, []RowError, error) {
	f, err := openFile(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()
	return ReadVoters(f)
}

func mapVoter(row row) (match.VoterRecord, error) {
	rec := match.VoterRecord{
		VoterID:            row.get("voterid"),
		FirstName:          row.get("firstname"),
		MiddleName:         row.get("middlename"),
		LastName:           row.get("lastname"),
		Gender:             row.get("gender"),
		ResidentialAddress: row.get("residentialaddress"),
		City:               row.get("city"),
		State:              row.get("state"),
		Zip:                row.get("zip"),
		PartyAffiliation:   row.get("partyaffiliation"),
		VoterStatus:        row.get("voterstatus"),
		VoteHistory:        turnout.ParseHistory(row.get("votehistory")),
	}
	if rec.VoterID == "" {
		return rec, errors.New("voter_id is empty")
	}
	if rec.LastName == "" {
		return rec, errors.New("last_name is empty")
	}
	if len(rec.State) != 2 {
		return rec, fmt.Errorf("state %q is not a two-letter code", rec.State)
	}

	var err error
	if rec.DateOfBirth, err = parseDate(row.get("dateofbirth")); err != nil {
		return rec, fmt.Errorf("date_of_birth: %w", err)
	}
	if rec.RegistrationDate, err = parseDate(row.get("registrationdate")); err != nil {
		return rec, fmt.Errorf("registration_date: %w", err)
	}
	return rec, nil
}
