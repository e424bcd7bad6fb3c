package match

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/votermatch/internal/turnout"
)

type resultJSON struct {
	PersonEntryID string           `json:"personEntryId"`
	Status        Status           `json:"status"`
	LowConfidence bool             `json:"lowConfidence,omitempty"`
	BestMatch     *SafeRecord      `json:"bestMatch,omitempty"`
	Candidates    []Candidate      `json:"candidates"`
	VoteScore     *float64         `json:"voteScore,omitempty"`
	Segment       *turnout.Segment `json:"segment,omitempty"`
	UserConfirmed bool             `json:"userConfirmed"`
	UserRejected  bool             `json:"userRejected"`
	UpdatedAt     time.Time        `json:"updatedAt"`
}

// MarshalJSON flattens the outcome into status/bestMatch and adds the
// derived vote score and segment.
func (r MatchResult) MarshalJSON() ([]byte, error) {
	out := resultJSON{
		PersonEntryID: r.PersonEntryID,
		Status:        r.Status(),
		LowConfidence: r.LowConfidence(),
		Candidates:    r.Candidates,
		UserConfirmed: r.UserConfirmed,
		UserRejected:  r.UserRejected,
		UpdatedAt:     r.UpdatedAt,
	}
	if out.Candidates == nil {
		out.Candidates = []Candidate{}
	}
	if best, ok := r.BestMatch(); ok {
		out.BestMatch = &best
		score, _ := r.VoteScore()
		segment, _ := r.Segment()
		out.VoteScore = &score
		out.Segment = &segment
	}
	return json.Marshal(out)
}

// UnmarshalJSON rebuilds the outcome from status/bestMatch. Derived fields
// in the input are ignored.
func (r *MatchResult) UnmarshalJSON(data []byte) error {
	var in resultJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	outcome, err := OutcomeFrom(in.Status, in.BestMatch, in.LowConfidence)
	if err != nil {
		return err
	}
	*r = MatchResult{
		PersonEntryID: in.PersonEntryID,
		Outcome:       outcome,
		Candidates:    in.Candidates,
		UserConfirmed: in.UserConfirmed,
		UserRejected:  in.UserRejected,
		UpdatedAt:     in.UpdatedAt,
	}
	return nil
}

// OutcomeFrom is the inverse of flattening an Outcome. Stores use it to
// rebuild results from their columns.
func OutcomeFrom(status Status, best *SafeRecord, lowConfidence bool) (Outcome, error) {
	switch status {
	case StatusPending, "":
		return Pending{}, nil
	case StatusConfirmed:
		if best == nil {
			return nil, fmt.Errorf("confirmed result without best match")
		}
		return Confirmed{Record: *best}, nil
	case StatusAmbiguous:
		return Ambiguous{LowConfidence: lowConfidence}, nil
	case StatusUnmatched:
		return Unmatched{}, nil
	default:
		return nil, fmt.Errorf("unknown match status %q", status)
	}
}
