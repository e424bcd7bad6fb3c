// Package turnout turns a voter's historical participation flags into a
// turnout score and a coarse segment label.
package turnout

import "strings"

// Elections is the number of historical elections carried on a voter record.
const Elections = 6

// Flag is one election's participation code.
type Flag byte

const (
	InPerson Flag = 'Y'
	Absentee Flag = 'A'
	Early    Flag = 'E'
	NoVote   Flag = 'N'
	Unknown  Flag = ' '
)

// Voted reports whether the flag records a cast ballot.
func (f Flag) Voted() bool {
	return f == InPerson || f == Absentee || f == Early
}

// ParseFlag maps a single code to a Flag; unrecognized codes are Unknown.
func ParseFlag(s string) Flag {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return Unknown
	}
	switch f := Flag(s[0]); f {
	case InPerson, Absentee, Early, NoVote:
		return f
	default:
		return Unknown
	}
}

// History holds the six participation flags, oldest election first.
type History [Elections]Flag

// ParseHistory reads the fixed six-character column format, one code per
// position. Short input is padded with Unknown.
func ParseHistory(s string) History {
	var h History
	for i := range h {
		h[i] = Unknown
		if i < len(s) {
			h[i] = ParseFlag(s[i : i+1])
		}
	}
	return h
}

// String renders the history in the column format ParseHistory reads.
func (h History) String() string {
	b := make([]byte, Elections)
	for i, f := range h {
		if f == 0 {
			f = Unknown
		}
		b[i] = byte(f)
	}
	return string(b)
}

// Segment is a coarse turnout-propensity label.
type Segment string

const (
	SuperVoter     Segment = "superVoter"
	SometimesVoter Segment = "sometimesVoter"
	RarelyVoter    Segment = "rarelyVoter"
)

const (
	superVoterMin     = 0.8
	sometimesVoterMin = 0.3
)

// Score is the share of the six elections in which a ballot was cast.
func Score(h History) float64 {
	voted := 0
	for _, f := range h {
		if f.Voted() {
			voted++
		}
	}
	return float64(voted) / Elections
}

// DetermineSegment buckets a vote score.
func DetermineSegment(score float64) Segment {
	switch {
	case score >= superVoterMin:
		return SuperVoter
	case score >= sometimesVoterMin:
		return SometimesVoter
	default:
		return RarelyVoter
	}
}

// MarshalText encodes the history as its six-character column form.
func (h History) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

// UnmarshalText decodes the six-character column form.
func (h *History) UnmarshalText(text []byte) error {
	*h = ParseHistory(string(text))
	return nil
}
