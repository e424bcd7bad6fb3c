package turnout

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScoreAndSegment(t *testing.T) {
	tests := []struct {
		history     string
		wantScore   float64
		wantSegment Segment
	}{
		{"YYYYYY", 1.0, SuperVoter},
		{"YAEYAN", 5.0 / 6, SuperVoter},
		{"YANNNN", 2.0 / 6, SometimesVoter},
		{"ENNNNN", 1.0 / 6, RarelyVoter},
		{"NNNNNN", 0, RarelyVoter},
		{"      ", 0, RarelyVoter},
		{"Y", 1.0 / 6, RarelyVoter},
		{"yaeyae", 1.0, SuperVoter},
		{"XYZ?YY", 3.0 / 6, SometimesVoter},
	}

	for _, tt := range tests {
		t.Run(tt.history, func(t *testing.T) {
			score := Score(ParseHistory(tt.history))
			assert.InDelta(t, tt.wantScore, score, 1e-9)
			assert.Equal(t, tt.wantSegment, DetermineSegment(score))
		})
	}
}

func TestDetermineSegmentBoundaries(t *testing.T) {
	assert.Equal(t, SuperVoter, DetermineSegment(0.8))
	assert.Equal(t, SometimesVoter, DetermineSegment(0.7999))
	assert.Equal(t, SometimesVoter, DetermineSegment(0.3))
	assert.Equal(t, RarelyVoter, DetermineSegment(0.2999))
}

func TestHistoryString(t *testing.T) {
	assert.Equal(t, "YAE N ", ParseHistory("YAE N").String())
	assert.Equal(t, "      ", History{}.String())
}
