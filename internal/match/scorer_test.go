package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f(v float64) *float64 { return &v }

func mkScored(id string, score float64, geo, name float64) scored {
	return scored{
		Candidate: Candidate{
			Record:    SafeRecord{FirstName: "Robert", LastName: "Smith", ResidentialAddress: id},
			Score:     score,
			Breakdown: SubScores{Geo: f(geo), Name: f(name)},
		},
		voter: VoterRecord{VoterID: id, FirstName: "Robert", LastName: "Smith", ResidentialAddress: id},
	}
}

func TestScoreCandidate(t *testing.T) {
	s := NewScorer()

	tests := []struct {
		name      string
		breakdown SubScores
		expected  float64
	}{
		{"all perfect", SubScores{Name: f(1), Geo: f(1), Age: f(1), Gender: f(1)}, 1.0},
		{"name only is renormalized", SubScores{Name: f(0.8)}, 0.8},
		{"gender mismatch", SubScores{Name: f(1), Gender: f(0)}, 0.5 / 0.6},
		{"nothing comparable", SubScores{}, 0},
		{"weighted", SubScores{Name: f(1), Geo: f(0.95), Age: f(1)}, (0.5 + 0.25*0.95 + 0.15) / 0.9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, s.ScoreCandidate(tt.breakdown), 1e-9)
		})
	}
}

func TestScoreCandidateClamped(t *testing.T) {
	s := NewScorerWithConfig(&Weights{Name: 1}, DefaultTiers())
	assert.Equal(t, 1.0, s.ScoreCandidate(SubScores{Name: f(1.3)}))
	assert.Equal(t, 0.0, s.ScoreCandidate(SubScores{Name: f(-0.2)}))
}

func TestClassify(t *testing.T) {
	s := NewScorer()

	tests := []struct {
		name          string
		scores        []float64
		expected      Status
		lowConfidence bool
		kept          int
	}{
		{"no candidates", nil, StatusUnmatched, false, 0},
		{"below cutoff", []float64{0.54, 0.30}, StatusUnmatched, false, 0},
		{"single strong", []float64{0.95}, StatusConfirmed, false, 1},
		{"margin exactly at boundary", []float64{0.95, 0.90}, StatusConfirmed, false, 2},
		{"margin just below boundary", []float64{0.95, 0.91}, StatusAmbiguous, false, 2},
		{"medium", []float64{0.75, 0.40}, StatusAmbiguous, false, 1},
		{"low confidence", []float64{0.60}, StatusAmbiguous, true, 1},
		{"capped at three", []float64{0.80, 0.79, 0.78, 0.77, 0.76}, StatusAmbiguous, false, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cands []scored
			for i, sc := range tt.scores {
				cands = append(cands, mkScored(string(rune('a'+i)), sc, 0.5, 0.5))
			}

			outcome, kept := s.Classify(false, cands)
			assert.Equal(t, tt.expected, outcome.Status())
			assert.Len(t, kept, tt.kept)
			if a, ok := outcome.(Ambiguous); ok {
				assert.Equal(t, tt.lowConfidence, a.LowConfidence)
			}
			for _, c := range kept {
				assert.GreaterOrEqual(t, c.Score, s.tiers.Low)
			}
		})
	}
}

func TestClassifyConfirmedCarriesTopRecord(t *testing.T) {
	s := NewScorer()
	cands := []scored{mkScored("second", 0.70, 1, 1), mkScored("first", 0.97, 1, 1)}

	outcome, kept := s.Classify(false, cands)
	require.IsType(t, Confirmed{}, outcome)
	assert.Equal(t, "first", outcome.(Confirmed).Record.ResidentialAddress)
	assert.Equal(t, "first", kept[0].Record.ResidentialAddress)
}

func TestSortScoredTieBreak(t *testing.T) {
	cands := []scored{
		mkScored("c", 0.8, 0.5, 0.9),
		mkScored("b", 0.8, 0.9, 0.5),
		mkScored("e", 0.8, 0.5, 0.5),
		mkScored("d", 0.8, 0.5, 0.5),
		mkScored("a", 0.9, 0.1, 0.1),
	}

	sortScored(cands)

	var order []string
	for _, c := range cands {
		order = append(order, c.voter.VoterID)
	}
	// score, then geography, then name, then stable fields
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, order)
}

func TestSortScoredAbsentGeoLast(t *testing.T) {
	withGeo := mkScored("geo", 0.8, 0.0, 0.5)
	noGeo := mkScored("none", 0.8, 0.0, 0.5)
	noGeo.Breakdown.Geo = nil

	cands := []scored{noGeo, withGeo}
	sortScored(cands)
	assert.Equal(t, "geo", cands[0].voter.VoterID)
}

func TestExplain(t *testing.T) {
	s := NewScorer()
	c := Candidate{Score: 0.9, Breakdown: SubScores{Name: f(1), Gender: f(0)}}

	explanation := s.Explain(c)
	assert.InDelta(t, 0.5/0.6, explanation["name_contribution"], 1e-9)
	assert.InDelta(t, 0.0, explanation["gender_contribution"], 1e-9)
	assert.NotContains(t, explanation, "geo_contribution")
}
