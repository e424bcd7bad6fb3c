package match

import (
	"sort"

	"github.com/votermatch/internal/debug"
)

// marginEpsilon absorbs float error when the gap equals the margin exactly
const marginEpsilon = 1e-9

// Scorer combines sub-scores and classifies the ranked candidates
type Scorer struct {
	weights *Weights
	tiers   *Tiers
}

// NewScorer creates a scorer with default weights and tiers
func NewScorer() *Scorer {
	return NewScorerWithConfig(DefaultWeights(), DefaultTiers())
}

// NewScorerWithConfig creates a scorer with custom configuration
func NewScorerWithConfig(weights *Weights, tiers *Tiers) *Scorer {
	return &Scorer{weights: weights, tiers: tiers}
}

// scored is a candidate still attached to its reference record, so ties
// can be broken on fields that never leave the engine.
type scored struct {
	Candidate
	voter VoterRecord
}

// ScoreCandidate is the weighted mean of the present sub-scores, with the
// weights of absent ones redistributed, clamped to [0,1].
func (s *Scorer) ScoreCandidate(b SubScores) float64 {
	var sum, total float64
	add := func(v *float64, w float64) {
		if v == nil || w <= 0 {
			return
		}
		sum += *v * w
		total += w
	}
	add(b.Name, s.weights.Name)
	add(b.Geo, s.weights.Geo)
	add(b.Age, s.weights.Age)
	add(b.Gender, s.weights.Gender)

	if total == 0 {
		return 0
	}
	return clamp(sum / total)
}

// Classify ranks the candidates and decides the outcome. The returned
// candidates are those above the low cutoff, best first, capped at
// MaxCandidates.
func (s *Scorer) Classify(localDebug bool, cands []scored) (Outcome, []Candidate) {
	debug.DebugHeader(localDebug)
	defer debug.DebugFooter(localDebug)

	sortScored(cands)

	var kept []Candidate
	for _, c := range cands {
		if c.Score < s.tiers.Low {
			break
		}
		if len(kept) == s.tiers.MaxCandidates {
			break
		}
		kept = append(kept, c.Candidate)
	}

	if len(kept) == 0 {
		debug.DebugOutput(localDebug, "Decision: unmatched (%d below cutoff)", len(cands))
		return Unmatched{}, nil
	}

	top := cands[0]
	margin := 1.0
	if len(cands) > 1 {
		margin = top.Score - cands[1].Score
	}

	debug.DebugOutput(localDebug, "Top score %.4f, margin %.4f", top.Score, margin)

	switch {
	case top.Score >= s.tiers.High && margin+marginEpsilon >= s.tiers.Margin:
		debug.DebugOutput(localDebug, "Decision: confirmed")
		return Confirmed{Record: top.Record}, kept
	case top.Score >= s.tiers.Medium:
		debug.DebugOutput(localDebug, "Decision: ambiguous")
		return Ambiguous{}, kept
	default:
		debug.DebugOutput(localDebug, "Decision: ambiguous, low confidence")
		return Ambiguous{LowConfidence: true}, kept
	}
}

// Explain breaks a candidate's score into weighted contributions
func (s *Scorer) Explain(c Candidate) map[string]float64 {
	explanation := map[string]float64{"score": c.Score}

	var total float64
	for _, part := range []struct {
		key string
		v   *float64
		w   float64
	}{
		{"name", c.Breakdown.Name, s.weights.Name},
		{"geo", c.Breakdown.Geo, s.weights.Geo},
		{"age", c.Breakdown.Age, s.weights.Age},
		{"gender", c.Breakdown.Gender, s.weights.Gender},
	} {
		if part.v != nil && part.w > 0 {
			total += part.w
			explanation[part.key+"_weight"] = part.w
			explanation[part.key+"_similarity"] = *part.v
		}
	}
	if total == 0 {
		return explanation
	}
	for _, key := range []string{"name", "geo", "age", "gender"} {
		if w, ok := explanation[key+"_weight"]; ok {
			explanation[key+"_contribution"] = w / total * explanation[key+"_similarity"]
		}
	}
	return explanation
}

// sortScored orders by score, geography, name, then stable record fields
// and finally voter id, so equal inputs always produce the same order.
func sortScored(cands []scored) {
	sort.SliceStable(cands, func(i, j int) bool {
		a, b := cands[i], cands[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if ga, gb := value(a.Breakdown.Geo), value(b.Breakdown.Geo); ga != gb {
			return ga > gb
		}
		if na, nb := value(a.Breakdown.Name), value(b.Breakdown.Name); na != nb {
			return na > nb
		}
		if a.voter.LastName != b.voter.LastName {
			return a.voter.LastName < b.voter.LastName
		}
		if a.voter.FirstName != b.voter.FirstName {
			return a.voter.FirstName < b.voter.FirstName
		}
		if ya, yb := a.voter.BirthYear(), b.voter.BirthYear(); ya != yb {
			return ya < yb
		}
		if a.voter.Zip != b.voter.Zip {
			return a.voter.Zip < b.voter.Zip
		}
		if a.voter.ResidentialAddress != b.voter.ResidentialAddress {
			return a.voter.ResidentialAddress < b.voter.ResidentialAddress
		}
		return a.voter.VoterID < b.voter.VoterID
	})
}

// value treats an absent sub-score as -1 so it sorts after any present one
func value(v *float64) float64 {
	if v == nil {
		return -1
	}
	return *v
}

func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
