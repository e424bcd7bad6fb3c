package config

import (
	"errors"
	"fmt"
)

// Validate checks cross-field constraints that struct tags cannot express.
func (c *Config) Validate() error {
	var errs []error

	if c.Database.URL == "" {
		errs = append(errs, errors.New("database.url is required"))
	}
	if c.Database.MaxConnections <= 0 {
		errs = append(errs, errors.New("database.max_connections must be positive"))
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if c.Server.MaxBatchSize <= 0 {
		errs = append(errs, errors.New("server.max_batch_size must be positive"))
	}
	if err := c.Matching.Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.Matching.Concurrency > c.Database.MaxConnections {
		errs = append(errs, fmt.Errorf("matching.concurrency (%d) exceeds database.max_connections (%d)",
			c.Matching.Concurrency, c.Database.MaxConnections))
	}

	return errors.Join(errs...)
}

// Validate checks threshold ordering, weight signs and limits.
func (m MatchingConfig) Validate() error {
	var errs []error

	for name, v := range map[string]float64{
		"high_confidence":   m.HighConfidence,
		"medium_confidence": m.MediumConfidence,
		"low_cutoff":        m.LowCutoff,
		"separation_margin": m.SeparationMargin,
		"trigram_threshold": m.TrigramThreshold,
	} {
		if v < 0 || v > 1 {
			errs = append(errs, fmt.Errorf("matching.%s must be within [0,1], got %v", name, v))
		}
	}
	if !(m.LowCutoff <= m.MediumConfidence && m.MediumConfidence <= m.HighConfidence) {
		errs = append(errs, fmt.Errorf("matching thresholds must satisfy low (%v) <= medium (%v) <= high (%v)",
			m.LowCutoff, m.MediumConfidence, m.HighConfidence))
	}
	if m.NameWeight < 0 || m.GeoWeight < 0 || m.AgeWeight < 0 || m.GenderWeight < 0 {
		errs = append(errs, errors.New("matching weights must not be negative"))
	}
	if m.NameWeight == 0 {
		errs = append(errs, errors.New("matching.name_weight must be positive"))
	}
	if m.MaxCandidatesPerPerson <= 0 {
		errs = append(errs, errors.New("matching.max_candidates_per_person must be positive"))
	}
	if m.MaxRetrieved <= 0 || m.TierLimit <= 0 {
		errs = append(errs, errors.New("matching.max_retrieved and matching.tier_limit must be positive"))
	}
	if m.Concurrency <= 0 {
		errs = append(errs, errors.New("matching.concurrency must be positive"))
	}

	return errors.Join(errs...)
}
