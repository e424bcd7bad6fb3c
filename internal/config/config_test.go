package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFileDefaults(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"), false)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.True(t, cfg.Server.ManualOverride)
	assert.Equal(t, 0.90, cfg.Matching.HighConfidence)
	assert.Equal(t, 0.05, cfg.Matching.SeparationMargin)
	assert.Equal(t, 3, cfg.Matching.MaxCandidatesPerPerson)
	assert.Equal(t, 0.50, cfg.Matching.NameWeight)
	assert.Equal(t, 50, cfg.Matching.MaxRetrieved)
}

func TestLoadFileRequiredMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"), true)
	assert.Error(t, err)
}

func TestLoadFileYAMLAndEnv(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
matching:
  high_confidence: 0.92
  tier_limit: 10
`)
	t.Setenv("MATCH_TIER_LIMIT", "20")

	cfg, err := LoadFile(path, true)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 0.92, cfg.Matching.HighConfidence)
	assert.Equal(t, 20, cfg.Matching.TierLimit, "environment wins over the file")
	assert.Equal(t, 0.70, cfg.Matching.MediumConfidence, "unset keys keep their defaults")
}

func TestLoadFileRejectsInvalid(t *testing.T) {
	path := writeConfig(t, `
matching:
  high_confidence: 0.60
  medium_confidence: 0.70
`)

	_, err := LoadFile(path, true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "low")
}

func TestLoadUsesConfigPath(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 7070\n")
	t.Setenv("CONFIG_PATH", path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
}

func TestMatchingValidate(t *testing.T) {
	valid := MatchingConfig{
		HighConfidence: 0.9, MediumConfidence: 0.7, LowCutoff: 0.55, SeparationMargin: 0.05,
		MaxCandidatesPerPerson: 3, NameWeight: 0.5, GeoWeight: 0.25, AgeWeight: 0.15, GenderWeight: 0.1,
		MaxRetrieved: 50, TierLimit: 25, TrigramThreshold: 0.35, Concurrency: 4,
	}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*MatchingConfig)
	}{
		{"threshold above one", func(m *MatchingConfig) { m.HighConfidence = 1.2 }},
		{"medium above high", func(m *MatchingConfig) { m.MediumConfidence = 0.95 }},
		{"negative weight", func(m *MatchingConfig) { m.GeoWeight = -0.1 }},
		{"no name weight", func(m *MatchingConfig) { m.NameWeight = 0 }},
		{"no candidates", func(m *MatchingConfig) { m.MaxCandidatesPerPerson = 0 }},
		{"no concurrency", func(m *MatchingConfig) { m.Concurrency = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := valid
			tt.mutate(&m)
			assert.Error(t, m.Validate())
		})
	}
}
