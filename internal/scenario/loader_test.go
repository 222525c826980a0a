package scenario

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/symptrack/internal/contracts"
)

func TestParseTable(t *testing.T) {
	data := []byte(`
profiles:
  lowRisk:
    name: Calm Month
    description: Almost symptom free
    risk_level: low
    intensity: {min: 0, max: 2}
    include_notes: true
`)

	table, err := ParseTable(data)
	require.NoError(t, err)

	low := table[LowRisk]
	assert.Equal(t, "Calm Month", low.Name)
	assert.Equal(t, Band{Min: 0, Max: 2}, low.Intensity)
	assert.True(t, low.IncludeNotes)
	assert.Equal(t, LowRisk, low.Profile)

	// untouched profiles keep their defaults
	assert.Equal(t, DefaultTable()[HighRisk], table[HighRisk])
}

func TestParseTable_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown field", "profiles:\n  lowRisk:\n    name: x\n    risk_level: low\n    colour: red\n"},
		{"unknown profile", "profiles:\n  panicRisk:\n    name: x\n    risk_level: low\n"},
		{"bad band", "profiles:\n  highRisk:\n    name: x\n    risk_level: high\n    intensity: {min: 8, max: 4}\n"},
		{"bad risk", "profiles:\n  highRisk:\n    name: x\n    risk_level: extreme\n"},
		{"missing name", "profiles:\n  highRisk:\n    risk_level: high\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTable([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}

	_, err := ParseTable([]byte("profiles:\n  panicRisk:\n    name: x\n    risk_level: low\n"))
	assert.ErrorIs(t, err, contracts.ErrInvalidScenario)
}

func TestLoadTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenarios.yaml")
	require.NoError(t, os.WriteFile(path, []byte("profiles:\n  highRisk:\n    name: Flare\n    risk_level: high\n    intensity: {min: 7, max: 10}\n"), 0o600))

	table, err := LoadTable(path)
	require.NoError(t, err)
	assert.Equal(t, "Flare", table[HighRisk].Name)

	g := NewGenerator(1).WithTable(table)
	entries, err := g.Generate(HighRisk, DefaultStart)
	require.NoError(t, err)
	assert.Len(t, entries, 20)

	_, err = LoadTable(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
