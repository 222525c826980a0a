package scenario

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// fileTable is the on-disk layout of a profile table
//
//	profiles:
//	  highRisk:
//	    name: High Risk Pattern
//	    risk_level: high
//	    intensity: {min: 6, max: 10}
type fileTable struct {
	Profiles map[string]Spec `yaml:"profiles"`
}

// LoadTable reads a YAML profile table from path and merges it over the
// default table. Unknown fields and unknown profile keys fail.
func LoadTable(path string) (Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario file: %w", err)
	}
	return ParseTable(data)
}

// ParseTable decodes and validates a YAML profile table
func ParseTable(data []byte) (Table, error) {
	var ft fileTable
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true) // 알 수 없는 필드 발견 시 에러 반환
	if err := dec.Decode(&ft); err != nil {
		return nil, fmt.Errorf("decode scenario file: %w", err)
	}

	table := DefaultTable()
	for key, spec := range ft.Profiles {
		p, err := ParseProfile(key)
		if err != nil {
			return nil, err
		}
		spec.Profile = p
		if err := validateSpec(spec); err != nil {
			return nil, fmt.Errorf("profile %s: %w", key, err)
		}
		table[p] = spec
	}
	return table, nil
}

func validateSpec(s Spec) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if _, err := ParseRiskLevel(string(s.RiskLevel)); err != nil {
		return err
	}
	if s.Intensity.Min < 0 || s.Intensity.Max > 10 || s.Intensity.Min > s.Intensity.Max {
		return fmt.Errorf("intensity band [%v, %v] must satisfy 0 <= min <= max <= 10", s.Intensity.Min, s.Intensity.Max)
	}
	return nil
}
