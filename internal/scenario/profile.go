// Package scenario generates synthetic observation windows for demo,
// testing and seeding. It is never a source of real measurements.
package scenario

import (
	"fmt"
	"math"

	"github.com/wonny/symptrack/internal/contracts"
)

// Profile is a named risk scenario
// ⭐ SSOT: 시나리오 목록은 이 enum 으로만 정의 (문자열 매칭 금지)
type Profile int

const (
	HighRisk Profile = iota + 1
	ModerateRisk
	LowRisk
)

// Profiles lists every known profile in display order
func Profiles() []Profile {
	return []Profile{HighRisk, ModerateRisk, LowRisk}
}

// String returns the profile key used on the wire
func (p Profile) String() string {
	switch p {
	case HighRisk:
		return "highRisk"
	case ModerateRisk:
		return "moderateRisk"
	case LowRisk:
		return "lowRisk"
	default:
		return fmt.Sprintf("Profile(%d)", int(p))
	}
}

// ParseProfile maps a wire key to a Profile
func ParseProfile(name string) (Profile, error) {
	for _, p := range Profiles() {
		if p.String() == name {
			return p, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", contracts.ErrInvalidScenario, name)
}

// RiskLevel is the baseline risk of a scenario
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskModerate RiskLevel = "moderate"
	RiskHigh     RiskLevel = "high"
)

// ParseRiskLevel validates a risk level string
func ParseRiskLevel(s string) (RiskLevel, error) {
	switch RiskLevel(s) {
	case RiskLow, RiskModerate, RiskHigh:
		return RiskLevel(s), nil
	}
	return "", fmt.Errorf("%w: risk level %q", contracts.ErrInvalidParameter, s)
}

// Band is an intensity range on the 0~10 scale
type Band struct {
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

// Width returns Max - Min
func (b Band) Width() float64 {
	return b.Max - b.Min
}

// riskBands are the intensity bands per baseline risk
var riskBands = map[RiskLevel]Band{
	RiskLow:      {Min: 0, Max: 4},
	RiskModerate: {Min: 3, Max: 7},
	RiskHigh:     {Min: 6, Max: 10},
}

// BandFor returns the intensity band of a risk level
func BandFor(level RiskLevel) (Band, bool) {
	b, ok := riskBands[level]
	return b, ok
}

// Spec carries a profile's generation parameters as data.
// Name and Description belong to the profile, not to individual entries.
type Spec struct {
	Profile      Profile   `json:"-" yaml:"-"`
	Name         string    `json:"name" yaml:"name"`
	Description  string    `json:"description" yaml:"description"`
	RiskLevel    RiskLevel `json:"risk_level" yaml:"risk_level"`
	Intensity    Band      `json:"intensity" yaml:"intensity"`
	IncludeNotes bool      `json:"include_notes" yaml:"include_notes"`
}

// Table maps each profile to its generation parameters
type Table map[Profile]Spec

// DefaultTable returns the built-in May 2024 demo scenarios
func DefaultTable() Table {
	return Table{
		HighRisk: {
			Profile:      HighRisk,
			Name:         "High Risk Pattern",
			Description:  "Persistent severe symptoms across most of the period",
			RiskLevel:    RiskHigh,
			Intensity:    Band{Min: 6, Max: 10},
			IncludeNotes: true,
		},
		ModerateRisk: {
			Profile:      ModerateRisk,
			Name:         "Moderate Risk Pattern",
			Description:  "Intermittent symptoms with mid-range intensity",
			RiskLevel:    RiskModerate,
			Intensity:    Band{Min: 3, Max: 7},
			IncludeNotes: true,
		},
		LowRisk: {
			Profile:      LowRisk,
			Name:         "Low Risk Pattern",
			Description:  "Mild, infrequent symptoms",
			RiskLevel:    RiskLow,
			Intensity:    Band{Min: 0, Max: 4},
			IncludeNotes: false,
		},
	}
}

// CustomParams are the parameters of a custom scenario
type CustomParams struct {
	RiskLevel        RiskLevel `json:"risk_level"`
	SymptomIntensity float64   `json:"symptom_intensity"` // 0~1
	IncludeNotes     bool      `json:"include_notes"`
}

// Validate checks the parameter ranges
func (p CustomParams) Validate() error {
	if _, ok := riskBands[p.RiskLevel]; !ok {
		return fmt.Errorf("%w: risk level %q", contracts.ErrInvalidParameter, p.RiskLevel)
	}
	if p.SymptomIntensity < 0 || p.SymptomIntensity > 1 || math.IsNaN(p.SymptomIntensity) {
		return fmt.Errorf("%w: symptom intensity %v outside [0,1]", contracts.ErrInvalidParameter, p.SymptomIntensity)
	}
	return nil
}

// DefaultCustom is the "Custom 20d" preset
var DefaultCustom = CustomParams{
	RiskLevel:        RiskModerate,
	SymptomIntensity: 0.6,
	IncludeNotes:     true,
}
