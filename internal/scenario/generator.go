package scenario

import (
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/wonny/symptrack/internal/contracts"
	"github.com/wonny/symptrack/internal/window"
)

// Symptoms is the fixed metric set recorded per day
var Symptoms = []string{
	"fatigue",
	"headache",
	"nausea",
	"bloating",
	"mood_swings",
	"joint_pain",
	"sleep_quality",
}

// MetricRiskScore is the derived per-day mean intensity
const MetricRiskScore = "risk_score"

// customBias is the weight of SymptomIntensity in each draw (rest is random)
const customBias = 0.5

// DefaultStart is the first day of the demo month
var DefaultStart = time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

var notePhrases = map[RiskLevel][]string{
	RiskHigh: {
		"Woke up exhausted, symptoms worse than yesterday",
		"Severe headache most of the afternoon",
		"Had to skip work, could barely get out of bed",
		"Joint pain kept me up at night",
		"Nausea after every meal",
	},
	RiskModerate: {
		"Some discomfort in the morning, eased by evening",
		"Mild headache, took a short walk",
		"Felt bloated after lunch",
		"Mood up and down today",
		"Slept poorly but managed the day",
	},
	RiskLow: {
		"Feeling good overall",
		"Slight tiredness, nothing unusual",
		"Normal day",
		"Energy levels fine",
		"No notable symptoms",
	},
}

// Generator produces synthetic entries from an injected random source
// ⭐ SSOT: 더미 데이터 생성은 이 구조체에서만
type Generator struct {
	mu           sync.Mutex
	rng          *rand.Rand
	table        Table
	defaultStart time.Time
}

// NewGenerator creates a generator; seed 0 seeds from the clock
func NewGenerator(seed int64) *Generator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return NewGeneratorWithRand(rand.New(rand.NewSource(seed)))
}

// NewGeneratorWithRand creates a generator around rng
func NewGeneratorWithRand(rng *rand.Rand) *Generator {
	return &Generator{
		rng:          rng,
		table:        DefaultTable(),
		defaultStart: DefaultStart,
	}
}

// WithTable replaces the profile table
func (g *Generator) WithTable(t Table) *Generator {
	g.table = t
	return g
}

// WithDefaultStart sets the start date used when callers pass a zero date
func (g *Generator) WithDefaultStart(start time.Time) *Generator {
	g.defaultStart = window.Day(start)
	return g
}

// Spec returns the generation parameters of p
func (g *Generator) Spec(p Profile) (Spec, error) {
	spec, ok := g.table[p]
	if !ok {
		return Spec{}, fmt.Errorf("%w: %s", contracts.ErrInvalidScenario, p)
	}
	return spec, nil
}

// Catalogue returns the specs of every profile in display order
func (g *Generator) Catalogue() []Spec {
	specs := make([]Spec, 0, len(g.table))
	for _, p := range Profiles() {
		if spec, ok := g.table[p]; ok {
			specs = append(specs, spec)
		}
	}
	return specs
}

// Generate returns exactly window.TotalDays contiguous entries for p
func (g *Generator) Generate(p Profile, start time.Time) ([]contracts.Entry, error) {
	spec, err := g.Spec(p)
	if err != nil {
		return nil, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	dates := window.Dates(g.startOrDefault(start))
	entries := make([]contracts.Entry, len(dates))
	for i, d := range dates {
		entries[i] = g.entry(d, spec.RiskLevel, spec.IncludeNotes, func() float64 {
			return spec.Intensity.Min + spec.Intensity.Width()*g.rng.Float64()
		})
	}
	return entries, nil
}

// GenerateByName resolves name and calls Generate
func (g *Generator) GenerateByName(name string, start time.Time) ([]contracts.Entry, error) {
	p, err := ParseProfile(name)
	if err != nil {
		return nil, err
	}
	return g.Generate(p, start)
}

// GenerateCustom returns exactly window.TotalDays entries for params.
// SymptomIntensity linearly biases every draw inside the risk level's band.
func (g *Generator) GenerateCustom(params CustomParams, start time.Time) ([]contracts.Entry, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	band := riskBands[params.RiskLevel]

	g.mu.Lock()
	defer g.mu.Unlock()

	dates := window.Dates(g.startOrDefault(start))
	entries := make([]contracts.Entry, len(dates))
	for i, d := range dates {
		entries[i] = g.entry(d, params.RiskLevel, params.IncludeNotes, func() float64 {
			draw := customBias*params.SymptomIntensity + (1-customBias)*g.rng.Float64()
			return band.Min + band.Width()*draw
		})
	}
	return entries, nil
}

// GenerateRandomDays returns up to n entries on dates of the window starting
// at start that are not in exclude, ordered by date. When fewer than n free
// dates remain the result is shorter.
func (g *Generator) GenerateRandomDays(start time.Time, n int, exclude map[string]bool) ([]contracts.Entry, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: day count %d", contracts.ErrInvalidParameter, n)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	free := make([]time.Time, 0, window.TotalDays)
	for _, d := range window.Dates(g.startOrDefault(start)) {
		if !exclude[window.DateKey(d)] {
			free = append(free, d)
		}
	}

	g.rng.Shuffle(len(free), func(i, j int) { free[i], free[j] = free[j], free[i] })
	if n < len(free) {
		free = free[:n]
	}

	band := riskBands[RiskModerate]
	entries := make([]contracts.Entry, len(free))
	for i, d := range free {
		entries[i] = g.entry(d, RiskModerate, false, func() float64 {
			return band.Min + band.Width()*g.rng.Float64()
		})
	}
	window.SortEntries(entries)
	return entries, nil
}

func (g *Generator) startOrDefault(start time.Time) time.Time {
	if start.IsZero() {
		return g.defaultStart
	}
	return window.Day(start)
}

// entry draws one day's metrics; callers hold g.mu
func (g *Generator) entry(d time.Time, level RiskLevel, withNote bool, draw func() float64) contracts.Entry {
	metrics := make(map[string]float64, len(Symptoms)+1)
	sum := 0.0
	for _, s := range Symptoms {
		v := round1(clamp(draw(), 0, 10))
		if s == "sleep_quality" {
			// higher is better; store the inverse of the drawn burden
			metrics[s] = round1(10 - v)
		} else {
			metrics[s] = v
		}
		sum += v
	}
	metrics[MetricRiskScore] = round1(sum / float64(len(Symptoms)))

	e := contracts.Entry{Date: d, Metrics: metrics}
	if withNote {
		phrases := notePhrases[level]
		e.Note = phrases[g.rng.Intn(len(phrases))]
	}
	return e
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
