package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/symptrack/internal/contracts"
	"github.com/wonny/symptrack/internal/scenario"
	"github.com/wonny/symptrack/internal/window"
)

// scenarioCmd represents the scenario command
var scenarioCmd = &cobra.Command{
	Use:   "scenario [highRisk|moderateRisk|lowRisk|custom]",
	Short: "시나리오 데이터 생성 및 출력",
	Long: `20일 시나리오 데이터를 생성해 표로 출력합니다.
인자가 없으면 시나리오 목록을 출력합니다.

Example:
  go run ./cmd/symptrack scenario
  go run ./cmd/symptrack scenario highRisk --start 2024-05-01 --seed 7
  go run ./cmd/symptrack scenario custom --risk high --intensity 0.8`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScenario,
}

var (
	scenarioStart     string
	scenarioSeed      int64
	scenarioFile      string
	scenarioRisk      string
	scenarioIntensity float64
	scenarioNotes     bool
)

func init() {
	rootCmd.AddCommand(scenarioCmd)

	scenarioCmd.Flags().StringVar(&scenarioStart, "start", "", "시작일 YYYY-MM-DD (default 2024-05-01)")
	scenarioCmd.Flags().Int64Var(&scenarioSeed, "seed", 0, "난수 시드 (0 = 시각 기반)")
	scenarioCmd.Flags().StringVar(&scenarioFile, "profiles", "", "YAML 프로필 테이블 파일")
	scenarioCmd.Flags().StringVar(&scenarioRisk, "risk", string(scenario.DefaultCustom.RiskLevel), "custom: 위험도 (low|moderate|high)")
	scenarioCmd.Flags().Float64Var(&scenarioIntensity, "intensity", scenario.DefaultCustom.SymptomIntensity, "custom: 증상 강도 (0~1)")
	scenarioCmd.Flags().BoolVar(&scenarioNotes, "notes", scenario.DefaultCustom.IncludeNotes, "custom: 메모 포함")
}

func runScenario(cmd *cobra.Command, args []string) error {
	gen := scenario.NewGenerator(scenarioSeed)
	if scenarioFile != "" {
		table, err := scenario.LoadTable(scenarioFile)
		if err != nil {
			return err
		}
		gen = gen.WithTable(table)
	}

	if len(args) == 0 {
		printCatalogue(gen)
		return nil
	}

	var start time.Time
	if scenarioStart != "" {
		d, err := window.ParseDate(scenarioStart)
		if err != nil {
			return fmt.Errorf("invalid --start: %w", err)
		}
		start = d
	}

	var (
		entries []contracts.Entry
		err     error
		title   string
	)
	if args[0] == "custom" {
		level, perr := scenario.ParseRiskLevel(scenarioRisk)
		if perr != nil {
			return perr
		}
		params := scenario.CustomParams{
			RiskLevel:        level,
			SymptomIntensity: scenarioIntensity,
			IncludeNotes:     scenarioNotes,
		}
		entries, err = gen.GenerateCustom(params, start)
		title = fmt.Sprintf("Custom 20d (%s, %.2f)", level, scenarioIntensity)
	} else {
		entries, err = gen.GenerateByName(args[0], start)
		title = args[0]
	}
	if err != nil {
		return err
	}

	printEntries(title, entries)
	return nil
}

func printCatalogue(gen *scenario.Generator) {
	PrintHeader("Scenarios")

	widths := []int{14, 28, 10, 10, 6}
	PrintTableHeader([]string{"KEY", "NAME", "RISK", "BAND", "NOTES"}, widths)
	for _, s := range gen.Catalogue() {
		PrintTableRow([]string{
			s.Profile.String(),
			s.Name,
			string(s.RiskLevel),
			fmt.Sprintf("%.0f-%.0f", s.Intensity.Min, s.Intensity.Max),
			fmt.Sprintf("%v", s.IncludeNotes),
		}, widths)
	}
	fmt.Println()
}

func printEntries(title string, entries []contracts.Entry) {
	PrintHeader(title)

	columns := append([]string{"DATE"}, scenario.Symptoms...)
	columns = append(columns, scenario.MetricRiskScore, "NOTE")
	widths := make([]int, len(columns))
	for i, c := range columns {
		widths[i] = len(c)
		if widths[i] < 5 {
			widths[i] = 5
		}
	}
	widths[0] = 10
	widths[len(widths)-1] = 30

	PrintTableHeader(columns, widths)
	for _, e := range entries {
		row := []string{window.DateKey(e.Date)}
		for _, c := range columns[1 : len(columns)-1] {
			row = append(row, fmt.Sprintf("%.1f", e.Metrics[c]))
		}
		row = append(row, strings.TrimSpace(e.Note))
		PrintTableRow(row, widths)
	}

	fmt.Println()
	PrintInfo(fmt.Sprintf("%d entries", len(entries)))
}
