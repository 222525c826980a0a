package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/wonny/symptrack/internal/contracts"
	"github.com/wonny/symptrack/internal/prediction"
	"github.com/wonny/symptrack/internal/scenario"
	"github.com/wonny/symptrack/internal/storage"
	"github.com/wonny/symptrack/internal/tracker"
	"github.com/wonny/symptrack/internal/window"
)

// simulateCmd represents the simulate command
var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "메모리 내 관찰 기간 시뮬레이션",
	Long: `메모리 저장소로 한 사용자의 관찰 기간을 끝까지 채운 뒤
새 기간으로 넘어가는 과정을 출력합니다.

Example:
  go run ./cmd/symptrack simulate
  go run ./cmd/symptrack simulate --step 3 --seed 42`,
	RunE: runSimulate,
}

var (
	simulateStep  int
	simulateSeed  int64
	simulateStart string
)

func init() {
	rootCmd.AddCommand(simulateCmd)

	simulateCmd.Flags().IntVar(&simulateStep, "step", 5, "한 번에 추가할 랜덤 일수")
	simulateCmd.Flags().Int64Var(&simulateSeed, "seed", 0, "난수 시드 (0 = 시각 기반)")
	simulateCmd.Flags().StringVar(&simulateStart, "start", "2024-05-01", "시작일 YYYY-MM-DD")
}

// printingNotifier prints every progress event
type printingNotifier struct{}

func (printingNotifier) Notify(_ context.Context, e contracts.ProgressEvent) error {
	if e.Kind == contracts.EventCompleted {
		PrintSuccess(e.Progress.Message())
	}
	return nil
}

func runSimulate(cmd *cobra.Command, args []string) error {
	if simulateStep <= 0 {
		return fmt.Errorf("--step must be positive")
	}
	start, err := window.ParseDate(simulateStart)
	if err != nil {
		return fmt.Errorf("invalid --start: %w", err)
	}

	ctx := context.Background()
	dispatcher := prediction.NewDispatcher(zerolog.Nop(), prediction.WithNotifier(printingNotifier{}))
	registry := tracker.NewRegistry(tracker.Deps{
		Store:     storage.NewMemoryStore(),
		Trigger:   dispatcher,
		Generator: scenario.NewGenerator(simulateSeed),
		Clock:     func() time.Time { return start },
		Logger:    zerolog.Nop(),
	})

	t, err := registry.Get(ctx, "demo")
	if err != nil {
		return err
	}

	PrintHeader("Simulation: user demo")
	p := t.Progress()
	PrintKeyValue("Window", p.WindowID, 8)
	PrintKeyValue("Period", fmt.Sprintf("%s ~ %s", window.DateKey(p.StartDate), window.DateKey(p.EndDate)), 8)
	PrintSeparator()

	for round := 1; !t.Progress().IsComplete; round++ {
		result, err := t.AddRandomDays(ctx, simulateStep)
		if err != nil {
			return err
		}
		p := t.Progress()
		fmt.Printf("  round %d: +%d accepted, %d rejected\n", round, result.Accepted, result.Rejected)
		PrintProgressBar(p.CompletedDays, p.TotalDays, p.Percentage)
	}

	// one more call at capacity: everything is rejected
	result, err := t.AddRandomDays(ctx, simulateStep)
	if err != nil {
		return err
	}
	PrintWarning(fmt.Sprintf("window full: %d accepted, %d rejected", result.Accepted, result.Rejected))

	next := window.EndDate(t.Progress().StartDate).AddDate(0, 0, 1)
	if err := t.StartNewPeriod(ctx, next); err != nil {
		return err
	}

	PrintSeparator()
	p = t.Progress()
	PrintInfo("new tracking period started")
	PrintKeyValue("Window", p.WindowID, 8)
	PrintKeyValue("Period", fmt.Sprintf("%s ~ %s", window.DateKey(p.StartDate), window.DateKey(p.EndDate)), 8)
	PrintProgressBar(p.CompletedDays, p.TotalDays, p.Percentage)
	fmt.Println()
	return nil
}
