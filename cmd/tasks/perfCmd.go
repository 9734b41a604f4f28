package tasks

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/penpenguin/PetaTas-sub000/cmd/util"
	"github.com/penpenguin/PetaTas-sub000/lib/checklist"
	"github.com/rcrowley/go-metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	perfCmd = &cobra.Command{
		Use:     "perf",
		Short:   "Performance testing tool for the checklist store",
		Long:    "Measure save/load round-trip latency against the configured backend. Run with --backend=memory --throttle=1ms for meaningful numbers; with the default flush delay every save round trip includes the full coalescing window.",
		RunE:    runPerf,
		PreRunE: processPerfConfig,
	}
	perfRounds    = 100
	perfTaskCount = 50
	perfSkip      = make([]string, 0)
)

func init() {
	// add flags
	key := "rounds"
	perfCmd.Flags().Int(key, 100, util.WrapString("Number of rounds to run per benchmark"))
	key = "tasks"
	perfCmd.Flags().Int(key, 50, util.WrapString("Number of tasks in the benchmark collection"))
	key = "skip"
	perfCmd.Flags().String(key, "", util.WrapString("Benchmarks to skip (comma separated - e.g. save,load)"))
	key = "csv"
	perfCmd.Flags().String(key, "", util.WrapString("Optional path to save benchmark results as CSV"))
}

func processPerfConfig(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// Read the configuration from the command line flags and environment variables
	perfRounds = viper.GetInt("rounds")
	perfTaskCount = viper.GetInt("tasks")
	perfSkip = strings.Split(viper.GetString("skip"), ",")

	return nil
}

func runPerf(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	fmt.Println("Performance testing tool for the checklist store")
	fmt.Println()
	fmt.Println("Configuration:")
	fmt.Printf("Backend: %s\n", viper.GetString("backend"))
	fmt.Printf("Codec: %s\n", viper.GetString("codec"))
	fmt.Printf("Rounds: %d\n", perfRounds)
	fmt.Printf("Tasks per collection: %d\n", perfTaskCount)
	fmt.Println()
	fmt.Println("starting tests...")

	registry := metrics.NewRegistry()
	collection := perfCollection(perfTaskCount)

	// save: full save round trip including the coalescing window
	saveTimer := metrics.GetOrRegisterTimer("save", registry)
	if !shouldSkip("save") {
		for i := 0; i < perfRounds; i++ {
			collection[0].ElapsedMs = int64(i) // keep every round a distinct payload
			start := time.Now()
			receipt, err := store.SaveTasks(collection)
			if err != nil {
				return fmt.Errorf("(save) - error saving collection: %w", err)
			}
			if err := receipt.Wait(ctx); err != nil && !checklist.IsSuperseded(err) {
				return fmt.Errorf("(save) - error waiting for flush: %w", err)
			}
			saveTimer.UpdateSince(start)
		}
	}
	printTimer("save", saveTimer)

	// load: read and decode the whole collection
	loadTimer := metrics.GetOrRegisterTimer("load", registry)
	if !shouldSkip("load") {
		for i := 0; i < perfRounds; i++ {
			start := time.Now()
			if _, err := store.LoadTasks(ctx); err != nil {
				return fmt.Errorf("(load) - error loading collection: %w", err)
			}
			loadTimer.UpdateSince(start)
		}
	}
	printTimer("load", loadTimer)

	// timer-save: single-record save round trip
	timerSaveTimer := metrics.GetOrRegisterTimer("timer-save", registry)
	if !shouldSkip("timer-save") {
		for i := 0; i < perfRounds; i++ {
			state := checklist.TimerState{
				TaskID:    collection[i%len(collection)].ID,
				IsRunning: true,
				StartTime: time.Now().UTC(),
				ElapsedMs: int64(i),
			}
			start := time.Now()
			receipt, err := store.SaveTimerState(state)
			if err != nil {
				return fmt.Errorf("(timer-save) - error saving state: %w", err)
			}
			if err := receipt.Wait(ctx); err != nil && !checklist.IsSuperseded(err) {
				return fmt.Errorf("(timer-save) - error waiting for flush: %w", err)
			}
			timerSaveTimer.UpdateSince(start)
		}
	}
	printTimer("timer-save", timerSaveTimer)

	// timer-load: single-record read
	timerLoadTimer := metrics.GetOrRegisterTimer("timer-load", registry)
	if !shouldSkip("timer-load") {
		for i := 0; i < perfRounds; i++ {
			start := time.Now()
			if _, err := store.LoadTimerState(ctx, collection[i%len(collection)].ID); err != nil {
				return fmt.Errorf("(timer-load) - error loading state: %w", err)
			}
			timerLoadTimer.UpdateSince(start)
		}
	}
	printTimer("timer-load", timerLoadTimer)

	// cleanup
	if err := store.ClearTimerStates(ctx); err != nil {
		return fmt.Errorf("error cleaning up timer states: %w", err)
	}
	if err := store.ClearTasks(ctx); err != nil {
		return fmt.Errorf("error cleaning up collection: %w", err)
	}

	// Write results to csv if specified
	if csvPath := viper.GetString("csv"); csvPath != "" {
		fmt.Printf("\nExporting results to CSV: %s\n", csvPath)
		if err := writeResultsToCSV(csvPath, registry); err != nil {
			return fmt.Errorf("failed to export results to CSV: %v", err)
		}
		fmt.Println("Export complete")
	}

	return nil
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

func shouldSkip(test string) bool {
	// Check if the test is in the skip list
	for _, skip := range perfSkip {
		if test == skip {
			return true
		}
	}
	return false
}

// perfCollection builds a benchmark collection of realistic-looking tasks
func perfCollection(n int) []checklist.Task {
	now := time.Now().UTC()
	tasks := make([]checklist.Task, 0, n)
	for i := 0; i < n; i++ {
		tasks = append(tasks, checklist.Task{
			ID:        fmt.Sprintf("perf-%04d", i),
			Name:      fmt.Sprintf("benchmark row %d", i),
			Status:    checklist.StatusTodo,
			Notes:     "synthetic benchmark record",
			CreatedAt: now,
			UpdatedAt: now,
			AdditionalColumns: map[string]string{
				"Round": strconv.Itoa(i),
			},
		})
	}
	return tasks
}

// printTimer prints one benchmark result in a formatted way
func printTimer(test string, t metrics.Timer) {
	if t.Count() == 0 {
		fmt.Printf("%-14sskipped\n", test)
		return
	}
	ps := t.Percentiles([]float64{0.5, 0.95, 0.99})
	fmt.Printf("%-14s%d ops\tmean %s\tp50 %s\tp95 %s\tp99 %s\t%.0f ops/sec\n",
		test,
		t.Count(),
		time.Duration(t.Mean()),
		time.Duration(ps[0]),
		time.Duration(ps[1]),
		time.Duration(ps[2]),
		t.RateMean(),
	)
}

// writeResultsToCSV writes benchmark results to a CSV file
func writeResultsToCSV(csvPath string, registry metrics.Registry) error {
	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %v", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	// Write header
	header := []string{
		"Test", "Count", "MeanNs", "P50Ns", "P95Ns", "P99Ns", "OpsPerSec",
		"Backend", "Codec", "Rounds", "TaskCount",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %v", err)
	}

	// Write test results
	var writeErr error
	registry.Each(func(name string, metric interface{}) {
		t, ok := metric.(metrics.Timer)
		if !ok || writeErr != nil {
			return
		}
		ps := t.Percentiles([]float64{0.5, 0.95, 0.99})
		row := []string{
			name,
			strconv.FormatInt(t.Count(), 10),
			fmt.Sprintf("%.0f", t.Mean()),
			fmt.Sprintf("%.0f", ps[0]),
			fmt.Sprintf("%.0f", ps[1]),
			fmt.Sprintf("%.0f", ps[2]),
			fmt.Sprintf("%.0f", t.RateMean()),
			viper.GetString("backend"),
			viper.GetString("codec"),
			strconv.Itoa(perfRounds),
			strconv.Itoa(perfTaskCount),
		}
		if err := writer.Write(row); err != nil {
			writeErr = fmt.Errorf("failed to write CSV row: %v", err)
		}
	})

	return writeErr
}
