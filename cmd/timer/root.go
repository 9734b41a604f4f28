package timer

import (
	"context"
	"fmt"
	"time"

	"github.com/penpenguin/PetaTas-sub000/cmd/util"
	"github.com/penpenguin/PetaTas-sub000/lib/checklist"
	"github.com/spf13/cobra"
)

var (
	store *checklist.Store

	// TimerCommands represents the timer command group
	TimerCommands = &cobra.Command{
		Use:                "timer",
		Short:              "Manage persisted per-task timer records",
		PersistentPreRunE:  setupStore,
		PersistentPostRunE: teardownStore,
	}

	// showCmd represents the show command
	showCmd = &cobra.Command{
		Use:   "show [taskID]",
		Short: "Show the timer record of a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			state, err := store.LoadTimerState(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if state == nil {
				fmt.Printf("taskId=%s, no timer record\n", args[0])
				return nil
			}
			elapsed := time.Duration(state.ElapsedMs) * time.Millisecond
			fmt.Printf("taskId=%s, running=%v, elapsed=%s, startedAt=%s\n",
				state.TaskID, state.IsRunning, elapsed, state.StartTime.Format(time.RFC3339))
			return nil
		},
	}

	// clearCmd represents the clear command
	clearCmd = &cobra.Command{
		Use:   "clear [taskID]",
		Short: "Delete the timer record of a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := store.ClearTimerState(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Println("cleared successfully")
			return nil
		},
	}

	// clearAllCmd represents the clear-all command
	clearAllCmd = &cobra.Command{
		Use:   "clear-all",
		Short: "Delete every stored timer record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := store.ClearTimerStates(cmd.Context()); err != nil {
				return err
			}
			fmt.Println("cleared successfully")
			return nil
		},
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitConfig)

	// Add subcommands
	TimerCommands.AddCommand(showCmd)
	TimerCommands.AddCommand(clearCmd)
	TimerCommands.AddCommand(clearAllCmd)
}

// setupStore assembles the checklist store from the configured backend
func setupStore(cmd *cobra.Command, _ []string) error {
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	var err error
	store, err = util.GetStore()
	return err
}

// teardownStore drains pending writes so nothing queued is lost on exit
func teardownStore(_ *cobra.Command, _ []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return store.Close(ctx)
}
