package tasks

import (
	"context"
	"time"

	"github.com/penpenguin/PetaTas-sub000/cmd/util"
	"github.com/penpenguin/PetaTas-sub000/lib/checklist"
	"github.com/spf13/cobra"
)

var (
	store *checklist.Store

	// TaskCommands represents the tasks command group
	TaskCommands = &cobra.Command{
		Use:                "tasks",
		Short:              "Manage the persisted task collection",
		PersistentPreRunE:  setupStore,
		PersistentPostRunE: teardownStore,
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitConfig)

	// Add subcommands
	TaskCommands.AddCommand(importCmd)
	TaskCommands.AddCommand(listCmd)
	TaskCommands.AddCommand(clearCmd)
	TaskCommands.AddCommand(perfCmd)
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
