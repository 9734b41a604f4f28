package cmd

import (
	"fmt"
	"os"

	"github.com/penpenguin/PetaTas-sub000/cmd/info"
	"github.com/penpenguin/PetaTas-sub000/cmd/tasks"
	"github.com/penpenguin/PetaTas-sub000/cmd/timer"
	"github.com/penpenguin/PetaTas-sub000/cmd/util"
	"github.com/spf13/cobra"
)

const (
	Version = "0.4.2"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "petatas",
		Short: "chunked checklist and timer store",
		Long: fmt.Sprintf(`petatas (v%s)

A quota-aware persistence tool for task checklists and per-task
timers, with coalesced, rate-limited writes and chunked storage.`, Version),
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of petatas",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("petatas v%s\n", Version)
		},
	}
)

func init() {
	// Add Commands
	RootCmd.AddCommand(tasks.TaskCommands)
	RootCmd.AddCommand(timer.TimerCommands)
	RootCmd.AddCommand(info.InfoCmd)
	RootCmd.AddCommand(versionCmd)

	// Add Flags
	util.SetupStoreFlags(RootCmd)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
