package tasks

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var (
	importCmd = &cobra.Command{
		Use:   "import [file]",
		Short: "Import a pasted table as the new task collection",
		Long:  "Import a task table from a file (or stdin when no file is given). Tab-separated and markdown tables are recognized; the first row names the columns. A 'name' column is required, 'status' and 'notes' are picked up when present, every other column is kept as an additional column.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var input io.Reader = os.Stdin
			if len(args) == 1 {
				file, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer file.Close()
				input = file
			}

			parsed, err := parseTable(input)
			if err != nil {
				return err
			}

			receipt, err := store.SaveTasks(parsed)
			if err != nil {
				return err
			}
			if err := receipt.Wait(cmd.Context()); err != nil {
				return err
			}
			fmt.Printf("imported %d tasks\n", len(parsed))
			return nil
		},
	}
	listCmd = &cobra.Command{
		Use:   "list",
		Short: "List the persisted task collection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := store.LoadTasks(cmd.Context())
			if err != nil {
				return err
			}
			if len(loaded) == 0 {
				fmt.Println("no tasks")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tSTATUS\tELAPSED\tNOTES")
			for _, task := range loaded {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					task.ID,
					task.Name,
					task.Status,
					(time.Duration(task.ElapsedMs) * time.Millisecond).String(),
					task.Notes,
				)
			}
			return w.Flush()
		},
	}
	clearCmd = &cobra.Command{
		Use:   "clear",
		Short: "Delete the whole persisted task collection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := store.ClearTasks(cmd.Context()); err != nil {
				return err
			}
			fmt.Println("cleared successfully")
			return nil
		},
	}
)
